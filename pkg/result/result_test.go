package result

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"prochost/pkg/content"
	"prochost/pkg/multipart"
	"prochost/pkg/tags"
)

func mustTags(t *testing.T, initial map[string][]string) *tags.Tags {
	t.Helper()
	tg, err := tags.New(initial)
	if err != nil {
		t.Fatalf("tags: %v", err)
	}
	return tg
}

func TestValidate(t *testing.T) {
	r := &Result{
		ModifiedPrompt:   content.NewRequestInput("a"),
		ModifiedResponse: content.NewResponseOutput("b"),
	}
	if err := r.Validate(); err == nil {
		t.Fatal("expected error for both modifications set")
	}

	if err := (&Result{ModifiedPrompt: content.NewRequestInput("a")}).Validate(); err != nil {
		t.Errorf("single modification rejected: %v", err)
	}
}

func TestIsEmpty(t *testing.T) {
	tests := []struct {
		name   string
		result *Result
		want   bool
	}{
		{name: "zero value", result: &Result{}, want: true},
		{name: "metadata", result: &Result{Metadata: content.Metadata{"k": "v"}}, want: false},
		{name: "modified prompt", result: &Result{ModifiedPrompt: content.NewRequestInput("x")}, want: false},
		{name: "processor result", result: &Result{ProcessorResult: content.Metadata{"k": 1}}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.IsEmpty(); got != tt.want {
				t.Errorf("IsEmpty = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsEmptyWithTags(t *testing.T) {
	r := &Result{Tags: mustTags(t, map[string][]string{"k": {"v"}})}
	if r.IsEmpty() {
		t.Error("result with tags should not be empty")
	}
}

func TestValidateAllowed(t *testing.T) {
	var logged bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logged, nil))

	t.Run("modification dropped", func(t *testing.T) {
		r := &Result{ModifiedPrompt: content.NewRequestInput("x")}
		r.ValidateAllowed(logger, "p", true, false)
		if r.ModifiedPrompt != nil {
			t.Error("modification should be dropped when modify=false")
		}
		if !strings.Contains(logged.String(), "modification will be dropped") {
			t.Error("expected a warning for the dropped modification")
		}
	})

	t.Run("tags dropped", func(t *testing.T) {
		r := &Result{Tags: mustTags(t, map[string][]string{"k": {"v"}})}
		r.ValidateAllowed(logger, "p", false, false)
		if !r.Tags.IsEmpty() {
			t.Error("tags should be dropped when annotate=false")
		}
	})

	t.Run("allowed stays", func(t *testing.T) {
		r := &Result{
			ModifiedPrompt: content.NewRequestInput("x"),
			Tags:           mustTags(t, map[string][]string{"k": {"v"}}),
		}
		r.ValidateAllowed(logger, "p", true, true)
		if r.ModifiedPrompt == nil || r.Tags.IsEmpty() {
			t.Error("permitted modification or tags were dropped")
		}
	})
}

func TestResponseFieldsEmpty(t *testing.T) {
	fields, status, err := (&Result{}).ResponseFields()
	if err != nil {
		t.Fatalf("response fields: %v", err)
	}
	if status != http.StatusNoContent {
		t.Errorf("status = %d, want 204", status)
	}
	if len(fields) != 0 {
		t.Errorf("fields = %v, want none", fields)
	}
}

func TestResponseFieldsFoldsAnnotations(t *testing.T) {
	r := &Result{
		Metadata:        content.Metadata{"custom": "value"},
		ProcessorResult: content.Metadata{"score": 0.7},
		Tags:            mustTags(t, map[string][]string{"test1": {"a", "b"}}),
	}

	fields, status, err := r.ResponseFields()
	if err != nil {
		t.Fatalf("response fields: %v", err)
	}
	if status != http.StatusOK {
		t.Errorf("status = %d, want 200", status)
	}
	if len(fields) != 1 || fields[0].Name != multipart.FieldMetadata {
		t.Fatalf("fields = %+v, want single metadata part", fields)
	}

	var meta map[string]any
	if err := json.Unmarshal([]byte(fields[0].Content), &meta); err != nil {
		t.Fatalf("metadata part is not JSON: %v", err)
	}
	if meta["custom"] != "value" {
		t.Error("custom metadata key lost")
	}
	if _, ok := meta["processor_result"]; !ok {
		t.Error("processor_result not folded into metadata")
	}
	tagMap, ok := meta["tags"].(map[string]any)
	if !ok {
		t.Fatal("tags not folded into metadata")
	}
	values, _ := tagMap["test1"].([]any)
	if len(values) != 2 {
		t.Errorf("tags.test1 = %v, want [a b]", tagMap["test1"])
	}
}

func TestResponseFieldsWithModification(t *testing.T) {
	r := &Result{
		Metadata:       content.Metadata{},
		ModifiedPrompt: content.NewRequestInput("rewritten"),
	}

	fields, status, err := r.ResponseFields()
	if err != nil {
		t.Fatalf("response fields: %v", err)
	}
	if status != http.StatusOK {
		t.Errorf("status = %d, want 200", status)
	}
	if len(fields) != 2 {
		t.Fatalf("got %d fields, want 2", len(fields))
	}

	var byName = map[string]multipart.Field{}
	for _, f := range fields {
		byName[f.Name] = f
	}
	if _, ok := byName[multipart.FieldInput]; !ok {
		t.Error("missing input.messages part")
	}
	if _, ok := byName[multipart.FieldMetadata]; !ok {
		t.Error("missing metadata part")
	}
}

func TestRejectResponseFields(t *testing.T) {
	rej := &Reject{
		Code:     RejectPolicyViolation,
		Detail:   "blocked",
		Metadata: content.Metadata{"k": "v"},
		Tags:     mustTags(t, map[string][]string{"reason": {"policy"}}),
	}

	fields, status, err := rej.ResponseFields()
	if err != nil {
		t.Fatalf("response fields: %v", err)
	}
	if status != http.StatusOK {
		t.Errorf("status = %d, want 200", status)
	}
	if len(fields) != 2 {
		t.Fatalf("got %d fields, want 2", len(fields))
	}
	if fields[0].Name != multipart.FieldReject {
		t.Errorf("first field = %q, want reject", fields[0].Name)
	}

	var body map[string]any
	if err := json.Unmarshal([]byte(fields[0].Content), &body); err != nil {
		t.Fatalf("reject part is not JSON: %v", err)
	}
	if body["code"] != string(RejectPolicyViolation) {
		t.Errorf("code = %v", body["code"])
	}
	if body["detail"] != "blocked" {
		t.Errorf("detail = %v", body["detail"])
	}
	// processor_result is always present in the reject body, null when unset.
	if _, ok := body["processor_result"]; !ok {
		t.Error("reject body missing processor_result key")
	}

	var meta map[string]any
	if err := json.Unmarshal([]byte(fields[1].Content), &meta); err != nil {
		t.Fatalf("metadata part is not JSON: %v", err)
	}
	if _, ok := meta["tags"]; !ok {
		t.Error("tags not folded into reject metadata")
	}
}

func TestRejectCodes(t *testing.T) {
	codes := []RejectCode{
		RejectAuthentication,
		RejectAuthorization,
		RejectPolicyViolation,
		RejectRateLimit,
		RejectResourceAvailability,
		RejectTimeout,
		RejectValidation,
	}
	for _, c := range codes {
		if !strings.HasPrefix(string(c), "AIGW_") {
			t.Errorf("code %q lacks AIGW_ prefix", c)
		}
	}
}
