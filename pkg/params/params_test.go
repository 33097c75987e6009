package params

import (
	"strings"
	"testing"
)

type customParams struct {
	Base
	Threshold float64  `json:"threshold"`
	Words     []string `json:"words"`
}

func customFactory() Parameters {
	return &customParams{Base: NewBase(), Threshold: 0.5}
}

func TestDefaults(t *testing.T) {
	p, messages, err := Defaults(DefaultFactory)
	if err != nil {
		t.Fatalf("defaults: %v (%v)", err, messages)
	}

	base := p.Common()
	if !base.Annotate {
		t.Error("annotate should default to true")
	}
	if base.Modify || base.Reject {
		t.Error("modify and reject should default to false")
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name        string
		json        string
		wantErr     bool
		wantMessage string
	}{
		{
			name: "reserved flags",
			json: `{"annotate":false,"modify":true}`,
		},
		{
			name: "custom fields",
			json: `{"threshold":0.9,"words":["a"]}`,
		},
		{
			name:        "modify and reject together",
			json:        `{"modify":true,"reject":true}`,
			wantErr:     true,
			wantMessage: "modify and reject modes are mutually exclusive",
		},
		{
			name:        "unknown field",
			json:        `{"bogus":1}`,
			wantErr:     true,
			wantMessage: "unknown field: bogus",
		},
		{
			name:        "type mismatch",
			json:        `{"threshold":"high"}`,
			wantErr:     true,
			wantMessage: "expected float64 but received string: threshold",
		},
		{
			name:    "trailing garbage",
			json:    `{"threshold":1} extra`,
			wantErr: true,
		},
		{
			name:    "not json",
			json:    `not json at all`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, messages, err := Decode(tt.json, customFactory)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if len(messages) == 0 {
					t.Fatal("expected at least one message")
				}
				if tt.wantMessage != "" && messages[0] != tt.wantMessage {
					t.Errorf("message = %q, want %q", messages[0], tt.wantMessage)
				}
				return
			}
			if err != nil {
				t.Fatalf("decode: %v (%v)", err, messages)
			}
			if p == nil {
				t.Fatal("decode returned nil parameters")
			}
		})
	}
}

func TestDecodePreservesFactoryDefaults(t *testing.T) {
	p, _, err := Decode(`{"words":["x"]}`, customFactory)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	custom := p.(*customParams)
	if custom.Threshold != 0.5 {
		t.Errorf("threshold = %v, want factory default 0.5", custom.Threshold)
	}
	if !custom.Annotate {
		t.Error("annotate default lost during decode")
	}
}

func TestSchemaFor(t *testing.T) {
	schema := SchemaFor(customFactory())

	if schema["type"] != "object" {
		t.Errorf("schema type = %v", schema["type"])
	}
	properties, ok := schema["properties"].(map[string]any)
	if !ok {
		t.Fatal("schema has no properties")
	}
	for _, field := range []string{"annotate", "modify", "reject", "threshold", "words"} {
		if _, ok := properties[field]; !ok {
			t.Errorf("schema missing property %q", field)
		}
	}
}

func TestValidateSchema(t *testing.T) {
	schema := SchemaFor(customFactory())

	messages, err := ValidateSchema(`{"annotate":true,"threshold":0.1}`, schema)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("unexpected violations: %v", messages)
	}

	messages, err = ValidateSchema(`{"threshold":"wrong"}`, schema)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(messages) == 0 {
		t.Error("expected violations for wrong type")
	}
	for _, m := range messages {
		if !strings.Contains(m, "threshold") {
			t.Errorf("violation %q does not name the field", m)
		}
	}
}
