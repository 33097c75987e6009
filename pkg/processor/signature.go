package processor

import (
	"encoding/json"
	"io"
	"net/http"

	"prochost/pkg/params"
)

// SignatureHandler returns the handler for the signature endpoint. GET
// serves the processor's field contract and parameters schema; POST
// additionally validates a candidate parameters document, which the
// gateway uses to check its configuration before routing traffic.
func (p *Processor) SignatureHandler() http.Handler {
	return http.HandlerFunc(p.handleSignature)
}

type signatureValidation struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

func (p *Processor) handleSignature(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		writeMessage(w, http.StatusMethodNotAllowed, "Only GET requests are supported")
		return
	}

	body := map[string]any{
		"fields":     p.sig.ToList(),
		"parameters": p.paramsSchema,
	}

	status := http.StatusOK
	if r.Method == http.MethodPost {
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "unable to read request body")
			return
		}
		validation := signatureValidation{Valid: true, Errors: []string{}}
		if _, messages, derr := params.Decode(string(raw), p.paramsFactory); derr != nil {
			validation.Valid = false
			validation.Errors = messages
			status = http.StatusBadRequest
		}
		body["validation"] = validation
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeMessage sends the plain status envelope used outside the multipart
// contract, for routing-level responses.
func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"message":     message,
		"status_code": status,
	})
}
