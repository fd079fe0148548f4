package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// WriteJSON writes data as a single JSON line.
func WriteJSON(w io.Writer, data any) {
	_ = json.NewEncoder(w).Encode(data) // Write error intentionally ignored in response helper
}

// errorResponse is the standard error response format.
type errorResponse struct {
	Command string `json:"command,omitempty"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a standard error line with the given error code and
// human-readable message.
func WriteError(w io.Writer, command, errorCode, message string) {
	WriteJSON(w, errorResponse{
		Command: command,
		Error:   errorCode,
		Message: message,
	})
}

// ParseJSON decodes data into v. Unknown fields and trailing content are
// rejected.
func ParseJSON(data []byte, v any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("command arguments must be a JSON object")
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %v", err)
	}
	if dec.More() {
		return fmt.Errorf("invalid JSON: unexpected trailing data")
	}

	return nil
}
