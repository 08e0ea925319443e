// Package httputil holds the JSON envelope helpers shared by every handler.
package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	dErrors "bridges/pkg/domain-errors"
)

const maxBodyBytes = 1 << 20

// Detailer is implemented by errors that expose extra, client-safe fields in
// the error envelope (for example the status of a conflicting follow edge).
type Detailer interface {
	ErrorDetails() map[string]any
}

// WriteJSON writes v as a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into the JSON error envelope.
// Internal errors never leak their description.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := map[string]any{"error": string(code)}
	if code != dErrors.CodeInternal {
		var de *dErrors.Error
		if errors.As(err, &de) && de.Message != "" {
			body["error_description"] = de.Message
		}
		var d Detailer
		if errors.As(err, &d) {
			for k, v := range d.ErrorDetails() {
				body[k] = v
			}
		}
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), body)
}

// WriteErrorCode writes the envelope with an endpoint-specific error code
// that has no domain counterpart, such as "not_following".
func WriteErrorCode(w http.ResponseWriter, status int, code, description string) {
	WriteJSON(w, status, map[string]any{"error": code, "error_description": description})
}

// DecodeJSON decodes a bounded request body into dst, rejecting unknown
// fields and trailing data.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}
	if dec.More() {
		return dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}
	return nil
}
