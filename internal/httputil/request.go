package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// MaxBodyBytes bounds JSON request bodies. Attachments arrive base64
// encoded inside llm_query bodies, so this is well above a single file.
const MaxBodyBytes = 16 << 20

// ErrBodyTooLarge is returned by ParseJSON when the body exceeds MaxBodyBytes.
var ErrBodyTooLarge = errors.New("request body too large")

// ParseJSON decodes a single JSON value from the request body into dest.
// Unknown fields are accepted so client_data and future options pass through.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dest); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return ErrBodyTooLarge
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("invalid JSON: unexpected data after the request object")
	}
	return nil
}
