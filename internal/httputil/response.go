package httputil

import (
	"encoding/json"
	"net/http"
)

// RespondJSON writes data as JSON with the given status. The payload is
// marshaled before any header is written so a failure can still become a 500.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		RespondError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}
	write(w, status, "application/json", payload)
}

// ProblemDetail is an RFC 7807 problem document. Extra members such as
// reason_code are flattened into the top-level object.
type ProblemDetail struct {
	Type     string
	Title    string
	Status   int
	Detail   string
	Instance string
	Extra    map[string]interface{}
}

func (p ProblemDetail) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{}, len(p.Extra)+5)
	for k, v := range p.Extra {
		m[k] = v
	}
	m["type"] = p.Type
	m["title"] = p.Title
	m["status"] = p.Status
	if p.Detail != "" {
		m["detail"] = p.Detail
	}
	if p.Instance != "" {
		m["instance"] = p.Instance
	}
	return json.Marshal(m)
}

// NewProblem builds a problem document for status.
func NewProblem(status int, detail string) ProblemDetail {
	t, ok := problemTypes[status]
	if !ok {
		t = "about:blank"
	}
	return ProblemDetail{Type: t, Title: http.StatusText(status), Status: status, Detail: detail}
}

// RespondError writes an RFC 7807 error response.
func RespondError(w http.ResponseWriter, status int, detail string) {
	RespondProblem(w, NewProblem(status, detail))
}

// RespondErrorWithExtras writes an RFC 7807 error with additional members.
func RespondErrorWithExtras(w http.ResponseWriter, status int, detail string, extras map[string]interface{}) {
	p := NewProblem(status, detail)
	p.Extra = extras
	RespondProblem(w, p)
}

// RespondProblem writes p with the application/problem+json content type.
func RespondProblem(w http.ResponseWriter, p ProblemDetail) {
	payload, err := json.Marshal(p)
	if err != nil {
		write(w, http.StatusInternalServerError, "text/plain; charset=utf-8", []byte("internal server error"))
		return
	}
	write(w, p.Status, "application/problem+json", payload)
}

func write(w http.ResponseWriter, status int, contentType string, payload []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

var problemTypes = map[int]string{
	http.StatusBadRequest:            "https://datatracker.ietf.org/doc/html/rfc9110#section-15.5.1",
	http.StatusUnauthorized:          "https://datatracker.ietf.org/doc/html/rfc9110#section-15.5.2",
	http.StatusForbidden:             "https://datatracker.ietf.org/doc/html/rfc9110#section-15.5.4",
	http.StatusNotFound:              "https://datatracker.ietf.org/doc/html/rfc9110#section-15.5.5",
	http.StatusConflict:              "https://datatracker.ietf.org/doc/html/rfc9110#section-15.5.10",
	http.StatusRequestEntityTooLarge: "https://datatracker.ietf.org/doc/html/rfc9110#section-15.5.14",
	http.StatusInternalServerError:   "https://datatracker.ietf.org/doc/html/rfc9110#section-15.6.1",
	http.StatusServiceUnavailable:    "https://datatracker.ietf.org/doc/html/rfc9110#section-15.6.4",
}
