package models

import "time"

// JSONMap is a free-form attribute bag (JSONB columns, session data)
type JSONMap map[string]interface{}

// Clone returns a shallow copy so callers can merge without aliasing stored data.
func (m JSONMap) Clone() JSONMap {
	out := make(JSONMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// SessionRecord is the per (company, user) conversational context.
// LastResponseHandle is empty until context has been initialized.
type SessionRecord struct {
	UserSessionData    JSONMap `json:"user_session_data"`
	LastResponseHandle string  `json:"last_response_handle,omitempty"`
	ContextVersion     string  `json:"context_version,omitempty"`
	Invalidated        bool    `json:"invalidated,omitempty"`
}

// WebSession is the server-side state behind a browser session cookie.
type WebSession struct {
	ID               string    `json:"id"`
	CompanyShortName string    `json:"company_short_name"`
	UserIdentifier   string    `json:"user_identifier"`
	UserEmail        string    `json:"user_email,omitempty"`
	IsLocalUser      bool      `json:"is_local_user"`
	CreatedAt        time.Time `json:"created_at"`
}
