package models

// ContextPrepResult is consumed once per login attempt to choose fast or slow path.
type ContextPrepResult struct {
	RebuildNeeded bool `json:"rebuild_needed"`
}

// RebuildResult is returned after a context rebuild completes.
type RebuildResult struct {
	ResponseHandle string `json:"response_id"`
}

// AttachedFile is a client-supplied file sent along with a question.
type AttachedFile struct {
	Filename string `json:"filename"`
	Content  string `json:"content"` // base64
}

// QueryRequest is one question/answer turn.
type QueryRequest struct {
	CompanyShortName string         `json:"-"`
	Question         string         `json:"question"`
	PromptName       string         `json:"prompt_name"`
	ClientData       JSONMap        `json:"client_data"`
	ExternalUserID   string         `json:"external_user_id"`
	LocalUserID      int64          `json:"local_user_id"`
	Model            string         `json:"model"`
	Files            []AttachedFile `json:"files"`
}

// QueryErrorKind classifies expected business failures of a turn.
type QueryErrorKind string

const (
	QueryErrorCompanyNotFound QueryErrorKind = "company_not_found"
	QueryErrorMissingIdentity QueryErrorKind = "missing_identity"
	QueryErrorMissingInput    QueryErrorKind = "missing_input"
	QueryErrorPromptNotFound  QueryErrorKind = "prompt_not_found"
	QueryErrorMissingContext  QueryErrorKind = "missing_context"
)

// QueryResult is the outcome of a turn. On business failure ErrorKind is set
// and Answer is empty.
type QueryResult struct {
	Valid          bool           `json:"valid_response"`
	Answer         string         `json:"answer,omitempty"`
	AdditionalData JSONMap        `json:"additional_data,omitempty"`
	ResponseID     string         `json:"response_id,omitempty"`
	ErrorKind      QueryErrorKind `json:"error_kind,omitempty"`
	ErrorMessage   string         `json:"error_message,omitempty"`
}

// QueryFailure builds a typed business-failure result.
func QueryFailure(kind QueryErrorKind, message string) *QueryResult {
	return &QueryResult{ErrorKind: kind, ErrorMessage: message}
}
