package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrUnknownResponse means a continuation handle is unknown to the provider,
// typically because it expired. The context must be rebuilt.
var ErrUnknownResponse = errors.New("unknown or expired response handle")

// ProviderKind is the closed set of model provider variants.
type ProviderKind string

const (
	ProviderOpenAI     ProviderKind = "openai"
	ProviderGemini     ProviderKind = "gemini"
	ProviderOpenRouter ProviderKind = "openrouter"
	ProviderLorem      ProviderKind = "lorem"
)

// ContextPolicy describes how a provider keeps conversation state.
// Providers without persistent context skip the seeding call and hand back
// Sentinel in place of a response handle.
type ContextPolicy struct {
	Persistent bool
	Sentinel   string
}

// ModelProvider is implemented by each provider adapter.
type ModelProvider interface {
	Kind() ProviderKind

	ContextPolicy() ContextPolicy

	// SetCompanyContext starts a new conversation seeded with instructions
	// and returns the handle of the seed response.
	SetCompanyContext(ctx context.Context, req *SeedRequest) (string, error)

	// Invoke continues the conversation identified by req.PreviousResponseID.
	Invoke(ctx context.Context, req *InvokeRequest) (*InvokeResponse, error)
}

// SeedRequest opens a conversation.
type SeedRequest struct {
	Model        string
	Instructions string
}

// ToolDefinition describes a function the model may call.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]interface{} // JSON Schema
}

// ToolCaller executes a model-initiated function call and returns its
// result serialized for the model.
type ToolCaller func(ctx context.Context, name string, arguments json.RawMessage) (string, error)

// InvokeRequest is one model turn.
type InvokeRequest struct {
	Model              string
	PreviousResponseID string

	// Instructions are sent only when the provider holds no seed for
	// PreviousResponseID (non-persistent providers).
	Instructions string

	Input    string
	Tools    []ToolDefinition
	CallTool ToolCaller
}

// InvokeResponse is the model's answer for one turn.
type InvokeResponse struct {
	ResponseID     string
	Answer         string
	AdditionalData map[string]interface{}
}

// ProviderResolver routes a model identifier to its provider adapter.
type ProviderResolver interface {
	ForModel(model string) (ModelProvider, error)
}
