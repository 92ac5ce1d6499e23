package handler

import "net/http"

// Handlers groups the endpoint handlers mounted by Register.
type Handlers struct {
	Auth   *AuthHandler
	Chat   *ChatHandler
	Models *ModelsHandler
	Health *HealthHandler
}

// Register mounts every route on mux (Go 1.22+ enhanced patterns).
// requireIdentity guards the JSON query APIs.
func Register(mux *http.ServeMux, h Handlers, requireIdentity func(http.Handler) http.Handler) {
	// Health check
	mux.HandleFunc("GET /health", h.Health.HealthCheck)

	// Model capabilities
	mux.HandleFunc("GET /api/models", h.Models.GetCapabilities)

	// Login flows
	mux.HandleFunc("GET /{company}/login", h.Auth.LoginPage)
	mux.HandleFunc("POST /{company}/login", h.Auth.Login)
	mux.HandleFunc("POST /{company}/external_login", h.Auth.ExternalLogin)
	mux.HandleFunc("POST /{company}/api/redeem_token", h.Auth.RedeemToken)
	mux.HandleFunc("GET /{company}/logout", h.Auth.Logout)

	// Context finalization and chat UI
	mux.HandleFunc("GET /{company}/finalize_context", h.Chat.FinalizeContext)
	mux.HandleFunc("GET /{company}/finalize/{token}", h.Chat.FinalizeWithToken)
	mux.HandleFunc("GET /{company}/chat", h.Chat.ChatPage)

	// Query APIs
	mux.Handle("POST /{company}/llm_query", requireIdentity(http.HandlerFunc(h.Chat.LLMQuery)))
	mux.Handle("POST /api/{company}/init-context", requireIdentity(http.HandlerFunc(h.Chat.InitContext)))
}
