package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"

	domainllm "tenantchat/internal/domain/services/llm"
)

// answerFormat is appended to every seed so replies can be parsed.
const answerFormat = `

Always reply with a single JSON object of the form {"answer": "<markdown answer>", "additional_data": {}}.`

// seedAcknowledgement is the user turn that closes a context seed.
const seedAcknowledgement = "Confirm that you have received the company context. Reply with an empty answer."

// ChatCompletionClient is the subset of *openai.Client used by the adapters.
type ChatCompletionClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ChatCompletionsAdapter implements ModelProvider on an OpenAI-compatible
// chat completions API. Both OpenAI and Gemini's compatibility endpoint use it.
type ChatCompletionsAdapter struct {
	kind        domainllm.ProviderKind
	policy      domainllm.ContextPolicy
	client      ChatCompletionClient
	transcripts TranscriptStore
	maxRounds   int
	logger      *slog.Logger
}

// NewChatCompletionsAdapter creates an adapter for the given provider variant.
func NewChatCompletionsAdapter(
	kind domainllm.ProviderKind,
	policy domainllm.ContextPolicy,
	client ChatCompletionClient,
	transcripts TranscriptStore,
	maxRounds int,
	logger *slog.Logger,
) *ChatCompletionsAdapter {
	if maxRounds <= 0 {
		maxRounds = 1
	}
	return &ChatCompletionsAdapter{
		kind:        kind,
		policy:      policy,
		client:      client,
		transcripts: transcripts,
		maxRounds:   maxRounds,
		logger:      logger,
	}
}

// NewOpenAIClient creates a go-openai client, optionally against a compatible base URL.
func NewOpenAIClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

// Kind returns the provider variant.
func (a *ChatCompletionsAdapter) Kind() domainllm.ProviderKind {
	return a.kind
}

// ContextPolicy returns how this provider keeps conversation state.
func (a *ChatCompletionsAdapter) ContextPolicy() domainllm.ContextPolicy {
	return a.policy
}

// SetCompanyContext seeds a new conversation with instructions and returns its handle.
func (a *ChatCompletionsAdapter) SetCompanyContext(ctx context.Context, req *domainllm.SeedRequest) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: req.Instructions + answerFormat},
		{Role: openai.ChatMessageRoleUser, Content: seedAcknowledgement},
	}

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:          upstreamModel(a.kind, req.Model),
		Messages:       messages,
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		return "", fmt.Errorf("%s set company context: %w", a.kind, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s set company context: empty response", a.kind)
	}

	messages = append(messages, resp.Choices[0].Message)
	id := responseID(resp)
	if err := a.transcripts.Save(ctx, id, messages); err != nil {
		return "", err
	}

	a.logger.Debug("company context seeded",
		"provider", a.kind,
		"model", req.Model,
		"response_id", id,
		"prompt_tokens", resp.Usage.PromptTokens,
	)
	return id, nil
}

// Invoke continues a conversation. Model-initiated tool calls are executed
// through req.CallTool for up to maxRounds rounds.
func (a *ChatCompletionsAdapter) Invoke(ctx context.Context, req *domainllm.InvokeRequest) (*domainllm.InvokeResponse, error) {
	messages, err := a.history(ctx, req)
	if err != nil {
		return nil, err
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Input})

	chatReq := openai.ChatCompletionRequest{
		Model:          upstreamModel(a.kind, req.Model),
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}
	if req.CallTool != nil {
		chatReq.Tools = toOpenAITools(req.Tools)
	}

	for round := 0; round < a.maxRounds; round++ {
		chatReq.Messages = messages
		resp, err := a.client.CreateChatCompletion(ctx, chatReq)
		if err != nil {
			return nil, fmt.Errorf("%s invoke: %w", a.kind, err)
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("%s invoke: empty response", a.kind)
		}

		msg := resp.Choices[0].Message
		messages = append(messages, msg)

		if len(msg.ToolCalls) == 0 || req.CallTool == nil {
			id := responseID(resp)
			if err := a.transcripts.Save(ctx, id, messages); err != nil {
				return nil, err
			}
			answer, extra := parseAnswer(msg.Content)
			return &domainllm.InvokeResponse{ResponseID: id, Answer: answer, AdditionalData: extra}, nil
		}

		for _, call := range msg.ToolCalls {
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    a.runTool(ctx, req.CallTool, call),
				ToolCallID: call.ID,
			})
		}
	}

	return nil, fmt.Errorf("%s invoke: exceeded %d tool rounds", a.kind, a.maxRounds)
}

// history resolves the transcript behind the previous handle. Non-persistent
// providers start fresh from req.Instructions when the handle is their sentinel.
func (a *ChatCompletionsAdapter) history(ctx context.Context, req *domainllm.InvokeRequest) ([]openai.ChatCompletionMessage, error) {
	if req.PreviousResponseID == "" {
		return nil, domainllm.ErrUnknownResponse
	}
	if !a.policy.Persistent && req.PreviousResponseID == a.policy.Sentinel {
		if req.Instructions == "" {
			return nil, fmt.Errorf("%s invoke: instructions required for a new conversation", a.kind)
		}
		return []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.Instructions + answerFormat},
		}, nil
	}

	messages, err := a.transcripts.Load(ctx, req.PreviousResponseID)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		return nil, domainllm.ErrUnknownResponse
	}
	return messages, nil
}

func (a *ChatCompletionsAdapter) runTool(ctx context.Context, callTool domainllm.ToolCaller, call openai.ToolCall) string {
	result, err := callTool(ctx, call.Function.Name, json.RawMessage(call.Function.Arguments))
	if err != nil {
		a.logger.Warn("tool call failed", "provider", a.kind, "tool", call.Function.Name, "error", err)
		payload, _ := json.Marshal(map[string]string{"error": err.Error()})
		return string(payload)
	}
	return result
}

func toOpenAITools(defs []domainllm.ToolDefinition) []openai.Tool {
	if len(defs) == 0 {
		return nil
	}
	tools := make([]openai.Tool, 0, len(defs))
	for _, def := range defs {
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  def.Parameters,
			},
		})
	}
	return tools
}

// upstreamModel drops an explicit "<provider>/" routing prefix.
func upstreamModel(kind domainllm.ProviderKind, model string) string {
	if provider, rest, ok := strings.Cut(model, "/"); ok && strings.EqualFold(provider, string(kind)) {
		return rest
	}
	return model
}

// responseID prefers the provider's completion ID. Some compatible
// endpoints omit it.
func responseID(resp openai.ChatCompletionResponse) string {
	if resp.ID != "" {
		return resp.ID
	}
	return "resp_" + uuid.NewString()
}

// parseAnswer extracts the answer envelope. Non-JSON replies are returned verbatim.
func parseAnswer(content string) (string, map[string]interface{}) {
	var envelope struct {
		Answer         string                 `json:"answer"`
		AdditionalData map[string]interface{} `json:"additional_data"`
		AditionalData  map[string]interface{} `json:"aditional_data"`
	}
	trimmed := strings.TrimSpace(content)
	if err := json.Unmarshal([]byte(trimmed), &envelope); err != nil || envelope.Answer == "" {
		return content, nil
	}
	if envelope.AdditionalData == nil {
		envelope.AdditionalData = envelope.AditionalData
	}
	return envelope.Answer, envelope.AdditionalData
}
