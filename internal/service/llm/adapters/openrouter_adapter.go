package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	llmprovider "github.com/haowjy/meridian-llm-go"
	"github.com/haowjy/meridian-llm-go/providers/openrouter"
	"github.com/sashabaranov/go-openai"

	domainllm "tenantchat/internal/domain/services/llm"
)

// OpenRouterAdapter implements ModelProvider on the meridian-llm-go
// OpenRouter provider. OpenRouter is stateless, so handles resolve through
// the same TranscriptStore the chat completions adapter uses.
type OpenRouterAdapter struct {
	provider    llmprovider.Provider
	transcripts TranscriptStore
	maxRounds   int
	logger      *slog.Logger
}

// NewOpenRouterAdapter creates an adapter backed by the library's OpenRouter provider.
func NewOpenRouterAdapter(apiKey string, transcripts TranscriptStore, maxRounds int, logger *slog.Logger) (*OpenRouterAdapter, error) {
	provider, err := openrouter.NewProvider(apiKey)
	if err != nil {
		return nil, err
	}
	return NewOpenRouterAdapterWithProvider(provider, transcripts, maxRounds, logger), nil
}

// NewOpenRouterAdapterWithProvider creates an adapter from an existing library provider.
func NewOpenRouterAdapterWithProvider(provider llmprovider.Provider, transcripts TranscriptStore, maxRounds int, logger *slog.Logger) *OpenRouterAdapter {
	if maxRounds <= 0 {
		maxRounds = 1
	}
	return &OpenRouterAdapter{
		provider:    provider,
		transcripts: transcripts,
		maxRounds:   maxRounds,
		logger:      logger,
	}
}

// Kind returns the provider variant.
func (a *OpenRouterAdapter) Kind() domainllm.ProviderKind {
	return domainllm.ProviderOpenRouter
}

// ContextPolicy reports persistent context. The seed lives in the transcript.
func (a *OpenRouterAdapter) ContextPolicy() domainllm.ContextPolicy {
	return domainllm.ContextPolicy{Persistent: true}
}

// SetCompanyContext seeds a new conversation with instructions and returns its handle.
func (a *OpenRouterAdapter) SetCompanyContext(ctx context.Context, req *domainllm.SeedRequest) (string, error) {
	if !a.provider.SupportsModel(upstreamModel(domainllm.ProviderOpenRouter, req.Model)) {
		return "", fmt.Errorf("openrouter: model %q must be in provider/model form", req.Model)
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: req.Instructions + answerFormat},
		{Role: openai.ChatMessageRoleUser, Content: seedAcknowledgement},
	}

	resp, err := a.generate(ctx, req.Model, messages, nil)
	if err != nil {
		return "", fmt.Errorf("openrouter set company context: %w", err)
	}

	messages = append(messages, fromLibraryResponse(resp))
	id := libraryResponseID(resp)
	if err := a.transcripts.Save(ctx, id, messages); err != nil {
		return "", err
	}

	a.logger.Debug("company context seeded",
		"provider", domainllm.ProviderOpenRouter,
		"model", req.Model,
		"response_id", id,
		"input_tokens", resp.InputTokens,
	)
	return id, nil
}

// Invoke continues a conversation, running tool calls for up to maxRounds rounds.
func (a *OpenRouterAdapter) Invoke(ctx context.Context, req *domainllm.InvokeRequest) (*domainllm.InvokeResponse, error) {
	if req.PreviousResponseID == "" {
		return nil, domainllm.ErrUnknownResponse
	}
	messages, err := a.transcripts.Load(ctx, req.PreviousResponseID)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		return nil, domainllm.ErrUnknownResponse
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Input})

	var tools []llmprovider.Tool
	if req.CallTool != nil {
		tools = toLibraryTools(req.Tools)
	}

	for round := 0; round < a.maxRounds; round++ {
		resp, err := a.generate(ctx, req.Model, messages, tools)
		if err != nil {
			return nil, fmt.Errorf("openrouter invoke: %w", err)
		}

		msg := fromLibraryResponse(resp)
		messages = append(messages, msg)

		if len(msg.ToolCalls) == 0 || req.CallTool == nil {
			id := libraryResponseID(resp)
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

	return nil, fmt.Errorf("openrouter invoke: exceeded %d tool rounds", a.maxRounds)
}

func (a *OpenRouterAdapter) generate(ctx context.Context, model string, messages []openai.ChatCompletionMessage, tools []llmprovider.Tool) (*llmprovider.GenerateResponse, error) {
	libMessages, err := toLibraryMessages(messages)
	if err != nil {
		return nil, err
	}
	req := &llmprovider.GenerateRequest{Model: upstreamModel(domainllm.ProviderOpenRouter, model), Messages: libMessages}
	if len(tools) > 0 {
		req.Params = &llmprovider.RequestParams{Tools: tools}
	}
	return a.provider.GenerateResponse(ctx, req)
}

func (a *OpenRouterAdapter) runTool(ctx context.Context, callTool domainllm.ToolCaller, call openai.ToolCall) string {
	result, err := callTool(ctx, call.Function.Name, json.RawMessage(call.Function.Arguments))
	if err != nil {
		a.logger.Warn("tool call failed", "provider", domainllm.ProviderOpenRouter, "tool", call.Function.Name, "error", err)
		payload, _ := json.Marshal(map[string]string{"error": err.Error()})
		return string(payload)
	}
	return result
}

// toLibraryMessages converts a stored transcript to library messages.
// The OpenRouter converter drops system turns, so instructions travel as
// user text and tool results as tool_result blocks.
func toLibraryMessages(messages []openai.ChatCompletionMessage) ([]llmprovider.Message, error) {
	out := make([]llmprovider.Message, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case openai.ChatMessageRoleSystem, openai.ChatMessageRoleUser:
			out = append(out, llmprovider.Message{Role: "user", Blocks: []*llmprovider.Block{textBlock(m.Content, 0)}})

		case openai.ChatMessageRoleAssistant:
			var blocks []*llmprovider.Block
			if m.Content != "" {
				blocks = append(blocks, textBlock(m.Content, 0))
			}
			for _, call := range m.ToolCalls {
				var input map[string]interface{}
				if err := json.Unmarshal([]byte(call.Function.Arguments), &input); err != nil {
					return nil, fmt.Errorf("tool call %s arguments: %w", call.ID, err)
				}
				side := llmprovider.ExecutionSideServer
				blocks = append(blocks, &llmprovider.Block{
					BlockType: llmprovider.BlockTypeToolUse,
					Sequence:  len(blocks),
					Content: map[string]interface{}{
						"tool_use_id": call.ID,
						"tool_name":   call.Function.Name,
						"input":       input,
					},
					ExecutionSide: &side,
				})
			}
			out = append(out, llmprovider.Message{Role: "assistant", Blocks: blocks})

		case openai.ChatMessageRoleTool:
			result := m.Content
			out = append(out, llmprovider.Message{Role: "user", Blocks: []*llmprovider.Block{{
				BlockType:   llmprovider.BlockTypeToolResult,
				TextContent: &result,
				Content:     map[string]interface{}{"tool_use_id": m.ToolCallID},
			}}})

		default:
			return nil, fmt.Errorf("unsupported transcript role %q", m.Role)
		}
	}
	return out, nil
}

// fromLibraryResponse folds response blocks into one assistant message.
func fromLibraryResponse(resp *llmprovider.GenerateResponse) openai.ChatCompletionMessage {
	msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant}
	var text []string
	for _, block := range resp.Blocks {
		switch block.BlockType {
		case llmprovider.BlockTypeText:
			if block.TextContent != nil {
				text = append(text, *block.TextContent)
			}
		case llmprovider.BlockTypeToolUse:
			id, _ := block.Content["tool_use_id"].(string)
			name, _ := block.Content["tool_name"].(string)
			args, err := json.Marshal(block.Content["input"])
			if err != nil || id == "" || name == "" {
				continue
			}
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:       id,
				Type:     openai.ToolTypeFunction,
				Function: openai.FunctionCall{Name: name, Arguments: string(args)},
			})
		}
	}
	msg.Content = strings.Join(text, "\n\n")
	return msg
}

func toLibraryTools(defs []domainllm.ToolDefinition) []llmprovider.Tool {
	if len(defs) == 0 {
		return nil
	}
	tools := make([]llmprovider.Tool, 0, len(defs))
	for _, def := range defs {
		tools = append(tools, llmprovider.Tool{
			Type: "function",
			Function: llmprovider.FunctionDetails{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  def.Parameters,
			},
			ExecutionSide: llmprovider.ExecutionSideServer,
		})
	}
	return tools
}

func textBlock(text string, seq int) *llmprovider.Block {
	return &llmprovider.Block{BlockType: llmprovider.BlockTypeText, Sequence: seq, TextContent: &text}
}

func libraryResponseID(resp *llmprovider.GenerateResponse) string {
	if id, ok := resp.ResponseMetadata["response_id"].(string); ok && id != "" {
		return id
	}
	return "resp_" + uuid.NewString()
}
