package adapters

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// EmbeddingClient is the subset of *openai.Client used for embeddings.
type EmbeddingClient interface {
	CreateEmbeddings(ctx context.Context, req openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// OpenAIEmbedder turns search queries into vectors.
type OpenAIEmbedder struct {
	client EmbeddingClient
	model  string
}

// NewOpenAIEmbedder creates an embedder for the given embedding model.
func NewOpenAIEmbedder(client EmbeddingClient, model string) *OpenAIEmbedder {
	return &OpenAIEmbedder{client: client, model: model}
}

// Embed returns the embedding of text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("create embedding: empty response")
	}
	return resp.Data[0].Embedding, nil
}
