package adapters

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	domainllm "tenantchat/internal/domain/services/llm"
)

var loremWords = strings.Fields(`lorem ipsum dolor sit amet consectetur adipiscing elit sed do
eiusmod tempor incididunt ut labore et dolore magna aliqua ut enim ad minim veniam quis nostrud
exercitation ullamco laboris nisi ut aliquip ex ea commodo consequat`)

// LoremAdapter is an offline provider that answers with deterministic lorem
// ipsum text. It needs no API key and is used in development and tests.
type LoremAdapter struct {
	mu      sync.Mutex
	handles map[string]int // response ID -> turn number
}

// NewLoremAdapter creates a new Lorem adapter.
func NewLoremAdapter() *LoremAdapter {
	return &LoremAdapter{handles: make(map[string]int)}
}

// Kind returns the provider variant.
func (a *LoremAdapter) Kind() domainllm.ProviderKind {
	return domainllm.ProviderLorem
}

// ContextPolicy reports persistent context.
func (a *LoremAdapter) ContextPolicy() domainllm.ContextPolicy {
	return domainllm.ContextPolicy{Persistent: true}
}

// SetCompanyContext records a new conversation and returns its handle.
func (a *LoremAdapter) SetCompanyContext(ctx context.Context, req *domainllm.SeedRequest) (string, error) {
	id := "lorem_" + uuid.NewString()

	a.mu.Lock()
	a.handles[id] = 0
	a.mu.Unlock()

	return id, nil
}

// Invoke answers with text derived from the input.
func (a *LoremAdapter) Invoke(ctx context.Context, req *domainllm.InvokeRequest) (*domainllm.InvokeResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	turn, ok := a.handles[req.PreviousResponseID]
	if !ok {
		return nil, domainllm.ErrUnknownResponse
	}

	// Handles are single use, the chain only moves forward
	delete(a.handles, req.PreviousResponseID)
	id := "lorem_" + uuid.NewString()
	a.handles[id] = turn + 1

	return &domainllm.InvokeResponse{
		ResponseID: id,
		Answer:     loremText(req.Input, 24),
		AdditionalData: map[string]interface{}{
			"turn": turn + 1,
		},
	}, nil
}

// loremText picks n words seeded by the input hash.
func loremText(input string, n int) string {
	sum := sha256.Sum256([]byte(input))
	seed := hex.EncodeToString(sum[:])

	words := make([]string, 0, n)
	for i := 0; i < n; i++ {
		idx := int(seed[i%len(seed)]) + i
		words = append(words, loremWords[idx%len(loremWords)])
	}

	text := strings.Join(words, " ")
	return fmt.Sprintf("%s%s.", strings.ToUpper(text[:1]), text[1:])
}
