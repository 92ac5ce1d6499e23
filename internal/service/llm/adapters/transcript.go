package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sashabaranov/go-openai"
)

// TranscriptStore keeps the message history behind each response handle.
// Chat-completion APIs are stateless, so a handle resolves to the full
// transcript that produced it.
type TranscriptStore interface {
	// Load returns nil for unknown or expired handles.
	Load(ctx context.Context, responseID string) ([]openai.ChatCompletionMessage, error)
	Save(ctx context.Context, responseID string, messages []openai.ChatCompletionMessage) error
}

// NewTranscriptStore returns a Redis-backed store, or an in-memory one when client is nil.
func NewTranscriptStore(client *redis.Client, prefix string, ttl time.Duration) TranscriptStore {
	if client == nil {
		return &memoryTranscripts{ttl: ttl, entries: make(map[string]memoryTranscript), now: time.Now}
	}
	return &redisTranscripts{client: client, prefix: prefix, ttl: ttl}
}

type redisTranscripts struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func (s *redisTranscripts) key(id string) string { return s.prefix + "transcript:" + id }

func (s *redisTranscripts) Load(ctx context.Context, id string) ([]openai.ChatCompletionMessage, error) {
	val, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}

	var msgs []openai.ChatCompletionMessage
	if err := json.Unmarshal(val, &msgs); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}
	return msgs, nil
}

func (s *redisTranscripts) Save(ctx context.Context, id string, msgs []openai.ChatCompletionMessage) error {
	val, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	if err := s.client.Set(ctx, s.key(id), val, s.ttl).Err(); err != nil {
		return fmt.Errorf("save transcript: %w", err)
	}
	return nil
}

type memoryTranscript struct {
	messages  []openai.ChatCompletionMessage
	expiresAt time.Time
}

type memoryTranscripts struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryTranscript
	now     func() time.Time
}

func (s *memoryTranscripts) Load(ctx context.Context, id string) ([]openai.ChatCompletionMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, nil
	}
	if s.now().After(entry.expiresAt) {
		delete(s.entries, id)
		return nil, nil
	}
	return append([]openai.ChatCompletionMessage(nil), entry.messages...), nil
}

func (s *memoryTranscripts) Save(ctx context.Context, id string, msgs []openai.ChatCompletionMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, k)
		}
	}
	s.entries[id] = memoryTranscript{
		messages:  append([]openai.ChatCompletionMessage(nil), msgs...),
		expiresAt: now.Add(s.ttl),
	}
	return nil
}
