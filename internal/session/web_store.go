package session

import (
	"context"
	"sync"
	"time"

	"tenantchat/internal/domain/models"
)

// WebStore holds browser sessions and single-use token nonces.
type WebStore interface {
	Create(ctx context.Context, sess *models.WebSession) error
	// Get returns nil for unknown or expired sessions and refreshes the TTL otherwise.
	Get(ctx context.Context, id string) (*models.WebSession, error)
	Delete(ctx context.Context, id string) error

	// ClaimNonce records id as used. It returns false if id was already claimed.
	ClaimNonce(ctx context.Context, id string, ttl time.Duration) (bool, error)
}

type memoryWebSession struct {
	session   *models.WebSession
	expiresAt time.Time
}

type memoryWebStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*memoryWebSession
	nonces   map[string]time.Time
	now      func() time.Time
}

func newMemoryWebStore(ttl time.Duration) *memoryWebStore {
	return &memoryWebStore{
		ttl:      ttl,
		sessions: make(map[string]*memoryWebSession),
		nonces:   make(map[string]time.Time),
		now:      time.Now,
	}
}

func (s *memoryWebStore) Create(ctx context.Context, sess *models.WebSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *sess
	s.sessions[sess.ID] = &memoryWebSession{session: &copied, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *memoryWebStore) Get(ctx context.Context, id string) (*models.WebSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	now := s.now()
	if now.After(entry.expiresAt) {
		delete(s.sessions, id)
		return nil, nil
	}
	entry.expiresAt = now.Add(s.ttl)
	copied := *entry.session
	return &copied, nil
}

func (s *memoryWebStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

func (s *memoryWebStore) ClaimNonce(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for nonce, exp := range s.nonces {
		if now.After(exp) {
			delete(s.nonces, nonce)
		}
	}
	if _, used := s.nonces[id]; used {
		return false, nil
	}
	s.nonces[id] = now.Add(ttl)
	return true, nil
}
