package session

import (
	"context"
	"sync"

	"tenantchat/internal/domain/models"
)

// ContextStore persists the conversational context of each (company, user)
// pair. Missing records are never an error.
//
// Concurrent writers for the same key are last-write-wins.
type ContextStore interface {
	GetUserSessionData(ctx context.Context, companyShortName, userIdentifier string) (models.JSONMap, error)
	// SaveUserSessionData replaces the stored data; it does not merge.
	SaveUserSessionData(ctx context.Context, companyShortName, userIdentifier string, data models.JSONMap) error

	GetLastResponseHandle(ctx context.Context, companyShortName, userIdentifier string) (string, error)
	SaveLastResponseHandle(ctx context.Context, companyShortName, userIdentifier, handle string) error

	// ClearAllContext removes session data and handle together.
	ClearAllContext(ctx context.Context, companyShortName, userIdentifier string) error

	// GetRecord returns a snapshot of the full record, or nil.
	GetRecord(ctx context.Context, companyShortName, userIdentifier string) (*models.SessionRecord, error)
	// SaveContextVersion records the company context version the record was
	// built from and clears any invalidation marker.
	SaveContextVersion(ctx context.Context, companyShortName, userIdentifier, version string) error
	// Invalidate marks an existing record stale. No-op for missing records.
	Invalidate(ctx context.Context, companyShortName, userIdentifier string) error
}

func contextKey(prefix, companyShortName, userIdentifier string) string {
	return prefix + "session_context:" + companyShortName + ":" + userIdentifier
}

// memoryContextStore keeps records in process memory.
type memoryContextStore struct {
	mu      sync.RWMutex
	records map[string]*models.SessionRecord
}

func newMemoryContextStore() *memoryContextStore {
	return &memoryContextStore{records: make(map[string]*models.SessionRecord)}
}

func (s *memoryContextStore) GetUserSessionData(ctx context.Context, company, user string) (models.JSONMap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[contextKey("", company, user)]
	if !ok || rec.UserSessionData == nil {
		return models.JSONMap{}, nil
	}
	return rec.UserSessionData.Clone(), nil
}

func (s *memoryContextStore) SaveUserSessionData(ctx context.Context, company, user string, data models.JSONMap) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.record(company, user)
	if data == nil {
		data = models.JSONMap{}
	}
	rec.UserSessionData = data.Clone()
	return nil
}

func (s *memoryContextStore) GetLastResponseHandle(ctx context.Context, company, user string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if rec, ok := s.records[contextKey("", company, user)]; ok {
		return rec.LastResponseHandle, nil
	}
	return "", nil
}

func (s *memoryContextStore) SaveLastResponseHandle(ctx context.Context, company, user, handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.record(company, user).LastResponseHandle = handle
	return nil
}

func (s *memoryContextStore) ClearAllContext(ctx context.Context, company, user string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, contextKey("", company, user))
	return nil
}

func (s *memoryContextStore) GetRecord(ctx context.Context, company, user string) (*models.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[contextKey("", company, user)]
	if !ok {
		return nil, nil
	}
	snapshot := *rec
	snapshot.UserSessionData = rec.UserSessionData.Clone()
	return &snapshot, nil
}

func (s *memoryContextStore) SaveContextVersion(ctx context.Context, company, user, version string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.record(company, user)
	rec.ContextVersion = version
	rec.Invalidated = false
	return nil
}

func (s *memoryContextStore) Invalidate(ctx context.Context, company, user string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.records[contextKey("", company, user)]; ok {
		rec.Invalidated = true
	}
	return nil
}

// record returns the record for the key, creating it. Caller holds the write lock.
func (s *memoryContextStore) record(company, user string) *models.SessionRecord {
	key := contextKey("", company, user)
	rec, ok := s.records[key]
	if !ok {
		rec = &models.SessionRecord{}
		s.records[key] = rec
	}
	return rec
}
