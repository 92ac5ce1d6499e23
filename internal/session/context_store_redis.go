package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tenantchat/internal/domain/models"
)

// Hash fields of a context record
const (
	fieldSessionData = "user_session_data"
	fieldHandle      = "last_response_handle"
	fieldVersion     = "context_version"
	fieldInvalidated = "invalidated"
)

// redisContextStore stores each record as one Redis hash so that clearing
// the record is a single DEL.
type redisContextStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func (s *redisContextStore) key(company, user string) string {
	return contextKey(s.prefix, company, user)
}

func (s *redisContextStore) GetUserSessionData(ctx context.Context, company, user string) (models.JSONMap, error) {
	raw, err := s.client.HGet(ctx, s.key(company, user), fieldSessionData).Result()
	if err == redis.Nil {
		return models.JSONMap{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user session data: %w", err)
	}
	return decodeSessionData(raw)
}

func (s *redisContextStore) SaveUserSessionData(ctx context.Context, company, user string, data models.JSONMap) error {
	if data == nil {
		data = models.JSONMap{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal user session data: %w", err)
	}
	return s.hset(ctx, company, user, fieldSessionData, string(raw))
}

func (s *redisContextStore) GetLastResponseHandle(ctx context.Context, company, user string) (string, error) {
	handle, err := s.client.HGet(ctx, s.key(company, user), fieldHandle).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get last response handle: %w", err)
	}
	return handle, nil
}

func (s *redisContextStore) SaveLastResponseHandle(ctx context.Context, company, user, handle string) error {
	return s.hset(ctx, company, user, fieldHandle, handle)
}

func (s *redisContextStore) ClearAllContext(ctx context.Context, company, user string) error {
	if err := s.client.Del(ctx, s.key(company, user)).Err(); err != nil {
		return fmt.Errorf("clear context: %w", err)
	}
	return nil
}

func (s *redisContextStore) GetRecord(ctx context.Context, company, user string) (*models.SessionRecord, error) {
	fields, err := s.client.HGetAll(ctx, s.key(company, user)).Result()
	if err != nil {
		return nil, fmt.Errorf("get context record: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	rec := &models.SessionRecord{
		LastResponseHandle: fields[fieldHandle],
		ContextVersion:     fields[fieldVersion],
		Invalidated:        fields[fieldInvalidated] == "1",
		UserSessionData:    models.JSONMap{},
	}
	if raw, ok := fields[fieldSessionData]; ok {
		if rec.UserSessionData, err = decodeSessionData(raw); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

func (s *redisContextStore) SaveContextVersion(ctx context.Context, company, user, version string) error {
	key := s.key(company, user)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fieldVersion, version)
		pipe.HDel(ctx, key, fieldInvalidated)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save context version: %w", err)
	}
	return nil
}

func (s *redisContextStore) Invalidate(ctx context.Context, company, user string) error {
	// A missing record must stay missing
	key := s.key(company, user)
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, fieldInvalidated, "1")
			return nil
		})
		return err
	}, key)
	if err != nil {
		return fmt.Errorf("invalidate context: %w", err)
	}
	return nil
}

// hset writes one field and refreshes the record TTL atomically.
func (s *redisContextStore) hset(ctx context.Context, company, user, field, value string) error {
	key := s.key(company, user)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, field, value)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save %s: %w", field, err)
	}
	return nil
}

func decodeSessionData(raw string) (models.JSONMap, error) {
	data := models.JSONMap{}
	if raw == "" {
		return data, nil
	}
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("decode user session data: %w", err)
	}
	return data, nil
}
