package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tenantchat/internal/domain/models"
)

type redisWebStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func (s *redisWebStore) sessionKey(id string) string { return s.prefix + "web_session:" + id }
func (s *redisWebStore) nonceKey(id string) string   { return s.prefix + "token_nonce:" + id }

func (s *redisWebStore) Create(ctx context.Context, sess *models.WebSession) error {
	val, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal web session: %w", err)
	}
	if err := s.client.Set(ctx, s.sessionKey(sess.ID), val, s.ttl).Err(); err != nil {
		return fmt.Errorf("create web session: %w", err)
	}
	return nil
}

func (s *redisWebStore) Get(ctx context.Context, id string) (*models.WebSession, error) {
	key := s.sessionKey(id)
	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get web session: %w", err)
	}

	var sess models.WebSession
	if err := json.Unmarshal([]byte(val), &sess); err != nil {
		return nil, fmt.Errorf("decode web session: %w", err)
	}

	// Sliding expiry
	if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("refresh web session: %w", err)
	}
	return &sess, nil
}

func (s *redisWebStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("delete web session: %w", err)
	}
	return nil
}

func (s *redisWebStore) ClaimNonce(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.nonceKey(id), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim nonce: %w", err)
	}
	return ok, nil
}
