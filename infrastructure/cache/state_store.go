package cache

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"social-publisher/domain/model"

	"github.com/redis/go-redis/v9"
)

// NewCache connects a redis client for the short-TTL OAuth state keys.
func NewCache(ctx context.Context, addr, username, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return client, nil
}

const stateKeyPrefix = "oauth_state:"

// StateStore keeps single-use OAuth state tokens in redis. Consume relies on
// GETDEL so lookup and delete are one atomic command; of two callbacks racing
// on the same token exactly one wins.
type StateStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStateStore(client *redis.Client, ttl time.Duration) *StateStore {
	return &StateStore{client: client, ttl: ttl}
}

func (s *StateStore) Issue(ctx context.Context, userID, platform, pkceVerifier string) (string, error) {
	token := RandomToken()
	st := model.OAuthState{
		UserID:       userID,
		Platform:     platform,
		PKCEVerifier: pkceVerifier,
		CreatedAt:    time.Now().UTC(),
	}
	payload, err := json.Marshal(st)
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, stateKeyPrefix+token, payload, s.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

func (s *StateStore) Consume(ctx context.Context, token string) (*model.OAuthState, error) {
	payload, err := s.client.GetDel(ctx, stateKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		// Expired keys are gone by the time we look; indistinguishable from
		// unknown tokens here, which is what callers expect.
		return nil, &model.StateError{Kind: model.StateNotFound}
	}
	if err != nil {
		return nil, err
	}
	st := &model.OAuthState{}
	if err := json.Unmarshal([]byte(payload), st); err != nil {
		return nil, err
	}
	return st, nil
}

// RandomToken returns a cryptographically random, URL-safe token.
func RandomToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
