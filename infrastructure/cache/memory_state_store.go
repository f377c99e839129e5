package cache

import (
	"context"
	"sync"
	"time"

	"social-publisher/domain/model"
	"social-publisher/infrastructure/logger"
)

// MemoryStateStore is the in-process fallback used when redis is not
// configured (single-node deployments, tests). Same contract as StateStore:
// single-use tokens with a fixed TTL, consume-once under the mutex.
type MemoryStateStore struct {
	mu     sync.Mutex
	states map[string]memoryState
	ttl    time.Duration
}

type memoryState struct {
	state  model.OAuthState
	expiry time.Time
}

func NewMemoryStateStore(ttl time.Duration) *MemoryStateStore {
	return &MemoryStateStore{states: map[string]memoryState{}, ttl: ttl}
}

func (s *MemoryStateStore) Issue(_ context.Context, userID, platform, pkceVerifier string) (string, error) {
	token := RandomToken()
	now := time.Now().UTC()
	s.mu.Lock()
	s.states[token] = memoryState{
		state: model.OAuthState{
			UserID:       userID,
			Platform:     platform,
			PKCEVerifier: pkceVerifier,
			CreatedAt:    now,
		},
		expiry: now.Add(s.ttl),
	}
	// Drop whatever already expired while we hold the lock.
	for k, v := range s.states {
		if now.After(v.expiry) {
			delete(s.states, k)
		}
	}
	s.mu.Unlock()
	return token, nil
}

func (s *MemoryStateStore) Consume(_ context.Context, token string) (*model.OAuthState, error) {
	s.mu.Lock()
	entry, ok := s.states[token]
	if ok {
		delete(s.states, token)
	}
	s.mu.Unlock()
	if !ok {
		return nil, &model.StateError{Kind: model.StateNotFound}
	}
	if time.Now().After(entry.expiry) {
		// Surfaced to callers exactly like an unknown token; logged apart.
		logger.GetLogger().WithField("platform", entry.state.Platform).Warn("OAuth state expired before callback")
		return nil, &model.StateError{Kind: model.StateExpired}
	}
	st := entry.state
	return &st, nil
}
