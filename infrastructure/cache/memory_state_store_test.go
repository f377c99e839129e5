package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"social-publisher/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStateStoreConsumeOnce(t *testing.T) {
	store := NewMemoryStateStore(10 * time.Minute)

	token, err := store.Issue(context.Background(), "user-1", "twitter", "verifier")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	st, err := store.Consume(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", st.UserID)
	assert.Equal(t, "twitter", st.Platform)
	assert.Equal(t, "verifier", st.PKCEVerifier)

	_, err = store.Consume(context.Background(), token)
	var stateErr *model.StateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, model.StateNotFound, stateErr.Kind)
}

func TestMemoryStateStoreUnknownToken(t *testing.T) {
	store := NewMemoryStateStore(10 * time.Minute)

	_, err := store.Consume(context.Background(), "nope")
	var stateErr *model.StateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, model.StateNotFound, stateErr.Kind)
}

func TestMemoryStateStoreExpiry(t *testing.T) {
	store := NewMemoryStateStore(time.Millisecond)

	token, err := store.Issue(context.Background(), "user-1", "twitter", "")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	_, err = store.Consume(context.Background(), token)
	var stateErr *model.StateError
	require.ErrorAs(t, err, &stateErr)
}

func TestMemoryStateStoreConcurrentConsumeSingleWinner(t *testing.T) {
	store := NewMemoryStateStore(10 * time.Minute)
	token, err := store.Issue(context.Background(), "user-1", "twitter", "")
	require.NoError(t, err)

	const n = 16
	var wg sync.WaitGroup
	wins := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Consume(context.Background(), token); err == nil {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	count := 0
	for range wins {
		count++
	}
	assert.Equal(t, 1, count, "exactly one concurrent consumer may win")
}

func TestRandomTokenUniqueness(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 100; i++ {
		token := RandomToken()
		_, dup := seen[token]
		require.False(t, dup)
		seen[token] = struct{}{}
	}
}
