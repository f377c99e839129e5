package usecase

import (
	"context"
	"testing"
	"time"

	"social-publisher/domain/model"
	"social-publisher/infrastructure/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartAuthorizationIssuesState(t *testing.T) {
	accountRepo := newFakeAccountRepo()
	states := cache.NewMemoryStateStore(10 * time.Minute)
	u := NewSocialAuthUsecase(accountRepo, states, &fakeRegistry{adapter: &fakeAdapter{platform: "twitter"}})

	res, err := u.StartAuthorization(context.Background(), "user-1", "Twitter")
	require.NoError(t, err)
	assert.Equal(t, "twitter", res.Platform)
	assert.NotEmpty(t, res.State)
	assert.Contains(t, res.AuthURL, res.State)
}

func TestHandleCallbackConnectsAccount(t *testing.T) {
	accountRepo := newFakeAccountRepo()
	states := cache.NewMemoryStateStore(10 * time.Minute)
	u := NewSocialAuthUsecase(accountRepo, states, &fakeRegistry{adapter: &fakeAdapter{platform: "twitter"}})

	start, err := u.StartAuthorization(context.Background(), "user-1", "twitter")
	require.NoError(t, err)

	res, err := u.HandleCallback(context.Background(), "twitter", start.State, "auth-code")
	require.NoError(t, err)
	assert.Equal(t, "twitter", res.Platform)
	assert.Equal(t, "tester", res.Username)

	accounts, err := accountRepo.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.True(t, accounts[0].IsActive)
	assert.Equal(t, "exchanged", accounts[0].Credential.AccessToken)
}

func TestHandleCallbackStateIsSingleUse(t *testing.T) {
	states := cache.NewMemoryStateStore(10 * time.Minute)
	u := NewSocialAuthUsecase(newFakeAccountRepo(), states, &fakeRegistry{adapter: &fakeAdapter{platform: "twitter"}})

	start, err := u.StartAuthorization(context.Background(), "user-1", "twitter")
	require.NoError(t, err)

	_, err = u.HandleCallback(context.Background(), "twitter", start.State, "auth-code")
	require.NoError(t, err)

	_, err = u.HandleCallback(context.Background(), "twitter", start.State, "auth-code")
	var stateErr *model.StateError
	require.ErrorAs(t, err, &stateErr)
}

func TestHandleCallbackRejectsPlatformMismatch(t *testing.T) {
	states := cache.NewMemoryStateStore(10 * time.Minute)
	u := NewSocialAuthUsecase(newFakeAccountRepo(), states, &fakeRegistry{adapter: &fakeAdapter{platform: "twitter"}})

	start, err := u.StartAuthorization(context.Background(), "user-1", "twitter")
	require.NoError(t, err)

	_, err = u.HandleCallback(context.Background(), "facebook", start.State, "auth-code")
	var stateErr *model.StateError
	require.ErrorAs(t, err, &stateErr)
}

func TestReconnectUpdatesInPlace(t *testing.T) {
	accountRepo := newFakeAccountRepo()
	states := cache.NewMemoryStateStore(10 * time.Minute)
	u := NewSocialAuthUsecase(accountRepo, states, &fakeRegistry{adapter: &fakeAdapter{platform: "twitter"}})

	for i := 0; i < 2; i++ {
		start, err := u.StartAuthorization(context.Background(), "user-1", "twitter")
		require.NoError(t, err)
		_, err = u.HandleCallback(context.Background(), "twitter", start.State, "auth-code")
		require.NoError(t, err)
	}

	accounts, err := accountRepo.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, accounts, 1, "second connect must update, not duplicate")
}

func TestDisconnectDeactivatesAndPurgeDeletes(t *testing.T) {
	accountRepo := newFakeAccountRepo(activeAccount(1, "twitter"), activeAccount(2, "facebook"))
	u := NewSocialAuthUsecase(accountRepo, cache.NewMemoryStateStore(time.Minute), &fakeRegistry{adapter: &fakeAdapter{}})

	require.NoError(t, u.Disconnect(context.Background(), "user-1", 1, false))
	got, err := accountRepo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	require.NoError(t, u.Disconnect(context.Background(), "user-1", 2, true))
	_, err = accountRepo.GetByID(context.Background(), 2)
	require.Error(t, err)
}

func TestDisconnectRejectsForeignAccount(t *testing.T) {
	accountRepo := newFakeAccountRepo(activeAccount(1, "twitter"))
	u := NewSocialAuthUsecase(accountRepo, cache.NewMemoryStateStore(time.Minute), &fakeRegistry{adapter: &fakeAdapter{}})

	err := u.Disconnect(context.Background(), "intruder", 1, false)
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, model.ReasonAccountNotFound, verr.Reason)
}
