package platforms

import (
	"context"
	"testing"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/configuration"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryResolvesCaseInsensitive(t *testing.T) {
	reg := NewRegistry(NewFacebook(configuration.OAuthClient{}), NewTwitter(configuration.OAuthClient{}))

	a, err := reg.Get("Facebook")
	require.NoError(t, err)
	assert.Equal(t, "facebook", a.Platform())

	_, err = reg.Get("myspace")
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, model.ReasonUnsupportedPlatform, verr.Reason)
}

func TestPublishCapabilitySplit(t *testing.T) {
	var (
		fb repository.IPlatformAdapter = NewFacebook(configuration.OAuthClient{})
		ig repository.IPlatformAdapter = NewInstagram(configuration.OAuthClient{})
		tk repository.IPlatformAdapter = NewTikTok(configuration.OAuthClient{})
		tw repository.IPlatformAdapter = NewTwitter(configuration.OAuthClient{})
		li repository.IPlatformAdapter = NewLinkedIn(configuration.OAuthClient{})
		yt repository.IPlatformAdapter = NewYouTube(configuration.OAuthClient{})
	)
	for name, a := range map[string]repository.IPlatformAdapter{"facebook": fb, "twitter": tw, "linkedin": li, "youtube": yt} {
		_, sync := a.(repository.ISyncPublisher)
		_, async := a.(repository.IAsyncPublisher)
		assert.True(t, sync, "%s should publish synchronously", name)
		assert.False(t, async, "%s should not expose the container flow", name)
	}
	for name, a := range map[string]repository.IPlatformAdapter{"instagram": ig, "tiktok": tk} {
		_, sync := a.(repository.ISyncPublisher)
		_, async := a.(repository.IAsyncPublisher)
		assert.False(t, sync, "%s should not publish synchronously", name)
		assert.True(t, async, "%s should expose the container flow", name)
	}
}

func TestDirectLoginIsRejected(t *testing.T) {
	fb := NewFacebook(configuration.OAuthClient{})
	err := fb.LoginWithPassword(context.Background(), "user", "password")
	var authErr *model.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, model.AuthDirectLoginUnsupported, authErr.Kind)
	assert.Equal(t, "facebook", authErr.Platform)
}

func TestPKCEChallengeIsDeterministic(t *testing.T) {
	verifier := GeneratePKCEVerifier()
	assert.NotEmpty(t, verifier)
	assert.Equal(t, S256Challenge(verifier), S256Challenge(verifier))
	assert.NotEqual(t, verifier, S256Challenge(verifier))

	other := GeneratePKCEVerifier()
	assert.NotEqual(t, verifier, other)
}
