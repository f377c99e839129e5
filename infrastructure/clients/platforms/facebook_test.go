package platforms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"social-publisher/domain/model"
	"social-publisher/infrastructure/configuration"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func facebookTestConfig() configuration.OAuthClient {
	return configuration.OAuthClient{
		ClientID:     "fb-client",
		ClientSecret: "fb-secret",
		RedirectURI:  "https://app.test/auth/facebook/callback",
		Scopes:       []string{"pages_manage_posts", "pages_read_engagement"},
	}
}

func TestFacebookAuthorizationURL(t *testing.T) {
	fb := NewFacebook(facebookTestConfig())
	u := fb.AuthorizationURL("state-1", "")
	assert.Contains(t, u, "/dialog/oauth?")
	assert.Contains(t, u, "client_id=fb-client")
	assert.Contains(t, u, "state=state-1")
	assert.NotContains(t, u, "code_challenge", "facebook does not use PKCE")
}

func TestFacebookExchangeCodeUpgradesToLongLived(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/oauth/access_token", r.URL.Path)
		calls++
		if r.URL.Query().Get("grant_type") == "fb_exchange_token" {
			assert.Equal(t, "short-lived", r.URL.Query().Get("fb_exchange_token"))
			json.NewEncoder(w).Encode(map[string]interface{}{
				"access_token": "long-lived", "token_type": "bearer", "expires_in": 5184000,
			})
			return
		}
		assert.Equal(t, "auth-code", r.URL.Query().Get("code"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "short-lived", "token_type": "bearer", "expires_in": 3600,
		})
	}))
	defer srv.Close()

	fb := NewFacebook(facebookTestConfig())
	fb.GraphBase = srv.URL

	cred, err := fb.ExchangeCode(context.Background(), "auth-code", "")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, "long-lived", cred.AccessToken)
	require.NotNil(t, cred.ExpiresAt)
	assert.True(t, cred.ExpiresAt.After(time.Now().Add(24*time.Hour)))
}

func TestFacebookRefreshIsUnrefreshable(t *testing.T) {
	fb := NewFacebook(facebookTestConfig())
	_, err := fb.RefreshToken(context.Background(), "anything")
	var authErr *model.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, model.AuthExpiredAndUnrefreshable, authErr.Kind)
}

func TestFacebookPublishPostsToFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/page-1/feed", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "hello world", r.PostForm.Get("message"))
		assert.Equal(t, "tok", r.PostForm.Get("access_token"))
		json.NewEncoder(w).Encode(map[string]string{"id": "page-1_555"})
	}))
	defer srv.Close()

	fb := NewFacebook(facebookTestConfig())
	fb.GraphBase = srv.URL

	postID, err := fb.Publish(context.Background(),
		&model.Credential{AccessToken: "tok"},
		&model.ConnectedAccount{PlatformAccountID: "page-1"},
		model.PublishContent{Text: "hello world"})
	require.NoError(t, err)
	assert.Equal(t, "page-1_555", postID)
}

func TestFacebookAPIErrorIsTyped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{"message": "Invalid OAuth access token.", "code": 190},
		})
	}))
	defer srv.Close()

	fb := NewFacebook(facebookTestConfig())
	fb.GraphBase = srv.URL

	_, err := fb.Publish(context.Background(),
		&model.Credential{AccessToken: "bad"},
		&model.ConnectedAccount{PlatformAccountID: "page-1"},
		model.PublishContent{Text: "x"})
	var apiErr *model.PlatformAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "facebook", apiErr.Platform)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "190", apiErr.Code)
	assert.Equal(t, "Invalid OAuth access token.", apiErr.Message)
}
