package platforms

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"social-publisher/domain/model"
	"social-publisher/infrastructure/configuration"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twitterTestConfig() configuration.OAuthClient {
	return configuration.OAuthClient{
		ClientID:     "tw-client",
		ClientSecret: "tw-secret",
		RedirectURI:  "https://app.test/auth/twitter/callback",
		Scopes:       []string{"tweet.read", "tweet.write", "users.read", "offline.access"},
	}
}

func TestTwitterAuthorizationURLCarriesPKCE(t *testing.T) {
	tw := NewTwitter(twitterTestConfig())
	require.True(t, tw.UsesPKCE())

	verifier := GeneratePKCEVerifier()
	challenge := S256Challenge(verifier)
	u := tw.AuthorizationURL("state-1", challenge)
	assert.Contains(t, u, "code_challenge="+challenge)
	assert.Contains(t, u, "code_challenge_method=S256")
	assert.Contains(t, u, "state=state-1")
}

func TestTwitterExchangeCodeSendsBasicAuthAndVerifier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/2/oauth2/token", r.URL.Path)
		wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("tw-client:tw-secret"))
		assert.Equal(t, wantAuth, r.Header.Get("Authorization"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "the-verifier", r.PostForm.Get("code_verifier"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "tw-access", "refresh_token": "tw-refresh", "token_type": "bearer", "expires_in": 7200,
		})
	}))
	defer srv.Close()

	tw := NewTwitter(twitterTestConfig())
	tw.APIBase = srv.URL

	cred, err := tw.ExchangeCode(context.Background(), "auth-code", "the-verifier")
	require.NoError(t, err)
	assert.Equal(t, "tw-access", cred.AccessToken)
	assert.Equal(t, "tw-refresh", cred.RefreshToken)
	require.NotNil(t, cred.ExpiresAt)
}

func TestTwitterRefreshKeepsOldTokenWhenNoneRotated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "tw-access-2", "token_type": "bearer", "expires_in": 7200,
		})
	}))
	defer srv.Close()

	tw := NewTwitter(twitterTestConfig())
	tw.APIBase = srv.URL

	cred, err := tw.RefreshToken(context.Background(), "old-refresh")
	require.NoError(t, err)
	assert.Equal(t, "tw-access-2", cred.AccessToken)
	assert.Equal(t, "old-refresh", cred.RefreshToken)
}

func TestTwitterRefreshWithoutTokenIsUnrefreshable(t *testing.T) {
	tw := NewTwitter(twitterTestConfig())
	_, err := tw.RefreshToken(context.Background(), "")
	var authErr *model.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, model.AuthExpiredAndUnrefreshable, authErr.Kind)
}

func TestTwitterPublishCreatesTweet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/2/tweets", r.URL.Path)
		assert.Equal(t, "Bearer tw-access", r.Header.Get("Authorization"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hello twitter", body["text"])
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{"data": map[string]string{"id": "1234567890"}})
	}))
	defer srv.Close()

	tw := NewTwitter(twitterTestConfig())
	tw.APIBase = srv.URL

	postID, err := tw.Publish(context.Background(),
		&model.Credential{AccessToken: "tw-access"}, nil,
		model.PublishContent{Text: "hello twitter"})
	require.NoError(t, err)
	assert.Equal(t, "1234567890", postID)
}

func TestTwitterFetchProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/2/users/me", r.URL.Path)
		assert.Contains(t, r.URL.Query().Get("user.fields"), "profile_image_url")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]string{
				"id": "99", "name": "Tester", "username": "tester", "profile_image_url": "https://cdn.test/p.png",
			},
		})
	}))
	defer srv.Close()

	tw := NewTwitter(twitterTestConfig())
	tw.APIBase = srv.URL

	profile, err := tw.FetchProfile(context.Background(), &model.Credential{AccessToken: "tw-access"})
	require.NoError(t, err)
	assert.Equal(t, "99", profile.PlatformAccountID)
	assert.Equal(t, "tester", profile.Username)
	assert.Equal(t, "Tester", profile.DisplayName)
}
