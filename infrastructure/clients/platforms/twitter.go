package platforms

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"

	"social-publisher/domain/model"
	"social-publisher/infrastructure/configuration"

	"github.com/google/go-querystring/query"
)

// Twitter uses OAuth 2.0 with PKCE (S256) and confidential-client basic auth
// on the token endpoint. Tweets go out in a single synchronous call.
type Twitter struct {
	oauthOnly
	cfg        configuration.OAuthClient
	httpClient *http.Client

	AuthBase string // twitter.com consent dialog
	APIBase  string // api.twitter.com
}

func NewTwitter(cfg configuration.OAuthClient) *Twitter {
	return &Twitter{
		oauthOnly:  oauthOnly{platform: "twitter"},
		cfg:        cfg,
		httpClient: defaultHTTPClient(),
		AuthBase:   "https://twitter.com",
		APIBase:    "https://api.twitter.com",
	}
}

func (t *Twitter) Platform() string { return t.platform }

func (t *Twitter) UsesPKCE() bool { return true }

func (t *Twitter) AuthorizationURL(state, codeChallenge string) string {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", t.cfg.ClientID)
	q.Set("redirect_uri", t.cfg.RedirectURI)
	q.Set("scope", strings.Join(t.cfg.Scopes, " "))
	q.Set("state", state)
	q.Set("code_challenge", codeChallenge)
	q.Set("code_challenge_method", "S256")
	return t.AuthBase + "/i/oauth2/authorize?" + q.Encode()
}

func (t *Twitter) basicAuth() http.Header {
	h := http.Header{}
	creds := base64.StdEncoding.EncodeToString([]byte(t.cfg.ClientID + ":" + t.cfg.ClientSecret))
	h.Set("Authorization", "Basic "+creds)
	return h
}

func (t *Twitter) ExchangeCode(ctx context.Context, code, verifier string) (*model.Credential, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", t.cfg.RedirectURI)
	form.Set("code_verifier", verifier)
	var tok tokenResponse
	if err := postForm(ctx, t.httpClient, t.platform, t.APIBase+"/2/oauth2/token", form, t.basicAuth(), &tok); err != nil {
		return nil, err
	}
	return tok.credential(), nil
}

func (t *Twitter) RefreshToken(ctx context.Context, refreshToken string) (*model.Credential, error) {
	if refreshToken == "" {
		return nil, &model.AuthError{Kind: model.AuthExpiredAndUnrefreshable, Platform: t.platform}
	}
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	var tok tokenResponse
	if err := postForm(ctx, t.httpClient, t.platform, t.APIBase+"/2/oauth2/token", form, t.basicAuth(), &tok); err != nil {
		return nil, err
	}
	cred := tok.credential()
	// Twitter rotates refresh tokens; keep the old one if none came back.
	if cred.RefreshToken == "" {
		cred.RefreshToken = refreshToken
	}
	return cred, nil
}

type twitterProfileParams struct {
	UserFields string `url:"user.fields"`
}

func (t *Twitter) FetchProfile(ctx context.Context, cred *model.Credential) (*model.NormalizedProfile, error) {
	params, err := query.Values(twitterProfileParams{UserFields: "id,name,username,profile_image_url"})
	if err != nil {
		return nil, err
	}
	var res struct {
		Data struct {
			ID              string `json:"id"`
			Name            string `json:"name"`
			Username        string `json:"username"`
			ProfileImageURL string `json:"profile_image_url"`
		} `json:"data"`
	}
	endpoint := t.APIBase + "/2/users/me?" + params.Encode()
	if err := getJSON(ctx, t.httpClient, t.platform, endpoint, bearerHeader(cred.AccessToken), &res); err != nil {
		return nil, err
	}
	return &model.NormalizedProfile{
		PlatformAccountID: res.Data.ID,
		Username:          res.Data.Username,
		DisplayName:       res.Data.Name,
		AvatarURL:         res.Data.ProfileImageURL,
	}, nil
}

func (t *Twitter) Publish(ctx context.Context, cred *model.Credential, _ *model.ConnectedAccount, content model.PublishContent) (string, error) {
	text := content.Text
	// Media uploads need the v1.1 chunked endpoint; link out instead.
	if len(content.MediaURLs) > 0 {
		text = strings.TrimSpace(text + " " + strings.Join(content.MediaURLs, " "))
	}
	body := map[string]string{"text": text}
	var res struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := postJSON(ctx, t.httpClient, t.platform, t.APIBase+"/2/tweets", body, bearerHeader(cred.AccessToken), &res); err != nil {
		return "", err
	}
	return res.Data.ID, nil
}
