package platforms

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"social-publisher/domain/model"
	"social-publisher/infrastructure/configuration"
	"social-publisher/infrastructure/logger"
)

// Facebook publishes to a page feed through the Graph API. Tokens have no
// refresh token; a short-lived code-exchange token is immediately traded for a
// long-lived one (~60 days) via fb_exchange_token.
type Facebook struct {
	oauthOnly
	cfg        configuration.OAuthClient
	httpClient *http.Client

	// Overridable in tests.
	AuthBase  string
	GraphBase string
}

func NewFacebook(cfg configuration.OAuthClient) *Facebook {
	return &Facebook{
		oauthOnly:  oauthOnly{platform: "facebook"},
		cfg:        cfg,
		httpClient: defaultHTTPClient(),
		AuthBase:   "https://www.facebook.com/v19.0",
		GraphBase:  "https://graph.facebook.com/v19.0",
	}
}

func (f *Facebook) Platform() string { return f.platform }

func (f *Facebook) AuthorizationURL(state, _ string) string {
	q := url.Values{}
	q.Set("client_id", f.cfg.ClientID)
	q.Set("redirect_uri", f.cfg.RedirectURI)
	q.Set("state", state)
	q.Set("response_type", "code")
	q.Set("scope", strings.Join(f.cfg.Scopes, ","))
	return f.AuthBase + "/dialog/oauth?" + q.Encode()
}

func (f *Facebook) ExchangeCode(ctx context.Context, code, _ string) (*model.Credential, error) {
	q := url.Values{}
	q.Set("client_id", f.cfg.ClientID)
	q.Set("client_secret", f.cfg.ClientSecret)
	q.Set("redirect_uri", f.cfg.RedirectURI)
	q.Set("code", code)
	var tok tokenResponse
	if err := getJSON(ctx, f.httpClient, f.platform, f.GraphBase+"/oauth/access_token?"+q.Encode(), nil, &tok); err != nil {
		return nil, err
	}
	long, err := f.exchangeLongLived(ctx, tok.AccessToken)
	if err != nil {
		// Short-lived token still works, just expires sooner.
		logger.GetLogger().WithField("error", err).Warn("Facebook long-lived token exchange failed; keeping short-lived token")
		return tok.credential(), nil
	}
	return long, nil
}

func (f *Facebook) exchangeLongLived(ctx context.Context, shortLived string) (*model.Credential, error) {
	q := url.Values{}
	q.Set("grant_type", "fb_exchange_token")
	q.Set("client_id", f.cfg.ClientID)
	q.Set("client_secret", f.cfg.ClientSecret)
	q.Set("fb_exchange_token", shortLived)
	var tok tokenResponse
	if err := getJSON(ctx, f.httpClient, f.platform, f.GraphBase+"/oauth/access_token?"+q.Encode(), nil, &tok); err != nil {
		return nil, err
	}
	return tok.credential(), nil
}

// RefreshToken is not available: Facebook issues no refresh tokens. Once the
// long-lived token lapses the user has to go through consent again.
func (f *Facebook) RefreshToken(context.Context, string) (*model.Credential, error) {
	return nil, &model.AuthError{Kind: model.AuthExpiredAndUnrefreshable, Platform: f.platform}
}

func (f *Facebook) FetchProfile(ctx context.Context, cred *model.Credential) (*model.NormalizedProfile, error) {
	q := url.Values{}
	q.Set("fields", "id,name,picture.type(large)")
	q.Set("access_token", cred.AccessToken)
	var me struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Picture struct {
			Data struct {
				URL string `json:"url"`
			} `json:"data"`
		} `json:"picture"`
	}
	if err := getJSON(ctx, f.httpClient, f.platform, f.GraphBase+"/me?"+q.Encode(), nil, &me); err != nil {
		return nil, err
	}
	return &model.NormalizedProfile{
		PlatformAccountID: me.ID,
		Username:          me.Name,
		DisplayName:       me.Name,
		AvatarURL:         me.Picture.Data.URL,
	}, nil
}

// Publish posts to the account's feed in one call.
func (f *Facebook) Publish(ctx context.Context, cred *model.Credential, account *model.ConnectedAccount, content model.PublishContent) (string, error) {
	form := url.Values{}
	form.Set("message", content.Text)
	form.Set("access_token", cred.AccessToken)
	if len(content.MediaURLs) > 0 {
		form.Set("link", content.MediaURLs[0])
	}
	var res struct {
		ID string `json:"id"`
	}
	endpoint := fmt.Sprintf("%s/%s/feed", f.GraphBase, account.PlatformAccountID)
	if err := postForm(ctx, f.httpClient, f.platform, endpoint, form, nil, &res); err != nil {
		return "", err
	}
	return res.ID, nil
}
