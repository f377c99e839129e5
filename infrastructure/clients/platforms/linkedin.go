package platforms

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"social-publisher/domain/model"
	"social-publisher/infrastructure/configuration"
)

// LinkedIn publishes member shares through the ugcPosts API.
type LinkedIn struct {
	oauthOnly
	cfg        configuration.OAuthClient
	httpClient *http.Client

	AuthBase string // www.linkedin.com
	APIBase  string // api.linkedin.com
}

func NewLinkedIn(cfg configuration.OAuthClient) *LinkedIn {
	return &LinkedIn{
		oauthOnly:  oauthOnly{platform: "linkedin"},
		cfg:        cfg,
		httpClient: defaultHTTPClient(),
		AuthBase:   "https://www.linkedin.com",
		APIBase:    "https://api.linkedin.com",
	}
}

func (l *LinkedIn) Platform() string { return l.platform }

func (l *LinkedIn) AuthorizationURL(state, _ string) string {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", l.cfg.ClientID)
	q.Set("redirect_uri", l.cfg.RedirectURI)
	q.Set("state", state)
	q.Set("scope", strings.Join(l.cfg.Scopes, " "))
	return l.AuthBase + "/oauth/v2/authorization?" + q.Encode()
}

func (l *LinkedIn) ExchangeCode(ctx context.Context, code, _ string) (*model.Credential, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", l.cfg.ClientID)
	form.Set("client_secret", l.cfg.ClientSecret)
	form.Set("redirect_uri", l.cfg.RedirectURI)
	var tok tokenResponse
	if err := postForm(ctx, l.httpClient, l.platform, l.AuthBase+"/oauth/v2/accessToken", form, nil, &tok); err != nil {
		return nil, err
	}
	return tok.credential(), nil
}

// RefreshToken works only for programs enrolled in LinkedIn's refresh-token
// beta; most grants carry no refresh token and fall through to the typed error.
func (l *LinkedIn) RefreshToken(ctx context.Context, refreshToken string) (*model.Credential, error) {
	if refreshToken == "" {
		return nil, &model.AuthError{Kind: model.AuthExpiredAndUnrefreshable, Platform: l.platform}
	}
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", l.cfg.ClientID)
	form.Set("client_secret", l.cfg.ClientSecret)
	var tok tokenResponse
	if err := postForm(ctx, l.httpClient, l.platform, l.AuthBase+"/oauth/v2/accessToken", form, nil, &tok); err != nil {
		return nil, err
	}
	cred := tok.credential()
	if cred.RefreshToken == "" {
		cred.RefreshToken = refreshToken
	}
	return cred, nil
}

func (l *LinkedIn) FetchProfile(ctx context.Context, cred *model.Credential) (*model.NormalizedProfile, error) {
	var me struct {
		ID                 string `json:"id"`
		LocalizedFirstName string `json:"localizedFirstName"`
		LocalizedLastName  string `json:"localizedLastName"`
	}
	if err := getJSON(ctx, l.httpClient, l.platform, l.APIBase+"/v2/me", bearerHeader(cred.AccessToken), &me); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(me.LocalizedFirstName + " " + me.LocalizedLastName)
	return &model.NormalizedProfile{
		PlatformAccountID: me.ID,
		Username:          name,
		DisplayName:       name,
	}, nil
}

func (l *LinkedIn) Publish(ctx context.Context, cred *model.Credential, account *model.ConnectedAccount, content model.PublishContent) (string, error) {
	shareContent := map[string]interface{}{
		"shareCommentary":    map[string]string{"text": content.Text},
		"shareMediaCategory": "NONE",
	}
	if len(content.MediaURLs) > 0 {
		media := make([]map[string]interface{}, 0, len(content.MediaURLs))
		for _, u := range content.MediaURLs {
			media = append(media, map[string]interface{}{
				"status":      "READY",
				"originalUrl": u,
			})
		}
		shareContent["shareMediaCategory"] = "ARTICLE"
		shareContent["media"] = media
	}
	body := map[string]interface{}{
		"author":         "urn:li:person:" + account.PlatformAccountID,
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]interface{}{
			"com.linkedin.ugc.ShareContent": shareContent,
		},
		"visibility": map[string]string{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}
	header := bearerHeader(cred.AccessToken)
	header.Set("X-Restli-Protocol-Version", "2.0.0")
	var res struct {
		ID string `json:"id"`
	}
	if err := postJSON(ctx, l.httpClient, l.platform, l.APIBase+"/v2/ugcPosts", body, header, &res); err != nil {
		return "", err
	}
	return res.ID, nil
}
