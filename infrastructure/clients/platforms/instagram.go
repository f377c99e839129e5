package platforms

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"social-publisher/domain/model"
	"social-publisher/infrastructure/configuration"
)

// Instagram publishes through the three-phase container flow: create a media
// container, wait for server-side processing, then publish by creation id.
type Instagram struct {
	oauthOnly
	cfg        configuration.OAuthClient
	httpClient *http.Client

	AuthBase  string // www.instagram.com oauth dialog
	APIBase   string // api.instagram.com code exchange
	GraphBase string // graph.instagram.com everything else
}

func NewInstagram(cfg configuration.OAuthClient) *Instagram {
	return &Instagram{
		oauthOnly:  oauthOnly{platform: "instagram"},
		cfg:        cfg,
		httpClient: defaultHTTPClient(),
		AuthBase:   "https://www.instagram.com",
		APIBase:    "https://api.instagram.com",
		GraphBase:  "https://graph.instagram.com",
	}
}

func (ig *Instagram) Platform() string { return ig.platform }

func (ig *Instagram) AuthorizationURL(state, _ string) string {
	q := url.Values{}
	q.Set("client_id", ig.cfg.ClientID)
	q.Set("redirect_uri", ig.cfg.RedirectURI)
	q.Set("response_type", "code")
	q.Set("scope", strings.Join(ig.cfg.Scopes, ","))
	q.Set("state", state)
	return ig.AuthBase + "/oauth/authorize?" + q.Encode()
}

func (ig *Instagram) ExchangeCode(ctx context.Context, code, _ string) (*model.Credential, error) {
	form := url.Values{}
	form.Set("client_id", ig.cfg.ClientID)
	form.Set("client_secret", ig.cfg.ClientSecret)
	form.Set("grant_type", "authorization_code")
	form.Set("redirect_uri", ig.cfg.RedirectURI)
	form.Set("code", code)
	var short struct {
		AccessToken string `json:"access_token"`
		UserID      int64  `json:"user_id"`
	}
	if err := postForm(ctx, ig.httpClient, ig.platform, ig.APIBase+"/oauth/access_token", form, nil, &short); err != nil {
		return nil, err
	}
	// Trade the short-lived token for a 60-day one.
	q := url.Values{}
	q.Set("grant_type", "ig_exchange_token")
	q.Set("client_secret", ig.cfg.ClientSecret)
	q.Set("access_token", short.AccessToken)
	var tok tokenResponse
	if err := getJSON(ctx, ig.httpClient, ig.platform, ig.GraphBase+"/access_token?"+q.Encode(), nil, &tok); err != nil {
		return nil, err
	}
	cred := tok.credential()
	// Instagram refreshes by presenting the current access token.
	cred.RefreshToken = cred.AccessToken
	return cred, nil
}

// RefreshToken extends a long-lived token before it lapses. Instagram refreshes
// the access token itself; there is no separate refresh token, so the caller
// passes the current access token here.
func (ig *Instagram) RefreshToken(ctx context.Context, refreshToken string) (*model.Credential, error) {
	if refreshToken == "" {
		return nil, &model.AuthError{Kind: model.AuthExpiredAndUnrefreshable, Platform: ig.platform}
	}
	q := url.Values{}
	q.Set("grant_type", "ig_refresh_token")
	q.Set("access_token", refreshToken)
	var tok tokenResponse
	if err := getJSON(ctx, ig.httpClient, ig.platform, ig.GraphBase+"/refresh_access_token?"+q.Encode(), nil, &tok); err != nil {
		return nil, err
	}
	cred := tok.credential()
	// The refreshed access token is also the next refresh input.
	cred.RefreshToken = cred.AccessToken
	return cred, nil
}

func (ig *Instagram) FetchProfile(ctx context.Context, cred *model.Credential) (*model.NormalizedProfile, error) {
	q := url.Values{}
	q.Set("fields", "id,username,account_type,media_count")
	q.Set("access_token", cred.AccessToken)
	var me struct {
		ID          string `json:"id"`
		Username    string `json:"username"`
		AccountType string `json:"account_type"`
		MediaCount  int    `json:"media_count"`
	}
	if err := getJSON(ctx, ig.httpClient, ig.platform, ig.GraphBase+"/me?"+q.Encode(), nil, &me); err != nil {
		return nil, err
	}
	return &model.NormalizedProfile{
		PlatformAccountID: me.ID,
		Username:          me.Username,
		DisplayName:       me.Username,
		RawMetadata: map[string]string{
			"account_type": me.AccountType,
			"media_count":  fmt.Sprintf("%d", me.MediaCount),
		},
	}, nil
}

// CreateContainer uploads the media reference and caption, returning the
// container (creation) id. Instagram requires media; caption-only is rejected
// upstream by validation.
func (ig *Instagram) CreateContainer(ctx context.Context, cred *model.Credential, account *model.ConnectedAccount, content model.PublishContent) (string, error) {
	form := url.Values{}
	form.Set("caption", content.Text)
	form.Set("access_token", cred.AccessToken)
	mediaURL := content.MediaURLs[0]
	if isVideoURL(mediaURL) {
		form.Set("media_type", "REELS")
		form.Set("video_url", mediaURL)
	} else {
		form.Set("image_url", mediaURL)
	}
	var res struct {
		ID string `json:"id"`
	}
	endpoint := fmt.Sprintf("%s/%s/media", ig.GraphBase, account.PlatformAccountID)
	if err := postForm(ctx, ig.httpClient, ig.platform, endpoint, form, nil, &res); err != nil {
		return "", err
	}
	return res.ID, nil
}

func (ig *Instagram) PollStatus(ctx context.Context, cred *model.Credential, containerID string) (model.ContainerStatus, string, error) {
	q := url.Values{}
	q.Set("fields", "status_code,status")
	q.Set("access_token", cred.AccessToken)
	var res struct {
		StatusCode string `json:"status_code"`
		Status     string `json:"status"`
	}
	if err := getJSON(ctx, ig.httpClient, ig.platform, ig.GraphBase+"/"+containerID+"?"+q.Encode(), nil, &res); err != nil {
		return "", "", err
	}
	switch res.StatusCode {
	case "FINISHED":
		return model.ContainerReady, "", nil
	case "IN_PROGRESS", "PUBLISHED":
		return model.ContainerProcessing, "", nil
	case "ERROR", "EXPIRED":
		return model.ContainerError, res.Status, nil
	default:
		return model.ContainerProcessing, "", nil
	}
}

func (ig *Instagram) Finalize(ctx context.Context, cred *model.Credential, account *model.ConnectedAccount, containerID string) (string, error) {
	form := url.Values{}
	form.Set("creation_id", containerID)
	form.Set("access_token", cred.AccessToken)
	var res struct {
		ID string `json:"id"`
	}
	endpoint := fmt.Sprintf("%s/%s/media_publish", ig.GraphBase, account.PlatformAccountID)
	if err := postForm(ctx, ig.httpClient, ig.platform, endpoint, form, nil, &res); err != nil {
		return "", err
	}
	return res.ID, nil
}

func isVideoURL(u string) bool {
	lower := strings.ToLower(u)
	for _, ext := range []string{".mp4", ".mov", ".m4v"} {
		if strings.Contains(lower, ext) {
			return true
		}
	}
	return false
}
