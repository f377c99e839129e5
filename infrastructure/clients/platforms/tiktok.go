package platforms

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"social-publisher/domain/model"
	"social-publisher/infrastructure/configuration"
)

// TikTok posts video through the async direct-post flow: init with a pull URL,
// then poll the publish status until the platform finishes downloading and
// processing. There is no separate finalize call; the post goes live when
// processing completes, so Finalize just reads back the post id.
type TikTok struct {
	oauthOnly
	cfg        configuration.OAuthClient
	httpClient *http.Client

	AuthBase string // www.tiktok.com consent dialog
	APIBase  string // open.tiktokapis.com
}

func NewTikTok(cfg configuration.OAuthClient) *TikTok {
	return &TikTok{
		oauthOnly:  oauthOnly{platform: "tiktok"},
		cfg:        cfg,
		httpClient: defaultHTTPClient(),
		AuthBase:   "https://www.tiktok.com",
		APIBase:    "https://open.tiktokapis.com",
	}
}

func (tk *TikTok) Platform() string { return tk.platform }

func (tk *TikTok) UsesPKCE() bool { return true }

func (tk *TikTok) AuthorizationURL(state, codeChallenge string) string {
	q := url.Values{}
	q.Set("client_key", tk.cfg.ClientID)
	q.Set("response_type", "code")
	q.Set("scope", strings.Join(tk.cfg.Scopes, ","))
	q.Set("redirect_uri", tk.cfg.RedirectURI)
	q.Set("state", state)
	q.Set("code_challenge", codeChallenge)
	q.Set("code_challenge_method", "S256")
	return tk.AuthBase + "/v2/auth/authorize/?" + q.Encode()
}

func (tk *TikTok) ExchangeCode(ctx context.Context, code, verifier string) (*model.Credential, error) {
	form := url.Values{}
	form.Set("client_key", tk.cfg.ClientID)
	form.Set("client_secret", tk.cfg.ClientSecret)
	form.Set("code", code)
	form.Set("grant_type", "authorization_code")
	form.Set("redirect_uri", tk.cfg.RedirectURI)
	form.Set("code_verifier", verifier)
	var tok tokenResponse
	if err := postForm(ctx, tk.httpClient, tk.platform, tk.APIBase+"/v2/oauth/token/", form, nil, &tok); err != nil {
		return nil, err
	}
	return tok.credential(), nil
}

func (tk *TikTok) RefreshToken(ctx context.Context, refreshToken string) (*model.Credential, error) {
	if refreshToken == "" {
		return nil, &model.AuthError{Kind: model.AuthExpiredAndUnrefreshable, Platform: tk.platform}
	}
	form := url.Values{}
	form.Set("client_key", tk.cfg.ClientID)
	form.Set("client_secret", tk.cfg.ClientSecret)
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	var tok tokenResponse
	if err := postForm(ctx, tk.httpClient, tk.platform, tk.APIBase+"/v2/oauth/token/", form, nil, &tok); err != nil {
		return nil, err
	}
	cred := tok.credential()
	if cred.RefreshToken == "" {
		cred.RefreshToken = refreshToken
	}
	return cred, nil
}

func (tk *TikTok) FetchProfile(ctx context.Context, cred *model.Credential) (*model.NormalizedProfile, error) {
	q := url.Values{}
	q.Set("fields", "open_id,union_id,avatar_url,display_name")
	var res struct {
		Data struct {
			User struct {
				OpenID      string `json:"open_id"`
				UnionID     string `json:"union_id"`
				AvatarURL   string `json:"avatar_url"`
				DisplayName string `json:"display_name"`
			} `json:"user"`
		} `json:"data"`
	}
	endpoint := tk.APIBase + "/v2/user/info/?" + q.Encode()
	if err := getJSON(ctx, tk.httpClient, tk.platform, endpoint, bearerHeader(cred.AccessToken), &res); err != nil {
		return nil, err
	}
	u := res.Data.User
	return &model.NormalizedProfile{
		PlatformAccountID: u.OpenID,
		Username:          u.DisplayName,
		DisplayName:       u.DisplayName,
		AvatarURL:         u.AvatarURL,
		RawMetadata:       map[string]string{"union_id": u.UnionID},
	}, nil
}

func (tk *TikTok) CreateContainer(ctx context.Context, cred *model.Credential, _ *model.ConnectedAccount, content model.PublishContent) (string, error) {
	body := map[string]interface{}{
		"post_info": map[string]interface{}{
			"title":           content.Text,
			"privacy_level":   "PUBLIC_TO_EVERYONE",
			"disable_comment": false,
		},
		"source_info": map[string]interface{}{
			"source":    "PULL_FROM_URL",
			"video_url": content.MediaURLs[0],
		},
	}
	var res struct {
		Data struct {
			PublishID string `json:"publish_id"`
		} `json:"data"`
	}
	endpoint := tk.APIBase + "/v2/post/publish/video/init/"
	if err := postJSON(ctx, tk.httpClient, tk.platform, endpoint, body, bearerHeader(cred.AccessToken), &res); err != nil {
		return "", err
	}
	return res.Data.PublishID, nil
}

func (tk *TikTok) PollStatus(ctx context.Context, cred *model.Credential, containerID string) (model.ContainerStatus, string, error) {
	status, _, failReason, err := tk.fetchStatus(ctx, cred, containerID)
	if err != nil {
		return "", "", err
	}
	switch status {
	case "PUBLISH_COMPLETE", "SEND_TO_USER_INBOX":
		return model.ContainerReady, "", nil
	case "FAILED":
		return model.ContainerError, failReason, nil
	default:
		// PROCESSING_DOWNLOAD, PROCESSING_UPLOAD and friends.
		return model.ContainerProcessing, "", nil
	}
}

func (tk *TikTok) Finalize(ctx context.Context, cred *model.Credential, _ *model.ConnectedAccount, containerID string) (string, error) {
	_, postID, _, err := tk.fetchStatus(ctx, cred, containerID)
	if err != nil {
		return "", err
	}
	if postID == "" {
		// Inbox-shared drafts have no public post id yet.
		postID = containerID
	}
	return postID, nil
}

func (tk *TikTok) fetchStatus(ctx context.Context, cred *model.Credential, publishID string) (status, postID, failReason string, err error) {
	body := map[string]string{"publish_id": publishID}
	var res struct {
		Data struct {
			Status        string   `json:"status"`
			FailReason    string   `json:"fail_reason"`
			PublicPostIDs []string `json:"publicaly_available_post_id"`
		} `json:"data"`
	}
	endpoint := tk.APIBase + "/v2/post/publish/status/fetch/"
	if err = postJSON(ctx, tk.httpClient, tk.platform, endpoint, body, bearerHeader(cred.AccessToken), &res); err != nil {
		return "", "", "", err
	}
	if len(res.Data.PublicPostIDs) > 0 {
		postID = res.Data.PublicPostIDs[0]
	}
	return res.Data.Status, postID, res.Data.FailReason, nil
}
