package platforms

import (
	"context"
	"fmt"
	"net/http"

	"social-publisher/domain/model"
	"social-publisher/infrastructure/configuration"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// YouTube rides on Google's OAuth endpoint and the youtube/v3 API. Uploads are
// synchronous from our point of view: Videos.Insert blocks until the upload is
// accepted and returns the video id.
type YouTube struct {
	oauthOnly
	oauth      *oauth2.Config
	httpClient *http.Client
}

func NewYouTube(cfg configuration.OAuthClient) *YouTube {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{youtube.YoutubeUploadScope, youtube.YoutubeReadonlyScope}
	}
	return &YouTube{
		oauthOnly: oauthOnly{platform: "youtube"},
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       scopes,
			Endpoint:     google.Endpoint,
		},
		httpClient: defaultHTTPClient(),
	}
}

func (y *YouTube) Platform() string { return y.platform }

func (y *YouTube) AuthorizationURL(state, _ string) string {
	return y.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (y *YouTube) ExchangeCode(ctx context.Context, code, _ string) (*model.Credential, error) {
	tok, err := y.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, &model.PlatformAPIError{Platform: y.platform, Message: err.Error()}
	}
	return credentialFromOAuth2(tok), nil
}

func (y *YouTube) RefreshToken(ctx context.Context, refreshToken string) (*model.Credential, error) {
	if refreshToken == "" {
		return nil, &model.AuthError{Kind: model.AuthExpiredAndUnrefreshable, Platform: y.platform}
	}
	src := y.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, &model.PlatformAPIError{Platform: y.platform, Message: err.Error()}
	}
	cred := credentialFromOAuth2(tok)
	if cred.RefreshToken == "" {
		cred.RefreshToken = refreshToken
	}
	return cred, nil
}

func credentialFromOAuth2(tok *oauth2.Token) *model.Credential {
	cred := &model.Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
	}
	if !tok.Expiry.IsZero() {
		exp := tok.Expiry.UTC()
		cred.ExpiresAt = &exp
	}
	return cred
}

func (y *YouTube) service(ctx context.Context, cred *model.Credential) (*youtube.Service, error) {
	tok := &oauth2.Token{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		TokenType:    cred.TokenType,
	}
	if cred.ExpiresAt != nil {
		tok.Expiry = *cred.ExpiresAt
	}
	return youtube.NewService(ctx, option.WithTokenSource(y.oauth.TokenSource(ctx, tok)))
}

func (y *YouTube) FetchProfile(ctx context.Context, cred *model.Credential) (*model.NormalizedProfile, error) {
	svc, err := y.service(ctx, cred)
	if err != nil {
		return nil, err
	}
	res, err := svc.Channels.List([]string{"snippet"}).Mine(true).Context(ctx).Do()
	if err != nil {
		return nil, &model.PlatformAPIError{Platform: y.platform, Message: err.Error()}
	}
	if len(res.Items) == 0 {
		return nil, &model.PlatformAPIError{Platform: y.platform, Message: "no channel for authorized user"}
	}
	ch := res.Items[0]
	profile := &model.NormalizedProfile{
		PlatformAccountID: ch.Id,
		Username:          ch.Snippet.CustomUrl,
		DisplayName:       ch.Snippet.Title,
	}
	if profile.Username == "" {
		profile.Username = ch.Snippet.Title
	}
	if ch.Snippet.Thumbnails != nil && ch.Snippet.Thumbnails.Default != nil {
		profile.AvatarURL = ch.Snippet.Thumbnails.Default.Url
	}
	return profile, nil
}

// Publish uploads the first media URL as a video with the text as its title.
func (y *YouTube) Publish(ctx context.Context, cred *model.Credential, _ *model.ConnectedAccount, content model.PublishContent) (string, error) {
	if len(content.MediaURLs) == 0 {
		return "", &model.ValidationError{Reason: model.ReasonMalformedContent}
	}
	svc, err := y.service(ctx, cred)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, content.MediaURLs[0], nil)
	if err != nil {
		return "", err
	}
	resp, err := y.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("youtube media fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &model.PlatformAPIError{
			Platform:   y.platform,
			StatusCode: resp.StatusCode,
			Message:    "media URL fetch failed",
		}
	}
	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       truncate(content.Text, 100),
			Description: content.Text,
		},
		Status: &youtube.VideoStatus{PrivacyStatus: "public"},
	}
	call := svc.Videos.Insert([]string{"snippet", "status"}, video).Media(resp.Body)
	uploaded, err := call.Context(ctx).Do()
	if err != nil {
		return "", &model.PlatformAPIError{Platform: y.platform, Message: err.Error()}
	}
	return uploaded.Id, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
