package platforms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"
)

// Registry maps platform names to their adapters.
type Registry struct {
	adapters map[string]repository.IPlatformAdapter
}

func NewRegistry(adapters ...repository.IPlatformAdapter) *Registry {
	m := make(map[string]repository.IPlatformAdapter, len(adapters))
	for _, a := range adapters {
		m[a.Platform()] = a
	}
	return &Registry{adapters: m}
}

func (r *Registry) Get(platform string) (repository.IPlatformAdapter, error) {
	a, ok := r.adapters[strings.ToLower(platform)]
	if !ok {
		return nil, &model.ValidationError{Reason: model.ReasonUnsupportedPlatform}
	}
	return a, nil
}

func (r *Registry) Platforms() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	return names
}

// oauthOnly is embedded by every adapter. The platforms here accept no direct
// username/password login; the rejection is deliberate and typed so callers
// can tell it apart from a bug.
type oauthOnly struct {
	platform string
}

func (o oauthOnly) UsesPKCE() bool { return false }

func (o oauthOnly) LoginWithPassword(context.Context, string, string) error {
	return &model.AuthError{Kind: model.AuthDirectLoginUnsupported, Platform: o.platform}
}

func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

// tokenResponse is the common OAuth token payload shape.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

func (t tokenResponse) credential() *model.Credential {
	cred := &model.Credential{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
	}
	if t.ExpiresIn > 0 {
		exp := time.Now().Add(time.Duration(t.ExpiresIn) * time.Second).UTC()
		cred.ExpiresAt = &exp
	}
	return cred
}

// postForm posts application/x-www-form-urlencoded and decodes the JSON body
// into out, converting non-2xx responses to PlatformAPIError.
func postForm(ctx context.Context, client *http.Client, platform, endpoint string, form url.Values, header http.Header, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return doJSON(client, platform, req, out)
}

// postJSON posts a JSON body and decodes the JSON response into out.
func postJSON(ctx context.Context, client *http.Client, platform, endpoint string, body interface{}, header http.Header, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(payload)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return doJSON(client, platform, req, out)
}

// getJSON issues a GET and decodes the JSON response into out.
func getJSON(ctx context.Context, client *http.Client, platform, endpoint string, header http.Header, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return doJSON(client, platform, req, out)
}

func doJSON(client *http.Client, platform string, req *http.Request, out interface{}) error {
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", platform, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(platform, resp.StatusCode, body)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s response decode: %w", platform, err)
	}
	return nil
}

// apiError extracts the platform's own error code/message where the body
// follows one of the common shapes, and keeps the raw body otherwise.
func apiError(platform string, status int, body []byte) error {
	apiErr := &model.PlatformAPIError{Platform: platform, StatusCode: status, Message: string(body)}
	var graph struct {
		Error struct {
			Message string `json:"message"`
			Code    int    `json:"code"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &graph) == nil && graph.Error.Message != "" {
		apiErr.Message = graph.Error.Message
		apiErr.Code = fmt.Sprintf("%d", graph.Error.Code)
		return apiErr
	}
	var flat struct {
		Title            string `json:"title"`
		Detail           string `json:"detail"`
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
	}
	if json.Unmarshal(body, &flat) == nil {
		switch {
		case flat.Title != "":
			apiErr.Message = flat.Title
		case flat.Message != "":
			apiErr.Message = flat.Message
		case flat.ErrorDescription != "":
			apiErr.Message = flat.ErrorDescription
		}
	}
	return apiErr
}

func bearerHeader(token string) http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+token)
	return h
}
