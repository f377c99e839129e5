package dto

import "time"

// StartAuthorizationResponse carries the consent-screen URL and the opaque
// state token issued for the authorization attempt.
type StartAuthorizationResponse struct {
	Platform string `json:"platform"`
	AuthURL  string `json:"auth_url"`
	State    string `json:"state"`
}

// CallbackResponse is returned after a successful OAuth callback.
type CallbackResponse struct {
	AccountID   int64  `json:"account_id"`
	Platform    string `json:"platform"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// PublishRequest targets one or more connected accounts with a single content payload.
type PublishRequest struct {
	AccountIDs  []int64    `json:"account_ids" binding:"required"`
	Content     string     `json:"content" binding:"required"`
	MediaURLs   []string   `json:"media_urls,omitempty"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

// PublishResponse maps each requested account to its job, or to an immediate error.
type PublishResponse struct {
	Jobs   map[int64]string `json:"jobs"`
	Errors map[int64]string `json:"errors,omitempty"`
}

// JobStatusResponse reports one job's current state.
type JobStatusResponse struct {
	JobID          string  `json:"job_id"`
	AccountID      int64   `json:"account_id"`
	Platform       string  `json:"platform"`
	State          string  `json:"state"`
	PlatformPostID string  `json:"platform_post_id,omitempty"`
	Error          *string `json:"error,omitempty"`
}
