package model

import "time"

// ConnectedAccount represents one user's link to a social platform.
// At most one active row exists per (user_id, platform).
type ConnectedAccount struct {
	ID                int64             `json:"id"`
	UserID            string            `json:"user_id"`
	Platform          string            `json:"platform"`
	PlatformAccountID string            `json:"platform_account_id"`
	Username          string            `json:"username"`
	DisplayName       string            `json:"display_name"`
	AvatarURL         string            `json:"avatar_url"`
	Credential        Credential        `json:"-"`
	Scopes            string            `json:"scopes,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
	IsActive          bool              `json:"is_active"`
	ConnectedAt       time.Time         `json:"connected_at"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// Credential holds the delegated authority to act on a connected account.
// A nil ExpiresAt means the token does not expire.
type Credential struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	TokenType    string     `json:"token_type,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

// ExpiresWithin reports whether the credential expires before now+margin.
// Non-expiring credentials never do.
func (c Credential) ExpiresWithin(margin time.Duration) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return time.Now().Add(margin).After(*c.ExpiresAt)
}

// NormalizedProfile is the fixed shape every platform's profile schema is reduced to.
// Fields that do not map onto it are preserved in RawMetadata.
type NormalizedProfile struct {
	PlatformAccountID string            `json:"platform_account_id"`
	Username          string            `json:"username"`
	DisplayName       string            `json:"display_name"`
	AvatarURL         string            `json:"avatar_url"`
	RawMetadata       map[string]string `json:"raw_metadata,omitempty"`
}
