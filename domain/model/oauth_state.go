package model

import "time"

// OAuthState is the single-use correlator binding an OAuth callback to the
// request that initiated it. The PKCE verifier is retained server-side only
// and is never returned to HTTP callers.
type OAuthState struct {
	UserID       string    `json:"user_id"`
	Platform     string    `json:"platform"`
	PKCEVerifier string    `json:"pkce_verifier,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
