package repository

import (
	"context"
	"social-publisher/domain/model"
)

// IOAuthState issues and consumes single-use OAuth state tokens.
// Consume is an atomic lookup-and-delete: of two callbacks racing on the same
// token, exactly one succeeds and the other gets model.StateError.
type IOAuthState interface {
	Issue(ctx context.Context, userID, platform, pkceVerifier string) (string, error)
	Consume(ctx context.Context, token string) (*model.OAuthState, error)
}
