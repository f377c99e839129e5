package repository

import (
	"context"
	"social-publisher/domain/model"
)

// IConnectedAccount is the registry of normalized connected accounts.
// Upsert enforces the (user_id, platform) uniqueness invariant: a second
// successful OAuth cycle for an already-connected platform updates in place.
type IConnectedAccount interface {
	Upsert(ctx context.Context, account *model.ConnectedAccount) (*model.ConnectedAccount, error)
	GetByID(ctx context.Context, accountID int64) (*model.ConnectedAccount, error)
	ListByUser(ctx context.Context, userID string) ([]*model.ConnectedAccount, error)
	UpdateCredential(ctx context.Context, accountID int64, cred model.Credential) error
	Deactivate(ctx context.Context, accountID int64) error
	Delete(ctx context.Context, accountID int64) error
}
