package usecase

import (
	"context"
	"errors"
	"strconv"
	"time"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/logger"

	"golang.org/x/sync/singleflight"
)

// AdapterRegistry resolves a platform name to its adapter.
type AdapterRegistry interface {
	Get(platform string) (repository.IPlatformAdapter, error)
}

// ITokenVault hands out credentials that are valid for at least the configured
// margin, refreshing through the platform when needed.
type ITokenVault interface {
	ValidCredential(ctx context.Context, account *model.ConnectedAccount) (*model.Credential, error)
}

type tokenVault struct {
	accountRepo repository.IConnectedAccount
	adapters    AdapterRegistry
	margin      time.Duration
	group       singleflight.Group
}

func NewTokenVault(accountRepo repository.IConnectedAccount, adapters AdapterRegistry, margin time.Duration) ITokenVault {
	return &tokenVault{accountRepo: accountRepo, adapters: adapters, margin: margin}
}

// ValidCredential returns the stored credential when it outlives the margin,
// and otherwise refreshes it. Concurrent callers for the same account share a
// single refresh via singleflight; losers get the winner's result.
func (v *tokenVault) ValidCredential(ctx context.Context, account *model.ConnectedAccount) (*model.Credential, error) {
	if !account.IsActive {
		return nil, &model.ValidationError{Reason: model.ReasonAccountInactive}
	}
	if !account.Credential.ExpiresWithin(v.margin) {
		cred := account.Credential
		return &cred, nil
	}

	key := strconv.FormatInt(account.ID, 10)
	res, err, _ := v.group.Do(key, func() (interface{}, error) {
		return v.refresh(ctx, account.ID, account.Platform)
	})
	if err != nil {
		return nil, err
	}
	return res.(*model.Credential), nil
}

func (v *tokenVault) refresh(ctx context.Context, accountID int64, platform string) (*model.Credential, error) {
	// Re-read so a refresh that landed between the caller's check and this
	// callback is observed instead of repeated.
	account, err := v.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !account.Credential.ExpiresWithin(v.margin) {
		cred := account.Credential
		return &cred, nil
	}

	adapter, err := v.adapters.Get(platform)
	if err != nil {
		return nil, err
	}
	fresh, err := adapter.RefreshToken(ctx, account.Credential.RefreshToken)
	if err != nil {
		if unrecoverableRefresh(err) {
			// The credential is unrecoverable. Deactivate so future requests
			// fail fast until the user reauthorizes.
			if derr := v.accountRepo.Deactivate(ctx, accountID); derr != nil {
				logger.GetLogger().
					WithField("account_id", accountID).
					WithField("error", derr).
					Error("Failed to deactivate account after refresh failure")
			}
			return nil, &model.AuthError{Kind: model.AuthReauthorizationRequired, Platform: platform, Err: err}
		}
		return nil, err
	}
	if err := v.accountRepo.UpdateCredential(ctx, accountID, *fresh); err != nil {
		return nil, err
	}
	logger.GetLogger().
		WithField("account_id", accountID).
		WithField("platform", platform).
		Info("Credential refreshed")
	return fresh, nil
}

// unrecoverableRefresh reports whether the refresh failure means the stored
// refresh token is dead. Token endpoints answer a revoked or expired refresh
// token with a 4xx (invalid_grant and friends); retrying cannot succeed, so
// only network failures and 5xx responses stay transient.
func unrecoverableRefresh(err error) bool {
	var authErr *model.AuthError
	if errors.As(err, &authErr) {
		return true
	}
	var apiErr *model.PlatformAPIError
	return errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500
}
