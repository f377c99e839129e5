package usecase

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"social-publisher/domain/dto"
	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/clients/platforms"
	"social-publisher/infrastructure/logger"
)

// ISocialAuthUsecase drives the OAuth connect flow and the account registry.
type ISocialAuthUsecase interface {
	StartAuthorization(ctx context.Context, userID, platform string) (*dto.StartAuthorizationResponse, error)
	HandleCallback(ctx context.Context, platform, state, code string) (*dto.CallbackResponse, error)
	ListAccounts(ctx context.Context, userID string) ([]*model.ConnectedAccount, error)
	Disconnect(ctx context.Context, userID string, accountID int64, purge bool) error
}

type socialAuthUsecase struct {
	accountRepo repository.IConnectedAccount
	stateStore  repository.IOAuthState
	adapters    AdapterRegistry
}

func NewSocialAuthUsecase(accountRepo repository.IConnectedAccount, stateStore repository.IOAuthState, adapters AdapterRegistry) ISocialAuthUsecase {
	return &socialAuthUsecase{accountRepo: accountRepo, stateStore: stateStore, adapters: adapters}
}

func (u *socialAuthUsecase) StartAuthorization(ctx context.Context, userID, platform string) (*dto.StartAuthorizationResponse, error) {
	platform = strings.ToLower(platform)
	adapter, err := u.adapters.Get(platform)
	if err != nil {
		return nil, err
	}
	verifier := ""
	challenge := ""
	if adapter.UsesPKCE() {
		verifier = platforms.GeneratePKCEVerifier()
		challenge = platforms.S256Challenge(verifier)
	}
	state, err := u.stateStore.Issue(ctx, userID, platform, verifier)
	if err != nil {
		return nil, err
	}
	return &dto.StartAuthorizationResponse{
		Platform: platform,
		AuthURL:  adapter.AuthorizationURL(state, challenge),
		State:    state,
	}, nil
}

func (u *socialAuthUsecase) HandleCallback(ctx context.Context, platform, state, code string) (*dto.CallbackResponse, error) {
	platform = strings.ToLower(platform)
	adapter, err := u.adapters.Get(platform)
	if err != nil {
		return nil, err
	}
	st, err := u.stateStore.Consume(ctx, state)
	if err != nil {
		return nil, err
	}
	if st.Platform != platform {
		// A state minted for one platform presented on another's callback.
		logger.GetLogger().
			WithField("expected", st.Platform).
			WithField("got", platform).
			Warn("OAuth state platform mismatch")
		return nil, &model.StateError{Kind: model.StateNotFound}
	}

	cred, err := adapter.ExchangeCode(ctx, code, st.PKCEVerifier)
	if err != nil {
		return nil, err
	}
	profile, err := adapter.FetchProfile(ctx, cred)
	if err != nil {
		return nil, err
	}

	account, err := u.accountRepo.Upsert(ctx, &model.ConnectedAccount{
		UserID:            st.UserID,
		Platform:          platform,
		PlatformAccountID: profile.PlatformAccountID,
		Username:          profile.Username,
		DisplayName:       profile.DisplayName,
		AvatarURL:         profile.AvatarURL,
		Credential:        *cred,
		Metadata:          profile.RawMetadata,
		IsActive:          true,
		ConnectedAt:       time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	logger.GetLogger().
		WithField("user_id", st.UserID).
		WithField("platform", platform).
		WithField("account_id", account.ID).
		Info("Account connected")
	return &dto.CallbackResponse{
		AccountID:   account.ID,
		Platform:    account.Platform,
		Username:    account.Username,
		DisplayName: account.DisplayName,
		AvatarURL:   account.AvatarURL,
	}, nil
}

func (u *socialAuthUsecase) ListAccounts(ctx context.Context, userID string) ([]*model.ConnectedAccount, error) {
	return u.accountRepo.ListByUser(ctx, userID)
}

// Disconnect deactivates the account by default; purge removes the row and its
// stored credential entirely.
func (u *socialAuthUsecase) Disconnect(ctx context.Context, userID string, accountID int64, purge bool) error {
	account, err := u.accountRepo.GetByID(ctx, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return &model.ValidationError{Reason: model.ReasonAccountNotFound}
	}
	if err != nil {
		return err
	}
	if account.UserID != userID {
		return &model.ValidationError{Reason: model.ReasonAccountNotFound}
	}
	if purge {
		return u.accountRepo.Delete(ctx, accountID)
	}
	return u.accountRepo.Deactivate(ctx, accountID)
}
