package repository

import (
	"context"
	"social-publisher/domain/model"
)

// IPlatformAdapter is the OAuth capability set every platform implements.
// Publish capability is optional and detected by asserting ISyncPublisher or
// IAsyncPublisher; an adapter implementing neither is not publishable.
//
// None of the platforms accept direct username/password login; adapters expose
// only OAuth-based capabilities by construction.
type IPlatformAdapter interface {
	Platform() string
	// UsesPKCE reports whether ExchangeCode requires the code verifier
	// generated at authorization time.
	UsesPKCE() bool
	// AuthorizationURL builds the consent-screen URL embedding the opaque
	// state. codeChallenge is empty for platforms without PKCE.
	AuthorizationURL(state, codeChallenge string) string
	ExchangeCode(ctx context.Context, code, verifier string) (*model.Credential, error)
	RefreshToken(ctx context.Context, refreshToken string) (*model.Credential, error)
	FetchProfile(ctx context.Context, cred *model.Credential) (*model.NormalizedProfile, error)
}

// ISyncPublisher publishes in a single synchronous call.
type ISyncPublisher interface {
	Publish(ctx context.Context, cred *model.Credential, account *model.ConnectedAccount, content model.PublishContent) (string, error)
}

// IAsyncPublisher is the three-phase create/poll/finalize sequence used by
// asynchronous media platforms. PollStatus never sleeps; pacing belongs to the
// orchestrator.
type IAsyncPublisher interface {
	CreateContainer(ctx context.Context, cred *model.Credential, account *model.ConnectedAccount, content model.PublishContent) (string, error)
	PollStatus(ctx context.Context, cred *model.Credential, containerID string) (model.ContainerStatus, string, error)
	Finalize(ctx context.Context, cred *model.Credential, account *model.ConnectedAccount, containerID string) (string, error)
}
