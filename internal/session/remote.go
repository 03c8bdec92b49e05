package session

import (
	"context"

	"tanepro-b2b/internal/domain"
)

// RemoteAuth is the hosted authentication provider
type RemoteAuth interface {
	// GetSession returns the active session for tokens, or nil when there is none
	GetSession(ctx context.Context, tokens domain.Tokens) (*domain.AuthSession, error)
	SignInWithPassword(ctx context.Context, email, password string) (*domain.AuthSession, error)
	SignUp(ctx context.Context, email, password string, metadata domain.Metadata) (*domain.AuthUser, error)
	SignOut(ctx context.Context, tokens domain.Tokens) error
	// OnAuthStateChange registers a listener for session changes and returns
	// a function that removes it
	OnAuthStateChange(listener func(event domain.AuthEvent, session *domain.AuthSession)) (unsubscribe func())
}

// OfflineAuth is the provider used in local-only mode. Every call behaves as
// an unreachable remote.
type OfflineAuth struct{}

func (OfflineAuth) GetSession(context.Context, domain.Tokens) (*domain.AuthSession, error) {
	return nil, nil
}

func (OfflineAuth) SignInWithPassword(context.Context, string, string) (*domain.AuthSession, error) {
	return nil, domain.ErrRemoteUnavailable
}

func (OfflineAuth) SignUp(context.Context, string, string, domain.Metadata) (*domain.AuthUser, error) {
	return nil, domain.ErrRemoteUnavailable
}

func (OfflineAuth) SignOut(context.Context, domain.Tokens) error {
	return nil
}

func (OfflineAuth) OnAuthStateChange(func(domain.AuthEvent, *domain.AuthSession)) func() {
	return func() {}
}
