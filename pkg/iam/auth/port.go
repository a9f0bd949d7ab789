package auth

import (
	"context"

	"github.com/libromesh/identity/pkg/kernel"
)

// Provider is the outbound port to the IdP's OIDC endpoints. Implementations
// return errx errors already normalized to the domain taxonomy.
type Provider interface {
	// ExchangePassword posts a password grant and returns the issued tokens.
	ExchangePassword(ctx context.Context, username, password string) (*TokenSet, error)

	// ExchangeRefresh posts a refresh grant for a new token set.
	ExchangeRefresh(ctx context.Context, refreshToken string) (*TokenSet, error)

	// Revoke invalidates the session behind the refresh token.
	Revoke(ctx context.Context, refreshToken string) error

	// FetchUserInfo resolves the identity claims behind an access token.
	FetchUserInfo(ctx context.Context, accessToken string) (*UserClaims, error)
}

// Registrar creates a new account with a permanent password credential.
type Registrar interface {
	CreateAccount(ctx context.Context, account NewAccount) (kernel.UserID, error)
}
