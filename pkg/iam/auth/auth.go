// Package auth holds the authentication domain: token sets issued by the IdP,
// identity claims, and the AUTH error registry.
package auth

import (
	"net/http"
	"time"

	"github.com/libromesh/identity/pkg/errx"
	"github.com/libromesh/identity/pkg/kernel"
)

// Error Registry
var ErrRegistry = errx.NewRegistry("AUTH")

var (
	// CodeFailed covers rejected credentials and rejected grants.
	CodeFailed       = ErrRegistry.Register("FAILED", errx.TypeAuthorization, http.StatusUnauthorized, "Authentication failed")
	CodeTokenExpired = ErrRegistry.Register("TOKEN_EXPIRED", errx.TypeAuthorization, http.StatusUnauthorized, "Token has expired")
	CodeTokenInvalid = ErrRegistry.Register("TOKEN_INVALID", errx.TypeAuthorization, http.StatusUnauthorized, "Token is invalid")
	CodeBadRequest   = ErrRegistry.Register("BAD_REQUEST", errx.TypeValidation, http.StatusBadRequest, "Invalid authentication request")
	CodeRateLimited  = ErrRegistry.Register("RATE_LIMITED", errx.TypeBusiness, http.StatusTooManyRequests, "Too many login attempts, try again later")
)

// Helper functions for common errors
func ErrFailed() *errx.Error {
	return ErrRegistry.New(CodeFailed)
}

func ErrTokenExpired() *errx.Error {
	return ErrRegistry.New(CodeTokenExpired)
}

func ErrTokenInvalid() *errx.Error {
	return ErrRegistry.New(CodeTokenInvalid)
}

func ErrBadRequest(message string) *errx.Error {
	return ErrRegistry.NewWithMessage(CodeBadRequest, message)
}

func ErrRateLimited() *errx.Error {
	return ErrRegistry.New(CodeRateLimited)
}

// TokenSet is the pair of tokens returned by a successful password or refresh
// grant. IssuedAt is stamped by the broker; everything else comes from the IdP
// verbatim. IssuedAt never goes over the wire directly — each grant renders it
// under its own name (login_time, refreshed_at).
type TokenSet struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	TokenType        string    `json:"token_type"`
	ExpiresIn        int64     `json:"expires_in"`
	RefreshExpiresIn int64     `json:"refresh_expires_in"`
	Scope            string    `json:"scope"`
	SessionState     string    `json:"session_state"`
	IssuedAt         time.Time `json:"-"`
}

// LoginResult is the login response payload: the token set plus the moment the
// password grant succeeded.
type LoginResult struct {
	TokenSet
	LoginTime time.Time `json:"login_time"`
}

// RefreshResult is the refresh response payload: the renewed token set plus
// the moment of renewal.
type RefreshResult struct {
	TokenSet
	RefreshedAt time.Time `json:"refreshed_at"`
}

// UserClaims are the OIDC userinfo claims the broker consumes.
type UserClaims struct {
	Subject           string `json:"sub"`
	PreferredUsername string `json:"preferred_username"`
	Email             string `json:"email"`
	GivenName         string `json:"given_name"`
	FamilyName        string `json:"family_name"`
	EmailVerified     bool   `json:"email_verified"`
}

// Identity is the whoami projection of UserClaims.
type Identity struct {
	Username      string `json:"username"`
	Email         string `json:"email"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	EmailVerified bool   `json:"email_verified"`
	Active        bool   `json:"active"`
}

// LoginRequest carries the password-grant credentials.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshRequest carries the refresh token for grant renewal and logout.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// NewAccount is the self-registration profile. The password is set as a
// permanent credential on the created account.
type NewAccount struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

// Registration is returned by a successful self-registration.
type Registration struct {
	UserID    kernel.UserID `json:"user_id"`
	CreatedAt time.Time     `json:"created_at"`
}
