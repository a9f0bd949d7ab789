// Package authsrv orchestrates the user-facing authentication flows: login,
// refresh, logout, identity resolution, and self-registration. Every entry
// point runs under a traced operation so callers get a correlation ID back.
package authsrv

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/libromesh/identity/pkg/asyncx"
	"github.com/libromesh/identity/pkg/audit"
	"github.com/libromesh/identity/pkg/errx"
	"github.com/libromesh/identity/pkg/iam"
	"github.com/libromesh/identity/pkg/iam/auth"
	"github.com/libromesh/identity/pkg/kernel"
	"github.com/libromesh/identity/pkg/logx"
	"github.com/libromesh/identity/pkg/notifx"
	"github.com/libromesh/identity/pkg/ratelimit"
	"github.com/libromesh/identity/pkg/tracex"
)

type AuthService struct {
	provider  auth.Provider
	registrar auth.Registrar
	limiter   ratelimit.Limiter
	auditor   audit.Recorder
	notifier  *notifx.Client
}

func NewAuthService(
	provider auth.Provider,
	registrar auth.Registrar,
	limiter ratelimit.Limiter,
	auditor audit.Recorder,
	notifier *notifx.Client,
) *AuthService {
	return &AuthService{
		provider:  provider,
		registrar: registrar,
		limiter:   limiter,
		auditor:   auditor,
		notifier:  notifier,
	}
}

// Login performs the password grant. Over-limit attempts fail fast without
// contacting the IdP; a broken limiter backend never blocks logins.
func (s *AuthService) Login(ctx context.Context, req auth.LoginRequest, clientIP string) (*auth.LoginResult, kernel.CorrelationID, *errx.Error) {
	return tracex.Execute(ctx, "auth.login", req.Username, func(ctx context.Context) (*auth.LoginResult, error) {
		if xerr := validateLogin(req); xerr != nil {
			return nil, xerr
		}

		allowed, err := s.limiter.Allow(ctx, "login:"+req.Username+":"+clientIP)
		if err != nil {
			logx.WithField("username", req.Username).
				Warnf("Rate limiter unavailable, allowing attempt: %v", err)
		} else if !allowed {
			return nil, auth.ErrRateLimited()
		}

		ts, err := s.provider.ExchangePassword(ctx, req.Username, req.Password)
		if err != nil {
			return nil, err
		}
		return &auth.LoginResult{TokenSet: *ts, LoginTime: ts.IssuedAt}, nil
	})
}

// Refresh exchanges a refresh token for a new token set.
func (s *AuthService) Refresh(ctx context.Context, req auth.RefreshRequest) (*auth.RefreshResult, kernel.CorrelationID, *errx.Error) {
	return tracex.Execute(ctx, "auth.refresh", "", func(ctx context.Context) (*auth.RefreshResult, error) {
		if req.RefreshToken == "" {
			return nil, iam.Validation("Refresh token is required").
				WithValidationError("refresh_token", "refresh_token is required")
		}
		ts, err := s.provider.ExchangeRefresh(ctx, req.RefreshToken)
		if err != nil {
			return nil, err
		}
		return &auth.RefreshResult{TokenSet: *ts, RefreshedAt: ts.IssuedAt}, nil
	})
}

// Logout revokes the session behind the refresh token.
func (s *AuthService) Logout(ctx context.Context, req auth.RefreshRequest) (kernel.CorrelationID, *errx.Error) {
	_, cid, xerr := tracex.Execute(ctx, "auth.logout", "", func(ctx context.Context) (struct{}, error) {
		if req.RefreshToken == "" {
			return struct{}{}, iam.Validation("Refresh token is required").
				WithValidationError("refresh_token", "refresh_token is required")
		}
		return struct{}{}, s.provider.Revoke(ctx, req.RefreshToken)
	})
	return cid, xerr
}

// WhoAmI resolves the identity behind a Bearer header. A missing or malformed
// header is rejected locally without any IdP call.
func (s *AuthService) WhoAmI(ctx context.Context, authorizationHeader string) (*auth.Identity, kernel.CorrelationID, *errx.Error) {
	token, headerErr := bearerToken(authorizationHeader)

	return tracex.Execute(ctx, "auth.whoami", tokenSubject(token), func(ctx context.Context) (*auth.Identity, error) {
		if headerErr != nil {
			return nil, headerErr
		}

		claims, err := s.provider.FetchUserInfo(ctx, token)
		if err != nil {
			return nil, err
		}
		return &auth.Identity{
			Username:      claims.PreferredUsername,
			Email:         claims.Email,
			FirstName:     claims.GivenName,
			LastName:      claims.FamilyName,
			EmailVerified: claims.EmailVerified,
			Active:        true,
		}, nil
	})
}

// Register creates a self-service account with a permanent password, then
// fires the welcome notification without blocking the response.
func (s *AuthService) Register(ctx context.Context, req auth.NewAccount) (*auth.Registration, kernel.CorrelationID, *errx.Error) {
	reg, cid, xerr := tracex.Execute(ctx, "auth.register", req.Username, func(ctx context.Context) (*auth.Registration, error) {
		if xerr := validateNewAccount(req); xerr != nil {
			return nil, xerr
		}

		id, err := s.registrar.CreateAccount(ctx, req)
		if err != nil {
			return nil, err
		}
		return &auth.Registration{UserID: id, CreatedAt: time.Now()}, nil
	})

	if xerr != nil {
		s.auditor.Record(ctx, audit.Failed("auth.register", req.Username, cid, xerr.Code))
		return nil, cid, xerr
	}

	s.auditor.Record(ctx, audit.Succeeded("auth.register", req.Username, reg.UserID, cid))
	s.notifyCreated(req.Email, req.Username)
	return reg, cid, nil
}

func (s *AuthService) notifyCreated(email, username string) {
	if s.notifier == nil {
		return
	}
	asyncx.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.notifier.SendAccountCreated(ctx, email, username); err != nil {
			logx.WithField("username", username).
				Warnf("Account-created notification failed: %v", err)
		}
	})
}

func validateLogin(req auth.LoginRequest) *errx.Error {
	verr := iam.Validation("Invalid login payload")
	if req.Username == "" {
		verr.WithValidationError("username", "username is required")
	}
	if req.Password == "" {
		verr.WithValidationError("password", "password is required")
	}
	if len(verr.ValidationErrors) > 0 {
		return verr
	}
	return nil
}

func validateNewAccount(req auth.NewAccount) *errx.Error {
	verr := iam.Validation("Invalid registration payload")
	if req.Username == "" {
		verr.WithValidationError("username", "username is required")
	}
	if req.Email == "" {
		verr.WithValidationError("email", "email is required")
	}
	if req.Password == "" {
		verr.WithValidationError("password", "password is required")
	}
	if len(verr.ValidationErrors) > 0 {
		return verr
	}
	return nil
}

// bearerToken extracts the token from an Authorization header. The checks are
// purely local; no IdP call happens before they pass.
func bearerToken(header string) (string, *errx.Error) {
	if header == "" {
		return "", auth.ErrFailed()
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return "", auth.ErrBadRequest("Authorization header must use the Bearer scheme")
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return "", auth.ErrBadRequest("Authorization header carries no token")
	}
	return token, nil
}

// tokenSubject pulls a display subject from the token for trace events. The
// signature is deliberately not verified: this is log decoration, the IdP
// does the real validation.
func tokenSubject(token string) string {
	if token == "" {
		return ""
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	if username, ok := claims["preferred_username"].(string); ok && username != "" {
		return username
	}
	if sub, ok := claims["sub"].(string); ok {
		return sub
	}
	return ""
}
