package idp

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/libromesh/identity/pkg/errx"
	"github.com/libromesh/identity/pkg/iam/auth"
	"golang.org/x/oauth2"
)

// Error Registry
var ErrRegistry = errx.NewRegistry("IDP")

var (
	CodeUnavailable = ErrRegistry.Register("UNAVAILABLE", errx.TypeExternal, http.StatusServiceUnavailable, "Identity provider is unavailable")
	CodeInternal    = ErrRegistry.Register("INTERNAL", errx.TypeInternal, http.StatusInternalServerError, "Identity provider returned an unexpected error")
	CodeBadRequest  = ErrRegistry.Register("BAD_REQUEST", errx.TypeValidation, http.StatusBadRequest, "Identity provider rejected the request")
)

// oidcErrorBody is the standard OIDC error payload.
type oidcErrorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// transportError classifies failures that never produced an HTTP status.
// Timeouts and unreachable hosts both count as provider unavailability; a
// failed service-account token fetch is a broker misconfiguration, not an
// outage.
func transportError(err error, endpoint string) *errx.Error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return ErrRegistry.NewWithCause(CodeInternal, err).
			WithDetail("endpoint", endpoint).
			WithDetail("reason", "service account token fetch failed")
	}

	xerr := ErrRegistry.NewWithCause(CodeUnavailable, err).WithDetail("endpoint", endpoint)

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		xerr.WithDetail("reason", "timeout")
	}
	return xerr
}

// tokenError maps a token/logout endpoint failure status. Rejected grants
// become AUTH_FAILED; the raw status and body land in Details for the log
// line only.
func tokenError(status int, body []byte) *errx.Error {
	var oidc oidcErrorBody
	_ = json.Unmarshal(body, &oidc)

	var xerr *errx.Error
	switch {
	case status == http.StatusUnauthorized:
		xerr = auth.ErrFailed()
	case status == http.StatusBadRequest && oidc.Error == "invalid_grant":
		xerr = auth.ErrFailed()
	case status == http.StatusBadRequest:
		xerr = ErrRegistry.New(CodeBadRequest)
	case status == http.StatusServiceUnavailable:
		xerr = ErrRegistry.New(CodeUnavailable)
	default:
		xerr = ErrRegistry.New(CodeInternal)
	}
	return withWireDetails(xerr, status, body, oidc)
}

// userInfoError maps a userinfo failure status. A 401 on a well-formed but
// expired token is TOKEN_EXPIRED; everything else rejected by the IdP is
// TOKEN_INVALID.
func userInfoError(accessToken string, status int, body []byte) *errx.Error {
	var oidc oidcErrorBody
	_ = json.Unmarshal(body, &oidc)

	var xerr *errx.Error
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		xerr = classifyBearer(accessToken)
	case http.StatusBadRequest:
		xerr = ErrRegistry.New(CodeBadRequest)
	case http.StatusServiceUnavailable:
		xerr = ErrRegistry.New(CodeUnavailable)
	default:
		xerr = ErrRegistry.New(CodeInternal)
	}
	return withWireDetails(xerr, status, body, oidc)
}

// classifyBearer distinguishes an expired token from a malformed or otherwise
// rejected one. The signature is not verified here — the IdP already rejected
// the token; this only refines the error code.
func classifyBearer(accessToken string) *errx.Error {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return auth.ErrTokenInvalid()
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil && exp.Before(time.Now()) {
		return auth.ErrTokenExpired()
	}
	return auth.ErrTokenInvalid()
}

// adminError maps an admin REST failure status that no call-site rule caught.
// A 401/403 here means the broker's own service account is misconfigured.
func adminError(status int, body []byte) *errx.Error {
	var xerr *errx.Error
	switch status {
	case http.StatusBadRequest:
		xerr = ErrRegistry.New(CodeBadRequest)
	case http.StatusUnauthorized, http.StatusForbidden:
		xerr = ErrRegistry.New(CodeInternal).
			WithDetail("reason", "service account rejected by admin API")
	case http.StatusServiceUnavailable:
		xerr = ErrRegistry.New(CodeUnavailable)
	default:
		xerr = ErrRegistry.New(CodeInternal)
	}
	return withWireDetails(xerr, status, body, oidcErrorBody{})
}

func withWireDetails(xerr *errx.Error, status int, body []byte, oidc oidcErrorBody) *errx.Error {
	xerr.WithDetail("idp_status", status)
	if oidc.Error != "" {
		xerr.WithDetail("idp_error", oidc.Error)
	}
	if oidc.ErrorDescription != "" {
		xerr.WithDetail("idp_error_description", oidc.ErrorDescription)
	} else if len(body) > 0 && oidc.Error == "" {
		xerr.WithDetail("idp_body", truncate(string(body), 512))
	}
	return xerr
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
