package authsrv_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/libromesh/identity/pkg/audit"
	"github.com/libromesh/identity/pkg/iam/auth"
	"github.com/libromesh/identity/pkg/iam/auth/authsrv"
	"github.com/libromesh/identity/pkg/kernel"
	"github.com/libromesh/identity/pkg/ratelimit"
)

// fakeProvider records calls and plays back canned results.
type fakeProvider struct {
	passwordCalls int
	refreshCalls  int
	revokeCalls   int
	userinfoCalls int

	tokens *auth.TokenSet
	claims *auth.UserClaims
	err    error
}

func (p *fakeProvider) ExchangePassword(ctx context.Context, username, password string) (*auth.TokenSet, error) {
	p.passwordCalls++
	return p.tokens, p.err
}

func (p *fakeProvider) ExchangeRefresh(ctx context.Context, refreshToken string) (*auth.TokenSet, error) {
	p.refreshCalls++
	return p.tokens, p.err
}

func (p *fakeProvider) Revoke(ctx context.Context, refreshToken string) error {
	p.revokeCalls++
	return p.err
}

func (p *fakeProvider) FetchUserInfo(ctx context.Context, accessToken string) (*auth.UserClaims, error) {
	p.userinfoCalls++
	return p.claims, p.err
}

type fakeRegistrar struct {
	created []auth.NewAccount
	id      kernel.UserID
	err     error
}

func (r *fakeRegistrar) CreateAccount(ctx context.Context, account auth.NewAccount) (kernel.UserID, error) {
	r.created = append(r.created, account)
	return r.id, r.err
}

type denyLimiter struct{}

func (denyLimiter) Allow(ctx context.Context, key string) (bool, error) { return false, nil }

type recordingAuditor struct {
	events []audit.Event
}

func (a *recordingAuditor) Record(ctx context.Context, e audit.Event) {
	a.events = append(a.events, e)
}

func newService(p *fakeProvider, r *fakeRegistrar, limiter ratelimit.Limiter, auditor audit.Recorder) *authsrv.AuthService {
	if limiter == nil {
		limiter = ratelimit.NewNoop()
	}
	if auditor == nil {
		auditor = &recordingAuditor{}
	}
	return authsrv.NewAuthService(p, r, limiter, auditor, nil)
}

func TestLogin(t *testing.T) {
	issued := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	provider := &fakeProvider{tokens: &auth.TokenSet{
		AccessToken: "at-1", RefreshToken: "rt-1", IssuedAt: issued,
	}}
	svc := newService(provider, &fakeRegistrar{}, nil, nil)

	ts, cid, xerr := svc.Login(context.Background(), auth.LoginRequest{
		Username: "margaret", Password: "hunter2",
	}, "10.0.0.1")
	if xerr != nil {
		t.Fatalf("unexpected error: %v", xerr)
	}
	if ts.AccessToken != "at-1" {
		t.Fatalf("token set not returned: %+v", ts)
	}
	if !ts.LoginTime.Equal(issued) {
		t.Fatalf("login time not stamped from the grant: %+v", ts)
	}
	if cid.IsEmpty() {
		t.Fatal("expected a correlation ID")
	}
	if provider.passwordCalls != 1 {
		t.Fatalf("expected one password grant, got %d", provider.passwordCalls)
	}
}

func TestLogin_MissingFields(t *testing.T) {
	provider := &fakeProvider{}
	svc := newService(provider, &fakeRegistrar{}, nil, nil)

	_, _, xerr := svc.Login(context.Background(), auth.LoginRequest{Username: "margaret"}, "10.0.0.1")
	if xerr == nil {
		t.Fatal("expected validation error")
	}
	if xerr.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected VALIDATION_ERROR, got %s", xerr.Code)
	}
	if xerr.ValidationErrors["password"] == "" {
		t.Fatalf("expected field-level message, got %v", xerr.ValidationErrors)
	}
	if provider.passwordCalls != 0 {
		t.Fatal("validation failures must not reach the IdP")
	}
}

func TestLogin_RateLimited(t *testing.T) {
	provider := &fakeProvider{}
	svc := newService(provider, &fakeRegistrar{}, denyLimiter{}, nil)

	_, _, xerr := svc.Login(context.Background(), auth.LoginRequest{
		Username: "margaret", Password: "hunter2",
	}, "10.0.0.1")
	if xerr == nil {
		t.Fatal("expected rate-limit error")
	}
	if xerr.Code != "AUTH_RATE_LIMITED" {
		t.Fatalf("expected AUTH_RATE_LIMITED, got %s", xerr.Code)
	}
	if xerr.HTTPStatus != 429 {
		t.Fatalf("expected 429, got %d", xerr.HTTPStatus)
	}
	if provider.passwordCalls != 0 {
		t.Fatal("over-limit attempts must not reach the IdP")
	}
}

func TestRefresh(t *testing.T) {
	issued := time.Date(2026, 3, 14, 10, 2, 7, 0, time.UTC)
	provider := &fakeProvider{tokens: &auth.TokenSet{
		AccessToken: "at-2", RefreshToken: "rt-2", IssuedAt: issued,
	}}
	svc := newService(provider, &fakeRegistrar{}, nil, nil)

	ts, _, xerr := svc.Refresh(context.Background(), auth.RefreshRequest{RefreshToken: "rt-1"})
	if xerr != nil {
		t.Fatalf("unexpected error: %v", xerr)
	}
	if ts.AccessToken != "at-2" {
		t.Fatalf("token set not returned: %+v", ts)
	}
	if !ts.RefreshedAt.Equal(issued) {
		t.Fatalf("refreshed time not stamped from the grant: %+v", ts)
	}
	if provider.refreshCalls != 1 {
		t.Fatalf("expected one refresh grant, got %d", provider.refreshCalls)
	}
}

func TestRefresh_EmptyToken(t *testing.T) {
	provider := &fakeProvider{}
	svc := newService(provider, &fakeRegistrar{}, nil, nil)

	_, _, xerr := svc.Refresh(context.Background(), auth.RefreshRequest{})
	if xerr == nil || xerr.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected VALIDATION_ERROR, got %v", xerr)
	}
	if provider.refreshCalls != 0 {
		t.Fatal("empty refresh token must not reach the IdP")
	}
}

func TestLogout(t *testing.T) {
	provider := &fakeProvider{}
	svc := newService(provider, &fakeRegistrar{}, nil, nil)

	cid, xerr := svc.Logout(context.Background(), auth.RefreshRequest{RefreshToken: "rt-1"})
	if xerr != nil {
		t.Fatalf("unexpected error: %v", xerr)
	}
	if cid.IsEmpty() {
		t.Fatal("expected a correlation ID")
	}
	if provider.revokeCalls != 1 {
		t.Fatalf("expected one revoke, got %d", provider.revokeCalls)
	}
}

func TestWhoAmI(t *testing.T) {
	provider := &fakeProvider{claims: &auth.UserClaims{
		Subject:           "abc-123",
		PreferredUsername: "margaret",
		Email:             "margaret@example.org",
		GivenName:         "Margaret",
		FamilyName:        "Hamilton",
		EmailVerified:     true,
	}}
	svc := newService(provider, &fakeRegistrar{}, nil, nil)

	identity, _, xerr := svc.WhoAmI(context.Background(), "Bearer "+selfSignedJWT(t))
	if xerr != nil {
		t.Fatalf("unexpected error: %v", xerr)
	}
	if identity.Username != "margaret" || identity.FirstName != "Margaret" {
		t.Fatalf("claims not projected: %+v", identity)
	}
	if !identity.Active || !identity.EmailVerified {
		t.Fatalf("expected active verified identity: %+v", identity)
	}
}

func TestWhoAmI_HeaderRejectedLocally(t *testing.T) {
	cases := []struct {
		name   string
		header string
		code   string
	}{
		{"missing", "", "AUTH_FAILED"},
		{"wrong scheme", "Basic dXNlcjpwYXNz", "AUTH_BAD_REQUEST"},
		{"empty token", "Bearer ", "AUTH_BAD_REQUEST"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			provider := &fakeProvider{}
			svc := newService(provider, &fakeRegistrar{}, nil, nil)

			_, _, xerr := svc.WhoAmI(context.Background(), c.header)
			if xerr == nil {
				t.Fatal("expected error")
			}
			if xerr.Code != c.code {
				t.Fatalf("expected %s, got %s", c.code, xerr.Code)
			}
			if provider.userinfoCalls != 0 {
				t.Fatal("malformed headers must be rejected without an IdP call")
			}
		})
	}
}

func TestRegister(t *testing.T) {
	registrar := &fakeRegistrar{id: "abc-123"}
	auditor := &recordingAuditor{}
	svc := newService(&fakeProvider{}, registrar, nil, auditor)

	reg, cid, xerr := svc.Register(context.Background(), auth.NewAccount{
		Username: "margaret",
		Email:    "margaret@example.org",
		Password: "hunter2",
	})
	if xerr != nil {
		t.Fatalf("unexpected error: %v", xerr)
	}
	if reg.UserID != "abc-123" {
		t.Fatalf("expected created ID, got %q", reg.UserID)
	}
	if reg.CreatedAt.IsZero() {
		t.Fatal("expected a creation timestamp")
	}
	if len(registrar.created) != 1 {
		t.Fatalf("expected one account creation, got %d", len(registrar.created))
	}
	if len(auditor.events) != 1 {
		t.Fatalf("expected one audit event, got %d", len(auditor.events))
	}
	e := auditor.events[0]
	if e.Action != "auth.register" || !e.Success || e.CorrelationID != cid {
		t.Fatalf("unexpected audit event: %+v", e)
	}
}

func TestRegister_Invalid(t *testing.T) {
	registrar := &fakeRegistrar{}
	auditor := &recordingAuditor{}
	svc := newService(&fakeProvider{}, registrar, nil, auditor)

	_, _, xerr := svc.Register(context.Background(), auth.NewAccount{Username: "margaret"})
	if xerr == nil || xerr.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected VALIDATION_ERROR, got %v", xerr)
	}
	if len(registrar.created) != 0 {
		t.Fatal("invalid registrations must not reach the IdP")
	}
	if len(auditor.events) != 1 || auditor.events[0].Success {
		t.Fatalf("expected one failure audit event, got %+v", auditor.events)
	}
	if auditor.events[0].ErrorCode != "VALIDATION_ERROR" {
		t.Fatalf("audit event missing error code: %+v", auditor.events[0])
	}
}

func selfSignedJWT(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":                "abc-123",
		"preferred_username": "margaret",
		"exp":                time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("signing test token: %v", err)
	}
	return signed
}
