// Package idp is the outbound adapter to a Keycloak-compatible identity
// provider: OIDC token/userinfo/logout endpoints for the user-facing grants,
// and the realm admin REST API through a client-credentials service account.
// Every call is a network round trip; responses are decoded into domain types
// and failures are normalized to the registered error taxonomy.
package idp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/libromesh/identity/pkg/config"
	"github.com/libromesh/identity/pkg/errx"
	"github.com/libromesh/identity/pkg/iam/auth"
	"github.com/libromesh/identity/pkg/kernel"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const defaultTimeout = 10 * time.Second

// Client talks to the IdP. It is safe for concurrent use; the admin client
// caches and refreshes the service-account token internally.
type Client struct {
	cfg        config.KeycloakConfig
	httpClient *http.Client
	adminHTTP  *http.Client
}

// NewClient builds a Client from the Keycloak configuration. The admin REST
// calls authenticate via the client-credentials grant against the same realm
// token endpoint.
func NewClient(cfg config.KeycloakConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	base := &http.Client{Timeout: timeout}

	cc := clientcredentials.Config{
		ClientID:     cfg.AdminClientID,
		ClientSecret: cfg.AdminClientSecret,
		TokenURL:     oidcURL(cfg, "token"),
	}
	adminCtx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	admin := cc.Client(adminCtx)
	admin.Timeout = timeout

	return &Client{
		cfg:        cfg,
		httpClient: base,
		adminHTTP:  admin,
	}
}

func oidcURL(cfg config.KeycloakConfig, leaf string) string {
	return fmt.Sprintf("%s/realms/%s/protocol/openid-connect/%s",
		strings.TrimRight(cfg.ServerURL, "/"), cfg.Realm, leaf)
}

func (c *Client) tokenURL() string    { return oidcURL(c.cfg, "token") }
func (c *Client) userinfoURL() string { return oidcURL(c.cfg, "userinfo") }
func (c *Client) logoutURL() string   { return oidcURL(c.cfg, "logout") }

// ExchangePassword posts a password grant.
func (c *Client) ExchangePassword(ctx context.Context, username, password string) (*auth.TokenSet, error) {
	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("username", username)
	form.Set("password", password)
	form.Set("scope", "openid profile email")
	return c.exchange(ctx, form)
}

// ExchangeRefresh posts a refresh grant.
func (c *Client) ExchangeRefresh(ctx context.Context, refreshToken string) (*auth.TokenSet, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("refresh_token", refreshToken)
	return c.exchange(ctx, form)
}

func (c *Client) exchange(ctx context.Context, form url.Values) (*auth.TokenSet, error) {
	body, status, xerr := c.postForm(ctx, c.tokenURL(), form)
	if xerr != nil {
		return nil, xerr
	}
	if status >= 400 {
		return nil, tokenError(status, body)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, ErrRegistry.NewWithCause(CodeInternal, err).
			WithDetail("endpoint", c.tokenURL()).
			WithDetail("reason", "undecodable token response")
	}
	return tr.toTokenSet(), nil
}

// Revoke posts the refresh token to the logout endpoint. The IdP answers with
// no body on success; an already-invalid token that the IdP accepts silently
// counts as success.
func (c *Client) Revoke(ctx context.Context, refreshToken string) error {
	form := url.Values{}
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("refresh_token", refreshToken)

	body, status, xerr := c.postForm(ctx, c.logoutURL(), form)
	if xerr != nil {
		return xerr
	}
	if status >= 400 {
		return tokenError(status, body)
	}
	return nil
}

// FetchUserInfo resolves the claims behind an access token.
func (c *Client) FetchUserInfo(ctx context.Context, accessToken string) (*auth.UserClaims, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userinfoURL(), nil)
	if err != nil {
		return nil, ErrRegistry.NewWithCause(CodeInternal, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(err, c.userinfoURL())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(err, c.userinfoURL())
	}
	if resp.StatusCode >= 400 {
		return nil, userInfoError(accessToken, resp.StatusCode, body)
	}

	var claims auth.UserClaims
	if err := json.Unmarshal(body, &claims); err != nil {
		return nil, ErrRegistry.NewWithCause(CodeInternal, err).
			WithDetail("endpoint", c.userinfoURL()).
			WithDetail("reason", "undecodable userinfo response")
	}
	return &claims, nil
}

// CreateAccount implements auth.Registrar: self-registration creates an
// enabled, unverified account with a permanent password.
func (c *Client) CreateAccount(ctx context.Context, account auth.NewAccount) (kernel.UserID, error) {
	rep := userRepresentation{
		Username:      account.Username,
		Email:         account.Email,
		FirstName:     account.FirstName,
		LastName:      account.LastName,
		Enabled:       true,
		EmailVerified: false,
	}
	return c.createUser(ctx, rep, account.Password)
}

// Ping checks realm reachability through the OIDC discovery document.
func (c *Client) Ping(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/realms/%s/.well-known/openid-configuration",
		strings.TrimRight(c.cfg.ServerURL, "/"), c.cfg.Realm)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ErrRegistry.NewWithCause(CodeInternal, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(err, endpoint)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return ErrRegistry.New(CodeUnavailable).WithDetail("idp_status", resp.StatusCode)
	}
	return nil
}

func (c *Client) postForm(ctx context.Context, endpoint string, form url.Values) ([]byte, int, *errx.Error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, 0, ErrRegistry.NewWithCause(CodeInternal, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, transportError(err, endpoint)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, transportError(err, endpoint)
	}
	return body, resp.StatusCode, nil
}
