package idp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/libromesh/identity/pkg/errx"
	"github.com/libromesh/identity/pkg/iam/role"
	"github.com/libromesh/identity/pkg/iam/user"
	"github.com/libromesh/identity/pkg/kernel"
)

func (c *Client) adminURL(path string) string {
	return fmt.Sprintf("%s/admin/realms/%s%s",
		strings.TrimRight(c.cfg.ServerURL, "/"), c.cfg.Realm, path)
}

// adminDo performs one admin REST round trip with the service-account token.
// Status handling is left to the caller so context-specific codes (conflict
// on create, not-found on fetch) can be applied.
func (c *Client) adminDo(ctx context.Context, method, path string, payload any) ([]byte, int, http.Header, *errx.Error) {
	endpoint := c.adminURL(path)

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, nil, ErrRegistry.NewWithCause(CodeInternal, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, 0, nil, ErrRegistry.NewWithCause(CodeInternal, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.adminHTTP.Do(req)
	if err != nil {
		return nil, 0, nil, transportError(err, endpoint)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, nil, transportError(err, endpoint)
	}
	return body, resp.StatusCode, resp.Header, nil
}

// createUser registers the account, then sets the permanent password. A
// creation status >= 400 fails hard with no password step attempted.
func (c *Client) createUser(ctx context.Context, rep userRepresentation, password string) (kernel.UserID, error) {
	body, status, header, xerr := c.adminDo(ctx, http.MethodPost, "/users", rep)
	if xerr != nil {
		return "", xerr
	}
	switch {
	case status == http.StatusConflict:
		return "", user.ErrConflict(rep.Username).WithDetail("idp_status", status)
	case status >= 400:
		return "", withWireDetails(user.ErrBadRequest("User creation rejected"), status, body, oidcErrorBody{})
	}

	id := locationTail(header.Get("Location"))
	if id == "" {
		return "", ErrRegistry.New(CodeInternal).
			WithDetail("reason", "missing Location header on user creation")
	}

	userID := kernel.UserID(id)
	if xerr := c.setPassword(ctx, userID, password); xerr != nil {
		return "", xerr
	}
	return userID, nil
}

func (c *Client) setPassword(ctx context.Context, id kernel.UserID, password string) *errx.Error {
	cred := credentialRepresentation{Type: "password", Value: password, Temporary: false}
	body, status, _, xerr := c.adminDo(ctx, http.MethodPut, "/users/"+id.String()+"/reset-password", cred)
	if xerr != nil {
		return xerr
	}
	if status >= 400 {
		return adminError(status, body)
	}
	return nil
}

// locationTail extracts the created resource ID from a Location header.
func locationTail(location string) string {
	if location == "" {
		return ""
	}
	parts := strings.Split(strings.TrimRight(location, "/"), "/")
	return parts[len(parts)-1]
}

// ─── user.Directory ──────────────────────────────────────────────────────────

// Create implements user.Directory.
func (c *Client) Create(ctx context.Context, profile user.User, password string) (kernel.UserID, error) {
	return c.createUser(ctx, toUserRepresentation(profile), password)
}

// Get implements user.Directory.
func (c *Client) Get(ctx context.Context, id kernel.UserID) (*user.User, error) {
	body, status, _, xerr := c.adminDo(ctx, http.MethodGet, "/users/"+id.String(), nil)
	if xerr != nil {
		return nil, xerr
	}
	if status == http.StatusNotFound {
		return nil, user.ErrNotFound(id)
	}
	if status >= 400 {
		return nil, adminError(status, body)
	}

	var rep userRepresentation
	if err := json.Unmarshal(body, &rep); err != nil {
		return nil, ErrRegistry.NewWithCause(CodeInternal, err).
			WithDetail("reason", "undecodable user representation")
	}
	u := rep.toUser()
	return &u, nil
}

// List implements user.Directory with the admin API's offset window.
func (c *Client) List(ctx context.Context, first, max int) ([]user.User, error) {
	path := fmt.Sprintf("/users?first=%d&max=%d", first, max)
	body, status, _, xerr := c.adminDo(ctx, http.MethodGet, path, nil)
	if xerr != nil {
		return nil, xerr
	}
	if status >= 400 {
		return nil, adminError(status, body)
	}

	var reps []userRepresentation
	if err := json.Unmarshal(body, &reps); err != nil {
		return nil, ErrRegistry.NewWithCause(CodeInternal, err).
			WithDetail("reason", "undecodable user list")
	}
	users := make([]user.User, 0, len(reps))
	for _, rep := range reps {
		users = append(users, rep.toUser())
	}
	return users, nil
}

// Count implements user.Directory. The admin API answers with a bare number.
func (c *Client) Count(ctx context.Context) (int64, error) {
	body, status, _, xerr := c.adminDo(ctx, http.MethodGet, "/users/count", nil)
	if xerr != nil {
		return 0, xerr
	}
	if status >= 400 {
		return 0, adminError(status, body)
	}

	n, err := strconv.ParseInt(strings.TrimSpace(string(body)), 10, 64)
	if err != nil {
		return 0, ErrRegistry.NewWithCause(CodeInternal, err).
			WithDetail("reason", "undecodable user count")
	}
	return n, nil
}

// Update implements user.Directory with a full representation PUT.
func (c *Client) Update(ctx context.Context, id kernel.UserID, profile user.User) error {
	body, status, _, xerr := c.adminDo(ctx, http.MethodPut, "/users/"+id.String(), toUserRepresentation(profile))
	if xerr != nil {
		return xerr
	}
	if status == http.StatusNotFound {
		return user.ErrNotFound(id)
	}
	if status >= 400 {
		return adminError(status, body)
	}
	return nil
}

// Delete implements user.Directory.
func (c *Client) Delete(ctx context.Context, id kernel.UserID) error {
	body, status, _, xerr := c.adminDo(ctx, http.MethodDelete, "/users/"+id.String(), nil)
	if xerr != nil {
		return xerr
	}
	if status == http.StatusNotFound {
		return user.ErrNotFound(id)
	}
	if status >= 400 {
		return adminError(status, body)
	}
	return nil
}

// RolesOf implements user.Directory: realm role names mapped to the account.
func (c *Client) RolesOf(ctx context.Context, id kernel.UserID) ([]string, error) {
	reps, xerr := c.userRoleMappings(ctx, id)
	if xerr != nil {
		return nil, xerr
	}
	names := make([]string, 0, len(reps))
	for _, rep := range reps {
		names = append(names, rep.Name)
	}
	return names, nil
}

// AssignRoles implements user.Directory. Every name is resolved to its role
// representation first; an unresolvable name aborts the whole assignment.
func (c *Client) AssignRoles(ctx context.Context, id kernel.UserID, names []string) error {
	if len(names) == 0 {
		return nil
	}

	reps := make([]roleRepresentation, 0, len(names))
	for _, name := range names {
		rep, xerr := c.roleByName(ctx, name)
		if xerr != nil {
			return xerr
		}
		reps = append(reps, *rep)
	}

	body, status, _, xerr := c.adminDo(ctx, http.MethodPost, "/users/"+id.String()+"/role-mappings/realm", reps)
	if xerr != nil {
		return xerr
	}
	if status == http.StatusNotFound {
		return user.ErrNotFound(id)
	}
	if status >= 400 {
		return adminError(status, body)
	}
	return nil
}

// ClearRoles implements user.Directory: removes every realm role currently
// mapped to the account.
func (c *Client) ClearRoles(ctx context.Context, id kernel.UserID) error {
	reps, xerr := c.userRoleMappings(ctx, id)
	if xerr != nil {
		return xerr
	}
	if len(reps) == 0 {
		return nil
	}

	body, status, _, xerr := c.adminDo(ctx, http.MethodDelete, "/users/"+id.String()+"/role-mappings/realm", reps)
	if xerr != nil {
		return xerr
	}
	if status >= 400 {
		return adminError(status, body)
	}
	return nil
}

func (c *Client) userRoleMappings(ctx context.Context, id kernel.UserID) ([]roleRepresentation, *errx.Error) {
	body, status, _, xerr := c.adminDo(ctx, http.MethodGet, "/users/"+id.String()+"/role-mappings/realm", nil)
	if xerr != nil {
		return nil, xerr
	}
	if status == http.StatusNotFound {
		return nil, user.ErrNotFound(id)
	}
	if status >= 400 {
		return nil, adminError(status, body)
	}

	var reps []roleRepresentation
	if err := json.Unmarshal(body, &reps); err != nil {
		return nil, ErrRegistry.NewWithCause(CodeInternal, err).
			WithDetail("reason", "undecodable role mappings")
	}
	return reps, nil
}

// ─── role.Catalog ────────────────────────────────────────────────────────────

// ListRoles implements role.Catalog over the full realm catalog.
func (c *Client) ListRoles(ctx context.Context) ([]role.Role, error) {
	return c.listRoles(ctx, "/roles")
}

// ListRolesPage implements role.Catalog with the admin API's offset window.
func (c *Client) ListRolesPage(ctx context.Context, first, max int) ([]role.Role, error) {
	return c.listRoles(ctx, fmt.Sprintf("/roles?first=%d&max=%d", first, max))
}

func (c *Client) listRoles(ctx context.Context, path string) ([]role.Role, error) {
	body, status, _, xerr := c.adminDo(ctx, http.MethodGet, path, nil)
	if xerr != nil {
		return nil, xerr
	}
	if status >= 400 {
		return nil, adminError(status, body)
	}

	var reps []roleRepresentation
	if err := json.Unmarshal(body, &reps); err != nil {
		return nil, ErrRegistry.NewWithCause(CodeInternal, err).
			WithDetail("reason", "undecodable role list")
	}
	roles := make([]role.Role, 0, len(reps))
	for _, rep := range reps {
		roles = append(roles, rep.toRole())
	}
	return roles, nil
}

// GetRoleByName implements role.Catalog.
func (c *Client) GetRoleByName(ctx context.Context, name string) (*role.Role, error) {
	rep, xerr := c.roleByName(ctx, name)
	if xerr != nil {
		return nil, xerr
	}
	r := rep.toRole()
	return &r, nil
}

func (c *Client) roleByName(ctx context.Context, name string) (*roleRepresentation, *errx.Error) {
	body, status, _, xerr := c.adminDo(ctx, http.MethodGet, "/roles/"+url.PathEscape(name), nil)
	if xerr != nil {
		return nil, xerr
	}
	if status == http.StatusNotFound {
		return nil, role.ErrNotFound(name)
	}
	if status >= 400 {
		return nil, adminError(status, body)
	}

	var rep roleRepresentation
	if err := json.Unmarshal(body, &rep); err != nil {
		return nil, ErrRegistry.NewWithCause(CodeInternal, err).
			WithDetail("reason", "undecodable role representation")
	}
	return &rep, nil
}

// EnsureRole implements role.Catalog: creates the role, tolerating one that
// already exists.
func (c *Client) EnsureRole(ctx context.Context, r role.Role) error {
	payload := roleRepresentation{Name: r.Name, Description: r.Description}
	body, status, _, xerr := c.adminDo(ctx, http.MethodPost, "/roles", payload)
	if xerr != nil {
		return xerr
	}
	if status == http.StatusConflict {
		return nil
	}
	if status >= 400 {
		return adminError(status, body)
	}
	return nil
}
