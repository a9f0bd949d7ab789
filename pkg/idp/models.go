package idp

import (
	"time"

	"github.com/libromesh/identity/pkg/iam/auth"
	"github.com/libromesh/identity/pkg/iam/role"
	"github.com/libromesh/identity/pkg/iam/user"
	"github.com/libromesh/identity/pkg/kernel"
)

// tokenResponse is the IdP token endpoint payload, field names verbatim from
// the wire (note the hyphenated not-before-policy).
type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int64  `json:"expires_in"`
	RefreshExpiresIn int64  `json:"refresh_expires_in"`
	RefreshToken     string `json:"refresh_token"`
	TokenType        string `json:"token_type"`
	NotBeforePolicy  int64  `json:"not-before-policy"`
	SessionState     string `json:"session_state"`
	Scope            string `json:"scope"`
}

func (t tokenResponse) toTokenSet() *auth.TokenSet {
	return &auth.TokenSet{
		AccessToken:      t.AccessToken,
		RefreshToken:     t.RefreshToken,
		TokenType:        t.TokenType,
		ExpiresIn:        t.ExpiresIn,
		RefreshExpiresIn: t.RefreshExpiresIn,
		Scope:            t.Scope,
		SessionState:     t.SessionState,
		IssuedAt:         time.Now(),
	}
}

// userRepresentation is the admin REST account shape.
type userRepresentation struct {
	ID               string `json:"id,omitempty"`
	Username         string `json:"username"`
	Email            string `json:"email"`
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	Enabled          bool   `json:"enabled"`
	EmailVerified    bool   `json:"emailVerified"`
	CreatedTimestamp int64  `json:"createdTimestamp,omitempty"`
}

func (u userRepresentation) toUser() user.User {
	created := time.Time{}
	if u.CreatedTimestamp > 0 {
		created = time.UnixMilli(u.CreatedTimestamp)
	}
	return user.User{
		ID:            kernel.UserID(u.ID),
		Username:      u.Username,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Enabled:       u.Enabled,
		EmailVerified: u.EmailVerified,
		CreatedAt:     created,
	}
}

func toUserRepresentation(u user.User) userRepresentation {
	return userRepresentation{
		ID:            u.ID.String(),
		Username:      u.Username,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Enabled:       u.Enabled,
		EmailVerified: u.EmailVerified,
	}
}

// credentialRepresentation is the reset-password payload. Temporary stays
// false: brokered accounts get permanent passwords.
type credentialRepresentation struct {
	Type      string `json:"type"`
	Value     string `json:"value"`
	Temporary bool   `json:"temporary"`
}

// roleRepresentation is the admin REST realm role shape.
type roleRepresentation struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Composite   bool   `json:"composite"`
	ClientRole  bool   `json:"clientRole"`
	ContainerID string `json:"containerId,omitempty"`
}

func (r roleRepresentation) toRole() role.Role {
	return role.Role{
		ID:          kernel.RoleID(r.ID),
		Name:        r.Name,
		Description: r.Description,
		Composite:   r.Composite,
		ClientRole:  r.ClientRole,
		ContainerID: r.ContainerID,
	}
}
