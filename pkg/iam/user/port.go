package user

import (
	"context"

	"github.com/libromesh/identity/pkg/kernel"
)

// Directory is the outbound port to the IdP admin user API. Role name
// resolution happens inside AssignRoles; an unresolvable name is a client
// error, never a silent skip.
type Directory interface {
	// Create registers the account then sets a permanent password. A creation
	// status >= 400 fails hard with no password step attempted.
	Create(ctx context.Context, profile User, password string) (kernel.UserID, error)

	Get(ctx context.Context, id kernel.UserID) (*User, error)
	List(ctx context.Context, first, max int) ([]User, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, id kernel.UserID, profile User) error
	Delete(ctx context.Context, id kernel.UserID) error

	RolesOf(ctx context.Context, id kernel.UserID) ([]string, error)
	AssignRoles(ctx context.Context, id kernel.UserID, names []string) error
	ClearRoles(ctx context.Context, id kernel.UserID) error
}
