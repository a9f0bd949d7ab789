package role

import "context"

// Catalog is the outbound port to the IdP realm role API.
type Catalog interface {
	ListRoles(ctx context.Context) ([]Role, error)
	ListRolesPage(ctx context.Context, first, max int) ([]Role, error)
	GetRoleByName(ctx context.Context, name string) (*Role, error)

	// EnsureRole creates the role if it does not exist yet. Used by startup
	// seeding only.
	EnsureRole(ctx context.Context, r Role) error
}
