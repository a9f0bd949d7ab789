// Package rolesrv exposes the realm role catalog: full and paged listings,
// plus the opt-in startup seeding of the library's default roles.
package rolesrv

import (
	"context"

	"github.com/libromesh/identity/pkg/apix"
	"github.com/libromesh/identity/pkg/asyncx"
	"github.com/libromesh/identity/pkg/errx"
	"github.com/libromesh/identity/pkg/iam/role"
	"github.com/libromesh/identity/pkg/kernel"
	"github.com/libromesh/identity/pkg/logx"
	"github.com/libromesh/identity/pkg/tracex"
)

type RoleService struct {
	catalog role.Catalog
}

func NewRoleService(catalog role.Catalog) *RoleService {
	return &RoleService{catalog: catalog}
}

// List returns the whole realm catalog.
func (s *RoleService) List(ctx context.Context) ([]role.Role, kernel.CorrelationID, *errx.Error) {
	return tracex.Execute(ctx, "role.list_all", "", func(ctx context.Context) ([]role.Role, error) {
		return s.catalog.ListRoles(ctx)
	})
}

// ListPaged returns one catalog window plus totals. The admin API has no role
// count endpoint, so the total comes from the full listing, fetched
// concurrently with the page.
func (s *RoleService) ListPaged(ctx context.Context, p apix.PageRequest) (apix.Page[role.Role], kernel.CorrelationID, *errx.Error) {
	return tracex.Execute(ctx, "role.list", "", func(ctx context.Context) (apix.Page[role.Role], error) {
		var zero apix.Page[role.Role]

		if xerr := p.Validate(); xerr != nil {
			return zero, xerr
		}

		pageF := asyncx.Run(func() ([]role.Role, error) {
			return s.catalog.ListRolesPage(ctx, p.Offset(), p.Size)
		})
		allF := asyncx.Run(func() ([]role.Role, error) {
			return s.catalog.ListRoles(ctx)
		})

		page, err := pageF.Await()
		if err != nil {
			return zero, err
		}
		all, err := allF.Await()
		if err != nil {
			return zero, err
		}

		return apix.NewPage(page, int64(len(all)), p.Page, p.Size), nil
	})
}

// Get resolves one role by name.
func (s *RoleService) Get(ctx context.Context, name string) (*role.Role, kernel.CorrelationID, *errx.Error) {
	return tracex.Execute(ctx, "role.get", name, func(ctx context.Context) (*role.Role, error) {
		if name == "" {
			return nil, role.ErrBadRequest("Role name is required")
		}
		return s.catalog.GetRoleByName(ctx, name)
	})
}

// Seed creates the default library roles that do not exist yet. Intended for
// startup when seeding is enabled; existing roles are never modified.
func (s *RoleService) Seed(ctx context.Context) error {
	for _, r := range role.SeedRoles {
		if err := s.catalog.EnsureRole(ctx, r); err != nil {
			return err
		}
		logx.WithField("role", r.Name).Debug("Seeded realm role")
	}
	logx.Infof("Role catalog seeded (%d roles ensured)", len(role.SeedRoles))
	return nil
}
