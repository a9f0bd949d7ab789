// Package role holds the realm role catalog domain and the ROLE error
// registry. The catalog is read-only from the broker's perspective except for
// the opt-in startup seeding.
package role

import (
	"net/http"

	"github.com/libromesh/identity/pkg/errx"
	"github.com/libromesh/identity/pkg/kernel"
)

// Error Registry
var ErrRegistry = errx.NewRegistry("ROLE")

var (
	CodeNotFound   = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Role not found")
	CodeBadRequest = ErrRegistry.Register("BAD_REQUEST", errx.TypeValidation, http.StatusBadRequest, "Invalid role request")
)

// Helper functions for common errors
func ErrNotFound(name string) *errx.Error {
	return ErrRegistry.New(CodeNotFound).WithDetail("role_name", name)
}

func ErrBadRequest(message string) *errx.Error {
	return ErrRegistry.NewWithMessage(CodeBadRequest, message)
}

// Role is the flat projection of a realm role.
type Role struct {
	ID          kernel.RoleID `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Composite   bool          `json:"composite"`
	ClientRole  bool          `json:"client_role"`
	ContainerID string        `json:"container_id"`
}

// SeedRoles is the library platform's default role catalog, created at
// startup when seeding is enabled. Existing roles are left untouched.
var SeedRoles = []Role{
	{Name: "SUPER_ADMIN", Description: "Full system administrator with complete access"},
	{Name: "LIBRARY_MANAGER", Description: "Library manager with administrative privileges"},
	{Name: "LIBRARIAN", Description: "Professional librarian with full library services access"},
	{Name: "CIRCULATION_STAFF", Description: "Staff handling check-out/check-in operations"},
	{Name: "CATALOGER", Description: "Staff responsible for cataloging and metadata management"},
	{Name: "REFERENCE_LIBRARIAN", Description: "Specialist providing research and reference services"},
	{Name: "ACQUISITIONS_LIBRARIAN", Description: "Staff managing collection development and purchases"},
	{Name: "SYSTEMS_ADMIN", Description: "Technical administrator for library systems"},
	{Name: "PATRON", Description: "Regular library user with borrowing privileges"},
	{Name: "GUEST", Description: "Limited access user for basic services"},
}
