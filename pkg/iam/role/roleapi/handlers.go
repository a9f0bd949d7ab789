// Package roleapi exposes the role catalog endpoints over fiber.
package roleapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/libromesh/identity/pkg/apix"
	"github.com/libromesh/identity/pkg/iam/role/rolesrv"
)

const defaultPageSize = 10

type Handlers struct {
	svc *rolesrv.RoleService
}

func NewHandlers(svc *rolesrv.RoleService) *Handlers {
	return &Handlers{svc: svc}
}

// RegisterRoutes mounts the role endpoints under /api/v1/roles.
func (h *Handlers) RegisterRoutes(app *fiber.App) {
	grp := app.Group("/api/v1/roles")
	grp.Get("/", h.listPaged)
	grp.Get("/all", h.listAll)
	grp.Get("/:name", h.get)
}

func (h *Handlers) listPaged(c *fiber.Ctx) error {
	p := apix.PageRequest{
		Page: c.QueryInt("page", 0),
		Size: c.QueryInt("size", defaultPageSize),
	}

	page, cid, xerr := h.svc.ListPaged(c.Context(), p)
	if xerr != nil {
		return c.Status(xerr.HTTPStatus).JSON(apix.FromError(xerr, cid))
	}
	return c.JSON(apix.SuccessPaged(page, "Roles listed", cid))
}

func (h *Handlers) listAll(c *fiber.Ctx) error {
	roles, cid, xerr := h.svc.List(c.Context())
	if xerr != nil {
		return c.Status(xerr.HTTPStatus).JSON(apix.FromError(xerr, cid))
	}
	return c.JSON(apix.Success(roles, "Roles listed", cid))
}

func (h *Handlers) get(c *fiber.Ctx) error {
	found, cid, xerr := h.svc.Get(c.Context(), c.Params("name"))
	if xerr != nil {
		return c.Status(xerr.HTTPStatus).JSON(apix.FromError(xerr, cid))
	}
	return c.JSON(apix.Success(found, "Role found", cid))
}
