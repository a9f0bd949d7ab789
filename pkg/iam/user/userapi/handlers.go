// Package userapi exposes the user administration endpoints over fiber.
package userapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/libromesh/identity/pkg/apix"
	"github.com/libromesh/identity/pkg/iam"
	"github.com/libromesh/identity/pkg/iam/user"
	"github.com/libromesh/identity/pkg/iam/user/usersrv"
	"github.com/libromesh/identity/pkg/kernel"
)

const defaultPageSize = 10

type Handlers struct {
	svc *usersrv.UserService
}

func NewHandlers(svc *usersrv.UserService) *Handlers {
	return &Handlers{svc: svc}
}

// RegisterRoutes mounts the user admin endpoints under /api/v1/users.
func (h *Handlers) RegisterRoutes(app *fiber.App) {
	grp := app.Group("/api/v1/users")
	grp.Post("/", h.create)
	grp.Get("/", h.listPaged)
	grp.Get("/all", h.listAll)
	grp.Get("/:id", h.get)
	grp.Put("/:id", h.update)
	grp.Delete("/:id", h.delete)
}

func (h *Handlers) create(c *fiber.Ctx) error {
	var req user.CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	created, cid, xerr := h.svc.Create(c.Context(), req)
	if xerr != nil {
		return c.Status(xerr.HTTPStatus).JSON(apix.FromError(xerr, cid))
	}
	return c.Status(fiber.StatusCreated).JSON(apix.Success(created, "User created", cid))
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
	return c.JSON(apix.SuccessPaged(page, "Users listed", cid))
}

func (h *Handlers) listAll(c *fiber.Ctx) error {
	users, cid, xerr := h.svc.List(c.Context())
	if xerr != nil {
		return c.Status(xerr.HTTPStatus).JSON(apix.FromError(xerr, cid))
	}
	return c.JSON(apix.Success(users, "Users listed", cid))
}

func (h *Handlers) get(c *fiber.Ctx) error {
	id := kernel.NewUserID(c.Params("id"))

	found, cid, xerr := h.svc.Get(c.Context(), id)
	if xerr != nil {
		return c.Status(xerr.HTTPStatus).JSON(apix.FromError(xerr, cid))
	}
	return c.JSON(apix.Success(found, "User found", cid))
}

func (h *Handlers) update(c *fiber.Ctx) error {
	var req user.UpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	id := kernel.NewUserID(c.Params("id"))

	updated, cid, xerr := h.svc.Update(c.Context(), id, req)
	if xerr != nil {
		return c.Status(xerr.HTTPStatus).JSON(apix.FromError(xerr, cid))
	}
	return c.JSON(apix.Success(updated, "User updated", cid))
}

func (h *Handlers) delete(c *fiber.Ctx) error {
	id := kernel.NewUserID(c.Params("id"))

	cid, xerr := h.svc.Delete(c.Context(), id)
	if xerr != nil {
		return c.Status(xerr.HTTPStatus).JSON(apix.FromError(xerr, cid))
	}
	return c.JSON(apix.Success(nil, "User deleted", cid))
}

func badBody(c *fiber.Ctx) error {
	xerr := iam.Validation("Request body is not valid JSON")
	cid := kernel.CorrelationID(uuid.NewString())
	return c.Status(xerr.HTTPStatus).JSON(apix.FromError(xerr, cid))
}
