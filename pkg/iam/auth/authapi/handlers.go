// Package authapi exposes the authentication endpoints over fiber.
package authapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/libromesh/identity/pkg/apix"
	"github.com/libromesh/identity/pkg/iam"
	"github.com/libromesh/identity/pkg/iam/auth"
	"github.com/libromesh/identity/pkg/iam/auth/authsrv"
	"github.com/libromesh/identity/pkg/kernel"
)

type Handlers struct {
	svc *authsrv.AuthService
}

func NewHandlers(svc *authsrv.AuthService) *Handlers {
	return &Handlers{svc: svc}
}

// RegisterRoutes mounts the auth endpoints: /auth/login, /auth/refresh,
// /auth/logout, /auth/me, /auth/register.
func (h *Handlers) RegisterRoutes(app *fiber.App) {
	grp := app.Group("/auth")
	grp.Post("/login", h.login)
	grp.Post("/refresh", h.refresh)
	grp.Post("/logout", h.logout)
	grp.Get("/me", h.me)
	grp.Post("/register", h.register)
}

func (h *Handlers) login(c *fiber.Ctx) error {
	var req auth.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	tokens, cid, xerr := h.svc.Login(c.Context(), req, c.IP())
	if xerr != nil {
		return c.Status(xerr.HTTPStatus).JSON(apix.FromError(xerr, cid))
	}
	return c.JSON(apix.Success(tokens, "Login successful", cid))
}

func (h *Handlers) refresh(c *fiber.Ctx) error {
	var req auth.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	tokens, cid, xerr := h.svc.Refresh(c.Context(), req)
	if xerr != nil {
		return c.Status(xerr.HTTPStatus).JSON(apix.FromError(xerr, cid))
	}
	return c.JSON(apix.Success(tokens, "Token refreshed", cid))
}

func (h *Handlers) logout(c *fiber.Ctx) error {
	var req auth.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	cid, xerr := h.svc.Logout(c.Context(), req)
	if xerr != nil {
		return c.Status(xerr.HTTPStatus).JSON(apix.FromError(xerr, cid))
	}
	return c.JSON(apix.Success(nil, "Logout successful", cid))
}

func (h *Handlers) me(c *fiber.Ctx) error {
	identity, cid, xerr := h.svc.WhoAmI(c.Context(), c.Get(fiber.HeaderAuthorization))
	if xerr != nil {
		return c.Status(xerr.HTTPStatus).JSON(apix.FromError(xerr, cid))
	}
	return c.JSON(apix.Success(identity, "Identity resolved", cid))
}

func (h *Handlers) register(c *fiber.Ctx) error {
	var req auth.NewAccount
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	reg, cid, xerr := h.svc.Register(c.Context(), req)
	if xerr != nil {
		return c.Status(xerr.HTTPStatus).JSON(apix.FromError(xerr, cid))
	}
	return c.Status(fiber.StatusCreated).JSON(apix.Success(reg, "Account registered", cid))
}

// badBody rejects an unparseable request body before any traced operation
// starts, with a one-off correlation ID for the envelope.
func badBody(c *fiber.Ctx) error {
	xerr := iam.Validation("Request body is not valid JSON")
	cid := kernel.CorrelationID(uuid.NewString())
	return c.Status(xerr.HTTPStatus).JSON(apix.FromError(xerr, cid))
}
