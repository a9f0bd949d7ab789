// Package user holds the user-administration domain: account identities,
// create/update DTOs with partial-update semantics, page-window validation,
// and the USER error registry.
package user

import (
	"net/http"
	"time"

	"github.com/libromesh/identity/pkg/errx"
	"github.com/libromesh/identity/pkg/iam"
	"github.com/libromesh/identity/pkg/kernel"
	"github.com/libromesh/identity/pkg/ptrx"
)

// Error Registry
var ErrRegistry = errx.NewRegistry("USER")

var (
	CodeNotFound   = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "User not found")
	CodeConflict   = ErrRegistry.Register("CONFLICT", errx.TypeConflict, http.StatusConflict, "User already exists")
	CodeBadRequest = ErrRegistry.Register("BAD_REQUEST", errx.TypeValidation, http.StatusBadRequest, "Invalid user request")
)

// Helper functions for common errors
func ErrNotFound(id kernel.UserID) *errx.Error {
	return ErrRegistry.New(CodeNotFound).WithDetail("user_id", id.String())
}

func ErrConflict(username string) *errx.Error {
	return ErrRegistry.New(CodeConflict).WithDetail("username", username)
}

func ErrBadRequest(message string) *errx.Error {
	return ErrRegistry.NewWithMessage(CodeBadRequest, message)
}

// User is the broker's view of an IdP account. Roles carries realm role names
// and is resolved separately from the account representation.
type User struct {
	ID            kernel.UserID `json:"id"`
	Username      string        `json:"username"`
	Email         string        `json:"email"`
	FirstName     string        `json:"first_name"`
	LastName      string        `json:"last_name"`
	Enabled       bool          `json:"enabled"`
	EmailVerified bool          `json:"email_verified"`
	CreatedAt     time.Time     `json:"created_at"`
	Roles         []string      `json:"roles"`
}

// CreateRequest is the admin create payload. Roles are resolved by name and
// assigned after the account exists.
type CreateRequest struct {
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Password  string   `json:"password"`
	Enabled   *bool    `json:"enabled"`
	Roles     []string `json:"roles"`
}

// Validate checks the required create fields before any IdP call.
func (r CreateRequest) Validate() *errx.Error {
	verr := iam.Validation("Invalid user payload")
	if r.Username == "" {
		verr.WithValidationError("username", "username is required")
	}
	if r.Email == "" {
		verr.WithValidationError("email", "email is required")
	}
	if r.Password == "" {
		verr.WithValidationError("password", "password is required")
	}
	if len(verr.ValidationErrors) > 0 {
		return verr
	}
	return nil
}

// UpdateRequest is the partial-update payload: a nil field means "leave
// unchanged"; a nil Roles slice leaves the role set untouched while an empty
// one clears it.
type UpdateRequest struct {
	Email     *string  `json:"email"`
	FirstName *string  `json:"first_name"`
	LastName  *string  `json:"last_name"`
	Enabled   *bool    `json:"enabled"`
	Roles     []string `json:"roles"`
}

// Apply merges the request onto the current account state.
func (r UpdateRequest) Apply(current User) User {
	current.Email = ptrx.ValueOr(r.Email, current.Email)
	current.FirstName = ptrx.ValueOr(r.FirstName, current.FirstName)
	current.LastName = ptrx.ValueOr(r.LastName, current.LastName)
	current.Enabled = ptrx.BoolValueOr(r.Enabled, current.Enabled)
	return current
}

