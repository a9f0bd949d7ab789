// Package iam groups the identity bounded context: authentication against the
// IdP, user administration, and the realm role catalog. Each sub-package owns
// its domain types and error registry; wiring lives in iamcontainer.
package iam

import (
	"net/http"

	"github.com/libromesh/identity/pkg/errx"
)

// Validation builds the shared field-level validation error. Field messages
// are attached by the caller via WithValidationError before any network call
// is made.
func Validation(message string) *errx.Error {
	return &errx.Error{
		Code:       "VALIDATION_ERROR",
		Message:    message,
		Type:       errx.TypeValidation,
		HTTPStatus: http.StatusBadRequest,
		Details:    make(map[string]interface{}),
	}
}
