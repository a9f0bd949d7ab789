// Package apix defines the uniform response envelope every endpoint returns:
// success/error wrapper, pagination metadata, and the correlation ID that ties
// a response back to its trace log lines.
package apix

import (
	"time"

	"github.com/libromesh/identity/pkg/errx"
	"github.com/libromesh/identity/pkg/kernel"
)

// Response is the outward envelope attached at the boundary after the
// services return.
type Response struct {
	Success       bool          `json:"success"`
	Message       string        `json:"message"`
	Data          any           `json:"data,omitempty"`
	Error         *ErrorDetails `json:"error,omitempty"`
	Pagination    *Pagination   `json:"pagination,omitempty"`
	CorrelationID string        `json:"correlation_id,omitempty"`
	Timestamp     time.Time     `json:"timestamp"`
}

// ErrorDetails carries the stable machine-readable error payload. Provider
// internals never appear here — they live in log output only.
type ErrorDetails struct {
	Code             string            `json:"code"`
	Message          string            `json:"message"`
	Details          any               `json:"details,omitempty"`
	ValidationErrors map[string]string `json:"validation_errors,omitempty"`
}

// Pagination describes the page window of a paged response.
type Pagination struct {
	TotalElements int64 `json:"total_elements"`
	TotalPages    int   `json:"total_pages"`
	CurrentPage   int   `json:"current_page"`
	PageSize      int   `json:"page_size"`
}

// NewPagination computes totalPages = ceil(totalElements/pageSize).
func NewPagination(totalElements int64, page, size int) *Pagination {
	pages := 0
	if size > 0 {
		pages = int((totalElements + int64(size) - 1) / int64(size))
	}
	return &Pagination{
		TotalElements: totalElements,
		TotalPages:    pages,
		CurrentPage:   page,
		PageSize:      size,
	}
}

// PageRequest is a requested page window.
type PageRequest struct {
	Page int `json:"page"`
	Size int `json:"size"`
}

// Validate enforces page >= 0 and 1 <= size <= 100. It runs before any IdP
// call so an invalid window never costs a network round trip.
func (p PageRequest) Validate() *errx.Error {
	verr := &errx.Error{
		Code:       "VALIDATION_ERROR",
		Message:    "Invalid pagination parameters",
		Type:       errx.TypeValidation,
		HTTPStatus: 400,
		Details:    make(map[string]interface{}),
	}
	if p.Page < 0 {
		verr.WithValidationError("page", "page must be >= 0")
	}
	if p.Size < 1 || p.Size > 100 {
		verr.WithValidationError("size", "size must be between 1 and 100")
	}
	if len(verr.ValidationErrors) > 0 {
		return verr
	}
	return nil
}

// Offset returns the provider offset (first = page*size).
func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// Page is the service-level paged result: an ordered content window plus the
// counts needed to render Pagination.
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalElements int64 `json:"total_elements"`
	TotalPages    int   `json:"total_pages"`
	CurrentPage   int   `json:"current_page"`
	PageSize      int   `json:"page_size"`
}

// NewPage builds a Page with the ceiling-division page count.
func NewPage[T any](content []T, totalElements int64, page, size int) Page[T] {
	p := NewPagination(totalElements, page, size)
	return Page[T]{
		Content:       content,
		TotalElements: totalElements,
		TotalPages:    p.TotalPages,
		CurrentPage:   page,
		PageSize:      size,
	}
}

// Success wraps data in a successful envelope.
func Success(data any, message string, correlationID kernel.CorrelationID) Response {
	return Response{
		Success:       true,
		Message:       message,
		Data:          data,
		CorrelationID: correlationID.String(),
		Timestamp:     time.Now(),
	}
}

// SuccessPaged wraps a service Page in a successful envelope with pagination
// metadata at the top level.
func SuccessPaged[T any](page Page[T], message string, correlationID kernel.CorrelationID) Response {
	return Response{
		Success: true,
		Message: message,
		Data:    page.Content,
		Pagination: &Pagination{
			TotalElements: page.TotalElements,
			TotalPages:    page.TotalPages,
			CurrentPage:   page.CurrentPage,
			PageSize:      page.PageSize,
		},
		CorrelationID: correlationID.String(),
		Timestamp:     time.Now(),
	}
}

// FromError renders an errx.Error into the envelope. Details are stripped to
// the validation map; everything else stays in logs.
func FromError(err *errx.Error, correlationID kernel.CorrelationID) Response {
	return Response{
		Success: false,
		Message: "Operation failed",
		Error: &ErrorDetails{
			Code:             err.Code,
			Message:          err.Message,
			ValidationErrors: err.ValidationErrors,
		},
		CorrelationID: correlationID.String(),
		Timestamp:     time.Now(),
	}
}
