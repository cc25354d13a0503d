package services

import "fmt"

// Error slugs for expected outcomes. Handlers map these to HTTP statuses;
// services never reach for fiber directly on the error path.
const (
	ErrSlugValidation = "validation"
	ErrSlugNotFound   = "not_found"
	ErrSlugForbidden  = "forbidden"
	ErrSlugUpstream   = "upstream_unavailable"
	ErrSlugInternal   = "internal"
)

// ApiError is an expected, typed outcome surfaced to the caller.
type ApiError struct {
	Slug    string `json:"slug"`
	Message string `json:"message"`
}

func (e *ApiError) Error() string {
	return fmt.Sprintf("%s: %s", e.Slug, e.Message)
}

func NewApiError(slug, message string) *ApiError {
	return &ApiError{Slug: slug, Message: message}
}

// SlugOf returns the ApiError slug, or "internal" for unexpected errors.
func SlugOf(err error) string {
	if apiErr, ok := err.(*ApiError); ok {
		return apiErr.Slug
	}
	return ErrSlugInternal
}
