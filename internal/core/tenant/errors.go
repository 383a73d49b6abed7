package tenant

import "errors"

var (
	// ErrNoTenantInContext is returned when a request context carries no tenant.
	ErrNoTenantInContext = errors.New("tenant not found in context")

	// ErrTenantRequired is returned when the tenant identifier is empty.
	ErrTenantRequired = errors.New("tenant is required")

	// ErrInvalidTenantID is returned when the tenant identifier is not a UUID.
	ErrInvalidTenantID = errors.New("invalid tenant id")
)
