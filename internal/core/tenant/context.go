// Package tenant carries the calling tenant through request contexts.
// All counters are stored in one database and scoped by a tenant_id column.
package tenant

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

type ctxKey struct{}

// WithID stores tenant ID in context.
func WithID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, tenantID)
}

// GetID returns tenant ID or empty string.
func GetID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// MustGetID retrieves tenant ID or panics.
// Use in places where a missing tenant is a programming error (missing middleware).
func MustGetID(ctx context.Context) string {
	id := GetID(ctx)
	if id == "" {
		panic(ErrNoTenantInContext.Error())
	}
	return id
}

// ParseID normalizes a raw tenant identifier (UUID, any case) into canonical form.
func ParseID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrTenantRequired
	}
	u, err := uuid.Parse(raw)
	if err != nil {
		return "", ErrInvalidTenantID
	}
	return u.String(), nil
}
