package numbering

import (
	"context"

	"brewops/internal/core/apperror"
	"brewops/internal/core/numerator"
)

// Resolver picks the counter row that governs a request.
// Nothing is cached: every call reads the store again.
type Resolver struct {
	repo numerator.Repository
}

// NewResolver creates a resolver over repo.
func NewResolver(repo numerator.Repository) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve returns the sub-scope row for key when it exists, otherwise the tenant-wide row.
// Returns an apperror NOT_FOUND when neither exists.
func (r *Resolver) Resolve(ctx context.Context, key numerator.Key) (*numerator.Counter, error) {
	if key.HasSubScope() {
		c, err := r.repo.Find(ctx, key)
		if err == nil {
			return c, nil
		}
		if !apperror.IsNotFound(err) {
			return nil, err
		}
	}
	return r.repo.Find(ctx, key.Global())
}
