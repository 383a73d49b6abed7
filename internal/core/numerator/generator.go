package numerator

import (
	"context"

	"brewops/internal/core/id"
)

// Generator issues formatted sequential identifiers.
// This is the contract business modules (batches, orders, stock documents) depend on.
type Generator interface {
	// NextNumber issues the next identifier for (tenantID, entity, subScopeID).
	// subScopeID may be empty. Errors are apperror.AppError with code NOT_FOUND,
	// VALIDATION_ERROR or an infrastructure code.
	NextNumber(ctx context.Context, tenantID, entity, subScopeID string) (string, error)
}

// Repository defines persistence for counter definitions.
//
// Implementations obtain their transaction from ctx (see tx.Manager), so GetForUpdate
// and SaveNumber must be called inside RunInTransaction of the same store's manager.
type Repository interface {
	// Find returns the row for exactly key, without sub-scope fallback.
	// Returns an apperror NOT_FOUND when absent.
	Find(ctx context.Context, key Key) (*Counter, error)

	// InsertIfAbsent inserts c unless a row with the same key exists.
	// Reports whether this call created the row; losing a concurrent race is not an error.
	InsertIfAbsent(ctx context.Context, c *Counter) (bool, error)

	// GetForUpdate loads a row and holds its lock until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, tenantID string, counterID id.ID) (*Counter, error)

	// SaveNumber persists CurrentNumber and UpdatedAt of a locked row.
	SaveNumber(ctx context.Context, c *Counter) error

	// Get retrieves a row by ID.
	Get(ctx context.Context, tenantID string, counterID id.ID) (*Counter, error)

	// List returns all rows of a tenant ordered by entity, tenant-wide rows first.
	List(ctx context.Context, tenantID string) ([]*Counter, error)

	// UpdateSettings overwrites the formatting settings of a row. CurrentNumber is never touched.
	UpdateSettings(ctx context.Context, tenantID string, counterID id.ID, s Settings) (*Counter, error)
}

// Directory resolves sub-scopes (warehouses) to the external code used in their prefixes.
type Directory interface {
	SubScopeCode(ctx context.Context, tenantID, subScopeID string) (string, error)
}
