package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"brewops/internal/core/apperror"
	"brewops/internal/core/id"
	"brewops/internal/core/numerator"
)

// Compile-time check that WarehouseDirectory implements numerator.Directory.
var _ numerator.Directory = (*WarehouseDirectory)(nil)

// WarehouseDirectory resolves warehouse ids to their codes from cat_warehouses.
type WarehouseDirectory struct {
	txm *TxManager
}

// NewWarehouseDirectory creates a directory reading through txm.
func NewWarehouseDirectory(txm *TxManager) *WarehouseDirectory {
	return &WarehouseDirectory{txm: txm}
}

// SubScopeCode returns the code of an active warehouse.
// Unknown, deleted or malformed ids yield an apperror NOT_FOUND.
func (d *WarehouseDirectory) SubScopeCode(ctx context.Context, tenantID, subScopeID string) (string, error) {
	warehouseID, err := id.Parse(subScopeID)
	if err != nil {
		return "", apperror.NewNotFound("warehouse", subScopeID)
	}

	q := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select("code").
		From("cat_warehouses").
		Where(squirrel.Eq{"id": warehouseID, "tenant_id": tenantID, "deletion_mark": false}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return "", fmt.Errorf("build query: %w", err)
	}

	var code string
	if err := pgxscan.Get(ctx, d.txm.GetQuerier(ctx), &code, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return "", apperror.NewNotFound("warehouse", subScopeID)
		}
		return "", apperror.NewDatabase("get warehouse code", err)
	}
	return code, nil
}

// AddWarehouse registers a warehouse. Used by the CLI to populate the registry.
func (d *WarehouseDirectory) AddWarehouse(ctx context.Context, tenantID, warehouseID, code, name string) error {
	parsed, err := id.Parse(warehouseID)
	if err != nil {
		return apperror.NewValidation("invalid warehouse id").WithDetail("id", warehouseID)
	}

	sql, args, err := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Insert("cat_warehouses").
		Columns("id", "tenant_id", "code", "name").
		Values(parsed, tenantID, code, name).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := d.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return apperror.NewDatabase("insert warehouse", err)
	}
	return nil
}
