package sqlite

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/sqlscan"

	"brewops/internal/core/apperror"
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

// SubScopeCode returns the code of an active warehouse, or NOT_FOUND.
// Ids are compared in canonical form, as stored by AddWarehouse.
func (d *WarehouseDirectory) SubScopeCode(ctx context.Context, tenantID, subScopeID string) (string, error) {
	sql, args, err := squirrel.Select("code").
		From("cat_warehouses").
		Where(squirrel.Eq{"id": numerator.NormalizeSubScopeID(subScopeID), "tenant_id": tenantID, "deletion_mark": false}).
		Limit(1).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build query: %w", err)
	}

	var code string
	if err := sqlscan.Get(ctx, d.txm.GetQuerier(ctx), &code, sql, args...); err != nil {
		if sqlscan.NotFound(err) {
			return "", apperror.NewNotFound("warehouse", subScopeID)
		}
		return "", apperror.NewDatabase("get warehouse code", err)
	}
	return code, nil
}

// AddWarehouse registers a warehouse. Used by the CLI and tests to populate the registry.
func (d *WarehouseDirectory) AddWarehouse(ctx context.Context, tenantID, warehouseID, code, name string) error {
	sql, args, err := squirrel.Insert("cat_warehouses").
		Columns("id", "tenant_id", "code", "name").
		Values(numerator.NormalizeSubScopeID(warehouseID), tenantID, code, name).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := d.txm.GetQuerier(ctx).ExecContext(ctx, sql, args...); err != nil {
		return apperror.NewDatabase("insert warehouse", err)
	}
	return nil
}
