package sqlite

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/sqlscan"

	"brewops/internal/core/apperror"
	"brewops/internal/core/id"
	"brewops/internal/core/numerator"
	"brewops/internal/infrastructure/storage"
)

const countersTable = "sys_counters"

// selectColumns reads the empty-string sentinel back as a NULL sub-scope.
var selectColumns = func() []string {
	cols := storage.Columns[numerator.Counter]()
	for i, c := range cols {
		if c == "sub_scope_id" {
			cols[i] = "NULLIF(sub_scope_id, '') AS sub_scope_id"
		}
	}
	return cols
}()

// Compile-time check that CounterRepo implements numerator.Repository.
var _ numerator.Repository = (*CounterRepo)(nil)

// CounterRepo stores counter definitions in an SQLite database.
type CounterRepo struct {
	txm *TxManager
}

// NewCounterRepo creates a counter repository on top of txm.
func NewCounterRepo(txm *TxManager) *CounterRepo {
	return &CounterRepo{txm: txm}
}

func (r *CounterRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)
}

func (r *CounterRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder().Select(selectColumns...).From(countersTable)
}

// Find returns the row for exactly key.
func (r *CounterRepo) Find(ctx context.Context, key numerator.Key) (*numerator.Counter, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{
			"tenant_id":    key.TenantID,
			"entity":       key.Entity,
			"sub_scope_id": key.SubScopeID,
		}).
		Limit(1)

	return r.getOne(ctx, q, key.String())
}

// InsertIfAbsent inserts c unless its (tenant, entity, sub-scope) already exists.
func (r *CounterRepo) InsertIfAbsent(ctx context.Context, c *numerator.Counter) (bool, error) {
	values := storage.ValueMap(c)
	values["sub_scope_id"] = c.Key().SubScopeID

	q := r.builder().
		Insert(countersTable).
		SetMap(values).
		Suffix("ON CONFLICT (tenant_id, entity, sub_scope_id) DO NOTHING")

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build insert: %w", err)
	}

	res, err := r.txm.GetQuerier(ctx).ExecContext(ctx, sql, args...)
	if err != nil {
		return false, apperror.NewDatabase("insert counter", err).WithDetail("counter", c.Key().String())
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperror.NewDatabase("insert counter", err)
	}
	return n == 1, nil
}

// GetForUpdate loads a row inside a transaction. The IMMEDIATE transaction
// already holds the database write lock, so no row clause is needed.
func (r *CounterRepo) GetForUpdate(ctx context.Context, tenantID string, counterID id.ID) (*numerator.Counter, error) {
	if r.txm.GetTx(ctx) == nil {
		return nil, ErrNoTransaction
	}
	return r.Get(ctx, tenantID, counterID)
}

// SaveNumber writes current_number and updated_at of a locked row.
func (r *CounterRepo) SaveNumber(ctx context.Context, c *numerator.Counter) error {
	if r.txm.GetTx(ctx) == nil {
		return ErrNoTransaction
	}

	q := r.builder().
		Update(countersTable).
		Set("current_number", c.CurrentNumber).
		Set("updated_at", c.UpdatedAt).
		Where(squirrel.Eq{"id": c.ID, "tenant_id": c.TenantID})

	return r.execOne(ctx, q, "save counter number", c.ID)
}

// Get retrieves a row by ID.
func (r *CounterRepo) Get(ctx context.Context, tenantID string, counterID id.ID) (*numerator.Counter, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"id": counterID, "tenant_id": tenantID}).
		Limit(1)

	return r.getOne(ctx, q, counterID.String())
}

// List returns all rows of a tenant, tenant-wide rows before sub-scope rows.
func (r *CounterRepo) List(ctx context.Context, tenantID string) ([]*numerator.Counter, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"tenant_id": tenantID}).
		OrderBy("entity", countersTable+".sub_scope_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var counters []*numerator.Counter
	if err := sqlscan.Select(ctx, r.txm.GetQuerier(ctx), &counters, sql, args...); err != nil {
		return nil, apperror.NewDatabase("list counters", err)
	}
	return counters, nil
}

// UpdateSettings overwrites the formatting columns and returns the updated row.
func (r *CounterRepo) UpdateSettings(ctx context.Context, tenantID string, counterID id.ID, s numerator.Settings) (*numerator.Counter, error) {
	q := r.builder().
		Update(countersTable).
		SetMap(storage.ValueMap(s)).
		Where(squirrel.Eq{"id": counterID, "tenant_id": tenantID})

	if err := r.execOne(ctx, q, "update counter settings", counterID); err != nil {
		return nil, err
	}
	return r.Get(ctx, tenantID, counterID)
}

func (r *CounterRepo) execOne(ctx context.Context, q squirrel.UpdateBuilder, op string, counterID id.ID) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	res, err := r.txm.GetQuerier(ctx).ExecContext(ctx, sql, args...)
	if err != nil {
		return apperror.NewDatabase(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperror.NewDatabase(op, err)
	}
	if n == 0 {
		return apperror.NewNotFound("counter", counterID.String())
	}
	return nil
}

func (r *CounterRepo) getOne(ctx context.Context, q squirrel.SelectBuilder, ref string) (*numerator.Counter, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var c numerator.Counter
	if err := sqlscan.Get(ctx, r.txm.GetQuerier(ctx), &c, sql, args...); err != nil {
		if sqlscan.NotFound(err) {
			return nil, apperror.NewNotFound("counter", ref)
		}
		return nil, apperror.NewDatabase("get counter", err)
	}
	return &c, nil
}
