package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"brewops/internal/core/apperror"
	"brewops/internal/core/id"
	"brewops/internal/core/numerator"
	"brewops/internal/infrastructure/storage"
)

const countersTable = "sys_counters"

var counterColumns = storage.Columns[numerator.Counter]()

// Compile-time check that CounterRepo implements numerator.Repository.
var _ numerator.Repository = (*CounterRepo)(nil)

// CounterRepo stores counter definitions in sys_counters.
// Rows are scoped by tenant_id; every query filters on it.
type CounterRepo struct {
	txm *TxManager
}

// NewCounterRepo creates a counter repository on top of txm.
func NewCounterRepo(txm *TxManager) *CounterRepo {
	return &CounterRepo{txm: txm}
}

// builder returns a squirrel builder with PostgreSQL placeholders.
func (r *CounterRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *CounterRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder().Select(counterColumns...).From(countersTable)
}

// Find returns the row for exactly key.
func (r *CounterRepo) Find(ctx context.Context, key numerator.Key) (*numerator.Counter, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"tenant_id": key.TenantID, "entity": key.Entity}).
		Where(subScopeEq(key)).
		Limit(1)

	return r.getOne(ctx, q, key.String())
}

// InsertIfAbsent inserts c unless its (tenant, entity, sub-scope) already exists.
func (r *CounterRepo) InsertIfAbsent(ctx context.Context, c *numerator.Counter) (bool, error) {
	q := r.builder().
		Insert(countersTable).
		SetMap(storage.ValueMap(c)).
		Suffix("ON CONFLICT ON CONSTRAINT sys_counters_scope_key DO NOTHING")

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build insert: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return false, apperror.NewDatabase("insert counter", err).WithDetail("counter", c.Key().String())
	}
	return tag.RowsAffected() == 1, nil
}

// GetForUpdate loads a row with SELECT ... FOR UPDATE. Must run inside RunInTransaction.
func (r *CounterRepo) GetForUpdate(ctx context.Context, tenantID string, counterID id.ID) (*numerator.Counter, error) {
	if r.txm.GetTx(ctx) == nil {
		return nil, ErrNoTransaction
	}

	q := r.baseSelect().
		Where(squirrel.Eq{"id": counterID, "tenant_id": tenantID}).
		Suffix("FOR UPDATE")

	return r.getOne(ctx, q, counterID.String())
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

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return apperror.NewDatabase("save counter number", err).WithDetail("counter", c.Key().String())
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("counter", c.ID.String())
	}
	return nil
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
		OrderBy("entity", "sub_scope_id NULLS FIRST")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var counters []*numerator.Counter
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &counters, sql, args...); err != nil {
		return nil, apperror.NewDatabase("list counters", err)
	}
	return counters, nil
}

// UpdateSettings overwrites the formatting columns and returns the updated row.
func (r *CounterRepo) UpdateSettings(ctx context.Context, tenantID string, counterID id.ID, s numerator.Settings) (*numerator.Counter, error) {
	q := r.builder().
		Update(countersTable).
		SetMap(storage.ValueMap(s)).
		Where(squirrel.Eq{"id": counterID, "tenant_id": tenantID}).
		Suffix("RETURNING " + strings.Join(counterColumns, ", "))

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}

	var c numerator.Counter
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &c, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("counter", counterID.String())
		}
		return nil, apperror.NewDatabase("update counter settings", err)
	}
	return &c, nil
}

type sqlizer interface {
	ToSql() (string, []any, error)
}

func (r *CounterRepo) getOne(ctx context.Context, q sqlizer, ref string) (*numerator.Counter, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var c numerator.Counter
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &c, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("counter", ref)
		}
		return nil, apperror.NewDatabase("get counter", err)
	}
	return &c, nil
}

// subScopeEq matches the sub-scope of key; the tenant-wide row has a NULL sub_scope_id.
func subScopeEq(key numerator.Key) squirrel.Eq {
	if key.HasSubScope() {
		return squirrel.Eq{"sub_scope_id": key.SubScopeID}
	}
	return squirrel.Eq{"sub_scope_id": nil}
}
