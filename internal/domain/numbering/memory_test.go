package numbering

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"brewops/internal/core/apperror"
	"brewops/internal/core/id"
	"brewops/internal/core/numerator"
	"brewops/internal/core/tx"
)

// memRepo is an in-memory numerator.Repository. Row locks are modelled by
// memTxManager, which runs one transaction at a time.
type memRepo struct {
	mu   sync.Mutex
	rows map[numerator.Key]*numerator.Counter

	findErr   error
	insertErr error
	inserts   int
	finds     int

	// lockFailures makes the next GetForUpdate calls fail as if the row lock timed out.
	lockFailures int
	lockAttempts int
}

func newMemRepo() *memRepo {
	return &memRepo{rows: make(map[numerator.Key]*numerator.Counter)}
}

func (r *memRepo) Find(_ context.Context, key numerator.Key) (*numerator.Counter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finds++
	if r.findErr != nil {
		return nil, r.findErr
	}
	c, ok := r.rows[key]
	if !ok {
		return nil, apperror.NewNotFound("counter", key.String())
	}
	return clone(c), nil
}

func (r *memRepo) InsertIfAbsent(_ context.Context, c *numerator.Counter) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inserts++
	if r.insertErr != nil {
		return false, r.insertErr
	}
	if _, ok := r.rows[c.Key()]; ok {
		return false, nil
	}
	r.rows[c.Key()] = clone(c)
	return true, nil
}

func (r *memRepo) GetForUpdate(ctx context.Context, tenantID string, counterID id.ID) (*numerator.Counter, error) {
	if !inTx(ctx) {
		return nil, errors.New("GetForUpdate outside transaction")
	}
	r.mu.Lock()
	r.lockAttempts++
	if r.lockFailures > 0 {
		r.lockFailures--
		r.mu.Unlock()
		return nil, tx.MarkContention(apperror.NewDatabase("get counter for update",
			errors.New("canceling statement due to lock timeout")))
	}
	r.mu.Unlock()
	return r.Get(ctx, tenantID, counterID)
}

func (r *memRepo) SaveNumber(ctx context.Context, c *numerator.Counter) error {
	if !inTx(ctx) {
		return errors.New("SaveNumber outside transaction")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[c.Key()]
	if !ok || row.ID != c.ID {
		return apperror.NewNotFound("counter", c.ID.String())
	}
	row.CurrentNumber = c.CurrentNumber
	row.UpdatedAt = c.UpdatedAt
	return nil
}

func (r *memRepo) Get(_ context.Context, tenantID string, counterID id.ID) (*numerator.Counter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.rows {
		if c.ID == counterID && c.TenantID == tenantID {
			return clone(c), nil
		}
	}
	return nil, apperror.NewNotFound("counter", counterID.String())
}

func (r *memRepo) List(_ context.Context, tenantID string) ([]*numerator.Counter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*numerator.Counter
	for _, c := range r.rows {
		if c.TenantID == tenantID {
			out = append(out, clone(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key().String() < out[j].Key().String() })
	return out, nil
}

func (r *memRepo) UpdateSettings(ctx context.Context, tenantID string, counterID id.ID, s numerator.Settings) (*numerator.Counter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.rows {
		if c.ID == counterID && c.TenantID == tenantID {
			c.Settings = s
			return clone(c), nil
		}
	}
	return nil, apperror.NewNotFound("counter", counterID.String())
}

func (r *memRepo) row(key numerator.Key) *numerator.Counter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.rows[key]; ok {
		return clone(c)
	}
	return nil
}

func (r *memRepo) rowCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

func (r *memRepo) delete(key numerator.Key) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, key)
}

func clone(c *numerator.Counter) *numerator.Counter {
	cp := *c
	if c.SubScopeID != nil {
		s := *c.SubScopeID
		cp.SubScopeID = &s
	}
	if c.UpdatedAt != nil {
		t := *c.UpdatedAt
		cp.UpdatedAt = &t
	}
	return &cp
}

type txCtxKey struct{}

func inTx(ctx context.Context) bool {
	_, ok := ctx.Value(txCtxKey{}).(bool)
	return ok
}

// memTxManager serializes transactions. Writes are applied immediately, so a
// failed transaction is not rolled back; tests only rely on serialization.
type memTxManager struct {
	mu sync.Mutex
}

func (m *memTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(context.WithValue(ctx, txCtxKey{}, true))
}

// fakeDirectory maps sub-scope ids to codes.
type fakeDirectory map[string]string

func (d fakeDirectory) SubScopeCode(_ context.Context, _ string, subScopeID string) (string, error) {
	code, ok := d[subScopeID]
	if !ok {
		return "", apperror.NewNotFound("warehouse", subScopeID)
	}
	return code, nil
}

// uuidDirectory parses sub-scope ids as UUIDs, so any spelling of an id matches.
type uuidDirectory map[id.ID]string

func (d uuidDirectory) SubScopeCode(_ context.Context, _ string, subScopeID string) (string, error) {
	parsed, err := id.Parse(subScopeID)
	if err != nil {
		return "", apperror.NewNotFound("warehouse", subScopeID)
	}
	code, ok := d[parsed]
	if !ok {
		return "", apperror.NewNotFound("warehouse", subScopeID)
	}
	return code, nil
}

// recorderSpy counts Recorder events.
type recorderSpy struct {
	mu          sync.Mutex
	issued      int
	resets      int
	provisioned int
	skipped     map[string]int
}

func (r *recorderSpy) NumberIssued(_ string, reset bool, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.issued++
	if reset {
		r.resets++
	}
}

func (r *recorderSpy) CounterProvisioned(string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.provisioned++
}

func (r *recorderSpy) ProvisioningSkipped(_, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.skipped == nil {
		r.skipped = make(map[string]int)
	}
	r.skipped[reason]++
}

// fixedClock is a settable clock.
type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
