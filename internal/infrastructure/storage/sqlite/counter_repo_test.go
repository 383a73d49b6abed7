package sqlite_test

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brewops/internal/core/apperror"
	"brewops/internal/core/id"
	"brewops/internal/core/numerator"
	"brewops/internal/domain/numbering"
	"brewops/internal/infrastructure/storage/sqlite"
)

const tenantA = "6f1c2a0e-8f35-4c1e-9a57-1d2e3f4a5b6c"

type testStore struct {
	txm  *sqlite.TxManager
	repo *sqlite.CounterRepo
	dir  *sqlite.WarehouseDirectory
}

func setupStore(t *testing.T) *testStore {
	t.Helper()

	db, err := sqlite.Open(context.Background(), sqlite.DefaultConfig(filepath.Join(t.TempDir(), "counters.db")))
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
	})

	txm := sqlite.NewTxManager(db)
	return &testStore{
		txm:  txm,
		repo: sqlite.NewCounterRepo(txm),
		dir:  sqlite.NewWarehouseDirectory(txm),
	}
}

func (s *testStore) service(now func() time.Time) *numbering.Service {
	return numbering.NewService(numbering.ServiceConfig{
		Repo:      s.repo,
		TxManager: s.txm,
		Directory: s.dir,
		Now:       now,
	})
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestCounterRepo_InsertIfAbsent(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	key := numerator.Key{TenantID: tenantA, Entity: "batch"}

	created, err := s.repo.InsertIfAbsent(ctx, numerator.NewCounter(key, numerator.SettingsFor("batch"), time.Now()))
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.repo.InsertIfAbsent(ctx, numerator.NewCounter(key, numerator.Settings{Prefix: "OTHER"}, time.Now()))
	require.NoError(t, err)
	assert.False(t, created)

	c, err := s.repo.Find(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "B", c.Prefix)
	assert.Nil(t, c.SubScopeID)
	assert.Nil(t, c.UpdatedAt)
	assert.Equal(t, key, c.Key())
}

func TestCounterRepo_FindExactKeyOnly(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	global := numerator.Key{TenantID: tenantA, Entity: "stock_receipt"}
	_, err := s.repo.InsertIfAbsent(ctx, numerator.NewCounter(global, numerator.SettingsFor(global.Entity), time.Now()))
	require.NoError(t, err)

	_, err = s.repo.Find(ctx, numerator.Key{TenantID: tenantA, Entity: "stock_receipt", SubScopeID: "wh"})
	assert.True(t, apperror.IsNotFound(err))

	_, err = s.repo.Find(ctx, numerator.Key{TenantID: "other", Entity: "stock_receipt"})
	assert.True(t, apperror.IsNotFound(err))

	sub := numerator.Key{TenantID: tenantA, Entity: "stock_receipt", SubScopeID: "wh"}
	_, err = s.repo.InsertIfAbsent(ctx, numerator.NewCounter(sub, numerator.SettingsFor(sub.Entity), time.Now()))
	require.NoError(t, err)

	c, err := s.repo.Find(ctx, sub)
	require.NoError(t, err)
	require.NotNil(t, c.SubScopeID)
	assert.Equal(t, "wh", *c.SubScopeID)

	list, err := s.repo.List(ctx, tenantA)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Nil(t, list[0].SubScopeID)
	assert.NotNil(t, list[1].SubScopeID)
}

func TestCounterRepo_LockRequiresTransaction(t *testing.T) {
	s := setupStore(t)

	_, err := s.repo.GetForUpdate(context.Background(), tenantA, id.New())
	assert.ErrorIs(t, err, sqlite.ErrNoTransaction)
}

func TestNextNumber_ConcurrentSameCounter(t *testing.T) {
	s := setupStore(t)
	svc := s.service(nil)
	ctx := context.Background()

	const n = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers []int64
	)
	settings, _ := numerator.DefaultSettings("order")

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			formatted, err := svc.NextNumber(ctx, tenantA, "order", "")
			if !assert.NoError(t, err) {
				return
			}
			v, err := numerator.ParseNumber(settings, formatted)
			assert.NoError(t, err)

			mu.Lock()
			numbers = append(numbers, v)
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, numbers, n)
	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })
	for i, v := range numbers {
		assert.Equal(t, int64(i+1), v)
	}

	list, err := s.repo.List(ctx, tenantA)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(n), list[0].CurrentNumber)
}

func TestNextNumber_ConcurrentFirstUse(t *testing.T) {
	s := setupStore(t)
	svc := s.service(fixedNow(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)))
	ctx := context.Background()

	results := make([]string, 2)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			n, err := svc.NextNumber(ctx, tenantA, "brew_log", "")
			assert.NoError(t, err)
			results[i] = n
		}(i)
	}
	wg.Wait()

	sort.Strings(results)
	assert.Equal(t, []string{"BL-2026-0001", "BL-2026-0002"}, results)

	list, err := s.repo.List(ctx, tenantA)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestNextNumber_YearlyResetPersists(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	lastYear := time.Date(2025, 11, 20, 12, 0, 0, 0, time.UTC)
	c := numerator.NewCounter(numerator.Key{TenantID: tenantA, Entity: "batch"}, numerator.SettingsFor("batch"), lastYear)
	c.CurrentNumber = 42
	c.UpdatedAt = &lastYear
	_, err := s.repo.InsertIfAbsent(ctx, c)
	require.NoError(t, err)

	svc := s.service(fixedNow(time.Date(2026, 1, 2, 8, 0, 0, 0, time.UTC)))

	n, err := svc.NextNumber(ctx, tenantA, "batch", "")
	require.NoError(t, err)
	assert.Equal(t, "B-2026-001", n)

	stored, err := s.repo.Get(ctx, tenantA, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.CurrentNumber)
	require.NotNil(t, stored.UpdatedAt)
	assert.Equal(t, 2026, stored.UpdatedAt.UTC().Year())

	n, err = svc.NextNumber(ctx, tenantA, "batch", "")
	require.NoError(t, err)
	assert.Equal(t, "B-2026-002", n)
}

func TestNextNumber_WarehouseSubScope(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	svc := s.service(fixedNow(time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)))

	warehouseID := id.New().String()
	require.NoError(t, s.dir.AddWarehouse(ctx, tenantA, warehouseID, "MAIN", "Main cellar"))

	sub1, err := svc.NextNumber(ctx, tenantA, "stock_transfer", warehouseID)
	require.NoError(t, err)
	global1, err := svc.NextNumber(ctx, tenantA, "stock_transfer", "")
	require.NoError(t, err)
	sub2, err := svc.NextNumber(ctx, tenantA, "stock_transfer", warehouseID)
	require.NoError(t, err)
	unknown, err := svc.NextNumber(ctx, tenantA, "stock_transfer", id.New().String())
	require.NoError(t, err)

	assert.Equal(t, "ST-MAIN-2026-0001", sub1)
	assert.Equal(t, "ST-MAIN-2026-0002", sub2)
	assert.Equal(t, "ST-2026-0001", global1)
	assert.Equal(t, "ST-2026-0002", unknown)

	list, err := s.repo.List(ctx, tenantA)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestNextNumber_WarehouseIDCaseInsensitive(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	svc := s.service(fixedNow(time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)))

	lower := id.New().String()
	upper := strings.ToUpper(lower)
	require.NoError(t, s.dir.AddWarehouse(ctx, tenantA, upper, "MAIN", "Main cellar"))

	first, err := svc.NextNumber(ctx, tenantA, "stock_receipt", lower)
	require.NoError(t, err)
	second, err := svc.NextNumber(ctx, tenantA, "stock_receipt", upper)
	require.NoError(t, err)

	assert.Equal(t, "SR-MAIN-2026-0001", first)
	assert.Equal(t, "SR-MAIN-2026-0002", second)

	list, err := s.repo.List(ctx, tenantA)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].SubScopeID)
	assert.Equal(t, lower, *list[0].SubScopeID)
}

func TestNextNumber_WaitsOutBusyDatabase(t *testing.T) {
	cfg := sqlite.DefaultConfig(filepath.Join(t.TempDir(), "busy.db"))
	cfg.BusyTimeout = 50 * time.Millisecond
	db, err := sqlite.Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	txm := sqlite.NewTxManager(db)
	svc := numbering.NewService(numbering.ServiceConfig{
		Repo:      sqlite.NewCounterRepo(txm),
		TxManager: txm,
		Now:       fixedNow(time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)),
	})
	ctx := context.Background()

	first, err := svc.NextNumber(ctx, tenantA, "batch", "")
	require.NoError(t, err)
	require.Equal(t, "B-2026-001", first)

	// Another writer keeps the database lock for several busy timeouts.
	held := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- txm.RunInTransaction(ctx, func(context.Context) error {
			close(held)
			time.Sleep(300 * time.Millisecond)
			return nil
		})
	}()
	<-held

	second, err := svc.NextNumber(ctx, tenantA, "batch", "")
	require.NoError(t, err)
	assert.Equal(t, "B-2026-002", second)
	require.NoError(t, <-done)
}

func TestSeedTenant_Repeatable(t *testing.T) {
	s := setupStore(t)
	svc := s.service(nil)
	ctx := context.Background()

	created, err := svc.SeedTenant(ctx, tenantA)
	require.NoError(t, err)
	assert.Equal(t, len(numerator.DefaultEntities()), created)

	created, err = svc.SeedTenant(ctx, tenantA)
	require.NoError(t, err)
	assert.Zero(t, created)

	list, err := s.repo.List(ctx, tenantA)
	require.NoError(t, err)
	require.Len(t, list, len(numerator.DefaultEntities()))

	var entities []string
	for _, c := range list {
		entities = append(entities, c.Entity)
		assert.Zero(t, c.CurrentNumber)
	}
	assert.Equal(t, numerator.DefaultEntities(), entities)
}

func TestUpdateSettings_KeepsCurrentNumber(t *testing.T) {
	s := setupStore(t)
	svc := s.service(fixedNow(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.NextNumber(ctx, tenantA, "invoice", "")
		require.NoError(t, err)
	}
	c, err := s.repo.Find(ctx, numerator.Key{TenantID: tenantA, Entity: "invoice"})
	require.NoError(t, err)

	sep := "/"
	includeYear := false
	updated, err := svc.UpdateSettings(ctx, tenantA, c.ID, numerator.SettingsPatch{Separator: &sep, IncludeYear: &includeYear})
	require.NoError(t, err)
	assert.Equal(t, "/", updated.Separator)
	assert.False(t, updated.IncludeYear)
	assert.Equal(t, int64(3), updated.CurrentNumber)

	n, err := svc.NextNumber(ctx, tenantA, "invoice", "")
	require.NoError(t, err)
	assert.Equal(t, "INV00004", n)

	tooWide := numerator.MaxPadding + 1
	_, err = svc.UpdateSettings(ctx, tenantA, c.ID, numerator.SettingsPatch{Padding: &tooWide})
	assert.True(t, apperror.IsConfigurationInvalid(err))

	stored, err := s.repo.Get(ctx, tenantA, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.Padding)
}
