package numbering

import (
	"context"
	"strings"
	"time"

	"brewops/internal/core/apperror"
	"brewops/internal/core/id"
	"brewops/internal/core/numerator"
	"brewops/internal/core/tx"
	"brewops/pkg/logger"
)

// Compile-time check that Service implements numerator.Generator.
var _ numerator.Generator = (*Service)(nil)

// Service is the entry point for issuing numbers and administering counters.
type Service struct {
	repo        numerator.Repository
	txManager   tx.Manager
	resolver    *Resolver
	provisioner *Provisioner
	engine      *Engine
	recorder    Recorder
	now         func() time.Time
}

// ServiceConfig configures the numbering service.
type ServiceConfig struct {
	Repo      numerator.Repository
	TxManager tx.Manager

	// Directory resolves sub-scope codes. Optional.
	Directory numerator.Directory
	// Recorder receives metrics events. Optional.
	Recorder Recorder

	// Location decides calendar years for yearly reset and formatting. Defaults to UTC.
	Location *time.Location
	// Now overrides the clock in tests. Defaults to time.Now.
	Now func() time.Time
}

// NewService creates a new numbering service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Recorder == nil {
		cfg.Recorder = nopRecorder{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Service{
		repo:        cfg.Repo,
		txManager:   cfg.TxManager,
		resolver:    NewResolver(cfg.Repo),
		provisioner: NewProvisioner(cfg.Repo, cfg.Directory, cfg.Recorder, cfg.Now),
		engine:      NewEngine(cfg.Repo, cfg.TxManager, cfg.Now, cfg.Location),
		recorder:    cfg.Recorder,
		now:         cfg.Now,
	}
}

// NextNumber issues the next formatted identifier for (tenantID, entity, subScopeID).
//
// A missing row is provisioned first. A sub-scope request is served by its own row
// when one exists or can be created, and by the tenant-wide row otherwise.
// Once the increment has committed the number counts as issued even if ctx is cancelled afterwards.
func (s *Service) NextNumber(ctx context.Context, tenantID, entity, subScopeID string) (string, error) {
	started := time.Now()

	key, err := numerator.NewKey(tenantID, entity, subScopeID)
	if err != nil {
		return "", err
	}

	counter, err := s.resolve(ctx, key)
	if err != nil {
		return "", err
	}

	issued, reset, err := s.engine.Increment(ctx, key.TenantID, counter.ID)
	if err != nil {
		return "", err
	}

	number := numerator.Format(issued.Settings, s.engine.Year(issued), issued.CurrentNumber)

	s.recorder.NumberIssued(key.Entity, reset, time.Since(started))
	if reset {
		logger.Info(ctx, "counter reset for new year",
			"counter", issued.Key().String(), "number", number)
	}
	return number, nil
}

// resolve finds the governing row, provisioning it when needed.
func (s *Service) resolve(ctx context.Context, key numerator.Key) (*numerator.Counter, error) {
	counter, err := s.resolver.Resolve(ctx, key)
	switch {
	case err == nil:
		if !key.HasSubScope() || counter.Key() == key {
			return counter, nil
		}
		// Only the tenant-wide row exists; try to give the sub-scope its own row.
		if !s.provisioner.EnsureSubScope(ctx, key) {
			return counter, nil
		}
	case apperror.IsNotFound(err):
		s.provisioner.Ensure(ctx, key)
	default:
		return nil, err
	}

	counter, err = s.resolver.Resolve(ctx, key)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("counter", key.String())
		}
		return nil, err
	}
	return counter, nil
}

// GetCounter returns one counter of the tenant.
func (s *Service) GetCounter(ctx context.Context, tenantID string, counterID id.ID) (*numerator.Counter, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, tenantID, counterID)
}

// ListCounters returns all counters of the tenant.
func (s *Service) ListCounters(ctx context.Context, tenantID string) ([]*numerator.Counter, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, tenantID)
}

// UpdateSettings changes the formatting settings of a counter.
// Invalid settings are rejected with CONFIGURATION_INVALID before anything is written.
// The current number and the identity fields are never changed.
func (s *Service) UpdateSettings(ctx context.Context, tenantID string, counterID id.ID, patch numerator.SettingsPatch) (*numerator.Counter, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return nil, apperror.NewValidation("no settings to update")
	}

	var updated *numerator.Counter
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetForUpdate(ctx, tenantID, counterID)
		if err != nil {
			return err
		}

		settings := patch.Apply(current.Settings)
		if err := settings.Validate(); err != nil {
			return err
		}

		updated, err = s.repo.UpdateSettings(ctx, tenantID, counterID, settings)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "counter settings updated", "counter", updated.Key().String())
	return updated, nil
}

// SeedTenant provisions the default counters of a new tenant.
// Safe to call repeatedly; returns how many rows this call created.
func (s *Service) SeedTenant(ctx context.Context, tenantID string) (int, error) {
	if err := requireTenant(tenantID); err != nil {
		return 0, err
	}
	tenantID = strings.TrimSpace(tenantID)

	var created int
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.provisioner.Seed(ctx, tenantID)
		return err
	})
	if err != nil {
		return 0, err
	}

	logger.Info(ctx, "tenant counters seeded", "tenant_id", tenantID, "created", created)
	return created, nil
}

func requireTenant(tenantID string) error {
	if strings.TrimSpace(tenantID) == "" {
		return apperror.NewValidation("tenant is required").WithDetail("field", "tenantId")
	}
	return nil
}
