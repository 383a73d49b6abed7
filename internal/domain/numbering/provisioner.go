package numbering

import (
	"context"
	"errors"
	"time"

	"brewops/internal/core/numerator"
	"brewops/pkg/logger"
)

var errNoDirectory = errors.New("sub-scope directory is not configured")

// Provisioner creates missing counter rows from the built-in defaults.
type Provisioner struct {
	repo      numerator.Repository
	directory numerator.Directory
	recorder  Recorder
	now       func() time.Time
}

// NewProvisioner creates a provisioner. directory may be nil, in which case
// sub-scope rows are never created and requests fall back to the tenant-wide row.
func NewProvisioner(repo numerator.Repository, directory numerator.Directory, recorder Recorder, now func() time.Time) *Provisioner {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if now == nil {
		now = time.Now
	}
	return &Provisioner{repo: repo, directory: directory, recorder: recorder, now: now}
}

// Ensure creates the row for key if it is missing.
//
// For a sub-scope key the row's prefix combines the document type's default prefix
// with the sub-scope code from the directory. If that row cannot be created the
// tenant-wide row is ensured instead.
// Failures are logged and recorded, never returned: the caller resolves again
// and reports NOT_FOUND if nothing usable exists.
func (p *Provisioner) Ensure(ctx context.Context, key numerator.Key) {
	if key.HasSubScope() && p.EnsureSubScope(ctx, key) {
		return
	}
	p.insert(ctx, key.Global(), numerator.SettingsFor(key.Entity))
}

// EnsureSubScope creates the sub-scope row for key when the directory knows the
// sub-scope. It reports whether the row exists afterwards. The tenant-wide row
// is never touched.
func (p *Provisioner) EnsureSubScope(ctx context.Context, key numerator.Key) bool {
	code, err := p.subScopeCode(ctx, key)
	if err != nil {
		logger.FromContext(ctx).WithComponent("numbering.provisioner").Infow("sub-scope provisioning skipped",
			"entity", key.Entity, "sub_scope_id", key.SubScopeID, "error", err)
		p.recorder.ProvisioningSkipped(key.Entity, SkipReasonDirectory)
		return false
	}
	return p.insert(ctx, key, numerator.SubScopeSettings(numerator.SettingsFor(key.Entity), code))
}

// Seed inserts the default tenant-wide row for every built-in document type.
// Existing rows are left untouched. Returns how many rows were created.
func (p *Provisioner) Seed(ctx context.Context, tenantID string) (int, error) {
	created := 0
	for _, entity := range numerator.DefaultEntities() {
		key := numerator.Key{TenantID: tenantID, Entity: entity}
		settings, _ := numerator.DefaultSettings(entity)

		ok, err := p.repo.InsertIfAbsent(ctx, numerator.NewCounter(key, settings, p.now()))
		if err != nil {
			return created, err
		}
		if ok {
			created++
			p.recorder.CounterProvisioned(entity, false)
		}
	}
	return created, nil
}

// insert reports whether the row exists afterwards, created by this call or not.
func (p *Provisioner) insert(ctx context.Context, key numerator.Key, settings numerator.Settings) bool {
	log := logger.FromContext(ctx).WithComponent("numbering.provisioner")

	created, err := p.repo.InsertIfAbsent(ctx, numerator.NewCounter(key, settings, p.now()))
	if err != nil {
		log.Warnw("counter provisioning failed", "counter", key.String(), "error", err)
		p.recorder.ProvisioningSkipped(key.Entity, SkipReasonInsert)
		return false
	}
	if created {
		log.Infow("counter provisioned", "counter", key.String(), "prefix", settings.Prefix)
		p.recorder.CounterProvisioned(key.Entity, key.HasSubScope())
	}
	return true
}

func (p *Provisioner) subScopeCode(ctx context.Context, key numerator.Key) (string, error) {
	if p.directory == nil {
		return "", errNoDirectory
	}
	return p.directory.SubScopeCode(ctx, key.TenantID, key.SubScopeID)
}
