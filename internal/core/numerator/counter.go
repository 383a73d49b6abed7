// Package numerator provides domain contracts for sequential business identifiers.
// Storage implementations live in the infrastructure layer.
package numerator

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"brewops/internal/core/apperror"
	"brewops/internal/core/id"
)

// Limits enforced on counter settings.
const (
	MaxPadding      = 20
	MaxPrefixLen    = 32
	MaxSeparatorLen = 4
	MaxEntityLen    = 64
)

// Key identifies one numbering sequence.
type Key struct {
	TenantID string
	Entity   string
	// SubScopeID is empty for the tenant-wide row.
	SubScopeID string
}

// NewKey validates raw request input and builds a Key.
// Entity is case-sensitive and kept verbatim.
func NewKey(tenantID, entity, subScopeID string) (Key, error) {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return Key{}, apperror.NewValidation("tenant is required").WithDetail("field", "tenantId")
	}
	if strings.TrimSpace(entity) == "" {
		return Key{}, apperror.NewValidation("entity is required").WithDetail("field", "entity")
	}
	if utf8.RuneCountInString(entity) > MaxEntityLen {
		return Key{}, apperror.NewValidation("entity is too long").
			WithDetail("field", "entity").
			WithDetail("max", MaxEntityLen)
	}
	return Key{
		TenantID:   tenantID,
		Entity:     entity,
		SubScopeID: NormalizeSubScopeID(subScopeID),
	}, nil
}

// NormalizeSubScopeID returns the canonical form of a sub-scope id. UUIDs are
// rewritten to lowercase hyphenated form so every spelling of one warehouse
// maps to the same counter row; other ids are only trimmed.
func NormalizeSubScopeID(subScopeID string) string {
	subScopeID = strings.TrimSpace(subScopeID)
	if subScopeID == "" {
		return ""
	}
	if parsed, err := id.Parse(subScopeID); err == nil {
		return parsed.String()
	}
	return subScopeID
}

// HasSubScope reports whether the key targets a sub-scope row.
func (k Key) HasSubScope() bool {
	return k.SubScopeID != ""
}

// Global returns the tenant-wide key for the same entity.
func (k Key) Global() Key {
	return Key{TenantID: k.TenantID, Entity: k.Entity}
}

func (k Key) String() string {
	if k.HasSubScope() {
		return fmt.Sprintf("%s/%s/%s", k.TenantID, k.Entity, k.SubScopeID)
	}
	return fmt.Sprintf("%s/%s", k.TenantID, k.Entity)
}

// Settings are the administratively editable formatting fields of a counter.
type Settings struct {
	// Prefix added to all numbers (e.g., "INV", "B")
	Prefix string `db:"prefix" json:"prefix"`

	// Separator between prefix, year and number. Only used when IncludeYear is set.
	Separator string `db:"separator" json:"separator"`

	// IncludeYear adds the calendar year to the number
	IncludeYear bool `db:"include_year" json:"includeYear"`

	// Padding is the minimum digit width of the number
	Padding int `db:"padding" json:"padding"`

	// ResetYearly restarts the sequence at 1 on first use in a new calendar year
	ResetYearly bool `db:"reset_yearly" json:"resetYearly"`
}

// Validate rejects settings that would break formatting invariants.
func (s Settings) Validate() error {
	if s.Padding < 0 || s.Padding > MaxPadding {
		return apperror.NewConfigurationInvalid("padding",
			fmt.Sprintf("padding must be between 0 and %d", MaxPadding)).
			WithDetail("value", s.Padding)
	}
	if utf8.RuneCountInString(s.Prefix) > MaxPrefixLen {
		return apperror.NewConfigurationInvalid("prefix",
			fmt.Sprintf("prefix must be %d characters or less", MaxPrefixLen))
	}
	if utf8.RuneCountInString(s.Separator) > MaxSeparatorLen {
		return apperror.NewConfigurationInvalid("separator",
			fmt.Sprintf("separator must be %d characters or less", MaxSeparatorLen))
	}
	return nil
}

// SettingsPatch is a partial update of Settings. Nil fields are left unchanged.
type SettingsPatch struct {
	Prefix      *string
	Separator   *string
	IncludeYear *bool
	Padding     *int
	ResetYearly *bool
}

// Apply returns s with the patch applied.
func (p SettingsPatch) Apply(s Settings) Settings {
	if p.Prefix != nil {
		s.Prefix = *p.Prefix
	}
	if p.Separator != nil {
		s.Separator = *p.Separator
	}
	if p.IncludeYear != nil {
		s.IncludeYear = *p.IncludeYear
	}
	if p.Padding != nil {
		s.Padding = *p.Padding
	}
	if p.ResetYearly != nil {
		s.ResetYearly = *p.ResetYearly
	}
	return s
}

// IsEmpty reports whether the patch changes nothing.
func (p SettingsPatch) IsEmpty() bool {
	return p.Prefix == nil && p.Separator == nil && p.IncludeYear == nil &&
		p.Padding == nil && p.ResetYearly == nil
}

// Counter is a persisted counter definition: configuration plus the last issued value.
type Counter struct {
	ID         id.ID   `db:"id" json:"id"`
	TenantID   string  `db:"tenant_id" json:"tenantId"`
	Entity     string  `db:"entity" json:"entity"`
	SubScopeID *string `db:"sub_scope_id" json:"subScopeId,omitempty"`

	Settings

	// CurrentNumber is the last issued value, 0 before first use.
	CurrentNumber int64 `db:"current_number" json:"currentNumber"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	// UpdatedAt is the time of the last successful increment.
	UpdatedAt *time.Time `db:"updated_at" json:"updatedAt,omitempty"`
}

// NewCounter creates an unissued counter row for key.
func NewCounter(key Key, settings Settings, now time.Time) *Counter {
	c := &Counter{
		ID:        id.New(),
		TenantID:  key.TenantID,
		Entity:    key.Entity,
		Settings:  settings,
		CreatedAt: now,
	}
	if key.HasSubScope() {
		sub := key.SubScopeID
		c.SubScopeID = &sub
	}
	return c
}

// Key returns the identity of the row.
func (c *Counter) Key() Key {
	k := Key{TenantID: c.TenantID, Entity: c.Entity}
	if c.SubScopeID != nil {
		k.SubScopeID = *c.SubScopeID
	}
	return k
}

// NextValue returns the number the next increment at now issues.
// The year of UpdatedAt is taken in now's location; an unset UpdatedAt counts as the current year.
func (c *Counter) NextValue(now time.Time) int64 {
	if c.ResetYearly && c.UpdatedAt != nil && now.Year() > c.UpdatedAt.In(now.Location()).Year() {
		return 1
	}
	return c.CurrentNumber + 1
}

// Advance moves the counter to its next value and stamps UpdatedAt.
// It reports whether a yearly reset happened. Callers must hold the row lock.
func (c *Counter) Advance(now time.Time) bool {
	next := c.NextValue(now)
	reset := next == 1 && c.CurrentNumber > 0
	c.CurrentNumber = next
	c.UpdatedAt = &now
	return reset
}
