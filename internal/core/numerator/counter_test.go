package numerator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brewops/internal/core/apperror"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func TestCounter_NextValue_YearlyReset(t *testing.T) {
	lastYear := mustDate(t, "2025-12-31")
	now := mustDate(t, "2026-01-01")

	c := &Counter{
		Settings:      Settings{ResetYearly: true},
		CurrentNumber: 42,
		UpdatedAt:     &lastYear,
	}

	assert.Equal(t, int64(1), c.NextValue(now))

	reset := c.Advance(now)
	assert.True(t, reset)
	assert.Equal(t, int64(1), c.CurrentNumber)
	require.NotNil(t, c.UpdatedAt)
	assert.Equal(t, now, *c.UpdatedAt)

	// Second increment in the same year continues the sequence.
	reset = c.Advance(now.Add(time.Hour))
	assert.False(t, reset)
	assert.Equal(t, int64(2), c.CurrentNumber)
}

func TestCounter_NextValue_NoReset(t *testing.T) {
	lastYear := mustDate(t, "2025-06-01")
	now := mustDate(t, "2026-02-01")

	tests := []struct {
		name    string
		counter Counter
		want    int64
	}{
		{
			name:    "reset disabled ignores year change",
			counter: Counter{Settings: Settings{IncludeYear: true}, CurrentNumber: 42, UpdatedAt: &lastYear},
			want:    43,
		},
		{
			name:    "never used",
			counter: Counter{Settings: Settings{ResetYearly: true}},
			want:    1,
		},
		{
			name:    "unset updated_at counts as current year",
			counter: Counter{Settings: Settings{ResetYearly: true}, CurrentNumber: 5},
			want:    6,
		},
		{
			name:    "same year",
			counter: Counter{Settings: Settings{ResetYearly: true}, CurrentNumber: 9, UpdatedAt: &now},
			want:    10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.counter.NextValue(now))
		})
	}
}

func TestCounter_NextValue_UsesCallerLocation(t *testing.T) {
	// 2025-12-31 23:30 UTC is already 2026 at UTC+1.
	loc := time.FixedZone("UTC+1", 3600)

	updated := time.Date(2025, 12, 31, 12, 0, 0, 0, time.UTC)
	c := &Counter{Settings: Settings{ResetYearly: true}, CurrentNumber: 7, UpdatedAt: &updated}

	now := time.Date(2025, 12, 31, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, int64(8), c.NextValue(now))
	assert.Equal(t, int64(1), c.NextValue(now.In(loc)))
}

func TestNewKey(t *testing.T) {
	k, err := NewKey(" t1 ", "batch", " wh-1 ")
	require.NoError(t, err)
	assert.Equal(t, Key{TenantID: "t1", Entity: "batch", SubScopeID: "wh-1"}, k)
	assert.True(t, k.HasSubScope())
	assert.Equal(t, Key{TenantID: "t1", Entity: "batch"}, k.Global())

	_, err = NewKey("", "batch", "")
	assert.True(t, apperror.IsAppError(err))

	_, err = NewKey("t1", "  ", "")
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestNewKey_CanonicalSubScope(t *testing.T) {
	const canonical = "1f0e2d3c-4b5a-4968-8776-655443322110"

	for _, raw := range []string{
		canonical,
		"1F0E2D3C-4B5A-4968-8776-655443322110",
		" 1f0E2d3C-4b5A-4968-8776-655443322110 ",
		"{1f0e2d3c-4b5a-4968-8776-655443322110}",
		"1f0e2d3c4b5a49688776655443322110",
	} {
		k, err := NewKey("t1", "stock_receipt", raw)
		require.NoError(t, err, raw)
		assert.Equal(t, canonical, k.SubScopeID, raw)
	}

	k, err := NewKey("t1", "stock_receipt", "Cellar-A")
	require.NoError(t, err)
	assert.Equal(t, "Cellar-A", k.SubScopeID)
}

func TestNewCounter_Key(t *testing.T) {
	key := Key{TenantID: "t1", Entity: "stock_receipt", SubScopeID: "wh"}
	c := NewCounter(key, SettingsFor(key.Entity), time.Now())

	assert.Equal(t, key, c.Key())
	assert.Zero(t, c.CurrentNumber)
	assert.Nil(t, c.UpdatedAt)

	global := NewCounter(key.Global(), SettingsFor(key.Entity), time.Now())
	assert.Nil(t, global.SubScopeID)
}

func TestSettings_Validate(t *testing.T) {
	assert.NoError(t, Settings{Prefix: "B", Separator: "-", Padding: 3}.Validate())

	err := Settings{Padding: -1}.Validate()
	assert.True(t, apperror.IsConfigurationInvalid(err))

	err = Settings{Padding: MaxPadding + 1}.Validate()
	assert.True(t, apperror.IsConfigurationInvalid(err))

	err = Settings{Prefix: "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"}.Validate()
	assert.True(t, apperror.IsConfigurationInvalid(err))

	err = Settings{Separator: "-----"}.Validate()
	assert.True(t, apperror.IsConfigurationInvalid(err))
}

func TestSettingsPatch_Apply(t *testing.T) {
	prefix := "BT"
	padding := 6
	base := Settings{Prefix: "B", Separator: "-", IncludeYear: true, Padding: 3, ResetYearly: true}

	got := SettingsPatch{Prefix: &prefix, Padding: &padding}.Apply(base)

	assert.Equal(t, Settings{Prefix: "BT", Separator: "-", IncludeYear: true, Padding: 6, ResetYearly: true}, got)
	assert.True(t, SettingsPatch{}.IsEmpty())
}
