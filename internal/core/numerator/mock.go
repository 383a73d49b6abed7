package numerator

import (
	"context"
	"sync"
	"time"
)

// MockGenerator is a test implementation of Generator.
// Use in unit tests of business modules to avoid database dependencies.
type MockGenerator struct {
	NextNumberFunc func(ctx context.Context, tenantID, entity, subScopeID string) (string, error)

	mu     sync.Mutex
	issued map[Key]int64
}

// NextNumber implements Generator.
func (m *MockGenerator) NextNumber(ctx context.Context, tenantID, entity, subScopeID string) (string, error) {
	if m.NextNumberFunc != nil {
		return m.NextNumberFunc(ctx, tenantID, entity, subScopeID)
	}

	// Default: per-key sequence formatted with the built-in settings.
	key, err := NewKey(tenantID, entity, subScopeID)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.issued == nil {
		m.issued = make(map[Key]int64)
	}
	m.issued[key]++
	return Format(SettingsFor(entity), time.Now().Year(), m.issued[key]), nil
}

// Issued returns how many numbers were issued for key.
func (m *MockGenerator) Issued(key Key) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.issued[key]
}

// Ensure compile-time interface compliance.
var _ Generator = (*MockGenerator)(nil)
