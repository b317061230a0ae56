package repository

import (
	"context"
	"sync"
	"time"

	"github.com/nikolayk812/canteen-client/internal/domain"
	"github.com/nikolayk812/canteen-client/internal/port"
)

type memoryPreferences struct {
	mu    sync.Mutex
	prefs map[string]domain.Preferences
}

// NewMemoryPreferences keeps preferences for the lifetime of the process.
func NewMemoryPreferences() port.PreferenceStore {
	return &memoryPreferences{prefs: make(map[string]domain.Preferences)}
}

func (m *memoryPreferences) Get(_ context.Context, sessionKey string) (domain.Preferences, error) {
	if sessionKey == "" {
		return domain.Preferences{}, errSessionKeyEmpty
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.prefs[sessionKey], nil
}

func (m *memoryPreferences) Update(_ context.Context, sessionKey string, fn func(*domain.Preferences) error) (domain.Preferences, error) {
	if sessionKey == "" {
		return domain.Preferences{}, errSessionKeyEmpty
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	prefs := m.prefs[sessionKey]
	if err := fn(&prefs); err != nil {
		return domain.Preferences{}, err
	}
	prefs.UpdatedAt = time.Now().UTC()
	m.prefs[sessionKey] = prefs

	return prefs, nil
}

func (m *memoryPreferences) Delete(_ context.Context, sessionKey string) (bool, error) {
	if sessionKey == "" {
		return false, errSessionKeyEmpty
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.prefs[sessionKey]
	delete(m.prefs, sessionKey)

	return ok, nil
}
