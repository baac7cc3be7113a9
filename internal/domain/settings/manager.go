// Package settings manages user preferences: auto-save scheduling and
// duplicate detection. Settings persist alongside the sessions and
// changes fan out to subscribers, so the scheduler reconfigures
// without a restart.
package settings

import (
	"context"
	"fmt"
	"sync"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/SamisDone/tabsaver/internal/logging"
	"github.com/SamisDone/tabsaver/internal/shared/types"
	"github.com/SamisDone/tabsaver/internal/storage"
)

// Manager owns the current settings and their persistence.
type Manager struct {
	mu      sync.RWMutex
	current types.Settings
	subs    []func(types.Settings)

	kv     storage.KV
	logger *logging.Logger
}

// NewManager creates a manager backed by kv. Call Load before use.
func NewManager(kv storage.KV, logger *logging.Logger) *Manager {
	return &Manager{
		kv:      kv,
		current: types.DefaultSettings(),
		logger:  logger,
	}
}

// Load hydrates settings from persistence, keeping defaults when none
// were ever saved.
func (m *Manager) Load(ctx context.Context) error {
	data, _, err := m.kv.Get(ctx, storage.KeySettings)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if data == nil {
		return nil
	}

	s := types.DefaultSettings()
	if err := sonic.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("corrupt settings document: %w", err)
	}

	m.mu.Lock()
	m.current = s
	m.mu.Unlock()

	m.logger.Info("settings loaded",
		zap.Bool("auto_save", s.AutoSave),
		zap.Int("interval_minutes", s.AutoSaveInterval))
	return nil
}

// Get returns the current settings.
func (m *Manager) Get() types.Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Update validates, persists, and applies new settings, then notifies
// subscribers. On a failed write the previous settings stay in effect.
func (m *Manager) Update(ctx context.Context, s types.Settings) error {
	if s.AutoSaveInterval < 1 {
		return fmt.Errorf("auto-save interval must be at least 1 minute, got %d", s.AutoSaveInterval)
	}

	data, err := sonic.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if _, err := m.kv.Set(ctx, storage.KeySettings, data); err != nil {
		return fmt.Errorf("failed to persist settings: %w", err)
	}

	m.mu.Lock()
	m.current = s
	subs := append([]func(types.Settings){}, m.subs...)
	m.mu.Unlock()

	m.logger.Info("settings updated",
		zap.Bool("auto_save", s.AutoSave),
		zap.Int("interval_minutes", s.AutoSaveInterval),
		zap.Bool("duplicate_detection", s.DuplicateDetection))
	for _, fn := range subs {
		fn(s)
	}
	return nil
}

// Subscribe registers a callback invoked after every successful update.
func (m *Manager) Subscribe(fn func(types.Settings)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
}
