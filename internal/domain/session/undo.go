package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/SamisDone/tabsaver/internal/infrastructure/monitoring"
	"github.com/SamisDone/tabsaver/internal/logging"
	"github.com/SamisDone/tabsaver/internal/shared/types"
)

// DefaultUndoTTL bounds how long a deletion stays reversible.
const DefaultUndoTTL = 5 * time.Second

// UndoBuffer holds at most one recently deleted session. Deleting
// another session overwrites the slot; the slot expires after the TTL.
type UndoBuffer struct {
	mu      sync.Mutex
	slot    *types.RemovedSession
	timer   *time.Timer
	store   *Store
	ttl     time.Duration
	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// NewUndoBuffer creates a buffer over store. A non-positive ttl falls
// back to the default.
func NewUndoBuffer(store *Store, ttl time.Duration, logger *logging.Logger) *UndoBuffer {
	if ttl <= 0 {
		ttl = DefaultUndoTTL
	}
	return &UndoBuffer{store: store, ttl: ttl, logger: logger}
}

// WithMetrics attaches Prometheus metrics.
func (u *UndoBuffer) WithMetrics(m *monitoring.Metrics) *UndoBuffer {
	u.metrics = m
	return u
}

func (u *UndoBuffer) countOutcome(outcome string) {
	if u.metrics != nil {
		u.metrics.UndoTotal.WithLabelValues(outcome).Inc()
	}
}

// Delete removes the session from the store and arms the undo slot
// with it. Any previously held session is finalized immediately.
func (u *UndoBuffer) Delete(ctx context.Context, timestamp int64) (types.RemovedSession, error) {
	removed, err := u.store.Remove(ctx, timestamp)
	if err != nil {
		return types.RemovedSession{}, err
	}

	u.mu.Lock()
	if u.timer != nil {
		u.timer.Stop()
	}
	slot := removed
	u.slot = &slot
	u.timer = time.AfterFunc(u.ttl, func() { u.expire(timestamp) })
	u.mu.Unlock()

	return removed, nil
}

func (u *UndoBuffer) expire(timestamp int64) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.slot == nil || u.slot.Session.Timestamp != timestamp {
		return
	}
	u.logger.Debug("undo window closed",
		zap.Int64("timestamp", timestamp))
	u.slot = nil
	u.timer = nil
	u.countOutcome("expired")
}

// Undo reinserts the held session at the position it was deleted from,
// clamped to the current sequence length. An empty or expired slot
// yields ErrNothingToUndo.
func (u *UndoBuffer) Undo(ctx context.Context) (types.Session, error) {
	u.mu.Lock()
	if u.slot == nil {
		u.mu.Unlock()
		u.countOutcome("empty")
		return types.Session{}, ErrNothingToUndo
	}
	held := *u.slot
	u.mu.Unlock()

	if err := u.store.InsertAt(ctx, held.Session, held.Index); err != nil {
		return types.Session{}, err
	}

	u.mu.Lock()
	if u.timer != nil {
		u.timer.Stop()
		u.timer = nil
	}
	u.slot = nil
	u.mu.Unlock()

	u.logger.Info("deletion undone",
		zap.Int64("timestamp", held.Session.Timestamp),
		zap.String("name", held.Session.Name))
	u.countOutcome("success")
	return held.Session, nil
}

// Close stops the expiry timer.
func (u *UndoBuffer) Close() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.timer != nil {
		u.timer.Stop()
		u.timer = nil
	}
	u.slot = nil
}
