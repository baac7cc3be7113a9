package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/SamisDone/tabsaver/internal/infrastructure/monitoring"
	"github.com/SamisDone/tabsaver/internal/logging"
	"github.com/SamisDone/tabsaver/internal/shared/clock"
	"github.com/SamisDone/tabsaver/internal/shared/types"
	"github.com/SamisDone/tabsaver/internal/storage"
)

// Signaler receives domain events for fan-out to connected clients.
type Signaler interface {
	Signal(types.Event)
}

// Store is the ordered session collection. All mutations are
// write-through: the full sequence is persisted before the in-memory
// state commits, and a failed write leaves the previous state intact.
type Store struct {
	mu       sync.RWMutex
	sessions []types.Session
	revision uint64

	kv      storage.KV
	clock   *clock.Source
	vocab   Vocabulary
	autoCap int
	logger  *logging.Logger
	metrics *monitoring.Metrics
	signal  Signaler
}

// NewStore creates a store backed by kv. Call Load before use.
func NewStore(kv storage.KV, logger *logging.Logger) *Store {
	return &Store{
		kv:      kv,
		clock:   clock.New(),
		vocab:   DefaultVocabulary(),
		autoCap: DefaultAutoSaveCap,
		logger:  logger,
	}
}

// WithMetrics attaches Prometheus metrics.
func (s *Store) WithMetrics(m *monitoring.Metrics) *Store {
	s.metrics = m
	return s
}

// WithSignaler attaches an event sink.
func (s *Store) WithSignaler(sig Signaler) *Store {
	s.signal = sig
	return s
}

// WithVocabulary replaces the tag vocabulary.
func (s *Store) WithVocabulary(v Vocabulary) *Store {
	s.vocab = v
	return s
}

// WithClock replaces the timestamp source. Used in tests.
func (s *Store) WithClock(c *clock.Source) *Store {
	s.clock = c
	return s
}

// WithAutoSaveCap overrides the auto-save retention cap.
func (s *Store) WithAutoSaveCap(cap int) *Store {
	s.autoCap = cap
	return s
}

// Load hydrates the store from persistence.
func (s *Store) Load(ctx context.Context) error {
	data, rev, err := s.kv.Get(ctx, storage.KeySessions)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	var sessions []types.Session
	if data != nil {
		if err := sonic.Unmarshal(data, &sessions); err != nil {
			return fmt.Errorf("corrupt session document: %w", err)
		}
	}

	s.mu.Lock()
	s.sessions = sessions
	s.revision = rev
	s.mu.Unlock()

	s.logger.Info("sessions loaded",
		zap.Int("count", len(sessions)),
		zap.Uint64("revision", rev))
	s.publishCount(len(sessions))
	return nil
}

// persistLocked writes next as the new full sequence. The caller holds
// the write lock. On success the in-memory state commits; on failure it
// is untouched. A single stale-revision conflict triggers one reload
// and retry, since this process is the only writer in normal operation.
func (s *Store) persistLocked(ctx context.Context, next []types.Session) error {
	data, err := sonic.Marshal(next)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	rev, err := s.kv.CompareAndSet(ctx, storage.KeySessions, data, s.revision)
	if errors.Is(err, storage.ErrConflict) {
		s.logger.Warn("session document changed underneath, retrying write",
			zap.Uint64("expected_revision", s.revision))
		_, current, getErr := s.kv.Get(ctx, storage.KeySessions)
		if getErr != nil {
			return fmt.Errorf("%w: %v", ErrPersistence, getErr)
		}
		rev, err = s.kv.CompareAndSet(ctx, storage.KeySessions, data, current)
	}
	if err != nil {
		s.logger.Error("session write failed", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	s.sessions = next
	s.revision = rev
	if s.metrics != nil {
		s.metrics.SessionsTotal.Set(float64(len(next)))
		s.metrics.StorageBytes.Set(float64(len(data)))
	}
	return nil
}

func (s *Store) publishCount(n int) {
	if s.signal != nil {
		s.signal.Signal(types.Event{
			Type:  types.EventSessionCount,
			Count: &n,
		})
	}
}

// cloneLocked returns a copy of the sequence safe to mutate.
func (s *Store) cloneLocked() []types.Session {
	out := make([]types.Session, len(s.sessions))
	copy(out, s.sessions)
	return out
}

// Add admits a manually saved session: allocates its timestamp,
// synthesizes a name if none was given, and persists the grown
// sequence.
func (s *Store) Add(ctx context.Context, tabs []types.TabRef, opts SnapshotOptions) (types.Session, error) {
	opts.AutoSave = false
	return s.add(ctx, tabs, opts)
}

// AddAutoSave admits a scheduler-produced session, evicting the oldest
// auto-saves first so at most the configured cap remain.
func (s *Store) AddAutoSave(ctx context.Context, tabs []types.TabRef, opts SnapshotOptions) (types.Session, error) {
	opts.AutoSave = true
	return s.add(ctx, tabs, opts)
}

func (s *Store) add(ctx context.Context, tabs []types.TabRef, opts SnapshotOptions) (types.Session, error) {
	sess, err := newSnapshot(tabs, opts)
	if err != nil {
		return types.Session{}, err
	}
	for _, tag := range sess.Tags {
		if !s.vocab.Contains(tag) {
			return types.Session{}, fmt.Errorf("%w: %q", ErrUnknownTag, tag)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cloneLocked()
	var evicted []types.Session
	if sess.IsAutoSave {
		next, evicted = pruneAutoSaves(next, s.autoCap)
	}

	sess.Timestamp = s.clock.Next()
	if sess.Name == "" {
		sess.Name = synthesizeName(sess.Timestamp, sess.IsAutoSave)
	}
	next = append(next, sess)

	if err := s.persistLocked(ctx, next); err != nil {
		return types.Session{}, err
	}

	trigger := "manual"
	if sess.IsAutoSave {
		trigger = "auto"
	}
	s.logger.Info("session saved",
		zap.Int64("timestamp", sess.Timestamp),
		zap.String("name", sess.Name),
		zap.Int("tabs", sess.TabCount),
		zap.String("trigger", trigger))
	if s.metrics != nil {
		s.metrics.SavesTotal.WithLabelValues(trigger).Inc()
		s.metrics.AutoSaveEvictions.Add(float64(len(evicted)))
	}
	for _, e := range evicted {
		s.logger.Info("auto-save evicted",
			zap.Int64("timestamp", e.Timestamp),
			zap.String("name", e.Name))
	}
	s.publishCount(len(next))
	return sess.Clone(), nil
}

// List returns the full sequence in insertion order.
func (s *Store) List() []types.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Session, len(s.sessions))
	for i, sess := range s.sessions {
		out[i] = sess.Clone()
	}
	return out
}

// Search returns sessions whose name, tags, or tab titles and URLs
// contain q, case-insensitively. An empty query matches everything.
func (s *Store) Search(q string) []types.Session {
	if q == "" {
		return s.List()
	}
	q = strings.ToLower(q)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []types.Session
	for _, sess := range s.sessions {
		if matchesQuery(sess, q) {
			out = append(out, sess.Clone())
		}
	}
	return out
}

func matchesQuery(sess types.Session, q string) bool {
	if strings.Contains(strings.ToLower(sess.Name), q) {
		return true
	}
	for _, tag := range sess.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	for _, tab := range sess.Tabs {
		if strings.Contains(strings.ToLower(tab.Title), q) ||
			strings.Contains(strings.ToLower(tab.URL), q) {
			return true
		}
	}
	return false
}

// Get returns the session with the given timestamp.
func (s *Store) Get(timestamp int64) (types.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sess := range s.sessions {
		if sess.Timestamp == timestamp {
			return sess.Clone(), nil
		}
	}
	return types.Session{}, fmt.Errorf("%w: %d", ErrNotFound, timestamp)
}

// Len reports the number of stored sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// update applies mutate to a copy of the identified session and
// persists the result. Mutate returns false to skip persistence when
// the change is a no-op.
func (s *Store) update(ctx context.Context, timestamp int64, mutate func(*types.Session) bool) (types.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, sess := range s.sessions {
		if sess.Timestamp == timestamp {
			idx = i
			break
		}
	}
	if idx == -1 {
		return types.Session{}, fmt.Errorf("%w: %d", ErrNotFound, timestamp)
	}

	next := s.cloneLocked()
	changed := next[idx].Clone()
	if !mutate(&changed) {
		return s.sessions[idx].Clone(), nil
	}
	next[idx] = changed

	if err := s.persistLocked(ctx, next); err != nil {
		return types.Session{}, err
	}
	return changed.Clone(), nil
}

// Rename sets a session's display name.
func (s *Store) Rename(ctx context.Context, timestamp int64, name string) (types.Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return types.Session{}, fmt.Errorf("session name must not be empty")
	}
	return s.update(ctx, timestamp, func(sess *types.Session) bool {
		if sess.Name == name {
			return false
		}
		sess.Name = name
		return true
	})
}

// AddTag attaches a vocabulary tag. Attaching a tag the session
// already carries is a no-op and does not touch persistence.
func (s *Store) AddTag(ctx context.Context, timestamp int64, tag string) (types.Session, error) {
	if !s.vocab.Contains(tag) {
		return types.Session{}, fmt.Errorf("%w: %q", ErrUnknownTag, tag)
	}
	return s.update(ctx, timestamp, func(sess *types.Session) bool {
		if sess.HasTag(tag) {
			return false
		}
		sess.Tags = append(sess.Tags, tag)
		return true
	})
}

// RemoveTag detaches a tag. Removing an absent tag is a no-op.
func (s *Store) RemoveTag(ctx context.Context, timestamp int64, tag string) (types.Session, error) {
	return s.update(ctx, timestamp, func(sess *types.Session) bool {
		for i, t := range sess.Tags {
			if t == tag {
				sess.Tags = append(sess.Tags[:i], sess.Tags[i+1:]...)
				return true
			}
		}
		return false
	})
}

// Remove deletes a session, reporting the removed session together
// with the position it held so an undo can reinsert it.
func (s *Store) Remove(ctx context.Context, timestamp int64) (types.RemovedSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, sess := range s.sessions {
		if sess.Timestamp == timestamp {
			idx = i
			break
		}
	}
	if idx == -1 {
		return types.RemovedSession{}, fmt.Errorf("%w: %d", ErrNotFound, timestamp)
	}

	removed := s.sessions[idx].Clone()
	next := s.cloneLocked()
	next = append(next[:idx], next[idx+1:]...)

	if err := s.persistLocked(ctx, next); err != nil {
		return types.RemovedSession{}, err
	}

	s.logger.Info("session deleted",
		zap.Int64("timestamp", timestamp),
		zap.String("name", removed.Name))
	s.publishCount(len(next))
	return types.RemovedSession{Session: removed, Index: idx}, nil
}

// InsertAt reinserts a session at index, clamped to the sequence
// bounds. The whole splice happens under the write lock so mutations
// landing while an undo slot was armed are never overwritten.
func (s *Store) InsertAt(ctx context.Context, sess types.Session, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.sessions {
		if existing.Timestamp == sess.Timestamp {
			return fmt.Errorf("%w: %d", ErrDuplicateTimestamp, sess.Timestamp)
		}
	}
	if index < 0 {
		index = 0
	}
	if index > len(s.sessions) {
		index = len(s.sessions)
	}

	next := make([]types.Session, 0, len(s.sessions)+1)
	next = append(next, s.sessions[:index]...)
	next = append(next, sess.Clone())
	next = append(next, s.sessions[index:]...)

	if err := s.persistLocked(ctx, next); err != nil {
		return err
	}
	s.publishCount(len(next))
	return nil
}

// Reorder moves the dragged session to the position of the target
// session. Positions only make sense against the full sequence, so a
// reorder computed from a filtered view is rejected.
func (s *Store) Reorder(ctx context.Context, dragged, target int64, fullView bool) error {
	if !fullView {
		if s.signal != nil {
			s.signal.Signal(types.Event{
				Type:   types.EventReorderRejected,
				Reason: "clear the filter before reordering",
			})
		}
		return ErrFilteredView
	}
	if dragged == target {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	from, to := -1, -1
	for i, sess := range s.sessions {
		switch sess.Timestamp {
		case dragged:
			from = i
		case target:
			to = i
		}
	}
	if from == -1 || to == -1 {
		// Stale ids from a list that changed underneath; nothing to move.
		return nil
	}

	next := s.cloneLocked()
	moved := next[from]
	next = append(next[:from], next[from+1:]...)
	// Recompute the target's slot after removal shifted indices.
	insert := to
	if from < to {
		insert = to - 1
	}
	next = append(next[:insert], append([]types.Session{moved}, next[insert:]...)...)

	return s.persistLocked(ctx, next)
}

// BulkReplace swaps the entire sequence, used by undo reinsertion and
// import merges. Two sessions sharing a timestamp would be
// indistinguishable, so such a sequence is rejected before any write.
func (s *Store) BulkReplace(ctx context.Context, sessions []types.Session) error {
	seen := make(map[int64]struct{}, len(sessions))
	for _, sess := range sessions {
		if _, dup := seen[sess.Timestamp]; dup {
			return fmt.Errorf("%w: %d", ErrDuplicateTimestamp, sess.Timestamp)
		}
		seen[sess.Timestamp] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]types.Session, len(sessions))
	for i, sess := range sessions {
		next[i] = sess.Clone()
	}
	if err := s.persistLocked(ctx, next); err != nil {
		return err
	}
	s.publishCount(len(next))
	return nil
}
