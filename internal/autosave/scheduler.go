// Package autosave runs the periodic capture loop. The scheduler
// follows the user settings: toggling auto-save or changing the
// interval reconfigures the loop in place.
package autosave

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/SamisDone/tabsaver/internal/domain/session"
	"github.com/SamisDone/tabsaver/internal/logging"
	"github.com/SamisDone/tabsaver/internal/shared/types"
)

// Saver captures the current window as an auto-saved session.
type Saver interface {
	AutoSave(ctx context.Context) (types.Session, error)
}

// Scheduler drives periodic auto-saves.
type Scheduler struct {
	saver  Saver
	logger *logging.Logger
	unit   time.Duration

	updates chan types.Settings
	done    chan struct{}
	once    sync.Once
}

// New creates and starts a scheduler. It stays idle until Apply
// enables it.
func New(saver Saver, logger *logging.Logger) *Scheduler {
	return newWithUnit(saver, logger, time.Minute)
}

// newWithUnit lets tests shrink the interval unit below a minute.
func newWithUnit(saver Saver, logger *logging.Logger, unit time.Duration) *Scheduler {
	s := &Scheduler{
		saver:   saver,
		logger:  logger,
		unit:    unit,
		updates: make(chan types.Settings, 1),
		done:    make(chan struct{}),
	}
	go s.run()
	return s
}

// Apply reconfigures the loop from new settings. Safe to call from a
// settings subscription.
func (s *Scheduler) Apply(settings types.Settings) {
	select {
	case s.updates <- settings:
	case <-s.done:
	}
}

// Close stops the loop.
func (s *Scheduler) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *Scheduler) run() {
	var ticker *time.Ticker
	var tick <-chan time.Time

	stop := func() {
		if ticker != nil {
			ticker.Stop()
			ticker = nil
			tick = nil
		}
	}
	defer stop()

	for {
		select {
		case settings := <-s.updates:
			stop()
			if !settings.AutoSave || settings.AutoSaveInterval < 1 {
				s.logger.Info("auto-save disabled")
				continue
			}
			interval := time.Duration(settings.AutoSaveInterval) * s.unit
			ticker = time.NewTicker(interval)
			tick = ticker.C
			s.logger.Info("auto-save enabled",
				zap.Duration("interval", interval))

		case <-tick:
			s.save()

		case <-s.done:
			return
		}
	}
}

func (s *Scheduler) save() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sess, err := s.saver.AutoSave(ctx)
	if errors.Is(err, session.ErrNoTabs) {
		s.logger.Debug("auto-save skipped, no tabs open")
		return
	}
	if err != nil {
		s.logger.Error("auto-save failed", zap.Error(err))
		return
	}
	s.logger.Debug("auto-save completed",
		zap.Int64("timestamp", sess.Timestamp),
		zap.Int("tabs", sess.TabCount))
}
