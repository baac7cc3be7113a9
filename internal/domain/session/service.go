package session

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/SamisDone/tabsaver/internal/browser"
	"github.com/SamisDone/tabsaver/internal/infrastructure/monitoring"
	"github.com/SamisDone/tabsaver/internal/logging"
	"github.com/SamisDone/tabsaver/internal/shared/types"
)

// FaviconResolver finds an icon URL for a page that reported none.
// Implementations degrade to "" rather than failing.
type FaviconResolver interface {
	Resolve(ctx context.Context, pageURL string) string
}

// SettingsSource exposes the current user settings.
type SettingsSource interface {
	Get() types.Settings
}

// Service drives the browser to capture and restore sessions, applying
// user settings along the way. The store owns persistence; the service
// owns everything that touches live tabs.
type Service struct {
	store    *Store
	browser  browser.Client
	favicons FaviconResolver
	settings SettingsSource
	logger   *logging.Logger
	metrics  *monitoring.Metrics
	signal   Signaler
}

// NewService creates a service over store and client.
func NewService(store *Store, client browser.Client, logger *logging.Logger) *Service {
	return &Service{store: store, browser: client, logger: logger}
}

// WithFavicons attaches a favicon resolver.
func (s *Service) WithFavicons(r FaviconResolver) *Service {
	s.favicons = r
	return s
}

// WithSettings attaches a settings source.
func (s *Service) WithSettings(src SettingsSource) *Service {
	s.settings = src
	return s
}

// WithMetrics attaches Prometheus metrics.
func (s *Service) WithMetrics(m *monitoring.Metrics) *Service {
	s.metrics = m
	return s
}

// WithSignaler attaches an event sink.
func (s *Service) WithSignaler(sig Signaler) *Service {
	s.signal = sig
	return s
}

// capture collects the current window's tabs, groups, and screenshot.
// Screenshot and favicon failures degrade silently; a session without
// either is still useful.
func (s *Service) capture(ctx context.Context) ([]types.TabRef, map[int]types.TabGroup, string, error) {
	tabs, err := s.browser.ListTabs(ctx)
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to list tabs: %w", err)
	}

	groups, err := s.browser.ListGroups(ctx)
	if err != nil {
		s.logger.Warn("tab group listing failed", zap.Error(err))
		groups = nil
	}

	shot, err := s.browser.CaptureVisibleArea(ctx)
	if err != nil {
		s.logger.Debug("screenshot capture failed", zap.Error(err))
		shot = ""
	}

	if s.favicons != nil {
		for i := range tabs {
			if tabs[i].FavIconURL == "" && isComparableURL(tabs[i].URL) {
				tabs[i].FavIconURL = s.favicons.Resolve(ctx, tabs[i].URL)
			}
		}
	}
	return tabs, groups, shot, nil
}

// SaveCurrent captures the current window as a manually saved session.
// When duplicate detection is on and an existing session overlaps past
// the threshold, a warning event is published, but the save proceeds;
// callers wanting confirmation first use DuplicateCheck.
func (s *Service) SaveCurrent(ctx context.Context, req types.SaveRequest) (types.Session, error) {
	tabs, groups, shot, err := s.capture(ctx)
	if err != nil {
		return types.Session{}, err
	}

	if s.duplicateDetectionOn() {
		if match, found := mostSimilar(s.store.List(), tabRefsToSnapshots(tabs)); found {
			s.warnDuplicate(match)
		}
	}

	return s.store.Add(ctx, tabs, SnapshotOptions{
		Name:       req.Name,
		Tags:       req.Tags,
		Screenshot: shot,
		Groups:     groups,
	})
}

// SaveActiveTab saves only the focused tab as a one-tab session.
func (s *Service) SaveActiveTab(ctx context.Context, req types.SaveRequest) (types.Session, error) {
	tab, err := s.browser.ActiveTab(ctx)
	if err != nil {
		return types.Session{}, fmt.Errorf("failed to read active tab: %w", err)
	}
	if s.favicons != nil && tab.FavIconURL == "" && isComparableURL(tab.URL) {
		tab.FavIconURL = s.favicons.Resolve(ctx, tab.URL)
	}

	name := req.Name
	if name == "" && tab.Title != "" {
		name = tab.Title
	}
	return s.store.Add(ctx, []types.TabRef{tab}, SnapshotOptions{
		Name: name,
		Tags: req.Tags,
	})
}

// AutoSave captures the current window on behalf of the scheduler.
// An empty window is skipped rather than stored.
func (s *Service) AutoSave(ctx context.Context) (types.Session, error) {
	tabs, groups, shot, err := s.capture(ctx)
	if err != nil {
		return types.Session{}, err
	}
	if len(tabs) == 0 {
		return types.Session{}, ErrNoTabs
	}

	return s.store.AddAutoSave(ctx, tabs, SnapshotOptions{
		Screenshot: shot,
		Groups:     groups,
	})
}

// DuplicateCheck scores the current window against every stored
// session and reports the best match at or above the threshold.
func (s *Service) DuplicateCheck(ctx context.Context) (Match, bool, error) {
	tabs, err := s.browser.ListTabs(ctx)
	if err != nil {
		return Match{}, false, fmt.Errorf("failed to list tabs: %w", err)
	}
	match, found := mostSimilar(s.store.List(), tabRefsToSnapshots(tabs))
	return match, found, nil
}

func (s *Service) duplicateDetectionOn() bool {
	if s.settings == nil {
		return types.DefaultSettings().DuplicateDetection
	}
	return s.settings.Get().DuplicateDetection
}

func (s *Service) warnDuplicate(match Match) {
	s.logger.Info("duplicate session detected",
		zap.Int64("timestamp", match.Session.Timestamp),
		zap.String("name", match.Session.Name),
		zap.Float64("score", match.Score))
	if s.signal != nil {
		s.signal.Signal(types.Event{
			Type: types.EventDuplicateWarning,
			Warning: &types.DuplicateWarning{
				SessionName: match.Session.Name,
				Percent:     int(match.Score * 100),
			},
		})
	}
}

func tabRefsToSnapshots(tabs []types.TabRef) []types.TabSnapshot {
	out := make([]types.TabSnapshot, len(tabs))
	for i, t := range tabs {
		out[i] = types.TabSnapshot{
			Title:      t.Title,
			URL:        t.URL,
			FavIconURL: t.FavIconURL,
			GroupID:    t.GroupID,
		}
	}
	return out
}
