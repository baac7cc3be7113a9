package session

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/SamisDone/tabsaver/internal/shared/types"
)

// OpenAll restores every tab of a session into the browser, rebuilding
// tab groups around the tabs that open successfully.
func (s *Service) OpenAll(ctx context.Context, timestamp int64) (int, error) {
	sess, err := s.store.Get(timestamp)
	if err != nil {
		return 0, err
	}

	indices := make([]int, len(sess.Tabs))
	for i := range sess.Tabs {
		indices[i] = i
	}
	return s.open(ctx, sess, indices)
}

// OpenSelected restores only the tabs at the given indices. Indices
// outside the session are skipped.
func (s *Service) OpenSelected(ctx context.Context, timestamp int64, indices []int) (int, error) {
	sess, err := s.store.Get(timestamp)
	if err != nil {
		return 0, err
	}
	if len(indices) == 0 {
		return 0, fmt.Errorf("no tabs selected")
	}
	return s.open(ctx, sess, indices)
}

// open creates the selected tabs and regroups them. A tab that fails
// to open is logged and skipped; its group, if any, forms around the
// surviving members.
func (s *Service) open(ctx context.Context, sess types.Session, indices []int) (int, error) {
	opened := 0
	groupMembers := make(map[int][]int)

	for _, idx := range indices {
		if idx < 0 || idx >= len(sess.Tabs) {
			continue
		}
		tab := sess.Tabs[idx]

		id, err := s.browser.CreateTab(ctx, tab.URL)
		if err != nil {
			s.logger.Warn("tab failed to open",
				zap.String("url", tab.URL),
				zap.Error(err))
			continue
		}
		opened++
		if tab.GroupID != types.UngroupedID {
			groupMembers[tab.GroupID] = append(groupMembers[tab.GroupID], id)
		}
	}
	if opened == 0 {
		return 0, fmt.Errorf("no tabs could be opened")
	}

	for oldID, members := range groupMembers {
		group, ok := sess.TabGroups[oldID]
		if !ok {
			continue
		}
		if _, err := s.browser.GroupTabs(ctx, members, group); err != nil {
			s.logger.Warn("tab group rebuild failed",
				zap.String("group", group.Title),
				zap.Error(err))
		}
	}

	s.logger.Info("session restored",
		zap.Int64("timestamp", sess.Timestamp),
		zap.String("name", sess.Name),
		zap.Int("opened", opened))
	if s.metrics != nil {
		s.metrics.RestoresTotal.Inc()
	}
	return opened, nil
}

// CleanupDuplicates closes tabs whose URL already appears in an
// earlier tab, across all windows. The first occurrence survives.
func (s *Service) CleanupDuplicates(ctx context.Context) (int, error) {
	tabs, err := s.browser.AllTabs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list tabs: %w", err)
	}

	seen := make(map[string]struct{}, len(tabs))
	var toClose []int
	for _, t := range tabs {
		if t.URL == "" {
			continue
		}
		if _, dup := seen[t.URL]; dup {
			toClose = append(toClose, t.ID)
			continue
		}
		seen[t.URL] = struct{}{}
	}
	if len(toClose) == 0 {
		return 0, nil
	}

	if err := s.browser.CloseTabs(ctx, toClose); err != nil {
		return 0, fmt.Errorf("failed to close duplicate tabs: %w", err)
	}
	s.logger.Info("duplicate tabs closed", zap.Int("count", len(toClose)))
	return len(toClose), nil
}
