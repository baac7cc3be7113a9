package session

import (
	"fmt"
	"time"

	"github.com/SamisDone/tabsaver/internal/shared/types"
)

// SnapshotOptions control how a capture becomes a session.
type SnapshotOptions struct {
	// Name overrides the synthesized session name.
	Name string

	// Tags to attach at creation. Validated against the vocabulary by
	// the store, not here.
	Tags []string

	// AutoSave marks the session as produced by the scheduler.
	AutoSave bool

	// Screenshot is a data URL of the window at capture time, or "".
	Screenshot string

	// Groups carries the window's tab groups keyed by group id.
	Groups map[int]types.TabGroup
}

// newSnapshot builds a session from captured tabs. The timestamp is
// assigned by the store when the session is admitted, so it is left
// zero here.
func newSnapshot(tabs []types.TabRef, opts SnapshotOptions) (types.Session, error) {
	if len(tabs) == 0 {
		return types.Session{}, ErrNoTabs
	}

	snaps := make([]types.TabSnapshot, 0, len(tabs))
	groupIDs := make(map[int]struct{})
	for _, t := range tabs {
		snaps = append(snaps, types.TabSnapshot{
			Title:      t.Title,
			URL:        t.URL,
			FavIconURL: t.FavIconURL,
			GroupID:    t.GroupID,
		})
		if t.GroupID != types.UngroupedID {
			groupIDs[t.GroupID] = struct{}{}
		}
	}

	// Only groups actually referenced by a tab are kept.
	var groups map[int]types.TabGroup
	if len(groupIDs) > 0 {
		groups = make(map[int]types.TabGroup, len(groupIDs))
		for id := range groupIDs {
			if g, ok := opts.Groups[id]; ok {
				groups[id] = g
			}
		}
		if len(groups) == 0 {
			groups = nil
		}
	}

	return types.Session{
		Name:       opts.Name,
		Tabs:       snaps,
		TabGroups:  groups,
		TabCount:   len(snaps),
		Tags:       append([]string(nil), opts.Tags...),
		IsAutoSave: opts.AutoSave,
		Screenshot: opts.Screenshot,
	}, nil
}

// synthesizeName produces the default display name for a session saved
// at the given timestamp.
func synthesizeName(timestamp int64, autoSave bool) string {
	when := time.UnixMilli(timestamp).Format("Jan 2, 2006 3:04 PM")
	if autoSave {
		return fmt.Sprintf("Auto-save %s", when)
	}
	return fmt.Sprintf("Session %s", when)
}
