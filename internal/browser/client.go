package browser

import (
	"context"

	"github.com/SamisDone/tabsaver/internal/shared/types"
)

// Client is the browser surface the session manager needs. Every call
// crosses a process boundary, so each takes a context and can fail.
type Client interface {
	// ListTabs returns the tabs of the current window in tab order.
	ListTabs(ctx context.Context) ([]types.TabRef, error)

	// AllTabs returns tabs across every window.
	AllTabs(ctx context.Context) ([]types.TabRef, error)

	// ActiveTab returns the focused tab of the current window.
	ActiveTab(ctx context.Context) (types.TabRef, error)

	// ListGroups returns the tab groups of the current window keyed by
	// group id.
	ListGroups(ctx context.Context) (map[int]types.TabGroup, error)

	// CaptureVisibleArea screenshots the current window as a data URL.
	// Implementations may return "" when capture is unavailable.
	CaptureVisibleArea(ctx context.Context) (string, error)

	// CreateTab opens url and reports the new tab's id.
	CreateTab(ctx context.Context, url string) (int, error)

	// GroupTabs places tabs into a new group with the given title and
	// color, returning the group id.
	GroupTabs(ctx context.Context, tabIDs []int, group types.TabGroup) (int, error)

	// CloseTabs closes the given tabs. Missing ids are ignored.
	CloseTabs(ctx context.Context, tabIDs []int) error
}
