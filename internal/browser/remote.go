package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/SamisDone/tabsaver/internal/shared/types"
)

// Remote drives a browser through the extension's local bridge, a
// small HTTP surface the extension exposes on the loopback interface.
type Remote struct {
	client *resty.Client
}

// NewRemote creates a client for the bridge at baseURL.
func NewRemote(baseURL string, timeout time.Duration) *Remote {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	return &Remote{client: client}
}

func (r *Remote) get(ctx context.Context, path string, out interface{}) error {
	resp, err := r.client.R().SetContext(ctx).SetResult(out).Get(path)
	if err != nil {
		return fmt.Errorf("bridge request %s failed: %w", path, err)
	}
	if resp.IsError() {
		return fmt.Errorf("bridge request %s returned %s", path, resp.Status())
	}
	return nil
}

func (r *Remote) post(ctx context.Context, path string, body, out interface{}) error {
	req := r.client.R().SetContext(ctx).SetBody(body)
	if out != nil {
		req.SetResult(out)
	}
	resp, err := req.Post(path)
	if err != nil {
		return fmt.Errorf("bridge request %s failed: %w", path, err)
	}
	if resp.IsError() {
		return fmt.Errorf("bridge request %s returned %s", path, resp.Status())
	}
	return nil
}

// ListTabs returns the current window's tabs.
func (r *Remote) ListTabs(ctx context.Context) ([]types.TabRef, error) {
	var tabs []types.TabRef
	if err := r.get(ctx, "/tabs", &tabs); err != nil {
		return nil, err
	}
	return tabs, nil
}

// AllTabs returns tabs across every window.
func (r *Remote) AllTabs(ctx context.Context) ([]types.TabRef, error) {
	var tabs []types.TabRef
	if err := r.get(ctx, "/tabs/all", &tabs); err != nil {
		return nil, err
	}
	return tabs, nil
}

// ActiveTab returns the focused tab of the current window.
func (r *Remote) ActiveTab(ctx context.Context) (types.TabRef, error) {
	var tab types.TabRef
	if err := r.get(ctx, "/tabs/active", &tab); err != nil {
		return types.TabRef{}, err
	}
	return tab, nil
}

// ListGroups returns the current window's tab groups.
func (r *Remote) ListGroups(ctx context.Context) (map[int]types.TabGroup, error) {
	var groups map[int]types.TabGroup
	if err := r.get(ctx, "/groups", &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// CaptureVisibleArea screenshots the current window.
func (r *Remote) CaptureVisibleArea(ctx context.Context) (string, error) {
	var out struct {
		DataURL string `json:"dataUrl"`
	}
	if err := r.get(ctx, "/capture", &out); err != nil {
		return "", err
	}
	return out.DataURL, nil
}

// CreateTab opens a URL in a new tab.
func (r *Remote) CreateTab(ctx context.Context, url string) (int, error) {
	var out struct {
		ID int `json:"id"`
	}
	body := map[string]string{"url": url}
	if err := r.post(ctx, "/tabs/create", body, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

// GroupTabs places tabs into a new group.
func (r *Remote) GroupTabs(ctx context.Context, tabIDs []int, group types.TabGroup) (int, error) {
	var out struct {
		GroupID int `json:"groupId"`
	}
	body := map[string]interface{}{
		"tabIds": tabIDs,
		"title":  group.Title,
		"color":  group.Color,
	}
	if err := r.post(ctx, "/tabs/group", body, &out); err != nil {
		return 0, err
	}
	return out.GroupID, nil
}

// CloseTabs closes the given tabs.
func (r *Remote) CloseTabs(ctx context.Context, tabIDs []int) error {
	body := map[string][]int{"tabIds": tabIDs}
	return r.post(ctx, "/tabs/close", body, nil)
}
