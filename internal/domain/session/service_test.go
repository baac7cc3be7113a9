package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/SamisDone/tabsaver/internal/logging"
	"github.com/SamisDone/tabsaver/internal/shared/types"
)

// fakeBrowser implements browser.Client for tests.
type fakeBrowser struct {
	tabs      []types.TabRef
	allTabs   []types.TabRef
	groups    map[int]types.TabGroup
	shot      string
	listErr   error
	createErr map[string]error

	mu      sync.Mutex
	created []string
	grouped [][]int
	closed  []int
	nextID  int
}

func (f *fakeBrowser) ListTabs(ctx context.Context) ([]types.TabRef, error) {
	return f.tabs, f.listErr
}

func (f *fakeBrowser) AllTabs(ctx context.Context) ([]types.TabRef, error) {
	if f.allTabs != nil {
		return f.allTabs, nil
	}
	return f.tabs, f.listErr
}

func (f *fakeBrowser) ActiveTab(ctx context.Context) (types.TabRef, error) {
	for _, t := range f.tabs {
		if t.Active {
			return t, nil
		}
	}
	if len(f.tabs) == 0 {
		return types.TabRef{}, errors.New("no tabs")
	}
	return f.tabs[0], nil
}

func (f *fakeBrowser) ListGroups(ctx context.Context) (map[int]types.TabGroup, error) {
	return f.groups, nil
}

func (f *fakeBrowser) CaptureVisibleArea(ctx context.Context) (string, error) {
	return f.shot, nil
}

func (f *fakeBrowser) CreateTab(ctx context.Context, url string) (int, error) {
	if err := f.createErr[url]; err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.created = append(f.created, url)
	return f.nextID, nil
}

func (f *fakeBrowser) GroupTabs(ctx context.Context, tabIDs []int, group types.TabGroup) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.grouped = append(f.grouped, tabIDs)
	return 100 + len(f.grouped), nil
}

func (f *fakeBrowser) CloseTabs(ctx context.Context, tabIDs []int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = append(f.closed, tabIDs...)
	return nil
}

// fakeSettings returns fixed settings.
type fakeSettings struct{ s types.Settings }

func (f fakeSettings) Get() types.Settings { return f.s }

// fakeSignaler records published events.
type fakeSignaler struct {
	mu     sync.Mutex
	events []types.Event
}

func (f *fakeSignaler) Signal(e types.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
}

func (f *fakeSignaler) byType(t types.EventType) []types.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []types.Event
	for _, e := range f.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func newTestService(t *testing.T, fb *fakeBrowser) (*Service, *Store, *fakeSignaler) {
	t.Helper()
	st, _ := newTestStore(t)
	sig := &fakeSignaler{}
	st.WithSignaler(sig)
	svc := NewService(st, fb, logging.NewNop()).
		WithSignaler(sig).
		WithSettings(fakeSettings{s: types.Settings{DuplicateDetection: true, AutoSaveInterval: 30}})
	return svc, st, sig
}

func TestSaveCurrentCapturesWindow(t *testing.T) {
	fb := &fakeBrowser{
		tabs: []types.TabRef{
			{ID: 1, Title: "A", URL: "https://a.test/", GroupID: 5},
			{ID: 2, Title: "B", URL: "https://b.test/", GroupID: types.UngroupedID},
		},
		groups: map[int]types.TabGroup{5: {Title: "news", Color: "blue"}},
		shot:   "data:image/png;base64,xxxx",
	}
	svc, st, _ := newTestService(t, fb)

	sess, err := svc.SaveCurrent(context.Background(), types.SaveRequest{Name: "my window"})
	if err != nil {
		t.Fatalf("SaveCurrent failed: %v", err)
	}
	if sess.TabCount != 2 {
		t.Errorf("tab count %d, want 2", sess.TabCount)
	}
	if sess.Screenshot == "" {
		t.Error("screenshot missing")
	}
	if g, ok := sess.TabGroups[5]; !ok || g.Title != "news" {
		t.Errorf("tab group not captured: %+v", sess.TabGroups)
	}
	if st.Len() != 1 {
		t.Errorf("store holds %d sessions, want 1", st.Len())
	}
}

func TestSaveCurrentWarnsOnDuplicate(t *testing.T) {
	fb := &fakeBrowser{tabs: []types.TabRef{
		{ID: 1, URL: "https://a.test/", GroupID: types.UngroupedID},
	}}
	svc, _, sig := newTestService(t, fb)
	ctx := context.Background()

	if _, err := svc.SaveCurrent(ctx, types.SaveRequest{Name: "first"}); err != nil {
		t.Fatalf("SaveCurrent failed: %v", err)
	}
	if _, err := svc.SaveCurrent(ctx, types.SaveRequest{Name: "second"}); err != nil {
		t.Fatalf("second SaveCurrent failed: %v", err)
	}

	warnings := sig.byType(types.EventDuplicateWarning)
	if len(warnings) != 1 {
		t.Fatalf("got %d duplicate warnings, want 1", len(warnings))
	}
	if warnings[0].Warning.SessionName != "first" {
		t.Errorf("warning names %q, want first", warnings[0].Warning.SessionName)
	}
	if warnings[0].Warning.Percent != 100 {
		t.Errorf("warning percent %d, want 100", warnings[0].Warning.Percent)
	}
}

func TestSaveCurrentDetectionOff(t *testing.T) {
	fb := &fakeBrowser{tabs: []types.TabRef{
		{ID: 1, URL: "https://a.test/", GroupID: types.UngroupedID},
	}}
	svc, _, sig := newTestService(t, fb)
	svc.WithSettings(fakeSettings{s: types.Settings{DuplicateDetection: false}})
	ctx := context.Background()

	svc.SaveCurrent(ctx, types.SaveRequest{})
	svc.SaveCurrent(ctx, types.SaveRequest{})

	if got := sig.byType(types.EventDuplicateWarning); len(got) != 0 {
		t.Errorf("got %d warnings with detection off, want 0", len(got))
	}
}

func TestSaveActiveTab(t *testing.T) {
	fb := &fakeBrowser{tabs: []types.TabRef{
		{ID: 1, Title: "Background", URL: "https://a.test/", GroupID: types.UngroupedID},
		{ID: 2, Title: "Focused page", URL: "https://b.test/", GroupID: types.UngroupedID, Active: true},
	}}
	svc, _, _ := newTestService(t, fb)

	sess, err := svc.SaveActiveTab(context.Background(), types.SaveRequest{})
	if err != nil {
		t.Fatalf("SaveActiveTab failed: %v", err)
	}
	if sess.TabCount != 1 || sess.Tabs[0].URL != "https://b.test/" {
		t.Errorf("unexpected tabs %+v", sess.Tabs)
	}
	if sess.Name != "Focused page" {
		t.Errorf("name %q, want the tab title", sess.Name)
	}
}

func TestAutoSaveSkipsEmptyWindow(t *testing.T) {
	svc, st, _ := newTestService(t, &fakeBrowser{})
	if _, err := svc.AutoSave(context.Background()); !errors.Is(err, ErrNoTabs) {
		t.Errorf("expected ErrNoTabs, got %v", err)
	}
	if st.Len() != 0 {
		t.Error("empty auto-save was stored")
	}
}

func TestAutoSaveMarksSession(t *testing.T) {
	fb := &fakeBrowser{tabs: []types.TabRef{
		{ID: 1, URL: "https://a.test/", GroupID: types.UngroupedID},
	}}
	svc, _, _ := newTestService(t, fb)

	sess, err := svc.AutoSave(context.Background())
	if err != nil {
		t.Fatalf("AutoSave failed: %v", err)
	}
	if !sess.IsAutoSave {
		t.Error("session not marked as auto-save")
	}
	if sess.Name == "" {
		t.Error("auto-save name not synthesized")
	}
}

func TestDuplicateCheck(t *testing.T) {
	fb := &fakeBrowser{tabs: []types.TabRef{
		{ID: 1, URL: "https://a.test/", GroupID: types.UngroupedID},
	}}
	svc, _, _ := newTestService(t, fb)
	ctx := context.Background()

	if _, found, err := svc.DuplicateCheck(ctx); err != nil || found {
		t.Fatalf("empty store: found=%v err=%v", found, err)
	}

	svc.SaveCurrent(ctx, types.SaveRequest{Name: "existing"})

	match, found, err := svc.DuplicateCheck(ctx)
	if err != nil {
		t.Fatalf("DuplicateCheck failed: %v", err)
	}
	if !found || match.Session.Name != "existing" {
		t.Errorf("found=%v match=%+v", found, match)
	}
}

func TestOpenAllRebuildsGroups(t *testing.T) {
	fb := &fakeBrowser{tabs: []types.TabRef{
		{ID: 1, Title: "A", URL: "https://a.test/", GroupID: 7},
		{ID: 2, Title: "B", URL: "https://b.test/", GroupID: 7},
		{ID: 3, Title: "C", URL: "https://c.test/", GroupID: types.UngroupedID},
	}, groups: map[int]types.TabGroup{7: {Title: "pair", Color: "red"}}}
	svc, _, _ := newTestService(t, fb)
	ctx := context.Background()

	sess, err := svc.SaveCurrent(ctx, types.SaveRequest{})
	if err != nil {
		t.Fatalf("SaveCurrent failed: %v", err)
	}

	opened, err := svc.OpenAll(ctx, sess.Timestamp)
	if err != nil {
		t.Fatalf("OpenAll failed: %v", err)
	}
	if opened != 3 {
		t.Errorf("opened %d tabs, want 3", opened)
	}
	if len(fb.grouped) != 1 || len(fb.grouped[0]) != 2 {
		t.Errorf("grouping calls %+v, want one group of 2", fb.grouped)
	}
}

func TestOpenAllSkipsFailedTabs(t *testing.T) {
	fb := &fakeBrowser{tabs: []types.TabRef{
		{ID: 1, URL: "https://ok.test/", GroupID: types.UngroupedID},
		{ID: 2, URL: "https://broken.test/", GroupID: types.UngroupedID},
	}, createErr: map[string]error{"https://broken.test/": errors.New("blocked")}}
	svc, _, _ := newTestService(t, fb)
	ctx := context.Background()

	sess, _ := svc.SaveCurrent(ctx, types.SaveRequest{})
	opened, err := svc.OpenAll(ctx, sess.Timestamp)
	if err != nil {
		t.Fatalf("OpenAll failed: %v", err)
	}
	if opened != 1 {
		t.Errorf("opened %d tabs, want 1", opened)
	}
}

func TestOpenSelected(t *testing.T) {
	fb := &fakeBrowser{tabs: []types.TabRef{
		{ID: 1, URL: "https://1.test/", GroupID: types.UngroupedID},
		{ID: 2, URL: "https://2.test/", GroupID: types.UngroupedID},
		{ID: 3, URL: "https://3.test/", GroupID: types.UngroupedID},
	}}
	svc, _, _ := newTestService(t, fb)
	ctx := context.Background()

	sess, _ := svc.SaveCurrent(ctx, types.SaveRequest{})
	opened, err := svc.OpenSelected(ctx, sess.Timestamp, []int{0, 2, 99})
	if err != nil {
		t.Fatalf("OpenSelected failed: %v", err)
	}
	if opened != 2 {
		t.Errorf("opened %d tabs, want 2", opened)
	}
	if fb.created[0] != "https://1.test/" || fb.created[1] != "https://3.test/" {
		t.Errorf("opened %v", fb.created)
	}
}

func TestOpenUnknownSession(t *testing.T) {
	svc, _, _ := newTestService(t, &fakeBrowser{})
	if _, err := svc.OpenAll(context.Background(), 12345); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCleanupDuplicates(t *testing.T) {
	fb := &fakeBrowser{allTabs: []types.TabRef{
		{ID: 1, URL: "https://a.test/", GroupID: types.UngroupedID},
		{ID: 2, URL: "https://b.test/", GroupID: types.UngroupedID},
		{ID: 3, URL: "https://a.test/", GroupID: types.UngroupedID},
		{ID: 4, URL: "https://a.test/", GroupID: types.UngroupedID},
	}}
	svc, _, _ := newTestService(t, fb)

	closed, err := svc.CleanupDuplicates(context.Background())
	if err != nil {
		t.Fatalf("CleanupDuplicates failed: %v", err)
	}
	if closed != 2 {
		t.Errorf("closed %d tabs, want 2", closed)
	}
	if len(fb.closed) != 2 || fb.closed[0] != 3 || fb.closed[1] != 4 {
		t.Errorf("closed ids %v, want [3 4]", fb.closed)
	}
}
