package settings

import (
	"context"
	"testing"

	"github.com/SamisDone/tabsaver/internal/logging"
	"github.com/SamisDone/tabsaver/internal/shared/types"
	"github.com/SamisDone/tabsaver/internal/storage"
)

func newTestManager(t *testing.T) (*Manager, *storage.Memory) {
	t.Helper()
	kv := storage.NewMemory()
	m := NewManager(kv, logging.NewNop())
	if err := m.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return m, kv
}

func TestDefaultsWhenNeverSaved(t *testing.T) {
	m, _ := newTestManager(t)

	got := m.Get()
	want := types.DefaultSettings()
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestUpdatePersists(t *testing.T) {
	m, kv := newTestManager(t)
	ctx := context.Background()

	next := types.Settings{AutoSave: true, AutoSaveInterval: 15, DuplicateDetection: false}
	if err := m.Update(ctx, next); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if m.Get() != next {
		t.Errorf("got %+v, want %+v", m.Get(), next)
	}

	// A fresh manager over the same storage sees the update.
	reloaded := NewManager(kv, logging.NewNop())
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Get() != next {
		t.Errorf("reloaded %+v, want %+v", reloaded.Get(), next)
	}
}

func TestUpdateRejectsBadInterval(t *testing.T) {
	m, _ := newTestManager(t)

	err := m.Update(context.Background(), types.Settings{AutoSave: true, AutoSaveInterval: 0})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if m.Get() != types.DefaultSettings() {
		t.Error("rejected update changed settings")
	}
}

func TestSubscribersNotified(t *testing.T) {
	m, _ := newTestManager(t)

	var seen []types.Settings
	m.Subscribe(func(s types.Settings) { seen = append(seen, s) })

	next := types.Settings{AutoSave: true, AutoSaveInterval: 5, DuplicateDetection: true}
	if err := m.Update(context.Background(), next); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if len(seen) != 1 || seen[0] != next {
		t.Errorf("subscriber saw %+v", seen)
	}
}
