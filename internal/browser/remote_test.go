package browser

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SamisDone/tabsaver/internal/shared/types"
)

func newBridge(t *testing.T, routes map[string]http.HandlerFunc) *Remote {
	t.Helper()
	mux := http.NewServeMux()
	for pattern, fn := range routes {
		mux.HandleFunc(pattern, fn)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewRemote(srv.URL, 2*time.Second)
}

func TestListTabs(t *testing.T) {
	remote := newBridge(t, map[string]http.HandlerFunc{
		"/tabs": func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode([]types.TabRef{
				{ID: 1, Title: "A", URL: "https://a.test/", GroupID: -1},
				{ID: 2, Title: "B", URL: "https://b.test/", GroupID: 3},
			})
		},
	})

	tabs, err := remote.ListTabs(context.Background())
	if err != nil {
		t.Fatalf("ListTabs failed: %v", err)
	}
	if len(tabs) != 2 || tabs[1].GroupID != 3 {
		t.Errorf("unexpected tabs %+v", tabs)
	}
}

func TestCreateTab(t *testing.T) {
	var gotURL string
	remote := newBridge(t, map[string]http.HandlerFunc{
		"/tabs/create": func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				URL string `json:"url"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			gotURL = body.URL
			json.NewEncoder(w).Encode(map[string]int{"id": 42})
		},
	})

	id, err := remote.CreateTab(context.Background(), "https://a.test/")
	if err != nil {
		t.Fatalf("CreateTab failed: %v", err)
	}
	if id != 42 {
		t.Errorf("id %d, want 42", id)
	}
	if gotURL != "https://a.test/" {
		t.Errorf("bridge received url %q", gotURL)
	}
}

func TestGroupTabs(t *testing.T) {
	remote := newBridge(t, map[string]http.HandlerFunc{
		"/tabs/group": func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				TabIDs []int  `json:"tabIds"`
				Title  string `json:"title"`
				Color  string `json:"color"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			if len(body.TabIDs) != 2 || body.Title != "news" {
				http.Error(w, "bad request", http.StatusBadRequest)
				return
			}
			json.NewEncoder(w).Encode(map[string]int{"groupId": 9})
		},
	})

	id, err := remote.GroupTabs(context.Background(), []int{1, 2}, types.TabGroup{Title: "news", Color: "blue"})
	if err != nil {
		t.Fatalf("GroupTabs failed: %v", err)
	}
	if id != 9 {
		t.Errorf("group id %d, want 9", id)
	}
}

func TestBridgeErrorStatus(t *testing.T) {
	remote := newBridge(t, map[string]http.HandlerFunc{
		"/tabs": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "extension not connected", http.StatusServiceUnavailable)
		},
	})

	if _, err := remote.ListTabs(context.Background()); err == nil {
		t.Error("expected error for 503 response")
	}
}

func TestBridgeUnreachable(t *testing.T) {
	remote := NewRemote("http://127.0.0.1:1", 200*time.Millisecond)
	if _, err := remote.ListTabs(context.Background()); err == nil {
		t.Error("expected error for unreachable bridge")
	}
}
