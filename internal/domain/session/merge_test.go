package session

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bytedance/sonic"

	"github.com/SamisDone/tabsaver/internal/shared/types"
)

func TestParseImportBareArray(t *testing.T) {
	doc := `[{"timestamp": 42, "name": "trip planning", "tabs": [{"url": "https://a.test/", "title": "A"}]}]`

	sessions, err := ParseImport([]byte(doc))
	if err != nil {
		t.Fatalf("ParseImport failed: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(sessions))
	}
	if sessions[0].Timestamp != 42 || sessions[0].Name != "trip planning" {
		t.Errorf("unexpected session %+v", sessions[0])
	}
	if sessions[0].TabCount != 1 {
		t.Errorf("tab count %d, want 1", sessions[0].TabCount)
	}
}

func TestParseImportVersionedDocument(t *testing.T) {
	doc := `{"version": "1.0", "exportDate": "2026-01-15T10:00:00Z", "sessions": [
		{"timestamp": 1, "name": "one", "tabs": []}
	]}`

	sessions, err := ParseImport([]byte(doc))
	if err != nil {
		t.Fatalf("ParseImport failed: %v", err)
	}
	if len(sessions) != 1 || sessions[0].Name != "one" {
		t.Errorf("unexpected sessions %+v", sessions)
	}
}

func TestParseImportRejectsGarbage(t *testing.T) {
	for _, doc := range []string{
		`not json at all`,
		`{"unrelated": true}`,
		`123`,
	} {
		if _, err := ParseImport([]byte(doc)); !errors.Is(err, ErrFormat) {
			t.Errorf("ParseImport(%q) = %v, want ErrFormat", doc, err)
		}
	}
}

func TestParseImportSkipsInvalidRecords(t *testing.T) {
	doc := `[
		{"timestamp": 0, "name": "no identity", "tabs": []},
		{"timestamp": 2, "name": "", "tabs": []},
		{"timestamp": 3, "name": "no tabs"},
		{"timestamp": 4, "name": "good", "tabs": []}
	]`

	sessions, err := ParseImport([]byte(doc))
	if err != nil {
		t.Fatalf("ParseImport failed: %v", err)
	}
	if len(sessions) != 1 || sessions[0].Timestamp != 4 {
		t.Errorf("got %+v, want only the valid record", sessions)
	}
}

func TestParseImportAllInvalidIsFormatError(t *testing.T) {
	if _, err := ParseImport([]byte(`[{"timestamp": 0}]`)); !errors.Is(err, ErrFormat) {
		t.Errorf("expected ErrFormat, got %v", err)
	}
}

func TestParseImportSanitizesMarkup(t *testing.T) {
	doc := `[{"timestamp": 1, "name": "<script>alert(1)</script>work", "tabs": [
		{"url": "https://a.test/", "title": "<img src=x onerror=alert(1)>A"}
	]}]`

	sessions, err := ParseImport([]byte(doc))
	if err != nil {
		t.Fatalf("ParseImport failed: %v", err)
	}
	if strings.Contains(sessions[0].Name, "<") {
		t.Errorf("name kept markup: %q", sessions[0].Name)
	}
	if strings.Contains(sessions[0].Tabs[0].Title, "<") {
		t.Errorf("title kept markup: %q", sessions[0].Tabs[0].Title)
	}
}

func TestParseImportDropsNonImageScreenshot(t *testing.T) {
	doc := `[{"timestamp": 1, "name": "x", "tabs": [],
		"screenshot": "data:text/html;base64,PHNjcmlwdD5hbGVydCgxKTwvc2NyaXB0Pg=="}]`

	sessions, err := ParseImport([]byte(doc))
	if err != nil {
		t.Fatalf("ParseImport failed: %v", err)
	}
	if sessions[0].Screenshot != "" {
		t.Error("non-image screenshot should be dropped")
	}
}

func TestParseImportKeepsImageScreenshot(t *testing.T) {
	// A 1x1 PNG.
	png := "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNk+M9QDwADhgGAWjR9awAAAABJRU5ErkJggg=="
	doc := `[{"timestamp": 1, "name": "x", "tabs": [], "screenshot": "` + png + `"}]`

	sessions, err := ParseImport([]byte(doc))
	if err != nil {
		t.Fatalf("ParseImport failed: %v", err)
	}
	if sessions[0].Screenshot == "" {
		t.Error("valid image screenshot should survive")
	}
}

func TestMergeDeduplicatesByTimestamp(t *testing.T) {
	existing := []types.Session{
		{Timestamp: 1, Name: "mine"},
		{Timestamp: 2, Name: "also mine"},
	}
	incoming := []types.Session{
		{Timestamp: 2, Name: "imported copy"},
		{Timestamp: 3, Name: "new"},
	}

	merged, accepted := Merge(existing, incoming)
	if accepted != 1 {
		t.Errorf("accepted %d, want 1", accepted)
	}
	if len(merged) != 3 {
		t.Fatalf("got %d sessions, want 3", len(merged))
	}
	// The existing copy of timestamp 2 wins.
	if merged[1].Name != "also mine" {
		t.Errorf("existing session was replaced: %q", merged[1].Name)
	}
	if merged[2].Timestamp != 3 {
		t.Errorf("new session not appended: %+v", merged[2])
	}
}

func TestImportPersistsMerged(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	mine, err := st.Add(ctx, tabs("https://a.test/"), SnapshotOptions{Name: "mine"})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	doc := `[
		{"timestamp": ` + timestampJSON(mine.Timestamp) + `, "name": "copy of mine", "tabs": []},
		{"timestamp": 77, "name": "theirs", "tabs": [{"url": "https://b.test/", "title": "B"}]}
	]`
	accepted, err := st.Import(ctx, []byte(doc))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if accepted != 1 {
		t.Errorf("accepted %d, want 1", accepted)
	}
	if st.Len() != 2 {
		t.Errorf("got %d sessions, want 2", st.Len())
	}
	if _, err := st.Get(77); err != nil {
		t.Error("imported session missing")
	}
}

func timestampJSON(ts int64) string {
	data, _ := sonic.Marshal(ts)
	return string(data)
}

func TestExportRoundTrips(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := st.Add(ctx, tabs("https://a.test/"), SnapshotOptions{Name: "exported"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	data, err := st.Export()
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	var doc types.ExportDocument
	if err := sonic.Unmarshal(data, &doc); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if doc.Version != types.ExportVersion {
		t.Errorf("version %q, want %q", doc.Version, types.ExportVersion)
	}
	if doc.ExportDate == "" {
		t.Error("export date missing")
	}
	if len(doc.Sessions) != 1 || doc.Sessions[0].Name != "exported" {
		t.Errorf("unexpected sessions %+v", doc.Sessions)
	}

	// An export must be accepted back by import.
	fresh, _ := newTestStore(t)
	if _, err := fresh.Import(ctx, data); err != nil {
		t.Errorf("re-import of export failed: %v", err)
	}
}
