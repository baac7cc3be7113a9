package session

import (
	"testing"

	"github.com/SamisDone/tabsaver/internal/shared/types"
)

func snaps(urls ...string) []types.TabSnapshot {
	out := make([]types.TabSnapshot, len(urls))
	for i, u := range urls {
		out[i] = types.TabSnapshot{URL: u, Title: "tab"}
	}
	return out
}

func TestSimilarityIdentical(t *testing.T) {
	a := snaps("https://a.test/", "https://b.test/")
	if got := Similarity(a, a); got != 1.0 {
		t.Errorf("identical sets scored %v, want 1.0", got)
	}
}

func TestSimilarityDisjoint(t *testing.T) {
	a := snaps("https://a.test/")
	b := snaps("https://b.test/")
	if got := Similarity(a, b); got != 0 {
		t.Errorf("disjoint sets scored %v, want 0", got)
	}
}

func TestSimilarityPartialOverlap(t *testing.T) {
	// 3 shared URLs over a larger set of 5.
	a := snaps("https://1.test/", "https://2.test/", "https://3.test/")
	b := snaps("https://1.test/", "https://2.test/", "https://3.test/", "https://4.test/", "https://5.test/")

	got := Similarity(a, b)
	if got != 0.6 {
		t.Errorf("scored %v, want 0.6", got)
	}
	if Similarity(a, b) != Similarity(b, a) {
		t.Error("similarity is not symmetric")
	}
}

func TestSimilarityIgnoresInternalPages(t *testing.T) {
	a := snaps("chrome://newtab/", "about:blank", "https://a.test/")
	b := snaps("edge://settings/", "https://a.test/")

	// Only the single real URL counts on each side.
	if got := Similarity(a, b); got != 1.0 {
		t.Errorf("scored %v, want 1.0", got)
	}
}

func TestSimilarityBothInternalOnly(t *testing.T) {
	a := snaps("chrome://newtab/")
	b := snaps("about:blank")
	if got := Similarity(a, b); got != 0 {
		t.Errorf("scored %v, want 0", got)
	}
}

func TestSimilarityDuplicateURLsCountOnce(t *testing.T) {
	a := snaps("https://a.test/", "https://a.test/", "https://a.test/")
	b := snaps("https://a.test/")
	if got := Similarity(a, b); got != 1.0 {
		t.Errorf("scored %v, want 1.0", got)
	}
}

func TestMostSimilarPicksBestAboveThreshold(t *testing.T) {
	existing := []types.Session{
		{Timestamp: 1, Name: "half", Tabs: snaps("https://1.test/", "https://x.test/")},
		{Timestamp: 2, Name: "exact", Tabs: snaps("https://1.test/", "https://2.test/")},
	}
	candidate := snaps("https://1.test/", "https://2.test/")

	match, found := mostSimilar(existing, candidate)
	if !found {
		t.Fatal("expected a match")
	}
	if match.Session.Timestamp != 2 {
		t.Errorf("matched session %d, want 2", match.Session.Timestamp)
	}
	if match.Score != 1.0 {
		t.Errorf("score %v, want 1.0", match.Score)
	}
}

func TestMostSimilarBelowThreshold(t *testing.T) {
	existing := []types.Session{
		{Timestamp: 1, Tabs: snaps("https://1.test/", "https://2.test/", "https://3.test/", "https://4.test/")},
	}
	// 1 of 4 shared: 0.25, under the threshold.
	if _, found := mostSimilar(existing, snaps("https://1.test/")); found {
		t.Error("expected no match under the threshold")
	}
}
