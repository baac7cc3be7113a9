package session

import (
	"strings"

	"github.com/SamisDone/tabsaver/internal/shared/types"
)

// DuplicateThreshold is the similarity score at or above which two
// sessions are considered duplicates of each other.
const DuplicateThreshold = 0.6

// internalPrefixes lists URL schemes that identify browser-internal
// pages. Internal tabs carry no user content and are excluded from
// similarity comparison.
var internalPrefixes = []string{
	"chrome://",
	"edge://",
	"brave://",
	"about:",
}

// isComparableURL reports whether url participates in similarity
// scoring.
func isComparableURL(url string) bool {
	if url == "" {
		return false
	}
	for _, p := range internalPrefixes {
		if strings.HasPrefix(url, p) {
			return false
		}
	}
	return true
}

func comparableSet(tabs []types.TabSnapshot) map[string]struct{} {
	set := make(map[string]struct{}, len(tabs))
	for _, t := range tabs {
		if isComparableURL(t.URL) {
			set[t.URL] = struct{}{}
		}
	}
	return set
}

// Similarity scores how much two tab sets overlap: the number of shared
// URLs over the size of the larger set. Two sessions with no comparable
// URLs score zero.
func Similarity(a, b []types.TabSnapshot) float64 {
	setA := comparableSet(a)
	setB := comparableSet(b)

	larger := len(setA)
	if len(setB) > larger {
		larger = len(setB)
	}
	if larger == 0 {
		return 0
	}

	shared := 0
	for url := range setA {
		if _, ok := setB[url]; ok {
			shared++
		}
	}
	return float64(shared) / float64(larger)
}

// Match describes an existing session that duplicates a candidate.
type Match struct {
	Session types.Session
	Score   float64
}

// mostSimilar returns the best-scoring session among existing for the
// candidate tabs, and whether that score reaches the duplicate
// threshold.
func mostSimilar(existing []types.Session, tabs []types.TabSnapshot) (Match, bool) {
	var best Match
	found := false
	for _, s := range existing {
		score := Similarity(tabs, s.Tabs)
		if score >= DuplicateThreshold && (!found || score > best.Score) {
			best = Match{Session: s, Score: score}
			found = true
		}
	}
	return best, found
}
