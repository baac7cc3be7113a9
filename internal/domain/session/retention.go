package session

import "github.com/SamisDone/tabsaver/internal/shared/types"

// DefaultAutoSaveCap bounds how many auto-saved sessions are retained.
// Manual saves are never evicted.
const DefaultAutoSaveCap = 5

// pruneAutoSaves evicts the oldest auto-saved sessions until at most
// limit-1 remain, making room for one incoming auto-save. It returns
// the pruned sequence with relative order preserved, and the evicted
// sessions.
func pruneAutoSaves(sessions []types.Session, limit int) ([]types.Session, []types.Session) {
	if limit <= 0 {
		return sessions, nil
	}

	count := 0
	for _, s := range sessions {
		if s.IsAutoSave {
			count++
		}
	}

	var evicted []types.Session
	for count >= limit {
		oldest := -1
		for i, s := range sessions {
			if !s.IsAutoSave {
				continue
			}
			if oldest == -1 || s.Timestamp < sessions[oldest].Timestamp {
				oldest = i
			}
		}
		if oldest == -1 {
			break
		}
		evicted = append(evicted, sessions[oldest])
		sessions = append(sessions[:oldest:oldest], sessions[oldest+1:]...)
		count--
	}
	return sessions, evicted
}
