// Package clock allocates session identity timestamps.
//
// Sessions are keyed by their creation time in milliseconds, so two
// allocations within the same clock tick would collide. The allocator
// hands out strictly increasing values: a same-tick request is bumped
// to the next millisecond, keeping the timestamp both the identity key
// and an honest creation time.
package clock

import (
	"sync"
	"time"
)

// Source produces unique, strictly increasing millisecond timestamps.
type Source struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// New creates a source backed by the wall clock.
func New() *Source {
	return &Source{now: time.Now}
}

// NewWithNow creates a source with a custom time function.
// Useful for testing with a deterministic clock.
func NewWithNow(now func() time.Time) *Source {
	return &Source{now: now}
}

// Next returns a millisecond timestamp greater than any previously
// returned by this source.
func (s *Source) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now().UnixMilli()
	if ts <= s.last {
		ts = s.last + 1
	}
	s.last = ts
	return ts
}
