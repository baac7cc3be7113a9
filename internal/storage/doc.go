// Package storage provides the persisted key-value capability behind
// the session store.
//
// The contract mirrors what a browser extension gets from its host:
// per-key atomic reads and writes, a byte-usage query, and a change
// notification stream. On top of that, every key carries a revision
// stamp and writers may use compare-and-set to detect a concurrent
// writer instead of silently losing the race.
//
// Implementations:
//   - File: one gzip-compressed JSON document per key, written via
//     temp-file-and-rename so a crash never leaves a torn value
//   - Memory: map-backed, for tests
package storage
