// Package session implements the session store and its reconciliation
// rules: snapshot capture, similarity detection, auto-save retention,
// ordered persistence with rollback, merge/import, and a single-slot
// time-bounded undo buffer.
//
// A session is identified by its capture timestamp. The store allocates
// timestamps through a monotonic source, so two sessions never share
// one even when saved within the same millisecond.
package session
