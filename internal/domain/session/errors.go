package session

import "errors"

var (
	// ErrNotFound indicates no session exists with the given timestamp.
	ErrNotFound = errors.New("session not found")

	// ErrPersistence indicates the backing store rejected a write. The
	// in-memory state has been rolled back to the last persisted one.
	ErrPersistence = errors.New("failed to persist sessions")

	// ErrFilteredView rejects a reorder computed against a filtered
	// list, where positions do not map onto the full sequence.
	ErrFilteredView = errors.New("cannot reorder a filtered view")

	// ErrFormat indicates an import document that could not be
	// understood.
	ErrFormat = errors.New("unrecognized import format")

	// ErrNothingToUndo indicates the undo buffer is empty or expired.
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrDuplicateTimestamp indicates a bulk replacement containing two
	// sessions with the same identity.
	ErrDuplicateTimestamp = errors.New("duplicate session timestamp")

	// ErrUnknownTag indicates a tag outside the configured vocabulary.
	ErrUnknownTag = errors.New("unknown tag")

	// ErrNoTabs indicates a capture produced no saveable tabs.
	ErrNoTabs = errors.New("no tabs to save")
)
