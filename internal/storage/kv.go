package storage

import (
	"context"
	"errors"
)

// Well-known keys of the persisted document.
const (
	KeySessions = "sessions"
	KeySettings = "settings"
)

// ErrConflict is returned by CompareAndSet when the key's revision no
// longer matches the caller's expectation.
var ErrConflict = errors.New("storage: revision conflict")

// AnyRevision disables the revision check on CompareAndSet.
const AnyRevision uint64 = 0

// KV is the persisted key-value capability.
//
// Get and Set are atomic per key; a read-modify-write spanning both is
// not. Revisions start at 1 on first write and increase by one per
// write, letting callers detect a lost update via CompareAndSet.
type KV interface {
	// Get returns the stored value and its revision. A missing key
	// yields a nil value and revision 0, not an error.
	Get(ctx context.Context, key string) ([]byte, uint64, error)

	// Set writes unconditionally and returns the new revision.
	Set(ctx context.Context, key string, value []byte) (uint64, error)

	// CompareAndSet writes only if the key's current revision equals
	// expect (or expect is AnyRevision). Returns ErrConflict otherwise.
	CompareAndSet(ctx context.Context, key string, value []byte, expect uint64) (uint64, error)

	// BytesInUse reports the total size of all stored values.
	BytesInUse(ctx context.Context) (int64, error)

	// Watch registers a callback invoked after every successful write
	// to key. Callbacks run synchronously with the write; they must not
	// call back into the KV.
	Watch(key string, fn func(value []byte))
}
