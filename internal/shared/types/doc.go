// Package types defines shared data structures used across the backend.
//
// This package contains the session entity model, persisted settings,
// and the wire envelopes exchanged with the extension surfaces. It has
// no dependencies on other internal packages, allowing all layers to
// share types without circular imports.
package types
