package types

// SaveRequest asks for a snapshot of the current window's tabs.
type SaveRequest struct {
	Name string   `json:"name"`
	Tags []string `json:"tags"`
}

// RenameRequest changes a session's display name.
type RenameRequest struct {
	Name string `json:"name" binding:"required"`
}

// TagRequest adds a tag from the controlled vocabulary to a session.
type TagRequest struct {
	Tag string `json:"tag" binding:"required"`
}

// ReorderRequest moves the dragged session immediately before the
// target session. FullView asserts that the caller is looking at the
// unfiltered session list; reordering a filtered view is rejected.
type ReorderRequest struct {
	Dragged  int64 `json:"dragged" binding:"required"`
	Target   int64 `json:"target" binding:"required"`
	FullView bool  `json:"fullView"`
}

// RestoreRequest optionally narrows a restore to selected tab indices.
type RestoreRequest struct {
	Indices []int `json:"indices"`
}

// EventType enumerates every outbound event pushed to connected
// extension surfaces. The set is closed: the hub refuses to broadcast
// any other type.
type EventType string

const (
	EventSessionCount     EventType = "session_count"
	EventDuplicateWarning EventType = "duplicate_warning"
	EventToast            EventType = "toast"
	EventReorderRejected  EventType = "reorder_rejected"
)

// ToastKind classifies a toast-level notification.
type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
	ToastInfo    ToastKind = "info"
	ToastWarning ToastKind = "warning"
)

// Toast is a brief human-readable notice.
type Toast struct {
	Kind    ToastKind `json:"kind"`
	Message string    `json:"message"`
}

// DuplicateWarning advises that the current tabs closely match a
// stored session. It never blocks a save.
type DuplicateWarning struct {
	SessionName string `json:"sessionName"`
	Percent     int    `json:"percent"`
}

// Event is the tagged union broadcast over the event stream. Exactly
// one payload field is set, matching Type.
type Event struct {
	Type      EventType         `json:"type"`
	Timestamp int64             `json:"timestamp"`
	Count     *int              `json:"count,omitempty"`
	Warning   *DuplicateWarning `json:"warning,omitempty"`
	Toast     *Toast            `json:"toast,omitempty"`
	Reason    string            `json:"reason,omitempty"`
}
