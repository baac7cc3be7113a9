package types

// UngroupedID marks a tab that belongs to no tab group.
const UngroupedID = -1

// TabRef describes a live tab as reported by the browser.
type TabRef struct {
	ID         int    `json:"id"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	FavIconURL string `json:"favIconUrl"`
	GroupID    int    `json:"groupId"`
	WindowID   int    `json:"windowId"`
	Active     bool   `json:"active"`
}

// TabSnapshot is the persisted form of a single tab within a session.
type TabSnapshot struct {
	Title      string `json:"title"`
	URL        string `json:"url"`
	FavIconURL string `json:"favIconUrl"`
	GroupID    int    `json:"groupId"`
}

// TabGroup carries the visual metadata needed to rebuild a tab group.
type TabGroup struct {
	Title string `json:"title"`
	Color string `json:"color"`
}

// Session is a named snapshot of a set of open tabs.
//
// Timestamp doubles as the identity key: it is unique among all stored
// sessions. TabCount always equals len(Tabs) and is recomputed whenever
// Tabs changes. Screenshot is a best-effort data URL; absence is legal.
type Session struct {
	Timestamp  int64            `json:"timestamp"`
	Name       string           `json:"name"`
	Tabs       []TabSnapshot    `json:"tabs"`
	TabGroups  map[int]TabGroup `json:"tabGroups,omitempty"`
	TabCount   int              `json:"tabCount"`
	Tags       []string         `json:"tags"`
	IsAutoSave bool             `json:"isAutoSave,omitempty"`
	Screenshot string           `json:"screenshot,omitempty"`
}

// Clone returns a deep copy, so callers can hand out sessions without
// exposing internal slices and maps to mutation.
func (s Session) Clone() Session {
	out := s
	if s.Tabs != nil {
		out.Tabs = make([]TabSnapshot, len(s.Tabs))
		copy(out.Tabs, s.Tabs)
	}
	if s.Tags != nil {
		out.Tags = make([]string, len(s.Tags))
		copy(out.Tags, s.Tags)
	}
	if s.TabGroups != nil {
		out.TabGroups = make(map[int]TabGroup, len(s.TabGroups))
		for id, g := range s.TabGroups {
			out.TabGroups[id] = g
		}
	}
	return out
}

// HasTag reports whether the session carries the given tag.
func (s Session) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// SessionSummary contains the listing fields without the screenshot
// payload, which can be hundreds of kilobytes per session.
type SessionSummary struct {
	Timestamp     int64    `json:"timestamp"`
	Name          string   `json:"name"`
	TabCount      int      `json:"tabCount"`
	Tags          []string `json:"tags"`
	IsAutoSave    bool     `json:"isAutoSave"`
	HasScreenshot bool     `json:"hasScreenshot"`
}

// ToSummary extracts summary information from a session.
func (s Session) ToSummary() SessionSummary {
	tags := s.Tags
	if tags == nil {
		tags = []string{}
	}
	return SessionSummary{
		Timestamp:     s.Timestamp,
		Name:          s.Name,
		TabCount:      s.TabCount,
		Tags:          tags,
		IsAutoSave:    s.IsAutoSave,
		HasScreenshot: s.Screenshot != "",
	}
}

// RemovedSession is what a delete hands back: the session plus enough
// information to reinsert it at its previous position.
type RemovedSession struct {
	Session Session `json:"session"`
	Index   int     `json:"index"`
}

// ExportDocument is the versioned envelope written by export and
// accepted (alongside a bare session array) by import.
type ExportDocument struct {
	Version    string    `json:"version"`
	ExportDate string    `json:"exportDate"`
	Sessions   []Session `json:"sessions"`
}

// ExportVersion identifies the current export file format.
const ExportVersion = "1.0"
