package types

// Settings holds the user-facing configuration persisted alongside the
// session list.
type Settings struct {
	AutoSave           bool `json:"autoSave"`
	AutoSaveInterval   int  `json:"autoSaveInterval"` // minutes, > 0
	DuplicateDetection bool `json:"duplicateDetection"`
}

// DefaultSettings returns the settings applied on first run.
func DefaultSettings() Settings {
	return Settings{
		AutoSave:           false,
		AutoSaveInterval:   30,
		DuplicateDetection: true,
	}
}
