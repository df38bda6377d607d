// Package dataset loads exported telemetry tables from a directory of CSV
// files, a zip archive, or a zip archive stored in S3.
package dataset

import "time"

// Table file names as they appear in an export.
const (
	FileResearches  = "researches.csv"
	FileActivity    = "activitydata.csv"
	FileToolWindows = "toolwindowdata.csv"
	FileDocuments   = "documentdata.csv"
	FileFileEditors = "fileeditordata.csv"
	FileSurveys     = "surveydata.csv"
)

// DirRequired lists the tables a directory source must contain, in the
// order they are checked. The remaining logs are loaded when present.
var DirRequired = []string{FileActivity, FileResearches, FileToolWindows}

// ArchiveRequired lists the tables an archive source must contain.
var ArchiveRequired = []string{
	FileResearches,
	FileActivity,
	FileToolWindows,
	FileDocuments,
	FileFileEditors,
	FileSurveys,
}

// allTables is the canonical table order used for fingerprinting.
var allTables = ArchiveRequired

// SourceKind identifies how a bundle was read.
type SourceKind string

const (
	KindDirectory SourceKind = "directory"
	KindArchive   SourceKind = "archive"
)

// EventType is the category of an activity row.
type EventType string

const (
	EventAction   EventType = "Action"
	EventShortcut EventType = "Shortcut"
)

// Research is one recorded session of one user.
type Research struct {
	ID   int64 `json:"id"`
	User int64 `json:"user"`
}

// ActivityEvent is one logged action.
type ActivityEvent struct {
	ResearchID int64     `json:"research_id"`
	Type       EventType `json:"type"`
	Info       string    `json:"info"`

	// ActionID correlates an Action row with a Shortcut row of the same
	// research. HasActionID is false when the cell was empty.
	ActionID    int64 `json:"action_id"`
	HasActionID bool  `json:"has_action_id"`

	Date time.Time `json:"date"`
}

// ToolWindowEvent is one window interaction. An empty ActiveWindow means the
// export carried no window for the row.
type ToolWindowEvent struct {
	ResearchID   int64     `json:"research_id"`
	Date         time.Time `json:"date"`
	Action       string    `json:"action"`
	ActiveWindow string    `json:"active_window"`
}

// TimestampedEvent is a row of the document, file-editor or survey logs.
// Only the research and the timestamp are read.
type TimestampedEvent struct {
	ResearchID int64     `json:"research_id"`
	Date       time.Time `json:"date"`
}

// Bundle is the immutable set of tables read from one data source.
// Callers must not modify the slices.
type Bundle struct {
	Source string     `json:"source"`
	Kind   SourceKind `json:"kind"`

	// Fingerprint is a digest of the raw table contents. Two loads of the
	// same export produce the same fingerprint.
	Fingerprint string `json:"fingerprint"`

	// LoadID identifies this particular load.
	LoadID   string    `json:"load_id"`
	LoadedAt time.Time `json:"loaded_at"`

	Researches  []Research         `json:"-"`
	Activity    []ActivityEvent    `json:"-"`
	ToolWindows []ToolWindowEvent  `json:"-"`
	Documents   []TimestampedEvent `json:"-"`
	FileEditors []TimestampedEvent `json:"-"`
	Surveys     []TimestampedEvent `json:"-"`

	present map[string]bool
}

// Has reports whether the named table was part of the source.
func (b *Bundle) Has(name string) bool {
	return b.present[name]
}

// Tables returns the names of the tables that were loaded, in canonical order.
func (b *Bundle) Tables() []string {
	var names []string
	for _, name := range allTables {
		if b.present[name] {
			names = append(names, name)
		}
	}
	return names
}

// RowCount returns the number of rows read for the named table.
func (b *Bundle) RowCount(name string) int {
	switch name {
	case FileResearches:
		return len(b.Researches)
	case FileActivity:
		return len(b.Activity)
	case FileToolWindows:
		return len(b.ToolWindows)
	case FileDocuments:
		return len(b.Documents)
	case FileFileEditors:
		return len(b.FileEditors)
	case FileSurveys:
		return len(b.Surveys)
	}
	return 0
}
