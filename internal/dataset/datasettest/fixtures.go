// Package datasettest provides a small export fixture and helpers to write it
// as a directory or a zip archive.
//
// The fixture has five researches: users 1 (researches 1 and 2), 2 (research
// 3), 3 (research 5) and the sentinel user 20 (research 4).
package datasettest

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// Researches is researches.csv.
const Researches = `id,user
1,1
2,1
3,2
4,20
5,3
`

// Activity is activitydata.csv. Action 1 of research 1 and action 5 of
// research 3 are shortcut-triggered; the shortcut of research 5 has no
// action id.
const Activity = `id,research_id,type,info,action_id,date
1,1,Action,com.example.EditorCopy,1,2024-01-01 10:00:00
2,1,Shortcut,ctrl+c,1,2024-01-01 10:00:00
3,1,Action,$Paste,2,2024-01-01 10:01:00
4,2,Action,$Paste,3,2024-01-02 09:00:00
5,3,Action,$Paste,4,2024-01-03 09:00:00
6,3,Action,com.example.EditorCopy,5,2024-01-03 09:01:00
7,3,Shortcut,ctrl+c,5,2024-01-03 09:01:00
8,4,Action,$Secret,6,2024-01-04 10:00:00
9,5,Action,com.example.Run$Debug$2,7,2024-01-05 12:00:00
10,5,Shortcut,shift+f9,,2024-01-05 12:00:00
`

// ToolWindows is toolwindowdata.csv. Research 1 follows the focus sequence
// Project, Project, Terminal, Terminal, Project; research 3 mixes date
// layouts and carries a row without a window.
const ToolWindows = `research_id,date,action,active_window
1,2024-01-01 10:00:00,FOCUSED,Project
1,2024-01-01 10:00:10,FOCUSED,Project
1,2024-01-01 10:00:30,FOCUSED,Terminal
1,2024-01-01 10:01:00,FOCUSED,Terminal
1,2024-01-01 10:02:00,FOCUSED,Project
1,2024-01-01 10:02:30,OPENED,Git
3,2024-01-03T09:00:00Z,FOCUSED,Terminal
3,2024-01-03 09:05:00,FOCUSED,Project
3,2024-01-03 09:06:00,FOCUSED,
4,2024-01-04 10:00:00,FOCUSED,Secret
4,2024-01-04 10:10:00,FOCUSED,Project
`

// Documents is documentdata.csv.
const Documents = `research_id,date
1,2024-01-01 10:05:00
`

// FileEditors is fileeditordata.csv.
const FileEditors = `research_id,date
5,2024-01-05 13:00:00
`

// Surveys is surveydata.csv.
const Surveys = `research_id,date
2,2024-01-02 09:30:00
4,2024-01-04 12:00:00
`

// Files returns a fresh copy of the full six-table export.
func Files() map[string]string {
	return map[string]string{
		"researches.csv":     Researches,
		"activitydata.csv":   Activity,
		"toolwindowdata.csv": ToolWindows,
		"documentdata.csv":   Documents,
		"fileeditordata.csv": FileEditors,
		"surveydata.csv":     Surveys,
	}
}

// Without returns Files minus the named tables.
func Without(names ...string) map[string]string {
	files := Files()
	for _, name := range names {
		delete(files, name)
	}
	return files
}

// WriteDir writes files into a new temporary directory and returns its path.
func WriteDir(t testing.TB, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
	return dir
}

// Zip returns files packed into a zip archive, optionally under prefix.
func Zip(t testing.TB, prefix string, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(prefix + name)
		if err != nil {
			t.Fatalf("creating zip entry %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("writing zip entry %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return buf.Bytes()
}

// WriteZip writes files as a zip archive into a temporary directory and
// returns the archive path.
func WriteZip(t testing.TB, files map[string]string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "export.zip")
	if err := os.WriteFile(p, Zip(t, "", files), 0o644); err != nil {
		t.Fatalf("writing archive: %v", err)
	}
	return p
}
