package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// tableReader walks the records of one CSV table, resolving columns by
// header name.
type tableReader struct {
	source string
	file   string
	r      *csv.Reader
	cols   map[string]int
	rec    []string
}

func newTableReader(source, file string, data []byte) (*tableReader, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, &InvalidSourceError{Source: source, Reason: file + " is empty"}
	}
	if err != nil {
		return nil, &InvalidSourceError{Source: source, Reason: "reading " + file, Err: err}
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		cols[strings.TrimSpace(name)] = i
	}
	return &tableReader{source: source, file: file, r: r, cols: cols}, nil
}

// require returns the column indexes for names, failing on the first one the
// header does not carry.
func (t *tableReader) require(names ...string) ([]int, error) {
	idx := make([]int, len(names))
	for i, name := range names {
		pos, ok := t.cols[name]
		if !ok {
			return nil, &InvalidSourceError{
				Source: t.source,
				Reason: fmt.Sprintf("%s has no column %q", t.file, name),
			}
		}
		idx[i] = pos
	}
	return idx, nil
}

// next advances to the next record. It returns false at end of input.
func (t *tableReader) next() (bool, error) {
	rec, err := t.r.Read()
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, &InvalidSourceError{Source: t.source, Reason: "reading " + t.file, Err: err}
	}
	t.rec = rec
	return true, nil
}

func (t *tableReader) line() int {
	line, _ := t.r.FieldPos(0)
	return line
}

// cell reads a numeric, date or enum cell with surrounding spaces removed.
func (t *tableReader) cell(i int) string {
	return strings.TrimSpace(t.text(i))
}

// text reads a label cell exactly as written.
func (t *tableReader) text(i int) string {
	if i < len(t.rec) {
		return t.rec[i]
	}
	return ""
}

func (t *tableReader) invalid(column, value string) error {
	return &InvalidSourceError{
		Source: t.source,
		Reason: fmt.Sprintf("%s line %d: invalid %s %q", t.file, t.line(), column, value),
	}
}

// int reads a required integer cell.
func (t *tableReader) int(i int, column string) (int64, error) {
	v, ok, err := t.optionalInt(i, column)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, t.invalid(column, "")
	}
	return v, nil
}

// optionalInt reads a nullable integer cell. Exports written through a float
// column carry values like "12.0", which are accepted when integral.
func (t *tableReader) optionalInt(i int, column string) (int64, bool, error) {
	raw := t.cell(i)
	if raw == "" {
		return 0, false, nil
	}
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return v, true, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) {
		if strings.EqualFold(raw, "nan") {
			return 0, false, nil
		}
		return 0, false, t.invalid(column, raw)
	}
	if f != math.Trunc(f) {
		return 0, false, t.invalid(column, raw)
	}
	return int64(f), true, nil
}

// date reads a timestamp cell. Exports mix layouts, so the value is parsed
// leniently and normalized to UTC. An empty cell yields the zero time.
func (t *tableReader) date(i int) (time.Time, error) {
	raw := t.cell(i)
	if raw == "" {
		return time.Time{}, nil
	}
	ts, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil {
		return time.Time{}, t.invalid("date", raw)
	}
	return ts.UTC(), nil
}

func parseResearches(source string, data []byte) ([]Research, error) {
	t, err := newTableReader(source, FileResearches, data)
	if err != nil {
		return nil, err
	}
	idx, err := t.require("id", "user")
	if err != nil {
		return nil, err
	}

	var rows []Research
	for {
		ok, err := t.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return rows, nil
		}
		id, err := t.int(idx[0], "id")
		if err != nil {
			return nil, err
		}
		user, err := t.int(idx[1], "user")
		if err != nil {
			return nil, err
		}
		rows = append(rows, Research{ID: id, User: user})
	}
}

func parseActivity(source string, data []byte) ([]ActivityEvent, error) {
	t, err := newTableReader(source, FileActivity, data)
	if err != nil {
		return nil, err
	}
	idx, err := t.require("research_id", "type", "info", "action_id", "date")
	if err != nil {
		return nil, err
	}

	var rows []ActivityEvent
	for {
		ok, err := t.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return rows, nil
		}
		researchID, err := t.int(idx[0], "research_id")
		if err != nil {
			return nil, err
		}
		actionID, hasActionID, err := t.optionalInt(idx[3], "action_id")
		if err != nil {
			return nil, err
		}
		date, err := t.date(idx[4])
		if err != nil {
			return nil, err
		}
		rows = append(rows, ActivityEvent{
			ResearchID:  researchID,
			Type:        EventType(t.cell(idx[1])),
			Info:        t.text(idx[2]),
			ActionID:    actionID,
			HasActionID: hasActionID,
			Date:        date,
		})
	}
}

func parseToolWindows(source string, data []byte) ([]ToolWindowEvent, error) {
	t, err := newTableReader(source, FileToolWindows, data)
	if err != nil {
		return nil, err
	}
	idx, err := t.require("research_id", "date", "action", "active_window")
	if err != nil {
		return nil, err
	}

	var rows []ToolWindowEvent
	for {
		ok, err := t.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return rows, nil
		}
		researchID, err := t.int(idx[0], "research_id")
		if err != nil {
			return nil, err
		}
		date, err := t.date(idx[1])
		if err != nil {
			return nil, err
		}
		rows = append(rows, ToolWindowEvent{
			ResearchID:   researchID,
			Date:         date,
			Action:       t.cell(idx[2]),
			ActiveWindow: t.text(idx[3]),
		})
	}
}

func parseTimestamped(source, file string, data []byte) ([]TimestampedEvent, error) {
	t, err := newTableReader(source, file, data)
	if err != nil {
		return nil, err
	}
	idx, err := t.require("research_id", "date")
	if err != nil {
		return nil, err
	}

	var rows []TimestampedEvent
	for {
		ok, err := t.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return rows, nil
		}
		researchID, err := t.int(idx[0], "research_id")
		if err != nil {
			return nil, err
		}
		date, err := t.date(idx[1])
		if err != nil {
			return nil, err
		}
		rows = append(rows, TimestampedEvent{ResearchID: researchID, Date: date})
	}
}
