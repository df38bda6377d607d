package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang/snappy"
	"github.com/google/uuid"
)

const snapshotColumns = "id, uuid, taken_at, dataset_fingerprint, source, version"

// CreateSnapshot inserts a new snapshot of the dataset identified by
// fingerprint and returns it.
func (db *DB) CreateSnapshot(fingerprint, source, version string) (*Snapshot, error) {
	s := &Snapshot{
		UUID:        uuid.NewString(),
		TakenAt:     time.Now().UTC().Truncate(time.Second),
		Fingerprint: fingerprint,
		Source:      source,
		Version:     version,
	}
	result, err := db.conn.Exec(
		"INSERT INTO snapshots (uuid, taken_at, dataset_fingerprint, source, version) VALUES (?, ?, ?, ?, ?)",
		s.UUID, s.TakenAt.Format(time.RFC3339), s.Fingerprint, s.Source, s.Version,
	)
	if err != nil {
		return nil, err
	}
	if s.ID, err = result.LastInsertId(); err != nil {
		return nil, err
	}
	return s, nil
}

// GetLatestSnapshot returns the most recent snapshot, or nil if none exist.
func (db *DB) GetLatestSnapshot() (*Snapshot, error) {
	return db.GetSnapshotN(1)
}

// GetSnapshot returns a snapshot by ID, or nil if it does not exist.
func (db *DB) GetSnapshot(id int64) (*Snapshot, error) {
	row := db.conn.QueryRow("SELECT "+snapshotColumns+" FROM snapshots WHERE id = ?", id)
	return scanSnapshot(row)
}

// GetSnapshotN returns the Nth most recent snapshot (1 = latest, 2 = previous, etc.).
func (db *DB) GetSnapshotN(n int) (*Snapshot, error) {
	row := db.conn.QueryRow(
		"SELECT "+snapshotColumns+" FROM snapshots ORDER BY id DESC LIMIT 1 OFFSET ?",
		n-1,
	)
	return scanSnapshot(row)
}

// ListSnapshots returns up to limit snapshots, newest first.
func (db *DB) ListSnapshots(limit int) ([]Snapshot, error) {
	rows, err := db.conn.Query(
		"SELECT "+snapshotColumns+" FROM snapshots ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var snapshots []Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, *s)
	}
	return snapshots, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scanner) (*Snapshot, error) {
	var s Snapshot
	var takenAt string
	err := row.Scan(&s.ID, &s.UUID, &takenAt, &s.Fingerprint, &s.Source, &s.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.TakenAt, _ = time.Parse(time.RFC3339, takenAt)
	return &s, nil
}

// InsertMetric records a metric for a snapshot.
func (db *DB) InsertMetric(snapshotID int64, name string, value float64) error {
	_, err := db.conn.Exec(
		"INSERT INTO snapshot_metrics (snapshot_id, metric_name, metric_value) VALUES (?, ?, ?)",
		snapshotID, name, value,
	)
	return err
}

// GetMetrics returns the metrics of a snapshot in insertion order.
func (db *DB) GetMetrics(snapshotID int64) ([]Metric, error) {
	rows, err := db.conn.Query(
		"SELECT metric_name, metric_value FROM snapshot_metrics WHERE snapshot_id = ? ORDER BY id",
		snapshotID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var metrics []Metric
	for rows.Next() {
		var m Metric
		if err := rows.Scan(&m.Name, &m.Value); err != nil {
			return nil, err
		}
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}

// PutResult stores a computed view as snappy-compressed JSON, replacing any
// previous result of the same view in the snapshot.
func (db *DB) PutResult(snapshotID int64, view, params string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %s result: %w", view, err)
	}
	_, err = db.conn.Exec(
		`INSERT INTO snapshot_results (snapshot_id, view, params, payload) VALUES (?, ?, ?, ?)
		 ON CONFLICT (snapshot_id, view) DO UPDATE SET params = excluded.params, payload = excluded.payload`,
		snapshotID, view, params, snappy.Encode(nil, raw),
	)
	return err
}

// GetResult decodes the stored view into out and returns its parameters.
// found is false when the snapshot has no result for the view.
func (db *DB) GetResult(snapshotID int64, view string, out any) (params string, found bool, err error) {
	var payload []byte
	row := db.conn.QueryRow(
		"SELECT params, payload FROM snapshot_results WHERE snapshot_id = ? AND view = ?",
		snapshotID, view,
	)
	if err := row.Scan(&params, &payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}

	raw, err := snappy.Decode(nil, payload)
	if err != nil {
		return "", false, fmt.Errorf("decompressing %s result: %w", view, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return "", false, fmt.Errorf("decoding %s result: %w", view, err)
	}
	return params, true, nil
}

// ListResults returns the views stored in a snapshot, ordered by name.
func (db *DB) ListResults(snapshotID int64) ([]ResultInfo, error) {
	rows, err := db.conn.Query(
		"SELECT view, params, length(payload) FROM snapshot_results WHERE snapshot_id = ? ORDER BY view",
		snapshotID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []ResultInfo
	for rows.Next() {
		var r ResultInfo
		if err := rows.Scan(&r.View, &r.Params, &r.Size); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// DeleteSnapshot removes a snapshot with its metrics and results.
func (db *DB) DeleteSnapshot(id int64) error {
	_, err := db.conn.Exec("DELETE FROM snapshots WHERE id = ?", id)
	return err
}
