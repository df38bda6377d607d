// Package store provides SQLite persistence for koalaviz snapshots: summary
// metrics and computed views of a dataset, recorded over time.
package store

import "time"

// Snapshot is one recorded analysis of a dataset.
type Snapshot struct {
	ID          int64     `json:"id"`
	UUID        string    `json:"uuid"`
	TakenAt     time.Time `json:"taken_at"`
	Fingerprint string    `json:"dataset_fingerprint"`
	Source      string    `json:"source"`
	Version     string    `json:"version"`
}

// Metric is a named value recorded in a snapshot.
type Metric struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// ResultInfo describes a stored view without decoding its payload.
type ResultInfo struct {
	View   string `json:"view"`
	Params string `json:"params"`
	Size   int    `json:"size"`
}

// SnapshotDiff represents the comparison between two snapshots.
type SnapshotDiff struct {
	Previous *Snapshot    `json:"previous"`
	Current  *Snapshot    `json:"current"`
	Deltas   []MetricDelta `json:"deltas"`
}

// MetricDelta represents the change in a single metric between snapshots.
type MetricDelta struct {
	Name      string  `json:"name"`
	Previous  float64 `json:"previous"`
	Current   float64 `json:"current"`
	Delta     float64 `json:"delta"`
	Direction string  `json:"direction"` // "up", "down", "unchanged"
}
