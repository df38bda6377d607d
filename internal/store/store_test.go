package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *DB {
	t.Helper()
	db, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type rankingRow struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

func TestCreateSnapshot(t *testing.T) {
	db := openTestStore(t)

	s, err := db.CreateSnapshot("abc123", "/data/export", "dev")
	require.NoError(t, err)
	assert.Positive(t, s.ID)
	assert.Len(t, s.UUID, 36)

	got, err := db.GetSnapshot(s.ID)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestGetSnapshotN(t *testing.T) {
	db := openTestStore(t)

	first, err := db.CreateSnapshot("a", "src", "dev")
	require.NoError(t, err)
	second, err := db.CreateSnapshot("b", "src", "dev")
	require.NoError(t, err)

	latest, err := db.GetLatestSnapshot()
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)

	prev, err := db.GetSnapshotN(2)
	require.NoError(t, err)
	assert.Equal(t, first.ID, prev.ID)

	none, err := db.GetSnapshotN(3)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestGetSnapshot_Missing(t *testing.T) {
	db := openTestStore(t)

	s, err := db.GetSnapshot(42)
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestListSnapshots(t *testing.T) {
	db := openTestStore(t)
	for _, fp := range []string{"a", "b", "c"} {
		_, err := db.CreateSnapshot(fp, "src", "dev")
		require.NoError(t, err)
	}

	list, err := db.ListSnapshots(2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "c", list[0].Fingerprint)
	assert.Equal(t, "b", list[1].Fingerprint)
}

func TestMetrics(t *testing.T) {
	db := openTestStore(t)
	s, err := db.CreateSnapshot("fp", "src", "dev")
	require.NoError(t, err)

	require.NoError(t, db.InsertMetric(s.ID, "users", 3))
	require.NoError(t, db.InsertMetric(s.ID, "sessions", 4))

	metrics, err := db.GetMetrics(s.ID)
	require.NoError(t, err)
	assert.Equal(t, []Metric{{"users", 3}, {"sessions", 4}}, metrics)
}

func TestResults_RoundTrip(t *testing.T) {
	db := openTestStore(t)
	s, err := db.CreateSnapshot("fp", "src", "dev")
	require.NoError(t, err)

	rows := []rankingRow{{"Paste", 2}, {"Run.Debug", 1}}
	require.NoError(t, db.PutResult(s.ID, "actions", "kind=all", rows))

	var got []rankingRow
	params, found, err := db.GetResult(s.ID, "actions", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "kind=all", params)
	assert.Equal(t, rows, got)
}

func TestResults_Replace(t *testing.T) {
	db := openTestStore(t)
	s, err := db.CreateSnapshot("fp", "src", "dev")
	require.NoError(t, err)

	require.NoError(t, db.PutResult(s.ID, "windows", "top=10", []rankingRow{{"Project", 2}}))
	require.NoError(t, db.PutResult(s.ID, "windows", "top=5", []rankingRow{{"Git", 1}}))

	infos, err := db.ListResults(s.ID)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "top=5", infos[0].Params)
	assert.Positive(t, infos[0].Size)

	var got []rankingRow
	_, _, err = db.GetResult(s.ID, "windows", &got)
	require.NoError(t, err)
	assert.Equal(t, []rankingRow{{"Git", 1}}, got)
}

func TestResults_Missing(t *testing.T) {
	db := openTestStore(t)

	var got []rankingRow
	_, found, err := db.GetResult(1, "focus", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDeleteSnapshot_Cascades(t *testing.T) {
	db := openTestStore(t)
	s, err := db.CreateSnapshot("fp", "src", "dev")
	require.NoError(t, err)
	require.NoError(t, db.InsertMetric(s.ID, "users", 3))
	require.NoError(t, db.PutResult(s.ID, "actions", "", []rankingRow{}))

	require.NoError(t, db.DeleteSnapshot(s.ID))

	metrics, err := db.GetMetrics(s.ID)
	require.NoError(t, err)
	assert.Empty(t, metrics)
	infos, err := db.ListResults(s.ID)
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "koalaviz.db")

	db, err := Open(path)
	require.NoError(t, err)
	_, err = db.CreateSnapshot("fp", "src", "dev")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	latest, err := db.GetLatestSnapshot()
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "fp", latest.Fingerprint)
}
