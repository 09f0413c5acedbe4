package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndCount(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "faults.db"))
	require.NoError(t, err)
	defer store.Close()

	now := time.Now()

	first, count, err := store.Record("vvt_misalignment", now)
	require.NoError(t, err)
	assert.True(t, first)
	assert.Equal(t, uint64(1), count)

	first, count, err = store.Record("vvt_misalignment", now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, first)
	assert.Equal(t, uint64(2), count)

	// an unrelated kind is still new
	first, _, err = store.Record("vvt_stuck_bank1", now)
	require.NoError(t, err)
	assert.True(t, first)

	count, err = store.Count("vvt_misalignment")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	count, err = store.Count("never_seen")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestHistorySurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faults.db")

	store, err := Open(path)
	require.NoError(t, err)
	_, _, err = store.Record("vvt_misalignment", time.Now())
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()

	first, count, err := store.Record("vvt_misalignment", time.Now())
	require.NoError(t, err)
	assert.False(t, first)
	assert.Equal(t, uint64(2), count)
}

func TestClear(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "faults.db"))
	require.NoError(t, err)
	defer store.Close()

	_, _, err = store.Record("vvt_misalignment", time.Now())
	require.NoError(t, err)
	require.NoError(t, store.Clear())

	count, err := store.Count("vvt_misalignment")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)

	first, _, err := store.Record("vvt_misalignment", time.Now())
	require.NoError(t, err)
	assert.True(t, first)
}
