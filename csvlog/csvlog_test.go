package csvlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grdiag/sampler"
)

func testSnapshot(rpm float64) *sampler.Snapshot {
	snapshot := sampler.NewSnapshot(
		time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		[]string{"rpm", "vvt_bank1"},
	)
	snapshot.Set("rpm", rpm)
	return snapshot
}

func TestAppendWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.csv")
	logger := New(path)
	defer logger.Close()

	require.NoError(t, logger.Append(testSnapshot(750)))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "timestamp,rpm,vvt_bank1", lines[0])
	assert.Equal(t, "2024-06-01 12:00:00,750,", lines[1])

	require.NoError(t, logger.Append(testSnapshot(3500)))

	content, err = os.ReadFile(path)
	require.NoError(t, err)
	lines = strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "2024-06-01 12:00:00,3500,", lines[2])
	// still exactly one header
	assert.Equal(t, 1, strings.Count(string(content), "timestamp"))
}

func TestAppendToExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.csv")

	first := New(path)
	require.NoError(t, first.Append(testSnapshot(750)))
	require.NoError(t, first.Close())

	// a new process appends without re-writing the header
	second := New(path)
	defer second.Close()
	require.NoError(t, second.Append(testSnapshot(800)))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, 1, strings.Count(string(content), "timestamp"))
}
