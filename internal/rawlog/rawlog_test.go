package rawlog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergiomo/diy-rower-monitor/internal/fsutil"
)

func TestFilenameForSessionStartMatchesLayout(t *testing.T) {
	startedAt := time.Date(2026, time.March, 5, 18, 30, 7, 0, time.UTC)
	assert.Equal(t, "2026-03-05 18h30m07s.csv", FilenameForSessionStart(startedAt))
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	startedAt := time.Date(2026, time.March, 5, 18, 30, 7, 0, time.UTC)
	ticks := []uint32{100, 4294967290, 50, 300}

	path, err := Save(fs, "/logs", startedAt, ticks)
	require.NoError(t, err)
	assert.Equal(t, "/logs/2026-03-05 18h30m07s.csv", path)

	got, err := Load(fs, path)
	require.NoError(t, err)
	assert.Equal(t, ticks, got)
}

func TestLoadRejectsWrongHeader(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	require.NoError(t, fs.WriteFile("/logs/bad.csv", []byte("wrong\n1\n"), 0o600))
	_, err := Load(fs, "/logs/bad.csv")
	assert.Error(t, err)
}
