package pulsesource

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergiomo/diy-rower-monitor/internal/fsutil"
	"github.com/sergiomo/diy-rower-monitor/internal/timeutil"
)

func writeCSV(t *testing.T, fs *fsutil.MemoryFileSystem, path, body string) {
	t.Helper()
	require.NoError(t, fs.WriteFile(path, []byte(body), 0o600))
}

func TestReplayDeliversEveryNonDummyRow(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	writeCSV(t, fs, "/session.csv", "ticks\n100\n0\n250\n400\n")

	src := NewReplaySource(ReplayOptions{FS: fs, Path: "/session.csv"})
	var got []uint32
	err := src.Start(func(rawTick uint32) { got = append(got, rawTick) })

	require.NoError(t, err)
	assert.Equal(t, []uint32{100, 250, 400}, got)
}

func TestReplayMalformedRowIsSkippedNotFatal(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	writeCSV(t, fs, "/session.csv", "ticks\n100\nnotanumber\n250\n")

	src := NewReplaySource(ReplayOptions{FS: fs, Path: "/session.csv"})
	var got []uint32
	err := src.Start(func(rawTick uint32) { got = append(got, rawTick) })

	require.NoError(t, err)
	assert.Equal(t, []uint32{100, 250}, got)
}

func TestReplayMissingColumnIsSourceError(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	writeCSV(t, fs, "/session.csv", "other\n1\n")

	src := NewReplaySource(ReplayOptions{FS: fs, Path: "/session.csv"})
	err := src.Start(func(uint32) {})

	require.Error(t, err)
	var srcErr *SourceError
	assert.ErrorAs(t, err, &srcErr)
}

func TestReplayPacesWithClockWhenConfigured(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	writeCSV(t, fs, "/session.csv", "ticks\n100\n250\n")
	clock := timeutil.NewMockClock(time.Unix(0, 0))

	src := NewReplaySource(ReplayOptions{FS: fs, Path: "/session.csv", Clock: clock, PaceDelay: 16 * time.Millisecond})
	var count int
	err := src.Start(func(uint32) { count++ })

	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, []time.Duration{16 * time.Millisecond, 16 * time.Millisecond}, clock.Sleeps())
}

func TestReplayStopEndsEarly(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	writeCSV(t, fs, "/session.csv", "ticks\n100\n250\n400\n")

	src := NewReplaySource(ReplayOptions{FS: fs, Path: "/session.csv"})
	require.NoError(t, src.Stop())

	var got []uint32
	err := src.Start(func(rawTick uint32) { got = append(got, rawTick) })
	require.NoError(t, err)
	assert.Empty(t, got)
}
