package pulsesource

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/sergiomo/diy-rower-monitor/internal/fsutil"
	"github.com/sergiomo/diy-rower-monitor/internal/monitoring"
	"github.com/sergiomo/diy-rower-monitor/internal/timeutil"
)

// replayDummyValue is the sentinel row value a recorded log may contain for
// a tick that should be skipped on replay rather than fed back into the
// pipeline.
const replayDummyValue = 0

// ReplaySource replays a previously recorded raw-tick CSV through the same
// Handler a live source would call, optionally pacing delivery so a replay
// looks like a live session to anything observing it.
type ReplaySource struct {
	FS         fsutil.FileSystem
	Path       string
	ColumnName string // defaults to "ticks"
	Clock      timeutil.Clock
	PaceDelay  time.Duration // 0 disables pacing; requires Clock to be set

	stopOnce sync.Once
	stopped  chan struct{}
}

// ReplayOptions configures a ReplaySource.
type ReplayOptions struct {
	FS         fsutil.FileSystem
	Path       string
	ColumnName string
	Clock      timeutil.Clock
	PaceDelay  time.Duration
}

// NewReplaySource returns a ReplaySource configured by opts. ColumnName
// defaults to "ticks" if empty.
func NewReplaySource(opts ReplayOptions) *ReplaySource {
	column := opts.ColumnName
	if column == "" {
		column = "ticks"
	}
	return &ReplaySource{
		FS:         opts.FS,
		Path:       opts.Path,
		ColumnName: column,
		Clock:      opts.Clock,
		PaceDelay:  opts.PaceDelay,
		stopped:    make(chan struct{}),
	}
}

// Start opens the CSV file and synchronously replays every row through
// handler, skipping dummy rows and logging malformed ones, until the file
// is exhausted or Stop is called. Unlike LiveSource, replay does not return
// until done; callers that want asynchronous replay should run it in a
// goroutine.
func (s *ReplaySource) Start(handler Handler) error {
	file, err := s.FS.Open(s.Path)
	if err != nil {
		return &SourceError{Err: fmt.Errorf("opening replay file %s: %w", s.Path, err)}
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return &SourceError{Err: fmt.Errorf("reading header of %s: %w", s.Path, err)}
	}
	columnIdx := -1
	for i, name := range header {
		if name == s.ColumnName {
			columnIdx = i
			break
		}
	}
	if columnIdx == -1 {
		return &SourceError{Err: fmt.Errorf("column %q not found in %s", s.ColumnName, s.Path)}
	}

	line := 1
	for {
		select {
		case <-s.stopped:
			return nil
		default:
		}

		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		line++
		if err != nil {
			monitoring.Logf("%v", &MalformedPulseError{Line: line, Err: err})
			continue
		}

		rawTick, err := strconv.ParseUint(record[columnIdx], 10, 32)
		if err != nil {
			monitoring.Logf("%v", &MalformedPulseError{Line: line, Err: err})
			continue
		}
		if rawTick == replayDummyValue {
			continue
		}

		handler(uint32(rawTick))

		if s.PaceDelay > 0 && s.Clock != nil {
			s.Clock.Sleep(s.PaceDelay)
		}
	}
}

// Stop halts replay before the file is exhausted. Safe to call more than
// once or from a different goroutine than Start.
func (s *ReplaySource) Stop() error {
	s.stopOnce.Do(func() { close(s.stopped) })
	return nil
}
