// Package rawlog persists and replays the raw hardware tick stream a
// workout session was built from, so a session can be re-analyzed offline
// without needing the rowing machine itself.
package rawlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sergiomo/diy-rower-monitor/internal/fsutil"
	"github.com/sergiomo/diy-rower-monitor/internal/security"
)

// filenameLayout matches the original desktop application's convention so
// logs from either implementation sort the same way on disk.
const filenameLayout = "2006-01-02 15h04m05s"

// columnName is the CSV header for the single tick column.
const columnName = "ticks"

// FilenameForSessionStart returns the log filename a session started at
// startedAt should be saved under.
func FilenameForSessionStart(startedAt time.Time) string {
	return startedAt.Format(filenameLayout) + ".csv"
}

// Save writes rawTicks to <folderPath>/<FilenameForSessionStart(startedAt)>,
// one tick per row under a "ticks" header, refusing to write outside
// folderPath.
func Save(fs fsutil.FileSystem, folderPath string, startedAt time.Time, rawTicks []uint32) (string, error) {
	path := filepath.Join(folderPath, FilenameForSessionStart(startedAt))
	if err := security.ValidatePathWithinDirectory(path, folderPath); err != nil {
		return "", fmt.Errorf("rawlog: %w", err)
	}

	if err := fs.MkdirAll(folderPath, 0o755); err != nil {
		return "", fmt.Errorf("rawlog: creating %s: %w", folderPath, err)
	}

	f, err := fs.Create(path)
	if err != nil {
		return "", fmt.Errorf("rawlog: creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{columnName}); err != nil {
		return "", fmt.Errorf("rawlog: writing header to %s: %w", path, err)
	}
	for _, tick := range rawTicks {
		if err := w.Write([]string{strconv.FormatUint(uint64(tick), 10)}); err != nil {
			return "", fmt.Errorf("rawlog: writing row to %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("rawlog: flushing %s: %w", path, err)
	}

	return path, nil
}

// Load reads back a raw-tick CSV previously written by Save, in row order.
func Load(fs fsutil.FileSystem, path string) ([]uint32, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("rawlog: opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("rawlog: reading header of %s: %w", path, err)
	}
	if len(header) != 1 || header[0] != columnName {
		return nil, fmt.Errorf("rawlog: %s has unexpected header %v", path, header)
	}

	var ticks []uint32
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("rawlog: reading row of %s: %w", path, err)
		}
		tick, err := strconv.ParseUint(record[0], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("rawlog: malformed row in %s: %w", path, err)
		}
		ticks = append(ticks, uint32(tick))
	}
	return ticks, nil
}
