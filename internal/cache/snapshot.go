// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/NotAlvin/Argus-Pub/pkg/types"
)

// ArchiveDir is the subdirectory archived snapshots are moved into.
const ArchiveDir = "Archive"

// Snapshot identifies one dated dataset file.
type Snapshot struct {
	Source  string    `json:"source"`
	Date    string    `json:"date"`
	Path    string    `json:"path"`
	Format  string    `json:"format"`
	ModTime time.Time `json:"mod_time"`
}

// Snapshots manages dated dataset files named <source>_data_<YYYY-MM-DD>.<ext>.
// Snapshots have no TTL: the newest one is reused until a caller forces a
// fresh scrape.
type Snapshots struct {
	dir    string
	format string
	now    func() time.Time
}

// NewSnapshots returns a manager for dir that writes new snapshots in
// format (json, csv, or parquet; default csv).
func NewSnapshots(dir, format string) *Snapshots {
	if format == "" {
		format = FormatCSV
	}
	return &Snapshots{dir: dir, format: strings.TrimPrefix(format, "."), now: time.Now}
}

// Dir returns the snapshot directory.
func (s *Snapshots) Dir() string { return s.dir }

// FileName returns the snapshot file name for source on date.
func FileName(source string, date time.Time, format string) string {
	return fmt.Sprintf("%s_data_%s.%s", source, date.Format(types.DateLayout), format)
}

// parseName splits a snapshot file name into source, date, and format.
func parseName(name string) (source, date, format string, ok bool) {
	ext := filepath.Ext(name)
	format = strings.TrimPrefix(ext, ".")
	if _, known := codecs[format]; !known {
		return "", "", "", false
	}
	base := strings.TrimSuffix(name, ext)
	i := strings.LastIndex(base, "_data_")
	if i <= 0 {
		return "", "", "", false
	}
	source, date = base[:i], base[i+len("_data_"):]
	if _, err := time.Parse(types.DateLayout, date); err != nil {
		return "", "", "", false
	}
	return source, date, format, true
}

// List returns every snapshot in the directory, newest first. When source is
// non-empty only that source's snapshots are returned.
func (s *Snapshots) List(source string) ([]Snapshot, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot directory: %w", err)
	}

	var out []Snapshot
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		src, date, format, ok := parseName(e.Name())
		if !ok || (source != "" && src != source) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Snapshot{
			Source:  src,
			Date:    date,
			Path:    filepath.Join(s.dir, e.Name()),
			Format:  format,
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].ModTime.Equal(out[j].ModTime) {
			return out[i].ModTime.After(out[j].ModTime)
		}
		return out[i].Date > out[j].Date
	})
	return out, nil
}

// Latest returns the most recently written snapshot for source.
func (s *Snapshots) Latest(source string) (Snapshot, bool, error) {
	all, err := s.List(source)
	if err != nil || len(all) == 0 {
		return Snapshot{}, false, err
	}
	return all[0], true, nil
}

// Write stores records as today's snapshot for source and returns it.
func (s *Snapshots) Write(source string, records []types.CompanyRecord) (Snapshot, error) {
	name := FileName(source, s.now(), s.format)
	path := filepath.Join(s.dir, name)

	codec := codecs[s.format]
	if codec == nil {
		return Snapshot{}, fmt.Errorf("unknown snapshot format %q", s.format)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return Snapshot{}, fmt.Errorf("creating snapshot directory: %w", err)
	}
	if err := codec.write(path, records); err != nil {
		return Snapshot{}, fmt.Errorf("writing snapshot %s: %w", name, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Source:  source,
		Date:    s.now().Format(types.DateLayout),
		Path:    path,
		Format:  s.format,
		ModTime: info.ModTime(),
	}, nil
}

// Read loads the records of a snapshot.
func (s *Snapshots) Read(snap Snapshot) ([]types.CompanyRecord, error) {
	return ReadSnapshotFile(snap.Path)
}

// ReadSnapshotFile loads records from path, choosing the codec by extension.
func ReadSnapshotFile(path string) ([]types.CompanyRecord, error) {
	format := strings.TrimPrefix(filepath.Ext(path), ".")
	codec := codecs[format]
	if codec == nil {
		return nil, fmt.Errorf("unknown snapshot format %q", format)
	}
	records, err := codec.read(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", filepath.Base(path), err)
	}
	return records, nil
}

// WriteSnapshotFile writes records to path, choosing the codec by extension.
func WriteSnapshotFile(path string, records []types.CompanyRecord) error {
	format := strings.TrimPrefix(filepath.Ext(path), ".")
	codec := codecs[format]
	if codec == nil {
		return fmt.Errorf("unknown snapshot format %q", format)
	}
	if err := codec.write(path, records); err != nil {
		return fmt.Errorf("writing snapshot %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Archive moves every snapshot into the Archive subdirectory and returns
// how many were moved.
func (s *Snapshots) Archive() (int, error) {
	all, err := s.List("")
	if err != nil {
		return 0, err
	}
	if len(all) == 0 {
		return 0, nil
	}
	archive := filepath.Join(s.dir, ArchiveDir)
	if err := os.MkdirAll(archive, 0o755); err != nil {
		return 0, fmt.Errorf("creating archive directory: %w", err)
	}
	moved := 0
	for _, snap := range all {
		dst := filepath.Join(archive, filepath.Base(snap.Path))
		if err := os.Rename(snap.Path, dst); err != nil {
			return moved, fmt.Errorf("archiving %s: %w", filepath.Base(snap.Path), err)
		}
		moved++
	}
	return moved, nil
}
