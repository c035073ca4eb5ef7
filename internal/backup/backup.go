// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package backup keeps timestamped copies of the input workbook and prunes
// old backups and log files.
package backup

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/ManuGH/consultaprocesos/internal/log"
	"github.com/spf13/afero"
)

const (
	backupMarker    = "_backup_"
	timestampLayout = "20060102_150405"
)

var ErrSourceMissing = errors.New("backup: source file does not exist")

// Entry describes one backup file.
type Entry struct {
	Name    string    `json:"nombre"`
	Path    string    `json:"ruta"`
	Size    int64     `json:"tamano_bytes"`
	ModTime time.Time `json:"fecha_modificacion"`
}

// Manager owns the backup directory.
type Manager struct {
	fs  afero.Fs
	dir string
	now func() time.Time
}

// New returns a Manager over fsys. A nil fsys selects the OS filesystem.
func New(fsys afero.Fs, dir string) *Manager {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Manager{fs: fsys, dir: dir, now: time.Now}
}

// Dir returns the backup directory.
func (m *Manager) Dir() string { return m.dir }

// Name builds "<stem>_backup_<YYYYMMDD_HHMMSS><ext>" for src.
func Name(src string, at time.Time) string {
	base := filepath.Base(src)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return stem + backupMarker + at.Format(timestampLayout) + ext
}

// BackupInput copies src into the backup directory and returns the copy's path.
func (m *Manager) BackupInput(src string) (string, error) {
	in, err := m.fs.Open(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrSourceMissing, src)
		}
		return "", fmt.Errorf("open %s: %w", src, err)
	}
	defer func() { _ = in.Close() }()

	if err := m.fs.MkdirAll(m.dir, 0o750); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	dst := filepath.Join(m.dir, Name(src, m.now()))
	if err := afero.WriteReader(m.fs, dst, in); err != nil {
		_ = m.fs.Remove(dst)
		return "", fmt.Errorf("copy to %s: %w", dst, err)
	}
	logger := log.WithComponent("backup")
	logger.Info().Str(log.FieldPath, dst).Msg("input workbook backed up")
	return dst, nil
}

// List returns the backups, newest first.
func (m *Manager) List() ([]Entry, error) {
	infos, err := afero.ReadDir(m.fs, m.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backup dir: %w", err)
	}

	var out []Entry
	for _, fi := range infos {
		if fi.IsDir() || !strings.Contains(fi.Name(), backupMarker) {
			continue
		}
		out = append(out, Entry{
			Name:    fi.Name(),
			Path:    filepath.Join(m.dir, fi.Name()),
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		})
	}
	slices.SortFunc(out, func(a, b Entry) int { return b.ModTime.Compare(a.ModTime) })
	return out, nil
}

// Prune removes backups last modified before now-olderThan and returns how
// many were deleted.
func (m *Manager) Prune(olderThan time.Duration) (int, error) {
	return pruneMatching(m.fs, m.dir, m.now().Add(-olderThan), func(name string) bool {
		return strings.Contains(name, backupMarker)
	}, "backup")
}

// PruneLogs removes *.log files in dir last modified before now-olderThan.
func PruneLogs(fsys afero.Fs, dir string, now time.Time, olderThan time.Duration) (int, error) {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return pruneMatching(fsys, dir, now.Add(-olderThan), func(name string) bool {
		return strings.HasSuffix(name, ".log")
	}, "log")
}

func pruneMatching(fsys afero.Fs, dir string, cutoff time.Time, match func(string) bool, kind string) (int, error) {
	logger := log.WithComponent("backup")

	infos, err := afero.ReadDir(fsys, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read %s: %w", dir, err)
	}

	removed := 0
	var errs []error
	for _, fi := range infos {
		if fi.IsDir() || !match(fi.Name()) || !fi.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(dir, fi.Name())
		if err := fsys.Remove(path); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
		logger.Debug().Str(log.FieldPath, path).Str("kind", kind).Msg("old file removed")
	}
	if removed > 0 {
		logger.Info().Int("removed", removed).Str("kind", kind).Msg("pruned old files")
	}
	return removed, errors.Join(errs...)
}
