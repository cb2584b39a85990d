// Package backup snapshots the inventory save file, rotates old snapshots
// and restores a chosen snapshot back to the active file.
//
// Snapshot artifacts live in a single directory next to an index document
// listing every backup record. Failures during snapshot creation are
// reported through a typed Outcome and logged, never raised to the caller,
// so a failed backup can never block a save.
package backup

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Logger and Clock mirror the tracker package seams; they are declared here
// so this package stands alone and any implementation satisfies both.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type Clock interface {
	Now() time.Time
}

// ErrBackupNotFound indicates the named snapshot artifact is absent.
var ErrBackupNotFound = errors.New("backup: not found")

// Policy controls when snapshots are taken and how long they are kept.
type Policy struct {
	MaxBackups      int
	Dir             string
	Compress        bool
	MinAutoInterval time.Duration
}

// Record describes one snapshot in the index.
type Record struct {
	Filename     string    `json:"filename"`
	OriginalFile string    `json:"original_file"`
	Timestamp    time.Time `json:"timestamp"`
	IsAuto       bool      `json:"is_auto"`
	SizeBytes    int64     `json:"size_bytes"`
}

// Status classifies the result of a Create call.
type Status string

const (
	StatusCreated Status = "created"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Outcome is the typed result of a Create call, so callers and tests can
// tell "interval not elapsed" apart from an I/O error.
type Outcome struct {
	Status Status
	Reason string  // set for skips
	Record *Record // set when created
	Err    error   // set when failed
}

// Manager owns the snapshot lifecycle: eligibility, naming, copying,
// indexing, eviction and restore. Single-process use only; the index is
// read-modify-write without locking.
type Manager struct {
	policy     Policy
	logger     Logger
	clock      Clock
	lastBackup time.Time
}

const nameLayout = "20060102_150405"

// NewManager creates a Manager for the given policy. The last backup time
// is recovered from the newest index record, so the auto-backup interval
// survives restarts.
func NewManager(policy Policy, logger Logger, clock Clock) (*Manager, error) {
	if policy.MaxBackups < 1 {
		policy.MaxBackups = 1
	}
	m := &Manager{policy: policy, logger: logger, clock: clock}

	records, err := m.readIndex()
	if err != nil {
		return nil, fmt.Errorf("reading backup index: %w", err)
	}
	for _, rec := range records {
		if rec.Timestamp.After(m.lastBackup) {
			m.lastBackup = rec.Timestamp
		}
	}
	return m, nil
}

// ShouldBackup reports whether a snapshot is eligible right now. Manual
// saves are always eligible; automatic saves only once the minimum interval
// has elapsed since the last backup.
func (m *Manager) ShouldBackup(isAuto bool, now time.Time) bool {
	if !isAuto {
		return true
	}
	if m.lastBackup.IsZero() {
		return true
	}
	return now.Sub(m.lastBackup) >= m.policy.MinAutoInterval
}

// Create snapshots the source file into the backup directory.
//
// A missing source or an ineligible auto save yields a Skipped outcome.
// Any I/O error aborts the snapshot, is logged, and yields a Failed
// outcome; Create never returns an error to the caller. On success the
// record is appended to the index and old snapshots are evicted.
func (m *Manager) Create(source string, isAuto bool) Outcome {
	now := m.clock.Now()

	if _, err := os.Stat(source); errors.Is(err, fs.ErrNotExist) {
		return Outcome{Status: StatusSkipped, Reason: "source file does not exist"}
	} else if err != nil {
		return m.failed("stat source", err)
	}

	if !m.ShouldBackup(isAuto, now) {
		return Outcome{Status: StatusSkipped, Reason: "minimum auto-backup interval not elapsed"}
	}

	if err := os.MkdirAll(m.policy.Dir, 0755); err != nil {
		return m.failed("creating backup directory", err)
	}

	filename, err := m.uniqueName(now, filepath.Ext(source))
	if err != nil {
		return m.failed("choosing backup name", err)
	}
	dest := filepath.Join(m.policy.Dir, filename)

	size, err := m.writeArtifact(source, dest)
	if err != nil {
		os.Remove(dest)
		return m.failed("copying to backup", err)
	}

	rec := Record{
		Filename:     filename,
		OriginalFile: source,
		Timestamp:    now,
		IsAuto:       isAuto,
		SizeBytes:    size,
	}

	records, err := m.readIndex()
	if err != nil {
		os.Remove(dest)
		return m.failed("reading backup index", err)
	}
	records = append(records, rec)
	if err := m.writeIndex(records); err != nil {
		os.Remove(dest)
		return m.failed("writing backup index", err)
	}

	m.lastBackup = now

	removed, err := m.Cleanup()
	if err != nil {
		m.logger.Warn("backup cleanup failed", "error", err)
	} else if removed > 0 {
		m.logger.Debug("old backups evicted", "count", removed)
	}

	m.logger.Info("backup created", "file", filename, "auto", isAuto, "bytes", size)
	return Outcome{Status: StatusCreated, Record: &rec}
}

func (m *Manager) failed(context string, err error) Outcome {
	wrapped := fmt.Errorf("%s: %w", context, err)
	m.logger.Error("backup failed", "error", wrapped)
	return Outcome{Status: StatusFailed, Err: wrapped}
}

// uniqueName builds a timestamp-based artifact name, appending a counter
// suffix until it does not collide with an existing artifact.
func (m *Manager) uniqueName(now time.Time, ext string) (string, error) {
	base := now.Format(nameLayout)
	suffix := ext
	if m.policy.Compress {
		suffix += ".gz"
	}

	candidate := base + suffix
	for n := 1; ; n++ {
		_, err := os.Stat(filepath.Join(m.policy.Dir, candidate))
		if errors.Is(err, fs.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		candidate = fmt.Sprintf("%s_%d%s", base, n, suffix)
	}
}

// writeArtifact copies source to dest, gzip-compressing when the policy
// asks for it. Returns the stored artifact's size in bytes.
func (m *Manager) writeArtifact(source, dest string) (int64, error) {
	in, err := os.Open(source)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return 0, err
	}

	var w io.Writer = out
	var gz *gzip.Writer
	if m.policy.Compress {
		gz = gzip.NewWriter(out)
		w = gz
	}

	if _, err := io.Copy(w, in); err != nil {
		out.Close()
		return 0, err
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			out.Close()
			return 0, err
		}
	}
	if err := out.Close(); err != nil {
		return 0, err
	}

	info, err := os.Stat(dest)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Cleanup evicts the oldest snapshots beyond the retention limit, deleting
// both the artifacts and their index entries. Safe to call when already
// within the limit. Returns the number of records removed.
func (m *Manager) Cleanup() (int, error) {
	records, err := m.readIndex()
	if err != nil {
		return 0, fmt.Errorf("reading backup index: %w", err)
	}
	if len(records) <= m.policy.MaxBackups {
		return 0, nil
	}

	sortNewestFirst(records)
	keep := records[:m.policy.MaxBackups]
	evict := records[m.policy.MaxBackups:]

	for _, rec := range evict {
		path := filepath.Join(m.policy.Dir, rec.Filename)
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return 0, fmt.Errorf("deleting %s: %w", rec.Filename, err)
		}
	}

	if err := m.writeIndex(keep); err != nil {
		return 0, fmt.Errorf("writing backup index: %w", err)
	}
	return len(evict), nil
}

// Restore overwrites target with the contents of the named snapshot,
// decompressing when the artifact carries the compression marker. The
// target is replaced atomically. Restore does not snapshot the pre-restore
// state; callers wanting a safety net request a manual backup first.
func (m *Manager) Restore(filename, target string) error {
	src := filepath.Join(m.policy.Dir, filename)
	in, err := os.Open(src)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrBackupNotFound, filename)
	}
	if err != nil {
		return fmt.Errorf("opening backup: %w", err)
	}
	defer in.Close()

	var r io.Reader = in
	if strings.HasSuffix(filename, ".gz") {
		gz, err := gzip.NewReader(in)
		if err != nil {
			return fmt.Errorf("decompressing backup: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating target directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(target)+".restore-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing restored file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing restored file: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing target: %w", err)
	}

	m.logger.Info("backup restored", "file", filename, "target", target)
	return nil
}

// List returns all backup records, newest first. Pure read.
func (m *Manager) List() ([]Record, error) {
	records, err := m.readIndex()
	if err != nil {
		return nil, fmt.Errorf("reading backup index: %w", err)
	}
	sortNewestFirst(records)
	return records, nil
}
