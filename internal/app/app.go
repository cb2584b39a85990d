package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"suptrack/internal/backup"
	"suptrack/internal/config"
	"suptrack/internal/tracker"
)

// App is the application layer between the CLI and the tracker service.
// It constructs all dependencies from settings, exposes high-level
// operations that accept raw string paths, and owns the log file lifecycle.
type App struct {
	defaults *Defaults
	settings *config.FileStore
	backups  *backup.Manager
	service  *tracker.Service
	clock    tracker.Clock
	logFile  *os.File
}

// New creates a fully wired App. operation identifies the CLI command being
// run (e.g. "AddItem", "RestoreBackup") and tags every log line. The caller
// must call Close when done.
func New(operation string) (*App, error) {
	defaults, err := GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	settings, err := config.LoadFileStore(defaults.ConfigPath, defaults.DataDir)
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	opID := time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(defaults.LogDir, opID+"/"+operation)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	adapter := &slogAdapter{l: logger}

	clock := tracker.RealClock{}
	policy := backup.Policy{
		MaxBackups:      settings.Settings().Backup.MaxBackups,
		Dir:             settings.Settings().Backup.BackupDir,
		Compress:        settings.Settings().Backup.CompressionEnabled,
		MinAutoInterval: time.Duration(settings.Settings().Backup.MinAutoBackupIntervalMinutes) * time.Minute,
	}
	backups, err := backup.NewManager(policy, adapter, clock)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating backup manager: %w", err)
	}

	idgen := tracker.UUIDGenerator{}
	codec := tracker.NewCodec(adapter, clock, idgen)
	service := tracker.NewService(codec, backups, settings, adapter, clock, idgen)

	return &App{
		defaults: defaults,
		settings: settings,
		backups:  backups,
		service:  service,
		clock:    clock,
		logFile:  logFile,
	}, nil
}

// Close releases the log file.
func (a *App) Close() error {
	if a.logFile != nil {
		return a.logFile.Close()
	}
	return nil
}

// Service exposes the underlying tracker service.
func (a *App) Service() *tracker.Service { return a.service }

// Settings exposes the live settings value.
func (a *App) Settings() *config.Settings { return a.settings.Settings() }

// Defaults exposes the resolved default paths.
func (a *App) Defaults() *Defaults { return a.defaults }

// resolvePath picks the inventory file to operate on: an explicitly given
// path wins, then the last used file from settings, then the default data
// file. Only an explicitly given path is treated as user-chosen for
// missing-file semantics.
func (a *App) resolvePath(rawPath string) (path string, explicit bool, err error) {
	switch {
	case rawPath != "":
		abs, err := filepath.Abs(rawPath)
		if err != nil {
			return "", false, fmt.Errorf("resolving path: %w", err)
		}
		return abs, true, nil
	case a.settings.Settings().LastFile != "":
		return a.settings.Settings().LastFile, false, nil
	default:
		return a.defaults.InventoryPath, false, nil
	}
}

// OpenInventory loads the inventory from rawPath, or from the last used or
// default file when rawPath is empty. Returns the path that was used.
func (a *App) OpenInventory(rawPath string) (string, error) {
	path, explicit, err := a.resolvePath(rawPath)
	if err != nil {
		return "", err
	}
	if err := a.service.Load(path, explicit); err != nil {
		return "", err
	}
	return path, nil
}

// SaveInventory writes the inventory to rawPath (or the active file when
// empty), attempting a backup of the previous contents first. Returns the
// backup outcome and the path written.
func (a *App) SaveInventory(rawPath string, userInitiated bool) (backup.Outcome, string, error) {
	path, _, err := a.resolvePath(rawPath)
	if err != nil {
		return backup.Outcome{}, "", err
	}
	outcome, err := a.service.Save(path, userInitiated)
	return outcome, path, err
}

// Items refreshes decay and returns the items matching the search term, in
// insertion order.
func (a *App) Items(search string) []*tracker.Item {
	a.service.Refresh(a.clock.Now())
	return a.service.Search(search)
}

// MinDaysRemaining returns the soonest depletion across all items.
func (a *App) MinDaysRemaining() float64 {
	return a.service.MinDaysRemaining()
}

// ListBackups returns all backup records, newest first.
func (a *App) ListBackups() ([]backup.Record, error) {
	return a.backups.List()
}

// PruneBackups evicts snapshots beyond the retention limit and returns the
// number removed.
func (a *App) PruneBackups() (int, error) {
	return a.backups.Cleanup()
}

// BackupNow takes a manual snapshot of the active inventory file.
func (a *App) BackupNow(rawPath string) (backup.Outcome, string, error) {
	path, _, err := a.resolvePath(rawPath)
	if err != nil {
		return backup.Outcome{}, "", err
	}
	return a.backups.Create(path, false), path, nil
}

// RestoreBackup overwrites the active inventory file with the named
// snapshot. A manual backup of the live file is requested first as a
// safety net, since the manager itself does not snapshot pre-restore state.
// Returns the path that was overwritten.
func (a *App) RestoreBackup(filename, rawPath string) (string, error) {
	target, _, err := a.resolvePath(rawPath)
	if err != nil {
		return "", err
	}
	a.backups.Create(target, false)
	if err := a.backups.Restore(filename, target); err != nil {
		return "", err
	}
	return target, nil
}
