package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Theme values accepted in settings.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Settings is the small persisted user configuration: theme, last used
// inventory file, and the backup policy. It is a plain value handed to the
// components that need it; there is no process-wide singleton.
type Settings struct {
	Theme    string       `toml:"theme"`
	LastFile string       `toml:"last_file,omitempty"`
	Backup   BackupPolicy `toml:"backup"`
}

// BackupPolicy mirrors the backup manager's policy knobs.
type BackupPolicy struct {
	MaxBackups                   int    `toml:"max_backups"`
	BackupDir                    string `toml:"backup_dir"`
	CompressionEnabled           bool   `toml:"compression_enabled"`
	MinAutoBackupIntervalMinutes int    `toml:"min_auto_backup_interval_minutes"`
}

// Default returns the settings used when no settings file exists yet.
func Default(dataDir string) *Settings {
	return &Settings{
		Theme: ThemeDark,
		Backup: BackupPolicy{
			MaxBackups:                   5,
			BackupDir:                    filepath.Join(dataDir, "backups"),
			CompressionEnabled:           true,
			MinAutoBackupIntervalMinutes: 60,
		},
	}
}

// Normalize clamps out-of-range values so downstream components can rely
// on the documented invariants (maxBackups >= 1, interval >= 0).
func (s *Settings) Normalize(dataDir string) {
	if s.Theme != ThemeDark && s.Theme != ThemeLight {
		s.Theme = ThemeDark
	}
	if s.Backup.MaxBackups < 1 {
		s.Backup.MaxBackups = 1
	}
	if s.Backup.MinAutoBackupIntervalMinutes < 0 {
		s.Backup.MinAutoBackupIntervalMinutes = 0
	}
	if s.Backup.BackupDir == "" {
		s.Backup.BackupDir = filepath.Join(dataDir, "backups")
	}
}

// Manager handles reading and writing settings.
type Manager struct{}

// Read decodes Settings from the provided reader.
func (m *Manager) Read(r io.Reader) (*Settings, error) {
	var s Settings
	if _, err := toml.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	return &s, nil
}

// Write encodes Settings to the provided writer.
func (m *Manager) Write(w io.Writer, s *Settings) error {
	if err := toml.NewEncoder(w).Encode(s); err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	return nil
}

// ReadFromFile reads Settings from path. A missing file is not an error:
// defaults for dataDir are returned instead.
func ReadFromFile(path, dataDir string) (*Settings, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(dataDir), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open settings file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	s, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading settings from %s: %w", path, err)
	}
	return s, nil
}

// writeToFile writes Settings to path via a temp file and rename, creating
// the parent directory if needed.
func writeToFile(path string, s *Settings) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp settings file: %w", err)
	}
	tmpPath := tmp.Name()

	m := &Manager{}
	if err := m.Write(tmp, s); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing settings to %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp settings file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing settings file: %w", err)
	}
	return nil
}

// Init creates a new settings file at path. Fails if one already exists.
func Init(path string, s *Settings) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("settings file already exists at %s", path)
	}
	if err := writeToFile(path, s); err != nil {
		return fmt.Errorf("initializing settings: %w", err)
	}
	return nil
}

// FileStore couples Settings with the path they persist to, so components
// that mutate settings (last used file) can save them back.
type FileStore struct {
	path     string
	settings *Settings
}

// LoadFileStore reads settings from path (defaults when absent), normalizes
// them, and returns a FileStore bound to that path.
func LoadFileStore(path, dataDir string) (*FileStore, error) {
	s, err := ReadFromFile(path, dataDir)
	if err != nil {
		return nil, err
	}
	s.Normalize(dataDir)
	return &FileStore{path: path, settings: s}, nil
}

// Settings returns the live settings value.
func (fs *FileStore) Settings() *Settings { return fs.settings }

// Save persists the current settings back to the bound path.
func (fs *FileStore) Save() error {
	return writeToFile(fs.path, fs.settings)
}
