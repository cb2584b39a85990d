package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Settings{
		Theme:    ThemeLight,
		LastFile: "/home/user/supplements.sup",
		Backup: BackupPolicy{
			MaxBackups:                   7,
			BackupDir:                    "/home/user/.local/share/suptrack/backups",
			CompressionEnabled:           false,
			MinAutoBackupIntervalMinutes: 30,
		},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.Theme != original.Theme {
		t.Errorf("Theme = %q, want %q", got.Theme, original.Theme)
	}
	if got.LastFile != original.LastFile {
		t.Errorf("LastFile = %q, want %q", got.LastFile, original.LastFile)
	}
	if got.Backup != original.Backup {
		t.Errorf("Backup = %+v, want %+v", got.Backup, original.Backup)
	}
}

func TestManager_Read_Invalid(t *testing.T) {
	m := &Manager{}
	if _, err := m.Read(bytes.NewBufferString("theme = [broken")); err == nil {
		t.Error("Read() should fail on malformed TOML")
	}
}

func TestDefault(t *testing.T) {
	s := Default("/data")

	if s.Theme != ThemeDark {
		t.Errorf("Theme = %q, want dark", s.Theme)
	}
	if s.LastFile != "" {
		t.Errorf("LastFile = %q, want empty", s.LastFile)
	}
	if s.Backup.MaxBackups != 5 {
		t.Errorf("MaxBackups = %d, want 5", s.Backup.MaxBackups)
	}
	if s.Backup.BackupDir != filepath.Join("/data", "backups") {
		t.Errorf("BackupDir = %q", s.Backup.BackupDir)
	}
	if !s.Backup.CompressionEnabled {
		t.Error("CompressionEnabled should default to true")
	}
	if s.Backup.MinAutoBackupIntervalMinutes != 60 {
		t.Errorf("MinAutoBackupIntervalMinutes = %d, want 60", s.Backup.MinAutoBackupIntervalMinutes)
	}
}

func TestSettings_Normalize(t *testing.T) {
	s := &Settings{
		Theme: "solarized",
		Backup: BackupPolicy{
			MaxBackups:                   0,
			MinAutoBackupIntervalMinutes: -10,
		},
	}
	s.Normalize("/data")

	if s.Theme != ThemeDark {
		t.Errorf("Theme = %q, want fallback to dark", s.Theme)
	}
	if s.Backup.MaxBackups != 1 {
		t.Errorf("MaxBackups = %d, want clamped to 1", s.Backup.MaxBackups)
	}
	if s.Backup.MinAutoBackupIntervalMinutes != 0 {
		t.Errorf("MinAutoBackupIntervalMinutes = %d, want clamped to 0", s.Backup.MinAutoBackupIntervalMinutes)
	}
	if s.Backup.BackupDir != filepath.Join("/data", "backups") {
		t.Errorf("BackupDir = %q, want default", s.Backup.BackupDir)
	}
}

func TestReadFromFile(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		s, err := ReadFromFile(filepath.Join(t.TempDir(), "absent.toml"), "/data")
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if s.Theme != ThemeDark || s.Backup.MaxBackups != 5 {
			t.Errorf("expected defaults, got %+v", s)
		}
	})

	t.Run("reads an existing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "settings.toml")
		doc := "theme = \"light\"\nlast_file = \"/tmp/x.sup\"\n\n[backup]\nmax_backups = 3\n"
		if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
			t.Fatal(err)
		}

		s, err := ReadFromFile(path, "/data")
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if s.Theme != ThemeLight || s.LastFile != "/tmp/x.sup" || s.Backup.MaxBackups != 3 {
			t.Errorf("unexpected settings: %+v", s)
		}
	})
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "settings.toml")

	if err := Init(path, Default("/data")); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("settings file not created: %v", err)
	}

	if err := Init(path, Default("/data")); err == nil {
		t.Error("Init() should fail when the file already exists")
	}
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.toml")

	fs, err := LoadFileStore(path, dir)
	if err != nil {
		t.Fatalf("LoadFileStore() error = %v", err)
	}

	fs.Settings().LastFile = "/tmp/current.sup"
	if err := fs.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	reopened, err := LoadFileStore(path, dir)
	if err != nil {
		t.Fatalf("LoadFileStore() after save error = %v", err)
	}
	if got := reopened.Settings().LastFile; got != "/tmp/current.sup" {
		t.Errorf("LastFile = %q, want persisted value", got)
	}
}
