package app

import (
	"os"
	"path/filepath"

	"suptrack/internal/tracker"

	"github.com/adrg/xdg"
)

// Defaults holds the application's default file locations.
type Defaults struct {
	ConfigPath    string // settings file
	DataDir       string // inventory files, backups
	LogDir        string
	InventoryPath string // default save file when none was chosen
}

// DefaultInventoryName is the default save file name in the data directory.
const DefaultInventoryName = "supplements" + tracker.FileExt

// GetDefaults returns application default paths, checking environment
// variables first, then XDG directories.
// Environment variables:
//   - SUPTRACK_CONFIG_PATH: settings file location (default: $XDG_CONFIG_HOME/suptrack/settings.toml)
//   - SUPTRACK_HOME: base directory for data (default: $XDG_DATA_HOME/suptrack)
func GetDefaults() (*Defaults, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	dataDir, err := getDataDir()
	if err != nil {
		return nil, err
	}

	return &Defaults{
		ConfigPath:    configPath,
		DataDir:       dataDir,
		LogDir:        filepath.Join(dataDir, "log"),
		InventoryPath: filepath.Join(dataDir, DefaultInventoryName),
	}, nil
}

func getConfigPath() (string, error) {
	if path := os.Getenv("SUPTRACK_CONFIG_PATH"); path != "" {
		return path, nil
	}

	xdg.Reload()
	if xdg.ConfigHome != "" {
		return filepath.Join(xdg.ConfigHome, "suptrack", "settings.toml"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "suptrack", "settings.toml"), nil
}

func getDataDir() (string, error) {
	if path := os.Getenv("SUPTRACK_HOME"); path != "" {
		return path, nil
	}

	xdg.Reload()
	if xdg.DataHome != "" {
		return filepath.Join(xdg.DataHome, "suptrack"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".local", "share", "suptrack"), nil
}
