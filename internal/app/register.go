package app

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/adrg/xdg"
)

const mimeDefinition = `<?xml version="1.0" encoding="UTF-8"?>
<mime-info xmlns="http://www.freedesktop.org/standards/shared-mime-info">
  <mime-type type="application/x-suptrack">
    <comment>Supplement inventory file</comment>
    <glob pattern="*.sup"/>
  </mime-type>
</mime-info>
`

const desktopEntry = `[Desktop Entry]
Type=Application
Name=Supplement Tracker
Exec=suptrack list --file %f
MimeType=application/x-suptrack;
NoDisplay=true
Terminal=true
`

// RegisterFileType associates the .sup extension with this application.
// This is pure OS integration with no core logic: on Linux it writes an XDG
// shared-mime definition and a desktop entry; other platforms are not
// supported. The user may need to run update-mime-database afterwards.
func RegisterFileType() error {
	if runtime.GOOS != "linux" {
		return fmt.Errorf("file type registration is not supported on %s", runtime.GOOS)
	}

	xdg.Reload()
	dataHome := xdg.DataHome
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	mimePath := filepath.Join(dataHome, "mime", "packages", "suptrack.xml")
	if err := os.MkdirAll(filepath.Dir(mimePath), 0755); err != nil {
		return fmt.Errorf("creating mime directory: %w", err)
	}
	if err := os.WriteFile(mimePath, []byte(mimeDefinition), 0644); err != nil {
		return fmt.Errorf("writing mime definition: %w", err)
	}

	desktopPath := filepath.Join(dataHome, "applications", "suptrack.desktop")
	if err := os.MkdirAll(filepath.Dir(desktopPath), 0755); err != nil {
		return fmt.Errorf("creating applications directory: %w", err)
	}
	if err := os.WriteFile(desktopPath, []byte(desktopEntry), 0644); err != nil {
		return fmt.Errorf("writing desktop entry: %w", err)
	}

	return nil
}
