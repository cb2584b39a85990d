package app

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTabHandler(t *testing.T) {
	t.Run("formats tab separated fields", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(&tabHandler{w: &buf, opID: "20240115T103000Z/test"})

		logger.Info("backup created", "file", "20240115_103000.sup", "auto", false)

		line := strings.TrimSuffix(buf.String(), "\n")
		fields := strings.Split(line, "\t")
		if len(fields) != 6 {
			t.Fatalf("got %d fields, want 6: %q", len(fields), line)
		}
		if fields[1] != "INFO" {
			t.Errorf("level = %q, want INFO", fields[1])
		}
		if fields[2] != "20240115T103000Z/test" {
			t.Errorf("opID = %q", fields[2])
		}
		if fields[3] != "backup created" {
			t.Errorf("message = %q", fields[3])
		}
		if fields[4] != "file=20240115_103000.sup" || fields[5] != "auto=false" {
			t.Errorf("attrs = %q %q", fields[4], fields[5])
		}
	})

	t.Run("WithAttrs carries preset attrs on every record", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(&tabHandler{w: &buf, opID: "op"}).With("component", "backup")

		logger.Warn("cleanup failed")

		if !strings.Contains(buf.String(), "\tcomponent=backup") {
			t.Errorf("preset attr missing: %q", buf.String())
		}
	})
}

func TestNewLogger(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "log")

	logger, f, err := newLogger(dir, "op-1")
	if err != nil {
		t.Fatalf("newLogger() error = %v", err)
	}
	defer f.Close()

	logger.Info("started")

	data, err := os.ReadFile(filepath.Join(dir, "suptrack.log"))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "\tINFO\top-1\tstarted") {
		t.Errorf("log line = %q", data)
	}
}
