package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// IndexFilename is the index document kept beside the snapshot artifacts.
const IndexFilename = "backup_index.json"

type indexDocument struct {
	Backups []Record `json:"backups"`
}

// readIndex loads all records from the index document. A missing index
// means no backups yet, not an error.
func (m *Manager) readIndex() ([]Record, error) {
	path := filepath.Join(m.policy.Dir, IndexFilename)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var doc indexDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", IndexFilename, err)
	}
	return doc.Backups, nil
}

// writeIndex rewrites the whole index document atomically, newest first.
func (m *Manager) writeIndex(records []Record) error {
	sortNewestFirst(records)
	doc := indexDocument{Backups: records}
	data, err := json.MarshalIndent(&doc, "", "    ")
	if err != nil {
		return err
	}

	path := filepath.Join(m.policy.Dir, IndexFilename)
	tmp, err := os.CreateTemp(m.policy.Dir, IndexFilename+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// sortNewestFirst orders records by timestamp descending, breaking ties by
// filename so eviction is deterministic.
func sortNewestFirst(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].Timestamp.Equal(records[j].Timestamp) {
			return records[i].Timestamp.After(records[j].Timestamp)
		}
		return records[i].Filename > records[j].Filename
	})
}
