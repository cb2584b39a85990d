package tracker

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// FileExt is the extension for inventory save files.
const FileExt = ".sup"

const dateLayout = "2006-01-02"

// Codec serializes a Store to and from the versioned save-file document.
//
// The on-disk format is a JSON document with a save_date and the ordered
// list of supplement records. On load, a bulk catch-up decay is applied
// once from save_date, so counts reflect the days the program was not
// running.
type Codec struct {
	logger Logger
	clock  Clock
	idgen  IDGenerator
}

// NewCodec creates a Codec with the provided dependencies.
func NewCodec(logger Logger, clock Clock, idgen IDGenerator) *Codec {
	return &Codec{logger: logger, clock: clock, idgen: idgen}
}

type saveDocument struct {
	SaveDate    string       `json:"save_date"`
	Supplements []itemRecord `json:"supplements"`
}

// itemRecord is the wire form of an Item. Required fields are pointers so
// that an absent key is distinguishable from a zero value on decode.
// auto_decrement is optional and defaults to true for files written before
// the flag existed; id is optional and assigned on decode when absent.
type itemRecord struct {
	ID            string   `json:"id,omitempty"`
	Name          *string  `json:"name"`
	CurrentCount  *int     `json:"current_count"`
	InitialCount  *int     `json:"initial_count"`
	Cost          *float64 `json:"cost"`
	Tags          []string `json:"tags"`
	Link          string   `json:"link"`
	DailyDose     *int     `json:"daily_dose"`
	AutoDecrement *bool    `json:"auto_decrement,omitempty"`
	LastUpdated   *string  `json:"last_updated"`
}

// Save writes the store to path as a save-file document, stamped with
// today's date. The write goes through a temp file and rename so a failure
// never leaves a partially written target. Failures are returned as
// *PersistenceError.
func (c *Codec) Save(store *Store, path string) error {
	now := c.clock.Now()
	doc := saveDocument{
		SaveDate:    DateOf(now).Format(dateLayout),
		Supplements: make([]itemRecord, 0, store.Len()),
	}
	for _, item := range store.Items() {
		doc.Supplements = append(doc.Supplements, encodeItem(item))
	}

	data, err := json.MarshalIndent(&doc, "", "    ")
	if err != nil {
		return &PersistenceError{Path: path, Err: err}
	}
	if err := writeFileAtomic(path, data, 0644); err != nil {
		return &PersistenceError{Path: path, Err: err}
	}

	c.logger.Info("inventory saved", "path", path, "items", store.Len())
	return nil
}

// Load reads a save-file document and reconstructs the store.
//
// A missing file yields ErrFileNotFound; callers decide whether that is an
// error (explicit path) or a fresh start (default path). Undecodable
// documents yield *FormatError, and parseable documents lacking required
// fields yield *MissingFieldError.
//
// After decoding, a single catch-up decay is applied from save_date to all
// items with auto-decrement enabled, and every item's LastUpdated is reset
// to today. This uses the same whole-day arithmetic as Item.UpdateCount.
func (c *Codec) Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading save file %s: %w", path, err)
	}

	var doc saveDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &FormatError{Path: path, Err: err}
	}
	if doc.SaveDate == "" {
		return nil, &MissingFieldError{Path: path, Field: "save_date"}
	}
	saveDate, err := time.Parse(dateLayout, doc.SaveDate)
	if err != nil {
		return nil, &FormatError{Path: path, Err: fmt.Errorf("save_date: %w", err)}
	}

	now := c.clock.Now()
	daysPassed := DaysBetween(saveDate, now)

	store := NewStore()
	for _, rec := range doc.Supplements {
		item, err := c.decodeItem(path, rec)
		if err != nil {
			return nil, err
		}
		if item.AutoDecrement {
			item.CurrentCount = max(0, item.CurrentCount-daysPassed*item.DailyDose)
		}
		item.LastUpdated = DateOf(now)
		store.Add(item)
	}

	c.logger.Info("inventory loaded", "path", path, "items", store.Len(), "days_passed", daysPassed)
	return store, nil
}

func encodeItem(item *Item) itemRecord {
	name := item.Name
	count := item.CurrentCount
	initial := item.InitialCount
	cost := item.Cost
	dose := item.DailyDose
	auto := item.AutoDecrement
	updated := item.LastUpdated.Format(dateLayout)
	return itemRecord{
		ID:            item.ID,
		Name:          &name,
		CurrentCount:  &count,
		InitialCount:  &initial,
		Cost:          &cost,
		Tags:          item.Tags,
		Link:          item.Link,
		DailyDose:     &dose,
		AutoDecrement: &auto,
		LastUpdated:   &updated,
	}
}

func (c *Codec) decodeItem(path string, rec itemRecord) (*Item, error) {
	switch {
	case rec.Name == nil:
		return nil, &MissingFieldError{Path: path, Field: "name"}
	case rec.CurrentCount == nil:
		return nil, &MissingFieldError{Path: path, Field: "current_count"}
	case rec.InitialCount == nil:
		return nil, &MissingFieldError{Path: path, Field: "initial_count"}
	case rec.Cost == nil:
		return nil, &MissingFieldError{Path: path, Field: "cost"}
	case rec.DailyDose == nil:
		return nil, &MissingFieldError{Path: path, Field: "daily_dose"}
	case rec.LastUpdated == nil:
		return nil, &MissingFieldError{Path: path, Field: "last_updated"}
	}

	lastUpdated, err := time.Parse(dateLayout, *rec.LastUpdated)
	if err != nil {
		return nil, &FormatError{Path: path, Err: fmt.Errorf("last_updated: %w", err)}
	}

	auto := true
	if rec.AutoDecrement != nil {
		auto = *rec.AutoDecrement
	}

	id := rec.ID
	if id == "" {
		// Files written before stable IDs existed.
		id = c.idgen.New()
	}

	return &Item{
		ID:            id,
		Name:          *rec.Name,
		CurrentCount:  max(0, *rec.CurrentCount),
		InitialCount:  *rec.InitialCount,
		Cost:          *rec.Cost,
		Tags:          rec.Tags,
		Link:          rec.Link,
		DailyDose:     max(0, *rec.DailyDose),
		AutoDecrement: auto,
		LastUpdated:   DateOf(lastUpdated),
	}, nil
}

// writeFileAtomic writes data to a temp file in the target's directory and
// renames it into place, so readers never observe a partial write.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming into place: %w", err)
	}
	return nil
}
