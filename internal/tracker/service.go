package tracker

import (
	"errors"
	"time"

	"suptrack/internal/backup"
	"suptrack/internal/config"
)

// Backups is the slice of the backup manager the save path needs.
type Backups interface {
	Create(source string, isAuto bool) backup.Outcome
}

// SettingsStore persists user settings between runs.
type SettingsStore interface {
	Settings() *config.Settings
	Save() error
}

// Service is the orchestration layer the presentation layer talks to. It
// owns the in-memory store and coordinates the codec, the backup manager
// and the settings store for the load and save paths.
type Service struct {
	store    *Store
	codec    *Codec
	backups  Backups
	settings SettingsStore
	logger   Logger
	clock    Clock
	idgen    IDGenerator
}

// NewService creates a Service with an empty store.
func NewService(codec *Codec, backups Backups, settings SettingsStore, logger Logger, clock Clock, idgen IDGenerator) *Service {
	return &Service{
		store:    NewStore(),
		codec:    codec,
		backups:  backups,
		settings: settings,
		logger:   logger,
		clock:    clock,
		idgen:    idgen,
	}
}

// Store returns the live inventory store.
func (s *Service) Store() *Store { return s.store }

// Load replaces the in-memory store with the contents of path.
//
// When explicit is false (the default or last-used file at startup), a
// missing file means "start empty" and is not an error. A failed load of
// any kind leaves the current in-memory store untouched.
func (s *Service) Load(path string, explicit bool) error {
	store, err := s.codec.Load(path)
	if err != nil {
		if !explicit && errors.Is(err, ErrFileNotFound) {
			s.store = NewStore()
			return nil
		}
		return err
	}

	s.store = store
	if explicit {
		s.rememberFile(path)
	}
	return nil
}

// Save snapshots the existing file, writes the store to path, and records
// path as the last used file. userInitiated maps to a manual backup, which
// is always eligible; programmatic saves are auto backups subject to the
// minimum interval. The backup outcome is informational: a failed backup
// never blocks the save.
func (s *Service) Save(path string, userInitiated bool) (backup.Outcome, error) {
	outcome := s.backups.Create(path, !userInitiated)
	switch outcome.Status {
	case backup.StatusSkipped:
		s.logger.Debug("backup skipped", "reason", outcome.Reason)
	case backup.StatusFailed:
		s.logger.Warn("proceeding with save despite failed backup", "error", outcome.Err)
	}

	if err := s.codec.Save(s.store, path); err != nil {
		return outcome, err
	}

	s.rememberFile(path)
	return outcome, nil
}

// rememberFile records path as the last used file. Settings persistence
// failures are logged, not surfaced; they must not fail a save.
func (s *Service) rememberFile(path string) {
	s.settings.Settings().LastFile = path
	if err := s.settings.Save(); err != nil {
		s.logger.Warn("failed to persist settings", "error", err)
	}
}

// AddItem appends an item to the store, assigning it a stable ID if it has
// none yet.
func (s *Service) AddItem(item *Item) {
	if item.ID == "" {
		item.ID = s.idgen.New()
	}
	s.store.Add(item)
	s.logger.Info("item added", "id", item.ID, "name", item.Name)
}

// RemoveItem deletes the item with the given ID.
func (s *Service) RemoveItem(id string) error {
	if err := s.store.RemoveByID(id); err != nil {
		return err
	}
	s.logger.Info("item removed", "id", id)
	return nil
}

// EditItem replaces the item with the given ID. The replacement keeps the
// predecessor's ID and LastUpdated, so decay accounting is unaffected.
func (s *Service) EditItem(id string, replacement *Item) error {
	if err := s.store.ReplaceByID(id, replacement); err != nil {
		return err
	}
	s.logger.Info("item edited", "id", id, "name", replacement.Name)
	return nil
}

// Refresh applies decay to every item, as done on each display refresh.
func (s *Service) Refresh(now time.Time) {
	s.store.UpdateAll(now)
}

// Search materializes the store's filtered view for display.
func (s *Service) Search(term string) []*Item {
	var out []*Item
	for item := range s.store.Filter(term) {
		out = append(out, item)
	}
	return out
}

// MinDaysRemaining returns the soonest depletion across all items, or +Inf
// when nothing depletes.
func (s *Service) MinDaysRemaining() float64 {
	return s.store.MinDaysRemaining()
}
