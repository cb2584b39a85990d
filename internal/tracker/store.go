package tracker

import (
	"fmt"
	"iter"
	"math"
	"strings"
	"time"
)

// Store is an ordered, insertion-order collection of Items. It assumes
// single-threaded use; callers must not interleave operations without
// external synchronization.
//
// Items carry a stable ID so the presentation layer can reference them
// across mutations; positional operations remain for callers that work in
// list positions, but indices go stale after RemoveAt.
type Store struct {
	items []*Item
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{}
}

// Len returns the number of items.
func (s *Store) Len() int { return len(s.items) }

// Items returns the items in insertion order. The returned slice is a copy;
// the items themselves are shared.
func (s *Store) Items() []*Item {
	return append([]*Item(nil), s.items...)
}

// Add appends an item. Names are not required to be unique.
func (s *Store) Add(item *Item) {
	s.items = append(s.items, item)
}

// At returns the item at the given position.
func (s *Store) At(index int) (*Item, error) {
	if index < 0 || index >= len(s.items) {
		return nil, fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, index, len(s.items))
	}
	return s.items[index], nil
}

// RemoveAt deletes the item at the given position. Subsequent indices shift
// down; callers must not reuse indices cached before the call.
func (s *Store) RemoveAt(index int) error {
	if index < 0 || index >= len(s.items) {
		return fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, index, len(s.items))
	}
	s.items = append(s.items[:index], s.items[index+1:]...)
	return nil
}

// ReplaceAt swaps in a replacement item at the given position. The
// replacement inherits the predecessor's ID and LastUpdated; callers that
// want a different timestamp set it on the item afterwards.
func (s *Store) ReplaceAt(index int, item *Item) error {
	if index < 0 || index >= len(s.items) {
		return fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, index, len(s.items))
	}
	old := s.items[index]
	item.ID = old.ID
	item.LastUpdated = old.LastUpdated
	s.items[index] = item
	return nil
}

// IndexOf returns the current position of the item with the given ID, or -1.
func (s *Store) IndexOf(id string) int {
	for i, item := range s.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// Get returns the item with the given ID, or nil.
func (s *Store) Get(id string) *Item {
	if i := s.IndexOf(id); i >= 0 {
		return s.items[i]
	}
	return nil
}

// RemoveByID deletes the item with the given ID.
func (s *Store) RemoveByID(id string) error {
	i := s.IndexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: no item with id %s", ErrIndexOutOfRange, id)
	}
	return s.RemoveAt(i)
}

// ReplaceByID swaps in a replacement for the item with the given ID,
// preserving its ID and LastUpdated.
func (s *Store) ReplaceByID(id string, item *Item) error {
	i := s.IndexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: no item with id %s", ErrIndexOutOfRange, id)
	}
	return s.ReplaceAt(i, item)
}

// Filter returns a lazy, restartable view over items whose name or any tag
// contains the search term, case-insensitively. An empty term matches
// everything. The view does not mutate the store; mutating the store while
// iterating is not supported.
func (s *Store) Filter(term string) iter.Seq[*Item] {
	needle := strings.ToLower(term)
	return func(yield func(*Item) bool) {
		for _, item := range s.items {
			if needle != "" && !matches(item, needle) {
				continue
			}
			if !yield(item) {
				return
			}
		}
	}
}

func matches(item *Item, needle string) bool {
	if strings.Contains(strings.ToLower(item.Name), needle) {
		return true
	}
	for _, tag := range item.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

// MinDaysRemaining returns the smallest DaysRemaining across all items,
// or +Inf when the store is empty. It drives the "next depletion" status.
func (s *Store) MinDaysRemaining() float64 {
	minDays := math.Inf(1)
	for _, item := range s.items {
		if days := item.DaysRemaining(); days < minDays {
			minDays = days
		}
	}
	return minDays
}

// UpdateAll applies decay to every item, as done on each display refresh.
func (s *Store) UpdateAll(now time.Time) {
	for _, item := range s.items {
		item.UpdateCount(now)
	}
}
