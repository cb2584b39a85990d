package tracker

import (
	"math"
	"time"
)

// Item is one tracked supplement and its consumption state.
//
// LastUpdated is a calendar date (normalized to UTC midnight); decay is
// computed from whole-day differences so that repeated updates within the
// same day never double-decrement.
type Item struct {
	ID            string
	Name          string
	CurrentCount  int
	InitialCount  int
	Cost          float64
	Tags          []string
	Link          string
	DailyDose     int
	AutoDecrement bool
	LastUpdated   time.Time
}

// NewItem creates an Item with LastUpdated set to today's date.
// AutoDecrement defaults to true.
func NewItem(name string, currentCount, initialCount int, cost float64, tags []string, link string, dailyDose int, now time.Time) *Item {
	return &Item{
		Name:          name,
		CurrentCount:  max(0, currentCount),
		InitialCount:  initialCount,
		Cost:          math.Max(0, cost),
		Tags:          tags,
		Link:          link,
		DailyDose:     max(0, dailyDose),
		AutoDecrement: true,
		LastUpdated:   DateOf(now),
	}
}

// DateOf strips the time component, returning the civil date at UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole calendar days from one date to
// another, never negative. Both arguments are normalized to civil dates
// first, so two times on the same day always yield zero.
func DaysBetween(from, to time.Time) int {
	days := int(DateOf(to).Sub(DateOf(from)) / (24 * time.Hour))
	if days < 0 {
		return 0
	}
	return days
}

// UpdateCount applies time-based decay: one daily dose per whole calendar
// day elapsed since LastUpdated, floored at zero. Calling it again on the
// same day is a no-op. Items with AutoDecrement disabled are untouched.
func (i *Item) UpdateCount(now time.Time) {
	if !i.AutoDecrement {
		return
	}
	daysPassed := DaysBetween(i.LastUpdated, now)
	dosesTaken := daysPassed * i.DailyDose
	i.CurrentCount = max(0, i.CurrentCount-dosesTaken)
	i.LastUpdated = DateOf(now)
}

// DaysRemaining returns how many days of supply are left at the current
// daily dose, keeping fractional precision for sorting and display.
// Items with no daily dose never deplete and report +Inf.
func (i *Item) DaysRemaining() float64 {
	if i.DailyDose == 0 {
		return math.Inf(1)
	}
	return float64(i.CurrentCount) / float64(i.DailyDose)
}

// Clone returns a deep copy of the item.
func (i *Item) Clone() *Item {
	c := *i
	c.Tags = append([]string(nil), i.Tags...)
	return &c
}
