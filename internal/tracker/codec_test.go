package tracker_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"suptrack/internal/testutil"
	"suptrack/internal/tracker"
)

func newTestCodec(clock *testutil.StubClock) *tracker.Codec {
	return tracker.NewCodec(tracker.NewNopLogger(), clock, testutil.NewStubIDGenerator())
}

func TestCodec_RoundTrip(t *testing.T) {
	clock := testutil.FixedClock()
	codec := newTestCodec(clock)
	path := filepath.Join(t.TempDir(), "inventory.sup")

	store := tracker.NewStore()
	item := &tracker.Item{
		ID:            "item-1",
		Name:          "Vitamin D",
		CurrentCount:  90,
		InitialCount:  120,
		Cost:          12.99,
		Tags:          []string{"immune", "bone"},
		Link:          "https://example.com/d3",
		DailyDose:     1,
		AutoDecrement: true,
		LastUpdated:   tracker.DateOf(clock.Now()),
	}
	store.Add(item)

	noDecay := &tracker.Item{
		ID:            "item-2",
		Name:          "Electrolytes",
		CurrentCount:  40,
		InitialCount:  40,
		Cost:          8.50,
		DailyDose:     2,
		AutoDecrement: false,
		LastUpdated:   tracker.DateOf(clock.Now()),
	}
	store.Add(noDecay)

	if err := codec.Save(store, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// Same day: no decay on load.
	loaded, err := codec.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Len() != 2 {
		t.Fatalf("loaded %d items, want 2", loaded.Len())
	}

	got := loaded.Get("item-1")
	if got == nil {
		t.Fatal("item-1 missing after round trip")
	}
	if got.Name != item.Name || got.InitialCount != item.InitialCount ||
		got.Cost != item.Cost || got.Link != item.Link || got.DailyDose != item.DailyDose {
		t.Errorf("static fields changed: %+v", got)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "immune" || got.Tags[1] != "bone" {
		t.Errorf("tag order not preserved: %v", got.Tags)
	}
	if got.CurrentCount != 90 {
		t.Errorf("CurrentCount = %d, want 90 (same-day load must not decay)", got.CurrentCount)
	}
	if loaded.Get("item-2").AutoDecrement {
		t.Errorf("AutoDecrement flag lost in round trip")
	}
}

func TestCodec_Load(t *testing.T) {
	t.Run("applies bulk catch-up decay from save date", func(t *testing.T) {
		clock := testutil.NewStubClock(time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC))
		codec := newTestCodec(clock)
		path := filepath.Join(t.TempDir(), "inventory.sup")

		store := tracker.NewStore()
		store.Add(&tracker.Item{
			ID: "a", Name: "A", CurrentCount: 5, DailyDose: 1,
			AutoDecrement: true, LastUpdated: tracker.DateOf(clock.Now()),
		})
		if err := codec.Save(store, path); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		// Ten days later the count floors at zero, not -5.
		clock.Set(time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC))
		loaded, err := codec.Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		got := loaded.Get("a")
		if got.CurrentCount != 0 {
			t.Errorf("CurrentCount = %d, want 0", got.CurrentCount)
		}
		if !got.LastUpdated.Equal(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("LastUpdated = %v, want load date", got.LastUpdated)
		}
	})

	t.Run("skips catch-up for non-auto items but stamps them", func(t *testing.T) {
		clock := testutil.NewStubClock(time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC))
		codec := newTestCodec(clock)
		path := filepath.Join(t.TempDir(), "inventory.sup")

		store := tracker.NewStore()
		store.Add(&tracker.Item{
			ID: "a", Name: "A", CurrentCount: 50, DailyDose: 1,
			AutoDecrement: false, LastUpdated: tracker.DateOf(clock.Now()),
		})
		codec.Save(store, path)

		clock.Advance(72 * time.Hour)
		loaded, err := codec.Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		got := loaded.Get("a")
		if got.CurrentCount != 50 {
			t.Errorf("CurrentCount = %d, want 50", got.CurrentCount)
		}
		if !got.LastUpdated.Equal(tracker.DateOf(clock.Now())) {
			t.Errorf("LastUpdated = %v, want load date", got.LastUpdated)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		codec := newTestCodec(testutil.FixedClock())
		_, err := codec.Load(filepath.Join(t.TempDir(), "nope.sup"))
		if !errors.Is(err, tracker.ErrFileNotFound) {
			t.Errorf("error = %v, want ErrFileNotFound", err)
		}
	})

	t.Run("malformed document", func(t *testing.T) {
		codec := newTestCodec(testutil.FixedClock())
		path := filepath.Join(t.TempDir(), "bad.sup")
		os.WriteFile(path, []byte("{not json"), 0644)

		_, err := codec.Load(path)
		var formatErr *tracker.FormatError
		if !errors.As(err, &formatErr) {
			t.Errorf("error = %v, want *FormatError", err)
		}
	})

	t.Run("missing required field", func(t *testing.T) {
		codec := newTestCodec(testutil.FixedClock())
		path := filepath.Join(t.TempDir(), "partial.sup")
		doc := `{"save_date": "2024-01-15", "supplements": [{"name": "A", "current_count": 5}]}`
		os.WriteFile(path, []byte(doc), 0644)

		_, err := codec.Load(path)
		var missing *tracker.MissingFieldError
		if !errors.As(err, &missing) {
			t.Fatalf("error = %v, want *MissingFieldError", err)
		}
		if missing.Field != "initial_count" {
			t.Errorf("Field = %q, want initial_count", missing.Field)
		}
		var formatErr *tracker.FormatError
		if errors.As(err, &formatErr) {
			t.Error("MissingFieldError should not be a FormatError")
		}
	})

	t.Run("missing save_date", func(t *testing.T) {
		codec := newTestCodec(testutil.FixedClock())
		path := filepath.Join(t.TempDir(), "nodate.sup")
		os.WriteFile(path, []byte(`{"supplements": []}`), 0644)

		_, err := codec.Load(path)
		var missing *tracker.MissingFieldError
		if !errors.As(err, &missing) || missing.Field != "save_date" {
			t.Errorf("error = %v, want MissingFieldError for save_date", err)
		}
	})

	t.Run("auto_decrement defaults true when absent", func(t *testing.T) {
		codec := newTestCodec(testutil.FixedClock())
		path := filepath.Join(t.TempDir(), "legacy.sup")
		doc := `{
			"save_date": "2024-01-15",
			"supplements": [{
				"name": "Legacy",
				"current_count": 10,
				"initial_count": 10,
				"cost": 5.0,
				"tags": [],
				"link": "",
				"daily_dose": 1,
				"last_updated": "2024-01-15"
			}]
		}`
		os.WriteFile(path, []byte(doc), 0644)

		loaded, err := codec.Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		items := loaded.Items()
		if !items[0].AutoDecrement {
			t.Error("AutoDecrement should default to true for legacy records")
		}
		if items[0].ID == "" {
			t.Error("legacy records should be assigned an ID on decode")
		}
	})
}

// The bulk catch-up on load and the per-item refresh decay are separate
// code paths; for equal elapsed days they must produce identical counts.
func TestLoad_AgreesWithItemDecay(t *testing.T) {
	saved := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	for _, days := range []int{0, 1, 3, 10, 60} {
		now := saved.AddDate(0, 0, days)

		clock := testutil.NewStubClock(saved)
		codec := newTestCodec(clock)
		path := filepath.Join(t.TempDir(), "agree.sup")

		store := tracker.NewStore()
		store.Add(&tracker.Item{
			ID: "a", Name: "A", CurrentCount: 30, DailyDose: 2,
			AutoDecrement: true, LastUpdated: tracker.DateOf(saved),
		})
		if err := codec.Save(store, path); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		clock.Set(now)
		loaded, err := codec.Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		live := &tracker.Item{
			ID: "a", Name: "A", CurrentCount: 30, DailyDose: 2,
			AutoDecrement: true, LastUpdated: tracker.DateOf(saved),
		}
		live.UpdateCount(now)

		if got := loaded.Get("a").CurrentCount; got != live.CurrentCount {
			t.Errorf("after %d days: load path = %d, refresh path = %d", days, got, live.CurrentCount)
		}
	}
}

func TestCodec_Save(t *testing.T) {
	t.Run("creates parent directories", func(t *testing.T) {
		clock := testutil.FixedClock()
		codec := newTestCodec(clock)
		path := filepath.Join(t.TempDir(), "nested", "dir", "inventory.sup")

		if err := codec.Save(tracker.NewStore(), path); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("save file not created: %v", err)
		}
	})

	t.Run("leaves no temp files behind", func(t *testing.T) {
		clock := testutil.FixedClock()
		codec := newTestCodec(clock)
		dir := t.TempDir()
		path := filepath.Join(dir, "inventory.sup")

		if err := codec.Save(tracker.NewStore(), path); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		entries, _ := os.ReadDir(dir)
		if len(entries) != 1 {
			names := make([]string, len(entries))
			for i, e := range entries {
				names[i] = e.Name()
			}
			t.Errorf("directory contains %v, want only the save file", names)
		}
	})
}
