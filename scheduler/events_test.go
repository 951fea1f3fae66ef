package scheduler

import (
	"context"
	"database/sql"
	"log"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"

	"github.com/fairweather/event-scheduler/forecast"
)

func TestEventValidate(t *testing.T) {
	valid := func() Event {
		return Event{
			Title:       "Picnic",
			SearchStart: forecast.Date{Year: 2024, Month: time.June, Day: 1},
			SearchEnd:   forecast.Date{Year: 2024, Month: time.June, Day: 7},
			Conditions:  []forecast.Condition{forecast.Sunny, forecast.Cloudy},
			TempRange:   forecast.TempWarm,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Event)
		wantErr bool
	}{
		{"valid", func(e *Event) {}, false},
		{"valid with window", func(e *Event) {
			e.Window = &forecast.TimeWindow{
				Start: forecast.TimeOfDay{Hour: 10},
				End:   forecast.TimeOfDay{Hour: 12},
			}
		}, false},
		{"empty title", func(e *Event) { e.Title = "" }, true},
		{"missing dates", func(e *Event) { e.SearchStart = forecast.Date{}; e.SearchEnd = forecast.Date{} }, true},
		{"end before start", func(e *Event) { e.SearchEnd = forecast.Date{Year: 2024, Month: time.May, Day: 1} }, true},
		{"no conditions", func(e *Event) { e.Conditions = nil }, true},
		{"invalid condition", func(e *Event) { e.Conditions = []forecast.Condition{"drizzly"} }, true},
		{"unknown condition rejected", func(e *Event) { e.Conditions = []forecast.Condition{forecast.Unknown} }, true},
		{"invalid temp range", func(e *Event) { e.TempRange = "tepid" }, true},
		{"inverted window", func(e *Event) {
			e.Window = &forecast.TimeWindow{
				Start: forecast.TimeOfDay{Hour: 14},
				End:   forecast.TimeOfDay{Hour: 10},
			}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := valid()
			tt.mutate(&event)

			err := event.Validate()
			if tt.wantErr && err == nil {
				t.Error("Expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Expected valid event, got: %v", err)
			}
		})
	}
}

// TestEventStore_SaveLoadSchedule tests the full persistence cycle
func TestEventStore_SaveLoadSchedule(t *testing.T) {
	// Skip if no database connection available
	connString := os.Getenv("TEST_POSTGRES_CONN")
	if connString == "" {
		t.Skip("Skipping test: TEST_POSTGRES_CONN not set")
	}

	db, err := sql.Open("postgres", connString)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	scheduler := &EventScheduler{
		config: DefaultConfig(),
		db:     db,
		logger: log.New(os.Stdout, "TEST: ", log.LstdFlags),
	}

	ctx := context.Background()
	if err := scheduler.ensureSchema(ctx); err != nil {
		t.Fatalf("Failed to ensure schema: %v", err)
	}

	// Clean up table before test
	if _, err := db.Exec("DELETE FROM events"); err != nil {
		t.Fatalf("Failed to clean up table: %v", err)
	}

	event := Event{
		Title:        "Company picnic",
		LocationName: "Portland",
		SearchStart:  forecast.Date{Year: 2024, Month: time.June, Day: 1},
		SearchEnd:    forecast.Date{Year: 2024, Month: time.June, Day: 14},
		Conditions:   []forecast.Condition{forecast.Sunny, forecast.Cloudy},
		TempRange:    forecast.TempWarm,
		Window: &forecast.TimeWindow{
			Start: forecast.TimeOfDay{Hour: 11},
			End:   forecast.TimeOfDay{Hour: 14},
		},
	}

	if err := scheduler.saveEvent(ctx, &event); err != nil {
		t.Fatalf("Failed to save event: %v", err)
	}
	if event.ID == 0 {
		t.Fatal("Expected assigned event ID")
	}

	pending, err := scheduler.loadPendingEvents(ctx)
	if err != nil {
		t.Fatalf("Failed to load pending events: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("Expected 1 pending event, got %d", len(pending))
	}

	loaded := pending[0]
	if loaded.Title != event.Title {
		t.Errorf("Title mismatch: %q != %q", loaded.Title, event.Title)
	}
	if len(loaded.Conditions) != 2 || loaded.Conditions[0] != forecast.Sunny {
		t.Errorf("Conditions mismatch: %v", loaded.Conditions)
	}
	if loaded.TempRange != forecast.TempWarm {
		t.Errorf("TempRange mismatch: %q", loaded.TempRange)
	}
	if loaded.Window == nil || loaded.Window.Start.Hour != 11 || loaded.Window.End.Hour != 14 {
		t.Errorf("Window mismatch: %+v", loaded.Window)
	}
	if loaded.SearchStart != event.SearchStart || loaded.SearchEnd != event.SearchEnd {
		t.Errorf("Search range mismatch: %s..%s", loaded.SearchStart, loaded.SearchEnd)
	}

	// Schedule it
	lat, lon := 45.52, -122.68
	loaded.Latitude, loaded.Longitude = &lat, &lon
	match := &ScheduledMatch{
		MatchResult: forecast.MatchResult{
			Date:         forecast.Date{Year: 2024, Month: time.June, Day: 3},
			Start:        forecast.TimeOfDay{Hour: 11},
			End:          forecast.TimeOfDay{Hour: 14},
			Condition:    forecast.Sunny,
			TemperatureF: 75.2,
			Confidence:   forecast.ConfidenceHigh,
		},
		Sunrise:  time.Date(2024, 6, 3, 5, 22, 0, 0, time.UTC),
		Sunset:   time.Date(2024, 6, 3, 20, 59, 0, 0, time.UTC),
		Daylight: true,
	}

	if err := scheduler.markEventScheduled(ctx, &loaded, match); err != nil {
		t.Fatalf("Failed to mark event scheduled: %v", err)
	}

	// No longer pending
	pending, err = scheduler.loadPendingEvents(ctx)
	if err != nil {
		t.Fatalf("Failed to reload pending events: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("Expected 0 pending events, got %d", len(pending))
	}

	// Scheduling it again must fail on the status guard
	if err := scheduler.markEventScheduled(ctx, &loaded, match); err == nil {
		t.Error("Expected error scheduling an already scheduled event")
	}

	// Appears in recents with the full match attached
	recent, err := scheduler.listRecentEvents(ctx, 10)
	if err != nil {
		t.Fatalf("Failed to list recent events: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("Expected 1 recent event, got %d", len(recent))
	}
	got := recent[0]
	if got.Status != EventScheduled {
		t.Errorf("Expected scheduled status, got %q", got.Status)
	}
	if got.Match == nil {
		t.Fatal("Expected match on scheduled event")
	}
	if got.Match.Date != match.Date || got.Match.Start != match.Start || got.Match.End != match.End {
		t.Errorf("Match times mismatch: %+v", got.Match)
	}
	if got.Match.Condition != forecast.Sunny || got.Match.Confidence != forecast.ConfidenceHigh {
		t.Errorf("Match details mismatch: %+v", got.Match)
	}
	if !got.Match.Daylight {
		t.Error("Expected daylight flag to survive the round trip")
	}
	if got.Latitude == nil || *got.Latitude != lat {
		t.Error("Expected resolved coordinates to be persisted")
	}
}
