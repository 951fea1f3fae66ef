package scheduler

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/fairweather/event-scheduler/forecast"
)

// EventStatus tracks an event request through its lifecycle.
type EventStatus string

const (
	// EventPending means no acceptable day has been found yet; the event
	// is re-evaluated on every match check.
	EventPending EventStatus = "pending"
	// EventScheduled means a date and time have been committed.
	EventScheduled EventStatus = "scheduled"
)

// Event is a request to schedule something weather-dependent. Latitude
// and Longitude are nil until the location name has been geocoded.
type Event struct {
	ID           int64                     `json:"id"`
	Title        string                    `json:"title"`
	LocationName string                    `json:"location_name"`
	Latitude     *float64                  `json:"latitude,omitempty"`
	Longitude    *float64                  `json:"longitude,omitempty"`
	SearchStart  forecast.Date             `json:"search_start"`
	SearchEnd    forecast.Date             `json:"search_end"`
	Conditions   []forecast.Condition      `json:"conditions"`
	TempRange    forecast.TemperatureRange `json:"temp_range,omitempty"`
	Window       *forecast.TimeWindow      `json:"time_window,omitempty"`
	Status       EventStatus               `json:"status"`
	Match        *ScheduledMatch           `json:"match,omitempty"`
	CreatedAt    time.Time                 `json:"created_at"`
	UpdatedAt    time.Time                 `json:"updated_at"`
}

// ScheduledMatch is the committed outcome for a scheduled event: the
// matched date and times plus sunrise/sunset at the event's coordinates.
type ScheduledMatch struct {
	forecast.MatchResult
	Sunrise  time.Time `json:"sunrise"`
	Sunset   time.Time `json:"sunset"`
	Daylight bool      `json:"daylight"`
}

// Validate checks that an event request is well formed before it is
// accepted into the store.
func (e *Event) Validate() error {
	if e.Title == "" {
		return fmt.Errorf("title cannot be empty")
	}
	if e.SearchStart.IsZero() || e.SearchEnd.IsZero() {
		return fmt.Errorf("search_start and search_end are required")
	}
	if e.SearchEnd.String() < e.SearchStart.String() {
		return fmt.Errorf("search_end %s is before search_start %s", e.SearchEnd, e.SearchStart)
	}
	if len(e.Conditions) == 0 {
		return fmt.Errorf("at least one acceptable condition is required")
	}
	for _, c := range e.Conditions {
		if _, err := forecast.ParseCondition(string(c)); err != nil {
			return fmt.Errorf("invalid condition: %w", err)
		}
	}
	if _, err := forecast.ParseTemperatureRange(string(e.TempRange)); err != nil {
		return fmt.Errorf("invalid temperature range: %w", err)
	}
	if e.Window != nil && e.Window.End.Hour <= e.Window.Start.Hour {
		return fmt.Errorf("time window end %s must be after start %s", e.Window.End, e.Window.Start)
	}
	return nil
}

// ensureSchema creates the events table if it does not exist yet.
func (s *EventScheduler) ensureSchema(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database connection not available")
	}

	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS events (
			id                BIGSERIAL PRIMARY KEY,
			title             TEXT NOT NULL,
			location_name     TEXT NOT NULL DEFAULT '',
			latitude          DOUBLE PRECISION,
			longitude         DOUBLE PRECISION,
			search_start      DATE NOT NULL,
			search_end        DATE NOT NULL,
			conditions        TEXT[] NOT NULL,
			temp_range        TEXT NOT NULL DEFAULT '',
			window_start      TEXT,
			window_end        TEXT,
			status            TEXT NOT NULL DEFAULT 'pending',
			matched_date      DATE,
			matched_start     TEXT,
			matched_end       TEXT,
			matched_condition TEXT,
			matched_temp_f    DOUBLE PRECISION,
			confidence        TEXT,
			sunrise           TIMESTAMPTZ,
			sunset            TIMESTAMPTZ,
			daylight          BOOLEAN,
			created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create events table: %w", err)
	}

	return nil
}

// saveEvent inserts a new event request and fills in its assigned ID and
// timestamps.
func (s *EventScheduler) saveEvent(ctx context.Context, event *Event) error {
	if s.db == nil {
		return fmt.Errorf("database connection not available")
	}

	if err := event.Validate(); err != nil {
		return fmt.Errorf("invalid event: %w", err)
	}

	conditions := make([]string, len(event.Conditions))
	for i, c := range event.Conditions {
		conditions[i] = string(c)
	}

	var windowStart, windowEnd sql.NullString
	if event.Window != nil {
		windowStart = sql.NullString{String: event.Window.Start.String(), Valid: true}
		windowEnd = sql.NullString{String: event.Window.End.String(), Valid: true}
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO events (
			title,
			location_name,
			latitude,
			longitude,
			search_start,
			search_end,
			conditions,
			temp_range,
			window_start,
			window_end,
			status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`,
		event.Title,
		event.LocationName,
		event.Latitude,
		event.Longitude,
		event.SearchStart.String(),
		event.SearchEnd.String(),
		pq.Array(conditions),
		string(event.TempRange),
		windowStart,
		windowEnd,
		string(EventPending),
	).Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	event.Status = EventPending
	return nil
}

// loadPendingEvents returns all events still waiting for a match, oldest
// first so long-waiting requests are evaluated before fresh ones.
func (s *EventScheduler) loadPendingEvents(ctx context.Context) ([]Event, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database connection not available")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+eventColumns+`
		FROM events
		WHERE status = $1
		ORDER BY created_at ASC
	`, string(EventPending))
	if err != nil {
		return nil, fmt.Errorf("failed to query pending events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// listRecentEvents returns the most recently updated events regardless of
// status, newest first.
func (s *EventScheduler) listRecentEvents(ctx context.Context, limit int) ([]Event, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database connection not available")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+eventColumns+`
		FROM events
		ORDER BY updated_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// markEventScheduled commits a match to an event and stores the resolved
// coordinates alongside it.
func (s *EventScheduler) markEventScheduled(ctx context.Context, event *Event, match *ScheduledMatch) error {
	if s.db == nil {
		return fmt.Errorf("database connection not available")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// The status guard keeps a concurrent check from scheduling the same
	// event twice.
	res, err := tx.ExecContext(ctx, `
		UPDATE events SET
			status = $1,
			latitude = $2,
			longitude = $3,
			matched_date = $4,
			matched_start = $5,
			matched_end = $6,
			matched_condition = $7,
			matched_temp_f = $8,
			confidence = $9,
			sunrise = $10,
			sunset = $11,
			daylight = $12,
			updated_at = now()
		WHERE id = $13 AND status = $14
	`,
		string(EventScheduled),
		event.Latitude,
		event.Longitude,
		match.Date.String(),
		match.Start.String(),
		match.End.String(),
		string(match.Condition),
		match.TemperatureF,
		string(match.Confidence),
		match.Sunrise,
		match.Sunset,
		match.Daylight,
		event.ID,
		string(EventPending),
	)
	if err != nil {
		return fmt.Errorf("failed to update event %d: %w", event.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("event %d is no longer pending", event.ID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	event.Status = EventScheduled
	event.Match = match
	return nil
}

const eventColumns = `
	id, title, location_name, latitude, longitude,
	search_start, search_end, conditions, temp_range,
	window_start, window_end, status,
	matched_date, matched_start, matched_end,
	matched_condition, matched_temp_f, confidence,
	sunrise, sunset, daylight,
	created_at, updated_at`

// scanEvents reads event rows including the nullable match columns.
func scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var (
			event        Event
			lat, lon     sql.NullFloat64
			searchStart  time.Time
			searchEnd    time.Time
			conditions   []string
			windowStart  sql.NullString
			windowEnd    sql.NullString
			matchedDate  sql.NullTime
			matchedStart sql.NullString
			matchedEnd   sql.NullString
			matchedCond  sql.NullString
			matchedTempF sql.NullFloat64
			confidence   sql.NullString
			sunrise      sql.NullTime
			sunset       sql.NullTime
			daylight     sql.NullBool
		)

		err := rows.Scan(
			&event.ID,
			&event.Title,
			&event.LocationName,
			&lat,
			&lon,
			&searchStart,
			&searchEnd,
			pq.Array(&conditions),
			&event.TempRange,
			&windowStart,
			&windowEnd,
			&event.Status,
			&matchedDate,
			&matchedStart,
			&matchedEnd,
			&matchedCond,
			&matchedTempF,
			&confidence,
			&sunrise,
			&sunset,
			&daylight,
			&event.CreatedAt,
			&event.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}

		if lat.Valid {
			event.Latitude = &lat.Float64
		}
		if lon.Valid {
			event.Longitude = &lon.Float64
		}
		event.SearchStart = dateFromTime(searchStart)
		event.SearchEnd = dateFromTime(searchEnd)
		event.Conditions = make([]forecast.Condition, len(conditions))
		for i, c := range conditions {
			event.Conditions[i] = forecast.Condition(c)
		}
		if windowStart.Valid && windowEnd.Valid {
			window, err := parseWindow(windowStart.String, windowEnd.String)
			if err != nil {
				return nil, fmt.Errorf("event %d: %w", event.ID, err)
			}
			event.Window = window
		}

		if event.Status == EventScheduled && matchedDate.Valid {
			match := &ScheduledMatch{
				MatchResult: forecast.MatchResult{
					Date:         dateFromTime(matchedDate.Time),
					Condition:    forecast.Condition(matchedCond.String),
					TemperatureF: matchedTempF.Float64,
					Confidence:   forecast.Confidence(confidence.String),
				},
				Sunrise:  sunrise.Time,
				Sunset:   sunset.Time,
				Daylight: daylight.Bool,
			}
			if matchedStart.Valid {
				if match.Start, err = forecast.ParseTimeOfDay(matchedStart.String); err != nil {
					return nil, fmt.Errorf("event %d: %w", event.ID, err)
				}
			}
			if matchedEnd.Valid {
				if match.End, err = forecast.ParseTimeOfDay(matchedEnd.String); err != nil {
					return nil, fmt.Errorf("event %d: %w", event.ID, err)
				}
			}
			event.Match = match
		}

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return events, nil
}

func dateFromTime(t time.Time) forecast.Date {
	return forecast.Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

func parseWindow(start, end string) (*forecast.TimeWindow, error) {
	s, err := forecast.ParseTimeOfDay(start)
	if err != nil {
		return nil, fmt.Errorf("invalid window start: %w", err)
	}
	e, err := forecast.ParseTimeOfDay(end)
	if err != nil {
		return nil, fmt.Errorf("invalid window end: %w", err)
	}
	return &forecast.TimeWindow{Start: s, End: e}, nil
}
