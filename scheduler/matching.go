package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fairweather/event-scheduler/forecast"
	"github.com/fairweather/event-scheduler/openmeteo"
)

// MatchOutcome records what a match check decided for one event.
type MatchOutcome struct {
	EventID   int64           `json:"event_id"`
	Title     string          `json:"title"`
	Scheduled bool            `json:"scheduled"`
	Match     *ScheduledMatch `json:"match,omitempty"`
	Reason    string          `json:"reason,omitempty"`
}

// RunMatchCheck evaluates every pending event against the current
// forecast. Events with an acceptable day get scheduled; the rest stay
// pending and are retried on the next check.
func (s *EventScheduler) RunMatchCheck(ctx context.Context) {
	s.logger.Printf("Starting match check at %s", time.Now().Format(time.RFC3339))

	if s.db == nil {
		s.logger.Printf("Match check skipped: no database connection")
		return
	}

	events, err := s.loadPendingEvents(ctx)
	if err != nil {
		s.logger.Printf("Error loading pending events: %v", err)
		return
	}

	if len(events) == 0 {
		s.logger.Printf("No pending events")
		s.recordOutcomes(nil, 0)
		return
	}

	s.logger.Printf("Evaluating %d pending event(s)", len(events))

	outcomes := make([]MatchOutcome, 0, len(events))
	scheduled := 0
	for i := range events {
		outcome := s.evaluateEvent(ctx, &events[i])
		if outcome.Scheduled {
			scheduled++
			if s.webServer != nil {
				s.webServer.BroadcastEventScheduled(&events[i])
			}
		}
		outcomes = append(outcomes, outcome)
	}

	s.recordOutcomes(outcomes, scheduled)
	s.logger.Printf("Match check completed: %d scheduled, %d still pending", scheduled, len(events)-scheduled)
}

func (s *EventScheduler) recordOutcomes(outcomes []MatchOutcome, scheduled int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastCheck = time.Now()
	s.lastOutcomes = outcomes
	s.scheduledTotal += scheduled
}

// evaluateEvent resolves the event's location, fetches and reduces the
// forecast for its search window, and runs the day selector. A miss is a
// normal outcome, not an error.
func (s *EventScheduler) evaluateEvent(ctx context.Context, event *Event) MatchOutcome {
	outcome := MatchOutcome{EventID: event.ID, Title: event.Title}

	lat, lon := s.resolveLocation(ctx, event)

	start, end, ok := clampSearchWindow(event.SearchStart, event.SearchEnd, time.Now(), s.config.ForecastDays)
	if !ok {
		outcome.Reason = "search window outside the forecast horizon"
		return outcome
	}

	days, err := s.fetchForecast(ctx, lat, lon, start, end)
	if err != nil {
		s.logger.Printf("Event %d: forecast fetch failed: %v", event.ID, err)
		outcome.Reason = fmt.Sprintf("forecast unavailable: %v", err)
		return outcome
	}

	result := forecast.FindBestEventDate(days, event.Conditions, event.TempRange, event.Window)
	if result == nil {
		outcome.Reason = "no acceptable day in the current forecast"
		return outcome
	}

	daylight := computeDaylight(result.Date, lat, lon)
	match := &ScheduledMatch{
		MatchResult: *result,
		Sunrise:     daylight.sunrise,
		Sunset:      daylight.sunset,
		Daylight:    daylight.isDaylight(result.Start, result.End),
	}

	if s.config.DryRun {
		s.logger.Printf("DRY-RUN: would schedule event %d %q on %s %s-%s (%s, %.1f°F, %s confidence)",
			event.ID, event.Title, match.Date, match.Start, match.End,
			match.Condition, match.TemperatureF, match.Confidence)
		outcome.Scheduled = true
		outcome.Match = match
		outcome.Reason = "dry-run: not persisted"
		return outcome
	}

	if err := s.markEventScheduled(ctx, event, match); err != nil {
		s.logger.Printf("Event %d: failed to persist match: %v", event.ID, err)
		outcome.Reason = fmt.Sprintf("persist failed: %v", err)
		return outcome
	}

	s.logger.Printf("Scheduled event %d %q on %s %s-%s (%s, %.1f°F, %s confidence)",
		event.ID, event.Title, match.Date, match.Start, match.End,
		match.Condition, match.TemperatureF, match.Confidence)

	outcome.Scheduled = true
	outcome.Match = match
	return outcome
}

// resolveLocation returns the coordinates to evaluate the event at. The
// order is: coordinates already on the event, then a geocode of its
// location name (cached by name), then the configured default. The
// resolved coordinates are written back onto the event so a successful
// match persists them.
func (s *EventScheduler) resolveLocation(ctx context.Context, event *Event) (float64, float64) {
	if event.Latitude != nil && event.Longitude != nil {
		return *event.Latitude, *event.Longitude
	}

	if event.LocationName != "" {
		if loc, ok := s.cachedGeocode(event.LocationName); ok {
			event.Latitude, event.Longitude = &loc.Latitude, &loc.Longitude
			return loc.Latitude, loc.Longitude
		}

		result, err := s.geocodeFunc(ctx, event.LocationName)
		switch {
		case err == nil:
			loc := openmeteo.Location{Latitude: result.Latitude, Longitude: result.Longitude}
			s.storeGeocode(event.LocationName, loc)
			event.Latitude, event.Longitude = &loc.Latitude, &loc.Longitude
			return loc.Latitude, loc.Longitude
		case errors.Is(err, openmeteo.ErrLocationNotFound):
			s.logger.Printf("Event %d: location %q not found, using default %q",
				event.ID, event.LocationName, s.config.DefaultLocationName)
		default:
			s.logger.Printf("Event %d: geocoding %q failed: %v, using default %q",
				event.ID, event.LocationName, err, s.config.DefaultLocationName)
		}
	}

	lat, lon := s.config.Latitude, s.config.Longitude
	event.Latitude, event.Longitude = &lat, &lon
	return lat, lon
}

func (s *EventScheduler) cachedGeocode(name string) (openmeteo.Location, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	loc, ok := s.geocodeCache[name]
	return loc, ok
}

func (s *EventScheduler) storeGeocode(name string, loc openmeteo.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.geocodeCache[name] = loc
}

// fetchForecast returns the reduced forecast for the location and date
// range, consulting the cache first.
func (s *EventScheduler) fetchForecast(ctx context.Context, lat, lon float64, start, end forecast.Date) ([]forecast.DayRecord, error) {
	if days, ok := s.forecastCache.Get(lat, lon, start, end); ok {
		return days, nil
	}

	payload, err := s.forecastFunc(ctx, openmeteo.QueryParams{
		Location:  openmeteo.Location{Latitude: lat, Longitude: lon},
		StartDate: start.String(),
		EndDate:   end.String(),
	})
	if err != nil {
		return nil, err
	}

	days, err := forecast.Reduce(payload)
	if err != nil {
		return nil, err
	}

	s.forecastCache.Set(lat, lon, start, end, days)
	return days, nil
}

// clampSearchWindow intersects the event's search range with the
// forecast horizon [today, today+forecastDays). Reports false when the
// intersection is empty, which means the event cannot be evaluated yet
// (or anymore) against available data.
func clampSearchWindow(start, end forecast.Date, now time.Time, forecastDays int) (forecast.Date, forecast.Date, bool) {
	today := dateFromTime(now)
	horizon := dateFromTime(now.AddDate(0, 0, forecastDays-1))

	if start.String() < today.String() {
		start = today
	}
	if end.String() > horizon.String() {
		end = horizon
	}
	if end.String() < start.String() {
		return forecast.Date{}, forecast.Date{}, false
	}
	return start, end, true
}
