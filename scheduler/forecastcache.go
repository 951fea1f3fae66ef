package scheduler

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/fairweather/event-scheduler/forecast"
)

// ForecastCache caches reduced forecasts with expiration, keyed by
// coordinates and the requested date range. Coordinates are rounded to
// two decimals (roughly a kilometer) so nearby events share one fetch.
type ForecastCache struct {
	mu            sync.RWMutex
	entries       map[string]forecastEntry
	cacheDuration time.Duration
}

type forecastEntry struct {
	days      []forecast.DayRecord
	fetchedAt time.Time
}

// NewForecastCache creates a cache whose entries expire after the given
// duration.
func NewForecastCache(cacheDuration time.Duration) *ForecastCache {
	return &ForecastCache{
		entries:       make(map[string]forecastEntry),
		cacheDuration: cacheDuration,
	}
}

// Get retrieves the cached forecast for the location and date range if
// it is still valid.
func (f *ForecastCache) Get(lat, lon float64, start, end forecast.Date) ([]forecast.DayRecord, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	entry, ok := f.entries[cacheKey(lat, lon, start, end)]
	if !ok {
		return nil, false
	}

	if time.Since(entry.fetchedAt) > f.cacheDuration {
		return nil, false
	}

	return entry.days, true
}

// Set stores a freshly reduced forecast for the location and date range.
func (f *ForecastCache) Set(lat, lon float64, start, end forecast.Date, days []forecast.DayRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.entries[cacheKey(lat, lon, start, end)] = forecastEntry{
		days:      days,
		fetchedAt: time.Now(),
	}
}

// Purge drops all expired entries. Called opportunistically from the
// match check so the map does not grow without bound across locations.
func (f *ForecastCache) Purge() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for key, entry := range f.entries {
		if time.Since(entry.fetchedAt) > f.cacheDuration {
			delete(f.entries, key)
		}
	}
}

func cacheKey(lat, lon float64, start, end forecast.Date) string {
	return fmt.Sprintf("%.2f,%.2f,%s,%s", roundCoord(lat), roundCoord(lon), start, end)
}

func roundCoord(v float64) float64 {
	return math.Round(v*100) / 100
}
