package scheduler

import (
	"math"
	"time"

	"github.com/sixdouglas/suncalc"

	"github.com/fairweather/event-scheduler/forecast"
)

// daylightInfo holds sunrise and sunset for one date at one location,
// expressed in the location's approximate local time.
type daylightInfo struct {
	sunrise time.Time
	sunset  time.Time
}

// computeDaylight returns sunrise and sunset for the given date and
// coordinates. Local time is approximated from the longitude (15° per
// hour); forecast hours have only hourly resolution anyway, so an hour
// of DST skew does not change the answer in a way that matters.
func computeDaylight(date forecast.Date, lat, lon float64) daylightInfo {
	zone := time.FixedZone("local", int(math.Round(lon/15.0))*3600)
	noon := time.Date(date.Year, date.Month, date.Day, 12, 0, 0, 0, zone)
	times := suncalc.GetTimes(noon, lat, lon)
	return daylightInfo{
		sunrise: times["sunrise"].Value.In(zone),
		sunset:  times["sunset"].Value.In(zone),
	}
}

// isDaylight reports whether the matched times fall entirely between
// sunrise and sunset.
func (d daylightInfo) isDaylight(start, end forecast.TimeOfDay) bool {
	if d.sunrise.IsZero() || d.sunset.IsZero() {
		return false
	}
	startsAfterSunrise := start.Hour > d.sunrise.Hour() ||
		(start.Hour == d.sunrise.Hour() && start.Minute >= d.sunrise.Minute())
	endsBeforeSunset := end.Hour < d.sunset.Hour() ||
		(end.Hour == d.sunset.Hour() && end.Minute <= d.sunset.Minute())
	return startsAfterSunrise && endsBeforeSunset
}
