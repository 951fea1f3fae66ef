package forecast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fairweather/event-scheduler/openmeteo"
)

// MalformedForecastError indicates a structurally invalid provider
// payload. It is fatal to the current reduction; no partial recovery is
// attempted.
type MalformedForecastError struct {
	Reason string
}

func (e *MalformedForecastError) Error() string {
	return "malformed forecast: " + e.Reason
}

// Reduce turns a raw Open-Meteo payload into an ordered sequence of
// DayRecord, one per daily entry, in the provider's order. Temperatures
// are converted to Fahrenheit and weather codes normalized to conditions
// here, once; nothing downstream converts again.
//
// The provider's order is assumed chronological and is not re-sorted; if
// a provider ever returned unsorted days, the selector's first-fit
// semantics would silently degrade.
func Reduce(payload *openmeteo.ForecastResponse) ([]DayRecord, error) {
	if payload == nil || payload.Daily == nil {
		return nil, &MalformedForecastError{Reason: "missing daily block"}
	}
	if payload.Hourly == nil {
		return nil, &MalformedForecastError{Reason: "missing hourly block"}
	}

	daily := payload.Daily
	n := len(daily.Time)
	if len(daily.WeatherCode) != n || len(daily.Temperature2mMax) != n || len(daily.Temperature2mMin) != n {
		return nil, &MalformedForecastError{
			Reason: fmt.Sprintf("daily arrays have mismatched lengths: time=%d weather_code=%d max=%d min=%d",
				n, len(daily.WeatherCode), len(daily.Temperature2mMax), len(daily.Temperature2mMin)),
		}
	}

	hours, err := reduceHourly(payload.Hourly)
	if err != nil {
		return nil, err
	}

	days := make([]DayRecord, 0, n)
	for i := 0; i < n; i++ {
		date, err := ParseDate(daily.Time[i])
		if err != nil {
			return nil, &MalformedForecastError{Reason: fmt.Sprintf("daily entry %d: %v", i, err)}
		}

		maxF := ToFahrenheit(daily.Temperature2mMax[i])
		minF := ToFahrenheit(daily.Temperature2mMin[i])

		days = append(days, DayRecord{
			Date:      date,
			Condition: ConditionForCode(daily.WeatherCode[i]),
			MaxTempF:  maxF,
			MinTempF:  minF,
			AvgTempF:  (maxF + minF) / 2,
			Hours:     hoursForDate(hours, date),
		})
	}

	return days, nil
}

// reduceHourly normalizes the hourly block into HourRecords.
func reduceHourly(hourly *openmeteo.HourlyBlock) ([]HourRecord, error) {
	n := len(hourly.Time)
	if len(hourly.WeatherCode) != n || len(hourly.Temperature2m) != n {
		return nil, &MalformedForecastError{
			Reason: fmt.Sprintf("hourly arrays have mismatched lengths: time=%d weather_code=%d temperature=%d",
				n, len(hourly.WeatherCode), len(hourly.Temperature2m)),
		}
	}

	records := make([]HourRecord, 0, n)
	for i := 0; i < n; i++ {
		date, hour, err := parseHourlyTimestamp(hourly.Time[i])
		if err != nil {
			return nil, &MalformedForecastError{Reason: fmt.Sprintf("hourly entry %d: %v", i, err)}
		}
		records = append(records, HourRecord{
			Date:         date,
			Hour:         hour,
			Condition:    ConditionForCode(hourly.WeatherCode[i]),
			TemperatureF: ToFahrenheit(hourly.Temperature2m[i]),
		})
	}

	return records, nil
}

// parseHourlyTimestamp splits an Open-Meteo "YYYY-MM-DDTHH:MM" timestamp
// into its date and hour-of-day.
func parseHourlyTimestamp(s string) (Date, int, error) {
	datePart, timePart, ok := strings.Cut(s, "T")
	if !ok {
		return Date{}, 0, fmt.Errorf("invalid timestamp %q", s)
	}

	date, err := ParseDate(datePart)
	if err != nil {
		return Date{}, 0, err
	}

	hourPart, _, _ := strings.Cut(timePart, ":")
	hour, err := strconv.Atoi(hourPart)
	if err != nil || hour < 0 || hour > 23 {
		return Date{}, 0, fmt.Errorf("invalid hour in timestamp %q", s)
	}

	return date, hour, nil
}

// hoursForDate returns the subsequence of records belonging to one date.
// This is a view over the full hourly sequence, not a separate fetch.
func hoursForDate(hours []HourRecord, date Date) []HourRecord {
	var out []HourRecord
	for _, h := range hours {
		if h.Date == date {
			out = append(out, h)
		}
	}
	return out
}
