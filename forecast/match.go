package forecast

// Confidence classifies how thoroughly a match was verified.
type Confidence string

const (
	// ConfidenceHigh means a contiguous slot was verified hour by hour.
	ConfidenceHigh Confidence = "high"
	// ConfidenceMedium means a day-level match with no per-hour
	// verification of the reported times.
	ConfidenceMedium Confidence = "medium"
)

// Default event times used when a day matches but no time preference was
// given.
var (
	defaultSlotStart = TimeOfDay{Hour: 10}
	defaultSlotEnd   = TimeOfDay{Hour: 11}
)

// SlotMatch is a block of hours within a single day accepted by the slot
// matcher. Condition is the condition actually observed in the slot, not
// necessarily the first-listed preference.
type SlotMatch struct {
	Start        TimeOfDay
	End          TimeOfDay
	Condition    Condition
	TemperatureF float64
}

// MatchResult is the outcome of a day search: the chosen date and times
// plus the observed condition and temperature. It is a transient
// computation output with no identity of its own.
type MatchResult struct {
	Date         Date       `json:"date"`
	Start        TimeOfDay  `json:"start_time"`
	End          TimeOfDay  `json:"end_time"`
	Condition    Condition  `json:"condition"`
	TemperatureF float64    `json:"temperature_f"`
	Confidence   Confidence `json:"confidence"`
}

// FindBestTimeSlotInDay searches one day's hours for the best contiguous
// block of duration endHour-startHour. The search has two phases:
//
// Strict: every candidate start from startHour onward that keeps the slot
// within the day is checked; the earliest slot where all hours satisfy
// the condition and temperature preference wins. Offsets with missing
// hours are skipped.
//
// Relaxed: if no perfect slot exists anywhere, the originally requested
// window is accepted as-is when at least half (ceiling) of its present
// hours satisfy the preference. The reported temperature then averages
// the whole window, good hours and bad.
//
// Returns nil when neither phase accepts, or when endHour <= startHour
// (an unsatisfiable request, not an error).
func FindBestTimeSlotInDay(hours []HourRecord, acceptable []Condition, tempRange TemperatureRange, startHour, endHour int) *SlotMatch {
	duration := endHour - startHour
	if duration < 1 {
		return nil
	}

	// Strict phase: earliest perfect contiguous slot, anywhere from
	// startHour up to the end of the day.
	for h := startHour; h <= 24-duration; h++ {
		slot := hoursInRange(hours, h, h+duration)
		if len(slot) != duration {
			continue
		}
		if allMatch(slot, acceptable, tempRange) {
			return &SlotMatch{
				Start:        TimeOfDay{Hour: h},
				End:          TimeOfDay{Hour: h + duration},
				Condition:    slot[0].Condition,
				TemperatureF: meanTemperature(slot),
			}
		}
	}

	// Relaxed phase: exactly the requested window, accepted when mostly
	// good rather than shifting the event to another time.
	window := hoursInRange(hours, startHour, endHour)
	if len(window) == 0 {
		return nil
	}

	var matching []HourRecord
	for _, h := range window {
		if hourMatches(h, acceptable, tempRange) {
			matching = append(matching, h)
		}
	}

	threshold := (len(window) + 1) / 2 // ceil(len/2)
	if len(matching) < threshold {
		return nil
	}

	return &SlotMatch{
		Start:        TimeOfDay{Hour: startHour},
		End:          TimeOfDay{Hour: endHour},
		Condition:    matching[0].Condition,
		TemperatureF: meanTemperature(window),
	}
}

// FindBestEventDate scans days in the given order and returns a match for
// the first day passing the day-level condition and temperature filter.
//
// When a time window is supplied and the day has hourly data, the slot
// matcher runs first and a verified slot yields a high-confidence result.
// Otherwise the whole day is accepted at medium confidence using the
// requested times, or 10:00-11:00 when none were given.
//
// The scan stops at the first day-level match even if a later day might
// verify better; that first-fit behavior is deliberate. Returns nil when
// no day passes, signaling the caller to keep the request pending.
func FindBestEventDate(days []DayRecord, acceptable []Condition, tempRange TemperatureRange, window *TimeWindow) *MatchResult {
	for _, day := range days {
		if !day.Condition.satisfies(acceptable) || !tempRange.Matches(day.AvgTempF) {
			continue
		}

		if window != nil && len(day.Hours) > 0 {
			if slot := FindBestTimeSlotInDay(day.Hours, acceptable, tempRange, window.Start.Hour, window.End.Hour); slot != nil {
				return &MatchResult{
					Date:         day.Date,
					Start:        slot.Start,
					End:          slot.End,
					Condition:    slot.Condition,
					TemperatureF: slot.TemperatureF,
					Confidence:   ConfidenceHigh,
				}
			}
		}

		start, end := defaultSlotStart, defaultSlotEnd
		if window != nil {
			start, end = window.Start, window.End
		}
		return &MatchResult{
			Date:         day.Date,
			Start:        start,
			End:          end,
			Condition:    day.Condition,
			TemperatureF: day.AvgTempF,
			Confidence:   ConfidenceMedium,
		}
	}

	return nil
}

// FindBestHourInDay returns the hour record at preferredHour when it
// satisfies the preference, otherwise the first satisfying hour anywhere
// in the day, otherwise nil.
func FindBestHourInDay(hours []HourRecord, acceptable []Condition, tempRange TemperatureRange, preferredHour int) *HourRecord {
	for i := range hours {
		if hours[i].Hour == preferredHour && hourMatches(hours[i], acceptable, tempRange) {
			return &hours[i]
		}
	}
	for i := range hours {
		if hourMatches(hours[i], acceptable, tempRange) {
			return &hours[i]
		}
	}
	return nil
}

// hoursInRange returns the records whose hour-of-day falls in [from, to).
func hoursInRange(hours []HourRecord, from, to int) []HourRecord {
	var out []HourRecord
	for _, h := range hours {
		if h.Hour >= from && h.Hour < to {
			out = append(out, h)
		}
	}
	return out
}

func hourMatches(h HourRecord, acceptable []Condition, tempRange TemperatureRange) bool {
	return h.Condition.satisfies(acceptable) && tempRange.Matches(h.TemperatureF)
}

func allMatch(hours []HourRecord, acceptable []Condition, tempRange TemperatureRange) bool {
	for _, h := range hours {
		if !hourMatches(h, acceptable, tempRange) {
			return false
		}
	}
	return true
}

func meanTemperature(hours []HourRecord) float64 {
	var sum float64
	for _, h := range hours {
		sum += h.TemperatureF
	}
	return sum / float64(len(hours))
}
