package forecast

import (
	"testing"
	"time"
)

var testDate = Date{2024, time.June, 1}

// makeHours builds a run of consecutive hour records starting at
// startHour, all with the given condition and temperature.
func makeHours(startHour, count int, cond Condition, tempF float64) []HourRecord {
	hours := make([]HourRecord, 0, count)
	for i := 0; i < count; i++ {
		hours = append(hours, HourRecord{
			Date:         testDate,
			Hour:         startHour + i,
			Condition:    cond,
			TemperatureF: tempF,
		})
	}
	return hours
}

func TestFindBestTimeSlotInDay_StrictMatch(t *testing.T) {
	// Hours 10-15 all sunny at 72°F
	hours := makeHours(10, 6, Sunny, 72)

	slot := FindBestTimeSlotInDay(hours, []Condition{Sunny}, TempAny, 10, 12)
	if slot == nil {
		t.Fatal("Expected a slot, got nil")
	}
	if slot.Start != (TimeOfDay{Hour: 10}) || slot.End != (TimeOfDay{Hour: 12}) {
		t.Errorf("Expected 10:00-12:00, got %v-%v", slot.Start, slot.End)
	}
	if slot.Condition != Sunny {
		t.Errorf("Expected sunny, got %q", slot.Condition)
	}
	if slot.TemperatureF != 72 {
		t.Errorf("Expected 72°F, got %v", slot.TemperatureF)
	}
}

func TestFindBestTimeSlotInDay_EarliestOffsetWins(t *testing.T) {
	// 10-11 rainy, 12-17 sunny: the first perfect 2-hour slot starts at 12
	hours := append(makeHours(10, 2, Rainy, 60), makeHours(12, 6, Sunny, 70)...)

	slot := FindBestTimeSlotInDay(hours, []Condition{Sunny}, TempAny, 10, 12)
	if slot == nil {
		t.Fatal("Expected a slot, got nil")
	}
	if slot.Start.Hour != 12 || slot.End.Hour != 14 {
		t.Errorf("Expected earliest perfect slot 12-14, got %d-%d", slot.Start.Hour, slot.End.Hour)
	}
}

func TestFindBestTimeSlotInDay_DurationProperty(t *testing.T) {
	hours := makeHours(0, 24, Sunny, 70)

	for _, tc := range []struct{ start, end int }{{0, 1}, {8, 12}, {10, 11}, {20, 24}} {
		slot := FindBestTimeSlotInDay(hours, []Condition{Sunny}, TempAny, tc.start, tc.end)
		if slot == nil {
			t.Fatalf("Expected slot for %d-%d", tc.start, tc.end)
		}
		if got := slot.End.Hour - slot.Start.Hour; got != tc.end-tc.start {
			t.Errorf("Slot duration %d, want %d", got, tc.end-tc.start)
		}
	}
}

func TestFindBestTimeSlotInDay_InvalidRange(t *testing.T) {
	hours := makeHours(0, 24, Sunny, 70)

	if slot := FindBestTimeSlotInDay(hours, []Condition{Sunny}, TempAny, 12, 12); slot != nil {
		t.Error("Expected nil for zero duration")
	}
	if slot := FindBestTimeSlotInDay(hours, []Condition{Sunny}, TempAny, 14, 10); slot != nil {
		t.Error("Expected nil for negative duration")
	}
}

func TestFindBestTimeSlotInDay_SkipsGaps(t *testing.T) {
	// Only hours 10 and 12 exist: no contiguous 2-hour block anywhere,
	// and the window 10-12 has one present hour, which matches, so the
	// relaxed phase accepts (1 >= ceil(1/2)).
	hours := []HourRecord{
		{Date: testDate, Hour: 10, Condition: Sunny, TemperatureF: 70},
		{Date: testDate, Hour: 12, Condition: Sunny, TemperatureF: 72},
	}

	slot := FindBestTimeSlotInDay(hours, []Condition{Sunny}, TempAny, 10, 12)
	if slot == nil {
		t.Fatal("Expected relaxed acceptance, got nil")
	}
	if slot.Start.Hour != 10 || slot.End.Hour != 12 {
		t.Errorf("Relaxed slot must report the requested window, got %d-%d", slot.Start.Hour, slot.End.Hour)
	}
}

func TestFindBestTimeSlotInDay_RelaxedCeiling(t *testing.T) {
	// 3-hour window 10-13. ceil(3/2) = 2 matching hours required.
	base := []HourRecord{
		{Date: testDate, Hour: 10, Condition: Sunny, TemperatureF: 70},
		{Date: testDate, Hour: 11, Condition: Sunny, TemperatureF: 74},
		{Date: testDate, Hour: 12, Condition: Rainy, TemperatureF: 66},
	}

	// 2 of 3 match: accepted at the boundary
	slot := FindBestTimeSlotInDay(base, []Condition{Sunny}, TempAny, 10, 13)
	if slot == nil {
		t.Fatal("Expected acceptance with 2 of 3 hours matching")
	}
	if slot.Start != (TimeOfDay{Hour: 10}) || slot.End != (TimeOfDay{Hour: 13}) {
		t.Errorf("Expected verbatim requested times, got %v-%v", slot.Start, slot.End)
	}
	if slot.Condition != Sunny {
		t.Errorf("Expected condition of first satisfying hour, got %q", slot.Condition)
	}
	// Mean over the entire window, not just the satisfying subset
	if want := (70.0 + 74.0 + 66.0) / 3.0; slot.TemperatureF != want {
		t.Errorf("Expected window mean %v, got %v", want, slot.TemperatureF)
	}

	// 1 of 3 match: one below the ceiling, rejected
	base[1].Condition = Rainy
	if slot := FindBestTimeSlotInDay(base, []Condition{Sunny}, TempAny, 10, 13); slot != nil {
		t.Error("Expected rejection with 1 of 3 hours matching")
	}
}

func TestFindBestTimeSlotInDay_TemperaturePredicate(t *testing.T) {
	// Sunny all day but too cold for the warm preference
	hours := makeHours(8, 10, Sunny, 55)

	if slot := FindBestTimeSlotInDay(hours, []Condition{Sunny}, TempWarm, 10, 12); slot != nil {
		t.Error("Expected nil when temperature predicate fails everywhere")
	}

	if slot := FindBestTimeSlotInDay(hours, []Condition{Sunny}, TempCool, 10, 12); slot == nil {
		t.Error("Expected slot when temperature predicate passes")
	}
}

func TestFindBestTimeSlotInDay_MultipleConditions(t *testing.T) {
	hours := makeHours(10, 4, Cloudy, 70)

	slot := FindBestTimeSlotInDay(hours, []Condition{Sunny, Cloudy}, TempAny, 10, 12)
	if slot == nil {
		t.Fatal("Expected a slot, got nil")
	}
	// The condition actually observed, not the first-listed preference
	if slot.Condition != Cloudy {
		t.Errorf("Expected observed condition cloudy, got %q", slot.Condition)
	}
}

func sunnyDay(date Date, avgTempF float64, hours []HourRecord) DayRecord {
	return DayRecord{
		Date:      date,
		Condition: Sunny,
		MaxTempF:  avgTempF + 9,
		MinTempF:  avgTempF - 9,
		AvgTempF:  avgTempF,
		Hours:     hours,
	}
}

func TestFindBestEventDate_EmptyDays(t *testing.T) {
	if res := FindBestEventDate(nil, []Condition{Sunny}, TempAny, nil); res != nil {
		t.Error("Expected nil for empty days")
	}
}

func TestFindBestEventDate_FirstPassingDayWins(t *testing.T) {
	day1 := DayRecord{Date: Date{2024, time.June, 1}, Condition: Rainy, AvgTempF: 60}
	day2 := sunnyDay(Date{2024, time.June, 2}, 72, nil)
	day3 := sunnyDay(Date{2024, time.June, 3}, 75, nil)

	res := FindBestEventDate([]DayRecord{day1, day2, day3}, []Condition{Sunny}, TempAny, nil)
	if res == nil {
		t.Fatal("Expected a match, got nil")
	}
	if res.Date != day2.Date {
		t.Errorf("Expected first passing day %v, got %v", day2.Date, res.Date)
	}
}

func TestFindBestEventDate_MediumFallbackDefaults(t *testing.T) {
	day := sunnyDay(Date{2024, time.June, 2}, 72, nil)

	res := FindBestEventDate([]DayRecord{day}, []Condition{Sunny}, TempAny, nil)
	if res == nil {
		t.Fatal("Expected a match, got nil")
	}
	if res.Confidence != ConfidenceMedium {
		t.Errorf("Expected medium confidence, got %q", res.Confidence)
	}
	if res.Start != (TimeOfDay{Hour: 10}) || res.End != (TimeOfDay{Hour: 11}) {
		t.Errorf("Expected default 10:00-11:00, got %v-%v", res.Start, res.End)
	}
	if res.TemperatureF != 72 {
		t.Errorf("Expected day average 72, got %v", res.TemperatureF)
	}
}

func TestFindBestEventDate_HighConfidenceSlot(t *testing.T) {
	date := Date{2024, time.June, 1}
	hours := []HourRecord{
		{Date: date, Hour: 10, Condition: Sunny, TemperatureF: 78.8},
		{Date: date, Hour: 11, Condition: Sunny, TemperatureF: 80.6},
	}
	day := sunnyDay(date, 77, hours)
	window := &TimeWindow{Start: TimeOfDay{Hour: 10}, End: TimeOfDay{Hour: 11}}

	res := FindBestEventDate([]DayRecord{day}, []Condition{Sunny}, TempAny, window)
	if res == nil {
		t.Fatal("Expected a match, got nil")
	}
	if res.Confidence != ConfidenceHigh {
		t.Errorf("Expected high confidence, got %q", res.Confidence)
	}
	if res.Date != date {
		t.Errorf("Expected date %v, got %v", date, res.Date)
	}
	if res.Start != (TimeOfDay{Hour: 10}) || res.End != (TimeOfDay{Hour: 11}) {
		t.Errorf("Expected 10:00-11:00, got %v-%v", res.Start, res.End)
	}
	if res.Condition != Sunny {
		t.Errorf("Expected sunny, got %q", res.Condition)
	}
	if res.TemperatureF != 78.8 {
		t.Errorf("Expected slot temperature 78.8, got %v", res.TemperatureF)
	}
}

func TestFindBestEventDate_SlotMissFallsBackToMedium(t *testing.T) {
	date := Date{2024, time.June, 1}
	// Day aggregate is sunny but every hour is rainy: the slot matcher
	// finds nothing and the day is accepted at medium confidence with
	// the requested times verbatim.
	day := sunnyDay(date, 72, makeHours(0, 24, Rainy, 72))
	window := &TimeWindow{Start: TimeOfDay{Hour: 9}, End: TimeOfDay{Hour: 12}}

	res := FindBestEventDate([]DayRecord{day}, []Condition{Sunny}, TempAny, window)
	if res == nil {
		t.Fatal("Expected a match, got nil")
	}
	if res.Confidence != ConfidenceMedium {
		t.Errorf("Expected medium confidence, got %q", res.Confidence)
	}
	if res.Start != (TimeOfDay{Hour: 9}) || res.End != (TimeOfDay{Hour: 12}) {
		t.Errorf("Expected requested times kept, got %v-%v", res.Start, res.End)
	}
	if res.Condition != Sunny {
		t.Errorf("Expected the day's condition, got %q", res.Condition)
	}
}

func TestFindBestEventDate_EarlierMediumPreemptsLaterHigh(t *testing.T) {
	// Deliberate first-fit behavior: a mediocre earlier day wins over a
	// later day with a perfect verifiable slot.
	day1 := sunnyDay(Date{2024, time.June, 1}, 72, makeHours(0, 24, Rainy, 72))
	day2 := sunnyDay(Date{2024, time.June, 2}, 72, makeHours(0, 24, Sunny, 72))
	window := &TimeWindow{Start: TimeOfDay{Hour: 10}, End: TimeOfDay{Hour: 12}}

	res := FindBestEventDate([]DayRecord{day1, day2}, []Condition{Sunny}, TempAny, window)
	if res == nil {
		t.Fatal("Expected a match, got nil")
	}
	if res.Date != day1.Date {
		t.Errorf("Expected first day to preempt, got %v", res.Date)
	}
	if res.Confidence != ConfidenceMedium {
		t.Errorf("Expected medium confidence, got %q", res.Confidence)
	}
}

func TestFindBestEventDate_TemperatureFilter(t *testing.T) {
	day1 := sunnyDay(Date{2024, time.June, 1}, 95, nil) // too hot for warm
	day2 := sunnyDay(Date{2024, time.June, 2}, 75, nil)

	res := FindBestEventDate([]DayRecord{day1, day2}, []Condition{Sunny}, TempWarm, nil)
	if res == nil {
		t.Fatal("Expected a match, got nil")
	}
	if res.Date != day2.Date {
		t.Errorf("Expected day 2, got %v", res.Date)
	}
}

func TestFindBestEventDate_NoMatch(t *testing.T) {
	days := []DayRecord{
		{Date: Date{2024, time.June, 1}, Condition: Rainy, AvgTempF: 60},
		{Date: Date{2024, time.June, 2}, Condition: Unknown, AvgTempF: 70},
	}

	if res := FindBestEventDate(days, []Condition{Sunny}, TempAny, nil); res != nil {
		t.Errorf("Expected nil when no day passes, got %+v", res)
	}
}

func TestReduceAndMatch_EndToEnd(t *testing.T) {
	days, err := Reduce(samplePayload())
	if err != nil {
		t.Fatalf("Reduce returned error: %v", err)
	}

	window := &TimeWindow{Start: TimeOfDay{Hour: 10}, End: TimeOfDay{Hour: 11}}
	res := FindBestEventDate(days, []Condition{Sunny}, TempAny, window)
	if res == nil {
		t.Fatal("Expected a match, got nil")
	}

	if res.Date != (Date{2024, time.June, 1}) {
		t.Errorf("Expected 2024-06-01, got %v", res.Date)
	}
	if res.Start != (TimeOfDay{Hour: 10}) || res.End != (TimeOfDay{Hour: 11}) {
		t.Errorf("Expected 10:00-11:00, got %v-%v", res.Start, res.End)
	}
	if res.Condition != Sunny {
		t.Errorf("Expected sunny, got %q", res.Condition)
	}
	if res.Confidence != ConfidenceHigh {
		t.Errorf("Expected high confidence, got %q", res.Confidence)
	}
	// The single-hour slot 10:00-11:00 holds the 25°C hour: 77°F
	if res.TemperatureF != 77 {
		t.Errorf("Expected slot mean 77°F, got %v", res.TemperatureF)
	}
}

func TestFindBestHourInDay(t *testing.T) {
	hours := []HourRecord{
		{Date: testDate, Hour: 9, Condition: Rainy, TemperatureF: 64},
		{Date: testDate, Hour: 10, Condition: Sunny, TemperatureF: 70},
		{Date: testDate, Hour: 11, Condition: Sunny, TemperatureF: 73},
	}

	// Exact preferred hour
	got := FindBestHourInDay(hours, []Condition{Sunny}, TempAny, 10)
	if got == nil || got.Hour != 10 {
		t.Fatalf("Expected hour 10, got %+v", got)
	}

	// Preferred hour fails, first satisfying hour wins
	got = FindBestHourInDay(hours, []Condition{Sunny}, TempAny, 9)
	if got == nil || got.Hour != 10 {
		t.Fatalf("Expected fallback to hour 10, got %+v", got)
	}

	// Nothing satisfies
	if got := FindBestHourInDay(hours, []Condition{Snowy}, TempAny, 10); got != nil {
		t.Errorf("Expected nil, got %+v", got)
	}
}
