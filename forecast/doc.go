// Package forecast implements the weather-matching core of the event
// scheduler: reducing a raw Open-Meteo payload to per-day records and
// selecting the best date and contiguous time slot for an event given a
// set of acceptable weather conditions.
//
// The package performs no I/O. All functions are pure over in-memory
// sequences and safe to call concurrently; re-running them on the same
// inputs always produces the same result, which is what allows pending
// events to be re-evaluated on a schedule without any state here.
package forecast
