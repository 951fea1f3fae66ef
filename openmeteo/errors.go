package openmeteo

import (
	"errors"
	"fmt"
)

// ErrLocationNotFound is returned by Geocode when the API has no result
// for the requested place name.
var ErrLocationNotFound = errors.New("location not found")

// APIError represents an error returned by the Open-Meteo API
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
}

// ValidationError represents a validation error for input parameters
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}
