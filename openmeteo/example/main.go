// Package main provides an example of using the openmeteo client to fetch forecasts.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/fairweather/event-scheduler/forecast"
	"github.com/fairweather/event-scheduler/openmeteo"
)

func main() {
	client := openmeteo.NewClient("MyApp/1.0 (username@example.com)")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Resolve a city name to coordinates
	place, err := client.Geocode(ctx, "New York, NY")
	if err != nil {
		if errors.Is(err, openmeteo.ErrLocationNotFound) {
			log.Fatal("Location not found")
		}
		log.Fatalf("Geocoding error: %v", err)
	}

	fmt.Printf("Getting forecast for %s (%.4f, %.4f)\n\n",
		place.Name, place.Latitude, place.Longitude)

	location := openmeteo.Location{
		Latitude:  place.Latitude,
		Longitude: place.Longitude,
	}

	if err := openmeteo.ValidateLocation(location); err != nil {
		log.Fatalf("Invalid location: %v", err)
	}

	payload, err := client.GetForecast(ctx, openmeteo.QueryParams{
		Location: location,
	})
	if err != nil {
		var apiErr *openmeteo.APIError
		if errors.As(err, &apiErr) {
			log.Fatalf("API error %d: %s", apiErr.StatusCode, apiErr.Message)
		}
		log.Fatalf("Forecast error: %v", err)
	}

	days, err := forecast.Reduce(payload)
	if err != nil {
		log.Fatalf("Malformed forecast: %v", err)
	}

	for _, day := range days {
		fmt.Printf("%s  %-13s max %5.1f°F  min %5.1f°F  (%d hourly records)\n",
			day.Date, day.Condition, day.MaxTempF, day.MinTempF, len(day.Hours))
	}
}
