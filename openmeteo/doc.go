// Package openmeteo provides a Go client for the Open-Meteo forecast and
// geocoding APIs.
//
// The forecast endpoint returns daily and hourly weather variables as
// parallel arrays; the geocoding endpoint resolves a place name to
// coordinates. Both APIs are free for non-commercial use and require no
// API key, but requests should carry a descriptive User-Agent.
//
// Basic Usage:
//
//	client := openmeteo.NewClient("YourApp/1.0 (your-email@example.com)")
//
//	params := openmeteo.QueryParams{
//		Location: openmeteo.Location{
//			Latitude:  40.7128, // New York City
//			Longitude: -74.0060,
//		},
//		StartDate: "2024-06-01",
//		EndDate:   "2024-06-07",
//	}
//
//	forecast, err := client.GetForecast(ctx, params)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	for i, day := range forecast.Daily.Time {
//		fmt.Printf("%s: code %d, max %.1f°C\n",
//			day,
//			forecast.Daily.WeatherCode[i],
//			forecast.Daily.Temperature2mMax[i])
//	}
//
// All request methods take a context and honor an internal rate limiter so
// that callers polling on a schedule cannot exceed the API's fair-use
// limits.
//
// For more information about the APIs, visit: https://open-meteo.com/en/docs
package openmeteo
