package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultForecastURL  = "https://api.open-meteo.com/v1/forecast"
	defaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"

	// The free tier allows 10k requests/day; a couple of requests per
	// second is well inside the fair-use limit.
	defaultRequestsPerSecond = 2.0
	defaultBurst             = 1
)

// Client represents a client for the Open-Meteo forecast and geocoding APIs
type Client struct {
	httpClient   *http.Client
	forecastURL  string
	geocodingURL string
	userAgent    string
	limiter      *rate.Limiter
}

// NewClient creates a new Open-Meteo client with default rate limiting
func NewClient(userAgent string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		forecastURL:  defaultForecastURL,
		geocodingURL: defaultGeocodingURL,
		userAgent:    userAgent,
		limiter:      rate.NewLimiter(rate.Limit(defaultRequestsPerSecond), defaultBurst),
	}
}

// NewClientWithHTTPClient creates a new client with a custom HTTP client
func NewClientWithHTTPClient(httpClient *http.Client, userAgent string) *Client {
	c := NewClient(userAgent)
	c.httpClient = httpClient
	return c
}

// SetBaseURL sets the base URL for the forecast API (useful for testing)
func (c *Client) SetBaseURL(baseURL string) {
	c.forecastURL = baseURL
}

// SetGeocodingURL sets the base URL for the geocoding API (useful for testing)
func (c *Client) SetGeocodingURL(baseURL string) {
	c.geocodingURL = baseURL
}

// SetRateLimit replaces the client's rate limiter. rps may be fractional
// for less than one request per second.
func (c *Client) SetRateLimit(rps float64, burst int) {
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
}

// GetForecast retrieves daily and hourly forecast data for the specified
// location. Daily variables are weather code and min/max temperature;
// hourly variables are weather code and temperature. All temperatures are
// in Celsius and all timestamps are in the location's local timezone.
func (c *Client) GetForecast(ctx context.Context, params QueryParams) (*ForecastResponse, error) {
	if err := ValidateLocation(params.Location); err != nil {
		return nil, err
	}

	reqURL, err := c.buildForecastURL(params)
	if err != nil {
		return nil, fmt.Errorf("failed to build URL: %w", err)
	}

	body, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var forecast ForecastResponse
	if err := json.Unmarshal(body, &forecast); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &forecast, nil
}

// get performs a rate-limited GET request and returns the response body
func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait canceled: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, nil
}

// buildForecastURL constructs the forecast API URL with query parameters
func (c *Client) buildForecastURL(params QueryParams) (string, error) {
	u, err := url.Parse(c.forecastURL)
	if err != nil {
		return "", err
	}

	query := u.Query()
	query.Set("latitude", formatFloat(params.Location.Latitude))
	query.Set("longitude", formatFloat(params.Location.Longitude))
	query.Set("daily", "weather_code,temperature_2m_max,temperature_2m_min")
	query.Set("hourly", "weather_code,temperature_2m")
	query.Set("timezone", "auto")

	if params.StartDate != "" {
		query.Set("start_date", params.StartDate)
	}
	if params.EndDate != "" {
		query.Set("end_date", params.EndDate)
	}

	u.RawQuery = query.Encode()
	return u.String(), nil
}

// formatFloat formats a float64 to a string with appropriate precision
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ValidateLocation validates that the location parameters are within acceptable ranges
func ValidateLocation(loc Location) error {
	if loc.Latitude < -90 || loc.Latitude > 90 {
		return &ValidationError{
			Field:   "latitude",
			Message: fmt.Sprintf("must be between -90 and 90, got %f", loc.Latitude),
		}
	}
	if loc.Longitude < -180 || loc.Longitude > 180 {
		return &ValidationError{
			Field:   "longitude",
			Message: fmt.Sprintf("must be between -180 and 180, got %f", loc.Longitude),
		}
	}
	return nil
}
