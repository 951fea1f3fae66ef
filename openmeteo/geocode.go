package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Geocode resolves a place name to coordinates using the Open-Meteo
// geocoding API. Only the part before the first comma is sent to the API,
// so inputs like "Portland, OR" resolve on the city name alone. The first
// (best-ranked) result is returned; ErrLocationNotFound when there is none.
func (c *Client) Geocode(ctx context.Context, locationName string) (*GeocodingResult, error) {
	cityName := strings.TrimSpace(locationName)
	if i := strings.Index(cityName, ","); i >= 0 {
		cityName = strings.TrimSpace(cityName[:i])
	}
	if cityName == "" {
		return nil, &ValidationError{Field: "name", Message: "cannot be empty"}
	}

	u, err := url.Parse(c.geocodingURL)
	if err != nil {
		return nil, fmt.Errorf("failed to build URL: %w", err)
	}

	query := u.Query()
	query.Set("name", cityName)
	query.Set("count", "1")
	query.Set("language", "en")
	query.Set("format", "json")
	u.RawQuery = query.Encode()

	body, err := c.get(ctx, u.String())
	if err != nil {
		return nil, err
	}

	var resp GeocodingResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrLocationNotFound, locationName)
	}

	return &resp.Results[0], nil
}
