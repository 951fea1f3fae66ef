package openmeteo

// DailyBlock contains the daily forecast variables as parallel arrays.
// All arrays have one entry per calendar day, in chronological order.
type DailyBlock struct {
	Time             []string  `json:"time"`             // "YYYY-MM-DD"
	WeatherCode      []int     `json:"weather_code"`     // WMO interpretation code
	Temperature2mMax []float64 `json:"temperature_2m_max"` // °C
	Temperature2mMin []float64 `json:"temperature_2m_min"` // °C
}

// HourlyBlock contains the hourly forecast variables as parallel arrays.
// All arrays have one entry per hour, in chronological order.
type HourlyBlock struct {
	Time          []string  `json:"time"`           // "YYYY-MM-DDTHH:MM"
	WeatherCode   []int     `json:"weather_code"`   // WMO interpretation code
	Temperature2m []float64 `json:"temperature_2m"` // °C
}

// ForecastResponse represents the root forecast response.
type ForecastResponse struct {
	Latitude       float64      `json:"latitude"`
	Longitude      float64      `json:"longitude"`
	Timezone       string       `json:"timezone"`
	TimezoneAbbr   string       `json:"timezone_abbreviation"`
	UTCOffsetSecs  int          `json:"utc_offset_seconds"`
	Daily          *DailyBlock  `json:"daily,omitempty"`
	Hourly         *HourlyBlock `json:"hourly,omitempty"`
}

// GeocodingResult represents a single match from the geocoding API.
type GeocodingResult struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	CountryCode string  `json:"country_code"`
	Country     string  `json:"country"`
	Timezone    string  `json:"timezone"`
	Admin1      string  `json:"admin1"` // State / region
}

// GeocodingResponse represents the root geocoding response.
type GeocodingResponse struct {
	Results []GeocodingResult `json:"results"`
}

// Location represents coordinates for a forecast request.
type Location struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// QueryParams represents query parameters for forecast requests.
// StartDate and EndDate are optional "YYYY-MM-DD" strings; when empty the
// API returns its default forecast horizon starting today.
type QueryParams struct {
	Location  Location `json:"location"`
	StartDate string   `json:"start_date,omitempty"`
	EndDate   string   `json:"end_date,omitempty"`
}
