package scheduler

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// Config represents the configuration for the event scheduler
type Config struct {
	// Scheduler settings
	MatchCheckInterval time.Duration `json:"match_check_interval"` // How often to re-evaluate pending events
	ForecastDays       int           `json:"forecast_days"`        // How many days ahead to request forecasts for
	DryRun             bool          `json:"dry_run"`              // Run in dry-run mode (evaluate without persisting)

	// API settings
	APITimeout        time.Duration `json:"api_timeout"`         // Timeout for API calls
	RequestsPerSecond float64       `json:"requests_per_second"` // Rate limit for outbound API calls
	UserAgent         string        `json:"user_agent"`          // User agent for API clients

	// Forecast cache
	ForecastCacheDuration time.Duration `json:"forecast_cache_duration"` // How long a fetched forecast stays fresh

	// Default location used when an event carries no resolvable location
	DefaultLocationName string  `json:"default_location_name"`
	Latitude            float64 `json:"latitude"`  // Default latitude
	Longitude           float64 `json:"longitude"` // Default longitude

	// Persistence
	PostgresConnString string `json:"postgres_conn_string"` // PostgreSQL connection string

	// Web server
	WebPort int `json:"web_port"` // Port for web/health endpoints (0 = disabled)

	// Logging settings
	LogLevel  string `json:"log_level"`  // Log level: debug, info, warn, error
	LogFormat string `json:"log_format"` // Log format: text, json
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		MatchCheckInterval:    1 * time.Hour,
		ForecastDays:          7,
		DryRun:                false,
		APITimeout:            30 * time.Second,
		RequestsPerSecond:     2.0,
		UserAgent:             "EventScheduler/1.0 (username@example.com)",
		ForecastCacheDuration: 2 * time.Hour,
		DefaultLocationName:   "New York",
		Latitude:              40.7128, // New York, NY
		Longitude:             -74.0060,
		PostgresConnString:    "",
		WebPort:               0,
		LogLevel:              "info",
		LogFormat:             "text",
	}
}

// LoadConfig loads configuration from a JSON file
func LoadConfig(filename string) (*Config, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	config := DefaultConfig()

	decoder := json.NewDecoder(reader)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config JSON: %w", err)
	}

	// Environment overrides the file for the connection string so the
	// secret can stay out of version-controlled configs.
	if env := os.Getenv("POSTGRES_CONN_STRING"); env != "" {
		config.PostgresConnString = env
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to a JSON file
func (c *Config) SaveConfig(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	return c.SaveConfigToWriter(file)
}

// SaveConfigToWriter saves the configuration to an io.Writer
func (c *Config) SaveConfigToWriter(writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config JSON: %w", err)
	}

	return nil
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	if c.MatchCheckInterval <= 0 {
		return fmt.Errorf("match_check_interval must be greater than 0, got: %s", c.MatchCheckInterval)
	}

	if c.ForecastDays < 1 || c.ForecastDays > 16 {
		return fmt.Errorf("forecast_days must be between 1 and 16, got: %d", c.ForecastDays)
	}

	if c.APITimeout <= 0 {
		return fmt.Errorf("api_timeout must be greater than 0, got: %s", c.APITimeout)
	}

	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests_per_second must be greater than 0, got: %f", c.RequestsPerSecond)
	}

	if c.ForecastCacheDuration <= 0 {
		return fmt.Errorf("forecast_cache_duration must be greater than 0, got: %s", c.ForecastCacheDuration)
	}

	if c.WebPort < 0 || c.WebPort > 65535 {
		return fmt.Errorf("web_port must be between 0 and 65535, got: %d", c.WebPort)
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level: %s, must be one of: debug, info, warn, error", c.LogLevel)
	}

	// Validate log format
	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[c.LogFormat] {
		return fmt.Errorf("invalid log_format: %s, must be one of: text, json", c.LogFormat)
	}

	// Validate latitude
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude must be between -90 and 90, got: %f", c.Latitude)
	}

	// Validate longitude
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("longitude must be between -180 and 180, got: %f", c.Longitude)
	}

	// Validate user agent
	if c.UserAgent == "" {
		return fmt.Errorf("user_agent cannot be empty")
	}

	return nil
}

// MarshalJSON implements custom JSON marshaling to handle durations
func (c *Config) MarshalJSON() ([]byte, error) {
	type Alias Config
	return json.Marshal(&struct {
		*Alias
		MatchCheckInterval    string `json:"match_check_interval"`
		APITimeout            string `json:"api_timeout"`
		ForecastCacheDuration string `json:"forecast_cache_duration"`
	}{
		Alias:                 (*Alias)(c),
		MatchCheckInterval:    c.MatchCheckInterval.String(),
		APITimeout:            c.APITimeout.String(),
		ForecastCacheDuration: c.ForecastCacheDuration.String(),
	})
}

// UnmarshalJSON implements custom JSON unmarshaling to handle durations
func (c *Config) UnmarshalJSON(data []byte) error {
	type Alias Config
	aux := &struct {
		*Alias
		MatchCheckInterval    string `json:"match_check_interval"`
		APITimeout            string `json:"api_timeout"`
		ForecastCacheDuration string `json:"forecast_cache_duration"`
	}{
		Alias: (*Alias)(c),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	if aux.MatchCheckInterval != "" {
		if c.MatchCheckInterval, err = time.ParseDuration(aux.MatchCheckInterval); err != nil {
			return fmt.Errorf("invalid match_check_interval: %w", err)
		}
	}

	if aux.APITimeout != "" {
		if c.APITimeout, err = time.ParseDuration(aux.APITimeout); err != nil {
			return fmt.Errorf("invalid api_timeout: %w", err)
		}
	}

	if aux.ForecastCacheDuration != "" {
		if c.ForecastCacheDuration, err = time.ParseDuration(aux.ForecastCacheDuration); err != nil {
			return fmt.Errorf("invalid forecast_cache_duration: %w", err)
		}
	}

	return nil
}

// String returns a string representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}
