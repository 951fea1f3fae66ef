package scheduler

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	_ "github.com/lib/pq"

	"github.com/fairweather/event-scheduler/openmeteo"
)

// PeriodicTask represents a task that runs periodically with an optional initial delay
type PeriodicTask struct {
	name         string
	initialDelay time.Duration
	interval     time.Duration
	runFunc      func()
}

// run executes the periodic task in a loop, respecting the initial delay and context cancellation
func (pt *PeriodicTask) run(ctx context.Context, stopChan <-chan struct{}, logger *log.Logger) {
	// Wait for initial delay
	if pt.initialDelay > 0 {
		logger.Printf("[%s] Waiting for initial delay: %v", pt.name, pt.initialDelay)
		select {
		case <-time.After(pt.initialDelay):
			// Initial delay passed, run the task
			logger.Printf("[%s] Initial delay passed, running first iteration", pt.name)
			pt.runFunc()
		case <-ctx.Done():
			logger.Printf("[%s] Stopped during initial delay due to context cancellation", pt.name)
			return
		case <-stopChan:
			logger.Printf("[%s] Stopped during initial delay due to stop signal", pt.name)
			return
		}
	} else {
		// No initial delay, run immediately
		logger.Printf("[%s] Running immediately (no initial delay)", pt.name)
		pt.runFunc()
	}

	// Create ticker for periodic execution
	ticker := time.NewTicker(pt.interval)
	defer ticker.Stop()

	logger.Printf("[%s] Started with interval: %v", pt.name, pt.interval)

	for {
		select {
		case <-ticker.C:
			pt.runFunc()
		case <-ctx.Done():
			logger.Printf("[%s] Stopped due to context cancellation", pt.name)
			return
		case <-stopChan:
			logger.Printf("[%s] Stopped due to stop signal", pt.name)
			return
		}
	}
}

type EventScheduler struct {
	// Configuration
	config *Config

	// State
	isRunning      bool
	stopChan       chan struct{}
	mu             sync.RWMutex
	lastCheck      time.Time
	lastOutcomes   []MatchOutcome
	scheduledTotal int

	// Forecast and geocoding caches
	forecastCache *ForecastCache
	geocodeCache  map[string]openmeteo.Location

	// Provider client
	client *openmeteo.Client

	// Web server
	webServer *WebServer

	// Database connection
	db *sql.DB

	// Logging
	logger *log.Logger

	// Test hooks for dependency injection
	forecastFunc func(ctx context.Context, params openmeteo.QueryParams) (*openmeteo.ForecastResponse, error)
	geocodeFunc  func(ctx context.Context, name string) (*openmeteo.GeocodingResult, error)
}

// NewEventScheduler creates a new scheduler instance
func NewEventScheduler(config *Config, logger *log.Logger) *EventScheduler {
	if logger == nil {
		logger = log.Default()
	}

	client := openmeteo.NewClientWithHTTPClient(&http.Client{Timeout: config.APITimeout}, config.UserAgent)
	client.SetRateLimit(config.RequestsPerSecond, 1)

	scheduler := &EventScheduler{
		config:        config,
		stopChan:      make(chan struct{}),
		logger:        logger,
		client:        client,
		forecastCache: NewForecastCache(config.ForecastCacheDuration),
		geocodeCache:  make(map[string]openmeteo.Location),
	}
	scheduler.forecastFunc = client.GetForecast
	scheduler.geocodeFunc = client.Geocode

	return scheduler
}

// NewEventSchedulerWithWebServer creates a new scheduler instance with the web server attached
func NewEventSchedulerWithWebServer(config *Config, logger *log.Logger) *EventScheduler {
	scheduler := NewEventScheduler(config, logger)
	scheduler.webServer = NewWebServer(scheduler, config.WebPort)
	return scheduler
}

// SetConfig updates the configuration
func (s *EventScheduler) SetConfig(config *Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = config
}

// GetConfig returns the current configuration
func (s *EventScheduler) GetConfig() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// ConnectDB opens the Postgres connection and ensures the schema exists.
// Safe to call when no connection string is configured; the scheduler
// then runs without persistence and only serves dry evaluations.
func (s *EventScheduler) ConnectDB(ctx context.Context) error {
	if s.config.PostgresConnString == "" {
		s.logger.Printf("No database configured, running without persistence")
		return nil
	}

	db, err := sql.Open("postgres", s.config.PostgresConnString)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	s.db = db
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		s.db = nil
		return err
	}

	s.logger.Printf("Connected to database")
	return nil
}

// Start begins the scheduler's periodic tasks
func (s *EventScheduler) Start(ctx context.Context, serverOnly bool) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("scheduler is already running")
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	if s.config.DryRun {
		s.logger.Printf("DRY-RUN MODE ENABLED: Matches will be evaluated but not persisted")
	}

	// Start web server if configured
	if s.webServer != nil {
		err := s.webServer.Start()
		if err != nil {
			s.logger.Printf("Failed to start web server: %v", err)
		} else {
			s.logger.Printf("Web server started on port %d", s.webServer.port)
		}
		if serverOnly {
			<-ctx.Done()
			s.stop()
			return err
		}
	}

	config := s.GetConfig()

	// Create periodic tasks
	tasks := []PeriodicTask{
		{
			name:         "MatchCheck",
			initialDelay: 0, // Run immediately
			interval:     config.MatchCheckInterval,
			runFunc: func() {
				s.RunMatchCheck(ctx)
			},
		},
		{
			name:         "CachePurge",
			initialDelay: config.ForecastCacheDuration,
			interval:     config.ForecastCacheDuration,
			runFunc: func() {
				s.forecastCache.Purge()
			},
		},
	}

	// Start each periodic task in its own goroutine
	var wg sync.WaitGroup
	for _, task := range tasks {
		wg.Add(1)
		task := task // capture loop variable
		go func() {
			defer wg.Done()
			task.run(ctx, s.stopChan, s.logger)
		}()
	}

	// Wait for all tasks to complete
	wg.Wait()

	s.logger.Printf("All periodic tasks stopped")
	s.stop()
	return nil
}

// Stop gracefully stops the scheduler
func (s *EventScheduler) Stop() {
	s.stop()
}

func (s *EventScheduler) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	s.isRunning = false

	// Close stopChan if it's not already closed
	select {
	case <-s.stopChan:
		// Already closed
	default:
		close(s.stopChan)
	}

	// Stop web server if running
	if s.webServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.webServer.Stop(ctx); err != nil {
			s.logger.Printf("Error stopping web server: %v", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Printf("Error closing database: %v", err)
		}
		s.db = nil
	}
}

// IsRunning returns whether the scheduler is currently running
func (s *EventScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetStatus returns the current status of the scheduler
func (s *EventScheduler) GetStatus() SchedulerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := SchedulerStatus{
		IsRunning:      s.isRunning,
		ScheduledTotal: s.scheduledTotal,
		HasDatabase:    s.db != nil,
	}
	if !s.lastCheck.IsZero() {
		t := s.lastCheck
		status.LastCheck = &t
	}
	return status
}

// GetLastOutcomes returns a copy of the outcomes from the most recent
// match check
func (s *EventScheduler) GetLastOutcomes() []MatchOutcome {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.lastOutcomes == nil {
		return nil
	}

	outcomesCopy := make([]MatchOutcome, len(s.lastOutcomes))
	copy(outcomesCopy, s.lastOutcomes)
	return outcomesCopy
}

// SchedulerStatus represents the current status of the scheduler
type SchedulerStatus struct {
	IsRunning      bool       `json:"is_running"`
	ScheduledTotal int        `json:"scheduled_total"`
	HasDatabase    bool       `json:"has_database"`
	LastCheck      *time.Time `json:"last_check,omitempty"`
}
