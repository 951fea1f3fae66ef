// Package main provides the weather-aware event scheduler entry point and CLI interface.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/fairweather/event-scheduler/scheduler"
)

func main() {
	// Command line flags
	var (
		configFile = flag.String("config", "config.json", "Configuration file path")
		help       = flag.Bool("help", false, "Show help message")
		serverOnly = flag.Bool("serverOnly", false, "Run only web server without periodic checks")
		check      = flag.Bool("check", false, "Run one match check and print the outcomes")
	)
	flag.Parse()

	if *help {
		showHelp()
		return
	}

	// Load .env before the config so env overrides can apply
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Println("Error loading .env file:", err)
	}

	config, err := scheduler.LoadConfig(*configFile)
	if err != nil {
		fmt.Println("Error loading configuration:", err)
		return
	}

	if *check {
		runMatchCheck(config)
		return
	}

	fmt.Printf("Starting event scheduler with the following configuration:\n")
	fmt.Printf("  Match Check Interval: %s\n", config.MatchCheckInterval)
	fmt.Printf("  Forecast Days: %d\n", config.ForecastDays)
	fmt.Printf("  Default Location: %s (%.4f, %.4f)\n", config.DefaultLocationName, config.Latitude, config.Longitude)

	if config.DryRun {
		fmt.Printf("  Mode: DRY-RUN (matches will not be persisted)\n")
	}
	fmt.Println()

	// Create logger
	logger := log.New(os.Stdout, "[SCHEDULER] ", log.LstdFlags)

	// Create scheduler
	eventScheduler := scheduler.NewEventSchedulerWithWebServer(config, logger)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := eventScheduler.ConnectDB(ctx); err != nil {
		logger.Printf("Database error: %v", err)
		return
	}

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start scheduler in a goroutine
	go func() {
		if err := eventScheduler.Start(ctx, *serverOnly); err != nil {
			if err != context.Canceled {
				logger.Printf("Scheduler error: %v", err)
			}
		}
	}()

	logger.Printf("Scheduler started. Press Ctrl+C to stop...")

	// Wait for shutdown signal
	<-sigChan
	logger.Printf("Shutdown signal received, stopping scheduler...")

	// Cancel context to stop scheduler
	cancel()

	// Give the scheduler a moment to clean up
	eventScheduler.Stop()

	logger.Printf("Scheduler stopped successfully")
}

func runMatchCheck(config *scheduler.Config) {
	logger := log.New(os.Stdout, "[CHECK] ", log.LstdFlags)

	eventScheduler := scheduler.NewEventScheduler(config, logger)

	ctx := context.Background()
	if err := eventScheduler.ConnectDB(ctx); err != nil {
		logger.Printf("Database error: %v", err)
		return
	}
	defer eventScheduler.Stop()

	logger.Printf("Running match check...")
	eventScheduler.RunMatchCheck(ctx)

	outcomes := eventScheduler.GetLastOutcomes()
	if len(outcomes) == 0 {
		logger.Printf("No pending events to evaluate")
		return
	}

	fmt.Println("\n========================================")
	fmt.Println("MATCH CHECK RESULTS")
	fmt.Println("========================================")
	fmt.Printf("Events evaluated: %d\n\n", len(outcomes))

	// Print table header
	fmt.Println("┌────────┬──────────────────────────────┬───────────┬────────────┬─────────────┬──────────────┬─────────┬────────────┐")
	fmt.Println("│   ID   │            Title             │ Scheduled │    Date    │    Times    │  Condition   │ Temp °F │ Confidence │")
	fmt.Println("├────────┼──────────────────────────────┼───────────┼────────────┼─────────────┼──────────────┼─────────┼────────────┤")

	scheduled := 0
	for _, outcome := range outcomes {
		if outcome.Scheduled && outcome.Match != nil {
			scheduled++
			fmt.Printf("│ %6d │ %-28s │    yes    │ %10s │ %s-%s │ %-12s │  %5.1f  │ %-10s │\n",
				outcome.EventID,
				truncate(outcome.Title, 28),
				outcome.Match.Date,
				outcome.Match.Start,
				outcome.Match.End,
				outcome.Match.Condition,
				outcome.Match.TemperatureF,
				outcome.Match.Confidence,
			)
		} else {
			fmt.Printf("│ %6d │ %-28s │    no     │     -      │      -      │ %-12s │    -    │     -      │\n",
				outcome.EventID,
				truncate(outcome.Title, 28),
				truncate(outcome.Reason, 12),
			)
		}
	}

	fmt.Println("└────────┴──────────────────────────────┴───────────┴────────────┴─────────────┴──────────────┴─────────┴────────────┘")
	fmt.Println("\n========================================")
	fmt.Println("SUMMARY")
	fmt.Println("========================================")
	fmt.Printf("Scheduled:     %d\n", scheduled)
	fmt.Printf("Still pending: %d\n", len(outcomes)-scheduled)
	fmt.Println("========================================")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}

func showHelp() {
	fmt.Println("Event Scheduler - Pick the best day and time for weather-dependent events")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  A scheduling service that matches event requests against weather forecasts.")
	fmt.Println("  Each request names a location, a search window, acceptable weather conditions,")
	fmt.Println("  an optional temperature preference, and an optional time of day. The service")
	fmt.Println("  re-evaluates pending requests periodically and commits the first acceptable")
	fmt.Println("  day, preferring a contiguous block of hours that all satisfy the preferences.")
	fmt.Println()
	fmt.Println("  Key Features:")
	fmt.Println("  - Open-Meteo forecast and geocoding integration")
	fmt.Println("  - Hour-by-hour slot verification with confidence levels")
	fmt.Println("  - Sunrise/sunset annotation for scheduled events")
	fmt.Println("  - PostgreSQL-backed event store")
	fmt.Println("  - Real-time status over WebSocket")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  event-scheduler [OPTIONS]")
	fmt.Println()
	fmt.Println("OPTIONS:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Basic usage with default settings")
	fmt.Println("  event-scheduler")
	fmt.Println()
	fmt.Println("  # Custom configuration")
	fmt.Println("  event-scheduler --config=config.json")
	fmt.Println()
	fmt.Println("  # Run only web server without periodic checks")
	fmt.Println("  event-scheduler -serverOnly")
	fmt.Println()
	fmt.Println("  # Run one match check and print the outcomes")
	fmt.Println("  event-scheduler -check")
	fmt.Println()
	fmt.Println("  # Show this help")
	fmt.Println("  event-scheduler -help")
}
