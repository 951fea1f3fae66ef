package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebServer provides HTTP endpoints for health checking, monitoring, and
// event submission
type WebServer struct {
	scheduler *EventScheduler
	server    *http.Server
	port      int
	startTime time.Time
	upgrader  websocket.Upgrader
	clients   sync.Map
	broadcast chan []byte
	done      chan struct{}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string          `json:"status"`
	Timestamp string          `json:"timestamp"`
	Version   string          `json:"version,omitempty"`
	Scheduler SchedulerHealth `json:"scheduler"`
	System    SystemHealth    `json:"system"`
}

// SchedulerHealth represents scheduler-specific health information
type SchedulerHealth struct {
	IsRunning          bool       `json:"is_running"`
	HasDatabase        bool       `json:"has_database"`
	LastCheck          *time.Time `json:"last_check,omitempty"`
	ScheduledTotal     int        `json:"scheduled_total"`
	MatchCheckInterval string     `json:"match_check_interval"`
	DefaultLocation    string     `json:"default_location"`
}

// SystemHealth represents system-level health information
type SystemHealth struct {
	Uptime     string `json:"uptime"`
	Memory     string `json:"memory,omitempty"`
	Goroutines int    `json:"goroutines,omitempty"`
}

// NewWebServer creates a new web server with health and event endpoints
func NewWebServer(scheduler *EventScheduler, port int) *WebServer {
	if port <= 0 {
		return nil // Web server disabled
	}

	mux := http.NewServeMux()
	hs := &WebServer{
		scheduler: scheduler,
		port:      port,
		startTime: time.Now(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins in development
			},
		},
		broadcast: make(chan []byte, 256),
		done:      make(chan struct{}),
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}

	// Register API routes
	mux.HandleFunc("/api/health", hs.healthHandler)
	mux.HandleFunc("/api/ready", hs.readinessHandler)
	mux.HandleFunc("/api/status", hs.statusHandler)
	mux.HandleFunc("/api/events", hs.eventsHandler)
	mux.HandleFunc("/api/ws", hs.wsHandler)

	return hs
}

// Start starts the web server
func (hs *WebServer) Start() error {
	if hs == nil {
		return nil // Web server disabled
	}

	// Start the broadcast handler
	go hs.handleBroadcasts()

	// Start periodic status broadcaster
	go hs.broadcastStatus()

	go func() {
		if err := hs.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			// Log error but don't crash the main application
			fmt.Printf("Web server error: %v\n", err)
		}
	}()

	return nil
}

// Stop gracefully stops the web server
func (hs *WebServer) Stop(ctx context.Context) error {
	if hs == nil {
		return nil // Web server disabled
	}

	// Signal goroutines to stop
	close(hs.done)

	// Close all WebSocket connections
	hs.clients.Range(func(key, value any) bool {
		if conn, ok := key.(*websocket.Conn); ok {
			conn.Close()
		}
		return true
	})

	return hs.server.Shutdown(ctx)
}

// BroadcastEventScheduled pushes a newly scheduled event to all
// connected WebSocket clients
func (hs *WebServer) BroadcastEventScheduled(event *Event) {
	if hs == nil {
		return
	}

	message, err := json.Marshal(map[string]any{
		"type":  "event_scheduled",
		"event": event,
	})
	if err != nil {
		fmt.Printf("Failed to marshal scheduled event: %v\n", err)
		return
	}

	select {
	case hs.broadcast <- message:
	default:
		// Broadcast channel full, drop the message
	}
}

// healthHandler handles the /api/health endpoint
func (hs *WebServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	health := hs.buildHealth()

	if health.Status != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(health); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// readinessHandler handles the /api/ready endpoint
func (hs *WebServer) readinessHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := hs.scheduler.GetStatus()

	ready := map[string]any{
		"ready":     status.IsRunning,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")

	if !status.IsRunning {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	if err := json.NewEncoder(w).Encode(ready); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// statusHandler handles the /api/status endpoint (detailed status)
func (hs *WebServer) statusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(hs.buildStatusData()); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// eventsHandler handles the /api/events endpoint: GET lists recent
// events, POST submits a new event request
func (hs *WebServer) eventsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		hs.listEvents(w, r)
	case http.MethodPost:
		hs.createEvent(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (hs *WebServer) listEvents(w http.ResponseWriter, r *http.Request) {
	events, err := hs.scheduler.listRecentEvents(r.Context(), 50)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to list events: %v", err), http.StatusInternalServerError)
		return
	}

	response := map[string]any{
		"count":  len(events),
		"events": events,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func (hs *WebServer) createEvent(w http.ResponseWriter, r *http.Request) {
	var event Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		http.Error(w, fmt.Sprintf("Invalid event JSON: %v", err), http.StatusBadRequest)
		return
	}

	if err := event.Validate(); err != nil {
		http.Error(w, fmt.Sprintf("Invalid event: %v", err), http.StatusBadRequest)
		return
	}

	if err := hs.scheduler.saveEvent(r.Context(), &event); err != nil {
		http.Error(w, fmt.Sprintf("Failed to save event: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(&event); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// wsHandler handles WebSocket connections
func (hs *WebServer) wsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := hs.upgrader.Upgrade(w, r, nil)
	if err != nil {
		fmt.Printf("WebSocket upgrade error: %v\n", err)
		return
	}

	// Register new client
	hs.clients.Store(conn, true)

	clientCount := 0
	hs.clients.Range(func(key, value any) bool {
		clientCount++
		return true
	})
	fmt.Printf("New WebSocket client connected. Total clients: %d\n", clientCount)

	// Send initial data immediately
	hs.sendStatusToClient(conn)

	// Handle client disconnection
	defer func() {
		hs.clients.Delete(conn)
		conn.Close()

		clientCount := 0
		hs.clients.Range(func(key, value any) bool {
			clientCount++
			return true
		})
		fmt.Printf("WebSocket client disconnected. Total clients: %d\n", clientCount)
	}()

	// Read messages from client (ping/pong, close)
	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				fmt.Printf("WebSocket error: %v\n", err)
			}
			break
		}
	}
}

// handleBroadcasts sends messages to all connected clients
func (hs *WebServer) handleBroadcasts() {
	for {
		select {
		case message := <-hs.broadcast:
			hs.clients.Range(func(key, value any) bool {
				conn, ok := key.(*websocket.Conn)
				if !ok {
					return true
				}

				err := conn.WriteMessage(websocket.TextMessage, message)
				if err != nil {
					fmt.Printf("WebSocket write error: %v\n", err)
					conn.Close()
					hs.clients.Delete(conn)
				}
				return true
			})
		case <-hs.done:
			return
		}
	}
}

// broadcastStatus periodically broadcasts status updates
func (hs *WebServer) broadcastStatus() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			hasClients := false
			hs.clients.Range(func(key, value any) bool {
				hasClients = true
				return false // Stop after finding first client
			})

			if hasClients {
				data := hs.buildStatusData()
				message, err := json.Marshal(data)
				if err != nil {
					fmt.Printf("Failed to marshal status data: %v\n", err)
					continue
				}
				hs.broadcast <- message
			}
		case <-hs.done:
			return
		}
	}
}

// sendStatusToClient sends status data to a specific client
func (hs *WebServer) sendStatusToClient(conn *websocket.Conn) {
	data := hs.buildStatusData()
	if err := conn.WriteJSON(data); err != nil {
		fmt.Printf("Failed to send initial data: %v\n", err)
	}
}

// buildHealth builds the health response
func (hs *WebServer) buildHealth() HealthResponse {
	status := hs.scheduler.GetStatus()
	config := hs.scheduler.GetConfig()

	health := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
		Scheduler: SchedulerHealth{
			IsRunning:          status.IsRunning,
			HasDatabase:        status.HasDatabase,
			LastCheck:          status.LastCheck,
			ScheduledTotal:     status.ScheduledTotal,
			MatchCheckInterval: config.MatchCheckInterval.String(),
			DefaultLocation:    config.DefaultLocationName,
		},
		System: SystemHealth{
			Uptime:     formatUptime(time.Since(hs.startTime)),
			Goroutines: 0,
		},
	}

	if !status.IsRunning {
		health.Status = "unhealthy"
	}

	return health
}

// buildStatusData builds combined health and status data
func (hs *WebServer) buildStatusData() map[string]any {
	status := hs.scheduler.GetStatus()
	outcomes := hs.scheduler.GetLastOutcomes()

	return map[string]any{
		"type":   "status_update",
		"health": hs.buildHealth(),
		"status": map[string]any{
			"scheduler_status": status,
			"last_outcomes": map[string]any{
				"count": len(outcomes),
				"list":  outcomes,
			},
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	}
}

// Helper functions

// formatUptime formats a duration as a string with seconds rounded to integer
func formatUptime(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
