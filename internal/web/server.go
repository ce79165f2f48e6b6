package web

import (
	"embed"
	"encoding/json"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/pendle-vault/pvm/internal/engine"
	"github.com/pendle-vault/pvm/internal/logger"
	"github.com/pendle-vault/pvm/internal/state"
	"github.com/pendle-vault/pvm/internal/types"
)

var webLogger = logger.GetForComponent("web_server")

//go:embed static/index.html
var dashboardHTML []byte

//go:embed static/*
var staticFiles embed.FS

// WebServer exposes read-only vault data: markets, positions, the event
// journal and the fee pool. It never mutates engine state.
type WebServer struct {
	router *mux.Router
	engine *engine.Engine
	port   string
}

// NewWebServer creates a new web server instance
func NewWebServer(port string, eng *engine.Engine) *WebServer {
	if port == "" {
		port = "8080"
	}

	server := &WebServer{
		router: mux.NewRouter(),
		engine: eng,
		port:   port,
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures all HTTP routes
func (ws *WebServer) setupRoutes() {
	// Static files
	staticHandler := http.FileServer(http.FS(staticFiles))
	ws.router.PathPrefix("/static/").Handler(http.StripPrefix("/", staticHandler))

	// Dashboard routes
	ws.router.HandleFunc("/", ws.handleDashboard).Methods("GET")
	ws.router.HandleFunc("/dashboard", ws.handleDashboard).Methods("GET")

	// Health endpoint (direct route)
	ws.router.HandleFunc("/health", ws.handleHealth).Methods("GET")

	// API endpoints
	api := ws.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", ws.handleHealth).Methods("GET")
	api.HandleFunc("/markets", ws.handleGetMarkets).Methods("GET")
	api.HandleFunc("/markets/{id}", ws.handleGetMarket).Methods("GET")
	api.HandleFunc("/markets/{id}/positions/{user}", ws.handleGetPosition).Methods("GET")
	api.HandleFunc("/events", ws.handleGetEvents).Methods("GET")
	api.HandleFunc("/fees", ws.handleGetFees).Methods("GET")

	// Add CORS middleware
	ws.router.Use(ws.corsMiddleware)
	ws.router.Use(ws.loggingMiddleware)
}

// Start starts the web server
func (ws *WebServer) Start() error {
	webLogger.Info().Str("port", ws.port).Msg("Starting web server")

	server := &http.Server{
		Addr:         ":" + ws.port,
		Handler:      ws.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server.ListenAndServe()
}

// handleDashboard serves the embedded dashboard page
func (ws *WebServer) handleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(dashboardHTML)
}

// handleHealth returns server health status
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	dbHealthy := state.TestDBConnection() == nil

	status := "healthy"
	httpStatus := http.StatusOK
	if !dbHealthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	ws.writeJSON(w, httpStatus, map[string]interface{}{
		"status":       status,
		"timestamp":    time.Now().UTC(),
		"database":     dbHealthy,
		"markets":      len(ws.engine.Markets()),
		"goroutines":   runtime.NumGoroutine(),
		"heap_alloc_b": memStats.HeapAlloc,
	})
}

// handleGetMarkets lists every registered market with its accrual state
func (ws *WebServer) handleGetMarkets(w http.ResponseWriter, r *http.Request) {
	ids := ws.engine.Markets()
	markets := make([]*types.Market, 0, len(ids))
	for _, id := range ids {
		m, err := ws.engine.MarketView(id)
		if err != nil {
			continue
		}
		markets = append(markets, m)
	}
	ws.writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(markets),
		"markets": markets,
	})
}

// handleGetMarket returns one market's accrual state
func (ws *WebServer) handleGetMarket(w http.ResponseWriter, r *http.Request) {
	id := types.MarketID(mux.Vars(r)["id"])
	m, err := ws.engine.MarketView(id)
	if err != nil {
		ws.writeError(w, http.StatusNotFound, "market not registered")
		return
	}
	ws.writeJSON(w, http.StatusOK, m)
}

// handleGetPosition returns a user's deposit and pending rewards in a market.
// Pending amounts reflect the last harvest, not unredeemed on-chain rewards.
func (ws *WebServer) handleGetPosition(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := types.MarketID(vars["id"])
	user := vars["user"]

	deposited, err := ws.engine.DepositedAmount(id, user)
	if err != nil {
		ws.writeError(w, http.StatusNotFound, "market not registered")
		return
	}
	pending, err := ws.engine.PendingRewards(id, user)
	if err != nil {
		ws.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	ws.writeJSON(w, http.StatusOK, map[string]interface{}{
		"market":           id,
		"user":             user,
		"deposited_amount": deposited,
		"pending_rewards":  pending,
	})
}

// handleGetEvents returns recent journal events, optionally filtered by market
func (ws *WebServer) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 1000 {
			ws.writeError(w, http.StatusBadRequest, "limit must be an integer in [1, 1000]")
			return
		}
		limit = parsed
	}

	events, err := state.GetRecentEvents(limit, r.URL.Query().Get("market"))
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to load events")
		ws.writeError(w, http.StatusInternalServerError, "failed to load events")
		return
	}

	ws.writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(events),
		"events": events,
	})
}

// handleGetFees returns the accumulated, not-yet-swept fee pool
func (ws *WebServer) handleGetFees(w http.ResponseWriter, r *http.Request) {
	ws.writeJSON(w, http.StatusOK, map[string]interface{}{
		"accumulated_fee": ws.engine.AccumulatedFee(),
	})
}

// writeJSON writes a JSON response with the given status code
func (ws *WebServer) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		webLogger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes a JSON error response
func (ws *WebServer) writeError(w http.ResponseWriter, status int, message string) {
	ws.writeJSON(w, status, map[string]string{"error": message})
}

// corsMiddleware adds CORS headers for the dashboard frontend
func (ws *WebServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs each request with timing
func (ws *WebServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		webLogger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote", r.RemoteAddr).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}
