package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/openalpha/fundvault/api/handlers"
	"github.com/openalpha/fundvault/api/middleware"
	"github.com/openalpha/fundvault/api/types"
	"github.com/openalpha/fundvault/api/websocket"
	"github.com/openalpha/fundvault/metrics"
)

// Server represents the API server
type Server struct {
	httpServer *http.Server
	wsServer   *websocket.Server
	config     *Config
	mockMode   bool

	// Services
	vaultService types.VaultService

	// Handlers
	vaultHandler *handlers.VaultHandler

	// Rate limiter
	rateLimiter *middleware.RateLimiter
}

// Config contains server configuration
type Config struct {
	Host             string
	Port             int
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	MockMode         bool
	DisableRateLimit bool // For testing purposes
}

// DefaultConfig returns default configuration
// NOTE: MockMode defaults to false (keeper mode) for production safety.
// Use --mock flag explicitly for development/testing with mock data.
func DefaultConfig() *Config {
	return &Config{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		MockMode:     false, // Default to keeper mode - use --mock for development
	}
}

// NewServer creates a new API server backed by an in-process vault keeper
func NewServer(config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	}

	var vaultService types.VaultService
	if config.MockMode {
		vaultService = NewMockVaultService()
	} else {
		vaultService = NewKeeperService()
	}

	return newServerWithService(config, vaultService)
}

// NewServerWithService creates a new API server with a custom vault service
func NewServerWithService(config *Config, vaultSvc types.VaultService) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	return newServerWithService(config, vaultSvc)
}

func newServerWithService(config *Config, vaultSvc types.VaultService) *Server {
	wsConfig := websocket.DefaultServerConfig()
	wsConfig.Port = config.Port

	rateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimitConfig())

	s := &Server{
		config:       config,
		wsServer:     websocket.NewServer(wsConfig),
		mockMode:     config.MockMode,
		vaultService: vaultSvc,
		rateLimiter:  rateLimiter,
	}

	s.vaultHandler = handlers.NewVaultHandler(s.vaultService)

	return s
}

// Start starts the API server
func (s *Server) Start() error {
	mux := http.NewServeMux()

	// Health check (support both /health and /v1/health for compatibility)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/v1/health", s.handleHealth)

	// Prometheus metrics
	mux.Handle("/metrics", metrics.Handler())

	// Vault state and accounting
	mux.HandleFunc("/v1/vault/state", s.vaultHandler.GetVaultState)
	mux.HandleFunc("/v1/vault/stats", s.vaultHandler.GetVaultStats)
	mux.HandleFunc("/v1/vault/aum", s.vaultHandler.GetAUM)
	mux.HandleFunc("/v1/vault/aum/history", s.vaultHandler.GetAUMHistory)

	// Withdrawal request queries
	mux.HandleFunc("/v1/vault/requests/pending", s.vaultHandler.GetPendingRequests)
	mux.HandleFunc("/v1/vault/requests/", s.handleRequestRoutes)

	// User-specific endpoints
	mux.HandleFunc("/v1/vault/users/", s.handleUserRoutes)

	// Estimates
	mux.HandleFunc("/v1/vault/estimate/deposit", s.vaultHandler.EstimateDeposit)
	mux.HandleFunc("/v1/vault/estimate/withdrawal", s.vaultHandler.EstimateWithdrawal)

	// Deposit and withdrawal operations
	mux.HandleFunc("/v1/vault/deposit", s.vaultHandler.Deposit)
	mux.HandleFunc("/v1/vault/withdrawals/request", s.vaultHandler.RequestWithdrawal)
	mux.HandleFunc("/v1/vault/withdrawals/approve", s.vaultHandler.ApproveWithdrawal)
	mux.HandleFunc("/v1/vault/withdrawals/claim", s.vaultHandler.ProcessWithdrawal)
	mux.HandleFunc("/v1/vault/withdrawals/cancel", s.vaultHandler.CancelWithdrawal)

	// Fees
	mux.HandleFunc("/v1/vault/fees/preview", s.vaultHandler.GetFeePreview)
	mux.HandleFunc("/v1/vault/fees/collect", s.vaultHandler.CollectFees)

	// WebSocket
	mux.HandleFunc("/ws", s.wsServer.GetHub().ServeWS)

	// Apply middleware chain: CORS -> RateLimit -> Metrics -> Handler
	var handler http.Handler = metricsMiddleware(mux)
	if s.config.DisableRateLimit {
		handler = corsMiddleware(handler)
	} else {
		handler = corsMiddleware(
			middleware.RateLimitMiddleware(s.rateLimiter)(handler),
		)
	}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	// Start WebSocket hub
	go s.wsServer.GetHub().Run()

	// Feed vault snapshots and lifecycle events to WebSocket subscribers
	go s.startVaultBroadcaster()

	log.Printf("API server starting on %s (mock mode: %v)", addr, s.mockMode)
	log.Printf("Vault endpoints enabled: /v1/vault/state, /v1/vault/requests, /v1/vault/fees")
	if s.config.DisableRateLimit {
		log.Printf("Rate limiting DISABLED (for testing)")
	} else {
		log.Printf("Rate limiting enabled: %d req/s per IP", 100)
	}
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	mode := "keeper"
	modeDescription := "Using in-memory vault keeper (standalone mode)"
	if s.mockMode {
		mode = "mock"
		modeDescription = "Using mock data for development/testing"
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":           "healthy",
		"timestamp":        time.Now().Unix(),
		"mode":             mode,
		"mode_description": modeDescription,
		"warning":          "This API uses in-memory storage. For production, connect to a running chain node.",
	})
}

// handleRequestRoutes handles /v1/vault/requests/{requestId} endpoints
func (s *Server) handleRequestRoutes(w http.ResponseWriter, r *http.Request) {
	// Parse path: /v1/vault/requests/{requestId}
	raw := r.URL.Path[len("/v1/vault/requests/"):]
	if raw == "" {
		writeError(w, http.StatusBadRequest, "Request ID required")
		return
	}
	if i := strings.IndexByte(raw, '/'); i >= 0 {
		raw = raw[:i]
	}

	// Pass the request ID to the handler
	r.Header.Set("X-Request-ID", raw)
	s.vaultHandler.GetWithdrawalRequest(w, r)
}

// handleUserRoutes handles /v1/vault/users/{address}/* endpoints
func (s *Server) handleUserRoutes(w http.ResponseWriter, r *http.Request) {
	// Parse path: /v1/vault/users/{address}/{endpoint}
	path := r.URL.Path[len("/v1/vault/users/"):]

	address := path
	endpoint := ""
	for i, c := range path {
		if c == '/' {
			address = path[:i]
			endpoint = path[i+1:]
			break
		}
	}

	if address == "" {
		writeError(w, http.StatusBadRequest, "User address required")
		return
	}

	// Set address in request for handler
	r.Header.Set("X-User-Address", address)

	switch endpoint {
	case "", "requests":
		s.vaultHandler.GetUserRequests(w, r)
	default:
		writeError(w, http.StatusNotFound, "Endpoint not found")
	}
}

// startVaultBroadcaster polls the vault service and feeds the WebSocket
// channels. Polling keeps the hub decoupled from the service implementation,
// so the same path works for keeper and mock services.
func (s *Server) startVaultBroadcaster() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	knownPending := make(map[uint64]bool)
	var lastFeeClock int64
	var lastPreview *types.FeePreviewInfo
	first := true

	for range ticker.C {
		stats, err := s.vaultService.GetVaultStats()
		if err != nil {
			continue
		}
		state, err := s.vaultService.GetVaultState()
		if err != nil {
			continue
		}

		s.wsServer.BroadcastVaultState(&websocket.VaultUpdateMessage{
			AUM:                 stats.AUM,
			CustodyBalance:      stats.CustodyBalance,
			SharePrice:          stats.SharePrice,
			TotalShares:         stats.TotalShares,
			LockedShares:        stats.LockedShares,
			HighWaterMark:       stats.HighWaterMark,
			PendingRequestCount: stats.PendingRequestCount,
			Paused:              stats.Paused,
			DepositsEnabled:     state.DepositsEnabled,
			Timestamp:           time.Now().Unix(),
		})

		// Withdrawal lifecycle events from pending set changes
		pending, _, err := s.vaultService.GetPendingRequests(0, 0)
		if err == nil {
			current := make(map[uint64]bool, len(pending))
			for _, request := range pending {
				current[request.RequestID] = true
				if !first && !knownPending[request.RequestID] {
					s.wsServer.BroadcastRequestEvent(&websocket.RequestEventMessage{
						RequestID:        request.RequestID,
						Requester:        request.Requester,
						Event:            "requested",
						Shares:           request.Shares,
						SettlementAmount: request.SettlementAmount,
						AvailableAt:      request.AvailableAt,
						Timestamp:        time.Now().Unix(),
					})
				}
			}
			for id := range knownPending {
				if !current[id] {
					s.emitRequestResolution(id)
				}
			}
			knownPending = current
		}

		// Fee events from fee clock advances. The last preview before the
		// clock moved carries the amounts that were settled.
		if !first && state.LastFeeCollection > lastFeeClock {
			event := &websocket.FeeEventMessage{
				Collected:      true,
				ManagementFee:  "0",
				PerformanceFee: "0",
				HighWaterMark:  state.HighWaterMark,
				Timestamp:      time.Now().Unix(),
			}
			if lastPreview != nil {
				event.ManagementFee = lastPreview.ManagementFee
				event.PerformanceFee = lastPreview.PerformanceFee
			}
			s.wsServer.BroadcastFeeEvent(event)
		}
		lastFeeClock = state.LastFeeCollection
		if preview, err := s.vaultService.GetFeePreview(); err == nil {
			lastPreview = preview
		}

		first = false
	}
}

// emitRequestResolution reports how a request left the pending set. A request
// that is gone entirely was cancelled; one still readable moved to approved
// or claimed.
func (s *Server) emitRequestResolution(id uint64) {
	event := &websocket.RequestEventMessage{
		RequestID: id,
		Event:     "cancelled",
		Timestamp: time.Now().Unix(),
	}
	if request, err := s.vaultService.GetWithdrawalRequest(id); err == nil {
		event.Requester = request.Requester
		event.Shares = request.Shares
		event.SettlementAmount = request.SettlementAmount
		event.Event = request.Status
	}
	s.wsServer.BroadcastRequestEvent(event)
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": message,
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-User-Address")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// metricsMiddleware records request counts and latency per route
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		timer := metrics.NewTimer()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		metrics.GetCollector().RecordAPIRequest(r.Method, normalizePath(r.URL.Path), strconv.Itoa(rec.status), timer.ElapsedMs())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// normalizePath collapses path parameters so label cardinality stays bounded
func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/vault/requests/") && path != "/v1/vault/requests/pending":
		return "/v1/vault/requests/{id}"
	case strings.HasPrefix(path, "/v1/vault/users/"):
		return "/v1/vault/users/{address}"
	default:
		return path
	}
}
