package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/skypro1111/voice-gateway/internal/call"
	"github.com/skypro1111/voice-gateway/internal/config"
	"github.com/skypro1111/voice-gateway/internal/metrics"
)

const (
	serviceName    = "voice-gateway"
	serviceVersion = "1.0.0"

	maxCallBodyBytes = 64 << 10
)

// CallInitiator places outbound calls
type CallInitiator interface {
	Initiate(ctx context.Context, req call.Request) (*call.Result, error)
}

// HTTPServer provides the call endpoint plus monitoring endpoints
type HTTPServer struct {
	server   *http.Server
	handler  http.Handler
	logger   *slog.Logger
	config   *config.Config
	calls    CallInitiator
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer

	startTime time.Time
}

// HTTPServerConfig contains HTTP server configuration
type HTTPServerConfig struct {
	Port    int
	Address string
}

// NewHTTPServer creates a new HTTP API server. gatherer backs /metrics;
// nil means prometheus.DefaultGatherer.
func NewHTTPServer(cfg HTTPServerConfig, logger *slog.Logger, appConfig *config.Config,
	calls CallInitiator, m *metrics.Metrics, gatherer prometheus.Gatherer) *HTTPServer {

	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	h := &HTTPServer{
		logger:    logger,
		config:    appConfig,
		calls:     calls,
		metrics:   m,
		gatherer:  gatherer,
		startTime: time.Now(),
	}

	mux := http.NewServeMux()
	h.setupRoutes(mux)
	h.handler = otelhttp.NewHandler(mux, serviceName)

	h.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Address, cfg.Port),
		Handler:      h.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second, // covers the provider round trip
		IdleTimeout:  60 * time.Second,
	}

	return h
}

// Handler returns the instrumented root handler
func (h *HTTPServer) Handler() http.Handler {
	return h.handler
}

// setupRoutes configures HTTP API routes
func (h *HTTPServer) setupRoutes(mux *http.ServeMux) {
	// Outbound call endpoint
	mux.HandleFunc("/api/makeCall", h.withMetrics("/api/makeCall", h.handleMakeCall))

	// Health check endpoint
	mux.HandleFunc("/health", h.withMetrics("/health", h.handleHealth))

	// Configuration endpoint
	mux.HandleFunc("/config", h.withMetrics("/config", h.handleConfig))

	// Prometheus metrics endpoint (no metrics needed for metrics endpoint)
	mux.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))

	// Root endpoint with API documentation
	mux.HandleFunc("/", h.withMetrics("/", h.handleRoot))
}

// withMetrics wraps an HTTP handler with metrics collection
func (h *HTTPServer) withMetrics(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		// Create a response writer wrapper to capture status code
		ww := &responseWriter{ResponseWriter: w, statusCode: 200}

		handler(ww, r)

		duration := time.Since(startTime).Seconds()
		statusCode := fmt.Sprintf("%d", ww.statusCode)

		h.metrics.RecordHTTPRequest(r.Method, endpoint, statusCode, duration)

		if ww.statusCode >= 400 {
			errorType := "client_error"
			if ww.statusCode >= 500 {
				errorType = "server_error"
			}
			h.metrics.RecordHTTPError(r.Method, endpoint, errorType)
		}
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Start starts the HTTP server
func (h *HTTPServer) Start() error {
	h.logger.Info("Starting HTTP API server",
		slog.String("address", h.server.Addr),
	)

	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.logger.Error("HTTP server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Stop gracefully stops the HTTP server
func (h *HTTPServer) Stop(ctx context.Context) error {
	h.logger.Info("Stopping HTTP API server...")

	return h.server.Shutdown(ctx)
}

// writeJSON writes v with the given status code
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// handleMakeCall implements the POST /api/makeCall endpoint
func (h *HTTPServer) handleMakeCall(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req call.Request
	body := io.LimitReader(r.Body, maxCallBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		h.logger.Warn("Invalid call request body", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	result, err := h.calls.Initiate(r.Context(), req)
	if err != nil {
		var validationErr *call.ValidationError
		if errors.As(err, &validationErr) {
			writeError(w, http.StatusBadRequest, validationErr.Error())
			return
		}

		// Provider messages are passed through unmodified
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleHealth implements the /health endpoint
func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	uptime := time.Since(h.startTime)

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"uptime":    uptime.String(),
		"service": map[string]interface{}{
			"name":    serviceName,
			"version": serviceVersion,
		},
		"components": map[string]interface{}{
			"call_service": map[string]interface{}{
				"status": "running",
			},
			"assistant": map[string]interface{}{
				"endpoint":        h.config.Assistant.Endpoint,
				"response_format": h.config.Assistant.ResponseFormat,
			},
		},
	}

	writeJSON(w, http.StatusOK, health)
}

// handleConfig implements the /config endpoint
func (h *HTTPServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	// Return sanitized configuration (remove sensitive data)
	sanitizedConfig := map[string]interface{}{
		"http": map[string]interface{}{
			"port":    h.config.HTTP.Port,
			"address": h.config.HTTP.Address,
		},
		"assistant": map[string]interface{}{
			"endpoint":        h.config.Assistant.Endpoint,
			"timeout":         h.config.Assistant.Timeout,
			"max_retries":     h.config.Assistant.MaxRetries,
			"response_format": h.config.Assistant.ResponseFormat,
			"field_name":      h.config.Assistant.FieldName,
			"audio_mime":      h.config.Assistant.AudioMIME,
			// Note: API key is intentionally omitted for security
		},
		"capture": map[string]interface{}{
			"source":       h.config.Capture.Source,
			"min_duration": h.config.Capture.MinDuration,
			"sample_rate":  h.config.Capture.SampleRate,
		},
		"audio": map[string]interface{}{
			"overflow": h.config.Audio.Overflow,
		},
		"call": map[string]interface{}{
			"escape_message": h.config.Call.EscapeMessage,
			// Note: Twilio credentials are intentionally omitted
		},
		"logging": map[string]interface{}{
			"level":  h.config.Logging.Level,
			"format": h.config.Logging.Format,
			"output": h.config.Logging.Output,
		},
	}

	writeJSON(w, http.StatusOK, sanitizedConfig)
}

// handleRoot implements the / endpoint with API documentation
func (h *HTTPServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	apiDoc := map[string]interface{}{
		"service": "Voice Gateway",
		"version": serviceVersion,
		"endpoints": map[string]interface{}{
			"GET /":              "API documentation",
			"POST /api/makeCall": "Place an outbound call that reads a message",
			"GET /health":        "Service health check",
			"GET /config":        "Get service configuration",
			"GET /metrics":       "Prometheus metrics",
		},
		"timestamp": time.Now().UTC(),
	}

	writeJSON(w, http.StatusOK, apiDoc)
}
