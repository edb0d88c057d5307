package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"splitsmart/internal/log"
	"splitsmart/internal/metrics"
	"splitsmart/internal/services"
)

// Options configures a Server.
type Options struct {
	// RateLimit is the number of write requests allowed per client IP per minute.
	RateLimit      int
	RequestTimeout time.Duration
	// Ready reports whether the storage and broker dependencies are reachable.
	Ready func(ctx context.Context) error
}

// Server exposes the trip service as a JSON API.
type Server struct {
	http.Server
	trips        *services.TripService
	logger       *log.Logger
	structured   *log.StructuredLogger
	metrics      *metrics.Metrics
	rateLimiter  *rateLimiter
	opts         Options
	shutdownOnce sync.Once
}

func NewServer(addr string, trips *services.TripService, logger *log.Logger, m *metrics.Metrics, opts Options) *Server {
	if opts.RateLimit <= 0 {
		opts.RateLimit = 60
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		trips:       trips,
		logger:      logger,
		structured:  log.NewStructuredLogger(logger),
		metrics:     m,
		rateLimiter: newRateLimiter(opts.RateLimit, time.Minute),
		opts:        opts,
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", m.Handler())

	s.route(mux, "POST /trips", s.handleCreateTrip)
	s.route(mux, "GET /trips", s.handleListTrips)
	s.route(mux, "GET /trips/{id}", s.handleGetTrip)
	s.route(mux, "PATCH /trips/{id}", s.handleUpdateTrip)
	s.route(mux, "DELETE /trips/{id}", s.handleDeleteTrip)
	s.route(mux, "POST /trips/{id}/members", s.handleInviteMember)
	s.route(mux, "POST /trips/{id}/current", s.handleSelectTrip)
	s.route(mux, "GET /current", s.handleCurrentTrip)

	s.route(mux, "POST /trips/{id}/expenses", s.handleAddExpense)
	s.route(mux, "PUT /trips/{id}/expenses/{expenseID}", s.handleUpdateExpense)
	s.route(mux, "DELETE /trips/{id}/expenses/{expenseID}", s.handleDeleteExpense)

	s.route(mux, "GET /trips/{id}/balances", s.handleBalances)
	s.route(mux, "GET /trips/{id}/settlements", s.handleSettlements)
	s.route(mux, "GET /trips/{id}/analytics", s.handleAnalytics)
	s.route(mux, "GET /trips/{id}/report", s.handleReport)

	return s
}

func (s *Server) route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.HandleFunc(pattern, s.withSecurityHeaders(pattern, h))
}

// Shutdown stops the rate limiter and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting, request logging
// and metrics to an API handler.
func (s *Server) withSecurityHeaders(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		reqLogger := s.logger.With("request_id", requestID, "client_ip", clientIP)
		ctx, cancel := context.WithTimeout(log.WithContext(r.Context(), reqLogger), s.opts.RequestTimeout)
		defer cancel()
		r = r.WithContext(ctx)

		if detectSuspiciousRequest(r) {
			reqLogger.WarnContext(ctx, "Suspicious request", "method", r.Method, "url", r.URL.Path, "user_agent", r.Header.Get("User-Agent"))
		}

		setSecurityHeaders(w.Header())
		w.Header().Set("X-Request-ID", requestID)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			reqLogger.WarnContext(ctx, "Rate limit exceeded", "method", r.Method, "url", r.URL.Path)
			rw.Header().Set("Retry-After", "60")
			writeJSON(rw, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded, please try again later"})
		} else {
			next(rw, r)
		}

		duration := time.Since(start)
		s.structured.LogHTTPEnd(ctx, r, rw.statusCode, duration.Milliseconds(), clientIP, requestID)
		s.metrics.HTTPRequest(r.Method, route, rw.statusCode, duration)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.opts.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.opts.Ready(ctx); err != nil {
			s.logger.WarnContext(ctx, "Readiness check failed", "error", err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
