// Package http is the JSON API surface. Authentication is a trusted
// X-User-ID header: the server sits behind a gateway that owns session
// verification.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"spendlog/internal/budget"
	"spendlog/internal/cache"
	"spendlog/internal/dashboard"
	"spendlog/internal/ledger"
	applog "spendlog/internal/log"
)

const userIDHeader = "X-User-ID"

type Server struct {
	http.Server
	ledger    *ledger.Service
	budgets   *budget.Engine
	dashboard *dashboard.Service
	logger    *applog.Logger

	dashCache   *cache.LRUCache[dashboard.Overview]
	rateLimiter *rateLimiter

	shutdownOnce sync.Once
}

// Options carries the tunables NewServer needs beyond its collaborators.
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CacheSize    int
	CacheTTL     time.Duration
}

// NewServer wires routes and middleware, returning a ready-to-run
// server. The dashboard cache is registered with mgr for periodic
// expiry cleanup.
func NewServer(opts Options, svc *ledger.Service, budgets *budget.Engine, dash *dashboard.Service, logger *applog.Logger, mgr *cache.Manager) *Server {
	mux := http.NewServeMux()

	if opts.CacheSize <= 0 {
		opts.CacheSize = 256
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 30 * time.Second
	}

	s := &Server{
		Server: http.Server{
			Addr:         opts.Addr,
			Handler:      mux,
			ReadTimeout:  opts.ReadTimeout,
			WriteTimeout: opts.WriteTimeout,
		},
		ledger:      svc,
		budgets:     budgets,
		dashboard:   dash,
		logger:      logger.WithComponent(applog.ComponentHTTP),
		dashCache:   cache.NewLRUCache[dashboard.Overview](opts.CacheSize, opts.CacheTTL),
		rateLimiter: newRateLimiter(),
	}
	if mgr != nil {
		mgr.Register(s.dashCache)
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/api/expenses", s.withMiddleware(s.handleExpenses))
	mux.HandleFunc("/api/expenses/", s.withMiddleware(s.handleExpenseByID))
	mux.HandleFunc("/api/budgets", s.withMiddleware(s.handleBudgets))
	mux.HandleFunc("/api/budgets/", s.withMiddleware(s.handleBudgetByCategory))
	mux.HandleFunc("/api/budgets/status", s.withMiddleware(s.handleBudgetStatus))
	mux.HandleFunc("/api/categories", s.withMiddleware(s.handleCategories))
	mux.HandleFunc("/api/dashboard", s.withMiddleware(s.handleDashboard))

	return s
}

// Shutdown stops the listener and the background cleanup goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withMiddleware authenticates the request, rate-limits writes, stamps
// a request id and logs completion with the response status.
func (s *Server) withMiddleware(next func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := generateRequestID()
		logger := s.logger.With(applog.FieldRequestID, requestID)
		ctx := context.WithValue(r.Context(), applog.LoggerContextKey, logger)
		r = r.WithContext(ctx)
		w.Header().Set("X-Request-ID", requestID)

		userID := r.Header.Get(userIDHeader)
		if userID == "" {
			writeError(w, http.StatusUnauthorized, "missing "+userIDHeader+" header")
			applog.LogHTTPEnd(ctx, logger, r, http.StatusUnauthorized, time.Since(start).Milliseconds())
			return
		}

		if r.Method != http.MethodGet && !s.rateLimiter.allow(userID) {
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			applog.LogHTTPEnd(ctx, logger, r, http.StatusTooManyRequests, time.Since(start).Milliseconds())
			return
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r, userID)

		applog.LogHTTPEnd(ctx, logger, r, rw.statusCode, time.Since(start).Milliseconds())
	}
}

// invalidateUser drops every cached view of one user after a write.
func (s *Server) invalidateUser(userID string) {
	s.dashCache.DeletePrefix(userID + ":")
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

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Simple per-user rate limiter for write requests.
type rateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for key, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, key)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		close(rl.stopCleanup)
	})
}

func (rl *rateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[key]

	if !exists {
		rl.clients[key] = &clientInfo{lastRequest: now, requests: 1}
		return true
	}

	// Counter resets after a quiet minute.
	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	// Up to 60 write requests per minute per user.
	client.requests++
	client.lastRequest = now

	return client.requests <= 60
}
