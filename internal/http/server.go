// Package http exposes the JSON API over the record store and the
// persistence gateway. Handlers translate requests into store and
// gateway calls; no domain logic lives here.
package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"financeflow/internal/cache"
	"financeflow/internal/ledger"
	"financeflow/internal/log"
	"financeflow/internal/storage"
)

// Server wires the API routes over the record store and gateway. Read
// endpoints whose payloads are derived (dashboard, analytics) are cached
// with a short TTL; every mutation clears those caches.
type Server struct {
	http.Server
	store       *ledger.Ledger
	gateway     *storage.Gateway
	logger      *log.Logger
	rateLimiter *rateLimiter

	dashboardCache *cache.LRUCache[dashboardResponse]
	analyticsCache *cache.LRUCache[analyticsResponse]
	cacheManager   *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and caches, returning a ready-to-run server.
func NewServer(addr string, store *ledger.Ledger, gateway *storage.Gateway, logger *log.Logger, cacheTTL time.Duration) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	mux := http.NewServeMux()

	s := &Server{
		store:          store,
		gateway:        gateway,
		logger:         logger.WithComponent(log.ComponentHTTP),
		rateLimiter:    newRateLimiter(),
		dashboardCache: cache.NewLRUCache[dashboardResponse](16, cacheTTL),
		analyticsCache: cache.NewLRUCache[analyticsResponse](16, cacheTTL),
		cacheManager:   cache.NewManager(),
	}
	s.cacheManager.Register(s.dashboardCache)
	s.cacheManager.Register(s.analyticsCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	mux.HandleFunc("/api/dashboard", s.withCommon(s.handleDashboard))
	mux.HandleFunc("/api/analytics", s.withCommon(s.handleAnalytics))

	mux.HandleFunc("/api/transactions", s.withCommon(s.handleTransactions))
	mux.HandleFunc("/api/transactions/", s.withCommon(s.handleTransactionByID))

	mux.HandleFunc("/api/budgets", s.withCommon(s.handleBudgets))
	mux.HandleFunc("/api/budgets/", s.withCommon(s.handleBudgetByCategory))

	mux.HandleFunc("/api/settings", s.withCommon(s.handleSettings))
	mux.HandleFunc("/api/theme", s.withCommon(s.handleTheme))

	mux.HandleFunc("/api/export", s.withCommon(s.handleExport))
	mux.HandleFunc("/api/import", s.withCommon(s.handleImport))
	mux.HandleFunc("/api/backups", s.withCommon(s.handleBackups))
	mux.HandleFunc("/api/backups/", s.withCommon(s.handleBackupRestore))
	mux.HandleFunc("/api/storage", s.withCommon(s.handleStorageInfo))
	mux.HandleFunc("/api/data", s.withCommon(s.handleClearData))

	handler := log.Middleware(logger)(log.RequestLogger(logger, clientIP)(mux))
	s.Server = http.Server{
		Addr:    addr,
		Handler: handler,
	}

	return s
}

// withCommon applies rate limiting on mutating methods and standard
// response headers.
func (s *Server) withCommon(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP(r)) {
			s.logger.WarnContext(r.Context(), "Rate limit exceeded",
				log.FieldClientIP, clientIP(r), log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		next(w, r)
	}
}

// invalidateDerived drops cached dashboard and analytics payloads.
// Called after every mutation of the dataset.
func (s *Server) invalidateDerived() {
	s.dashboardCache.Clear()
	s.analyticsCache.Clear()
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		s.cacheManager.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.gateway.Info(r.Context()); err != nil {
		s.logger.ErrorContext(r.Context(), "Readiness check failed", log.FieldError, err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("storage unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// pathSuffix returns the path segment after prefix, or "" when absent.
func pathSuffix(r *http.Request, prefix string) string {
	return strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
}
