// Package httpapi exposes the derived views over a read-only JSON API. It is
// the consumed-by boundary: handlers fetch a snapshot through the sync
// client, run the aggregation engine and hand the plain result structures to
// the encoder.
package httpapi

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"time"

	"budgetview/internal/settings"
	"budgetview/internal/sync"
)

// RefreshPublisher hands a refresh off to the background worker instead of
// running it in-request. Optional; without one refreshes are synchronous.
type RefreshPublisher interface {
	PublishRefreshRequest(ctx context.Context, budgetID string) error
}

type Server struct {
	svc       *sync.Service
	settings  *settings.Store
	publisher RefreshPublisher
	now       func() time.Time

	caches viewCaches
}

func NewServer(addr string, svc *sync.Service, settingsStore *settings.Store, publisher RefreshPublisher) *http.Server {
	s := newServer(svc, settingsStore, publisher)
	return &http.Server{
		Addr:    addr,
		Handler: requestLogging(s.routes()),
	}
}

func newServer(svc *sync.Service, settingsStore *settings.Store, publisher RefreshPublisher) *Server {
	return &Server{
		svc:       svc,
		settings:  settingsStore,
		publisher: publisher,
		now:       time.Now,
	}
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /budgets", s.handleListBudgets)
	mux.HandleFunc("POST /budgets/{id}/refresh", s.handleRefreshBudget)
	mux.HandleFunc("GET /budgets/{id}/category-groups", s.handleCategoryGroups)
	mux.HandleFunc("GET /budgets/{id}/months", s.handleMonths)
	mux.HandleFunc("GET /budgets/{id}/payees", s.handlePayees)
	mux.HandleFunc("GET /budgets/{id}/breakdown", s.handleBreakdown)
	mux.HandleFunc("GET /budgets/{id}/net-worth", s.handleNetWorth)
	mux.HandleFunc("GET /budgets/{id}/income", s.handleIncome)
	mux.HandleFunc("PUT /budgets/{id}/settings/accounts", s.handleUpdateAccountSets)
	return mux
}

// requestLogging wraps handlers with a request id and structured start/finish
// log lines.
func requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := generateRequestID()

		slog.InfoContext(r.Context(), "HTTP request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"query", r.URL.RawQuery)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		slog.InfoContext(r.Context(), "HTTP request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(b)
}
