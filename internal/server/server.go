// Package server is the HTTP boundary: multipart intake, status lookup, the
// admin surface, and the discovery retention endpoints. It parses and
// validates, then delegates to the core packages.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/nikkiricks/forgotten/internal/logging"
	"github.com/nikkiricks/forgotten/internal/retention"
	"github.com/nikkiricks/forgotten/internal/submit"
	"github.com/nikkiricks/forgotten/internal/tracking"
)

// Submitter runs a validated submission. Satisfied by *submit.Orchestrator.
type Submitter interface {
	Submit(ctx context.Context, req *submit.Request) ([]submit.Outcome, error)
}

// TrackingStore is the tracking surface the handlers need.
type TrackingStore interface {
	Create(platforms []string, estimatedDays int) (string, error)
	GetStatus(trackingNumber string) (*tracking.Record, error)
	UpdateStatus(trackingNumber string, status tracking.Status, message string) error
	UpdatePlatformStatus(trackingNumber, platform string, status tracking.Status, message string) error
	MigrateFromLegacy(legacy tracking.LegacyRecord) (string, error)
	FindByLegacyID(confirmationID string) (*tracking.Record, error)
}

// DiscoveryStore is the retention surface the handlers need.
type DiscoveryStore interface {
	Store(criteria retention.SearchCriteria, results []retention.RawProfile, legalBasis string) (string, error)
	Get(searchID string) (*retention.ResultSet, error)
	Delete(searchID, reason string) error
	GetStats() (*retention.Stats, error)
}

// Server wires the HTTP routes to the core packages.
type Server struct {
	submitter Submitter
	trackingS TrackingStore
	discovery DiscoveryStore
	log       *zap.SugaredLogger
}

// New builds a server over the given collaborators.
func New(submitter Submitter, trackingStore TrackingStore, discovery DiscoveryStore) *Server {
	return &Server{
		submitter: submitter,
		trackingS: trackingStore,
		discovery: discovery,
		log:       logging.Get(logging.CategoryServer),
	}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Minute))

	r.Route("/api", func(r chi.Router) {
		r.Post("/submissions", s.handleSubmit)

		r.Get("/status/{trackingNumber}", s.handleGetStatus)
		r.Get("/status/legacy/{confirmationID}", s.handleGetLegacyStatus)

		r.Route("/admin", func(r chi.Router) {
			r.Put("/status/{trackingNumber}", s.handleUpdateStatus)
			r.Put("/platform-status/{trackingNumber}/{platform}", s.handleUpdatePlatformStatus)
			r.Post("/migrate", s.handleMigrateLegacy)
			r.Get("/retention/stats", s.handleRetentionStats)
		})

		r.Route("/discovery", func(r chi.Router) {
			r.Post("/results", s.handleStoreDiscovery)
			r.Get("/results/{searchID}", s.handleGetDiscovery)
			r.Delete("/results/{searchID}", s.handleDeleteDiscovery)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Infow("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"requestId", middleware.GetReqID(r.Context()),
		)
	})
}
