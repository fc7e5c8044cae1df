// Package api exposes the scanner over HTTP.
package api

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"token-radar/internal/domain"
	"token-radar/internal/observability"
)

// Scanner is the pipeline surface served by the router.
type Scanner interface {
	RunScan(ctx context.Context) (*domain.ScanResult, error)
	Recall(ctx context.Context, limit int) (domain.RecallPage, error)
}

// FeedStatus reports the push-feed connection state. Optional.
type FeedStatus interface {
	State() string
	Len() int
}

// NewRouter builds the HTTP routes. feed may be nil.
func NewRouter(scanner Scanner, feed FeedStatus, logger *zap.Logger) *chi.Mux {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handler{scanner: scanner, feed: feed, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(Logging(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)
	r.Handle("/metrics", observability.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/scan", h.scan)
		r.Get("/recall", h.recall)
	})

	return r
}
