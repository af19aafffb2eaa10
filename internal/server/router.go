package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sevigo/lot-vision/internal/core"
	"github.com/sevigo/lot-vision/internal/metrics"
	"github.com/sevigo/lot-vision/internal/server/handler"
	"github.com/sevigo/lot-vision/internal/signature"
	"github.com/sevigo/lot-vision/internal/storage"
	"github.com/sevigo/lot-vision/internal/tracker"
)

// NewRouter creates and configures a new HTTP router with middleware and API routes.
func NewRouter(
	signer *signature.Signer,
	processor core.Processor,
	dispatcher core.Dispatcher,
	tr *tracker.Tracker,
	store storage.Store,
	m *metrics.Metrics,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Configure middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	// Generous enough for the synchronous single-lot path, which calls the
	// vision model inline.
	r.Use(middleware.Timeout(5 * time.Minute))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Method(http.MethodGet, "/metrics", m.Handler())

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		generateHandler := handler.NewGenerateHandler(signer, processor, dispatcher, logger)
		statusHandler := handler.NewStatusHandler(tr, store, logger)

		r.With(requireJSON).Post("/generate-descriptions", generateHandler.Handle)
		r.Get("/batches/{batchID}", statusHandler.Handle)
	})

	return r
}
