package httpx

import (
	"log/slog"
	"net/http"

	"codequad/internal/app"
	"codequad/internal/services"
	"codequad/internal/ws"
	"codequad/pkg/metrics"
)

// NewRouter wires up all HTTP routes, middleware, and handlers
func NewRouter(cfg app.Config, logger *slog.Logger, hub *ws.Hub) http.Handler {
	mw := NewMiddleware(cfg)
	api := &ServicesAPI{
		Log:      logger,
		Review:   services.NewReviewClient(cfg.ReviewURL),
		Run:      services.NewRunClient(cfg.RunURL),
		Scaffold: services.NewScaffoldClient(cfg.ScaffoldURL),
	}

	mux := http.NewServeMux()

	// Health / readiness / metrics
	mux.Handle("/healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) }))
	mux.Handle("/readyz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) }))
	mux.Handle("/metrics", metrics.Handler())

	// WebSocket endpoint
	mux.Handle("/ws", http.HandlerFunc(hub.ServeWS))

	// External collaborator glue
	mux.Handle("POST /api/ai/review", http.HandlerFunc(api.GetReview))
	mux.Handle("GET /api/run/runtimes", http.HandlerFunc(api.Runtimes))
	mux.Handle("POST /api/run", http.HandlerFunc(api.RunCode))
	mux.Handle("POST /api/generate", http.HandlerFunc(api.GenerateAPI))

	// CORS + rate limit applied globally
	return mw.Wrap(mux)
}
