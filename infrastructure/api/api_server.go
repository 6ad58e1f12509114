package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/repolens/repolens/application/service"
	v1 "github.com/repolens/repolens/infrastructure/api/v1"
)

// APIServer exposes the application services over HTTP.
type APIServer struct {
	repositories *service.RepositoryService
	search       *service.Search
	queue        *service.Queue
	server       *Server
	logger       *slog.Logger
}

// NewAPIServer creates a new APIServer wired to the given services.
func NewAPIServer(
	repositories *service.RepositoryService,
	searchService *service.Search,
	queue *service.Queue,
	logger *slog.Logger,
) *APIServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIServer{
		repositories: repositories,
		search:       searchService,
		queue:        queue,
		logger:       logger,
	}
}

// mountRoutes wires up all v1 API routes on the given router.
func (a *APIServer) mountRoutes(router chi.Router) {
	reposRouter := v1.NewRepositoriesRouter(a.repositories, a.logger)
	searchRouter := v1.NewSearchRouter(a.search, a.logger)
	queueRouter := v1.NewQueueRouter(a.queue, a.logger)

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(60 * time.Second))

		r.Mount("/repositories", reposRouter.Routes())
		r.Mount("/search", searchRouter.Routes())
		r.Mount("/queue", queueRouter.Routes())
	})
}

// ListenAndServe starts the HTTP server on the given address.
func (a *APIServer) ListenAndServe(addr string) error {
	server := NewServer(addr, a.logger)
	a.server = &server

	a.mountRoutes(server.Router())

	return server.Start()
}

// Shutdown gracefully shuts down the server.
func (a *APIServer) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}

// Handler returns the mounted routes as an http.Handler for tests.
func (a *APIServer) Handler() http.Handler {
	router := chi.NewRouter()
	a.mountRoutes(router)
	return router
}
