package v1

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/repolens/repolens/application/service"
	"github.com/repolens/repolens/infrastructure/api/middleware"
)

// QueueRouter exposes a read-only view of the pending task queue.
type QueueRouter struct {
	queue  *service.Queue
	logger *slog.Logger
}

// NewQueueRouter creates a new QueueRouter.
func NewQueueRouter(queue *service.Queue, logger *slog.Logger) *QueueRouter {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueueRouter{queue: queue, logger: logger}
}

// Routes returns the chi router for queue endpoints.
func (r *QueueRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.List)

	return router
}

// queueTask is the wire form of one pending task.
type queueTask struct {
	ID           int64     `json:"id"`
	Operation    string    `json:"operation"`
	Priority     int       `json:"priority"`
	RepositoryID int64     `json:"repository_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// queueListResponse wraps the pending task listing.
type queueListResponse struct {
	Data  []queueTask `json:"data"`
	Total int64       `json:"total"`
}

// List handles GET /api/v1/queue.
func (r *QueueRouter) List(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	limit := 50
	if limitStr := req.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	offset := 0
	if offsetStr := req.URL.Query().Get("offset"); offsetStr != "" {
		if parsed, err := strconv.Atoi(offsetStr); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	tasks, err := r.queue.List(ctx, limit, offset)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	total, err := r.queue.Count(ctx)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	data := make([]queueTask, len(tasks))
	for i, t := range tasks {
		entry := queueTask{
			ID:        t.ID(),
			Operation: t.Operation().String(),
			Priority:  t.Priority(),
			CreatedAt: t.CreatedAt(),
		}
		if repoID, ok := t.RepositoryID(); ok {
			entry.RepositoryID = repoID
		}
		data[i] = entry
	}

	middleware.WriteJSON(w, http.StatusOK, queueListResponse{Data: data, Total: total})
}
