// Package v1 provides the v1 API routes.
package v1

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/repolens/repolens/application/service"
	"github.com/repolens/repolens/domain/enrichment"
	"github.com/repolens/repolens/domain/repository"
	"github.com/repolens/repolens/domain/snippet"
	"github.com/repolens/repolens/domain/task"
	"github.com/repolens/repolens/infrastructure/api/middleware"
	"github.com/repolens/repolens/infrastructure/api/v1/dto"
	"github.com/repolens/repolens/infrastructure/tracking"
)

// recentCommitLimit caps the commits inlined in the repository detail.
const recentCommitLimit = 10

// RepositoriesRouter handles repository API endpoints.
type RepositoriesRouter struct {
	repositories *service.RepositoryService
	logger       *slog.Logger
}

// NewRepositoriesRouter creates a new RepositoriesRouter.
func NewRepositoriesRouter(repositories *service.RepositoryService, logger *slog.Logger) *RepositoriesRouter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RepositoriesRouter{repositories: repositories, logger: logger}
}

// Routes returns the chi router for repository endpoints.
func (r *RepositoriesRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.List)
	router.Post("/", r.Create)
	router.Get("/{id}", r.Get)
	router.Delete("/{id}", r.Delete)
	router.Post("/{id}/sync", r.Sync)
	router.Get("/{id}/status", r.GetStatus)
	router.Get("/{id}/status/summary", r.GetStatusSummary)
	router.Get("/{id}/tags", r.ListTags)
	router.Get("/{id}/commits", r.ListCommits)
	router.Get("/{id}/commits/{commit_sha}", r.GetCommit)
	router.Get("/{id}/commits/{commit_sha}/files", r.ListCommitFiles)
	router.Get("/{id}/commits/{commit_sha}/files/{blob_sha}", r.GetCommitFile)
	router.Get("/{id}/commits/{commit_sha}/snippets", r.ListCommitSnippets)
	router.Get("/{id}/commits/{commit_sha}/enrichments", r.ListCommitEnrichments)

	return router
}

// Create handles POST /api/v1/repositories.
func (r *RepositoriesRouter) Create(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	var body dto.RepositoryCreateRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, fmt.Errorf("%w: %s", middleware.ErrBadRequest, err), r.logger)
		return
	}
	if body.RemoteURI == "" {
		middleware.WriteError(w, req, fmt.Errorf("%w: remote_uri is required", middleware.ErrBadRequest), r.logger)
		return
	}

	repo, err := r.repositories.Create(ctx, body.RemoteURI)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, dto.RepositoryResponse{Data: repoToDTO(repo)})
}

// List handles GET /api/v1/repositories.
func (r *RepositoriesRouter) List(w http.ResponseWriter, req *http.Request) {
	repos, err := r.repositories.List(req.Context())
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	data := make([]dto.Repository, len(repos))
	for i, repo := range repos {
		data[i] = repoToDTO(repo)
	}
	middleware.WriteJSON(w, http.StatusOK, dto.RepositoryListResponse{Data: data})
}

// Get handles GET /api/v1/repositories/{id}.
func (r *RepositoriesRouter) Get(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	id, err := pathID(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	repo, err := r.repositories.Get(ctx, id)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	branches, err := r.repositories.Branches(ctx, id)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	commits, err := r.repositories.Commits(ctx, id, recentCommitLimit)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	branchData := make([]dto.Branch, len(branches))
	for i, b := range branches {
		branchData[i] = dto.Branch{
			Name:          b.Name(),
			HeadCommitSHA: b.HeadCommitSHA(),
			IsDefault:     b.IsDefault(),
		}
	}
	commitData := make([]dto.Commit, len(commits))
	for i, c := range commits {
		commitData[i] = commitToDTO(c)
	}

	middleware.WriteJSON(w, http.StatusOK, dto.RepositoryDetailResponse{
		Data:          repoToDTO(repo),
		Branches:      branchData,
		RecentCommits: commitData,
	})
}

// Delete handles DELETE /api/v1/repositories/{id}. The cascade runs on the
// worker; the row disappears shortly after.
func (r *RepositoriesRouter) Delete(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	if err := r.repositories.RequestDelete(req.Context(), id); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Sync handles POST /api/v1/repositories/{id}/sync.
func (r *RepositoriesRouter) Sync(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	if err := r.repositories.Sync(req.Context(), id); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// GetStatus handles GET /api/v1/repositories/{id}/status.
func (r *RepositoriesRouter) GetStatus(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	statuses, err := r.repositories.Statuses(req.Context(), id)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	data := make([]dto.TaskStatus, len(statuses))
	for i, status := range statuses {
		data[i] = statusToDTO(status)
	}
	middleware.WriteJSON(w, http.StatusOK, dto.TaskStatusListResponse{Data: data})
}

// GetStatusSummary handles GET /api/v1/repositories/{id}/status/summary.
func (r *RepositoriesRouter) GetStatusSummary(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	statuses, err := r.repositories.Statuses(req.Context(), id)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	updatedAt := time.Time{}
	for _, status := range statuses {
		if status.UpdatedAt().After(updatedAt) {
			updatedAt = status.UpdatedAt()
		}
	}

	middleware.WriteJSON(w, http.StatusOK, dto.StatusSummaryResponse{
		Data: dto.StatusSummary{
			Status:    string(tracking.Summarize(statuses)),
			UpdatedAt: updatedAt,
		},
	})
}

// ListTags handles GET /api/v1/repositories/{id}/tags.
func (r *RepositoriesRouter) ListTags(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	tags, err := r.repositories.Tags(req.Context(), id)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	data := make([]dto.Tag, len(tags))
	for i, tag := range tags {
		data[i] = dto.Tag{
			ID:           tag.ID(),
			Name:         tag.Name(),
			CommitSHA:    tag.CommitSHA(),
			Message:      tag.Message(),
			IsVersionTag: tag.IsVersionTag(),
		}
	}
	middleware.WriteJSON(w, http.StatusOK, dto.TagListResponse{Data: data})
}

// ListCommits handles GET /api/v1/repositories/{id}/commits.
func (r *RepositoriesRouter) ListCommits(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	limit := 0
	if limitStr := req.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	commits, err := r.repositories.Commits(req.Context(), id, limit)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	data := make([]dto.Commit, len(commits))
	for i, c := range commits {
		data[i] = commitToDTO(c)
	}
	middleware.WriteJSON(w, http.StatusOK, dto.CommitListResponse{Data: data})
}

// GetCommit handles GET /api/v1/repositories/{id}/commits/{commit_sha}.
func (r *RepositoriesRouter) GetCommit(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	commitSHA := chi.URLParam(req, "commit_sha")

	commit, err := r.repositories.Commit(req.Context(), id, commitSHA)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, dto.CommitResponse{Data: commitToDTO(commit)})
}

// ListCommitFiles handles GET /api/v1/repositories/{id}/commits/{commit_sha}/files.
func (r *RepositoriesRouter) ListCommitFiles(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	commitSHA := chi.URLParam(req, "commit_sha")

	files, err := r.repositories.CommitFiles(req.Context(), id, commitSHA)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	data := make([]dto.File, len(files))
	for i, file := range files {
		data[i] = fileToDTO(file)
	}
	middleware.WriteJSON(w, http.StatusOK, dto.FileListResponse{Data: data})
}

// GetCommitFile handles GET /api/v1/repositories/{id}/commits/{commit_sha}/files/{blob_sha}.
func (r *RepositoriesRouter) GetCommitFile(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	commitSHA := chi.URLParam(req, "commit_sha")
	blobSHA := chi.URLParam(req, "blob_sha")

	file, err := r.repositories.CommitFile(req.Context(), id, commitSHA, blobSHA)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, dto.FileResponse{Data: fileToDTO(file)})
}

// ListCommitSnippets handles GET /api/v1/repositories/{id}/commits/{commit_sha}/snippets.
// Snippets carry their enrichments inline.
func (r *RepositoriesRouter) ListCommitSnippets(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	commitSHA := chi.URLParam(req, "commit_sha")

	snippets, enrichments, err := r.repositories.CommitSnippets(req.Context(), id, commitSHA)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	bySHA := make(map[string][]dto.Enrichment)
	for _, e := range enrichments {
		bySHA[e.TargetID()] = append(bySHA[e.TargetID()], enrichmentToDTO(e))
	}

	data := make([]dto.Snippet, len(snippets))
	for i, snip := range snippets {
		data[i] = snippetToDTO(snip, bySHA[snip.SHA()])
	}
	middleware.WriteJSON(w, http.StatusOK, dto.SnippetListResponse{Data: data})
}

// ListCommitEnrichments handles GET /api/v1/repositories/{id}/commits/{commit_sha}/enrichments.
func (r *RepositoriesRouter) ListCommitEnrichments(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	commitSHA := chi.URLParam(req, "commit_sha")

	enrichments, err := r.repositories.CommitEnrichments(req.Context(), id, commitSHA)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	data := make([]dto.Enrichment, len(enrichments))
	for i, e := range enrichments {
		data[i] = enrichmentToDTO(e)
	}
	middleware.WriteJSON(w, http.StatusOK, dto.EnrichmentListResponse{Data: data})
}

func pathID(req *http.Request) (int64, error) {
	idStr := chi.URLParam(req, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid repository id %q", middleware.ErrBadRequest, idStr)
	}
	return id, nil
}

func repoToDTO(repo repository.Repository) dto.Repository {
	out := dto.Repository{
		ID:                 repo.ID(),
		RemoteURI:          repo.RemoteURI(),
		SanitizedRemoteURI: repo.SanitizedRemoteURI(),
		LastIndexedAt:      repo.LastIndexedAt(),
		CreatedAt:          repo.CreatedAt(),
		UpdatedAt:          repo.UpdatedAt(),
	}
	if repo.HasWorkingCopy() {
		out.ClonedPath = repo.WorkingCopy().Path()
	}
	return out
}

func commitToDTO(c repository.Commit) dto.Commit {
	return dto.Commit{
		SHA:         c.SHA(),
		Message:     c.Message(),
		Author:      c.Author().Name(),
		AuthorEmail: c.Author().Email(),
		ParentSHA:   c.ParentSHA(),
		CommittedAt: c.CommittedAt(),
	}
}

func fileToDTO(f repository.File) dto.File {
	return dto.File{
		BlobSHA:   f.BlobSHA(),
		Path:      f.Path(),
		MimeType:  f.MimeType(),
		SizeBytes: f.SizeBytes(),
		Language:  f.Language(),
	}
}

func snippetToDTO(s snippet.Snippet, enrichments []dto.Enrichment) dto.Snippet {
	derivesFrom := make([]dto.File, len(s.DerivesFrom()))
	for i, file := range s.DerivesFrom() {
		derivesFrom[i] = fileToDTO(file)
	}
	if enrichments == nil {
		enrichments = []dto.Enrichment{}
	}
	return dto.Snippet{
		ID:          s.ID(),
		SHA:         s.SHA(),
		Name:        s.Name(),
		Language:    s.Language(),
		Content:     s.Content(),
		DerivesFrom: derivesFrom,
		Enrichments: enrichments,
		CreatedAt:   s.CreatedAt(),
	}
}

func enrichmentToDTO(e enrichment.Enrichment) dto.Enrichment {
	return dto.Enrichment{
		ID:        e.ID(),
		Kind:      string(e.Kind()),
		Content:   e.Content(),
		CreatedAt: e.CreatedAt(),
		UpdatedAt: e.UpdatedAt(),
	}
}

func statusToDTO(s task.Status) dto.TaskStatus {
	return dto.TaskStatus{
		ID:        s.ID(),
		Operation: string(s.Operation()),
		State:     string(s.State()),
		Message:   s.Message(),
		Error:     s.Error(),
		Total:     s.Total(),
		Current:   s.Current(),
		Progress:  s.CompletionPercent(),
		CreatedAt: s.CreatedAt(),
		UpdatedAt: s.UpdatedAt(),
	}
}
