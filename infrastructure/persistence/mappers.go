package persistence

import (
	"encoding/json"

	"github.com/repolens/repolens/domain/enrichment"
	"github.com/repolens/repolens/domain/repository"
	"github.com/repolens/repolens/domain/snippet"
	"github.com/repolens/repolens/domain/task"
)

// RepositoryMapper maps between repository.Repository and RepositoryModel.
type RepositoryMapper struct{}

// ToDomain converts a model to a domain Repository.
func (RepositoryMapper) ToDomain(m RepositoryModel) repository.Repository {
	var wc repository.WorkingCopy
	if m.ClonedPath != nil {
		wc = repository.NewWorkingCopy(*m.ClonedPath)
	}
	return repository.ReconstructRepository(
		m.ID,
		m.RemoteURI,
		m.SanitizedRemoteURI,
		wc,
		m.LastIndexedAt,
		m.CreatedAt,
		m.UpdatedAt,
	)
}

// ToModel converts a domain Repository to a model.
func (RepositoryMapper) ToModel(r repository.Repository) RepositoryModel {
	var clonedPath *string
	if r.HasWorkingCopy() {
		path := r.WorkingCopy().Path()
		clonedPath = &path
	}
	return RepositoryModel{
		ID:                 r.ID(),
		RemoteURI:          r.RemoteURI(),
		SanitizedRemoteURI: r.SanitizedRemoteURI(),
		ClonedPath:         clonedPath,
		LastIndexedAt:      r.LastIndexedAt(),
		CreatedAt:          r.CreatedAt(),
		UpdatedAt:          r.UpdatedAt(),
	}
}

// CommitMapper maps between repository.Commit and CommitModel.
type CommitMapper struct{}

// ToDomain converts a model to a domain Commit.
func (CommitMapper) ToDomain(m CommitModel) repository.Commit {
	var parentSHA string
	if m.ParentSHA != nil {
		parentSHA = *m.ParentSHA
	}
	return repository.ReconstructCommit(
		m.ID,
		m.SHA,
		m.RepositoryID,
		m.Message,
		repository.NewAuthor(m.AuthorName, m.AuthorEmail),
		repository.NewAuthor(m.CommitterName, m.CommitterEmail),
		m.AuthoredAt,
		m.CommittedAt,
		parentSHA,
		m.CreatedAt,
	)
}

// ToModel converts a domain Commit to a model.
func (CommitMapper) ToModel(c repository.Commit) CommitModel {
	var parentSHA *string
	if c.ParentSHA() != "" {
		sha := c.ParentSHA()
		parentSHA = &sha
	}
	return CommitModel{
		ID:             c.ID(),
		SHA:            c.SHA(),
		RepositoryID:   c.RepositoryID(),
		Message:        c.Message(),
		AuthorName:     c.Author().Name(),
		AuthorEmail:    c.Author().Email(),
		CommitterName:  c.Committer().Name(),
		CommitterEmail: c.Committer().Email(),
		AuthoredAt:     c.AuthoredAt(),
		CommittedAt:    c.CommittedAt(),
		ParentSHA:      parentSHA,
		CreatedAt:      c.CreatedAt(),
	}
}

// BranchMapper maps between repository.Branch and BranchModel.
type BranchMapper struct{}

// ToDomain converts a model to a domain Branch.
func (BranchMapper) ToDomain(m BranchModel) repository.Branch {
	return repository.ReconstructBranch(
		m.ID,
		m.RepositoryID,
		m.Name,
		m.HeadCommitSHA,
		m.IsDefault,
		m.CreatedAt,
		m.UpdatedAt,
	)
}

// ToModel converts a domain Branch to a model.
func (BranchMapper) ToModel(b repository.Branch) BranchModel {
	return BranchModel{
		ID:            b.ID(),
		RepositoryID:  b.RepositoryID(),
		Name:          b.Name(),
		HeadCommitSHA: b.HeadCommitSHA(),
		IsDefault:     b.IsDefault(),
		CreatedAt:     b.CreatedAt(),
		UpdatedAt:     b.UpdatedAt(),
	}
}

// TagMapper maps between repository.Tag and TagModel.
type TagMapper struct{}

// ToDomain converts a model to a domain Tag.
func (TagMapper) ToDomain(m TagModel) repository.Tag {
	var message string
	if m.Message != nil {
		message = *m.Message
	}
	return repository.ReconstructTag(
		m.ID,
		m.RepositoryID,
		m.Name,
		m.CommitSHA,
		message,
		m.CreatedAt,
	)
}

// ToModel converts a domain Tag to a model.
func (TagMapper) ToModel(t repository.Tag) TagModel {
	var message *string
	if t.Message() != "" {
		msg := t.Message()
		message = &msg
	}
	return TagModel{
		ID:           t.ID(),
		RepositoryID: t.RepositoryID(),
		Name:         t.Name(),
		CommitSHA:    t.CommitSHA(),
		Message:      message,
		CreatedAt:    t.CreatedAt(),
	}
}

// FileMapper maps between repository.File and FileModel.
type FileMapper struct{}

// ToDomain converts a model to a domain File.
func (FileMapper) ToDomain(m FileModel) repository.File {
	return repository.ReconstructFile(
		m.ID,
		m.RepositoryID,
		m.BlobSHA,
		m.Path,
		m.MimeType,
		m.SizeBytes,
		m.Language,
		m.CreatedAt,
	)
}

// ToModel converts a domain File to a model.
func (FileMapper) ToModel(f repository.File) FileModel {
	return FileModel{
		ID:           f.ID(),
		RepositoryID: f.RepositoryID(),
		BlobSHA:      f.BlobSHA(),
		Path:         f.Path(),
		MimeType:     f.MimeType(),
		SizeBytes:    f.SizeBytes(),
		Language:     f.Language(),
		CreatedAt:    f.CreatedAt(),
	}
}

// SnippetMapper maps between snippet.Snippet and SnippetModel. Derivation
// links are loaded and attached separately by the store.
type SnippetMapper struct{}

// ToDomain converts a model to a domain Snippet without derivations.
func (SnippetMapper) ToDomain(m SnippetModel) snippet.Snippet {
	return snippet.ReconstructSnippet(
		m.ID,
		m.SHA,
		m.Content,
		m.Language,
		m.Name,
		nil,
		m.CreatedAt,
		m.UpdatedAt,
	)
}

// ToModel converts a domain Snippet to a model.
func (SnippetMapper) ToModel(s snippet.Snippet) SnippetModel {
	return SnippetModel{
		ID:        s.ID(),
		SHA:       s.SHA(),
		Content:   s.Content(),
		Language:  s.Language(),
		Name:      s.Name(),
		CreatedAt: s.CreatedAt(),
		UpdatedAt: s.UpdatedAt(),
	}
}

// SnippetStateMapper maps between snippet.State and SnippetStateModel.
type SnippetStateMapper struct{}

// ToDomain converts a model to a domain State.
func (SnippetStateMapper) ToDomain(m SnippetStateModel) snippet.State {
	return snippet.ReconstructState(
		m.SnippetID,
		snippet.Phase(m.Phase),
		snippet.StateValue(m.State),
		m.UpdatedAt,
	)
}

// ToModel converts a domain State to a model.
func (SnippetStateMapper) ToModel(s snippet.State) SnippetStateModel {
	return SnippetStateModel{
		SnippetID: s.SnippetID(),
		Phase:     string(s.Phase()),
		State:     string(s.Value()),
		UpdatedAt: s.UpdatedAt(),
	}
}

// EnrichmentMapper maps between enrichment.Enrichment and EnrichmentModel.
type EnrichmentMapper struct{}

// ToDomain converts a model to a domain Enrichment.
func (EnrichmentMapper) ToDomain(m EnrichmentModel) enrichment.Enrichment {
	return enrichment.ReconstructEnrichment(
		m.ID,
		enrichment.Kind(m.Kind),
		enrichment.TargetType(m.TargetType),
		m.TargetID,
		m.Content,
		m.Language,
		m.CreatedAt,
		m.UpdatedAt,
	)
}

// ToModel converts a domain Enrichment to a model.
func (EnrichmentMapper) ToModel(e enrichment.Enrichment) EnrichmentModel {
	return EnrichmentModel{
		ID:         e.ID(),
		Kind:       string(e.Kind()),
		TargetType: string(e.TargetType()),
		TargetID:   e.TargetID(),
		Content:    e.Content(),
		Language:   e.Language(),
		CreatedAt:  e.CreatedAt(),
		UpdatedAt:  e.UpdatedAt(),
	}
}

// TaskMapper maps between task.Task and TaskModel.
type TaskMapper struct{}

// ToDomain converts a model to a domain Task.
func (TaskMapper) ToDomain(m TaskModel) task.Task {
	payload := map[string]any{}
	if len(m.Payload) > 0 {
		// Corrupt payloads yield an empty map rather than a scan failure.
		_ = json.Unmarshal(m.Payload, &payload)
	}
	return task.ReconstructTask(
		m.ID,
		m.DedupKey,
		task.Operation(m.Operation),
		m.Priority,
		payload,
		m.CreatedAt,
		m.UpdatedAt,
	)
}

// ToModel converts a domain Task to a model.
func (TaskMapper) ToModel(t task.Task) TaskModel {
	payload, err := t.PayloadJSON()
	if err != nil {
		payload = []byte("{}")
	}
	return TaskModel{
		ID:        t.ID(),
		DedupKey:  t.DedupKey(),
		Operation: string(t.Operation()),
		Payload:   payload,
		Priority:  t.Priority(),
		CreatedAt: t.CreatedAt(),
		UpdatedAt: t.UpdatedAt(),
	}
}

// TaskStatusMapper maps between task.Status and TaskStatusModel. Parent
// links are reconstructed separately by the store.
type TaskStatusMapper struct{}

// ToDomain converts a model to a domain Status without its parent.
func (TaskStatusMapper) ToDomain(m TaskStatusModel) task.Status {
	var trackableID int64
	if m.TrackableID != nil {
		trackableID = *m.TrackableID
	}
	var trackableType task.TrackableType
	if m.TrackableType != nil {
		trackableType = task.TrackableType(*m.TrackableType)
	}
	return task.ReconstructStatus(
		m.ID,
		task.ReportingState(m.State),
		task.Operation(m.Operation),
		m.Message,
		m.CreatedAt,
		m.UpdatedAt,
		m.Total,
		m.Current,
		m.Error,
		nil,
		trackableID,
		trackableType,
	)
}

// ToModel converts a domain Status to a model.
func (TaskStatusMapper) ToModel(s task.Status) TaskStatusModel {
	var trackableID *int64
	if s.TrackableID() != 0 {
		id := s.TrackableID()
		trackableID = &id
	}
	var trackableType *string
	if s.TrackableType() != "" {
		t := string(s.TrackableType())
		trackableType = &t
	}
	var parentID *string
	if s.Parent() != nil {
		id := s.Parent().ID()
		parentID = &id
	}
	return TaskStatusModel{
		ID:            s.ID(),
		Operation:     string(s.Operation()),
		TrackableID:   trackableID,
		TrackableType: trackableType,
		ParentID:      parentID,
		State:         string(s.State()),
		Message:       s.Message(),
		Error:         s.Error(),
		Total:         s.Total(),
		Current:       s.Current(),
		CreatedAt:     s.CreatedAt(),
		UpdatedAt:     s.UpdatedAt(),
	}
}
