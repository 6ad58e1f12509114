package persistence

import (
	"context"
	"fmt"

	"github.com/repolens/repolens/domain/repository"
	"github.com/repolens/repolens/domain/snippet"
	"github.com/repolens/repolens/internal/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SnippetStore implements snippet.Store on GORM. Snippets are
// content-addressed: SaveAll collapses identical fragments onto one row and
// accumulates derivation links, and unlinking garbage collects rows that no
// commit derives any more.
type SnippetStore struct {
	db   database.Database
	repo database.Repository[snippet.Snippet, SnippetModel]
}

// NewSnippetStore creates a new SnippetStore.
func NewSnippetStore(db database.Database) *SnippetStore {
	return &SnippetStore{
		db:   db,
		repo: database.NewRepository[snippet.Snippet, SnippetModel](db, SnippetMapper{}, "snippet"),
	}
}

// Get retrieves a snippet by ID with its derivation files attached.
func (s *SnippetStore) Get(ctx context.Context, id int64) (snippet.Snippet, error) {
	found, err := s.repo.FindOne(ctx, repository.WithID(id))
	if err != nil {
		return snippet.Snippet{}, err
	}
	return s.attachDerivations(ctx, []snippet.Snippet{found}, "")
}

// GetBySHA retrieves a snippet by content SHA with its derivation files
// attached.
func (s *SnippetStore) GetBySHA(ctx context.Context, sha string) (snippet.Snippet, error) {
	found, err := s.repo.FindOne(ctx, repository.WithSHA(sha))
	if err != nil {
		return snippet.Snippet{}, err
	}
	return s.attachDerivations(ctx, []snippet.Snippet{found}, "")
}

// Find retrieves snippets matching the given options, without derivation
// files.
func (s *SnippetStore) Find(ctx context.Context, options ...repository.Option) ([]snippet.Snippet, error) {
	return s.repo.Find(ctx, options...)
}

// FindWithFiles retrieves snippets by ID with their derivation files
// attached across all commits.
func (s *SnippetStore) FindWithFiles(ctx context.Context, ids []int64) ([]snippet.Snippet, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	found, err := s.repo.Find(ctx, repository.WithIDIn(ids))
	if err != nil {
		return nil, err
	}
	return s.attachDerivationsAll(ctx, found, "")
}

// AuthorsBySnippetIDs returns the distinct commit author names behind each
// snippet, resolved through its derivation links.
func (s *SnippetStore) AuthorsBySnippetIDs(ctx context.Context, snippetIDs []int64) (map[int64][]string, error) {
	if len(snippetIDs) == 0 {
		return nil, nil
	}

	var rows []struct {
		SnippetID  int64
		AuthorName string
	}
	err := s.repo.DB(ctx).Model(&SnippetDerivationModel{}).
		Distinct("snippet_derivations.snippet_id, commits.author_name").
		Joins("JOIN commits ON commits.sha = snippet_derivations.commit_sha").
		Where("snippet_derivations.snippet_id IN ?", snippetIDs).
		Order("snippet_derivations.snippet_id ASC, commits.author_name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load snippet authors: %w", err)
	}

	authors := make(map[int64][]string, len(rows))
	for _, row := range rows {
		if row.AuthorName == "" {
			continue
		}
		authors[row.SnippetID] = append(authors[row.SnippetID], row.AuthorName)
	}
	return authors, nil
}

// FindByCommitSHA retrieves the snippets derived from a commit, with the
// derivation files for that commit attached.
func (s *SnippetStore) FindByCommitSHA(ctx context.Context, commitSHA string) ([]snippet.Snippet, error) {
	var models []SnippetModel
	err := s.repo.DB(ctx).
		Distinct("snippets.*").
		Joins("JOIN snippet_derivations ON snippet_derivations.snippet_id = snippets.id").
		Where("snippet_derivations.commit_sha = ?", commitSHA).
		Order("snippets.id ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("find snippets for commit: %w", err)
	}

	snippets := make([]snippet.Snippet, len(models))
	for i, model := range models {
		snippets[i] = s.repo.Mapper().ToDomain(model)
	}
	return s.attachDerivationsAll(ctx, snippets, commitSHA)
}

// SaveAll upserts snippets by content SHA and records derivation links for
// the commit. Existing rows are kept, so re-indexing a commit or meeting
// the same fragment in another file only accumulates links.
func (s *SnippetStore) SaveAll(ctx context.Context, commitSHA string, snippets []snippet.Snippet) ([]snippet.Snippet, error) {
	if len(snippets) == 0 {
		return nil, nil
	}

	models := make([]SnippetModel, len(snippets))
	for i, snip := range snippets {
		models[i] = s.repo.Mapper().ToModel(snip)
	}

	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "sha"}},
			DoNothing: true,
		}).Create(&models)
		if result.Error != nil {
			return fmt.Errorf("save snippets: %w", result.Error)
		}

		// Conflicting rows keep their original IDs, so map SHAs back.
		shas := make([]string, len(snippets))
		for i, snip := range snippets {
			shas[i] = snip.SHA()
		}
		var rows []SnippetModel
		if err := tx.Where("sha IN ?", shas).Find(&rows).Error; err != nil {
			return fmt.Errorf("load saved snippets: %w", err)
		}
		idsBySHA := make(map[string]int64, len(rows))
		for _, row := range rows {
			idsBySHA[row.SHA] = row.ID
		}

		var links []SnippetDerivationModel
		for i, snip := range snippets {
			id, ok := idsBySHA[snip.SHA()]
			if !ok {
				return fmt.Errorf("snippet %s not persisted", snip.SHA())
			}
			snippets[i] = snip.WithID(id)
			for _, file := range snip.DerivesFrom() {
				links = append(links, SnippetDerivationModel{
					SnippetID: id,
					FileID:    file.ID(),
					CommitSHA: commitSHA,
				})
			}
		}
		if len(links) == 0 {
			return nil
		}

		result = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "snippet_id"}, {Name: "file_id"}, {Name: "commit_sha"}},
			DoNothing: true,
		}).Create(&links)
		if result.Error != nil {
			return fmt.Errorf("save snippet derivations: %w", result.Error)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snippets, nil
}

// UnlinkCommit removes derivation links for a commit and garbage collects
// snippets left with no derivations. Returns the IDs of the deleted
// snippets so callers can purge search indexes.
func (s *SnippetStore) UnlinkCommit(ctx context.Context, commitSHA string) ([]int64, error) {
	return database.WithTransactionResult(ctx, s.db, func(tx *gorm.DB) ([]int64, error) {
		var affected []int64
		err := tx.Model(&SnippetDerivationModel{}).
			Distinct("snippet_id").
			Where("commit_sha = ?", commitSHA).
			Pluck("snippet_id", &affected).Error
		if err != nil {
			return nil, fmt.Errorf("list derivations for commit: %w", err)
		}
		if len(affected) == 0 {
			return nil, nil
		}

		err = tx.Where("commit_sha = ?", commitSHA).
			Delete(&SnippetDerivationModel{}).Error
		if err != nil {
			return nil, fmt.Errorf("delete derivations for commit: %w", err)
		}

		return s.collectOrphans(tx, affected)
	})
}

// DeleteByRepositoryID removes derivation links through the repository's
// files and garbage collects orphaned snippets. Snippets also derived from
// another repository survive. Returns the IDs of the deleted snippets.
func (s *SnippetStore) DeleteByRepositoryID(ctx context.Context, repositoryID int64) ([]int64, error) {
	return database.WithTransactionResult(ctx, s.db, func(tx *gorm.DB) ([]int64, error) {
		fileIDs := tx.Model(&FileModel{}).Select("id").Where("repository_id = ?", repositoryID)

		var affected []int64
		err := tx.Model(&SnippetDerivationModel{}).
			Distinct("snippet_id").
			Where("file_id IN (?)", fileIDs).
			Pluck("snippet_id", &affected).Error
		if err != nil {
			return nil, fmt.Errorf("list derivations for repository: %w", err)
		}
		if len(affected) == 0 {
			return nil, nil
		}

		err = tx.Where("file_id IN (?)", fileIDs).
			Delete(&SnippetDerivationModel{}).Error
		if err != nil {
			return nil, fmt.Errorf("delete derivations for repository: %w", err)
		}

		return s.collectOrphans(tx, affected)
	})
}

// collectOrphans deletes snippets from the affected set that no derivation
// references any more, together with their phase states.
func (s *SnippetStore) collectOrphans(tx *gorm.DB, affected []int64) ([]int64, error) {
	var remaining []int64
	err := tx.Model(&SnippetDerivationModel{}).
		Distinct("snippet_id").
		Where("snippet_id IN ?", affected).
		Pluck("snippet_id", &remaining).Error
	if err != nil {
		return nil, fmt.Errorf("list remaining derivations: %w", err)
	}

	stillLinked := make(map[int64]bool, len(remaining))
	for _, id := range remaining {
		stillLinked[id] = true
	}

	var orphans []int64
	for _, id := range affected {
		if !stillLinked[id] {
			orphans = append(orphans, id)
		}
	}
	if len(orphans) == 0 {
		return nil, nil
	}

	if err := tx.Where("snippet_id IN ?", orphans).Delete(&SnippetStateModel{}).Error; err != nil {
		return nil, fmt.Errorf("delete snippet states: %w", err)
	}
	if err := tx.Where("id IN ?", orphans).Delete(&SnippetModel{}).Error; err != nil {
		return nil, fmt.Errorf("delete snippets: %w", err)
	}
	return orphans, nil
}

// attachDerivations loads derivation files for a single snippet. An empty
// commitSHA loads links across all commits.
func (s *SnippetStore) attachDerivations(ctx context.Context, snippets []snippet.Snippet, commitSHA string) (snippet.Snippet, error) {
	loaded, err := s.attachDerivationsAll(ctx, snippets, commitSHA)
	if err != nil {
		return snippet.Snippet{}, err
	}
	return loaded[0], nil
}

func (s *SnippetStore) attachDerivationsAll(ctx context.Context, snippets []snippet.Snippet, commitSHA string) ([]snippet.Snippet, error) {
	if len(snippets) == 0 {
		return snippets, nil
	}

	ids := make([]int64, len(snippets))
	for i, snip := range snippets {
		ids[i] = snip.ID()
	}

	query := s.repo.DB(ctx).Model(&SnippetDerivationModel{}).Where("snippet_id IN ?", ids)
	if commitSHA != "" {
		query = query.Where("commit_sha = ?", commitSHA)
	}
	var links []SnippetDerivationModel
	if err := query.Find(&links).Error; err != nil {
		return nil, fmt.Errorf("load snippet derivations: %w", err)
	}
	if len(links) == 0 {
		return snippets, nil
	}

	fileIDSet := make(map[int64]bool)
	for _, link := range links {
		fileIDSet[link.FileID] = true
	}
	fileIDs := make([]int64, 0, len(fileIDSet))
	for id := range fileIDSet {
		fileIDs = append(fileIDs, id)
	}

	var fileModels []FileModel
	if err := s.repo.DB(ctx).Where("id IN ?", fileIDs).Find(&fileModels).Error; err != nil {
		return nil, fmt.Errorf("load derivation files: %w", err)
	}
	mapper := FileMapper{}
	filesByID := make(map[int64]repository.File, len(fileModels))
	for _, model := range fileModels {
		filesByID[model.ID] = mapper.ToDomain(model)
	}

	filesBySnippet := make(map[int64][]repository.File)
	for _, link := range links {
		if file, ok := filesByID[link.FileID]; ok {
			filesBySnippet[link.SnippetID] = append(filesBySnippet[link.SnippetID], file)
		}
	}

	for i, snip := range snippets {
		if files := filesBySnippet[snip.ID()]; len(files) > 0 {
			snippets[i] = snip.WithDerivesFrom(files)
		}
	}
	return snippets, nil
}
