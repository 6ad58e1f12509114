package git

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"

	"github.com/repolens/repolens/domain/repository"
	"github.com/src-d/enry/v2"
)

// maxClassifySize caps how much of a blob is read for language detection.
const maxClassifySize = 16 * 1024

// Scanner extracts repository metadata from a working copy without
// mutating it. Language and binary detection use enry's classifier on the
// file name plus a content sample.
type Scanner struct {
	adapter Adapter
	logger  *slog.Logger
}

// NewScanner creates a new Scanner.
func NewScanner(adapter Adapter, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{adapter: adapter, logger: logger}
}

// ScanBranches returns all branches of the working copy as domain objects.
func (s *Scanner) ScanBranches(ctx context.Context, clonePath string, repositoryID int64) ([]repository.Branch, error) {
	infos, err := s.adapter.AllBranches(ctx, clonePath)
	if err != nil {
		return nil, fmt.Errorf("scan branches: %w", err)
	}

	branches := make([]repository.Branch, 0, len(infos))
	for _, info := range infos {
		branches = append(branches, repository.NewBranch(repositoryID, info.Name, info.HeadSHA, info.IsDefault))
	}
	s.logger.Debug("scanned branches", slog.Int("count", len(branches)))
	return branches, nil
}

// ScanTags returns all tags of the working copy as domain objects.
func (s *Scanner) ScanTags(ctx context.Context, clonePath string, repositoryID int64) ([]repository.Tag, error) {
	infos, err := s.adapter.AllTags(ctx, clonePath)
	if err != nil {
		return nil, fmt.Errorf("scan tags: %w", err)
	}

	tags := make([]repository.Tag, 0, len(infos))
	for _, info := range infos {
		tags = append(tags, repository.NewTag(repositoryID, info.Name, info.TargetCommitSHA, info.Message))
	}
	s.logger.Debug("scanned tags", slog.Int("count", len(tags)))
	return tags, nil
}

// ScanDefaultBranchCommits returns the commit history of the default
// branch, newest first, along with the branch name.
func (s *Scanner) ScanDefaultBranchCommits(ctx context.Context, clonePath string, repositoryID int64) (string, []repository.Commit, error) {
	branchName, err := s.adapter.DefaultBranch(ctx, clonePath)
	if err != nil {
		return "", nil, fmt.Errorf("detect default branch: %w", err)
	}

	infos, err := s.adapter.BranchCommits(ctx, clonePath, branchName)
	if err != nil {
		return "", nil, fmt.Errorf("scan commits: %w", err)
	}

	commits := make([]repository.Commit, 0, len(infos))
	for _, info := range infos {
		commits = append(commits, commitFromInfo(info, repositoryID))
	}

	s.logger.Debug("scanned default branch",
		slog.String("branch", branchName),
		slog.Int("commits", len(commits)),
	)
	return branchName, commits, nil
}

// ScanCommitFiles lists the files of a commit as domain objects,
// classifying each by language and MIME type. Vendored paths and binary
// blobs are skipped: they never produce useful snippets.
func (s *Scanner) ScanCommitFiles(ctx context.Context, clonePath, commitSHA string, repositoryID int64) ([]repository.File, error) {
	infos, err := s.adapter.CommitFiles(ctx, clonePath, commitSHA)
	if err != nil {
		return nil, fmt.Errorf("scan commit files: %w", err)
	}

	files := make([]repository.File, 0, len(infos))
	for _, info := range infos {
		if enry.IsVendor(info.Path) {
			continue
		}

		sample, err := s.contentSample(ctx, clonePath, commitSHA, info)
		if err != nil {
			s.logger.Debug("skipping unreadable blob",
				slog.String("path", info.Path),
				slog.String("error", err.Error()),
			)
			continue
		}
		if enry.IsBinary(sample) {
			continue
		}

		language := strings.ToLower(enry.GetLanguage(filepath.Base(info.Path), sample))
		files = append(files, repository.NewFile(
			repositoryID,
			info.BlobSHA,
			info.Path,
			mimeTypeForPath(info.Path),
			info.Size,
			language,
		))
	}
	return files, nil
}

// FileContent reads a file's content at a commit.
func (s *Scanner) FileContent(ctx context.Context, clonePath, commitSHA, filePath string) ([]byte, error) {
	return s.adapter.FileContent(ctx, clonePath, commitSHA, filePath)
}

// CommitDiff returns the unified diff of a commit against its first parent.
func (s *Scanner) CommitDiff(ctx context.Context, clonePath, commitSHA string) (string, error) {
	return s.adapter.CommitDiff(ctx, clonePath, commitSHA)
}

func (s *Scanner) contentSample(ctx context.Context, clonePath, commitSHA string, info FileInfo) ([]byte, error) {
	content, err := s.adapter.FileContent(ctx, clonePath, commitSHA, info.Path)
	if err != nil {
		return nil, err
	}
	if len(content) > maxClassifySize {
		content = content[:maxClassifySize]
	}
	return content, nil
}

func commitFromInfo(info CommitInfo, repositoryID int64) repository.Commit {
	return repository.NewCommit(
		info.SHA,
		repositoryID,
		info.Message,
		repository.NewAuthor(info.AuthorName, info.AuthorEmail),
		repository.NewAuthor(info.CommitterName, info.CommitterEmail),
		info.AuthoredAt,
		info.CommittedAt,
		info.ParentSHA,
	)
}

func mimeTypeForPath(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return "text/plain"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "text/plain"
}
