package git

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/repolens/repolens/domain/repository"
)

// Cloner manages local working copies under a single clone directory.
// Clone paths are derived from the sanitized remote URI, so the same
// repository always lands in the same directory and credentials never leak
// into filesystem paths.
type Cloner struct {
	adapter  Adapter
	cloneDir string
	logger   *slog.Logger
}

// NewCloner creates a new Cloner rooted at cloneDir.
func NewCloner(adapter Adapter, cloneDir string, logger *slog.Logger) *Cloner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cloner{adapter: adapter, cloneDir: cloneDir, logger: logger}
}

// ClonePath returns the local clone path for a sanitized remote URI. The
// directory name is a hash, which keeps paths short and filesystem-safe
// regardless of the URI shape.
func (c *Cloner) ClonePath(sanitizedURI string) string {
	hash := sha1.Sum([]byte(sanitizedURI))
	return filepath.Join(c.cloneDir, hex.EncodeToString(hash[:]))
}

// Ensure clones the repository if no working copy exists, otherwise pulls
// latest changes. Returns the updated repository with its working copy set.
func (c *Cloner) Ensure(ctx context.Context, repo repository.Repository) (repository.Repository, error) {
	clonePath := c.ClonePath(repo.SanitizedRemoteURI())
	if repo.HasWorkingCopy() {
		clonePath = repo.WorkingCopy().Path()
	}

	exists, err := c.adapter.Exists(ctx, clonePath)
	if err != nil {
		return repository.Repository{}, err
	}

	if exists {
		c.logger.Info("updating working copy",
			slog.String("uri", repo.SanitizedRemoteURI()),
			slog.String("path", clonePath),
		)
		if err := c.adapter.Pull(ctx, clonePath); err != nil {
			return repository.Repository{}, err
		}
	} else {
		c.logger.Info("cloning repository",
			slog.String("uri", repo.SanitizedRemoteURI()),
			slog.String("path", clonePath),
		)
		if err := c.adapter.Clone(ctx, repo.RemoteURI(), clonePath); err != nil {
			_ = os.RemoveAll(clonePath)
			return repository.Repository{}, fmt.Errorf("clone repository: %w", err)
		}
	}

	return repo.WithWorkingCopy(repository.NewWorkingCopy(clonePath)), nil
}

// Remove deletes the working copy of a repository, if any.
func (c *Cloner) Remove(repo repository.Repository) error {
	if !repo.HasWorkingCopy() {
		return nil
	}
	path := repo.WorkingCopy().Path()

	// Refuse to remove anything outside the clone directory.
	rel, err := filepath.Rel(c.cloneDir, path)
	if err != nil || rel == ".." || filepath.IsAbs(rel) || len(rel) >= 2 && rel[:2] == ".." {
		return fmt.Errorf("working copy %s is outside clone dir %s", path, c.cloneDir)
	}

	c.logger.Info("removing working copy", slog.String("path", path))
	return os.RemoveAll(path)
}
