package git

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repolens/repolens/domain/repository"
)

// fakeAdapter records clone and pull calls; the rest of the Adapter
// surface is unused by the cloner.
type fakeAdapter struct {
	exists  bool
	cloned  []string
	pulled  []string
	cloneFn func(localPath string) error
}

func (f *fakeAdapter) Clone(_ context.Context, _, localPath string) error {
	if f.cloneFn != nil {
		return f.cloneFn(localPath)
	}
	f.cloned = append(f.cloned, localPath)
	return nil
}

func (f *fakeAdapter) Fetch(context.Context, string) error { return nil }

func (f *fakeAdapter) Pull(_ context.Context, localPath string) error {
	f.pulled = append(f.pulled, localPath)
	return nil
}

func (f *fakeAdapter) Exists(context.Context, string) (bool, error) { return f.exists, nil }

func (f *fakeAdapter) DefaultBranch(context.Context, string) (string, error) { return "main", nil }

func (f *fakeAdapter) AllBranches(context.Context, string) ([]BranchInfo, error) { return nil, nil }

func (f *fakeAdapter) AllTags(context.Context, string) ([]TagInfo, error) { return nil, nil }

func (f *fakeAdapter) BranchCommits(context.Context, string, string) ([]CommitInfo, error) {
	return nil, nil
}

func (f *fakeAdapter) CommitDetails(context.Context, string, string) (CommitInfo, error) {
	return CommitInfo{}, nil
}

func (f *fakeAdapter) CommitFiles(context.Context, string, string) ([]FileInfo, error) {
	return nil, nil
}

func (f *fakeAdapter) FileContent(context.Context, string, string, string) ([]byte, error) {
	return nil, nil
}

func (f *fakeAdapter) CommitDiff(context.Context, string, string) (string, error) { return "", nil }

func TestCloner_ClonePath_Deterministic(t *testing.T) {
	cloner := NewCloner(&fakeAdapter{}, "/data/clones", nil)

	first := cloner.ClonePath("https://github.com/acme/widget")
	second := cloner.ClonePath("https://github.com/acme/widget")
	other := cloner.ClonePath("https://github.com/acme/gadget")

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
	assert.Equal(t, "/data/clones", filepath.Dir(first))
	// sha1 hex digest, nothing URI-shaped in the directory name.
	assert.Len(t, filepath.Base(first), 40)
	assert.NotContains(t, first, "github")
}

func TestCloner_Ensure_ClonesWhenMissing(t *testing.T) {
	adapter := &fakeAdapter{exists: false}
	cloner := NewCloner(adapter, t.TempDir(), nil)

	repo, err := repository.NewRepository("https://github.com/acme/widget.git")
	require.NoError(t, err)

	updated, err := cloner.Ensure(context.Background(), repo)
	require.NoError(t, err)

	require.Len(t, adapter.cloned, 1)
	assert.Empty(t, adapter.pulled)
	assert.True(t, updated.HasWorkingCopy())
	assert.Equal(t, adapter.cloned[0], updated.WorkingCopy().Path())
}

func TestCloner_Ensure_PullsExistingWorkingCopy(t *testing.T) {
	adapter := &fakeAdapter{exists: true}
	dir := t.TempDir()
	cloner := NewCloner(adapter, dir, nil)

	repo, err := repository.NewRepository("https://github.com/acme/widget.git")
	require.NoError(t, err)
	path := filepath.Join(dir, "existing")
	repo = repo.WithWorkingCopy(repository.NewWorkingCopy(path))

	updated, err := cloner.Ensure(context.Background(), repo)
	require.NoError(t, err)

	assert.Empty(t, adapter.cloned)
	assert.Equal(t, []string{path}, adapter.pulled)
	assert.Equal(t, path, updated.WorkingCopy().Path())
}

func TestCloner_Ensure_CleansUpFailedClone(t *testing.T) {
	dir := t.TempDir()
	adapter := &fakeAdapter{
		cloneFn: func(localPath string) error {
			// Simulate a clone aborted after creating the directory.
			if err := os.MkdirAll(localPath, 0o755); err != nil {
				return err
			}
			return assert.AnError
		},
	}
	cloner := NewCloner(adapter, dir, nil)

	repo, err := repository.NewRepository("https://github.com/acme/widget.git")
	require.NoError(t, err)

	_, err = cloner.Ensure(context.Background(), repo)
	require.Error(t, err)

	_, statErr := os.Stat(cloner.ClonePath(repo.SanitizedRemoteURI()))
	assert.True(t, os.IsNotExist(statErr), "aborted clone directory must be removed")
}

func TestCloner_Remove_RefusesPathsOutsideCloneDir(t *testing.T) {
	dir := t.TempDir()
	cloner := NewCloner(&fakeAdapter{}, dir, nil)

	repo, err := repository.NewRepository("https://github.com/acme/widget.git")
	require.NoError(t, err)

	outside := t.TempDir()
	err = cloner.Remove(repo.WithWorkingCopy(repository.NewWorkingCopy(outside)))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "outside clone dir"))
}

func TestCloner_Remove_DeletesWorkingCopy(t *testing.T) {
	dir := t.TempDir()
	cloner := NewCloner(&fakeAdapter{}, dir, nil)

	path := filepath.Join(dir, "copy")
	require.NoError(t, os.MkdirAll(path, 0o755))

	repo, err := repository.NewRepository("https://github.com/acme/widget.git")
	require.NoError(t, err)

	require.NoError(t, cloner.Remove(repo.WithWorkingCopy(repository.NewWorkingCopy(path))))
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
