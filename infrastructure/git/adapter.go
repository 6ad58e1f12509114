// Package git provides repository cloning and scanning on go-git.
package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrBranchNotFound indicates the requested branch was not found.
var ErrBranchNotFound = errors.New("branch not found")

// CommitInfo carries raw commit metadata out of the git layer.
type CommitInfo struct {
	SHA            string
	Message        string
	AuthorName     string
	AuthorEmail    string
	CommitterName  string
	CommitterEmail string
	AuthoredAt     time.Time
	CommittedAt    time.Time
	ParentSHA      string
}

// BranchInfo carries raw branch metadata out of the git layer.
type BranchInfo struct {
	Name      string
	HeadSHA   string
	IsDefault bool
}

// TagInfo carries raw tag metadata out of the git layer.
type TagInfo struct {
	Name            string
	TargetCommitSHA string
	Message         string
}

// FileInfo carries raw tree entry metadata out of the git layer.
type FileInfo struct {
	Path    string
	BlobSHA string
	Size    int64
}

// Adapter abstracts git operations so scanning and cloning can be tested
// against a fake.
type Adapter interface {
	Clone(ctx context.Context, remoteURI, localPath string) error
	Fetch(ctx context.Context, localPath string) error
	Pull(ctx context.Context, localPath string) error
	Exists(ctx context.Context, localPath string) (bool, error)
	DefaultBranch(ctx context.Context, localPath string) (string, error)
	AllBranches(ctx context.Context, localPath string) ([]BranchInfo, error)
	AllTags(ctx context.Context, localPath string) ([]TagInfo, error)
	BranchCommits(ctx context.Context, localPath, branchName string) ([]CommitInfo, error)
	CommitDetails(ctx context.Context, localPath, commitSHA string) (CommitInfo, error)
	CommitFiles(ctx context.Context, localPath, commitSHA string) ([]FileInfo, error)
	FileContent(ctx context.Context, localPath, commitSHA, filePath string) ([]byte, error)
	CommitDiff(ctx context.Context, localPath, commitSHA string) (string, error)
}

// GoGitAdapter implements Adapter on the go-git library.
type GoGitAdapter struct {
	logger *slog.Logger
}

// NewGoGitAdapter creates a new GoGitAdapter.
func NewGoGitAdapter(logger *slog.Logger) *GoGitAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &GoGitAdapter{logger: logger}
}

// Clone clones a repository to a local path, replacing any leftover
// directory from an aborted clone.
func (g *GoGitAdapter) Clone(ctx context.Context, remoteURI, localPath string) error {
	if _, err := os.Stat(localPath); err == nil {
		g.logger.Warn("removing existing directory", slog.String("path", localPath))
		if err := os.RemoveAll(localPath); err != nil {
			return fmt.Errorf("remove existing directory: %w", err)
		}
	}

	_, err := gogit.PlainCloneContext(ctx, localPath, false, &gogit.CloneOptions{
		URL: remoteURI,
	})
	if err != nil {
		return fmt.Errorf("clone repository: %w", err)
	}
	return nil
}

// Fetch fetches latest changes from origin.
func (g *GoGitAdapter) Fetch(ctx context.Context, localPath string) error {
	repo, err := gogit.PlainOpen(localPath)
	if err != nil {
		return fmt.Errorf("open repository: %w", err)
	}

	err = repo.FetchContext(ctx, &gogit.FetchOptions{
		RemoteName: "origin",
		Force:      true,
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return fmt.Errorf("fetch repository: %w", err)
	}
	return nil
}

// Pull fetches and fast-forwards the worktree. A pull failure after a
// successful fetch (detached HEAD) is not an error: the object database is
// current and scanning reads refs, not the worktree.
func (g *GoGitAdapter) Pull(ctx context.Context, localPath string) error {
	if err := g.Fetch(ctx, localPath); err != nil {
		return err
	}

	repo, err := gogit.PlainOpen(localPath)
	if err != nil {
		return fmt.Errorf("open repository: %w", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("get worktree: %w", err)
	}

	err = worktree.PullContext(ctx, &gogit.PullOptions{
		RemoteName: "origin",
		Force:      true,
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		g.logger.Debug("pull failed, fetch already succeeded", slog.String("error", err.Error()))
	}
	return nil
}

// Exists checks whether a repository exists at the local path.
func (g *GoGitAdapter) Exists(ctx context.Context, localPath string) (bool, error) {
	_, err := gogit.PlainOpen(localPath)
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return false, nil
		}
		return false, fmt.Errorf("check repository: %w", err)
	}
	return true, nil
}

// DefaultBranch resolves the default branch: origin/HEAD when present,
// otherwise main or master, otherwise the first branch.
func (g *GoGitAdapter) DefaultBranch(ctx context.Context, localPath string) (string, error) {
	repo, err := gogit.PlainOpen(localPath)
	if err != nil {
		return "", fmt.Errorf("open repository: %w", err)
	}

	ref, err := repo.Reference(plumbing.NewRemoteReferenceName("origin", "HEAD"), true)
	if err == nil && ref.Type() == plumbing.SymbolicReference {
		return strings.TrimPrefix(ref.Target().Short(), "origin/"), nil
	}

	for _, candidate := range []string{"main", "master"} {
		if _, err := g.findBranchRef(repo, candidate); err == nil {
			return candidate, nil
		}
	}

	branchIter, err := repo.Branches()
	if err != nil {
		return "", fmt.Errorf("get branches: %w", err)
	}
	defer branchIter.Close()

	first, err := branchIter.Next()
	if err != nil {
		return "", errors.New("no branches found")
	}
	return first.Name().Short(), nil
}

// AllBranches returns local and remote branches, deduplicated by name.
func (g *GoGitAdapter) AllBranches(ctx context.Context, localPath string) ([]BranchInfo, error) {
	repo, err := gogit.PlainOpen(localPath)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	headRef, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("get HEAD: %w", err)
	}

	var branches []BranchInfo
	seen := make(map[string]bool)

	branchIter, err := repo.Branches()
	if err != nil {
		return nil, fmt.Errorf("get branches: %w", err)
	}
	defer branchIter.Close()

	err = branchIter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		branches = append(branches, BranchInfo{
			Name:      name,
			HeadSHA:   ref.Hash().String(),
			IsDefault: ref.Hash() == headRef.Hash(),
		})
		seen[name] = true
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate branches: %w", err)
	}

	refs, err := repo.References()
	if err != nil {
		return nil, fmt.Errorf("get references: %w", err)
	}
	defer refs.Close()

	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if !ref.Name().IsRemote() {
			return nil
		}
		name := ref.Name().Short()
		if name == "origin/HEAD" {
			return nil
		}
		name = strings.TrimPrefix(name, "origin/")
		if seen[name] {
			return nil
		}
		branches = append(branches, BranchInfo{
			Name:    name,
			HeadSHA: ref.Hash().String(),
		})
		seen[name] = true
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate remote refs: %w", err)
	}

	return branches, nil
}

// AllTags returns all tags, resolving annotated tags to their target
// commit.
func (g *GoGitAdapter) AllTags(ctx context.Context, localPath string) ([]TagInfo, error) {
	repo, err := gogit.PlainOpen(localPath)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	tagIter, err := repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("get tags: %w", err)
	}
	defer tagIter.Close()

	var tags []TagInfo
	err = tagIter.ForEach(func(ref *plumbing.Reference) error {
		tag := TagInfo{Name: ref.Name().Short()}

		if tagObj, err := repo.TagObject(ref.Hash()); err == nil {
			tag.TargetCommitSHA = tagObj.Target.String()
			tag.Message = tagObj.Message
		} else {
			// Lightweight tag, points directly at the commit.
			tag.TargetCommitSHA = ref.Hash().String()
		}

		tags = append(tags, tag)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}

	return tags, nil
}

// BranchCommits returns the commit history for a branch, newest first.
func (g *GoGitAdapter) BranchCommits(ctx context.Context, localPath, branchName string) ([]CommitInfo, error) {
	repo, err := gogit.PlainOpen(localPath)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	branchRef, err := g.findBranchRef(repo, branchName)
	if err != nil {
		return nil, err
	}

	commitIter, err := repo.Log(&gogit.LogOptions{From: branchRef.Hash()})
	if err != nil {
		return nil, fmt.Errorf("get commit log: %w", err)
	}
	defer commitIter.Close()

	var commits []CommitInfo
	err = commitIter.ForEach(func(c *object.Commit) error {
		commits = append(commits, commitToInfo(c))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate commits: %w", err)
	}

	return commits, nil
}

// CommitDetails returns the metadata of a single commit.
func (g *GoGitAdapter) CommitDetails(ctx context.Context, localPath, commitSHA string) (CommitInfo, error) {
	repo, err := gogit.PlainOpen(localPath)
	if err != nil {
		return CommitInfo{}, fmt.Errorf("open repository: %w", err)
	}

	commit, err := repo.CommitObject(plumbing.NewHash(commitSHA))
	if err != nil {
		return CommitInfo{}, fmt.Errorf("get commit: %w", err)
	}
	return commitToInfo(commit), nil
}

// CommitFiles lists all tree entries of a commit.
func (g *GoGitAdapter) CommitFiles(ctx context.Context, localPath, commitSHA string) ([]FileInfo, error) {
	repo, err := gogit.PlainOpen(localPath)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	commit, err := repo.CommitObject(plumbing.NewHash(commitSHA))
	if err != nil {
		return nil, fmt.Errorf("get commit: %w", err)
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("get tree: %w", err)
	}

	var files []FileInfo
	err = tree.Files().ForEach(func(f *object.File) error {
		files = append(files, FileInfo{
			Path:    f.Name,
			BlobSHA: f.Hash.String(),
			Size:    f.Size,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}

	return files, nil
}

// FileContent reads a file's content at a specific commit.
func (g *GoGitAdapter) FileContent(ctx context.Context, localPath, commitSHA, filePath string) ([]byte, error) {
	repo, err := gogit.PlainOpen(localPath)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	commit, err := repo.CommitObject(plumbing.NewHash(commitSHA))
	if err != nil {
		return nil, fmt.Errorf("get commit: %w", err)
	}

	file, err := commit.File(filePath)
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	content, err := file.Contents()
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return []byte(content), nil
}

// CommitDiff returns the unified diff of a commit against its first
// parent. Root commits diff against the empty tree.
func (g *GoGitAdapter) CommitDiff(ctx context.Context, localPath, commitSHA string) (string, error) {
	repo, err := gogit.PlainOpen(localPath)
	if err != nil {
		return "", fmt.Errorf("open repository: %w", err)
	}

	commit, err := repo.CommitObject(plumbing.NewHash(commitSHA))
	if err != nil {
		return "", fmt.Errorf("get commit: %w", err)
	}

	parentTree := &object.Tree{}
	if len(commit.ParentHashes) > 0 {
		parent, err := repo.CommitObject(commit.ParentHashes[0])
		if err != nil {
			return "", fmt.Errorf("get parent commit: %w", err)
		}
		parentTree, err = parent.Tree()
		if err != nil {
			return "", fmt.Errorf("get parent tree: %w", err)
		}
	}

	commitTree, err := commit.Tree()
	if err != nil {
		return "", fmt.Errorf("get commit tree: %w", err)
	}

	changes, err := parentTree.Diff(commitTree)
	if err != nil {
		return "", fmt.Errorf("compute diff: %w", err)
	}
	patch, err := changes.Patch()
	if err != nil {
		return "", fmt.Errorf("get patch: %w", err)
	}
	return patch.String(), nil
}

func (g *GoGitAdapter) findBranchRef(repo *gogit.Repository, branchName string) (*plumbing.Reference, error) {
	ref, err := repo.Reference(plumbing.NewBranchReferenceName(branchName), true)
	if err == nil {
		return ref, nil
	}
	ref, err = repo.Reference(plumbing.NewRemoteReferenceName("origin", branchName), true)
	if err == nil {
		return ref, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrBranchNotFound, branchName)
}

func commitToInfo(c *object.Commit) CommitInfo {
	info := CommitInfo{
		SHA:            c.Hash.String(),
		Message:        c.Message,
		AuthorName:     c.Author.Name,
		AuthorEmail:    c.Author.Email,
		CommitterName:  c.Committer.Name,
		CommitterEmail: c.Committer.Email,
		AuthoredAt:     c.Author.When,
		CommittedAt:    c.Committer.When,
	}
	if len(c.ParentHashes) > 0 {
		info.ParentSHA = c.ParentHashes[0].String()
	}
	return info
}

var _ Adapter = (*GoGitAdapter)(nil)
