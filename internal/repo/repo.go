package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/codescout-dev/codescout/internal/cachestore"
)

// ErrNotRepository is returned when the project path is not a git
// repository.
var ErrNotRepository = errors.New("path is not a git repository")

// Repository walks a git work tree and maintains the commit-tracking and
// file-ranking fields of the project's cache record. It is the only
// component besides the analysis driver that mutates the record.
type Repository struct {
	root  string
	store *cachestore.Store
	git   *git.Repository
}

// New opens the git repository at root. The store's record receives the
// walk results on Refresh.
func New(root string, store *cachestore.Store) (*Repository, error) {
	gitRepo, err := git.PlainOpen(root)
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: %s", ErrNotRepository, root)
		}
		return nil, fmt.Errorf("open repository: %w", err)
	}

	return &Repository{
		root:  root,
		store: store,
		git:   gitRepo,
	}, nil
}

// Root returns the repository's work tree path.
func (r *Repository) Root() string {
	return r.root
}

// Refresh walks history from the current HEAD and updates the cache
// record: branch heads, required and analyzed commits, per-file commit
// counts and the ranked file list. Commits already analyzed in earlier
// runs are not walked again.
func (r *Repository) Refresh(ctx context.Context) error {
	head, err := r.git.Head()
	if err != nil {
		return fmt.Errorf("resolve HEAD: %w", err)
	}

	branch := "HEAD"
	if head.Name().IsBranch() {
		branch = head.Name().Short()
	}

	rec := r.store.Record
	headHash := head.Hash().String()

	if rec.BranchHeads[branch] != headHash {
		if err := r.walkCommits(ctx, head.Hash()); err != nil {
			return err
		}
		rec.BranchHeads[branch] = headHash
	}

	r.rebuildRanking()
	return nil
}

// walkCommits iterates history newest-first from the given commit,
// counting file touches for every commit not yet analyzed.
func (r *Repository) walkCommits(ctx context.Context, from plumbing.Hash) error {
	iter, err := r.git.Log(&git.LogOptions{From: from})
	if err != nil {
		return fmt.Errorf("walk commits: %w", err)
	}
	defer iter.Close()

	rec := r.store.Record

	// First touch per path within this walk. The walk is newest-first and
	// only covers commits newer than anything previously analyzed, so the
	// first touch is the path's most recent commit.
	touched := make(map[string]bool)

	return iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		hash := c.Hash.String()
		rec.RequiredCommits[hash] = true
		if rec.CommitsAnalyzed[hash] {
			return nil
		}

		stats, err := c.Stats()
		if err != nil {
			return fmt.Errorf("stats for commit %s: %w", hash, err)
		}

		for _, stat := range stats {
			meta := rec.FileData[stat.Name]
			meta.CommitCount++
			if !touched[stat.Name] {
				meta.LastCommit = hash
				touched[stat.Name] = true
			}
			rec.FileData[stat.Name] = meta
		}

		rec.CommitsAnalyzed[hash] = true
		return nil
	})
}

// rebuildRanking recomputes the ranked file list from the accumulated
// per-file commit counts. Files no longer present in the work tree are
// excluded; ties break on path for a deterministic order.
func (r *Repository) rebuildRanking() {
	rec := r.store.Record

	paths := make([]string, 0, len(rec.FileData))
	for p := range rec.FileData {
		if _, err := os.Stat(filepath.Join(r.root, filepath.FromSlash(p))); err != nil {
			continue
		}
		paths = append(paths, p)
	}

	sort.Slice(paths, func(i, j int) bool {
		ci := rec.FileData[paths[i]].CommitCount
		cj := rec.FileData[paths[j]].CommitCount
		if ci != cj {
			return ci > cj
		}
		return paths[i] < paths[j]
	})

	rec.SortedFiles = paths
}

// TopFiles returns the analyzable files in ranking order,
// most-relevant-first. Refresh must have populated the record first.
func (r *Repository) TopFiles() []*File {
	sorted := r.store.Record.SortedFiles
	files := make([]*File, 0, len(sorted))
	for _, p := range sorted {
		files = append(files, &File{root: r.root, path: p})
	}
	return files
}
