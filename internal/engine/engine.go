package engine

import (
	"context"
	"fmt"
	"os"

	"github.com/codescout-dev/codescout/internal/cachestore"
	"github.com/codescout-dev/codescout/internal/embedder"
	"github.com/codescout-dev/codescout/internal/repo"
	"github.com/codescout-dev/codescout/internal/source"
	"github.com/codescout-dev/codescout/internal/source/semantic"
	"github.com/codescout-dev/codescout/internal/source/textscan"
	"github.com/codescout-dev/codescout/pkg/types"
)

// File is one analyzable file a repository offers, in ranking order.
type File interface {
	// Path returns the file's repository-relative path.
	Path() string

	// Chunks splits the file's current content into indexable chunks.
	Chunks() ([]*types.Chunk, error)
}

// Repository is the engine's view of the project under analysis. The
// concrete implementation walks git history and maintains the cache
// record's commit-tracking fields.
type Repository interface {
	// Refresh brings the cache record's commit tracking up to the current
	// branch head.
	Refresh(ctx context.Context) error

	// TopFiles returns the analyzable files, most-relevant-first.
	TopFiles() []File
}

// Config carries the engine's construction options. Zero values select the
// defaults: the user cache directory as cache root, the git-walking
// repository, and the shipped text and semantic backends.
type Config struct {
	// CacheRoot overrides where project caches live.
	CacheRoot string

	// Repository overrides the git collaborator.
	Repository Repository

	// Sources overrides the backend set.
	Sources []source.Source
}

// Engine coordinates one project's analysis and querying. All methods must
// be called from a single coordinating goroutine; the engine fans work out
// to backends itself.
type Engine struct {
	path    string
	store   *cachestore.Store
	repo    Repository
	sources []source.Source

	// emb is set only when the engine built the default backends itself;
	// it is closed with them.
	emb embedder.Embedder

	query   string
	fetched []types.SearchResult
}

// New creates an engine for the project at path. The cache folder is
// derived from the project's identity under cfg.CacheRoot.
func New(path string, cfg Config) (*Engine, error) {
	cacheDir, err := cachestore.CacheDir(cfg.CacheRoot, path)
	if err != nil {
		return nil, fmt.Errorf("resolve cache location: %w", err)
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache folder: %w", err)
	}

	store := cachestore.NewStore(cacheDir)
	store.Load()

	repository := cfg.Repository
	if repository == nil {
		gitRepo, err := repo.New(path, store)
		if err != nil {
			return nil, err
		}
		repository = &gitRepository{repo: gitRepo}
	}

	sources := cfg.Sources
	var emb embedder.Embedder
	if sources == nil {
		sources, emb, err = defaultSources(cacheDir)
		if err != nil {
			return nil, err
		}
	}

	return &Engine{
		path:    path,
		store:   store,
		repo:    repository,
		sources: sources,
		emb:     emb,
	}, nil
}

// defaultSources builds the shipped backend set: the background text
// scanner and the blocking semantic matcher. The returned embedder belongs
// to the engine, which closes it together with the backends.
func defaultSources(cacheDir string) ([]source.Source, embedder.Embedder, error) {
	scanner, err := textscan.New(cacheDir)
	if err != nil {
		return nil, nil, err
	}

	emb, err := embedder.NewFromEnv()
	if err != nil {
		_ = scanner.Close()
		return nil, nil, fmt.Errorf("create embedder: %w", err)
	}

	matcher, err := semantic.New(cacheDir, emb)
	if err != nil {
		_ = scanner.Close()
		_ = emb.Close()
		return nil, nil, err
	}

	return []source.Source{scanner, matcher}, emb, nil
}

// Path returns the project path the engine was created for.
func (e *Engine) Path() string {
	return e.path
}

// CachePath returns the on-disk location of the project's cache record.
func (e *Engine) CachePath() string {
	return e.store.Path()
}

// AnalyzedChunkCount reports how many chunks every backend has absorbed.
func (e *Engine) AnalyzedChunkCount() int {
	return e.store.Record.AnalyzedChunkCount()
}

// Close releases any closable backends and, when the engine created the
// default backends, their embedder.
func (e *Engine) Close() error {
	var firstErr error
	for _, src := range e.sources {
		if closer, ok := src.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	if e.emb != nil {
		if err := e.emb.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// gitRepository adapts the concrete git walker to the engine's Repository
// interface.
type gitRepository struct {
	repo *repo.Repository
}

func (g *gitRepository) Refresh(ctx context.Context) error {
	return g.repo.Refresh(ctx)
}

func (g *gitRepository) TopFiles() []File {
	concrete := g.repo.TopFiles()
	files := make([]File, len(concrete))
	for i, f := range concrete {
		files[i] = f
	}
	return files
}
