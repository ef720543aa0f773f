package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codescout-dev/codescout/internal/source"
	"github.com/codescout-dev/codescout/pkg/types"
)

type fakeFile struct {
	path   string
	chunks []*types.Chunk
	err    error
}

func (f *fakeFile) Path() string { return f.path }

func (f *fakeFile) Chunks() ([]*types.Chunk, error) { return f.chunks, f.err }

type fakeRepo struct {
	files      []File
	refreshErr error
	refreshes  int
}

func (r *fakeRepo) Refresh(ctx context.Context) error {
	r.refreshes++
	return r.refreshErr
}

func (r *fakeRepo) TopFiles() []File { return r.files }

type fakeSource struct {
	name string
	kind source.Kind

	mu       sync.Mutex
	cached   []string
	persists int

	cacheErr     error
	persistErr   error
	fetchErr     error
	fetchResults []types.SearchResult
	fetches      []string
	fetchDelay   time.Duration
	fetchedAt    time.Time
}

func (s *fakeSource) Name() string      { return s.name }
func (s *fakeSource) Kind() source.Kind { return s.kind }

func (s *fakeSource) CacheChunk(ctx context.Context, chunk *types.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cacheErr != nil {
		return s.cacheErr
	}
	s.cached = append(s.cached, chunk.ID)
	return nil
}

func (s *fakeSource) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persists++
	return s.persistErr
}

func (s *fakeSource) Fetch(ctx context.Context, query string) ([]types.SearchResult, error) {
	s.mu.Lock()
	s.fetches = append(s.fetches, query)
	s.fetchedAt = time.Now()
	s.mu.Unlock()

	if s.fetchDelay > 0 {
		time.Sleep(s.fetchDelay)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return s.fetchResults, nil
}

func (s *fakeSource) fetchStart() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchedAt
}

func (s *fakeSource) cachedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.cached...)
}

func newTestEngine(t *testing.T, repo Repository, sources ...source.Source) *Engine {
	t.Helper()

	e, err := New(t.TempDir(), Config{
		CacheRoot:  t.TempDir(),
		Repository: repo,
		Sources:    sources,
	})
	require.NoError(t, err)
	return e
}

func oneChunkFile(path, content string) *fakeFile {
	return &fakeFile{path: path, chunks: []*types.Chunk{types.NewChunk(path, 1, content)}}
}

func TestAnalysisWindow(t *testing.T) {
	tests := []struct {
		total int
		want  int
	}{
		{0, 0},
		{10, 10},
		{40, 40},
		{41, 40},
		{100, 40},
		{200, 40},
		{201, 41},
		{1000, 200},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, analysisWindow(tt.total), "total=%d", tt.total)
	}
}

func TestAnalyzeDispatchesToEverySource(t *testing.T) {
	repo := &fakeRepo{files: []File{oneChunkFile("a.go", "alpha\n"), oneChunkFile("b.go", "beta\n")}}
	s1 := &fakeSource{name: "s1", kind: source.Background}
	s2 := &fakeSource{name: "s2", kind: source.Blocking}
	e := newTestEngine(t, repo, s1, s2)

	stats, err := e.Analyze(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.FilesConsidered)
	assert.Equal(t, 2, stats.ChunksIndexed)
	assert.Equal(t, 0, stats.ChunksSkipped)
	assert.Len(t, s1.cachedIDs(), 2)
	assert.Len(t, s2.cachedIDs(), 2)
	assert.Equal(t, 1, s1.persists)
	assert.Equal(t, 1, s2.persists)
	assert.Equal(t, 1, repo.refreshes)
}

func TestAnalyzeSecondPassDispatchesNothing(t *testing.T) {
	repo := &fakeRepo{files: []File{oneChunkFile("a.go", "alpha\n")}}
	s1 := &fakeSource{name: "s1", kind: source.Background}
	e := newTestEngine(t, repo, s1)

	_, err := e.Analyze(context.Background())
	require.NoError(t, err)
	require.Len(t, s1.cachedIDs(), 1)

	stats, err := e.Analyze(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.ChunksIndexed)
	assert.Equal(t, 1, stats.ChunksSkipped)
	assert.Len(t, s1.cachedIDs(), 1, "no re-dispatch for analyzed chunks")
}

func TestAnalyzeFailureDoesNotStopOtherSources(t *testing.T) {
	repo := &fakeRepo{files: []File{oneChunkFile("a.go", "alpha\n")}}
	failing := &fakeSource{name: "bad", kind: source.Background, cacheErr: errors.New("index full")}
	healthy := &fakeSource{name: "good", kind: source.Blocking}
	e := newTestEngine(t, repo, failing, healthy)

	stats, err := e.Analyze(context.Background())
	require.Error(t, err)

	assert.Equal(t, 1, stats.ChunksFailed)
	assert.Equal(t, 0, stats.ChunksIndexed)
	assert.Len(t, healthy.cachedIDs(), 1, "healthy source still sees the chunk")
	assert.Equal(t, 0, e.AnalyzedChunkCount(), "failed chunk stays unmarked")
}

func TestAnalyzeRetriesFailedChunkAgainstAllSources(t *testing.T) {
	repo := &fakeRepo{files: []File{oneChunkFile("a.go", "alpha\n")}}
	flaky := &fakeSource{name: "flaky", kind: source.Background, cacheErr: errors.New("transient")}
	steady := &fakeSource{name: "steady", kind: source.Blocking}
	e := newTestEngine(t, repo, flaky, steady)

	_, err := e.Analyze(context.Background())
	require.Error(t, err)

	flaky.cacheErr = nil
	stats, err := e.Analyze(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.ChunksIndexed)
	assert.Len(t, flaky.cachedIDs(), 1)
	assert.Len(t, steady.cachedIDs(), 2, "retry re-dispatches to every source")
	assert.Equal(t, 1, e.AnalyzedChunkCount())
}

func TestAnalyzePersistsEvenWithFailures(t *testing.T) {
	repo := &fakeRepo{files: []File{oneChunkFile("a.go", "alpha\n")}}
	failing := &fakeSource{name: "bad", kind: source.Background, cacheErr: errors.New("boom")}
	e := newTestEngine(t, repo, failing)

	_, err := e.Analyze(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, failing.persists)
}

func TestAnalyzeRefreshErrorAborts(t *testing.T) {
	repo := &fakeRepo{refreshErr: errors.New("not a repository")}
	s1 := &fakeSource{name: "s1", kind: source.Background}
	e := newTestEngine(t, repo, s1)

	_, err := e.Analyze(context.Background())
	require.Error(t, err)
	assert.Empty(t, s1.cachedIDs())
	assert.Equal(t, 0, s1.persists)
}

func TestAnalyzeResumesAcrossEngines(t *testing.T) {
	repo := &fakeRepo{files: []File{oneChunkFile("a.go", "alpha\n")}}
	s1 := &fakeSource{name: "s1", kind: source.Background}

	path := t.TempDir()
	cacheRoot := t.TempDir()

	e1, err := New(path, Config{CacheRoot: cacheRoot, Repository: repo, Sources: []source.Source{s1}})
	require.NoError(t, err)
	_, err = e1.Analyze(context.Background())
	require.NoError(t, err)

	// A fresh engine over the same project and cache root loads the record
	// and skips the already-analyzed chunk.
	s2 := &fakeSource{name: "s1", kind: source.Background}
	e2, err := New(path, Config{CacheRoot: cacheRoot, Repository: repo, Sources: []source.Source{s2}})
	require.NoError(t, err)

	stats, err := e2.Analyze(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ChunksSkipped)
	assert.Empty(t, s2.cachedIDs())
}

func TestCloseReleasesDefaultEmbedder(t *testing.T) {
	t.Setenv("CODESCOUT_EMBEDDING_PROVIDER", "local")

	e, err := New(t.TempDir(), Config{
		CacheRoot:  t.TempDir(),
		Repository: &fakeRepo{},
	})
	require.NoError(t, err)

	require.NotNil(t, e.emb, "default backends carry their embedder for Close")
	require.NoError(t, e.Close())
}

func TestCustomSourcesCarryNoEmbedder(t *testing.T) {
	e := newTestEngine(t, &fakeRepo{}, &fakeSource{name: "s", kind: source.Blocking})

	assert.Nil(t, e.emb)
	require.NoError(t, e.Close())
}

func TestAnalyzeWindowLimitsFiles(t *testing.T) {
	files := make([]File, 60)
	for i := range files {
		files[i] = &fakeFile{path: "f.go"}
	}
	repo := &fakeRepo{files: files}
	e := newTestEngine(t, repo, &fakeSource{name: "s1", kind: source.Background})

	stats, err := e.Analyze(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 40, stats.FilesConsidered)
}
