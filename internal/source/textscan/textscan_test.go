package textscan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codescout-dev/codescout/internal/source"
	"github.com/codescout-dev/codescout/internal/sqlitedb"
	"github.com/codescout-dev/codescout/pkg/types"
)

func newTestScanner(t *testing.T) *Scanner {
	t.Helper()

	db, err := sqlitedb.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(schema)
	require.NoError(t, err)

	return &Scanner{db: db}
}

func cacheAndPersist(t *testing.T, s *Scanner, chunks ...*types.Chunk) {
	t.Helper()

	ctx := context.Background()
	for _, c := range chunks {
		require.NoError(t, s.CacheChunk(ctx, c))
	}
	require.NoError(t, s.Persist(ctx))
}

func TestScannerKind(t *testing.T) {
	s := newTestScanner(t)
	assert.Equal(t, source.Background, s.Kind())
	assert.Equal(t, "textscan", s.Name())
}

func TestFetchMatchesStoredChunks(t *testing.T) {
	s := newTestScanner(t)
	cacheAndPersist(t, s,
		types.NewChunk("auth/login.go", 1, "package auth\n\nfunc Login() error {\n\treturn nil\n}\n"),
		types.NewChunk("db/query.go", 1, "package db\n\nfunc Query() {}\n"),
	)

	results, err := s.Fetch(context.Background(), "Login")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "auth/login.go", results[0].Path)
	require.Len(t, results[0].Lines, 1)
	assert.Equal(t, 3, results[0].Lines[0].Line)
	assert.Equal(t, "func Login() error {", results[0].Lines[0].Text)
	assert.Equal(t, "textscan", results[0].Lines[0].Source)
}

func TestFetchIsCaseInsensitive(t *testing.T) {
	s := newTestScanner(t)
	cacheAndPersist(t, s, types.NewChunk("main.go", 1, "// TODO handle errors\n"))

	results, err := s.Fetch(context.Background(), "todo")
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestFetchRegexQuery(t *testing.T) {
	s := newTestScanner(t)
	cacheAndPersist(t, s, types.NewChunk("handlers.go", 1, "func GetUser() {}\nfunc SetUser() {}\nfunc GetItem() {}\n"))

	results, err := s.Fetch(context.Background(), `func Get\w+`)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Len(t, results[0].Lines, 2)
	assert.Equal(t, 1, results[0].Lines[0].Line)
	assert.Equal(t, 3, results[0].Lines[1].Line)
}

func TestFetchInvalidRegexFallsBackToLiteral(t *testing.T) {
	s := newTestScanner(t)
	cacheAndPersist(t, s, types.NewChunk("calc.go", 1, "x := a[(i\n"))

	results, err := s.Fetch(context.Background(), "a[(i")
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestFetchDeduplicatesOverlappingChunks(t *testing.T) {
	s := newTestScanner(t)
	// Line 2 of the file appears in both overlapping windows.
	cacheAndPersist(t, s,
		types.NewChunk("overlap.go", 1, "line a\nneedle here\n"),
		types.NewChunk("overlap.go", 2, "needle here\nline c\n"),
	)

	results, err := s.Fetch(context.Background(), "needle")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Len(t, results[0].Lines, 1)
	assert.Equal(t, 2, results[0].Lines[0].Line)
}

func TestFetchEmptyQuery(t *testing.T) {
	s := newTestScanner(t)

	_, err := s.Fetch(context.Background(), "   ")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrEmptyQuery)
}

func TestCacheChunkIsIdempotent(t *testing.T) {
	s := newTestScanner(t)
	chunk := types.NewChunk("dup.go", 1, "the same chunk twice\n")

	cacheAndPersist(t, s, chunk)
	cacheAndPersist(t, s, chunk)

	results, err := s.Fetch(context.Background(), "same chunk")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Len(t, results[0].Lines, 1)
}

func TestPersistWithNothingPending(t *testing.T) {
	s := newTestScanner(t)
	require.NoError(t, s.Persist(context.Background()))
}

func TestCacheChunkRejectsInvalid(t *testing.T) {
	s := newTestScanner(t)

	err := s.CacheChunk(context.Background(), &types.Chunk{StartLine: 1, Content: "x"})
	require.Error(t, err)
}

func TestNewCreatesIndexOnDisk(t *testing.T) {
	dir := t.TempDir()

	s, err := New(dir)
	require.NoError(t, err)
	defer s.Close()

	cacheAndPersist(t, s, types.NewChunk("a.go", 1, "persisted content\n"))

	results, err := s.Fetch(context.Background(), "persisted")
	require.NoError(t, err)
	require.Len(t, results, 1)
}
