package semantic

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/codescout-dev/codescout/internal/embedder"
	"github.com/codescout-dev/codescout/internal/source"
	"github.com/codescout-dev/codescout/internal/sqlitedb"
	"github.com/codescout-dev/codescout/pkg/types"
)

const (
	// Name identifies this backend in results and errors.
	Name = "semantic"

	// dbFileName is the backend's index file inside the project cache folder.
	dbFileName = "semantic.db"

	// topK caps how many chunks one query ranks into results.
	topK = 20

	// minSimilarity filters out chunks with no meaningful relation to the
	// query.
	minSimilarity = 0.1
)

const schema = `
CREATE TABLE IF NOT EXISTS embeddings (
	chunk_id   TEXT PRIMARY KEY,
	path       TEXT NOT NULL,
	start_line INTEGER NOT NULL,
	content    TEXT NOT NULL,
	vector     BLOB NOT NULL,
	dimension  INTEGER NOT NULL
);
`

// pendingRow is a chunk embedded during the current analysis pass, waiting
// for Persist to commit it.
type pendingRow struct {
	chunk  *types.Chunk
	vector []float32
}

// Matcher is the embedding-similarity backend. Chunks are embedded at cache
// time, buffered, and committed to SQLite on Persist; queries embed the
// query text and rank stored vectors by cosine similarity in memory.
type Matcher struct {
	db  *sql.DB
	emb embedder.Embedder

	mu      sync.Mutex
	pending []pendingRow
}

// New opens (creating if necessary) the backend's index inside cacheDir.
// The embedder is owned by the caller.
func New(cacheDir string, emb embedder.Embedder) (*Matcher, error) {
	db, err := sqlitedb.Open(filepath.Join(cacheDir, dbFileName))
	if err != nil {
		return nil, fmt.Errorf("open semantic index: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create semantic schema: %w", err)
	}

	return &Matcher{db: db, emb: emb}, nil
}

// Name implements source.Source.
func (m *Matcher) Name() string {
	return Name
}

// Kind implements source.Source. Similarity ranking runs inline on the
// coordinating goroutine.
func (m *Matcher) Kind() source.Kind {
	return source.Blocking
}

// CacheChunk implements source.Source. Embedding happens here so Persist is
// a pure write; re-dispatching the same chunk ID is harmless because the
// write path upserts on chunk_id.
func (m *Matcher) CacheChunk(ctx context.Context, chunk *types.Chunk) error {
	if err := chunk.Validate(); err != nil {
		return fmt.Errorf("cache chunk: %w", err)
	}

	emb, err := m.emb.Embed(ctx, chunk.Content)
	if err != nil {
		return fmt.Errorf("embed chunk %s: %w", chunk.ID, err)
	}

	m.mu.Lock()
	m.pending = append(m.pending, pendingRow{chunk: chunk, vector: emb.Vector})
	m.mu.Unlock()
	return nil
}

// Persist implements source.Source. All buffered embeddings are written in
// a single transaction.
func (m *Matcher) Persist(ctx context.Context) error {
	m.mu.Lock()
	pending := m.pending
	m.pending = nil
	m.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin semantic write: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO embeddings (chunk_id, path, start_line, content, vector, dimension)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET
			path = excluded.path,
			start_line = excluded.start_line,
			content = excluded.content,
			vector = excluded.vector,
			dimension = excluded.dimension`)
	if err != nil {
		return fmt.Errorf("prepare semantic write: %w", err)
	}
	defer stmt.Close()

	for _, row := range pending {
		_, err := stmt.ExecContext(ctx,
			row.chunk.ID, row.chunk.Path, row.chunk.StartLine, row.chunk.Content,
			serializeVector(row.vector), len(row.vector))
		if err != nil {
			return fmt.Errorf("write embedding %s: %w", row.chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit semantic write: %w", err)
	}
	return nil
}

// scored pairs an index entry with its similarity to the current query.
type scored struct {
	path      string
	startLine int
	content   string
	score     float64
}

// Fetch implements source.Source. The query is embedded once and every
// stored vector is ranked against it; the top chunks above the similarity
// floor become results, best first.
func (m *Matcher) Fetch(ctx context.Context, query string) ([]types.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, types.ErrEmptyQuery
	}

	queryEmb, err := m.emb.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	rows, err := m.db.QueryContext(ctx,
		`SELECT path, start_line, content, vector FROM embeddings`)
	if err != nil {
		return nil, fmt.Errorf("scan semantic index: %w", err)
	}
	defer rows.Close()

	var ranked []scored
	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var (
			path      string
			startLine int
			content   string
			blob      []byte
		)
		if err := rows.Scan(&path, &startLine, &content, &blob); err != nil {
			return nil, fmt.Errorf("read semantic row: %w", err)
		}

		vector, err := deserializeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("decode vector for %s: %w", path, err)
		}

		score := cosineSimilarity(queryEmb.Vector, vector)
		if score < minSimilarity {
			continue
		}
		ranked = append(ranked, scored{path: path, startLine: startLine, content: content, score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan semantic index: %w", err)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].path < ranked[j].path
	})
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}

	// One result per path, in rank order; further chunks from the same file
	// extend the payload.
	var order []string
	byPath := make(map[string]*types.SearchResult)

	for _, hit := range ranked {
		result, ok := byPath[hit.path]
		if !ok {
			result = &types.SearchResult{Path: hit.path}
			byPath[hit.path] = result
			order = append(order, hit.path)
		}
		result.Lines = append(result.Lines, types.LineMatch{
			Line:   hit.startLine,
			Text:   snippet(hit.content),
			Score:  hit.score,
			Source: Name,
		})
	}

	results := make([]types.SearchResult, 0, len(order))
	for _, path := range order {
		results = append(results, *byPath[path])
	}
	return results, nil
}

// snippet returns the first non-blank line of a chunk for display.
func snippet(content string) string {
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) != "" {
			return line
		}
	}
	return ""
}

// Close releases the backend's database handle. The embedder is closed by
// its owner.
func (m *Matcher) Close() error {
	return m.db.Close()
}
