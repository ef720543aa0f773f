package textscan

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/codescout-dev/codescout/internal/source"
	"github.com/codescout-dev/codescout/internal/sqlitedb"
	"github.com/codescout-dev/codescout/pkg/types"
)

const (
	// Name identifies this backend in results and errors.
	Name = "textscan"

	// dbFileName is the backend's index file inside the project cache folder.
	dbFileName = "textscan.db"

	// maxResults caps how many files one query may return.
	maxResults = 50
)

const schema = `
CREATE TABLE IF NOT EXISTS chunks (
	id         TEXT PRIMARY KEY,
	path       TEXT NOT NULL,
	start_line INTEGER NOT NULL,
	content    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chunks_path ON chunks(path);
`

// Scanner is the text-matching backend. Chunks accumulate in memory during
// an analysis pass and hit SQLite in one transaction on Persist; queries run
// as regular-expression scans over the stored chunk text.
type Scanner struct {
	db *sql.DB

	mu      sync.Mutex
	pending []*types.Chunk
}

// New opens (creating if necessary) the backend's index inside cacheDir.
func New(cacheDir string) (*Scanner, error) {
	db, err := sqlitedb.Open(filepath.Join(cacheDir, dbFileName))
	if err != nil {
		return nil, fmt.Errorf("open textscan index: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create textscan schema: %w", err)
	}

	return &Scanner{db: db}, nil
}

// Name implements source.Source.
func (s *Scanner) Name() string {
	return Name
}

// Kind implements source.Source. Text scans run off the coordinating
// goroutine.
func (s *Scanner) Kind() source.Kind {
	return source.Background
}

// CacheChunk implements source.Source. The chunk is buffered until Persist;
// re-dispatching the same chunk ID is harmless because the write path
// upserts on id.
func (s *Scanner) CacheChunk(ctx context.Context, chunk *types.Chunk) error {
	if err := chunk.Validate(); err != nil {
		return fmt.Errorf("cache chunk: %w", err)
	}

	s.mu.Lock()
	s.pending = append(s.pending, chunk)
	s.mu.Unlock()
	return nil
}

// Persist implements source.Source. All buffered chunks are written in a
// single transaction.
func (s *Scanner) Persist(ctx context.Context) error {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin textscan write: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, path, start_line, content)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			path = excluded.path,
			start_line = excluded.start_line,
			content = excluded.content`)
	if err != nil {
		return fmt.Errorf("prepare textscan write: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range pending {
		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.Path, chunk.StartLine, chunk.Content); err != nil {
			return fmt.Errorf("write chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit textscan write: %w", err)
	}
	return nil
}

// Fetch implements source.Source. The query is compiled as a regular
// expression, falling back to a literal match when it does not parse. Each
// matching line is reported once per file even when overlapping chunks both
// contain it.
func (s *Scanner) Fetch(ctx context.Context, query string) ([]types.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, types.ErrEmptyQuery
	}

	re, err := regexp.Compile("(?i)" + query)
	if err != nil {
		re = regexp.MustCompile("(?i)" + regexp.QuoteMeta(query))
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT path, start_line, content FROM chunks ORDER BY path, start_line`)
	if err != nil {
		return nil, fmt.Errorf("scan textscan index: %w", err)
	}
	defer rows.Close()

	var order []string
	byPath := make(map[string]*types.SearchResult)
	seen := make(map[string]map[int]bool)

	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var (
			path      string
			startLine int
			content   string
		)
		if err := rows.Scan(&path, &startLine, &content); err != nil {
			return nil, fmt.Errorf("read textscan row: %w", err)
		}

		for i, line := range strings.Split(content, "\n") {
			if !re.MatchString(line) {
				continue
			}
			lineNo := startLine + i

			if seen[path] == nil {
				seen[path] = make(map[int]bool)
			}
			if seen[path][lineNo] {
				continue
			}
			seen[path][lineNo] = true

			result, ok := byPath[path]
			if !ok {
				if len(order) >= maxResults {
					continue
				}
				result = &types.SearchResult{Path: path}
				byPath[path] = result
				order = append(order, path)
			}
			result.Lines = append(result.Lines, types.LineMatch{
				Line:   lineNo,
				Text:   line,
				Score:  1.0,
				Source: Name,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan textscan index: %w", err)
	}

	results := make([]types.SearchResult, 0, len(order))
	for _, path := range order {
		results = append(results, *byPath[path])
	}
	return results, nil
}

// Close releases the backend's database handle.
func (s *Scanner) Close() error {
	return s.db.Close()
}
