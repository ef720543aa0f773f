package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/suite"

	"github.com/codescout-dev/codescout/internal/engine"
)

const authFileContent = `package auth

import "errors"

var ErrBadCredentials = errors.New("bad credentials")

// Login verifies the user's credentials and opens a session.
func Login(user, password string) error {
	if user == "" || password == "" {
		return ErrBadCredentials
	}
	return nil
}
`

const storeFileContent = `package store

// Save writes a record to the backing store.
func Save(key string, value []byte) error {
	return nil
}
`

// EngineTestSuite exercises the full pipeline: git walk, analysis,
// fan-out query and merge, against the shipped backends.
type EngineTestSuite struct {
	suite.Suite
	ctx       context.Context
	repoDir   string
	cacheRoot string
	engine    *engine.Engine
}

// SetupSuite runs once before all tests
func (s *EngineTestSuite) SetupSuite() {
	s.ctx = context.Background()

	// Deterministic offline embeddings for the semantic backend.
	s.Require().NoError(os.Setenv("CODESCOUT_EMBEDDING_PROVIDER", "local"))
}

// SetupTest runs before each test
func (s *EngineTestSuite) SetupTest() {
	s.repoDir = s.T().TempDir()
	s.cacheRoot = s.T().TempDir()

	gitRepo, err := git.PlainInit(s.repoDir, false)
	s.Require().NoError(err)

	s.commit(gitRepo, "auth/login.go", authFileContent)
	s.commit(gitRepo, "store/save.go", storeFileContent)
	// A second touch ranks the auth file above the store file.
	s.commit(gitRepo, "auth/login.go", authFileContent+"\n// session notes\n")

	s.engine, err = engine.New(s.repoDir, engine.Config{CacheRoot: s.cacheRoot})
	s.Require().NoError(err)
}

// TearDownTest runs after each test
func (s *EngineTestSuite) TearDownTest() {
	if s.engine != nil {
		_ = s.engine.Close()
	}
}

func (s *EngineTestSuite) commit(gitRepo *git.Repository, name, content string) {
	path := filepath.Join(s.repoDir, filepath.FromSlash(name))
	s.Require().NoError(os.MkdirAll(filepath.Dir(path), 0o755))
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o644))

	wt, err := gitRepo.Worktree()
	s.Require().NoError(err)
	_, err = wt.Add(name)
	s.Require().NoError(err)
	_, err = wt.Commit("update "+name, &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	s.Require().NoError(err)
}

// TestAnalyzeThenSearch covers the primary flow end to end.
func (s *EngineTestSuite) TestAnalyzeThenSearch() {
	stats, err := s.engine.Analyze(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, stats.FilesConsidered)
	s.Positive(stats.ChunksIndexed)
	s.Zero(stats.ChunksFailed)

	s.engine.SetQuery("Login")
	s.Require().NoError(s.engine.Fetch(s.ctx))

	results := s.engine.Results()
	s.Require().NotEmpty(results)

	paths := make([]string, 0, len(results))
	for _, r := range results {
		paths = append(paths, r.Path)
	}
	s.Contains(paths, "auth/login.go")
}

// TestSecondAnalyzeIndexesNothingNew verifies chunk-level idempotence
// across passes within one engine.
func (s *EngineTestSuite) TestSecondAnalyzeIndexesNothingNew() {
	first, err := s.engine.Analyze(s.ctx)
	s.Require().NoError(err)
	s.Positive(first.ChunksIndexed)

	second, err := s.engine.Analyze(s.ctx)
	s.Require().NoError(err)
	s.Zero(second.ChunksIndexed)
	s.Equal(first.ChunksIndexed, second.ChunksSkipped)
}

// TestResumeAcrossEngines verifies that a fresh engine over the same cache
// root resumes instead of re-indexing.
func (s *EngineTestSuite) TestResumeAcrossEngines() {
	first, err := s.engine.Analyze(s.ctx)
	s.Require().NoError(err)
	s.Positive(first.ChunksIndexed)

	fresh, err := engine.New(s.repoDir, engine.Config{CacheRoot: s.cacheRoot})
	s.Require().NoError(err)
	defer func() { _ = fresh.Close() }()

	stats, err := fresh.Analyze(s.ctx)
	s.Require().NoError(err)
	s.Zero(stats.ChunksIndexed)
	s.Equal(first.ChunksIndexed, stats.ChunksSkipped)
}

// TestNewCommitExtendsIndex verifies incremental pickup of new history.
func (s *EngineTestSuite) TestNewCommitExtendsIndex() {
	_, err := s.engine.Analyze(s.ctx)
	s.Require().NoError(err)

	gitRepo, err := git.PlainOpen(s.repoDir)
	s.Require().NoError(err)
	s.commit(gitRepo, "api/routes.go", "package api\n\n// RegisterRoutes wires the HTTP handlers.\nfunc RegisterRoutes() {}\n")

	stats, err := s.engine.Analyze(s.ctx)
	s.Require().NoError(err)
	s.Positive(stats.ChunksIndexed)

	s.engine.SetQuery("RegisterRoutes")
	s.Require().NoError(s.engine.Fetch(s.ctx))

	results := s.engine.Results()
	s.Require().NotEmpty(results)
	s.Equal("api/routes.go", results[len(results)-1].Path)
}

// TestSemanticRanksExactContent verifies the blocking backend contributes
// results alongside the text scanner.
func (s *EngineTestSuite) TestSemanticRanksExactContent() {
	_, err := s.engine.Analyze(s.ctx)
	s.Require().NoError(err)

	s.engine.SetQuery(storeFileContent)
	s.Require().NoError(s.engine.Fetch(s.ctx))

	results := s.engine.Results()
	s.Require().NotEmpty(results)
	s.Equal("store/save.go", results[0].Path)
}

// TestSearchBeforeAnalyze returns no matches from empty indexes.
func (s *EngineTestSuite) TestSearchBeforeAnalyze() {
	s.engine.SetQuery("Login")
	s.Require().NoError(s.engine.Fetch(s.ctx))
	s.Empty(s.engine.Results())
}

func TestEngineTestSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}
