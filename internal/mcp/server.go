package mcp

import (
	"context"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/server"

	"github.com/codescout-dev/codescout/internal/engine"
)

const (
	// ServerName is the MCP server name
	ServerName = "codescout"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with one engine per analyzed repository.
type Server struct {
	mcp       *server.MCPServer
	cacheRoot string

	mu      sync.Mutex
	engines map[string]*engine.Engine
}

// NewServer creates a new MCP server instance. An empty cacheRoot places
// project caches under the platform cache directory.
func NewServer(cacheRoot string) (*Server, error) {
	s := &Server{
		mcp:       server.NewMCPServer(ServerName, ServerVersion),
		cacheRoot: cacheRoot,
		engines:   make(map[string]*engine.Engine),
	}

	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown.
func (s *Server) Serve(ctx context.Context) error {
	defer s.closeEngines()
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() error {
	s.mcp.AddTool(analyzeRepositoryTool(), s.handleAnalyzeRepository)
	s.mcp.AddTool(searchRepositoryTool(), s.handleSearchRepository)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
	return nil
}

// engineFor returns the engine for a repository path, creating it on first
// use. Engine methods are not concurrency-safe, so the per-call lock also
// serializes tool handlers.
func (s *Server) engineFor(path string) (*engine.Engine, error) {
	if e, ok := s.engines[path]; ok {
		return e, nil
	}

	e, err := engine.New(path, engine.Config{CacheRoot: s.cacheRoot})
	if err != nil {
		return nil, err
	}

	s.engines[path] = e
	return e, nil
}

func (s *Server) closeEngines() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.engines {
		_ = e.Close()
	}
	s.engines = make(map[string]*engine.Engine)
}
