package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/codescout-dev/codescout/internal/repo"
	"github.com/codescout-dev/codescout/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602 // Invalid method parameters
	ErrorCodeInternalError = -32603 // Internal JSON-RPC error
	ErrorCodeNotRepository = -32001 // Specified path is not a git repository
	ErrorCodeEmptyQuery    = -32004 // Query parameter is empty
)

// handleAnalyzeRepository handles the analyze_repository tool invocation
func (s *Server) handleAnalyzeRepository(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}
	if err := validatePath(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.engineFor(path)
	if err != nil {
		if errors.Is(err, repo.ErrNotRepository) {
			return nil, newMCPError(ErrorCodeNotRepository, "path is not a git repository", map[string]interface{}{
				"path": path,
			})
		}
		return nil, newMCPError(ErrorCodeInternalError, "failed to open repository", map[string]interface{}{
			"error": err.Error(),
		})
	}

	stats, err := e.Analyze(ctx)
	if err != nil && stats == nil {
		return nil, newMCPError(ErrorCodeInternalError, "analysis failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"analyzed":         true,
		"files_considered": stats.FilesConsidered,
		"chunks_indexed":   stats.ChunksIndexed,
		"chunks_skipped":   stats.ChunksSkipped,
		"chunks_failed":    stats.ChunksFailed,
		"chunks_total":     e.AnalyzedChunkCount(),
	}
	if err != nil {
		// Partial failures leave unmarked chunks for the next pass.
		response["warning"] = err.Error()
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchRepository handles the search_repository tool invocation
func (s *Server) handleSearchRepository(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	if err := validatePath(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	limit := getIntDefault(args, "limit", 10)
	if limit < 1 || limit > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.engineFor(path)
	if err != nil {
		if errors.Is(err, repo.ErrNotRepository) {
			return nil, newMCPError(ErrorCodeNotRepository, "path is not a git repository", map[string]interface{}{
				"path": path,
			})
		}
		return nil, newMCPError(ErrorCodeInternalError, "failed to open repository", map[string]interface{}{
			"error": err.Error(),
		})
	}

	e.SetQuery(query)
	if err := e.Fetch(ctx); err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	results := e.Results()
	if len(results) > limit {
		results = results[:limit]
	}

	response := map[string]interface{}{
		"query":   query,
		"count":   len(results),
		"results": formatResults(results),
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}
	if err := validatePath(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.engines[path]
	if !ok {
		response := map[string]interface{}{
			"analyzed": false,
			"path":     path,
			"message":  "Repository not analyzed. Use analyze_repository tool first.",
		}
		return mcp.NewToolResultText(formatJSON(response)), nil
	}

	response := map[string]interface{}{
		"analyzed":     true,
		"path":         e.Path(),
		"cache_path":   e.CachePath(),
		"chunks_total": e.AnalyzedChunkCount(),
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// formatResults flattens merged results into the wire shape.
func formatResults(results []types.SearchResult) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(results))
	for _, r := range results {
		lines := make([]map[string]interface{}, 0, len(r.Lines))
		for _, l := range r.Lines {
			lines = append(lines, map[string]interface{}{
				"line":   l.Line,
				"text":   l.Text,
				"score":  l.Score,
				"source": l.Source,
			})
		}
		out = append(out, map[string]interface{}{
			"path":    r.Path,
			"matches": lines,
		})
	}
	return out
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// validatePath checks if a path exists and is an accessible directory
func validatePath(path string) error {
	if path == "" {
		return ErrPathRequired
	}
	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}
	if !info.IsDir() {
		return ErrNotDirectory
	}

	f, err := os.Open(path)
	if err != nil {
		return ErrPathNotReadable
	}
	_ = f.Close()

	return nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// Validation helpers

var (
	ErrPathRequired    = errors.New("path is required")
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrNotDirectory    = errors.New("path is not a directory")
)
