package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// analyzeRepositoryTool returns the tool definition for analyze_repository
func analyzeRepositoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "analyze_repository",
		Description: "Analyze a git repository to make it searchable. Each call indexes the next window of most-edited files; repeat to deepen coverage.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the git repository root",
				},
			},
			Required: []string{"path"},
		},
	}
}

// searchRepositoryTool returns the tool definition for search_repository
func searchRepositoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_repository",
		Description: "Search an analyzed repository with keyword, regex or natural language queries",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to an analyzed repository",
				},
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query (keywords, regex or natural language)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of files to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
			},
			Required: []string{"path", "query"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Query analysis status and statistics for a repository",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the repository",
				},
			},
			Required: []string{"path"},
		},
	}
}
