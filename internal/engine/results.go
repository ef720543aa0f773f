package engine

import "github.com/codescout-dev/codescout/pkg/types"

// Results merges the last fetch into one entry per path. Entries keep the
// order in which their path was first seen; a later result for a known path
// extends that entry's payload rather than replacing it. The merge itself
// imposes no ranking.
func (e *Engine) Results() []types.SearchResult {
	var order []string
	byPath := make(map[string]*types.SearchResult)

	for _, result := range e.fetched {
		merged, ok := byPath[result.Path]
		if !ok {
			merged = &types.SearchResult{Path: result.Path}
			byPath[result.Path] = merged
			order = append(order, result.Path)
		}
		merged.Extend(result)
	}

	results := make([]types.SearchResult, 0, len(order))
	for _, path := range order {
		results = append(results, *byPath[path])
	}
	return results
}
