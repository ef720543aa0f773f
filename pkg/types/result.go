package types

// LineMatch is one matched line a backend contributes for a file. Score is
// backend-specific: the text matcher reports 1.0 per literal hit while the
// semantic matcher reports cosine similarity.
type LineMatch struct {
	Line   int     // 1-based line number in the file
	Text   string  // matched line or snippet
	Score  float64 // backend-specific relevance
	Source string  // name of the backend that produced the match
}

// SearchResult groups the matches a single backend found in one file.
// Results from different backends for the same path are merged by appending
// payloads, never by replacing them, so accumulation is independent of
// backend order.
type SearchResult struct {
	Path  string
	Lines []LineMatch
}

// Extend appends another result's payload onto this one. Both results must
// refer to the same path; the order within each payload is preserved.
func (r *SearchResult) Extend(other SearchResult) {
	r.Lines = append(r.Lines, other.Lines...)
}

// Validate checks that the result carries a path and at least one match.
func (r *SearchResult) Validate() error {
	if r.Path == "" {
		return ErrMissingPath
	}
	if len(r.Lines) == 0 {
		return ErrEmptyContent
	}
	return nil
}
