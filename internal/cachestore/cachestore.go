package cachestore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// FormatVersion is the cache schema version. Bumping it after an
// incompatible schema change moves every project to a disjoint cache
// location, so old records are never read, let alone migrated.
const FormatVersion = 3

// cacheFileName is the record's file name inside the project cache folder.
const cacheFileName = "cache"

// FileMetadata tracks what the repository walk learned about one file.
type FileMetadata struct {
	CommitCount int    `json:"commit_count"`
	LastCommit  string `json:"last_commit"`
}

// Record is the persisted state for one indexed project. It is owned and
// mutated by the repository walker and the analysis driver on the
// coordinating goroutine; backends never receive access to it.
type Record struct {
	FormatVersion   int                     `json:"format_version"`
	BranchHeads     map[string]string       `json:"last_analyzed_version_of_branch"`
	RequiredCommits map[string]bool         `json:"required_commits"`
	CommitsAnalyzed map[string]bool         `json:"commits_already_analyzed"`
	FileData        map[string]FileMetadata `json:"file_data"`
	SortedFiles     []string                `json:"sorted_files"`

	// chunksAnalyzed grows and is never pruned within a record's lifetime.
	// Kept unexported so the only mutation path is MarkChunkAnalyzed.
	chunksAnalyzed map[string]bool
}

// NewRecord returns an empty record at the current format version.
func NewRecord() *Record {
	return &Record{
		FormatVersion:   FormatVersion,
		BranchHeads:     make(map[string]string),
		RequiredCommits: make(map[string]bool),
		CommitsAnalyzed: make(map[string]bool),
		FileData:        make(map[string]FileMetadata),
		SortedFiles:     []string{},
		chunksAnalyzed:  make(map[string]bool),
	}
}

// MarkChunkAnalyzed records that every backend has absorbed the chunk.
func (r *Record) MarkChunkAnalyzed(chunkID string) {
	r.chunksAnalyzed[chunkID] = true
}

// ChunkAnalyzed reports whether the chunk was already dispatched to the
// backends in a previous pass.
func (r *Record) ChunkAnalyzed(chunkID string) bool {
	return r.chunksAnalyzed[chunkID]
}

// AnalyzedChunkCount returns how many chunks have been marked analyzed.
func (r *Record) AnalyzedChunkCount() int {
	return len(r.chunksAnalyzed)
}

// recordJSON is the wire form of Record. The analyzed-chunk set serializes
// as a sorted slice so persisted records are byte-stable for identical
// state.
type recordJSON struct {
	FormatVersion   int                     `json:"format_version"`
	BranchHeads     map[string]string       `json:"last_analyzed_version_of_branch"`
	RequiredCommits map[string]bool         `json:"required_commits"`
	CommitsAnalyzed map[string]bool         `json:"commits_already_analyzed"`
	FileData        map[string]FileMetadata `json:"file_data"`
	SortedFiles     []string                `json:"sorted_files"`
	ChunksAnalyzed  []string                `json:"chunks_already_analyzed"`
}

// MarshalJSON implements json.Marshaler.
func (r *Record) MarshalJSON() ([]byte, error) {
	chunks := make([]string, 0, len(r.chunksAnalyzed))
	for id := range r.chunksAnalyzed {
		chunks = append(chunks, id)
	}
	sort.Strings(chunks)

	return json.Marshal(recordJSON{
		FormatVersion:   r.FormatVersion,
		BranchHeads:     r.BranchHeads,
		RequiredCommits: r.RequiredCommits,
		CommitsAnalyzed: r.CommitsAnalyzed,
		FileData:        r.FileData,
		SortedFiles:     r.SortedFiles,
		ChunksAnalyzed:  chunks,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Record) UnmarshalJSON(data []byte) error {
	var wire recordJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	fresh := NewRecord()
	fresh.FormatVersion = wire.FormatVersion
	if wire.BranchHeads != nil {
		fresh.BranchHeads = wire.BranchHeads
	}
	if wire.RequiredCommits != nil {
		fresh.RequiredCommits = wire.RequiredCommits
	}
	if wire.CommitsAnalyzed != nil {
		fresh.CommitsAnalyzed = wire.CommitsAnalyzed
	}
	if wire.FileData != nil {
		fresh.FileData = wire.FileData
	}
	if wire.SortedFiles != nil {
		fresh.SortedFiles = wire.SortedFiles
	}
	for _, id := range wire.ChunksAnalyzed {
		fresh.chunksAnalyzed[id] = true
	}

	*r = *fresh
	return nil
}

// Store maps a project's Record to its on-disk location. The cache file is
// a single-writer resource: concurrent engine processes against the same
// project identity must be serialized by the caller.
type Store struct {
	path   string
	Record *Record
}

// NewStore creates a store for the given project cache folder. Call Load
// before using the record.
func NewStore(cacheDir string) *Store {
	return &Store{
		path:   filepath.Join(cacheDir, cacheFileName),
		Record: NewRecord(),
	}
}

// Path returns the cache file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the record from disk. A missing, unreadable or
// version-mismatched file degrades to an empty default record; corruption
// is a cold start, never an error.
func (s *Store) Load() {
	s.Record = NewRecord()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}

	loaded := NewRecord()
	if err := json.Unmarshal(data, loaded); err != nil {
		return
	}
	if loaded.FormatVersion != FormatVersion {
		return
	}

	s.Record = loaded
}

// Persist atomically writes the in-memory record to the cache location,
// creating parent directories as needed.
func (s *Store) Persist() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	data, err := json.MarshalIndent(s.Record, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache record: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write cache record: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("commit cache record: %w", err)
	}

	return nil
}
