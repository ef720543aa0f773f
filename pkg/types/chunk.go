package types

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Chunk is the unit of indexable content handed to every search backend.
// Chunks are produced transiently during an analysis pass and are never
// persisted themselves; only their ID is recorded as evidence that the
// backends have absorbed them.
type Chunk struct {
	// ID is the stable content-derived identifier. Identical path, position
	// and content always yield the same ID across runs and machines.
	ID string

	// Path is the file path relative to the repository root, slash-separated.
	Path string

	// StartLine is the 1-based line number of the first line of the chunk.
	StartLine int

	// Content holds the chunk's lines, newline-separated.
	Content string
}

// NewChunk builds a chunk and computes its ID.
func NewChunk(path string, startLine int, content string) *Chunk {
	c := &Chunk{
		Path:      path,
		StartLine: startLine,
		Content:   content,
	}
	c.ID = c.ComputeID()
	return c
}

// ComputeID derives the stable chunk identifier from path, position and
// content.
func (c *Chunk) ComputeID() string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s:%d:%s", c.Path, c.StartLine, c.Content)))
	return hex.EncodeToString(h[:])
}

// EndLine returns the 1-based line number of the chunk's last line.
func (c *Chunk) EndLine() int {
	if c.Content == "" {
		return c.StartLine
	}
	return c.StartLine + strings.Count(strings.TrimSuffix(c.Content, "\n"), "\n")
}

// Validate checks that the chunk is well formed and that its ID matches the
// content it claims to identify.
func (c *Chunk) Validate() error {
	if c.Path == "" {
		return errors.New("chunk path cannot be empty")
	}
	if c.StartLine < 1 {
		return errors.New("chunk start line must be positive")
	}
	if c.Content == "" {
		return ErrEmptyContent
	}
	if c.ID == "" {
		return errors.New("chunk ID must be computed")
	}
	if c.ID != c.ComputeID() {
		return errors.New("chunk ID does not match content")
	}
	return nil
}
