package repo

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/codescout-dev/codescout/pkg/types"
)

const (
	// maxFileSize caps the files offered for analysis; anything larger is
	// skipped rather than chunked.
	maxFileSize = 1 << 20

	// chunkLines and chunkStride define the overlapping line windows a
	// file is split into. A stride smaller than the window keeps every
	// boundary visible to at least one chunk.
	chunkLines  = 40
	chunkStride = 30
)

// File is a single ranked work-tree file. Paths are slash-separated and
// relative to the repository root, matching git's own naming.
type File struct {
	root string
	path string
}

// Path returns the file's repository-relative path.
func (f *File) Path() string {
	return f.path
}

// Chunks reads the file and splits it into overlapping line windows.
// Oversized and binary files yield no chunks without error; the file
// simply has nothing to analyze.
func (f *File) Chunks() ([]*types.Chunk, error) {
	abs := filepath.Join(f.root, filepath.FromSlash(f.path))

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", f.path, err)
	}
	if info.Size() > maxFileSize {
		return nil, nil
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	if isBinary(data) {
		return nil, nil
	}

	lines := strings.Split(string(data), "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	var chunks []*types.Chunk
	for start := 0; start < len(lines); start += chunkStride {
		end := start + chunkLines
		if end > len(lines) {
			end = len(lines)
		}

		content := strings.Join(lines[start:end], "\n") + "\n"
		if strings.TrimSpace(content) != "" {
			chunks = append(chunks, types.NewChunk(f.path, start+1, content))
		}

		if end == len(lines) {
			break
		}
	}
	return chunks, nil
}

// isBinary applies git's own heuristic: a NUL byte in the leading
// portion of the file marks it binary.
func isBinary(data []byte) bool {
	probe := data
	if len(probe) > 8000 {
		probe = probe[:8000]
	}
	return bytes.IndexByte(probe, 0) >= 0
}
