package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// analysisWindowMin is the smallest number of top-ranked files one analysis
// pass covers, when the repository has that many.
const analysisWindowMin = 40

// Statistics summarizes one analysis pass.
type Statistics struct {
	FilesConsidered int // ranked files inside the window
	ChunksSkipped   int // chunks already absorbed by every backend
	ChunksIndexed   int // chunks newly absorbed by every backend
	ChunksFailed    int // chunks left unmarked for a retry next pass
}

// analysisWindow returns how many top-ranked files one pass covers: a fifth
// of the repository, at least analysisWindowMin, never more than total.
func analysisWindow(total int) int {
	if total <= analysisWindowMin {
		return total
	}
	w := int(math.Ceil(0.2 * float64(total)))
	if w < analysisWindowMin {
		w = analysisWindowMin
	}
	return w
}

// Analyze runs one incremental analysis pass: refresh the repository walk,
// take the current window of top-ranked files, and dispatch every chunk not
// yet absorbed to all backends. A chunk is marked analyzed only when every
// backend accepted it; partial failures leave it unmarked so the next pass
// retries it against all backends. The cache record and every backend
// persist at the end even when some chunks failed.
func (e *Engine) Analyze(ctx context.Context) (*Statistics, error) {
	if err := e.repo.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("refresh repository: %w", err)
	}

	files := e.repo.TopFiles()
	window := analysisWindow(len(files))
	files = files[:window]

	stats := &Statistics{FilesConsidered: window}
	var dispatchErrs []error

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		chunks, err := file.Chunks()
		if err != nil {
			dispatchErrs = append(dispatchErrs, fmt.Errorf("chunk %s: %w", file.Path(), err))
			continue
		}

		for _, chunk := range chunks {
			if e.store.Record.ChunkAnalyzed(chunk.ID) {
				stats.ChunksSkipped++
				continue
			}

			// Every source sees the chunk even when an earlier one fails;
			// idempotent backends make the eventual retry harmless.
			var chunkErrs []error
			for _, src := range e.sources {
				if err := src.CacheChunk(ctx, chunk); err != nil {
					chunkErrs = append(chunkErrs, fmt.Errorf("%s: cache chunk %s: %w", src.Name(), chunk.ID, err))
				}
			}

			if len(chunkErrs) > 0 {
				stats.ChunksFailed++
				dispatchErrs = append(dispatchErrs, chunkErrs...)
				continue
			}

			e.store.Record.MarkChunkAnalyzed(chunk.ID)
			stats.ChunksIndexed++
		}
	}

	if err := e.store.Persist(); err != nil {
		dispatchErrs = append(dispatchErrs, fmt.Errorf("persist cache record: %w", err))
	}
	for _, src := range e.sources {
		if err := src.Persist(ctx); err != nil {
			dispatchErrs = append(dispatchErrs, fmt.Errorf("%s: persist: %w", src.Name(), err))
		}
	}

	return stats, errors.Join(dispatchErrs...)
}
