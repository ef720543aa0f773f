package source

import (
	"context"

	"github.com/codescout-dev/codescout/pkg/types"
)

// Kind classifies how a source executes query dispatch. The classification
// is static per source, not per call.
type Kind int

const (
	// Blocking sources run Fetch inline on the coordinating goroutine.
	// Their cost is assumed bounded and their execution model does not
	// allow off-thread dispatch.
	Blocking Kind = iota

	// Background sources have Fetch submitted to the orchestrator's worker
	// pool and awaited with a structured join.
	Background
)

// String returns the kind's name.
func (k Kind) String() string {
	switch k {
	case Blocking:
		return "blocking"
	case Background:
		return "background"
	default:
		return "unknown"
	}
}

// Source is the capability contract every search backend satisfies. A
// backend's constructor is its initialize step: it receives the project
// cache folder (and whatever collaborators it needs) and returns a ready
// instance. After construction a source only ever receives chunks and
// queries; it owns its index and is never handed the engine's cache record.
type Source interface {
	// Name identifies the backend in results and error messages.
	Name() string

	// Kind reports the backend's execution model.
	Kind() Kind

	// CacheChunk indexes one chunk. Implementations must be idempotent per
	// chunk ID: the analysis driver re-dispatches a chunk to every source
	// when any one of them failed on a previous run.
	CacheChunk(ctx context.Context, chunk *types.Chunk) error

	// Persist flushes the source's own index to storage. Called once at the
	// end of an analysis pass.
	Persist(ctx context.Context) error

	// Fetch returns the source's results for a query, in the source's own
	// relevance order. The orchestrator guarantees at most one Fetch in
	// flight per source instance.
	Fetch(ctx context.Context, query string) ([]types.SearchResult, error)
}
