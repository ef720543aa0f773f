package engine

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/codescout-dev/codescout/internal/source"
	"github.com/codescout-dev/codescout/pkg/types"
)

// ErrNoQuery is returned by Fetch when no query has been set.
var ErrNoQuery = errors.New("no query set")

// ErrAllSourcesFailed is returned by Fetch when every backend failed; the
// individual failures are joined onto it.
var ErrAllSourcesFailed = errors.New("all sources failed")

// SetQuery replaces the pending query and discards previously fetched
// results.
func (e *Engine) SetQuery(text string) {
	e.query = text
	e.fetched = nil
}

// Query returns the pending query text.
func (e *Engine) Query() string {
	return e.query
}

// Fetch dispatches the pending query to every backend: all background
// sources are handed to a single worker goroutine that runs them one at a
// time, so submission returns immediately and the blocking sources start
// inline on the calling goroutine without waiting on any background fetch.
// Blocking results accumulate first. A failing source contributes nothing;
// Fetch errors only when every source failed. At most one Fetch may be in
// flight per engine.
func (e *Engine) Fetch(ctx context.Context) error {
	if e.query == "" {
		return ErrNoQuery
	}

	var background, blocking []source.Source
	for _, src := range e.sources {
		if src.Kind() == source.Background {
			background = append(background, src)
		} else {
			blocking = append(blocking, src)
		}
	}

	backgroundResults := make([][]types.SearchResult, len(background))
	backgroundErrs := make([]error, len(background))
	sourceErrs := make([]error, 0, len(e.sources))

	g, gctx := errgroup.WithContext(ctx)

	// One worker drains the whole background set serially; the coordinator
	// never waits on it until the join below.
	g.Go(func() error {
		for i, src := range background {
			results, err := src.Fetch(gctx, e.query)
			if err != nil {
				// Recorded, not returned: one failing source must not cancel
				// the group.
				backgroundErrs[i] = fmt.Errorf("%s: %w", src.Name(), err)
				continue
			}
			backgroundResults[i] = results
		}
		return nil
	})

	var blockingResults []types.SearchResult
	for _, src := range blocking {
		results, err := src.Fetch(ctx, e.query)
		if err != nil {
			sourceErrs = append(sourceErrs, fmt.Errorf("%s: %w", src.Name(), err))
			continue
		}
		blockingResults = append(blockingResults, results...)
	}

	if err := g.Wait(); err != nil {
		return err
	}
	for _, err := range backgroundErrs {
		if err != nil {
			sourceErrs = append(sourceErrs, err)
		}
	}

	if len(sourceErrs) == len(e.sources) && len(e.sources) > 0 {
		return fmt.Errorf("%w: %w", ErrAllSourcesFailed, errors.Join(sourceErrs...))
	}

	e.fetched = blockingResults
	for _, results := range backgroundResults {
		e.fetched = append(e.fetched, results...)
	}
	return nil
}
