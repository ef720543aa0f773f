// Package types defines the shared data model for the search engine.
//
// The central types are:
//
//   - Chunk: a unit of indexable file content with a stable content-derived
//     identifier. Chunk IDs are the idempotence key of the analysis pipeline:
//     a chunk whose ID has been recorded as analyzed is never re-dispatched
//     to the backends.
//
//   - SearchResult: the per-file payload a backend returns for a query.
//     Results for the same path from different backends merge by appending
//     payloads, so the merged payload set does not depend on which backend
//     answered first.
//
// Types in this package have no dependencies on the engine, the backends or
// the cache; they are the vocabulary the other packages speak.
package types
