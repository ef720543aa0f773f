// Package cachestore persists per-project analysis state.
//
// Each indexed repository owns one Record, stored at
//
//	cacheRoot / projectIdentity / "cache"
//
// where projectIdentity is sha256("format_version:" + version + ";path:" +
// normalizedAbsolutePath). The identity scheme gives two guarantees: the
// same path at the same format version always reuses its cache, and a
// format version bump silently starts every project from a cold cache
// instead of attempting to read an incompatible record.
//
// # Degradation, not errors
//
// Load never fails: an absent, unreadable or version-mismatched cache file
// yields the empty default record. Only Persist reports errors, because a
// cache directory that cannot be written is fatal to the engine run.
//
// # Growth-only chunk tracking
//
// The set of analyzed chunk IDs is the idempotence key for the analysis
// pipeline. The Record API exposes MarkChunkAnalyzed and ChunkAnalyzed but
// no removal; entries only disappear through full cache invalidation.
//
// The cache file is a single-writer resource. Concurrent engine processes
// against one project identity must be serialized externally.
package cachestore
