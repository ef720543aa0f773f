// Package source defines the capability contract search backends satisfy.
//
// A backend implements four operations: construction (initialize),
// CacheChunk (index one unit of content), Persist (flush its index) and
// Fetch (answer a query). Backends are classified as Blocking or Background
// depending on whether query dispatch runs inline on the coordinating
// goroutine or on the orchestrator's worker pool.
//
// Concrete backends live in the subpackages textscan (literal/regex
// matching) and semantic (embedding similarity).
package source
