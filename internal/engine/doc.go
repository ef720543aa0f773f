// Package engine coordinates analysis and querying for one project. The
// analysis driver walks the ranked files and feeds chunks to every search
// backend exactly once; the query orchestrator fans a query out across the
// backends and merges their results per path. All engine methods run on a
// single coordinating goroutine.
package engine
