// Package mcp exposes the search engine over the Model Context Protocol on
// stdio.
//
// Three tools are registered:
//
//   - analyze_repository: run one incremental analysis pass on a repository.
//     Each pass covers the current window of most-edited files; calling it
//     again deepens coverage and picks up new commits.
//   - search_repository: fan a query out across the repository's search
//     backends and return the merged per-file matches.
//   - get_status: report whether a repository has been analyzed in this
//     session and how many chunks its backends have absorbed.
//
// The server keeps one engine per repository path. Engines are not
// concurrency-safe, so tool handlers serialize on the server's mutex.
// stdout carries the protocol; anything the server needs to say outside it
// goes to stderr.
package mcp
