// Package embedder generates vector embeddings for the semantic search
// backend.
//
// Three providers are available:
//
//   - ollama: a local Ollama instance (default model nomic-embed-text)
//   - openai: the OpenAI embeddings API (requires OPENAI_API_KEY)
//   - local: a deterministic hash-derived vector, used offline and in tests
//
// Provider selection happens once at engine construction via New or
// NewFromEnv. All providers share an LRU cache keyed by content hash, so
// re-analyzing unchanged chunks after a cache invalidation does not repeat
// API calls within a process.
//
// HTTP providers retry with exponential backoff and respect context
// cancellation.
package embedder
