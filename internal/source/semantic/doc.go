// Package semantic implements the embedding-similarity search backend.
// Chunks are embedded when cached and stored as vectors in a SQLite index;
// queries are embedded once and ranked against the index by cosine
// similarity.
package semantic
