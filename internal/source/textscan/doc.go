// Package textscan implements the text-matching search backend. It stores
// chunk text in a SQLite index and answers queries with case-insensitive
// regular-expression scans, reporting exact line hits.
package textscan
