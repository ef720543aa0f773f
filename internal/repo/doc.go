// Package repo ranks a git repository's files by how often commits touch
// them and splits the ranked files into line-window chunks for analysis.
// Commit walking is incremental: each run only processes commits that
// appeared since the previously recorded branch head.
package repo
