package cachestore

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ProjectIdentity derives the stable identity hash for a repository path at
// a given cache format version. Identical path and version always resolve
// to the same identity, so the same cache is reused; a version bump yields
// a disjoint identity and therefore a cold cache.
func ProjectIdentity(path string, version int) (string, error) {
	normalized, err := normalizePath(path)
	if err != nil {
		return "", fmt.Errorf("normalize project path: %w", err)
	}

	sum := sha256.Sum256([]byte(fmt.Sprintf("format_version:%d;path:%s", version, normalized)))
	return hex.EncodeToString(sum[:]), nil
}

// CacheDir resolves the on-disk cache folder for a repository. An empty
// cacheRoot selects the platform cache directory; tests pass an explicit
// root instead.
func CacheDir(cacheRoot, path string) (string, error) {
	if cacheRoot == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return "", fmt.Errorf("resolve user cache directory: %w", err)
		}
		cacheRoot = filepath.Join(base, "codescout")
	}

	identity, err := ProjectIdentity(path, FormatVersion)
	if err != nil {
		return "", err
	}

	return filepath.Join(cacheRoot, identity), nil
}

// normalizePath expands a leading ~ and resolves the path to a cleaned
// absolute form.
func normalizePath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	return filepath.Clean(abs), nil
}
