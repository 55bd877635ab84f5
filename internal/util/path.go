// Package util provides small cross-platform path helpers shared by the
// reconciler and the diagnostics artifact-path normalizer.
package util

import "strings"

// IsRootPath checks if the given path represents a root/current directory.
// It handles "", ".", "./", ".\", and variants with trailing slashes.
func IsRootPath(path string) bool {
	normalized := strings.ReplaceAll(path, "\\", "/")
	normalized = strings.TrimRight(normalized, "/")
	return normalized == "" || normalized == "."
}

// NormalizePath normalizes a path the way the diagnostics artifact-path
// rule requires: lowercase, backslashes flipped to forward slashes, and a
// leading "./" stripped, so the same artifact referenced two different
// ways compares equal regardless of platform.
func NormalizePath(path string) string {
	path = strings.ToLower(path)
	path = strings.ReplaceAll(path, "\\", "/")
	path = strings.TrimPrefix(path, "./")
	return path
}

// PathsEqual compares two paths under NormalizePath.
func PathsEqual(path1, path2 string) bool {
	return NormalizePath(path1) == NormalizePath(path2)
}
