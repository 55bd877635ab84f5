// Package diagnostics turns one completed agent iteration's raw tool-call
// log into duplicate-work counters and a bounded list of warnings, and
// separately maintains the two bounded trajectory artifacts an agent's
// working memory is checkpointed into.
package diagnostics

import (
	"strings"

	"github.com/hansjm10/jeeves-coordinator/internal/util"
)

// Category is the coarse tool-name bucket used for counting.
type Category string

const (
	CategoryGrep  Category = "grep"
	CategoryRead  Category = "read"
	CategoryOther Category = "other"
)

// Classify buckets a raw tool name into grep, read, or other. The name is
// normalized (surrounding whitespace trimmed, lowercased) first; it is
// grep iff it is then exactly "grep", or ends in "/grep", ":grep", or
// ".grep" — the same rule applied to read.
func Classify(name string) Category {
	name = strings.ToLower(strings.TrimSpace(name))
	switch {
	case matchesToolName(name, "grep"):
		return CategoryGrep
	case matchesToolName(name, "read"):
		return CategoryRead
	default:
		return CategoryOther
	}
}

func matchesToolName(name, target string) bool {
	if name == target {
		return true
	}
	for _, sep := range []string{"/", ":", "."} {
		if strings.HasSuffix(name, sep+target) {
			return true
		}
	}
	return false
}

// NormalizeArtifactPath lowercases, strips a leading "./", and flips
// backslashes to forward slashes, so the same artifact referenced two
// different ways compares equal.
func NormalizeArtifactPath(path string) string {
	return util.NormalizePath(path)
}
