package diagnostics

import "fmt"

// Threshold constants for the seven warnings. manyGrepCallsWithoutReadThreshold and
// duplicateQueryRateThreshold/locatorToReadRatioThreshold are named here so
// a future tuning pass has one place to change them.
const (
	manyGrepCallsWithoutReadThreshold = 5
	duplicateQueryRateThreshold       = 0.15
	locatorToReadRatioThreshold       = 3.0
)

// buildWarnings evaluates the seven fixed thresholds against c, in the
// order the distilled spec lists them.
func buildWarnings(c Counters) []string {
	var warnings []string

	if c.GrepCalls > manyGrepCallsWithoutReadThreshold && c.ReadCalls == 0 {
		warnings = append(warnings, fmt.Sprintf(
			"Many grep calls (%d) with no read follow-up. Confirm matches before moving on.", c.GrepCalls))
	}

	if c.DuplicateQueryRate > duplicateQueryRateThreshold {
		warnings = append(warnings, fmt.Sprintf(
			"High duplicate grep query rate (%.1f%%). Refine search terms to avoid repeated scans.", c.DuplicateQueryRate*100))
	}

	if c.LocatorToReadRatio != nil && *c.LocatorToReadRatio > locatorToReadRatioThreshold {
		warnings = append(warnings, fmt.Sprintf(
			"Locator-to-read ratio is high (%.1f). Read matched files instead of re-searching.", *c.LocatorToReadRatio))
	}

	if c.TruncatedToolResultCount > 0 && c.RetrievalHandleGeneratedCount == 0 {
		warnings = append(warnings,
			"Tool output was truncated but no retrieval handle was generated. Full results may be unavailable.")
	}

	if c.UnresolvedCount > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"%d retrieval handle(s) remain unresolved. Resolve them before relying on their contents.", c.UnresolvedCount))
	}

	if c.TruncatedToolResultCount > 0 && c.RawOutputReferencedAfterSummaryCount == 0 {
		warnings = append(warnings,
			"Tool output was truncated and the raw artifact was never read. Summary may be incomplete.")
	}

	if c.DuplicateStaleContextReferences > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"%d read(s) referenced an artifact already surfaced in a prior iteration. Reuse cached context instead of re-reading.", c.DuplicateStaleContextReferences))
	}

	return warnings
}
