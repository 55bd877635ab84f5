package diagnostics

// Counters is the full set of per-iteration diagnostic counts.
type Counters struct {
	GrepCalls                         int
	ReadCalls                         int
	DuplicateGrepCalls                int
	DuplicateQueryRate                float64
	LocatorToReadRatio                *float64
	TruncatedToolResultCount          int
	RetrievalHandleGeneratedCount     int
	ResolvedCount                     int
	UnresolvedCount                   int
	RawOutputReferencedAfterSummaryCount int
	DuplicateStaleContextReferences   int
}

// Tracker accumulates the cross-iteration memory needed for staleness
// detection: which artifact paths have already been surfaced via a
// retrieval handle in a prior iteration.
type Tracker struct {
	knownArtifactPaths map[string]bool
}

// NewTracker returns an empty Tracker, ready for the first iteration.
func NewTracker() *Tracker {
	return &Tracker{knownArtifactPaths: make(map[string]bool)}
}

// ProcessIteration computes this iteration's counters and warnings, then
// folds its retrieval artifact paths into the tracker's cross-iteration
// memory for the next call.
func (t *Tracker) ProcessIteration(iter Iteration) (Counters, []string) {
	var c Counters
	grepSeen := make(map[string]bool)
	// surfacedViaRetrieval tracks every artifact path exposed by a
	// retrieval handle so far — both from a prior iteration (seeded from
	// the tracker) and from an earlier call within this same iteration,
	// processed in call order so a read that immediately follows the
	// truncation it resolves is still counted.
	surfacedViaRetrieval := make(map[string]bool, len(t.knownArtifactPaths))
	for p := range t.knownArtifactPaths {
		surfacedViaRetrieval[p] = true
	}

	for _, call := range iter.ToolCalls {
		switch Classify(call.Name) {
		case CategoryGrep:
			c.GrepCalls++
			key := grepKey(call.Input)
			if grepSeen[key] {
				c.DuplicateGrepCalls++
			}
			grepSeen[key] = true
		case CategoryRead:
			c.ReadCalls++
			if path, ok := readPath(call.Input); ok {
				normalized := NormalizeArtifactPath(path)
				if t.knownArtifactPaths[normalized] {
					c.DuplicateStaleContextReferences++
				}
				if surfacedViaRetrieval[normalized] {
					c.RawOutputReferencedAfterSummaryCount++
				}
			}
		}

		if call.ResponseTruncated {
			c.TruncatedToolResultCount++
		}

		if call.ResponseRetrieval != nil {
			c.RetrievalHandleGeneratedCount++
			switch call.ResponseRetrieval.Status {
			case retrievalResolved:
				c.ResolvedCount++
			case retrievalUnresolved:
				c.UnresolvedCount++
			}
			for _, p := range call.ResponseRetrieval.ArtifactPaths {
				surfacedViaRetrieval[NormalizeArtifactPath(p)] = true
			}
		}
	}

	if c.GrepCalls > 0 {
		c.DuplicateQueryRate = float64(c.DuplicateGrepCalls) / float64(c.GrepCalls)
	}
	if c.ReadCalls > 0 {
		ratio := float64(c.GrepCalls) / float64(c.ReadCalls)
		c.LocatorToReadRatio = &ratio
	}

	t.observe(iter)

	return c, buildWarnings(c)
}

// observe folds this iteration's retrieval artifact paths into the
// tracker's memory so a later iteration can detect a stale re-reference.
func (t *Tracker) observe(iter Iteration) {
	for _, call := range iter.ToolCalls {
		if call.ResponseRetrieval == nil {
			continue
		}
		for _, p := range call.ResponseRetrieval.ArtifactPaths {
			t.knownArtifactPaths[NormalizeArtifactPath(p)] = true
		}
	}
}

func readPath(input map[string]any) (string, bool) {
	path, ok := input["path"].(string)
	return path, ok
}
