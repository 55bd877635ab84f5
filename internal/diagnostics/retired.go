package diagnostics

import (
	"encoding/json"
	"os"

	"github.com/hansjm10/jeeves-coordinator/internal/coreerr"
)

// readRetired loads the existing retired_trajectory.json, tolerating
// absence and a malformed file (treated as empty — this is an
// observability trail, not a source of truth a caller depends on).
func readRetired(path string) ([]MemoryEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, coreerr.IOTransient("IO_READ_FAILED", "failed to read retired trajectory", err)
	}

	var entries []MemoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, nil
	}
	return entries, nil
}
