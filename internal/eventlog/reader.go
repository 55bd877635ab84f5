package eventlog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
)

// Filter selects a subset of events; a zero-value field is ignored.
type Filter struct {
	Component Component
	Level     Level
	SinceSeq  int
}

func (f Filter) matches(e Event) bool {
	if f.Component != "" && e.Component != f.Component {
		return false
	}
	if f.Level != "" && e.Level != f.Level {
		return false
	}
	if e.Seq <= f.SinceSeq {
		return false
	}
	return true
}

// Read loads every event in issueDir's events.jsonl matching filter, in
// file order. A malformed line is skipped rather than aborting the read —
// this is an observability trail, not a source of truth.
func Read(issueDir string, filter Filter) ([]Event, error) {
	path := filepath.Join(issueDir, ".ops", eventsFileName)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var e Event
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		if filter.matches(e) {
			events = append(events, e)
		}
	}
	return events, scanner.Err()
}
