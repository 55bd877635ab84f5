package secretstore

import "encoding/json"

// decode parses data as a JSON object. Any parse failure or non-object top
// level is reported as ok=false rather than an error: on the read path a
// malformed document is indistinguishable from "no secret here".
func decode(data []byte) (map[string]any, bool) {
	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, false
	}
	return record, true
}
