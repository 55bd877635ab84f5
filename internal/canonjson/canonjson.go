// Package canonjson produces the canonical JSON encoding every managed
// document in the coordinator uses: UTF-8, no BOM, object keys sorted
// lexicographically for stable diffs, two-space indent, trailing newline.
package canonjson

import "encoding/json"

// Marshal encodes v and re-sorts its object keys. Go's encoding/json already
// sorts map[string]any keys lexicographically when marshaling, so the
// simplest way to guarantee sorted keys regardless of a struct's field
// declaration order is a round-trip through a generic value.
func Marshal(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}

	out, err := json.MarshalIndent(generic, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}
