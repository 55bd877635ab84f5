package diagnostics

import "github.com/hansjm10/jeeves-coordinator/internal/canonjson"

const defaultMaxMatches = 200

// grepKey builds the stable de-duplication key for a grep call's input:
// canonical (sorted-key) JSON of pattern, patterns, path, context_lines
// (truncated to int), and max_matches (truncated to int, defaulting to
// 200 when absent).
func grepKey(input map[string]any) string {
	key := map[string]any{
		"pattern":       asStringOrNil(input["pattern"]),
		"patterns":      input["patterns"],
		"path":          asStringOrNil(input["path"]),
		"context_lines": truncInt(input["context_lines"], 0),
		"max_matches":   truncInt(input["max_matches"], defaultMaxMatches),
	}
	data, err := canonjson.Marshal(key)
	if err != nil {
		return ""
	}
	return string(data)
}

func asStringOrNil(v any) any {
	if v == nil {
		return nil
	}
	if s, ok := v.(string); ok {
		return s
	}
	return nil
}

func truncInt(v any, defaultValue int) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return defaultValue
	}
}
