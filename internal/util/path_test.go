package util

import "testing"

func TestIsRootPath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{name: "empty_string", input: "", expected: true},
		{name: "dot", input: ".", expected: true},
		{name: "dot_slash", input: "./", expected: true},
		{name: "dot_backslash", input: ".\\", expected: true},
		{name: "multiple_trailing_slashes", input: ".///", expected: true},
		{name: "single_slash", input: "/", expected: true},
		{name: "single_backslash", input: "\\", expected: true},
		{name: "backend", input: "backend", expected: false},
		{name: "backend_with_slash", input: "backend/", expected: false},
		{name: "backend_with_backslash", input: "backend\\", expected: false},
		{name: "relative_path", input: "./backend", expected: false},
		{name: "nested_path", input: "backend/internal", expected: false},
		{name: "dot_dot", input: "..", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := IsRootPath(tt.input); result != tt.expected {
				t.Errorf("IsRootPath(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "backslashes_to_forward", input: `SRC\Main.go`, expected: "src/main.go"},
		{name: "strips_leading_dot_slash", input: "./src/main.go", expected: "src/main.go"},
		{name: "mixed_slashes", input: `backend\internal/foo.go`, expected: "backend/internal/foo.go"},
		{name: "lowercases", input: "README.md", expected: "readme.md"},
		{name: "already_normalized", input: "backend/internal", expected: "backend/internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := NormalizePath(tt.input); result != tt.expected {
				t.Errorf("NormalizePath(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestPathsEqual(t *testing.T) {
	if !PathsEqual("backend/internal", "backend/internal") {
		t.Error("PathsEqual should return true for identical paths")
	}
	if !PathsEqual("backend/internal", "backend\\internal") {
		t.Error("PathsEqual should return true for paths with different slashes")
	}
	if !PathsEqual("./backend", "backend") {
		t.Error("PathsEqual should return true for paths with/without leading ./")
	}
	if !PathsEqual("Backend/Internal", "backend/internal") {
		t.Error("PathsEqual should be case-insensitive")
	}
	if PathsEqual("backend", "frontend") {
		t.Error("PathsEqual should return false for different paths")
	}
}
