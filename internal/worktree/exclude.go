package worktree

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// updateExcludeList appends any pattern not already present to
// .git/info/exclude, creating the file if needed. The update is append-only
// and deduplicated: re-running with the same patterns is a no-op.
func updateExcludeList(worktreeDir string, patterns []string) error {
	if len(patterns) == 0 {
		return nil
	}

	excludePath := filepath.Join(worktreeDir, excludeFileRelPath)
	if err := os.MkdirAll(filepath.Dir(excludePath), 0o755); err != nil {
		return err
	}

	existing, err := readLines(excludePath)
	if err != nil {
		return err
	}

	present := make(map[string]bool, len(existing))
	for _, line := range existing {
		present[line] = true
	}

	var toAppend []string
	for _, p := range patterns {
		if !present[p] {
			toAppend = append(toAppend, p)
			present[p] = true
		}
	}
	if len(toAppend) == 0 {
		return nil
	}

	f, err := os.OpenFile(excludePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	for _, p := range toAppend {
		if _, err := f.WriteString(p + "\n"); err != nil {
			return err
		}
	}
	return nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}
