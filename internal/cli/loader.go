package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rkellner/notefire/internal/engine"
)

// LoadDocuments expands the glob patterns and reads every matched file.
//
// Matches are deduplicated and sorted so the processing order (and
// therefore report order) is stable regardless of glob evaluation order.
// A pattern that matches nothing is not an error on its own; matching
// nothing across all patterns is.
func LoadDocuments(globs []string) ([]engine.Document, error) {
	if len(globs) == 0 {
		return nil, fmt.Errorf("no document patterns configured")
	}

	seen := make(map[string]bool)
	var paths []string
	for _, pattern := range globs {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad document pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil {
				return nil, fmt.Errorf("stat %s: %w", m, err)
			}
			if info.IsDir() || seen[m] {
				continue
			}
			seen[m] = true
			paths = append(paths, m)
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no documents matched %v", globs)
	}
	sort.Strings(paths)

	docs := make([]engine.Document, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read document %s: %w", p, err)
		}
		docs = append(docs, engine.Document{Path: p, Text: string(data)})
	}
	return docs, nil
}
