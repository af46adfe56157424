// Package globhash implements hash_globs(root, patterns) -> digest: the
// source-tree fingerprint used to detect drift for source conda/pypi
// records (spec.md §4.4 step 6, I4/I5).
package globhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// HashGlobs computes a stable digest over every file under root matching
// any of patterns (doublestar glob syntax, e.g. "**/*.py"). The digest
// covers both the relative path and the file content of every match, so
// renames and content edits are both detected; matches are sorted first so
// the result is independent of filesystem iteration order.
func HashGlobs(root string, patterns []string) (string, error) {
	fsys := os.DirFS(root)

	matchSet := map[string]struct{}{}

	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return "", fmt.Errorf("globbing pattern %q under %s: %w", pattern, root, err)
		}

		for _, m := range matches {
			matchSet[m] = struct{}{}
		}
	}

	paths := make([]string, 0, len(matchSet))
	for p := range matchSet {
		paths = append(paths, p)
	}

	sort.Strings(paths)

	h := sha256.New()

	for _, p := range paths {
		info, err := fs.Stat(fsys, p)
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", p, err)
		}

		if info.IsDir() {
			continue
		}

		content, err := fs.ReadFile(fsys, p)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", p, err)
		}

		fmt.Fprintf(h, "%s\x00", p)
		h.Write(content)
		h.Write([]byte{0})
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
