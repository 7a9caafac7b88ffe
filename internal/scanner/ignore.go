package scanner

import (
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// IgnoreMatcher wraps a gitignore pattern matcher.
type IgnoreMatcher struct {
	gi *gitignore.GitIgnore
}

// NewIgnoreMatcher loads .gitignore from the repository root.
// If no .gitignore file is found, the matcher accepts everything.
func NewIgnoreMatcher(root string) *IgnoreMatcher {
	path := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(path); err != nil {
		return &IgnoreMatcher{}
	}
	gi, err := gitignore.CompileIgnoreFile(path)
	if err != nil {
		return &IgnoreMatcher{}
	}
	return &IgnoreMatcher{gi: gi}
}

// Match returns true if the given slash-separated relative path is ignored.
func (m *IgnoreMatcher) Match(relPath string) bool {
	if m == nil || m.gi == nil {
		return false
	}
	return m.gi.MatchesPath(relPath)
}

// excludedDirs are never descended into, by the scanner or the tree renderer.
var excludedDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"node_modules": true,
}

// priorityExcludedDirs are additionally skipped by the priority walk, which
// feeds documentation generation and must not read back generated docs.
var priorityExcludedDirs = map[string]bool{
	"docs":        true,
	"__pycache__": true,
	"venv":        true,
}

// IsHidden reports whether a file or directory name starts with a dot.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// ExcludedDir returns true if the directory name is always skipped.
func ExcludedDir(name string) bool {
	return IsHidden(name) || excludedDirs[name]
}

// excludeSet merges caller-supplied directory names into one lookup.
type excludeSet map[string]bool

func newExcludeSet(extra []string, base ...map[string]bool) excludeSet {
	set := excludeSet{}
	for _, b := range base {
		for k := range b {
			set[k] = true
		}
	}
	for _, name := range extra {
		name = strings.Trim(strings.TrimSpace(name), "/")
		if name != "" {
			set[name] = true
		}
	}
	return set
}

func (s excludeSet) skip(name string) bool {
	return IsHidden(name) || s[name]
}
