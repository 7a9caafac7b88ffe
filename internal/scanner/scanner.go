package scanner

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/zeebo/xxh3"
)

// ErrNotFound is returned when the scan root does not exist or is not a
// directory.
var ErrNotFound = errors.New("repository root not found")

// FileEntry is one readable text file captured by a scan.
type FileEntry struct {
	Path     string // forward-slash path relative to the scan root
	Content  string
	Encoding string
}

// RepoContents maps forward-slash relative paths to decoded file contents.
type RepoContents map[string]string

// Paths returns every key in lexical order.
func (c RepoContents) Paths() []string {
	paths := make([]string, 0, len(c))
	for p := range c {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// JSON returns the canonical serialization used for token accounting.
// encoding/json writes map keys sorted, so equal contents give equal output.
func (c RepoContents) JSON() string {
	if c == nil {
		return "{}"
	}
	b, err := json.Marshal(map[string]string(c))
	if err != nil {
		return "{}"
	}
	return string(b)
}

// ScanReport is the result of one full repository walk.
type ScanReport struct {
	Contents    RepoContents
	Entries     []FileEntry // sorted by Path
	TotalFiles  int
	Processed   int
	Skipped     int
	Errors      []error
	Fingerprint uint64
}

// ScanOptions controls scanner behaviour.
type ScanOptions struct {
	Root             string
	RespectGitignore bool
	Exclude          []string // extra directory names to prune
}

// Scan walks the repository tree and collects every readable text file.
// It never writes to disk. Per-file failures are recorded in the report and
// do not abort the walk.
func Scan(opts ScanOptions) (ScanReport, error) {
	root := opts.Root
	if err := checkRoot(root); err != nil {
		return ScanReport{}, err
	}

	var ignore *IgnoreMatcher
	if opts.RespectGitignore {
		ignore = NewIgnoreMatcher(root)
	}
	exclude := newExcludeSet(opts.Exclude, excludedDirs)

	report := ScanReport{Contents: RepoContents{}}

	skip := func(rel, reason string) {
		report.Skipped++
		log.Debug().Str("path", rel).Str("reason", reason).Msg("skip")
	}

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("walk %s: %w", rel, err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			if rel == "." {
				return err
			}
			report.TotalFiles++
			skip(rel, "unreadable")
			return nil
		}
		if rel == "." {
			return nil
		}

		if d.IsDir() {
			if exclude.skip(d.Name()) {
				log.Debug().Str("path", rel).Msg("prune directory")
				return filepath.SkipDir
			}
			return nil
		}

		report.TotalFiles++

		if IsHidden(d.Name()) {
			skip(rel, "hidden")
			return nil
		}
		if ignore != nil && ignore.Match(rel) {
			skip(rel, "gitignored")
			return nil
		}
		if IsBinaryExtension(d.Name()) {
			skip(rel, "binary extension")
			return nil
		}
		if !regularFile(path, d) {
			skip(rel, "not a regular file")
			return nil
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("read %s: %w", rel, err))
			skip(rel, "read error")
			return nil
		}

		det := DetectFile(d.Name(), raw)
		if !det.IsText {
			skip(rel, "binary content")
			return nil
		}

		report.Contents[rel] = det.Content
		report.Entries = append(report.Entries, FileEntry{Path: rel, Content: det.Content, Encoding: det.Encoding})
		report.Processed++
		return nil
	})
	if walkErr != nil {
		report.Errors = append(report.Errors, walkErr)
	}

	sort.Slice(report.Entries, func(i, j int) bool { return report.Entries[i].Path < report.Entries[j].Path })
	report.Fingerprint = Fingerprint(report.Contents)

	log.Info().
		Int("total", report.TotalFiles).
		Int("processed", report.Processed).
		Int("skipped", report.Skipped).
		Int("errors", len(report.Errors)).
		Msg("scan complete")

	return report, nil
}

// Fingerprint hashes contents in path order. Equal contents always give
// equal fingerprints.
func Fingerprint(contents RepoContents) uint64 {
	h := xxh3.New()
	for _, p := range contents.Paths() {
		_, _ = h.WriteString(p)
		_, _ = h.Write([]byte{0})
		_, _ = h.WriteString(contents[p])
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}

func checkRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNotFound, root)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrNotFound, root)
	}
	return nil
}

// regularFile reports whether path is a regular file, following a symlink
// once. Symlinked directories are never read.
func regularFile(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// FindProjectRoot walks up from startDir looking for a project root marker.
func FindProjectRoot(startDir string) (string, error) {
	markers := []string{".git", "go.mod", "package.json", "Gemfile", "Cargo.toml",
		"pyproject.toml", "requirements.txt", "pom.xml", "build.gradle"}

	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		for _, marker := range markers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir, nil // Fall back to cwd.
		}
		dir = parent
	}
}
