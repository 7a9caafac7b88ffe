package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// DefaultMaxFiles caps how many files a priority scan analyses.
const DefaultMaxFiles = 50

// PriorityOptions controls ScanPriority.
type PriorityOptions struct {
	Root     string
	MaxFiles int
	Exclude  []string
}

// PriorityReport is the result of a capped, ordered scan used to build
// documentation context.
type PriorityReport struct {
	Contents           RepoContents
	Order              []string // analysed paths in priority order
	FileCount          int
	TotalFiles         int
	AnalyzedPercentage float64
	Errors             map[string]error
}

// ScanPriority collects at most MaxFiles readable files, README files at the
// root first, then source code, then web and config files, then docs.
func ScanPriority(opts PriorityOptions) (PriorityReport, error) {
	root := opts.Root
	if err := checkRoot(root); err != nil {
		return PriorityReport{}, err
	}
	maxFiles := opts.MaxFiles
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}
	exclude := newExcludeSet(opts.Exclude, excludedDirs, priorityExcludedDirs)

	type candidate struct {
		rel  string
		rank int
	}
	var (
		readmes    []string
		candidates []candidate
	)

	report := PriorityReport{
		Contents: RepoContents{},
		Errors:   map[string]error{},
	}

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if err != nil {
			if rel == "." {
				return err
			}
			report.Errors[rel] = err
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if rel == "." {
			return nil
		}
		if d.IsDir() {
			if exclude.skip(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if IsHidden(d.Name()) {
			return nil
		}

		rank := priorityRank(rel)
		if rank < 0 {
			return nil
		}
		report.TotalFiles++
		if !strings.Contains(rel, "/") && IsReadme(rel) {
			readmes = append(readmes, rel)
			return nil
		}
		candidates = append(candidates, candidate{rel: rel, rank: rank})
		return nil
	})
	if walkErr != nil {
		return PriorityReport{}, fmt.Errorf("walk %s: %w", root, walkErr)
	}

	sort.Strings(readmes)
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].rank != candidates[j].rank {
			return candidates[i].rank < candidates[j].rank
		}
		return candidates[i].rel < candidates[j].rel
	})

	ordered := make([]string, 0, len(readmes)+len(candidates))
	ordered = append(ordered, readmes...)
	for _, c := range candidates {
		ordered = append(ordered, c.rel)
	}

	for _, rel := range ordered {
		if report.FileCount >= maxFiles {
			break
		}
		content, err := readText(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			report.Errors[rel] = err
			log.Debug().Str("path", rel).Err(err).Msg("priority skip")
			continue
		}
		report.Contents[rel] = content
		report.Order = append(report.Order, rel)
		report.FileCount++
	}

	report.AnalyzedPercentage = 100
	if report.TotalFiles > 0 {
		report.AnalyzedPercentage = float64(report.FileCount) / float64(report.TotalFiles) * 100
	}

	log.Info().
		Int("analyzed", report.FileCount).
		Int("total", report.TotalFiles).
		Msg("priority scan complete")

	return report, nil
}

// errBinary marks a file rejected by the text detector.
var errBinary = errors.New("binary content")

func readText(path string) (string, error) {
	if IsBinaryExtension(path) {
		return "", errBinary
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	det := DetectFile(path, raw)
	if !det.IsText {
		return "", errBinary
	}
	return det.Content, nil
}
