package context

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/lightningmd/lightningmd/internal/scanner"
)

// DefaultBudget is the token ceiling for inlining full file contents.
const DefaultBudget = 50000

// Stage tells how far a request has progressed through the pipeline.
type Stage int

const (
	StageEmpty Stage = iota
	StageScanned
	StageAssembled
)

func (s Stage) String() string {
	switch s {
	case StageEmpty:
		return "empty"
	case StageScanned:
		return "scanned"
	case StageAssembled:
		return "assembled"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// ErrNotReady is returned by Ready when a request has not reached the
// assembled stage.
var ErrNotReady = errors.New("context not ready")

// Ready reports whether a generation may start from stage.
func Ready(stage Stage) error {
	if stage < StageAssembled {
		return fmt.Errorf("%w: repository is %s, want %s", ErrNotReady, stage, StageAssembled)
	}
	return nil
}

// AssembleOptions controls Assemble.
type AssembleOptions struct {
	Budget int    // token ceiling for full contents; DefaultBudget when zero
	Model  string // model whose tokenizer estimates the cost
}

// PromptContext is the bounded repository payload for one generation.
type PromptContext struct {
	Tree          string
	Files         scanner.RepoContents // nil when Truncated
	FileNames     []string
	TokenEstimate int
	Budget        int
	Truncated     bool
}

// Stage reports StageAssembled for a built context.
func (p PromptContext) Stage() Stage { return StageAssembled }

// Assemble decides whether the full contents fit the budget. The estimate is
// taken over the canonical JSON form of contents. When it reaches the budget
// only the tree and file names are kept.
func Assemble(contents scanner.RepoContents, tree string, opts AssembleOptions) PromptContext {
	budget := opts.Budget
	if budget <= 0 {
		budget = DefaultBudget
	}

	estimate := EstimateTokens(contents.JSON(), opts.Model)
	pc := PromptContext{
		Tree:          tree,
		FileNames:     contents.Paths(),
		TokenEstimate: estimate,
		Budget:        budget,
	}

	if estimate < budget {
		files := make(scanner.RepoContents, len(contents))
		for k, v := range contents {
			files[k] = v
		}
		pc.Files = files
		return pc
	}

	pc.Truncated = true
	log.Warn().
		Int("tokens", estimate).
		Int("budget", budget).
		Msg("repository content over budget, sending structure only")
	return pc
}

// Render builds the repository section of a user prompt.
func (p PromptContext) Render(header string) string {
	var b strings.Builder
	if header != "" {
		b.WriteString(strings.TrimRight(header, "\n"))
		b.WriteString("\n\n")
	}
	b.WriteString("### Repository Contents:\n")

	if p.Tree != "" {
		fmt.Fprintf(&b, "\n### Repository Structure:\n```\n%s\n```\n", p.Tree)
	}

	if !p.Truncated {
		b.WriteString("\n### File Contents:\n")
		for _, path := range readmeFirst(p.Files.Paths()) {
			fmt.Fprintf(&b, "\n#### %s\n```%s\n%s\n```\n", path, scanner.FenceLanguage(path), p.Files[path])
		}
		return b.String()
	}

	fmt.Fprintf(&b, "\n_Repository content is too large (%d tokens, budget %d). Only file names are included._\n", p.TokenEstimate, p.Budget)
	b.WriteString("\n### Files in repository:\n")
	for _, path := range p.FileNames {
		fmt.Fprintf(&b, "- %s\n", path)
	}
	return b.String()
}

// readmeFirst moves README-like paths to the front, keeping both groups in
// their existing order.
func readmeFirst(paths []string) []string {
	out := make([]string, 0, len(paths))
	var rest []string
	for _, p := range paths {
		if scanner.IsReadme(p) {
			out = append(out, p)
			continue
		}
		rest = append(rest, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		// Root README before nested ones.
		return strings.Count(out[i], "/") < strings.Count(out[j], "/")
	})
	return append(out, rest...)
}
