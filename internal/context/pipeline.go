package context

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/lightningmd/lightningmd/internal/git"
	"github.com/lightningmd/lightningmd/internal/scanner"
)

// RepoOptions selects a repository and how it is read and budgeted.
type RepoOptions struct {
	Root             string
	RespectGitignore bool
	Exclude          []string
	Budget           int    // DefaultBudget when zero
	Model            string // tokenizer model
	MaxFiles         int    // priority scan cap, docs mode only
	CharLimit        int    // per-file ceiling, docs mode only
}

// Repo is one repository on its way to a prompt.
type Repo struct {
	Report  scanner.ScanReport
	Tree    string
	Header  string
	Context PromptContext

	stage Stage
}

// Stage reports how far r has been prepared.
func (r *Repo) Stage() Stage {
	if r == nil {
		return StageEmpty
	}
	return r.stage
}

// PrepareRepo scans the repository, renders its tree, builds the project
// header and assembles the bounded prompt context.
func PrepareRepo(opts RepoOptions) (*Repo, error) {
	report, err := scanner.Scan(scanner.ScanOptions{
		Root:             opts.Root,
		RespectGitignore: opts.RespectGitignore,
		Exclude:          opts.Exclude,
	})
	if err != nil {
		return nil, err
	}
	r := &Repo{Report: report, stage: StageScanned}

	tree, err := scanner.RenderTree(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("render tree: %w", err)
	}
	r.Tree = tree
	r.Header = ProjectHeader(scanner.DetectStack(opts.Root), git.Describe(opts.Root))
	r.Context = Assemble(report.Contents, tree, AssembleOptions{Budget: opts.Budget, Model: opts.Model})
	r.stage = r.Context.Stage()

	log.Debug().
		Str("root", opts.Root).
		Int("files", report.Processed).
		Int("tokens", r.Context.TokenEstimate).
		Bool("truncated", r.Context.Truncated).
		Msg("repository prepared")
	return r, nil
}

// Section renders the repository part of the user prompt.
func (r *Repo) Section() (string, error) {
	if err := Ready(r.Stage()); err != nil {
		return "", err
	}
	return r.Context.Render(r.Header), nil
}

// SprintPrompt renders a quick-mode user prompt for request.
func (r *Repo) SprintPrompt(request string) (string, error) {
	section, err := r.Section()
	if err != nil {
		return "", err
	}
	return SprintPrompt(request, section), nil
}

// DraftPrompt renders a structured user prompt from req.
func (r *Repo) DraftPrompt(req DraftRequest) (string, error) {
	section, err := r.Section()
	if err != nil {
		return "", err
	}
	return req.DraftPrompt() + "\n\n" + section, nil
}

// PrepareDocs runs a priority scan and renders the repository overview used
// for documentation sets.
func PrepareDocs(opts RepoOptions) (scanner.PriorityReport, string, error) {
	report, err := scanner.ScanPriority(scanner.PriorityOptions{
		Root:     opts.Root,
		MaxFiles: opts.MaxFiles,
		Exclude:  opts.Exclude,
	})
	if err != nil {
		return report, "", err
	}
	text := FormatDocumentContext(report, DocumentOptions{
		CharLimit: opts.CharLimit,
		Budget:    opts.Budget,
		Model:     opts.Model,
	})
	return report, text, nil
}
