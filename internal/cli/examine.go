package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	ctxpkg "github.com/lightningmd/lightningmd/internal/context"
	"github.com/lightningmd/lightningmd/internal/scanner"
)

func newExamineCmd() *cobra.Command {
	var jsonPath string

	cmd := &cobra.Command{
		Use:   "examine",
		Short: "Scan the repository and summarize what a generation would see",
		Long: `Walk the repository, decode every readable text file, and print a summary
box followed by the directory tree. Binary and hidden files are counted as
skipped.

Examples:
  lightningmd examine
  lightningmd examine --root ../service --json contents.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, cfg, err := loadProject()
			if err != nil {
				return err
			}

			report, err := scanner.Scan(scanner.ScanOptions{
				Root:             root,
				RespectGitignore: cfg.Scan.RespectGitignore,
				Exclude:          cfg.Scan.Exclude,
			})
			if err != nil {
				return err
			}
			tree, err := scanner.RenderTree(root)
			if err != nil {
				return fmt.Errorf("render tree: %w", err)
			}

			model := cfg.ResolveModel(cfg.Profiles.Sprint)
			pc := ctxpkg.Assemble(report.Contents, tree, ctxpkg.AssembleOptions{Budget: cfg.Context.Budget, Model: model})

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, boxStyle.Render(scanSummary(root, scanner.DetectStack(root), report, pc)))
			fmt.Fprintln(out)
			fmt.Fprintln(out, tree)

			for _, e := range report.Errors {
				fmt.Fprintln(os.Stderr, warningStyle.Render(fmt.Sprintf("  warning: %v", e)))
			}

			if jsonPath != "" {
				if err := os.WriteFile(jsonPath, []byte(report.Contents.JSON()), 0o644); err != nil {
					return fmt.Errorf("write %s: %w", jsonPath, err)
				}
				fmt.Fprintf(out, "Contents written to %s\n", jsonPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&jsonPath, "json", "", "write the scanned contents as JSON to this file")

	return cmd
}

// scanSummary renders the body of the examine box.
func scanSummary(root string, stack scanner.Stack, report scanner.ScanReport, pc ctxpkg.PromptContext) string {
	fit := "fits"
	if pc.Truncated {
		fit = "over budget, file names only"
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("Repository scan"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Root:        %s\n", root)
	fmt.Fprintf(&b, "Stack:       %s\n", stack)
	fmt.Fprintf(&b, "Files:       %d total, %d processed, %d skipped\n", report.TotalFiles, report.Processed, report.Skipped)
	fmt.Fprintf(&b, "Fingerprint: %016x\n", report.Fingerprint)
	fmt.Fprintf(&b, "Tokens:      %d / %d (%s)", pc.TokenEstimate, pc.Budget, fit)
	return b.String()
}
