package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	ctxpkg "github.com/lightningmd/lightningmd/internal/context"
	"github.com/lightningmd/lightningmd/internal/scanner"
)

func newTokensCmd() *cobra.Command {
	var model string

	cmd := &cobra.Command{
		Use:   "tokens [file...]",
		Short: "Estimate token counts for files or the whole repository",
		Long: `Count tokens with the tokenizer of the given model. With no arguments the
scanned repository contents are measured, which is the figure compared
against the context budget.

Examples:
  lightningmd tokens
  lightningmd tokens --model gpt-4 README.md main.go`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, cfg, err := loadProject()
			if err != nil {
				return err
			}
			if model == "" {
				model = cfg.ResolveModel(cfg.Profiles.Sprint)
			}
			tok := ctxpkg.TokenizerFor(model)
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				report, err := scanner.Scan(scanner.ScanOptions{
					Root:             root,
					RespectGitignore: cfg.Scan.RespectGitignore,
					Exclude:          cfg.Scan.Exclude,
				})
				if err != nil {
					return err
				}
				n := ctxpkg.EstimateTokens(report.Contents.JSON(), model)
				fmt.Fprintf(out, "%d tokens across %d files (%s, %s)\n", n, report.Processed, model, tok.Encoding())
				return nil
			}

			total := 0
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				n := ctxpkg.EstimateTokens(string(data), model)
				total += n
				fmt.Fprintf(out, "%8d  %s\n", n, path)
			}
			if len(args) > 1 {
				fmt.Fprintf(out, "%8d  total\n", total)
			}
			fmt.Fprintf(out, "(%s, %s)\n", model, tok.Encoding())
			return nil
		},
	}

	cmd.Flags().StringVarP(&model, "model", "m", "", "model whose tokenizer is used (default: configured model)")

	return cmd
}
