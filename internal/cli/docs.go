package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	ctxpkg "github.com/lightningmd/lightningmd/internal/context"
	"github.com/lightningmd/lightningmd/internal/docs"
	"github.com/lightningmd/lightningmd/internal/history"
	"github.com/lightningmd/lightningmd/internal/scanner"
)

func newDocsCmd() *cobra.Command {
	var (
		sampling samplingFlags
		kinds    []string
		outDir   string
	)

	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Generate a documentation set",
		Long: fmt.Sprintf(`Generate documentation files from a prioritized overview of the repository.

Kinds: %s. The index page is produced first whenever any other
documentation page is requested. Each kind is written to its own file under
--out; a kind that fails leaves its existing file untouched and the rest
continue.

Examples:
  lightningmd docs
  lightningmd docs --kinds api,guides --out site/docs`, strings.Join(docs.ValidKinds(), ", ")),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, cfg, err := loadProject()
			if err != nil {
				return err
			}

			resolved, err := docs.Resolve(kinds)
			if err != nil {
				return err
			}

			profile := cfg.Profiles.Draft
			sampling.apply(cmd.Flags(), &cfg, &profile)
			genCfg, err := cfg.GenerationConfig(profile)
			if err != nil {
				return err
			}

			report, overview, err := ctxpkg.PrepareDocs(repoOptions(root, cfg, genCfg.Model))
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Analyzed %d of %d files (%.1f%%)\n", report.FileCount, report.TotalFiles, report.AnalyzedPercentage)

			client, err := newClient(cfg)
			if err != nil {
				return err
			}
			promptTokens := ctxpkg.EstimateTokens(overview, genCfg.Model)
			if w := contextWindowWarning(client.Info(), promptTokens); w != "" {
				fmt.Fprintln(os.Stderr, warningStyle.Render(w))
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if !filepath.IsAbs(outDir) {
				outDir = filepath.Join(root, outDir)
			}

			stopSpinner := startSpinner("  Generating documentation")
			outcomes := docs.NewGenerator(client, ctxpkg.SystemPrompt).Generate(ctx, resolved, overview, genCfg)
			stopSpinner()

			out := cmd.OutOrStdout()
			failed := 0
			for _, o := range outcomes {
				if o.Result.Failed() {
					failed++
					fmt.Fprintf(out, "  ✗ %-9s %s\n", o.Kind.Name, o.Result.Error)
					continue
				}

				dir := outDir
				if o.Kind.Name == "readme" {
					dir = root
				}
				path, err := docs.Write(dir, o)
				if err != nil {
					failed++
					fmt.Fprintf(out, "  ✗ %-9s %v\n", o.Kind.Name, err)
					continue
				}
				fmt.Fprintf(out, "  ✓ %-9s %s (%s)\n", o.Kind.Name, path, o.Duration.Round(100*time.Millisecond))

				recordGeneration(root, history.Generation{
					Kind:         o.Kind.Name,
					Provider:     client.Provider(),
					Model:        genCfg.Model,
					Fingerprint:  scanner.Fingerprint(report.Contents),
					PromptTokens: promptTokens,
				}, o.Result)
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d documents failed", failed, len(outcomes))
			}
			return nil
		},
	}

	sampling.register(cmd.Flags())
	cmd.Flags().StringSliceVarP(&kinds, "kinds", "k", []string{"api", "examples", "guides"}, "documentation kinds to generate")
	cmd.Flags().StringVarP(&outDir, "out", "o", "docs", "output directory, relative to the repository root")

	return cmd
}
