package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	ctxpkg "github.com/lightningmd/lightningmd/internal/context"
)

func newContextCmd() *cobra.Command {
	var (
		budget  int
		docMode bool
	)

	cmd := &cobra.Command{
		Use:   "context",
		Short: "Print the repository context that would be sent to the model",
		Long: `Assemble the repository section of the prompt without calling a provider.

By default this is the README context: the project profile, the directory
tree and either every file body or, when the bodies do not fit the token
budget, only the file names. With --docs the prioritized overview used for
documentation sets is printed instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, cfg, err := loadProject()
			if err != nil {
				return err
			}
			if budget > 0 {
				cfg.Context.Budget = budget
			}
			opts := repoOptions(root, cfg, cfg.ResolveModel(cfg.Profiles.Sprint))
			out := cmd.OutOrStdout()

			if docMode {
				_, text, err := ctxpkg.PrepareDocs(opts)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, text)
				return nil
			}

			repo, err := ctxpkg.PrepareRepo(opts)
			if err != nil {
				return err
			}
			section, err := repo.Section()
			if err != nil {
				return err
			}
			fmt.Fprintln(out, section)

			state := "full contents"
			if repo.Context.Truncated {
				state = "file names only"
			}
			fmt.Fprintf(os.Stderr, "\n--- %d / %d tokens, %s ---\n", repo.Context.TokenEstimate, repo.Context.Budget, state)
			return nil
		},
	}

	cmd.Flags().IntVar(&budget, "budget", 0, "token budget override (default: configured budget)")
	cmd.Flags().BoolVar(&docMode, "docs", false, "print the prioritized documentation overview instead")

	return cmd
}
