package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lightningmd/lightningmd/internal/scanner"
)

func newTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Print the repository directory tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := findRoot()
			if err != nil {
				return err
			}
			tree, err := scanner.RenderTree(root)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tree)
			return nil
		},
	}
}
