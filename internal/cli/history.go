package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lightningmd/lightningmd/internal/config"
	"github.com/lightningmd/lightningmd/internal/history"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect previously generated documents",
		Long: `Successful generations are recorded in .lightningmd/history.db together with
the provider, model and a fingerprint of the repository contents they were
generated from.`,
	}
	cmd.AddCommand(newHistoryListCmd(), newHistoryShowCmd())
	return cmd
}

func newHistoryListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded generations, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeFn, err := openExistingHistory()
			if err != nil {
				return err
			}
			defer closeFn()

			gens, err := store.List(limit)
			if err != nil {
				return err
			}
			if len(gens) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No generations recorded yet.")
				return nil
			}
			total, err := store.Count()
			if err != nil {
				return err
			}
			writeHistoryTable(cmd.OutOrStdout(), gens, total)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum entries to list (0 for all)")

	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|kind>",
		Short: "Print a recorded document by ID, or the latest one of a kind",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeFn, err := openExistingHistory()
			if err != nil {
				return err
			}
			defer closeFn()

			g, err := store.Get(args[0])
			if errors.Is(err, history.ErrNotFound) {
				g, err = store.Latest(args[0])
			}
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), g.Content)
			return nil
		},
	}
}

// openExistingHistory opens the history database without creating one.
func openExistingHistory() (*history.Store, func(), error) {
	root, err := findRoot()
	if err != nil {
		return nil, nil, err
	}
	if _, err := os.Stat(config.HistoryDBPath(root)); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("no history in %s; run `lightningmd readme` first", root)
	}
	return openHistory(root)
}

// writeHistoryTable prints gens as a table. When total is larger than the
// listed entries a footer says how many were left out.
func writeHistoryTable(w io.Writer, gens []history.Generation, total int) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tPROVIDER\tMODEL\tTOKENS\tCREATED")
	for _, g := range gens {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			g.ID, g.Kind, g.Provider, g.Model, g.PromptTokens, g.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	tw.Flush()
	if total > len(gens) {
		fmt.Fprintf(w, "\nShowing %d of %d generations; use --limit 0 for all.\n", len(gens), total)
	}
}
