// Package cli defines the Cobra command tree for the lightningmd CLI.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lightningmd/lightningmd/internal/logging"
	"github.com/lightningmd/lightningmd/internal/scanner"
)

var (
	// version, commit, date are set via -ldflags at build time.
	version = "dev"
	commit  = "unknown"
	date    = "unknown"

	rootFlag    string
	verboseFlag bool
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "lightningmd",
	Short: "Generate README files and documentation sets from a code repository",
	Long: `lightningmd reads a repository, assembles a token-bounded view of its
files, and asks an LLM provider (OpenAI, Claude, Gemini or Ollama) to write
its documentation.

Run 'lightningmd setup' once to choose a provider, then 'lightningmd readme'
inside any project.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup(verboseFlag, true, os.Stderr)
	},
}

// Execute runs the root command.
func Execute(v, c, d string) {
	version, commit, date = v, c, d
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", "", "repository root (default: nearest project root above the working directory)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging on stderr")

	rootCmd.AddCommand(
		newExamineCmd(),
		newTreeCmd(),
		newTokensCmd(),
		newContextCmd(),
		newReadmeCmd(),
		newDocsCmd(),
		newHistoryCmd(),
		newWatchCmd(),
		newMCPCmd(),
		newSetupCmd(),
		newVersionCmd(),
	)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lightningmd %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}

// findRoot returns the repository to work on: --root when given, otherwise
// the nearest project root above the working directory.
func findRoot() (string, error) {
	if rootFlag != "" {
		abs, err := filepath.Abs(rootFlag)
		if err != nil {
			return "", fmt.Errorf("resolve --root: %w", err)
		}
		info, err := os.Stat(abs)
		if err != nil || !info.IsDir() {
			return "", fmt.Errorf("%w: %s", scanner.ErrNotFound, abs)
		}
		return abs, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return scanner.FindProjectRoot(cwd)
}
