package cli

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lightningmd/lightningmd/internal/adapter"
	"github.com/lightningmd/lightningmd/internal/config"
)

func newSetupCmd() *cobra.Command {
	var project bool

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Interactive first-time configuration",
		Long: `Choose an LLM provider, API key and default model, and store them in the
global config file. With --project, also create .lightningmd/config.toml in
the repository root for per-project overrides.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadGlobal()
			if err != nil {
				cfg = config.DefaultGlobal()
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Welcome to lightningmd! Let's configure your documentation provider.")
			fmt.Fprintln(out)

			runSetup(bufio.NewReader(cmd.InOrStdin()), out, &cfg)

			if err := config.SaveGlobal(cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			path, _ := config.GlobalConfigPath()
			fmt.Fprintf(out, "Configuration saved to %s\n", path)

			if project {
				root, err := findRoot()
				if err != nil {
					return err
				}
				pcfg, err := config.LoadProject(root)
				if err != nil {
					return err
				}
				if pcfg.Project.Name == "" {
					pcfg.Project.Name = filepath.Base(root)
				}
				if err := config.SaveProject(root, pcfg); err != nil {
					return fmt.Errorf("save project config: %w", err)
				}
				fmt.Fprintf(out, "Project config saved to %s\n", config.ProjectConfigPath(root))
			}

			fmt.Fprintln(out, "Run `lightningmd readme` in any project to get started.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&project, "project", false, "also create the project config in the repository root")

	return cmd
}

// runSetup asks the setup questions on r and applies the answers to cfg.
// An empty answer keeps the current value.
func runSetup(r *bufio.Reader, w io.Writer, cfg *config.GlobalConfig) {
	fmt.Fprintln(w, "Which LLM provider should write your docs?")
	fmt.Fprintln(w, "  [1] OpenAI")
	fmt.Fprintln(w, "  [2] Claude (Anthropic)")
	fmt.Fprintln(w, "  [3] Gemini (Google)")
	fmt.Fprintln(w, "  [4] Ollama (local)")
	fmt.Fprint(w, "> ")

	previous := cfg.Provider
	switch strings.TrimSpace(readLineBuf(r)) {
	case "1":
		cfg.Provider = adapter.ProviderOpenAI
	case "2":
		cfg.Provider = adapter.ProviderClaude
	case "3":
		cfg.Provider = adapter.ProviderGemini
	case "4":
		cfg.Provider = adapter.ProviderOllama
	case "":
	default:
		fmt.Fprintf(w, "Unrecognized choice; keeping %s.\n", cfg.Provider)
	}
	if cfg.Provider != previous {
		cfg.Model = adapter.DefaultModel(cfg.Provider)
	}

	switch cfg.Provider {
	case adapter.ProviderOpenAI:
		fmt.Fprint(w, "Enter your OpenAI API key (or press Enter to use OPENAI_API_KEY): ")
		if key := readLineBuf(r); key != "" {
			cfg.Keys.OpenAI = key
		}
	case adapter.ProviderClaude:
		fmt.Fprint(w, "Enter your Anthropic API key (or press Enter to use ANTHROPIC_API_KEY): ")
		if key := readLineBuf(r); key != "" {
			cfg.Keys.Anthropic = key
		}
	case adapter.ProviderGemini:
		fmt.Fprint(w, "Enter your Gemini API key (or press Enter to use GEMINI_API_KEY): ")
		if key := readLineBuf(r); key != "" {
			cfg.Keys.Gemini = key
		}
	case adapter.ProviderOllama:
		fmt.Fprintf(w, "Ollama host (press Enter for %s): ", cfg.Ollama.Host)
		if host := readLineBuf(r); host != "" {
			cfg.Ollama.Host = host
		}
	}

	fmt.Fprintf(w, "Model (press Enter for %s): ", cfg.Model)
	if model := readLineBuf(r); model != "" {
		cfg.Model = model
	}

	fmt.Fprintf(w, "Context token budget (press Enter for %d): ", cfg.Context.Budget)
	if s := readLineBuf(r); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			cfg.Context.Budget = n
		} else {
			fmt.Fprintf(w, "Invalid budget %q; keeping %d.\n", s, cfg.Context.Budget)
		}
	}
	fmt.Fprintln(w)
}

// readLineBuf reads a trimmed line from a bufio.Reader.
func readLineBuf(r *bufio.Reader) string {
	line, _ := r.ReadString('\n')
	return strings.TrimSpace(line)
}
