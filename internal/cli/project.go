package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/lightningmd/lightningmd/internal/adapter"
	"github.com/lightningmd/lightningmd/internal/config"
	ctxpkg "github.com/lightningmd/lightningmd/internal/context"
	"github.com/lightningmd/lightningmd/internal/db"
	"github.com/lightningmd/lightningmd/internal/history"
	"github.com/lightningmd/lightningmd/internal/logging"
)

var boxStyle, headerStyle, warningStyle lipgloss.Style

func init() { setColor(true) }

// setColor rebuilds the terminal styles. Without colour only the layout
// (border, padding, bold) is kept.
func setColor(enabled bool) {
	boxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	headerStyle = lipgloss.NewStyle().Bold(true)
	warningStyle = lipgloss.NewStyle()
	if enabled {
		boxStyle = boxStyle.BorderForeground(lipgloss.Color("69"))
		headerStyle = headerStyle.Foreground(lipgloss.Color("69"))
		warningStyle = warningStyle.Foreground(lipgloss.Color("11"))
	}
}

// applyOutput applies the [output] settings to styles and logging.
func applyOutput(o config.OutputConfig) {
	setColor(o.Color)
	logging.Setup(verboseFlag, o.Color, os.Stderr)
}

// loadProject resolves the repository root and its effective config.
func loadProject() (string, config.GlobalConfig, error) {
	root, err := findRoot()
	if err != nil {
		return "", config.GlobalConfig{}, err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return "", cfg, fmt.Errorf("load config: %w", err)
	}
	applyOutput(cfg.Output)
	return root, cfg, nil
}

// repoOptions maps the config onto pipeline options for root.
func repoOptions(root string, cfg config.GlobalConfig, model string) ctxpkg.RepoOptions {
	return ctxpkg.RepoOptions{
		Root:             root,
		RespectGitignore: cfg.Scan.RespectGitignore,
		Exclude:          cfg.Scan.Exclude,
		Budget:           cfg.Context.Budget,
		Model:            model,
		MaxFiles:         cfg.Context.MaxFiles,
		CharLimit:        cfg.Context.CharLimit,
	}
}

// newClient builds the provider client for the configured provider.
func newClient(cfg config.GlobalConfig) (*adapter.Client, error) {
	p, err := adapter.New(cfg.Provider, cfg.ProviderOptions())
	if err != nil {
		return nil, fmt.Errorf("init provider: %w", err)
	}
	return adapter.NewClient(p), nil
}

// contextWindowWarning describes a prompt larger than the model's context
// window. It returns "" when the prompt fits or the window is unknown.
func contextWindowWarning(info adapter.ModelInfo, promptTokens int) string {
	if info.MaxContextWindow <= 0 || promptTokens <= info.MaxContextWindow {
		return ""
	}
	return fmt.Sprintf("  prompt is about %d tokens; %s models accept %d, the provider may reject it",
		promptTokens, info.Provider, info.MaxContextWindow)
}

// openHistory opens the project's generation history.
func openHistory(root string) (*history.Store, func(), error) {
	database, err := db.Open(config.HistoryDBPath(root))
	if err != nil {
		return nil, nil, fmt.Errorf("open history: %w", err)
	}
	return history.NewStore(database), func() { database.Close() }, nil
}

// startSpinner shows an indeterminate spinner on stderr while a provider
// call runs. It is a no-op when stderr is not a terminal.
func startSpinner(description string) (stop func()) {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return func() {}
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
	)
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}()

	return func() {
		close(done)
		<-finished
		_ = bar.Finish()
	}
}
