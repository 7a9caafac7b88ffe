// Package config manages global (~/.config/lightningmd/config.toml) and
// per-project (.lightningmd/config.toml) configuration for lightningmd.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/lightningmd/lightningmd/internal/adapter"
)

// DirName is the per-project state directory. Hidden, so scans skip it.
const DirName = ".lightningmd"

// GlobalConfig holds user-wide settings.
type GlobalConfig struct {
	Provider string         `toml:"provider"`
	Model    string         `toml:"model"`
	Keys     KeysConfig     `toml:"keys"`
	Ollama   OllamaConfig   `toml:"ollama"`
	HTTP     HTTPConfig     `toml:"http"`
	Context  ContextConfig  `toml:"context"`
	Scan     ScanConfig     `toml:"scan"`
	Profiles ProfilesConfig `toml:"profiles"`
	Output   OutputConfig   `toml:"output"`
}

type KeysConfig struct {
	Anthropic string `toml:"anthropic"`
	OpenAI    string `toml:"openai"`
	Gemini    string `toml:"gemini"`
}

type OllamaConfig struct {
	Host string `toml:"host"`
}

type HTTPConfig struct {
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// ContextConfig bounds prompt assembly.
type ContextConfig struct {
	Budget    int `toml:"budget"`     // token budget for the whole repository section
	CharLimit int `toml:"char_limit"` // per-file ceiling in docs mode
	MaxFiles  int `toml:"max_files"`  // priority scan cap
}

type ScanConfig struct {
	RespectGitignore bool     `toml:"respect_gitignore"`
	Exclude          []string `toml:"exclude"`
}

type OutputConfig struct {
	Stream bool `toml:"stream"`
	Color  bool `toml:"color"`
}

// Profile is a stored sampling configuration. An empty Model falls back to
// the configured model, then to the provider default.
type Profile struct {
	Model            string   `toml:"model"`
	Temperature      float64  `toml:"temperature"`
	TopP             float64  `toml:"top_p"`
	MaxTokens        int      `toml:"max_tokens"`
	PresencePenalty  float64  `toml:"presence_penalty"`
	FrequencyPenalty float64  `toml:"frequency_penalty"`
	Seed             *int     `toml:"seed"`
	Stop             []string `toml:"stop"`
}

// ProfilesConfig holds the two generation modes.
type ProfilesConfig struct {
	Sprint Profile `toml:"sprint"`
	Draft  Profile `toml:"draft"`
}

// ProjectConfig holds per-project overrides stored in .lightningmd/config.toml.
type ProjectConfig struct {
	Provider string      `toml:"provider"`
	Model    string      `toml:"model"`
	Project  ProjectMeta `toml:"project"`
	Exclude  []string    `toml:"exclude"`
	Budget   int         `toml:"budget"`
}

type ProjectMeta struct {
	Name string `toml:"name"`
}

func defaultProfile() Profile {
	return Profile{
		Temperature: 0.5,
		TopP:        0.85,
		MaxTokens:   adapter.DefaultMaxTokens,
	}
}

// DefaultGlobal returns sensible defaults. Each call returns a fresh value.
func DefaultGlobal() GlobalConfig {
	return GlobalConfig{
		Provider: adapter.ProviderOpenAI,
		Model:    "gpt-4o-mini",
		Ollama: OllamaConfig{
			Host: "http://localhost:11434",
		},
		HTTP: HTTPConfig{
			TimeoutSeconds: int(adapter.DefaultTimeout / time.Second),
		},
		Context: ContextConfig{
			Budget:    50000,
			CharLimit: 5000,
			MaxFiles:  50,
		},
		Profiles: ProfilesConfig{
			Sprint: defaultProfile(),
			Draft:  defaultProfile(),
		},
		Output: OutputConfig{
			Stream: false,
			Color:  true,
		},
	}
}

// GlobalConfigPath returns the path to the global config file.
func GlobalConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "lightningmd", "config.toml"), nil
}

// LoadGlobal loads the global config, applying defaults for any missing
// values, then environment overrides.
func LoadGlobal() (GlobalConfig, error) {
	cfg := DefaultGlobal()

	path, err := GlobalConfigPath()
	if err != nil {
		applyEnv(&cfg)
		return cfg, nil // Defaults if we can't determine home dir.
	}

	if err := decodeIfExists(path, &cfg); err != nil {
		return cfg, fmt.Errorf("config: load global: %w", err)
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv lets env vars override keys, provider and model.
func applyEnv(cfg *GlobalConfig) {
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.Keys.Anthropic = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Keys.OpenAI = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Keys.Gemini = v
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		cfg.Ollama.Host = v
	}
	if v := os.Getenv("LIGHTNINGMD_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("LIGHTNINGMD_MODEL"); v != "" {
		cfg.Model = v
	}
}

func decodeIfExists(path string, v any) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	_, err := toml.DecodeFile(path, v)
	return err
}

// SaveGlobal writes the global config to disk.
func SaveGlobal(cfg GlobalConfig) error {
	path, err := GlobalConfigPath()
	if err != nil {
		return err
	}
	return writeTOML(path, cfg)
}

// LoadProject loads .lightningmd/config.toml from the given project root.
func LoadProject(root string) (ProjectConfig, error) {
	var cfg ProjectConfig
	if err := decodeIfExists(ProjectConfigPath(root), &cfg); err != nil {
		return cfg, fmt.Errorf("config: load project: %w", err)
	}
	return cfg, nil
}

// SaveProject writes the project config to .lightningmd/config.toml.
func SaveProject(root string, cfg ProjectConfig) error {
	return writeTOML(ProjectConfigPath(root), cfg)
}

func writeTOML(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: mkdir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("config: create %s: %w", path, err)
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(v)
}

// ProjectDirPath returns the path to the project's .lightningmd/ directory.
func ProjectDirPath(root string) string {
	return filepath.Join(root, DirName)
}

// ProjectConfigPath returns the path to the project config file.
func ProjectConfigPath(root string) string {
	return filepath.Join(root, DirName, "config.toml")
}

// HistoryDBPath returns the path to the project's generation history.
func HistoryDBPath(root string) string {
	return filepath.Join(root, DirName, "history.db")
}

// LoadDotEnv loads .env from the working directory and from root, in that
// order. Variables already set in the environment are never overwritten.
func LoadDotEnv(root string) error {
	var files []string
	seen := map[string]bool{}
	for _, dir := range []string{".", root} {
		if dir == "" {
			continue
		}
		path, err := filepath.Abs(filepath.Join(dir, ".env"))
		if err != nil || seen[path] {
			continue
		}
		seen[path] = true
		if _, err := os.Stat(path); err == nil {
			files = append(files, path)
		}
	}
	if len(files) == 0 {
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("config: load .env: %w", err)
	}
	return nil
}

// Load returns the effective config for a project root: .env files, then
// global, then project overrides, then environment.
func Load(root string) (GlobalConfig, error) {
	if err := LoadDotEnv(root); err != nil {
		return DefaultGlobal(), err
	}

	global, err := LoadGlobal()
	if err != nil {
		return global, err
	}

	project, err := LoadProject(root)
	if err != nil {
		return global, err
	}
	if project.Provider != "" {
		global.Provider = project.Provider
	}
	if project.Model != "" {
		global.Model = project.Model
	}
	if project.Budget > 0 {
		global.Context.Budget = project.Budget
	}
	global.Scan.Exclude = append(global.Scan.Exclude, project.Exclude...)

	// Environment wins over the project file too.
	applyEnv(&global)
	return global, nil
}

// Timeout returns the HTTP timeout for provider calls.
func (c GlobalConfig) Timeout() time.Duration {
	if c.HTTP.TimeoutSeconds <= 0 {
		return adapter.DefaultTimeout
	}
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// ProviderOptions returns the adapter options for the configured provider.
func (c GlobalConfig) ProviderOptions() adapter.Options {
	opts := adapter.Options{Timeout: c.Timeout()}
	switch c.Provider {
	case adapter.ProviderClaude:
		opts.APIKey = c.Keys.Anthropic
	case adapter.ProviderOpenAI:
		opts.APIKey = c.Keys.OpenAI
	case adapter.ProviderGemini:
		opts.APIKey = c.Keys.Gemini
	case adapter.ProviderOllama:
		opts.BaseURL = c.Ollama.Host
	}
	return opts
}

// ResolveModel picks the model for a profile.
func (c GlobalConfig) ResolveModel(p Profile) string {
	switch {
	case p.Model != "":
		return p.Model
	case c.Model != "":
		return c.Model
	default:
		return adapter.DefaultModel(c.Provider)
	}
}

// GenerationConfig converts p into a validated adapter.GenerationConfig.
// Every call returns a new value.
func (c GlobalConfig) GenerationConfig(p Profile) (adapter.GenerationConfig, error) {
	opts := []adapter.Option{
		adapter.WithTemperature(p.Temperature),
		adapter.WithTopP(p.TopP),
		adapter.WithMaxTokens(p.MaxTokens),
		adapter.WithPresencePenalty(p.PresencePenalty),
		adapter.WithFrequencyPenalty(p.FrequencyPenalty),
		adapter.WithStop(p.Stop...),
	}
	if p.Seed != nil {
		opts = append(opts, adapter.WithSeed(*p.Seed))
	}
	return adapter.NewGenerationConfig(c.ResolveModel(p), opts...)
}
