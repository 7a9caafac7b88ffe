package cli

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/pflag"

	"github.com/lightningmd/lightningmd/internal/adapter"
	"github.com/lightningmd/lightningmd/internal/config"
	ctxpkg "github.com/lightningmd/lightningmd/internal/context"
	"github.com/lightningmd/lightningmd/internal/db"
	"github.com/lightningmd/lightningmd/internal/history"
	"github.com/lightningmd/lightningmd/internal/scanner"
)

// isolate points HOME at a temp dir and clears the env overrides.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, k := range []string{
		"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY", "OLLAMA_HOST",
		"LIGHTNINGMD_PROVIDER", "LIGHTNINGMD_MODEL",
	} {
		t.Setenv(k, "")
	}
}

func newRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"go.mod":          "module example.com/demo\n\ngo 1.23\n",
		"main.go":         "package main\n\nfunc main() {}\n",
		"README.md":       "# Demo\n",
		"internal/app.go": "package internal\n",
	}
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

// run executes the command tree with args and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		rootFlag = ""
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	version, commit, date = "1.2.3", "abc123", "2026-01-01"
	t.Cleanup(func() { version, commit, date = "dev", "unknown", "unknown" })

	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if out != "lightningmd 1.2.3 (commit abc123, built 2026-01-01)\n" {
		t.Errorf("output = %q", out)
	}
}

func TestFindRoot_Flag(t *testing.T) {
	dir := t.TempDir()
	rootFlag = dir
	t.Cleanup(func() { rootFlag = "" })

	got, err := findRoot()
	if err != nil {
		t.Fatalf("findRoot: %v", err)
	}
	if got != dir {
		t.Errorf("findRoot = %q, want %q", got, dir)
	}

	rootFlag = filepath.Join(dir, "missing")
	if _, err := findRoot(); err == nil || !strings.Contains(err.Error(), scanner.ErrNotFound.Error()) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestTreeCmd(t *testing.T) {
	isolate(t)
	root := newRepo(t)

	out, err := run(t, "tree", "--root", root)
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	if !strings.HasPrefix(out, filepath.Base(root)+"/\n") {
		t.Errorf("tree should start with the root name:\n%s", out)
	}
	if !strings.Contains(out, "├── internal/\n│   └── app.go") {
		t.Errorf("tree missing nested entry:\n%s", out)
	}
}

func TestExamineCmd_JSON(t *testing.T) {
	isolate(t)
	root := newRepo(t)
	jsonPath := filepath.Join(t.TempDir(), "contents.json")

	out, err := run(t, "examine", "--root", root, "--json", jsonPath)
	if err != nil {
		t.Fatalf("examine: %v", err)
	}
	if !strings.Contains(out, "4 total, 4 processed, 0 skipped") {
		t.Errorf("summary missing counts:\n%s", out)
	}
	if !strings.Contains(out, "Stack:       Go") {
		t.Errorf("summary missing stack:\n%s", out)
	}

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("read json: %v", err)
	}
	var contents map[string]string
	if err := json.Unmarshal(data, &contents); err != nil {
		t.Fatalf("json: %v", err)
	}
	if contents["internal/app.go"] != "package internal\n" {
		t.Errorf("contents = %v", contents)
	}
}

func TestScanSummary_OverBudget(t *testing.T) {
	report := scanner.ScanReport{TotalFiles: 3, Processed: 2, Skipped: 1, Fingerprint: 0xab}
	got := scanSummary("/repo", scanner.Stack{Language: "Python"}, report, ctxpkg.PromptContext{TokenEstimate: 120, Budget: 100, Truncated: true})

	for _, want := range []string{
		"Root:        /repo",
		"Stack:       Python",
		"3 total, 2 processed, 1 skipped",
		"Fingerprint: 00000000000000ab",
		"120 / 100 (over budget, file names only)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("summary missing %q:\n%s", want, got)
		}
	}
}

func TestSamplingFlags_Apply(t *testing.T) {
	var s samplingFlags
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	s.register(fs)
	if err := fs.Parse([]string{"--provider", "claude", "--temperature", "0", "--seed", "7", "--stop", "END"}); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultGlobal()
	p := cfg.Profiles.Sprint
	s.apply(fs, &cfg, &p)

	if cfg.Provider != adapter.ProviderClaude || cfg.Model != "" {
		t.Errorf("provider/model = %q/%q", cfg.Provider, cfg.Model)
	}
	if p.Temperature != 0 {
		t.Errorf("Temperature = %v, want explicit 0", p.Temperature)
	}
	if p.TopP != 0.85 {
		t.Errorf("TopP = %v, unset flag should keep profile value", p.TopP)
	}
	if p.Seed == nil || *p.Seed != 7 {
		t.Errorf("Seed = %v", p.Seed)
	}
	if len(p.Stop) != 1 || p.Stop[0] != "END" {
		t.Errorf("Stop = %v", p.Stop)
	}

	gc, err := cfg.GenerationConfig(p)
	if err != nil {
		t.Fatalf("GenerationConfig: %v", err)
	}
	if gc.Model != adapter.DefaultModel(adapter.ProviderClaude) {
		t.Errorf("Model = %q", gc.Model)
	}
}

func TestRunSetup(t *testing.T) {
	cfg := config.DefaultGlobal()
	in := bufio.NewReader(strings.NewReader("4\nhttp://gpu:11434\n\n80000\n"))
	var out bytes.Buffer

	runSetup(in, &out, &cfg)

	if cfg.Provider != adapter.ProviderOllama {
		t.Errorf("Provider = %q", cfg.Provider)
	}
	if cfg.Ollama.Host != "http://gpu:11434" {
		t.Errorf("Host = %q", cfg.Ollama.Host)
	}
	if cfg.Model != adapter.DefaultModel(adapter.ProviderOllama) {
		t.Errorf("Model = %q", cfg.Model)
	}
	if cfg.Context.Budget != 80000 {
		t.Errorf("Budget = %d", cfg.Context.Budget)
	}
}

func TestRunSetup_InvalidBudgetKept(t *testing.T) {
	cfg := config.DefaultGlobal()
	in := bufio.NewReader(strings.NewReader("\nsk-test\n\nlots\n"))
	var out bytes.Buffer

	runSetup(in, &out, &cfg)

	if cfg.Provider != adapter.ProviderOpenAI || cfg.Keys.OpenAI != "sk-test" {
		t.Errorf("provider/key = %q/%q", cfg.Provider, cfg.Keys.OpenAI)
	}
	if cfg.Context.Budget != 50000 {
		t.Errorf("Budget = %d", cfg.Context.Budget)
	}
	if !strings.Contains(out.String(), `Invalid budget "lots"`) {
		t.Errorf("output = %q", out.String())
	}
}

func TestReadmeCmd_WritesAndRecords(t *testing.T) {
	isolate(t)
	root := newRepo(t)

	var prompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if len(body.Messages) > 0 {
			prompt = body.Messages[len(body.Messages)-1].Content
		}
		fmt.Fprint(w, `{"message":{"role":"assistant","content":"# Demo\n\nGenerated."},"done":true}`+"\n")
	}))
	defer server.Close()
	t.Setenv("LIGHTNINGMD_PROVIDER", adapter.ProviderOllama)
	t.Setenv("OLLAMA_HOST", server.URL)

	out, err := run(t, "readme", "--root", root, "--write")
	if err != nil {
		t.Fatalf("readme: %v", err)
	}
	if !strings.Contains(out, "Generated.") {
		t.Errorf("stdout = %q", out)
	}
	if !strings.Contains(prompt, "#### main.go") {
		t.Errorf("prompt missing file contents:\n%s", prompt)
	}

	data, err := os.ReadFile(filepath.Join(root, "README.md"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "# Demo\n\nGenerated." {
		t.Errorf("README.md = %q", data)
	}

	database, err := db.Open(config.HistoryDBPath(root))
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()
	g, err := history.NewStore(database).Latest("readme")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if g.Provider != adapter.ProviderOllama || g.Content != "# Demo\n\nGenerated." {
		t.Errorf("history = %+v", g)
	}
}

func TestWriteHistoryTable(t *testing.T) {
	var buf bytes.Buffer
	gens := []history.Generation{{ID: "abc", Kind: "readme", Provider: "openai", Model: "gpt-4o-mini", PromptTokens: 42}}
	writeHistoryTable(&buf, gens, 1)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %q", lines)
	}
	if !strings.HasPrefix(lines[0], "ID") || !strings.Contains(lines[1], "gpt-4o-mini") {
		t.Errorf("table = %q", buf.String())
	}

	buf.Reset()
	writeHistoryTable(&buf, gens, 5)
	if !strings.Contains(buf.String(), "Showing 1 of 5 generations") {
		t.Errorf("missing footer: %q", buf.String())
	}
}

func TestHistoryListCmd_Footer(t *testing.T) {
	isolate(t)
	root := newRepo(t)

	store, closeFn, err := openHistory(root)
	if err != nil {
		t.Fatal(err)
	}
	for _, kind := range []string{"readme", "api", "guides"} {
		if _, err := store.Save(history.Generation{Kind: kind, Provider: "ollama", Model: "llama3"},
			adapter.GenerationResult{Text: "# " + kind}); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	closeFn()

	out, err := run(t, "history", "list", "--root", root, "--limit", "2")
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	if !strings.Contains(out, "Showing 2 of 3 generations") {
		t.Errorf("output = %q", out)
	}
}

func TestContextWindowWarning(t *testing.T) {
	info := adapter.ModelInfo{Name: "gpt-4o-mini", Provider: "openai", MaxContextWindow: 128000}

	if got := contextWindowWarning(info, 128000); got != "" {
		t.Errorf("prompt at the window should fit, got %q", got)
	}
	if got := contextWindowWarning(info, 130000); !strings.Contains(got, "130000 tokens") || !strings.Contains(got, "128000") {
		t.Errorf("warning = %q", got)
	}
	if got := contextWindowWarning(adapter.ModelInfo{}, 1<<30); got != "" {
		t.Errorf("unknown window should not warn, got %q", got)
	}
}

func TestApplyOutput_Color(t *testing.T) {
	t.Cleanup(func() { setColor(true) })

	applyOutput(config.OutputConfig{Color: false})
	if _, ok := warningStyle.GetForeground().(lipgloss.NoColor); !ok {
		t.Errorf("warning foreground = %v, want none", warningStyle.GetForeground())
	}
	if _, ok := headerStyle.GetForeground().(lipgloss.NoColor); !ok {
		t.Errorf("header foreground = %v, want none", headerStyle.GetForeground())
	}

	applyOutput(config.OutputConfig{Color: true})
	if warningStyle.GetForeground() != lipgloss.Color("11") {
		t.Errorf("warning foreground = %v", warningStyle.GetForeground())
	}
}
