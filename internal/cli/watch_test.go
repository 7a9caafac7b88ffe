package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/lightningmd/lightningmd/internal/config"
	ctxpkg "github.com/lightningmd/lightningmd/internal/context"
	"github.com/lightningmd/lightningmd/internal/scanner"
)

func TestShouldIgnoreEvent(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("build/\n*.log\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	ignore := scanner.NewIgnoreMatcher(dir)

	tests := []struct {
		rel  string
		want bool
	}{
		{"main.go", false},
		{"src/app.go", false},
		{"node_modules/pkg/index.js", true},
		{".git/HEAD", true},
		{".lightningmd/history.db", true},
		{"src/.env", true},
		{"generated/out.go", true},
		{"debug.log", true},
		{"build/app", true},
	}

	for _, tt := range tests {
		got := shouldIgnoreEvent(filepath.FromSlash(tt.rel), ignore, []string{"generated"})
		if got != tt.want {
			t.Errorf("shouldIgnoreEvent(%q) = %v, want %v", tt.rel, got, tt.want)
		}
	}
}

func TestShouldIgnoreEvent_NoGitignoreMatcher(t *testing.T) {
	if shouldIgnoreEvent("debug.log", nil, nil) {
		t.Error("a nil matcher should not ignore anything")
	}
}

func TestAddWatchDirs_SkipsIgnored(t *testing.T) {
	dir := t.TempDir()

	os.MkdirAll(filepath.Join(dir, "src"), 0o755)
	os.MkdirAll(filepath.Join(dir, "node_modules", "pkg"), 0o755)
	os.MkdirAll(filepath.Join(dir, ".git", "objects"), 0o755)
	os.MkdirAll(filepath.Join(dir, "vendor", "lib"), 0o755)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer watcher.Close()

	if err := addWatchDirs(watcher, dir, nil, []string{"vendor"}); err != nil {
		t.Fatalf("addWatchDirs: %v", err)
	}

	watched := make(map[string]bool)
	for _, p := range watcher.WatchList() {
		rel, _ := filepath.Rel(dir, p)
		watched[rel] = true
	}

	if !watched["."] {
		t.Error("root directory should be watched")
	}
	if !watched["src"] {
		t.Error("src/ should be watched")
	}
	if watched["node_modules"] || watched[filepath.Join("node_modules", "pkg")] {
		t.Error("node_modules should not be watched")
	}
	if watched[".git"] || watched[filepath.Join(".git", "objects")] {
		t.Error(".git should not be watched")
	}
	if watched["vendor"] {
		t.Error("configured exclude should not be watched")
	}
}

func TestRescan_ReportsOnlyOnChange(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "main.py"), []byte("print('hi')\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.DefaultGlobal()
	var out bytes.Buffer

	fp, err := rescan(&out, dir, cfg, "gpt-4o-mini", 0)
	if err != nil {
		t.Fatalf("rescan: %v", err)
	}
	if !strings.Contains(out.String(), "1 files") {
		t.Errorf("output = %q", out.String())
	}

	out.Reset()
	again, err := rescan(&out, dir, cfg, "gpt-4o-mini", fp)
	if err != nil {
		t.Fatalf("rescan: %v", err)
	}
	if again != fp || out.Len() != 0 {
		t.Errorf("unchanged repository should print nothing, got %q", out.String())
	}

	if err := os.WriteFile(filepath.Join(dir, "util.py"), []byte("x = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out.Reset()
	changed, err := rescan(&out, dir, cfg, "gpt-4o-mini", fp)
	if err != nil {
		t.Fatalf("rescan: %v", err)
	}
	if changed == fp || !strings.Contains(out.String(), "2 files") {
		t.Errorf("fingerprint %x -> %x, output %q", fp, changed, out.String())
	}
}

func TestBudgetLine(t *testing.T) {
	now := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	report := scanner.ScanReport{Processed: 12}

	got := budgetLine(now, report, ctxpkg.PromptContext{TokenEstimate: 500, Budget: 1000})
	if got != "[15:04:05] 12 files, 500 tokens / 1000 (50%) fits" {
		t.Errorf("budgetLine = %q", got)
	}

	got = budgetLine(now, report, ctxpkg.PromptContext{TokenEstimate: 900, Budget: 1000, Truncated: true})
	if !strings.HasSuffix(got, "OVER BUDGET") {
		t.Errorf("truncated context should be over: %q", got)
	}
}

func TestRescan_AgreesWithAssemble(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "main.py"), []byte(strings.Repeat("x = 1\n", 50)), 0o644); err != nil {
		t.Fatal(err)
	}
	report, err := scanner.Scan(scanner.ScanOptions{Root: dir})
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.DefaultGlobal()
	// A budget equal to the estimate is over: the budget is a strict bound.
	cfg.Context.Budget = ctxpkg.EstimateTokens(report.Contents.JSON(), "gpt-4o-mini")

	var out bytes.Buffer
	if _, err := rescan(&out, dir, cfg, "gpt-4o-mini", 0); err != nil {
		t.Fatalf("rescan: %v", err)
	}
	if !strings.Contains(out.String(), "OVER BUDGET") {
		t.Errorf("output = %q", out.String())
	}

	cfg.Context.Budget++
	out.Reset()
	if _, err := rescan(&out, dir, cfg, "gpt-4o-mini", 0); err != nil {
		t.Fatalf("rescan: %v", err)
	}
	if !strings.HasSuffix(strings.TrimSpace(out.String()), "fits") {
		t.Errorf("output = %q", out.String())
	}
}
