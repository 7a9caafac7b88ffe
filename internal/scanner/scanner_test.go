package scanner

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func writeFile(t *testing.T, root, rel string, content []byte) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestScan_GoProject(t *testing.T) {
	report, err := Scan(ScanOptions{Root: "../../testdata/go_project"})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(report.Errors) > 0 {
		t.Errorf("unexpected errors: %v", report.Errors)
	}
	for _, want := range []string{"main.go", "go.mod", "README.md"} {
		if _, ok := report.Contents[want]; !ok {
			t.Errorf("%s not found in scan contents", want)
		}
	}
	if report.Processed+report.Skipped != report.TotalFiles {
		t.Errorf("processed %d + skipped %d != total %d", report.Processed, report.Skipped, report.TotalFiles)
	}
}

func TestScan_ReadmeAndHiddenFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "README.md", []byte("# Hello"))
	writeFile(t, dir, "main.py", []byte("print(1)"))
	writeFile(t, dir, ".gitignore", []byte("*.log\n"))

	report, err := Scan(ScanOptions{Root: dir})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	want := map[string]string{"README.md": "# Hello", "main.py": "print(1)"}
	if len(report.Contents) != len(want) {
		t.Fatalf("contents: got %v, want %v", report.Contents, want)
	}
	for k, v := range want {
		if report.Contents[k] != v {
			t.Errorf("contents[%q] = %q, want %q", k, report.Contents[k], v)
		}
	}
	if report.Processed != 2 {
		t.Errorf("processed: got %d, want 2", report.Processed)
	}
	if report.Skipped != 1 {
		t.Errorf("skipped: got %d, want 1", report.Skipped)
	}
}

func TestScan_HiddenAndBinaryOnly(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env", []byte("SECRET=1"))
	writeFile(t, dir, "logo.png", []byte{0x89, 0x50, 0x4E, 0x47})
	writeFile(t, dir, "blob.dat", []byte{0xff, 0x00, 0x00, 0xff, 0xfe, 0x00, 0x00, 0xfe})

	report, err := Scan(ScanOptions{Root: dir})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(report.Contents) != 0 {
		t.Errorf("expected empty contents, got %v", report.Contents)
	}
	if report.Processed != 0 {
		t.Errorf("processed: got %d, want 0", report.Processed)
	}
	if report.Skipped != 3 {
		t.Errorf("skipped: got %d, want 3", report.Skipped)
	}
}

func TestScan_SkipsExcludedDirectories(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", []byte("package main\n"))
	writeFile(t, dir, "node_modules/pkg/index.js", []byte("export default {}"))
	writeFile(t, dir, ".git/HEAD", []byte("ref: refs/heads/main"))
	writeFile(t, dir, ".cache/state.json", []byte("{}"))
	writeFile(t, dir, "build/out.js", []byte("x"))

	report, err := Scan(ScanOptions{Root: dir, Exclude: []string{"build"}})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	paths := report.Contents.Paths()
	if len(paths) != 1 || paths[0] != "main.go" {
		t.Errorf("paths: got %v, want [main.go]", paths)
	}
}

func TestScan_RespectGitignore(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".gitignore", []byte("*.log\n"))
	writeFile(t, dir, "app.go", []byte("package app\n"))
	writeFile(t, dir, "debug.log", []byte("noise"))

	report, err := Scan(ScanOptions{Root: dir})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := report.Contents["debug.log"]; !ok {
		t.Error("gitignore should not apply unless requested")
	}

	report, err = Scan(ScanOptions{Root: dir, RespectGitignore: true})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := report.Contents["debug.log"]; ok {
		t.Error("debug.log should be skipped when gitignore is respected")
	}
	if report.Skipped != 2 {
		t.Errorf("skipped: got %d, want 2 (.gitignore and debug.log)", report.Skipped)
	}
}

func TestScan_ForwardSlashKeys(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "src/pkg/util.py", []byte("x = 1\n"))

	report, err := Scan(ScanOptions{Root: dir})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := report.Contents["src/pkg/util.py"]; !ok {
		t.Errorf("expected forward-slash key, got %v", report.Contents.Paths())
	}
}

func TestScan_Idempotent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "README.md", []byte("# Title\n"))
	writeFile(t, dir, "a/b.go", []byte("package a\n"))

	first, err := Scan(ScanOptions{Root: dir})
	if err != nil {
		t.Fatal(err)
	}
	second, err := Scan(ScanOptions{Root: dir})
	if err != nil {
		t.Fatal(err)
	}

	if first.Contents.JSON() != second.Contents.JSON() {
		t.Error("repeated scans produced different contents")
	}
	if first.Fingerprint != second.Fingerprint {
		t.Errorf("fingerprint changed: %x vs %x", first.Fingerprint, second.Fingerprint)
	}

	writeFile(t, dir, "a/b.go", []byte("package a // changed\n"))
	third, err := Scan(ScanOptions{Root: dir})
	if err != nil {
		t.Fatal(err)
	}
	if third.Fingerprint == first.Fingerprint {
		t.Error("fingerprint should change when content changes")
	}
}

func TestScan_UnreadableFile(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced here")
	}
	dir := t.TempDir()
	writeFile(t, dir, "ok.txt", []byte("fine"))
	writeFile(t, dir, "locked.txt", []byte("secret"))
	if err := os.Chmod(filepath.Join(dir, "locked.txt"), 0o000); err != nil {
		t.Fatal(err)
	}

	report, err := Scan(ScanOptions{Root: dir})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if report.Processed != 1 || report.Skipped != 1 {
		t.Errorf("processed=%d skipped=%d, want 1 and 1", report.Processed, report.Skipped)
	}
	if len(report.Errors) != 1 {
		t.Errorf("errors: got %v, want one read error", report.Errors)
	}
}

func TestScan_MissingRoot(t *testing.T) {
	_, err := Scan(ScanOptions{Root: filepath.Join(t.TempDir(), "nope")})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	file := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Scan(ScanOptions{Root: file}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for a file root, got %v", err)
	}
}

func TestScan_EntriesSorted(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "z.txt", []byte("z"))
	writeFile(t, dir, "a.txt", []byte("a"))
	writeFile(t, dir, "m/n.txt", []byte("n"))

	report, err := Scan(ScanOptions{Root: dir})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a.txt", "m/n.txt", "z.txt"}
	if len(report.Entries) != len(want) {
		t.Fatalf("entries: got %d, want %d", len(report.Entries), len(want))
	}
	for i, e := range report.Entries {
		if e.Path != want[i] {
			t.Errorf("entries[%d] = %q, want %q", i, e.Path, want[i])
		}
		if e.Encoding != EncodingUTF8 {
			t.Errorf("entries[%d] encoding = %q", i, e.Encoding)
		}
	}
}

func TestRepoContents_JSONCanonical(t *testing.T) {
	c := RepoContents{"b.go": "B", "a.go": "A"}
	if got, want := c.JSON(), `{"a.go":"A","b.go":"B"}`; got != want {
		t.Errorf("JSON: got %s, want %s", got, want)
	}
	if got := RepoContents(nil).JSON(); got != "{}" {
		t.Errorf("nil JSON: got %s", got)
	}
}

func TestFindProjectRoot_FromSubdir(t *testing.T) {
	root, err := FindProjectRoot("../../testdata/go_project")
	if err != nil {
		t.Fatalf("FindProjectRoot error: %v", err)
	}
	if filepath.Base(root) != "go_project" {
		t.Errorf("root: got %s, want .../go_project", root)
	}
}

func TestScan_UTF16FileHasNoBOM(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "utf16.txt", []byte{0xFF, 0xFE, 'h', 0x00, 'i', 0x00})

	report, err := Scan(ScanOptions{Root: root})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if got := report.Contents["utf16.txt"]; got != "hi" {
		t.Errorf("content = %q, want %q", got, "hi")
	}
}
