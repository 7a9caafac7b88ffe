package cli

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/lightningmd/lightningmd/internal/config"
	ctxpkg "github.com/lightningmd/lightningmd/internal/context"
	"github.com/lightningmd/lightningmd/internal/scanner"
)

func newWatchCmd() *cobra.Command {
	var debounceMs int

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the repository and report how its context budget changes",
		Long: `Start a long-running watcher that re-scans the repository whenever files
are created, modified or deleted, and prints the new file count and token
estimate against the context budget.

Changes are debounced so that rapid edits (e.g. saving multiple files at once)
are batched into a single re-scan.

Press Ctrl-C to stop.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, cfg, err := loadProject()
			if err != nil {
				return err
			}
			model := cfg.ResolveModel(cfg.Profiles.Sprint)
			out := cmd.OutOrStdout()

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("create watcher: %w", err)
			}
			defer watcher.Close()

			var ignore *scanner.IgnoreMatcher
			if cfg.Scan.RespectGitignore {
				ignore = scanner.NewIgnoreMatcher(root)
			}
			exclude := cfg.Scan.Exclude

			if err := addWatchDirs(watcher, root, ignore, exclude); err != nil {
				return fmt.Errorf("add watch directories: %w", err)
			}

			debounce := time.Duration(debounceMs) * time.Millisecond
			fmt.Fprintf(out, "Watching %s for changes (debounce %s). Press Ctrl-C to stop.\n", root, debounce)

			last, err := rescan(out, root, cfg, model, 0)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// Collect changed relative paths, debounce, then re-scan.
			pending := make(map[string]fsnotify.Op)
			timer := time.NewTimer(debounce)
			timer.Stop()

			for {
				select {
				case <-ctx.Done():
					fmt.Fprintln(out, "\nStopping watcher.")
					return nil

				case event, ok := <-watcher.Events:
					if !ok {
						return nil
					}

					rel, err := filepath.Rel(root, event.Name)
					if err != nil || rel == "." {
						continue
					}
					if shouldIgnoreEvent(rel, ignore, exclude) {
						continue
					}

					// Watch directories created after startup.
					if event.Has(fsnotify.Create) {
						if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
							if err := addWatchDirs(watcher, event.Name, nil, exclude); err != nil {
								log.Debug().Err(err).Str("dir", rel).Msg("watch add failed")
							}
						}
					}

					pending[rel] |= event.Op
					timer.Reset(debounce)

				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					fmt.Fprintf(os.Stderr, "  watch error: %v\n", err)

				case <-timer.C:
					if len(pending) == 0 {
						continue
					}
					log.Debug().Int("paths", len(pending)).Msg("change batch")
					pending = make(map[string]fsnotify.Op)

					fp, err := rescan(out, root, cfg, model, last)
					if err != nil {
						fmt.Fprintf(os.Stderr, "  rescan failed: %v\n", err)
						continue
					}
					last = fp
				}
			}
		},
	}

	cmd.Flags().IntVar(&debounceMs, "debounce", 500, "debounce interval in milliseconds")

	return cmd
}

// addWatchDirs recursively adds directories to the watcher, skipping the
// ones the scanner never descends into.
func addWatchDirs(watcher *fsnotify.Watcher, root string, ignore *scanner.IgnoreMatcher, exclude []string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && excludedName(d.Name(), exclude) {
			return filepath.SkipDir
		}
		rel, _ := filepath.Rel(root, path)
		if rel != "." && ignore.Match(filepath.ToSlash(rel)) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

// shouldIgnoreEvent reports whether a change to rel cannot affect a scan.
func shouldIgnoreEvent(rel string, ignore *scanner.IgnoreMatcher, exclude []string) bool {
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if excludedName(part, exclude) {
			return true
		}
	}
	return ignore.Match(filepath.ToSlash(rel))
}

func excludedName(name string, exclude []string) bool {
	if scanner.ExcludedDir(name) {
		return true
	}
	for _, e := range exclude {
		if strings.Trim(e, "/") == name {
			return true
		}
	}
	return false
}

// rescan scans root, prints one status line and returns the fingerprint.
// Nothing is printed when the fingerprint equals last.
func rescan(w io.Writer, root string, cfg config.GlobalConfig, model string, last uint64) (uint64, error) {
	report, err := scanner.Scan(scanner.ScanOptions{
		Root:             root,
		RespectGitignore: cfg.Scan.RespectGitignore,
		Exclude:          cfg.Scan.Exclude,
	})
	if err != nil {
		return last, err
	}
	if report.Fingerprint == last {
		return last, nil
	}

	pc := ctxpkg.Assemble(report.Contents, "", ctxpkg.AssembleOptions{Budget: cfg.Context.Budget, Model: model})
	fmt.Fprintln(w, budgetLine(time.Now(), report, pc))
	return report.Fingerprint, nil
}

func budgetLine(now time.Time, report scanner.ScanReport, pc ctxpkg.PromptContext) string {
	state := "fits"
	if pc.Truncated {
		state = "OVER BUDGET"
	}
	return fmt.Sprintf("[%s] %d files, %d tokens / %d (%.0f%%) %s",
		now.Format("15:04:05"), report.Processed, pc.TokenEstimate, pc.Budget,
		100*float64(pc.TokenEstimate)/float64(pc.Budget), state)
}
