package context

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/lightningmd/lightningmd/internal/scanner"
)

// DefaultCharLimit caps each non-README file in a document context.
const DefaultCharLimit = 5000

// TruncationMarker is appended to content cut at the character ceiling.
const TruncationMarker = "\n... (file truncated due to size)"

// DocumentOptions controls FormatDocumentContext.
type DocumentOptions struct {
	CharLimit int    // per-file rune ceiling; DefaultCharLimit when zero
	Budget    int    // aggregate token budget for file blocks; unlimited when zero
	Model     string // tokenizer used for Budget
}

// TruncateContent keeps the first limit runes of content and appends
// TruncationMarker when anything was cut.
func TruncateContent(content string, limit int) (string, bool) {
	if limit <= 0 || utf8.RuneCountInString(content) <= limit {
		return content, false
	}
	n := 0
	for i := range content {
		if n == limit {
			return content[:i] + TruncationMarker, true
		}
		n++
	}
	return content, false
}

// FormatDocumentContext renders a priority scan as the repository overview
// used for documentation sets. Files appear in scan order, which puts README
// files first; those are never cut by CharLimit but still count against
// Budget.
func FormatDocumentContext(report scanner.PriorityReport, opts DocumentOptions) string {
	limit := opts.CharLimit
	if limit <= 0 {
		limit = DefaultCharLimit
	}
	tok := TokenizerFor(opts.Model)

	order := report.Order
	if len(order) == 0 && len(report.Contents) > 0 {
		order = readmeFirst(report.Contents.Paths())
	}

	var b strings.Builder
	b.WriteString("REPOSITORY OVERVIEW:\n\n")
	fmt.Fprintf(&b, "Total files: %d\n", report.TotalFiles)
	fmt.Fprintf(&b, "Files analyzed: %d (%.1f%%)\n\n", report.FileCount, report.AnalyzedPercentage)

	b.WriteString("FILES IN REPOSITORY:\n")
	for _, path := range order {
		fmt.Fprintf(&b, "- %s\n", path)
	}
	b.WriteString("\n")

	b.WriteString("FILE CONTENTS:\n\n")
	remaining := opts.Budget
	for _, path := range order {
		content := report.Contents[path]
		if !scanner.IsReadme(path) {
			content, _ = TruncateContent(content, limit)
		}
		block := fmt.Sprintf("--- BEGIN %s ---\n%s\n--- END %s ---\n\n", path, content, path)

		if opts.Budget > 0 {
			tokens := tok.Count(block)
			if tokens > remaining {
				fmt.Fprintf(&b, "--- OMITTED %s (token budget exhausted) ---\n\n", path)
				continue
			}
			remaining -= tokens
		}
		b.WriteString(block)
	}

	return b.String()
}
