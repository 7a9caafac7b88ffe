package scanner

import (
	"path/filepath"
	"strings"
)

// FenceLanguage returns the markdown code-fence language for a path, or ""
// when the extension is not recognised.
func FenceLanguage(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".go":
		return "go"
	case ".rb":
		return "ruby"
	case ".py":
		return "python"
	case ".js", ".mjs", ".cjs":
		return "javascript"
	case ".ts", ".mts", ".cts":
		return "typescript"
	case ".tsx":
		return "tsx"
	case ".jsx":
		return "jsx"
	case ".rs":
		return "rust"
	case ".java":
		return "java"
	case ".kt":
		return "kotlin"
	case ".cs":
		return "csharp"
	case ".cpp", ".cc", ".cxx", ".hpp":
		return "cpp"
	case ".c", ".h":
		return "c"
	case ".swift":
		return "swift"
	case ".php":
		return "php"
	case ".scala":
		return "scala"
	case ".sh", ".bash", ".zsh":
		return "bash"
	case ".sql":
		return "sql"
	case ".html", ".htm":
		return "html"
	case ".css":
		return "css"
	case ".scss", ".sass":
		return "scss"
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	case ".toml":
		return "toml"
	case ".xml":
		return "xml"
	case ".md", ".mdx":
		return "markdown"
	case ".proto":
		return "protobuf"
	case "":
		switch filepath.Base(path) {
		case "Dockerfile":
			return "dockerfile"
		case "Makefile":
			return "makefile"
		}
	}
	return ""
}

// IsReadme reports whether the base name of path looks like a README.
func IsReadme(path string) bool {
	return strings.HasPrefix(strings.ToUpper(filepath.Base(path)), "README")
}

// priorityGroups lists tracked extensions in the order the priority walk
// consumes them: code, then web/config, then docs.
var priorityGroups = [][]string{
	{".py", ".js", ".jsx", ".ts", ".tsx", ".go", ".rs", ".java", ".kt", ".rb", ".php", ".c", ".h", ".cpp", ".cs", ".swift"},
	{".html", ".css", ".scss", ".json", ".yaml", ".yml", ".toml"},
	{".md", ".txt"},
}

// priorityRank returns the position of a file's extension in the flattened
// priority list, or -1 when the file is not tracked. README files anywhere in
// the tree are tracked in the docs group even without an extension.
func priorityRank(path string) int {
	ext := strings.ToLower(filepath.Ext(path))
	rank := 0
	for _, group := range priorityGroups {
		for _, e := range group {
			if ext == e {
				return rank
			}
			rank++
		}
	}
	if IsReadme(path) {
		return rank
	}
	return -1
}
