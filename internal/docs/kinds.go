// Package docs describes the documents lightningmd can produce and writes
// them to disk.
package docs

import (
	"fmt"
	"sort"
	"strings"
)

// Kind is one document type.
type Kind struct {
	Name         string
	Title        string
	Path         string // relative to the output directory, forward slashes
	Instructions string
}

// IndexKind is produced first whenever a documentation set is generated.
const IndexKind = "index"

// registry maps kind names to their definitions.
var registry = map[string]Kind{
	"readme": {
		Name:  "readme",
		Title: "README",
		Path:  "README.md",
		Instructions: `Generate a README.md for this repository.
Cover what the project does, how to install and run it, its main components and usage examples.`,
	},
	IndexKind: {
		Name:  IndexKind,
		Title: "Documentation index",
		Path:  "index.md",
		Instructions: `Generate a main index page for the documentation of this repository.
The index page is a landing page: introduce the project and link to the other documentation sections (api/overview.md, examples/overview.md, guides/overview.md).
Include a brief overview of the project and its purpose based on the actual code and structure.`,
	},
	"api": {
		Name:  "api",
		Title: "API overview",
		Path:  "api/overview.md",
		Instructions: `Generate a comprehensive API documentation overview for this repository.
Describe the main modules, types and functions found in the code.
Explain how to use the API: parameters, return values and errors, with code examples where appropriate.
Organize the content with clear headings and sections.`,
	},
	"examples": {
		Name:  "examples",
		Title: "Examples",
		Path:  "examples/overview.md",
		Instructions: `Generate practical code examples for this repository.
Base every example on the code actually present and show real usage of the main features.
Keep examples complete and commented, starting simple and progressing to more complex ones.`,
	},
	"guides": {
		Name:  "guides",
		Title: "Guides",
		Path:  "guides/overview.md",
		Instructions: `Generate guides for this repository.
Based on the actual code, write step-by-step tutorials for the common use cases, explain the concepts involved, and point out the challenges users are likely to meet.`,
	},
}

// Get returns the Kind registered under name, and whether it was found.
func Get(name string) (Kind, bool) {
	k, ok := registry[name]
	return k, ok
}

// ValidKinds returns the supported kind names, sorted.
func ValidKinds() []string {
	names := make([]string, 0, len(registry))
	for k := range registry {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Prompt renders the user message for k around the repository section.
func (k Kind) Prompt(repoContext string) string {
	var b strings.Builder
	b.WriteString(k.Instructions)
	if strings.TrimSpace(repoContext) != "" {
		b.WriteString("\n\nUse the following repository content as context for generating accurate documentation:\n\n")
		b.WriteString(repoContext)
	}
	return b.String()
}

// Resolve turns kind names into Kinds for a documentation set: unknown names
// are an error, duplicates are dropped, and index leads whenever any
// docs-directory kind is requested.
func Resolve(names []string) ([]Kind, error) {
	var out []Kind
	seen := map[string]bool{}
	needsIndex := false
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			continue
		}
		k, ok := Get(name)
		if !ok {
			return nil, fmt.Errorf("docs: unknown kind %q; valid kinds: %s", name, strings.Join(ValidKinds(), ", "))
		}
		seen[name] = true
		if name == IndexKind {
			continue
		}
		if name != "readme" {
			needsIndex = true
		}
		out = append(out, k)
	}
	if needsIndex || seen[IndexKind] {
		out = append([]Kind{registry[IndexKind]}, out...)
	}
	return out, nil
}
