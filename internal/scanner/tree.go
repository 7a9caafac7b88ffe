package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	branchMid  = "├── "
	branchLast = "└── "
	indentPipe = "│   "
	indentGap  = "    "
)

// RenderTree draws the directory structure under root. The first line is the
// root's base name with a trailing slash; directories sort before files.
// Hidden entries and excluded directories are left out. Symlinks are drawn as
// leaves and never followed.
func RenderTree(root string) (string, error) {
	if err := checkRoot(root); err != nil {
		return "", err
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}

	var b strings.Builder
	b.WriteString(filepath.Base(abs))
	b.WriteString("/\n")
	renderDir(&b, root, "")
	return strings.TrimRight(b.String(), "\n"), nil
}

func renderDir(b *strings.Builder, dir, prefix string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	visible := entries[:0:0]
	for _, e := range entries {
		if IsHidden(e.Name()) {
			continue
		}
		if e.IsDir() && excludedDirs[e.Name()] {
			continue
		}
		visible = append(visible, e)
	}

	sort.SliceStable(visible, func(i, j int) bool {
		di, dj := visible[i].IsDir(), visible[j].IsDir()
		if di != dj {
			return di
		}
		return visible[i].Name() < visible[j].Name()
	})

	for i, e := range visible {
		last := i == len(visible)-1
		branch, next := branchMid, indentPipe
		if last {
			branch, next = branchLast, indentGap
		}
		if e.IsDir() {
			fmt.Fprintf(b, "%s%s%s/\n", prefix, branch, e.Name())
			renderDir(b, filepath.Join(dir, e.Name()), prefix+next)
			continue
		}
		fmt.Fprintf(b, "%s%s%s\n", prefix, branch, e.Name())
	}
}
