// Package git reads repository metadata for prompt headers. It only runs
// read-only git commands and never clones, fetches or pushes.
package git

import (
	"os/exec"
	"strings"
)

// Info is the subset of repository state shown to the model.
type Info struct {
	Branch  string
	Commit  string // abbreviated HEAD
	Remote  string // origin URL
	Changed int    // entries in git status --porcelain
}

// IsEmpty returns true if nothing could be read.
func (i Info) IsEmpty() bool {
	return i.Branch == "" && i.Commit == "" && i.Remote == ""
}

// Dirty reports uncommitted changes.
func (i Info) Dirty() bool { return i.Changed > 0 }

// RepoName derives "owner/name" from the remote URL, or "" when there is no
// remote.
func (i Info) RepoName() string {
	r := strings.TrimSuffix(strings.TrimSpace(i.Remote), "/")
	r = strings.TrimSuffix(r, ".git")
	if r == "" {
		return ""
	}
	// scp-like form: git@host:owner/name
	if at := strings.Index(r, "@"); at >= 0 && !strings.Contains(r, "://") {
		if colon := strings.Index(r[at:], ":"); colon >= 0 {
			r = r[at+colon+1:]
		}
	}
	parts := strings.Split(r, "/")
	if len(parts) < 2 {
		return parts[len(parts)-1]
	}
	return parts[len(parts)-2] + "/" + parts[len(parts)-1]
}

// Describe runs git in dir. All errors are swallowed: if git is not
// installed or dir is not a repository, an empty Info is returned.
func Describe(dir string) Info {
	var info Info
	info.Branch = gitOutput(dir, "rev-parse", "--abbrev-ref", "HEAD")
	info.Commit = gitOutput(dir, "rev-parse", "--short", "HEAD")
	info.Remote = gitOutput(dir, "config", "--get", "remote.origin.url")

	if porcelain := gitOutput(dir, "status", "--porcelain"); porcelain != "" {
		for _, line := range strings.Split(porcelain, "\n") {
			if strings.TrimSpace(line) != "" {
				info.Changed++
			}
		}
	}
	return info
}

// gitOutput runs a git command and returns trimmed stdout.
// Returns "" on any error.
func gitOutput(dir string, args ...string) string {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
