package context

import (
	"strings"
	"testing"

	"github.com/lightningmd/lightningmd/internal/git"
	"github.com/lightningmd/lightningmd/internal/scanner"
)

// mustContain reports every want missing from got.
func mustContain(t *testing.T, got string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
}

func TestSprintPrompt(t *testing.T) {
	if got := SprintPrompt("  ", ""); got != DefaultSprintRequest {
		t.Errorf("blank request = %q", got)
	}
	if got := SprintPrompt("Write docs", "CONTEXT"); got != "Write docs\n\nCONTEXT" {
		t.Errorf("SprintPrompt = %q", got)
	}
}

func TestDraftPrompt_Defaults(t *testing.T) {
	out := DraftRequest{}.DraftPrompt()

	mustContain(t, out,
		"[Content Requirements]",
		"- Purpose of Documentation: General understanding and usage",
		"- Desired Level of Detail (1-5, 5 is most detailed): 3",
		"[Structure Requirements]",
		"- Output Format: Markdown",
		"- Include standard documentation sections as appropriate.",
		"[Style Requirements]",
		"- Target Audience: Developers with intermediate experience",
	)
	if strings.Contains(out, "Key Focus Areas") {
		t.Error("empty focus areas should be omitted")
	}
}

func TestDraftPrompt_Custom(t *testing.T) {
	out := DraftRequest{
		Purpose:            "Onboarding",
		DetailLevel:        5,
		FocusAreas:         []string{"API", "Setup"},
		CustomInstructions: "Mention the CLI",
		Sections:           []string{"Installation", "Usage"},
		Audience:           "New contributors",
	}.DraftPrompt()

	mustContain(t, out,
		"- Purpose of Documentation: Onboarding",
		"most detailed): 5",
		"- Key Focus Areas: API, Setup",
		"- Specific Custom Instructions: Mention the CLI",
		"- Mandatory Sections to Include: Installation, Usage",
		"- Target Audience: New contributors",
	)
}

func TestProjectHeader(t *testing.T) {
	st := scanner.Stack{Name: "widgets", Language: "Go", Framework: "Cobra", CI: "GitHub Actions"}
	info := git.Info{Branch: "main", Commit: "abc1234", Remote: "git@github.com:acme/widgets.git"}

	out := ProjectHeader(st, info)

	if !strings.HasPrefix(out, "## Project Profile") {
		t.Errorf("unexpected prefix:\n%s", out)
	}
	mustContain(t, out, "acme/widgets", "**Language:** Go", "**Framework:** Cobra", "main @ abc1234", "GitHub Actions")

	bare := ProjectHeader(scanner.Stack{Name: "local"}, git.Info{})
	mustContain(t, bare, "**Project:** local")
	if strings.Contains(bare, "Branch") {
		t.Errorf("no git info should mean no branch line:\n%s", bare)
	}
}

func TestSystemPrompt_HasRules(t *testing.T) {
	mustContain(t, SystemPrompt, "Lightning MD", "10. ")
}
