package context

import (
	"fmt"
	"strings"

	"github.com/lightningmd/lightningmd/internal/git"
	"github.com/lightningmd/lightningmd/internal/scanner"
)

// SystemPrompt is the documentation persona sent as the system message.
const SystemPrompt = `You are Lightning MD, an expert documentation generator for software repositories. You analyze code repositories and write well-structured documentation that helps developers understand a codebase quickly.

RULES TO FOLLOW:
1. Be clear and concise while staying technically accurate
2. Organize documentation with a proper hierarchy of headings, sections and subsections
3. Explain the most important components and how they relate first
4. Include code examples when they add value
5. Adapt your writing to the requested audience
6. Keep terminology consistent throughout
7. Explain how and why the code works, not only what it does
8. When documenting APIs, include parameters, return values, errors and usage examples
9. Do not assume implementation details that are not visible in the code
10. Follow the structure, content and style requirements in the user's request

YOUR OUTPUT MUST BE VALID MARKDOWN THAT RENDERS IN STANDARD MARKDOWN VIEWERS.
YOUR RESPONSE IS THE MARKDOWN DOCUMENT ITSELF, WITH NO SURROUNDING COMMENTARY.`

// DefaultSprintRequest is used when the caller gives no instructions.
const DefaultSprintRequest = "Generate a README.md for this repository. Cover what the project does, how to install and run it, its main components, and usage examples."

// SprintPrompt joins the caller's request with the rendered repository
// section.
func SprintPrompt(request, repoContext string) string {
	request = strings.TrimSpace(request)
	if request == "" {
		request = DefaultSprintRequest
	}
	if strings.TrimSpace(repoContext) == "" {
		return request
	}
	return request + "\n\n" + repoContext
}

// DraftRequest holds the structured requirements of a draft-mode prompt.
type DraftRequest struct {
	Purpose            string
	DetailLevel        int // 1-5
	FocusAreas         []string
	CustomInstructions string

	Format   string
	Sections []string

	Tone         string
	Audience     string
	CodeExamples string
}

// DefaultDraftRequest returns the requirements used when none are given.
func DefaultDraftRequest() DraftRequest {
	return DraftRequest{
		Purpose:      "General understanding and usage",
		DetailLevel:  3,
		Format:       "Markdown",
		Tone:         "Clear, concise, and professional",
		Audience:     "Developers with intermediate experience",
		CodeExamples: "Include moderately detailed examples where relevant",
	}
}

// DraftPrompt renders the requirements as the leading part of a user prompt.
// Zero fields take the values of DefaultDraftRequest.
func (r DraftRequest) DraftPrompt() string {
	d := DefaultDraftRequest()
	if r.Purpose == "" {
		r.Purpose = d.Purpose
	}
	if r.DetailLevel < 1 || r.DetailLevel > 5 {
		r.DetailLevel = d.DetailLevel
	}
	if r.Format == "" {
		r.Format = d.Format
	}
	if r.Tone == "" {
		r.Tone = d.Tone
	}
	if r.Audience == "" {
		r.Audience = d.Audience
	}
	if r.CodeExamples == "" {
		r.CodeExamples = d.CodeExamples
	}

	var b strings.Builder
	b.WriteString("Please generate comprehensive documentation for a software repository based on the following detailed requirements:\n")

	b.WriteString("\n[Content Requirements]\n")
	fmt.Fprintf(&b, "- Purpose of Documentation: %s\n", r.Purpose)
	fmt.Fprintf(&b, "- Desired Level of Detail (1-5, 5 is most detailed): %d\n", r.DetailLevel)
	if len(r.FocusAreas) > 0 {
		fmt.Fprintf(&b, "- Key Focus Areas: %s\n", strings.Join(r.FocusAreas, ", "))
	}
	if r.CustomInstructions != "" {
		fmt.Fprintf(&b, "- Specific Custom Instructions: %s\n", r.CustomInstructions)
	}

	b.WriteString("\n[Structure Requirements]\n")
	fmt.Fprintf(&b, "- Output Format: %s\n", r.Format)
	if len(r.Sections) > 0 {
		fmt.Fprintf(&b, "- Mandatory Sections to Include: %s\n", strings.Join(r.Sections, ", "))
	} else {
		b.WriteString("- Include standard documentation sections as appropriate.\n")
	}

	b.WriteString("\n[Style Requirements]\n")
	fmt.Fprintf(&b, "- Writing Tone/Style: %s\n", r.Tone)
	fmt.Fprintf(&b, "- Target Audience: %s\n", r.Audience)
	fmt.Fprintf(&b, "- Preference for Code Examples: %s\n", r.CodeExamples)

	b.WriteString("\nConsider the overall structure of the repository to produce a coherent document. The output must be valid Markdown.")
	return b.String()
}

// ProjectHeader renders the project profile block placed above repository
// contents.
func ProjectHeader(stack scanner.Stack, info git.Info) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Project Profile\n\n")
	name := stack.Name
	if rn := info.RepoName(); rn != "" {
		name = rn
	}
	fmt.Fprintf(&b, "- **Project:** %s\n", name)
	if stack.Language != "" {
		fmt.Fprintf(&b, "- **Language:** %s\n", stack.Language)
	}
	if stack.Framework != "" {
		fmt.Fprintf(&b, "- **Framework:** %s\n", stack.Framework)
	}
	if stack.TestFramework != "" {
		fmt.Fprintf(&b, "- **Tests:** %s\n", stack.TestFramework)
	}
	if stack.CI != "" {
		fmt.Fprintf(&b, "- **CI:** %s\n", stack.CI)
	}
	if info.Branch != "" {
		fmt.Fprintf(&b, "- **Branch:** %s", info.Branch)
		if info.Commit != "" {
			fmt.Fprintf(&b, " @ %s", info.Commit)
		}
		b.WriteString("\n")
	}
	if info.Remote != "" {
		fmt.Fprintf(&b, "- **Remote:** %s\n", info.Remote)
	}
	return b.String()
}
