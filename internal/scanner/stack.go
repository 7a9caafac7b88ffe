package scanner

import (
	"os"
	"path/filepath"
	"strings"
)

// Stack is a best-effort project profile used in prompt headers.
type Stack struct {
	Name          string `json:"name"`
	Language      string `json:"language,omitempty"`
	Framework     string `json:"framework,omitempty"`
	TestFramework string `json:"test_framework,omitempty"`
	CI            string `json:"ci,omitempty"`
}

// String renders the profile as a single line, e.g. "Go (Gin)".
func (s Stack) String() string {
	if s.Language == "" {
		return "unknown"
	}
	if s.Framework == "" {
		return s.Language
	}
	return s.Language + " (" + s.Framework + ")"
}

// stackRule maps marker files to a language and a set of framework markers.
type stackRule struct {
	markers    []string
	language   string
	frameworks [][2]string // substring in marker content -> framework name
	tests      [][2]string
}

var stackRules = []stackRule{
	{
		markers:  []string{"go.mod"},
		language: "Go",
		frameworks: [][2]string{
			{"github.com/gin-gonic/gin", "Gin"},
			{"github.com/labstack/echo", "Echo"},
			{"github.com/gofiber/fiber", "Fiber"},
			{"github.com/spf13/cobra", "Cobra"},
		},
		tests: [][2]string{{"github.com/stretchr/testify", "testify"}},
	},
	{
		markers:  []string{"package.json"},
		language: "JavaScript",
		frameworks: [][2]string{
			{`"next"`, "Next.js"},
			{`"react"`, "React"},
			{`"vue"`, "Vue.js"},
			{`"express"`, "Express"},
			{`"fastify"`, "Fastify"},
		},
		tests: [][2]string{{`"jest"`, "Jest"}, {`"vitest"`, "Vitest"}},
	},
	{
		markers:  []string{"pyproject.toml", "requirements.txt", "setup.py"},
		language: "Python",
		frameworks: [][2]string{
			{"django", "Django"},
			{"fastapi", "FastAPI"},
			{"flask", "Flask"},
			{"streamlit", "Streamlit"},
		},
		tests: [][2]string{{"pytest", "pytest"}},
	},
	{
		markers:    []string{"Cargo.toml"},
		language:   "Rust",
		frameworks: [][2]string{{"actix", "Actix"}, {"axum", "Axum"}},
	},
	{
		markers:  []string{"Gemfile"},
		language: "Ruby",
		frameworks: [][2]string{
			{"rails", "Rails"},
			{"sinatra", "Sinatra"},
		},
		tests: [][2]string{{"rspec", "RSpec"}, {"minitest", "Minitest"}},
	},
	{
		markers:  []string{"pom.xml", "build.gradle", "build.gradle.kts"},
		language: "Java",
		frameworks: [][2]string{
			{"spring-boot", "Spring Boot"},
			{"org.springframework.boot", "Spring Boot"},
		},
	},
}

// DetectStack inspects marker files at the repository root.
func DetectStack(root string) Stack {
	st := Stack{Name: filepath.Base(root)}

	for _, rule := range stackRules {
		var content strings.Builder
		found := false
		for _, m := range rule.markers {
			b, err := os.ReadFile(filepath.Join(root, m))
			if err != nil {
				continue
			}
			found = true
			content.Write(b)
		}
		if !found {
			continue
		}

		st.Language = rule.language
		text := content.String()
		for _, fw := range rule.frameworks {
			if strings.Contains(text, fw[0]) {
				st.Framework = fw[1]
				break
			}
		}
		for _, tf := range rule.tests {
			if strings.Contains(text, tf[0]) {
				st.TestFramework = tf[1]
				break
			}
		}
		if rule.language == "JavaScript" && exists(root, "tsconfig.json") {
			st.Language = "TypeScript"
		}
		if rule.language == "Java" && exists(root, "build.gradle.kts") {
			st.Language = "Kotlin"
		}
		break
	}

	switch {
	case exists(root, ".github/workflows"):
		st.CI = "GitHub Actions"
	case exists(root, ".gitlab-ci.yml"):
		st.CI = "GitLab CI"
	case exists(root, ".circleci/config.yml"):
		st.CI = "CircleCI"
	}

	return st
}

func exists(root, name string) bool {
	_, err := os.Stat(filepath.Join(root, name))
	return err == nil
}
