// Package mcp exposes the lightningmd pipeline as Model Context Protocol
// tools over stdio.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/lightningmd/lightningmd/internal/adapter"
	"github.com/lightningmd/lightningmd/internal/config"
	"github.com/lightningmd/lightningmd/internal/docs"
)

// Server holds the state shared by the tool handlers.
type Server struct {
	root   string
	cfg    config.GlobalConfig
	client docs.Completer // nil: generate_readme reports an error result
	mcp    *server.MCPServer
}

// NewServer builds the MCP server for root. client may be nil when no
// provider is configured.
func NewServer(root string, cfg config.GlobalConfig, client docs.Completer, version string) *Server {
	s := &Server{
		root:   root,
		cfg:    cfg,
		client: client,
		mcp: server.NewMCPServer("lightningmd", version,
			server.WithToolCapabilities(false),
		),
	}
	s.registerTools()
	return s
}

// Serve runs the server on stdin/stdout until the client disconnects.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool("scan_repository",
		mcp.WithDescription("Scan a repository and list the readable text files with scan statistics."),
		mcp.WithString("path", mcp.Description("Repository directory, absolute or relative to the server root. Defaults to the root.")),
	), s.handleScanRepository)

	s.mcp.AddTool(mcp.NewTool("render_tree",
		mcp.WithDescription("Render the directory tree of a repository."),
		mcp.WithString("path", mcp.Description("Repository directory. Defaults to the server root.")),
	), s.handleRenderTree)

	s.mcp.AddTool(mcp.NewTool("estimate_tokens",
		mcp.WithDescription("Estimate the token count of a text for a model's tokenizer."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to measure.")),
		mcp.WithString("model", mcp.Description("Model name; selects the tokenizer. Defaults to the configured model.")),
	), s.handleEstimateTokens)

	s.mcp.AddTool(mcp.NewTool("build_context",
		mcp.WithDescription("Assemble the bounded repository prompt section: tree plus file contents, or file names when over budget."),
		mcp.WithString("path", mcp.Description("Repository directory. Defaults to the server root.")),
		mcp.WithNumber("budget", mcp.Description("Token budget for inlining file contents.")),
		mcp.WithString("model", mcp.Description("Model whose tokenizer measures the budget.")),
	), s.handleBuildContext)

	s.mcp.AddTool(mcp.NewTool("generate_readme",
		mcp.WithDescription("Generate a README for a repository with the configured LLM provider."),
		mcp.WithString("path", mcp.Description("Repository directory. Defaults to the server root.")),
		mcp.WithString("prompt", mcp.Description("Instructions for the README. Defaults to a general README request.")),
	), s.handleGenerateReadme)
}

// Model returns the model the tools use when none is given.
func (s *Server) model() string {
	return s.cfg.ResolveModel(s.cfg.Profiles.Sprint)
}

var _ docs.Completer = (*adapter.Client)(nil)
