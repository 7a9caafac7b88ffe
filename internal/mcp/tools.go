package mcp

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	ctxpkg "github.com/lightningmd/lightningmd/internal/context"
	"github.com/lightningmd/lightningmd/internal/scanner"
)

// resolvePath maps the optional path argument onto a directory.
func (s *Server) resolvePath(req mcp.CallToolRequest) string {
	p := strings.TrimSpace(req.GetString("path", ""))
	if p == "" {
		return s.root
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(s.root, p)
}

func (s *Server) repoOptions(root string) ctxpkg.RepoOptions {
	return ctxpkg.RepoOptions{
		Root:             root,
		RespectGitignore: s.cfg.Scan.RespectGitignore,
		Exclude:          s.cfg.Scan.Exclude,
		Budget:           s.cfg.Context.Budget,
		Model:            s.model(),
	}
}

func (s *Server) handleScanRepository(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root := s.resolvePath(req)
	report, err := scanner.Scan(scanner.ScanOptions{
		Root:             root,
		RespectGitignore: s.cfg.Scan.RespectGitignore,
		Exclude:          s.cfg.Scan.Exclude,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("scan failed: %v", err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Total files: %d\n", report.TotalFiles)
	fmt.Fprintf(&sb, "Processed: %d\n", report.Processed)
	fmt.Fprintf(&sb, "Skipped: %d\n", report.Skipped)
	fmt.Fprintf(&sb, "Fingerprint: %016x\n", report.Fingerprint)
	if len(report.Entries) > 0 {
		sb.WriteString("\nFiles:\n")
		for _, e := range report.Entries {
			fmt.Fprintf(&sb, "- %s (%s, %d bytes)\n", e.Path, e.Encoding, len(e.Content))
		}
	}
	if len(report.Errors) > 0 {
		sb.WriteString("\nErrors:\n")
		for _, e := range report.Errors {
			fmt.Fprintf(&sb, "- %v\n", e)
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleRenderTree(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tree, err := scanner.RenderTree(s.resolvePath(req))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("render tree failed: %v", err)), nil
	}
	return mcp.NewToolResultText(tree), nil
}

func (s *Server) handleEstimateTokens(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: text"), nil
	}
	model := req.GetString("model", s.model())
	tok := ctxpkg.TokenizerFor(model)
	return mcp.NewToolResultText(fmt.Sprintf("%d tokens (%s, %s)", tok.Count(text), model, tok.Encoding())), nil
}

func (s *Server) handleBuildContext(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := s.repoOptions(s.resolvePath(req))
	if budget := req.GetInt("budget", 0); budget > 0 {
		opts.Budget = budget
	}
	opts.Model = req.GetString("model", opts.Model)

	repo, err := ctxpkg.PrepareRepo(opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to build context: %v", err)), nil
	}
	section, err := repo.Section()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to build context: %v", err)), nil
	}
	return mcp.NewToolResultText(section), nil
}

func (s *Server) handleGenerateReadme(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.client == nil {
		return mcp.NewToolResultError("no LLM provider configured; run `lightningmd setup`"), nil
	}

	repo, err := ctxpkg.PrepareRepo(s.repoOptions(s.resolvePath(req)))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to build context: %v", err)), nil
	}
	user, err := repo.SprintPrompt(req.GetString("prompt", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to build context: %v", err)), nil
	}

	cfg, err := s.cfg.GenerationConfig(s.cfg.Profiles.Sprint)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res := s.client.Complete(ctx, ctxpkg.SystemPrompt, user, cfg)
	if res.Failed() {
		return mcp.NewToolResultError(res.Error), nil
	}
	return mcp.NewToolResultText(res.Text), nil
}
