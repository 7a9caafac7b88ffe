package cli

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/lightningmd/lightningmd/internal/docs"
	"github.com/lightningmd/lightningmd/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the scan, context and README tools over MCP (stdio)",
		Long: `Run a Model Context Protocol server on stdin/stdout so that editors and
agents can call scan_repository, render_tree, estimate_tokens, build_context
and generate_readme against this repository.

Example MCP client configuration:
  {"command": "lightningmd", "args": ["mcp", "--root", "/path/to/repo"]}`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, cfg, err := loadProject()
			if err != nil {
				return err
			}

			var client docs.Completer
			if c, err := newClient(cfg); err != nil {
				log.Warn().Err(err).Msg("generate_readme disabled")
			} else {
				client = c
			}

			log.Info().Str("root", root).Str("provider", cfg.Provider).Msg("mcp server listening on stdio")
			return mcp.NewServer(root, cfg, client, version).Serve()
		},
	}
}
