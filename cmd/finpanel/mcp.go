package main

import (
	"github.com/spf13/cobra"

	"github.com/dusk-indust/finpanel/internal/mcptools"
	"github.com/dusk-indust/finpanel/internal/orchestrator"
)

func newMCPCmd(a *app) *cobra.Command {
	var httpAddr string
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the panel as MCP tools",
		Long: `Expose run_panel, list_workers and get_status as Model Context Protocol
tools, over stdio by default or streamable HTTP with --http.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fetcher, err := a.fetcher()
			if err != nil {
				return err
			}
			reg, err := a.registry()
			if err != nil {
				return err
			}
			ocfg, err := a.cfg.Orchestrator()
			if err != nil {
				return configErr(err)
			}

			batch := orchestrator.New(fetcher, reg.Analysts(), reg.Investors(), reg.Synthesizer(), ocfg, nil)
			batch.SetLogger(a.logger)
			server := mcptools.NewPanelMCPServer(mcptools.NewPanelService(batch, reg.Catalog(), a.cfg.Output.Dir))

			if httpAddr != "" {
				return mcptools.RunHTTP(cmd.Context(), server, httpAddr)
			}
			return mcptools.RunStdio(cmd.Context(), server)
		},
	}
	cmd.Flags().StringVar(&httpAddr, "http", "", "serve streamable HTTP on this address instead of stdio")
	return cmd
}
