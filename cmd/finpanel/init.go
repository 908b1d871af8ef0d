package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// mcpConfig represents the structure of a .mcp.json file.
type mcpConfig struct {
	MCPServers map[string]json.RawMessage `json:"mcpServers"`
}

// finpanelMCPEntry is the MCP server configuration for the finpanel binary.
var finpanelMCPEntry = json.RawMessage(`{
  "type": "stdio",
  "command": "finpanel",
  "args": ["mcp"]
}`)

const sampleConfig = `# finpanel configuration. Every key can be overridden with a FINPANEL_
# environment variable, e.g. FINPANEL_PANEL_PARALLELISM=4.
panel:
  worker_timeout: 5m
  grace: 2s
  parallelism: 1
agents:
  backend: template
  # endpoints:
  #   - name: Cathie Wood
  #     url: http://127.0.0.1:9100
data:
  source: fixtures
  # fixtures: fixtures.yaml
  # portfolio: portfolio.csv
output:
  dir: results
  json: true
logging:
  level: info
  format: console
`

func newInitCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [DIR]",
		Short: "Write a sample finpanel.yml and register the MCP server",
		Args:  cobra.MaximumNArgs(1),
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		RunE: func(_ *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return a.runInit(dir, force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")
	return cmd
}

// runInit writes finpanel.yml and merges the finpanel entry into .mcp.json
// in the target directory.
func (a *app) runInit(dir string, force bool) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolving directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return err
	}

	cfgPath := filepath.Join(abs, "finpanel.yml")
	if _, err := os.Stat(cfgPath); err == nil && !force {
		a.printf("  skipped finpanel.yml (exists, use --force to overwrite)\n")
	} else {
		if err := os.WriteFile(cfgPath, []byte(sampleConfig), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", cfgPath, err)
		}
		a.printf("  created finpanel.yml\n")
	}

	if err := a.mergeMCPConfig(filepath.Join(abs, ".mcp.json"), force); err != nil {
		return err
	}
	a.printf("\nSetup complete. Run 'finpanel run MSFT' to consult the panel.\n")
	return nil
}

// mergeMCPConfig creates or merges the finpanel entry into .mcp.json.
func (a *app) mergeMCPConfig(mcpPath string, force bool) error {
	var cfg mcpConfig

	data, err := os.ReadFile(mcpPath)
	if err == nil {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parsing %s: %w", mcpPath, err)
		}
	}

	if cfg.MCPServers == nil {
		cfg.MCPServers = make(map[string]json.RawMessage)
	}

	if _, exists := cfg.MCPServers["finpanel"]; exists && !force {
		a.printf("  skipped .mcp.json finpanel entry (exists, use --force to overwrite)\n")
		return nil
	}
	cfg.MCPServers["finpanel"] = finpanelMCPEntry

	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling .mcp.json: %w", err)
	}
	if err := os.WriteFile(mcpPath, append(out, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", mcpPath, err)
	}

	action := "created"
	if data != nil {
		action = "updated"
	}
	a.printf("  %s .mcp.json with finpanel MCP server\n", action)
	return nil
}
