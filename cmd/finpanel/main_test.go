package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type result struct {
	code   int
	stdout string
	stderr string
}

func runCLI(t *testing.T, ctx context.Context, args ...string) result {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	var stdout, stderr bytes.Buffer
	code := execute(ctx, args, &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func TestVersion(t *testing.T) {
	r := runCLI(t, context.Background(), "version")
	assert.Equal(t, exitOK, r.code)
	assert.Equal(t, "finpanel dev\n", r.stdout)
}

func TestRun_WritesResults(t *testing.T) {
	out := filepath.Join(t.TempDir(), "results")
	r := runCLI(t, context.Background(), "run", "msft", "NVDA", "--output", out, "-p", "2")
	require.Equal(t, exitOK, r.code, r.stderr)

	assert.Contains(t, r.stdout, "INVESTMENT ANALYSIS FOR MSFT")
	assert.Contains(t, r.stdout, "# Investment Synthesis: NVDA")
	assert.Contains(t, r.stdout, "PANEL SUMMARY (2 subjects")
	assert.Contains(t, r.stderr, "[MSFT] fetching")

	for _, name := range []string{"MSFT_decision.md", "MSFT_detailed_analysis.md", "NVDA_decision.md", "NVDA_detailed_analysis.md", "batch.json"} {
		assert.FileExists(t, filepath.Join(out, name))
	}

	detailed, err := os.ReadFile(filepath.Join(out, "MSFT_detailed_analysis.md"))
	require.NoError(t, err)
	assert.Contains(t, string(detailed), "### Fundamental Analyst")
	assert.Contains(t, string(detailed), "### Michael Burry")
}

func TestRun_PartialFailureExitCode(t *testing.T) {
	out := t.TempDir()
	r := runCLI(t, context.Background(), "run", "MSFT", "XYZ", "--output", out, "--quiet")
	assert.Equal(t, exitPartial, r.code)
	assert.Contains(t, r.stderr, "1 of 2 subjects could not be analyzed")
	assert.Empty(t, r.stdout)

	data, err := os.ReadFile(filepath.Join(out, "XYZ_decision.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "unknown subject")
	assert.FileExists(t, filepath.Join(out, "MSFT_decision.md"))
}

func TestRun_Portfolio(t *testing.T) {
	dir := t.TempDir()
	csv := filepath.Join(dir, "portfolio.csv")
	require.NoError(t, os.WriteFile(csv, []byte("TICKER,BS\nKO,B\nSPY,I\nBTC-USD,B\n"), 0o644))

	r := runCLI(t, context.Background(), "run", "--portfolio", csv, "--no-write")
	require.Equal(t, exitOK, r.code, r.stderr)
	assert.Contains(t, r.stdout, "INVESTMENT ANALYSIS FOR KO")
	assert.NotContains(t, r.stdout, "SPY")
	assert.NoDirExists(t, filepath.Join(dir, "results"))
}

func TestRun_NoTickers(t *testing.T) {
	r := runCLI(t, context.Background(), "run")
	assert.Equal(t, exitUsage, r.code)
	assert.Contains(t, r.stderr, "no tickers given")
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := runCLI(t, ctx, "run", "MSFT", "--no-write", "--quiet")
	assert.Equal(t, exitCanceled, r.code)
	assert.Contains(t, r.stderr, "interrupted")
}

func TestRun_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "finpanel.yml")
	require.NoError(t, os.WriteFile(path, []byte("panel:\n  parallelism: 0\n"), 0o644))

	r := runCLI(t, context.Background(), "--config", path, "run", "MSFT")
	assert.Equal(t, exitConfig, r.code)
	assert.Contains(t, r.stderr, "panel.parallelism")
}

func TestRun_FixturesFromConfig(t *testing.T) {
	dir := t.TempDir()
	fixtures := filepath.Join(dir, "fixtures.yaml")
	require.NoError(t, os.WriteFile(fixtures, []byte("ACME:\n  company_name: Acme Corp\n  pe_ratio: 12\n"), 0o644))
	cfg := filepath.Join(dir, "finpanel.yml")
	require.NoError(t, os.WriteFile(cfg, []byte("data:\n  fixtures: "+fixtures+"\n"), 0o644))

	out := filepath.Join(dir, "out")
	r := runCLI(t, context.Background(), "-c", cfg, "run", "ACME", "-o", out, "-q")
	require.Equal(t, exitOK, r.code, r.stderr)

	detailed, err := os.ReadFile(filepath.Join(out, "ACME_detailed_analysis.md"))
	require.NoError(t, err)
	assert.Contains(t, string(detailed), "Acme Corp")
}

func TestWorkers(t *testing.T) {
	r := runCLI(t, context.Background(), "workers")
	require.Equal(t, exitOK, r.code, r.stderr)
	assert.Contains(t, r.stdout, "Analysts:")
	assert.Contains(t, r.stdout, "Fundamental Analyst")
	assert.Contains(t, r.stdout, "Warren Buffett")
	assert.Contains(t, r.stdout, "Investment Committee")
	assert.Less(t, bytes.Index([]byte(r.stdout), []byte("Analysts:")), bytes.Index([]byte(r.stdout), []byte("Investors:")))
}

func TestWorkers_ProbeWithoutEndpoints(t *testing.T) {
	r := runCLI(t, context.Background(), "workers", "--probe")
	require.Equal(t, exitOK, r.code, r.stderr)
	assert.Contains(t, r.stdout, "none configured")
}

func TestStatus(t *testing.T) {
	out := t.TempDir()
	r := runCLI(t, context.Background(), "run", "KO", "--output", out, "--quiet")
	require.Equal(t, exitOK, r.code, r.stderr)

	r = runCLI(t, context.Background(), "status", out)
	require.Equal(t, exitOK, r.code, r.stderr)
	assert.Contains(t, r.stdout, "KO")
	assert.Contains(t, r.stdout, "[complete, ok]")

	r = runCLI(t, context.Background(), "status", filepath.Join(out, "none"))
	assert.Contains(t, r.stdout, "No results found")
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".mcp.json"),
		[]byte(`{"mcpServers":{"other":{"type":"stdio","command":"x"}}}`), 0o644))

	r := runCLI(t, context.Background(), "init", dir)
	require.Equal(t, exitOK, r.code, r.stderr)
	assert.Contains(t, r.stdout, "created finpanel.yml")
	assert.Contains(t, r.stdout, "updated .mcp.json")

	data, err := os.ReadFile(filepath.Join(dir, ".mcp.json"))
	require.NoError(t, err)
	var cfg mcpConfig
	require.NoError(t, json.Unmarshal(data, &cfg))
	assert.Contains(t, cfg.MCPServers, "other")
	assert.Contains(t, cfg.MCPServers, "finpanel")

	r = runCLI(t, context.Background(), "init", dir)
	assert.Contains(t, r.stdout, "skipped finpanel.yml")

	// The written config must load cleanly.
	r = runCLI(t, context.Background(), "-c", filepath.Join(dir, "finpanel.yml"), "workers")
	assert.Equal(t, exitOK, r.code, r.stderr)
}

func TestRun_RepositoryFixtures(t *testing.T) {
	dir := filepath.Join("..", "..", "testdata", "fixtures")
	out := t.TempDir()
	r := runCLI(t, context.Background(), "run",
		"--portfolio", filepath.Join(dir, "portfolio.csv"),
		"--fixtures", filepath.Join(dir, "market.yaml"),
		"-o", out, "-q")
	require.Equal(t, exitOK, r.code, r.stderr)

	export, err := os.ReadFile(filepath.Join(out, "batch.json"))
	require.NoError(t, err)
	var batch struct {
		Subjects []struct {
			Subject string `json:"subject"`
		} `json:"subjects"`
	}
	require.NoError(t, json.Unmarshal(export, &batch))
	require.Len(t, batch.Subjects, 2)
	assert.Equal(t, "JPM", batch.Subjects[0].Subject)
	assert.Equal(t, "XOM", batch.Subjects[1].Subject)
}

func TestRun_RejectsPathLikeTickers(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "results")
	r := runCLI(t, context.Background(), "run", "MSFT", "../escaped", "-o", out, "-q")
	assert.Equal(t, exitUsage, r.code)
	assert.Contains(t, r.stderr, "invalid ticker")
	assert.Contains(t, r.stderr, `"../ESCAPED"`)
	assert.NoFileExists(t, filepath.Join(root, "ESCAPED_decision.md"))
	assert.NoDirExists(t, out)
}
