package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/dusk-indust/finpanel/internal/agent"
	"github.com/dusk-indust/finpanel/internal/config"
	"github.com/dusk-indust/finpanel/internal/logging"
)

// app carries state shared by every command of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	stdout  io.Writer
	stderr  io.Writer

	cfg    *config.Config
	logger logging.Logger
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return exitCode(ctx, err, stderr)
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{v: config.New(), stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "finpanel",
		Short: "Consult a panel of analysts and investors about stocks",
		Long: `finpanel runs every ticker past a panel of specialist analysts, then a
panel of famous-investor personas who read the analyst reports, and finally
synthesizes their opinions into one investment decision per ticker.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVarP(&a.cfgFile, "config", "c", "", "config file (default ./finpanel.yml or "+config.ConfigDir()+"/finpanel.yml)")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: console or json")
	pf.String("catalog", "", "panel catalog YAML (default: built-in panel)")
	a.bind("logging.level", pf.Lookup("log-level"))
	a.bind("logging.format", pf.Lookup("log-format"))
	a.bind("agents.catalog", pf.Lookup("catalog"))

	root.AddCommand(
		newRunCmd(a),
		newWorkersCmd(a),
		newStatusCmd(a),
		newAgentsCmd(a),
		newMCPCmd(a),
		newInitCmd(a),
		newVersionCmd(a),
	)
	return root
}

// bind ties a flag to a config key so that an explicitly set flag overrides
// the file and environment.
func (a *app) bind(key string, f *pflag.Flag) {
	_ = a.v.BindPFlag(key, f)
}

func (a *app) init() error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return configErr(err)
	}
	a.cfg = cfg
	a.logger = newLogger(a.stderr, cfg.Logging)
	return nil
}

func newLogger(w io.Writer, lc config.LoggingConfig) logging.Logger {
	if strings.EqualFold(lc.Format, "json") {
		return logging.NewLogger(w, "finpanel")
	}
	return logging.NewConsoleLogger(w, lc.Level)
}

// catalog loads the configured catalog and applies configured endpoints.
func (a *app) catalog() (*agent.Catalog, error) {
	c := agent.DefaultCatalog()
	if path := a.cfg.Agents.Catalog; path != "" {
		var err error
		if c, err = agent.LoadCatalog(path); err != nil {
			return nil, configErr(err)
		}
	}
	if len(a.cfg.Agents.Endpoints) == 0 {
		return c, nil
	}
	c, err := c.WithEndpoints(a.cfg.Agents.EndpointMap())
	if err != nil {
		return nil, configErr(err)
	}
	return c, nil
}

// registry builds the panel workers from the configured catalog.
func (a *app) registry() (*agent.Registry, error) {
	c, err := a.catalog()
	if err != nil {
		return nil, err
	}
	backend, err := agent.ParseBackend(a.cfg.Agents.Backend)
	if err != nil {
		return nil, configErr(err)
	}
	r, err := agent.NewRegistry(c, agent.Options{Backend: backend})
	if err != nil {
		return nil, configErr(fmt.Errorf("building panel: %w", err))
	}
	return r, nil
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.stdout, format, args...)
}
