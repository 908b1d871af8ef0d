package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/dusk-indust/finpanel/internal/market"
	"github.com/dusk-indust/finpanel/internal/orchestrator"
)

// EnvPrefix prefixes every environment override, e.g.
// FINPANEL_PANEL_PARALLELISM=4.
const EnvPrefix = "FINPANEL"

// Config holds every setting of a finpanel run.
type Config struct {
	Panel   PanelConfig   `mapstructure:"panel"`
	Agents  AgentsConfig  `mapstructure:"agents"`
	Data    DataConfig    `mapstructure:"data"`
	Output  OutputConfig  `mapstructure:"output"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// PanelConfig controls the consultation engine.
type PanelConfig struct {
	WorkerTimeout time.Duration `mapstructure:"worker_timeout"`
	Grace         time.Duration `mapstructure:"grace"`
	// Parallelism is the number of subjects consulted at once.
	Parallelism       int    `mapstructure:"parallelism"`
	MarketContext     string `mapstructure:"market_context"`
	MarketContextFile string `mapstructure:"market_context_file"`
}

// AgentsConfig selects how panel members are played.
type AgentsConfig struct {
	// Backend is "template" or "remote".
	Backend      string           `mapstructure:"backend"`
	Catalog      string           `mapstructure:"catalog"`
	Endpoints    []EndpointConfig `mapstructure:"endpoints"`
	ProbeTimeout time.Duration    `mapstructure:"probe_timeout"`
}

// EndpointConfig points a panel member at a remote agent. A list is used
// rather than a map because config keys are case-insensitive and member
// names are not.
type EndpointConfig struct {
	Name string `mapstructure:"name"`
	URL  string `mapstructure:"url"`
}

// DataConfig selects where subject records come from.
type DataConfig struct {
	// Source is "fixtures" or "http".
	Source      string        `mapstructure:"source"`
	Fixtures    string        `mapstructure:"fixtures"`
	QuoteURL    string        `mapstructure:"quote_url"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	Portfolio   string        `mapstructure:"portfolio"`
}

// OutputConfig controls where results are written.
type OutputConfig struct {
	Dir  string `mapstructure:"dir"`
	JSON bool   `mapstructure:"json"`
}

// LoggingConfig controls diagnostic logging on stderr.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	// Format is "console" or "json".
	Format string `mapstructure:"format"`
}

// MetricsConfig controls the Prometheus endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// Data source names.
const (
	SourceFixtures = "fixtures"
	SourceHTTP     = "http"
)

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Panel: PanelConfig{
			WorkerTimeout: orchestrator.DefaultWorkerTimeout,
			Grace:         orchestrator.DefaultGrace,
			Parallelism:   1,
		},
		Agents: AgentsConfig{
			Backend:      "template",
			ProbeTimeout: 2 * time.Second,
		},
		Data: DataConfig{
			Source:      SourceFixtures,
			HTTPTimeout: market.DefaultHTTPTimeout,
		},
		Output: OutputConfig{
			Dir:  "results",
			JSON: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// New returns a viper instance with defaults and environment overrides
// registered. Callers may bind flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("panel.worker_timeout", d.Panel.WorkerTimeout)
	v.SetDefault("panel.grace", d.Panel.Grace)
	v.SetDefault("panel.parallelism", d.Panel.Parallelism)
	v.SetDefault("panel.market_context", d.Panel.MarketContext)
	v.SetDefault("panel.market_context_file", d.Panel.MarketContextFile)

	v.SetDefault("agents.backend", d.Agents.Backend)
	v.SetDefault("agents.catalog", d.Agents.Catalog)
	v.SetDefault("agents.probe_timeout", d.Agents.ProbeTimeout)

	v.SetDefault("data.source", d.Data.Source)
	v.SetDefault("data.fixtures", d.Data.Fixtures)
	v.SetDefault("data.quote_url", d.Data.QuoteURL)
	v.SetDefault("data.http_timeout", d.Data.HTTPTimeout)
	v.SetDefault("data.portfolio", d.Data.Portfolio)

	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("output.json", d.Output.JSON)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)

	v.SetDefault("metrics.addr", d.Metrics.Addr)
}

// Load reads finpanel.yml (or the file at path when non-empty) into v,
// unmarshals and validates it. Without an explicit path a missing file is
// not an error.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("finpanel")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(ConfigDir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return &cfg, nil
}

// ConfigDir returns the user's finpanel config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "finpanel")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".finpanel"
	}
	return filepath.Join(home, ".config", "finpanel")
}

// Orchestrator converts the panel settings for the engine, resolving the
// market context.
func (c *Config) Orchestrator() (orchestrator.Config, error) {
	mc, err := c.Panel.ResolveMarketContext()
	if err != nil {
		return orchestrator.Config{}, err
	}
	return orchestrator.Config{
		WorkerTimeout: c.Panel.WorkerTimeout,
		Grace:         c.Panel.Grace,
		Parallelism:   c.Panel.Parallelism,
		MarketContext: mc,
	}, nil
}

// ResolveMarketContext returns the inline context, the contents of the
// context file, or market.DefaultContext, in that order of preference.
func (p PanelConfig) ResolveMarketContext() (string, error) {
	if p.MarketContext != "" {
		return p.MarketContext, nil
	}
	if p.MarketContextFile != "" {
		data, err := os.ReadFile(p.MarketContextFile)
		if err != nil {
			return "", fmt.Errorf("reading market context: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	return market.DefaultContext, nil
}

// EndpointMap returns the configured endpoints keyed by member name.
func (a AgentsConfig) EndpointMap() map[string]string {
	out := make(map[string]string, len(a.Endpoints))
	for _, e := range a.Endpoints {
		out[e.Name] = e.URL
	}
	return out
}
