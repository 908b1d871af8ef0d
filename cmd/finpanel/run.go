package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/finpanel/internal/config"
	"github.com/dusk-indust/finpanel/internal/export"
	"github.com/dusk-indust/finpanel/internal/logging"
	"github.com/dusk-indust/finpanel/internal/market"
	"github.com/dusk-indust/finpanel/internal/metrics"
	"github.com/dusk-indust/finpanel/internal/orchestrator"
)

type runOptions struct {
	noWrite bool
	quiet   bool
}

func newRunCmd(a *app) *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run [TICKER...]",
		Short: "Consult the panel about tickers",
		Long: `Run every ticker through the analyst stage, the investor stage and the
synthesis step. Without arguments the tickers are read from the configured
portfolio CSV.

Exit status is 0 when every ticker was analyzed, 3 when some tickers could
not be fetched, 4 on configuration errors and 130 when interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), args, opts)
		},
	}

	f := cmd.Flags()
	f.String("portfolio", "", "portfolio CSV with TICKER and BS columns")
	f.String("source", "", "data source: fixtures or http")
	f.String("fixtures", "", "fixture YAML of records keyed by ticker")
	f.String("quote-url", "", "base URL of the quote service for --source http")
	f.IntP("parallelism", "p", 0, "number of tickers consulted at once")
	f.Duration("timeout", 0, "per-worker timeout")
	f.String("backend", "", "worker backend: template or remote")
	f.StringP("output", "o", "", "results directory")
	f.String("metrics-addr", "", "serve Prometheus metrics on this address")
	f.BoolVar(&opts.noWrite, "no-write", false, "print results without writing files")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "suppress progress and console output")

	a.bind("data.portfolio", f.Lookup("portfolio"))
	a.bind("data.source", f.Lookup("source"))
	a.bind("data.fixtures", f.Lookup("fixtures"))
	a.bind("data.quote_url", f.Lookup("quote-url"))
	a.bind("panel.parallelism", f.Lookup("parallelism"))
	a.bind("panel.worker_timeout", f.Lookup("timeout"))
	a.bind("agents.backend", f.Lookup("backend"))
	a.bind("output.dir", f.Lookup("output"))
	a.bind("metrics.addr", f.Lookup("metrics-addr"))
	return cmd
}

func (a *app) run(ctx context.Context, args []string, opts runOptions) error {
	subjects, err := a.subjects(args)
	if err != nil {
		return err
	}

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

	var m *metrics.Metrics
	if addr := a.cfg.Metrics.Addr; addr != "" {
		m = metrics.New()
		stop, err := a.serveMetrics(ctx, m, addr)
		if err != nil {
			return err
		}
		defer stop()
	}

	reporter := orchestrator.NewProgressReporter()
	done := make(chan struct{})
	var spin Spinner
	if isTerminal(a.stderr) {
		spin = newSpinner(a.stderr)
	}
	if opts.quiet {
		go func() {
			defer close(done)
			for range reporter.Subscribe() {
			}
		}()
	} else {
		go displayProgress(reporter.Subscribe(), len(subjects), a.stderr, spin, done)
	}

	var observe func(orchestrator.ProgressEvent)
	if m != nil {
		observe = m.Observe
	}
	batch := orchestrator.New(fetcher, reg.Analysts(), reg.Investors(), reg.Synthesizer(), ocfg,
		orchestrator.Fanout(observe, reporter.Emit))
	batch.SetLogger(a.logger)

	a.logger.Info("consulting panel",
		logging.Int("subjects", len(subjects)),
		logging.Int("analysts", reg.Analysts().Len()),
		logging.Int("investors", reg.Investors().Len()),
		logging.Int("parallelism", ocfg.Parallelism))

	res := batch.Run(ctx, subjects)
	reporter.Close()
	<-done

	if !opts.quiet {
		if err := export.PrintBatch(a.stdout, res); err != nil {
			return err
		}
	}
	if !opts.noWrite {
		paths, err := a.write(res)
		if err != nil {
			return err
		}
		a.logger.Info("results written", logging.String("dir", a.cfg.Output.Dir), logging.Int("files", len(paths)))
	}

	if ctx.Err() != nil {
		return withCode(exitCanceled, ctx.Err())
	}
	if n := res.FatalCount(); n > 0 {
		return withCode(exitPartial, fmt.Errorf("%d of %d subjects could not be analyzed", n, len(res.Subjects)))
	}
	return nil
}

// subjects returns the tickers from args or, without args, the portfolio.
func (a *app) subjects(args []string) ([]string, error) {
	raw := args
	if len(raw) == 0 {
		path := a.cfg.Data.Portfolio
		if path == "" {
			return nil, withCode(exitUsage, errors.New("no tickers given and no portfolio configured"))
		}
		tickers, err := market.LoadPortfolio(path)
		if err != nil {
			return nil, configErr(err)
		}
		raw = tickers
	}
	subjects := orchestrator.NormalizeSubjects(raw)
	if len(subjects) == 0 {
		return nil, withCode(exitUsage, errors.New("no tickers to analyze"))
	}
	if err := market.CheckTickers(subjects); err != nil {
		return nil, withCode(exitUsage, err)
	}
	return subjects, nil
}

func (a *app) fetcher() (orchestrator.DataFetcher, error) {
	d := a.cfg.Data
	switch d.Source {
	case config.SourceHTTP:
		return market.NewHTTPFetcher(d.QuoteURL, market.WithHTTPTimeout(d.HTTPTimeout)), nil
	default:
		if d.Fixtures == "" {
			a.logger.Warn("no fixtures configured, using built-in sample records")
			return market.SampleFetcher(), nil
		}
		f, err := market.LoadFixtures(d.Fixtures)
		if err != nil {
			return nil, configErr(err)
		}
		return f, nil
	}
}

func (a *app) write(res *orchestrator.BatchResult) ([]string, error) {
	dir := a.cfg.Output.Dir
	if a.cfg.Output.JSON {
		return export.WriteBatch(dir, res)
	}
	var paths []string
	for _, r := range res.Subjects {
		ps, err := export.WriteSubject(dir, r)
		paths = append(paths, ps...)
		if err != nil {
			return paths, err
		}
	}
	return paths, nil
}

// serveMetrics exposes m on addr until the returned stop function is called.
func (a *app) serveMetrics(ctx context.Context, m *metrics.Metrics, addr string) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", err)
		}
	}()
	a.logger.Info("serving metrics", logging.String("addr", ln.Addr().String()))

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}, nil
}
