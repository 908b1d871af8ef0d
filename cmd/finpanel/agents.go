package main

import (
	"context"
	"fmt"
	"net"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/finpanel/internal/agent"
	"github.com/dusk-indust/finpanel/internal/logging"
)

func newAgentsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "Run panel members as A2A agents",
	}
	cmd.AddCommand(newAgentsServeCmd(a))
	return cmd
}

func newAgentsServeCmd(a *app) *cobra.Command {
	var (
		host     string
		basePort int
	)
	cmd := &cobra.Command{
		Use:   "serve NAME...",
		Short: "Serve panel members over A2A",
		Long: `Serve each named panel member as its own A2A agent, using the template
backend. Members listen on consecutive ports starting at --base-port; the
agent card is published at /.well-known/agent-card.json.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.catalog()
			if err != nil {
				return err
			}

			hosts := make([]*agent.Host, 0, len(args))
			for _, name := range args {
				p, ok := c.Lookup(name)
				if !ok {
					return withCode(exitUsage, fmt.Errorf("unknown panel member %q", name))
				}
				w, err := agent.NewTemplateWorker(p)
				if err != nil {
					return configErr(err)
				}
				hosts = append(hosts, agent.NewHost(p, w, a.logger))
			}
			return a.serveAgents(cmd.Context(), hosts, host, basePort)
		},
	}
	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "interface to listen on")
	cmd.Flags().IntVar(&basePort, "base-port", 9100, "port of the first agent")
	return cmd
}

func (a *app) serveAgents(ctx context.Context, hosts []*agent.Host, host string, basePort int) error {
	listeners := make([]net.Listener, 0, len(hosts))
	closeAll := func() {
		for _, ln := range listeners {
			ln.Close()
		}
	}
	for i, h := range hosts {
		addr := net.JoinHostPort(host, fmt.Sprint(basePort+i))
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			closeAll()
			return fmt.Errorf("listen %s for %s: %w", addr, h.Card().Name, err)
		}
		listeners = append(listeners, ln)
		a.printf("%-22s http://%s\n", h.Card().Name, ln.Addr())
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, h := range hosts {
		ln := listeners[i]
		g.Go(func() error { return h.Serve(gctx, ln) })
	}
	err := g.Wait()
	a.logger.Info("agents stopped", logging.Int("agents", len(hosts)))
	return err
}
