package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/finpanel/internal/a2a"
	"github.com/dusk-indust/finpanel/internal/agent"
)

func newWorkersCmd(a *app) *cobra.Command {
	var (
		probe   bool
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "workers",
		Short: "List the panel members in registry order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.catalog()
			if err != nil {
				return err
			}

			a.printf("Analysts:\n")
			for _, p := range c.Analysts {
				a.printMember(p)
			}
			a.printf("\nInvestors:\n")
			for _, p := range c.Investors {
				a.printMember(p)
			}
			a.printf("\nSynthesizer:\n")
			a.printMember(c.Synthesizer)

			if !probe {
				return nil
			}
			if timeout <= 0 {
				timeout = a.cfg.Agents.ProbeTimeout
			}
			results := agent.Probe(cmd.Context(), a2a.NewHTTPClient(), c.All(), timeout)
			a.printf("\nRemote agents:\n")
			if len(results) == 0 {
				a.printf("  none configured\n")
			}
			for _, r := range results {
				if r.OK() {
					a.printf("  ✓ %-22s %s (%s)\n", r.Name, r.Endpoint, r.Card.Name)
				} else {
					a.printf("  ✗ %-22s %s: %v\n", r.Name, r.Endpoint, r.Err)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&probe, "probe", false, "fetch the agent card of every remote member")
	cmd.Flags().DurationVar(&timeout, "probe-timeout", 0, "timeout per agent card request")
	return cmd
}

func (a *app) printMember(p agent.Profile) {
	summary := p.Focus
	if summary == "" {
		summary = p.Philosophy
	}
	where := "local"
	if p.Endpoint != "" {
		where = p.Endpoint
	}
	a.printf("  %-22s [%s] %s\n", p.Name, where, summary)
}
