package main

import (
	"github.com/spf13/cobra"

	"github.com/dusk-indust/finpanel/internal/status"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status [DIR]",
		Short: "Show which tickers have results",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			dir := a.cfg.Output.Dir
			if len(args) == 1 {
				dir = args[0]
			}
			return a.printStatus(dir)
		},
	}
}

func (a *app) printStatus(dir string) error {
	st, ok := status.Scan(dir)
	if !ok || len(st.Subjects) == 0 {
		a.printf("No results found in %s.\n", dir)
		a.printf("Run 'finpanel run <TICKER>' to consult the panel.\n")
		return nil
	}

	recorded := make(map[string]string)
	if st.Batch != nil {
		for _, s := range st.Batch.Subjects {
			recorded[s.Subject] = s.Status
		}
	}

	a.printf("Results in %s:\n\n", st.Dir)
	for _, s := range st.Subjects {
		label := "complete"
		if !s.Complete() {
			label = "incomplete"
		}
		if r, ok := recorded[s.Subject]; ok {
			label += ", " + r
		}
		a.printf("  %-8s decision:%-3s detailed:%-3s [%s]\n", s.Subject, mark(s.DecisionPath), mark(s.DetailedPath), label)
	}
	return nil
}

func mark(path string) string {
	if path == "" {
		return "no"
	}
	return "yes"
}
