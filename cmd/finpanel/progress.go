package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/mattn/go-isatty"

	"github.com/dusk-indust/finpanel/internal/orchestrator"
)

// progressRefreshRate is the spinner frame interval.
const progressRefreshRate = 200 * time.Millisecond

// Spinner abstracts the terminal spinner so the display can be tested.
type Spinner interface {
	Start()
	Stop()
	UpdateSuffix(suffix string)
}

type realSpinner struct {
	s *spinner.Spinner
}

func (rs *realSpinner) Start() { rs.s.Start() }
func (rs *realSpinner) Stop()  { rs.s.Stop() }

func (rs *realSpinner) UpdateSuffix(suffix string) {
	rs.s.Lock()
	rs.s.Suffix = suffix
	rs.s.Unlock()
}

var newSpinner = func(w io.Writer) Spinner {
	s := spinner.New(spinner.CharSets[11], progressRefreshRate, spinner.WithWriter(w))
	return &realSpinner{s}
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// displayProgress consumes events until the channel is closed. On a
// terminal it drives a spinner; otherwise it prints one line per event.
// done is closed on return.
func displayProgress(events <-chan orchestrator.ProgressEvent, total int, w io.Writer, spin Spinner, done chan<- struct{}) {
	defer close(done)

	finished := 0
	if spin != nil {
		spin.UpdateSuffix(fmt.Sprintf(" consulting panel (0/%d subjects)", total))
		spin.Start()
		defer spin.Stop()
	}

	for ev := range events {
		if ev.Worker == "" && ev.Phase == orchestrator.PhaseDone {
			finished++
		}
		if spin == nil {
			fmt.Fprintln(w, orchestrator.FormatProgress(ev))
			continue
		}
		spin.UpdateSuffix(fmt.Sprintf(" (%d/%d) [%s] %s", finished, total, ev.Subject, describe(ev)))
	}
}

func describe(ev orchestrator.ProgressEvent) string {
	if ev.Worker == "" {
		return string(ev.Phase)
	}
	return fmt.Sprintf("%s/%s %s", ev.Stage, ev.Worker, ev.Status)
}
