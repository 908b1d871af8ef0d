package orchestrator

import (
	"fmt"
	"time"
)

// ProgressReporter emits progress events through a buffered channel.
type ProgressReporter struct {
	ch chan ProgressEvent
}

// NewProgressReporter creates a ProgressReporter with a buffered channel of size 64.
func NewProgressReporter() *ProgressReporter {
	return &ProgressReporter{
		ch: make(chan ProgressEvent, 64),
	}
}

// Emit sends a progress event in a non-blocking fashion. If the channel is
// full the event is dropped, except a subject's PhaseDone event, which waits
// for room so that consumers can count finished subjects. The channel must
// be drained until Close.
func (pr *ProgressReporter) Emit(event ProgressEvent) {
	if event.Worker == "" && event.Phase == PhaseDone {
		pr.ch <- event
		return
	}
	select {
	case pr.ch <- event:
	default:
	}
}

// Subscribe returns a read-only channel for consuming progress events.
func (pr *ProgressReporter) Subscribe() <-chan ProgressEvent {
	return pr.ch
}

// Close closes the progress event channel. Emit must not be called after Close.
func (pr *ProgressReporter) Close() {
	close(pr.ch)
}

// Fanout returns a callback that forwards each event to every non-nil sink,
// in order.
func Fanout(sinks ...func(ProgressEvent)) func(ProgressEvent) {
	return func(ev ProgressEvent) {
		for _, sink := range sinks {
			if sink != nil {
				sink(ev)
			}
		}
	}
}

// FormatProgress formats a ProgressEvent as a human-readable status line.
func FormatProgress(event ProgressEvent) string {
	if event.Worker == "" {
		return FormatPhase(event)
	}
	label := fmt.Sprintf("%s/%s", event.Stage, event.Worker)
	switch event.Status {
	case ProgressPending:
		return fmt.Sprintf("  ○ %s (pending)", label)
	case ProgressWorking:
		return fmt.Sprintf("  ● %s...", label)
	case ProgressComplete:
		return fmt.Sprintf("  ✓ %s complete (%s)", label, roundElapsed(event.Elapsed))
	case ProgressFailed:
		return fmt.Sprintf("  ✗ %s failed: %s", label, event.Message)
	default:
		return fmt.Sprintf("  ? %s (unknown status)", label)
	}
}

// FormatPhase formats a subject-level phase transition.
// Returns: "[{subject}] {phase}"
func FormatPhase(event ProgressEvent) string {
	line := fmt.Sprintf("[%s] %s", event.Subject, event.Phase)
	if event.Status == ProgressFailed && event.Message != "" {
		line += ": " + event.Message
	}
	return line
}

func roundElapsed(d time.Duration) time.Duration {
	return d.Round(10 * time.Millisecond)
}
