package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// textWorker returns a worker that always answers text.
func textWorker(text string) Worker {
	return WorkerFunc(func(ctx context.Context, req Request) (string, error) {
		return text, nil
	})
}

// failWorker returns a worker that always fails with msg.
func failWorker(msg string) Worker {
	return WorkerFunc(func(ctx context.Context, req Request) (string, error) {
		return "", errors.New(msg)
	})
}

// sleepWorker answers text after d, or returns the context error.
func sleepWorker(d time.Duration, text string) Worker {
	return WorkerFunc(func(ctx context.Context, req Request) (string, error) {
		select {
		case <-time.After(d):
			return text, nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})
}

// newSet builds a WorkerSet or fails the test.
func newSet(t *testing.T, role string, members ...NamedWorker) *WorkerSet {
	t.Helper()
	ws, err := NewWorkerSet(role, members...)
	require.NoError(t, err)
	return ws
}

func fastConfig() Config {
	return Config{WorkerTimeout: time.Second, Grace: 50 * time.Millisecond}
}

// recorder collects progress events; safe for concurrent use.
type recorder struct {
	ch chan ProgressEvent
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan ProgressEvent, 1024)}
}

func (r *recorder) emit(ev ProgressEvent) { r.ch <- ev }

func (r *recorder) events() []ProgressEvent {
	var out []ProgressEvent
	for {
		select {
		case ev := <-r.ch:
			out = append(out, ev)
		default:
			return out
		}
	}
}
