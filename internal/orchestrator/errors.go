package orchestrator

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNoWorkers is returned by Executor.Run for an empty WorkerSet.
	ErrNoWorkers = errors.New("no workers configured")

	// ErrDuplicateWorker is returned when a WorkerSet is built with two
	// workers of the same name.
	ErrDuplicateWorker = errors.New("duplicate worker name")
)

// FetchError is fatal for a subject: neither stage runs.
type FetchError struct {
	Subject string
	Cause   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Subject, e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }

// WorkerTimeoutError records a worker that exceeded its per-call limit.
type WorkerTimeoutError struct {
	Worker WorkerName
	Limit  time.Duration
}

func (e *WorkerTimeoutError) Error() string {
	return fmt.Sprintf("worker %q timed out after %s", e.Worker, e.Limit)
}

// WorkerError wraps an error returned by a worker.
type WorkerError struct {
	Worker WorkerName
	Cause  error
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("worker %q: %v", e.Worker, e.Cause)
}

func (e *WorkerError) Unwrap() error { return e.Cause }

// PanicError records a worker that panicked instead of returning.
type PanicError struct {
	Worker WorkerName
	Value  any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("worker %q panicked: %v", e.Worker, e.Value)
}

// AllWorkersFailedError reports a stage in which no worker succeeded. It is
// informational: the stage result is still returned and the next stage
// proceeds on placeholder context.
type AllWorkersFailedError struct {
	Stage   Stage
	Workers int
}

func (e *AllWorkersFailedError) Error() string {
	return fmt.Sprintf("%s stage: all %d workers failed", e.Stage, e.Workers)
}

// SynthesisError records a failed synthesis call. It is fatal for the
// subject's decision only.
type SynthesisError struct {
	Subject string
	Cause   error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesize %s: %v", e.Subject, e.Cause)
}

func (e *SynthesisError) Unwrap() error { return e.Cause }

// IsTimeout reports whether err is, or wraps, a WorkerTimeoutError.
func IsTimeout(err error) bool {
	var te *WorkerTimeoutError
	return errors.As(err, &te)
}
