package orchestrator

import "time"

const (
	// DefaultWorkerTimeout is the per-worker ceiling. Workers are expected to
	// be slow remote calls, so the limit is generous.
	DefaultWorkerTimeout = 5 * time.Minute

	// DefaultGrace bounds how long the executor waits for an abandoned
	// worker to observe cancellation before moving on.
	DefaultGrace = 2 * time.Second
)

// Config holds runtime settings for a panel run.
type Config struct {
	// WorkerTimeout limits each worker invocation, synthesis included.
	WorkerTimeout time.Duration

	// Grace is how long a timed-out worker is given to exit.
	Grace time.Duration

	// Parallelism is the number of subjects consulted at once. Values
	// below 2 process subjects sequentially.
	Parallelism int

	// MarketContext is the static market fragment embedded in opinion and
	// synthesis requests.
	MarketContext string
}

// withDefaults fills zero values.
func (c Config) withDefaults() Config {
	if c.WorkerTimeout <= 0 {
		c.WorkerTimeout = DefaultWorkerTimeout
	}
	if c.Grace <= 0 {
		c.Grace = DefaultGrace
	}
	if c.Parallelism < 1 {
		c.Parallelism = 1
	}
	return c
}
