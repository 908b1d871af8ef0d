package orchestrator

//go:generate mockgen -source=orchestrator.go -destination=mocks/mock_fetcher.go -package=mocks

import (
	"context"
	"time"
)

// Stage identifies one round of a subject's consultation.
type Stage string

const (
	StageAnalysis  Stage = "analysis"
	StageOpinion   Stage = "opinion"
	StageSynthesis Stage = "synthesis"
)

func (s Stage) String() string { return string(s) }

// Phase is the position of a subject in its consultation. A subject moves
// Fetching -> Analyzing -> Opining -> Synthesizing -> Done, or straight from
// Fetching to Done when its data cannot be fetched.
type Phase string

const (
	PhaseFetching     Phase = "fetching"
	PhaseAnalyzing    Phase = "analyzing"
	PhaseOpining      Phase = "opining"
	PhaseSynthesizing Phase = "synthesizing"
	PhaseDone         Phase = "done"
)

// ProgressEvent is emitted while a batch runs. Worker is empty for
// subject-level phase transitions.
type ProgressEvent struct {
	Subject string
	Stage   Stage
	Phase   Phase
	Worker  WorkerName
	Status  ProgressStatus
	Elapsed time.Duration
	Message string
}

// ProgressStatus is the state of a worker or subject.
type ProgressStatus string

const (
	ProgressPending  ProgressStatus = "pending"
	ProgressWorking  ProgressStatus = "working"
	ProgressComplete ProgressStatus = "complete"
	ProgressFailed   ProgressStatus = "failed"
)

// Request is the payload handed to every worker of a stage. It is passed by
// value and its Record is cloned per worker, so no worker can observe
// another's output or mutations within the same stage.
type Request struct {
	Subject string
	Stage   Stage
	Record  Record

	// MarketContext is the static market fragment, constant for a run.
	MarketContext string

	// AnalystReports is the rendered analysis stage, set for the opinion stage.
	AnalystReports string

	// Opinions is the rendered opinion stage, set for the synthesis step.
	Opinions string
}

// forWorker returns a copy of r that shares nothing mutable with r.
func (r Request) forWorker() Request {
	r.Record = r.Record.Clone()
	return r
}

// DataFetcher retrieves the record describing a subject.
type DataFetcher interface {
	Fetch(ctx context.Context, subject string) (Record, error)
}

// FetchFunc adapts a function to DataFetcher.
type FetchFunc func(ctx context.Context, subject string) (Record, error)

// Fetch calls f.
func (f FetchFunc) Fetch(ctx context.Context, subject string) (Record, error) {
	return f(ctx, subject)
}

// Runner is the batch entry point used by the surface layers.
type Runner interface {
	// RunSubject consults the panel about a single subject.
	RunSubject(ctx context.Context, subject string) SubjectResult

	// Run consults the panel about every subject, preserving input order.
	Run(ctx context.Context, subjects []string) *BatchResult
}
