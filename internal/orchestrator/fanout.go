package orchestrator

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/finpanel/internal/logging"
)

// Executor invokes every worker of a WorkerSet concurrently against one
// shared Request and waits for all of them to reach a terminal state.
// It holds no state across calls.
type Executor struct {
	timeout    time.Duration
	grace      time.Duration
	onProgress func(ProgressEvent)
	logger     logging.Logger
}

// NewExecutor creates an Executor using the timeout settings from cfg.
// onProgress is called synchronously from worker goroutines; it may be nil.
func NewExecutor(cfg Config, onProgress func(ProgressEvent)) *Executor {
	cfg = cfg.withDefaults()
	return &Executor{
		timeout:    cfg.WorkerTimeout,
		grace:      cfg.Grace,
		onProgress: onProgress,
		logger:     logging.Nop(),
	}
}

// SetLogger replaces the executor's logger.
func (e *Executor) SetLogger(l logging.Logger) {
	e.logger = l
}

// attempt is what a worker goroutine reports back to its waiter.
type attempt struct {
	text    string
	err     error
	elapsed time.Duration
}

// Run dispatches one goroutine per worker and returns once every worker has
// succeeded, failed, or timed out. Worker failures never cancel siblings and
// never surface as an error from Run; they are recorded in the returned
// StageResult. The only error is ErrNoWorkers.
func (e *Executor) Run(ctx context.Context, workers *WorkerSet, req Request) (*StageResult, error) {
	if workers.Len() == 0 {
		return nil, ErrNoWorkers
	}

	ctx, span := tracer.Start(ctx, "panel.stage",
		trace.WithAttributes(subjectAttr(req.Subject), stageAttr(req.Stage)))
	defer span.End()

	names := workers.Names()
	slots := make([]Outcome, len(names))

	for _, name := range names {
		e.emit(ProgressEvent{Subject: req.Subject, Stage: req.Stage, Worker: name, Status: ProgressPending})
	}

	start := time.Now()

	// A plain Group: no derived context, so one failing worker cannot
	// cancel the others.
	var g errgroup.Group
	for i, name := range names {
		w := workers.Worker(name)
		g.Go(func() error {
			slots[i] = e.invoke(ctx, name, w, req)
			return nil
		})
	}
	_ = g.Wait()

	result := &StageResult{
		Stage:    req.Stage,
		Names:    names,
		Outcomes: make(map[WorkerName]Outcome, len(names)),
		Elapsed:  time.Since(start),
	}
	for i, name := range names {
		result.Outcomes[name] = slots[i]
	}

	log := e.logger.With(logging.String("subject", req.Subject), logging.String("stage", string(req.Stage)))
	if err := result.Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		log.Warn("stage degraded", logging.Err(err))
	}
	log.Info("stage complete",
		logging.Int("workers", len(names)),
		logging.Int("failed", len(result.Failed())),
		logging.Duration("elapsed", result.Elapsed))

	return result, nil
}

// invoke runs a single worker under a call-scoped timeout and converts every
// way it can end into an Outcome.
func (e *Executor) invoke(ctx context.Context, name WorkerName, w Worker, req Request) Outcome {
	ctx, span := tracer.Start(ctx, "panel.worker",
		trace.WithAttributes(subjectAttr(req.Subject), stageAttr(req.Stage), workerAttr(name)))
	defer span.End()

	e.emit(ProgressEvent{Subject: req.Subject, Stage: req.Stage, Worker: name, Status: ProgressWorking})

	out := call(ctx, name, w, req.forWorker(), e.timeout, e.grace)

	if out.OK() {
		e.emit(ProgressEvent{Subject: req.Subject, Stage: req.Stage, Worker: name, Status: ProgressComplete, Elapsed: out.Elapsed})
	} else {
		span.RecordError(out.Err)
		span.SetStatus(codes.Error, out.Err.Error())
		e.logger.Warn("worker failed",
			logging.String("subject", req.Subject),
			logging.String("stage", string(req.Stage)),
			logging.String("worker", string(name)),
			logging.Duration("elapsed", out.Elapsed),
			logging.Err(out.Err))
		e.emit(ProgressEvent{Subject: req.Subject, Stage: req.Stage, Worker: name, Status: ProgressFailed, Elapsed: out.Elapsed, Message: out.Err.Error()})
	}
	return out
}

// call invokes w with a deadline of timeout. If the deadline passes, the
// worker is given at most grace to return; whatever it returns afterwards is
// dropped into a buffered channel nobody reads.
func call(ctx context.Context, name WorkerName, w Worker, req Request, timeout, grace time.Duration) Outcome {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	done := make(chan attempt, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- attempt{err: &PanicError{Worker: name, Value: r}, elapsed: time.Since(start)}
			}
		}()
		text, err := w.Invoke(callCtx, req)
		done <- attempt{text: text, err: err, elapsed: time.Since(start)}
	}()

	select {
	case a := <-done:
		return classify(ctx, callCtx, name, a, timeout)
	case <-callCtx.Done():
	}

	// The worker may have finished right at the deadline.
	select {
	case a := <-done:
		return classify(ctx, callCtx, name, a, timeout)
	default:
	}

	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
	}
	return expired(ctx, name, timeout, time.Since(start))
}

// classify turns a finished attempt into an Outcome. An error observed after
// the call deadline is reported as a timeout, whatever the worker returned.
func classify(ctx, callCtx context.Context, name WorkerName, a attempt, timeout time.Duration) Outcome {
	if a.err == nil {
		return Success(a.text, a.elapsed)
	}
	var pe *PanicError
	if errors.As(a.err, &pe) {
		return Failure(pe, a.elapsed)
	}
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return Failure(&WorkerTimeoutError{Worker: name, Limit: timeout}, timeout)
	}
	return Failure(&WorkerError{Worker: name, Cause: a.err}, a.elapsed)
}

// expired builds the outcome for a worker abandoned after its deadline or
// after the caller's context ended.
func expired(ctx context.Context, name WorkerName, timeout, elapsed time.Duration) Outcome {
	if err := ctx.Err(); err != nil {
		return Failure(&WorkerError{Worker: name, Cause: err}, elapsed)
	}
	return Failure(&WorkerTimeoutError{Worker: name, Limit: timeout}, timeout)
}

// emit sends a progress event if a callback is registered.
func (e *Executor) emit(ev ProgressEvent) {
	if e.onProgress != nil {
		e.onProgress(ev)
	}
}
