package orchestrator

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dusk-indust/finpanel/internal/logging"
)

// SynthesizerName is the worker name used for the synthesis step in errors,
// spans and progress events.
const SynthesizerName WorkerName = "Synthesizer"

// Synthesizer merges a subject's opinions into a single decision with one
// call of its worker, under the same timeout policy as the executor.
type Synthesizer struct {
	worker     Worker
	timeout    time.Duration
	grace      time.Duration
	onProgress func(ProgressEvent)
	logger     logging.Logger
}

// NewSynthesizer creates a Synthesizer calling w.
func NewSynthesizer(w Worker, cfg Config, onProgress func(ProgressEvent)) *Synthesizer {
	cfg = cfg.withDefaults()
	return &Synthesizer{
		worker:     w,
		timeout:    cfg.WorkerTimeout,
		grace:      cfg.Grace,
		onProgress: onProgress,
		logger:     logging.Nop(),
	}
}

// SetLogger replaces the synthesizer's logger.
func (s *Synthesizer) SetLogger(l logging.Logger) {
	s.logger = l
}

// Synthesize renders opinions in registry order, failed investors as
// OpinionPlaceholder entries, and asks the synthesis worker for a decision.
// A failure is returned inside the Decision as a *SynthesisError.
func (s *Synthesizer) Synthesize(ctx context.Context, subject string, record Record, opinions *StageResult, marketContext string) Decision {
	ctx, span := tracer.Start(ctx, "panel.synthesis",
		trace.WithAttributes(subjectAttr(subject), stageAttr(StageSynthesis)))
	defer span.End()

	req := Request{
		Subject:       subject,
		Stage:         StageSynthesis,
		Record:        record,
		MarketContext: marketContext,
		Opinions:      FormatReports(opinions, OpinionPlaceholder),
	}

	s.emit(ProgressEvent{Subject: subject, Stage: StageSynthesis, Worker: SynthesizerName, Status: ProgressWorking})

	out := call(ctx, SynthesizerName, s.worker, req.forWorker(), s.timeout, s.grace)
	if !out.OK() {
		err := &SynthesisError{Subject: subject, Cause: out.Err}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn("synthesis failed", logging.String("subject", subject), logging.Err(out.Err))
		s.emit(ProgressEvent{Subject: subject, Stage: StageSynthesis, Worker: SynthesizerName, Status: ProgressFailed, Elapsed: out.Elapsed, Message: err.Error()})
		return Decision{Err: err, Elapsed: out.Elapsed}
	}

	s.emit(ProgressEvent{Subject: subject, Stage: StageSynthesis, Worker: SynthesizerName, Status: ProgressComplete, Elapsed: out.Elapsed})
	return Decision{Text: out.Text, Elapsed: out.Elapsed}
}

func (s *Synthesizer) emit(ev ProgressEvent) {
	if s.onProgress != nil {
		s.onProgress(ev)
	}
}
