package orchestrator

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dusk-indust/finpanel/internal/logging"
)

// Coordinator runs the two fan-out stages for a single subject: analysts
// first, then investors with every analyst outcome embedded in their request.
// The opinion stage never starts before the analysis barrier.
type Coordinator struct {
	fetcher       DataFetcher
	executor      *Executor
	analysts      *WorkerSet
	investors     *WorkerSet
	marketContext string
	onProgress    func(ProgressEvent)
	logger        logging.Logger
}

// NewCoordinator wires a Coordinator. The executor's progress callback and
// onProgress are usually the same sink; onProgress receives phase events only.
func NewCoordinator(fetcher DataFetcher, executor *Executor, analysts, investors *WorkerSet, marketContext string, onProgress func(ProgressEvent)) *Coordinator {
	return &Coordinator{
		fetcher:       fetcher,
		executor:      executor,
		analysts:      analysts,
		investors:     investors,
		marketContext: marketContext,
		onProgress:    onProgress,
		logger:        logging.Nop(),
	}
}

// SetLogger replaces the coordinator's logger and its executor's.
func (c *Coordinator) SetLogger(l logging.Logger) {
	c.logger = l
	c.executor.SetLogger(l)
}

// RunSubject fetches the subject's record and runs both stages. A fetch
// failure returns a *FetchError and no stage results. Worker failures only
// degrade the context handed to the next stage; they are never returned.
func (c *Coordinator) RunSubject(ctx context.Context, subject string) (Record, *StageResult, *StageResult, error) {
	ctx, span := tracer.Start(ctx, "panel.subject", trace.WithAttributes(subjectAttr(subject)))
	defer span.End()

	log := c.logger.With(logging.String("subject", subject))

	c.phase(subject, PhaseFetching, ProgressWorking, "")
	record, err := c.fetcher.Fetch(ctx, subject)
	if err != nil {
		ferr := &FetchError{Subject: subject, Cause: err}
		span.SetStatus(codes.Error, ferr.Error())
		log.Warn("fetch failed", logging.Err(err))
		return nil, nil, nil, ferr
	}
	if record == nil {
		record = Record{}
	}

	c.phase(subject, PhaseAnalyzing, ProgressWorking, "")
	analysis, err := c.executor.Run(ctx, c.analysts, Request{
		Subject:       subject,
		Stage:         StageAnalysis,
		Record:        record,
		MarketContext: c.marketContext,
	})
	if err != nil {
		return record, nil, nil, err
	}

	c.phase(subject, PhaseOpining, ProgressWorking, "")
	opinion, err := c.executor.Run(ctx, c.investors, Request{
		Subject:        subject,
		Stage:          StageOpinion,
		Record:         record,
		MarketContext:  c.marketContext,
		AnalystReports: FormatReports(analysis, ReportPlaceholder),
	})
	if err != nil {
		return record, analysis, nil, err
	}

	log.Debug("stages complete",
		logging.Int("analysts_ok", len(analysis.Succeeded())),
		logging.Int("investors_ok", len(opinion.Succeeded())))
	return record, analysis, opinion, nil
}

func (c *Coordinator) phase(subject string, p Phase, status ProgressStatus, msg string) {
	if c.onProgress != nil {
		c.onProgress(ProgressEvent{Subject: subject, Phase: p, Status: status, Message: msg})
	}
}

// FormatReports renders a stage as "Name:\ntext" blocks separated by blank
// lines, in registry order. Failed workers are rendered as placeholder
// followed by the error so every worker has an entry.
func FormatReports(stage *StageResult, placeholder string) string {
	if stage == nil {
		return ""
	}
	blocks := make([]string, 0, len(stage.Names))
	for _, no := range stage.Ordered() {
		blocks = append(blocks, string(no.Name)+":\n"+no.Render(placeholder))
	}
	return strings.Join(blocks, "\n\n")
}

// isCanceled reports whether err comes from the caller's context rather than
// from the subject itself.
func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
