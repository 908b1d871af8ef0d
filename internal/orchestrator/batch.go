package orchestrator

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/finpanel/internal/logging"
)

// Compile-time interface check.
var _ Runner = (*Batch)(nil)

// Batch consults the panel about many subjects. One subject's failure never
// aborts the others; only cancellation of the caller's context stops the
// batch, and subjects not yet started are then recorded as failed with the
// context error.
type Batch struct {
	coordinator *Coordinator
	synthesizer *Synthesizer
	cfg         Config
	onProgress  func(ProgressEvent)
	logger      logging.Logger
}

// NewBatch wires a Batch from its two stages.
func NewBatch(coordinator *Coordinator, synthesizer *Synthesizer, cfg Config, onProgress func(ProgressEvent)) *Batch {
	return &Batch{
		coordinator: coordinator,
		synthesizer: synthesizer,
		cfg:         cfg.withDefaults(),
		onProgress:  onProgress,
		logger:      logging.Nop(),
	}
}

// New wires the full engine: one Executor shared by both stages, a
// Coordinator over it, and a Synthesizer calling synth.
func New(fetcher DataFetcher, analysts, investors *WorkerSet, synth Worker, cfg Config, onProgress func(ProgressEvent)) *Batch {
	cfg = cfg.withDefaults()
	exec := NewExecutor(cfg, onProgress)
	coord := NewCoordinator(fetcher, exec, analysts, investors, cfg.MarketContext, onProgress)
	return NewBatch(coord, NewSynthesizer(synth, cfg, onProgress), cfg, onProgress)
}

// SetLogger replaces the batch logger and propagates it to the stages.
func (b *Batch) SetLogger(l logging.Logger) {
	b.logger = l
	b.coordinator.SetLogger(l)
	b.synthesizer.SetLogger(l)
}

// RunSubject runs one subject through fetch, both stages and synthesis.
func (b *Batch) RunSubject(ctx context.Context, subject string) SubjectResult {
	start := time.Now()
	res := SubjectResult{Subject: subject}

	if err := ctx.Err(); err != nil {
		res.FetchErr = &FetchError{Subject: subject, Cause: err}
		res.Elapsed = time.Since(start)
		b.done(res)
		return res
	}

	record, analysis, opinion, err := b.coordinator.RunSubject(ctx, subject)
	res.Record = record
	res.Analysis = analysis
	res.Opinion = opinion
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) {
			res.FetchErr = err
		} else {
			res.StageErr = err
		}
		res.Elapsed = time.Since(start)
		b.done(res)
		return res
	}

	b.phase(subject, PhaseSynthesizing, ProgressWorking, "")
	res.Decision = b.synthesizer.Synthesize(ctx, subject, record, opinion, b.cfg.MarketContext)

	res.Elapsed = time.Since(start)
	b.done(res)
	return res
}

// Run processes subjects and returns their results in input order. With
// Parallelism above 1 up to that many subjects run at once; each writes only
// its own slot.
func (b *Batch) Run(ctx context.Context, subjects []string) *BatchResult {
	start := time.Now()
	results := make([]SubjectResult, len(subjects))

	if b.cfg.Parallelism <= 1 {
		for i, subject := range subjects {
			results[i] = b.RunSubject(ctx, subject)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(b.cfg.Parallelism)
		for i, subject := range subjects {
			g.Go(func() error {
				results[i] = b.RunSubject(ctx, subject)
				return nil
			})
		}
		_ = g.Wait()
	}

	out := &BatchResult{Subjects: results, Elapsed: time.Since(start)}
	b.logger.Info("batch complete",
		logging.Int("subjects", len(subjects)),
		logging.Int("fatal", out.FatalCount()),
		logging.Duration("elapsed", out.Elapsed))
	return out
}

func (b *Batch) done(res SubjectResult) {
	log := b.logger.With(logging.String("subject", res.Subject))
	switch {
	case res.Fatal():
		err := res.FatalErr()
		if isCanceled(err) {
			log.Info("subject skipped", logging.Err(err))
		} else {
			log.Warn("subject failed", logging.Err(err))
		}
		b.phase(res.Subject, PhaseDone, ProgressFailed, err.Error())
	case !res.Decision.OK():
		b.phase(res.Subject, PhaseDone, ProgressFailed, res.Decision.Err.Error())
	default:
		log.Info("subject complete", logging.Duration("elapsed", res.Elapsed))
		b.phase(res.Subject, PhaseDone, ProgressComplete, "")
	}
}

func (b *Batch) phase(subject string, p Phase, status ProgressStatus, msg string) {
	if b.onProgress != nil {
		b.onProgress(ProgressEvent{Subject: subject, Phase: p, Status: status, Message: msg})
	}
}

// NormalizeSubjects trims and upper-cases subjects, drops blanks and keeps
// the first occurrence of each duplicate.
func NormalizeSubjects(subjects []string) []string {
	seen := make(map[string]bool, len(subjects))
	out := make([]string, 0, len(subjects))
	for _, s := range subjects {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
