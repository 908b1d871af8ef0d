package orchestrator

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBatch(t *testing.T, fetcher DataFetcher, cfg Config, onProgress func(ProgressEvent)) *Batch {
	t.Helper()
	analysts := newSet(t, "analyst",
		NamedWorker{Name: "A1", Worker: textWorker("r1")},
		NamedWorker{Name: "A2", Worker: textWorker("r2")},
	)
	investors := newSet(t, "investor",
		NamedWorker{Name: "I1", Worker: textWorker("o1")},
	)
	synth := WorkerFunc(func(ctx context.Context, req Request) (string, error) {
		return "decision for " + req.Subject, nil
	})
	return New(fetcher, analysts, investors, synth, cfg, onProgress)
}

func TestBatch_PreservesInputOrder(t *testing.T) {
	fetcher := FetchFunc(func(ctx context.Context, subject string) (Record, error) {
		if subject == "B" {
			time.Sleep(200 * time.Millisecond)
		}
		return Record{"ticker": subject}, nil
	})
	cfg := fastConfig()
	cfg.Parallelism = 2

	res := newTestBatch(t, fetcher, cfg, nil).Run(context.Background(), []string{"B", "A"})

	require.Len(t, res.Subjects, 2)
	assert.Equal(t, "B", res.Subjects[0].Subject)
	assert.Equal(t, "A", res.Subjects[1].Subject)
	assert.Equal(t, "decision for B", res.Subjects[0].Decision.Text)
	assert.Equal(t, "decision for A", res.Subjects[1].Decision.Text)
}

func TestBatch_FetchErrorDoesNotStopLaterSubjects(t *testing.T) {
	fetcher := FetchFunc(func(ctx context.Context, subject string) (Record, error) {
		if subject == "X" {
			return nil, errors.New("no such ticker")
		}
		return Record{}, nil
	})

	res := newTestBatch(t, fetcher, fastConfig(), nil).Run(context.Background(), []string{"X", "MSFT"})

	require.Len(t, res.Subjects, 2)
	x := res.Subjects[0]
	assert.True(t, x.Fatal())
	assert.Nil(t, x.Analysis)
	assert.Nil(t, x.Opinion)
	assert.Empty(t, x.Decision.Text)
	assert.Equal(t, []string{"fetch X: no such ticker"}, x.Failures())

	m := res.Subjects[1]
	assert.False(t, m.Fatal())
	assert.Len(t, m.Analysis.Succeeded(), 2)
	assert.Len(t, m.Opinion.Succeeded(), 1)
	assert.Equal(t, "decision for MSFT", m.Decision.Text)
	assert.Empty(t, m.Failures())
	assert.Equal(t, 1, res.FatalCount())
}

func TestBatch_CanceledContextMarksUnstartedSubjects(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var fetched atomic.Int32
	fetcher := FetchFunc(func(_ context.Context, subject string) (Record, error) {
		fetched.Add(1)
		cancel()
		return Record{}, nil
	})

	res := newTestBatch(t, fetcher, fastConfig(), nil).Run(ctx, []string{"FIRST", "SECOND", "THIRD"})

	require.Len(t, res.Subjects, 3)
	assert.Equal(t, int32(1), fetched.Load())
	for _, s := range res.Subjects[1:] {
		require.True(t, s.Fatal(), s.Subject)
		assert.ErrorIs(t, s.FetchErr, context.Canceled)
	}
}

func TestBatch_SynthesisFailureIsNotFatal(t *testing.T) {
	analysts := newSet(t, "analyst", NamedWorker{Name: "A", Worker: textWorker("r")})
	investors := newSet(t, "investor", NamedWorker{Name: "I", Worker: textWorker("o")})
	b := New(FetchFunc(func(ctx context.Context, s string) (Record, error) { return Record{}, nil }),
		analysts, investors, failWorker("synth down"), fastConfig(), nil)

	res := b.RunSubject(context.Background(), "T")

	assert.False(t, res.Fatal())
	assert.False(t, res.Decision.OK())
	require.Len(t, res.Failures(), 1)
	assert.Contains(t, res.Failures()[0], "synthesis:")
}

func TestBatch_PhaseSequence(t *testing.T) {
	rec := newRecorder()
	fetcher := FetchFunc(func(ctx context.Context, s string) (Record, error) { return Record{}, nil })

	newTestBatch(t, fetcher, fastConfig(), rec.emit).RunSubject(context.Background(), "T")

	var phases []Phase
	for _, ev := range rec.events() {
		if ev.Worker == "" {
			phases = append(phases, ev.Phase)
		}
	}
	assert.Equal(t, []Phase{PhaseFetching, PhaseAnalyzing, PhaseOpining, PhaseSynthesizing, PhaseDone}, phases)
}

func TestBatch_FetchFailureGoesStraightToDone(t *testing.T) {
	rec := newRecorder()
	fetcher := FetchFunc(func(ctx context.Context, s string) (Record, error) { return nil, errors.New("down") })

	newTestBatch(t, fetcher, fastConfig(), rec.emit).RunSubject(context.Background(), "T")

	var phases []Phase
	var last ProgressEvent
	for _, ev := range rec.events() {
		phases = append(phases, ev.Phase)
		last = ev
	}
	assert.Equal(t, []Phase{PhaseFetching, PhaseDone}, phases)
	assert.Equal(t, ProgressFailed, last.Status)
	assert.Contains(t, last.Message, "down")
}

func TestNormalizeSubjects(t *testing.T) {
	got := NormalizeSubjects([]string{" msft", "AAPL", "", "  ", "msft", "nvda "})
	assert.Equal(t, []string{"MSFT", "AAPL", "NVDA"}, got)
	assert.Empty(t, NormalizeSubjects(nil))
}

func TestBatch_EmptyInvestorSetIsNotAFetchFailure(t *testing.T) {
	analysts := newSet(t, "analyst", NamedWorker{Name: "A", Worker: textWorker("report")})
	investors := newSet(t, "investor")
	b := New(FetchFunc(func(ctx context.Context, s string) (Record, error) { return Record{"price": 1.0}, nil }),
		analysts, investors, textWorker("decision"), fastConfig(), nil)

	res := b.RunSubject(context.Background(), "T")

	require.True(t, res.Fatal())
	assert.NoError(t, res.FetchErr)
	assert.ErrorIs(t, res.StageErr, ErrNoWorkers)
	assert.ErrorIs(t, res.FatalErr(), ErrNoWorkers)
	assert.NotContains(t, res.FatalErr().Error(), "fetch")

	require.NotNil(t, res.Analysis)
	assert.Equal(t, []WorkerName{"A"}, res.Analysis.Succeeded())
	assert.Nil(t, res.Opinion)
	assert.Equal(t, 1.0, res.Record.Float("price"))
	assert.Equal(t, []string{res.StageErr.Error()}, res.Failures())
}
