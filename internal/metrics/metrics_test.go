package metrics

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/finpanel/internal/orchestrator"
)

func workerEvent(stage orchestrator.Stage, worker string, status orchestrator.ProgressStatus, elapsed time.Duration) orchestrator.ProgressEvent {
	return orchestrator.ProgressEvent{
		Subject: "MSFT",
		Stage:   stage,
		Worker:  orchestrator.WorkerName(worker),
		Status:  status,
		Elapsed: elapsed,
	}
}

func TestObserve_WorkerOutcomes(t *testing.T) {
	m := New()
	m.Observe(workerEvent(orchestrator.StageAnalysis, "ESG Analyst", orchestrator.ProgressPending, 0))
	m.Observe(workerEvent(orchestrator.StageAnalysis, "ESG Analyst", orchestrator.ProgressWorking, 0))
	m.Observe(workerEvent(orchestrator.StageAnalysis, "ESG Analyst", orchestrator.ProgressComplete, 2*time.Second))
	m.Observe(workerEvent(orchestrator.StageOpinion, "Ray Dalio", orchestrator.ProgressFailed, time.Second))
	m.Observe(workerEvent(orchestrator.StageOpinion, "Ray Dalio", orchestrator.ProgressFailed, time.Second))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.workerOutcomes.WithLabelValues("analysis", "ESG Analyst", "complete")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.workerOutcomes.WithLabelValues("opinion", "Ray Dalio", "failed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.workerOutcomes.WithLabelValues("analysis", "ESG Analyst", "pending")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.workerDuration))
}

func TestObserve_SubjectsInFlight(t *testing.T) {
	m := New()
	phase := func(subject string, p orchestrator.Phase, s orchestrator.ProgressStatus) {
		m.Observe(orchestrator.ProgressEvent{Subject: subject, Phase: p, Status: s})
	}

	phase("MSFT", orchestrator.PhaseFetching, orchestrator.ProgressWorking)
	phase("AAPL", orchestrator.PhaseFetching, orchestrator.ProgressWorking)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.inFlight))

	phase("MSFT", orchestrator.PhaseAnalyzing, orchestrator.ProgressWorking)
	phase("MSFT", orchestrator.PhaseDone, orchestrator.ProgressComplete)
	phase("AAPL", orchestrator.PhaseDone, orchestrator.ProgressFailed)
	// Skipped before fetching: counted as an outcome, not as in flight.
	phase("NVDA", orchestrator.PhaseDone, orchestrator.ProgressFailed)

	assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.subjectOutcomes.WithLabelValues("complete")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.subjectOutcomes.WithLabelValues("failed")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.Observe(workerEvent(orchestrator.StageAnalysis, "Technical Analyst", orchestrator.ProgressComplete, time.Second))

	ts := httptest.NewServer(m.Handler())
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.True(t, strings.Contains(text,
		`finpanel_worker_outcomes_total{stage="analysis",status="complete",worker="Technical Analyst"} 1`), text)
	assert.Contains(t, text, "finpanel_subjects_in_flight 0")
	assert.Contains(t, text, "go_goroutines")
}

func TestObserve_FeedsFromBatch(t *testing.T) {
	m := New()
	worker := orchestrator.WorkerFunc(func(ctx context.Context, req orchestrator.Request) (string, error) {
		return "ok", nil
	})
	set := func(role string, names ...string) *orchestrator.WorkerSet {
		members := make([]orchestrator.NamedWorker, 0, len(names))
		for _, n := range names {
			members = append(members, orchestrator.NamedWorker{Name: orchestrator.WorkerName(n), Worker: worker})
		}
		ws, err := orchestrator.NewWorkerSet(role, members...)
		require.NoError(t, err)
		return ws
	}
	fetch := orchestrator.FetchFunc(func(ctx context.Context, s string) (orchestrator.Record, error) {
		if s == "BAD" {
			return nil, errors.New("no data")
		}
		return orchestrator.Record{"ticker": s}, nil
	})

	b := orchestrator.New(fetch, set("analyst", "A1", "A2"), set("investor", "I1"), worker,
		orchestrator.Config{Parallelism: 2}, orchestrator.Fanout(m.Observe))
	b.Run(context.Background(), []string{"MSFT", "BAD"})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.workerOutcomes.WithLabelValues("analysis", "A1", "complete")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.subjectOutcomes.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.subjectOutcomes.WithLabelValues("complete")))
}
