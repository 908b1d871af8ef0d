package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticFetcher(records map[string]Record) DataFetcher {
	return FetchFunc(func(ctx context.Context, subject string) (Record, error) {
		r, ok := records[subject]
		if !ok {
			return nil, errors.New("unknown ticker")
		}
		return r, nil
	})
}

func TestFormatReports_RegistryOrderWithPlaceholders(t *testing.T) {
	stage := &StageResult{
		Stage: StageAnalysis,
		Names: []WorkerName{"Fundamental Analyst", "Technical Analyst", "ESG Analyst"},
		Outcomes: map[WorkerName]Outcome{
			"ESG Analyst":         Success("esg view", 0),
			"Technical Analyst":   Failure(errors.New("rate limited"), 0),
			"Fundamental Analyst": Success("fundamentals", 0),
		},
	}

	got := FormatReports(stage, ReportPlaceholder)

	want := "Fundamental Analyst:\nfundamentals\n\n" +
		"Technical Analyst:\nUnable to generate report due to: rate limited\n\n" +
		"ESG Analyst:\nesg view"
	assert.Equal(t, want, got)
	assert.Empty(t, FormatReports(nil, ReportPlaceholder))
}

func TestCoordinator_OpinionStageStartsAfterAnalysisBarrier(t *testing.T) {
	var (
		mu    sync.Mutex
		trace []string
	)
	mark := func(s string) {
		mu.Lock()
		defer mu.Unlock()
		trace = append(trace, s)
	}

	slowAnalyst := WorkerFunc(func(ctx context.Context, req Request) (string, error) {
		time.Sleep(150 * time.Millisecond)
		mark("analyst-done")
		return "slow report", nil
	})
	fastAnalyst := WorkerFunc(func(ctx context.Context, req Request) (string, error) {
		mark("analyst-done")
		return "fast report", nil
	})
	var seen string
	investor := WorkerFunc(func(ctx context.Context, req Request) (string, error) {
		mark("investor-start")
		seen = req.AnalystReports
		return "buy", nil
	})

	analysts := newSet(t, "analyst",
		NamedWorker{Name: "Slow", Worker: slowAnalyst},
		NamedWorker{Name: "Fast", Worker: fastAnalyst},
	)
	investors := newSet(t, "investor", NamedWorker{Name: "Investor", Worker: investor})
	coord := NewCoordinator(staticFetcher(map[string]Record{"MSFT": {"price": 1.0}}),
		NewExecutor(fastConfig(), nil), analysts, investors, "ctx", nil)

	_, analysis, opinion, err := coord.RunSubject(context.Background(), "MSFT")
	require.NoError(t, err)
	require.NotNil(t, analysis)
	require.NotNil(t, opinion)

	assert.Equal(t, []string{"analyst-done", "analyst-done", "investor-start"}, trace)
	assert.Equal(t, "Slow:\nslow report\n\nFast:\nfast report", seen)
}

func TestCoordinator_FailedAnalystBecomesPlaceholder(t *testing.T) {
	var reports, market string
	var record Record
	investor := WorkerFunc(func(ctx context.Context, req Request) (string, error) {
		reports, market, record = req.AnalystReports, req.MarketContext, req.Record
		return "hold", nil
	})
	analysts := newSet(t, "analyst",
		NamedWorker{Name: "A", Worker: textWorker("fine")},
		NamedWorker{Name: "B", Worker: failWorker("no data")},
	)
	investors := newSet(t, "investor", NamedWorker{Name: "I", Worker: investor})
	coord := NewCoordinator(staticFetcher(map[string]Record{"AAPL": {"sector": "Technology"}}),
		NewExecutor(fastConfig(), nil), analysts, investors, "VIX: 18.5", nil)

	_, _, opinion, err := coord.RunSubject(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.True(t, opinion.Outcomes["I"].OK())
	assert.Contains(t, reports, "A:\nfine")
	assert.Contains(t, reports, `B:
Unable to generate report due to: worker "B": no data`)
	assert.Equal(t, "VIX: 18.5", market)
	assert.Equal(t, "Technology", record.String("sector"))
}

func TestCoordinator_AllAnalystsFailStillRunsInvestors(t *testing.T) {
	analysts := newSet(t, "analyst",
		NamedWorker{Name: "A", Worker: failWorker("x")},
		NamedWorker{Name: "B", Worker: failWorker("y")},
	)
	investors := newSet(t, "investor", NamedWorker{Name: "I", Worker: WorkerFunc(
		func(ctx context.Context, req Request) (string, error) {
			return fmt.Sprintf("saw %d", strings.Count(req.AnalystReports, ReportPlaceholder)), nil
		})})
	coord := NewCoordinator(staticFetcher(map[string]Record{"T": {}}), NewExecutor(fastConfig(), nil), analysts, investors, "", nil)

	_, analysis, opinion, err := coord.RunSubject(context.Background(), "T")
	require.NoError(t, err)

	assert.Error(t, analysis.Err())
	assert.Equal(t, "saw 2", opinion.Outcomes["I"].Text)
}

func TestCoordinator_FetchErrorSkipsStages(t *testing.T) {
	var calls int
	counting := WorkerFunc(func(ctx context.Context, req Request) (string, error) {
		calls++
		return "", nil
	})
	analysts := newSet(t, "analyst", NamedWorker{Name: "A", Worker: counting})
	investors := newSet(t, "investor", NamedWorker{Name: "I", Worker: counting})
	coord := NewCoordinator(staticFetcher(nil), NewExecutor(fastConfig(), nil), analysts, investors, "", nil)

	record, analysis, opinion, err := coord.RunSubject(context.Background(), "NOPE")

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "NOPE", fe.Subject)
	assert.Nil(t, record)
	assert.Nil(t, analysis)
	assert.Nil(t, opinion)
	assert.Zero(t, calls)
}

func TestCoordinator_EmitsPhases(t *testing.T) {
	rec := newRecorder()
	analysts := newSet(t, "analyst", NamedWorker{Name: "A", Worker: textWorker("a")})
	investors := newSet(t, "investor", NamedWorker{Name: "I", Worker: textWorker("i")})
	coord := NewCoordinator(staticFetcher(map[string]Record{"T": {}}), NewExecutor(fastConfig(), nil), analysts, investors, "", rec.emit)

	_, _, _, err := coord.RunSubject(context.Background(), "T")
	require.NoError(t, err)

	var phases []Phase
	for _, ev := range rec.events() {
		phases = append(phases, ev.Phase)
	}
	assert.Equal(t, []Phase{PhaseFetching, PhaseAnalyzing, PhaseOpining}, phases)
}
