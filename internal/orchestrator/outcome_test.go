package orchestrator

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcome_Render(t *testing.T) {
	assert.Equal(t, "text", Success("text", time.Second).Render(ReportPlaceholder))
	assert.Equal(t, "Unable to generate report due to: boom",
		Failure(errors.New("boom"), 0).Render(ReportPlaceholder))
	assert.Equal(t, "Unable to generate opinion due to: boom",
		Failure(errors.New("boom"), 0).Render(OpinionPlaceholder))
}

func TestStageResult_NilSafe(t *testing.T) {
	var r *StageResult
	assert.Nil(t, r.Ordered())
	assert.Nil(t, r.Succeeded())
	assert.Nil(t, r.Failed())
	assert.NoError(t, r.Err())
}

func TestStageResult_AllFailed(t *testing.T) {
	r := &StageResult{
		Stage: StageOpinion,
		Names: []WorkerName{"A", "B"},
		Outcomes: map[WorkerName]Outcome{
			"A": Failure(errors.New("x"), 0),
			"B": Failure(errors.New("y"), 0),
		},
	}
	var all *AllWorkersFailedError
	require.ErrorAs(t, r.Err(), &all)
	assert.Equal(t, StageOpinion, all.Stage)
	assert.Equal(t, "opinion stage: all 2 workers failed", all.Error())
}

func TestSubjectResult_Failures(t *testing.T) {
	res := SubjectResult{
		Subject: "MSFT",
		Analysis: &StageResult{
			Stage: StageAnalysis,
			Names: []WorkerName{"A", "B"},
			Outcomes: map[WorkerName]Outcome{
				"A": Success("ok", 0),
				"B": Failure(errors.New("bad"), 0),
			},
		},
		Opinion: &StageResult{
			Stage:    StageOpinion,
			Names:    []WorkerName{"I"},
			Outcomes: map[WorkerName]Outcome{"I": Failure(&WorkerTimeoutError{Worker: "I", Limit: time.Minute}, time.Minute)},
		},
		Decision: Decision{Err: &SynthesisError{Subject: "MSFT", Cause: errors.New("down")}},
	}

	assert.Equal(t, []string{
		"analysis/B: bad",
		`opinion/I: worker "I" timed out after 1m0s`,
		"synthesis: synthesize MSFT: down",
	}, res.Failures())
	assert.False(t, res.Fatal())
}

func TestBatchResult_Lookup(t *testing.T) {
	b := &BatchResult{Subjects: []SubjectResult{
		{Subject: "A"},
		{Subject: "B", FetchErr: &FetchError{Subject: "B", Cause: errors.New("x")}},
	}}

	got, ok := b.Lookup("B")
	require.True(t, ok)
	assert.True(t, got.Fatal())
	_, ok = b.Lookup("C")
	assert.False(t, ok)
	assert.Equal(t, 1, b.FatalCount())
}
