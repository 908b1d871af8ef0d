package export

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/finpanel/internal/orchestrator"
)

func stage(s orchestrator.Stage, outcomes ...orchestrator.NamedOutcome) *orchestrator.StageResult {
	r := &orchestrator.StageResult{Stage: s, Outcomes: map[orchestrator.WorkerName]orchestrator.Outcome{}}
	for _, no := range outcomes {
		r.Names = append(r.Names, no.Name)
		r.Outcomes[no.Name] = no.Outcome
	}
	return r
}

func ok(name, text string) orchestrator.NamedOutcome {
	return orchestrator.NamedOutcome{Name: orchestrator.WorkerName(name), Outcome: orchestrator.Success(text, time.Second)}
}

func failed(name string, err error) orchestrator.NamedOutcome {
	return orchestrator.NamedOutcome{Name: orchestrator.WorkerName(name), Outcome: orchestrator.Failure(err, time.Second)}
}

func degradedResult() orchestrator.SubjectResult {
	return orchestrator.SubjectResult{
		Subject: "MSFT",
		Analysis: stage(orchestrator.StageAnalysis,
			ok("Fundamental Analyst", "solid balance sheet"),
			failed("Technical Analyst", errors.New("rate limited")),
		),
		Opinion: stage(orchestrator.StageOpinion,
			ok("Warren Buffett", "**Recommendation**: HOLD"),
			ok("Cathie Wood", "**Recommendation**: BUY"),
		),
		Decision: orchestrator.Decision{Text: "# Investment Synthesis: MSFT\n\nHOLD"},
		Elapsed:  3 * time.Second,
	}
}

func fatalResult() orchestrator.SubjectResult {
	return orchestrator.SubjectResult{
		Subject:  "XYZ",
		FetchErr: &orchestrator.FetchError{Subject: "XYZ", Cause: errors.New("unknown subject")},
	}
}

func TestDecisionMarkdown(t *testing.T) {
	got := DecisionMarkdown(degradedResult())
	assert.Equal(t, "# Investment Analysis for MSFT\n\n# Investment Synthesis: MSFT\n\nHOLD\n", got)

	got = DecisionMarkdown(fatalResult())
	assert.Equal(t, "# Investment Analysis for XYZ\n\n**Analysis unavailable**: fetch XYZ: unknown subject\n", got)

	r := degradedResult()
	r.Decision = orchestrator.Decision{Err: errors.New("synth down")}
	assert.Contains(t, DecisionMarkdown(r), "Unable to generate decision due to: synth down")
}

func TestDetailedMarkdown_RegistryOrderAndUnavailableMarker(t *testing.T) {
	got := DetailedMarkdown(degradedResult())

	want := "# Detailed Analysis for MSFT\n\n" +
		"## Analyst Reports\n\n" +
		"### Fundamental Analyst\n\nsolid balance sheet\n\n---\n\n" +
		"### Technical Analyst (unavailable)\n\nUnable to generate report due to: rate limited\n\n---\n\n" +
		"## Investor Opinions\n\n" +
		"### Warren Buffett\n\n**Recommendation**: HOLD\n\n---\n\n" +
		"### Cathie Wood\n\n**Recommendation**: BUY\n\n---\n\n"
	assert.Equal(t, want, got)
}

func TestDetailedMarkdown_Fatal(t *testing.T) {
	got := DetailedMarkdown(fatalResult())
	assert.Contains(t, got, "# Detailed Analysis for XYZ")
	assert.Contains(t, got, "Analysis unavailable")
	assert.NotContains(t, got, "## Analyst Reports")
}

func TestDetailedMarkdown_StageErrorKeepsCompletedStage(t *testing.T) {
	r := orchestrator.SubjectResult{
		Subject:  "T",
		Analysis: stage(orchestrator.StageAnalysis, ok("Fundamental Analyst", "cheap")),
		StageErr: orchestrator.ErrNoWorkers,
	}

	got := DetailedMarkdown(r)
	assert.Contains(t, got, "**Analysis unavailable**: no workers configured")
	assert.Contains(t, got, "### Fundamental Analyst\n\ncheap")
	assert.NotContains(t, got, "## Investor Opinions")
	assert.Equal(t, StatusFailed, SubjectStatus(r))
	assert.Equal(t, "no workers configured", NewSubjectExport(r).Error)
}

func TestWriteSubject_RefusesSubjectsOutsideDir(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "results")

	for _, subject := range []string{"../ESCAPED", "A/B", `..\X`, "/abs", ""} {
		r := fatalResult()
		r.Subject = subject
		paths, err := WriteSubject(dir, r)
		require.ErrorIs(t, err, ErrUnsafeSubject, subject)
		assert.Empty(t, paths)

		_, err = WriteBatch(dir, &orchestrator.BatchResult{Subjects: []orchestrator.SubjectResult{r}})
		require.ErrorIs(t, err, ErrUnsafeSubject, subject)
	}

	assert.NoFileExists(t, filepath.Join(root, "ESCAPED_decision.md"))
	assert.NoDirExists(t, dir)

	paths, err := WriteSubject(dir, degradedResult())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "MSFT_decision.md"), paths[0])
}

func TestWriteBatch(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")
	res := &orchestrator.BatchResult{
		Subjects: []orchestrator.SubjectResult{degradedResult(), fatalResult()},
		Elapsed:  4 * time.Second,
	}

	paths, err := WriteBatch(dir, res)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "MSFT_decision.md"),
		filepath.Join(dir, "MSFT_detailed_analysis.md"),
		filepath.Join(dir, "XYZ_decision.md"),
		filepath.Join(dir, "XYZ_detailed_analysis.md"),
		filepath.Join(dir, BatchFile),
	}, paths)

	data, err := os.ReadFile(filepath.Join(dir, "XYZ_decision.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "unknown subject")

	be, err := ReadBatchExport(filepath.Join(dir, BatchFile))
	require.NoError(t, err)
	assert.Equal(t, int64(4000), be.ElapsedMS)
	require.Len(t, be.Subjects, 2)

	msft := be.Subjects[0]
	assert.Equal(t, "MSFT", msft.Subject)
	assert.Equal(t, StatusDegraded, msft.Status)
	assert.Equal(t, []string{"analysis/Technical Analyst: rate limited"}, msft.Failures)
	require.Len(t, msft.Analysts, 2)
	assert.Equal(t, StatusFailed, msft.Analysts[1].Status)
	assert.Equal(t, "rate limited", msft.Analysts[1].Error)
	assert.Equal(t, "Cathie Wood", msft.Investors[1].Name)
	assert.Contains(t, msft.Decision, "HOLD")

	xyz := be.Subjects[1]
	assert.Equal(t, StatusFailed, xyz.Status)
	assert.Equal(t, "fetch XYZ: unknown subject", xyz.Error)
	assert.Empty(t, xyz.Analysts)
}

func TestSubjectStatus(t *testing.T) {
	clean := degradedResult()
	clean.Analysis = stage(orchestrator.StageAnalysis, ok("A", "x"))
	assert.Equal(t, StatusOK, SubjectStatus(clean))
	assert.Equal(t, StatusDegraded, SubjectStatus(degradedResult()))
	assert.Equal(t, StatusFailed, SubjectStatus(fatalResult()))
}

func TestReadBatchExport_Errors(t *testing.T) {
	_, err := ReadBatchExport(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	_, err = ReadBatchExport(bad)
	assert.Error(t, err)
}

func TestPrintBatch(t *testing.T) {
	res := &orchestrator.BatchResult{
		Subjects: []orchestrator.SubjectResult{degradedResult(), fatalResult()},
		Elapsed:  1500 * time.Millisecond,
	}
	var buf bytes.Buffer
	require.NoError(t, PrintBatch(&buf, res))
	out := buf.String()

	assert.Contains(t, out, "INVESTMENT ANALYSIS FOR MSFT")
	assert.Contains(t, out, "FINAL DECISION")
	assert.Contains(t, out, "1 panel member(s) unavailable:")
	assert.Contains(t, out, "analysis/Technical Analyst: rate limited")
	assert.Contains(t, out, "Analysis unavailable: fetch XYZ: unknown subject")
	assert.Contains(t, out, "PANEL SUMMARY (2 subjects, 1.5s)")
	assert.Contains(t, out, "analysts 1/2  investors 2/2")
	assert.Less(t, strings.Index(out, "MSFT"), strings.Index(out, "XYZ"))
}
