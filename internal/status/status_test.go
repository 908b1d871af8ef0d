package status

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/finpanel/internal/export"
	"github.com/dusk-indust/finpanel/internal/orchestrator"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "MSFT_decision.md")
	touch(t, dir, "MSFT_detailed_analysis.md")
	touch(t, dir, "AAPL_decision.md")
	touch(t, dir, "notes.txt")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "old"), 0o755))

	res, ok := Scan(dir)
	require.True(t, ok)
	require.Len(t, res.Subjects, 2)
	assert.Equal(t, "AAPL", res.Subjects[0].Subject)
	assert.Equal(t, "MSFT", res.Subjects[1].Subject)

	msft, found := res.Lookup("MSFT")
	require.True(t, found)
	assert.True(t, msft.Complete())
	assert.Equal(t, filepath.Join(dir, "MSFT_detailed_analysis.md"), msft.DetailedPath)

	assert.Equal(t, []string{"AAPL"}, res.Incomplete())
	assert.Nil(t, res.Batch)

	_, found = res.Lookup("NVDA")
	assert.False(t, found)
}

func TestScan_ReadsBatchExport(t *testing.T) {
	dir := t.TempDir()
	res := &orchestrator.BatchResult{
		Subjects: []orchestrator.SubjectResult{{
			Subject:  "NVDA",
			Decision: orchestrator.Decision{Text: "BUY"},
		}},
		Elapsed: time.Second,
	}
	_, err := export.WriteBatch(dir, res)
	require.NoError(t, err)

	st, ok := Scan(dir)
	require.True(t, ok)
	require.NotNil(t, st.Batch)
	require.Len(t, st.Batch.Subjects, 1)
	assert.Equal(t, export.StatusOK, st.Batch.Subjects[0].Status)
	assert.Empty(t, st.Incomplete())
}

func TestScan_MissingDir(t *testing.T) {
	_, ok := Scan(filepath.Join(t.TempDir(), "nope"))
	assert.False(t, ok)
}
