package orchestrator_test

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/finpanel/internal/orchestrator"
	"github.com/dusk-indust/finpanel/internal/orchestrator/mocks"
)

func TestBatch_WithMockCollaborators(t *testing.T) {
	ctrl := gomock.NewController(t)

	fetcher := mocks.NewMockDataFetcher(ctrl)
	fetcher.EXPECT().Fetch(gomock.Any(), "MSFT").Return(orchestrator.Record{"current_price": 410.0}, nil)
	fetcher.EXPECT().Fetch(gomock.Any(), "BAD").Return(nil, errors.New("404"))

	analyst := mocks.NewMockWorker(ctrl)
	analyst.EXPECT().Invoke(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req orchestrator.Request) (string, error) {
			assert.Equal(t, orchestrator.StageAnalysis, req.Stage)
			assert.Empty(t, req.AnalystReports)
			return "undervalued", nil
		}).Times(1)

	investor := mocks.NewMockWorker(ctrl)
	investor.EXPECT().Invoke(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req orchestrator.Request) (string, error) {
			assert.Equal(t, "Fundamental Analyst:\nundervalued", req.AnalystReports)
			return "", errors.New("quota")
		}).Times(1)

	synth := mocks.NewMockWorker(ctrl)
	synth.EXPECT().Invoke(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req orchestrator.Request) (string, error) {
			assert.Contains(t, req.Opinions, "Warren Buffett:\nUnable to generate opinion due to:")
			return "HOLD", nil
		}).Times(1)

	analysts, err := orchestrator.NewWorkerSet("analyst", orchestrator.NamedWorker{Name: "Fundamental Analyst", Worker: analyst})
	require.NoError(t, err)
	investors, err := orchestrator.NewWorkerSet("investor", orchestrator.NamedWorker{Name: "Warren Buffett", Worker: investor})
	require.NoError(t, err)

	b := orchestrator.New(fetcher, analysts, investors, synth, orchestrator.Config{}, nil)
	res := b.Run(context.Background(), []string{"MSFT", "BAD"})

	require.Len(t, res.Subjects, 2)
	assert.Equal(t, "HOLD", res.Subjects[0].Decision.Text)
	assert.Equal(t, []orchestrator.WorkerName{"Warren Buffett"}, res.Subjects[0].Opinion.Failed())
	assert.True(t, res.Subjects[1].Fatal())
}
