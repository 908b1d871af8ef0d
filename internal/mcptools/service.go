package mcptools

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dusk-indust/finpanel/internal/agent"
	"github.com/dusk-indust/finpanel/internal/export"
	"github.com/dusk-indust/finpanel/internal/market"
	"github.com/dusk-indust/finpanel/internal/orchestrator"
	"github.com/dusk-indust/finpanel/internal/status"
)

// PanelService handles MCP tool calls. It wraps a Runner to consult the
// panel and reads the results directory for status queries.
type PanelService struct {
	runner    orchestrator.Runner
	catalog   *agent.Catalog
	outputDir string
}

// NewPanelService creates a PanelService.
func NewPanelService(runner orchestrator.Runner, catalog *agent.Catalog, outputDir string) *PanelService {
	return &PanelService{runner: runner, catalog: catalog, outputDir: outputDir}
}

// RunPanel consults the panel about the requested subjects. Per-subject
// failures are reported in the output, not as tool errors.
func (s *PanelService) RunPanel(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RunPanelInput,
) (*mcp.CallToolResult, RunPanelOutput, error) {
	subjects := orchestrator.NormalizeSubjects(input.Subjects)
	if len(subjects) == 0 {
		return nil, RunPanelOutput{}, errors.New("at least one subject is required")
	}
	if err := market.CheckTickers(subjects); err != nil {
		return nil, RunPanelOutput{}, err
	}

	res := s.runner.Run(ctx, subjects)

	out := RunPanelOutput{
		Subjects:  make([]SubjectSummary, 0, len(res.Subjects)),
		ElapsedMS: res.Elapsed.Milliseconds(),
	}
	for _, r := range res.Subjects {
		se := export.NewSubjectExport(r)
		out.Subjects = append(out.Subjects, SubjectSummary{
			Subject:  se.Subject,
			Status:   se.Status,
			Decision: se.Decision,
			Failures: se.Failures,
		})
	}

	if input.Write {
		paths, err := export.WriteBatch(s.outputDir, res)
		out.FilesWritten = paths
		if err != nil {
			return nil, out, fmt.Errorf("writing results: %w", err)
		}
	}
	return nil, out, nil
}

// ListWorkers describes the panel in registry order.
func (s *PanelService) ListWorkers(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ ListWorkersInput,
) (*mcp.CallToolResult, ListWorkersOutput, error) {
	out := ListWorkersOutput{
		Analysts:    make([]WorkerInfo, 0, len(s.catalog.Analysts)),
		Investors:   make([]WorkerInfo, 0, len(s.catalog.Investors)),
		Synthesizer: workerInfo(s.catalog.Synthesizer),
	}
	for _, p := range s.catalog.Analysts {
		out.Analysts = append(out.Analysts, workerInfo(p))
	}
	for _, p := range s.catalog.Investors {
		out.Investors = append(out.Investors, workerInfo(p))
	}
	return nil, out, nil
}

func workerInfo(p agent.Profile) WorkerInfo {
	summary := p.Focus
	if summary == "" {
		summary = p.Philosophy
	}
	return WorkerInfo{Name: p.Name, Role: string(p.Role), Summary: summary, Endpoint: p.Endpoint}
}

// GetStatus reports which subjects have results on disk.
func (s *PanelService) GetStatus(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input GetStatusInput,
) (*mcp.CallToolResult, GetStatusOutput, error) {
	dir := input.Dir
	if dir == "" {
		dir = s.outputDir
	}

	out := GetStatusOutput{Dir: dir, Subjects: []SubjectFiles{}}
	st, ok := status.Scan(dir)
	if !ok {
		return nil, out, nil
	}
	out.Exists = true
	for _, sub := range st.Subjects {
		out.Subjects = append(out.Subjects, SubjectFiles{
			Subject:  sub.Subject,
			Decision: sub.DecisionPath,
			Detailed: sub.DetailedPath,
		})
	}
	out.Incomplete = st.Incomplete()
	if st.Batch != nil {
		for _, se := range st.Batch.Subjects {
			out.LastBatch = append(out.LastBatch, SubjectStatus{Subject: se.Subject, Status: se.Status})
		}
	}
	return nil, out, nil
}
