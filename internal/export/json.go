package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dusk-indust/finpanel/internal/orchestrator"
)

// BatchFile is the name of the JSON summary written next to the markdown.
const BatchFile = "batch.json"

// Subject status values.
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	StatusFailed   = "failed"
)

// BatchExport is the top-level JSON export structure.
type BatchExport struct {
	ExportedAt string          `json:"exportedAt"`
	ElapsedMS  int64           `json:"elapsedMs"`
	Subjects   []SubjectExport `json:"subjects"`
}

// SubjectExport describes one subject of the batch.
type SubjectExport struct {
	Subject   string         `json:"subject"`
	Status    string         `json:"status"`
	Error     string         `json:"error,omitempty"`
	Decision  string         `json:"decision,omitempty"`
	Failures  []string       `json:"failures,omitempty"`
	Analysts  []WorkerExport `json:"analysts,omitempty"`
	Investors []WorkerExport `json:"investors,omitempty"`
	ElapsedMS int64          `json:"elapsedMs"`
}

// WorkerExport describes a single worker outcome.
type WorkerExport struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	Text      string `json:"text,omitempty"`
	Error     string `json:"error,omitempty"`
	ElapsedMS int64  `json:"elapsedMs"`
}

// NewBatchExport converts a batch result, preserving subject order.
func NewBatchExport(res *orchestrator.BatchResult) *BatchExport {
	out := &BatchExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		ElapsedMS:  res.Elapsed.Milliseconds(),
		Subjects:   make([]SubjectExport, 0, len(res.Subjects)),
	}
	for _, r := range res.Subjects {
		out.Subjects = append(out.Subjects, NewSubjectExport(r))
	}
	return out
}

// NewSubjectExport converts one subject result.
func NewSubjectExport(r orchestrator.SubjectResult) SubjectExport {
	se := SubjectExport{
		Subject:   r.Subject,
		Status:    SubjectStatus(r),
		Failures:  r.Failures(),
		ElapsedMS: r.Elapsed.Milliseconds(),
	}
	se.Analysts = workers(r.Analysis)
	se.Investors = workers(r.Opinion)
	if r.Fatal() {
		se.Error = r.FatalErr().Error()
		return se
	}
	if r.Decision.OK() {
		se.Decision = r.Decision.Text
	} else {
		se.Error = r.Decision.Err.Error()
	}
	return se
}

// SubjectStatus classifies a subject: failed when it never reached the
// stages, degraded when any worker or the synthesis failed.
func SubjectStatus(r orchestrator.SubjectResult) string {
	switch {
	case r.Fatal():
		return StatusFailed
	case len(r.Failures()) > 0:
		return StatusDegraded
	default:
		return StatusOK
	}
}

func workers(stage *orchestrator.StageResult) []WorkerExport {
	var out []WorkerExport
	for _, no := range stage.Ordered() {
		we := WorkerExport{Name: string(no.Name), ElapsedMS: no.Elapsed.Milliseconds()}
		if no.OK() {
			we.Status = StatusOK
			we.Text = no.Text
		} else {
			we.Status = StatusFailed
			we.Error = no.Err.Error()
		}
		out = append(out, we)
	}
	return out
}

// WriteJSON writes v as indented JSON to path.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ReadBatchExport loads a batch.json written by WriteBatch.
func ReadBatchExport(path string) (*BatchExport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var be BatchExport
	if err := json.Unmarshal(data, &be); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return &be, nil
}
