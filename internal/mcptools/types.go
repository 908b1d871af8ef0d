package mcptools

// --- MCP tool types for `finpanel mcp` ---
// These tools let an MCP client consult the panel and inspect results
// without shelling out to the CLI.

// RunPanelInput is the input for the run_panel MCP tool.
type RunPanelInput struct {
	Subjects []string `json:"subjects" jsonschema:"ticker symbols to consult the panel about"`
	Write    bool     `json:"write,omitempty" jsonschema:"write decision and detailed analysis files to the output directory"`
}

// RunPanelOutput is the result of the run_panel MCP tool.
type RunPanelOutput struct {
	Subjects     []SubjectSummary `json:"subjects"`
	FilesWritten []string         `json:"filesWritten,omitempty"`
	ElapsedMS    int64            `json:"elapsedMs"`
}

// SubjectSummary is the outcome for one subject.
type SubjectSummary struct {
	Subject  string   `json:"subject"`
	Status   string   `json:"status"` // "ok", "degraded" or "failed"
	Decision string   `json:"decision,omitempty"`
	Failures []string `json:"failures,omitempty"`
}

// ListWorkersInput is the input for the list_workers MCP tool.
type ListWorkersInput struct{}

// ListWorkersOutput is the result of the list_workers MCP tool.
type ListWorkersOutput struct {
	Analysts    []WorkerInfo `json:"analysts"`
	Investors   []WorkerInfo `json:"investors"`
	Synthesizer WorkerInfo   `json:"synthesizer"`
}

// WorkerInfo describes one panel member.
type WorkerInfo struct {
	Name     string `json:"name"`
	Role     string `json:"role"`
	Summary  string `json:"summary,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`
}

// GetStatusInput is the input for the get_status MCP tool.
type GetStatusInput struct {
	Dir string `json:"dir,omitempty" jsonschema:"results directory (default: configured output directory)"`
}

// GetStatusOutput is the result of the get_status MCP tool.
type GetStatusOutput struct {
	Dir        string          `json:"dir"`
	Exists     bool            `json:"exists"`
	Subjects   []SubjectFiles  `json:"subjects"`
	Incomplete []string        `json:"incomplete,omitempty"`
	LastBatch  []SubjectStatus `json:"lastBatch,omitempty"`
}

// SubjectFiles lists the output files found for a subject.
type SubjectFiles struct {
	Subject  string `json:"subject"`
	Decision string `json:"decision,omitempty"`
	Detailed string `json:"detailed,omitempty"`
}

// SubjectStatus is a subject's status as recorded in batch.json.
type SubjectStatus struct {
	Subject string `json:"subject"`
	Status  string `json:"status"`
}
