package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dusk-indust/finpanel/internal/orchestrator"
)

// DecisionPlaceholder prefixes the decision file of a subject whose
// synthesis failed.
const DecisionPlaceholder = "Unable to generate decision due to: "

// ErrUnsafeSubject is returned when a subject would name a file outside the
// output directory.
var ErrUnsafeSubject = errors.New("subject cannot be used as a file name")

// checkFileName rejects names that are not a single local path element.
func checkFileName(subject, name string) error {
	if subject == "" || !filepath.IsLocal(name) || filepath.Base(name) != name || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrUnsafeSubject, subject)
	}
	return nil
}

// DecisionFile returns the decision file name for subject.
func DecisionFile(subject string) string { return subject + "_decision.md" }

// DetailedFile returns the detailed analysis file name for subject.
func DetailedFile(subject string) string { return subject + "_detailed_analysis.md" }

// DecisionMarkdown renders the final decision document for a subject. A
// subject that failed before the stages ran states the failure instead.
func DecisionMarkdown(r orchestrator.SubjectResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Investment Analysis for %s\n\n", r.Subject)
	switch {
	case r.Fatal():
		fmt.Fprintf(&b, "**Analysis unavailable**: %v\n", r.FatalErr())
	case !r.Decision.OK():
		b.WriteString(DecisionPlaceholder + r.Decision.Err.Error() + "\n")
	default:
		b.WriteString(r.Decision.Text)
		if !strings.HasSuffix(r.Decision.Text, "\n") {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// DetailedMarkdown renders every analyst report and investor opinion in
// registry order. Failed workers keep their section, marked unavailable.
func DetailedMarkdown(r orchestrator.SubjectResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Detailed Analysis for %s\n\n", r.Subject)
	if r.Fatal() {
		fmt.Fprintf(&b, "**Analysis unavailable**: %v\n", r.FatalErr())
		if r.Analysis == nil {
			return b.String()
		}
		b.WriteString("\n")
	}

	if r.Analysis != nil {
		b.WriteString("## Analyst Reports\n\n")
		writeStage(&b, r.Analysis, orchestrator.ReportPlaceholder)
	}
	if r.Opinion != nil {
		b.WriteString("## Investor Opinions\n\n")
		writeStage(&b, r.Opinion, orchestrator.OpinionPlaceholder)
	}
	return b.String()
}

func writeStage(b *strings.Builder, stage *orchestrator.StageResult, placeholder string) {
	for _, no := range stage.Ordered() {
		if no.OK() {
			fmt.Fprintf(b, "### %s\n\n", no.Name)
		} else {
			fmt.Fprintf(b, "### %s (unavailable)\n\n", no.Name)
		}
		b.WriteString(strings.TrimRight(no.Render(placeholder), "\n"))
		b.WriteString("\n\n---\n\n")
	}
}

// WriteSubject writes the decision and detailed analysis files for r into
// dir and returns their paths. Subjects that would escape dir are refused
// with ErrUnsafeSubject before anything is written.
func WriteSubject(dir string, r orchestrator.SubjectResult) ([]string, error) {
	for _, name := range []string{DecisionFile(r.Subject), DetailedFile(r.Subject)} {
		if err := checkFileName(r.Subject, name); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}
	files := []struct {
		name string
		body string
	}{
		{DecisionFile(r.Subject), DecisionMarkdown(r)},
		{DetailedFile(r.Subject), DetailedMarkdown(r)},
	}
	paths := make([]string, 0, len(files))
	for _, f := range files {
		p := filepath.Join(dir, f.name)
		if err := os.WriteFile(p, []byte(f.body), 0o644); err != nil {
			return paths, fmt.Errorf("writing %s: %w", f.name, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// WriteBatch writes every subject's files and batch.json into dir.
func WriteBatch(dir string, res *orchestrator.BatchResult) ([]string, error) {
	var paths []string
	for _, r := range res.Subjects {
		ps, err := WriteSubject(dir, r)
		paths = append(paths, ps...)
		if err != nil {
			return paths, err
		}
	}
	p := filepath.Join(dir, BatchFile)
	if err := WriteJSON(p, NewBatchExport(res)); err != nil {
		return paths, err
	}
	return append(paths, p), nil
}
