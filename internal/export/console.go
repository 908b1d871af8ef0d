package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/dusk-indust/finpanel/internal/orchestrator"
)

var (
	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Border(lipgloss.DoubleBorder(), true, false).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Underline(true)

	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	degradedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	failedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle      = lipgloss.NewStyle().Faint(true)
)

func statusStyle(status string) lipgloss.Style {
	switch status {
	case StatusOK:
		return okStyle
	case StatusDegraded:
		return degradedStyle
	default:
		return failedStyle
	}
}

// RenderDecision returns the console view of one subject: a banner, the
// final decision and any recorded failures.
func RenderDecision(r orchestrator.SubjectResult) string {
	var b strings.Builder
	b.WriteString(bannerStyle.Render("INVESTMENT ANALYSIS FOR " + r.Subject))
	b.WriteString("\n\n")
	b.WriteString(sectionStyle.Render("FINAL DECISION"))
	b.WriteString("\n")

	switch {
	case r.Fatal():
		b.WriteString(failedStyle.Render(fmt.Sprintf("Analysis unavailable: %v", r.FatalErr())))
		b.WriteString("\n")
		return b.String()
	case !r.Decision.OK():
		b.WriteString(failedStyle.Render(DecisionPlaceholder + r.Decision.Err.Error()))
		b.WriteString("\n")
	default:
		b.WriteString(strings.TrimRight(r.Decision.Text, "\n"))
		b.WriteString("\n")
	}

	if fails := r.Failures(); len(fails) > 0 {
		b.WriteString("\n")
		b.WriteString(degradedStyle.Render(fmt.Sprintf("%d panel member(s) unavailable:", len(fails))))
		b.WriteString("\n")
		for _, f := range fails {
			b.WriteString(dimStyle.Render("  - " + f))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// RenderSummary returns a one-line-per-subject table of the batch.
func RenderSummary(res *orchestrator.BatchResult) string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render(fmt.Sprintf("PANEL SUMMARY (%d subjects, %s)", len(res.Subjects), res.Elapsed.Round(time.Millisecond))))
	b.WriteString("\n")
	for _, r := range res.Subjects {
		status := SubjectStatus(r)
		line := fmt.Sprintf("  %-8s %-9s", r.Subject, status)
		if !r.Fatal() {
			line += fmt.Sprintf(" analysts %s  investors %s", ratio(r.Analysis), ratio(r.Opinion))
		}
		b.WriteString(statusStyle(status).Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

func ratio(stage *orchestrator.StageResult) string {
	if stage == nil {
		return "0/0"
	}
	return fmt.Sprintf("%d/%d", len(stage.Succeeded()), len(stage.Names))
}

// PrintBatch writes each subject's decision followed by the summary.
func PrintBatch(w io.Writer, res *orchestrator.BatchResult) error {
	for _, r := range res.Subjects {
		if _, err := fmt.Fprintln(w, RenderDecision(r)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprint(w, RenderSummary(res))
	return err
}
