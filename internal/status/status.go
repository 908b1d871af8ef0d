package status

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dusk-indust/finpanel/internal/export"
)

// SubjectStatus describes the output files present for one subject.
type SubjectStatus struct {
	Subject      string
	DecisionPath string // empty when the decision file is missing
	DetailedPath string // empty when the detailed analysis file is missing
}

// Complete reports whether both files exist.
func (s SubjectStatus) Complete() bool {
	return s.DecisionPath != "" && s.DetailedPath != ""
}

// ResultsStatus summarizes a results directory.
type ResultsStatus struct {
	Dir      string
	Subjects []SubjectStatus // sorted by subject
	Batch    *export.BatchExport
}

// Lookup returns the status for subject.
func (r *ResultsStatus) Lookup(subject string) (SubjectStatus, bool) {
	for _, s := range r.Subjects {
		if s.Subject == subject {
			return s, true
		}
	}
	return SubjectStatus{}, false
}

// Incomplete returns the subjects missing one of their files.
func (r *ResultsStatus) Incomplete() []string {
	var out []string
	for _, s := range r.Subjects {
		if !s.Complete() {
			out = append(out, s.Subject)
		}
	}
	return out
}

// Scan checks which subjects have output files in dir. A missing directory
// yields ok=false. A batch.json that cannot be parsed is ignored.
func Scan(dir string) (*ResultsStatus, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, false
	}

	bySubject := make(map[string]*SubjectStatus)
	get := func(subject string) *SubjectStatus {
		s, ok := bySubject[subject]
		if !ok {
			s = &SubjectStatus{Subject: subject}
			bySubject[subject] = s
		}
		return s
	}

	res := &ResultsStatus{Dir: dir}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		path := filepath.Join(dir, name)
		switch {
		case name == export.BatchFile:
			if be, err := export.ReadBatchExport(path); err == nil {
				res.Batch = be
			}
		case strings.HasSuffix(name, export.DetailedFile("")):
			get(strings.TrimSuffix(name, export.DetailedFile(""))).DetailedPath = path
		case strings.HasSuffix(name, export.DecisionFile("")):
			get(strings.TrimSuffix(name, export.DecisionFile(""))).DecisionPath = path
		}
	}

	for _, s := range bySubject {
		res.Subjects = append(res.Subjects, *s)
	}
	slices.SortFunc(res.Subjects, func(a, b SubjectStatus) int {
		return strings.Compare(a.Subject, b.Subject)
	})
	return res, true
}
