package orchestrator

import (
	"fmt"
	"time"
)

// Placeholder prefixes rendered in place of a failed worker's text, so that
// downstream consumers always receive an entry for every worker.
const (
	ReportPlaceholder  = "Unable to generate report due to: "
	OpinionPlaceholder = "Unable to generate opinion due to: "
)

// Outcome is the terminal result of one worker invocation: either a
// success carrying Text, or a failure carrying Err.
type Outcome struct {
	Text    string
	Err     error
	Elapsed time.Duration
}

// Success returns a successful outcome.
func Success(text string, elapsed time.Duration) Outcome {
	return Outcome{Text: text, Elapsed: elapsed}
}

// Failure returns a failed outcome.
func Failure(err error, elapsed time.Duration) Outcome {
	return Outcome{Err: err, Elapsed: elapsed}
}

// OK reports whether the outcome is a success.
func (o Outcome) OK() bool { return o.Err == nil }

// Render returns the outcome text, or placeholder followed by the error.
func (o Outcome) Render(placeholder string) string {
	if o.OK() {
		return o.Text
	}
	return placeholder + o.Err.Error()
}

// NamedOutcome is an outcome together with the worker that produced it.
type NamedOutcome struct {
	Name WorkerName
	Outcome
}

// StageResult is the aggregated outcome of one stage for one subject.
// Outcomes is a lookup map; Names carries the registry order used for any
// rendering.
type StageResult struct {
	Stage    Stage
	Names    []WorkerName
	Outcomes map[WorkerName]Outcome

	// Elapsed is the wall-clock time from dispatch to the last completion.
	Elapsed time.Duration
}

// Ordered returns the outcomes in registry order.
func (r *StageResult) Ordered() []NamedOutcome {
	if r == nil {
		return nil
	}
	out := make([]NamedOutcome, 0, len(r.Names))
	for _, name := range r.Names {
		out = append(out, NamedOutcome{Name: name, Outcome: r.Outcomes[name]})
	}
	return out
}

// Succeeded returns the names of successful workers in registry order.
func (r *StageResult) Succeeded() []WorkerName {
	return r.filter(true)
}

// Failed returns the names of failed workers in registry order.
func (r *StageResult) Failed() []WorkerName {
	return r.filter(false)
}

func (r *StageResult) filter(ok bool) []WorkerName {
	if r == nil {
		return nil
	}
	var names []WorkerName
	for _, name := range r.Names {
		if r.Outcomes[name].OK() == ok {
			names = append(names, name)
		}
	}
	return names
}

// Err returns an AllWorkersFailedError when every worker failed, else nil.
func (r *StageResult) Err() error {
	if r == nil || len(r.Names) == 0 {
		return nil
	}
	if len(r.Failed()) == len(r.Names) {
		return &AllWorkersFailedError{Stage: r.Stage, Workers: len(r.Names)}
	}
	return nil
}

// Decision is the outcome of the synthesis step.
type Decision struct {
	Text    string
	Err     error
	Elapsed time.Duration
}

// OK reports whether synthesis succeeded.
func (d Decision) OK() bool { return d.Err == nil }

// SubjectResult bundles everything produced for one subject. When FetchErr
// is set the subject never reached the stages and Analysis, Opinion and
// Decision are zero. StageErr is set when a stage could not run at all, such
// as an empty worker set; stages that completed before it are kept.
type SubjectResult struct {
	Subject  string
	Record   Record
	Analysis *StageResult
	Opinion  *StageResult
	Decision Decision
	FetchErr error
	StageErr error
	Elapsed  time.Duration
}

// Fatal reports whether the subject never reached a decision because its
// fetch failed or a stage could not run.
func (s SubjectResult) Fatal() bool { return s.FatalErr() != nil }

// FatalErr returns the fetch error, else the stage error, else nil.
func (s SubjectResult) FatalErr() error {
	if s.FetchErr != nil {
		return s.FetchErr
	}
	return s.StageErr
}

// Failures lists every failure recorded for the subject, in the order the
// pipeline runs: fetch, analysts (registry order), investors, synthesis.
func (s SubjectResult) Failures() []string {
	if s.FetchErr != nil {
		return []string{s.FetchErr.Error()}
	}
	var out []string
	if s.StageErr != nil {
		out = append(out, s.StageErr.Error())
	}
	for _, stage := range []*StageResult{s.Analysis, s.Opinion} {
		for _, no := range stage.Ordered() {
			if !no.OK() {
				out = append(out, fmt.Sprintf("%s/%s: %v", stage.Stage, no.Name, no.Err))
			}
		}
	}
	if s.Decision.Err != nil {
		out = append(out, fmt.Sprintf("%s: %v", StageSynthesis, s.Decision.Err))
	}
	return out
}

// BatchResult holds one SubjectResult per input subject, in input order.
type BatchResult struct {
	Subjects []SubjectResult
	Elapsed  time.Duration
}

// FatalCount returns how many subjects never reached a decision.
func (b *BatchResult) FatalCount() int {
	n := 0
	for _, s := range b.Subjects {
		if s.Fatal() {
			n++
		}
	}
	return n
}

// Lookup returns the result for subject.
func (b *BatchResult) Lookup(subject string) (SubjectResult, bool) {
	for _, s := range b.Subjects {
		if s.Subject == subject {
			return s, true
		}
	}
	return SubjectResult{}, false
}
