package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dusk-indust/finpanel/internal/a2a"
	"github.com/dusk-indust/finpanel/internal/orchestrator"
)

// Compile-time interface check.
var _ orchestrator.Worker = (*RemoteWorker)(nil)

// Consultation is the structured payload carried in a message's data part.
// Hosts decode it back into a Request; other agents may ignore it and answer
// the accompanying text prompt.
type Consultation struct {
	Subject        string         `json:"subject"`
	Stage          string         `json:"stage"`
	Record         map[string]any `json:"record,omitempty"`
	MarketContext  string         `json:"marketContext,omitempty"`
	AnalystReports string         `json:"analystReports,omitempty"`
	Opinions       string         `json:"opinions,omitempty"`
}

// NewConsultation converts a request into its wire form.
func NewConsultation(req orchestrator.Request) Consultation {
	return Consultation{
		Subject:        req.Subject,
		Stage:          string(req.Stage),
		Record:         req.Record,
		MarketContext:  req.MarketContext,
		AnalystReports: req.AnalystReports,
		Opinions:       req.Opinions,
	}
}

// Request converts the payload back into a Request.
func (c Consultation) Request() orchestrator.Request {
	return orchestrator.Request{
		Subject:        c.Subject,
		Stage:          orchestrator.Stage(c.Stage),
		Record:         orchestrator.Record(c.Record),
		MarketContext:  c.MarketContext,
		AnalystReports: c.AnalystReports,
		Opinions:       c.Opinions,
	}
}

// ErrRemoteTask is wrapped by errors for tasks the remote agent did not
// complete.
var ErrRemoteTask = errors.New("remote task not completed")

// DefaultPollInterval is how often a RemoteWorker asks for a task the agent
// answered before it finished.
const DefaultPollInterval = 250 * time.Millisecond

// RemoteWorker plays a profile by sending each request to an A2A agent.
type RemoteWorker struct {
	profile      Profile
	client       a2a.Client
	endpoint     string
	pollInterval time.Duration
}

// RemoteOption configures a RemoteWorker.
type RemoteOption func(*RemoteWorker)

// WithPollInterval sets the delay between tasks/get calls.
func WithPollInterval(d time.Duration) RemoteOption {
	return func(w *RemoteWorker) {
		if d > 0 {
			w.pollInterval = d
		}
	}
}

// NewRemoteWorker creates a RemoteWorker for p at p.Endpoint.
func NewRemoteWorker(p Profile, client a2a.Client, opts ...RemoteOption) (*RemoteWorker, error) {
	if p.Endpoint == "" {
		return nil, fmt.Errorf("%s %q has no endpoint", p.Role, p.Name)
	}
	w := &RemoteWorker{profile: p, client: client, endpoint: p.Endpoint, pollInterval: DefaultPollInterval}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Invoke sends the prompt and the structured consultation as one message and
// returns the text of the completed task's artifacts. Agents that answer with
// a task still submitted or working are polled with tasks/get until the task
// reaches a terminal state or ctx ends.
func (w *RemoteWorker) Invoke(ctx context.Context, req orchestrator.Request) (string, error) {
	data, err := a2a.DataPart(NewConsultation(req))
	if err != nil {
		return "", fmt.Errorf("encode consultation: %w", err)
	}

	task, err := w.client.SendMessage(ctx, w.endpoint, a2a.SendMessageRequest{
		Message: a2a.Message{
			MessageID: a2a.NewTaskID(),
			ContextID: req.Subject,
			Role:      a2a.RoleUser,
			Parts:     []a2a.Part{a2a.TextPart(Prompt(w.profile, req)), data},
		},
	})
	if err != nil {
		return "", err
	}
	if task, err = w.await(ctx, task); err != nil {
		return "", err
	}
	if task.Status.State != a2a.TaskStateCompleted {
		msg := task.StatusText()
		if msg == "" {
			msg = string(task.Status.State)
		}
		return "", fmt.Errorf("%w: %s", ErrRemoteTask, msg)
	}
	return task.Text(), nil
}

// await polls the agent until task is terminal.
func (w *RemoteWorker) await(ctx context.Context, task *a2a.Task) (*a2a.Task, error) {
	if task.Status.State.IsTerminal() {
		return task, nil
	}
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	id := task.ID
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
		next, err := w.client.GetTask(ctx, w.endpoint, a2a.GetTaskRequest{ID: id})
		if err != nil {
			return nil, fmt.Errorf("poll task %s: %w", id, err)
		}
		if next.Status.State.IsTerminal() {
			return next, nil
		}
	}
}

// decodeConsultation finds the first data part of msg and decodes it.
func decodeConsultation(msg a2a.Message) (Consultation, error) {
	for _, p := range msg.Parts {
		if len(p.Data) == 0 {
			continue
		}
		var c Consultation
		if err := json.Unmarshal(p.Data, &c); err != nil {
			return Consultation{}, fmt.Errorf("decode consultation: %w", err)
		}
		return c, nil
	}
	return Consultation{}, errors.New("message carries no consultation data")
}
