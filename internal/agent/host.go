package agent

import (
	"context"
	"net"
	"time"

	"github.com/dusk-indust/finpanel/internal/a2a"
	"github.com/dusk-indust/finpanel/internal/logging"
	"github.com/dusk-indust/finpanel/internal/orchestrator"
)

// Compile-time interface check.
var _ a2a.Handler = (*Host)(nil)

// Host serves a single Worker as an A2A agent, so that panel members can run
// as separate processes and be reached through RemoteWorker.
type Host struct {
	profile Profile
	worker  orchestrator.Worker
	store   *a2a.TaskStore
	server  *a2a.Server
	logger  logging.Logger
}

// NewHost creates a Host for worker playing p.
func NewHost(p Profile, worker orchestrator.Worker, logger logging.Logger) *Host {
	if logger == nil {
		logger = logging.Nop()
	}
	h := &Host{
		profile: p,
		worker:  worker,
		store:   a2a.NewTaskStore(0),
		logger:  logger.With(logging.String("agent", p.Name)),
	}
	h.server = a2a.NewServer(h.Card(), h)
	return h
}

// Card returns the agent card advertised by the host.
func (h *Host) Card() a2a.AgentCard {
	desc := h.profile.Focus
	if desc == "" {
		desc = h.profile.Philosophy
	}
	return a2a.AgentCard{
		Name:               h.profile.Name,
		Description:        desc,
		Version:            "1",
		DefaultInputModes:  []string{"text/plain", "application/json"},
		DefaultOutputModes: []string{"text/plain"},
		Skills: []a2a.AgentSkill{{
			ID:          string(h.profile.Role),
			Name:        h.profile.Name,
			Description: desc,
			Tags:        []string{string(h.profile.Role), h.profile.Slug()},
		}},
	}
}

// Server returns the A2A server wrapping the host.
func (h *Host) Server() *a2a.Server {
	return h.server
}

// Serve runs the host on ln until ctx is canceled.
func (h *Host) Serve(ctx context.Context, ln net.Listener) error {
	h.logger.Info("agent listening", logging.String("addr", ln.Addr().String()))
	return h.server.Serve(ctx, ln)
}

// HandleSendMessage decodes the consultation, invokes the worker and
// records the finished task. A worker error yields a failed task rather than
// a protocol error.
func (h *Host) HandleSendMessage(ctx context.Context, req a2a.SendMessageRequest) (*a2a.Task, error) {
	task := a2a.Task{
		ID:        a2a.NewTaskID(),
		ContextID: req.Message.ContextID,
		Status:    a2a.TaskStatus{State: a2a.TaskStateWorking, Timestamp: time.Now()},
	}

	c, err := decodeConsultation(req.Message)
	if err != nil {
		task.Status = failedStatus(a2a.TaskStateRejected, err)
		h.store.Put(task)
		return &task, nil
	}

	start := time.Now()
	text, err := h.worker.Invoke(ctx, c.Request())
	if err != nil {
		h.logger.Warn("consultation failed", logging.String("subject", c.Subject), logging.Err(err))
		task.Status = failedStatus(a2a.TaskStateFailed, err)
		h.store.Put(task)
		return &task, nil
	}

	task.Status = a2a.TaskStatus{State: a2a.TaskStateCompleted, Timestamp: time.Now()}
	task.Artifacts = []a2a.Artifact{{
		ArtifactID: a2a.NewTaskID(),
		Name:       c.Stage,
		Parts:      []a2a.Part{a2a.TextPart(text)},
	}}
	h.store.Put(task)
	h.logger.Info("consultation complete",
		logging.String("subject", c.Subject),
		logging.String("stage", c.Stage),
		logging.Duration("elapsed", time.Since(start)))
	return &task, nil
}

// HandleGetTask retrieves a task by ID from the store.
func (h *Host) HandleGetTask(_ context.Context, req a2a.GetTaskRequest) (*a2a.Task, error) {
	return h.store.Get(req.ID)
}

func failedStatus(state a2a.TaskState, err error) a2a.TaskStatus {
	return a2a.TaskStatus{
		State:     state,
		Timestamp: time.Now(),
		Message:   &a2a.Message{Role: a2a.RoleAgent, Parts: []a2a.Part{a2a.TextPart(err.Error())}},
	}
}
