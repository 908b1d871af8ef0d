package orchestrator

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

//go:generate mockgen -source=worker.go -destination=mocks/mock_worker.go -package=mocks

// WorkerName identifies a worker within its WorkerSet.
type WorkerName string

// Worker is a single independently invocable panel member. Implementations
// must honour ctx cancellation; the executor abandons calls that outlive
// their timeout.
type Worker interface {
	Invoke(ctx context.Context, req Request) (string, error)
}

// WorkerFunc adapts a function to Worker.
type WorkerFunc func(ctx context.Context, req Request) (string, error)

// Invoke calls f.
func (f WorkerFunc) Invoke(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// NamedWorker pairs a worker with its name for WorkerSet construction.
type NamedWorker struct {
	Name   WorkerName
	Worker Worker
}

// WorkerSet is an immutable, ordered collection of uniquely named workers.
// The construction order is the registry order used whenever outcomes are
// rendered or logged.
type WorkerSet struct {
	role    string
	names   []WorkerName
	workers map[WorkerName]Worker
}

// NewWorkerSet builds a WorkerSet for role from members. Blank names, nil
// workers and duplicate names are rejected.
func NewWorkerSet(role string, members ...NamedWorker) (*WorkerSet, error) {
	ws := &WorkerSet{
		role:    role,
		names:   make([]WorkerName, 0, len(members)),
		workers: make(map[WorkerName]Worker, len(members)),
	}
	for _, m := range members {
		name := WorkerName(strings.TrimSpace(string(m.Name)))
		if name == "" {
			return nil, fmt.Errorf("%s set: worker name must not be blank", role)
		}
		if m.Worker == nil {
			return nil, fmt.Errorf("%s set: worker %q is nil", role, name)
		}
		if _, dup := ws.workers[name]; dup {
			return nil, fmt.Errorf("%w: %q in %s set", ErrDuplicateWorker, name, role)
		}
		ws.names = append(ws.names, name)
		ws.workers[name] = m.Worker
	}
	return ws, nil
}

// Role returns the role the set was built for (e.g. "analyst").
func (ws *WorkerSet) Role() string {
	if ws == nil {
		return ""
	}
	return ws.role
}

// Len returns the number of workers. A nil set is empty.
func (ws *WorkerSet) Len() int {
	if ws == nil {
		return 0
	}
	return len(ws.names)
}

// Names returns the worker names in registry order. The slice is a copy.
func (ws *WorkerSet) Names() []WorkerName {
	if ws == nil {
		return nil
	}
	return slices.Clone(ws.names)
}

// Worker returns the worker registered under name, or nil.
func (ws *WorkerSet) Worker(name WorkerName) Worker {
	if ws == nil {
		return nil
	}
	return ws.workers[name]
}
