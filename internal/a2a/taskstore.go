package a2a

import (
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// NewTaskID returns a random identifier for tasks, messages and artifacts.
func NewTaskID() string {
	return uuid.NewString()
}

// DefaultTaskCapacity is the number of finished tasks an agent remembers.
const DefaultTaskCapacity = 256

// TaskStore is a concurrency-safe, bounded in-memory store of the tasks an
// agent has produced. When full, the oldest task is evicted.
type TaskStore struct {
	mu       sync.RWMutex
	capacity int
	tasks    map[string]*Task
	order    []string
}

// NewTaskStore returns a TaskStore holding at most capacity tasks. A
// non-positive capacity means DefaultTaskCapacity.
func NewTaskStore(capacity int) *TaskStore {
	if capacity <= 0 {
		capacity = DefaultTaskCapacity
	}
	return &TaskStore{
		capacity: capacity,
		tasks:    make(map[string]*Task, capacity),
	}
}

// Put stores task, replacing any task with the same ID.
func (s *TaskStore) Put(task Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.ID]; !exists {
		if len(s.order) == s.capacity {
			delete(s.tasks, s.order[0])
			s.order = s.order[1:]
		}
		s.order = append(s.order, task.ID)
	}
	s.tasks[task.ID] = copyTask(&task)
}

// Get returns a copy of the task with the given ID, or ErrTaskNotFound.
func (s *TaskStore) Get(id string) (*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTaskNotFound, id)
	}
	return copyTask(t), nil
}

// Len returns the number of stored tasks.
func (s *TaskStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// copyTask returns a copy of src that shares no slices with it.
func copyTask(src *Task) *Task {
	dst := *src
	if src.Artifacts != nil {
		dst.Artifacts = make([]Artifact, len(src.Artifacts))
		for i, a := range src.Artifacts {
			a.Parts = copyParts(a.Parts)
			dst.Artifacts[i] = a
		}
	}
	if src.Status.Message != nil {
		msg := *src.Status.Message
		msg.Parts = copyParts(msg.Parts)
		dst.Status.Message = &msg
	}
	return &dst
}

func copyParts(src []Part) []Part {
	if src == nil {
		return nil
	}
	dst := make([]Part, len(src))
	for i, p := range src {
		p.Data = slices.Clone(p.Data)
		dst[i] = p
	}
	return dst
}
