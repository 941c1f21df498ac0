package followup

import (
	"sort"
	"sync"
	"time"
)

// Status is the delivery state of a follow-up task.
type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
	// StatusDropped marks tasks still pending when the scheduler stopped.
	StatusDropped Status = "dropped"
)

// Task is one scheduled follow-up email.
type Task struct {
	mu sync.Mutex

	ID    string
	To    string
	Name  string
	DueAt time.Time

	status    Status
	err       string
	createdAt time.Time
	updatedAt time.Time
	timer     *time.Timer
}

// TaskSnapshot is a read-only, JSON-safe copy of task state.
type TaskSnapshot struct {
	ID        string    `json:"id"`
	To        string    `json:"to"`
	Name      string    `json:"name,omitempty"`
	Status    Status    `json:"status"`
	DueAt     time.Time `json:"due_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Error     string    `json:"error,omitempty"`
}

func (t *Task) Snapshot() TaskSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return TaskSnapshot{
		ID:        t.ID,
		To:        t.To,
		Name:      t.Name,
		Status:    t.status,
		DueAt:     t.DueAt,
		CreatedAt: t.createdAt,
		UpdatedAt: t.updatedAt,
		Error:     t.err,
	}
}

// finish moves a pending task to a terminal status. It reports false if
// the task had already left the pending state.
func (t *Task) finish(status Status, errMsg string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != StatusPending {
		return false
	}
	t.status = status
	t.err = errMsg
	t.updatedAt = time.Now()
	return true
}

func (t *Task) expired(now time.Time, ttl time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status != StatusPending && now.Sub(t.updatedAt) > ttl
}

// taskStore is a thread-safe in-memory task registry with TTL eviction of
// finished tasks.
type taskStore struct {
	mu    sync.Mutex
	tasks map[string]*Task
	ttl   time.Duration
}

func newTaskStore(ttl time.Duration) *taskStore {
	return &taskStore{
		tasks: make(map[string]*Task),
		ttl:   ttl,
	}
}

func (s *taskStore) put(t *Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t.ID] = t
}

func (s *taskStore) get(id string) *Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks[id]
}

func (s *taskStore) all() []*Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t)
	}
	return out
}

// cleanup removes finished tasks last updated more than ttl before now.
func (s *taskStore) cleanup(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, t := range s.tasks {
		if t.expired(now, s.ttl) {
			delete(s.tasks, id)
			removed++
		}
	}
	return removed
}

func sortByDue(snaps []TaskSnapshot) {
	sort.Slice(snaps, func(i, j int) bool {
		if snaps[i].DueAt.Equal(snaps[j].DueAt) {
			return snaps[i].CreatedAt.Before(snaps[j].CreatedAt)
		}
		return snaps[i].DueAt.Before(snaps[j].DueAt)
	})
}
