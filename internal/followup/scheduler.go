package followup

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// cleanupInterval is how often finished tasks are evicted.
const cleanupInterval = 5 * time.Minute

// Sender delivers one follow-up email.
type Sender interface {
	SendFollowUp(ctx context.Context, to, name string) error
}

// NextAt returns the next calendar day at hour:00:00 in now's location.
func NextAt(now time.Time, hour int) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d+1, hour, 0, 0, 0, now.Location())
}

// Scheduler fires follow-up emails at a set time using in-process timers.
// Pending tasks do not survive a restart.
type Scheduler struct {
	tasks       *taskStore
	sender      Sender
	sendTimeout time.Duration
	log         *slog.Logger

	mu      sync.Mutex
	stopped bool
	done    chan struct{}
	sendCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewScheduler(sender Sender, sendTimeout, ttl time.Duration, log *slog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		tasks:       newTaskStore(ttl),
		sender:      sender,
		sendTimeout: sendTimeout,
		log:         log.With("component", "followup"),
		done:        make(chan struct{}),
		sendCtx:     ctx,
		cancel:      cancel,
	}
}

// Start launches the cleanup loop. It exits when ctx is done or the
// scheduler is stopped.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.done:
				return
			case <-ticker.C:
				if n := s.tasks.cleanup(time.Now()); n > 0 {
					s.log.Debug("evicted finished tasks", "count", n)
				}
			}
		}
	}()
}

// Schedule registers a follow-up to to, sent at at. A time in the past
// fires immediately. Delivery failures are logged and recorded on the
// task only.
func (s *Scheduler) Schedule(to, name string, at time.Time) TaskSnapshot {
	now := time.Now()
	t := &Task{
		ID:        uuid.NewString(),
		To:        to,
		Name:      name,
		DueAt:     at,
		status:    StatusPending,
		createdAt: now,
		updatedAt: now,
	}
	s.tasks.put(t)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		t.finish(StatusDropped, "scheduler stopped")
		s.log.Warn("follow-up dropped, scheduler stopped", "task_id", t.ID, "to", to)
		return t.Snapshot()
	}

	t.mu.Lock()
	t.timer = time.AfterFunc(at.Sub(now), func() { s.fire(t) })
	t.mu.Unlock()

	s.log.Info("follow-up scheduled", "task_id", t.ID, "to", to, "due_at", at)
	return t.Snapshot()
}

func (s *Scheduler) fire(t *Task) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		t.finish(StatusDropped, "scheduler stopped")
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(s.sendCtx, s.sendTimeout)
	defer cancel()

	start := time.Now()
	if err := s.sender.SendFollowUp(ctx, t.To, t.Name); err != nil {
		t.finish(StatusFailed, err.Error())
		s.log.Error("follow-up failed", "task_id", t.ID, "to", t.To, "error", err)
		return
	}
	t.finish(StatusSent, "")
	s.log.Info("follow-up sent", "task_id", t.ID, "to", t.To, "duration_ms", time.Since(start).Milliseconds())
}

// Get returns a snapshot of a task.
func (s *Scheduler) Get(id string) (TaskSnapshot, bool) {
	t := s.tasks.get(id)
	if t == nil {
		return TaskSnapshot{}, false
	}
	return t.Snapshot(), true
}

// List returns snapshots of all known tasks ordered by due time.
func (s *Scheduler) List() []TaskSnapshot {
	tasks := s.tasks.all()
	out := make([]TaskSnapshot, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Snapshot())
	}
	sortByDue(out)
	return out
}

// Stop disarms all timers and waits for in-flight sends. Tasks that had
// not fired are marked dropped.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.done)
	s.mu.Unlock()

	dropped := 0
	for _, t := range s.tasks.all() {
		t.mu.Lock()
		timer := t.timer
		t.mu.Unlock()
		if timer != nil && timer.Stop() && t.finish(StatusDropped, "scheduler stopped") {
			dropped++
			s.log.Warn("follow-up dropped on shutdown", "task_id", t.ID, "to", t.To, "due_at", t.DueAt)
		}
	}

	s.wg.Wait()
	s.cancel()
	s.log.Info("follow-up scheduler stopped", "dropped", dropped)
}
