package scheduler

import (
	"container/heap"
	"log/slog"
	"time"
)

// DefaultFrameInterval is the length of a time slice.
const DefaultFrameInterval = 5 * time.Millisecond

// microtaskWarnThreshold flags runaway microtask chains in the log.
const microtaskWarnThreshold = 10000

// Host is the narrow scheduling surface consumed by work loops.
type Host interface {
	ScheduleCallback(p Priority, cb Callback) *Task
	CancelCallback(t *Task)
	ShouldYield() bool
	Now() time.Duration
	QueueMicrotask(fn func())
}

// Scheduler holds the task queue and slice bookkeeping. It is not safe for
// concurrent use; a single goroutine (see Loop) must drive it.
type Scheduler struct {
	clock         Clock
	frameInterval time.Duration
	timeouts      Timeouts
	logger        *slog.Logger

	queue   taskQueue
	nextID  uint64
	current *Task

	currentPriority Priority
	sliceStart      time.Duration
	yieldRequested  bool
	inSlice         bool

	microtasks []func()
}

var _ Host = (*Scheduler)(nil)

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock sets the time source.
func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithFrameInterval sets the length of a time slice.
func WithFrameInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.frameInterval = d
		}
	}
}

// WithTimeouts sets the per-priority expiration delays.
func WithTimeouts(t Timeouts) Option {
	return func(s *Scheduler) { s.timeouts = t }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a scheduler.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		frameInterval:   DefaultFrameInterval,
		timeouts:        DefaultTimeouts,
		logger:          slog.Default(),
		currentPriority: NormalPriority,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		s.clock = NewRealClock()
	}
	return s
}

// Now returns the current time of the scheduler's clock.
func (s *Scheduler) Now() time.Duration {
	return s.clock.Now()
}

// FrameInterval returns the configured slice length.
func (s *Scheduler) FrameInterval() time.Duration {
	return s.frameInterval
}

// ScheduleCallback queues cb at priority p and returns its task handle.
func (s *Scheduler) ScheduleCallback(p Priority, cb Callback) *Task {
	now := s.Now()
	s.nextID++
	t := &Task{
		id:             s.nextID,
		callback:       cb,
		priority:       p,
		startTime:      now,
		expirationTime: now + s.timeouts.forPriority(p),
	}
	heap.Push(&s.queue, t)
	return t
}

// CancelCallback removes a task. Cancelling a running task drops any
// continuation it returns.
func (s *Scheduler) CancelCallback(t *Task) {
	if t == nil || t.cancelled {
		return
	}
	t.cancelled = true
	t.callback = nil
	if t.index >= 0 && t.index < len(s.queue) && s.queue[t.index] == t {
		heap.Remove(&s.queue, t.index)
	}
}

// ShouldYield reports whether the running task should return control.
func (s *Scheduler) ShouldYield() bool {
	if s.yieldRequested {
		return true
	}
	return s.Now()-s.sliceStart >= s.frameInterval
}

// RequestYield makes ShouldYield report true until the current slice ends.
func (s *Scheduler) RequestYield() {
	s.yieldRequested = true
}

// CurrentPriority returns the priority of the running task, or
// NormalPriority outside of tasks.
func (s *Scheduler) CurrentPriority() Priority {
	return s.currentPriority
}

// RunWithPriority runs fn with p as the current priority.
func (s *Scheduler) RunWithPriority(p Priority, fn func()) {
	prev := s.currentPriority
	s.currentPriority = p
	defer func() { s.currentPriority = prev }()
	fn()
}

// Pending returns the number of queued tasks.
func (s *Scheduler) Pending() int {
	return len(s.queue)
}

// HasPendingWork reports whether tasks or microtasks are waiting.
func (s *Scheduler) HasPendingWork() bool {
	return len(s.queue) > 0 || len(s.microtasks) > 0
}

// QueueMicrotask queues fn to run after the current task.
func (s *Scheduler) QueueMicrotask(fn func()) {
	s.microtasks = append(s.microtasks, fn)
	if len(s.microtasks) == microtaskWarnThreshold {
		s.logger.Warn("microtask queue is large, possible update loop",
			"queued", len(s.microtasks))
	}
}

// FlushMicrotasks runs queued microtasks, including ones queued while
// flushing, until the queue is empty.
func (s *Scheduler) FlushMicrotasks() {
	for len(s.microtasks) > 0 {
		fn := s.microtasks[0]
		s.microtasks[0] = nil
		s.microtasks = s.microtasks[1:]
		fn()
	}
	s.microtasks = nil
}

// RunSlice runs tasks until the queue is empty or the slice is used up.
// Expired tasks run regardless of the slice budget. It reports whether
// tasks remain queued.
func (s *Scheduler) RunSlice() bool {
	if s.inSlice {
		panic("scheduler: RunSlice called re-entrantly")
	}
	s.inSlice = true
	s.sliceStart = s.Now()
	s.yieldRequested = false
	defer func() {
		s.inSlice = false
		s.current = nil
		s.yieldRequested = false
	}()

	for {
		t := s.queue.peek()
		if t == nil {
			return false
		}
		now := s.Now()
		if t.expirationTime > now && s.ShouldYield() {
			return true
		}

		cb := t.callback
		if cb == nil {
			heap.Pop(&s.queue)
			continue
		}
		t.callback = nil
		s.current = t
		didTimeout := t.expirationTime <= now

		prev := s.currentPriority
		s.currentPriority = t.priority
		cont := cb(didTimeout)
		s.currentPriority = prev
		s.current = nil

		if cont != nil && !t.cancelled {
			t.callback = cont
			s.FlushMicrotasks()
			return true
		}
		if t.index >= 0 && t.index < len(s.queue) && s.queue[t.index] == t {
			heap.Remove(&s.queue, t.index)
		}
		s.FlushMicrotasks()
	}
}
