package scheduler

import "time"

// Callback is a unit of scheduled work. didTimeout reports whether the task
// expired before it got to run. Returning a non-nil Callback keeps the task
// queued with that continuation.
type Callback func(didTimeout bool) Callback

// Task is a handle to scheduled work, used for cancellation.
type Task struct {
	id             uint64
	callback       Callback
	priority       Priority
	startTime      time.Duration
	expirationTime time.Duration
	cancelled      bool
	index          int
}

// Priority returns the priority the task was scheduled with.
func (t *Task) Priority() Priority { return t.priority }

// Cancelled reports whether CancelCallback was called for the task.
func (t *Task) Cancelled() bool { return t.cancelled }

// ExpirationTime returns the time after which the task is considered expired.
func (t *Task) ExpirationTime() time.Duration { return t.expirationTime }

// taskQueue is a min-heap ordered by expiration time, then insertion order.
type taskQueue []*Task

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	if q[i].expirationTime != q[j].expirationTime {
		return q[i].expirationTime < q[j].expirationTime
	}
	return q[i].id < q[j].id
}

func (q taskQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *taskQueue) Push(x any) {
	t := x.(*Task)
	t.index = len(*q)
	*q = append(*q, t)
}

func (q *taskQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*q = old[:n-1]
	return t
}

func (q taskQueue) peek() *Task {
	if len(q) == 0 {
		return nil
	}
	return q[0]
}
