package scheduler

// ManualHost drives a Scheduler on demand. It is intended for tests: time
// only moves when the supplied clock moves, and nothing runs until Step or
// RunUntilIdle is called.
type ManualHost struct {
	*Scheduler
}

// NewManualHost creates a ManualHost on a fake clock unless a clock option
// is given.
func NewManualHost(opts ...Option) (*ManualHost, *FakeClock) {
	clock := NewFakeClock()
	s := New(append([]Option{WithClock(clock)}, opts...)...)
	return &ManualHost{Scheduler: s}, clock
}

// Step flushes microtasks and runs a single slice. It reports whether any
// work remains.
func (h *ManualHost) Step() bool {
	h.FlushMicrotasks()
	if h.Pending() == 0 {
		return false
	}
	h.RunSlice()
	h.FlushMicrotasks()
	return h.HasPendingWork()
}

// RunUntilIdle runs slices until no tasks or microtasks remain and returns
// the number of slices run.
func (h *ManualHost) RunUntilIdle() int {
	slices := 0
	for {
		h.FlushMicrotasks()
		if h.Pending() == 0 {
			return slices
		}
		h.RunSlice()
		slices++
	}
}

// Act runs fn and then drains all resulting work.
func (h *ManualHost) Act(fn func()) {
	fn()
	h.RunUntilIdle()
}
