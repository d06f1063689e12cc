package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrLoopStopped is returned by Submit and Call once the loop has exited.
var ErrLoopStopped = errors.New("scheduler: loop stopped")

// Loop drives a Scheduler from a single goroutine. Other goroutines hand
// work to it through Submit or Call.
type Loop struct {
	s       *Scheduler
	ingress chan func()
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
	logger  *slog.Logger
}

// NewLoop creates a loop around s. Run must be called to start it.
func NewLoop(s *Scheduler) *Loop {
	return &Loop{
		s:       s,
		ingress: make(chan func(), 64),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		logger:  s.logger,
	}
}

// Scheduler returns the driven scheduler.
func (l *Loop) Scheduler() *Scheduler {
	return l.s
}

// Submit queues fn to run on the loop goroutine.
func (l *Loop) Submit(fn func()) error {
	select {
	case <-l.done:
		return ErrLoopStopped
	case <-l.stop:
		return ErrLoopStopped
	default:
	}
	select {
	case l.ingress <- fn:
		return nil
	case <-l.stop:
		return ErrLoopStopped
	case <-l.done:
		return ErrLoopStopped
	}
}

// Call runs fn on the loop goroutine and waits for it to return.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if err := l.Submit(func() {
		defer close(finished)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrLoopStopped
	}
}

// Stop asks the loop to exit after the current slice.
func (l *Loop) Stop() {
	l.once.Do(func() { close(l.stop) })
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Run processes submitted functions and scheduled tasks until ctx is
// cancelled or Stop is called.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	l.logger.Debug("scheduler loop started")
	defer l.logger.Debug("scheduler loop stopped")

	for {
		l.s.FlushMicrotasks()

		if l.s.Pending() > 0 {
			if stopped, err := l.checkStopped(ctx); stopped {
				return err
			}
			l.drainIngress()
			l.s.RunSlice()
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.stop:
			return nil
		case fn := <-l.ingress:
			l.runSubmitted(fn)
		}
	}
}

func (l *Loop) checkStopped(ctx context.Context) (bool, error) {
	select {
	case <-ctx.Done():
		return true, ctx.Err()
	case <-l.stop:
		return true, nil
	default:
		return false, nil
	}
}

func (l *Loop) drainIngress() {
	for {
		select {
		case fn := <-l.ingress:
			l.runSubmitted(fn)
		default:
			return
		}
	}
}

func (l *Loop) runSubmitted(fn func()) {
	fn()
	l.s.FlushMicrotasks()
}
