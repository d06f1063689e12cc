package main

import (
	"log/slog"

	"github.com/vango-dev/reconciler/pkg/memdom"
	"github.com/vango-dev/reconciler/pkg/reconciler"
	"github.com/vango-dev/reconciler/pkg/scheduler"
)

// commitRecord is a commit together with the mutations it applied.
type commitRecord struct {
	info reconciler.CommitInfo
	ops  []string
}

// player applies scenario steps to one memdom root. It must only be used
// from the goroutine driving the scheduler.
type player struct {
	logger    *slog.Logger
	host      *memdom.Host
	r         *reconciler.Reconciler
	container *memdom.Container
	root      *reconciler.Root
	observers []func(reconciler.CommitInfo)

	commits []commitRecord
	errs    []error
}

func newPlayer(sched scheduler.Host, logger *slog.Logger, observers []func(reconciler.CommitInfo), opts ...reconciler.Option) *player {
	p := &player{logger: logger, observers: observers}
	p.host = memdom.NewHost(memdom.WithLogger(logger))
	base := []reconciler.Option{
		reconciler.WithLogger(logger),
		reconciler.WithCommitObserver(p.observe),
		reconciler.WithErrorHandler(p.fail),
	}
	p.r = reconciler.New(p.host, sched, append(base, opts...)...)
	p.mount()
	return p
}

// mount creates a fresh container and root.
func (p *player) mount() {
	p.container = p.host.NewContainer()
	p.root = p.r.CreateContainer(p.container)
}

// ensureRoot replaces the root if a previous replay unmounted or poisoned
// it. It reports whether a new root was created.
func (p *player) ensureRoot() bool {
	if len(p.r.Roots()) > 0 && !p.root.Poisoned() {
		return false
	}
	p.mount()
	return true
}

func (p *player) observe(info reconciler.CommitInfo) {
	rec := commitRecord{info: info}
	if c, ok := info.Root.Container().(*memdom.Container); ok {
		rec.ops = c.LastBatch().Strings()
	}
	p.commits = append(p.commits, rec)
	for _, fn := range p.observers {
		fn(info)
	}
}

func (p *player) fail(_ *reconciler.Root, err error) {
	p.errs = append(p.errs, err)
}

// apply schedules one step. The resulting work runs when the scheduler is
// driven, except for unmount which commits synchronously.
func (p *player) apply(step Step) error {
	switch {
	case step.Unmount:
		return p.root.Unmount()
	case step.Clear:
		return p.root.Render(nil)
	}
	el := step.Render.Element()
	if !step.Transition {
		return p.root.Render(el)
	}
	var err error
	p.r.StartTransition(func() {
		err = p.root.Render(el)
	})
	return err
}

// drain returns and forgets the commits and errors seen since the last
// call.
func (p *player) drain() ([]commitRecord, []error) {
	commits, errs := p.commits, p.errs
	p.commits, p.errs = nil, nil
	return commits, errs
}
