package reconciler

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	ferrors "github.com/vango-dev/reconciler/internal/errors"
	"github.com/vango-dev/reconciler/pkg/lane"
	"github.com/vango-dev/reconciler/pkg/scheduler"
)

const tracerName = "github.com/vango-dev/reconciler"

// DefaultMaxNestedUpdates bounds synchronous re-renders triggered from
// layout effects.
const DefaultMaxNestedUpdates = 50

type executionContext uint8

const (
	noContext     executionContext = 0
	renderContext executionContext = 1 << 0
	commitContext executionContext = 1 << 1
)

type rootExitStatus uint8

const (
	rootInProgress rootExitStatus = iota
	rootErrored
	rootCompleted
)

// CommitInfo describes one finished commit.
type CommitInfo struct {
	ID         string
	Root       *Root
	Lanes      lane.Lanes
	Duration   time.Duration
	Placements int
	Updates    int
	Deletions  int
}

// Mutations returns the number of render-target operations of the commit.
func (c CommitInfo) Mutations() int {
	return c.Placements + c.Updates + c.Deletions
}

// Reconciler owns the work loop state shared by all of its roots: the
// work-in-progress pointer, render lanes, update priority, sync queue and
// pending passive effects.
type Reconciler struct {
	host  HostConfig
	sched scheduler.Host

	logger   *slog.Logger
	metrics  Metrics
	tracer   trace.Tracer
	onError  func(root *Root, err error)
	onCommit func(CommitInfo)

	timeouts  lane.Timeouts
	maxNested int

	roots []*Root

	execCtx     executionContext
	wipRoot     *Root
	wip         *Fiber
	renderLanes lane.Lanes
	exitStatus  rootExitStatus
	renderErr   error
	renderStart time.Duration
	// interleavedLanes collects updates scheduled on wipRoot while it
	// renders, so that the commit keeps them pending.
	interleavedLanes lane.Lanes
	didReceiveUpdate bool

	updatePriority lane.EventPriority
	transitionLane lane.Lane
	transitions    lane.TransitionClaimer

	syncQueue       []*Root
	syncFlushQueued bool
	flushingSync    bool

	pendingPassiveRoot    *Root
	pendingPassiveLanes   lane.Lanes
	pendingPassiveCtx     context.Context
	passiveFlushScheduled bool

	nestedUpdateCount     int
	rootWithNestedUpdates *Root

	hostParent any
	commitStat CommitInfo
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger. Begin/complete tracing is logged at debug
// level.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(r *Reconciler) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithTracer sets the OpenTelemetry tracer used for render, commit and
// passive-effect spans.
func WithTracer(t trace.Tracer) Option {
	return func(r *Reconciler) {
		if t != nil {
			r.tracer = t
		}
	}
}

// WithErrorHandler is called for every render or commit failure.
func WithErrorHandler(fn func(root *Root, err error)) Option {
	return func(r *Reconciler) {
		r.onError = fn
	}
}

// WithCommitObserver is called after every commit.
func WithCommitObserver(fn func(CommitInfo)) Option {
	return func(r *Reconciler) {
		r.onCommit = fn
	}
}

// WithLaneTimeouts sets how long lanes may starve before they render
// synchronously.
func WithLaneTimeouts(t lane.Timeouts) Option {
	return func(r *Reconciler) {
		r.timeouts = t
	}
}

// WithMaxNestedUpdates bounds synchronous re-renders triggered from layout
// effects of one flush.
func WithMaxNestedUpdates(n int) Option {
	return func(r *Reconciler) {
		if n > 0 {
			r.maxNested = n
		}
	}
}

// New creates a reconciler for a render target driven by sched.
func New(host HostConfig, sched scheduler.Host, opts ...Option) *Reconciler {
	r := &Reconciler{
		host:      host,
		sched:     sched,
		logger:    slog.Default(),
		metrics:   noopMetrics{},
		tracer:    otel.Tracer(tracerName),
		timeouts:  lane.DefaultTimeouts,
		maxNested: DefaultMaxNestedUpdates,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Roots returns the mounted roots in creation order.
func (r *Reconciler) Roots() []*Root {
	out := make([]*Root, 0, len(r.roots))
	for _, root := range r.roots {
		if !root.unmounted {
			out = append(out, root)
		}
	}
	return out
}

// runWithPriority runs fn with p as the update priority.
func (r *Reconciler) runWithPriority(p lane.EventPriority, fn func()) {
	prev := r.updatePriority
	r.updatePriority = p
	defer func() { r.updatePriority = prev }()
	fn()
}

// DiscreteUpdates runs fn with discrete (synchronous) update priority.
func (r *Reconciler) DiscreteUpdates(fn func()) {
	r.runWithPriority(lane.DiscreteEventPriority, fn)
}

// ContinuousUpdates runs fn with continuous-input update priority.
func (r *Reconciler) ContinuousUpdates(fn func()) {
	r.runWithPriority(lane.ContinuousEventPriority, fn)
}

// IdleUpdates runs fn with idle update priority.
func (r *Reconciler) IdleUpdates(fn func()) {
	r.runWithPriority(lane.IdleEventPriority, fn)
}

// StartTransition marks updates dispatched inside fn as a transition: they
// get a transition lane and render time-sliced.
func (r *Reconciler) StartTransition(fn func()) {
	prev := r.transitionLane
	r.transitionLane = r.transitions.Claim()
	defer func() { r.transitionLane = prev }()
	fn()
}

// FlushSync runs fn with discrete priority and renders and commits the
// resulting synchronous work before returning.
func (r *Reconciler) FlushSync(fn func()) {
	if fn != nil {
		r.runWithPriority(lane.DiscreteEventPriority, fn)
	}
	if r.execCtx&(renderContext|commitContext) == noContext {
		r.flushSyncCallbacks()
	}
}

// FlushPassiveEffects runs pending passive effects now. It reports whether
// there were any.
func (r *Reconciler) FlushPassiveEffects() bool {
	return r.flushPassiveEffects()
}

// requestUpdateLane picks the lane for an update dispatched now.
func (r *Reconciler) requestUpdateLane() lane.Lane {
	if r.transitionLane != lane.NoLane {
		return r.transitionLane
	}
	if r.updatePriority != lane.NoLane {
		return r.updatePriority
	}
	if r.execCtx&renderContext != 0 && r.renderLanes != lane.NoLanes {
		// Render-phase update: join the lanes being rendered.
		return lane.HighestPriorityLane(r.renderLanes)
	}
	if p := r.host.CurrentEventPriority(); p != lane.NoLane {
		return p
	}
	return lane.DefaultEventPriority
}

func (r *Reconciler) reportError(root *Root, err error) {
	r.metrics.Error(ferrors.CodeOf(err))
	if r.onError != nil {
		r.onError(root, err)
		return
	}
	r.logger.Error("reconciler error", "root", root.ID(), "error", err)
}

// spanContext returns the context that parents root's spans.
func (r *Reconciler) spanContext(root *Root) context.Context {
	if root != nil && root.traceCtx != nil {
		return root.traceCtx
	}
	return context.Background()
}
