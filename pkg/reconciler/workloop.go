package reconciler

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	ferrors "github.com/vango-dev/reconciler/internal/errors"
	"github.com/vango-dev/reconciler/pkg/lane"
	"github.com/vango-dev/reconciler/pkg/scheduler"
)

// markUpdateLaneFromFiberToRoot merges l into the fiber and its ancestors'
// child lanes, on both generations, and returns the owning root. It returns
// nil for fibers no longer attached to a root.
func (r *Reconciler) markUpdateLaneFromFiberToRoot(source *Fiber, l lane.Lane) *Root {
	source.Lanes = lane.MergeLanes(source.Lanes, l)
	if alt := source.Alternate; alt != nil {
		alt.Lanes = lane.MergeLanes(alt.Lanes, l)
	}
	node := source
	parent := source.Return
	for parent != nil {
		parent.ChildLanes = lane.MergeLanes(parent.ChildLanes, l)
		if alt := parent.Alternate; alt != nil {
			alt.ChildLanes = lane.MergeLanes(alt.ChildLanes, l)
		}
		node = parent
		parent = parent.Return
	}
	if node.Tag != HostRoot {
		return nil
	}
	root, _ := node.StateNode.(*Root)
	return root
}

// dispatchAction is the body of every reducer dispatch function.
func (r *Reconciler) dispatchAction(fiber *Fiber, shared *sharedQueue, action any) {
	l := r.requestUpdateLane()
	u := &Update{Lane: l, Action: action}

	alt := fiber.Alternate
	if fiber.Lanes == lane.NoLanes && (alt == nil || alt.Lanes == lane.NoLanes) {
		// Nothing else is queued on this fiber, so the next state can be
		// computed now. If it does not change, no render is needed.
		if fn := shared.lastRenderedFn; fn != nil {
			if eager, ok := tryReduce(fn, shared.lastRenderedState, action); ok && identical(eager, shared.lastRenderedState) {
				shared.pending = append(shared.pending, u)
				r.metrics.EagerBailout()
				return
			}
		}
	}

	shared.pending = append(shared.pending, u)
	root := r.markUpdateLaneFromFiberToRoot(fiber, l)
	if root == nil {
		r.logger.Debug("update on unmounted component dropped", "component", fiber.Name())
		return
	}
	r.scheduleUpdateOnRoot(root, l)
}

// tryReduce runs a reducer eagerly. A panicking reducer is left to fail
// during render, where the failure is handled.
func tryReduce(fn func(state, action any) any, state, action any) (v any, ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return fn(state, action), true
}

func (r *Reconciler) scheduleUpdateOnRoot(root *Root, l lane.Lane) {
	if err := root.available(); err != nil {
		r.logger.Warn("update on unavailable root ignored", "root", root.id, "error", err)
		return
	}
	root.markUpdated(l)
	if r.execCtx&renderContext != 0 && root == r.wipRoot {
		r.interleavedLanes = lane.MergeLanes(r.interleavedLanes, l)
	}
	r.ensureRootIsScheduled(root)
}

// getHighestPriorityLanes groups transition and retry lanes so that they
// render together.
func getHighestPriorityLanes(lanes lane.Lanes) lane.Lanes {
	l := lane.HighestPriorityLane(lanes)
	switch {
	case lane.IsTransitionLane(l):
		return lanes & lane.TransitionLanes
	case l&lane.RetryLanes != 0:
		return lanes & lane.RetryLanes
	}
	return l
}

// getNextLanes picks the lanes to render next on root. An in-progress
// render keeps going unless strictly more urgent work arrived.
func (r *Reconciler) getNextLanes(root *Root, wipLanes lane.Lanes) lane.Lanes {
	pending := lane.RemoveLanes(root.pendingLanes, root.failedLanes)
	if pending == lane.NoLanes {
		return lane.NoLanes
	}
	var next lane.Lanes
	if nonIdle := pending & lane.NonIdleLanes; nonIdle != lane.NoLanes {
		next = getHighestPriorityLanes(nonIdle)
	} else {
		next = getHighestPriorityLanes(pending)
	}
	if wipLanes != lane.NoLanes && wipLanes != next {
		if lane.HighestPriorityLane(next) >= lane.HighestPriorityLane(wipLanes) {
			return wipLanes
		}
	}
	return next
}

func (r *Reconciler) wipLanesFor(root *Root) lane.Lanes {
	if root == r.wipRoot {
		return r.renderLanes
	}
	return lane.NoLanes
}

func eventPriorityToSchedulerPriority(p lane.EventPriority) scheduler.Priority {
	switch p {
	case lane.DiscreteEventPriority:
		return scheduler.ImmediatePriority
	case lane.ContinuousEventPriority:
		return scheduler.UserBlockingPriority
	case lane.IdleEventPriority:
		return scheduler.IdlePriority
	default:
		return scheduler.NormalPriority
	}
}

// ensureRootIsScheduled makes sure the root has exactly one callback
// scheduled for its most urgent lanes. The sync lane bypasses the scheduler
// and is flushed from a microtask.
func (r *Reconciler) ensureRootIsScheduled(root *Root) {
	existing := root.callbackNode

	root.expiredLanes = lane.MergeLanes(root.expiredLanes,
		root.expirationTimes.MarkStarved(root.pendingLanes, r.sched.Now(), r.timeouts))

	next := r.getNextLanes(root, r.wipLanesFor(root))
	if next == lane.NoLanes || root.poisoned || root.unmounted {
		if existing != nil {
			r.sched.CancelCallback(existing)
		}
		root.callbackNode = nil
		root.callbackPriority = lane.NoLane
		return
	}

	newPriority := lane.HighestPriorityLane(next)
	if root.callbackPriority == newPriority && (existing != nil || newPriority == lane.SyncLane) {
		// The existing callback covers it.
		return
	}
	if existing != nil {
		r.sched.CancelCallback(existing)
	}

	if newPriority == lane.SyncLane {
		r.scheduleSyncCallback(root)
		root.callbackNode = nil
	} else {
		priority := eventPriorityToSchedulerPriority(lane.LanesToEventPriority(next))
		root.callbackNode = r.sched.ScheduleCallback(priority, r.concurrentCallback(root))
	}
	root.callbackPriority = newPriority
}

func (r *Reconciler) concurrentCallback(root *Root) scheduler.Callback {
	return func(didTimeout bool) scheduler.Callback {
		return r.performConcurrentWorkOnRoot(root, didTimeout)
	}
}

func (r *Reconciler) scheduleSyncCallback(root *Root) {
	r.syncQueue = append(r.syncQueue, root)
	if !r.syncFlushQueued {
		r.syncFlushQueued = true
		r.sched.QueueMicrotask(func() {
			r.syncFlushQueued = false
			r.flushSyncCallbacks()
		})
	}
}

// flushSyncCallbacks renders and commits every root queued for the sync
// lane. Roots queued while flushing are processed in the same pass.
func (r *Reconciler) flushSyncCallbacks() {
	if r.flushingSync {
		return
	}
	r.flushingSync = true
	defer func() { r.flushingSync = false }()
	for i := 0; i < len(r.syncQueue); i++ {
		r.performSyncWorkOnRoot(r.syncQueue[i])
	}
	r.syncQueue = nil
}

func (r *Reconciler) performSyncWorkOnRoot(root *Root) {
	r.flushPassiveEffects()

	lanes := r.getNextLanes(root, lane.NoLanes)
	if !lane.IncludesSomeLane(lanes, lane.SyncLane) || root.poisoned || root.unmounted {
		r.ensureRootIsScheduled(root)
		return
	}

	if r.nestedUpdateCount > r.maxNested && root == r.rootWithNestedUpdates {
		r.nestedUpdateCount = 0
		r.rootWithNestedUpdates = nil
		err := ferrors.New("E007").WithDetail(fmt.Sprintf("More than %d nested synchronous updates.", r.maxNested))
		r.failLanes(root, lanes, err)
		r.ensureRootIsScheduled(root)
		return
	}

	r.finishRender(root, lanes, r.renderRootSync(root, lanes))
	r.ensureRootIsScheduled(root)
}

// performConcurrentWorkOnRoot is the scheduler task of a root. It returns
// its own continuation when the render yielded.
func (r *Reconciler) performConcurrentWorkOnRoot(root *Root, didTimeout bool) scheduler.Callback {
	originalCallbackNode := root.callbackNode
	if r.flushPassiveEffects() && root.callbackNode != originalCallbackNode {
		// A passive effect scheduled more urgent work and this task was
		// replaced.
		return nil
	}

	lanes := r.getNextLanes(root, r.wipLanesFor(root))
	if lanes == lane.NoLanes || root.poisoned || root.unmounted {
		return nil
	}

	timeSlice := !lane.IncludesBlockingLane(lanes) &&
		!lane.IncludesSomeLane(root.expiredLanes, lanes) &&
		!didTimeout

	var status rootExitStatus
	if timeSlice {
		status = r.renderRootConcurrent(root, lanes)
	} else {
		status = r.renderRootSync(root, lanes)
	}
	if status == rootInProgress {
		r.metrics.Yield()
	} else {
		r.finishRender(root, lanes, status)
	}

	r.ensureRootIsScheduled(root)
	if root.callbackNode == originalCallbackNode && root.callbackNode != nil {
		return r.concurrentCallback(root)
	}
	return nil
}

func (r *Reconciler) finishRender(root *Root, lanes lane.Lanes, status rootExitStatus) {
	switch status {
	case rootErrored:
		err := r.renderErr
		r.resetWorkInProgress()
		r.failLanes(root, lanes, err)
	case rootCompleted:
		root.finishedWork = root.current.Alternate
		root.finishedLanes = lanes
		r.commitRoot(root)
	}
}

// failLanes unwinds to the published tree: lanes are parked until a new
// update arrives on the root.
func (r *Reconciler) failLanes(root *Root, lanes lane.Lanes, err error) {
	root.failedLanes = lane.MergeLanes(root.failedLanes, lanes)
	root.err = err
	r.reportError(root, err)
}

func (r *Reconciler) resetWorkInProgress() {
	r.wipRoot = nil
	r.wip = nil
	r.renderLanes = lane.NoLanes
	r.interleavedLanes = lane.NoLanes
	r.renderErr = nil
}

// prepareFreshStack discards any in-progress work and starts a new render of
// root from its published tree.
func (r *Reconciler) prepareFreshStack(root *Root, lanes lane.Lanes) {
	if r.wip != nil {
		r.logger.Debug("render abandoned", "root", r.wipRoot.id, "lanes", r.renderLanes, "for", lanes)
		r.metrics.RenderAbandoned()
	}
	root.finishedWork = nil
	root.finishedLanes = lane.NoLanes
	r.wipRoot = root
	r.wip = CreateWorkInProgress(root.current, nil)
	r.renderLanes = lanes
	r.exitStatus = rootInProgress
	r.renderErr = nil
	r.interleavedLanes = lane.NoLanes
	r.renderStart = r.sched.Now()
}

func (r *Reconciler) startRenderSpan(root *Root, lanes lane.Lanes, sync bool) trace.Span {
	_, span := r.tracer.Start(r.spanContext(root), "reconciler.render",
		trace.WithAttributes(
			attribute.String("reconciler.root", root.id),
			attribute.String("reconciler.lanes", lanes.String()),
			attribute.Bool("reconciler.sync", sync),
		))
	return span
}

func (r *Reconciler) renderRootSync(root *Root, lanes lane.Lanes) rootExitStatus {
	span := r.startRenderSpan(root, lanes, true)
	defer span.End()

	prevCtx := r.execCtx
	r.execCtx |= renderContext
	if r.wipRoot != root || r.renderLanes != lanes {
		r.prepareFreshStack(root, lanes)
	}
	for r.wip != nil {
		r.performUnitOfWork(r.wip)
	}
	r.execCtx = prevCtx
	return r.endRender(root, lanes, true, span)
}

func (r *Reconciler) renderRootConcurrent(root *Root, lanes lane.Lanes) rootExitStatus {
	span := r.startRenderSpan(root, lanes, false)
	defer span.End()

	prevCtx := r.execCtx
	r.execCtx |= renderContext
	if r.wipRoot != root || r.renderLanes != lanes {
		r.prepareFreshStack(root, lanes)
	}
	for r.wip != nil && !r.sched.ShouldYield() {
		r.performUnitOfWork(r.wip)
	}
	r.execCtx = prevCtx

	if r.wip != nil {
		span.SetAttributes(attribute.Bool("reconciler.yielded", true))
		return rootInProgress
	}
	return r.endRender(root, lanes, false, span)
}

func (r *Reconciler) endRender(root *Root, lanes lane.Lanes, sync bool, span trace.Span) rootExitStatus {
	status := r.exitStatus
	if status == rootErrored {
		span.RecordError(r.renderErr)
		span.SetStatus(codes.Error, r.renderErr.Error())
		return status
	}
	r.metrics.RenderCompleted(lanes, sync, r.sched.Now()-r.renderStart)
	return status
}

// performUnitOfWork runs begin on unit and, when it has no child to descend
// into, completes it and as many ancestors as possible.
func (r *Reconciler) performUnitOfWork(unit *Fiber) {
	r.metrics.UnitOfWork()
	if r.logger.Enabled(context.Background(), slog.LevelDebug) {
		r.logger.Debug("begin", "fiber", unit.String(), "depth", depthOf(unit))
	}

	next, err := r.beginWork(unit.Alternate, unit, r.renderLanes)
	unit.MemoizedProps = unit.PendingProps
	if err != nil {
		r.throwException(err)
		return
	}
	if next == nil {
		r.completeUnitOfWork(unit)
		return
	}
	r.wip = next
}

func (r *Reconciler) completeUnitOfWork(unit *Fiber) {
	completed := unit
	debug := r.logger.Enabled(context.Background(), slog.LevelDebug)
	for {
		if debug {
			r.logger.Debug("complete", "fiber", completed.String(), "depth", depthOf(completed))
		}
		if err := r.completeWork(completed.Alternate, completed); err != nil {
			r.throwException(err)
			return
		}
		if sibling := completed.Sibling; sibling != nil {
			r.wip = sibling
			return
		}
		completed = completed.Return
		r.wip = completed
		if completed == nil {
			r.exitStatus = rootCompleted
			return
		}
	}
}

// throwException aborts the render. The work-in-progress tree is dropped by
// finishRender.
func (r *Reconciler) throwException(err error) {
	r.exitStatus = rootErrored
	r.renderErr = err
	r.wip = nil
}

func depthOf(f *Fiber) int {
	d := 0
	for p := f.Return; p != nil; p = p.Return {
		d++
	}
	return d
}
