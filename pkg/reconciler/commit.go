package reconciler

import (
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	ferrors "github.com/vango-dev/reconciler/internal/errors"
	"github.com/vango-dev/reconciler/pkg/lane"
	"github.com/vango-dev/reconciler/pkg/scheduler"
)

// commitRoot applies root.finishedWork to the render target and publishes
// it. Updates scheduled while committing get the discrete priority.
func (r *Reconciler) commitRoot(root *Root) {
	prev := r.updatePriority
	r.updatePriority = lane.DiscreteEventPriority
	defer func() { r.updatePriority = prev }()
	r.commitRootImpl(root)
}

func (r *Reconciler) commitRootImpl(root *Root) {
	for r.flushPassiveEffects() {
		// Passive effects may schedule more passive work.
	}

	finishedWork := root.finishedWork
	lanes := root.finishedLanes
	if finishedWork == nil {
		return
	}
	root.finishedWork = nil
	root.finishedLanes = lane.NoLanes

	if root.callbackNode != nil {
		r.sched.CancelCallback(root.callbackNode)
	}
	root.callbackNode = nil
	root.callbackPriority = lane.NoLane

	remaining := lane.MergeLanes(lane.MergeLanes(finishedWork.Lanes, finishedWork.ChildLanes), r.interleavedLanes)
	root.markFinished(remaining)
	if root == r.wipRoot {
		r.resetWorkInProgress()
	}

	allFlags := finishedWork.Flags | finishedWork.SubtreeFlags
	if allFlags&PassiveMask != 0 && !r.passiveFlushScheduled {
		r.passiveFlushScheduled = true
		r.sched.ScheduleCallback(scheduler.NormalPriority, func(bool) scheduler.Callback {
			r.passiveFlushScheduled = false
			r.flushPassiveEffects()
			return nil
		})
	}

	spanCtx, span := r.tracer.Start(r.spanContext(root), "reconciler.commit",
		trace.WithAttributes(
			attribute.String("reconciler.root", root.id),
			attribute.String("reconciler.lanes", lanes.String()),
		))
	defer span.End()

	start := r.sched.Now()
	r.commitStat = CommitInfo{ID: uuid.NewString(), Root: root, Lanes: lanes}

	prevCtx := r.execCtx
	r.execCtx |= commitContext

	r.host.PrepareForCommit(root.container)
	if err := r.commitMutationEffectsOnFiber(root, finishedWork); err != nil {
		r.execCtx = prevCtx
		ferr := ferrors.New("E005").Wrap(err)
		root.poison(ferr)
		span.RecordError(ferr)
		span.SetStatus(codes.Error, ferr.Error())
		r.logger.Error("commit failed, root poisoned", "root", root.id, "error", err)
		r.reportError(root, root.err)
		return
	}
	// Layout effects see the mutated render target before it is published
	// and before the finished tree becomes current.
	r.commitLayoutEffects(root, finishedWork)
	r.host.ResetAfterCommit(root.container)
	root.current = finishedWork
	clearCommittedLanes(finishedWork, lanes)
	r.execCtx = prevCtx

	if allFlags&PassiveMask != 0 {
		r.pendingPassiveRoot = root
		r.pendingPassiveLanes = lanes
		r.pendingPassiveCtx = spanCtx
	}

	root.commits++
	root.err = nil
	if root.pendingLanes == lane.NoLanes {
		root.traceCtx = nil
	}
	info := r.commitStat
	info.Duration = r.sched.Now() - start
	r.commitStat = CommitInfo{}

	span.SetAttributes(
		attribute.Int("reconciler.placements", info.Placements),
		attribute.Int("reconciler.updates", info.Updates),
		attribute.Int("reconciler.deletions", info.Deletions),
	)
	r.metrics.Commit(lanes, info.Duration, info.Mutations())
	r.logger.Debug("commit", "root", root.id, "lanes", lanes, "mutations", info.Mutations(), "remaining", remaining)
	if r.onCommit != nil {
		r.onCommit(info)
	}

	if lane.IncludesSomeLane(root.pendingLanes, lane.SyncLane) {
		// Counts re-renders triggered by layout effects.
		if root == r.rootWithNestedUpdates {
			r.nestedUpdateCount++
		} else {
			r.nestedUpdateCount = 0
			r.rootWithNestedUpdates = root
		}
	} else {
		r.nestedUpdateCount = 0
	}

	r.ensureRootIsScheduled(root)
	r.flushSyncCallbacks()
}

// clearCommittedLanes copies the lanes left on the finished fibers onto
// their alternates, so the previous generation no longer reports work that
// was just committed. Only paths that carried committed lanes are visited.
func clearCommittedLanes(f *Fiber, committed lane.Lanes) {
	for ; f != nil; f = f.Sibling {
		alt := f.Alternate
		if alt == nil || !lane.IncludesSomeLane(lane.MergeLanes(alt.Lanes, alt.ChildLanes), committed) {
			continue
		}
		alt.Lanes = f.Lanes
		alt.ChildLanes = f.ChildLanes
		clearCommittedLanes(f.Child, committed)
	}
}

// Mutation pass.

func (r *Reconciler) recursivelyTraverseMutationEffects(root *Root, parent *Fiber) error {
	for _, child := range parent.Deletions {
		if err := r.commitDeletionEffects(root, parent, child); err != nil {
			return err
		}
	}
	if parent.SubtreeFlags&MutationMask == 0 {
		return nil
	}
	for child := parent.Child; child != nil; child = child.Sibling {
		if err := r.commitMutationEffectsOnFiber(root, child); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reconciler) commitMutationEffectsOnFiber(root *Root, f *Fiber) error {
	if err := r.recursivelyTraverseMutationEffects(root, f); err != nil {
		return err
	}
	if f.Flags&Placement != 0 {
		if err := r.commitPlacement(f); err != nil {
			return err
		}
		f.Flags &^= Placement
	}

	current := f.Alternate
	switch f.Tag {
	case FunctionComponent:
		if f.Flags&UpdateEffect != 0 {
			r.commitHookEffectListUnmount(root, hookLayout|hookHasEffect, f)
		}

	case HostComponent:
		if f.Flags&RefEffect != 0 && current != nil {
			r.safelyDetachRef(root, current)
		}
		if f.Flags&UpdateEffect != 0 && current != nil {
			payload := f.updatePayload
			f.updatePayload = nil
			if payload != nil {
				if err := r.host.CommitUpdate(f.StateNode, payload, f.Name(), current.MemoizedProps, f.MemoizedProps); err != nil {
					return fmt.Errorf("update %s: %w", f.Name(), err)
				}
				r.commitStat.Updates++
			}
		}

	case HostText:
		if f.Flags&UpdateEffect != 0 && current != nil {
			if err := r.host.CommitTextUpdate(f.StateNode, current.Text(), f.Text()); err != nil {
				return fmt.Errorf("update text: %w", err)
			}
			r.commitStat.Updates++
		}
	}
	return nil
}

func (r *Reconciler) hostParentOf(f *Fiber) (any, error) {
	for parent := f.Return; parent != nil; parent = parent.Return {
		switch parent.Tag {
		case HostComponent:
			return parent.StateNode, nil
		case HostRoot:
			return parent.StateNode.(*Root).container, nil
		}
	}
	return nil, fmt.Errorf("reconciler: %s has no host parent", f.Name())
}

func (r *Reconciler) commitPlacement(f *Fiber) error {
	parent, err := r.hostParentOf(f)
	if err != nil {
		return err
	}
	return r.insertOrAppendPlacementNode(f, getHostSibling(f), parent)
}

// getHostSibling returns the render-target handle f must be inserted before,
// or nil to append. Siblings that are themselves being placed do not count.
func getHostSibling(f *Fiber) any {
	node := f
siblings:
	for {
		for node.Sibling == nil {
			if node.Return == nil || isHostParent(node.Return) {
				return nil
			}
			node = node.Return
		}
		node.Sibling.Return = node.Return
		node = node.Sibling
		for !isHost(node) {
			if node.Flags&Placement != 0 || node.Child == nil {
				continue siblings
			}
			node.Child.Return = node
			node = node.Child
		}
		if node.Flags&Placement == 0 {
			return node.StateNode
		}
	}
}

func (r *Reconciler) insertOrAppendPlacementNode(f *Fiber, before, parent any) error {
	if isHost(f) {
		var err error
		if before != nil {
			err = r.host.InsertBefore(parent, f.StateNode, before)
		} else {
			err = r.host.AppendChild(parent, f.StateNode)
		}
		if err != nil {
			return fmt.Errorf("place %s: %w", f.Name(), err)
		}
		r.commitStat.Placements++
		return nil
	}
	for child := f.Child; child != nil; child = child.Sibling {
		if err := r.insertOrAppendPlacementNode(child, before, parent); err != nil {
			return err
		}
	}
	return nil
}

// commitDeletionEffects tears down the subtree rooted at deleted, a child of
// returnFiber.
func (r *Reconciler) commitDeletionEffects(root *Root, returnFiber, deleted *Fiber) error {
	parent := returnFiber
	for !isHostParent(parent) {
		parent = parent.Return
	}
	if parent.Tag == HostRoot {
		r.hostParent = parent.StateNode.(*Root).container
	} else {
		r.hostParent = parent.StateNode
	}
	err := r.commitDeletionEffectsOnFiber(root, deleted)
	r.hostParent = nil

	deleted.Return = nil
	if alt := deleted.Alternate; alt != nil {
		alt.Return = nil
	}
	return err
}

func (r *Reconciler) recursivelyTraverseDeletionEffects(root *Root, parent *Fiber) error {
	for child := parent.Child; child != nil; child = child.Sibling {
		if err := r.commitDeletionEffectsOnFiber(root, child); err != nil {
			return err
		}
	}
	return nil
}

// commitDeletionEffectsOnFiber runs cleanups depth-first. Only the outermost
// host nodes are removed from the render target; r.hostParent is cleared
// below them so nested host nodes go with their ancestor.
func (r *Reconciler) commitDeletionEffectsOnFiber(root *Root, f *Fiber) error {
	switch f.Tag {
	case HostComponent, HostText:
		hostParent := r.hostParent
		r.hostParent = nil
		err := r.recursivelyTraverseDeletionEffects(root, f)
		r.hostParent = hostParent
		if err != nil {
			return err
		}
		if f.Tag == HostComponent {
			r.safelyDetachRef(root, f)
		}
		if hostParent != nil {
			if err := r.host.RemoveChild(hostParent, f.StateNode); err != nil {
				return fmt.Errorf("remove %s: %w", f.Name(), err)
			}
			r.commitStat.Deletions++
		}
		return nil

	case FunctionComponent:
		r.commitHookEffectListUnmount(root, hookLayout, f)
	}
	return r.recursivelyTraverseDeletionEffects(root, f)
}

// Layout pass.

func (r *Reconciler) commitLayoutEffects(root *Root, f *Fiber) {
	if f.SubtreeFlags&LayoutMask != 0 {
		for child := f.Child; child != nil; child = child.Sibling {
			r.commitLayoutEffects(root, child)
		}
	}
	if f.Flags&LayoutMask == 0 {
		return
	}
	switch f.Tag {
	case FunctionComponent:
		if f.Flags&UpdateEffect != 0 {
			r.commitHookEffectListMount(root, hookLayout|hookHasEffect, f)
		}
	case HostComponent:
		if f.Flags&RefEffect != 0 {
			r.safelyAttachRef(root, f)
		}
	}
}

// Effect lists.

func (r *Reconciler) commitHookEffectListUnmount(root *Root, flags hookFlags, f *Fiber) int {
	n := 0
	for _, e := range f.effects {
		if e.tag&flags != flags {
			continue
		}
		destroy := e.destroy
		e.destroy = nil
		if destroy != nil {
			r.safely(root, f, "effect cleanup", func() { destroy() })
			n++
		}
	}
	if n > 0 {
		r.metrics.EffectsRun(phaseOf(flags)+"_cleanup", n)
	}
	return n
}

func (r *Reconciler) commitHookEffectListMount(root *Root, flags hookFlags, f *Fiber) int {
	n := 0
	for _, e := range f.effects {
		if e.tag&flags != flags {
			continue
		}
		create := e.create
		r.safely(root, f, "effect", func() { e.destroy = create() })
		n++
	}
	if n > 0 {
		r.metrics.EffectsRun(phaseOf(flags), n)
	}
	return n
}

func phaseOf(flags hookFlags) string {
	if flags&hookLayout != 0 {
		return "layout"
	}
	return "passive"
}

// safely runs user code of a committed component. A panic is reported with
// E003 and the commit continues.
func (r *Reconciler) safely(root *Root, f *Fiber, what string, fn func()) {
	defer func() {
		if p := recover(); p != nil {
			cause, ok := p.(error)
			if !ok {
				cause = fmt.Errorf("%v", p)
			}
			r.reportError(root, ferrors.New("E003").
				WithComponent(f.Name()).
				WithDetail(what+" panicked").
				Wrap(cause))
		}
	}()
	fn()
}

// Refs.

func (r *Reconciler) safelyAttachRef(root *Root, f *Fiber) {
	setRef(root, r, f, f.ref, f.StateNode)
}

func (r *Reconciler) safelyDetachRef(root *Root, f *Fiber) {
	setRef(root, r, f, f.ref, nil)
}

func setRef(root *Root, r *Reconciler, f *Fiber, ref, handle any) {
	switch ref := ref.(type) {
	case nil:
	case refSetter:
		ref.setCurrent(handle)
	case func(any):
		r.safely(root, f, "ref callback", func() { ref(handle) })
	default:
		r.logger.Warn("unsupported ref ignored", "element", f.Name(), "type", fmt.Sprintf("%T", ref))
	}
}
