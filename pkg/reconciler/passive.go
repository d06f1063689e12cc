package reconciler

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/reconciler/pkg/lane"
)

// flushPassiveEffects runs the passive effects of the last commit: every
// cleanup in the tree first, then every new effect. It reports whether
// there was anything to flush.
func (r *Reconciler) flushPassiveEffects() bool {
	root := r.pendingPassiveRoot
	if root == nil {
		return false
	}
	lanes := r.pendingPassiveLanes
	parent := r.pendingPassiveCtx
	r.pendingPassiveRoot = nil
	r.pendingPassiveLanes = lane.NoLanes
	r.pendingPassiveCtx = nil
	if parent == nil {
		parent = context.Background()
	}

	// Never more urgent than the default priority.
	priority := lane.LanesToEventPriority(lanes)
	if lane.IsHigherEventPriority(priority, lane.DefaultEventPriority) {
		priority = lane.DefaultEventPriority
	}
	prevPriority := r.updatePriority
	r.updatePriority = priority
	defer func() { r.updatePriority = prevPriority }()

	_, span := r.tracer.Start(parent, "reconciler.passive_effects",
		trace.WithAttributes(
			attribute.String("reconciler.root", root.id),
			attribute.String("reconciler.lanes", lanes.String()),
		))

	prevCtx := r.execCtx
	r.execCtx |= commitContext
	unmounted := r.commitPassiveUnmountEffects(root, root.current)
	mounted := r.commitPassiveMountEffects(root, root.current)
	r.execCtx = prevCtx

	span.SetAttributes(
		attribute.Int("reconciler.cleanups", unmounted),
		attribute.Int("reconciler.effects", mounted),
	)
	span.End()
	r.logger.Debug("passive effects flushed", "root", root.id, "cleanups", unmounted, "effects", mounted)

	r.flushSyncCallbacks()
	return true
}

func (r *Reconciler) commitPassiveUnmountEffects(root *Root, f *Fiber) int {
	n := 0
	if f.Flags&ChildDeletion != 0 {
		for _, deleted := range f.Deletions {
			n += r.commitPassiveUnmountInsideDeletedTree(root, deleted)
			detachDeletedFiber(deleted)
		}
		f.Deletions = nil
	}
	if f.SubtreeFlags&PassiveMask != 0 {
		for child := f.Child; child != nil; child = child.Sibling {
			n += r.commitPassiveUnmountEffects(root, child)
		}
	}
	if f.Tag == FunctionComponent && f.Flags&Passive != 0 {
		n += r.commitHookEffectListUnmount(root, hookPassive|hookHasEffect, f)
	}
	return n
}

func (r *Reconciler) commitPassiveUnmountInsideDeletedTree(root *Root, f *Fiber) int {
	n := 0
	if f.Tag == FunctionComponent {
		n += r.commitHookEffectListUnmount(root, hookPassive, f)
	}
	for child := f.Child; child != nil; child = child.Sibling {
		n += r.commitPassiveUnmountInsideDeletedTree(root, child)
	}
	return n
}

func (r *Reconciler) commitPassiveMountEffects(root *Root, f *Fiber) int {
	n := 0
	if f.SubtreeFlags&PassiveMask != 0 {
		for child := f.Child; child != nil; child = child.Sibling {
			n += r.commitPassiveMountEffects(root, child)
		}
	}
	if f.Tag == FunctionComponent && f.Flags&Passive != 0 {
		n += r.commitHookEffectListMount(root, hookPassive|hookHasEffect, f)
	}
	return n
}

// detachDeletedFiber unlinks a deleted subtree so that it can be collected
// and stale dispatches from it find no root.
func detachDeletedFiber(f *Fiber) {
	if alt := f.Alternate; alt != nil {
		alt.Alternate = nil
		alt.Return = nil
		alt.Sibling = nil
		alt.Child = nil
	}
	f.Alternate = nil
	f.Return = nil
	f.Sibling = nil
}
