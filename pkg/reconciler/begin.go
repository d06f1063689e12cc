package reconciler

import (
	"fmt"

	ferrors "github.com/vango-dev/reconciler/internal/errors"
	"github.com/vango-dev/reconciler/pkg/lane"
)

// beginWork renders one fiber and returns the first child to work on next,
// or nil when the subtree is done.
func (r *Reconciler) beginWork(current, wip *Fiber, renderLanes lane.Lanes) (*Fiber, error) {
	if current != nil {
		if !sameProps(current.MemoizedProps, wip.PendingProps) {
			r.didReceiveUpdate = true
		} else if !lane.IncludesSomeLane(wip.Lanes, renderLanes) {
			// Nothing to do on this fiber; maybe on its subtree.
			r.didReceiveUpdate = false
			return r.bailoutOnAlreadyFinishedWork(current, wip, renderLanes), nil
		} else {
			r.didReceiveUpdate = false
		}
	} else {
		r.didReceiveUpdate = false
	}

	wip.Lanes = lane.NoLanes

	switch wip.Tag {
	case HostRoot:
		return r.updateHostRoot(current, wip, renderLanes), nil
	case HostComponent:
		return r.updateHostComponent(current, wip, renderLanes), nil
	case HostText:
		return nil, nil
	case FunctionComponent:
		return r.updateFunctionComponent(current, wip, renderLanes)
	}
	return nil, fmt.Errorf("reconciler: unknown work tag %d", wip.Tag)
}

func (r *Reconciler) updateHostRoot(current, wip *Fiber, renderLanes lane.Lanes) *Fiber {
	q := current.updateQueue.clone()
	wip.updateQueue = q
	prevElement := current.element
	next, remaining := q.process(current.updateQueue, renderLanes, replaceState)
	wip.Lanes = lane.MergeLanes(wip.Lanes, remaining)
	wip.element = next
	if identical(next, prevElement) {
		return r.bailoutOnAlreadyFinishedWork(current, wip, renderLanes)
	}
	r.reconcileChildren(current, wip, next, renderLanes)
	return wip.Child
}

func (r *Reconciler) updateHostComponent(current, wip *Fiber, renderLanes lane.Lanes) *Fiber {
	typ := wip.Name()
	var next any = wip.PendingProps.Children()
	if r.host.IsTextOnlyChildren(typ, wip.PendingProps) {
		// The text is set as a prop of the instance; no HostText child.
		next = nil
	}
	r.reconcileChildren(current, wip, next, renderLanes)
	return wip.Child
}

func (r *Reconciler) updateFunctionComponent(current, wip *Fiber, renderLanes lane.Lanes) (*Fiber, error) {
	comp, ok := asComponent(wip.Type)
	if !ok {
		return nil, fmt.Errorf("reconciler: %s is not a component", wip.Name())
	}
	children, err := r.renderWithHooks(current, wip, comp, renderLanes)
	if err != nil {
		return nil, err
	}
	if current != nil && !r.didReceiveUpdate {
		r.bailoutHooks(current, wip, renderLanes)
		return r.bailoutOnAlreadyFinishedWork(current, wip, renderLanes), nil
	}
	r.reconcileChildren(current, wip, children, renderLanes)
	return wip.Child, nil
}

// renderWithHooks invokes a component. A panic inside the component aborts
// the render with E003; hook misuse surfaces as E001/E002.
func (r *Reconciler) renderWithHooks(current, wip *Fiber, comp Component, renderLanes lane.Lanes) (children any, err error) {
	h := &Hooks{r: r, fiber: wip, lanes: renderLanes, mode: mountMode}
	if current != nil {
		h.mode = updateMode
		h.prev = current.hooks
	}

	defer func() {
		p := recover()
		if p == nil {
			return
		}
		h.done = true
		children = nil
		if fe, ok := p.(*ferrors.FiberError); ok && fe.Category == ferrors.CategoryHooks {
			err = fe
			return
		}
		cause, ok := p.(error)
		if !ok {
			cause = fmt.Errorf("%v", p)
		}
		err = ferrors.New("E003").WithComponent(wip.Name()).Wrap(cause)
	}()

	children = comp(h, wip.PendingProps)
	if err := h.finish(); err != nil {
		return nil, err
	}
	wip.hooks = h.cells
	wip.effects = h.effects
	return children, nil
}

// bailoutHooks drops the result of a render whose state did not change. The
// previous chain stays; its queues already hold every update that was
// applied, so the next render replays them.
func (r *Reconciler) bailoutHooks(current, wip *Fiber, renderLanes lane.Lanes) {
	wip.hooks = current.hooks
	wip.effects = current.effects
	wip.Flags &^= Passive | UpdateEffect
	current.Lanes = lane.RemoveLanes(current.Lanes, renderLanes)
}

// bailoutOnAlreadyFinishedWork skips the fiber. Its children are cloned
// only when one of them has work in renderLanes.
func (r *Reconciler) bailoutOnAlreadyFinishedWork(current, wip *Fiber, renderLanes lane.Lanes) *Fiber {
	if !lane.IncludesSomeLane(renderLanes, wip.ChildLanes) {
		return nil
	}
	cloneChildFibers(current, wip)
	return wip.Child
}

func cloneChildFibers(current, wip *Fiber) {
	child := wip.Child
	if child == nil {
		return
	}
	newChild := CreateWorkInProgress(child, child.PendingProps)
	wip.Child = newChild
	newChild.Return = wip
	for child.Sibling != nil {
		child = child.Sibling
		newChild.Sibling = CreateWorkInProgress(child, child.PendingProps)
		newChild = newChild.Sibling
		newChild.Return = wip
	}
	newChild.Sibling = nil
}

func (r *Reconciler) reconcileChildren(current, wip *Fiber, children any, renderLanes lane.Lanes) {
	if current == nil {
		mount := childReconciler{trackSideEffects: false, lanes: renderLanes}
		wip.Child = mount.reconcileChildFibers(wip, nil, children)
		return
	}
	update := childReconciler{trackSideEffects: true, lanes: renderLanes}
	wip.Child = update.reconcileChildFibers(wip, current.Child, children)
}
