package reconciler

import (
	ferrors "github.com/vango-dev/reconciler/internal/errors"
	"github.com/vango-dev/reconciler/pkg/lane"
)

// completeWork creates or diffs the render-target instance of a host fiber
// and bubbles flags and lanes up to wip.
func (r *Reconciler) completeWork(current, wip *Fiber) error {
	switch wip.Tag {
	case HostComponent:
		typ := wip.Name()
		if current != nil && wip.StateNode != nil {
			if !sameProps(current.MemoizedProps, wip.PendingProps) {
				if diff := r.host.ComputeDiff(typ, current.MemoizedProps, wip.PendingProps); diff != nil {
					wip.updatePayload = diff
					wip.Flags |= UpdateEffect
				}
			}
			if !identical(current.ref, wip.ref) {
				wip.Flags |= RefEffect
			}
			break
		}
		inst, err := r.host.CreateInstance(typ, wip.PendingProps)
		if err != nil {
			return ferrors.New("E004").WithComponent(typ).Wrap(err)
		}
		if err := r.appendAllChildren(inst, wip); err != nil {
			return ferrors.New("E004").WithComponent(typ).Wrap(err)
		}
		wip.StateNode = inst
		if wip.ref != nil {
			wip.Flags |= RefEffect
		}

	case HostText:
		text := textOf(wip.PendingProps)
		if current != nil && wip.StateNode != nil {
			if textOf(current.MemoizedProps) != text {
				wip.Flags |= UpdateEffect
			}
			break
		}
		inst, err := r.host.CreateTextInstance(text)
		if err != nil {
			return ferrors.New("E004").WithComponent("#text").Wrap(err)
		}
		wip.StateNode = inst
	}

	bubbleProperties(wip)
	return nil
}

// appendAllChildren attaches the top-level host nodes of wip's subtree to a
// freshly created instance. Component fibers are transparent.
func (r *Reconciler) appendAllChildren(parent any, wip *Fiber) error {
	node := wip.Child
	for node != nil {
		if isHost(node) {
			if err := r.host.AppendInitialChild(parent, node.StateNode); err != nil {
				return err
			}
		} else if node.Child != nil {
			node = node.Child
			continue
		}
		for node.Sibling == nil {
			if node.Return == nil || node.Return == wip {
				return nil
			}
			node = node.Return
		}
		node = node.Sibling
	}
	return nil
}

// bubbleProperties folds the children's lanes and flags into wip. Children
// of a fiber that bailed out are the current ones; only their lanes count.
func bubbleProperties(wip *Fiber) {
	didBailout := wip.Alternate != nil && wip.Alternate.Child == wip.Child

	var (
		childLanes   lane.Lanes
		subtreeFlags Flags
	)
	for child := wip.Child; child != nil; child = child.Sibling {
		childLanes = lane.MergeLanes(childLanes, lane.MergeLanes(child.Lanes, child.ChildLanes))
		if !didBailout {
			subtreeFlags |= child.SubtreeFlags | child.Flags
			child.Return = wip
		}
	}
	wip.SubtreeFlags |= subtreeFlags
	wip.ChildLanes = childLanes
}

func isHost(f *Fiber) bool {
	return f.Tag == HostComponent || f.Tag == HostText
}

func isHostParent(f *Fiber) bool {
	return f.Tag == HostComponent || f.Tag == HostRoot
}
