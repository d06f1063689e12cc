package reconciler

import (
	"github.com/vango-dev/reconciler/pkg/lane"
	"github.com/vango-dev/reconciler/pkg/vdom"
)

// childReconciler builds a new child list for a fiber from its previous
// children and a new description. With trackSideEffects unset (mount mode)
// nothing is tagged: the whole subtree is inserted at once by its parent.
type childReconciler struct {
	trackSideEffects bool
	lanes            lane.Lanes
}

// childKey identifies an old child in the keyed-map pass: by key when it
// has one, otherwise by its slot index.
type childKey struct {
	key   string
	index int
}

func keyOfFiber(f *Fiber) childKey {
	if f.Key != "" {
		return childKey{key: f.Key, index: -1}
	}
	return childKey{index: f.Index}
}

func keyOfChild(child any, index int) childKey {
	if el, ok := child.(*vdom.Element); ok && el != nil && el.Key != "" {
		return childKey{key: el.Key, index: -1}
	}
	return childKey{index: index}
}

func (r *childReconciler) deleteChild(returnFiber, child *Fiber) {
	if !r.trackSideEffects {
		return
	}
	returnFiber.Deletions = append(returnFiber.Deletions, child)
	returnFiber.Flags |= ChildDeletion
}

func (r *childReconciler) deleteRemainingChildren(returnFiber, currentFirstChild *Fiber) {
	if !r.trackSideEffects {
		return
	}
	for child := currentFirstChild; child != nil; child = child.Sibling {
		r.deleteChild(returnFiber, child)
	}
}

func mapRemainingChildren(currentFirstChild *Fiber) map[childKey]*Fiber {
	existing := make(map[childKey]*Fiber)
	for child := currentFirstChild; child != nil; child = child.Sibling {
		existing[keyOfFiber(child)] = child
	}
	return existing
}

// useFiber reuses fiber's alternate for a new position.
func useFiber(fiber *Fiber, pendingProps vdom.Props) *Fiber {
	clone := CreateWorkInProgress(fiber, pendingProps)
	clone.Index = 0
	clone.Sibling = nil
	return clone
}

// placeChild records the new index of newFiber and tags it for insertion
// when it is new or when it has to move. It returns the updated
// lastPlacedIndex.
func (r *childReconciler) placeChild(newFiber *Fiber, lastPlacedIndex, newIndex int) int {
	newFiber.Index = newIndex
	if !r.trackSideEffects {
		return lastPlacedIndex
	}
	if current := newFiber.Alternate; current != nil {
		oldIndex := current.Index
		if oldIndex < lastPlacedIndex {
			// This is a move.
			newFiber.Flags |= Placement
			return lastPlacedIndex
		}
		// This item can stay in place.
		return oldIndex
	}
	// This is an insertion.
	newFiber.Flags |= Placement
	return lastPlacedIndex
}

func (r *childReconciler) placeSingleChild(newFiber *Fiber) *Fiber {
	if r.trackSideEffects && newFiber.Alternate == nil {
		newFiber.Flags |= Placement
	}
	return newFiber
}

func (r *childReconciler) updateTextNode(returnFiber, current *Fiber, text string) *Fiber {
	if current == nil || current.Tag != HostText {
		created := createFiberFromText(text, r.lanes)
		created.Return = returnFiber
		return created
	}
	existing := useFiber(current, textProps(text))
	existing.Return = returnFiber
	return existing
}

func (r *childReconciler) updateElement(returnFiber, current *Fiber, el *vdom.Element) *Fiber {
	if current != nil && current.Tag != HostText && vdom.SameType(current.Type, el.Type) {
		existing := useFiber(current, el.Props)
		existing.ref = refOf(existing, el)
		existing.Return = returnFiber
		return existing
	}
	created := createFiberFromElement(el, r.lanes)
	if created == nil {
		return nil
	}
	created.Return = returnFiber
	return created
}

func refOf(f *Fiber, el *vdom.Element) any {
	if f.Tag != HostComponent {
		return nil
	}
	return el.Props["ref"]
}

// createChild creates a fresh fiber for a child description, or returns nil
// when the child is not renderable.
func (r *childReconciler) createChild(returnFiber *Fiber, newChild any) *Fiber {
	if text, ok := vdom.TextOf(newChild); ok {
		created := createFiberFromText(text, r.lanes)
		created.Return = returnFiber
		return created
	}
	if el, ok := newChild.(*vdom.Element); ok && el != nil {
		created := createFiberFromElement(el, r.lanes)
		if created == nil {
			return nil
		}
		created.Return = returnFiber
		return created
	}
	return nil
}

// updateSlot reuses oldFiber when the keys match. It returns nil on a key
// mismatch or for children that are not renderable.
func (r *childReconciler) updateSlot(returnFiber, oldFiber *Fiber, newChild any) *Fiber {
	key := ""
	if oldFiber != nil {
		key = oldFiber.Key
	}
	if text, ok := vdom.TextOf(newChild); ok {
		// Text nodes have no keys. A keyed old child cannot be reused.
		if key != "" {
			return nil
		}
		return r.updateTextNode(returnFiber, oldFiber, text)
	}
	if el, ok := newChild.(*vdom.Element); ok && el != nil {
		if el.Key != key {
			return nil
		}
		return r.updateElement(returnFiber, oldFiber, el)
	}
	return nil
}

func (r *childReconciler) updateFromMap(existing map[childKey]*Fiber, returnFiber *Fiber, newIdx int, newChild any) *Fiber {
	if text, ok := vdom.TextOf(newChild); ok {
		return r.updateTextNode(returnFiber, existing[childKey{index: newIdx}], text)
	}
	if el, ok := newChild.(*vdom.Element); ok && el != nil {
		return r.updateElement(returnFiber, existing[keyOfChild(el, newIdx)], el)
	}
	return nil
}

func (r *childReconciler) reconcileChildrenArray(returnFiber, currentFirstChild *Fiber, newChildren []any) *Fiber {
	var (
		resultingFirstChild *Fiber
		previousNewFiber    *Fiber
		oldFiber            = currentFirstChild
		lastPlacedIndex     = 0
		newIdx              = 0
		nextOldFiber        *Fiber
	)

	link := func(f *Fiber) {
		if previousNewFiber == nil {
			resultingFirstChild = f
		} else {
			previousNewFiber.Sibling = f
		}
		previousNewFiber = f
	}

	// Phase 1: walk both lists while the slots line up.
	for ; oldFiber != nil && newIdx < len(newChildren); newIdx++ {
		if oldFiber.Index > newIdx {
			// A hole in the old list: keep the old fiber for a later slot.
			nextOldFiber = oldFiber
			oldFiber = nil
		} else {
			nextOldFiber = oldFiber.Sibling
		}
		newFiber := r.updateSlot(returnFiber, oldFiber, newChildren[newIdx])
		if newFiber == nil {
			if oldFiber == nil {
				oldFiber = nextOldFiber
			}
			break
		}
		if oldFiber != nil && newFiber.Alternate == nil {
			// Same slot, different type: the old fiber was not reused.
			r.deleteChild(returnFiber, oldFiber)
		}
		lastPlacedIndex = r.placeChild(newFiber, lastPlacedIndex, newIdx)
		link(newFiber)
		oldFiber = nextOldFiber
	}

	// Phase 2a: every new child was consumed.
	if newIdx == len(newChildren) {
		r.deleteRemainingChildren(returnFiber, oldFiber)
		return resultingFirstChild
	}

	// Phase 2b: the old list ran out first.
	if oldFiber == nil {
		for ; newIdx < len(newChildren); newIdx++ {
			newFiber := r.createChild(returnFiber, newChildren[newIdx])
			if newFiber == nil {
				continue
			}
			lastPlacedIndex = r.placeChild(newFiber, lastPlacedIndex, newIdx)
			link(newFiber)
		}
		return resultingFirstChild
	}

	// Phase 3: keyed-map pass over what is left.
	existing := mapRemainingChildren(oldFiber)
	claimed := make(map[*Fiber]bool)
	for ; newIdx < len(newChildren); newIdx++ {
		newFiber := r.updateFromMap(existing, returnFiber, newIdx, newChildren[newIdx])
		if newFiber == nil {
			continue
		}
		if current := newFiber.Alternate; current != nil {
			// Claimed: a later child with the same key cannot take it again.
			delete(existing, keyOfFiber(current))
			claimed[current] = true
		}
		lastPlacedIndex = r.placeChild(newFiber, lastPlacedIndex, newIdx)
		link(newFiber)
	}

	// Anything not claimed is gone. Walk the old list for a stable order.
	for child := oldFiber; child != nil; child = child.Sibling {
		if !claimed[child] {
			r.deleteChild(returnFiber, child)
		}
	}
	return resultingFirstChild
}

func (r *childReconciler) reconcileSingleTextNode(returnFiber, currentFirstChild *Fiber, text string) *Fiber {
	if currentFirstChild != nil && currentFirstChild.Tag == HostText {
		r.deleteRemainingChildren(returnFiber, currentFirstChild.Sibling)
		existing := useFiber(currentFirstChild, textProps(text))
		existing.Return = returnFiber
		return existing
	}
	r.deleteRemainingChildren(returnFiber, currentFirstChild)
	created := createFiberFromText(text, r.lanes)
	created.Return = returnFiber
	return created
}

func (r *childReconciler) reconcileSingleElement(returnFiber, currentFirstChild *Fiber, el *vdom.Element) *Fiber {
	for child := currentFirstChild; child != nil; child = child.Sibling {
		if child.Key != el.Key {
			r.deleteChild(returnFiber, child)
			continue
		}
		if child.Tag != HostText && vdom.SameType(child.Type, el.Type) {
			r.deleteRemainingChildren(returnFiber, child.Sibling)
			existing := useFiber(child, el.Props)
			existing.ref = refOf(existing, el)
			existing.Return = returnFiber
			return existing
		}
		// Key matched but the type did not: nothing else can match.
		r.deleteRemainingChildren(returnFiber, child)
		break
	}
	created := createFiberFromElement(el, r.lanes)
	if created == nil {
		return nil
	}
	created.Return = returnFiber
	return created
}

// reconcileChildFibers is the entry point: it returns the new first child
// of returnFiber.
func (r *childReconciler) reconcileChildFibers(returnFiber, currentFirstChild *Fiber, newChild any) *Fiber {
	switch c := newChild.(type) {
	case *vdom.Element:
		if c != nil {
			if f := r.reconcileSingleElement(returnFiber, currentFirstChild, c); f != nil {
				return r.placeSingleChild(f)
			}
			return nil
		}
	case []any:
		return r.reconcileChildrenArray(returnFiber, currentFirstChild, c)
	case []*vdom.Element:
		list := make([]any, len(c))
		for i, el := range c {
			if el != nil {
				list[i] = el
			}
		}
		return r.reconcileChildrenArray(returnFiber, currentFirstChild, list)
	}
	if text, ok := vdom.TextOf(newChild); ok {
		return r.placeSingleChild(r.reconcileSingleTextNode(returnFiber, currentFirstChild, text))
	}
	// Remaining cases are all treated as empty.
	r.deleteRemainingChildren(returnFiber, currentFirstChild)
	return nil
}
