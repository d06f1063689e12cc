package reconciler

import "github.com/vango-dev/reconciler/pkg/lane"

// Update is a single state-transition request.
type Update struct {
	Lane   lane.Lane
	Action any
}

// sharedQueue is shared by both generations of a fiber (or hook). Producers
// only ever append to pending; processing drains it.
type sharedQueue struct {
	pending []*Update

	// Hook queues only.
	dispatch          any
	lastRenderedState any
	lastRenderedFn    func(state, action any) any
}

// UpdateQueue holds the updates of one stateful slot. Each generation owns
// its own base list and base state; the pending list is shared.
type UpdateQueue struct {
	baseState any
	base      []*Update
	shared    *sharedQueue
}

func newUpdateQueue(state any) *UpdateQueue {
	return &UpdateQueue{
		baseState: state,
		shared:    &sharedQueue{},
	}
}

// clone returns a queue for the other generation that shares the pending
// list. Base lists are never mutated in place, so sharing the slice is safe.
func (q *UpdateQueue) clone() *UpdateQueue {
	return &UpdateQueue{
		baseState: q.baseState,
		base:      q.base,
		shared:    q.shared,
	}
}

// enqueue appends u to the shared pending list.
func (q *UpdateQueue) enqueue(u *Update) {
	q.shared.pending = append(q.shared.pending, u)
}

// Len returns the number of pending plus deferred updates.
func (q *UpdateQueue) Len() int {
	return len(q.shared.pending) + len(q.base)
}

// process applies every update whose lane is part of renderLanes, in
// arrival order, and returns the resulting state together with the lanes
// of updates that were deferred.
//
// Pending updates are first spliced onto the base list of this queue and of
// current (the other generation), so an abandoned render never loses them.
// Once an update is deferred, every later update is kept in the new base
// list too, so that replaying the base list on a later pass reproduces the
// arrival order. Kept updates that were already applied get NoLane, which
// is a subset of every lane set.
func (q *UpdateQueue) process(current *UpdateQueue, renderLanes lane.Lanes, reduce func(state, action any) any) (any, lane.Lanes) {
	if pending := q.shared.pending; len(pending) > 0 {
		q.shared.pending = nil
		q.base = concatUpdates(q.base, pending)
		if current != nil && current != q {
			current.base = concatUpdates(current.base, pending)
		}
	}

	state := q.baseState
	var (
		newBase      []*Update
		newBaseState any
		deferred     bool
		remaining    lane.Lanes
	)
	for _, u := range q.base {
		if !lane.IsSubsetOfLanes(renderLanes, u.Lane) {
			if !deferred {
				deferred = true
				newBaseState = state
			}
			newBase = append(newBase, &Update{Lane: u.Lane, Action: u.Action})
			remaining = lane.MergeLanes(remaining, u.Lane)
			continue
		}
		if deferred {
			newBase = append(newBase, &Update{Lane: lane.NoLane, Action: u.Action})
		}
		state = reduce(state, u.Action)
	}
	if !deferred {
		newBaseState = state
	}
	q.baseState = newBaseState
	q.base = newBase
	return state, remaining
}

func concatUpdates(a, b []*Update) []*Update {
	out := make([]*Update, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

// replaceState is the reducer of the root queue: an update carries the new
// top-level element.
func replaceState(_, action any) any {
	return action
}
