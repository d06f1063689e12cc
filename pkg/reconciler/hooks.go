package reconciler

import (
	"fmt"

	ferrors "github.com/vango-dev/reconciler/internal/errors"
	"github.com/vango-dev/reconciler/pkg/lane"
)

type hookMode uint8

const (
	mountMode hookMode = iota
	updateMode
)

type hookKind uint8

const (
	reducerHook hookKind = iota + 1
	effectHook
	refHook
	memoHook
)

func (k hookKind) String() string {
	switch k {
	case reducerHook:
		return "state"
	case effectHook:
		return "effect"
	case refHook:
		return "ref"
	case memoHook:
		return "memo"
	default:
		return "unknown"
	}
}

// hook is one cell of a component's state chain.
type hook struct {
	kind   hookKind
	state  any
	queue  *UpdateQueue
	deps   []any
	effect *effect
}

// effect is a scheduled side effect of one render.
type effect struct {
	tag     hookFlags
	create  func() func()
	destroy func()
	deps    []any
}

// Hooks is the per-invocation handle a component uses to reach its state
// chain. The mode is fixed when the invocation starts: mount appends cells,
// update walks the previous chain by position.
type Hooks struct {
	r       *Reconciler
	fiber   *Fiber
	mode    hookMode
	prev    []*hook
	cells   []*hook
	effects []*effect
	lanes   lane.Lanes
	done    bool
}

// Fiber returns the work-in-progress fiber being rendered.
func (h *Hooks) Fiber() *Fiber {
	return h.fiber
}

func (h *Hooks) component() string {
	if h.fiber == nil {
		return ""
	}
	return h.fiber.Name()
}

// next returns the previous cell at the current position (nil at mount)
// after validating that the hook kind did not change.
func (h *Hooks) next(kind hookKind) *hook {
	if h == nil || h.done {
		panic(ferrors.New("E001"))
	}
	pos := len(h.cells)
	if h.mode == mountMode {
		return nil
	}
	if pos >= len(h.prev) {
		panic(ferrors.New("E002").
			WithComponent(h.component()).
			WithDetail(fmt.Sprintf("Rendered more hooks than during the previous render (%s hook at position %d).", kind, pos)))
	}
	prev := h.prev[pos]
	if prev.kind != kind {
		panic(ferrors.New("E002").
			WithComponent(h.component()).
			WithDetail(fmt.Sprintf("Hook at position %d was a %s hook, now %s.", pos, prev.kind, kind)))
	}
	return prev
}

// finish validates that an update render used every previous cell.
func (h *Hooks) finish() error {
	h.done = true
	if h.mode == updateMode && len(h.cells) != len(h.prev) {
		return ferrors.New("E002").
			WithComponent(h.component()).
			WithDetail(fmt.Sprintf("Rendered %d hooks, previous render used %d.", len(h.cells), len(h.prev)))
	}
	return nil
}

func (h *Hooks) typeChanged(prev, next any) *ferrors.FiberError {
	return ferrors.New("E002").
		WithComponent(h.component()).
		WithDetail(fmt.Sprintf("Hook at position %d held a %T, now %T.", len(h.cells), prev, next))
}

func as[T any](v any) T {
	if v == nil {
		var zero T
		return zero
	}
	return v.(T)
}

// UseReducer declares a reducer-backed state cell. dispatch is stable across
// renders and may be called from event handlers and effects.
func UseReducer[S, A any](h *Hooks, reducer func(S, A) S, initial S) (S, func(A)) {
	prev := h.next(reducerHook)
	reduce := func(state, action any) any {
		return reducer(as[S](state), as[A](action))
	}

	if prev == nil {
		q := newUpdateQueue(initial)
		q.shared.lastRenderedFn = reduce
		q.shared.lastRenderedState = initial
		fiber := h.fiber
		r := h.r
		dispatch := func(action A) {
			r.dispatchAction(fiber, q.shared, action)
		}
		q.shared.dispatch = dispatch
		h.cells = append(h.cells, &hook{kind: reducerHook, state: initial, queue: q})
		return initial, dispatch
	}

	if _, ok := prev.state.(S); !ok && prev.state != nil {
		panic(h.typeChanged(prev.state, initial))
	}
	q := prev.queue.clone()
	state, remaining := q.process(prev.queue, h.lanes, reduce)
	if remaining != lane.NoLanes {
		h.fiber.Lanes = lane.MergeLanes(h.fiber.Lanes, remaining)
	}
	if !identical(state, prev.state) {
		h.r.didReceiveUpdate = true
	}
	q.shared.lastRenderedFn = reduce
	q.shared.lastRenderedState = state
	h.cells = append(h.cells, &hook{kind: reducerHook, state: state, queue: q})
	return as[S](state), q.shared.dispatch.(func(A))
}

// stateAction is either a replacement value or an updater function.
type stateAction[S any] struct {
	value  S
	update func(S) S
}

func basicStateReducer[S any](state S, action stateAction[S]) S {
	if action.update != nil {
		return action.update(state)
	}
	return action.value
}

// Setter updates a UseState cell.
type Setter[S any] struct {
	dispatch func(stateAction[S])
}

// Set replaces the state.
func (s Setter[S]) Set(v S) {
	s.dispatch(stateAction[S]{value: v})
}

// Update derives the next state from the latest one.
func (s Setter[S]) Update(fn func(S) S) {
	s.dispatch(stateAction[S]{update: fn})
}

// UseState declares a state cell holding a single value.
func UseState[S any](h *Hooks, initial S) (S, Setter[S]) {
	state, dispatch := UseReducer(h, basicStateReducer[S], initial)
	return state, Setter[S]{dispatch: dispatch}
}

// Deps builds a dependency list. Deps() with no values is an empty list,
// which runs an effect only once; a nil list runs it after every render.
func Deps(values ...any) []any {
	if values == nil {
		return []any{}
	}
	return values
}

func (h *Hooks) useEffect(fiberFlag Flags, tag hookFlags, create func() func(), deps []any) {
	prev := h.next(effectHook)
	var destroy func()
	if prev != nil {
		destroy = prev.effect.destroy
		if deps != nil && prev.effect.deps != nil && depsEqual(deps, prev.effect.deps) {
			e := &effect{tag: tag, create: create, destroy: destroy, deps: deps}
			h.effects = append(h.effects, e)
			h.cells = append(h.cells, &hook{kind: effectHook, effect: e})
			return
		}
	}
	h.fiber.Flags |= fiberFlag
	e := &effect{tag: tag | hookHasEffect, create: create, destroy: destroy, deps: deps}
	h.effects = append(h.effects, e)
	h.cells = append(h.cells, &hook{kind: effectHook, effect: e})
}

// UseEffect declares a passive effect. It runs after the commit has been
// published, in a deferred flush. create may return a cleanup that runs
// before the next execution and when the component is removed.
func UseEffect(h *Hooks, create func() func(), deps []any) {
	h.useEffect(Passive, hookPassive, create, deps)
}

// UseLayoutEffect declares a layout effect. It runs synchronously during
// commit after all render-target mutations.
func UseLayoutEffect(h *Hooks, create func() func(), deps []any) {
	h.useEffect(UpdateEffect, hookLayout, create, deps)
}

// Ref is a mutable box that survives re-renders. Assigned to a host
// element's ref prop, it receives the render-target handle.
type Ref[T any] struct {
	Current T
}

func (r *Ref[T]) setCurrent(v any) {
	if v == nil {
		var zero T
		r.Current = zero
		return
	}
	if t, ok := v.(T); ok {
		r.Current = t
	}
}

// refSetter is implemented by every *Ref[T].
type refSetter interface {
	setCurrent(v any)
}

// UseRef returns the same *Ref on every render.
func UseRef[T any](h *Hooks, initial T) *Ref[T] {
	prev := h.next(refHook)
	if prev == nil {
		ref := &Ref[T]{Current: initial}
		h.cells = append(h.cells, &hook{kind: refHook, state: ref})
		return ref
	}
	ref, ok := prev.state.(*Ref[T])
	if !ok {
		panic(h.typeChanged(prev.state, ref))
	}
	h.cells = append(h.cells, &hook{kind: refHook, state: ref})
	return ref
}

// UseMemo caches compute's result until deps change. A nil deps list
// recomputes on every render.
func UseMemo[T any](h *Hooks, compute func() T, deps []any) T {
	prev := h.next(memoHook)
	if prev != nil && deps != nil && prev.deps != nil && depsEqual(deps, prev.deps) {
		h.cells = append(h.cells, &hook{kind: memoHook, state: prev.state, deps: prev.deps})
		return as[T](prev.state)
	}
	v := compute()
	h.cells = append(h.cells, &hook{kind: memoHook, state: v, deps: deps})
	return v
}

// UseCallback returns fn from the first render with the same deps.
func UseCallback[F any](h *Hooks, fn F, deps []any) F {
	return UseMemo(h, func() F { return fn }, deps)
}
