package reconciler

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "github.com/vango-dev/reconciler/internal/errors"
	"github.com/vango-dev/reconciler/pkg/lane"
	"github.com/vango-dev/reconciler/pkg/memdom"
	"github.com/vango-dev/reconciler/pkg/vdom"
)

func counter(h *Hooks, _ vdom.Props) any {
	n, set := UseState(h, 0)
	return vdom.Button(vdom.ID("inc"), vdom.OnClick(func() { set.Update(func(n int) int { return n + 1 }) }), strconv.Itoa(n))
}

func TestUseStateClick(t *testing.T) {
	e := newEnv(t)
	e.render(vdom.H(counter))
	require.Equal(t, `<button id="inc" data-on-click="true">0</button>`, e.html())

	e.click("inc")
	assert.Equal(t, `<button id="inc" data-on-click="true">1</button>`, e.html())
	assert.Equal(t, lane.SyncLane, e.lastCommit().Lanes, "clicks are discrete events")

	e.click("inc")
	e.click("inc")
	assert.Equal(t, `<button id="inc" data-on-click="true">3</button>`, e.html())
}

func TestBatchedUpdatesInOneHandler(t *testing.T) {
	comp := func(h *Hooks, _ vdom.Props) any {
		n, set := UseState(h, 0)
		inc := func() {
			for range 3 {
				set.Update(func(n int) int { return n + 1 })
			}
		}
		return vdom.Button(vdom.ID("b"), vdom.OnClick(inc), strconv.Itoa(n))
	}
	e := newEnv(t)
	e.render(vdom.H(comp))
	commits := e.root.Commits()

	e.click("b")
	assert.Equal(t, "3", e.byID("b").Text())
	assert.Equal(t, commits+1, e.root.Commits())
}

func TestEagerBailout(t *testing.T) {
	var set Setter[int]
	renders := 0
	comp := func(h *Hooks, _ vdom.Props) any {
		renders++
		var n int
		n, set = UseState(h, 0)
		return vdom.P(strconv.Itoa(n))
	}
	e := newEnv(t)
	e.render(vdom.H(comp))
	require.Equal(t, 1, renders)

	set.Set(0)
	assert.False(t, e.sched.HasPendingWork())
	assert.Equal(t, 1, e.metrics.eager)
	e.sched.RunUntilIdle()
	assert.Equal(t, 1, renders)
	assert.Equal(t, 1, e.root.Commits())

	set.Set(2)
	e.sched.RunUntilIdle()
	assert.Equal(t, "<p>2</p>", e.html())
	assert.Equal(t, 2, renders)
}

func TestEagerBailoutAfterCommittedUpdate(t *testing.T) {
	var set Setter[int]
	renders := 0
	comp := func(h *Hooks, _ vdom.Props) any {
		renders++
		var n int
		n, set = UseState(h, 0)
		return vdom.P(strconv.Itoa(n))
	}
	e := newEnv(t)
	e.render(vdom.H(comp))

	for _, v := range []int{1, 2} {
		set.Set(v)
		e.sched.RunUntilIdle()
		require.Equal(t, "<p>"+strconv.Itoa(v)+"</p>", e.html())
		rendersBefore, commitsBefore, eagerBefore := renders, e.root.Commits(), e.metrics.eager

		set.Set(v)
		assert.False(t, e.sched.HasPendingWork(), "same value %d scheduled work", v)
		assert.Equal(t, eagerBefore+1, e.metrics.eager)
		e.sched.RunUntilIdle()
		assert.Equal(t, rendersBefore, renders)
		assert.Equal(t, commitsBefore, e.root.Commits())
	}
}

func TestUseReducer(t *testing.T) {
	type action struct {
		kind string
		by   int
	}
	reducer := func(s int, a action) int {
		switch a.kind {
		case "add":
			return s + a.by
		case "reset":
			return 0
		}
		return s
	}
	var dispatch func(action)
	comp := func(h *Hooks, _ vdom.Props) any {
		var n int
		n, dispatch = UseReducer(h, reducer, 10)
		return vdom.P(strconv.Itoa(n))
	}
	e := newEnv(t)
	e.render(vdom.H(comp))
	first := dispatch

	dispatch(action{"add", 5})
	dispatch(action{"add", 1})
	e.sched.RunUntilIdle()
	assert.Equal(t, "<p>16</p>", e.html())

	dispatch(action{kind: "reset"})
	e.sched.RunUntilIdle()
	assert.Equal(t, "<p>0</p>", e.html())
	assert.NotNil(t, first)
}

func TestChildRerendersWithNewProps(t *testing.T) {
	var set Setter[string]
	childRenders := 0
	child := func(h *Hooks, props vdom.Props) any {
		childRenders++
		return vdom.Span(props["label"])
	}
	parent := func(h *Hooks, _ vdom.Props) any {
		var s string
		s, set = UseState(h, "a")
		return vdom.Div(vdom.H(child, vdom.Prop("label", s)))
	}
	e := newEnv(t)
	e.render(vdom.H(parent))
	require.Equal(t, 1, childRenders)

	set.Set("b")
	e.sched.RunUntilIdle()
	assert.Equal(t, "<div><span>b</span></div>", e.html())
	assert.Equal(t, 2, childRenders)
}

// effectLog records effect runs of a two-level component tree.
type effectLog struct {
	entries []string
}

func (l *effectLog) add(s string) { l.entries = append(l.entries, s) }

func (l *effectLog) take() []string {
	out := l.entries
	l.entries = nil
	return out
}

func loggingEffects(h *Hooks, log *effectLog, name string, deps []any) {
	UseLayoutEffect(h, func() func() {
		log.add("layout " + name)
		return func() { log.add("layout-cleanup " + name) }
	}, deps)
	UseEffect(h, func() func() {
		log.add("passive " + name)
		return func() { log.add("passive-cleanup " + name) }
	}, deps)
}

func effectTree(log *effectLog) (parent Component) {
	child := func(h *Hooks, props vdom.Props) any {
		loggingEffects(h, log, "child", nil)
		return vdom.Span(props["n"])
	}
	return func(h *Hooks, props vdom.Props) any {
		loggingEffects(h, log, "parent", nil)
		return vdom.Div(vdom.H(child, vdom.Prop("n", props["n"])))
	}
}

func TestEffectOrdering(t *testing.T) {
	log := &effectLog{}
	parent := effectTree(log)
	e := newEnv(t)

	e.render(vdom.H(parent, vdom.Prop("n", "1")))
	assert.Equal(t, []string{
		"layout child", "layout parent",
		"passive child", "passive parent",
	}, log.take())

	e.render(vdom.H(parent, vdom.Prop("n", "2")))
	assert.Equal(t, []string{
		"layout-cleanup child", "layout-cleanup parent",
		"layout child", "layout parent",
		"passive-cleanup child", "passive-cleanup parent",
		"passive child", "passive parent",
	}, log.take())

	e.render(nil)
	assert.ElementsMatch(t, []string{
		"layout-cleanup parent", "layout-cleanup child",
		"passive-cleanup parent", "passive-cleanup child",
	}, log.take())
	assert.Equal(t, 4, e.metrics.effects["layout"])
	assert.Equal(t, 4, e.metrics.effects["passive"])
}

func TestPassiveEffectsRunAfterPublish(t *testing.T) {
	var seen string
	var e *env
	comp := func(h *Hooks, _ vdom.Props) any {
		UseEffect(h, func() func() {
			seen = e.html()
			return nil
		}, Deps())
		return vdom.P("ready")
	}
	e = newEnv(t)
	require.NoError(t, e.root.Render(vdom.H(comp)))
	e.sched.Step()
	assert.Equal(t, "<p>ready</p>", e.html())
	e.sched.RunUntilIdle()
	assert.Equal(t, "<p>ready</p>", seen)
}

func TestEffectDeps(t *testing.T) {
	runs := map[string]int{}
	comp := func(h *Hooks, props vdom.Props) any {
		id := props["id"]
		UseEffect(h, func() func() { runs["always"]++; return nil }, nil)
		UseEffect(h, func() func() { runs["once"]++; return nil }, Deps())
		UseEffect(h, func() func() { runs["id"]++; return nil }, Deps(id))
		return vdom.P(id)
	}
	e := newEnv(t)
	e.render(vdom.H(comp, vdom.Prop("id", "a")))
	e.render(vdom.H(comp, vdom.Prop("id", "a")))
	e.render(vdom.H(comp, vdom.Prop("id", "b")))

	assert.Equal(t, map[string]int{"always": 3, "once": 1, "id": 2}, runs)
}

func TestSkippedEffectKeepsCleanup(t *testing.T) {
	log := &effectLog{}
	comp := func(h *Hooks, props vdom.Props) any {
		id := props["id"].(string)
		UseEffect(h, func() func() {
			log.add("run " + id)
			return func() { log.add("cleanup " + id) }
		}, Deps(id))
		return vdom.P(id)
	}
	e := newEnv(t)
	e.render(vdom.H(comp, vdom.Prop("id", "a")))
	e.render(vdom.H(comp, vdom.Prop("id", "a")))
	e.render(vdom.H(comp, vdom.Prop("id", "a")))
	assert.Equal(t, []string{"run a"}, log.take())

	e.render(vdom.H(comp, vdom.Prop("id", "d")))
	assert.Equal(t, []string{"cleanup a", "run d"}, log.take())

	e.render(vdom.H(comp, vdom.Prop("id", "d")))
	assert.Empty(t, log.take())

	require.NoError(t, e.root.Unmount())
	assert.Equal(t, []string{"cleanup d"}, log.take())
}

func TestLayoutEffectsRunBeforePublish(t *testing.T) {
	var (
		e          *env
		seenHTML   []string
		seenTarget []string
		seenRoot   []any
	)
	comp := func(h *Hooks, props vdom.Props) any {
		UseLayoutEffect(h, func() func() {
			seenHTML = append(seenHTML, e.html())
			seenTarget = append(seenTarget, e.container.Root().TextContent())
			seenRoot = append(seenRoot, e.root.Element())
			return nil
		}, nil)
		return vdom.P(props["n"])
	}
	e = newEnv(t)
	first := vdom.H(comp, vdom.Prop("n", "1"))
	second := vdom.H(comp, vdom.Prop("n", "2"))
	e.render(first)
	e.render(second)

	require.Len(t, seenHTML, 2)
	// The render target is already mutated, the snapshot is not yet
	// published and the root still holds the previous tree.
	assert.Equal(t, "2", seenTarget[1])
	assert.Equal(t, "<p>1</p>", seenHTML[1])
	assert.Same(t, first, seenRoot[1])

	assert.Equal(t, "<p>2</p>", e.html())
	assert.Same(t, second, e.root.Element())
}

func TestUseMemo(t *testing.T) {
	computed := 0
	comp := func(h *Hooks, props vdom.Props) any {
		n := props["n"].(int)
		sq := UseMemo(h, func() int { computed++; return n * n }, Deps(n))
		return vdom.P(strconv.Itoa(sq))
	}
	e := newEnv(t)
	e.render(vdom.H(comp, vdom.Prop("n", 3)))
	e.render(vdom.H(comp, vdom.Prop("n", 3)))
	assert.Equal(t, 1, computed)
	assert.Equal(t, "<p>9</p>", e.html())

	e.render(vdom.H(comp, vdom.Prop("n", 4)))
	assert.Equal(t, 2, computed)
	assert.Equal(t, "<p>16</p>", e.html())
}

func TestUseRefAttachesHandle(t *testing.T) {
	var ref *Ref[*memdom.Node]
	var renders []*Ref[*memdom.Node]
	comp := func(h *Hooks, props vdom.Props) any {
		ref = UseRef[*memdom.Node](h, nil)
		renders = append(renders, ref)
		if props["show"] == true {
			return vdom.Div(vdom.ID("target"), vdom.RefAttr(ref))
		}
		return nil
	}
	e := newEnv(t)
	e.render(vdom.H(comp, vdom.Prop("show", true)))
	assert.Same(t, e.byID("target"), ref.Current)

	e.render(vdom.H(comp, vdom.Prop("show", false)))
	assert.Nil(t, ref.Current)
	require.Len(t, renders, 2)
	assert.Same(t, renders[0], renders[1], "the ref box is stable across renders")
}

func TestHookOrderChange(t *testing.T) {
	comp := func(h *Hooks, props vdom.Props) any {
		n, _ := UseState(h, 0)
		if props["extra"] == true {
			UseState(h, "x")
		}
		return vdom.P(strconv.Itoa(n))
	}
	e := newEnv(t)
	e.render(vdom.H(comp))
	e.render(vdom.H(comp, vdom.Prop("extra", true)))

	require.Len(t, e.errs, 1)
	assert.Equal(t, "E002", ferrors.CodeOf(e.errs[0]))
	assert.Equal(t, "<p>0</p>", e.html())
}

func TestHookKindChange(t *testing.T) {
	comp := func(h *Hooks, props vdom.Props) any {
		if props["memo"] == true {
			UseMemo(h, func() int { return 1 }, nil)
		} else {
			UseState(h, 0)
		}
		return nil
	}
	e := newEnv(t)
	e.render(vdom.H(comp))
	e.render(vdom.H(comp, vdom.Prop("memo", true)))

	require.Len(t, e.errs, 1)
	assert.Equal(t, "E002", ferrors.CodeOf(e.errs[0]))
}

func TestHookOutsideRender(t *testing.T) {
	var saved *Hooks
	comp := func(h *Hooks, _ vdom.Props) any {
		saved = h
		return nil
	}
	e := newEnv(t)
	e.render(vdom.H(comp))
	require.NotNil(t, saved)

	var fe *ferrors.FiberError
	func() {
		defer func() { fe, _ = recover().(*ferrors.FiberError) }()
		UseState(saved, 0)
	}()
	require.NotNil(t, fe)
	assert.Equal(t, "E001", fe.Code)
}

func TestNestedUpdateLimit(t *testing.T) {
	comp := func(h *Hooks, _ vdom.Props) any {
		n, set := UseState(h, 0)
		UseLayoutEffect(h, func() func() {
			set.Set(n + 1)
			return nil
		}, nil)
		return vdom.P(strconv.Itoa(n))
	}
	e := newEnv(t, WithMaxNestedUpdates(5))
	e.render(vdom.H(comp))

	require.NotEmpty(t, e.errs)
	assert.Equal(t, "E007", ferrors.CodeOf(e.errs[len(e.errs)-1]))
	assert.False(t, e.sched.HasPendingWork())
	assert.LessOrEqual(t, e.root.Commits(), 8)
}

func TestUpdateAfterUnmountIsDropped(t *testing.T) {
	var set Setter[int]
	child := func(h *Hooks, _ vdom.Props) any {
		_, set = UseState(h, 0)
		return vdom.Span("child")
	}
	e := newEnv(t)
	e.render(vdom.Div(vdom.H(child)))
	e.render(vdom.Div())
	commits := e.root.Commits()

	set.Set(5)
	e.sched.RunUntilIdle()
	assert.Equal(t, commits, e.root.Commits())
	assert.Empty(t, e.errs)
}

func TestEffectPanicIsReported(t *testing.T) {
	comp := func(h *Hooks, _ vdom.Props) any {
		UseEffect(h, func() func() { panic("effect failed") }, Deps())
		return vdom.P("ok")
	}
	e := newEnv(t)
	e.render(vdom.H(comp))

	require.Len(t, e.errs, 1)
	assert.Equal(t, "E003", ferrors.CodeOf(e.errs[0]))
	assert.Equal(t, "<p>ok</p>", e.html())
	assert.False(t, e.root.Poisoned())
}
