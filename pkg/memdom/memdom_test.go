package memdom

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/reconciler/pkg/lane"
	"github.com/vango-dev/reconciler/pkg/vdom"
)

// mustNode unwraps a host constructor result:
//
//	n := mustNode(t)(h.CreateTextInstance("a"))
func mustNode(t *testing.T) func(any, error) *Node {
	return func(v any, err error) *Node {
		t.Helper()
		require.NoError(t, err)
		return v.(*Node)
	}
}

func TestCreateInstanceSplitsProps(t *testing.T) {
	h := NewHost()
	n := mustNode(t)(h.CreateInstance("button", vdom.Props{
		"class":           "primary",
		"disabled":        false,
		"onClick":         func() {},
		"key":             "k",
		vdom.ChildrenProp: "Go",
	}))

	assert.Equal(t, "button", n.Tag())
	assert.Equal(t, "Go", n.Text())
	v, ok := n.Attr("class")
	assert.True(t, ok)
	assert.Equal(t, "primary", v)
	_, ok = n.Attr("disabled")
	assert.False(t, ok, "false booleans are not set")
	_, ok = n.Attr("key")
	assert.False(t, ok)
	assert.NotNil(t, n.Handler("onclick"))
}

func TestCommitBatchAndSnapshot(t *testing.T) {
	h := NewHost()
	c := h.NewContainer()
	first := c.Snapshot()
	require.NotNil(t, first)
	assert.Empty(t, first.Root.Children)

	ul := mustNode(t)(h.CreateInstance("ul", nil))
	a := mustNode(t)(h.CreateTextInstance("a"))
	require.NoError(t, h.AppendInitialChild(ul, a))

	h.PrepareForCommit(c)
	require.NoError(t, h.AppendChild(c, ul))

	// Not yet published.
	assert.Same(t, first, c.Snapshot())
	h.ResetAfterCommit(c)

	snap := c.Snapshot()
	require.Len(t, snap.Root.Children, 1)
	assert.Equal(t, uint64(1), snap.Seq)
	assert.Equal(t, "ul", snap.Root.Children[0].Tag)
	assert.True(t, snap.Root.Children[0].Children[0].IsText())

	batch := c.LastBatch()
	assert.Equal(t, uint64(1), batch.Seq)
	require.Len(t, batch.Mutations, 1, "render-phase creation is not part of the commit batch")
	assert.Equal(t, OpAppend, batch.Mutations[0].Op)
	assert.Len(t, h.Log(), 4)

	// Later mutations do not leak into a published snapshot.
	h.PrepareForCommit(c)
	require.NoError(t, h.RemoveChild(c, ul))
	assert.Len(t, snap.Root.Children, 1)
	h.ResetAfterCommit(c)
	assert.Empty(t, c.Snapshot().Root.Children)
	assert.Len(t, c.Batches(), 2)
}

func TestInsertBeforeMovesNode(t *testing.T) {
	h := NewHost()
	c := h.NewContainer()
	var items []*Node
	for _, s := range []string{"a", "b", "c"} {
		n := mustNode(t)(h.CreateTextInstance(s))
		require.NoError(t, h.AppendChild(c, n))
		items = append(items, n)
	}

	require.NoError(t, h.InsertBefore(c, items[2], items[0]))
	assert.Equal(t, "cab", c.Root().TextContent())

	require.NoError(t, h.AppendChild(c, items[0]))
	assert.Equal(t, "cba", c.Root().TextContent())

	err := h.InsertBefore(c, items[1], mustNode(t)(h.CreateTextInstance("x")))
	assert.Error(t, err)
	assert.Same(t, c.Root(), items[1].Parent(), "a failed insert leaves the node in place")
	assert.Equal(t, "cba", c.Root().TextContent())

	assert.Error(t, h.InsertBefore(c, items[1], items[1]))
	assert.Equal(t, "cba", c.Root().TextContent())

	// Moving a node forward past its own slot.
	require.NoError(t, h.InsertBefore(c, items[2], items[0]))
	assert.Equal(t, "bca", c.Root().TextContent())
}

func TestCommitUpdate(t *testing.T) {
	h := NewHost()
	p := mustNode(t)(h.CreateInstance("p", vdom.Props{"title": "old", "id": "x"}))
	child := mustNode(t)(h.CreateTextInstance("child"))
	require.NoError(t, h.AppendInitialChild(p, child))

	diff := vdom.PropDiff{
		{Op: vdom.PropSet, Key: "title", Value: "new"},
		{Op: vdom.PropRemove, Key: "id"},
		{Op: vdom.PropSetText, Key: vdom.ChildrenProp, Value: "hello"},
	}
	require.NoError(t, h.CommitUpdate(p, diff, "p", nil, nil))

	title, _ := p.Attr("title")
	assert.Equal(t, "new", title)
	_, ok := p.Attr("id")
	assert.False(t, ok)
	assert.Equal(t, "hello", p.Text())
	assert.Empty(t, p.Children(), "text content replaces children")
	assert.Nil(t, child.Parent())

	require.NoError(t, h.CommitUpdate(p, vdom.PropDiff{{Op: vdom.PropSetText, Key: vdom.ChildrenProp, Value: ""}}, "p", nil, nil))
	assert.Equal(t, "", p.Text())
}

func TestFailOn(t *testing.T) {
	h := NewHost()
	boom := errors.New("boom")
	h.FailOn(OpCreate, boom)

	_, err := h.CreateInstance("div", nil)
	assert.ErrorIs(t, err, boom)

	h.FailOn(OpCreate, nil)
	_, err = h.CreateInstance("div", nil)
	assert.NoError(t, err)

	h.FailOn(OpRemove, boom)
	h.ClearFailures()
	_, err = h.CreateTextInstance("t")
	assert.NoError(t, err)
}

func TestParseOp(t *testing.T) {
	op, ok := ParseOp("insert")
	assert.True(t, ok)
	assert.Equal(t, OpInsert, op)
	_, ok = ParseOp("nope")
	assert.False(t, ok)
}

func TestDispatchBubblesWithPriority(t *testing.T) {
	h := NewHost()
	c := h.NewContainer()

	var seen []string
	var priorities []lane.EventPriority
	outer := mustNode(t)(h.CreateInstance("div", vdom.Props{"onclick": func(e *Event) {
		seen = append(seen, "outer:"+e.Target.Tag())
		priorities = append(priorities, h.CurrentEventPriority())
	}}))
	inner := mustNode(t)(h.CreateInstance("button", vdom.Props{"onclick": func() {
		seen = append(seen, "inner")
	}}))
	require.NoError(t, h.AppendInitialChild(outer, inner))
	require.NoError(t, h.AppendChild(c, outer))

	assert.Equal(t, 2, h.Click(inner))
	assert.Equal(t, []string{"inner", "outer:button"}, seen)
	assert.Equal(t, []lane.EventPriority{lane.DiscreteEventPriority}, priorities)
	assert.Equal(t, lane.DefaultEventPriority, h.CurrentEventPriority())
}

func TestDispatchStopPropagation(t *testing.T) {
	h := NewHost()
	calls := 0
	outer := mustNode(t)(h.CreateInstance("div", vdom.Props{"onmousemove": func() { calls++ }}))
	inner := mustNode(t)(h.CreateInstance("span", vdom.Props{"onmousemove": func(e *Event) {
		calls++
		assert.Equal(t, lane.ContinuousEventPriority, h.CurrentEventPriority())
		e.StopPropagation()
	}}))
	require.NoError(t, h.AppendInitialChild(outer, inner))

	assert.Equal(t, 1, h.Dispatch(inner, &Event{Type: "mousemove"}))
	assert.Equal(t, 1, calls)
}

func TestDispatchCapturesBeforeBubbling(t *testing.T) {
	h := NewHost()
	var seen []string
	record := func(name string) func(*Event) {
		return func(e *Event) {
			phase := "bubble"
			if e.Phase == CapturePhase {
				phase = "capture"
			}
			seen = append(seen, phase+" "+name+" at "+e.CurrentTarget.Tag())
		}
	}
	outer := mustNode(t)(h.CreateInstance("div", vdom.Props{
		"onClickCapture": record("outer"),
		"onClick":        record("outer"),
	}))
	inner := mustNode(t)(h.CreateInstance("button", vdom.Props{
		"onClickCapture": record("inner"),
		"onClick":        record("inner"),
	}))
	require.NoError(t, h.AppendInitialChild(outer, inner))

	assert.Equal(t, 4, h.Click(inner))
	assert.Equal(t, []string{
		"capture outer at div",
		"capture inner at button",
		"bubble inner at button",
		"bubble outer at div",
	}, seen)
}

func TestDispatchStopDuringCapture(t *testing.T) {
	h := NewHost()
	calls := 0
	outer := mustNode(t)(h.CreateInstance("div", vdom.Props{
		"onClickCapture": func(e *Event) { e.StopPropagation() },
	}))
	inner := mustNode(t)(h.CreateInstance("button", vdom.Props{"onClick": func() { calls++ }}))
	require.NoError(t, h.AppendInitialChild(outer, inner))

	assert.Equal(t, 1, h.Click(inner))
	assert.Zero(t, calls)
}

func TestDispatchValue(t *testing.T) {
	h := NewHost()
	var got string
	input := mustNode(t)(h.CreateInstance("input", vdom.Props{"oninput": func(v string) { got = v }}))
	h.Dispatch(input, &Event{Type: "input", Value: "typed"})
	assert.Equal(t, "typed", got)
}

func TestEventPriority(t *testing.T) {
	assert.Equal(t, lane.DiscreteEventPriority, EventPriority("Click"))
	assert.Equal(t, lane.ContinuousEventPriority, EventPriority("scroll"))
	assert.Equal(t, lane.DefaultEventPriority, EventPriority("load"))
}

func TestFind(t *testing.T) {
	h := NewHost()
	c := h.NewContainer()
	div := mustNode(t)(h.CreateInstance("div", vdom.Props{"id": "main"}))
	span := mustNode(t)(h.CreateInstance("span", nil))
	require.NoError(t, h.AppendInitialChild(div, span))
	require.NoError(t, h.AppendChild(c, div))

	assert.Same(t, div, c.Root().Find(ByID("main")))
	assert.Same(t, span, c.Root().Find(ByTag("span")))
	assert.Len(t, c.Root().FindAll(func(n *Node) bool { return n.Kind() == ElementNode }), 2)
	assert.Nil(t, c.Root().Find(ByTag("table")))
}
