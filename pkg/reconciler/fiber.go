package reconciler

import (
	"reflect"

	"github.com/vango-dev/reconciler/pkg/lane"
	"github.com/vango-dev/reconciler/pkg/vdom"
)

// WorkTag identifies the kind of a fiber.
type WorkTag uint8

const (
	HostRoot WorkTag = iota
	HostComponent
	HostText
	FunctionComponent
)

func (t WorkTag) String() string {
	switch t {
	case HostRoot:
		return "HostRoot"
	case HostComponent:
		return "HostComponent"
	case HostText:
		return "HostText"
	case FunctionComponent:
		return "FunctionComponent"
	default:
		return "Unknown"
	}
}

// textProp is the props key a HostText fiber keeps its text under.
const textProp = "text"

// Fiber is one unit of work: a node of the double-buffered tree. The fields
// up to Deletions are shared by every kind; the trailing payload fields are
// only meaningful for the kind named in their comment.
type Fiber struct {
	Tag   WorkTag
	Key   string
	Type  any // tag name or Component
	Index int

	PendingProps  vdom.Props
	MemoizedProps vdom.Props

	// StateNode is the render-target handle for host fibers and the *Root
	// for the root fiber.
	StateNode any

	Return    *Fiber
	Child     *Fiber
	Sibling   *Fiber
	Alternate *Fiber

	Flags        Flags
	SubtreeFlags Flags
	Lanes        lane.Lanes
	ChildLanes   lane.Lanes
	Deletions    []*Fiber

	ref any

	// HostRoot payload.
	element     any
	updateQueue *UpdateQueue

	// FunctionComponent payload.
	hooks   []*hook
	effects []*effect

	// HostComponent payload.
	updatePayload vdom.PropDiff
}

func newFiber(tag WorkTag, pendingProps vdom.Props, key string) *Fiber {
	return &Fiber{
		Tag:          tag,
		Key:          key,
		PendingProps: pendingProps,
	}
}

// CreateWorkInProgress returns the work-in-progress counterpart of current.
// The alternate is allocated once and reused on every later render; its
// transient effect state is reset and shared fields are copied as a baseline.
func CreateWorkInProgress(current *Fiber, pendingProps vdom.Props) *Fiber {
	wip := current.Alternate
	if wip == nil {
		wip = newFiber(current.Tag, pendingProps, current.Key)
		wip.Type = current.Type
		wip.StateNode = current.StateNode
		wip.Alternate = current
		current.Alternate = wip
	} else {
		wip.PendingProps = pendingProps
		wip.Type = current.Type
		wip.Flags = NoFlags
		wip.SubtreeFlags = NoFlags
		wip.Deletions = nil
	}

	wip.Lanes = current.Lanes
	wip.ChildLanes = current.ChildLanes
	wip.Child = current.Child
	wip.MemoizedProps = current.MemoizedProps
	wip.Sibling = current.Sibling
	wip.Index = current.Index
	wip.ref = current.ref

	wip.element = current.element
	wip.updateQueue = current.updateQueue
	wip.hooks = current.hooks
	wip.effects = current.effects
	wip.updatePayload = nil

	return wip
}

// Component is a function component. It receives its hooks handle and
// props and returns its children: an *vdom.Element, a string or number,
// a list of those, or nil.
type Component func(h *Hooks, props vdom.Props) any

// asComponent accepts both Component and the equivalent unnamed func type.
func asComponent(typ any) (Component, bool) {
	switch c := typ.(type) {
	case Component:
		return c, c != nil
	case func(*Hooks, vdom.Props) any:
		return c, c != nil
	}
	return nil, false
}

// createFiberFromElement returns nil for element types that cannot be
// rendered.
func createFiberFromElement(el *vdom.Element, lanes lane.Lanes) *Fiber {
	var tag WorkTag
	switch {
	case el.IsHost():
		tag = HostComponent
	default:
		if _, ok := asComponent(el.Type); !ok {
			return nil
		}
		tag = FunctionComponent
	}
	f := newFiber(tag, el.Props, el.Key)
	f.Type = el.Type
	f.Lanes = lanes
	if tag == HostComponent {
		f.ref = el.Props["ref"]
	}
	return f
}

func createFiberFromText(text string, lanes lane.Lanes) *Fiber {
	f := newFiber(HostText, textProps(text), "")
	f.Lanes = lanes
	return f
}

func textProps(text string) vdom.Props {
	return vdom.Props{textProp: text}
}

func textOf(props vdom.Props) string {
	s, _ := props[textProp].(string)
	return s
}

// sameProps reports whether two props maps are the same map.
func sameProps(a, b vdom.Props) bool {
	return reflect.ValueOf(a).UnsafePointer() == reflect.ValueOf(b).UnsafePointer()
}

// Text returns the text of a HostText fiber.
func (f *Fiber) Text() string {
	if f.Tag != HostText {
		return ""
	}
	return textOf(f.MemoizedProps)
}

// Name returns the element type name of the fiber.
func (f *Fiber) Name() string {
	switch f.Tag {
	case HostRoot:
		return "root"
	case HostText:
		return "#text"
	}
	return vdom.TypeName(f.Type)
}

// Children returns the child fibers in order.
func (f *Fiber) Children() []*Fiber {
	var out []*Fiber
	for c := f.Child; c != nil; c = c.Sibling {
		out = append(out, c)
	}
	return out
}
