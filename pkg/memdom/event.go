package memdom

import (
	"strings"

	"github.com/vango-dev/reconciler/pkg/lane"
)

// Phase is the propagation phase an event handler runs in.
type Phase uint8

const (
	// CapturePhase runs on<type>capture handlers from the root down to the
	// target.
	CapturePhase Phase = iota + 1
	// BubblePhase runs on<type> handlers from the target up to the root.
	BubblePhase
)

// Event is dispatched to the on<type>capture and on<type> handlers of a
// node and its ancestors.
type Event struct {
	Type          string
	Target        *Node
	CurrentTarget *Node
	Phase         Phase
	// Value carries the new value of input and change events.
	Value string

	stopped bool
}

// StopPropagation prevents the remaining handlers of both phases from
// running.
func (e *Event) StopPropagation() { e.stopped = true }

var continuousEvents = map[string]bool{
	"mousemove":   true,
	"mouseover":   true,
	"mouseout":    true,
	"mouseenter":  true,
	"mouseleave":  true,
	"pointermove": true,
	"pointerover": true,
	"pointerout":  true,
	"touchmove":   true,
	"scroll":      true,
	"wheel":       true,
	"drag":        true,
	"dragover":    true,
}

var discreteEvents = map[string]bool{
	"click":       true,
	"dblclick":    true,
	"mousedown":   true,
	"mouseup":     true,
	"pointerdown": true,
	"pointerup":   true,
	"touchstart":  true,
	"touchend":    true,
	"keydown":     true,
	"keyup":       true,
	"keypress":    true,
	"input":       true,
	"change":      true,
	"submit":      true,
	"focus":       true,
	"blur":        true,
}

// EventPriority returns the update priority of an event type.
func EventPriority(typ string) lane.EventPriority {
	typ = strings.ToLower(typ)
	switch {
	case discreteEvents[typ]:
		return lane.DiscreteEventPriority
	case continuousEvents[typ]:
		return lane.ContinuousEventPriority
	}
	return lane.DefaultEventPriority
}

// Dispatch runs the capture handlers for ev from the root down to target,
// then the bubble handlers from target up to the root. Updates dispatched
// by handlers get the event's priority. Handlers may be func(),
// func(*Event) or func(string) (receiving ev.Value). It returns the number
// of handlers that ran.
func (h *Host) Dispatch(target *Node, ev *Event) int {
	ev.Type = strings.ToLower(ev.Type)
	ev.Target = target

	prev := h.priority
	h.priority = EventPriority(ev.Type)
	defer func() { h.priority = prev }()

	var path []*Node
	for node := target; node != nil; node = node.parent {
		path = append(path, node)
	}

	n := 0
	ev.Phase = CapturePhase
	capture := "on" + ev.Type + "capture"
	for i := len(path) - 1; i >= 0 && !ev.stopped; i-- {
		if h.invoke(path[i], capture, ev) {
			n++
		}
	}
	ev.Phase = BubblePhase
	bubble := "on" + ev.Type
	for _, node := range path {
		if ev.stopped {
			break
		}
		if h.invoke(node, bubble, ev) {
			n++
		}
	}
	return n
}

func (h *Host) invoke(node *Node, prop string, ev *Event) bool {
	handler := node.handlers[prop]
	if handler == nil {
		return false
	}
	ev.CurrentTarget = node
	switch fn := handler.(type) {
	case func():
		fn()
	case func(*Event):
		fn(ev)
	case func(string):
		fn(ev.Value)
	default:
		h.logger.Warn("unsupported handler type", "node", node.id, "event", ev.Type)
		return false
	}
	return true
}

// Click dispatches a click event on target.
func (h *Host) Click(target *Node) int {
	return h.Dispatch(target, &Event{Type: "click"})
}
