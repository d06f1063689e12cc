package vdom

import (
	"fmt"
	"reflect"
	"strings"
)

// ChildrenProp is the props key children are stored under.
const ChildrenProp = "children"

// Element is a declarative description of one output node.
type Element struct {
	Type  any    // Tag name (string) or component function
	Key   string // Reconciliation key, "" when unkeyed
	Props Props  // Attributes, handlers and children
}

// Props holds attributes, event handlers and children.
type Props map[string]any

// Children returns the children stored in the props.
func (p Props) Children() any {
	if p == nil {
		return nil
	}
	return p[ChildrenProp]
}

// Clone returns a shallow copy of the props.
func (p Props) Clone() Props {
	if p == nil {
		return nil
	}
	out := make(Props, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// IsHost reports whether the element describes a host element.
func (e *Element) IsHost() bool {
	_, ok := e.Type.(string)
	return ok
}

// Tag returns the tag name of a host element, or "" for components.
func (e *Element) Tag() string {
	tag, _ := e.Type.(string)
	return tag
}

// TypeName returns a readable name for the element type.
func (e *Element) TypeName() string {
	return TypeName(e.Type)
}

// TypeName returns a readable name for an element type: the tag for host
// elements and the function name for components.
func TypeName(typ any) string {
	switch t := typ.(type) {
	case nil:
		return ""
	case string:
		return t
	}
	v := reflect.ValueOf(typ)
	if v.Kind() == reflect.Func {
		if name := funcName(v); name != "" {
			return name
		}
	}
	return fmt.Sprintf("%T", typ)
}

// SameType reports whether two element types are identical. Tags compare by
// value, component functions by code pointer.
func SameType(a, b any) bool {
	if as, ok := a.(string); ok {
		bs, ok := b.(string)
		return ok && as == bs
	}
	if _, ok := b.(string); ok {
		return false
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Kind() == reflect.Func && vb.Kind() == reflect.Func {
		return va.Type() == vb.Type() && va.Pointer() == vb.Pointer()
	}
	if !va.IsValid() || !vb.IsValid() {
		return !va.IsValid() && !vb.IsValid()
	}
	return va.Type() == vb.Type() && va.Type().Comparable() && a == b
}

// Attr represents a single prop.
type Attr struct {
	Key   string
	Value any
}

// IsEmpty returns true if this is an empty/nil attribute.
func (a Attr) IsEmpty() bool {
	return a.Key == ""
}

// EventHandler represents an event handler prop.
type EventHandler struct {
	Event   string // "onclick", "oninput", etc.
	Handler any    // Function to call
}

// String renders the element in a compact, JSX-like form for logs.
func (e *Element) String() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString("<")
	b.WriteString(e.TypeName())
	if e.Key != "" {
		fmt.Fprintf(&b, " key=%q", e.Key)
	}
	b.WriteString(">")
	return b.String()
}
