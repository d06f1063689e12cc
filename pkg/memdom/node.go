package memdom

import (
	"maps"
	"slices"
	"strings"
)

// Kind is the kind of a node.
type Kind uint8

const (
	ElementNode Kind = iota
	TextNode
	RootNode
)

func (k Kind) String() string {
	switch k {
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	case RootNode:
		return "root"
	default:
		return "unknown"
	}
}

// Node is an element, a text node or the root of a container.
type Node struct {
	id       string
	kind     Kind
	tag      string
	attrs    map[string]string
	handlers map[string]any
	// text is the content of a text node, or the text-only content of an
	// element.
	text     string
	parent   *Node
	children []*Node
}

func newNode(id string, kind Kind, tag string) *Node {
	return &Node{
		id:       id,
		kind:     kind,
		tag:      tag,
		attrs:    make(map[string]string),
		handlers: make(map[string]any),
	}
}

// ID returns the node identifier, unique within its Host.
func (n *Node) ID() string { return n.id }

// Kind returns the kind of the node.
func (n *Node) Kind() Kind { return n.kind }

// Tag returns the tag name of an element.
func (n *Node) Tag() string { return n.tag }

// Text returns the content of a text node or the text-only content of an
// element.
func (n *Node) Text() string { return n.text }

// Parent returns the parent node, or nil when detached.
func (n *Node) Parent() *Node { return n.parent }

// Children returns a copy of the child list.
func (n *Node) Children() []*Node { return slices.Clone(n.children) }

// Attr returns an attribute value.
func (n *Node) Attr(key string) (string, bool) {
	v, ok := n.attrs[key]
	return v, ok
}

// Attrs returns a copy of the attributes.
func (n *Node) Attrs() map[string]string { return maps.Clone(n.attrs) }

// Handler returns the handler registered for an event prop such as
// "onclick".
func (n *Node) Handler(prop string) any { return n.handlers[prop] }

// TextContent returns the concatenated text of the subtree.
func (n *Node) TextContent() string {
	var b strings.Builder
	n.writeText(&b)
	return b.String()
}

func (n *Node) writeText(b *strings.Builder) {
	b.WriteString(n.text)
	for _, c := range n.children {
		c.writeText(b)
	}
}

// Find returns the first node of the subtree, in document order, for which
// match is true.
func (n *Node) Find(match func(*Node) bool) *Node {
	if match(n) {
		return n
	}
	for _, c := range n.children {
		if found := c.Find(match); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns every node of the subtree for which match is true.
func (n *Node) FindAll(match func(*Node) bool) []*Node {
	var out []*Node
	var walk func(*Node)
	walk = func(n *Node) {
		if match(n) {
			out = append(out, n)
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(n)
	return out
}

// ByID matches elements by their id attribute.
func ByID(id string) func(*Node) bool {
	return func(n *Node) bool {
		v, ok := n.attrs["id"]
		return ok && v == id
	}
}

// ByTag matches elements by tag name.
func ByTag(tag string) func(*Node) bool {
	return func(n *Node) bool {
		return n.kind == ElementNode && n.tag == tag
	}
}

func (n *Node) indexOf(child *Node) int {
	return slices.Index(n.children, child)
}

func (n *Node) detach(child *Node) bool {
	i := n.indexOf(child)
	if i < 0 {
		return false
	}
	n.children = slices.Delete(n.children, i, i+1)
	child.parent = nil
	return true
}

func (n *Node) clearChildren() {
	for _, c := range n.children {
		c.parent = nil
	}
	n.children = nil
}

func (n *Node) snapshot() *SnapshotNode {
	s := &SnapshotNode{
		ID:   n.id,
		Kind: n.kind.String(),
		Tag:  n.tag,
		Text: n.text,
	}
	if len(n.attrs) > 0 {
		s.Attrs = maps.Clone(n.attrs)
	}
	if len(n.handlers) > 0 {
		s.Events = slices.Sorted(maps.Keys(n.handlers))
	}
	if len(n.children) > 0 {
		s.Children = make([]*SnapshotNode, len(n.children))
		for i, c := range n.children {
			s.Children[i] = c.snapshot()
		}
	}
	return s
}
