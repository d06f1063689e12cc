package memdom

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/vango-dev/reconciler/pkg/lane"
	"github.com/vango-dev/reconciler/pkg/vdom"
)

// Host is the render-target adapter. It is not safe for concurrent use;
// only snapshots may be read from other goroutines.
type Host struct {
	logger   *slog.Logger
	nextID   int
	failures map[Op]error
	priority lane.EventPriority
	log      []Mutation
	active   *Container
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the logger used for adapter tracing.
func WithLogger(l *slog.Logger) Option {
	return func(h *Host) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHost creates an adapter.
func NewHost(opts ...Option) *Host {
	h := &Host{
		logger:   slog.Default(),
		failures: make(map[Op]error),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewContainer creates an empty container. Its first snapshot is the empty
// tree.
func (h *Host) NewContainer() *Container {
	c := &Container{}
	c.root = newNode(h.newID(), RootNode, "")
	c.snapshot.Store(&Snapshot{Root: c.root.snapshot()})
	return c
}

func (h *Host) newID() string {
	h.nextID++
	return "n" + strconv.Itoa(h.nextID)
}

// FailOn makes every later call of op fail with err. A nil err clears the
// failure.
func (h *Host) FailOn(op Op, err error) {
	if err == nil {
		delete(h.failures, op)
		return
	}
	h.failures[op] = err
}

// ClearFailures removes every injected failure.
func (h *Host) ClearFailures() {
	clear(h.failures)
}

// Log returns every recorded adapter call since the last ResetLog.
func (h *Host) Log() []Mutation {
	out := make([]Mutation, len(h.log))
	copy(out, h.log)
	return out
}

// ResetLog clears the adapter call log.
func (h *Host) ResetLog() {
	h.log = nil
}

func (h *Host) fail(op Op) error {
	if err := h.failures[op]; err != nil {
		return fmt.Errorf("memdom: %s: %w", op, err)
	}
	return nil
}

func (h *Host) record(m Mutation) {
	h.log = append(h.log, m)
	if h.active != nil {
		h.active.record(m)
	}
	h.logger.Debug("memdom", "mutation", m.String())
}

func asNode(v any) (*Node, error) {
	switch n := v.(type) {
	case *Node:
		if n != nil {
			return n, nil
		}
	case *Container:
		if n != nil {
			return n.root, nil
		}
	}
	return nil, fmt.Errorf("memdom: %T is not a node", v)
}

func setProp(n *Node, key string, v any) {
	if vdom.IsEventHandler(key) {
		name := "on" + vdom.EventName(key)
		if v == nil {
			delete(n.handlers, name)
		} else {
			n.handlers[name] = v
		}
		return
	}
	if v == nil || v == false {
		delete(n.attrs, key)
		return
	}
	n.attrs[key] = vdom.PropString(v)
}

func isAttrProp(key string) bool {
	return key != vdom.ChildrenProp && key != "key" && key != "ref"
}

// CreateInstance creates a detached element.
func (h *Host) CreateInstance(typ string, props vdom.Props) (any, error) {
	if err := h.fail(OpCreate); err != nil {
		return nil, err
	}
	n := newNode(h.newID(), ElementNode, typ)
	for k, v := range props {
		if isAttrProp(k) {
			setProp(n, k, v)
		}
	}
	if h.IsTextOnlyChildren(typ, props) {
		n.text, _ = vdom.TextOf(props.Children())
	}
	h.record(Mutation{Op: OpCreate, ID: n.id, Key: typ})
	return n, nil
}

// CreateTextInstance creates a detached text node.
func (h *Host) CreateTextInstance(text string) (any, error) {
	if err := h.fail(OpCreateText); err != nil {
		return nil, err
	}
	n := newNode(h.newID(), TextNode, "")
	n.text = text
	h.record(Mutation{Op: OpCreateText, ID: n.id, Value: text})
	return n, nil
}

// AppendInitialChild attaches child to a parent that is not yet attached.
func (h *Host) AppendInitialChild(parent, child any) error {
	if err := h.fail(OpAppendInitial); err != nil {
		return err
	}
	p, c, err := nodes(parent, child)
	if err != nil {
		return err
	}
	p.children = append(p.children, c)
	c.parent = p
	h.record(Mutation{Op: OpAppendInitial, ID: c.id, ParentID: p.id})
	return nil
}

// AppendChild moves or appends child to the end of parent.
func (h *Host) AppendChild(parent, child any) error {
	if err := h.fail(OpAppend); err != nil {
		return err
	}
	p, c, err := nodes(parent, child)
	if err != nil {
		return err
	}
	if c.parent != nil {
		c.parent.detach(c)
	}
	p.children = append(p.children, c)
	c.parent = p
	h.record(Mutation{Op: OpAppend, ID: c.id, ParentID: p.id})
	return nil
}

// InsertBefore moves or inserts child before the before node.
func (h *Host) InsertBefore(parent, child, before any) error {
	if err := h.fail(OpInsert); err != nil {
		return err
	}
	p, c, err := nodes(parent, child)
	if err != nil {
		return err
	}
	b, err := asNode(before)
	if err != nil {
		return err
	}
	if p.indexOf(b) < 0 {
		return fmt.Errorf("memdom: %s is not a child of %s", b.id, p.id)
	}
	if c == b {
		return fmt.Errorf("memdom: cannot insert %s before itself", c.id)
	}
	if c.parent != nil {
		c.parent.detach(c)
	}
	// Detaching c may have shifted b.
	i := p.indexOf(b)
	p.children = append(p.children, nil)
	copy(p.children[i+1:], p.children[i:])
	p.children[i] = c
	c.parent = p
	h.record(Mutation{Op: OpInsert, ID: c.id, ParentID: p.id, BeforeID: b.id})
	return nil
}

// RemoveChild detaches child from parent.
func (h *Host) RemoveChild(parent, child any) error {
	if err := h.fail(OpRemove); err != nil {
		return err
	}
	p, c, err := nodes(parent, child)
	if err != nil {
		return err
	}
	if !p.detach(c) {
		return fmt.Errorf("memdom: %s is not a child of %s", c.id, p.id)
	}
	h.record(Mutation{Op: OpRemove, ID: c.id, ParentID: p.id})
	return nil
}

func nodes(parent, child any) (*Node, *Node, error) {
	p, err := asNode(parent)
	if err != nil {
		return nil, nil, err
	}
	c, err := asNode(child)
	if err != nil {
		return nil, nil, err
	}
	return p, c, nil
}

// CommitUpdate applies a prop diff to an element.
func (h *Host) CommitUpdate(instance any, diff vdom.PropDiff, _ string, _, _ vdom.Props) error {
	n, err := asNode(instance)
	if err != nil {
		return err
	}
	for _, change := range diff {
		switch change.Op {
		case vdom.PropSet:
			if err := h.fail(OpSetAttr); err != nil {
				return err
			}
			setProp(n, change.Key, change.Value)
			h.record(Mutation{Op: OpSetAttr, ID: n.id, Key: change.Key, Value: vdom.PropString(change.Value)})
		case vdom.PropRemove:
			if err := h.fail(OpRemoveAttr); err != nil {
				return err
			}
			setProp(n, change.Key, nil)
			h.record(Mutation{Op: OpRemoveAttr, ID: n.id, Key: change.Key})
		case vdom.PropSetText:
			if err := h.fail(OpSetText); err != nil {
				return err
			}
			text := vdom.PropString(change.Value)
			h.setText(n, text)
		}
	}
	return nil
}

// setText replaces the text content of an element. Non-empty text replaces
// the children too.
func (h *Host) setText(n *Node, text string) {
	if text != "" {
		n.clearChildren()
	}
	n.text = text
	h.record(Mutation{Op: OpSetText, ID: n.id, Value: text})
}

// CommitTextUpdate replaces the content of a text node.
func (h *Host) CommitTextUpdate(instance any, _, newText string) error {
	if err := h.fail(OpSetText); err != nil {
		return err
	}
	n, err := asNode(instance)
	if err != nil {
		return err
	}
	n.text = newText
	h.record(Mutation{Op: OpSetText, ID: n.id, Value: newText})
	return nil
}

// ComputeDiff returns the prop changes between two renders of an element.
func (h *Host) ComputeDiff(_ string, oldProps, newProps vdom.Props) vdom.PropDiff {
	return vdom.DiffProps(oldProps, newProps)
}

// IsTextOnlyChildren reports whether the children are a single string or
// number.
func (h *Host) IsTextOnlyChildren(_ string, props vdom.Props) bool {
	return vdom.IsTextOnlyChildren(props)
}

// PrepareForCommit starts recording the mutations of a commit.
func (h *Host) PrepareForCommit(container any) {
	c, ok := container.(*Container)
	if !ok {
		return
	}
	h.active = c
	c.begin()
}

// ResetAfterCommit publishes the container's new snapshot.
func (h *Host) ResetAfterCommit(container any) {
	c, ok := container.(*Container)
	if !ok {
		return
	}
	c.publish()
	if h.active == c {
		h.active = nil
	}
}

// CurrentEventPriority is the priority of the event being dispatched, or
// the default priority outside of Dispatch.
func (h *Host) CurrentEventPriority() lane.EventPriority {
	if h.priority != lane.NoLane {
		return h.priority
	}
	return lane.DefaultEventPriority
}
