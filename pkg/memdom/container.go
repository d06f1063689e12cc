package memdom

import (
	"sync"
	"sync/atomic"
)

// Snapshot is an immutable copy of a container's tree taken at the end of
// a commit.
type Snapshot struct {
	Seq  uint64        `json:"seq"`
	Root *SnapshotNode `json:"root"`
}

// SnapshotNode is one node of a Snapshot.
type SnapshotNode struct {
	ID       string            `json:"id"`
	Kind     string            `json:"kind"`
	Tag      string            `json:"tag,omitempty"`
	Text     string            `json:"text,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Events   []string          `json:"events,omitempty"`
	Children []*SnapshotNode   `json:"children,omitempty"`
}

// IsText reports whether the node is a text node.
func (n *SnapshotNode) IsText() bool { return n.Kind == TextNode.String() }

// Container is the root handle passed to the reconciler.
type Container struct {
	root *Node

	// Mutations of the commit in progress.
	committing bool
	pending    []Mutation
	seq        uint64

	mu      sync.Mutex
	batches []Batch

	snapshot atomic.Pointer[Snapshot]
}

// Root returns the live root node.
func (c *Container) Root() *Node { return c.root }

// ID returns the id of the root node.
func (c *Container) ID() string { return c.root.id }

// Snapshot returns the tree published by the last commit. It is safe to
// call from any goroutine.
func (c *Container) Snapshot() *Snapshot {
	return c.snapshot.Load()
}

// Batches returns the mutation batches of every commit so far.
func (c *Container) Batches() []Batch {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Batch, len(c.batches))
	copy(out, c.batches)
	return out
}

// LastBatch returns the mutations of the last commit.
func (c *Container) LastBatch() Batch {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.batches) == 0 {
		return Batch{}
	}
	return c.batches[len(c.batches)-1]
}

func (c *Container) record(m Mutation) {
	if c.committing {
		c.pending = append(c.pending, m)
	}
}

func (c *Container) begin() {
	c.committing = true
	c.pending = nil
}

// publish closes the commit: its mutations become a batch and a fresh
// snapshot replaces the previous one.
func (c *Container) publish() {
	c.committing = false
	c.seq++
	batch := Batch{Seq: c.seq, Mutations: c.pending}
	c.pending = nil

	c.mu.Lock()
	c.batches = append(c.batches, batch)
	c.mu.Unlock()

	c.snapshot.Store(&Snapshot{Seq: c.seq, Root: c.root.snapshot()})
}
