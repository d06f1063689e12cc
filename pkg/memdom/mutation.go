package memdom

import (
	"fmt"
	"strings"
)

// Op is the kind of a recorded adapter call.
type Op uint8

const (
	OpCreate        Op = 0x01 // Create element
	OpCreateText    Op = 0x02 // Create text node
	OpAppendInitial Op = 0x03 // Attach child to a detached parent
	OpAppend        Op = 0x04 // Append child
	OpInsert        Op = 0x05 // Insert child before sibling
	OpRemove        Op = 0x06 // Remove child
	OpSetAttr       Op = 0x07 // Set attribute or handler
	OpRemoveAttr    Op = 0x08 // Remove attribute or handler
	OpSetText       Op = 0x09 // Replace text content
)

// String returns the string representation of the op.
func (op Op) String() string {
	switch op {
	case OpCreate:
		return "Create"
	case OpCreateText:
		return "CreateText"
	case OpAppendInitial:
		return "AppendInitial"
	case OpAppend:
		return "Append"
	case OpInsert:
		return "Insert"
	case OpRemove:
		return "Remove"
	case OpSetAttr:
		return "SetAttr"
	case OpRemoveAttr:
		return "RemoveAttr"
	case OpSetText:
		return "SetText"
	default:
		return "Unknown"
	}
}

// ParseOp returns the op with the given name.
func ParseOp(name string) (Op, bool) {
	for op := OpCreate; op <= OpSetText; op++ {
		if strings.EqualFold(op.String(), name) {
			return op, true
		}
	}
	return 0, false
}

// Mutation is one recorded adapter call.
type Mutation struct {
	Op       Op
	ID       string // Target node
	ParentID string // Parent for Append/Insert/Remove
	BeforeID string // Reference sibling for Insert
	Key      string // Attribute key, or tag for Create
	Value    string // Attribute value or text
}

func (m Mutation) String() string {
	switch m.Op {
	case OpCreate:
		return fmt.Sprintf("%s %s <%s>", m.Op, m.ID, m.Key)
	case OpCreateText:
		return fmt.Sprintf("%s %s %q", m.Op, m.ID, m.Value)
	case OpAppendInitial, OpAppend:
		return fmt.Sprintf("%s %s -> %s", m.Op, m.ID, m.ParentID)
	case OpInsert:
		return fmt.Sprintf("%s %s -> %s before %s", m.Op, m.ID, m.ParentID, m.BeforeID)
	case OpRemove:
		return fmt.Sprintf("%s %s from %s", m.Op, m.ID, m.ParentID)
	case OpSetAttr:
		return fmt.Sprintf("%s %s %s=%q", m.Op, m.ID, m.Key, m.Value)
	case OpRemoveAttr:
		return fmt.Sprintf("%s %s %s", m.Op, m.ID, m.Key)
	case OpSetText:
		return fmt.Sprintf("%s %s %q", m.Op, m.ID, m.Value)
	}
	return m.Op.String()
}

// Batch is the mutations of one commit, in order.
type Batch struct {
	Seq       uint64
	Mutations []Mutation
}

// Count returns the number of mutations of the given op.
func (b Batch) Count(op Op) int {
	n := 0
	for _, m := range b.Mutations {
		if m.Op == op {
			n++
		}
	}
	return n
}

// Strings returns the mutations in their printed form.
func (b Batch) Strings() []string {
	out := make([]string, len(b.Mutations))
	for i, m := range b.Mutations {
		out[i] = m.String()
	}
	return out
}
