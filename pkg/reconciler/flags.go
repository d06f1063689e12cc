package reconciler

import "strings"

// Flags records what must happen to a fiber during commit.
type Flags uint32

const (
	NoFlags       Flags = 0
	Placement     Flags = 1 << 0
	UpdateEffect  Flags = 1 << 1
	ChildDeletion Flags = 1 << 2
	RefEffect     Flags = 1 << 3
	Passive       Flags = 1 << 4

	// MutationMask selects fibers visited by the mutation pass.
	MutationMask = Placement | UpdateEffect | ChildDeletion | RefEffect
	// LayoutMask selects fibers visited by the layout pass.
	LayoutMask = UpdateEffect | RefEffect
	// PassiveMask selects fibers visited by the passive passes. Deletions
	// are included because deleted subtrees may hold passive cleanups.
	PassiveMask = Passive | ChildDeletion
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{Placement, "Placement"},
	{UpdateEffect, "Update"},
	{ChildDeletion, "ChildDeletion"},
	{RefEffect, "Ref"},
	{Passive, "Passive"},
}

func (f Flags) String() string {
	if f == NoFlags {
		return "NoFlags"
	}
	var parts []string
	for _, fn := range flagNames {
		if f&fn.flag != 0 {
			parts = append(parts, fn.name)
		}
	}
	return strings.Join(parts, "|")
}

// hookFlags tag an effect cell.
type hookFlags uint8

const (
	hookHasEffect hookFlags = 1 << 0
	hookLayout    hookFlags = 1 << 1
	hookPassive   hookFlags = 1 << 2
)
