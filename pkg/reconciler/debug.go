package reconciler

import (
	"fmt"
	"strings"
)

// String returns a short description such as `li key="b" [Placement]`.
func (f *Fiber) String() string {
	var b strings.Builder
	b.WriteString(f.Name())
	if f.Key != "" {
		fmt.Fprintf(&b, " key=%q", f.Key)
	}
	if f.Tag == HostText {
		fmt.Fprintf(&b, " %q", textOf(f.PendingProps))
	}
	if f.Flags != NoFlags {
		fmt.Fprintf(&b, " [%s]", f.Flags)
	}
	return b.String()
}

// DebugString prints the subtree rooted at f, one fiber per line, indented
// by depth.
func DebugString(f *Fiber) string {
	var b strings.Builder
	var walk func(f *Fiber, depth int)
	walk = func(f *Fiber, depth int) {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(f.String())
		if f.Lanes != 0 || f.ChildLanes != 0 {
			fmt.Fprintf(&b, " lanes=%s child=%s", f.Lanes, f.ChildLanes)
		}
		b.WriteByte('\n')
		for c := f.Child; c != nil; c = c.Sibling {
			walk(c, depth+1)
		}
	}
	if f != nil {
		walk(f, 0)
	}
	return b.String()
}
