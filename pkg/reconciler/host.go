package reconciler

import (
	"github.com/vango-dev/reconciler/pkg/lane"
	"github.com/vango-dev/reconciler/pkg/vdom"
)

// HostConfig is the render-target adapter. Handles are opaque to the
// reconciler; the container passed to CreateContainer is the handle of the
// root.
type HostConfig interface {
	// CreateInstance creates a detached element with its initial props.
	CreateInstance(typ string, props vdom.Props) (any, error)
	// CreateTextInstance creates a detached text node.
	CreateTextInstance(text string) (any, error)
	// AppendInitialChild attaches a child while the parent is still detached.
	AppendInitialChild(parent, child any) error

	AppendChild(parent, child any) error
	InsertBefore(parent, child, before any) error
	RemoveChild(parent, child any) error

	// CommitUpdate applies a diff computed by ComputeDiff.
	CommitUpdate(instance any, diff vdom.PropDiff, typ string, oldProps, newProps vdom.Props) error
	CommitTextUpdate(instance any, oldText, newText string) error

	// ComputeDiff returns nil when the props are equivalent.
	ComputeDiff(typ string, oldProps, newProps vdom.Props) vdom.PropDiff
	// IsTextOnlyChildren reports whether the element renders its children
	// as its own text content.
	IsTextOnlyChildren(typ string, props vdom.Props) bool

	// PrepareForCommit and ResetAfterCommit bracket the mutations of a
	// successful commit.
	PrepareForCommit(container any)
	ResetAfterCommit(container any)

	// CurrentEventPriority is the priority of updates dispatched outside of
	// any explicit priority scope.
	CurrentEventPriority() lane.EventPriority
}
