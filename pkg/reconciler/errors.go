package reconciler

import "errors"

var (
	// ErrRootPoisoned is returned once a commit failed part-way. The render
	// target may be partially mutated and the root accepts no more work.
	ErrRootPoisoned = errors.New("reconciler: root poisoned by a failed commit")

	// ErrRootUnmounted is returned for updates on an unmounted root.
	ErrRootUnmounted = errors.New("reconciler: root unmounted")
)
