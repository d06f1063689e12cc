package reconciler

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	ferrors "github.com/vango-dev/reconciler/internal/errors"
	"github.com/vango-dev/reconciler/pkg/lane"
	"github.com/vango-dev/reconciler/pkg/scheduler"
)

// Root owns a published fiber tree, its lane bookkeeping and the container
// handle of the render target.
type Root struct {
	id        string
	r         *Reconciler
	container any

	// current is only reassigned by the commit.
	current *Fiber

	finishedWork  *Fiber
	finishedLanes lane.Lanes

	callbackNode     *scheduler.Task
	callbackPriority lane.Lane

	pendingLanes    lane.Lanes
	expiredLanes    lane.Lanes
	failedLanes     lane.Lanes
	expirationTimes lane.ExpirationTimes

	// traceCtx parents the spans of the next render and commit. It is
	// taken from the caller of RenderContext and dropped once no work is
	// pending.
	traceCtx context.Context

	err       error
	poisoned  bool
	unmounted bool
	commits   int
}

// CreateContainer creates a root rendering into container.
func (r *Reconciler) CreateContainer(container any) *Root {
	root := &Root{
		id:              uuid.NewString(),
		r:               r,
		container:       container,
		expirationTimes: lane.NewExpirationTimes(),
	}
	f := newFiber(HostRoot, nil, "")
	f.StateNode = root
	f.updateQueue = newUpdateQueue(nil)
	root.current = f
	r.roots = append(r.roots, root)
	r.logger.Debug("container created", "root", root.id)
	return root
}

// UpdateContainer enqueues a root-level update carrying element and
// schedules work for it.
func (r *Reconciler) UpdateContainer(element any, root *Root) error {
	return r.UpdateContainerContext(context.Background(), element, root)
}

// UpdateContainerContext is UpdateContainer with a caller context. When ctx
// carries a span, the render and commit spans of this update become its
// children.
func (r *Reconciler) UpdateContainerContext(ctx context.Context, element any, root *Root) error {
	if err := root.available(); err != nil {
		return err
	}
	if trace.SpanContextFromContext(ctx).IsValid() {
		root.traceCtx = ctx
	}
	current := root.current
	l := r.requestUpdateLane()
	current.updateQueue.enqueue(&Update{Lane: l, Action: element})
	r.markUpdateLaneFromFiberToRoot(current, l)
	r.scheduleUpdateOnRoot(root, l)
	return nil
}

// Render replaces the description rendered into the root.
func (root *Root) Render(element any) error {
	return root.r.UpdateContainer(element, root)
}

// RenderContext is Render with a caller context used to parent spans.
func (root *Root) RenderContext(ctx context.Context, element any) error {
	return root.r.UpdateContainerContext(ctx, element, root)
}

// Unmount removes everything rendered into the root synchronously and
// retires it.
func (root *Root) Unmount() error {
	if err := root.available(); err != nil {
		return err
	}
	var err error
	root.r.FlushSync(func() {
		err = root.r.UpdateContainer(nil, root)
	})
	if err != nil {
		return err
	}
	root.r.FlushPassiveEffects()
	root.unmounted = true
	if root.callbackNode != nil {
		root.r.sched.CancelCallback(root.callbackNode)
		root.callbackNode = nil
	}
	root.r.logger.Debug("container unmounted", "root", root.id)
	return nil
}

func (root *Root) available() error {
	switch {
	case root.unmounted:
		return ferrors.New("E006").Wrap(ErrRootUnmounted)
	case root.poisoned:
		return ferrors.New("E006").Wrap(root.err)
	}
	return nil
}

// ID returns the unique identifier of the root.
func (root *Root) ID() string { return root.id }

// Container returns the render-target handle of the root.
func (root *Root) Container() any { return root.container }

// Current returns the root fiber of the published tree.
func (root *Root) Current() *Fiber { return root.current }

// PendingLanes returns the lanes with outstanding work.
func (root *Root) PendingLanes() lane.Lanes { return root.pendingLanes }

// Commits returns the number of commits so far.
func (root *Root) Commits() int { return root.commits }

// Err returns the last render or commit failure. A poisoned root returns
// an error matching ErrRootPoisoned.
func (root *Root) Err() error { return root.err }

// Poisoned reports whether a commit failed on this root.
func (root *Root) Poisoned() bool { return root.poisoned }

// Element returns the description rendered by the last commit.
func (root *Root) Element() any { return root.current.element }

// markUpdated records a new pending lane and unparks failed lanes.
func (root *Root) markUpdated(l lane.Lane) {
	root.pendingLanes = lane.MergeLanes(root.pendingLanes, l)
	root.failedLanes = lane.NoLanes
}

// markFinished keeps only the remaining lanes pending.
func (root *Root) markFinished(remaining lane.Lanes) {
	noLongerPending := lane.RemoveLanes(root.pendingLanes, remaining)
	root.pendingLanes = remaining
	root.expiredLanes = lane.IntersectLanes(root.expiredLanes, remaining)
	root.expirationTimes.Clear(noLongerPending)
}

func (root *Root) poison(err error) {
	root.poisoned = true
	root.err = fmt.Errorf("%w: %w", ErrRootPoisoned, err)
	root.pendingLanes = lane.NoLanes
}

func (root *Root) String() string {
	return fmt.Sprintf("Root(%s)", root.id)
}
