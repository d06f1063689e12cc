// Package reconciler is an incremental, interruptible tree reconciler.
//
// A Reconciler turns successive element descriptions into the minimal set
// of mutations on a render target (HostConfig). Each root keeps two
// generations of fibers: the published "current" tree and a
// work-in-progress tree built unit by unit. Rendering of non-urgent lanes is
// time-sliced through a scheduler.Host and can be interrupted and restarted
// by more urgent updates; the commit that publishes a finished tree is
// synchronous.
//
// Components are plain functions:
//
//	func Counter(h *reconciler.Hooks, props vdom.Props) any {
//		count, set := reconciler.UseState(h, 0)
//		return vdom.Button(vdom.OnClick(func() { set.Set(count + 1) }), count)
//	}
//
// A Reconciler and everything reachable from it must be driven from a single
// goroutine, the one running the scheduler.
package reconciler
