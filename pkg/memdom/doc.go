// Package memdom is an in-memory render target for the reconciler.
//
// Nodes are created detached by the render phase and attached, moved and
// updated during commit. Every adapter call is recorded, and each commit's
// mutations are grouped into a numbered Batch on the container.
//
// A Container publishes an immutable Snapshot of its tree at the end of
// every successful commit. Snapshots can be read from any goroutine and
// always reflect whole commits:
//
//	host := memdom.NewHost()
//	c := host.NewContainer()
//	root := r.CreateContainer(c)
//	root.Render(vdom.Ul(vdom.Li("A")))
//	...
//	snap := c.Snapshot()
//
// The live tree (Container.Root and the Node accessors) must only be read
// from the goroutine driving the scheduler.
package memdom
