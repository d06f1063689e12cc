// Package scheduler is a cooperative, single-threaded task scheduler.
//
// Tasks are ordered by expiration time, which derives from their priority.
// A running task may return a continuation of itself; the scheduler keeps
// the task queued and resumes the continuation in a later slice. Work loops
// poll ShouldYield between units of work and return a continuation once the
// current slice (FrameInterval, 5ms by default) is used up.
//
// # Hosts
//
// The Scheduler itself never starts goroutines. Something has to drive it:
//
//   - ManualHost runs slices on demand and is meant for tests.
//   - Loop owns a goroutine, accepts work from other goroutines through
//     Submit and runs slices whenever tasks are pending.
//
// Microtasks queued with QueueMicrotask run after every task and after
// every submitted function, before the next task is picked.
package scheduler
