// Package devtools serves an HTTP inspector for reconciler roots that
// render into memdom containers.
//
// Routes:
//
//	GET /healthz   liveness
//	GET /roots     tracked roots with their last published sequence
//	GET /tree      JSON of the published snapshot (?root=<id>, default first)
//	GET /html      HTML of the published snapshot (?pretty=1)
//	GET /commits   recent commit events
//	GET /metrics   Prometheus metrics, when a gatherer is configured
//	GET /ws        websocket stream of commit events
//
// Handlers only read published snapshots, so they are safe to serve while
// the reconciler keeps committing on its own goroutine. Pass Observe as the
// reconciler's commit observer to feed the commit stream.
package devtools
