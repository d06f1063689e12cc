// Package metrics records reconciler activity as Prometheus metrics.
//
// A Collector implements reconciler.Metrics:
//
//	reg := prometheus.NewRegistry()
//	m := metrics.New(metrics.WithRegistry(reg), metrics.WithNamespace("app"))
//	r := reconciler.New(host, sched, reconciler.WithMetrics(m))
//
//	http.Handle("/metrics", metrics.Handler(reg))
//
// Metrics collected (namespace "reconciler" by default):
//   - units_of_work_total: work units begun
//   - yields_total: renders interrupted by the scheduler
//   - renders_total: completed renders by lane and mode
//   - render_duration_seconds: render duration by mode
//   - renders_abandoned_total: in-progress renders thrown away
//   - commits_total: commits by lane
//   - commit_duration_seconds: commit duration
//   - commit_mutations: render-target operations per commit
//   - effects_total: effects and cleanups run, by phase
//   - eager_bailouts_total: state updates dropped without a render
//   - errors_total: reported failures by error code
package metrics
