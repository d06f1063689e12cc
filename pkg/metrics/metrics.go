package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/reconciler/pkg/lane"
)

// Config configures a Collector.
type Config struct {
	// Namespace is the metrics namespace (default: "reconciler").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for render and commit durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures a Collector.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the duration histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "reconciler",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Collector holds the reconciler metrics. It is safe for concurrent use.
type Collector struct {
	unitsOfWork     prometheus.Counter
	yields          prometheus.Counter
	renders         *prometheus.CounterVec
	renderDuration  *prometheus.HistogramVec
	rendersAbandon  prometheus.Counter
	commits         *prometheus.CounterVec
	commitDuration  prometheus.Histogram
	commitMutations prometheus.Histogram
	effects         *prometheus.CounterVec
	eagerBailouts   prometheus.Counter
	errors          *prometheus.CounterVec
}

// New creates a Collector and registers its metrics. Registering twice on
// the same registry panics, as with promauto.
func New(opts ...Option) *Collector {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Collector{
		unitsOfWork: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "units_of_work_total",
			Help:        "Total number of work units begun",
			ConstLabels: config.ConstLabels,
		}),

		yields: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "yields_total",
			Help:        "Total number of renders interrupted to yield to the host",
			ConstLabels: config.ConstLabels,
		}),

		renders: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "renders_total",
			Help:        "Total number of completed renders",
			ConstLabels: config.ConstLabels,
		}, []string{"lane", "mode"}),

		renderDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_duration_seconds",
			Help:        "Render duration in seconds, including yielded time",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"mode"}),

		rendersAbandon: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "renders_abandoned_total",
			Help:        "Total number of in-progress renders restarted for other work",
			ConstLabels: config.ConstLabels,
		}),

		commits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "commits_total",
			Help:        "Total number of commits",
			ConstLabels: config.ConstLabels,
		}, []string{"lane"}),

		commitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "commit_duration_seconds",
			Help:        "Commit duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		commitMutations: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "commit_mutations",
			Help:        "Render-target operations per commit",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{0, 1, 5, 10, 50, 100, 500, 1000},
		}),

		effects: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effects_total",
			Help:        "Total number of effects and cleanups run",
			ConstLabels: config.ConstLabels,
		}, []string{"phase"}),

		eagerBailouts: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "eager_bailouts_total",
			Help:        "Total number of state updates dropped without scheduling a render",
			ConstLabels: config.ConstLabels,
		}),

		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "errors_total",
			Help:        "Total number of render and commit failures",
			ConstLabels: config.ConstLabels,
		}, []string{"code"}),
	}
}

// laneLabel keeps label cardinality bounded: only the most urgent lane of
// a set is reported.
func laneLabel(lanes lane.Lanes) string {
	if lanes == lane.NoLanes {
		return "none"
	}
	return lane.LaneName(lane.HighestPriorityLane(lanes))
}

func modeLabel(sync bool) string {
	if sync {
		return "sync"
	}
	return "concurrent"
}

func (c *Collector) UnitOfWork() { c.unitsOfWork.Inc() }

func (c *Collector) Yield() { c.yields.Inc() }

func (c *Collector) RenderCompleted(lanes lane.Lanes, sync bool, d time.Duration) {
	mode := modeLabel(sync)
	c.renders.WithLabelValues(laneLabel(lanes), mode).Inc()
	c.renderDuration.WithLabelValues(mode).Observe(d.Seconds())
}

func (c *Collector) RenderAbandoned() { c.rendersAbandon.Inc() }

func (c *Collector) Commit(lanes lane.Lanes, d time.Duration, mutations int) {
	c.commits.WithLabelValues(laneLabel(lanes)).Inc()
	c.commitDuration.Observe(d.Seconds())
	c.commitMutations.Observe(float64(mutations))
}

func (c *Collector) EffectsRun(phase string, n int) {
	c.effects.WithLabelValues(phase).Add(float64(n))
}

func (c *Collector) EagerBailout() { c.eagerBailouts.Inc() }

// Error counts a failure. Errors without a code are counted as "unknown".
func (c *Collector) Error(code string) {
	if code == "" {
		code = "unknown"
	}
	c.errors.WithLabelValues(code).Inc()
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
