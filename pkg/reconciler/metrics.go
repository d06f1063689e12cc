package reconciler

import (
	"time"

	"github.com/vango-dev/reconciler/pkg/lane"
)

// Metrics receives counters and timings from the reconciler.
// pkg/metrics provides a Prometheus implementation.
type Metrics interface {
	UnitOfWork()
	Yield()
	RenderCompleted(lanes lane.Lanes, sync bool, d time.Duration)
	RenderAbandoned()
	Commit(lanes lane.Lanes, d time.Duration, mutations int)
	EffectsRun(phase string, n int)
	EagerBailout()
	Error(code string)
}

type noopMetrics struct{}

func (noopMetrics) UnitOfWork()                                     {}
func (noopMetrics) Yield()                                          {}
func (noopMetrics) RenderCompleted(lane.Lanes, bool, time.Duration) {}
func (noopMetrics) RenderAbandoned()                                {}
func (noopMetrics) Commit(lane.Lanes, time.Duration, int)           {}
func (noopMetrics) EffectsRun(string, int)                          {}
func (noopMetrics) EagerBailout()                                   {}
func (noopMetrics) Error(string)                                    {}
