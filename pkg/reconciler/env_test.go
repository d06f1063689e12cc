package reconciler

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vango-dev/reconciler/pkg/lane"
	"github.com/vango-dev/reconciler/pkg/memdom"
	"github.com/vango-dev/reconciler/pkg/render"
	"github.com/vango-dev/reconciler/pkg/scheduler"
)

// env wires a reconciler to a memdom container on a manually driven
// scheduler.
type env struct {
	t         *testing.T
	host      *memdom.Host
	sched     *scheduler.ManualHost
	clock     *scheduler.FakeClock
	r         *Reconciler
	container *memdom.Container
	root      *Root
	metrics   *spyMetrics
	errs      []error
	commits   []CommitInfo
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newEnv(t *testing.T, opts ...Option) *env {
	t.Helper()
	e := &env{t: t, metrics: &spyMetrics{}}
	e.host = memdom.NewHost(memdom.WithLogger(quietLogger()))
	e.sched, e.clock = scheduler.NewManualHost(scheduler.WithLogger(quietLogger()))
	base := []Option{
		WithLogger(quietLogger()),
		WithMetrics(e.metrics),
		WithErrorHandler(func(_ *Root, err error) { e.errs = append(e.errs, err) }),
		WithCommitObserver(func(info CommitInfo) { e.commits = append(e.commits, info) }),
	}
	e.r = New(e.host, e.sched, append(base, opts...)...)
	e.container = e.host.NewContainer()
	e.root = e.r.CreateContainer(e.container)
	return e
}

// render schedules element on the root and drains all work.
func (e *env) render(element any) {
	e.t.Helper()
	require.NoError(e.t, e.root.Render(element))
	e.sched.RunUntilIdle()
}

func (e *env) html() string {
	return render.HTML(e.container.Snapshot())
}

func (e *env) byID(id string) *memdom.Node {
	e.t.Helper()
	n := e.container.Root().Find(memdom.ByID(id))
	require.NotNil(e.t, n, "no node with id %q", id)
	return n
}

func (e *env) click(id string) {
	e.t.Helper()
	e.host.Click(e.byID(id))
	e.sched.RunUntilIdle()
}

func (e *env) lastCommit() CommitInfo {
	e.t.Helper()
	require.NotEmpty(e.t, e.commits)
	return e.commits[len(e.commits)-1]
}

type spyMetrics struct {
	mu        sync.Mutex
	units     int
	yields    int
	renders   int
	abandoned int
	commits   int
	effects   map[string]int
	eager     int
	errors    []string
}

func (m *spyMetrics) UnitOfWork() { m.mu.Lock(); m.units++; m.mu.Unlock() }
func (m *spyMetrics) Yield()      { m.mu.Lock(); m.yields++; m.mu.Unlock() }
func (m *spyMetrics) RenderCompleted(lane.Lanes, bool, time.Duration) {
	m.mu.Lock()
	m.renders++
	m.mu.Unlock()
}
func (m *spyMetrics) RenderAbandoned() { m.mu.Lock(); m.abandoned++; m.mu.Unlock() }
func (m *spyMetrics) Commit(lane.Lanes, time.Duration, int) {
	m.mu.Lock()
	m.commits++
	m.mu.Unlock()
}
func (m *spyMetrics) EffectsRun(phase string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.effects == nil {
		m.effects = make(map[string]int)
	}
	m.effects[phase] += n
}
func (m *spyMetrics) EagerBailout() { m.mu.Lock(); m.eager++; m.mu.Unlock() }
func (m *spyMetrics) Error(code string) {
	m.mu.Lock()
	m.errors = append(m.errors, code)
	m.mu.Unlock()
}
