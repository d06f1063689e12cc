package vtest

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/vango-dev/reconciler/pkg/memdom"
	"github.com/vango-dev/reconciler/pkg/reconciler"
	"github.com/vango-dev/reconciler/pkg/render"
	"github.com/vango-dev/reconciler/pkg/scheduler"
)

// Harness is one root rendering into a memdom container.
type Harness struct {
	t         testing.TB
	Host      *memdom.Host
	Scheduler *scheduler.ManualHost
	Clock     *scheduler.FakeClock
	R         *reconciler.Reconciler
	Container *memdom.Container
	Root      *reconciler.Root

	commits []reconciler.CommitInfo
	errs    []error
}

// New creates a harness. Logging is discarded; opts are applied after the
// harness's own options.
func New(t testing.TB, opts ...reconciler.Option) *Harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := &Harness{t: t}
	h.Host = memdom.NewHost(memdom.WithLogger(logger))
	h.Scheduler, h.Clock = scheduler.NewManualHost(scheduler.WithLogger(logger))
	base := []reconciler.Option{
		reconciler.WithLogger(logger),
		reconciler.WithCommitObserver(func(info reconciler.CommitInfo) {
			h.commits = append(h.commits, info)
		}),
		reconciler.WithErrorHandler(func(_ *reconciler.Root, err error) {
			h.errs = append(h.errs, err)
		}),
	}
	h.R = reconciler.New(h.Host, h.Scheduler, append(base, opts...)...)
	h.Container = h.Host.NewContainer()
	h.Root = h.R.CreateContainer(h.Container)
	return h
}

// Render schedules element on the root and drains all work.
func (h *Harness) Render(element any) {
	h.t.Helper()
	if err := h.Root.Render(element); err != nil {
		h.t.Fatalf("render: %v", err)
	}
	h.Scheduler.RunUntilIdle()
}

// Act runs fn and drains the work it scheduled.
func (h *Harness) Act(fn func()) {
	h.Scheduler.Act(fn)
}

// HTML returns the published tree as compact HTML.
func (h *Harness) HTML() string {
	return render.HTML(h.Container.Snapshot())
}

// Find returns the node with the given id attribute, failing the test when
// there is none.
func (h *Harness) Find(id string) *memdom.Node {
	h.t.Helper()
	n := h.Container.Root().Find(memdom.ByID(id))
	if n == nil {
		h.t.Fatalf("no node with id %q in:\n%s", id, truncate(h.HTML(), 500))
	}
	return n
}

// Click dispatches a click on the node with the given id and drains the
// resulting work.
func (h *Harness) Click(id string) {
	h.t.Helper()
	target := h.Find(id)
	h.Act(func() { h.Host.Click(target) })
}

// Commits returns the commits observed so far.
func (h *Harness) Commits() []reconciler.CommitInfo {
	return h.commits
}

// Errors returns the render and commit failures reported so far.
func (h *Harness) Errors() []error {
	return h.errs
}

// ExpectContains asserts that the rendered output contains expected.
func ExpectContains(t testing.TB, h *Harness, expected string) {
	t.Helper()
	html := h.HTML()
	if !strings.Contains(html, expected) {
		t.Errorf("expected rendered output to contain %q, got:\n%s", expected, truncate(html, 500))
	}
}

// ExpectNotContains asserts that the rendered output does not contain
// unexpected.
func ExpectNotContains(t testing.TB, h *Harness, unexpected string) {
	t.Helper()
	html := h.HTML()
	if strings.Contains(html, unexpected) {
		t.Errorf("expected rendered output to NOT contain %q, got:\n%s", unexpected, truncate(html, 500))
	}
}

// ExpectElement asserts that the rendered output contains a tag.
func ExpectElement(t testing.TB, h *Harness, tag string) {
	t.Helper()
	html := h.HTML()
	if !strings.Contains(html, "<"+tag) {
		t.Errorf("expected rendered output to contain <%s> element, got:\n%s", tag, truncate(html, 500))
	}
}

// ExpectAttribute asserts that the rendered output contains an attribute
// value.
func ExpectAttribute(t testing.TB, h *Harness, attr, value string) {
	t.Helper()
	html := h.HTML()
	needle := attr + `="` + value + `"`
	if !strings.Contains(html, needle) {
		t.Errorf("expected attribute %s=%q not found, got:\n%s", attr, value, truncate(html, 500))
	}
}

// truncate truncates a string to max length with ellipsis.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
