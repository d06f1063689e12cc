package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/reconciler/internal/config"
	ferrors "github.com/vango-dev/reconciler/internal/errors"
	"github.com/vango-dev/reconciler/pkg/devtools"
	"github.com/vango-dev/reconciler/pkg/reconciler"
	"github.com/vango-dev/reconciler/pkg/scheduler"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestReplayScenario(t *testing.T) {
	s, err := ParseScenario([]byte(reorderScenario))
	require.NoError(t, err)

	var observed []reconciler.CommitInfo
	var out bytes.Buffer
	err = replayScenario(&out, s, config.New(), quietLogger(), scheduler.NewRealClock(), func(info reconciler.CommitInfo) {
		observed = append(observed, info)
	})
	require.NoError(t, err)

	report := out.String()
	assert.True(t, strings.HasPrefix(report, "== reorder (4 steps)\n"))
	assert.Contains(t, report, "-- mount: 1 commit(s)")
	assert.Contains(t, report, "-- reorder: 1 commit(s)")
	assert.Contains(t, report, `<ul id="list"><li>A</li><li>B</li><li>C</li></ul>`)
	assert.Contains(t, report, `<ul id="list"><li>C</li><li>A</li><li>D</li></ul>`)
	assert.Contains(t, report, "-> n1")
	assert.Contains(t, report, "(empty)")
	assert.Contains(t, report, "lanes=Transition1")
	assert.GreaterOrEqual(t, len(observed), 3)
}

func TestReplayScenarioGolden(t *testing.T) {
	s, err := ParseScenario([]byte(reorderScenario))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, replayScenario(&out, s, config.New(), quietLogger(), scheduler.NewFakeClock()))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "reorder", out.Bytes())
}

func TestRunCommand(t *testing.T) {
	path := writeScenario(t, t.TempDir(), reorderScenario)

	out, err := execute(t, "run", path)
	require.NoError(t, err)
	assert.Contains(t, out, "== reorder (4 steps)")
	assert.Contains(t, out, "placements=")
}

func TestRunCommandExportsToDirectory(t *testing.T) {
	path := writeScenario(t, t.TempDir(), reorderScenario)
	exportDir := filepath.Join(t.TempDir(), "snapshots")

	_, err := execute(t, "run", "--export", exportDir, path)
	require.NoError(t, err)

	files, err := filepath.Glob(filepath.Join(exportDir, "*", "*.json"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(files), 3)
	html, err := filepath.Glob(filepath.Join(exportDir, "*", "*.html"))
	require.NoError(t, err)
	assert.Len(t, html, len(files))
}

func TestRunCommandReportsScenarioErrors(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "steps: []\n")
	_, err := execute(t, "run", path)
	assert.ErrorContains(t, err, "has no steps")

	_, err = execute(t, "run")
	assert.Error(t, err)
}

func TestNewExporter(t *testing.T) {
	cfg := config.New()

	exp, err := newExporter("", cfg, quietLogger())
	require.NoError(t, err)
	assert.Nil(t, exp)

	_, err = newExporter("s3://", cfg, quietLogger())
	assert.ErrorContains(t, err, "no bucket")

	exp, err = newExporter("s3://ui-commits/runs", cfg, quietLogger())
	require.NoError(t, err)
	assert.NotNil(t, exp)

	cfg.Snapshot.Dir = t.TempDir()
	exp, err = newExporter("", cfg, quietLogger())
	require.NoError(t, err)
	assert.NotNil(t, exp)
}

func TestConfigCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fiberctl.yaml"), []byte("log:\n  level: debug\n"), 0644))

	out, err := execute(t, "config", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "level: debug")
	assert.Contains(t, out, "frameInterval: 5ms")

	out, err = execute(t, "config", "--log-level", "warn", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "level: warn")

	_, err = execute(t, "config", "--log-level", "loud", dir)
	assert.Equal(t, "E021", ferrors.CodeOf(err))

	_, err = execute(t, "config", "--config", filepath.Join(dir, "missing.json"))
	assert.Equal(t, "E020", ferrors.CodeOf(err))
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)

	out, err = execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "fiberctl dev")
	assert.Contains(t, out, "Go version:")
}

func TestWatchFile(t *testing.T) {
	path := writeScenario(t, t.TempDir(), reorderScenario)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- watchFile(ctx, path, quietLogger(), func() { calls.Add(1) })
	}()

	assert.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte(reorderScenario), 0644)
		return calls.Load() > 0
	}, 5*time.Second, 150*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestServeScenarioReplaysOnLoop(t *testing.T) {
	path := writeScenario(t, t.TempDir(), `
name: live
steps:
  - render: {tag: ul, props: {id: l}, children: [{tag: li, key: a, text: A}]}
  - render: {tag: ul, props: {id: l}, children: [{tag: li, key: b, text: B}, {tag: li, key: a, text: A}]}
`)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.New(scheduler.WithLogger(quietLogger()))
	loop := scheduler.NewLoop(sched)

	inspector := devtools.New(devtools.WithLogger(quietLogger()))
	defer inspector.Close()
	p := newPlayer(sched, quietLogger(), []func(reconciler.CommitInfo){inspector.Observe})
	require.NoError(t, inspector.Track(p.root))
	go loop.Run(ctx)

	srv := httptest.NewServer(inspector.Handler())
	defer srv.Close()

	reload := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- serveScenario(ctx, loop, p, inspector, path, time.Millisecond, reload, quietLogger())
	}()

	html := func() string {
		resp, err := http.Get(srv.URL + "/html")
		if err != nil {
			return ""
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return string(body)
	}
	assert.Eventually(t, func() bool {
		return html() == `<ul id="l"><li>B</li><li>A</li></ul>`
	}, 5*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		return len(inspector.Hub().History()) == 2
	}, 5*time.Second, 10*time.Millisecond)

	reload <- struct{}{}
	assert.Eventually(t, func() bool {
		return len(inspector.Hub().History()) >= 3
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("serveScenario did not stop")
	}
}
