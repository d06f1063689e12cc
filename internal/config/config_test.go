package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/reconciler/internal/errors"
	"github.com/vango-dev/reconciler/pkg/lane"
	"github.com/vango-dev/reconciler/pkg/scheduler"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestNew(t *testing.T) {
	cfg := New()

	assert.Equal(t, scheduler.DefaultFrameInterval, cfg.Scheduler.FrameInterval.Std())
	assert.Equal(t, lane.DefaultTimeouts, cfg.LaneTimeouts())
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.Equal(t, DefaultLogFormat, cfg.Log.Format)
	assert.Equal(t, DefaultNamespace, cfg.Metrics.Namespace)
	assert.Equal(t, DefaultDevtoolsAddr, cfg.Devtools.Addr)
	assert.NoError(t, cfg.Validate())
}

func TestLoadWithoutFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, cfg.Path())
	assert.Equal(t, New().Scheduler, cfg.Scheduler)
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "fiberctl.yaml", `
scheduler:
  frameInterval: 2ms
  timeouts:
    normal: 1s
lanes:
  defaultExpiry: 30s
log:
  level: debug
  format: json
snapshot:
  dir: ./out
  s3Bucket: ui-commits
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Path())
	assert.Equal(t, 2*time.Millisecond, cfg.Scheduler.FrameInterval.Std())
	assert.Equal(t, time.Second, cfg.Scheduler.Timeouts.Normal.Std())
	assert.Equal(t, scheduler.DefaultTimeouts.UserBlocking, cfg.Scheduler.Timeouts.UserBlocking.Std())
	assert.Equal(t, lane.Timeouts{Sync: lane.DefaultTimeouts.Sync, Default: 30 * time.Second}, cfg.LaneTimeouts())
	assert.Equal(t, "./out", cfg.Snapshot.Dir)
	assert.Equal(t, "ui-commits", cfg.Snapshot.S3Bucket)
	assert.Equal(t, DefaultS3Prefix, cfg.Snapshot.S3Prefix)

	level, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadJSONTakesPrecedence(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "fiberctl.yaml", "log:\n  level: error\n")
	writeFile(t, dir, "fiberctl.json", `{"log": {"level": "warn"}, "lanes": {"syncExpiry": 1000000}}`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, time.Millisecond, cfg.Lanes.SyncExpiry.Std())
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Equal(t, "E020", errors.CodeOf(err))

	bad := writeFile(t, dir, "bad.json", `{"log": `)
	_, err = LoadFile(bad)
	assert.Equal(t, "E020", errors.CodeOf(err))

	unknown := writeFile(t, dir, "unknown.yml", "colour: blue\n")
	_, err = LoadFile(unknown)
	assert.Equal(t, "E020", errors.CodeOf(err))

	badDuration := writeFile(t, dir, "dur.yaml", "scheduler:\n  frameInterval: soon\n")
	_, err = LoadFile(badDuration)
	assert.Equal(t, "E020", errors.CodeOf(err))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative frame", func(c *Config) { c.Scheduler.FrameInterval = -1 }},
		{"negative expiry", func(c *Config) { c.Lanes.SyncExpiry = Duration(-time.Second) }},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			assert.Equal(t, "E021", errors.CodeOf(cfg.Validate()))
		})
	}
}

func TestEmptyYAMLUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "fiberctl.yml", "")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, DefaultLogFormat, cfg.Log.Format)
}

func TestLogger(t *testing.T) {
	cfg := New()
	cfg.Log.Format = "json"
	cfg.Log.Level = "warn"

	var buf bytes.Buffer
	logger := cfg.Logger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", 1)

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}

func TestSchedulerOptions(t *testing.T) {
	cfg := New()
	cfg.Scheduler.FrameInterval = Duration(time.Millisecond)

	clock := scheduler.NewFakeClock()
	opts := append(cfg.SchedulerOptions(), scheduler.WithClock(clock))
	s := scheduler.New(opts...)

	var yielded bool
	s.ScheduleCallback(scheduler.NormalPriority, func(bool) scheduler.Callback {
		clock.Advance(2 * time.Millisecond)
		yielded = s.ShouldYield()
		return nil
	})
	s.RunSlice()
	assert.True(t, yielded)
	assert.Len(t, cfg.ReconcilerOptions(), 1)
}

func TestYAMLRoundTrip(t *testing.T) {
	cfg := New()
	cfg.Snapshot.Dir = "snaps"

	data, err := cfg.YAML()
	require.NoError(t, err)
	assert.Contains(t, string(data), "frameInterval: 5ms")

	dir := t.TempDir()
	writeFile(t, dir, "fiberctl.yaml", string(data))
	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg.Snapshot, loaded.Snapshot)
	assert.Equal(t, cfg.Scheduler, loaded.Scheduler)
}
