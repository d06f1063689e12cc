package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/reconciler/internal/errors"
	"github.com/vango-dev/reconciler/pkg/lane"
	"github.com/vango-dev/reconciler/pkg/reconciler"
	"github.com/vango-dev/reconciler/pkg/scheduler"
)

// FileNames are the configuration file names looked up by Load, in order.
var FileNames = []string{"fiberctl.json", "fiberctl.yaml", "fiberctl.yml"}

// Default values for configuration fields.
const (
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
	DefaultNamespace    = "reconciler"
	DefaultDevtoolsAddr = "127.0.0.1:7070"
	DefaultS3Prefix     = "commits"
)

// Config represents fiberctl configuration.
type Config struct {
	// Scheduler configures time slicing and task expiration.
	Scheduler SchedulerConfig `json:"scheduler" yaml:"scheduler"`

	// Lanes configures starvation of pending lanes.
	Lanes LanesConfig `json:"lanes" yaml:"lanes"`

	// Log configures the slog handler.
	Log LogConfig `json:"log" yaml:"log"`

	// Metrics configures the Prometheus collector.
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`

	// Devtools configures the inspector server.
	Devtools DevtoolsConfig `json:"devtools" yaml:"devtools"`

	// Snapshot configures where committed trees are exported.
	Snapshot SnapshotConfig `json:"snapshot" yaml:"snapshot"`

	// configPath is the path the config was loaded from.
	configPath string
}

// SchedulerConfig configures the cooperative scheduler.
type SchedulerConfig struct {
	// FrameInterval is the length of one time slice.
	FrameInterval Duration `json:"frameInterval,omitempty" yaml:"frameInterval,omitempty"`

	Timeouts TimeoutsConfig `json:"timeouts" yaml:"timeouts"`
}

// TimeoutsConfig holds per-priority task expiration delays.
type TimeoutsConfig struct {
	UserBlocking Duration `json:"userBlocking,omitempty" yaml:"userBlocking,omitempty"`
	Normal       Duration `json:"normal,omitempty" yaml:"normal,omitempty"`
	Low          Duration `json:"low,omitempty" yaml:"low,omitempty"`
}

// LanesConfig holds lane expiration delays.
type LanesConfig struct {
	// SyncExpiry applies to sync and continuous-input lanes.
	SyncExpiry Duration `json:"syncExpiry,omitempty" yaml:"syncExpiry,omitempty"`

	// DefaultExpiry applies to default and transition lanes.
	DefaultExpiry Duration `json:"defaultExpiry,omitempty" yaml:"defaultExpiry,omitempty"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// MetricsConfig configures the metrics collector.
type MetricsConfig struct {
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// DevtoolsConfig configures the devtools server.
type DevtoolsConfig struct {
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`
}

// SnapshotConfig configures snapshot export. Empty Dir and S3Bucket
// disable the respective sink.
type SnapshotConfig struct {
	Dir        string `json:"dir,omitempty" yaml:"dir,omitempty"`
	S3Bucket   string `json:"s3Bucket,omitempty" yaml:"s3Bucket,omitempty"`
	S3Prefix   string `json:"s3Prefix,omitempty" yaml:"s3Prefix,omitempty"`
	S3Region   string `json:"s3Region,omitempty" yaml:"s3Region,omitempty"`
	S3Endpoint string `json:"s3Endpoint,omitempty" yaml:"s3Endpoint,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Scheduler: SchedulerConfig{
			FrameInterval: Duration(scheduler.DefaultFrameInterval),
			Timeouts: TimeoutsConfig{
				UserBlocking: Duration(scheduler.DefaultTimeouts.UserBlocking),
				Normal:       Duration(scheduler.DefaultTimeouts.Normal),
				Low:          Duration(scheduler.DefaultTimeouts.Low),
			},
		},
		Lanes: LanesConfig{
			SyncExpiry:    Duration(lane.DefaultTimeouts.Sync),
			DefaultExpiry: Duration(lane.DefaultTimeouts.Default),
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Metrics: MetricsConfig{
			Namespace: DefaultNamespace,
		},
		Devtools: DevtoolsConfig{
			Addr: DefaultDevtoolsAddr,
		},
		Snapshot: SnapshotConfig{
			S3Prefix: DefaultS3Prefix,
		},
	}
}

// Load reads configuration from the specified directory. It returns the
// defaults when none of FileNames exists there.
func Load(dir string) (*Config, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return New(), nil
}

// LoadFile reads configuration from the specified file path. The format is
// chosen by extension.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E020").
				WithDetail("No configuration file at " + path).
				WithSuggestion("Create fiberctl.yaml or drop the --config flag")
		}
		return nil, errors.New("E020").Wrap(err)
	}

	cfg := New()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && err != io.EOF {
			return nil, errors.New("E020").
				WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
				WithSuggestion("Check that the file is valid YAML")
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, errors.New("E020").
				WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
				WithSuggestion("Check that the file is valid JSON")
		}
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	d := New()

	if c.Scheduler.FrameInterval == 0 {
		c.Scheduler.FrameInterval = d.Scheduler.FrameInterval
	}
	if c.Scheduler.Timeouts.UserBlocking == 0 {
		c.Scheduler.Timeouts.UserBlocking = d.Scheduler.Timeouts.UserBlocking
	}
	if c.Scheduler.Timeouts.Normal == 0 {
		c.Scheduler.Timeouts.Normal = d.Scheduler.Timeouts.Normal
	}
	if c.Scheduler.Timeouts.Low == 0 {
		c.Scheduler.Timeouts.Low = d.Scheduler.Timeouts.Low
	}

	if c.Lanes.SyncExpiry == 0 {
		c.Lanes.SyncExpiry = d.Lanes.SyncExpiry
	}
	if c.Lanes.DefaultExpiry == 0 {
		c.Lanes.DefaultExpiry = d.Lanes.DefaultExpiry
	}

	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = d.Metrics.Namespace
	}
	if c.Devtools.Addr == "" {
		c.Devtools.Addr = d.Devtools.Addr
	}
	if c.Snapshot.S3Prefix == "" {
		c.Snapshot.S3Prefix = d.Snapshot.S3Prefix
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	durations := []struct {
		name string
		d    Duration
	}{
		{"scheduler.frameInterval", c.Scheduler.FrameInterval},
		{"scheduler.timeouts.userBlocking", c.Scheduler.Timeouts.UserBlocking},
		{"scheduler.timeouts.normal", c.Scheduler.Timeouts.Normal},
		{"scheduler.timeouts.low", c.Scheduler.Timeouts.Low},
		{"lanes.syncExpiry", c.Lanes.SyncExpiry},
		{"lanes.defaultExpiry", c.Lanes.DefaultExpiry},
	}
	for _, f := range durations {
		if f.d < 0 {
			return errors.New("E021").
				WithDetail(fmt.Sprintf("%s must not be negative, got %s", f.name, f.d))
		}
	}

	if _, err := c.LogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.New("E021").
			WithDetail(fmt.Sprintf("log.format must be text or json, got %q", c.Log.Format))
	}
	return nil
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, errors.New("E021").
			WithDetail(fmt.Sprintf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}
	return level, nil
}

// Logger builds a slog.Logger writing to w in the configured format.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, err := c.LogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// SchedulerOptions converts the scheduler section into scheduler options.
func (c *Config) SchedulerOptions() []scheduler.Option {
	timeouts := scheduler.DefaultTimeouts
	timeouts.UserBlocking = c.Scheduler.Timeouts.UserBlocking.Std()
	timeouts.Normal = c.Scheduler.Timeouts.Normal.Std()
	timeouts.Low = c.Scheduler.Timeouts.Low.Std()

	return []scheduler.Option{
		scheduler.WithFrameInterval(c.Scheduler.FrameInterval.Std()),
		scheduler.WithTimeouts(timeouts),
	}
}

// LaneTimeouts returns the configured lane expiration delays.
func (c *Config) LaneTimeouts() lane.Timeouts {
	return lane.Timeouts{
		Sync:    c.Lanes.SyncExpiry.Std(),
		Default: c.Lanes.DefaultExpiry.Std(),
	}
}

// ReconcilerOptions converts the lanes section into reconciler options.
func (c *Config) ReconcilerOptions() []reconciler.Option {
	return []reconciler.Option{
		reconciler.WithLaneTimeouts(c.LaneTimeouts()),
	}
}

// YAML encodes the configuration as YAML.
func (c *Config) YAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, errors.New("E020").Wrap(err)
	}
	if err := enc.Close(); err != nil {
		return nil, errors.New("E020").Wrap(err)
	}
	return buf.Bytes(), nil
}

// Duration is a time.Duration written as a Go duration string ("5ms").
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts a duration string or a number of nanoseconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return d.parse(s)
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid duration %s", data)
	}
	*d = Duration(n)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// UnmarshalYAML accepts a duration string or a number of nanoseconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var n int64
	if err := value.Decode(&n); err == nil {
		*d = Duration(n)
		return nil
	}
	return d.parse(value.Value)
}

func (d *Duration) parse(s string) error {
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q", s)
	}
	*d = Duration(v)
	return nil
}
