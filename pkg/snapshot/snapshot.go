// Package snapshot exports published commits: the rendered HTML and the
// JSON tree of a memdom container, written to a directory or to S3.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vango-dev/reconciler/pkg/memdom"
	"github.com/vango-dev/reconciler/pkg/reconciler"
	"github.com/vango-dev/reconciler/pkg/render"
)

// Record is one exported commit.
type Record struct {
	CommitID  string           `json:"commit_id"`
	RootID    string           `json:"root_id"`
	Seq       uint64           `json:"seq"`
	Lanes     string           `json:"lanes"`
	Duration  time.Duration    `json:"duration_ns"`
	Mutations []string         `json:"mutations"`
	Tree      *memdom.Snapshot `json:"tree"`
	HTML      string           `json:"-"`
}

// Name is the object name of the record below its root: the zero-padded
// snapshot sequence number.
func (r Record) Name() string {
	return fmt.Sprintf("%s/%06d", r.RootID, r.Seq)
}

// JSON returns the indented JSON document of the record.
func (r Record) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Sink stores records.
type Sink interface {
	Put(ctx context.Context, rec Record) error
}

// ErrNoContainer is returned by NewRecord for roots that do not render into
// a memdom container.
var ErrNoContainer = errors.New("snapshot: root container is not a memdom container")

// NewRecord builds the record of a commit from the snapshot its container
// published. A nil renderer renders compact HTML.
func NewRecord(info reconciler.CommitInfo, renderer *render.Renderer) (Record, error) {
	if renderer == nil {
		renderer = render.NewRenderer(render.Config{})
	}
	c, ok := info.Root.Container().(*memdom.Container)
	if !ok {
		return Record{}, ErrNoContainer
	}
	snap := c.Snapshot()
	html, err := renderer.RenderSnapshot(snap)
	if err != nil {
		return Record{}, fmt.Errorf("snapshot: render: %w", err)
	}
	return Record{
		CommitID:  info.ID,
		RootID:    info.Root.ID(),
		Seq:       snap.Seq,
		Lanes:     info.Lanes.String(),
		Duration:  info.Duration,
		Mutations: c.LastBatch().Strings(),
		Tree:      snap,
		HTML:      html,
	}, nil
}

// Exporter writes every commit it observes to its sinks. Use Observe as a
// reconciler commit observer.
type Exporter struct {
	sinks    []Sink
	renderer *render.Renderer
	logger   *slog.Logger
	timeout  time.Duration
}

// NewExporter creates an exporter writing to sinks. A nil logger means
// slog.Default().
func NewExporter(logger *slog.Logger, sinks ...Sink) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		sinks:    sinks,
		renderer: render.NewRenderer(render.Config{}),
		logger:   logger,
		timeout:  10 * time.Second,
	}
}

// Observe exports one commit. Failures are logged and do not affect the
// reconciler.
func (e *Exporter) Observe(info reconciler.CommitInfo) {
	if err := e.Export(context.Background(), info); err != nil {
		e.logger.Error("snapshot export failed", "commit", info.ID, "error", err)
	}
}

// Export writes the record of info to every sink and joins their errors.
func (e *Exporter) Export(ctx context.Context, info reconciler.CommitInfo) error {
	rec, err := NewRecord(info, e.renderer)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var errs []error
	for _, s := range e.sinks {
		if err := s.Put(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	e.logger.Debug("snapshot exported", "commit", rec.CommitID, "name", rec.Name(), "sinks", len(e.sinks))
	return errors.Join(errs...)
}
