package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileSink writes records below a directory as <root>/<seq>.html and
// <root>/<seq>.json.
type FileSink struct {
	dir string
}

// NewFileSink creates a FileSink, creating dir if needed.
func NewFileSink(dir string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileSink{dir: dir}, nil
}

// Dir returns the root directory of the sink.
func (s *FileSink) Dir() string { return s.dir }

func (s *FileSink) Put(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	base := filepath.Join(s.dir, filepath.FromSlash(rec.Name()))
	if err := os.MkdirAll(filepath.Dir(base), 0755); err != nil {
		return err
	}
	doc, err := rec.JSON()
	if err != nil {
		return fmt.Errorf("snapshot: encode %s: %w", rec.Name(), err)
	}
	if err := os.WriteFile(base+".json", doc, 0644); err != nil {
		return err
	}
	return os.WriteFile(base+".html", []byte(rec.HTML), 0644)
}
