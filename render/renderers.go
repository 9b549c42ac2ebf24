package render

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"streamlens/dashboard"
)

// FileRenderer writes one PNG per chart into Dir after every action.
// Files are replaced atomically so readers never see a partial image.
type FileRenderer struct {
	Dir string

	mu   sync.Mutex
	size Size
}

// NewFileRenderer creates the output directory if needed.
func NewFileRenderer(dir string, size Size) (*FileRenderer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create chart directory: %w", err)
	}
	return &FileRenderer{Dir: dir, size: size.orDefault()}, nil
}

// SetSize changes the size of later renders.
func (r *FileRenderer) SetSize(size Size) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.size = size.orDefault()
}

// Size returns the current render size.
func (r *FileRenderer) Size() Size {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// Path returns the file a chart is written to.
func (r *FileRenderer) Path(c dashboard.Chart) string {
	return filepath.Join(r.Dir, string(c)+".png")
}

func (r *FileRenderer) Render(ctx context.Context, view *dashboard.View) error {
	size := r.Size()
	var errs []error
	for _, c := range dashboard.Charts() {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := PNG(view, c, size)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := writeFileAtomic(r.Path(c), data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".chart-*.png")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// JSONRenderer writes each view as one JSON line.
type JSONRenderer struct {
	mu sync.Mutex
	w  io.Writer
}

func NewJSONRenderer(w io.Writer) *JSONRenderer {
	return &JSONRenderer{w: w}
}

func (r *JSONRenderer) Render(ctx context.Context, view *dashboard.View) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := json.NewEncoder(r.w).Encode(view); err != nil {
		return fmt.Errorf("failed to encode view: %w", err)
	}
	return nil
}

// LogRenderer logs a one-line summary of every view.
type LogRenderer struct {
	Logger *slog.Logger
}

func (r LogRenderer) Render(ctx context.Context, view *dashboard.View) error {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "view rendered",
		"seq", view.Seq,
		"matched", view.Matched,
		"total", view.Total,
		"flow_nodes", len(view.Flow.Nodes),
		"hierarchy", view.Hierarchy.Title,
		"platforms", len(view.Types.Counts),
	)
	return nil
}

// Multi fans a view out to several renderers. Every renderer runs; the
// errors are joined.
func Multi(renderers ...dashboard.Renderer) dashboard.Renderer {
	return dashboard.RendererFunc(func(ctx context.Context, view *dashboard.View) error {
		var errs []error
		for _, r := range renderers {
			if r == nil {
				continue
			}
			if err := r.Render(ctx, view); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}
