package render

import (
	"context"

	"pdf-pagetool/internal/logging"
)

// Fallback chains renderers: each request is tried against the primary
// first, and only a non-timeout failure moves on to the next renderer.
// Timeouts and cancellations propagate immediately so a slow primary
// cannot double the attempt duration.
type Fallback struct {
	renderers []Renderer
}

// NewFallback creates a renderer chain. At least one renderer is required.
func NewFallback(renderers ...Renderer) *Fallback {
	return &Fallback{renderers: renderers}
}

// Render tries each renderer in order.
func (f *Fallback) Render(ctx context.Context, req Request) ([]byte, error) {
	var lastErr error
	for i, r := range f.renderers {
		data, err := r.Render(ctx, req)
		if err == nil {
			return data, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		if i < len(f.renderers)-1 {
			logging.Debug("Renderer %d failed for %s: %v, trying next", i, req, err)
		}
		lastErr = err
	}
	return nil, lastErr
}
