package render

import (
	"context"
	"errors"
	"fmt"
)

// Request describes one page rasterization: which page of which source
// file, the clockwise rotation to apply, and the bounding box the result
// must fit within.
type Request struct {
	Source   string
	Page     int
	Rotation int // 0, 90, 180 or 270 degrees clockwise
	Width    int
	Height   int
}

func (r Request) String() string {
	return fmt.Sprintf("%s page %d rot %d at %dx%d", r.Source, r.Page, r.Rotation, r.Width, r.Height)
}

// Renderer turns a page request into an encoded JPEG thumbnail. It must be
// safe to call from multiple goroutines concurrently with independent
// arguments. Implementations respect ctx cancellation on a best-effort
// basis; the pipeline enforces the per-attempt timeout regardless.
type Renderer interface {
	Render(ctx context.Context, req Request) ([]byte, error)
}

// Render failure classification. Failures are matched with errors.Is and
// are never cached, so a later retry stays possible.
var (
	// ErrNotFound means the source file does not exist or the page index
	// is out of range.
	ErrNotFound = errors.New("page not found")

	// ErrCorrupt means the source file exists but could not be parsed.
	ErrCorrupt = errors.New("source file corrupt")

	// ErrTimeout means the render attempt exceeded its deadline.
	ErrTimeout = errors.New("render timed out")

	// ErrUnsupported means no renderer can handle the source file.
	ErrUnsupported = errors.New("source file unsupported")
)

// classifyCtx maps a context error onto the render taxonomy.
func classifyCtx(ctx context.Context) error {
	switch ctx.Err() {
	case context.DeadlineExceeded:
		return ErrTimeout
	case context.Canceled:
		return ErrTimeout
	default:
		return nil
	}
}
