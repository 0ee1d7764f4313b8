package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"pdf-pagetool/internal/logging"

	_ "image/png" // pdftoppm output decoder

	"github.com/disintegration/imaging"
)

// PopplerRenderer rasterizes PDF pages with the poppler pdftoppm utility.
// It is the fallback for files libvips' loader chokes on, and works
// anywhere poppler-utils is installed.
type PopplerRenderer struct {
	// Quality is the JPEG encode quality (default 80).
	Quality int
}

// NewPopplerRenderer creates a renderer with default quality.
func NewPopplerRenderer() *PopplerRenderer {
	return &PopplerRenderer{Quality: 80}
}

// Render shells out to pdftoppm for one page, decodes the PNG it emits,
// then rotates and fits with the imaging library.
func (p *PopplerRenderer) Render(ctx context.Context, req Request) ([]byte, error) {
	if err := classifyCtx(ctx); err != nil {
		return nil, err
	}

	if _, err := os.Stat(req.Source); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, req.Source)
	}

	if _, err := exec.LookPath("pdftoppm"); err != nil {
		return nil, fmt.Errorf("%w: pdftoppm not found", ErrUnsupported)
	}

	// pdftoppm pages are 1-based; "-" streams a single page to stdout.
	pageArg := strconv.Itoa(req.Page + 1)
	scaleTo := req.Width
	if req.Height > scaleTo {
		scaleTo = req.Height
	}

	cmd := exec.CommandContext(ctx, "pdftoppm",
		"-png",
		"-f", pageArg,
		"-l", pageArg,
		"-scale-to", strconv.Itoa(scaleTo),
		"-singlefile",
		req.Source,
		"-",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := classifyCtx(ctx); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, classifyPopplerError(err, stderr.String(), req)
	}

	if stdout.Len() == 0 {
		return nil, fmt.Errorf("%w: pdftoppm produced no output for %s", ErrNotFound, req)
	}

	logging.Debug("pdftoppm output size: %d bytes for %s", stdout.Len(), req)

	img, _, err := image.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("%w: decode pdftoppm output: %v", ErrCorrupt, err)
	}

	// imaging's RotateN functions turn counter-clockwise; our rotations
	// are clockwise.
	switch req.Rotation {
	case 0:
	case 90:
		img = imaging.Rotate270(img)
	case 180:
		img = imaging.Rotate180(img)
	case 270:
		img = imaging.Rotate90(img)
	default:
		return nil, fmt.Errorf("%w: rotation %d", ErrUnsupported, req.Rotation)
	}

	thumb := imaging.Fit(img, req.Width, req.Height, imaging.Lanczos)

	quality := p.Quality
	if quality <= 0 {
		quality = 80
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("%w: encode thumbnail: %v", ErrCorrupt, err)
	}

	return buf.Bytes(), nil
}

// classifyPopplerError maps a pdftoppm failure onto the render taxonomy
// using its stderr output.
func classifyPopplerError(err error, stderr string, req Request) error {
	lower := strings.ToLower(stderr)
	switch {
	case strings.Contains(lower, "wrong page range"):
		return fmt.Errorf("%w: %s", ErrNotFound, req)
	case strings.Contains(lower, "may not be a pdf"), strings.Contains(lower, "syntax error"):
		return fmt.Errorf("%w: %s", ErrCorrupt, req)
	case strings.Contains(lower, "encrypted"):
		return fmt.Errorf("%w: %s is encrypted", ErrUnsupported, req.Source)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("%w: pdftoppm exit %d: %s", ErrCorrupt, exitErr.ExitCode(), strings.TrimSpace(stderr))
	}
	return fmt.Errorf("%w: pdftoppm: %v", ErrCorrupt, err)
}
