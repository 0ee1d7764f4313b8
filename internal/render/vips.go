package render

import (
	"context"
	"fmt"
	"os"
	"sync"

	"pdf-pagetool/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
)

var (
	vipsInitialized bool
	vipsInitMutex   sync.Mutex
)

// InitVips initializes the libvips library.
// This should be called once at startup, before any VipsRenderer is used.
func InitVips() error {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return nil
	}

	// Map our log level to vips log level. Configure vips logging BEFORE
	// Startup() to respect the LOG_LEVEL environment variable.
	var vipsLogLevel vips.LogLevel
	var logHandler func(string, vips.LogLevel, string)

	switch logging.GetLevel() {
	case logging.LevelDebug:
		vipsLogLevel = vips.LogLevelInfo
		logHandler = func(domain string, level vips.LogLevel, msg string) {
			switch level {
			case vips.LogLevelError, vips.LogLevelCritical:
				logging.Error("[%s] %s", domain, msg)
			case vips.LogLevelWarning:
				logging.Warn("[%s] %s", domain, msg)
			default:
				logging.Debug("[%s] %s", domain, msg)
			}
		}
	case logging.LevelInfo:
		vipsLogLevel = vips.LogLevelWarning
		logHandler = func(domain string, level vips.LogLevel, msg string) {
			switch level {
			case vips.LogLevelError, vips.LogLevelCritical:
				logging.Error("[%s] %s", domain, msg)
			case vips.LogLevelWarning:
				logging.Warn("[%s] %s", domain, msg)
			}
		}
	default:
		vipsLogLevel = vips.LogLevelError
		logHandler = func(domain string, level vips.LogLevel, msg string) {
			if level <= vips.LogLevelError {
				logging.Error("[%s] %s", domain, msg)
			}
		}
	}

	vips.LoggingSettings(logHandler, vipsLogLevel)

	// Conservative memory settings; the render pool provides the
	// parallelism, not vips itself.
	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
		ReportLeaks:      false,
		CacheTrace:       false,
		CollectStats:     false,
	})

	vipsInitialized = true
	logging.Info("libvips initialized successfully (version: %s)", vips.Version)
	return nil
}

// ShutdownVips cleans up libvips resources
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		logging.Info("libvips shutdown complete")
	}
}

// VipsRenderer rasterizes PDF pages through libvips' PDF loader.
type VipsRenderer struct {
	// Density is the rasterization DPI before downscaling (default 144).
	Density int

	// Quality is the JPEG export quality (default 80).
	Quality int
}

// NewVipsRenderer creates a renderer with default density and quality.
func NewVipsRenderer() *VipsRenderer {
	return &VipsRenderer{Density: 144, Quality: 80}
}

// Render loads one PDF page, applies rotation, fits it within the request
// bounds and encodes it as JPEG.
func (v *VipsRenderer) Render(ctx context.Context, req Request) ([]byte, error) {
	if err := classifyCtx(ctx); err != nil {
		return nil, err
	}

	if _, err := os.Stat(req.Source); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, req.Source)
	}

	params := vips.NewImportParams()
	params.Page.Set(req.Page)
	params.NumPages.Set(1)
	density := v.Density
	if density <= 0 {
		density = 144
	}
	params.Density.Set(density)

	img, err := vips.LoadImageFromFile(req.Source, params)
	if err != nil {
		logging.Debug("vips load failed for %s: %v", req, err)
		return nil, fmt.Errorf("%w: vips load: %v", ErrCorrupt, err)
	}
	defer img.Close()

	if angle, ok := vipsAngle(req.Rotation); !ok {
		return nil, fmt.Errorf("%w: rotation %d", ErrUnsupported, req.Rotation)
	} else if angle != vips.Angle0 {
		if err := img.Rotate(angle); err != nil {
			return nil, fmt.Errorf("%w: vips rotate: %v", ErrCorrupt, err)
		}
	}

	if err := img.Thumbnail(req.Width, req.Height, vips.InterestingNone); err != nil {
		return nil, fmt.Errorf("%w: vips thumbnail: %v", ErrCorrupt, err)
	}

	if err := classifyCtx(ctx); err != nil {
		return nil, err
	}

	ep := vips.NewJpegExportParams()
	if v.Quality > 0 {
		ep.Quality = v.Quality
	}
	buf, _, err := img.ExportJpeg(ep)
	if err != nil {
		return nil, fmt.Errorf("%w: jpeg export: %v", ErrCorrupt, err)
	}

	return buf, nil
}

func vipsAngle(rotation int) (vips.Angle, bool) {
	switch rotation {
	case 0:
		return vips.Angle0, true
	case 90:
		return vips.Angle90, true
	case 180:
		return vips.Angle180, true
	case 270:
		return vips.Angle270, true
	default:
		return vips.Angle0, false
	}
}
