package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"pdf-pagetool/internal/logging"
	"pdf-pagetool/internal/metrics"
	"pdf-pagetool/internal/pages"
)

// DefaultWorkers bounds concurrent probes when no explicit count is
// configured. Probing is I/O bound so this need not track CPU count.
const DefaultWorkers = 4

var (
	// ErrFileNotFound means a requested path does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrUnreadable means the file exists but its page count could not be
	// determined.
	ErrUnreadable = errors.New("file unreadable")
)

// PageCounter probes a PDF for its page count.
type PageCounter interface {
	CountPages(ctx context.Context, path string) (int, error)
}

// Result reports the outcome for one input path. Exactly one of Keys or
// Err is meaningful.
type Result struct {
	Path string
	Keys []pages.Key
	Err  error
}

// Importer probes batches of PDF files concurrently and appends their
// pages to the collection strictly in input order, regardless of which
// probe finishes first.
type Importer struct {
	coll    *pages.Collection
	counter PageCounter
	workers int
}

// New creates an importer over the collection. workers <= 0 selects
// DefaultWorkers.
func New(coll *pages.Collection, counter PageCounter, workers int) *Importer {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	metrics.ImporterWorkers.Set(float64(workers))
	return &Importer{coll: coll, counter: counter, workers: workers}
}

// probe carries one path's probe outcome from a worker to the committer.
type probe struct {
	pageCount int
	err       error
	done      chan struct{}
}

// ImportAll imports the given paths. Probing runs on the worker pool;
// commits happen one at a time as a contiguous prefix of the input
// completes, so page order in the collection always matches input order.
// The returned slice is parallel to paths. A file that fails leaves the
// collection untouched for that path and does not stop the batch.
func (im *Importer) ImportAll(ctx context.Context, paths []string) []Result {
	start := time.Now()
	metrics.ImporterRunsTotal.Inc()
	logging.Info("Importing %d files with %d workers", len(paths), im.workers)

	probes := make([]*probe, len(paths))
	for i := range probes {
		probes[i] = &probe{done: make(chan struct{})}
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(im.workers)
	for w := 0; w < im.workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				p := probes[i]
				p.pageCount, p.err = im.probeFile(ctx, paths[i])
				close(p.done)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range paths {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Commit in input order: wait on slot i before touching slot i+1.
	results := make([]Result, len(paths))
	for i, path := range paths {
		results[i] = Result{Path: path}

		select {
		case <-probes[i].done:
		case <-ctx.Done():
			results[i].Err = ctx.Err()
			continue
		}

		if err := probes[i].err; err != nil {
			results[i].Err = err
			metrics.ImporterFilesTotal.WithLabelValues(probeStatus(err)).Inc()
			logging.Warn("Import failed for %s: %v", path, err)
			continue
		}

		keys, err := im.coll.Import(path, probes[i].pageCount)
		if err != nil {
			results[i].Err = err
			metrics.ImporterFilesTotal.WithLabelValues(probeStatus(err)).Inc()
			logging.Warn("Import rejected for %s: %v", path, err)
			continue
		}
		results[i].Keys = keys
		metrics.ImporterFilesTotal.WithLabelValues("success").Inc()
		metrics.ImporterPagesTotal.Add(float64(len(keys)))
	}

	wg.Wait()
	elapsed := time.Since(start)
	metrics.ImporterLastRunDuration.Set(elapsed.Seconds())
	logging.Info("Import of %d files finished in %s", len(paths), elapsed.Round(time.Millisecond))
	return results
}

// probeFile validates the path and determines its page count.
func (im *Importer) probeFile(ctx context.Context, path string) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return 0, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%w: %s is a directory", ErrUnreadable, path)
	}

	n, err := im.counter.CountPages(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if n <= 0 {
		return 0, pages.ErrEmptyDocument
	}
	return n, nil
}

func probeStatus(err error) string {
	switch {
	case errors.Is(err, ErrFileNotFound):
		return "not_found"
	case errors.Is(err, pages.ErrEmptyDocument):
		return "empty"
	case errors.Is(err, pages.ErrDuplicateImport):
		return "duplicate"
	default:
		return "unreadable"
	}
}
