package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"pdf-pagetool/internal/logging"
	"pdf-pagetool/internal/memory"
	"pdf-pagetool/internal/metrics"
	"pdf-pagetool/internal/render"
	"pdf-pagetool/internal/thumbcache"
)

const (
	// DefaultWorkers bounds concurrent renders when no explicit count is
	// configured.
	DefaultWorkers = 4

	// DefaultRenderTimeout is the per-attempt deadline for one render.
	DefaultRenderTimeout = 30 * time.Second
)

// ErrCanceled is delivered to subscribers whose request was cancelled
// before a result could be produced.
var ErrCanceled = errors.New("thumbnail request canceled")

// ErrStopped is delivered when the pipeline shuts down with requests
// still pending.
var ErrStopped = errors.New("pipeline stopped")

// Priority orders the render queue. Visible requests always dispatch
// before prefetch requests; within a tier dispatch is FIFO.
type Priority int

const (
	PriorityVisible Priority = iota
	PriorityPrefetch
)

func (p Priority) String() string {
	if p == PriorityVisible {
		return "visible"
	}
	return "prefetch"
}

// Result is what a subscriber receives: either a cache handle for the
// rendered bitmap or a classified error. Exactly one Result is delivered
// per subscription channel.
type Result struct {
	Key    thumbcache.Key
	Handle *thumbcache.Handle
	Err    error
}

// Config tunes the pipeline.
type Config struct {
	Workers       int
	RenderTimeout time.Duration
}

type job struct {
	key      thumbcache.Key
	req      render.Request
	priority Priority
	subs     []chan Result
	running  bool
}

// Pipeline renders thumbnails asynchronously through a fixed worker pool.
// Requests for a key already queued or rendering coalesce onto the same
// job, so each distinct key renders at most once at a time. Successful
// renders are cached; failures are delivered but never cached, keeping
// retries possible.
type Pipeline struct {
	cfg      Config
	cache    *thumbcache.Cache
	renderer render.Renderer
	monitor  *memory.Monitor

	mu     sync.Mutex
	cond   *sync.Cond
	jobs   map[thumbcache.Key]*job
	queues [2][]*job
	closed bool

	wg sync.WaitGroup
}

// New creates and starts a pipeline. monitor may be nil to disable
// memory backpressure.
func New(cfg Config, cache *thumbcache.Cache, renderer render.Renderer, monitor *memory.Monitor) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = DefaultRenderTimeout
	}

	p := &Pipeline{
		cfg:      cfg,
		cache:    cache,
		renderer: renderer,
		monitor:  monitor,
		jobs:     make(map[thumbcache.Key]*job),
	}
	p.cond = sync.NewCond(&p.mu)

	metrics.PipelineWorkers.Set(float64(cfg.Workers))
	logging.Info("Pipeline: starting %d render workers, %s per-attempt timeout", cfg.Workers, cfg.RenderTimeout)

	p.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go p.worker(i)
	}
	return p
}

// Request asks for the thumbnail identified by key, rendered per req.
// It returns immediately with a channel that will deliver exactly one
// Result. A cache hit resolves synchronously; otherwise the request is
// coalesced onto an existing job or enqueued at the given priority. A
// visible request for a key queued as prefetch promotes the job.
func (p *Pipeline) Request(key thumbcache.Key, req render.Request, priority Priority) <-chan Result {
	ch := make(chan Result, 1)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		ch <- Result{Key: key, Err: ErrStopped}
		return ch
	}

	// Checked under the lock: a render finishing between an unlocked miss
	// and the enqueue would re-render a key that is already cached.
	if h, ok := p.cache.Get(key); ok {
		metrics.PipelineRequestsTotal.WithLabelValues("cached").Inc()
		ch <- Result{Key: key, Handle: h}
		return ch
	}

	if j, ok := p.jobs[key]; ok {
		j.subs = append(j.subs, ch)
		if !j.running && priority < j.priority {
			p.promoteLocked(j, priority)
		}
		metrics.PipelineRequestsTotal.WithLabelValues("coalesced").Inc()
		return ch
	}

	j := &job{key: key, req: req, priority: priority, subs: []chan Result{ch}}
	p.jobs[key] = j
	p.queues[priority] = append(p.queues[priority], j)
	p.publishDepthLocked()
	metrics.PipelineRequestsTotal.WithLabelValues("enqueued").Inc()
	p.cond.Signal()
	return ch
}

// Cancel drops any pending request for the key. Queued jobs are removed
// outright; a job already rendering runs to completion and its output is
// still cached, but nothing is delivered. Subscribers receive
// ErrCanceled either way. Cancelling an unknown key is a no-op.
func (p *Pipeline) Cancel(key thumbcache.Key) {
	p.mu.Lock()
	j, ok := p.jobs[key]
	if !ok {
		p.mu.Unlock()
		return
	}

	subs := j.subs
	j.subs = nil
	if !j.running {
		delete(p.jobs, key)
		p.dequeueLocked(j)
		p.publishDepthLocked()
	}
	p.mu.Unlock()

	metrics.PipelineCancelsTotal.Inc()
	for _, ch := range subs {
		ch <- Result{Key: key, Err: ErrCanceled}
	}
}

// CancelSource cancels every pending request drawn from one source file.
func (p *Pipeline) CancelSource(source string) {
	p.cancelMatching(func(k thumbcache.Key) bool { return k.Page.Source == source })
}

// CancelWhere cancels every pending request whose key matches the
// predicate.
func (p *Pipeline) CancelWhere(pred func(thumbcache.Key) bool) {
	p.cancelMatching(pred)
}

func (p *Pipeline) cancelMatching(pred func(thumbcache.Key) bool) {
	p.mu.Lock()
	var keys []thumbcache.Key
	for key := range p.jobs {
		if pred(key) {
			keys = append(keys, key)
		}
	}
	p.mu.Unlock()

	for _, key := range keys {
		p.Cancel(key)
	}
}

// Pending returns the number of jobs queued or rendering.
func (p *Pipeline) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.jobs)
}

// Stop shuts the pipeline down. Queued jobs are failed with ErrStopped;
// running renders finish first.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true

	var orphans []*job
	for _, tier := range p.queues {
		orphans = append(orphans, tier...)
	}
	p.queues[PriorityVisible] = nil
	p.queues[PriorityPrefetch] = nil
	for _, j := range orphans {
		delete(p.jobs, j.key)
	}
	p.publishDepthLocked()
	p.cond.Broadcast()
	p.mu.Unlock()

	for _, j := range orphans {
		for _, ch := range j.subs {
			ch <- Result{Key: j.key, Err: ErrStopped}
		}
	}

	p.wg.Wait()
	logging.Info("Pipeline: stopped")
}

// promoteLocked moves a queued job to a higher tier, keeping its place at
// the back of the new tier.
func (p *Pipeline) promoteLocked(j *job, to Priority) {
	p.dequeueLocked(j)
	j.priority = to
	p.queues[to] = append(p.queues[to], j)
	p.publishDepthLocked()
}

func (p *Pipeline) dequeueLocked(j *job) {
	tier := p.queues[j.priority]
	for i, queued := range tier {
		if queued == j {
			p.queues[j.priority] = append(tier[:i], tier[i+1:]...)
			return
		}
	}
}

// nextLocked pops the highest-priority queued job, or nil.
func (p *Pipeline) nextLocked() *job {
	for pr := PriorityVisible; pr <= PriorityPrefetch; pr++ {
		if len(p.queues[pr]) > 0 {
			j := p.queues[pr][0]
			p.queues[pr] = p.queues[pr][1:]
			return j
		}
	}
	return nil
}

func (p *Pipeline) publishDepthLocked() {
	metrics.PipelineQueueDepth.WithLabelValues("visible").Set(float64(len(p.queues[PriorityVisible])))
	metrics.PipelineQueueDepth.WithLabelValues("prefetch").Set(float64(len(p.queues[PriorityPrefetch])))
}

func (p *Pipeline) worker(id int) {
	defer p.wg.Done()

	for {
		p.mu.Lock()
		for !p.closed && len(p.queues[PriorityVisible]) == 0 && len(p.queues[PriorityPrefetch]) == 0 {
			p.cond.Wait()
		}
		if p.closed {
			p.mu.Unlock()
			return
		}
		j := p.nextLocked()
		if j == nil {
			p.mu.Unlock()
			continue
		}
		j.running = true
		p.publishDepthLocked()
		p.mu.Unlock()

		if p.monitor != nil && !p.monitor.WaitIfPaused() {
			p.finish(j, nil, ErrStopped)
			continue
		}

		data, err := p.renderAttempt(j)
		p.finish(j, data, err)
	}
}

// renderAttempt runs one bounded render.
func (p *Pipeline) renderAttempt(j *job) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.RenderTimeout)
	defer cancel()

	metrics.PipelineInFlight.Inc()
	start := time.Now()
	data, err := p.renderer.Render(ctx, j.req)
	elapsed := time.Since(start)
	metrics.PipelineInFlight.Dec()
	metrics.PipelineRenderDuration.Observe(elapsed.Seconds())

	switch {
	case err == nil:
		metrics.PipelineRendersTotal.WithLabelValues("success").Inc()
	case errors.Is(err, render.ErrTimeout) || errors.Is(err, context.DeadlineExceeded):
		err = render.ErrTimeout
		metrics.PipelineRendersTotal.WithLabelValues("timeout").Inc()
		logging.Warn("Pipeline: render timed out after %s for %s", elapsed.Round(time.Millisecond), j.req)
	default:
		metrics.PipelineRendersTotal.WithLabelValues("error").Inc()
		logging.Debug("Pipeline: render failed for %s: %v", j.req, err)
	}
	return data, err
}

// finish caches a successful render, removes the job, and delivers the
// result to every subscriber that has not cancelled.
func (p *Pipeline) finish(j *job, data []byte, err error) {
	var handle *thumbcache.Handle
	if err == nil {
		// Cache even when all subscribers cancelled: the work is done and
		// the next request for this key should hit.
		handle = p.cache.Put(j.key, data)
	}

	p.mu.Lock()
	delete(p.jobs, j.key)
	subs := j.subs
	j.subs = nil
	p.mu.Unlock()

	for _, ch := range subs {
		ch <- Result{Key: j.key, Handle: handle, Err: err}
	}
}
