package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pdf-pagetool/internal/engine"
	"pdf-pagetool/internal/handlers"
	"pdf-pagetool/internal/importer"
	"pdf-pagetool/internal/logging"
	"pdf-pagetool/internal/memory"
	"pdf-pagetool/internal/metrics"
	"pdf-pagetool/internal/middleware"
	"pdf-pagetool/internal/pages"
	"pdf-pagetool/internal/pipeline"
	"pdf-pagetool/internal/render"
	"pdf-pagetool/internal/selection"
	"pdf-pagetool/internal/startup"
	"pdf-pagetool/internal/thumbcache"
	"pdf-pagetool/internal/workers"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	startTime := time.Now()

	// Set GOMEMLIMIT from the container limit before anything allocates
	memResult := memory.ConfigureFromEnv()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	// Initialize renderers: vips first, poppler subprocess as fallback
	startup.LogRenderInit()
	if err := render.InitVips(); err != nil {
		startup.LogFatal("Failed to initialize libvips: %v", err)
	}
	defer render.ShutdownVips()
	renderer := render.NewFallback(render.NewVipsRenderer(), render.NewPopplerRenderer())

	// Thumbnail cache with a disk-backed temp store
	budget := config.CacheBudgetBytes
	if budget <= 0 {
		budget = memory.CacheBudget(memResult)
	}
	store, err := thumbcache.NewTempStore(config.TempDir)
	if err != nil {
		startup.LogFatal("Failed to create thumbnail temp store: %v", err)
	}
	cache := thumbcache.New(thumbcache.Config{
		BudgetBytes: budget,
		MaxEntries:  config.CacheMaxEntries,
	}, store)
	defer cache.Close()
	startup.LogCacheInit(budget, config.CacheMaxEntries, store.Dir())

	// Memory monitor provides backpressure to the render workers
	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()
	defer monitor.Stop()

	// Render pipeline
	renderWorkers := config.RenderWorkers
	if renderWorkers <= 0 {
		renderWorkers = workers.ForMixed(8)
	}
	pipe := pipeline.New(pipeline.Config{
		Workers:       renderWorkers,
		RenderTimeout: config.RenderTimeout,
	}, cache, renderer, monitor)

	// Page collection, selection model and engine
	coll := pages.NewCollection()
	sel := selection.NewModel(coll)
	eng := engine.New(coll, sel, cache, pipe)
	defer eng.Close()

	if config.WatchSources {
		if err := eng.StartWatcher(); err != nil {
			logging.Warn("Source watcher unavailable: %v", err)
		}
	}

	importWorkers := config.ImportWorkers
	if importWorkers <= 0 {
		importWorkers = workers.ForIO(16)
	}
	imp := importer.New(coll, importer.PdfinfoCounter{}, importWorkers)

	// Handlers and router
	h := handlers.New(eng, imp)
	router := mux.NewRouter()
	h.RegisterRoutes(router)
	startup.LogHTTPRoutes(router)

	// Middleware: metrics innermost, then compression, access log outermost
	var handler http.Handler = router
	if config.MetricsEnabled {
		handler = middleware.Metrics(middleware.DefaultMetricsConfig())(handler)
	}
	handler = middleware.Compression(middleware.DefaultCompressionConfig())(handler)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogThumbnails = config.LogThumbnails
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler = middleware.Logger(loggingConfig)(handler)

	srv := &http.Server{
		Addr:        ":" + config.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// SSE connections stay open indefinitely
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Stats gauges and the separate metrics listener
	var collector *metrics.Collector
	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metrics.InitializeMetrics()
		collector = metrics.NewCollector(eng, 15*time.Second)
		collector.Start()

		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:    ":" + config.MetricsPort,
			Handler: metricsMux,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != http.ErrServerClosed {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	go handleShutdown(srv, metricsSrv, pipe, collector)

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

func handleShutdown(srv, metricsSrv *http.Server, pipe *pipeline.Pipeline, collector *metrics.Collector) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Stopping render pipeline")
	pipe.Stop()
	startup.LogShutdownStepComplete("Render pipeline stopped")

	if collector != nil {
		startup.LogShutdownStep("Stopping metrics collector")
		collector.Stop()
		startup.LogShutdownStepComplete("Metrics collector stopped")
	}

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownComplete()
}
