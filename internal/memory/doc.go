// Package memory provides memory management utilities for controlling Go's
// runtime memory usage in containerized environments.
//
// Unlike GOMAXPROCS, which Go detects from cgroup CPU limits automatically,
// GOMEMLIMIT must be configured explicitly. [ConfigureFromEnv] derives it
// from the MEMORY_LIMIT environment variable, reserving headroom for libvips
// CGO allocations and poppler subprocesses. [CacheBudget] then derives the
// thumbnail cache byte budget from the configured limit.
//
// The [Monitor] provides backpressure to the render worker pool: workers
// call WaitIfPaused before each render and block while heap usage is above
// the critical water mark.
//
//	memory.ConfigureFromEnv()
//	monitor := memory.NewMonitor(memory.DefaultConfig())
//	monitor.Start()
//	defer monitor.Stop()
package memory
