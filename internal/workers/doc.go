// Package workers provides utilities for determining optimal worker pool
// sizes in containerized environments.
//
// When running in a container, the number of available CPUs may be limited
// by cgroup constraints. Go 1.19+ sets GOMAXPROCS from the container CPU
// limit automatically, while runtime.NumCPU() still reports the host CPU
// count. The helpers here derive worker counts from GOMAXPROCS so that
// render and import pools respect container resource limits.
//
// Workload-specific helpers:
//
//	workers.ForCPU(8)   // rasterization: 1 worker per CPU
//	workers.ForIO(16)   // file probing: 2 workers per CPU
//	workers.ForMixed(8) // thumbnail generation: 1.5 workers per CPU
//
// All functions respect the PAGETOOL_WORKERS environment variable, allowing
// operators to override the automatic calculation.
package workers
