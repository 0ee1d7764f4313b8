package startup

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"pdf-pagetool/internal/logging"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// Config holds all application configuration
type Config struct {
	Port        string
	MetricsPort string

	// TempDir is the parent directory for the thumbnail temp store. Empty
	// selects the system temp dir.
	TempDir string

	CacheBudgetBytes int64
	CacheMaxEntries  int

	RenderWorkers int
	ImportWorkers int
	RenderTimeout time.Duration

	LogThumbnails   bool
	LogHealthChecks bool
	MetricsEnabled  bool
	WatchSources    bool
}

// LoadConfig loads and validates configuration from environment variables.
// A .env file in the working directory is read first, without overriding
// variables already set in the environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		logging.Info("Loaded configuration from .env file")
	}

	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	port := getEnv("PORT", "8080")
	metricsPort := getEnv("METRICS_PORT", "9090")
	tempDir := getEnv("TEMP_DIR", "")
	cacheBudget := getEnvInt64("CACHE_BUDGET_BYTES", 0)
	cacheMaxEntries := int(getEnvInt64("CACHE_MAX_ENTRIES", 0))
	renderWorkers := int(getEnvInt64("RENDER_WORKERS", 0))
	importWorkers := int(getEnvInt64("IMPORT_WORKERS", 0))
	renderTimeoutStr := getEnv("RENDER_TIMEOUT", "30s")
	logThumbnails := getEnvBool("LOG_THUMBNAILS", false)
	logHealthChecks := getEnvBool("LOG_HEALTH_CHECKS", true)
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)
	watchSources := getEnvBool("WATCH_SOURCES", true)

	logging.Info("  PORT:                %s", port)
	logging.Info("  METRICS_PORT:        %s", metricsPort)
	logging.Info("  METRICS_ENABLED:     %v", metricsEnabled)
	logging.Info("  TEMP_DIR:            %s", orDefault(tempDir, "(system temp)"))
	logging.Info("  CACHE_BUDGET_BYTES:  %s", orDefault(formatInt(cacheBudget), "(derived from memory limit)"))
	logging.Info("  CACHE_MAX_ENTRIES:   %s", orDefault(formatInt(int64(cacheMaxEntries)), "(default)"))
	logging.Info("  RENDER_WORKERS:      %s", orDefault(formatInt(int64(renderWorkers)), "(default)"))
	logging.Info("  IMPORT_WORKERS:      %s", orDefault(formatInt(int64(importWorkers)), "(default)"))
	logging.Info("  RENDER_TIMEOUT:      %s", renderTimeoutStr)
	logging.Info("  WATCH_SOURCES:       %v", watchSources)
	logging.Info("  LOG_THUMBNAILS:      %v", logThumbnails)
	logging.Info("  LOG_HEALTH_CHECKS:   %v", logHealthChecks)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	renderTimeout, err := time.ParseDuration(renderTimeoutStr)
	if err != nil || renderTimeout <= 0 {
		logging.Warn("  Invalid RENDER_TIMEOUT, using default: 30s")
		renderTimeout = 30 * time.Second
	}

	if tempDir != "" {
		tempDir, err = filepath.Abs(tempDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve temp directory path: %w", err)
		}
		if err := ensureDirectory(tempDir, "temp"); err != nil {
			return nil, fmt.Errorf("temp directory error: %w", err)
		}
		logging.Debug("  Testing temp directory write access...")
		if err := testWriteAccess(tempDir); err != nil {
			return nil, fmt.Errorf("temp directory is not writable: %w", err)
		}
		logging.Info("  [OK] Temp directory is writable: %s", tempDir)
	}

	return &Config{
		Port:             port,
		MetricsPort:      metricsPort,
		TempDir:          tempDir,
		CacheBudgetBytes: cacheBudget,
		CacheMaxEntries:  cacheMaxEntries,
		RenderWorkers:    renderWorkers,
		ImportWorkers:    importWorkers,
		RenderTimeout:    renderTimeout,
		LogThumbnails:    logThumbnails,
		LogHealthChecks:  logHealthChecks,
		MetricsEnabled:   metricsEnabled,
		WatchSources:     watchSources,
	}, nil
}

// LogRenderInit logs renderer initialization and checks the poppler
// fallback tools.
func LogRenderInit() {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("RENDERER INITIALIZATION")
	logging.Info("------------------------------------------------------------")

	for _, tool := range []string{"pdftoppm", "pdfinfo"} {
		if path, err := exec.LookPath(tool); err != nil {
			logging.Warn("  %s not found in PATH, poppler fallback degraded", tool)
		} else {
			logging.Debug("  %s path: %s", tool, path)
			logging.Info("  [OK] %s is available", tool)
		}
	}
}

// LogCacheInit logs thumbnail cache initialization.
func LogCacheInit(budgetBytes int64, maxEntries int, tempDir string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("THUMBNAIL CACHE")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Byte budget:   %d (%.1f MB)", budgetBytes, float64(budgetBytes)/(1024*1024))
	logging.Info("  Entry ceiling: %d", maxEntries)
	logging.Info("  Temp store:    %s", tempDir)
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			// Route might not have methods specified
			methods = []string{"*"}
		}

		name := route.GetName()

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   name,
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if !logging.IsDebugEnabled() {
		return
	}

	routes, err := GetRoutes(router)
	if err != nil {
		logging.Warn("error walking routes: %v", err)
	}

	logging.Debug("  Registered routes (%d total):", len(routes))

	groups := make(map[string][]RouteInfo)
	for _, route := range routes {
		prefix := getRouteGroup(route.Path)
		groups[prefix] = append(groups[prefix], route)
	}

	groupKeys := make([]string, 0, len(groups))
	for k := range groups {
		groupKeys = append(groupKeys, k)
	}
	sort.Strings(groupKeys)

	for _, group := range groupKeys {
		if group != "" {
			logging.Debug("  [%s]", group)
		} else {
			logging.Debug("  [root]")
		}
		for _, route := range groups[group] {
			logging.Debug("    %-6s %s", route.Method, route.Path)
		}
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	if len(parts) == 0 {
		return ""
	}

	first := parts[0]
	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}
	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    API:           http://0.0.0.0:%s/api", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
    ____  ____  ______   ____                  ______            __
   / __ \/ __ \/ ____/  / __ \____ _____ ____ /_  __/___  ____  / /
  / /_/ / / / / /_     / /_/ / __ '/ __ '/ _ \ / / / __ \/ __ \/ /
 / ____/ /_/ / __/    / ____/ /_/ / /_/ /  __// / / /_/ / /_/ / /
/_/   /_____/_/      /_/    \__,_/\__, /\___//_/  \____/\____/_/
                                 /____/
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil || parsed < 0 {
		logging.Warn("Invalid numeric value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func formatInt(n int64) string {
	if n == 0 {
		return ""
	}
	return strconv.FormatInt(n, 10)
}
