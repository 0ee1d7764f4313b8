package startup

import (
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/mux"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "METRICS_PORT", "TEMP_DIR", "CACHE_BUDGET_BYTES",
		"CACHE_MAX_ENTRIES", "RENDER_WORKERS", "IMPORT_WORKERS",
		"RENDER_TIMEOUT", "LOG_THUMBNAILS", "LOG_HEALTH_CHECKS",
		"METRICS_ENABLED", "WATCH_SOURCES",
	} {
		t.Setenv(key, "")
	}

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Port != "8080" {
		t.Errorf("Port = %q, want 8080", config.Port)
	}
	if config.MetricsPort != "9090" {
		t.Errorf("MetricsPort = %q, want 9090", config.MetricsPort)
	}
	if config.RenderTimeout != 30*time.Second {
		t.Errorf("RenderTimeout = %v, want 30s", config.RenderTimeout)
	}
	if config.CacheBudgetBytes != 0 {
		t.Errorf("CacheBudgetBytes = %d, want 0 (derived later)", config.CacheBudgetBytes)
	}
	if !config.MetricsEnabled {
		t.Error("MetricsEnabled = false, want true by default")
	}
	if !config.WatchSources {
		t.Error("WatchSources = false, want true by default")
	}
	if config.LogThumbnails {
		t.Error("LogThumbnails = true, want false by default")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "3000")
	t.Setenv("CACHE_BUDGET_BYTES", "1048576")
	t.Setenv("CACHE_MAX_ENTRIES", "64")
	t.Setenv("RENDER_WORKERS", "2")
	t.Setenv("RENDER_TIMEOUT", "5s")
	t.Setenv("WATCH_SOURCES", "false")
	t.Setenv("TEMP_DIR", t.TempDir())

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Port != "3000" {
		t.Errorf("Port = %q, want 3000", config.Port)
	}
	if config.CacheBudgetBytes != 1048576 {
		t.Errorf("CacheBudgetBytes = %d, want 1048576", config.CacheBudgetBytes)
	}
	if config.CacheMaxEntries != 64 {
		t.Errorf("CacheMaxEntries = %d, want 64", config.CacheMaxEntries)
	}
	if config.RenderWorkers != 2 {
		t.Errorf("RenderWorkers = %d, want 2", config.RenderWorkers)
	}
	if config.RenderTimeout != 5*time.Second {
		t.Errorf("RenderTimeout = %v, want 5s", config.RenderTimeout)
	}
	if config.WatchSources {
		t.Error("WatchSources = true, want false")
	}
}

func TestLoadConfigInvalidValues(t *testing.T) {
	t.Setenv("RENDER_TIMEOUT", "not-a-duration")
	t.Setenv("CACHE_BUDGET_BYTES", "many")
	t.Setenv("METRICS_ENABLED", "perhaps")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.RenderTimeout != 30*time.Second {
		t.Errorf("RenderTimeout = %v, want 30s fallback", config.RenderTimeout)
	}
	if config.CacheBudgetBytes != 0 {
		t.Errorf("CacheBudgetBytes = %d, want 0 fallback", config.CacheBudgetBytes)
	}
	if !config.MetricsEnabled {
		t.Error("MetricsEnabled = false, want true fallback")
	}
}

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	if info.Version == "" {
		t.Error("Version is empty")
	}
	if info.GoVersion == "" {
		t.Error("GoVersion is empty")
	}
	if info.OS == "" || info.Arch == "" {
		t.Error("OS/Arch not populated")
	}
}

func TestGetRoutes(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/api/pages", func(http.ResponseWriter, *http.Request) {}).Methods(http.MethodGet)
	router.HandleFunc("/api/import", func(http.ResponseWriter, *http.Request) {}).Methods(http.MethodPost)
	router.HandleFunc("/healthz", func(http.ResponseWriter, *http.Request) {}).Methods(http.MethodGet)

	routes, err := GetRoutes(router)
	if err != nil {
		t.Fatalf("GetRoutes failed: %v", err)
	}
	if len(routes) != 3 {
		t.Fatalf("got %d routes, want 3", len(routes))
	}

	found := false
	for _, r := range routes {
		if r.Path == "/api/import" && r.Method == http.MethodPost {
			found = true
		}
	}
	if !found {
		t.Error("POST /api/import not in route list")
	}
}

func TestGetRouteGroup(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/pages", "api/pages"},
		{"/api/thumbnail/{key}", "api/thumbnail"},
		{"/healthz", "healthz"},
		{"/", ""},
	}
	for _, tt := range tests {
		if got := getRouteGroup(tt.path); got != tt.want {
			t.Errorf("getRouteGroup(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
