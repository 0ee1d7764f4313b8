package workers

import (
	"runtime"
	"testing"
)

func TestCount(t *testing.T) {
	available := runtime.GOMAXPROCS(0)

	tests := []struct {
		name       string
		multiplier float64
		limit      int
		want       int
	}{
		{"cpu bound no limit", 1.0, 0, available},
		{"limit of one", 4.0, 1, 1},
		{"zero multiplier floors to one", 0.0, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Count(tt.multiplier, tt.limit); got != tt.want {
				t.Errorf("Count(%v, %d) = %d, want %d", tt.multiplier, tt.limit, got, tt.want)
			}
		})
	}
}

func TestCountEnvOverride(t *testing.T) {
	t.Setenv("PAGETOOL_WORKERS", "3")

	if got := Count(1.0, 0); got != 3 {
		t.Errorf("Count with PAGETOOL_WORKERS=3 = %d, want 3", got)
	}

	// Limit still caps the override
	if got := Count(1.0, 2); got != 2 {
		t.Errorf("Count with PAGETOOL_WORKERS=3 and limit 2 = %d, want 2", got)
	}
}

func TestCountEnvOverrideInvalid(t *testing.T) {
	t.Setenv("PAGETOOL_WORKERS", "not-a-number")

	want := runtime.GOMAXPROCS(0)
	if got := Count(1.0, 0); got != want {
		t.Errorf("Count with invalid override = %d, want %d", got, want)
	}
}

func TestHelpers(t *testing.T) {
	if got := ForCPU(1); got != 1 {
		t.Errorf("ForCPU(1) = %d, want 1", got)
	}
	if got := ForIO(0); got < 1 {
		t.Errorf("ForIO(0) = %d, want >= 1", got)
	}
	if got := ForMixed(0); got < 1 {
		t.Errorf("ForMixed(0) = %d, want >= 1", got)
	}
}
