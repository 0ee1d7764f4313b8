package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"pdf-pagetool/internal/pages"
	"pdf-pagetool/internal/pipeline"
	"pdf-pagetool/internal/render"
	"pdf-pagetool/internal/selection"
	"pdf-pagetool/internal/thumbcache"
)

type recordingRenderer struct {
	mu   sync.Mutex
	reqs []render.Request
}

func (r *recordingRenderer) Render(ctx context.Context, req render.Request) ([]byte, error) {
	r.mu.Lock()
	r.reqs = append(r.reqs, req)
	r.mu.Unlock()
	return []byte("jpeg"), nil
}

func (r *recordingRenderer) lastRequest() (render.Request, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.reqs) == 0 {
		return render.Request{}, false
	}
	return r.reqs[len(r.reqs)-1], true
}

type testRig struct {
	engine   *Engine
	coll     *pages.Collection
	sel      *selection.Model
	cache    *thumbcache.Cache
	pipe     *pipeline.Pipeline
	renderer *recordingRenderer
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()

	coll := pages.NewCollection()
	sel := selection.NewModel(coll)
	cache := thumbcache.New(thumbcache.Config{BudgetBytes: 1 << 20}, nil)
	rr := &recordingRenderer{}
	pipe := pipeline.New(pipeline.Config{Workers: 1}, cache, rr, nil)
	t.Cleanup(pipe.Stop)

	return &testRig{
		engine:   New(coll, sel, cache, pipe),
		coll:     coll,
		sel:      sel,
		cache:    cache,
		pipe:     pipe,
		renderer: rr,
	}
}

func await(t *testing.T, ch <-chan pipeline.Result) pipeline.Result {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for thumbnail")
		return pipeline.Result{}
	}
}

func TestThumbnailUnknownPage(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t)
	_, err := rig.engine.Thumbnail(pages.Key{Source: "ghost.pdf", Page: 0}, 160, 220, pipeline.PriorityVisible)
	if !errors.Is(err, ErrUnknownPage) {
		t.Errorf("Thumbnail err = %v, want ErrUnknownPage", err)
	}
}

func TestThumbnailUsesCurrentRotation(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t)
	keys, err := rig.coll.Import("a.pdf", 1)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	rig.coll.Rotate(keys, 90)

	ch, err := rig.engine.Thumbnail(keys[0], 160, 220, pipeline.PriorityVisible)
	if err != nil {
		t.Fatalf("Thumbnail failed: %v", err)
	}
	if res := await(t, ch); res.Err != nil {
		t.Fatalf("render failed: %v", res.Err)
	}

	req, ok := rig.renderer.lastRequest()
	if !ok {
		t.Fatal("renderer never called")
	}
	if req.Rotation != 90 {
		t.Errorf("render rotation = %d, want 90", req.Rotation)
	}
}

func TestRotateInvalidatesCachedThumbnails(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t)
	keys, err := rig.coll.Import("a.pdf", 1)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	// Warm the cache at rotation 0.
	ch, err := rig.engine.Thumbnail(keys[0], 160, 220, pipeline.PriorityVisible)
	if err != nil {
		t.Fatalf("Thumbnail failed: %v", err)
	}
	res := await(t, ch)
	if res.Err != nil {
		t.Fatalf("render failed: %v", res.Err)
	}
	warmKey := thumbcache.NewKey(keys[0], 0, 220)
	if !rig.cache.Contains(warmKey) {
		t.Fatal("rotation-0 thumbnail not cached")
	}

	rig.coll.Rotate(keys, 90)

	if rig.cache.Contains(warmKey) {
		t.Error("rotation-0 thumbnail still cached after rotate")
	}
	if res.Handle.Valid() {
		t.Error("handle to rotation-0 thumbnail still valid after rotate")
	}
}

func TestDeleteInvalidatesAndPrunesSelection(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t)
	keys, err := rig.coll.Import("a.pdf", 3)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	ch, err := rig.engine.Thumbnail(keys[1], 160, 220, pipeline.PriorityVisible)
	if err != nil {
		t.Fatalf("Thumbnail failed: %v", err)
	}
	if res := await(t, ch); res.Err != nil {
		t.Fatalf("render failed: %v", res.Err)
	}

	rig.sel.Click(keys[1])
	rig.sel.CtrlClick(keys[2])

	rig.coll.Delete([]pages.Key{keys[1]})

	if rig.cache.Contains(thumbcache.NewKey(keys[1], 0, 220)) {
		t.Error("deleted page's thumbnail still cached")
	}
	if rig.sel.IsSelected(keys[1]) {
		t.Error("deleted page still selected")
	}
	if !rig.sel.IsSelected(keys[2]) {
		t.Error("surviving page dropped from selection")
	}
}

func TestGetStats(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t)
	keys, err := rig.coll.Import("a.pdf", 4)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	rig.sel.RangeDrag(keys[:2])
	rig.cache.Put(thumbcache.NewKey(keys[0], 0, 160), []byte("0123456789"))

	stats := rig.engine.GetStats()
	if stats.CollectionPages != 4 {
		t.Errorf("CollectionPages = %d, want 4", stats.CollectionPages)
	}
	if stats.SelectedPages != 2 {
		t.Errorf("SelectedPages = %d, want 2", stats.SelectedPages)
	}
	if stats.CacheEntries != 1 || stats.CacheBytes != 10 {
		t.Errorf("cache stats = %d entries / %d bytes, want 1 / 10", stats.CacheEntries, stats.CacheBytes)
	}
}

func TestChangesStreamDeliversMutations(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t)
	changes, release := rig.engine.Changes()
	defer release()

	keys, err := rig.coll.Import("a.pdf", 2)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	rig.coll.Rotate(keys[:1], 90)

	want := []pages.ChangeKind{pages.ChangeImported, pages.ChangeRotated}
	for _, kind := range want {
		select {
		case ch := <-changes:
			if ch.Kind != kind {
				t.Errorf("change kind = %s, want %s", ch.Kind, kind)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %s change", kind)
		}
	}
}

func TestWatcherInvalidatesOnSourceChange(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "a.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.7 v1"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	keys, err := rig.coll.Import(path, 1)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if err := rig.engine.StartWatcher(); err != nil {
		t.Fatalf("StartWatcher failed: %v", err)
	}
	defer rig.engine.Close()

	ck := thumbcache.NewKey(keys[0], 0, 160)
	rig.cache.Put(ck, []byte("stale"))

	if err := os.WriteFile(path, []byte("%PDF-1.7 v2"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if !rig.cache.Contains(ck) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("thumbnail still cached after source file changed")
}
