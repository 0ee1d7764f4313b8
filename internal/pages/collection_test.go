package pages

import (
	"errors"
	"math/rand"
	"sort"
	"sync"
	"testing"
)

func keysOf(entries []Entry) []Key {
	keys := make([]Key, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	return keys
}

func TestImport(t *testing.T) {
	t.Parallel()

	c := NewCollection()
	keys, err := c.Import("a.pdf", 3)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if len(keys) != 3 {
		t.Fatalf("Expected 3 keys, got %d", len(keys))
	}
	for i, k := range keys {
		if k.Source != "a.pdf" || k.Page != i || k.Copy != 0 {
			t.Errorf("Key %d = %v, want a.pdf page %d copy 0", i, k, i)
		}
	}
	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3", c.Len())
	}
}

func TestImportRejectsEmptyDocument(t *testing.T) {
	t.Parallel()

	c := NewCollection()
	if _, err := c.Import("a.pdf", 0); !errors.Is(err, ErrEmptyDocument) {
		t.Errorf("Import with 0 pages: err = %v, want ErrEmptyDocument", err)
	}
}

func TestImportRejectsDuplicate(t *testing.T) {
	t.Parallel()

	c := NewCollection()
	if _, err := c.Import("a.pdf", 2); err != nil {
		t.Fatalf("First import failed: %v", err)
	}
	if _, err := c.Import("a.pdf", 2); !errors.Is(err, ErrDuplicateImport) {
		t.Errorf("Second import: err = %v, want ErrDuplicateImport", err)
	}
}

func TestImportCopyProducesDistinctKeys(t *testing.T) {
	t.Parallel()

	c := NewCollection()
	first, err := c.Import("a.pdf", 2)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	second, err := c.ImportCopy("a.pdf", 2)
	if err != nil {
		t.Fatalf("ImportCopy failed: %v", err)
	}
	third, err := c.ImportCopy("a.pdf", 2)
	if err != nil {
		t.Fatalf("Second ImportCopy failed: %v", err)
	}

	seen := make(map[Key]bool)
	for _, k := range append(append(append([]Key{}, first...), second...), third...) {
		if seen[k] {
			t.Errorf("Duplicate key across imports: %v", k)
		}
		seen[k] = true
	}
	if c.Len() != 6 {
		t.Errorf("Len() = %d, want 6", c.Len())
	}
}

func TestMove(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		move   []int // entry positions to move (by original index)
		target int
		want   []int // expected original indices in final order
	}{
		{"single to front", []int{3}, 0, []int{3, 0, 1, 2, 4}},
		{"single to end", []int{0}, 4, []int{1, 2, 3, 4, 0}},
		{"block to middle", []int{0, 1}, 2, []int{2, 3, 0, 1, 4}},
		{"non-contiguous block keeps relative order", []int{0, 2, 4}, 0, []int{0, 2, 4, 1, 3}},
		{"target clamped high", []int{1}, 99, []int{0, 2, 3, 4, 1}},
		{"target clamped negative", []int{4}, -5, []int{4, 0, 1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := NewCollection()
			keys, err := c.Import("a.pdf", 5)
			if err != nil {
				t.Fatalf("Import failed: %v", err)
			}

			var moveKeys []Key
			for _, i := range tt.move {
				moveKeys = append(moveKeys, keys[i])
			}
			c.Move(moveKeys, tt.target)

			got := keysOf(c.Snapshot())
			if len(got) != len(tt.want) {
				t.Fatalf("Snapshot has %d entries, want %d", len(got), len(tt.want))
			}
			for i, wantIdx := range tt.want {
				if got[i] != keys[wantIdx] {
					t.Errorf("Position %d = %v, want %v", i, got[i], keys[wantIdx])
				}
			}
		})
	}
}

// TestMovePermutationInvariant verifies that arbitrary sequences of moves
// never create or lose entries, only reorder them.
func TestMovePermutationInvariant(t *testing.T) {
	t.Parallel()

	c := NewCollection()
	var all []Key
	for _, src := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		keys, err := c.Import(src, 4)
		if err != nil {
			t.Fatalf("Import %s failed: %v", src, err)
		}
		all = append(all, keys...)
	}

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		n := rng.Intn(4) + 1
		var block []Key
		for j := 0; j < n; j++ {
			block = append(block, all[rng.Intn(len(all))])
		}
		c.Move(block, rng.Intn(len(all)+2)-1)

		got := keysOf(c.Snapshot())
		if len(got) != len(all) {
			t.Fatalf("After move %d: %d entries, want %d", i, len(got), len(all))
		}
		seen := make(map[Key]bool, len(got))
		for _, k := range got {
			if seen[k] {
				t.Fatalf("After move %d: duplicate key %v", i, k)
			}
			seen[k] = true
		}
	}
}

func TestMoveNoOpEmitsNoChange(t *testing.T) {
	t.Parallel()

	c := NewCollection()
	keys, _ := c.Import("a.pdf", 3)

	var changes []Change
	c.Observe(func(ch Change) {
		if ch.Kind == ChangeReordered {
			changes = append(changes, ch)
		}
	})

	// Block already at target position
	c.Move([]Key{keys[0], keys[1]}, 0)
	if len(changes) != 0 {
		t.Errorf("No-op move emitted %d reorder changes", len(changes))
	}

	got := keysOf(c.Snapshot())
	for i, k := range got {
		if k != keys[i] {
			t.Errorf("Order changed by no-op move at %d: %v", i, k)
		}
	}
}

func TestRotate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		deltas []int
		want   int
	}{
		{"single quarter turn", []int{90}, 90},
		{"cumulative wraps", []int{90, 90, 90, 90}, 0},
		{"negative delta normalized", []int{-90}, 270},
		{"half then quarter", []int{180, 90}, 270},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := NewCollection()
			keys, _ := c.Import("a.pdf", 1)
			for _, d := range tt.deltas {
				c.Rotate(keys, d)
			}
			got, ok := c.Rotation(keys[0])
			if !ok {
				t.Fatal("Key missing after rotate")
			}
			if got != tt.want {
				t.Errorf("Rotation = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRotateToleratesUnknownKeys(t *testing.T) {
	t.Parallel()

	c := NewCollection()
	keys, _ := c.Import("a.pdf", 2)
	c.Delete(keys[:1])

	// Rotating a deleted key must not panic or error; the surviving key
	// still rotates.
	c.Rotate(keys, 90)
	if got, _ := c.Rotation(keys[1]); got != 90 {
		t.Errorf("Surviving key rotation = %d, want 90", got)
	}
}

func TestDeleteReturnsRemovedSubset(t *testing.T) {
	t.Parallel()

	c := NewCollection()
	keys, _ := c.Import("a.pdf", 3)

	removed := c.Delete([]Key{keys[0], keys[2]})
	if len(removed) != 2 {
		t.Fatalf("Delete removed %d, want 2", len(removed))
	}

	// Second delete of the same keys removes nothing
	removed = c.Delete([]Key{keys[0], keys[2], keys[1]})
	if len(removed) != 1 || removed[0] != keys[1] {
		t.Errorf("Second delete removed %v, want [%v]", removed, keys[1])
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

func TestSnapshotIsolation(t *testing.T) {
	t.Parallel()

	c := NewCollection()
	keys, _ := c.Import("a.pdf", 2)

	snap := c.Snapshot()
	c.Rotate(keys, 90)
	c.Delete(keys[:1])

	if len(snap) != 2 || snap[0].Rotation != 0 {
		t.Error("Snapshot mutated by later operations")
	}
}

func TestChangeNotifications(t *testing.T) {
	t.Parallel()

	c := NewCollection()
	ch, release := c.Subscribe()
	defer release()

	keys, _ := c.Import("a.pdf", 2)
	c.Rotate(keys[:1], 90)
	c.Move(keys[1:], 0)
	c.Delete(keys[:1])

	wantKinds := []ChangeKind{ChangeImported, ChangeRotated, ChangeReordered, ChangeDeleted}
	for _, want := range wantKinds {
		got := <-ch
		if got.Kind != want {
			t.Errorf("Change kind = %s, want %s", got.Kind, want)
		}
	}
}

func TestSubscribeRelease(t *testing.T) {
	t.Parallel()

	c := NewCollection()
	released, release := c.Subscribe()
	kept, keptRelease := c.Subscribe()
	defer keptRelease()

	release()
	release() // releasing twice is safe

	c.obsMu.RLock()
	remaining := len(c.subs)
	c.obsMu.RUnlock()
	if remaining != 1 {
		t.Fatalf("subscriber count = %d after release, want 1", remaining)
	}

	c.Import("a.pdf", 1)

	select {
	case got := <-kept:
		if got.Kind != ChangeImported {
			t.Errorf("Change kind = %s, want %s", got.Kind, ChangeImported)
		}
	default:
		t.Error("surviving subscriber received no change")
	}

	select {
	case got := <-released:
		t.Errorf("released subscriber received %s change", got.Kind)
	default:
	}
}

func TestConcurrentMutations(t *testing.T) {
	t.Parallel()

	c := NewCollection()
	var all []Key
	for i := 0; i < 8; i++ {
		keys, err := c.Import(srcName(i), 5)
		if err != nil {
			t.Fatalf("Import failed: %v", err)
		}
		all = append(all, keys...)
	}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for i := 0; i < 50; i++ {
				k := all[rng.Intn(len(all))]
				switch rng.Intn(3) {
				case 0:
					c.Move([]Key{k}, rng.Intn(len(all)))
				case 1:
					c.Rotate([]Key{k}, 90)
				case 2:
					c.Snapshot()
				}
			}
		}(int64(g))
	}
	wg.Wait()

	// Multiset of keys unchanged
	got := keysOf(c.Snapshot())
	if len(got) != len(all) {
		t.Fatalf("Len = %d after concurrent mutations, want %d", len(got), len(all))
	}
	sort.Slice(got, func(i, j int) bool { return got[i].String() < got[j].String() })
	want := append([]Key{}, all...)
	sort.Slice(want, func(i, j int) bool { return want[i].String() < want[j].String() })
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("Key multiset changed: %v != %v", got[i], want[i])
		}
	}
}

func srcName(i int) string {
	return string(rune('a'+i)) + ".pdf"
}

func TestKeyString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key  Key
		want string
	}{
		{Key{Source: "a.pdf", Page: 0}, "a.pdf#0"},
		{Key{Source: "a.pdf", Page: 3, Copy: 2}, "a.pdf@2#3"},
	}
	for _, tt := range tests {
		if got := tt.key.String(); got != tt.want {
			t.Errorf("%+v.String() = %q, want %q", tt.key, got, tt.want)
		}
	}
}
