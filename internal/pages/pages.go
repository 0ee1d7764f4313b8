package pages

import (
	"errors"
	"fmt"
)

// Key is the stable identity of a page: the source file it came from, the
// zero-based page index within that file, and a per-import copy namespace.
// Copy is 0 for the first import of a file; intentional re-imports of the
// same file get a fresh copy number so their keys never collide.
type Key struct {
	Source string `json:"source"`
	Page   int    `json:"page"`
	Copy   int    `json:"copy,omitempty"`
}

// String returns a compact human-readable form, e.g. "a.pdf#3" or "a.pdf@2#3".
func (k Key) String() string {
	if k.Copy == 0 {
		return fmt.Sprintf("%s#%d", k.Source, k.Page)
	}
	return fmt.Sprintf("%s@%d#%d", k.Source, k.Copy, k.Page)
}

// Entry is one page in the collection. Position in the collection sequence
// is the display order; it is not stored on the entry.
type Entry struct {
	Key      Key `json:"key"`
	Rotation int `json:"rotation"`
}

// ChangeKind classifies a collection mutation.
type ChangeKind string

// Change kinds reported on the notification surface.
const (
	ChangeImported  ChangeKind = "imported"
	ChangeReordered ChangeKind = "reordered"
	ChangeRotated   ChangeKind = "rotated"
	ChangeDeleted   ChangeKind = "deleted"
)

// Change describes one collection mutation and the keys it affected.
type Change struct {
	Kind ChangeKind `json:"kind"`
	Keys []Key      `json:"keys"`
}

// Import errors surfaced by the collection. The importer layer adds file
// level classifications (not found, unreadable) on top of these.
var (
	// ErrEmptyDocument is returned when an import carries zero pages.
	ErrEmptyDocument = errors.New("document has no pages")

	// ErrDuplicateImport is returned when a source file is already fully
	// imported. Use ImportCopy to include a file a second time.
	ErrDuplicateImport = errors.New("source file already imported")
)

// normalizeRotation maps an arbitrary cumulative delta onto {0, 90, 180, 270}.
func normalizeRotation(deg int) int {
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	return deg
}
