package thumbcache

import (
	"crypto/md5" //nolint:gosec // MD5 used for cache file naming, not security
	"fmt"

	"pdf-pagetool/internal/pages"
)

// bucketStep is the size quantum for thumbnail targets. Snapping requests
// to the nearest step prevents cache churn from sub-pixel resize jitter.
const bucketStep = 10

// Key addresses one cached rendering: the page identity, the rotation it
// was rendered at, and the quantized target size.
type Key struct {
	Page     pages.Key
	Rotation int
	Bucket   int
}

// NewKey builds a cache key from a page, its rotation, and the requested
// longest-edge size in pixels.
func NewKey(page pages.Key, rotation, sizePx int) Key {
	return Key{Page: page, Rotation: rotation, Bucket: BucketFor(sizePx)}
}

// BucketFor snaps a pixel size to the nearest bucket.
func BucketFor(px int) int {
	if px < bucketStep {
		return bucketStep
	}
	return (px + bucketStep/2) / bucketStep * bucketStep
}

func (k Key) String() string {
	return fmt.Sprintf("%s/r%d/s%d", k.Page, k.Rotation, k.Bucket)
}

// fileName returns the deterministic temp store file name for the key.
func (k Key) fileName() string {
	hash := md5.Sum([]byte(k.String())) //nolint:gosec // cache file naming
	return fmt.Sprintf("%x.jpg", hash)
}
