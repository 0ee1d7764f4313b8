// Package thumbcache holds rendered thumbnails under a byte budget and an
// entry ceiling, evicting least-recently-used entries first. A TempStore
// mirrors bitmaps to a process-scoped temp directory; if the disk tier
// fails the cache degrades to memory-only with a reduced budget rather
// than failing requests.
package thumbcache
