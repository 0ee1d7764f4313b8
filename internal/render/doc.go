// Package render defines the rasterization port of the engine: a Renderer
// turns (source file, page index, rotation, target size) into an encoded
// JPEG thumbnail.
//
// Two implementations are provided. VipsRenderer drives libvips' PDF
// loader in-process and is the fast path. PopplerRenderer shells out to
// pdftoppm and decodes its PNG output, serving as the fallback for files
// vips cannot load. NewFallback chains them.
//
// Failures are classified into ErrNotFound, ErrCorrupt, ErrTimeout and
// ErrUnsupported; callers match with errors.Is.
package render
