// Package memory sets the Go soft memory limit for catalog scans.
//
// Scans decode whole images to render thumbnails, so a large photo can
// briefly need several hundred megabytes. On small machines and in
// containers the heap can be bounded with the memory_limit setting or
// DAM_MEMORY_LIMIT:
//
//	memory_limit = "512MiB"
//
// The value is applied with [runtime/debug.SetMemoryLimit] at a ratio of
// [DefaultMemoryRatio], leaving room for libvips and FFmpeg, which
// allocate outside the Go heap. An explicit GOMEMLIMIT always wins.
package memory
