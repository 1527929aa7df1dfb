// Package media renders catalog thumbnails.
//
// A ThumbnailGenerator turns an image or video file into a JPEG no larger
// than its configured bounds (600x400 by default) entirely in memory:
//   - Images: decoded with imaging and the golang.org/x/image codecs, or
//     with libvips when enabled, falling back to ffmpeg for formats neither
//     can read
//   - Videos: a single frame extracted with ffmpeg
//
// Files that cannot be decoded yield ErrDecode; files that are neither
// images nor videos yield ErrUnsupported. Callers treat both as "no
// thumbnail" rather than as failures.
package media
