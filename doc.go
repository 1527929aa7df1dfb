// Command dam catalogs a directory of photos, videos and other files.
//
// Every non-hidden file under the catalog root is recorded in a SQLite
// store kept in the hidden ".dam" file at the root, and moved into a
// layout derived from its creation date:
//
//	<root>/<year>/<Mon_DD>/<name>
//
// Images and videos get a JPEG thumbnail stored alongside the entry.
//
// # Usage
//
//	dam init                  create the catalog in the current directory
//	dam scan                  catalog and sort new files
//	dam list [--json]         list cataloged files
//	dam find <name>           print the path of a file by name substring
//	dam open <name>           open a file with the system viewer
//	dam info                  show catalog details
//	dam thumbnail <name> -o f write a stored thumbnail
//	dam version               show version information
//
// Global flags: -d/--dir selects the catalog root (default "."),
// -v/--verbose enables debug logging, and --metrics-textfile writes
// Prometheus metrics for the node_exporter textfile collector.
//
// # Configuration
//
// An optional <root>/.dam.toml adjusts thumbnails and the opener:
//
//	opener = "feh"
//	metrics_textfile = "/var/lib/node_exporter/dam.prom"
//	memory_limit = "512MiB"
//
//	[thumbnails]
//	enabled = true
//	width = 600
//	height = 400
//	quality = 85
//	vips = false
//
// DAM_THUMBNAILS, DAM_THUMBNAIL_WIDTH, DAM_THUMBNAIL_HEIGHT,
// DAM_THUMBNAIL_QUALITY, DAM_VIPS, DAM_OPENER, DAM_METRICS_TEXTFILE and
// DAM_MEMORY_LIMIT override the file. LOG_LEVEL and DEBUG control logging.
//
// # Build Requirements
//
// CGO is required for SQLite and libvips. FFmpeg is optional and enables
// video thumbnails.
package main
