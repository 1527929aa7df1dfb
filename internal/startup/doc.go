// Package startup loads configuration and build information for the dam
// command.
//
// # Configuration
//
// [LoadConfig] layers, lowest precedence first:
//
//   - built-in defaults ([Default])
//   - the optional TOML file <root>/.dam.toml
//   - environment variables
//
// Command-line flags are applied on top by the caller. The TOML file
// rejects unknown keys:
//
//	opener = "xdg-open"
//	metrics_textfile = "/var/lib/node_exporter/dam.prom"
//
//	[thumbnails]
//	enabled = true
//	width = 600
//	height = 400
//	quality = 85
//	vips = false
//
// Supported environment variables:
//
//   - DAM_THUMBNAILS: Render thumbnails during scan (default: true)
//   - DAM_THUMBNAIL_WIDTH, DAM_THUMBNAIL_HEIGHT: Thumbnail bounds (default: 600x400)
//   - DAM_THUMBNAIL_QUALITY: JPEG quality 1-100 (default: 85)
//   - DAM_VIPS: Render images with libvips (default: false)
//   - DAM_OPENER: Command used to open files (default: platform opener)
//   - DAM_METRICS_TEXTFILE: Write Prometheus metrics to this file after each command
//   - LOG_LEVEL, DEBUG: See package logging
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo]:
//
//	go build -ldflags "-X dam/internal/startup.Version=1.2.0 -X dam/internal/startup.Commit=$(git rev-parse --short HEAD)"
package startup
