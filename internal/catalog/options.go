package catalog

import (
	"dam/internal/filesystem"
	"dam/internal/identity"
	"dam/internal/launcher"
	"dam/internal/media"
)

// Thumbnailer renders a JPEG preview of a file.
type Thumbnailer interface {
	Generate(path string) ([]byte, error)
}

// Option configures a Catalog.
type Option func(*options)

type options struct {
	inspector   identity.Inspector
	thumbnailer Thumbnailer
	launcher    launcher.Launcher
	thumbnails  bool
	retry       filesystem.RetryConfig
}

func defaultOptions() options {
	return options{
		inspector:  identity.FileInspector{},
		launcher:   launcher.System{},
		thumbnails: true,
		retry:      filesystem.DefaultRetryConfig(),
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.thumbnailer == nil && o.thumbnails {
		o.thumbnailer = media.NewThumbnailGenerator(media.DefaultOptions())
	}
	return o
}

// WithInspector replaces the filesystem inspector.
func WithInspector(in identity.Inspector) Option {
	return func(o *options) { o.inspector = in }
}

// WithThumbnailer replaces the thumbnail generator.
func WithThumbnailer(t Thumbnailer) Option {
	return func(o *options) { o.thumbnailer = t }
}

// WithLauncher replaces the application launcher used by Open.
func WithLauncher(l launcher.Launcher) Option {
	return func(o *options) { o.launcher = l }
}

// WithThumbnails enables or disables thumbnail generation during scans.
func WithThumbnails(enabled bool) Option {
	return func(o *options) { o.thumbnails = enabled }
}

// WithRetryConfig sets the retry policy for directory listing and renames.
func WithRetryConfig(cfg filesystem.RetryConfig) Option {
	return func(o *options) { o.retry = cfg }
}
