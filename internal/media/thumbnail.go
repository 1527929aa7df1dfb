package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"os"
	"os/exec"
	"time"

	"dam/internal/logging"
	"dam/internal/mediatypes"
	"dam/internal/metrics"

	"github.com/disintegration/imaging"
)

var (
	// ErrDecode is returned when a media file cannot be decoded.
	ErrDecode = errors.New("cannot decode media")
	// ErrUnsupported is returned for files that have no visual content.
	ErrUnsupported = errors.New("unsupported media type")
)

const (
	DefaultThumbnailWidth   = 600
	DefaultThumbnailHeight  = 400
	DefaultThumbnailQuality = 85

	// ffmpeg is given this long per file.
	ffmpegTimeout = 30 * time.Second
)

// Options configures a ThumbnailGenerator.
type Options struct {
	Width   int
	Height  int
	Quality int
	// UseVips renders images with libvips when it has been initialized.
	UseVips bool
}

// DefaultOptions returns 600x400 thumbnails at JPEG quality 85.
func DefaultOptions() Options {
	return Options{
		Width:   DefaultThumbnailWidth,
		Height:  DefaultThumbnailHeight,
		Quality: DefaultThumbnailQuality,
	}
}

// ThumbnailGenerator renders JPEG thumbnails in memory.
type ThumbnailGenerator struct {
	opts       Options
	ffmpegPath string
}

// NewThumbnailGenerator creates a generator. Zero-valued options take
// their defaults.
func NewThumbnailGenerator(opts Options) *ThumbnailGenerator {
	def := DefaultOptions()
	if opts.Width <= 0 {
		opts.Width = def.Width
	}
	if opts.Height <= 0 {
		opts.Height = def.Height
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = def.Quality
	}

	t := &ThumbnailGenerator{opts: opts}
	if path, err := exec.LookPath("ffmpeg"); err == nil {
		t.ffmpegPath = path
		logging.Debug("ThumbnailGenerator: using ffmpeg at %s", path)
	} else {
		logging.Debug("ThumbnailGenerator: ffmpeg not found, video thumbnails disabled")
	}
	return t
}

// Generate returns a JPEG of the file at path that fits within the
// configured bounds. Images smaller than the bounds are not enlarged.
func (t *ThumbnailGenerator) Generate(path string) ([]byte, error) {
	ft := mediatypes.ForPath(path)
	if !ft.HasThumbnail() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, path)
	}

	start := time.Now()
	data, err := t.generate(path, ft)
	metrics.ThumbnailGenerationDuration.WithLabelValues(string(ft)).Observe(time.Since(start).Seconds())
	metrics.ThumbnailGenerationsTotal.WithLabelValues(string(ft), thumbnailStatus(err)).Inc()
	if err != nil {
		return nil, err
	}

	metrics.ThumbnailBytes.Observe(float64(len(data)))
	logging.Debug("Thumbnail generated for %s (%d bytes)", path, len(data))
	return data, nil
}

func thumbnailStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrUnsupported):
		return "error_unsupported"
	case errors.Is(err, ErrDecode):
		return "error_decode"
	default:
		return "error_encode"
	}
}

func (t *ThumbnailGenerator) generate(path string, ft mediatypes.FileType) ([]byte, error) {
	if ft == mediatypes.FileTypeImage && t.opts.UseVips && IsVipsAvailable() {
		data, err := ThumbnailWithVips(path, t.opts.Width, t.opts.Height, t.opts.Quality)
		if err == nil {
			return data, nil
		}
		logging.Debug("vips failed for %s: %v, trying Go decoders", path, err)
	}

	// Without libvips or ffmpeg only the Go decoders remain.
	if ft == mediatypes.FileTypeImage && t.ffmpegPath == "" && !mediatypes.DecodableExtensions[mediatypes.Ext(path)] {
		return nil, fmt.Errorf("%w: %s needs libvips or ffmpeg", ErrUnsupported, path)
	}

	var (
		img image.Image
		err error
	)
	if ft == mediatypes.FileTypeVideo {
		img, err = t.generateVideoThumbnail(path)
	} else {
		img, err = t.generateImageThumbnail(path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}

	return t.encode(img)
}

func (t *ThumbnailGenerator) encode(img image.Image) ([]byte, error) {
	thumb := imaging.Fit(img, t.opts.Width, t.opts.Height, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: t.opts.Quality}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

func (t *ThumbnailGenerator) generateImageThumbnail(path string) (image.Image, error) {
	kind, err := detectFileType(path)
	if err != nil {
		return nil, err
	}
	logging.Debug("Detected file type: %s for %s", kind, path)

	if decodableKinds[kind] {
		img, err := LoadImageConstrained(path, MaxImageDimension, MaxImagePixels)
		if err == nil {
			return img, nil
		}
		logging.Debug("Go decode failed for %s: %v", path, err)
		if t.ffmpegPath == "" {
			return nil, err
		}
	}

	if t.ffmpegPath == "" {
		return nil, fmt.Errorf("no decoder for %s content", kind)
	}
	return t.runFFmpeg(path, "-i", path, "-vframes", "1", "-f", "image2pipe", "-vcodec", "png", "-")
}

func (t *ThumbnailGenerator) generateVideoThumbnail(path string) (image.Image, error) {
	if t.ffmpegPath == "" {
		return nil, fmt.Errorf("ffmpeg not found")
	}

	// Skip the first second to avoid black lead-in frames; short clips
	// fall back to the first frame.
	img, err := t.runFFmpeg(path, "-ss", "00:00:01", "-i", path, "-vframes", "1", "-f", "image2pipe", "-vcodec", "png", "-")
	if err == nil {
		return img, nil
	}
	logging.Debug("ffmpeg seek failed for %s: %v, retrying at first frame", path, err)
	return t.runFFmpeg(path, "-i", path, "-vframes", "1", "-f", "image2pipe", "-vcodec", "png", "-")
}

func (t *ThumbnailGenerator) runFFmpeg(path string, args ...string) (image.Image, error) {
	ctx, cancel := context.WithTimeout(context.Background(), ffmpegTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, t.ffmpegPath, append([]string{"-v", "error", "-nostdin"}, args...)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg failed: %w, stderr: %s", err, bytes.TrimSpace(stderr.Bytes()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no output for %s", path)
	}

	img, _, err := image.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("decode ffmpeg output: %w", err)
	}
	return img, nil
}

// decodableKinds are the detectFileType results the Go decoders handle.
var decodableKinds = map[string]bool{
	"jpeg": true,
	"png":  true,
	"gif":  true,
	"webp": true,
	"bmp":  true,
	"tiff": true,
}

// detectFileType sniffs the leading bytes of path.
func detectFileType(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = file.Close() }()

	header := make([]byte, 12)
	n, err := io.ReadFull(file, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	return sniff(header[:n]), nil
}

func sniff(h []byte) string {
	switch {
	case bytes.HasPrefix(h, []byte{0xFF, 0xD8, 0xFF}):
		return "jpeg"
	case bytes.HasPrefix(h, []byte{0x89, 'P', 'N', 'G'}):
		return "png"
	case bytes.HasPrefix(h, []byte("GIF8")):
		return "gif"
	case len(h) >= 12 && bytes.Equal(h[0:4], []byte("RIFF")) && bytes.Equal(h[8:12], []byte("WEBP")):
		return "webp"
	case bytes.HasPrefix(h, []byte("BM")):
		return "bmp"
	case bytes.HasPrefix(h, []byte{'I', 'I', 0x2A, 0x00}), bytes.HasPrefix(h, []byte{'M', 'M', 0x00, 0x2A}):
		return "tiff"
	case len(h) >= 12 && bytes.Equal(h[4:8], []byte("ftyp")):
		switch string(h[8:12]) {
		case "heic", "heix", "hevc", "hevx", "mif1", "msf1":
			return "heif"
		case "avif", "avis":
			return "avif"
		}
		return "mp4-container"
	}
	return "unknown"
}
