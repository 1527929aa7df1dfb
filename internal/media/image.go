package media

import (
	"errors"
	"fmt"
	"image"
	"math"
	"os"

	"dam/internal/logging"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // BMP format support
	_ "golang.org/x/image/tiff" // TIFF format support
	_ "golang.org/x/image/webp" // WebP format support
)

const (
	// MaxImageDimension is the largest width or height decoded at full size.
	// Larger sources are shrunk before the thumbnail pass.
	MaxImageDimension = 4096

	// MaxImagePixels caps width*height of a decoded source (~80MB as RGBA).
	MaxImagePixels = 20_000_000

	// MaxSourcePixels is the largest header size the Go decoders are
	// allowed to decode at all (~1GB as RGBA).
	MaxSourcePixels = 250_000_000
)

// ErrTooLarge is returned for images whose header exceeds MaxSourcePixels.
var ErrTooLarge = errors.New("image too large to decode")

// ImageDimensions holds image width and height
type ImageDimensions struct {
	Width  int
	Height int
}

// GetImageDimensions reads the image header without decoding pixel data.
func GetImageDimensions(path string) (*ImageDimensions, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return nil, err
	}
	return &ImageDimensions{Width: config.Width, Height: config.Height}, nil
}

// constrainedSize scales width x height down until neither side exceeds
// maxDimension and the area does not exceed maxPixels. It reports false
// when no scaling is needed.
func constrainedSize(width, height, maxDimension, maxPixels int) (int, int, bool) {
	if width <= maxDimension && height <= maxDimension && width*height <= maxPixels {
		return width, height, false
	}

	w, h := width, height
	if w > maxDimension || h > maxDimension {
		if w >= h {
			h = h * maxDimension / w
			w = maxDimension
		} else {
			w = w * maxDimension / h
			h = maxDimension
		}
	}
	if w*h > maxPixels {
		scale := math.Sqrt(float64(maxPixels) / float64(w*h))
		w = int(float64(w) * scale)
		h = int(float64(h) * scale)
	}
	return max(w, 1), max(h, 1), true
}

// LoadImageConstrained decodes path with EXIF auto-orientation and shrinks
// the result when it exceeds the given limits.
func LoadImageConstrained(path string, maxDimension, maxPixels int) (image.Image, error) {
	return loadImageConstrained(path, maxDimension, maxPixels, MaxSourcePixels)
}

// loadImageConstrained reads the header first and refuses sources above
// maxSource pixels before any pixel data is allocated.
func loadImageConstrained(path string, maxDimension, maxPixels, maxSource int) (image.Image, error) {
	if dims, err := GetImageDimensions(path); err != nil {
		logging.Debug("Could not read image header of %s: %v", path, err)
	} else if dims.Width*dims.Height > maxSource {
		return nil, fmt.Errorf("%w: %s is %dx%d", ErrTooLarge, path, dims.Width, dims.Height)
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}

	b := img.Bounds()
	w, h, shrink := constrainedSize(b.Dx(), b.Dy(), maxDimension, maxPixels)
	if !shrink {
		return img, nil
	}

	logging.Debug("Constraining large image %s from %dx%d to %dx%d", path, b.Dx(), b.Dy(), w, h)
	return imaging.Resize(img, w, h, imaging.Box), nil
}
