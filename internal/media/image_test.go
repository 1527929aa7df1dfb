package media

import (
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// createTestImage writes a gradient image of the given size and format.
func createTestImage(t *testing.T, path string, width, height int, format string) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x * 255) / width),
				G: uint8((y * 255) / height),
				B: 128,
				A: 255,
			})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create test image file: %v", err)
	}
	defer f.Close()

	switch format {
	case "jpeg", "jpg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 90})
	case "png":
		err = png.Encode(f, img)
	default:
		t.Fatalf("Unsupported test image format: %s", format)
	}
	if err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
}

func TestGetImageDimensions(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name   string
		width  int
		height int
		format string
	}{
		{name: "Small JPEG", width: 100, height: 100, format: "jpeg"},
		{name: "Wide PNG", width: 320, height: 180, format: "png"},
		{name: "Tall JPEG", width: 180, height: 320, format: "jpeg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filename := filepath.Join(tmpDir, tt.name+"."+tt.format)
			createTestImage(t, filename, tt.width, tt.height, tt.format)

			dims, err := GetImageDimensions(filename)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if dims.Width != tt.width || dims.Height != tt.height {
				t.Errorf("dimensions = %dx%d, want %dx%d", dims.Width, dims.Height, tt.width, tt.height)
			}
		})
	}
}

func TestGetImageDimensionsErrors(t *testing.T) {
	if _, err := GetImageDimensions(filepath.Join(t.TempDir(), "missing.jpg")); err == nil {
		t.Error("expected error for missing file")
	}

	notImage := filepath.Join(t.TempDir(), "not-image.jpg")
	if err := os.WriteFile(notImage, []byte("This is not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := GetImageDimensions(notImage); err == nil {
		t.Error("expected error for non-image content")
	}
}

func TestConstrainedSize(t *testing.T) {
	tests := []struct {
		name              string
		width, height     int
		maxDim, maxPixels int
		wantW, wantH      int
		wantShrink        bool
	}{
		{name: "within limits", width: 800, height: 600, maxDim: 1600, maxPixels: 2_560_000, wantW: 800, wantH: 600},
		{name: "too wide", width: 3200, height: 1600, maxDim: 1600, maxPixels: 10_000_000, wantW: 1600, wantH: 800, wantShrink: true},
		{name: "too tall", width: 1600, height: 3200, maxDim: 1600, maxPixels: 10_000_000, wantW: 800, wantH: 1600, wantShrink: true},
		{name: "too many pixels", width: 2000, height: 2000, maxDim: 5000, maxPixels: 1_000_000, wantW: 1000, wantH: 1000, wantShrink: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h, shrink := constrainedSize(tt.width, tt.height, tt.maxDim, tt.maxPixels)
			if w != tt.wantW || h != tt.wantH || shrink != tt.wantShrink {
				t.Errorf("constrainedSize() = %d, %d, %v; want %d, %d, %v",
					w, h, shrink, tt.wantW, tt.wantH, tt.wantShrink)
			}
		})
	}
}

func TestLoadImageConstrained(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.png")
	createTestImage(t, path, 1200, 600, "png")

	img, err := LoadImageConstrained(path, 400, 1_000_000)
	if err != nil {
		t.Fatalf("LoadImageConstrained: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 400 || b.Dy() != 200 {
		t.Errorf("bounds = %dx%d, want 400x200", b.Dx(), b.Dy())
	}
}

func TestLoadImageConstrainedRefusesOversizedHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "huge.png")
	createTestImage(t, path, 200, 100, "png")

	if _, err := loadImageConstrained(path, 4096, 1_000_000, 10_000); !errors.Is(err, ErrTooLarge) {
		t.Errorf("loadImageConstrained() error = %v, want ErrTooLarge", err)
	}
	if _, err := loadImageConstrained(path, 4096, 1_000_000, 20_000); err != nil {
		t.Errorf("loadImageConstrained() at the limit: %v", err)
	}
}
