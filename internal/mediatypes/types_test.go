package mediatypes

import "testing"

func TestGetFileType(t *testing.T) {
	tests := []struct {
		name string
		ext  string
		want FileType
	}{
		{name: "JPEG image", ext: ".jpg", want: FileTypeImage},
		{name: "HEIC image", ext: ".heic", want: FileTypeImage},
		{name: "MP4 video", ext: ".mp4", want: FileTypeVideo},
		{name: "FLAC audio", ext: ".flac", want: FileTypeAudio},
		{name: "PDF document", ext: ".pdf", want: FileTypeDocument},
		{name: "Unknown extension", ext: ".xyz", want: FileTypeOther},
		{name: "Empty extension", ext: "", want: FileTypeOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetFileType(tt.ext); got != tt.want {
				t.Errorf("GetFileType(%q) = %v, want %v", tt.ext, got, tt.want)
			}
		})
	}
}

func TestForPath(t *testing.T) {
	tests := []struct {
		path string
		want FileType
	}{
		{"/photos/IMG_0001.JPG", FileTypeImage},
		{"clip.MOV", FileTypeVideo},
		{"notes", FileTypeOther},
		{"archive.tar.gz", FileTypeOther},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := ForPath(tt.path); got != tt.want {
				t.Errorf("ForPath(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestGetMimeType(t *testing.T) {
	if got := GetMimeType(".png"); got != "image/png" {
		t.Errorf("GetMimeType(.png) = %q, want image/png", got)
	}
	if got := GetMimeType(".nope"); got != "application/octet-stream" {
		t.Errorf("GetMimeType(.nope) = %q, want application/octet-stream", got)
	}
}

func TestHasThumbnail(t *testing.T) {
	for _, ft := range []FileType{FileTypeImage, FileTypeVideo} {
		if !ft.HasThumbnail() {
			t.Errorf("%s.HasThumbnail() = false, want true", ft)
		}
	}
	for _, ft := range []FileType{FileTypeAudio, FileTypeDocument, FileTypeOther} {
		if ft.HasThumbnail() {
			t.Errorf("%s.HasThumbnail() = true, want false", ft)
		}
	}
}

func TestDecodableIsSubsetOfImages(t *testing.T) {
	for ext := range DecodableExtensions {
		if !ImageExtensions[ext] {
			t.Errorf("decodable extension %s is not an image extension", ext)
		}
	}
}

func TestValid(t *testing.T) {
	if !FileTypeImage.Valid() {
		t.Error("FileTypeImage should be valid")
	}
	if FileType("folder").Valid() {
		t.Error("folder should not be a valid catalog file type")
	}
}
