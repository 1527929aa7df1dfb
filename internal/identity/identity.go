package identity

import (
	"errors"
	"fmt"
	"hash/crc32"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// ErrNotText is returned when a path cannot be represented as UTF-8 text.
var ErrNotText = errors.New("path is not valid text")

// ID identifies a catalog entry. It is derived from path text and never
// changes once assigned.
type ID uint32

// String formats the ID as a fixed-width hexadecimal checksum.
func (id ID) String() string {
	return fmt.Sprintf("%08x", uint32(id))
}

// Compute returns the identifier for text.
func Compute(text string) (ID, error) {
	if err := ValidateText(text); err != nil {
		return 0, err
	}
	return ID(crc32.ChecksumIEEE([]byte(norm.NFC.String(text)))), nil
}

// ValidateText reports ErrNotText when path is not valid UTF-8.
func ValidateText(path string) error {
	if !utf8.ValidString(path) {
		return fmt.Errorf("%w: %q", ErrNotText, path)
	}
	return nil
}

// RelativeText returns path relative to root with forward slashes, the text
// that identifies a file within a catalog.
func RelativeText(root, path string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", fmt.Errorf("relative path of %s: %w", path, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside %s", path, root)
	}
	rel = filepath.ToSlash(rel)
	if err := ValidateText(rel); err != nil {
		return "", err
	}
	return rel, nil
}
