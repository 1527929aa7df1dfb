package identity

import (
	"os"
	"path/filepath"
	"time"
)

// Info holds the attributes of a file that a catalog entry is built from.
type Info struct {
	Name    string
	Size    int64
	Created time.Time
	// BirthTime is false when Created fell back to the modification time.
	BirthTime bool
}

// Inspector reads file attributes.
type Inspector interface {
	Inspect(path string) (Info, error)
}

// FileInspector inspects files on the local filesystem without following
// symlinks.
type FileInspector struct{}

// Inspect implements Inspector.
func (FileInspector) Inspect(path string) (Info, error) {
	fi, err := os.Lstat(path)
	if err != nil {
		return Info{}, err
	}

	info := Info{
		Name:    filepath.Base(path),
		Size:    fi.Size(),
		Created: fi.ModTime(),
	}
	if bt, ok := birthTime(path); ok {
		info.Created = bt
		info.BirthTime = true
	}
	return info, nil
}

// InspectorFunc adapts a function to the Inspector interface.
type InspectorFunc func(path string) (Info, error)

// Inspect implements Inspector.
func (f InspectorFunc) Inspect(path string) (Info, error) {
	return f(path)
}
