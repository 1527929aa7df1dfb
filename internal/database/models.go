package database

import (
	"time"

	"dam/internal/identity"
	"dam/internal/mediatypes"
)

// Entry is one cataloged file.
type Entry struct {
	ID      identity.ID         `json:"id"`
	Name    string              `json:"name"`
	Path    string              `json:"path"`
	Created time.Time           `json:"created"`
	Type    mediatypes.FileType `json:"type"`
	// Thumbnail is only set on entries passed to Upsert. Entries read
	// back report HasThumbnail and leave the bytes to Database.Thumbnail.
	Thumbnail    []byte `json:"-"`
	HasThumbnail bool   `json:"hasThumbnail"`
}
