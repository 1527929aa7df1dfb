package catalog

import (
	"context"
	"errors"

	"dam/internal/database"
	"dam/internal/identity"
	"dam/internal/media"
)

// Error kinds. Returned errors wrap one of these together with the
// underlying cause, so both match errors.Is.
var (
	// ErrIO reports a filesystem access failure.
	ErrIO = errors.New("filesystem error")
	// ErrIdentity reports a path that cannot be rendered as text.
	ErrIdentity = identity.ErrNotText
	// ErrStore reports a catalog database failure.
	ErrStore = database.ErrStore
	// ErrNotFound reports a lookup without a match.
	ErrNotFound = database.ErrNotFound
	// ErrDecode reports an undecodable thumbnail source. Scans absorb it.
	ErrDecode = media.ErrDecode
	// ErrLaunch reports that the opener could not be started.
	ErrLaunch = errors.New("cannot launch application")

	// ErrNotInitialized is returned when the root has no catalog marker.
	ErrNotInitialized = errors.New("catalog not initialized")
	// ErrAlreadyInitialized is returned by Init when the marker exists.
	ErrAlreadyInitialized = errors.New("catalog already initialized")
	// ErrBusy is returned when another process is scanning the catalog.
	ErrBusy = errors.New("catalog is busy")
)

// errorKind labels err for the dam_scan_errors_total metric.
func errorKind(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, ErrIdentity):
		return "identity"
	case errors.Is(err, ErrStore):
		return "store"
	default:
		return "io"
	}
}
