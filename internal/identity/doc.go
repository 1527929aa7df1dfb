// Package identity derives stable catalog identifiers and inspects the
// filesystem attributes an entry is built from.
//
// # Identifiers
//
// An [ID] is the CRC-32 (IEEE) checksum of a path's text after Unicode NFC
// normalization. The same text always yields the same ID on every platform
// and in every run. Distinct paths may collide; callers do not attempt to
// resolve collisions.
//
// The text hashed by the catalog is the canonical location of a file
// relative to the catalog root, using forward slashes:
//
//	rel, err := identity.RelativeText(root, dest) // "2024/Mar_05/photo.jpg"
//	id, err := identity.Compute(rel)
//
// Paths that are not valid UTF-8 cannot be represented as text and are
// rejected with [ErrNotText].
//
// # Inspection
//
// [Inspector] is the single seam through which the catalog reads a file's
// name, size and creation time. [FileInspector] reports the filesystem
// birth time where the platform exposes one and falls back to the
// modification time otherwise.
package identity
