// Package catalog is the cataloging engine behind the dam command.
//
// A catalog is a directory whose root holds the ".dam" marker, the SQLite
// store of every cataloged file. A root is either Empty (no marker) or
// Initialized:
//
//	state, err := catalog.Check(ctx, root)    // read-only
//	cat, err := catalog.Init(ctx, root)       // Empty -> Initialized
//	cat, err := catalog.Load(ctx, root)       // open an Initialized root
//
// Scan walks the root, skipping hidden names, and for each file:
//
//  1. inspects its name and creation time
//  2. derives its identity from the canonical location
//     <root>/<year>/<Mon_DD>/<name>
//  3. moves it there, pruning the directory it left when empty
//  4. renders a thumbnail (failure only means no thumbnail)
//  5. upserts the entry
//
// Filesystem, identity and store errors abort the scan. Files already
// handled stay moved and recorded; a file moved just before a failed
// upsert is picked up again by the next scan.
//
// Scans take an advisory lock on the marker and fail with ErrBusy while
// another process holds it. Catalogs are otherwise single-user.
package catalog
