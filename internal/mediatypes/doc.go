// Package mediatypes classifies cataloged files by extension.
//
// This package is a dependency-free foundation imported by the store, the
// thumbnail generator and the catalog engine. The classification is stored
// in the type column of each catalog entry and decides whether a thumbnail
// is attempted during a scan.
//
//	ft := mediatypes.ForPath("/photos/IMG_0001.JPG") // FileTypeImage
//	if ft.HasThumbnail() {
//	    // decode and shrink
//	}
//
// [DecodableExtensions] is the subset of image formats that the pure Go
// decoders can read without libvips.
package mediatypes
