/*
Package filesystem provides resilient filesystem operations with automatic
retry logic for NFS stale file handle errors.

Catalog roots frequently live on network mounts. This package wraps the
three operations the catalog engine performs against the tree (os.Lstat,
os.ReadDir and os.Rename) with retry logic for ESTALE, the transient error
returned when an NFS handle is invalidated under a client.

# Usage

	entries, err := filesystem.ReadDirWithRetry(dir, filesystem.DefaultRetryConfig())
	if err != nil {
	    return err
	}

	err = filesystem.RenameWithRetry(src, dst, filesystem.DefaultRetryConfig())

# Retry Behavior

The defaults are:
  - MaxRetries: 3 attempts
  - InitialBackoff: 50ms
  - MaxBackoff: 500ms

Only ESTALE triggers retries. All other errors are returned immediately.
Retry outcomes are reported to the package [Observer], which the metrics
package installs at startup.
*/
package filesystem
