// Package logging provides a simple leveled logging interface for the dam
// catalog tool.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information (per-file scan decisions)
//   - INFO: General operational messages
//   - WARN: Warning conditions (skipped thumbnails, lock contention)
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The initial level is read from the DEBUG and LOG_LEVEL environment
// variables. Command-line flags may override it with [SetLevel].
package logging
