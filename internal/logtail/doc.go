// Package logtail reads the tail of the sunface log file.
//
// Read extracts the last N lines of a file with a ring buffer, using
// O(N) memory regardless of file size. Parse and Recent decode lines written
// by the JSON slog handler into Entry values; the UI footer shows the most
// recent ones.
//
// Read returns nil, nil for non-existent files. Other errors (permission
// denied, I/O errors) are returned wrapped. Lines that are not JSON log
// entries are skipped rather than treated as errors.
package logtail
