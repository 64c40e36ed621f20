// Package io reads and writes the files bricklayers works on.
//
// # G-code files
//
// [ReadGCode] loads a whole G-code file into memory after validating the
// path. The pipeline works on the complete text, so there is no streaming
// reader: a large print is a few hundred thousand lines and fits easily.
//
// [WriteAtomic] replaces a file in one step. The new content is written to
// a temporary file in the same directory, synced, given the mode of the
// file it replaces and renamed over it. A slicer or printer never sees a
// half-written G-code file, and a failed run leaves the original in place.
//
// # Reports
//
// A run report (options, statistics and warnings) can be exported as JSON
// or YAML:
//
//	err := io.ExportReport("run.yaml", report)
//
// The format follows the extension: ".yaml" and ".yml" write YAML,
// anything else writes JSON. [WriteReport] writes to any [io.Writer].
package io
