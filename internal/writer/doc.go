// Package writer implements the snapshot file writer.
//
// Each collector owns one CSV file:
//   - Reset removes any file left from a previous run
//   - Append writes one RankedEntry, prefixed by the header when the file is new
//
// Rows are appended and flushed one at a time so an interrupted phase leaves
// every row collected so far on disk. Records end in CRLF.
package writer
