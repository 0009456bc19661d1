// Package output renders generated content and topic histories.
//
// Three formats are supported:
//   - text: human-readable terminal output (default)
//   - markdown: one section per item, history entries in collapsible blocks
//   - json: the full result or history as structured JSON
//
// Use [GetWriter] to obtain a [Writer] for a format string. [WriteResult]
// and [WriteHistory] also pick the destination, a file or stdout.
package output
