package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/outscan/outscan/internal/model"
)

// FlatWriter outputs the deduplicated, sorted list of unexpected URLs,
// one per line. This is the view diffed directly against the allowlist.
type FlatWriter struct {
	baseWriter
}

// NewFlatWriter creates a FlatWriter for the given destination.
func NewFlatWriter(output io.Writer) *FlatWriter {
	return &FlatWriter{baseWriter: newBaseWriter(output)}
}

// Write renders the flat view.
func (w *FlatWriter) Write(result *model.ScanResult) (int, error) {
	return io.WriteString(w.output, strings.Join(result.Unexpected(), "\n"))
}

// NestedWriter outputs each unexpected URL followed by the indented list of
// pages it was found on, for operators tracking a violation to its source.
type NestedWriter struct {
	baseWriter
}

// NewNestedWriter creates a NestedWriter for the given destination.
func NewNestedWriter(output io.Writer) *NestedWriter {
	return &NestedWriter{baseWriter: newBaseWriter(output)}
}

// Write renders the nested view.
func (w *NestedWriter) Write(result *model.ScanResult) (int, error) {
	var b strings.Builder
	for _, u := range result.Unexpected() {
		fmt.Fprintf(&b, "\nUnexpected URL: %s\nFound in:\n\t%s\n",
			u, strings.Join(result.PagesFor(u), "\n\t"))
	}
	return io.WriteString(w.output, b.String())
}
