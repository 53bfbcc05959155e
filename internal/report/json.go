package report

import (
	"encoding/json"
	"io"

	"github.com/outscan/outscan/internal/model"
)

// StructuredWriter outputs the page-keyed JSON view: for each page with at
// least one unexpected URL, the sorted list of unexpected URLs found on it.
// This is the shape the downstream allowlist-update workflow consumes when
// assembling a pull request body.
type StructuredWriter struct {
	baseWriter
}

// NewStructuredWriter creates a StructuredWriter for the given destination.
func NewStructuredWriter(output io.Writer) *StructuredWriter {
	return &StructuredWriter{baseWriter: newBaseWriter(output)}
}

// Write renders the structured view. encoding/json sorts map keys, so the
// output is deterministic without relying on accumulator iteration order.
func (w *StructuredWriter) Write(result *model.ScanResult) (int, error) {
	structured := make(map[string][]string)
	for _, page := range result.Pages() {
		structured[page] = result.URLsOn(page)
	}

	data, err := json.Marshal(structured)
	if err != nil {
		return 0, err
	}
	return w.output.Write(data)
}
