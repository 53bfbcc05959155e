package report

import (
	"io"

	"github.com/outscan/outscan/internal/model"
)

// Writer renders one view of a scan result to a destination.
//
// Design decision: the interface writes reports, not raw bytes, so it is
// distinct from io.Writer; implementations share destinations via the
// embedded baseWriter.
type Writer interface {
	// Write renders the result. Returns bytes written and any error.
	Write(result *model.ScanResult) (int, error)
}

// baseWriter provides the shared output destination.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter for the given destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
