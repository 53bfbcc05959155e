package config

import (
	"fmt"
	"strconv"
	"strings"
)

// BatchSpec selects one contiguous slice of the full page list.
// A scan spread across N CI jobs runs the same command N times with
// --batch=1/N through N/N; each job works on its own slice.
type BatchSpec struct {
	// Chunk is the 1-indexed slice to work on.
	Chunk int

	// Total is the number of slices the page list is partitioned into.
	Total int
}

// ParseBatch parses a batch selector of the form "k/N" or "k:N".
func ParseBatch(s string) (BatchSpec, error) {
	sep := "/"
	if !strings.Contains(s, sep) {
		sep = ":"
	}
	parts := strings.Split(s, sep)
	if len(parts) != 2 {
		return BatchSpec{}, fmt.Errorf("%w: %q", ErrInvalidBatch, s)
	}

	chunk, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return BatchSpec{}, fmt.Errorf("%w: %q", ErrInvalidBatch, s)
	}
	total, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return BatchSpec{}, fmt.Errorf("%w: %q", ErrInvalidBatch, s)
	}

	spec := BatchSpec{Chunk: chunk, Total: total}
	if err := spec.validate(); err != nil {
		return BatchSpec{}, fmt.Errorf("%w: %q", ErrInvalidBatch, s)
	}
	return spec, nil
}

// validate checks the spec's bounds.
func (b BatchSpec) validate() error {
	if b.Chunk < 1 || b.Total < 1 || b.Chunk > b.Total {
		return ErrInvalidBatch
	}
	return nil
}

// IsNoop reports whether the spec covers the whole page list.
func (b BatchSpec) IsNoop() bool {
	return b.Chunk == 1 && b.Total == 1
}

// Label returns the batch identifier embedded in artifact filenames:
// "all" for an unbatched run, otherwise the chunk number.
func (b BatchSpec) Label() string {
	if b.IsNoop() {
		return "all"
	}
	return strconv.Itoa(b.Chunk)
}

// String returns the canonical "k/N" form.
func (b BatchSpec) String() string {
	return fmt.Sprintf("%d/%d", b.Chunk, b.Total)
}
