package sitemap

import (
	"sort"

	"github.com/outscan/outscan/internal/config"
	"github.com/outscan/outscan/internal/model"
)

// Partition sorts pages by URL and returns the slice selected by spec.
//
// The partition is balanced: across all chunks of one spec.Total, every page
// appears exactly once and slice sizes differ by at most one. The first
// (len mod total) slices carry the extra page. Sorting first makes the
// partition deterministic regardless of discovery order, so independent CI
// jobs slicing the same page list agree on the boundaries.
func Partition(pages []model.PageURL, spec config.BatchSpec) []model.PageURL {
	sorted := make([]model.PageURL, len(pages))
	copy(sorted, pages)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].URL < sorted[j].URL })

	start, end := sliceBounds(len(sorted), spec.Chunk, spec.Total)
	batch := sorted[start:end]
	for i := range batch {
		batch[i].Batch = spec.Chunk
	}
	return batch
}

// sliceBounds computes the half-open index range of chunk k of n slices
// over a list of length total.
func sliceBounds(length, chunk, total int) (int, int) {
	base := length / total
	extra := length % total

	start := (chunk - 1) * base
	if chunk-1 < extra {
		start += chunk - 1
	} else {
		start += extra
	}

	size := base
	if chunk-1 < extra {
		size++
	}
	return start, start + size
}
