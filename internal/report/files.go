package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/outscan/outscan/internal/model"
)

// FilenameFragment prefixes every artifact filename. Downstream CI treats
// the mere existence of files carrying this fragment as its signal.
const FilenameFragment = "unexpected_urls_for"

// Builder writes a scan result's artifact files to an output directory.
type Builder struct {
	outputDir string

	// now is swappable for tests.
	now func() time.Time
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithClock overrides the timestamp source used in filenames.
func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) {
		b.now = now
	}
}

// NewBuilder creates a Builder writing into outputDir.
func NewBuilder(outputDir string, opts ...BuilderOption) *Builder {
	b := &Builder{
		outputDir: outputDir,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build writes the artifact files for result and returns their paths.
//
// A fully clean run (no unexpected URLs, no errors) produces no files, so
// CI can treat file existence alone as a signal. Any other outcome writes
// the full artifact set, even when the only content is the error log.
func (b *Builder) Build(result *model.ScanResult) ([]string, error) {
	if result.Clean() {
		return nil, nil
	}

	if err := os.MkdirAll(b.outputDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	// CI artifact stores reject colons in filenames.
	timestamp := strings.ReplaceAll(b.now().UTC().Format("2006-01-02T15:04:05"), ":", "-")
	base := fmt.Sprintf("%s_%s_%s_%s", FilenameFragment, result.Hostname, result.BatchLabel, timestamp)

	artifacts := []struct {
		suffix string
		writer func(f *os.File) Writer
	}{
		{"_flat.txt", func(f *os.File) Writer { return NewFlatWriter(f) }},
		{"_nested.txt", func(f *os.File) Writer { return NewNestedWriter(f) }},
		{"_structured.json", func(f *os.File) Writer { return NewStructuredWriter(f) }},
		{"_summary.md", func(f *os.File) Writer { return NewMarkdownWriter(f) }},
	}

	paths := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		path := filepath.Join(b.outputDir, base+a.suffix)
		if err := b.writeFile(path, a.writer, result); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// writeFile renders one artifact to path.
func (b *Builder) writeFile(path string, writer func(f *os.File) Writer, result *model.ScanResult) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // Path is built from our own output dir
	if err != nil {
		return fmt.Errorf("failed to create artifact %s: %w", path, err)
	}
	defer f.Close()

	if _, err := writer(f).Write(result); err != nil {
		return fmt.Errorf("failed to write artifact %s: %w", path, err)
	}
	return nil
}
