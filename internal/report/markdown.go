package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/outscan/outscan/internal/model"
)

// MarkdownWriter outputs a Markdown summary of the scan: run metadata, the
// unexpected URLs with their referencing pages as nested bullet lists, and
// the recoverable error log. The URL list is the block the allowlist-update
// workflow pastes into a pull request body.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter for the given destination.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write renders the Markdown summary.
func (w *MarkdownWriter) Write(result *model.ScanResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Unexpected outbound URL report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Hostname", "`" + result.Hostname + "`"},
			{"Batch", result.BatchLabel},
			{"Started", result.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Pages checked", strconv.Itoa(result.PagesChecked)},
			{"Unexpected URLs", strconv.Itoa(result.UnexpectedCount())},
			{"Errors", strconv.Itoa(len(result.Errors()))},
		},
	})
	md.PlainText("")

	w.writeUnexpected(md, result)
	w.writeErrors(md, result)

	return len(md.String()), md.Build()
}

// writeUnexpected renders each unexpected URL with its referencing pages as
// a nested bullet list.
func (w *MarkdownWriter) writeUnexpected(md *markdown.Markdown, result *model.ScanResult) {
	urls := result.Unexpected()
	if len(urls) == 0 {
		md.H2("Unexpected URLs")
		md.PlainText("None found.")
		md.PlainText("")
		return
	}

	md.H2("Unexpected URLs")
	var b strings.Builder
	for _, u := range urls {
		fmt.Fprintf(&b, "* %s\n  Found in:\n", u)
		for _, page := range result.PagesFor(u) {
			fmt.Fprintf(&b, "  * %s\n", page)
		}
	}
	md.PlainText(b.String())
}

// writeErrors renders the recoverable error log, so a report reader can
// tell "found violations" apart from "failed to fully scan".
func (w *MarkdownWriter) writeErrors(md *markdown.Markdown, result *model.ScanResult) {
	errs := result.Errors()
	if len(errs) == 0 {
		return
	}

	rows := make([][]string, 0, len(errs))
	for _, e := range errs {
		rows = append(rows, []string{string(e.Kind), e.URL, e.Message})
	}

	md.H2("Scan errors")
	md.Table(markdown.TableSet{
		Header: []string{"Stage", "URL", "Error"},
		Rows:   rows,
	})
}
