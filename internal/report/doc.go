// Package report renders a scan result into its output artifacts: the flat
// list of unexpected URLs, the nested URL-to-pages view, the structured
// page-keyed JSON consumed by the allowlist-update workflow, and a Markdown
// summary. Filenames embed the hostname, batch identifier, and timestamp.
package report
