// Package model defines the core data structures shared across outscan:
// page URLs discovered from sitemaps, outbound links extracted from pages,
// and the scan result accumulator with its error log.
package model
