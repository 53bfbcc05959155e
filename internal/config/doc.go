// Package config provides configuration structures and utilities for outscan.
// It defines scan options populated from CLI flags and environment fallbacks,
// batch specification parsing, and XDG directory helpers.
package config
