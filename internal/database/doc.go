// Package database persists scan history in SQLite. Each completed run is
// recorded with its metadata and every (unexpected URL, page) pair, so runs
// can be listed and diffed after the fact.
package database
