// Package sqlite persists ingest runs: one row per run, per frame and per
// normalised object.
package sqlite
