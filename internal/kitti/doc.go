// Package kitti owns the on-disk formats of a KITTI-style object
// detection dataset.
//
// Responsibilities: the shared ParseError type. The format readers live in
// subpackages: velodyne (binary point clouds), label (per-object
// annotations), calib (sensor calibration) and difficulty (easy /
// moderate / hard banding of labelled objects).
//
// Dependency rule: kitti packages may depend on internal/geometry and
// internal/fsutil, never on ingest, storage or render.
package kitti
