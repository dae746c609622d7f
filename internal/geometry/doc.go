// Package geometry holds the fixed-size matrix types and the 3D box
// model shared by the KITTI parsers and the ingest pipeline.
//
// Responsibilities: row-major 3x3 / 3x4 / 4x4 matrices, homogeneous
// extension, rigid-transform inversion, and conversion of Box3D values
// between the CAMERA, LIDAR and DEPTH conventions.
//
// Dependency rule: geometry never imports internal/kitti or anything
// that touches files.
package geometry
