// Package velodyne decodes KITTI velodyne point clouds: flat files of
// little-endian float32 quadruplets with no header or record count.
package velodyne

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/banshee-data/kitti-ingest/internal/fsutil"
	"github.com/banshee-data/kitti-ingest/internal/kitti"
)

// RecordSize is the on-disk size of one point: x, y, z, reflectance.
const RecordSize = 16

// Point is a decoded point. Reflectance is not kept.
type Point struct {
	X, Y, Z float32
}

// Decode turns raw file content into points. Each record (f0, f1, f2, f3)
// becomes Point{X: f1, Y: f0, Z: f2}; the first two fields are swapped
// and f3 is dropped. A trailing partial record is a ParseError.
func Decode(data []byte) ([]Point, error) {
	if len(data)%RecordSize != 0 {
		return nil, &kitti.ParseError{
			Reason: fmt.Sprintf("length %d is not a multiple of %d bytes (%d trailing)", len(data), RecordSize, len(data)%RecordSize),
		}
	}
	n := len(data) / RecordSize
	points := make([]Point, n)
	for i := 0; i < n; i++ {
		rec := data[i*RecordSize : (i+1)*RecordSize]
		f0 := math.Float32frombits(binary.LittleEndian.Uint32(rec[0:4]))
		f1 := math.Float32frombits(binary.LittleEndian.Uint32(rec[4:8]))
		f2 := math.Float32frombits(binary.LittleEndian.Uint32(rec[8:12]))
		points[i] = Point{X: f1, Y: f0, Z: f2}
	}
	tracef("decoded %d points from %d bytes", n, len(data))
	return points, nil
}

// ReadFile reads and decodes the point cloud at path.
func ReadFile(fsys fsutil.FileSystem, path string) ([]Point, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, kitti.WithPath(err, path)
	}
	points, err := Decode(data)
	if err != nil {
		opsf("rejecting %s: %v", path, err)
		return nil, kitti.WithPath(err, path)
	}
	diagf("%s: %d points", path, len(points))
	return points, nil
}

// FlipX returns a copy of points with x negated, the display convention
// some viewers expect. The reader never applies it on its own.
func FlipX(points []Point) []Point {
	out := make([]Point, len(points))
	for i, p := range points {
		out[i] = Point{X: -p.X, Y: p.Y, Z: p.Z}
	}
	return out
}

// SensorOrder returns a copy of points with x and y swapped back, giving
// the sensor's own axes (x forward, y left, z up).
func SensorOrder(points []Point) []Point {
	out := make([]Point, len(points))
	for i, p := range points {
		out[i] = Point{X: p.Y, Y: p.X, Z: p.Z}
	}
	return out
}

// Encode is the inverse of Decode with reflectance written as r. It is
// used to build fixtures and to re-export filtered clouds.
func Encode(points []Point, r float32) []byte {
	buf := make([]byte, len(points)*RecordSize)
	for i, p := range points {
		rec := buf[i*RecordSize:]
		binary.LittleEndian.PutUint32(rec[0:4], math.Float32bits(p.Y))
		binary.LittleEndian.PutUint32(rec[4:8], math.Float32bits(p.X))
		binary.LittleEndian.PutUint32(rec[8:12], math.Float32bits(p.Z))
		binary.LittleEndian.PutUint32(rec[12:16], math.Float32bits(r))
	}
	return buf
}
