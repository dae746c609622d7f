// Package calib parses KITTI calibration files and composes the sensor
// transforms they describe.
//
// A calibration file holds at least seven lines of the form
// "<name>: <numbers>", read by position:
//
//	0-3  P0..P3          3x4 camera projections
//	4    R0_rect         3x3 rectifying rotation
//	5    Tr_velo_to_cam  3x4 LiDAR to camera extrinsic
//	6    Tr_imu_to_velo  3x4 IMU to LiDAR extrinsic
//
// The name token is documentation only and is not validated.
package calib

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/banshee-data/kitti-ingest/internal/fsutil"
	"github.com/banshee-data/kitti-ingest/internal/geometry"
	"github.com/banshee-data/kitti-ingest/internal/kitti"
)

// MinLines is the number of matrix lines a calibration file must carry.
const MinLines = 7

const (
	lineR0Rect       = 4
	lineTrVeloToCam  = 5
	lineTrImuToVelo  = 6
	rectFieldCount   = 9
	extrinsicFields  = 12
	maxCalibLineSize = 64 * 1024
)

var lineNames = [MinLines]string{"P0", "P1", "P2", "P3", "R0_rect", "Tr_velo_to_cam", "Tr_imu_to_velo"}

// CalibrationSet is a parsed calibration file in its on-disk shapes.
type CalibrationSet struct {
	P           [4]geometry.Mat34
	R0Rect      geometry.Mat3
	TrVeloToCam geometry.Mat34
	TrImuToVelo geometry.Mat34
}

// Extended holds every calibration matrix in homogeneous 4x4 form.
type Extended struct {
	P           [4]geometry.Mat4
	R0Rect      geometry.Mat4
	TrVeloToCam geometry.Mat4
	TrImuToVelo geometry.Mat4
}

// Extend pads the 3x4 matrices with a [0 0 0 1] row and embeds R0_rect
// in the top-left of a 4x4 identity.
func (c *CalibrationSet) Extend() *Extended {
	ext := &Extended{
		R0Rect:      geometry.Extend33(c.R0Rect),
		TrVeloToCam: geometry.Extend34(c.TrVeloToCam),
		TrImuToVelo: geometry.Extend34(c.TrImuToVelo),
	}
	for i, p := range c.P {
		ext.P[i] = geometry.Extend34(p)
	}
	return ext
}

// LidarToCamera returns R0_rect · Tr_velo_to_cam, mapping LiDAR points
// into the rectified camera frame.
func (e *Extended) LidarToCamera() geometry.Mat4 {
	return e.R0Rect.Mul(e.TrVeloToCam)
}

// CameraToLidar returns the inverse of LidarToCamera.
func (e *Extended) CameraToLidar() (geometry.Mat4, error) {
	inv, err := e.LidarToCamera().Inverse()
	if err != nil {
		return geometry.Mat4{}, fmt.Errorf("invert rectified velo-to-cam transform: %w", err)
	}
	return inv, nil
}

// Parse reads a calibration set from r. Blank lines are ignored; lines
// past the seventh are ignored.
func Parse(r io.Reader) (*CalibrationSet, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024), maxCalibLineSize)

	var (
		set    CalibrationSet
		index  int
		lineNo int
	)
	for index < MinLines && scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		want := extrinsicFields
		if index == lineR0Rect {
			want = rectFieldCount
		}
		values, err := parseNumbers(fields[1:], want, lineNo, lineNames[index])
		if err != nil {
			return nil, err
		}
		switch {
		case index < 4:
			set.P[index] = toMat34(values)
		case index == lineR0Rect:
			set.R0Rect = toMat3(values)
		case index == lineTrVeloToCam:
			set.TrVeloToCam = toMat34(values)
		case index == lineTrImuToVelo:
			set.TrImuToVelo = toMat34(values)
		}
		tracef("line %d: %s (%s) %v", lineNo, lineNames[index], fields[0], values)
		index++
	}
	if err := scanner.Err(); err != nil {
		return nil, &kitti.ParseError{Line: lineNo + 1, Reason: "read failed", Err: err}
	}
	if index < MinLines {
		return nil, &kitti.ParseError{
			Reason: fmt.Sprintf("got %d matrix lines, want at least %d", index, MinLines),
		}
	}
	return &set, nil
}

// ReadFile parses the calibration file at path.
func ReadFile(fsys fsutil.FileSystem, path string) (*CalibrationSet, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, kitti.WithPath(err, path)
	}
	defer f.Close()

	set, err := Parse(f)
	if err != nil {
		opsf("rejecting %s: %v", path, err)
		return nil, kitti.WithPath(err, path)
	}
	diagf("%s: parsed", path)
	return set, nil
}

// LoadOptions selects how a calibration file is returned.
type LoadOptions struct {
	// Extend also produces the homogeneous 4x4 matrices.
	Extend bool
}

// Calibration is the result of Load. Extended is nil unless requested.
type Calibration struct {
	Raw      *CalibrationSet
	Extended *Extended
}

// Load reads path and applies opts.
func Load(fsys fsutil.FileSystem, path string, opts LoadOptions) (*Calibration, error) {
	set, err := ReadFile(fsys, path)
	if err != nil {
		return nil, err
	}
	c := &Calibration{Raw: set}
	if opts.Extend {
		c.Extended = set.Extend()
	}
	return c, nil
}

func parseNumbers(tokens []string, want, lineNo int, name string) ([]float64, error) {
	if len(tokens) != want {
		return nil, &kitti.ParseError{
			Line:   lineNo,
			Field:  name,
			Reason: fmt.Sprintf("got %d numbers, want %d", len(tokens), want),
		}
	}
	values := make([]float64, want)
	for i, tok := range tokens {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, &kitti.ParseError{
				Line:   lineNo,
				Field:  fmt.Sprintf("%s[%d]", name, i),
				Reason: fmt.Sprintf("%q is not a number", tok),
				Err:    err,
			}
		}
		values[i] = v
	}
	return values, nil
}

func toMat34(v []float64) geometry.Mat34 {
	var m geometry.Mat34
	for r := 0; r < 3; r++ {
		copy(m[r][:], v[r*4:r*4+4])
	}
	return m
}

func toMat3(v []float64) geometry.Mat3 {
	var m geometry.Mat3
	for r := 0; r < 3; r++ {
		copy(m[r][:], v[r*3:r*3+3])
	}
	return m
}
