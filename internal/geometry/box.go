package geometry

import (
	"fmt"
	"math"
	"strings"
)

// Mode tags the coordinate convention a Box3D is expressed in.
type Mode int

const (
	// ModeCamera: x right, y down, z forward. Dims are (l, h, w) and the
	// location is the bottom centre of the box.
	ModeCamera Mode = iota
	// ModeLidar: x forward, y left, z up. Dims are (l, w, h).
	ModeLidar
	// ModeDepth: x right, y forward, z up. Dims are (w, l, h).
	ModeDepth
)

// String returns the lower-case mode name used in configs and the store.
func (m Mode) String() string {
	switch m {
	case ModeCamera:
		return "camera"
	case ModeLidar:
		return "lidar"
	case ModeDepth:
		return "depth"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Valid reports whether m is one of the three known modes.
func (m Mode) Valid() bool {
	return m == ModeCamera || m == ModeLidar || m == ModeDepth
}

// ParseMode accepts "camera"/"cam", "lidar"/"velodyne" and "depth".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "camera", "cam":
		return ModeCamera, nil
	case "lidar", "velodyne":
		return ModeLidar, nil
	case "depth":
		return ModeDepth, nil
	}
	return 0, fmt.Errorf("unknown coordinate mode %q", s)
}

// Box3D is a 7-DoF box. Its fields only mean something together with Mode.
type Box3D struct {
	Location [3]float64
	Dims     [3]float64
	Yaw      float64
	Mode     Mode
}

// BoxFieldCount is the number of numeric fields in a flattened Box3D.
const BoxFieldCount = 7

// NewBox3D builds a box from a flat [x y z d0 d1 d2 yaw] row.
func NewBox3D(values []float64, mode Mode) (Box3D, error) {
	if !mode.Valid() {
		return Box3D{}, &ConversionError{From: mode, To: mode, Reason: "unknown coordinate mode"}
	}
	if len(values) != BoxFieldCount {
		return Box3D{}, &ConversionError{
			From:   mode,
			To:     mode,
			Reason: fmt.Sprintf("box row has %d fields, want %d", len(values), BoxFieldCount),
		}
	}
	return Box3D{
		Location: [3]float64{values[0], values[1], values[2]},
		Dims:     [3]float64{values[3], values[4], values[5]},
		Yaw:      values[6],
		Mode:     mode,
	}, nil
}

// BoxesFromRows builds one box per row, failing on the first malformed row.
func BoxesFromRows(rows [][]float64, mode Mode) ([]Box3D, error) {
	boxes := make([]Box3D, 0, len(rows))
	for i, row := range rows {
		b, err := NewBox3D(row, mode)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		boxes = append(boxes, b)
	}
	return boxes, nil
}

// Values flattens the box to [x y z d0 d1 d2 yaw].
func (b Box3D) Values() [BoxFieldCount]float64 {
	return [BoxFieldCount]float64{
		b.Location[0], b.Location[1], b.Location[2],
		b.Dims[0], b.Dims[1], b.Dims[2],
		b.Yaw,
	}
}

// Height returns the vertical extent of the box in its own mode.
func (b Box3D) Height() float64 {
	if b.Mode == ModeCamera {
		return b.Dims[1]
	}
	return b.Dims[2]
}

// ShiftToGravityCenter moves a bottom-centred location to the geometric
// centre. Camera y points down, so the camera case subtracts.
func ShiftToGravityCenter(b Box3D) Box3D {
	out := b
	switch b.Mode {
	case ModeCamera:
		out.Location[1] -= b.Dims[1] / 2
	default:
		out.Location[2] += b.Dims[2] / 2
	}
	return out
}

// NormalizeYaw limits yaw to [-π, π).
func NormalizeYaw(yaw float64) float64 {
	return yaw - math.Floor(yaw/(2*math.Pi)+0.5)*2*math.Pi
}

// Footprint returns the four ground-plane corners of a LIDAR or DEPTH box,
// counter-clockwise from the front-left corner. Dims[0] runs along the yaw
// direction and Dims[1] across it.
func (b Box3D) Footprint() ([4][2]float64, error) {
	if b.Mode != ModeLidar && b.Mode != ModeDepth {
		return [4][2]float64{}, &ConversionError{From: b.Mode, To: b.Mode, Reason: "footprint needs an up-axis-z mode"}
	}
	hx, hy := b.Dims[0]/2, b.Dims[1]/2
	c, s := math.Cos(b.Yaw), math.Sin(b.Yaw)
	local := [4][2]float64{{hx, hy}, {-hx, hy}, {-hx, -hy}, {hx, -hy}}
	var out [4][2]float64
	for i, p := range local {
		out[i] = [2]float64{
			b.Location[0] + c*p[0] - s*p[1],
			b.Location[1] + s*p[0] + c*p[1],
		}
	}
	return out, nil
}
