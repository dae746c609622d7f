package geometry

import "math"

type modePair struct {
	src, dst Mode
}

// conversionRule restates a box in another mode:
// location' = Rotation·location, dims'[i] = dims[Perm[i]],
// yaw' = YawSign·yaw + YawOffset.
type conversionRule struct {
	Rotation  Mat3
	Perm      [3]int
	YawSign   float64
	YawOffset float64
}

// Camera forward is LiDAR x, camera right is LiDAR -y, camera down is LiDAR -z.
// DEPTH relabels LiDAR axes only: x_depth = -y_lidar, y_depth = x_lidar.
var conversionRules = map[modePair]conversionRule{
	{ModeCamera, ModeLidar}: {
		Rotation:  Mat3{{0, 0, 1}, {-1, 0, 0}, {0, -1, 0}},
		Perm:      [3]int{0, 2, 1},
		YawSign:   -1,
		YawOffset: -math.Pi / 2,
	},
	{ModeLidar, ModeCamera}: {
		Rotation:  Mat3{{0, -1, 0}, {0, 0, -1}, {1, 0, 0}},
		Perm:      [3]int{0, 2, 1},
		YawSign:   -1,
		YawOffset: -math.Pi / 2,
	},
	{ModeLidar, ModeDepth}: {
		Rotation: Mat3{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}},
		Perm:     [3]int{1, 0, 2},
		YawSign:  1,
	},
	{ModeDepth, ModeLidar}: {
		Rotation: Mat3{{0, 1, 0}, {-1, 0, 0}, {0, 0, 1}},
		Perm:     [3]int{1, 0, 2},
		YawSign:  1,
	},
	{ModeCamera, ModeDepth}: {
		Rotation:  Mat3{{1, 0, 0}, {0, 0, 1}, {0, -1, 0}},
		Perm:      [3]int{2, 0, 1},
		YawSign:   -1,
		YawOffset: -math.Pi / 2,
	},
	{ModeDepth, ModeCamera}: {
		Rotation:  Mat3{{1, 0, 0}, {0, 0, -1}, {0, 1, 0}},
		Perm:      [3]int{1, 2, 0},
		YawSign:   -1,
		YawOffset: -math.Pi / 2,
	},
}

func lookupRule(src, dst Mode) (conversionRule, error) {
	if !src.Valid() || !dst.Valid() {
		return conversionRule{}, &ConversionError{From: src, To: dst, Reason: "unknown coordinate mode"}
	}
	rule, ok := conversionRules[modePair{src, dst}]
	if !ok {
		return conversionRule{}, &ConversionError{From: src, To: dst, Reason: "no conversion rule"}
	}
	return rule, nil
}

func (r conversionRule) restate(b Box3D, dst Mode, loc [3]float64) Box3D {
	return Box3D{
		Location: loc,
		Dims:     [3]float64{b.Dims[r.Perm[0]], b.Dims[r.Perm[1]], b.Dims[r.Perm[2]]},
		Yaw:      r.YawSign*b.Yaw + r.YawOffset,
		Mode:     dst,
	}
}

// Convert restates b in dst using the fixed rotation for the mode pair.
// Converting to the box's own mode returns it unchanged.
func Convert(b Box3D, dst Mode) (Box3D, error) {
	if b.Mode == dst && dst.Valid() {
		return b, nil
	}
	rule, err := lookupRule(b.Mode, dst)
	if err != nil {
		return Box3D{}, err
	}
	return rule.restate(b, dst, rule.Rotation.Apply(b.Location)), nil
}

// ConvertWithTransform is Convert with a calibrated 4x4 applied to the
// homogeneous location in place of the fixed rotation. Only CAMERA<->LIDAR
// accepts a transform; dims and yaw still follow the fixed rule.
func ConvertWithTransform(b Box3D, dst Mode, rt Mat4) (Box3D, error) {
	if b.Mode == dst && dst.Valid() {
		return b, nil
	}
	rule, err := lookupRule(b.Mode, dst)
	if err != nil {
		return Box3D{}, err
	}
	if !isCameraLidarPair(b.Mode, dst) {
		return Box3D{}, &ConversionError{From: b.Mode, To: dst, Reason: "calibrated transform only applies between camera and lidar"}
	}
	return rule.restate(b, dst, rt.Apply(b.Location)), nil
}

func isCameraLidarPair(a, b Mode) bool {
	return (a == ModeCamera && b == ModeLidar) || (a == ModeLidar && b == ModeCamera)
}

// ConvertAll converts every box, preserving order. A nil rt selects the
// fixed rotation.
func ConvertAll(boxes []Box3D, dst Mode, rt *Mat4) ([]Box3D, error) {
	out := make([]Box3D, len(boxes))
	for i, b := range boxes {
		var err error
		if rt != nil {
			out[i], err = ConvertWithTransform(b, dst, *rt)
		} else {
			out[i], err = Convert(b, dst)
		}
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
