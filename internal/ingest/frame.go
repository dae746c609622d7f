// Package ingest turns one KITTI frame (calibration, labels and an
// optional point cloud) into coordinate-consistent typed records, and
// runs that over a dataset directory.
package ingest

import (
	"fmt"

	"github.com/banshee-data/kitti-ingest/internal/config"
	"github.com/banshee-data/kitti-ingest/internal/fsutil"
	"github.com/banshee-data/kitti-ingest/internal/geometry"
	"github.com/banshee-data/kitti-ingest/internal/kitti/calib"
	"github.com/banshee-data/kitti-ingest/internal/kitti/difficulty"
	"github.com/banshee-data/kitti-ingest/internal/kitti/label"
	"github.com/banshee-data/kitti-ingest/internal/kitti/velodyne"
)

// FramePaths locates the files of one frame. Velodyne may be empty.
type FramePaths struct {
	ID       string
	Calib    string
	Label    string
	Velodyne string
}

// Frame is a normalised frame. The per-object slices are aligned with
// Objects, which never contains DontCare rows.
type Frame struct {
	ID          string
	Calibration *calib.Calibration
	Objects     []label.Object

	Boxes      []geometry.Box3D // in Mode
	Mode       geometry.Mode
	Names      []string
	Labels     []int // position in the configured class list, -1 if absent
	BBoxes     [][4]float64
	Difficulty []difficulty.Level

	Points     []velodyne.Point
	PointsMode geometry.Mode // DEPTH when flip_points_x is set, LIDAR otherwise
}

// Len returns the number of objects in the frame.
func (f *Frame) Len() int {
	return len(f.Objects)
}

// LoadFrame reads and normalises one frame. Camera boxes are moved into
// the LiDAR frame with the calibrated transform, then restated in the
// configured target mode. Points are left in PointsMode.
func LoadFrame(fsys fsutil.FileSystem, paths FramePaths, cfg *config.IngestConfig) (*Frame, error) {
	if cfg == nil {
		cfg = config.EmptyIngestConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("frame %s: %w", paths.ID, err)
	}
	target, err := cfg.GetTargetMode()
	if err != nil {
		return nil, fmt.Errorf("frame %s: %w", paths.ID, err)
	}

	cal, err := calib.Load(fsys, paths.Calib, calib.LoadOptions{Extend: cfg.GetExtendMatrix()})
	if err != nil {
		return nil, err
	}
	ext := cal.Extended
	if ext == nil {
		ext = cal.Raw.Extend()
	}
	camToLidar, err := ext.CameraToLidar()
	if err != nil {
		return nil, fmt.Errorf("frame %s: %w", paths.ID, err)
	}

	all, err := label.ReadFile(fsys, paths.Label)
	if err != nil {
		return nil, err
	}
	objects := label.RemoveDontCare(all)

	boxes, err := geometry.ConvertAll(label.CameraBoxes(objects), geometry.ModeLidar, &camToLidar)
	if err != nil {
		return nil, fmt.Errorf("frame %s: %w", paths.ID, err)
	}
	boxes, err = geometry.ConvertAll(boxes, target, nil)
	if err != nil {
		return nil, fmt.Errorf("frame %s: %w", paths.ID, err)
	}
	for i := range boxes {
		if cfg.GetShiftToGravityCenter() {
			boxes[i] = geometry.ShiftToGravityCenter(boxes[i])
		}
		if cfg.GetNormalizeYaw() {
			boxes[i].Yaw = geometry.NormalizeYaw(boxes[i].Yaw)
		}
		tracef("frame %s object %d: %s %v", paths.ID, i, objects[i].Name, boxes[i].Values())
	}

	cols := label.ToColumns(objects)
	matcher := label.ClassMatcher{
		Classes:       cfg.GetClasses(),
		CaseSensitive: cfg.GetClassMatchCaseSensitive(),
	}
	frame := &Frame{
		ID:          paths.ID,
		Calibration: cal,
		Objects:     objects,
		Boxes:       boxes,
		Mode:        target,
		Names:       cols.Name,
		Labels:      label.ClassLabels(objects, matcher),
		BBoxes:      cols.BBox,
		Difficulty:  cols.Difficulty,
		PointsMode:  geometry.ModeLidar,
	}
	if cfg.GetFlipPointsX() {
		frame.PointsMode = geometry.ModeDepth
	}

	if paths.Velodyne != "" {
		points, err := velodyne.ReadFile(fsys, paths.Velodyne)
		if err != nil {
			return nil, err
		}
		// Decoded points are (y, x, z) in sensor axes. Negating x gives
		// DEPTH; swapping back gives LIDAR.
		if cfg.GetFlipPointsX() {
			points = velodyne.FlipX(points)
		} else {
			points = velodyne.SensorOrder(points)
		}
		frame.Points = points
	}

	diagf("frame %s: %d objects (%d DontCare dropped), %d points in %s, boxes in %s",
		paths.ID, len(objects), len(all)-len(objects), len(frame.Points), frame.PointsMode, target)
	return frame, nil
}
