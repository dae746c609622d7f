package label

import (
	"strings"

	"github.com/banshee-data/kitti-ingest/internal/geometry"
	"github.com/banshee-data/kitti-ingest/internal/kitti/difficulty"
)

// Columns is the columnar view of a frame's objects. Every slice has one
// entry per object, in row order.
type Columns struct {
	Name       []string
	Truncated  []float64
	Occluded   []int
	Alpha      []float64
	BBox       [][4]float64
	Dimensions [][3]float64
	Location   [][3]float64
	RotationY  []float64
	Score      []float64
	Index      []int
	GroupID    []int
	Difficulty []difficulty.Level
}

// Len returns the number of objects in the view.
func (c Columns) Len() int {
	return len(c.Name)
}

// ToColumns transposes objs into per-field slices.
func ToColumns(objs []Object) Columns {
	n := len(objs)
	c := Columns{
		Name:       make([]string, n),
		Truncated:  make([]float64, n),
		Occluded:   make([]int, n),
		Alpha:      make([]float64, n),
		BBox:       make([][4]float64, n),
		Dimensions: make([][3]float64, n),
		Location:   make([][3]float64, n),
		RotationY:  make([]float64, n),
		Score:      make([]float64, n),
		Index:      make([]int, n),
		GroupID:    make([]int, n),
		Difficulty: make([]difficulty.Level, n),
	}
	for i, o := range objs {
		c.Name[i] = o.Name
		c.Truncated[i] = o.Truncated
		c.Occluded[i] = o.Occluded
		c.Alpha[i] = o.Alpha
		c.BBox[i] = [4]float64{o.BBox.XMin, o.BBox.YMin, o.BBox.XMax, o.BBox.YMax}
		c.Dimensions[i] = o.Dimensions
		c.Location[i] = o.Location
		c.RotationY[i] = o.RotationY
		c.Score[i] = o.Score
		c.Index[i] = o.Index
		c.GroupID[i] = o.GroupID
		c.Difficulty[i] = o.Difficulty
	}
	return c
}

// RemoveDontCare returns the objects that are not ignore regions. The
// input is not modified.
func RemoveDontCare(objs []Object) []Object {
	out := make([]Object, 0, len(objs))
	for _, o := range objs {
		if !o.IsDontCare() {
			out = append(out, o)
		}
	}
	return out
}

// ClassMatcher compares object names against a configured class list.
type ClassMatcher struct {
	Classes       []string
	CaseSensitive bool
}

// Label returns the position of name in the class list, or -1.
func (m ClassMatcher) Label(name string) int {
	for i, c := range m.Classes {
		if m.CaseSensitive {
			if c == name {
				return i
			}
		} else if strings.EqualFold(c, name) {
			return i
		}
	}
	return -1
}

// FilterByClass keeps objects whose name is in the matcher's class list.
func FilterByClass(objs []Object, m ClassMatcher) []Object {
	out := make([]Object, 0, len(objs))
	for _, o := range objs {
		if m.Label(o.Name) >= 0 {
			out = append(out, o)
		}
	}
	return out
}

// ClassLabels maps each object name to its class position; names outside
// the list map to -1.
func ClassLabels(objs []Object, m ClassMatcher) []int {
	labels := make([]int, len(objs))
	for i, o := range objs {
		labels[i] = m.Label(o.Name)
	}
	return labels
}

// CameraBoxes returns the CAMERA-mode 3D box of every object.
func CameraBoxes(objs []Object) []geometry.Box3D {
	boxes := make([]geometry.Box3D, len(objs))
	for i, o := range objs {
		boxes[i] = o.CameraBox()
	}
	return boxes
}
