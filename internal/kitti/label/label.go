// Package label parses KITTI object label files: one object per line,
// whitespace separated, 15 fields plus an optional confidence score.
//
//	name truncated occluded alpha x1 y1 x2 y2 h w l x y z rotation_y [score]
package label

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/banshee-data/kitti-ingest/internal/fsutil"
	"github.com/banshee-data/kitti-ingest/internal/geometry"
	"github.com/banshee-data/kitti-ingest/internal/kitti"
	"github.com/banshee-data/kitti-ingest/internal/kitti/difficulty"
)

// DontCare marks a region excluded from evaluation, not an object.
const DontCare = "DontCare"

const (
	minFields   = 15
	scoreField  = 15
	maxLineSize = 1 << 20
)

// BBox2D is an axis-aligned image rectangle in pixels.
type BBox2D struct {
	XMin, YMin, XMax, YMax float64
}

// Height is the pixel height used for difficulty banding.
func (b BBox2D) Height() float64 {
	return b.YMax - b.YMin
}

// Object is one parsed label row.
type Object struct {
	Name      string
	Truncated float64 // 0 (fully visible) to 1 (fully truncated)
	Occluded  int     // 0 visible, 1 partly, 2 largely occluded, 3 unknown
	Alpha     float64
	BBox      BBox2D
	// Dimensions are stored (l, h, w); the file holds (h, w, l).
	Dimensions [3]float64
	// Location is the bottom centre of the box in the camera frame.
	Location  [3]float64
	RotationY float64
	Score     float64

	Index      int // 0..k-1 over non-DontCare rows, -1 for DontCare
	GroupID    int // row position in the file
	Difficulty difficulty.Level
}

// IsDontCare reports whether the row is an ignore region.
func (o Object) IsDontCare() bool {
	return o.Name == DontCare
}

// CameraBox returns the object's 3D box in camera convention.
func (o Object) CameraBox() geometry.Box3D {
	return geometry.Box3D{
		Location: o.Location,
		Dims:     o.Dimensions,
		Yaw:      o.RotationY,
		Mode:     geometry.ModeCamera,
	}
}

// Parse reads label rows from r. Blank lines are skipped; an empty input
// yields an empty, non-nil slice.
func Parse(r io.Reader) ([]Object, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)

	objects := make([]Object, 0)
	lineNo := 0
	nextIndex := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		obj, err := parseFields(fields, lineNo)
		if err != nil {
			return nil, err
		}
		obj.GroupID = len(objects)
		if obj.IsDontCare() {
			obj.Index = -1
		} else {
			obj.Index = nextIndex
			nextIndex++
		}
		obj.Difficulty = difficulty.Classify(obj.BBox.Height(), obj.Occluded, obj.Truncated)
		tracef("line %d: %s index=%d difficulty=%s", lineNo, obj.Name, obj.Index, obj.Difficulty)
		objects = append(objects, obj)
	}
	if err := scanner.Err(); err != nil {
		return nil, &kitti.ParseError{Line: lineNo + 1, Reason: "read failed", Err: err}
	}
	return objects, nil
}

// ReadFile parses the label file at path.
func ReadFile(fsys fsutil.FileSystem, path string) ([]Object, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, kitti.WithPath(err, path)
	}
	defer f.Close()

	objects, err := Parse(f)
	if err != nil {
		opsf("rejecting %s: %v", path, err)
		return nil, kitti.WithPath(err, path)
	}
	diagf("%s: %d objects", path, len(objects))
	return objects, nil
}

// fieldReader converts tokens of one line, keeping the first error.
type fieldReader struct {
	fields []string
	line   int
	err    error
}

func (fr *fieldReader) float(i int, name string) float64 {
	if fr.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(fr.fields[i], 64)
	if err != nil {
		fr.err = &kitti.ParseError{Line: fr.line, Field: name, Reason: fmt.Sprintf("%q is not a number", fr.fields[i]), Err: err}
	}
	return v
}

func (fr *fieldReader) int(i int, name string) int {
	if fr.err != nil {
		return 0
	}
	v, err := strconv.Atoi(fr.fields[i])
	if err != nil {
		fr.err = &kitti.ParseError{Line: fr.line, Field: name, Reason: fmt.Sprintf("%q is not an integer", fr.fields[i]), Err: err}
	}
	return v
}

func parseFields(fields []string, lineNo int) (Object, error) {
	if len(fields) < minFields {
		return Object{}, &kitti.ParseError{
			Line:   lineNo,
			Reason: fmt.Sprintf("got %d fields, want at least %d", len(fields), minFields),
		}
	}

	fr := &fieldReader{fields: fields, line: lineNo}
	obj := Object{
		Name:      fields[0],
		Truncated: fr.float(1, "truncated"),
		Occluded:  fr.int(2, "occluded"),
		Alpha:     fr.float(3, "alpha"),
		BBox: BBox2D{
			XMin: fr.float(4, "bbox_xmin"),
			YMin: fr.float(5, "bbox_ymin"),
			XMax: fr.float(6, "bbox_xmax"),
			YMax: fr.float(7, "bbox_ymax"),
		},
	}
	h := fr.float(8, "dim_h")
	w := fr.float(9, "dim_w")
	l := fr.float(10, "dim_l")
	obj.Dimensions = [3]float64{l, h, w}
	obj.Location = [3]float64{
		fr.float(11, "loc_x"),
		fr.float(12, "loc_y"),
		fr.float(13, "loc_z"),
	}
	obj.RotationY = fr.float(14, "rotation_y")
	if len(fields) > scoreField {
		obj.Score = fr.float(scoreField, "score")
	}
	if fr.err != nil {
		return Object{}, fr.err
	}
	return obj, nil
}
