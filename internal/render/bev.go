// Package render draws ingested frames for inspection: a bird's-eye PNG
// of one frame and an HTML summary of a whole run.
package render

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/kitti-ingest/internal/fsutil"
	"github.com/banshee-data/kitti-ingest/internal/geometry"
	"github.com/banshee-data/kitti-ingest/internal/kitti/velodyne"
)

// BEVSize is the edge length of the square bird's-eye image.
const BEVSize = 8 * vg.Inch

// maxPlotPoints caps the scatter so a full 120k point scan stays quick.
const maxPlotPoints = 20000

// BEV is the content of one bird's-eye plot.
type BEV struct {
	Title string
	// Mode is the frame Points are in. CAMERA has no ground plane, so it
	// (and the zero value) draws in LIDAR.
	Mode   geometry.Mode
	Points []velodyne.Point
	Boxes  []geometry.Box3D
	Names  []string // aligned with Boxes, used for colour and legend
}

// WriteBEVPlot renders b as a PNG to w. Boxes are restated in the points'
// frame before their footprints are drawn.
func WriteBEVPlot(w io.Writer, b BEV) error {
	outlines, err := footprints(b)
	if err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = b.Title
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"

	if len(b.Points) > 0 {
		stride := (len(b.Points) + maxPlotPoints - 1) / maxPlotPoints
		pts := make(plotter.XYs, 0, len(b.Points)/stride+1)
		for i := 0; i < len(b.Points); i += stride {
			pts = append(pts, plotter.XY{X: float64(b.Points[i].X), Y: float64(b.Points[i].Y)})
		}
		scatter, err := plotter.NewScatter(pts)
		if err != nil {
			return err
		}
		scatter.GlyphStyle.Shape = draw.CircleGlyph{}
		scatter.GlyphStyle.Radius = vg.Points(0.5)
		scatter.GlyphStyle.Color = color.Gray{Y: 120}
		p.Add(scatter)
	}

	classes := distinct(b.Names)
	colors := generateColors(len(classes))
	legend := make(map[string]bool, len(classes))
	for i, corners := range outlines {
		outline := make(plotter.XYs, 0, len(corners)+1)
		for _, c := range corners {
			outline = append(outline, plotter.XY{X: c[0], Y: c[1]})
		}
		outline = append(outline, outline[0])

		line, err := plotter.NewLine(outline)
		if err != nil {
			return err
		}
		line.Width = vg.Points(1.5)
		name := nameAt(b.Names, i)
		line.Color = colors[sort.SearchStrings(classes, name)]
		p.Add(line)
		if !legend[name] {
			p.Legend.Add(name, line)
			legend[name] = true
		}
	}

	wt, err := p.WriterTo(BEVSize, BEVSize, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// footprints returns the ground outline of every box in the frame of the
// points.
func footprints(b BEV) ([][4][2]float64, error) {
	view := b.Mode
	if view == geometry.ModeCamera {
		view = geometry.ModeLidar
	}
	if !view.Valid() {
		return nil, &geometry.ConversionError{From: b.Mode, To: b.Mode, Reason: "unknown plot frame"}
	}
	out := make([][4][2]float64, 0, len(b.Boxes))
	for i, box := range b.Boxes {
		box, err := geometry.Convert(box, view)
		if err != nil {
			return nil, fmt.Errorf("box %d: %w", i, err)
		}
		corners, err := box.Footprint()
		if err != nil {
			return nil, fmt.Errorf("box %d: %w", i, err)
		}
		out = append(out, corners)
	}
	return out, nil
}

// SaveBEVPlot writes the plot to path on fsys.
func SaveBEVPlot(fsys fsutil.FileSystem, path string, b BEV) error {
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteBEVPlot(f, b); err != nil {
		f.Close()
		return fmt.Errorf("render %s: %w", path, err)
	}
	return f.Close()
}

func nameAt(names []string, i int) string {
	if i < len(names) && names[i] != "" {
		return names[i]
	}
	return "object"
}

func distinct(names []string) []string {
	seen := map[string]bool{"object": true}
	out := []string{"object"}
	for _, n := range names {
		if n != "" && !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

// generateColors creates a palette of distinct colors, one per class
func generateColors(n int) []color.Color {
	if n <= 0 {
		return nil
	}

	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		hue := float64(i) / float64(n)
		r, g, b := hslToRGB(hue, 0.7, 0.5)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

// hslToRGB converts HSL to RGB (0-255 range)
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	toByte := func(t float64) uint8 {
		return uint8(math.Round(hueToRGB(p, q, t) * 255))
	}
	return toByte(h + 1.0/3), toByte(h), toByte(h - 1.0/3)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 1.0/2:
		return q
	case t < 2.0/3:
		return p + (q-p)*(2.0/3-t)*6
	}
	return p
}
