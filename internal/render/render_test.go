package render

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/kitti-ingest/internal/fsutil"
	"github.com/banshee-data/kitti-ingest/internal/geometry"
	"github.com/banshee-data/kitti-ingest/internal/ingest"
	"github.com/banshee-data/kitti-ingest/internal/kitti/difficulty"
	"github.com/banshee-data/kitti-ingest/internal/kitti/velodyne"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func sampleBEV() BEV {
	points := make([]velodyne.Point, 0, 500)
	for i := 0; i < 500; i++ {
		a := float64(i) * 2 * math.Pi / 500
		points = append(points, velodyne.Point{X: float32(20 * math.Cos(a)), Y: float32(20 * math.Sin(a)), Z: -1.7})
	}
	return BEV{
		Title:  "000001",
		Mode:   geometry.ModeLidar,
		Points: points,
		Boxes: []geometry.Box3D{
			{Location: [3]float64{10, 2, -1}, Dims: [3]float64{4, 1.8, 1.5}, Yaw: 0.3, Mode: geometry.ModeLidar},
			{Location: [3]float64{-2, 1.6, 8}, Dims: [3]float64{0.8, 1.7, 0.6}, Yaw: 1.2, Mode: geometry.ModeCamera},
			{Location: [3]float64{0, 5, -1}, Dims: [3]float64{1.5, 4, 1.5}, Mode: geometry.ModeDepth},
		},
		Names: []string{"Car", "Pedestrian"},
	}
}

func TestWriteBEVPlot_PNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBEVPlot(&buf, sampleBEV()))
	require.Greater(t, buf.Len(), len(pngMagic))
	assert.Equal(t, pngMagic, buf.Bytes()[:len(pngMagic)])
}

func TestWriteBEVPlot_EmptyFrame(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBEVPlot(&buf, BEV{Title: "empty"}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestWriteBEVPlot_RejectsUnknownMode(t *testing.T) {
	b := BEV{Boxes: []geometry.Box3D{{Mode: geometry.Mode(9)}}}
	var buf bytes.Buffer
	var ce *geometry.ConversionError
	assert.ErrorAs(t, WriteBEVPlot(&buf, b), &ce)
}

func TestFootprints_FollowPointFrame(t *testing.T) {
	car := geometry.Box3D{Location: [3]float64{10, 2, -1}, Dims: [3]float64{4, 1.8, 1.5}, Mode: geometry.ModeLidar}

	for _, tc := range []struct {
		name         string
		mode         geometry.Mode
		cx, cy       float64
		halfX, halfY float64
	}{
		{name: "lidar", mode: geometry.ModeLidar, cx: 10, cy: 2, halfX: 2, halfY: 0.9},
		{name: "camera draws as lidar", mode: geometry.ModeCamera, cx: 10, cy: 2, halfX: 2, halfY: 0.9},
		{name: "depth", mode: geometry.ModeDepth, cx: -2, cy: 10, halfX: 0.9, halfY: 2},
	} {
		t.Run(tc.name, func(t *testing.T) {
			outlines, err := footprints(BEV{Mode: tc.mode, Boxes: []geometry.Box3D{car}})
			require.NoError(t, err)
			require.Len(t, outlines, 1)

			minX, maxX := math.Inf(1), math.Inf(-1)
			minY, maxY := math.Inf(1), math.Inf(-1)
			for _, c := range outlines[0] {
				minX, maxX = math.Min(minX, c[0]), math.Max(maxX, c[0])
				minY, maxY = math.Min(minY, c[1]), math.Max(maxY, c[1])
			}
			assert.InDelta(t, tc.cx-tc.halfX, minX, 1e-9)
			assert.InDelta(t, tc.cx+tc.halfX, maxX, 1e-9)
			assert.InDelta(t, tc.cy-tc.halfY, minY, 1e-9)
			assert.InDelta(t, tc.cy+tc.halfY, maxY, 1e-9)
		})
	}
}

func TestWriteBEVPlot_RejectsUnknownPointFrame(t *testing.T) {
	var buf bytes.Buffer
	var ce *geometry.ConversionError
	assert.ErrorAs(t, WriteBEVPlot(&buf, BEV{Mode: geometry.Mode(7)}), &ce)
}

func TestSaveBEVPlot(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	require.NoError(t, SaveBEVPlot(mfs, "plots/000001.png", sampleBEV()))

	data, err := mfs.ReadFile("plots/000001.png")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngMagic))
}

func TestGenerateColors(t *testing.T) {
	assert.Nil(t, generateColors(0))
	colors := generateColors(3)
	require.Len(t, colors, 3)
	assert.NotEqual(t, colors[0], colors[1])
	assert.NotEqual(t, colors[1], colors[2])
}

func TestWriteSummaryHTML(t *testing.T) {
	var car, ped ingest.DifficultyCounts
	car.Add(difficulty.Easy)
	car.Add(difficulty.Moderate)
	ped.Add(difficulty.Hard)
	ped.Add(difficulty.Unknown)

	var buf bytes.Buffer
	err := WriteSummaryHTML(&buf, "KITTI training", map[string]ingest.DifficultyCounts{
		"Car":        car,
		"Pedestrian": ped,
	})
	require.NoError(t, err)

	html := buf.String()
	for _, want := range []string{"KITTI training", "Car", "Pedestrian", "easy", "moderate", "hard", "unknown", "objects=4"} {
		assert.Contains(t, html, want)
	}
}
