package velodyne

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/kitti-ingest/internal/fsutil"
	"github.com/banshee-data/kitti-ingest/internal/kitti"
)

func record(f0, f1, f2, f3 float32) []byte {
	buf := make([]byte, RecordSize)
	binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(f0))
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(f1))
	binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(f2))
	binary.LittleEndian.PutUint32(buf[12:], math.Float32bits(f3))
	return buf
}

func TestDecode_TwoRecordsSwapFirstFields(t *testing.T) {
	data := append(record(1, 2, 3, 0.5), record(-4.5, 10.25, -1.75, 0.9)...)
	require.Len(t, data, 32)

	points, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, Point{X: 2, Y: 1, Z: 3}, points[0])
	assert.Equal(t, Point{X: 10.25, Y: -4.5, Z: -1.75}, points[1])
}

func TestDecode_PartialRecordFails(t *testing.T) {
	data := append(record(1, 2, 3, 4), 0x7f)
	require.Len(t, data, 17)

	points, err := Decode(data)
	assert.Nil(t, points)

	var pe *kitti.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Reason, "1 trailing")
}

func TestDecode_Empty(t *testing.T) {
	points, err := Decode(nil)
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestReadFile(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	mfs.AddFile("velodyne/000001.bin", record(5, 6, 7, 1))
	mfs.AddFile("velodyne/broken.bin", make([]byte, 20))

	points, err := ReadFile(mfs, "velodyne/000001.bin")
	require.NoError(t, err)
	assert.Equal(t, []Point{{X: 6, Y: 5, Z: 7}}, points)

	var pe *kitti.ParseError
	_, err = ReadFile(mfs, "velodyne/broken.bin")
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "velodyne/broken.bin", pe.Path)

	_, err = ReadFile(mfs, "velodyne/missing.bin")
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "velodyne/missing.bin", pe.Path)
}

func TestFlipX_DoesNotMutateInput(t *testing.T) {
	in := []Point{{X: 1, Y: 2, Z: 3}, {X: -4, Y: 0, Z: 1}}
	out := FlipX(in)

	assert.Equal(t, []Point{{X: -1, Y: 2, Z: 3}, {X: 4, Y: 0, Z: 1}}, out)
	assert.Equal(t, float32(1), in[0].X)
}

func TestSensorOrder_RestoresOnDiskAxes(t *testing.T) {
	points, err := Decode(record(12.5, -3, -1.2, 0.4))
	require.NoError(t, err)

	assert.Equal(t, []Point{{X: 12.5, Y: -3, Z: -1.2}}, SensorOrder(points))
	assert.Equal(t, float32(-3), points[0].X)
}

func TestEncode_RoundTrip(t *testing.T) {
	points := []Point{{X: 1.5, Y: -2, Z: 0.25}, {X: 80, Y: 12, Z: -1.7}}
	decoded, err := Decode(Encode(points, 0.3))
	require.NoError(t, err)
	assert.Equal(t, points, decoded)
}

func TestSetLogWriters(t *testing.T) {
	var ops, diag bytes.Buffer
	SetLogWriters(&ops, &diag, nil)
	t.Cleanup(func() { SetLogWriters(nil, nil, nil) })

	mfs := fsutil.NewMemoryFileSystem()
	mfs.AddFile("bad.bin", make([]byte, 3))
	mfs.AddFile("good.bin", record(0, 0, 0, 0))

	_, _ = ReadFile(mfs, "bad.bin")
	_, _ = ReadFile(mfs, "good.bin")

	assert.Contains(t, ops.String(), "rejecting bad.bin")
	assert.Contains(t, diag.String(), "good.bin: 1 points")
}
