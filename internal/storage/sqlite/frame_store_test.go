package sqlite

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/kitti-ingest/internal/db"
	"github.com/banshee-data/kitti-ingest/internal/geometry"
	"github.com/banshee-data/kitti-ingest/internal/ingest"
	"github.com/banshee-data/kitti-ingest/internal/kitti/difficulty"
	"github.com/banshee-data/kitti-ingest/internal/kitti/label"
	"github.com/banshee-data/kitti-ingest/internal/kitti/velodyne"
)

func setupFrameStore(t *testing.T) *FrameStore {
	t.Helper()
	d, err := db.OpenMigrated(filepath.Join(t.TempDir(), "ingest.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return NewFrameStore(d.DB)
}

func sampleFrame(id string) *ingest.Frame {
	objects := []label.Object{
		{Name: "Car", Truncated: 0, Occluded: 0, Alpha: -1.57, Score: 0, Index: 0},
		{Name: "Van", Truncated: 0.4, Occluded: 2, Alpha: 0.21, Score: 0.5, Index: 1},
	}
	return &ingest.Frame{
		ID:      id,
		Objects: objects,
		Boxes: []geometry.Box3D{
			{Location: [3]float64{13.49, -1, -1.83}, Dims: [3]float64{3.2, 1.6, 1.5}, Yaw: 3.09, Mode: geometry.ModeLidar},
			{Location: [3]float64{19.82, 5.85, -1.73}, Dims: [3]float64{5.1, 1.9, 2.1}, Yaw: -1.64, Mode: geometry.ModeLidar},
		},
		Mode:       geometry.ModeLidar,
		Names:      []string{"Car", "Van"},
		Labels:     []int{0, -1},
		BBoxes:     [][4]float64{{614.24, 181.78, 727.31, 284.77}, {423.17, 173.67, 433.17, 224.03}},
		Difficulty: []difficulty.Level{difficulty.Easy, difficulty.Hard},
		Points:     make([]velodyne.Point, 3),
	}
}

func TestCreateRun(t *testing.T) {
	store := setupFrameStore(t)

	run := &Run{Dataset: "/data/kitti", TargetMode: geometry.ModeDepth, ConfigJSON: json.RawMessage(`{"target_mode":"depth"}`)}
	require.NoError(t, store.CreateRun(run))
	assert.Len(t, run.RunID, 36)
	assert.NotZero(t, run.CreatedAt)

	got, err := store.GetRun(run.RunID)
	require.NoError(t, err)
	if diff := cmp.Diff(run, got); diff != "" {
		t.Errorf("GetRun() mismatch (-want +got):\n%s", diff)
	}

	_, err = store.GetRun("missing")
	assert.ErrorContains(t, err, "not found")
}

func TestInsertFrameAndListObjects(t *testing.T) {
	store := setupFrameStore(t)
	run := &Run{Dataset: "kitti", TargetMode: geometry.ModeLidar}
	require.NoError(t, store.CreateRun(run))

	frame := sampleFrame("000001")
	require.NoError(t, store.InsertFrame(run.RunID, frame))

	rows, err := store.ListObjects(run.RunID, "000001")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	want := ObjectRow{
		FrameID:    "000001",
		Index:      1,
		Name:       "Van",
		ClassLabel: -1,
		Difficulty: difficulty.Hard,
		Truncated:  0.4,
		Occluded:   2,
		Alpha:      0.21,
		Score:      0.5,
		BBox:       [4]float64{423.17, 173.67, 433.17, 224.03},
		Box:        frame.Boxes[1],
	}
	if diff := cmp.Diff(want, rows[1]); diff != "" {
		t.Errorf("ListObjects()[1] mismatch (-want +got):\n%s", diff)
	}

	// Same frame twice violates the primary key and leaves nothing behind.
	err = store.InsertFrame(run.RunID, frame)
	assert.Error(t, err)
	rows, err = store.ListObjects(run.RunID, "000001")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestInsertFrame_UnknownRun(t *testing.T) {
	store := setupFrameStore(t)
	assert.Error(t, store.InsertFrame("no-such-run", sampleFrame("000001")))
}

func TestCountByDifficulty(t *testing.T) {
	store := setupFrameStore(t)
	run := &Run{Dataset: "kitti", TargetMode: geometry.ModeLidar}
	require.NoError(t, store.CreateRun(run))
	require.NoError(t, store.InsertFrame(run.RunID, sampleFrame("000001")))
	require.NoError(t, store.InsertFrame(run.RunID, sampleFrame("000002")))

	counts, err := store.CountByDifficulty(run.RunID)
	require.NoError(t, err)

	frames := []*ingest.Frame{sampleFrame("000001"), sampleFrame("000002")}
	if diff := cmp.Diff(ingest.CountByClass(frames), counts); diff != "" {
		t.Errorf("CountByDifficulty() mismatch (-want +got):\n%s", diff)
	}
}

func TestDeleteRunCascades(t *testing.T) {
	store := setupFrameStore(t)
	run := &Run{Dataset: "kitti", TargetMode: geometry.ModeLidar}
	require.NoError(t, store.CreateRun(run))
	require.NoError(t, store.InsertFrame(run.RunID, sampleFrame("000001")))

	require.NoError(t, store.DeleteRun(run.RunID))
	rows, err := store.ListObjects(run.RunID, "000001")
	require.NoError(t, err)
	assert.Empty(t, rows)

	assert.ErrorContains(t, store.DeleteRun(run.RunID), "not found")
}
