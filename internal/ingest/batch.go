package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/kitti-ingest/internal/config"
	"github.com/banshee-data/kitti-ingest/internal/fsutil"
	"github.com/banshee-data/kitti-ingest/internal/kitti/difficulty"
)

// KITTI training split layout below the dataset root.
const (
	CalibDir    = "calib"
	LabelDir    = "label_2"
	VelodyneDir = "velodyne"
)

// DiscoverFrames lists the frames under root that have both a calibration
// and a label file, sorted by id. The point cloud is attached when present.
func DiscoverFrames(fsys fsutil.FileSystem, root string) ([]FramePaths, error) {
	calibs, err := fsys.Glob(filepath.Join(root, CalibDir, "*.txt"))
	if err != nil {
		return nil, fmt.Errorf("list calibration files: %w", err)
	}

	frames := make([]FramePaths, 0, len(calibs))
	for _, calibPath := range calibs {
		id := strings.TrimSuffix(filepath.Base(calibPath), ".txt")
		labelPath := filepath.Join(root, LabelDir, id+".txt")
		if !fsutil.Exists(fsys, labelPath) {
			opsf("frame %s: no label file, skipping", id)
			continue
		}
		fp := FramePaths{ID: id, Calib: calibPath, Label: labelPath}
		if bin := filepath.Join(root, VelodyneDir, id+".bin"); fsutil.Exists(fsys, bin) {
			fp.Velodyne = bin
		}
		frames = append(frames, fp)
	}
	diagf("discovered %d frames under %s", len(frames), root)
	return frames, nil
}

// Batch loads frames concurrently with at most cfg.GetWorkers() in flight.
// The result is in input order. The first error cancels the remaining
// frames and is returned.
func Batch(ctx context.Context, fsys fsutil.FileSystem, frames []FramePaths, cfg *config.IngestConfig) ([]*Frame, error) {
	if cfg == nil {
		cfg = config.EmptyIngestConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	results := make([]*Frame, len(frames))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.GetWorkers())
	for i, fp := range frames {
		i, fp := i, fp
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			frame, err := LoadFrame(fsys, fp, cfg)
			if err != nil {
				opsf("frame %s failed: %v", fp.ID, err)
				return err
			}
			results[i] = frame
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// DifficultyCounts holds object counts indexed by difficulty; the last
// slot counts Unknown.
type DifficultyCounts [4]int

// Add records one object of level l.
func (c *DifficultyCounts) Add(l difficulty.Level) {
	c.AddN(l, 1)
}

// AddN records n objects of level l.
func (c *DifficultyCounts) AddN(l difficulty.Level, n int) {
	if l < difficulty.Easy || l > difficulty.Hard {
		c[3] += n
		return
	}
	c[l] += n
}

// Get returns the count for l.
func (c DifficultyCounts) Get(l difficulty.Level) int {
	if l < difficulty.Easy || l > difficulty.Hard {
		return c[3]
	}
	return c[l]
}

// CountByClass tallies objects per class name and difficulty.
func CountByClass(frames []*Frame) map[string]DifficultyCounts {
	counts := make(map[string]DifficultyCounts)
	for _, f := range frames {
		for i, name := range f.Names {
			c := counts[name]
			c.Add(f.Difficulty[i])
			counts[name] = c
		}
	}
	return counts
}
