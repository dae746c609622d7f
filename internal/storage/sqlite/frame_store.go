package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/kitti-ingest/internal/geometry"
	"github.com/banshee-data/kitti-ingest/internal/ingest"
	"github.com/banshee-data/kitti-ingest/internal/kitti/difficulty"
)

// Run is one ingest invocation over a dataset.
type Run struct {
	RunID      string          `json:"run_id"`
	Dataset    string          `json:"dataset"`
	TargetMode geometry.Mode   `json:"target_mode"`
	ConfigJSON json.RawMessage `json:"config_json,omitempty"`
	CreatedAt  int64           `json:"created_at"`
}

// ObjectRow is a persisted object of a frame.
type ObjectRow struct {
	FrameID    string
	Index      int
	Name       string
	ClassLabel int
	Difficulty difficulty.Level
	Truncated  float64
	Occluded   int
	Alpha      float64
	Score      float64
	BBox       [4]float64
	Box        geometry.Box3D
}

// FrameStore provides persistence for ingest runs and their frames.
type FrameStore struct {
	db *sql.DB
}

// NewFrameStore creates a new FrameStore over a migrated database.
func NewFrameStore(db *sql.DB) *FrameStore {
	return &FrameStore{db: db}
}

// CreateRun persists a new run. If RunID is empty, a UUID is generated.
func (s *FrameStore) CreateRun(run *Run) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = time.Now().UnixNano()
	}

	var configStr interface{}
	if len(run.ConfigJSON) > 0 {
		configStr = string(run.ConfigJSON)
	}

	return retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO ingest_runs (run_id, dataset, target_mode, config_json, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			run.RunID, run.Dataset, run.TargetMode.String(), configStr, run.CreatedAt,
		)
		return err
	})
}

// GetRun returns the run with the given id.
func (s *FrameStore) GetRun(runID string) (*Run, error) {
	var (
		run       Run
		mode      string
		configStr sql.NullString
	)
	err := s.db.QueryRow(`
		SELECT run_id, dataset, target_mode, config_json, created_at
		FROM ingest_runs WHERE run_id = ?`, runID,
	).Scan(&run.RunID, &run.Dataset, &mode, &configStr, &run.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	if run.TargetMode, err = geometry.ParseMode(mode); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	if configStr.Valid {
		run.ConfigJSON = json.RawMessage(configStr.String)
	}
	return &run, nil
}

// InsertFrame stores a frame and all its objects in one transaction.
func (s *FrameStore) InsertFrame(runID string, frame *ingest.Frame) error {
	return retryOnBusy(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if _, err := tx.Exec(`
			INSERT INTO ingest_frames (run_id, frame_id, object_count, point_count)
			VALUES (?, ?, ?, ?)`,
			runID, frame.ID, frame.Len(), len(frame.Points),
		); err != nil {
			return fmt.Errorf("insert frame %s: %w", frame.ID, err)
		}

		stmt, err := tx.Prepare(`
			INSERT INTO ingest_objects (
				run_id, frame_id, object_idx, name, class_label, difficulty,
				truncated, occluded, alpha, score,
				bbox_xmin, bbox_ymin, bbox_xmax, bbox_ymax,
				box_mode, loc_x, loc_y, loc_z, dim_0, dim_1, dim_2, yaw
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, obj := range frame.Objects {
			b := frame.Boxes[i]
			bb := frame.BBoxes[i]
			if _, err := stmt.Exec(
				runID, frame.ID, i, obj.Name, frame.Labels[i], int(frame.Difficulty[i]),
				obj.Truncated, obj.Occluded, obj.Alpha, obj.Score,
				bb[0], bb[1], bb[2], bb[3],
				b.Mode.String(), b.Location[0], b.Location[1], b.Location[2],
				b.Dims[0], b.Dims[1], b.Dims[2], b.Yaw,
			); err != nil {
				return fmt.Errorf("insert frame %s object %d: %w", frame.ID, i, err)
			}
		}
		return tx.Commit()
	})
}

// ListObjects returns the objects of one frame in index order.
func (s *FrameStore) ListObjects(runID, frameID string) ([]ObjectRow, error) {
	rows, err := s.db.Query(`
		SELECT frame_id, object_idx, name, class_label, difficulty,
		       truncated, occluded, alpha, score,
		       bbox_xmin, bbox_ymin, bbox_xmax, bbox_ymax,
		       box_mode, loc_x, loc_y, loc_z, dim_0, dim_1, dim_2, yaw
		FROM ingest_objects
		WHERE run_id = ? AND frame_id = ?
		ORDER BY object_idx`, runID, frameID)
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	defer rows.Close()

	var out []ObjectRow
	for rows.Next() {
		var (
			o     ObjectRow
			level int
			mode  string
		)
		if err := rows.Scan(
			&o.FrameID, &o.Index, &o.Name, &o.ClassLabel, &level,
			&o.Truncated, &o.Occluded, &o.Alpha, &o.Score,
			&o.BBox[0], &o.BBox[1], &o.BBox[2], &o.BBox[3],
			&mode, &o.Box.Location[0], &o.Box.Location[1], &o.Box.Location[2],
			&o.Box.Dims[0], &o.Box.Dims[1], &o.Box.Dims[2], &o.Box.Yaw,
		); err != nil {
			return nil, fmt.Errorf("scan object: %w", err)
		}
		o.Difficulty = difficulty.Level(level)
		if o.Box.Mode, err = geometry.ParseMode(mode); err != nil {
			return nil, fmt.Errorf("object %d: %w", o.Index, err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// CountByDifficulty returns object counts per class and difficulty for a run.
func (s *FrameStore) CountByDifficulty(runID string) (map[string]ingest.DifficultyCounts, error) {
	rows, err := s.db.Query(`
		SELECT name, difficulty, COUNT(*)
		FROM ingest_objects
		WHERE run_id = ?
		GROUP BY name, difficulty`, runID)
	if err != nil {
		return nil, fmt.Errorf("count by difficulty: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]ingest.DifficultyCounts)
	for rows.Next() {
		var (
			name         string
			level, count int
		)
		if err := rows.Scan(&name, &level, &count); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		c := counts[name]
		c.AddN(difficulty.Level(level), count)
		counts[name] = c
	}
	return counts, rows.Err()
}

// DeleteRun removes a run together with its frames and objects.
func (s *FrameStore) DeleteRun(runID string) error {
	return retryOnBusy(func() error {
		result, err := s.db.Exec(`DELETE FROM ingest_runs WHERE run_id = ?`, runID)
		if err != nil {
			return fmt.Errorf("delete run: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("run %s not found", runID)
		}
		return nil
	})
}
