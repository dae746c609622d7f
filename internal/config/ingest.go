package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/banshee-data/kitti-ingest/internal/geometry"
)

// DefaultConfigPath is the path to the canonical ingest defaults file.
const DefaultConfigPath = "config/ingest.defaults.json"

// MaxWorkers bounds the batch worker pool.
const MaxWorkers = 64

var defaultClasses = []string{"Car", "Pedestrian", "Cyclist"}

// IngestConfig controls how a dataset is normalised. Nil fields fall back
// to the defaults returned by the Get* accessors, so partial files are safe.
type IngestConfig struct {
	// Labels
	Classes                 []string `json:"classes,omitempty"`
	ClassMatchCaseSensitive *bool    `json:"class_match_case_sensitive,omitempty"`

	// Calibration
	ExtendMatrix *bool `json:"extend_matrix,omitempty"`

	// Boxes
	TargetMode           *string `json:"target_mode,omitempty"` // lidar, depth or camera
	ShiftToGravityCenter *bool   `json:"shift_to_gravity_center,omitempty"`
	NormalizeYaw         *bool   `json:"normalize_yaw,omitempty"`

	// Points
	FlipPointsX *bool `json:"flip_points_x,omitempty"`

	// Batch
	Workers *int `json:"workers,omitempty"`
}

// Helper functions to create pointers
func ptrBool(v bool) *bool       { return &v }
func ptrString(v string) *string { return &v }
func ptrInt(v int) *int          { return &v }

// EmptyIngestConfig returns an IngestConfig with all fields unset.
func EmptyIngestConfig() *IngestConfig {
	return &IngestConfig{}
}

// DefaultIngestConfig returns an IngestConfig with every field set to its
// default value.
func DefaultIngestConfig() *IngestConfig {
	return &IngestConfig{
		Classes:                 append([]string(nil), defaultClasses...),
		ClassMatchCaseSensitive: ptrBool(false),
		ExtendMatrix:            ptrBool(true),
		TargetMode:              ptrString(geometry.ModeDepth.String()),
		ShiftToGravityCenter:    ptrBool(true),
		NormalizeYaw:            ptrBool(true),
		FlipPointsX:             ptrBool(true),
		Workers:                 ptrInt(defaultWorkers()),
	}
}

// LoadIngestConfig loads an IngestConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadIngestConfig(path string) (*IngestConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyIngestConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *IngestConfig) Validate() error {
	if c.Classes != nil {
		if len(c.Classes) == 0 {
			return fmt.Errorf("classes must not be empty when set")
		}
		seen := make(map[string]bool, len(c.Classes))
		for _, name := range c.Classes {
			if strings.TrimSpace(name) == "" {
				return fmt.Errorf("classes must not contain blank names")
			}
			key := name
			if !c.GetClassMatchCaseSensitive() {
				key = strings.ToLower(name)
			}
			if seen[key] {
				return fmt.Errorf("duplicate class %q", name)
			}
			seen[key] = true
		}
	}

	if _, err := c.GetTargetMode(); err != nil {
		return err
	}

	if c.Workers != nil {
		if *c.Workers < 1 || *c.Workers > MaxWorkers {
			return fmt.Errorf("workers must be between 1 and %d, got %d", MaxWorkers, *c.Workers)
		}
	}

	return nil
}

func defaultWorkers() int {
	n := runtime.NumCPU()
	if n > MaxWorkers {
		return MaxWorkers
	}
	return n
}

// GetClasses returns the class list or the default.
func (c *IngestConfig) GetClasses() []string {
	if len(c.Classes) == 0 {
		return append([]string(nil), defaultClasses...)
	}
	return append([]string(nil), c.Classes...)
}

// GetClassMatchCaseSensitive returns the class_match_case_sensitive value or the default.
func (c *IngestConfig) GetClassMatchCaseSensitive() bool {
	if c.ClassMatchCaseSensitive == nil {
		return false
	}
	return *c.ClassMatchCaseSensitive
}

// GetExtendMatrix returns the extend_matrix value or the default.
func (c *IngestConfig) GetExtendMatrix() bool {
	if c.ExtendMatrix == nil {
		return true
	}
	return *c.ExtendMatrix
}

// GetTargetMode returns the parsed target_mode or DEPTH, the frame that
// flipped points are in. An unknown name is an error.
func (c *IngestConfig) GetTargetMode() (geometry.Mode, error) {
	if c.TargetMode == nil {
		return geometry.ModeDepth, nil
	}
	m, err := geometry.ParseMode(*c.TargetMode)
	if err != nil {
		return 0, fmt.Errorf("invalid target_mode: %w", err)
	}
	return m, nil
}

// GetShiftToGravityCenter returns the shift_to_gravity_center value or the default.
func (c *IngestConfig) GetShiftToGravityCenter() bool {
	if c.ShiftToGravityCenter == nil {
		return true
	}
	return *c.ShiftToGravityCenter
}

// GetNormalizeYaw returns the normalize_yaw value or the default.
func (c *IngestConfig) GetNormalizeYaw() bool {
	if c.NormalizeYaw == nil {
		return true
	}
	return *c.NormalizeYaw
}

// GetFlipPointsX returns the flip_points_x value or the default.
func (c *IngestConfig) GetFlipPointsX() bool {
	if c.FlipPointsX == nil {
		return true
	}
	return *c.FlipPointsX
}

// GetWorkers returns the workers value or runtime.NumCPU capped at MaxWorkers.
func (c *IngestConfig) GetWorkers() int {
	if c.Workers == nil {
		return defaultWorkers()
	}
	return *c.Workers
}
