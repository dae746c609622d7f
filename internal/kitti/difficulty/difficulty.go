// Package difficulty assigns the KITTI evaluation difficulty of a
// labelled object from its 2D box height, occlusion and truncation.
package difficulty

// Level is the difficulty of one object.
type Level int

const (
	// Unknown objects fail every band and are ignored by evaluation.
	Unknown  Level = -1
	Easy     Level = 0
	Moderate Level = 1
	Hard     Level = 2
)

// String returns the level name.
func (l Level) String() string {
	switch l {
	case Easy:
		return "easy"
	case Moderate:
		return "moderate"
	case Hard:
		return "hard"
	default:
		return "unknown"
	}
}

// Band holds the limits of one difficulty level. An object fails a band
// when it breaks any one limit.
type Band struct {
	MaxOcclusion  int
	MinHeightPx   float64 // failure when height <= MinHeightPx
	MaxTruncation float64
}

// Bands are the KITTI benchmark limits for easy, moderate and hard.
// Each band contains the one before it.
var Bands = [3]Band{
	{MaxOcclusion: 0, MinHeightPx: 40, MaxTruncation: 0.15},
	{MaxOcclusion: 1, MinHeightPx: 25, MaxTruncation: 0.30},
	{MaxOcclusion: 2, MinHeightPx: 25, MaxTruncation: 0.50},
}

// Passes reports whether an object meets every limit of b.
func (b Band) Passes(height float64, occluded int, truncated float64) bool {
	return occluded <= b.MaxOcclusion && height > b.MinHeightPx && truncated <= b.MaxTruncation
}

// Classify returns the first band, easiest first, that the object meets.
func Classify(height float64, occluded int, truncated float64) Level {
	for i, band := range Bands {
		if band.Passes(height, occluded, truncated) {
			return Level(i)
		}
	}
	return Unknown
}

// Input is the per-object subset of a label Classify needs.
type Input struct {
	Height    float64
	Occluded  int
	Truncated float64
}

// ClassifyAll classifies each input independently, preserving order.
func ClassifyAll(inputs []Input) []Level {
	out := make([]Level, len(inputs))
	for i, in := range inputs {
		out[i] = Classify(in.Height, in.Occluded, in.Truncated)
	}
	return out
}
