package types

import (
	"rsframe-go/internal/frame"
	"rsframe-go/internal/pixel"
)

// FrameSummary is the owned digest of one classified frame. It never references the frame
// buffer, so it can outlive the frame and cross goroutines.
type FrameSummary struct {
	Seq       uint64  `json:"seq"`
	Stream    string  `json:"stream"`
	Index     int     `json:"index"`
	Extension string  `json:"extension"`
	Format    string  `json:"format"`
	Timestamp float64 `json:"timestamp"`
	Domain    string  `json:"timestamp_domain"`

	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`

	// Valid counts pixels or points carrying a measurement; Min/Max/Mean cover only those.
	Valid int     `json:"valid"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`

	Center         *pixel.Snapshot `json:"center,omitempty"`
	CenterDistance *float32        `json:"center_distance,omitempty"`
	PointCount     int             `json:"point_count,omitempty"`
	Motion         *frame.Vector   `json:"motion,omitempty"`
	Translation    *frame.Vector   `json:"translation,omitempty"`

	Metadata map[string]int64 `json:"metadata,omitempty"`
}
