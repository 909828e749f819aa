package processing

import (
	"math"

	"rsframe-go/internal/frame"
	"rsframe-go/internal/kind"
	"rsframe-go/internal/pixel"
	"rsframe-go/internal/types"
)

type imageFrame interface {
	frame.Frame
	Width() int
	Height() int
	Format() kind.Format
	PixelAt(col, row int) (pixel.Kind, error)
}

// Summarize reduces f to an owned summary. It returns false when f carries nothing to summarize,
// which happens for image formats the pixel engine does not address and for frames whose
// handle was already transferred.
func Summarize(f frame.Frame, seq uint64) (types.FrameSummary, bool) {
	profile := f.StreamProfile()
	summary := types.FrameSummary{
		Seq:       seq,
		Stream:    profile.Stream.String(),
		Index:     profile.Index,
		Extension: f.Extension().String(),
		Format:    profile.Format.String(),
		Timestamp: f.Timestamp(),
		Domain:    f.TimestampDomain().String(),
		Metadata:  metadata(f),
	}

	switch v := f.(type) {
	case *frame.PointsFrame:
		return summarizePoints(v, summary)
	case *frame.PoseFrame:
		pose, err := v.Pose()
		if err != nil {
			return summary, false
		}
		summary.Translation = &pose.Translation
		summary.Valid = 1
		return summary, true
	case *frame.AccelFrame:
		return summarizeMotion(v.Motion, summary)
	case *frame.GyroFrame:
		return summarizeMotion(v.Motion, summary)
	case imageFrame:
		out, ok := summarizeImage(v, summary)
		if !ok {
			return out, false
		}
		if depth, isDepth := f.(*frame.DepthFrame); isDepth {
			if d, err := depth.Distance(v.Width()/2, v.Height()/2); err == nil {
				out.CenterDistance = &d
			}
		}
		return out, true
	default:
		return summary, false
	}
}

func summarizeImage(f imageFrame, summary types.FrameSummary) (types.FrameSummary, bool) {
	if !pixel.Supported(f.Format()) {
		return summary, false
	}
	summary.Width = f.Width()
	summary.Height = f.Height()
	depthLike := measuresDepth(f.Format())

	var acc stats
	for row := 0; row < f.Height(); row++ {
		for col := 0; col < f.Width(); col++ {
			px, err := f.PixelAt(col, row)
			if err != nil {
				return summary, false
			}
			v := primary(px)
			if depthLike && v <= 0 {
				continue
			}
			acc.add(v)
		}
	}
	acc.fill(&summary)

	if f.Width() > 0 && f.Height() > 0 {
		px, err := f.PixelAt(f.Width()/2, f.Height()/2)
		if err == nil {
			center := px.Snapshot()
			summary.Center = &center
		}
	}
	return summary, true
}

func summarizePoints(f *frame.PointsFrame, summary types.FrameSummary) (types.FrameSummary, bool) {
	summary.PointCount = f.PointCount()
	var acc stats
	for i := 0; i < f.PointCount(); i++ {
		v, err := f.Vertex(i)
		if err != nil {
			return summary, false
		}
		z := float64(v.Z.Value())
		if z <= 0 {
			continue
		}
		acc.add(z)
	}
	acc.fill(&summary)
	return summary, true
}

func summarizeMotion(motion func() (frame.Vector, error), summary types.FrameSummary) (types.FrameSummary, bool) {
	m, err := motion()
	if err != nil {
		return summary, false
	}
	summary.Motion = &m
	summary.Valid = 1
	mag := math.Sqrt(float64(m.X*m.X + m.Y*m.Y + m.Z*m.Z))
	summary.Min, summary.Max, summary.Mean = mag, mag, mag
	return summary, true
}

func measuresDepth(format kind.Format) bool {
	switch format {
	case kind.FormatZ16, kind.FormatDistance, kind.FormatDisparity32:
		return true
	default:
		return false
	}
}

// primary is the channel summarized for a pixel: luma for YUV, the mean of colour channels,
// depth or disparity for range formats, and Z for points.
func primary(px pixel.Kind) float64 {
	switch p := px.(type) {
	case pixel.Yuyv:
		return float64(*p.Y)
	case pixel.Uyvy:
		return float64(*p.Y)
	case pixel.Bgr8:
		return (float64(*p.B) + float64(*p.G) + float64(*p.R)) / 3
	case pixel.Bgra8:
		return (float64(*p.B) + float64(*p.G) + float64(*p.R)) / 3
	case pixel.Rgb8:
		return (float64(*p.R) + float64(*p.G) + float64(*p.B)) / 3
	case pixel.Rgba8:
		return (float64(*p.R) + float64(*p.G) + float64(*p.B)) / 3
	case pixel.Raw8:
		return float64(*p.Val)
	case pixel.Y8:
		return float64(*p.Y)
	case pixel.Y16:
		return float64(p.Y.Value())
	case pixel.Z16:
		return float64(p.Depth.Value())
	case pixel.Distance:
		return float64(p.Distance.Value())
	case pixel.Disparity32:
		return float64(p.Disparity.Value())
	case pixel.Xyz32f:
		return float64(p.Z.Value())
	default:
		return 0
	}
}

func metadata(f frame.Frame) map[string]int64 {
	var out map[string]int64
	for _, m := range kind.AllMetadata() {
		v, ok := f.Metadata(m)
		if !ok {
			continue
		}
		if out == nil {
			out = make(map[string]int64)
		}
		out[m.String()] = v
	}
	return out
}

type stats struct {
	count    int
	min, max float64
	sum      float64
}

func (s *stats) add(v float64) {
	if s.count == 0 || v < s.min {
		s.min = v
	}
	if s.count == 0 || v > s.max {
		s.max = v
	}
	s.sum += v
	s.count++
}

func (s *stats) fill(summary *types.FrameSummary) {
	summary.Valid = s.count
	if s.count == 0 {
		return
	}
	summary.Min = s.min
	summary.Max = s.max
	summary.Mean = s.sum / float64(s.count)
}
