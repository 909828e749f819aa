// Package simulator generates synthetic sensor frames as records, for running the viewer without
// a device.
package simulator

import (
	"context"
	"encoding/binary"
	"math"
	"math/rand"
	"time"

	"rsframe-go/internal/frame"
	"rsframe-go/internal/kind"
	"rsframe-go/internal/pixel"
	"rsframe-go/internal/record"
)

// rowAlign pads simulated rows the way USB video buffers are padded.
const rowAlign = 16

// DepthUnits is the metres-per-step scale of simulated Z16 depth.
const DepthUnits = 0.001

type Config struct {
	Width   int
	Height  int
	Rate    float64
	Streams []kind.StreamKind
}

// colorFormats rotates across color frames so every packed layout is exercised.
var colorFormats = []kind.Format{kind.FormatRgb8, kind.FormatBgr8, kind.FormatYuyv, kind.FormatBgra8}

// Stream emits one record per configured stream on every tick. A depth stream is followed by the
// point cloud computed from it. The channel closes when ctx is done.
func Stream(ctx context.Context, cfg Config) <-chan *record.Record {
	out := make(chan *record.Record)
	go func() {
		defer close(out)

		frameInterval := time.Duration(float64(time.Second) / cfg.Rate)
		ticker := time.NewTicker(frameInterval)
		defer ticker.Stop()

		var seq uint64
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				now := float64(time.Now().UnixNano()) / 1e6
				for _, stream := range cfg.Streams {
					recs := []*record.Record{NewRecord(stream, seq, cfg.Width, cfg.Height, now)}
					if stream == kind.StreamDepth {
						recs = append(recs, PointsFrom(recs[0]))
					}
					for _, rec := range recs {
						select {
						case <-ctx.Done():
							return
						case out <- rec:
						}
					}
				}
				seq++
			}
		}
	}()

	return out
}

// NewRecord builds one synthetic frame of the stream. timestamp is in milliseconds.
func NewRecord(stream kind.StreamKind, seq uint64, width, height int, timestamp float64) *record.Record {
	rec := &record.Record{
		Seq:       seq,
		Profile:   frame.StreamProfile{Stream: stream, UniqueID: int(stream), Framerate: 30},
		Timestamp: timestamp,
		Domain:    kind.TimestampSystemTime,
		Metadata: map[kind.FrameMetadata]int64{
			kind.MetadataFrameCounter:   int64(seq),
			kind.MetadataFrameTimestamp: int64(timestamp * 1000),
		},
		Sensor: sensorName(stream),
	}

	switch stream {
	case kind.StreamDepth:
		rec.Extension = kind.ExtensionDepthFrame
		rec.DepthUnits = DepthUnits
		fillImage(rec, kind.FormatZ16, width, height, depthPixel(seq, width, height))
	case kind.StreamColor:
		rec.Extension = kind.ExtensionVideoFrame
		rec.Metadata[kind.MetadataActualExposure] = 166
		format := colorFormats[seq%uint64(len(colorFormats))]
		fillImage(rec, format, width, height, colorPixel(format, seq, width))
	case kind.StreamInfrared, kind.StreamFisheye, kind.StreamConfidence:
		rec.Extension = kind.ExtensionVideoFrame
		fillImage(rec, kind.FormatY8, width, height, grayPixel(seq, width, height))
	case kind.StreamAccel:
		rec.Extension = kind.ExtensionMotionFrame
		rec.Profile.Format = kind.FormatMotionXyz32f
		rec.Motion = &frame.Vector{X: noise(0.05), Y: -9.81 + noise(0.05), Z: noise(0.05)}
	case kind.StreamGyro:
		rec.Extension = kind.ExtensionMotionFrame
		rec.Profile.Format = kind.FormatMotionXyz32f
		phase := float64(seq) / 30
		rec.Motion = &frame.Vector{X: float32(0.1 * math.Sin(phase)), Y: noise(0.01), Z: float32(0.1 * math.Cos(phase))}
	case kind.StreamPose:
		rec.Extension = kind.ExtensionPoseFrame
		rec.Profile.Format = kind.Format6Dof
		phase := float64(seq) / 60
		rec.Pose = &frame.PoseData{
			Translation:       frame.Vector{X: float32(math.Cos(phase)), Y: 0, Z: float32(math.Sin(phase))},
			Rotation:          frame.Quaternion{W: 1},
			TrackerConfidence: 3,
			MapperConfidence:  3,
		}
	default:
		rec.Extension = kind.ExtensionUnknown
	}
	return rec
}

// PointsFrom deprojects a Z16 depth record into a point cloud with a pinhole model whose focal
// length equals the image width.
func PointsFrom(depth *record.Record) *record.Record {
	w, h := depth.Width, depth.Height
	n := w * h
	verts := make([]byte, 0, n*12)
	tex := make([]byte, 0, n*8)
	fx := float64(w)
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			px := pixel.Get(kind.FormatZ16, depth.Data, depth.Stride, col, row).(pixel.Z16)
			z := float64(px.Depth.Value()) * float64(depth.DepthUnits)
			x := (float64(col) - float64(w)/2) * z / fx
			y := (float64(row) - float64(h)/2) * z / fx
			verts = appendF32(verts, float32(x), float32(y), float32(z))
			tex = appendF32(tex, float32(col)/float32(w), float32(row)/float32(h))
		}
	}
	return &record.Record{
		Seq:        depth.Seq,
		Extension:  kind.ExtensionPoints,
		Profile:    frame.StreamProfile{Stream: kind.StreamDepth, Format: kind.FormatXyz32f, UniqueID: depth.Profile.UniqueID, Framerate: depth.Profile.Framerate},
		Timestamp:  depth.Timestamp,
		Domain:     depth.Domain,
		Sensor:     depth.Sensor,
		PointCount: n,
		TexCoords:  tex,
		Data:       verts,
	}
}

// fillImage lays out width x height pixels of format with padded rows. value writes one pixel's
// bytes at dst.
func fillImage(rec *record.Record, format kind.Format, width, height int, value func(dst []byte, col, row int)) {
	bpp := bytesPerPixel(format)
	stride := (width*bpp + rowAlign - 1) / rowAlign * rowAlign
	data := make([]byte, stride*height)
	step := bpp
	if format == kind.FormatYuyv || format == kind.FormatUyvy {
		// One 4-byte macropixel covers two columns.
		step = 4
	}
	for row := 0; row < height; row++ {
		for off, col := row*stride, 0; col < width; off, col = off+step, col+step/bpp {
			value(data[off:off+step], col, row)
		}
	}
	rec.Profile.Format = format
	rec.Width = width
	rec.Height = height
	rec.Stride = stride
	rec.BitsPerPixel = bpp * pixel.BitsPerByte
	rec.Data = data
}

func bytesPerPixel(format kind.Format) int {
	switch format {
	case kind.FormatYuyv, kind.FormatUyvy, kind.FormatZ16, kind.FormatY16:
		return 2
	case kind.FormatBgr8, kind.FormatRgb8:
		return 3
	case kind.FormatBgra8, kind.FormatRgba8, kind.FormatDistance, kind.FormatDisparity32:
		return 4
	case kind.FormatXyz32f:
		return 12
	default:
		return 1
	}
}

// depthPixel draws a bump centred in the frame that drifts with seq, with a zero (invalid)
// border column, in the manner of a stereo depth map.
func depthPixel(seq uint64, width, height int) func([]byte, int, int) {
	cx := float64(width)/2 + 4*math.Sin(float64(seq)/20)
	cy := float64(height) / 2
	spread := float64(width*height) / 20
	return func(dst []byte, col, row int) {
		if col == 0 {
			binary.LittleEndian.PutUint16(dst, 0)
			return
		}
		dx, dy := float64(col)-cx, float64(row)-cy
		mm := 2000 - 1000*math.Exp(-(dx*dx+dy*dy)/spread) + rand.NormFloat64()*5
		binary.LittleEndian.PutUint16(dst, uint16(math.Max(mm, 1)))
	}
}

func colorPixel(format kind.Format, seq uint64, width int) func([]byte, int, int) {
	shift := int(seq)
	return func(dst []byte, col, row int) {
		r := byte((col + shift) % width * 255 / width)
		g := byte(row * 4)
		b := 255 - r
		switch format {
		case kind.FormatRgb8:
			dst[0], dst[1], dst[2] = r, g, b
		case kind.FormatBgr8:
			dst[0], dst[1], dst[2] = b, g, r
		case kind.FormatBgra8:
			dst[0], dst[1], dst[2], dst[3] = b, g, r, 255
		case kind.FormatYuyv:
			y := byte((int(r)*77 + int(g)*150 + int(b)*29) >> 8)
			dst[0], dst[1], dst[2], dst[3] = y, 128, y, 128
		}
	}
}

func grayPixel(seq uint64, width, height int) func([]byte, int, int) {
	return func(dst []byte, col, row int) {
		v := (col*7 + row*3 + int(seq)) % 256
		for i := range dst {
			dst[i] = byte(v)
		}
	}
}

func sensorName(stream kind.StreamKind) string {
	switch stream {
	case kind.StreamColor:
		return "RGB Camera"
	case kind.StreamAccel, kind.StreamGyro:
		return "Motion Module"
	case kind.StreamPose, kind.StreamFisheye:
		return "Tracking Module"
	default:
		return "Stereo Module"
	}
}

func noise(sigma float64) float32 {
	return float32(rand.NormFloat64() * sigma)
}

func appendF32(dst []byte, vs ...float32) []byte {
	for _, v := range vs {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
	}
	return dst
}
