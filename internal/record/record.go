// Package record is a software frame source: a Record holds every property a native frame
// handle can be queried for, and Handle serves those queries so records received over the wire
// can be classified and read exactly like frames coming from a device.
package record

import (
	"fmt"
	"sync/atomic"

	"rsframe-go/internal/frame"
	"rsframe-go/internal/kind"
)

// Record is one frame as produced by a sensor.
type Record struct {
	Seq          uint64
	Extension    kind.Extension
	Profile      frame.StreamProfile
	Width        int
	Height       int
	Stride       int
	BitsPerPixel int
	Timestamp    float64
	Domain       kind.TimestampDomain
	Metadata     map[kind.FrameMetadata]int64
	Sensor       string

	DepthUnits float32
	Baseline   float32
	PointCount int
	// TexCoords holds PointCount little-endian float32 (u, v) pairs.
	TexCoords []byte
	Pose      *frame.PoseData
	Motion    *frame.Vector

	// Data is the frame buffer: Height rows of Stride bytes for images, PointCount packed
	// float32 triples for point clouds.
	Data []byte
}

// Query names a handle query that can be made to fail.
type Query string

const (
	QueryExtension       Query = "extension"
	QueryProfile         Query = "profile"
	QueryWidth           Query = "width"
	QueryHeight          Query = "height"
	QueryStride          Query = "stride"
	QueryBitsPerPixel    Query = "bits_per_pixel"
	QueryDataSize        Query = "data_size"
	QueryData            Query = "data"
	QueryTimestamp       Query = "timestamp"
	QueryTimestampDomain Query = "timestamp_domain"
	QueryMetadata        Query = "metadata"
	QuerySensor          Query = "sensor"
	QueryDepthUnits      Query = "depth_units"
	QueryBaseline        Query = "baseline"
	QueryPointCount      Query = "point_count"
	QueryPose            Query = "pose"
	QueryMotion          Query = "motion"
)

// Handle serves frame handle queries from a Record.
type Handle struct {
	rec       *Record
	failures  map[Query]error
	releases  atomic.Int32
	onRelease func(*Record)
}

// NewHandle wraps rec. The handle does not copy rec; its buffer is what typed frames borrow.
func NewHandle(rec *Record) *Handle {
	return &Handle{rec: rec}
}

// Fail makes every later q query return err.
func (h *Handle) Fail(q Query, err error) *Handle {
	if h.failures == nil {
		h.failures = make(map[Query]error)
	}
	h.failures[q] = err
	return h
}

// OnRelease registers fn to run on every Release.
func (h *Handle) OnRelease(fn func(*Record)) *Handle {
	h.onRelease = fn
	return h
}

// Releases counts Release calls.
func (h *Handle) Releases() int {
	return int(h.releases.Load())
}

func (h *Handle) Record() *Record {
	return h.rec
}

func (h *Handle) failed(q Query) error {
	return h.failures[q]
}

func (h *Handle) Extension() (kind.Extension, error) {
	if err := h.failed(QueryExtension); err != nil {
		return kind.ExtensionUnknown, err
	}
	return h.rec.Extension, nil
}

func (h *Handle) StreamProfile() (frame.StreamProfile, error) {
	if err := h.failed(QueryProfile); err != nil {
		return frame.StreamProfile{}, err
	}
	return h.rec.Profile, nil
}

func (h *Handle) Width() (int, error)        { return h.intQuery(QueryWidth, h.rec.Width) }
func (h *Handle) Height() (int, error)       { return h.intQuery(QueryHeight, h.rec.Height) }
func (h *Handle) Stride() (int, error)       { return h.intQuery(QueryStride, h.rec.Stride) }
func (h *Handle) BitsPerPixel() (int, error) { return h.intQuery(QueryBitsPerPixel, h.rec.BitsPerPixel) }
func (h *Handle) DataSize() (int, error)     { return h.intQuery(QueryDataSize, len(h.rec.Data)) }

func (h *Handle) intQuery(q Query, v int) (int, error) {
	if err := h.failed(q); err != nil {
		return 0, err
	}
	return v, nil
}

func (h *Handle) Data() ([]byte, error) {
	if err := h.failed(QueryData); err != nil {
		return nil, err
	}
	return h.rec.Data, nil
}

func (h *Handle) Timestamp() (float64, error) {
	if err := h.failed(QueryTimestamp); err != nil {
		return 0, err
	}
	return h.rec.Timestamp, nil
}

func (h *Handle) TimestampDomain() (kind.TimestampDomain, error) {
	if err := h.failed(QueryTimestampDomain); err != nil {
		return 0, err
	}
	return h.rec.Domain, nil
}

func (h *Handle) SupportsMetadata(m kind.FrameMetadata) bool {
	if h.failed(QueryMetadata) != nil {
		return false
	}
	_, ok := h.rec.Metadata[m]
	return ok
}

func (h *Handle) Metadata(m kind.FrameMetadata) (int64, error) {
	if err := h.failed(QueryMetadata); err != nil {
		return 0, err
	}
	v, ok := h.rec.Metadata[m]
	if !ok {
		return 0, &frame.NativeError{
			Exception: kind.ExceptionInvalidValue,
			Message:   fmt.Sprintf("metadata %s not available", m),
		}
	}
	return v, nil
}

type sensor string

func (s sensor) Name() string { return string(s) }

func (h *Handle) Sensor() (frame.Sensor, error) {
	if err := h.failed(QuerySensor); err != nil {
		return nil, err
	}
	if h.rec.Sensor == "" {
		return nil, &frame.NativeError{Exception: kind.ExceptionInvalidValue, Message: "frame is not bound to a sensor"}
	}
	return sensor(h.rec.Sensor), nil
}

func (h *Handle) Release() {
	h.releases.Add(1)
	if h.onRelease != nil {
		h.onRelease(h.rec)
	}
}

func (h *Handle) DepthUnits() (float32, error) {
	if err := h.failed(QueryDepthUnits); err != nil {
		return 0, err
	}
	if h.rec.DepthUnits <= 0 {
		return 0, unsupported("depth units", h.rec.Extension)
	}
	return h.rec.DepthUnits, nil
}

func (h *Handle) Baseline() (float32, error) {
	if err := h.failed(QueryBaseline); err != nil {
		return 0, err
	}
	if h.rec.Extension != kind.ExtensionDisparityFrame {
		return 0, unsupported("baseline", h.rec.Extension)
	}
	return h.rec.Baseline, nil
}

func (h *Handle) PointCount() (int, error) {
	if err := h.failed(QueryPointCount); err != nil {
		return 0, err
	}
	if h.rec.Extension != kind.ExtensionPoints {
		return 0, unsupported("point count", h.rec.Extension)
	}
	return h.rec.PointCount, nil
}

func (h *Handle) TextureCoordinates() ([]byte, error) {
	if h.rec.Extension != kind.ExtensionPoints {
		return nil, unsupported("texture coordinates", h.rec.Extension)
	}
	return h.rec.TexCoords, nil
}

func (h *Handle) PoseData() (frame.PoseData, error) {
	if err := h.failed(QueryPose); err != nil {
		return frame.PoseData{}, err
	}
	if h.rec.Pose == nil {
		return frame.PoseData{}, unsupported("pose data", h.rec.Extension)
	}
	return *h.rec.Pose, nil
}

func (h *Handle) MotionData() (frame.Vector, error) {
	if err := h.failed(QueryMotion); err != nil {
		return frame.Vector{}, err
	}
	if h.rec.Motion == nil {
		return frame.Vector{}, unsupported("motion data", h.rec.Extension)
	}
	return *h.rec.Motion, nil
}

func unsupported(what string, ext kind.Extension) error {
	return &frame.NativeError{
		Exception: kind.ExceptionNotImplemented,
		Message:   fmt.Sprintf("%s not available on %s", what, ext),
	}
}

var (
	_ frame.Handle          = (*Handle)(nil)
	_ frame.DepthHandle     = (*Handle)(nil)
	_ frame.DisparityHandle = (*Handle)(nil)
	_ frame.PointsHandle    = (*Handle)(nil)
	_ frame.PoseHandle      = (*Handle)(nil)
	_ frame.MotionHandle    = (*Handle)(nil)
)
