package frame

import (
	"encoding/binary"
	"fmt"
	"math"

	"rsframe-go/internal/kind"
	"rsframe-go/internal/pixel"
)

const (
	vertexSize   = 12
	texcoordSize = 8
)

// PointsFrame is a point cloud: PointCount packed XYZ float32 vertices, optionally paired with
// UV texture coordinates.
type PointsFrame struct {
	categorized[Points]
	pointCount int
	vertices   []byte
}

func NewPointsFrame(h Handle) (*PointsFrame, error) {
	if err := classify(h, Points{}); err != nil {
		return nil, err
	}
	b, err := newBase(h)
	if err != nil {
		return nil, err
	}
	ph, ok := h.(PointsHandle)
	if !ok {
		return nil, constructionError(FieldPointCount, notImplemented("point count"))
	}
	count, err := ph.PointCount()
	if err != nil {
		return nil, constructionError(FieldPointCount, err)
	}
	if count < 0 {
		return nil, &ConstructionError{
			Field:     FieldPointCount,
			Exception: kind.ExceptionInvalidValue,
			Message:   fmt.Sprintf("negative point count %d", count),
		}
	}
	data, err := h.Data()
	if err != nil {
		return nil, constructionError(FieldData, err)
	}
	if count > len(data)/vertexSize {
		return nil, &ConstructionError{
			Field:     FieldData,
			Exception: kind.ExceptionInvalidValue,
			Message:   fmt.Sprintf("%d points do not fit a %d-byte buffer", count, len(data)),
		}
	}
	size := count * vertexSize
	return &PointsFrame{
		categorized: categorized[Points]{base: b},
		pointCount:  count,
		vertices:    data[:size:size],
	}, nil
}

func (f *PointsFrame) PointCount() int {
	return f.pointCount
}

// Vertices is the packed vertex buffer, nil after the handle is gone.
func (f *PointsFrame) Vertices() []byte {
	return f.vertices
}

// Vertex returns point i as an Xyz32f pixel borrowing from the vertex buffer.
func (f *PointsFrame) Vertex(i int) (pixel.Xyz32f, error) {
	if f.vertices == nil {
		return pixel.Xyz32f{}, ErrTransferred
	}
	if i < 0 || i >= f.pointCount {
		return pixel.Xyz32f{}, fmt.Errorf("%w: point %d of %d", ErrOutOfBounds, i, f.pointCount)
	}
	// A point cloud is one row of 3-element float columns.
	return pixel.Get(kind.FormatXyz32f, f.vertices, 0, 3*i, 0).(pixel.Xyz32f), nil
}

// TextureCoordinate returns the UV pair for point i. ok is false when the handle carries no
// texture coordinates.
func (f *PointsFrame) TextureCoordinate(i int) (u, v float32, ok bool, err error) {
	if f.handle == nil {
		return 0, 0, false, ErrTransferred
	}
	if i < 0 || i >= f.pointCount {
		return 0, 0, false, fmt.Errorf("%w: point %d of %d", ErrOutOfBounds, i, f.pointCount)
	}
	ph, isPoints := f.handle.(PointsHandle)
	if !isPoints {
		return 0, 0, false, nil
	}
	coords, err := ph.TextureCoordinates()
	if err != nil {
		return 0, 0, false, err
	}
	off := i * texcoordSize
	if len(coords) < off+texcoordSize {
		return 0, 0, false, nil
	}
	u = math.Float32frombits(binary.LittleEndian.Uint32(coords[off:]))
	v = math.Float32frombits(binary.LittleEndian.Uint32(coords[off+4:]))
	return u, v, true, nil
}

func (f *PointsFrame) IntoRaw() Handle {
	f.vertices = nil
	return f.base.IntoRaw()
}

func (f *PointsFrame) Close() error {
	f.vertices = nil
	return f.base.Close()
}

// PoseFrame carries a 6-DOF pose from a tracking sensor.
type PoseFrame struct {
	categorized[Pose]
}

func NewPoseFrame(h Handle) (*PoseFrame, error) {
	if err := classify(h, Pose{}); err != nil {
		return nil, err
	}
	b, err := newBase(h)
	if err != nil {
		return nil, err
	}
	return &PoseFrame{categorized: categorized[Pose]{base: b}}, nil
}

func (f *PoseFrame) Pose() (PoseData, error) {
	if f.handle == nil {
		return PoseData{}, ErrTransferred
	}
	ph, ok := f.handle.(PoseHandle)
	if !ok {
		return PoseData{}, notImplemented("pose data")
	}
	return ph.PoseData()
}

// MotionFrame carries one accelerometer or gyroscope sample.
type MotionFrame[C MotionCategory] struct {
	categorized[C]
}

type (
	AccelFrame = MotionFrame[Accel]
	GyroFrame  = MotionFrame[Gyro]
)

func NewMotionFrame[C MotionCategory](h Handle) (*MotionFrame[C], error) {
	var c C
	if err := classify(h, c); err != nil {
		return nil, err
	}
	b, err := newBase(h)
	if err != nil {
		return nil, err
	}
	return &MotionFrame[C]{categorized: categorized[C]{base: b}}, nil
}

func NewAccelFrame(h Handle) (*AccelFrame, error) { return NewMotionFrame[Accel](h) }
func NewGyroFrame(h Handle) (*GyroFrame, error)   { return NewMotionFrame[Gyro](h) }

// Motion is the sample in m/s² for accelerometers and rad/s for gyroscopes.
func (f *MotionFrame[C]) Motion() (Vector, error) {
	if f.handle == nil {
		return Vector{}, ErrTransferred
	}
	mh, ok := f.handle.(MotionHandle)
	if !ok {
		return Vector{}, notImplemented("motion data")
	}
	return mh.MotionData()
}
