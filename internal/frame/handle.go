package frame

import (
	"fmt"

	"rsframe-go/internal/kind"
)

// Handle is an opaque native frame. Every query goes to the collaborator that produced it;
// nothing about the frame's category is known until it has been classified.
//
// Release frees the native frame and is called exactly once by whichever wrapper owns the
// handle, unless ownership was handed out with IntoRaw.
type Handle interface {
	Extension() (kind.Extension, error)
	StreamProfile() (StreamProfile, error)
	Width() (int, error)
	Height() (int, error)
	Stride() (int, error)
	BitsPerPixel() (int, error)
	DataSize() (int, error)
	Data() ([]byte, error)
	Timestamp() (float64, error)
	TimestampDomain() (kind.TimestampDomain, error)
	SupportsMetadata(m kind.FrameMetadata) bool
	Metadata(m kind.FrameMetadata) (int64, error)
	Sensor() (Sensor, error)
	Release()
}

// DepthHandle is implemented by handles that can report depth scale.
type DepthHandle interface {
	DepthUnits() (float32, error)
}

// DisparityHandle is implemented by handles that can report the stereo baseline.
type DisparityHandle interface {
	Baseline() (float32, error)
}

// PointsHandle is implemented by point cloud handles. The vertex buffer is the handle's Data.
type PointsHandle interface {
	PointCount() (int, error)
	TextureCoordinates() ([]byte, error)
}

type PoseHandle interface {
	PoseData() (PoseData, error)
}

type MotionHandle interface {
	MotionData() (Vector, error)
}

// Sensor is the device sensor that produced a frame.
type Sensor interface {
	Name() string
}

// StreamProfile describes the stream a frame belongs to.
type StreamProfile struct {
	Stream    kind.StreamKind `cbor:"stream" json:"stream"`
	Format    kind.Format     `cbor:"format" json:"format"`
	Index     int             `cbor:"index" json:"index"`
	UniqueID  int             `cbor:"unique_id" json:"unique_id"`
	Framerate int             `cbor:"framerate" json:"framerate"`
}

type Vector struct {
	X float32 `cbor:"x" json:"x"`
	Y float32 `cbor:"y" json:"y"`
	Z float32 `cbor:"z" json:"z"`
}

type Quaternion struct {
	X float32 `cbor:"x" json:"x"`
	Y float32 `cbor:"y" json:"y"`
	Z float32 `cbor:"z" json:"z"`
	W float32 `cbor:"w" json:"w"`
}

// PoseData is a 6-DOF pose reported by a tracking sensor.
type PoseData struct {
	Translation         Vector     `cbor:"translation" json:"translation"`
	Velocity            Vector     `cbor:"velocity" json:"velocity"`
	Acceleration        Vector     `cbor:"acceleration" json:"acceleration"`
	Rotation            Quaternion `cbor:"rotation" json:"rotation"`
	AngularVelocity     Vector     `cbor:"angular_velocity" json:"angular_velocity"`
	AngularAcceleration Vector     `cbor:"angular_acceleration" json:"angular_acceleration"`
	TrackerConfidence   uint32     `cbor:"tracker_confidence" json:"tracker_confidence"`
	MapperConfidence    uint32     `cbor:"mapper_confidence" json:"mapper_confidence"`
}

// NativeError is a failure reported by the native SDK.
type NativeError struct {
	Exception kind.Exception
	Message   string
}

func (e *NativeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Exception, e.Message)
}
