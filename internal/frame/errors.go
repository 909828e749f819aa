package frame

import (
	"errors"
	"fmt"

	"rsframe-go/internal/kind"
	"rsframe-go/internal/pixel"
)

var (
	// ErrTransferred is returned by accessors that need the native handle after it was handed
	// out with IntoRaw or released with Close.
	ErrTransferred       = errors.New("frame handle transferred or released")
	ErrOutOfBounds       = errors.New("pixel coordinate out of bounds")
	ErrUnsupportedFormat = pixel.ErrUnsupportedFormat
	ErrUnknownCategory   = errors.New("no frame category matches handle")
	ErrNilHandle         = errors.New("nil frame handle")
)

// Field names the property whose query failed while building a typed frame.
type Field int

const (
	FieldWidth Field = iota
	FieldHeight
	FieldStride
	FieldBitsPerPixel
	FieldTimestamp
	FieldTimestampDomain
	FieldStreamProfile
	FieldDataSize
	FieldData
	FieldPointCount
	FieldGeometry
)

var fieldText = map[Field]string{
	FieldWidth:           "Could not get frame width",
	FieldHeight:          "Could not get frame height",
	FieldStride:          "Could not get stride",
	FieldBitsPerPixel:    "Could not get bits-per-pixel",
	FieldTimestamp:       "Could not get timestamp",
	FieldTimestampDomain: "Could not get timestamp domain",
	FieldStreamProfile:   "Could not get frame stream profile",
	FieldDataSize:        "Could not get data size (in bytes)",
	FieldData:            "Could not get pointer to frame data",
	FieldPointCount:      "Could not get number of points",
	FieldGeometry:        "Frame geometry does not fit its data",
}

// ConstructionError reports a failed query while building a typed frame from a handle.
type ConstructionError struct {
	Field     Field
	Exception kind.Exception
	Message   string
	err       error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("%s. Type: %s; Reason: %s", fieldText[e.Field], e.Exception, e.Message)
}

func (e *ConstructionError) Unwrap() error { return e.err }

func constructionError(field Field, err error) *ConstructionError {
	exception, message := nativeParts(err)
	return &ConstructionError{Field: field, Exception: exception, Message: message, err: err}
}

// MismatchError is returned when a handle's extension or stream kind does not match the
// category a typed frame requires. The handle is left with the caller.
type MismatchError struct {
	ExpectedExtension kind.Extension
	ActualExtension   kind.Extension
	ExpectedKind      kind.StreamKind
	ActualKind        kind.StreamKind
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("frame category mismatch: expected %s/%s, got %s/%s",
		e.ExpectedExtension, e.ExpectedKind, e.ActualExtension, e.ActualKind)
}

// SensorError reports that the sensor owning a frame could not be resolved.
type SensorError struct {
	Exception kind.Exception
	Message   string
}

func (e *SensorError) Error() string {
	return fmt.Sprintf("Could not get frame sensor. Type: %s; Reason: %s", e.Exception, e.Message)
}

// DepthError reports a failed depth query; Op is "distance" or "depth units".
type DepthError struct {
	Op        string
	Exception kind.Exception
	Message   string
}

func (e *DepthError) Error() string {
	return fmt.Sprintf("Could not get %s. Type: %s; Reason: %s", e.Op, e.Exception, e.Message)
}

type DisparityError struct {
	Exception kind.Exception
	Message   string
}

func (e *DisparityError) Error() string {
	return fmt.Sprintf("Could not get baseline. Type: %s; Reason: %s", e.Exception, e.Message)
}

func nativeParts(err error) (kind.Exception, string) {
	var native *NativeError
	if errors.As(err, &native) {
		return native.Exception, native.Message
	}
	return kind.ExceptionUnknown, err.Error()
}

func notImplemented(what string) error {
	return &NativeError{Exception: kind.ExceptionNotImplemented, Message: what + " not supported by handle"}
}
