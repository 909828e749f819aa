// Package frame wraps opaque native frame handles in typed frames.
//
// A handle is classified once, when a typed frame is built around it: its extension and, for
// kind-sensitive categories, its stream kind must match the category the typed frame declares.
// After that the typed frame owns the handle and releases it on Close, unless the handle was
// handed back out with IntoRaw.
//
// Frames are not safe for concurrent use. Distinct frames may be used from distinct
// goroutines.
package frame

import "rsframe-go/internal/kind"

// Frame is the accessor surface shared by every typed frame.
type Frame interface {
	// StreamProfile is the profile cached when the frame was built.
	StreamProfile() StreamProfile
	// Sensor resolves the sensor that produced the frame.
	Sensor() (Sensor, error)
	Timestamp() float64
	TimestampDomain() kind.TimestampDomain
	// Metadata returns false when the frame does not carry the key.
	Metadata(m kind.FrameMetadata) (int64, bool)
	// SupportsMetadata is true exactly when Metadata returns a value.
	SupportsMetadata(m kind.FrameMetadata) bool

	// Extension and Kind are the category tags of the typed frame.
	Extension() kind.Extension
	Kind() kind.StreamKind
	// HasCorrectKind queries the live handle's stream kind against Kind.
	HasCorrectKind() bool

	// IntoRaw hands the native handle to the caller, who becomes responsible for releasing
	// it. The frame must not be used after IntoRaw except to drop it: Close is a no-op,
	// handle-backed accessors fail with ErrTransferred, and a second IntoRaw returns nil.
	IntoRaw() Handle
	// Close releases the native handle.
	Close() error
}

// base holds the values every typed frame caches at construction.
type base struct {
	handle    Handle
	profile   StreamProfile
	timestamp float64
	domain    kind.TimestampDomain
}

func newBase(h Handle) (base, error) {
	profile, err := h.StreamProfile()
	if err != nil {
		return base{}, constructionError(FieldStreamProfile, err)
	}
	timestamp, err := h.Timestamp()
	if err != nil {
		return base{}, constructionError(FieldTimestamp, err)
	}
	domain, err := h.TimestampDomain()
	if err != nil {
		return base{}, constructionError(FieldTimestampDomain, err)
	}
	return base{handle: h, profile: profile, timestamp: timestamp, domain: domain}, nil
}

func (b *base) StreamProfile() StreamProfile {
	return b.profile
}

func (b *base) Sensor() (Sensor, error) {
	if b.handle == nil {
		return nil, &SensorError{Exception: kind.ExceptionWrongAPICallSequence, Message: ErrTransferred.Error()}
	}
	sensor, err := b.handle.Sensor()
	if err != nil {
		exception, message := nativeParts(err)
		return nil, &SensorError{Exception: exception, Message: message}
	}
	if sensor == nil {
		return nil, &SensorError{Exception: kind.ExceptionInvalidValue, Message: "frame has no sensor"}
	}
	return sensor, nil
}

func (b *base) Timestamp() float64 {
	return b.timestamp
}

func (b *base) TimestampDomain() kind.TimestampDomain {
	return b.domain
}

func (b *base) Metadata(m kind.FrameMetadata) (int64, bool) {
	if b.handle == nil || !b.handle.SupportsMetadata(m) {
		return 0, false
	}
	value, err := b.handle.Metadata(m)
	if err != nil {
		return 0, false
	}
	return value, true
}

func (b *base) SupportsMetadata(m kind.FrameMetadata) bool {
	_, ok := b.Metadata(m)
	return ok
}

func (b *base) IntoRaw() Handle {
	h := b.handle
	b.handle = nil
	return h
}

func (b *base) Close() error {
	if b.handle != nil {
		b.handle.Release()
		b.handle = nil
	}
	return nil
}

// categorized adds the category tags of C to base.
type categorized[C Category] struct {
	base
}

func (f *categorized[C]) Extension() kind.Extension {
	var c C
	return c.Extension()
}

func (f *categorized[C]) Kind() kind.StreamKind {
	var c C
	return c.Kind()
}

func (f *categorized[C]) HasCorrectKind() bool {
	var c C
	return hasKind(f.handle, c.Kind())
}
