package frame

import (
	"fmt"

	"rsframe-go/internal/kind"
)

// Classify builds the typed frame for whichever category h satisfies. The extension is queried
// first and the stream kind only when a kind-sensitive category shares that extension. When no
// category matches, the returned error wraps ErrUnknownCategory and the caller keeps h.
func Classify(h Handle) (Frame, error) {
	if h == nil {
		return nil, ErrNilHandle
	}
	ext, err := h.Extension()
	if err != nil {
		return nil, fmt.Errorf("query frame extension: %w", err)
	}
	stream := kind.StreamAny
	if needsKind(ext) {
		profile, err := h.StreamProfile()
		if err != nil {
			return nil, constructionError(FieldStreamProfile, err)
		}
		stream = profile.Stream
	}

	var match Category
	for _, c := range Categories() {
		if Matches(c, ext, stream) {
			match = c
			break
		}
	}
	switch match.(type) {
	case Color:
		return build(NewColorFrame(h))
	case Infrared:
		return build(NewInfraredFrame(h))
	case Fisheye:
		return build(NewFisheyeFrame(h))
	case Confidence:
		return build(NewConfidenceFrame(h))
	case Depth:
		return build(NewDepthFrame(h))
	case Disparity:
		return build(NewDisparityFrame(h))
	case Points:
		return build(NewPointsFrame(h))
	case Pose:
		return build(NewPoseFrame(h))
	case Accel:
		return build(NewAccelFrame(h))
	case Gyro:
		return build(NewGyroFrame(h))
	}
	return nil, fmt.Errorf("%w: extension %s, stream %s", ErrUnknownCategory, ext, stream)
}

// needsKind reports whether any category sharing ext is kind-sensitive.
func needsKind(ext kind.Extension) bool {
	for _, c := range Categories() {
		if c.Extension() == ext && c.Kind() != kind.StreamAny {
			return true
		}
	}
	return false
}

// build converts a typed constructor result to a Frame without leaking a typed nil.
func build[F Frame](f F, err error) (Frame, error) {
	if err != nil {
		return nil, err
	}
	return f, nil
}
