package frame

import (
	"fmt"

	"rsframe-go/internal/kind"
)

// Category ties a typed frame to the (extension, stream kind) pair a native handle must report
// before the typed frame may be built around it.
//
// A native frame is fully described by three runtime tags: its data format, its extension and
// its stream kind. None of them is encoded in the handle type, so they are checked once when the
// typed frame is constructed. Kind returns kind.StreamAny for categories that accept every
// stream.
type Category interface {
	Extension() kind.Extension
	Kind() kind.StreamKind
}

// ImageCategory is a category whose frames carry a pixel buffer.
type ImageCategory interface {
	Category
	imageCategory()
}

// MotionCategory is a category whose frames carry a motion vector.
type MotionCategory interface {
	Category
	motionCategory()
}

type (
	Color      struct{}
	Infrared   struct{}
	Fisheye    struct{}
	Confidence struct{}
	Depth      struct{}
	Disparity  struct{}
	Points     struct{}
	Pose       struct{}
	Accel      struct{}
	Gyro       struct{}
)

func (Color) Extension() kind.Extension      { return kind.ExtensionVideoFrame }
func (Infrared) Extension() kind.Extension   { return kind.ExtensionVideoFrame }
func (Fisheye) Extension() kind.Extension    { return kind.ExtensionVideoFrame }
func (Confidence) Extension() kind.Extension { return kind.ExtensionVideoFrame }
func (Depth) Extension() kind.Extension      { return kind.ExtensionDepthFrame }
func (Disparity) Extension() kind.Extension  { return kind.ExtensionDisparityFrame }
func (Points) Extension() kind.Extension     { return kind.ExtensionPoints }
func (Pose) Extension() kind.Extension       { return kind.ExtensionPoseFrame }
func (Accel) Extension() kind.Extension      { return kind.ExtensionMotionFrame }
func (Gyro) Extension() kind.Extension       { return kind.ExtensionMotionFrame }

func (Color) Kind() kind.StreamKind      { return kind.StreamColor }
func (Infrared) Kind() kind.StreamKind   { return kind.StreamInfrared }
func (Fisheye) Kind() kind.StreamKind    { return kind.StreamFisheye }
func (Confidence) Kind() kind.StreamKind { return kind.StreamConfidence }
func (Depth) Kind() kind.StreamKind      { return kind.StreamDepth }
func (Disparity) Kind() kind.StreamKind  { return kind.StreamDepth }
func (Points) Kind() kind.StreamKind     { return kind.StreamAny }
func (Pose) Kind() kind.StreamKind       { return kind.StreamPose }
func (Accel) Kind() kind.StreamKind      { return kind.StreamAccel }
func (Gyro) Kind() kind.StreamKind       { return kind.StreamGyro }

func (Color) imageCategory()      {}
func (Infrared) imageCategory()   {}
func (Fisheye) imageCategory()    {}
func (Confidence) imageCategory() {}
func (Depth) imageCategory()      {}
func (Disparity) imageCategory()  {}

func (Accel) motionCategory() {}
func (Gyro) motionCategory()  {}

// Categories lists every category Classify can produce.
func Categories() []Category {
	return []Category{
		Color{}, Infrared{}, Fisheye{}, Confidence{},
		Depth{}, Disparity{}, Points{}, Pose{}, Accel{}, Gyro{},
	}
}

// Matches reports whether the tag pair satisfies the category.
func Matches(c Category, ext kind.Extension, stream kind.StreamKind) bool {
	if ext != c.Extension() {
		return false
	}
	return c.Kind() == kind.StreamAny || c.Kind() == stream
}

// classify checks the handle against c. The extension is compared first; the stream kind is
// queried only when the extension matches and c is kind-sensitive. Nothing is released or
// retained on failure.
func classify(h Handle, c Category) error {
	if h == nil {
		return ErrNilHandle
	}
	ext, err := h.Extension()
	if err != nil {
		return fmt.Errorf("query frame extension: %w", err)
	}
	if ext != c.Extension() {
		return &MismatchError{
			ExpectedExtension: c.Extension(),
			ActualExtension:   ext,
			ExpectedKind:      c.Kind(),
			ActualKind:        kind.StreamAny,
		}
	}
	if c.Kind() == kind.StreamAny {
		return nil
	}
	profile, err := h.StreamProfile()
	if err != nil {
		return constructionError(FieldStreamProfile, err)
	}
	if profile.Stream != c.Kind() {
		return &MismatchError{
			ExpectedExtension: c.Extension(),
			ActualExtension:   ext,
			ExpectedKind:      c.Kind(),
			ActualKind:        profile.Stream,
		}
	}
	return nil
}

// hasKind queries the live handle's stream kind.
func hasKind(h Handle, want kind.StreamKind) bool {
	if want == kind.StreamAny {
		return true
	}
	if h == nil {
		return false
	}
	profile, err := h.StreamProfile()
	if err != nil {
		return false
	}
	return profile.Stream == want
}
