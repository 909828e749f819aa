package frame

import (
	"errors"
	"fmt"

	"rsframe-go/internal/kind"
	"rsframe-go/internal/pixel"
)

// ImageFrame is a frame carrying a pixel buffer. Its geometry is queried once and checked
// against the buffer size when the frame is built, so PixelAt can address any in-range pixel
// without further bounds arithmetic.
type ImageFrame[C ImageCategory] struct {
	categorized[C]
	geometry     pixel.Geometry
	bitsPerPixel int
	data         []byte
}

type (
	ColorFrame      = ImageFrame[Color]
	InfraredFrame   = ImageFrame[Infrared]
	FisheyeFrame    = ImageFrame[Fisheye]
	ConfidenceFrame = ImageFrame[Confidence]
)

// NewImageFrame classifies h as C and builds the frame around it. On error the caller still
// owns h.
func NewImageFrame[C ImageCategory](h Handle) (*ImageFrame[C], error) {
	var c C
	if err := classify(h, c); err != nil {
		return nil, err
	}
	b, err := newBase(h)
	if err != nil {
		return nil, err
	}
	f := &ImageFrame[C]{categorized: categorized[C]{base: b}}
	if err := f.load(h); err != nil {
		return nil, err
	}
	return f, nil
}

func NewColorFrame(h Handle) (*ColorFrame, error)           { return NewImageFrame[Color](h) }
func NewInfraredFrame(h Handle) (*InfraredFrame, error)     { return NewImageFrame[Infrared](h) }
func NewFisheyeFrame(h Handle) (*FisheyeFrame, error)       { return NewImageFrame[Fisheye](h) }
func NewConfidenceFrame(h Handle) (*ConfidenceFrame, error) { return NewImageFrame[Confidence](h) }

func (f *ImageFrame[C]) load(h Handle) error {
	var err error
	var g pixel.Geometry
	if g.Width, err = h.Width(); err != nil {
		return constructionError(FieldWidth, err)
	}
	if g.Height, err = h.Height(); err != nil {
		return constructionError(FieldHeight, err)
	}
	if g.Stride, err = h.Stride(); err != nil {
		return constructionError(FieldStride, err)
	}
	bpp, err := h.BitsPerPixel()
	if err != nil {
		return constructionError(FieldBitsPerPixel, err)
	}
	if g.DataSize, err = h.DataSize(); err != nil {
		return constructionError(FieldDataSize, err)
	}
	data, err := h.Data()
	if err != nil {
		return constructionError(FieldData, err)
	}
	if len(data) < g.DataSize {
		return &ConstructionError{
			Field:     FieldData,
			Exception: kind.ExceptionInvalidValue,
			Message:   fmt.Sprintf("buffer holds %d of %d bytes", len(data), g.DataSize),
		}
	}
	format := f.profile.Format
	if pixel.Supported(format) {
		if err := g.Check(format); err != nil {
			return &ConstructionError{
				Field:     FieldGeometry,
				Exception: kind.ExceptionInvalidValue,
				Message:   err.Error(),
				err:       err,
			}
		}
	}
	f.geometry = g
	f.bitsPerPixel = bpp
	f.data = data[:g.DataSize:g.DataSize]
	return nil
}

func (f *ImageFrame[C]) Geometry() pixel.Geometry { return f.geometry }
func (f *ImageFrame[C]) Width() int               { return f.geometry.Width }
func (f *ImageFrame[C]) Height() int              { return f.geometry.Height }
func (f *ImageFrame[C]) Stride() int              { return f.geometry.Stride }
func (f *ImageFrame[C]) DataSize() int            { return f.geometry.DataSize }
func (f *ImageFrame[C]) BitsPerPixel() int        { return f.bitsPerPixel }
func (f *ImageFrame[C]) Format() kind.Format      { return f.profile.Format }

func (f *ImageFrame[C]) BytesPerPixel() int {
	return f.bitsPerPixel / pixel.BitsPerByte
}

// Data is the frame buffer. It is nil once the handle has been transferred or released.
func (f *ImageFrame[C]) Data() []byte {
	return f.data
}

// PixelAt reads the pixel at (col, row). The returned value borrows from the frame buffer and
// must not be used after the frame is closed; take a Snapshot to keep it.
func (f *ImageFrame[C]) PixelAt(col, row int) (pixel.Kind, error) {
	if f.data == nil {
		return nil, ErrTransferred
	}
	format := f.profile.Format
	if !pixel.Supported(format) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if !f.geometry.Contains(col, row) {
		return nil, fmt.Errorf("%w: (%d,%d) outside %dx%d", ErrOutOfBounds, col, row, f.geometry.Width, f.geometry.Height)
	}
	return pixel.Get(format, f.data, f.geometry.Stride, col, row), nil
}

func (f *ImageFrame[C]) IntoRaw() Handle {
	f.data = nil
	return f.base.IntoRaw()
}

func (f *ImageFrame[C]) Close() error {
	f.data = nil
	return f.base.Close()
}

// DepthFrame is a depth image. Distances are pixel values scaled by the depth units.
type DepthFrame struct {
	ImageFrame[Depth]
}

func NewDepthFrame(h Handle) (*DepthFrame, error) {
	f, err := NewImageFrame[Depth](h)
	if err != nil {
		return nil, err
	}
	return &DepthFrame{ImageFrame: *f}, nil
}

// DepthUnits is the number of metres represented by one Z16 step.
func (f *DepthFrame) DepthUnits() (float32, error) {
	return depthUnits(f.handle)
}

// Distance returns the distance in metres at (col, row).
func (f *DepthFrame) Distance(col, row int) (float32, error) {
	px, err := f.PixelAt(col, row)
	if err != nil {
		exception := kind.ExceptionInvalidValue
		if errors.Is(err, ErrTransferred) {
			exception = kind.ExceptionWrongAPICallSequence
		}
		return 0, &DepthError{Op: "distance", Exception: exception, Message: err.Error()}
	}
	switch p := px.(type) {
	case pixel.Distance:
		return p.Distance.Value(), nil
	case pixel.Z16:
		units, err := f.DepthUnits()
		if err != nil {
			de := err.(*DepthError)
			return 0, &DepthError{Op: "distance", Exception: de.Exception, Message: de.Message}
		}
		return float32(p.Depth.Value()) * units, nil
	default:
		return 0, &DepthError{
			Op:        "distance",
			Exception: kind.ExceptionInvalidValue,
			Message:   fmt.Sprintf("depth format %s has no distance", f.Format()),
		}
	}
}

func depthUnits(h Handle) (float32, error) {
	if h == nil {
		return 0, &DepthError{Op: "depth units", Exception: kind.ExceptionWrongAPICallSequence, Message: ErrTransferred.Error()}
	}
	dh, ok := h.(DepthHandle)
	if !ok {
		exception, message := nativeParts(notImplemented("depth units"))
		return 0, &DepthError{Op: "depth units", Exception: exception, Message: message}
	}
	units, err := dh.DepthUnits()
	if err != nil {
		exception, message := nativeParts(err)
		return 0, &DepthError{Op: "depth units", Exception: exception, Message: message}
	}
	return units, nil
}

// DisparityFrame is a disparity image from a stereo depth sensor.
type DisparityFrame struct {
	ImageFrame[Disparity]
}

func NewDisparityFrame(h Handle) (*DisparityFrame, error) {
	f, err := NewImageFrame[Disparity](h)
	if err != nil {
		return nil, err
	}
	return &DisparityFrame{ImageFrame: *f}, nil
}

// Baseline is the stereo baseline in millimetres.
func (f *DisparityFrame) Baseline() (float32, error) {
	if f.handle == nil {
		return 0, &DisparityError{Exception: kind.ExceptionWrongAPICallSequence, Message: ErrTransferred.Error()}
	}
	dh, ok := f.handle.(DisparityHandle)
	if !ok {
		exception, message := nativeParts(notImplemented("baseline"))
		return 0, &DisparityError{Exception: exception, Message: message}
	}
	baseline, err := dh.Baseline()
	if err != nil {
		exception, message := nativeParts(err)
		return 0, &DisparityError{Exception: exception, Message: message}
	}
	return baseline, nil
}
