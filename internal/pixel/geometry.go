package pixel

import (
	"errors"
	"fmt"

	"rsframe-go/internal/kind"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported video format")
	ErrGeometry          = errors.New("invalid frame geometry")
)

// Geometry is the buffer layout of an image frame, queried once when the frame is built.
type Geometry struct {
	Width    int `cbor:"width" json:"width"`
	Height   int `cbor:"height" json:"height"`
	Stride   int `cbor:"stride" json:"stride"`
	DataSize int `cbor:"data_size" json:"data_size"`
}

// Contains reports whether (col, row) is inside the frame.
func (g Geometry) Contains(col, row int) bool {
	return col >= 0 && row >= 0 && col < g.Width && row < g.Height
}

// Check verifies that every pixel of a frame in the given format lies inside DataSize. Span is
// monotonic in col and row, so checking the last pixel covers the whole frame.
func (g Geometry) Check(format kind.Format) error {
	if !Supported(format) {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if g.Width < 0 || g.Height < 0 || g.Stride < 0 || g.DataSize < 0 {
		return fmt.Errorf("%w: negative dimension in %+v", ErrGeometry, g)
	}
	if g.Width == 0 || g.Height == 0 {
		return nil
	}
	// Bound each dimension by DataSize first so the span arithmetic below cannot overflow.
	if g.Width > g.DataSize || g.Height > g.DataSize || (g.Height > 1 && (g.Stride == 0 || g.Height-1 > g.DataSize/g.Stride)) {
		return fmt.Errorf("%w: %dx%d stride %d cannot fit data size %d",
			ErrGeometry, g.Width, g.Height, g.Stride, g.DataSize)
	}
	offset, length := Span(format, g.Stride, g.Width-1, g.Height-1)
	if offset+length > g.DataSize {
		return fmt.Errorf("%w: %s pixel (%d,%d) spans bytes [%d,%d) past data size %d",
			ErrGeometry, format, g.Width-1, g.Height-1, offset, offset+length, g.DataSize)
	}
	return nil
}
