package pixel

import (
	"fmt"

	"rsframe-go/internal/kind"
)

// Supported reports whether Get can address pixels of the given format.
func Supported(format kind.Format) bool {
	switch format {
	case kind.FormatYuyv, kind.FormatUyvy,
		kind.FormatBgr8, kind.FormatRgb8,
		kind.FormatBgra8, kind.FormatRgba8,
		kind.FormatRaw8, kind.FormatY8,
		kind.FormatY16, kind.FormatZ16,
		kind.FormatDistance, kind.FormatDisparity32, kind.FormatXyz32f:
		return true
	default:
		return false
	}
}

// ElementSize is the width in bytes of the element type the format's buffer is viewed as.
func ElementSize(format kind.Format) int {
	switch format {
	case kind.FormatY16, kind.FormatZ16:
		return 2
	case kind.FormatDistance, kind.FormatDisparity32, kind.FormatXyz32f:
		return 4
	default:
		return 1
	}
}

// Span returns the byte range [offset, offset+length) of data read for the pixel at
// (col, row). It panics for unsupported formats.
//
// Buffers are row-major. The uniform formats offset by row*stride + col*bytesPerPixel, with
// the 16 and 32-bit formats first reinterpreting the buffer as elements, so stride is divided
// by the element size before use.
//
// YUYV and UYVY pack two pixels into four bytes, so the base offset is
// row*stride + (col/2)*4: each pair of columns shares one four-byte group, and Get picks the
// luma byte by row parity.
func Span(format kind.Format, strideBytes, col, row int) (offset, length int) {
	switch format {
	case kind.FormatYuyv, kind.FormatUyvy:
		return row*strideBytes + (col/2)*4, 4
	case kind.FormatBgr8, kind.FormatRgb8:
		return row*strideBytes + col*3, 3
	case kind.FormatBgra8, kind.FormatRgba8:
		return row*strideBytes + col*4, 4
	case kind.FormatRaw8, kind.FormatY8:
		return row*strideBytes + col, 1
	case kind.FormatY16, kind.FormatZ16:
		return (row*(strideBytes/2) + col) * 2, 2
	case kind.FormatDistance, kind.FormatDisparity32:
		return (row*(strideBytes/4) + col) * 4, 4
	case kind.FormatXyz32f:
		return (row*(strideBytes/4) + col) * 4, 12
	default:
		panic(fmt.Sprintf("pixel: unsupported video format %s", format))
	}
}

// Get reads the pixel at (col, row) from data, a frame buffer of the given format whose rows
// are strideBytes apart. The result borrows from data.
//
// Get does not validate col and row. Callers must have checked them against a Geometry that
// passed Check for this format; frame.ImageFrame is the only intended caller. Unsupported
// formats panic.
//
// RGB8 and RGBA8 pixels come back as Bgr8 and Bgra8 values with the channel pointers bound to
// their RGB positions.
func Get(format kind.Format, data []byte, strideBytes, col, row int) Kind {
	offset, length := Span(format, strideBytes, col, row)
	px := data[offset : offset+length : offset+length]

	switch format {
	case kind.FormatYuyv:
		y := &px[0]
		if row%2 != 0 {
			y = &px[2]
		}
		return Yuyv{Y: y, U: &px[1], V: &px[3]}
	case kind.FormatUyvy:
		y := &px[1]
		if row%2 != 0 {
			y = &px[3]
		}
		return Uyvy{Y: y, U: &px[0], V: &px[2]}
	case kind.FormatBgr8:
		return Bgr8{B: &px[0], G: &px[1], R: &px[2]}
	case kind.FormatRgb8:
		return Bgr8{R: &px[0], G: &px[1], B: &px[2]}
	case kind.FormatBgra8:
		return Bgra8{B: &px[0], G: &px[1], R: &px[2], A: &px[3]}
	case kind.FormatRgba8:
		return Bgra8{R: &px[0], G: &px[1], B: &px[2], A: &px[3]}
	case kind.FormatRaw8:
		return Raw8{Val: &px[0]}
	case kind.FormatY8:
		return Y8{Y: &px[0]}
	case kind.FormatY16:
		return Y16{Y: U16(px)}
	case kind.FormatZ16:
		return Z16{Depth: U16(px)}
	case kind.FormatDistance:
		return Distance{Distance: F32(px)}
	case kind.FormatDisparity32:
		return Disparity32{Disparity: F32(px)}
	case kind.FormatXyz32f:
		return Xyz32f{X: F32(px[0:4:4]), Y: F32(px[4:8:8]), Z: F32(px[8:12:12])}
	default:
		panic(fmt.Sprintf("pixel: unsupported video format %s", format))
	}
}
