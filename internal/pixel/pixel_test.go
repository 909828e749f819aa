package pixel

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rsframe-go/internal/kind"
)

// sequential fills a buffer so every byte holds its own index (mod 256).
func sequential(n int) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte(i)
	}
	return buf
}

func TestGetByteFormatsMatchOffsetTable(t *testing.T) {
	const width, height = 4, 4

	tests := []struct {
		format kind.Format
		bpp    int
		// want builds the expected snapshot for the pixel starting at byte offset o.
		want func(buf []byte, o, row int) Snapshot
	}{
		{kind.FormatBgr8, 3, func(b []byte, o, _ int) Snapshot {
			return ch("bgr8", "b", b[o], "g", b[o+1], "r", b[o+2])
		}},
		{kind.FormatRgb8, 3, func(b []byte, o, _ int) Snapshot {
			return ch("bgr8", "b", b[o+2], "g", b[o+1], "r", b[o])
		}},
		{kind.FormatBgra8, 4, func(b []byte, o, _ int) Snapshot {
			return ch("bgra8", "b", b[o], "g", b[o+1], "r", b[o+2], "a", b[o+3])
		}},
		{kind.FormatRgba8, 4, func(b []byte, o, _ int) Snapshot {
			return ch("bgra8", "b", b[o+2], "g", b[o+1], "r", b[o], "a", b[o+3])
		}},
		{kind.FormatRaw8, 1, func(b []byte, o, _ int) Snapshot { return ch("raw8", "val", b[o]) }},
		{kind.FormatY8, 1, func(b []byte, o, _ int) Snapshot { return ch("y8", "y", b[o]) }},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			stride := width*tt.bpp + 3 // padded rows
			buf := sequential(stride * height)
			for row := 0; row < height; row++ {
				for col := 0; col < width; col++ {
					o := row*stride + col*tt.bpp
					got := Get(tt.format, buf, stride, col, row).Snapshot()
					if diff := cmp.Diff(tt.want(buf, o, row), got); diff != "" {
						t.Fatalf("(%d,%d) mismatch (-want +got):\n%s", col, row, diff)
					}
				}
			}
		})
	}
}

func TestGetInterleavedChroma(t *testing.T) {
	const width, height = 4, 4
	stride := width * 2
	buf := sequential(stride * height)

	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			base := row*stride + (col/2)*4
			yuyvY, uyvyY := buf[base], buf[base+1]
			if row%2 == 1 {
				yuyvY, uyvyY = buf[base+2], buf[base+3]
			}

			yuyv := Get(kind.FormatYuyv, buf, stride, col, row).(Yuyv)
			assert.Equal(t, yuyvY, *yuyv.Y, "yuyv y at (%d,%d)", col, row)
			assert.Equal(t, buf[base+1], *yuyv.U)
			assert.Equal(t, buf[base+3], *yuyv.V)

			uyvy := Get(kind.FormatUyvy, buf, stride, col, row).(Uyvy)
			assert.Equal(t, uyvyY, *uyvy.Y, "uyvy y at (%d,%d)", col, row)
			assert.Equal(t, buf[base], *uyvy.U)
			assert.Equal(t, buf[base+2], *uyvy.V)
		}
	}
}

func TestYuyvLumaFollowsRowParity(t *testing.T) {
	// Two rows of one 4-byte group each. Column parity would pick y0 for col 0 on both rows;
	// row parity picks y0 on row 0 and y1 on row 1.
	buf := []byte{
		10, 0x80, 11, 0x90, // row 0: y0 u y1 v
		20, 0x81, 21, 0x91, // row 1
	}
	row0 := Get(kind.FormatYuyv, buf, 4, 0, 0).(Yuyv)
	row1 := Get(kind.FormatYuyv, buf, 4, 0, 1).(Yuyv)
	assert.Equal(t, uint8(10), *row0.Y)
	assert.Equal(t, uint8(21), *row1.Y)

	// col 1 shares the group with col 0.
	assert.Equal(t, uint8(10), *Get(kind.FormatYuyv, buf, 4, 1, 0).(Yuyv).Y)
	assert.Equal(t, uint8(21), *Get(kind.FormatYuyv, buf, 4, 1, 1).(Yuyv).Y)

	uyvy := []byte{
		0x80, 30, 0x90, 31,
		0x81, 40, 0x91, 41,
	}
	assert.Equal(t, uint8(30), *Get(kind.FormatUyvy, uyvy, 4, 0, 0).(Uyvy).Y)
	assert.Equal(t, uint8(41), *Get(kind.FormatUyvy, uyvy, 4, 0, 1).(Uyvy).Y)
}

func TestRgb8ReusesBgr8Variant(t *testing.T) {
	buf := []byte{0xAA /* r */, 0xBB /* g */, 0xCC /* b */}
	px, ok := Get(kind.FormatRgb8, buf, 3, 0, 0).(Bgr8)
	require.True(t, ok, "rgb8 should decode into the Bgr8 variant")
	assert.Equal(t, uint8(0xAA), *px.R)
	assert.Equal(t, uint8(0xBB), *px.G)
	assert.Equal(t, uint8(0xCC), *px.B)
	assert.Same(t, &buf[0], px.R)
	assert.Same(t, &buf[2], px.B)

	rgba := []byte{1, 2, 3, 4}
	pa, ok := Get(kind.FormatRgba8, rgba, 4, 0, 0).(Bgra8)
	require.True(t, ok, "rgba8 should decode into the Bgra8 variant")
	assert.Equal(t, []uint8{1, 2, 3, 4}, []uint8{*pa.R, *pa.G, *pa.B, *pa.A})
}

func TestGetWideElements(t *testing.T) {
	const width, height = 4, 4

	t.Run("z16 and y16", func(t *testing.T) {
		stride := width*2 + 4
		buf := make([]byte, stride*height)
		for row := 0; row < height; row++ {
			for col := 0; col < width; col++ {
				binary.LittleEndian.PutUint16(buf[row*stride+col*2:], uint16(1000*row+col))
			}
		}
		for row := 0; row < height; row++ {
			for col := 0; col < width; col++ {
				z := Get(kind.FormatZ16, buf, stride, col, row).(Z16)
				assert.Equal(t, uint16(1000*row+col), z.Depth.Value())
				y := Get(kind.FormatY16, buf, stride, col, row).(Y16)
				assert.Equal(t, uint16(1000*row+col), y.Y.Value())
			}
		}
	})

	t.Run("distance and disparity32", func(t *testing.T) {
		stride := width*4 + 8
		buf := make([]byte, stride*height)
		for row := 0; row < height; row++ {
			for col := 0; col < width; col++ {
				putF32(buf[row*stride+col*4:], float32(row)+float32(col)/10)
			}
		}
		for row := 0; row < height; row++ {
			for col := 0; col < width; col++ {
				want := float32(row) + float32(col)/10
				d := Get(kind.FormatDistance, buf, stride, col, row).(Distance)
				assert.Equal(t, want, d.Distance.Value())
				p := Get(kind.FormatDisparity32, buf, stride, col, row).(Disparity32)
				assert.Equal(t, want, p.Disparity.Value())
			}
		}
	})

	t.Run("xyz32f reads three consecutive elements", func(t *testing.T) {
		stride := width * 12
		buf := make([]byte, stride*height)
		for i := 0; i < len(buf)/4; i++ {
			putF32(buf[i*4:], float32(i))
		}
		for row := 0; row < height; row++ {
			for col := 0; col < width; col++ {
				e := row*(stride/4) + col
				p := Get(kind.FormatXyz32f, buf, stride, col, row).(Xyz32f)
				assert.Equal(t, float32(e), p.X.Value())
				assert.Equal(t, float32(e+1), p.Y.Value())
				assert.Equal(t, float32(e+2), p.Z.Value())
			}
		}
	})
}

func TestPixelsBorrowTheBuffer(t *testing.T) {
	buf := make([]byte, 8)
	z := Get(kind.FormatZ16, buf, 8, 1, 0).(Z16)
	y := Get(kind.FormatY8, buf, 8, 5, 0).(Y8)

	binary.LittleEndian.PutUint16(buf[2:], 4242)
	buf[5] = 7

	assert.Equal(t, uint16(4242), z.Depth.Value())
	assert.Equal(t, uint8(7), *y.Y)

	snap := z.Snapshot()
	buf[2], buf[3] = 0, 0
	v, ok := snap.Channel("depth")
	require.True(t, ok)
	assert.Equal(t, 4242.0, v, "snapshot must not follow the buffer")
}

func TestBorrowedSliceCannotGrowIntoNeighbour(t *testing.T) {
	buf := make([]byte, 8)
	z := Get(kind.FormatZ16, buf, 8, 0, 0).(Z16)
	assert.Equal(t, 2, cap(z.Depth))
}

func TestGetUnsupportedFormatPanics(t *testing.T) {
	assert.PanicsWithValue(t, "pixel: unsupported video format mjpeg", func() {
		Get(kind.FormatMjpeg, make([]byte, 16), 4, 0, 0)
	})
	assert.False(t, Supported(kind.FormatRaw16))
	assert.True(t, Supported(kind.FormatXyz32f))
}

func TestLastPixelStaysInsideBuffer(t *testing.T) {
	formats := []kind.Format{
		kind.FormatYuyv, kind.FormatUyvy, kind.FormatBgr8, kind.FormatRgb8,
		kind.FormatBgra8, kind.FormatRgba8, kind.FormatRaw8, kind.FormatY8,
		kind.FormatY16, kind.FormatZ16, kind.FormatDistance, kind.FormatDisparity32,
		kind.FormatXyz32f,
	}
	geometries := []struct{ width, height, pad int }{
		{1, 1, 0}, {2, 3, 0}, {4, 4, 0}, {6, 2, 4}, {640, 480, 0}, {7, 5, 12},
	}

	for _, f := range formats {
		for _, g := range geometries {
			stride := rowBytes(f, g.width) + g.pad
			geom := Geometry{Width: g.width, Height: g.height, Stride: stride, DataSize: stride * g.height}
			require.NoError(t, geom.Check(f), "%s %+v", f, geom)

			offset, length := Span(f, stride, g.width-1, g.height-1)
			assert.LessOrEqual(t, offset+length, geom.DataSize, "%s %+v", f, geom)

			buf := make([]byte, geom.DataSize)
			assert.NotPanics(t, func() { Get(f, buf, stride, g.width-1, g.height-1) })
		}
	}
}

func TestGeometryCheckRejectsShortBuffers(t *testing.T) {
	g := Geometry{Width: 4, Height: 2, Stride: 8, DataSize: 15}
	err := g.Check(kind.FormatZ16)
	require.ErrorIs(t, err, ErrGeometry)

	err = Geometry{Width: 4, Height: 2, Stride: 8, DataSize: 16}.Check(kind.FormatMjpeg)
	require.ErrorIs(t, err, ErrUnsupportedFormat)

	assert.NoError(t, Geometry{}.Check(kind.FormatZ16))
	assert.ErrorIs(t, Geometry{Width: -1}.Check(kind.FormatZ16), ErrGeometry)
}

func TestGeometryCheckRejectsOverflowingDimensions(t *testing.T) {
	cases := map[string]Geometry{
		"huge width":       {Width: 1 << 62, Height: 1, Stride: 3, DataSize: 3},
		"huge height":      {Width: 1, Height: 1 << 62, Stride: 3, DataSize: 3},
		"huge stride":      {Width: 1, Height: 2, Stride: 1 << 62, DataSize: 6},
		"zero stride rows": {Width: 1, Height: 2, Stride: 0, DataSize: 6},
	}
	for name, g := range cases {
		t.Run(name, func(t *testing.T) {
			for _, f := range []kind.Format{kind.FormatBgr8, kind.FormatZ16, kind.FormatXyz32f, kind.FormatYuyv} {
				assert.ErrorIs(t, g.Check(f), ErrGeometry, "%s", f)
			}
		})
	}
	assert.NoError(t, Geometry{Width: 1, Height: 1, Stride: 1 << 62, DataSize: 3}.Check(kind.FormatBgr8),
		"a single row never steps by the stride")
}

func TestGeometryContains(t *testing.T) {
	g := Geometry{Width: 3, Height: 2}
	assert.True(t, g.Contains(2, 1))
	assert.False(t, g.Contains(3, 0))
	assert.False(t, g.Contains(0, 2))
	assert.False(t, g.Contains(-1, 0))
}

// rowBytes is the tight row size for width pixels of the format.
func rowBytes(f kind.Format, width int) int {
	if f == kind.FormatXyz32f {
		return width * 12
	}
	off, n := Span(f, 0, width-1, 0)
	return off + n
}

func putF32(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}

func ch(variant string, pairs ...any) Snapshot {
	s := Snapshot{Variant: variant}
	for i := 0; i < len(pairs); i += 2 {
		s.Channels = append(s.Channels, Channel{Name: pairs[i].(string), Value: float64(pairs[i+1].(byte))})
	}
	return s
}
