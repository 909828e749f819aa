// Package pixel interprets frame buffers produced by a depth/colour sensor.
//
// A pixel value never owns its channels: every field is a pointer or sub-slice into the
// frame buffer it was read from, so it is only valid while that buffer is. Use Snapshot to
// keep a copy past the frame's lifetime.
//
// For detailed pixel format layouts see the librealsense2 SDK format documentation.
package pixel

import (
	"encoding/binary"
	"math"
)

// BitsPerByte is the divisor between a frame's bits-per-pixel and its bytes-per-pixel.
const BitsPerByte = 8

// U16 is a little-endian 16-bit element borrowed from a frame buffer.
type U16 []byte

func (v U16) Value() uint16 {
	return binary.LittleEndian.Uint16(v)
}

// F32 is a little-endian IEEE-754 float borrowed from a frame buffer.
type F32 []byte

func (v F32) Value() float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(v))
}

// Kind is one pixel in one of the supported formats. The set of implementations is closed.
type Kind interface {
	// Variant is the name of the concrete pixel type.
	Variant() string
	// Snapshot copies the channel values out of the frame buffer.
	Snapshot() Snapshot
	isKind()
}

// Yuyv is 32-bit y0, u, y1, v data shared by every two pixels.
type Yuyv struct{ Y, U, V *uint8 }

// Uyvy is Yuyv packed in u, y0, v, y1 order.
type Uyvy struct{ Y, U, V *uint8 }

// Bgr8 is 8-bit blue, green and red channels. Rgb8 buffers are also read into this type.
type Bgr8 struct{ B, G, R *uint8 }

// Bgra8 is Bgr8 plus an alpha channel. Rgba8 buffers are also read into this type.
type Bgra8 struct{ B, G, R, A *uint8 }

// Rgb8 is 8-bit red, green and blue channels.
type Rgb8 struct{ R, G, B *uint8 }

// Rgba8 is Rgb8 plus an alpha channel.
type Rgba8 struct{ R, G, B, A *uint8 }

// Raw8 is an 8-bit raw sample.
type Raw8 struct{ Val *uint8 }

// Y8 is 8-bit grayscale.
type Y8 struct{ Y *uint8 }

// Y16 is 16-bit grayscale.
type Y16 struct{ Y U16 }

// Z16 is a 16-bit linear depth value. Depth in metres is depth units * value.
type Z16 struct{ Depth U16 }

// Distance is a 32-bit float depth distance.
type Distance struct{ Distance F32 }

// Disparity32 is a 32-bit float disparity. Disparity = baseline * focal length / depth.
type Disparity32 struct{ Disparity F32 }

// Xyz32f is a 32-bit float 3D coordinate.
type Xyz32f struct{ X, Y, Z F32 }

func (Yuyv) isKind()        {}
func (Uyvy) isKind()        {}
func (Bgr8) isKind()        {}
func (Bgra8) isKind()       {}
func (Rgb8) isKind()        {}
func (Rgba8) isKind()       {}
func (Raw8) isKind()        {}
func (Y8) isKind()          {}
func (Y16) isKind()         {}
func (Z16) isKind()         {}
func (Distance) isKind()    {}
func (Disparity32) isKind() {}
func (Xyz32f) isKind()      {}

func (Yuyv) Variant() string        { return "yuyv" }
func (Uyvy) Variant() string        { return "uyvy" }
func (Bgr8) Variant() string        { return "bgr8" }
func (Bgra8) Variant() string       { return "bgra8" }
func (Rgb8) Variant() string        { return "rgb8" }
func (Rgba8) Variant() string       { return "rgba8" }
func (Raw8) Variant() string        { return "raw8" }
func (Y8) Variant() string          { return "y8" }
func (Y16) Variant() string         { return "y16" }
func (Z16) Variant() string         { return "z16" }
func (Distance) Variant() string    { return "distance" }
func (Disparity32) Variant() string { return "disparity32" }
func (Xyz32f) Variant() string      { return "xyz32f" }

// Snapshot is an owned copy of one pixel's channels, in layout order.
type Snapshot struct {
	Variant  string    `cbor:"variant" json:"variant"`
	Channels []Channel `cbor:"channels" json:"channels"`
}

type Channel struct {
	Name  string  `cbor:"name" json:"name"`
	Value float64 `cbor:"value" json:"value"`
}

// Channel returns the named channel value.
func (s Snapshot) Channel(name string) (float64, bool) {
	for _, c := range s.Channels {
		if c.Name == name {
			return c.Value, true
		}
	}
	return 0, false
}

func snap(variant string, pairs ...any) Snapshot {
	s := Snapshot{Variant: variant, Channels: make([]Channel, 0, len(pairs)/2)}
	for i := 0; i+1 < len(pairs); i += 2 {
		var v float64
		switch n := pairs[i+1].(type) {
		case *uint8:
			v = float64(*n)
		case U16:
			v = float64(n.Value())
		case F32:
			v = float64(n.Value())
		}
		s.Channels = append(s.Channels, Channel{Name: pairs[i].(string), Value: v})
	}
	return s
}

func (p Yuyv) Snapshot() Snapshot  { return snap(p.Variant(), "y", p.Y, "u", p.U, "v", p.V) }
func (p Uyvy) Snapshot() Snapshot  { return snap(p.Variant(), "y", p.Y, "u", p.U, "v", p.V) }
func (p Bgr8) Snapshot() Snapshot  { return snap(p.Variant(), "b", p.B, "g", p.G, "r", p.R) }
func (p Bgra8) Snapshot() Snapshot { return snap(p.Variant(), "b", p.B, "g", p.G, "r", p.R, "a", p.A) }
func (p Rgb8) Snapshot() Snapshot  { return snap(p.Variant(), "r", p.R, "g", p.G, "b", p.B) }
func (p Rgba8) Snapshot() Snapshot { return snap(p.Variant(), "r", p.R, "g", p.G, "b", p.B, "a", p.A) }
func (p Raw8) Snapshot() Snapshot  { return snap(p.Variant(), "val", p.Val) }
func (p Y8) Snapshot() Snapshot    { return snap(p.Variant(), "y", p.Y) }
func (p Y16) Snapshot() Snapshot   { return snap(p.Variant(), "y", p.Y) }
func (p Z16) Snapshot() Snapshot   { return snap(p.Variant(), "depth", p.Depth) }

func (p Distance) Snapshot() Snapshot {
	return snap(p.Variant(), "distance", p.Distance)
}

func (p Disparity32) Snapshot() Snapshot {
	return snap(p.Variant(), "disparity", p.Disparity)
}

func (p Xyz32f) Snapshot() Snapshot {
	return snap(p.Variant(), "x", p.X, "y", p.Y, "z", p.Z)
}
