package record

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"rsframe-go/internal/frame"
	"rsframe-go/internal/kind"
	"rsframe-go/internal/pixel"
)

const (
	tagMultiDimArray = 40
	tagUint8         = 64
	tagUint16LE      = 69
	tagFloat32LE     = 85
)

// MessageType is the "type" field every frame record carries on the wire.
const MessageType = "frame"

var ErrNotFrame = errors.New("message is not a frame record")

// wireRecord is the CBOR layout of a Record. Enumerations travel as their names so that
// producers in other languages need no numeric tables.
type wireRecord struct {
	Type            string           `cbor:"type"`
	Seq             uint64           `cbor:"seq"`
	Extension       string           `cbor:"extension"`
	Stream          string           `cbor:"stream"`
	Format          string           `cbor:"format"`
	Index           int              `cbor:"index"`
	UniqueID        int              `cbor:"unique_id"`
	Framerate       int              `cbor:"framerate"`
	Width           int              `cbor:"width,omitempty"`
	Height          int              `cbor:"height,omitempty"`
	Stride          int              `cbor:"stride,omitempty"`
	BitsPerPixel    int              `cbor:"bits_per_pixel,omitempty"`
	Timestamp       float64          `cbor:"timestamp"`
	TimestampDomain string           `cbor:"timestamp_domain"`
	Metadata        map[string]int64 `cbor:"metadata,omitempty"`
	Sensor          string           `cbor:"sensor,omitempty"`
	DepthUnits      float32          `cbor:"depth_units,omitempty"`
	Baseline        float32          `cbor:"baseline,omitempty"`
	PointCount      int              `cbor:"point_count,omitempty"`
	TexCoords       any              `cbor:"texture_coordinates,omitempty"`
	Pose            *frame.PoseData  `cbor:"pose,omitempty"`
	Motion          *frame.Vector    `cbor:"motion,omitempty"`
	Data            any              `cbor:"data,omitempty"`
}

// Marshal encodes rec. Image buffers are sent as a [rows, stride/elem] typed array, point
// buffers as [points, 3] float32 and texture coordinates as [points, 2] float32.
func Marshal(rec *Record) ([]byte, error) {
	w := wireRecord{
		Type:            MessageType,
		Seq:             rec.Seq,
		Extension:       rec.Extension.String(),
		Stream:          rec.Profile.Stream.String(),
		Format:          rec.Profile.Format.String(),
		Index:           rec.Profile.Index,
		UniqueID:        rec.Profile.UniqueID,
		Framerate:       rec.Profile.Framerate,
		Width:           rec.Width,
		Height:          rec.Height,
		Stride:          rec.Stride,
		BitsPerPixel:    rec.BitsPerPixel,
		Timestamp:       rec.Timestamp,
		TimestampDomain: rec.Domain.String(),
		Sensor:          rec.Sensor,
		DepthUnits:      rec.DepthUnits,
		Baseline:        rec.Baseline,
		PointCount:      rec.PointCount,
		Pose:            rec.Pose,
		Motion:          rec.Motion,
	}
	if len(rec.Metadata) > 0 {
		w.Metadata = make(map[string]int64, len(rec.Metadata))
		for k, v := range rec.Metadata {
			w.Metadata[k.String()] = v
		}
	}
	if len(rec.Data) > 0 {
		var err error
		if rec.Extension == kind.ExtensionPoints {
			w.Data, err = encodeMultiDimArray(rec.Data, tagFloat32LE, rec.PointCount, 3)
		} else {
			elem := elementSize(rec.Profile.Format)
			if rec.Stride%elem != 0 {
				return nil, fmt.Errorf("stride %d is not a multiple of %s element size %d", rec.Stride, rec.Profile.Format, elem)
			}
			w.Data, err = encodeMultiDimArray(rec.Data, elementTag(elem), rec.Height, rec.Stride/elem)
		}
		if err != nil {
			return nil, err
		}
	}
	if len(rec.TexCoords) > 0 {
		tc, err := encodeMultiDimArray(rec.TexCoords, tagFloat32LE, rec.PointCount, 2)
		if err != nil {
			return nil, fmt.Errorf("texture coordinates: %w", err)
		}
		w.TexCoords = tc
	}
	return cbor.Marshal(w)
}

// Unmarshal decodes one frame record. Messages of another type return ErrNotFrame.
func Unmarshal(msg []byte) (*Record, error) {
	var w wireRecord
	if err := cbor.Unmarshal(msg, &w); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	if w.Type != MessageType {
		return nil, fmt.Errorf("%w: type %q", ErrNotFrame, w.Type)
	}

	rec := &Record{
		Seq:          w.Seq,
		Width:        w.Width,
		Height:       w.Height,
		Stride:       w.Stride,
		BitsPerPixel: w.BitsPerPixel,
		Timestamp:    w.Timestamp,
		Sensor:       w.Sensor,
		DepthUnits:   w.DepthUnits,
		Baseline:     w.Baseline,
		PointCount:   w.PointCount,
		Pose:         w.Pose,
		Motion:       w.Motion,
		Profile: frame.StreamProfile{
			Index:     w.Index,
			UniqueID:  w.UniqueID,
			Framerate: w.Framerate,
		},
	}
	var err error
	if rec.Extension, err = kind.ParseExtension(w.Extension); err != nil {
		return nil, err
	}
	if rec.Profile.Stream, err = kind.ParseStreamKind(w.Stream); err != nil {
		return nil, err
	}
	if rec.Profile.Format, err = kind.ParseFormat(w.Format); err != nil {
		return nil, err
	}
	if rec.Domain, err = kind.ParseTimestampDomain(w.TimestampDomain); err != nil {
		return nil, err
	}
	if len(w.Metadata) > 0 {
		rec.Metadata = make(map[kind.FrameMetadata]int64, len(w.Metadata))
		for name, v := range w.Metadata {
			m, err := kind.ParseFrameMetadata(name)
			if err != nil {
				return nil, err
			}
			rec.Metadata[m] = v
		}
	}

	if w.Data != nil {
		arr, err := decodeMultiDimArray(w.Data)
		if err != nil {
			return nil, fmt.Errorf("data: %w", err)
		}
		if err := arr.check(rec); err != nil {
			return nil, fmt.Errorf("data: %w", err)
		}
		rec.Data = arr.data
	}
	if w.TexCoords != nil {
		arr, err := decodeMultiDimArray(w.TexCoords)
		if err != nil {
			return nil, fmt.Errorf("texture coordinates: %w", err)
		}
		if arr.elem != 4 || arr.rows != rec.PointCount || arr.cols != 2 {
			return nil, fmt.Errorf("texture coordinates: shape [%d,%d] for %d points", arr.rows, arr.cols, rec.PointCount)
		}
		rec.TexCoords = arr.data
	}
	return rec, nil
}

// typedArray is a decoded tag 40 array. data keeps its little-endian wire layout; the pixel
// engine decodes elements in place.
type typedArray struct {
	rows, cols int
	elem       int
	data       []byte
}

// check validates the array against the declared format and geometry.
func (a typedArray) check(rec *Record) error {
	if rec.Extension == kind.ExtensionPoints {
		if a.elem != 4 || a.cols != 3 || a.rows != rec.PointCount {
			return fmt.Errorf("shape [%d,%d] x%d for %d points", a.rows, a.cols, a.elem, rec.PointCount)
		}
		return nil
	}
	if want := elementSize(rec.Profile.Format); a.elem != want {
		return fmt.Errorf("element size %d, format %s needs %d", a.elem, rec.Profile.Format, want)
	}
	if a.rows != rec.Height || a.cols*a.elem != rec.Stride {
		return fmt.Errorf("shape [%d,%d] does not match %d rows of %d bytes", a.rows, a.cols, rec.Height, rec.Stride)
	}
	return nil
}

func encodeMultiDimArray(data []byte, typeTag uint64, rows, cols int) (cbor.Tag, error) {
	elem := tagElementSize(typeTag)
	if !fitsExactly(rows, cols, elem, len(data)) {
		return cbor.Tag{}, fmt.Errorf("dimension mismatch: [%d,%d] x%d for %d bytes", rows, cols, elem, len(data))
	}
	return cbor.Tag{
		Number: tagMultiDimArray,
		Content: []any{
			[]any{rows, cols},
			cbor.Tag{Number: typeTag, Content: data},
		},
	}, nil
}

func decodeMultiDimArray(value any) (typedArray, error) {
	tag, ok := value.(cbor.Tag)
	if !ok || tag.Number != tagMultiDimArray {
		return typedArray{}, fmt.Errorf("expected multidim tag 40")
	}

	items, ok := tag.Content.([]any)
	if !ok || len(items) != 2 {
		return typedArray{}, fmt.Errorf("invalid multidim array content")
	}

	dimsRaw, ok := items[0].([]any)
	if !ok || len(dimsRaw) != 2 {
		return typedArray{}, fmt.Errorf("invalid multidim dimensions")
	}

	rows, err := toInt(dimsRaw[0])
	if err != nil {
		return typedArray{}, err
	}
	cols, err := toInt(dimsRaw[1])
	if err != nil {
		return typedArray{}, err
	}

	elem, data, err := decodeTypedArray(items[1])
	if err != nil {
		return typedArray{}, err
	}
	if !fitsExactly(rows, cols, elem, len(data)) {
		return typedArray{}, fmt.Errorf("dimension mismatch: [%d,%d] x%d for %d bytes", rows, cols, elem, len(data))
	}
	return typedArray{rows: rows, cols: cols, elem: elem, data: data}, nil
}

// fitsExactly reports rows*cols*elem == size without overflowing.
func fitsExactly(rows, cols, elem, size int) bool {
	if rows < 0 || cols < 0 || elem <= 0 || size%elem != 0 {
		return false
	}
	n := size / elem
	if rows == 0 || cols == 0 {
		return n == 0
	}
	return n%cols == 0 && n/cols == rows
}

func decodeTypedArray(value any) (int, []byte, error) {
	tag, ok := value.(cbor.Tag)
	if !ok {
		return 0, nil, fmt.Errorf("expected typed array tag")
	}
	data, ok := tag.Content.([]byte)
	if !ok {
		return 0, nil, fmt.Errorf("unsupported typed array content %T", tag.Content)
	}
	elem := tagElementSize(tag.Number)
	if elem == 0 {
		return 0, nil, fmt.Errorf("unsupported typed array tag %d", tag.Number)
	}
	return elem, data, nil
}

func tagElementSize(tag uint64) int {
	switch tag {
	case tagUint8:
		return 1
	case tagUint16LE:
		return 2
	case tagFloat32LE:
		return 4
	default:
		return 0
	}
}

func elementTag(size int) uint64 {
	switch size {
	case 2:
		return tagUint16LE
	case 4:
		return tagFloat32LE
	default:
		return tagUint8
	}
}

// elementSize extends pixel.ElementSize to the 16-bit formats the engine does not address.
func elementSize(format kind.Format) int {
	switch format {
	case kind.FormatDisparity16, kind.FormatRaw16:
		return 2
	default:
		return pixel.ElementSize(format)
	}
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case uint32:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("unsupported int type %T", v)
	}
}
