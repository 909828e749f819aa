package simulator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rsframe-go/internal/frame"
	"rsframe-go/internal/kind"
	"rsframe-go/internal/pixel"
	"rsframe-go/internal/record"
)

func TestNewRecordClassifiesAsItsStream(t *testing.T) {
	cases := []struct {
		stream kind.StreamKind
		want   any
	}{
		{kind.StreamDepth, &frame.DepthFrame{}},
		{kind.StreamColor, &frame.ColorFrame{}},
		{kind.StreamInfrared, &frame.InfraredFrame{}},
		{kind.StreamFisheye, &frame.FisheyeFrame{}},
		{kind.StreamConfidence, &frame.ConfidenceFrame{}},
		{kind.StreamAccel, &frame.AccelFrame{}},
		{kind.StreamGyro, &frame.GyroFrame{}},
		{kind.StreamPose, &frame.PoseFrame{}},
	}
	for _, tc := range cases {
		t.Run(tc.stream.String(), func(t *testing.T) {
			f, err := frame.Classify(record.NewHandle(NewRecord(tc.stream, 1, 8, 6, 10)))
			require.NoError(t, err)
			defer f.Close()
			assert.IsType(t, tc.want, f)
		})
	}
}

func TestColorFormatsRotateAndFitTheirBuffers(t *testing.T) {
	for seq := uint64(0); seq < uint64(len(colorFormats)); seq++ {
		rec := NewRecord(kind.StreamColor, seq, 10, 4, 0)
		assert.Equal(t, colorFormats[seq], rec.Profile.Format)
		assert.Zero(t, rec.Stride%rowAlign)
		g := pixel.Geometry{Width: rec.Width, Height: rec.Height, Stride: rec.Stride, DataSize: len(rec.Data)}
		require.NoError(t, g.Check(rec.Profile.Format))
	}
}

func TestDepthHasInvalidBorder(t *testing.T) {
	rec := NewRecord(kind.StreamDepth, 0, 8, 4, 0)
	f, err := frame.NewDepthFrame(record.NewHandle(rec))
	require.NoError(t, err)

	d, err := f.Distance(0, 2)
	require.NoError(t, err)
	assert.Zero(t, d)

	d, err = f.Distance(4, 2)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, d, 0.1, "bump centre sits about 1 m away")
}

func TestPointsFromDepth(t *testing.T) {
	depth := NewRecord(kind.StreamDepth, 0, 8, 4, 0)
	points := PointsFrom(depth)

	f, err := frame.NewPointsFrame(record.NewHandle(points))
	require.NoError(t, err)
	require.Equal(t, 32, f.PointCount())

	v, err := f.Vertex(2*8 + 4)
	require.NoError(t, err)
	px := pixel.Get(kind.FormatZ16, depth.Data, depth.Stride, 4, 2).(pixel.Z16)
	assert.InDelta(t, float64(px.Depth.Value())*DepthUnits, v.Z.Value(), 1e-6)
	assert.InDelta(t, 0, v.X.Value(), 1e-6)

	u, tv, ok, err := f.TextureCoordinate(2*8 + 4)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, float32(0.5), u)
	assert.Equal(t, float32(0.5), tv)
}

func TestStreamEmitsConfiguredStreams(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	out := Stream(ctx, Config{Width: 4, Height: 2, Rate: 200, Streams: []kind.StreamKind{kind.StreamDepth, kind.StreamGyro}})
	var got []kind.Extension
	for rec := range out {
		got = append(got, rec.Extension)
		if len(got) == 3 {
			cancel()
			break
		}
	}
	assert.Equal(t, []kind.Extension{kind.ExtensionDepthFrame, kind.ExtensionPoints, kind.ExtensionMotionFrame}, got)
}
