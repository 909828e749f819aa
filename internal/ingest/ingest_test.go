package ingest

import (
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rsframe-go/internal/frame"
	"rsframe-go/internal/kind"
	"rsframe-go/internal/record"
	"rsframe-go/internal/simulator"
)

func TestDecodeMessageFrame(t *testing.T) {
	rec := simulator.NewRecord(kind.StreamDepth, 7, 8, 4, 1.25)
	payload, err := record.Marshal(rec)
	require.NoError(t, err)

	rx, err := decodeMessage(payload)
	require.NoError(t, err)
	defer rx.Frame.Close()

	assert.Equal(t, uint64(7), rx.Seq)
	depth, ok := rx.Frame.(*frame.DepthFrame)
	require.True(t, ok, "got %T", rx.Frame)
	assert.Equal(t, 8, depth.Width())
	assert.Equal(t, 4, depth.Height())
	assert.Equal(t, 1.25, depth.Timestamp())

	n, _ := DecodeTiming()
	assert.NotZero(t, n)
}

func TestDecodeMessageIgnoresOtherTypes(t *testing.T) {
	payload, err := cbor.Marshal(map[string]any{"type": "end_of_series"})
	require.NoError(t, err)

	_, err = decodeMessage(payload)
	assert.ErrorIs(t, err, record.ErrNotFrame)
}

func TestDecodeMessageRejectsGarbage(t *testing.T) {
	_, err := decodeMessage([]byte{0xff, 0x00})
	assert.Error(t, err)
}

func TestWrapUnknownCategory(t *testing.T) {
	rec := simulator.NewRecord(kind.StreamInfrared, 3, 4, 2, 0)
	rec.Extension = kind.ExtensionPoseFrame
	_, err := Wrap(rec)
	assert.Error(t, err)
}

func TestDrainClosesBufferedFrames(t *testing.T) {
	in := make(chan Received, 3)
	var handles []*record.Handle
	for seq := uint64(0); seq < 3; seq++ {
		h := record.NewHandle(simulator.NewRecord(kind.StreamInfrared, seq, 4, 2, 0))
		f, err := frame.Classify(h)
		require.NoError(t, err)
		handles = append(handles, h)
		in <- Received{Seq: seq, Frame: f}
	}
	close(in)

	Drain(in)
	for i, h := range handles {
		assert.Equal(t, 1, h.Releases(), "frame %d", i)
	}
}
