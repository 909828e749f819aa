package processing

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rsframe-go/internal/types"
)

func TestAggregatorTracksStreams(t *testing.T) {
	agg := NewAggregator()
	agg.AddSummary(types.FrameSummary{Seq: 1, Stream: "depth", Timestamp: 10})
	agg.AddSummary(types.FrameSummary{Seq: 4, Stream: "depth", Timestamp: 40, Valid: 7})
	agg.AddSummary(types.FrameSummary{Seq: 1, Stream: "infrared", Index: 2})
	agg.AddSummary(types.FrameSummary{Seq: 4, Stream: "depth", Extension: "points", PointCount: 12})
	agg.AddInvalid("color", 0)

	assert.Equal(t, 4, agg.FrameCount())
	assert.Equal(t, []string{"color", "depth", "depth.points", "infrared/2"}, agg.Streams())

	latest, ok := agg.Latest("depth")
	require.True(t, ok)
	assert.Equal(t, 7, latest.Valid)
	_, ok = agg.Latest("color")
	assert.False(t, ok)

	snap := agg.SnapshotCopy()
	want := types.StreamStats{Frames: 2, SeqGaps: 2, LastSeq: 4, LastTimestamp: 40}
	if diff := cmp.Diff(want, snap.Streams["depth"].Stats); diff != "" {
		t.Fatalf("depth stats mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, uint64(1), snap.Streams["color"].Stats.Invalid)
	assert.Nil(t, snap.Streams["color"].Latest)

	// The snapshot must not alias aggregator state.
	snap.Streams["depth"].Latest.Valid = 99
	latest, _ = agg.Latest("depth")
	assert.Equal(t, 7, latest.Valid)

	agg.Reset()
	assert.Zero(t, agg.FrameCount())
	assert.Empty(t, agg.Streams())
}
