package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rsframe-go/internal/pixel"
	"rsframe-go/internal/types"
)

func TestRawLogRoundTrip(t *testing.T) {
	w, err := NewRawLogWriter(t.TempDir(), "raw_cbor")
	require.NoError(t, err)
	at := time.Unix(1700000000, 123)
	require.NoError(t, w.RecordAt(at, []byte("first")))
	require.NoError(t, w.Record([]byte{}))
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.Error(t, w.Record([]byte("late")))

	f, err := os.Open(w.Path())
	require.NoError(t, err)
	defer f.Close()

	r, err := NewRawLogReader(f)
	require.NoError(t, err)
	entry, err := r.Next()
	require.NoError(t, err)
	assert.True(t, at.Equal(entry.Time))
	assert.Equal(t, []byte("first"), entry.Payload)

	entry, err = r.Next()
	require.NoError(t, err)
	assert.Empty(t, entry.Payload)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestRawLogReaderRejectsOtherFiles(t *testing.T) {
	_, err := NewRawLogReader(strings.NewReader("OTHERLOG...."))
	assert.ErrorIs(t, err, ErrBadMagic)
}

func TestRawLogReaderTruncatedPayload(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString(RawLogMagic)
	buf.Write([]byte{0, 0, 0, 0, 0, 0, 0, 0, 10, 0, 0, 0})
	buf.WriteString("short")

	r, err := NewRawLogReader(&buf)
	require.NoError(t, err)
	_, err = r.Next()
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
}

func TestWritePixels(t *testing.T) {
	var buf bytes.Buffer
	samples := []PixelSample{
		{Col: 0, Row: 1, Snapshot: pixel.Snapshot{Variant: "z16", Channels: []pixel.Channel{{Name: "depth", Value: 1500}}}},
		{Col: 2, Row: 3, Snapshot: pixel.Snapshot{Variant: "bgr8", Channels: []pixel.Channel{
			{Name: "b", Value: 1}, {Name: "g", Value: 2}, {Name: "r", Value: 3},
		}}},
	}
	require.NoError(t, WritePixels(&buf, samples))
	want := "col, row, variant, depth, b, g, r\n" +
		"0, 1, z16, 1500, , , \n" +
		"2, 3, bgr8, , 1, 2, 3\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteSeries(t *testing.T) {
	dir := t.TempDir()
	snapshot := types.UISnapshot{Streams: map[string]types.StreamSnapshot{
		"infrared/1": {
			Stats:  types.StreamStats{Frames: 3, LastSeq: 2},
			Latest: &types.FrameSummary{Valid: 4, Min: 1, Max: 9, Mean: 5},
		},
	}}
	require.NoError(t, WriteSeries(dir, "20240101_000000", snapshot))

	data, err := os.ReadFile(filepath.Join(dir, "20240101_000000_output_infrared_1_stats.txt"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "3, 0, 0, 2, "))
}

func TestNormalizeJSONValue(t *testing.T) {
	value := map[any]any{
		uint64(1): cbor.Tag{Number: 40, Content: []any{[]any{uint64(2), uint64(2)}, make([]byte, 64)}},
		"short":   []byte{1, 2},
	}
	out, err := json.Marshal(NormalizeJSONValue(value))
	require.NoError(t, err)
	assert.JSONEq(t, `{"1":{"tag":40,"value":[[2,2],"<64 bytes>"]},"short":"AQI="}`, string(out))
}
