package processing

import (
	"fmt"
	"sort"
	"time"

	"rsframe-go/internal/kind"
	"rsframe-go/internal/types"
)

type streamState struct {
	stats   types.StreamStats
	latest  types.FrameSummary
	hasLast bool
}

// Aggregator keeps per-stream counters and the latest summary of each stream. It is not safe for
// concurrent use; the viewer feeds it from a single goroutine.
type Aggregator struct {
	frameCount int
	data       map[string]*streamState
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		data: make(map[string]*streamState),
	}
}

// StreamKey names a stream in the aggregate: the stream kind, suffixed with the index for
// sensors that expose several streams of one kind.
func StreamKey(stream string, index int) string {
	if index > 0 {
		return fmt.Sprintf("%s/%d", stream, index)
	}
	return stream
}

// summaryKey keeps point clouds apart from the depth stream they are computed from.
func summaryKey(summary types.FrameSummary) string {
	key := StreamKey(summary.Stream, summary.Index)
	if summary.Extension == kind.ExtensionPoints.String() {
		key += ".points"
	}
	return key
}

// AddSummary records one summarized frame.
func (a *Aggregator) AddSummary(summary types.FrameSummary) {
	st := a.state(summaryKey(summary))
	if st.hasLast && summary.Seq > st.stats.LastSeq+1 {
		st.stats.SeqGaps += summary.Seq - st.stats.LastSeq - 1
	}
	st.stats.Frames++
	st.stats.LastSeq = summary.Seq
	st.stats.LastTimestamp = summary.Timestamp
	st.latest = summary
	st.hasLast = true
	a.frameCount++
}

// AddInvalid counts a frame of the stream that could not be summarized.
func (a *Aggregator) AddInvalid(stream string, index int) {
	a.state(StreamKey(stream, index)).stats.Invalid++
}

func (a *Aggregator) state(key string) *streamState {
	st, ok := a.data[key]
	if !ok {
		st = &streamState{}
		a.data[key] = st
	}
	return st
}

func (a *Aggregator) FrameCount() int {
	return a.frameCount
}

// Streams lists the stream keys seen so far, sorted.
func (a *Aggregator) Streams() []string {
	keys := make([]string, 0, len(a.data))
	for k := range a.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Latest returns the last summary of the stream.
func (a *Aggregator) Latest(key string) (types.FrameSummary, bool) {
	st, ok := a.data[key]
	if !ok || !st.hasLast {
		return types.FrameSummary{}, false
	}
	return st.latest, true
}

func (a *Aggregator) Reset() {
	a.frameCount = 0
	a.data = make(map[string]*streamState)
}

// SnapshotCopy returns a copy safe to hand to other goroutines.
func (a *Aggregator) SnapshotCopy() types.UISnapshot {
	snapshot := types.UISnapshot{
		Type:    "snapshot",
		Streams: make(map[string]types.StreamSnapshot, len(a.data)),
	}
	for key, st := range a.data {
		entry := types.StreamSnapshot{Stats: st.stats}
		if st.hasLast {
			latest := st.latest
			entry.Latest = &latest
		}
		snapshot.Streams[key] = entry
	}
	return snapshot
}

func Timestamp() string {
	return time.Now().Format("20060102_150405")
}
