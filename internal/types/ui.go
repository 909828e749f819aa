package types

type StreamStats struct {
	Frames        uint64  `json:"frames"`
	Invalid       uint64  `json:"invalid"`
	SeqGaps       uint64  `json:"seq_gaps"`
	LastSeq       uint64  `json:"last_seq"`
	LastTimestamp float64 `json:"last_timestamp"`
}

type StreamSnapshot struct {
	Stats  StreamStats   `json:"stats"`
	Latest *FrameSummary `json:"latest,omitempty"`
}

type UISnapshot struct {
	Type    string                    `json:"type"`
	Streams map[string]StreamSnapshot `json:"streams"`
}
