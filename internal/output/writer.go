package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"rsframe-go/internal/pixel"
	"rsframe-go/internal/types"
)

// WriteSeries writes one stats file per stream of the snapshot.
func WriteSeries(outputDir string, runTimestamp string, snapshot types.UISnapshot) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}

	for stream, entry := range snapshot.Streams {
		name := strings.ReplaceAll(stream, "/", "_")
		filename := filepath.Join(outputDir, fmt.Sprintf("%s_output_%s_stats.txt", runTimestamp, name))
		f, err := os.Create(filename)
		if err != nil {
			return err
		}

		_, _ = fmt.Fprintln(f, "frames, invalid, seq_gaps, last_seq, last_timestamp, valid, min, max, mean")
		latest := types.FrameSummary{}
		if entry.Latest != nil {
			latest = *entry.Latest
		}
		_, _ = fmt.Fprintf(
			f,
			"%d, %d, %d, %d, %.6f, %d, %.6f, %.6f, %.6f\n",
			entry.Stats.Frames,
			entry.Stats.Invalid,
			entry.Stats.SeqGaps,
			entry.Stats.LastSeq,
			entry.Stats.LastTimestamp,
			latest.Valid,
			latest.Min,
			latest.Max,
			latest.Mean,
		)
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}

type PixelSample struct {
	Col      int
	Row      int
	Snapshot pixel.Snapshot
}

// WritePixels writes samples as CSV. Columns are col, row, variant and then the union of channel
// names in first-seen order; channels a variant lacks are left empty.
func WritePixels(w io.Writer, samples []PixelSample) error {
	var names []string
	index := map[string]int{}
	for _, s := range samples {
		for _, ch := range s.Snapshot.Channels {
			if _, ok := index[ch.Name]; !ok {
				index[ch.Name] = len(names)
				names = append(names, ch.Name)
			}
		}
	}

	header := append([]string{"col", "row", "variant"}, names...)
	if _, err := fmt.Fprintln(w, strings.Join(header, ", ")); err != nil {
		return err
	}
	for _, s := range samples {
		fields := make([]string, 3+len(names))
		fields[0] = fmt.Sprint(s.Col)
		fields[1] = fmt.Sprint(s.Row)
		fields[2] = s.Snapshot.Variant
		for _, ch := range s.Snapshot.Channels {
			fields[3+index[ch.Name]] = fmt.Sprintf("%g", ch.Value)
		}
		if _, err := fmt.Fprintln(w, strings.Join(fields, ", ")); err != nil {
			return err
		}
	}
	return nil
}
