package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rsframe-go/internal/frame"
	"rsframe-go/internal/ingest"
	"rsframe-go/internal/kind"
	"rsframe-go/internal/record"
	"rsframe-go/internal/simulator"
)

func TestLoadConfigFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "view.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 9000\nworkers: 2\nsimulate: true\n"), 0o644))

	cfg, err := loadConfig([]string{"-config", path, "-workers", "6", "-streams", "depth, color,", "-ui-rate", "250ms"})
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 6, cfg.Workers)
	assert.True(t, cfg.Simulate)
	assert.Equal(t, []string{"depth", "color"}, cfg.Streams)
	assert.Equal(t, 250*time.Millisecond, cfg.UIRate)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	_, err := loadConfig([]string{"-streams", "sonar"})
	assert.Error(t, err)
}

func TestCountedReleasesFramesAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	in := make(chan ingest.Received, 4)
	var handles []*record.Handle
	for seq := uint64(0); seq < 4; seq++ {
		h := record.NewHandle(simulator.NewRecord(kind.StreamDepth, seq, 4, 2, 0))
		f, err := frame.Classify(h)
		require.NoError(t, err)
		handles = append(handles, h)
		in <- ingest.Received{Seq: seq, Frame: f}
	}
	close(in)

	var m metrics
	out := counted(ctx, in, &m)
	ingest.Drain(out)

	assert.NotZero(t, m.received.Load())
	for i, h := range handles {
		assert.Equal(t, 1, h.Releases(), "frame %d", i)
	}
}
