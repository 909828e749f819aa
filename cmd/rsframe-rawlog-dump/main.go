package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"

	"rsframe-go/internal/logging"
	"rsframe-go/internal/output"
	"rsframe-go/internal/record"
)

func main() {
	var (
		path     = flag.String("path", "", "Path to rawlog .bin file")
		limit    = flag.Int("limit", 1, "Number of records to dump (0 for all)")
		frames   = flag.Bool("frames", false, "Decode payloads as frame records instead of generic CBOR")
		logLevel = flag.String("log-level", "info", "Log level")
	)
	flag.Parse()

	logger := logging.New(*logLevel, os.Stderr)
	if *path == "" {
		logger.Fatal().Msg("path is required")
	}

	f, err := os.Open(*path)
	if err != nil {
		logger.Fatal().Err(err).Msg("open rawlog")
	}
	defer f.Close()

	r, err := output.NewRawLogReader(f)
	if err != nil {
		logger.Fatal().Err(err).Msg("open rawlog")
	}

	for count := 0; *limit <= 0 || count < *limit; count++ {
		entry, err := r.Next()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			logger.Fatal().Err(err).Int("record", count).Msg("read record")
		}
		if len(entry.Payload) == 0 {
			logger.Info().Int("record", count).Msg("empty payload")
			continue
		}

		var value any
		if *frames {
			rec, err := record.Unmarshal(entry.Payload)
			if err != nil {
				logger.Warn().Err(err).Int("record", count).Msg("frame decode error")
				continue
			}
			value = describeRecord(rec)
		} else {
			var decoded any
			if err := cbor.Unmarshal(entry.Payload, &decoded); err != nil {
				logger.Warn().Err(err).Int("record", count).Msg("CBOR decode error")
				continue
			}
			value = output.NormalizeJSONValue(decoded)
		}

		pretty, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			logger.Warn().Err(err).Int("record", count).Msg("JSON encode error")
			continue
		}

		logger.Info().
			Int("record", count).
			Str("timestamp", entry.Time.Format(time.RFC3339Nano)).
			Int("size", len(entry.Payload)).
			Msg("raw record")
		fmt.Println(string(pretty))
	}
}

func describeRecord(rec *record.Record) map[string]any {
	out := map[string]any{
		"seq":        rec.Seq,
		"extension":  rec.Extension.String(),
		"stream":     rec.Profile.Stream.String(),
		"format":     rec.Profile.Format.String(),
		"index":      rec.Profile.Index,
		"timestamp":  rec.Timestamp,
		"data_bytes": len(rec.Data),
	}
	if rec.Width > 0 {
		out["geometry"] = fmt.Sprintf("%dx%d stride %d", rec.Width, rec.Height, rec.Stride)
	}
	if rec.PointCount > 0 {
		out["points"] = rec.PointCount
	}
	if rec.Sensor != "" {
		out["sensor"] = rec.Sensor
	}
	return out
}
