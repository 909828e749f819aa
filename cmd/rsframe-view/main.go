package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"rsframe-go/internal/config"
	"rsframe-go/internal/ingest"
	"rsframe-go/internal/logging"
	"rsframe-go/internal/output"
	"rsframe-go/internal/processing"
	"rsframe-go/internal/record"
	"rsframe-go/internal/server"
	"rsframe-go/internal/simulator"
	"rsframe-go/internal/types"
)

type metrics struct {
	received         atomic.Uint64
	classifyFailures atomic.Uint64
	framesProcessed  atomic.Uint64
	framesInvalid    atomic.Uint64
	framesBroadcast  atomic.Uint64
	processCount     atomic.Uint64
	processNanos     atomic.Uint64
}

func (m *metrics) snapshot() map[string]any {
	decodeCount, decodeMean := ingest.DecodeTiming()
	return map[string]any{
		"received_total":          m.received.Load(),
		"classify_failures_total": m.classifyFailures.Load(),
		"frames_processed_total":  m.framesProcessed.Load(),
		"frames_invalid_total":    m.framesInvalid.Load(),
		"frames_broadcast_total":  m.framesBroadcast.Load(),
		"process_total":           m.processCount.Load(),
		"process_nanos_total":     m.processNanos.Load(),
		"ingest_decode_failures":  ingest.DecodeFailures(),
		"ingest_decode_total":     decodeCount,
		"ingest_decode_mean":      decodeMean.String(),
	}
}

// result is what a worker reports for one frame.
type result struct {
	summary types.FrameSummary
	ok      bool
}

func main() {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		logging.New("info", os.Stderr).Fatal().Err(err).Msg("invalid configuration")
	}
	logger := logging.New(cfg.LogLevel, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var recorder *output.RawLogWriter
	if cfg.RawLogEnabled {
		recorder, err = output.NewRawLogWriter(cfg.RawLogDir, "raw_cbor")
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to start raw log")
		}
		logger.Info().Str("path", recorder.Path()).Msg("raw log enabled")
		defer func() {
			if err := recorder.Close(); err != nil {
				logger.Warn().Err(err).Msg("raw log close failed")
			}
		}()
	}

	var m metrics
	incoming := startSource(ctx, cfg, logger, recorder, &m)

	results := make(chan result, 128)
	var wg sync.WaitGroup
	wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go func() {
			defer wg.Done()
			for rx := range incoming {
				if ctx.Err() != nil {
					_ = rx.Frame.Close()
					ingest.Drain(incoming)
					return
				}
				start := time.Now()
				summary, ok := processing.Summarize(rx.Frame, rx.Seq)
				_ = rx.Frame.Close()
				m.processCount.Add(1)
				m.processNanos.Add(uint64(time.Since(start).Nanoseconds()))
				select {
				case <-ctx.Done():
					ingest.Drain(incoming)
					return
				case results <- result{summary: summary, ok: ok}:
				}
			}
		}()
	}
	workersDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(results)
		close(workersDone)
	}()

	agg := processing.NewAggregator()
	var aggMu sync.Mutex
	uiMessages := make(chan any, 16)
	runTimestamp := processing.Timestamp()

	flush := func() {
		aggMu.Lock()
		snapshot := agg.SnapshotCopy()
		aggMu.Unlock()
		if len(snapshot.Streams) == 0 {
			return
		}
		select {
		case uiMessages <- snapshot:
			m.framesBroadcast.Add(1)
		default:
		}
	}

	go func() {
		defer close(uiMessages)
		ticker := time.NewTicker(cfg.UIRate)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case res, ok := <-results:
				if !ok {
					flush()
					return
				}
				aggMu.Lock()
				if res.ok {
					agg.AddSummary(res.summary)
					m.framesProcessed.Add(1)
				} else {
					agg.AddInvalid(res.summary.Stream, res.summary.Index)
					m.framesInvalid.Add(1)
				}
				aggMu.Unlock()
			case <-ticker.C:
				flush()
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				logger.Info().Fields(m.snapshot()).Msg("pipeline stats")
			}
		}
	}()

	hooks := server.Hooks{
		Status: func() map[string]any {
			aggMu.Lock()
			frames := agg.FrameCount()
			streams := agg.Streams()
			aggMu.Unlock()
			return map[string]any{
				"source":  sourceName(cfg),
				"frames":  frames,
				"streams": streams,
				"metrics": m.snapshot(),
			}
		},
		Snapshot: func() types.UISnapshot {
			aggMu.Lock()
			defer aggMu.Unlock()
			return agg.SnapshotCopy()
		},
		Latest: func(stream string) (types.FrameSummary, bool) {
			aggMu.Lock()
			defer aggMu.Unlock()
			return agg.Latest(stream)
		},
	}

	logger.Info().Msgf("starting web UI at http://localhost:%d", cfg.Port)
	if err := server.New(cfg, hooks, logger).Run(ctx, uiMessages); err != nil {
		logger.Error().Err(err).Msg("server stopped")
	}
	stop()
	<-workersDone

	aggMu.Lock()
	final := agg.SnapshotCopy()
	aggMu.Unlock()
	if err := output.WriteSeries(cfg.OutputDir, runTimestamp, final); err != nil {
		logger.Error().Err(err).Msg("output write failed")
	} else {
		logger.Info().Str("dir", cfg.OutputDir).Str("run", runTimestamp).Msg("wrote stream stats")
	}
}

func sourceName(cfg config.AppConfig) string {
	if cfg.Simulate {
		return "simulator"
	}
	return cfg.Endpoint
}

// startSource yields classified frames from the simulator or from ZMQ ingest. When ingest cannot
// start and fallback is enabled, the simulator takes over.
func startSource(ctx context.Context, cfg config.AppConfig, logger zerolog.Logger, recorder *output.RawLogWriter, m *metrics) <-chan ingest.Received {
	if !cfg.Simulate {
		opts := ingest.Options{Logger: logger, LogEvery: cfg.IngestLogEvery}
		if recorder != nil {
			opts.Recorder = recorder
		}
		frames, err := ingest.Stream(ctx, cfg.Endpoint, opts)
		if err == nil {
			logger.Info().Str("endpoint", cfg.Endpoint).Msg("ingest started")
			return counted(ctx, frames, m)
		}
		if !cfg.IngestFallback {
			logger.Fatal().Err(err).Msg("failed to start ingest")
		}
		logger.Warn().Err(err).Msg("failed to start ingest; falling back to simulator")
	}

	sim := simulator.Stream(ctx, simulator.Config{
		Width:   cfg.SimWidth,
		Height:  cfg.SimHeight,
		Rate:    cfg.SimRate,
		Streams: cfg.StreamKinds(),
	})
	log := logging.Sampled(logger, cfg.IngestLogEvery)
	out := make(chan ingest.Received, 128)
	go func() {
		defer close(out)
		for rec := range sim {
			if recorder != nil {
				recordRaw(recorder, rec, log)
			}
			rx, err := ingest.Wrap(rec)
			if err != nil {
				m.classifyFailures.Add(1)
				log.Warn().Err(err).Msg("simulated record rejected")
				continue
			}
			m.received.Add(1)
			select {
			case <-ctx.Done():
				_ = rx.Frame.Close()
				for range sim {
				}
				return
			case out <- rx:
			}
		}
	}()
	return out
}

func recordRaw(recorder *output.RawLogWriter, rec *record.Record, log zerolog.Logger) {
	payload, err := record.Marshal(rec)
	if err == nil {
		err = recorder.Record(payload)
	}
	if err != nil {
		log.Warn().Err(err).Msg("raw log write failed")
	}
}

func counted(ctx context.Context, in <-chan ingest.Received, m *metrics) <-chan ingest.Received {
	out := make(chan ingest.Received, cap(in))
	go func() {
		defer close(out)
		for rx := range in {
			m.received.Add(1)
			select {
			case <-ctx.Done():
				_ = rx.Frame.Close()
				ingest.Drain(in)
				return
			case out <- rx:
			}
		}
	}()
	return out
}

// loadConfig starts from Defaults, applies the YAML file named by -config, then every flag set
// on the command line.
func loadConfig(args []string) (config.AppConfig, error) {
	def := config.Defaults()
	fs := flag.NewFlagSet("rsframe-view", flag.ExitOnError)
	var (
		configPath     = fs.String("config", "", "YAML configuration file")
		port           = fs.Int("port", def.Port, "HTTP port for the web UI")
		endpoint       = fs.String("endpoint", def.Endpoint, "ZMQ endpoint publishing frame records")
		workers        = fs.Int("workers", def.Workers, "Number of processing workers")
		logLevel       = fs.String("log-level", def.LogLevel, "Log level (trace, debug, info, warn, error)")
		simulate       = fs.Bool("simulate", def.Simulate, "Run with simulated frames")
		simRate        = fs.Float64("sim-rate", def.SimRate, "Simulated frame rate (frames/sec per stream)")
		simWidth       = fs.Int("sim-width", def.SimWidth, "Simulated image width")
		simHeight      = fs.Int("sim-height", def.SimHeight, "Simulated image height")
		streams        = fs.String("streams", "", "Comma-separated simulated streams (default from config)")
		uiRate         = fs.Duration("ui-rate", def.UIRate, "UI update interval for websocket clients")
		outputDir      = fs.String("output-dir", def.OutputDir, "Directory for output data files")
		rawLogEnabled  = fs.Bool("raw-log", def.RawLogEnabled, "Write raw CBOR messages to disk")
		rawLogDir      = fs.String("raw-log-dir", def.RawLogDir, "Directory for raw ingest logs")
		ingestLogEvery = fs.Int("ingest-log-every", def.IngestLogEvery, "Log every Nth ingest error")
		ingestFallback = fs.Bool("ingest-fallback", def.IngestFallback, "Fall back to simulator when ingest fails")
	)
	if err := fs.Parse(args); err != nil {
		return def, err
	}

	cfg := def
	if *configPath != "" {
		loaded, err := config.LoadFromFile(*configPath)
		if err != nil {
			return def, err
		}
		cfg = loaded
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = *port
		case "endpoint":
			cfg.Endpoint = *endpoint
		case "workers":
			cfg.Workers = *workers
		case "log-level":
			cfg.LogLevel = *logLevel
		case "simulate":
			cfg.Simulate = *simulate
		case "sim-rate":
			cfg.SimRate = *simRate
		case "sim-width":
			cfg.SimWidth = *simWidth
		case "sim-height":
			cfg.SimHeight = *simHeight
		case "streams":
			cfg.Streams = splitList(*streams)
		case "ui-rate":
			cfg.UIRate = *uiRate
		case "output-dir":
			cfg.OutputDir = *outputDir
		case "raw-log":
			cfg.RawLogEnabled = *rawLogEnabled
		case "raw-log-dir":
			cfg.RawLogDir = *rawLogDir
		case "ingest-log-every":
			cfg.IngestLogEvery = *ingestLogEvery
		case "ingest-fallback":
			cfg.IngestFallback = *ingestFallback
		}
	})
	if cfg.UIRate <= 0 {
		cfg.UIRate = time.Second
	}
	return cfg, cfg.Validate()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
