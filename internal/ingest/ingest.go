// Package ingest receives frame records from a ZMQ PULL socket and turns them into frames.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/pebbe/zmq4"
	"github.com/rs/zerolog"

	"rsframe-go/internal/frame"
	"rsframe-go/internal/logging"
	"rsframe-go/internal/record"
)

// Received is one classified frame with the producer's sequence number. The receiver owns Frame
// and must Close it.
type Received struct {
	Seq   uint64
	Frame frame.Frame
}

// RawRecorder keeps every received message before it is decoded.
type RawRecorder interface {
	Record(payload []byte) error
}

type Options struct {
	Logger   zerolog.Logger
	LogEvery int
	Recorder RawRecorder
}

var (
	decodeFailures atomic.Uint64
	decodeNanos    atomic.Uint64
	decodeCount    atomic.Uint64
)

// DecodeFailures counts messages that could not be turned into a frame.
func DecodeFailures() uint64 {
	return decodeFailures.Load()
}

// DecodeTiming returns the number of decoded messages and their mean decode time.
func DecodeTiming() (uint64, time.Duration) {
	n := decodeCount.Load()
	if n == 0 {
		return 0, 0
	}
	return n, time.Duration(decodeNanos.Load() / n)
}

// Stream connects a PULL socket to endpoint and yields one Received per frame record. Other
// messages and undecodable records are logged, sampled by opts.LogEvery, and skipped. The channel
// closes once ctx is done; frames still buffered in it belong to the receiver (see Drain).
func Stream(ctx context.Context, endpoint string, opts Options) (<-chan Received, error) {
	socket, err := zmq4.NewSocket(zmq4.PULL)
	if err != nil {
		return nil, err
	}
	if err := socket.SetRcvtimeo(250 * time.Millisecond); err != nil {
		_ = socket.Close()
		return nil, err
	}
	if err := socket.Connect(endpoint); err != nil {
		_ = socket.Close()
		return nil, err
	}

	log := logging.Sampled(opts.Logger.With().Str("endpoint", endpoint).Logger(), opts.LogEvery)
	out := make(chan Received, 128)
	go func() {
		defer close(out)
		defer socket.Close()

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			msg, err := socket.RecvBytes(0)
			if err != nil {
				if zmq4.AsErrno(err) == zmq4.Errno(syscall.EAGAIN) {
					continue
				}
				log.Warn().Err(err).Msg("ingest recv error")
				continue
			}
			if opts.Recorder != nil {
				if err := opts.Recorder.Record(msg); err != nil {
					log.Warn().Err(err).Msg("raw log write failed")
				}
			}

			rx, err := decodeMessage(msg)
			if err != nil {
				if !errors.Is(err, record.ErrNotFrame) {
					decodeFailures.Add(1)
				}
				log.Warn().Err(err).Int("bytes", len(msg)).Msg("ingest skipped message")
				continue
			}

			select {
			case <-ctx.Done():
				_ = rx.Frame.Close()
				return
			case out <- rx:
			}
		}
	}()

	return out, nil
}

// Drain closes every frame left in in until it is closed.
func Drain(in <-chan Received) {
	for rx := range in {
		_ = rx.Frame.Close()
	}
}

// Wrap classifies rec behind a software handle.
func Wrap(rec *record.Record) (Received, error) {
	f, err := frame.Classify(record.NewHandle(rec))
	if err != nil {
		return Received{}, fmt.Errorf("record %d: %w", rec.Seq, err)
	}
	return Received{Seq: rec.Seq, Frame: f}, nil
}

func decodeMessage(msg []byte) (Received, error) {
	start := time.Now()
	rec, err := record.Unmarshal(msg)
	if err != nil {
		return Received{}, err
	}
	rx, err := Wrap(rec)
	if err != nil {
		return Received{}, err
	}
	decodeNanos.Add(uint64(time.Since(start)))
	decodeCount.Add(1)
	return rx, nil
}
