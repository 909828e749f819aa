package output

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// RawLogMagic opens every raw log. Each record that follows is a 12-byte little-endian header
// (receive time in Unix nanoseconds, payload length) and the payload as received.
const RawLogMagic = "RSFRAME1"

const rawLogHeaderSize = 12

var ErrBadMagic = errors.New("not a raw frame log")

type RawLogWriter struct {
	mu   sync.Mutex
	f    *os.File
	w    *bufio.Writer
	path string
}

func NewRawLogWriter(outputDir string, prefix string) (*RawLogWriter, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, err
	}
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(outputDir, fmt.Sprintf("%s_%s.bin", timestamp, prefix))
	f, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	w := bufio.NewWriterSize(f, 1024*1024)
	if _, err := w.WriteString(RawLogMagic); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &RawLogWriter{
		f:    f,
		w:    w,
		path: filename,
	}, nil
}

func (r *RawLogWriter) Path() string {
	return r.path
}

// Record appends one payload stamped with the current time.
func (r *RawLogWriter) Record(payload []byte) error {
	return r.RecordAt(time.Now(), payload)
}

func (r *RawLogWriter) RecordAt(at time.Time, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.w == nil {
		return fmt.Errorf("raw log writer is closed")
	}
	var header [rawLogHeaderSize]byte
	binary.LittleEndian.PutUint64(header[:8], uint64(at.UnixNano()))
	binary.LittleEndian.PutUint32(header[8:12], uint32(len(payload)))
	if _, err := r.w.Write(header[:]); err != nil {
		return err
	}
	if _, err := r.w.Write(payload); err != nil {
		return err
	}
	return r.w.Flush()
}

func (r *RawLogWriter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.w == nil {
		return nil
	}
	if err := r.w.Flush(); err != nil {
		_ = r.f.Close()
		r.w = nil
		return err
	}
	err := r.f.Close()
	r.w = nil
	return err
}

type RawLogEntry struct {
	Time    time.Time
	Payload []byte
}

type RawLogReader struct {
	r io.Reader
}

// NewRawLogReader checks the magic and positions r at the first record.
func NewRawLogReader(r io.Reader) (*RawLogReader, error) {
	magic := make([]byte, len(RawLogMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if string(magic) != RawLogMagic {
		return nil, fmt.Errorf("%w: magic %q", ErrBadMagic, magic)
	}
	return &RawLogReader{r: bufio.NewReader(r)}, nil
}

// Next returns the next record, or io.EOF after the last complete one. A record cut short by
// the end of the file returns io.ErrUnexpectedEOF.
func (r *RawLogReader) Next() (RawLogEntry, error) {
	var header [rawLogHeaderSize]byte
	if _, err := io.ReadFull(r.r, header[:]); err != nil {
		return RawLogEntry{}, err
	}
	ts := int64(binary.LittleEndian.Uint64(header[:8]))
	size := binary.LittleEndian.Uint32(header[8:12])
	payload := make([]byte, size)
	if _, err := io.ReadFull(r.r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return RawLogEntry{}, err
	}
	return RawLogEntry{Time: time.Unix(0, ts), Payload: payload}, nil
}
