package loaders

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/tensility357/XRT/pkg/logutil"
	"github.com/tensility357/XRT/pkg/types"
)

// rawSample is the 24-byte on-disk layout of one trace sample,
// little-endian, as offloaded from the monitor FIFO.
type rawSample struct {
	Timestamp     uint64
	HostTimestamp uint64
	TraceID       uint32
	EventFlags    uint8
	EventType     uint8
	Overflow      uint8
	Reserved      uint8
}

const sampleSize = 24

// FileLoader reads packed trace samples from a capture file and
// delivers them in batches.
type FileLoader struct {
	f         *os.File
	r         *bufio.Reader
	batchSize int
}

func NewFileLoader(path string, batchSize int) (*FileLoader, error) {
	if batchSize <= 0 {
		return nil, errors.New("batch size must be positive")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &FileLoader{f: f, r: bufio.NewReader(f), batchSize: batchSize}, nil
}

func (l *FileLoader) Close() error {
	return l.f.Close()
}

// Run streams batches until the capture is exhausted or the context is
// cancelled. A trailing partial sample is reported and dropped.
func (l *FileLoader) Run(ctx context.Context) <-chan []types.RawTraceRecord {
	out := make(chan []types.RawTraceRecord)
	logger := logutil.GetLogger()

	go func() {
		defer close(out)

		buf := make([]byte, sampleSize)
		batch := make([]types.RawTraceRecord, 0, l.batchSize)
		for {
			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, stopping loader...")
				return
			default:
			}

			_, err := io.ReadFull(l.r, buf)
			if err != nil {
				if errors.Is(err, io.ErrUnexpectedEOF) {
					logger.Warn("Truncated trace sample at end of capture")
				} else if !errors.Is(err, io.EOF) {
					logger.Error("Reading error", zap.Error(err))
				}
				break
			}

			var s rawSample
			if err := binary.Read(bytes.NewBuffer(buf), binary.LittleEndian, &s); err != nil {
				logger.Error("Parsing trace sample", zap.Error(err))
				continue
			}
			batch = append(batch, types.RawTraceRecord{
				Timestamp:     s.Timestamp,
				HostTimestamp: s.HostTimestamp,
				TraceID:       s.TraceID,
				EventFlags:    s.EventFlags,
				EventType:     s.EventType,
				Overflow:      s.Overflow,
				Reserved:      s.Reserved,
			})
			if len(batch) == l.batchSize {
				select {
				case out <- batch:
				case <-ctx.Done():
					return
				}
				batch = make([]types.RawTraceRecord, 0, l.batchSize)
			}
		}
		if len(batch) > 0 {
			select {
			case out <- batch:
			case <-ctx.Done():
			}
		}
	}()

	return out
}
