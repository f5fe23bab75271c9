package loaders

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tensility357/XRT/pkg/types"
)

func writeCapture(t *testing.T, samples []rawSample) string {
	t.Helper()
	var buf bytes.Buffer
	for _, s := range samples {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, &s))
	}
	path := filepath.Join(t.TempDir(), "trace.bin")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestFileLoaderBatches(t *testing.T) {
	path := writeCapture(t, []rawSample{
		{Timestamp: 1, HostTimestamp: 10, TraceID: 2, EventType: 1},
		{Timestamp: 2, HostTimestamp: 20, TraceID: 2, EventType: 2, Reserved: 1},
		{Timestamp: 3, HostTimestamp: 30, TraceID: 65, EventFlags: 0x1, Overflow: 1},
	})

	l, err := NewFileLoader(path, 2)
	require.NoError(t, err)
	defer l.Close()

	var batches [][]types.RawTraceRecord
	for b := range l.Run(context.Background()) {
		batches = append(batches, b)
	}

	require.Len(t, batches, 2)
	assert.Len(t, batches[0], 2)
	require.Len(t, batches[1], 1)

	first := batches[0][0]
	assert.Equal(t, uint64(1), first.Timestamp)
	assert.Equal(t, uint64(10), first.HostTimestamp)
	assert.Equal(t, uint32(2), first.TraceID)
	assert.Equal(t, uint8(1), first.EventType)

	assert.Equal(t, uint8(1), batches[0][1].Reserved)

	last := batches[1][0]
	assert.Equal(t, uint32(65), last.TraceID)
	assert.Equal(t, uint8(0x1), last.EventFlags)
	assert.Equal(t, uint8(1), last.Overflow)
}

func TestFileLoaderDropsTruncatedTail(t *testing.T) {
	path := writeCapture(t, []rawSample{{Timestamp: 1}})
	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	// One full sample plus a truncated one.
	full := append(raw, raw[:5]...)
	require.NoError(t, os.WriteFile(path, full, 0o644))

	l, err := NewFileLoader(path, 8)
	require.NoError(t, err)
	defer l.Close()

	var total int
	for b := range l.Run(context.Background()) {
		total += len(b)
	}
	assert.Equal(t, 1, total)
}

func TestCloseAllCombinesLoaders(t *testing.T) {
	path := writeCapture(t, []rawSample{{Timestamp: 1}})
	l, err := NewFileLoader(path, 1)
	require.NoError(t, err)

	require.NoError(t, CloseAll(l))
	// Second close of the same file reports an error.
	assert.Error(t, CloseAll(l, nil))
}
