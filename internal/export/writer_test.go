package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tensility357/XRT/pkg/types"
)

var sampleEvents = []types.TraceEvent{
	{SlotNum: 1, Name: "cu0/port0", Kind: types.KindRead,
		StartTime: 10, EndTime: 15, Start: 0.00091, End: 0.000915, BurstLength: 6},
	{SlotNum: 0, Name: "cu0", Kind: types.KindKernel,
		StartTime: 5, EndTime: 40, Start: 0.000905, End: 0.00094, Approximate: true},
}

func TestJSONWriter(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter("json", &buf)
	require.NoError(t, err)
	require.NoError(t, w.Write(sampleEvents))

	var decoded []types.TraceEvent
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, sampleEvents[0].SlotNum, decoded[0].SlotNum)
	assert.Equal(t, sampleEvents[1].Name, decoded[1].Name)
	assert.True(t, decoded[1].Approximate)
}

func TestCSVWriter(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter("csv", &buf)
	require.NoError(t, err)
	require.NoError(t, w.Write(sampleEvents))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "Read", rows[1][2])
	assert.Equal(t, "Kernel", rows[2][2])
	assert.Equal(t, "true", rows[2][9])
}

func TestUnknownFormat(t *testing.T) {
	_, err := NewWriter("xml", &bytes.Buffer{})
	assert.Error(t, err)
}
