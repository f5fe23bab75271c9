// Package export writes decoded timelines for downstream viewers.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/tensility357/XRT/pkg/types"
)

// TimelineWriter emits a decoded timeline to some sink.
type TimelineWriter interface {
	Write(events []types.TraceEvent) error
}

// NewWriter returns the writer for a format name ("json" or "csv").
func NewWriter(format string, w io.Writer) (TimelineWriter, error) {
	switch format {
	case "json":
		return &JSONWriter{w: w}, nil
	case "csv":
		return &CSVWriter{w: w}, nil
	default:
		return nil, fmt.Errorf("unknown timeline format %q", format)
	}
}

// JSONWriter emits the timeline as a JSON array of events.
type JSONWriter struct {
	w io.Writer
}

func (jw *JSONWriter) Write(events []types.TraceEvent) error {
	enc := json.NewEncoder(jw.w)
	enc.SetIndent("", "  ")
	return enc.Encode(events)
}

// CSVWriter emits one row per event with a header line.
type CSVWriter struct {
	w io.Writer
}

var csvHeader = []string{
	"slot", "name", "kind", "start_time", "end_time",
	"start_ms", "end_ms", "burst_length", "num_bytes", "approximate",
}

func (cw *CSVWriter) Write(events []types.TraceEvent) error {
	w := csv.NewWriter(cw.w)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, ev := range events {
		row := []string{
			strconv.FormatUint(uint64(ev.SlotNum), 10),
			ev.Name,
			ev.Kind.String(),
			strconv.FormatUint(ev.StartTime, 10),
			strconv.FormatUint(ev.EndTime, 10),
			strconv.FormatFloat(ev.Start, 'f', 6, 64),
			strconv.FormatFloat(ev.End, 'f', 6, 64),
			strconv.FormatUint(ev.BurstLength, 10),
			strconv.FormatUint(ev.NumBytes, 10),
			strconv.FormatBool(ev.Approximate),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
