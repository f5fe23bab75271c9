package types

// RawTraceRecord is one sample offloaded from a performance-monitor
// trace FIFO. Timestamp is a device cycle count: absolute in hardware
// mode, a delta accumulated per monitor type in emulation mode.
// HostTimestamp is meaningful only in emulation mode. Reserved forces
// a degenerate single-point transaction on memory end events.
type RawTraceRecord struct {
	Timestamp     uint64
	HostTimestamp uint64
	TraceID       uint32
	EventFlags    uint8
	EventType     uint8
	Overflow      uint8
	Reserved      uint8
}

// EventKind classifies a decoded timeline event.
type EventKind int

const (
	KindRead EventKind = iota
	KindWrite
	KindKernel
	KindStallInt
	KindStallStr
	KindStallExt
)

func (k EventKind) String() string {
	switch k {
	case KindRead:
		return "Read"
	case KindWrite:
		return "Write"
	case KindKernel:
		return "Kernel"
	case KindStallInt:
		return "Intra-Kernel Dataflow Stall"
	case KindStallStr:
		return "Inter-Kernel Pipe Stall"
	case KindStallExt:
		return "External Memory Stall"
	}
	return "Unknown"
}

// TraceEvent is one reconstructed transaction on the device timeline.
// StartTime/EndTime are in device cycles; Start/End are host
// milliseconds after clock conversion.
type TraceEvent struct {
	SlotNum     uint32    `json:"slot"`
	Name        string    `json:"name"`
	Kind        EventKind `json:"kind"`
	StartTime   uint64    `json:"start_time"`
	EndTime     uint64    `json:"end_time"`
	Start       float64   `json:"start_ms"`
	End         float64   `json:"end_ms"`
	BurstLength uint64    `json:"burst_length"`
	NumBytes    uint64    `json:"num_bytes"`
	Approximate bool      `json:"approximate,omitempty"`
}
