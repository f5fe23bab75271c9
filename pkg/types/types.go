package types

// DecodeMode selects which trace decoding state machine runs.
type DecodeMode int

const (
	ModeHardware DecodeMode = iota
	ModeEmulation
)

func (m DecodeMode) String() string {
	if m == ModeEmulation {
		return "emulation"
	}
	return "hardware"
}

// MonitorType identifies a performance-monitor chain. Clock calibration
// is tracked independently per monitor type.
type MonitorType int

const (
	MonitorMemory MonitorType = iota
	MonitorAccel

	NumMonitorTypes
)

// UnmatchedEndPolicy controls what happens when a memory end event
// arrives with an empty start queue.
type UnmatchedEndPolicy int

const (
	// PolicyModeDefault resolves to PolicyDrop in emulation and
	// PolicySynthesizePoint in hardware mode.
	PolicyModeDefault UnmatchedEndPolicy = iota
	// PolicyDrop discards the event with a diagnostic.
	PolicyDrop
	// PolicySynthesizePoint emits a degenerate single-point transaction
	// with start == end and burst length 1.
	PolicySynthesizePoint
)

// Trace ID ranges. Low-range memory IDs carry the read/write channel in
// the parity bit; extended-range IDs address 16 channels per slot.
// Compute-unit IDs start at 64 in both encodings.
const (
	TRACE_ID_MEM_MIN = 2
	TRACE_ID_MEM_MAX = 61
	TRACE_ID_EXT_MIN = 64
	TRACE_ID_EXT_MAX = 544
	TRACE_ID_CU_MIN  = 64
	TRACE_ID_CU_MAX  = 94
)

// Compute-unit category masks, carried in the low nibble of the trace
// ID on hardware and in EventFlags during emulation.
const (
	TRACE_CU_MASK        = 0x1
	TRACE_STALL_INT_MASK = 0x2
	TRACE_STALL_STR_MASK = 0x4
	TRACE_STALL_EXT_MASK = 0x8
)

// Memory monitor flag bit positions in EventFlags (emulation mode).
const (
	FLAG_WRITE_FIRST = 0
	FLAG_WRITE_LAST  = 1
	FLAG_READ_FIRST  = 2
	FLAG_READ_LAST   = 3
)

// Explicit event types for hardware memory monitors.
const (
	EVENT_TYPE_NONE  = 0
	EVENT_TYPE_START = 1
	EVENT_TYPE_END   = 2
)

// MemSlotFromTraceID maps a memory trace ID to its slot, reporting
// false for IDs outside both memory ranges.
func MemSlotFromTraceID(id uint32) (uint32, bool) {
	if id >= TRACE_ID_EXT_MIN && id <= TRACE_ID_EXT_MAX {
		return (id - TRACE_ID_EXT_MIN) / 16, true
	}
	if id >= TRACE_ID_MEM_MIN && id <= TRACE_ID_MEM_MAX {
		return id / 2, true
	}
	return 0, false
}

// IsReadID reports whether a low-range memory trace ID is the read
// channel of its slot. Odd IDs are the write channel.
func IsReadID(id uint32) bool { return id&0x1 == 0 }

// IsWriteID reports whether a low-range memory trace ID is the write
// channel of its slot.
func IsWriteID(id uint32) bool { return id&0x1 == 1 }
