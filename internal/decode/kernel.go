package decode

import "github.com/tensility357/XRT/pkg/types"

// cuCategory indexes the four interval categories a compute-unit
// monitor reports.
type cuCategory int

const (
	catKernel cuCategory = iota
	catStallInt
	catStallStr
	catStallExt

	numCategories
)

// categoryOrder is the fixed walk order for the categories present in
// one record.
var categoryOrder = [numCategories]struct {
	cat  cuCategory
	mask uint32
	kind types.EventKind
}{
	{catKernel, types.TRACE_CU_MASK, types.KindKernel},
	{catStallInt, types.TRACE_STALL_INT_MASK, types.KindStallInt},
	{catStallStr, types.TRACE_STALL_STR_MASK, types.KindStallStr},
	{catStallExt, types.TRACE_STALL_EXT_MASK, types.KindStallExt},
}

// categoryState is the explicit per-category pairing state: a category
// event in Idle records a start, a category event in Started completes
// the interval and returns to Idle.
type categoryState uint8

const (
	catIdle categoryState = iota
	catStarted
)

type cuSlotState struct {
	state        [numCategories]categoryState
	startDevice  [numCategories]uint64
	startHostNs  [numCategories]uint64
	lastActivity uint64
}

// kernelTracker tracks open compute-unit intervals per slot and
// category. At most one interval per (slot, category) is open at a
// time. Started state does not persist across ingest calls.
type kernelTracker struct {
	slots []cuSlotState
}

func newKernelTracker(numSlots int) *kernelTracker {
	return &kernelTracker{slots: make([]cuSlotState, numSlots)}
}

func (k *kernelTracker) inRange(slot uint32) bool {
	return int(slot) < len(k.slots)
}

// Toggle advances the category state machine for one event. It reports
// whether an interval completed, along with the stored start times.
func (k *kernelTracker) Toggle(slot uint32, cat cuCategory, deviceTime, hostNsec uint64) (startDevice, startHostNs uint64, completed bool) {
	if !k.inRange(slot) {
		return 0, 0, false
	}
	s := &k.slots[slot]
	switch s.state[cat] {
	case catIdle:
		s.startDevice[cat] = deviceTime
		s.startHostNs[cat] = hostNsec
		s.state[cat] = catStarted
		return 0, 0, false
	default: // catStarted
		s.state[cat] = catIdle
		return s.startDevice[cat], s.startHostNs[cat], true
	}
}

// Started reports whether a category interval is currently open.
func (k *kernelTracker) Started(slot int, cat cuCategory) bool {
	if slot < 0 || slot >= len(k.slots) {
		return false
	}
	return k.slots[slot].state[cat] == catStarted
}

// StartDevice returns the stored start for an open category interval.
func (k *kernelTracker) StartDevice(slot int, cat cuCategory) uint64 {
	return k.slots[slot].startDevice[cat]
}

// MarkActivity records the most recent compute-unit event timestamp.
func (k *kernelTracker) MarkActivity(slot uint32, deviceTime uint64) {
	if k.inRange(slot) {
		k.slots[slot].lastActivity = deviceTime
	}
}

func (k *kernelTracker) LastActivity(slot int) uint64 {
	if slot < 0 || slot >= len(k.slots) {
		return 0
	}
	return k.slots[slot].lastActivity
}

// Reset clears all started state. Last-activity times survive; only
// the open-interval bookkeeping is per-call.
func (k *kernelTracker) Reset() {
	for i := range k.slots {
		k.slots[i].state = [numCategories]categoryState{}
	}
}
