package decode

import (
	"go.uber.org/zap"

	"github.com/tensility357/XRT/pkg/types"
)

// pendingStart is one unmatched transaction start waiting in a slot
// queue. hostNsec is populated only in emulation mode.
type pendingStart struct {
	deviceTime uint64
	hostNsec   uint64
}

// memoryMatcher pairs start and end events per memory slot using
// independent read and write FIFO queues. Queue state persists across
// ingest calls; out-of-order transactions within one slot and channel
// are not supported.
type memoryMatcher struct {
	reads        [][]pendingStart
	writes       [][]pendingStart
	lastActivity []uint64
	policy       types.UnmatchedEndPolicy
	log          *zap.Logger
}

func newMemoryMatcher(numSlots int, policy types.UnmatchedEndPolicy, log *zap.Logger) *memoryMatcher {
	return &memoryMatcher{
		reads:        make([][]pendingStart, numSlots),
		writes:       make([][]pendingStart, numSlots),
		lastActivity: make([]uint64, numSlots),
		policy:       policy,
		log:          log,
	}
}

func (m *memoryMatcher) queue(kind types.EventKind, slot uint32) *[]pendingStart {
	if kind == types.KindWrite {
		return &m.writes[slot]
	}
	return &m.reads[slot]
}

func (m *memoryMatcher) inRange(slot uint32) bool {
	return int(slot) < len(m.reads)
}

// Start pushes a transaction start onto the slot's queue for kind.
func (m *memoryMatcher) Start(kind types.EventKind, slot uint32, deviceTime, hostNsec uint64) {
	if !m.inRange(slot) {
		return
	}
	q := m.queue(kind, slot)
	*q = append(*q, pendingStart{deviceTime: deviceTime, hostNsec: hostNsec})
}

// End resolves a transaction end against the oldest queued start. With
// an empty queue the configured policy decides: drop the event, or
// synthesize a degenerate single-point start at the end timestamp.
// reserved forces the single-point form regardless of queue state.
func (m *memoryMatcher) End(kind types.EventKind, slot uint32, deviceTime, hostNsec uint64, reserved bool) (pendingStart, bool) {
	if !m.inRange(slot) {
		return pendingStart{}, false
	}
	point := pendingStart{deviceTime: deviceTime, hostNsec: hostNsec}
	if reserved {
		return point, true
	}
	q := m.queue(kind, slot)
	if len(*q) == 0 {
		if m.policy == types.PolicyDrop {
			m.log.Warn("end event with empty start queue, dropping",
				zap.Stringer("kind", kind),
				zap.Uint32("slot", slot),
				zap.Uint64("timestamp", deviceTime))
			return pendingStart{}, false
		}
		return point, true
	}
	start := (*q)[0]
	*q = (*q)[1:]
	return start, true
}

// MarkActivity records the most recent transaction timestamp for a
// slot; the approximator mines it for missing compute-unit ends.
func (m *memoryMatcher) MarkActivity(slot uint32, deviceTime uint64) {
	if m.inRange(slot) {
		m.lastActivity[slot] = deviceTime
	}
}

func (m *memoryMatcher) LastActivity(slot int) uint64 {
	if slot < 0 || slot >= len(m.lastActivity) {
		return 0
	}
	return m.lastActivity[slot]
}
