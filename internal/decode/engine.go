package decode

import (
	"strings"

	"go.uber.org/zap"

	"github.com/tensility357/XRT/internal/config"
	"github.com/tensility357/XRT/internal/slots"
	"github.com/tensility357/XRT/pkg/logutil"
	"github.com/tensility357/XRT/pkg/types"
)

// A hardware batch at or above this many samples means the trace FIFO
// filled and events were lost.
const fifoFullThreshold = 8192

// Engine decodes raw performance-monitor trace samples into timeline
// events. All state is per-instance; callers must serialize LogTrace
// calls on one engine.
type Engine struct {
	mode             types.DecodeMode
	maxEvents        uint64
	numEvents        uint64
	transportDelayNs float64
	emuWrapAddend    uint64
	hwWrapAddend     uint64

	dir      slots.Directory
	log      *zap.Logger
	clock    *clockConverter
	mem      *memoryMatcher
	kernel   *kernelTracker
	timeline *Timeline

	// Host ms per device cycle, halved, from the most recent completed
	// emulation kernel interval. Pads zero-duration transactions.
	emuCycleMs float64
}

// NewEngine builds a decoder for one device. Zero-valued clocks fall
// back to DefaultClocks; a nil logger falls back to the process
// logger.
func NewEngine(cfg *config.Config, dir slots.Directory, clocks Clocks, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = logutil.GetLogger()
	}
	if clocks.HostNow == nil || clocks.DeviceNow == nil {
		def := DefaultClocks()
		if clocks.HostNow == nil {
			clocks.HostNow = def.HostNow
		}
		if clocks.DeviceNow == nil {
			clocks.DeviceNow = def.DeviceNow
		}
	}
	return &Engine{
		mode:             cfg.Mode,
		maxEvents:        cfg.MaxTraceEvents,
		transportDelayNs: cfg.TransportDelayNs,
		emuWrapAddend:    cfg.EmuWrapAddend,
		hwWrapAddend:     cfg.HwWrapAddend,
		dir:              dir,
		log:              logger,
		clock:            newClockConverter(cfg.TraceClockRateMHz, clocks, logger),
		mem:              newMemoryMatcher(dir.NumSlots(slots.Memory), cfg.ResolvePolicy(), logger),
		kernel:           newKernelTracker(dir.NumSlots(slots.ComputeUnit)),
		timeline:         NewTimeline(),
	}
}

// Timeline returns the output sequence. See Timeline for its ordering
// contract.
func (e *Engine) Timeline() *Timeline { return e.timeline }

// NumEvents reports the total samples ingested so far.
func (e *Engine) NumEvents() uint64 { return e.numEvents }

// LogTrace decodes one batch of trace samples for a monitor type. The
// event cap is checked once at entry: a batch that passes it always
// runs to completion, and once the cap is reached further calls are
// no-ops.
func (e *Engine) LogTrace(mon types.MonitorType, batch []types.RawTraceRecord) {
	if e.numEvents >= e.maxEvents || len(batch) == 0 {
		return
	}
	e.log.Debug("logging device trace samples",
		zap.Int("samples", len(batch)),
		zap.Uint64("total", e.numEvents))
	e.numEvents += uint64(len(batch))

	if e.mode == types.ModeEmulation {
		// Seed the host-timestamp epoch with the batch minimum so
		// records from multiple kernels share one origin.
		min := batch[0].HostTimestamp
		for _, rec := range batch {
			if rec.HostTimestamp < min {
				min = rec.HostTimestamp
			}
		}
		e.clock.HostTimestampNsec(min)
		e.logEmulation(mon, batch)
	} else {
		if len(batch) >= fifoFullThreshold {
			e.log.Warn("trace FIFO is full, timeline may be incomplete; " +
				"use coarse data transfer trace or turn off stall profiling")
		}
		e.logHardware(mon, batch)
		e.approximateIncompleteCU(mon)
	}

	e.kernel.Reset()
}

func (e *Engine) logHardware(mon types.MonitorType, batch []types.RawTraceRecord) {
	var x1, y1 float64
	for i, rec := range batch {
		// The first two samples of a hardware batch are the clock
		// calibration pair; the transport delay compensates the
		// host-to-device send latency.
		if i == 0 {
			y1 = float64(rec.HostTimestamp) + e.transportDelayNs
			x1 = float64(rec.Timestamp)
			continue
		}
		if i == 1 {
			y2 := float64(rec.HostTimestamp) + e.transportDelayNs
			x2 := float64(rec.Timestamp)
			e.clock.Train(mon, x1, y1, x2, y2)
		}

		ts := rec.Timestamp
		if rec.Overflow == 1 {
			ts += e.hwWrapAddend
		}

		switch {
		case rec.TraceID >= types.TRACE_ID_CU_MIN && rec.TraceID <= types.TRACE_ID_EXT_MAX:
			// Compute-unit monitor: slot in the upper bits, category
			// bits in the low nibble of the trace ID.
			slot := (rec.TraceID - types.TRACE_ID_CU_MIN) / 16
			e.hardwareCURecord(mon, slot, rec.TraceID, ts)
		case rec.TraceID >= types.TRACE_ID_MEM_MIN && rec.TraceID <= types.TRACE_ID_MEM_MAX:
			e.hardwareMemRecord(mon, rec.TraceID/2, rec, ts)
		default:
			// Unsupported trace ID.
		}
	}
}

func (e *Engine) hardwareCURecord(mon types.MonitorType, slot, traceID uint32, ts uint64) {
	for _, c := range categoryOrder {
		if traceID&c.mask == 0 {
			continue
		}
		startDev, _, completed := e.kernel.Toggle(slot, c.cat, ts, 0)
		if !completed {
			continue
		}
		ev := types.TraceEvent{
			SlotNum:   slot,
			Name:      e.dir.SlotName(slots.ComputeUnit, int(slot)),
			Kind:      c.kind,
			StartTime: startDev,
			EndTime:   ts,
			Start:     e.clock.Convert(mon, startDev),
			End:       e.clock.Convert(mon, ts),
		}
		if ev.End < ev.Start {
			continue
		}
		// Kernel intervals go to the front so layered viewers draw
		// them underneath their stalls and transfers.
		if c.kind == types.KindKernel {
			e.timeline.PushFront(ev)
		} else {
			e.timeline.PushBack(ev)
		}
	}
	e.kernel.MarkActivity(slot, ts)
}

func (e *Engine) hardwareMemRecord(mon types.MonitorType, slot uint32, rec types.RawTraceRecord, ts uint64) {
	kind := types.KindRead
	if types.IsWriteID(rec.TraceID) {
		kind = types.KindWrite
	}
	switch rec.EventType {
	case types.EVENT_TYPE_START:
		e.mem.Start(kind, slot, ts, 0)
	case types.EVENT_TYPE_END:
		start, ok := e.mem.End(kind, slot, ts, 0, rec.Reserved == 1)
		if !ok {
			return
		}
		e.emitMemory(kind, slot, start.deviceTime, ts,
			e.clock.Convert(mon, start.deviceTime), e.clock.Convert(mon, ts))
		e.mem.MarkActivity(slot, ts)
	}
}

func (e *Engine) logEmulation(mon types.MonitorType, batch []types.RawTraceRecord) {
	prevHost := uint64(0xFFFFFFFF)
	for _, rec := range batch {
		ts := e.clock.Accumulate(mon, rec.Timestamp, rec.Overflow == 1, e.emuWrapAddend)

		// Clock-sync samples repeat the host timestamp with a device
		// delta of one; they carry no transaction.
		if rec.HostTimestamp == prevHost && rec.Timestamp == 1 {
			e.log.Debug("ignoring duplicate host timestamp",
				zap.Uint64("host_timestamp", rec.HostTimestamp))
			continue
		}
		hostNs := e.clock.HostTimestampNsec(rec.HostTimestamp)
		prevHost = rec.HostTimestamp

		switch {
		case rec.TraceID < types.TRACE_ID_MEM_MAX:
			e.emulationMemRecord(rec.TraceID/2, rec.EventFlags, ts, hostNs)
		case rec.TraceID >= types.TRACE_ID_CU_MIN && rec.TraceID <= types.TRACE_ID_CU_MAX:
			e.emulationCURecord(rec.TraceID-types.TRACE_ID_CU_MIN, rec.EventFlags, ts, hostNs)
		default:
			// Unsupported trace ID.
		}
	}
}

func (e *Engine) emulationMemRecord(slot uint32, flags uint8, ts, hostNs uint64) {
	if getBit(flags, types.FLAG_WRITE_FIRST) {
		e.mem.Start(types.KindWrite, slot, ts, hostNs)
	}
	if getBit(flags, types.FLAG_WRITE_LAST) {
		if start, ok := e.mem.End(types.KindWrite, slot, ts, hostNs, false); ok {
			e.emitMemory(types.KindWrite, slot, start.deviceTime, ts,
				float64(start.hostNsec)/1e6, float64(hostNs)/1e6)
		}
	}
	if getBit(flags, types.FLAG_READ_FIRST) {
		e.mem.Start(types.KindRead, slot, ts, hostNs)
	}
	if getBit(flags, types.FLAG_READ_LAST) {
		if start, ok := e.mem.End(types.KindRead, slot, ts, hostNs, false); ok {
			e.emitMemory(types.KindRead, slot, start.deviceTime, ts,
				float64(start.hostNsec)/1e6, float64(hostNs)/1e6)
		}
	}
}

func (e *Engine) emulationCURecord(slot uint32, flags uint8, ts, hostNs uint64) {
	if flags&types.TRACE_CU_MASK == 0 {
		return
	}
	startDev, startHostNs, completed := e.kernel.Toggle(slot, catKernel, ts, hostNs)
	if !completed {
		return
	}
	startMs := float64(startHostNs) / 1e6
	endMs := float64(hostNs) / 1e6
	if endMs < startMs {
		return
	}
	e.timeline.PushFront(types.TraceEvent{
		SlotNum:   slot,
		Name:      e.dir.SlotName(slots.ComputeUnit, int(slot)),
		Kind:      types.KindKernel,
		StartTime: startDev,
		EndTime:   ts,
		Start:     startMs,
		End:       endMs,
	})
	if ts > startDev {
		// Half a cycle, so padded zero-duration transactions stay
		// inside real intervals.
		e.emuCycleMs = (endMs - startMs) / (2 * float64(ts-startDev))
	}
}

// emitMemory finishes a matched transaction: pads zero-duration host
// intervals with the adaptive epsilon, discards inverted ones, and
// appends the event at the back of the timeline.
func (e *Engine) emitMemory(kind types.EventKind, slot uint32, startDev, endDev uint64, startMs, endMs float64) {
	if startMs == endMs {
		endMs += e.emuCycleMs
	}
	if endMs < startMs {
		e.log.Debug("discarding inverted transaction",
			zap.Stringer("kind", kind),
			zap.Uint32("slot", slot))
		return
	}
	e.timeline.PushBack(types.TraceEvent{
		SlotNum:     slot,
		Name:        e.dir.SlotName(slots.Memory, int(slot)),
		Kind:        kind,
		StartTime:   startDev,
		EndTime:     endDev,
		Start:       startMs,
		End:         endMs,
		BurstLength: endDev - startDev + 1,
	})
}

// approximateIncompleteCU synthesizes an end for every compute unit
// whose kernel interval is still open after the batch, using the
// latest transaction evidence from the unit itself and from memory
// slots belonging to it (matched by name prefix up to the first '/').
// With no evidence at all, nothing is emitted. The started state is
// cleared by the caller, so running the pass again emits nothing.
func (e *Engine) approximateIncompleteCU(mon types.MonitorType) {
	numCU := e.dir.NumSlots(slots.ComputeUnit)
	numMem := e.dir.NumSlots(slots.Memory)
	for i := 0; i < numCU; i++ {
		if !e.kernel.Started(i, catKernel) {
			continue
		}
		cuName := e.dir.SlotName(slots.ComputeUnit, i)
		var last uint64
		for j := 0; j < numMem; j++ {
			port := e.dir.SlotName(slots.Memory, j)
			prefix, _, _ := strings.Cut(port, "/")
			if prefix == cuName && e.mem.LastActivity(j) > last {
				last = e.mem.LastActivity(j)
			}
		}
		if e.kernel.LastActivity(i) > last {
			last = e.kernel.LastActivity(i)
		}
		if last == 0 {
			continue
		}
		e.log.Warn("incomplete compute-unit trace detected, timeline will have approximate kernel end",
			zap.String("compute_unit", cuName))
		startDev := e.kernel.StartDevice(i, catKernel)
		e.timeline.PushFront(types.TraceEvent{
			SlotNum:     uint32(i),
			Name:        cuName,
			Kind:        types.KindKernel,
			StartTime:   startDev,
			EndTime:     last,
			Start:       e.clock.Convert(mon, startDev),
			End:         e.clock.Convert(mon, last),
			Approximate: true,
		})
	}
}

func getBit(v uint8, bit int) bool {
	return (v>>bit)&0x1 == 1
}
