package decode

import (
	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/tensility357/XRT/pkg/types"
)

// Clocks supplies the two external time sources the converter needs:
// a monotonic host clock in nanoseconds and a device "time now"
// oracle. HostNow is read at most once per monitor type per converter
// lifetime, when the program-start anchor is captured.
type Clocks struct {
	HostNow   func() uint64
	DeviceNow func() uint64
}

// DefaultClocks reads CLOCK_MONOTONIC for the host side. The device
// oracle defaults to zero; callers with a live device inject their
// own.
func DefaultClocks() Clocks {
	return Clocks{
		HostNow: func() uint64 {
			var ts unix.Timespec
			if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
				return 0
			}
			return uint64(ts.Nano())
		},
		DeviceNow: func() uint64 { return 0 },
	}
}

// clockModel is the affine device-cycle to host-nanosecond map for one
// monitor type. Since device timestamps are in cycles and host
// timestamps in nanoseconds, slope is ns per cycle.
type clockModel struct {
	slope        float64
	offset       float64
	programStart float64
	anchored     bool
	prevDevice   uint64 // cumulative device timestamp (emulation)
}

// clockConverter holds per-monitor-type calibration plus the shared
// emulation host-timestamp epoch.
type clockConverter struct {
	models [types.NumMonitorTypes]clockModel
	clocks Clocks
	log    *zap.Logger

	emuEpochSet bool
	emuEpoch    uint64
}

func newClockConverter(traceClockRateMHz float64, clocks Clocks, log *zap.Logger) *clockConverter {
	c := &clockConverter{clocks: clocks, log: log}
	for i := range c.models {
		// Default line before training: ns per trace-clock cycle,
		// zero offset.
		c.models[i].slope = 1000.0 / traceClockRateMHz
	}
	return c
}

// Train fits the affine model for one monitor type from a calibration
// pair, then anchors the model to the decoding session on first use.
// A zero cycle delta between the two points cannot produce a line; the
// previous model is kept and the condition reported.
func (c *clockConverter) Train(mon types.MonitorType, x1, y1, x2, y2 float64) {
	m := &c.models[mon]
	if x2 == x1 {
		c.log.Warn("degenerate clock calibration pair, keeping previous model",
			zap.Float64("cycle", x1),
			zap.Int("monitor", int(mon)))
		return
	}
	m.slope = (y2 - y1) / (x2 - x1)
	m.offset = y2 - m.slope*x2
	if !m.anchored {
		host := c.clocks.HostNow()
		device := c.clocks.DeviceNow()
		m.programStart = float64(host) - float64(device)
		m.anchored = true
	}
}

// Convert maps a device timestamp to host milliseconds relative to the
// decoding session.
func (c *clockConverter) Convert(mon types.MonitorType, deviceTimestamp uint64) float64 {
	m := &c.models[mon]
	return (m.slope*float64(deviceTimestamp))/1e6 + (m.offset-m.programStart)/1e6
}

// Accumulate folds an emulation delta timestamp into the running
// device time for a monitor type, compensating counter wrap.
func (c *clockConverter) Accumulate(mon types.MonitorType, delta uint64, overflow bool, wrapAddend uint64) uint64 {
	m := &c.models[mon]
	ts := delta + m.prevDevice
	if overflow {
		ts += wrapAddend
	}
	m.prevDevice = ts
	return ts
}

// HostTimestampNsec rebases an emulation host timestamp onto the epoch
// of the first timestamp seen, so every record in a session shares one
// origin. The batch pre-pass feeds the minimum first.
func (c *clockConverter) HostTimestampNsec(ts uint64) uint64 {
	if !c.emuEpochSet {
		c.emuEpoch = ts
		c.emuEpochSet = true
	}
	return ts - c.emuEpoch
}
