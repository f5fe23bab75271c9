package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/tensility357/XRT/pkg/types"
)

// Defaults mirror the trace subsystem's hardware parameters.
const (
	DefaultMaxTraceEvents     = 0x40000
	DefaultTransportDelayNs   = 1000.0
	DefaultTraceClockRateMHz  = 300.0
	DefaultDeviceClockRateMHz = 300.0
	DefaultMemoryBitWidth     = 32
	DefaultBatchSize          = 512

	// Wrap compensation added to a device timestamp when the overflow
	// flag is set: the emulation counter is a cumulative 32-bit value,
	// the hardware trace counter wraps at 17 bits.
	DefaultEmuWrapAddend = uint64(1) << 32
	DefaultHwWrapAddend  = uint64(1) << 17
)

// Config carries every tunable of the decoder. The engine takes it at
// construction; nothing is read from the environment behind its back.
type Config struct {
	Mode               types.DecodeMode
	MaxTraceEvents     uint64
	TransportDelayNs   float64
	TraceClockRateMHz  float64
	DeviceClockRateMHz float64
	MemoryBitWidth     uint32
	EmuWrapAddend      uint64
	HwWrapAddend       uint64

	// UnmatchedEndPolicy picks the empty-queue behavior for memory end
	// events. PolicyModeDefault defers to the decode mode.
	UnmatchedEndPolicy types.UnmatchedEndPolicy

	// LegacySlotNaming swaps the first two memory slot names for old
	// platform wirings.
	LegacySlotNaming bool

	MemorySlotNames  []string
	ComputeSlotNames []string

	// CLI surface.
	InputPath   string
	OutputPath  string
	Format      string
	BatchSize   int
	SortByStart bool
}

// DefaultConfig returns a hardware-mode configuration with the stock
// clock rates and capacities.
func DefaultConfig() *Config {
	return &Config{
		Mode:               types.ModeHardware,
		MaxTraceEvents:     DefaultMaxTraceEvents,
		TransportDelayNs:   DefaultTransportDelayNs,
		TraceClockRateMHz:  DefaultTraceClockRateMHz,
		DeviceClockRateMHz: DefaultDeviceClockRateMHz,
		MemoryBitWidth:     DefaultMemoryBitWidth,
		EmuWrapAddend:      DefaultEmuWrapAddend,
		HwWrapAddend:       DefaultHwWrapAddend,
		UnmatchedEndPolicy: types.PolicyModeDefault,
		Format:             "json",
		BatchSize:          DefaultBatchSize,
	}
}

// ResolvePolicy returns the effective unmatched-end policy for the
// configured mode.
func (c *Config) ResolvePolicy() types.UnmatchedEndPolicy {
	if c.UnmatchedEndPolicy != types.PolicyModeDefault {
		return c.UnmatchedEndPolicy
	}
	if c.Mode == types.ModeEmulation {
		return types.PolicyDrop
	}
	return types.PolicySynthesizePoint
}

// LoadConfig reads the CLI configuration from flags, environment
// (XRT_* prefix) and an optional config file already bound into viper.
func LoadConfig(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()

	v.SetEnvPrefix("XRT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	switch mode := v.GetString("mode"); mode {
	case "", "hardware":
		cfg.Mode = types.ModeHardware
	case "emulation":
		cfg.Mode = types.ModeEmulation
	default:
		return nil, fmt.Errorf("unknown decode mode %q", mode)
	}

	switch policy := v.GetString("unmatched-end"); policy {
	case "", "default":
		cfg.UnmatchedEndPolicy = types.PolicyModeDefault
	case "drop":
		cfg.UnmatchedEndPolicy = types.PolicyDrop
	case "synthesize":
		cfg.UnmatchedEndPolicy = types.PolicySynthesizePoint
	default:
		return nil, fmt.Errorf("unknown unmatched-end policy %q", policy)
	}

	if n := v.GetUint64("max-trace-events"); n != 0 {
		cfg.MaxTraceEvents = n
	}
	if n := v.GetInt("batch-size"); n != 0 {
		cfg.BatchSize = n
	}
	if rate := v.GetFloat64("trace-clock-mhz"); rate != 0 {
		cfg.TraceClockRateMHz = rate
	}
	cfg.LegacySlotNaming = v.GetBool("legacy-slot-naming")
	cfg.SortByStart = v.GetBool("sort")
	cfg.InputPath = v.GetString("input")
	cfg.OutputPath = v.GetString("output")
	if f := v.GetString("format"); f != "" {
		cfg.Format = f
	}
	cfg.MemorySlotNames = v.GetStringSlice("memory-slots")
	cfg.ComputeSlotNames = v.GetStringSlice("compute-slots")

	return cfg, nil
}
