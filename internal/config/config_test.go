package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tensility357/XRT/pkg/types"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, types.ModeHardware, cfg.Mode)
	assert.Equal(t, uint64(0x40000), cfg.MaxTraceEvents)
	assert.Equal(t, 1000.0, cfg.TransportDelayNs)
	assert.Equal(t, 300.0, cfg.TraceClockRateMHz)
	assert.Equal(t, uint64(1)<<32, cfg.EmuWrapAddend)
	assert.Equal(t, uint64(1)<<17, cfg.HwWrapAddend)
}

func TestResolvePolicy(t *testing.T) {
	tests := []struct {
		name   string
		mode   types.DecodeMode
		policy types.UnmatchedEndPolicy
		want   types.UnmatchedEndPolicy
	}{
		{"hardware default", types.ModeHardware, types.PolicyModeDefault, types.PolicySynthesizePoint},
		{"emulation default", types.ModeEmulation, types.PolicyModeDefault, types.PolicyDrop},
		{"hardware forced drop", types.ModeHardware, types.PolicyDrop, types.PolicyDrop},
		{"emulation forced synthesize", types.ModeEmulation, types.PolicySynthesizePoint, types.PolicySynthesizePoint},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Mode = tt.mode
			cfg.UnmatchedEndPolicy = tt.policy
			assert.Equal(t, tt.want, cfg.ResolvePolicy())
		})
	}
}

func TestLoadConfig(t *testing.T) {
	v := viper.New()
	v.Set("mode", "emulation")
	v.Set("unmatched-end", "synthesize")
	v.Set("input", "trace.bin")
	v.Set("format", "csv")
	v.Set("legacy-slot-naming", true)
	v.Set("memory-slots", []string{"cu0/port0", "cu0/port1"})

	cfg, err := LoadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, types.ModeEmulation, cfg.Mode)
	assert.Equal(t, types.PolicySynthesizePoint, cfg.UnmatchedEndPolicy)
	assert.Equal(t, "trace.bin", cfg.InputPath)
	assert.Equal(t, "csv", cfg.Format)
	assert.True(t, cfg.LegacySlotNaming)
	assert.Equal(t, []string{"cu0/port0", "cu0/port1"}, cfg.MemorySlotNames)
}

func TestLoadConfigRejectsUnknownMode(t *testing.T) {
	v := viper.New()
	v.Set("mode", "simulation")
	_, err := LoadConfig(v)
	assert.Error(t, err)
}

func TestLoadConfigRejectsUnknownPolicy(t *testing.T) {
	v := viper.New()
	v.Set("unmatched-end", "ignore")
	_, err := LoadConfig(v)
	assert.Error(t, err)
}
