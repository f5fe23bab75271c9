package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/tensility357/XRT/internal/config"
	"github.com/tensility357/XRT/internal/decode"
	"github.com/tensility357/XRT/internal/export"
	"github.com/tensility357/XRT/internal/loaders"
	"github.com/tensility357/XRT/internal/slots"
	"github.com/tensility357/XRT/pkg/logutil"
	"github.com/tensility357/XRT/pkg/types"
)

const version = "1.0.0"

func main() {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:     "xrtdecode",
		Short:   "Decode device trace captures into a host timeline",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(cmd, v)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Path to configuration file")
	flags.String("input", "", "Trace capture file to decode")
	flags.String("output", "", "Timeline output file (default stdout)")
	flags.String("format", "json", "Timeline format: json or csv")
	flags.String("mode", "hardware", "Decode mode: hardware or emulation")
	flags.String("unmatched-end", "default", "Empty-queue end policy: default, drop or synthesize")
	flags.Uint64("max-trace-events", config.DefaultMaxTraceEvents, "Per-device trace event cap")
	flags.Int("batch-size", config.DefaultBatchSize, "Samples per decode batch")
	flags.Float64("trace-clock-mhz", config.DefaultTraceClockRateMHz, "Trace clock rate in MHz")
	flags.Bool("legacy-slot-naming", false, "Swap the first two memory slot names (legacy platforms)")
	flags.Bool("sort", false, "Sort the timeline by host start time")
	flags.StringSlice("memory-slots", nil, "Memory slot names, in slot order")
	flags.StringSlice("compute-slots", nil, "Compute-unit slot names, in slot order")

	if err := v.BindPFlags(flags); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runDecode(cmd *cobra.Command, v *viper.Viper) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	logutil.InitLogger()
	logger := logutil.GetLogger()
	defer logger.Sync()

	go func() {
		sigch := make(chan os.Signal, 1)
		signal.Notify(sigch, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigch
		logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	cfg, err := config.LoadConfig(v)
	if err != nil {
		return err
	}

	dir := slots.NewStaticDirectory(cfg.MemorySlotNames, cfg.ComputeSlotNames, cfg.LegacySlotNaming)
	engine := decode.NewEngine(cfg, dir, decode.DefaultClocks(), logger)

	loader, err := loaders.NewTraceLoader(cfg)
	if err != nil {
		return err
	}
	logger.Info("Loader created successfully", zap.String("input", cfg.InputPath))
	defer func() {
		if err := loaders.CloseAll(loader); err != nil {
			logger.Error("Error closing loader", zap.Error(err))
		}
	}()

	for batch := range loader.Run(ctx) {
		engine.LogTrace(types.MonitorMemory, batch)
	}

	events := engine.Timeline().Events()
	if cfg.SortByStart {
		events = engine.Timeline().Sorted()
	}
	logger.Info("Decoded timeline",
		zap.Int("events", len(events)),
		zap.Uint64("samples", engine.NumEvents()))

	out := os.Stdout
	if cfg.OutputPath != "" {
		f, err := os.Create(cfg.OutputPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	writer, err := export.NewWriter(cfg.Format, out)
	if err != nil {
		return err
	}
	return writer.Write(events)
}
