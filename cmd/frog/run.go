package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"frog/internal/config"
	"frog/internal/loader"
	"frog/internal/modcache"
	"frog/internal/trace"
	"frog/internal/vm"
)

var runCmd = &cobra.Command{
	Use:   "run <module.frogc>",
	Short: "Execute a bytecode module",
	Args:  cobra.ExactArgs(1),
	RunE:  runExecution,
}

func init() {
	runCmd.Flags().Bool("trace", false, "enable instruction tracing")
	runCmd.Flags().Bool("jit-log", false, "log tier-up events")
	runCmd.Flags().Bool("gc-log", false, "log collector events")
	runCmd.Flags().Int("heap-initial-threshold", 0, "initial heap growth threshold in bytes (0 = engine default)")
	runCmd.Flags().Uint32("tier-up-threshold", 0, "invocation count before tier-up (0 = engine default)")
	runCmd.Flags().String("mod-cache-dir", "", "directory for the validation-skip cache (empty disables it)")
	runCmd.Flags().Bool("stack-trace", false, "print the active call stack on failure")
}

func runExecution(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		trace.Diagnostic(os.Stderr, err)
		os.Exit(1)
	}

	opts, err := resolveOptions(cmd, &cfg)
	if err != nil {
		trace.Diagnostic(os.Stderr, err)
		os.Exit(1)
	}

	var store *modcache.Store
	if cfg.ModCacheDir != "" {
		store, _ = modcache.Open(cfg.ModCacheDir)
	}

	mod, err := loader.LoadFile(args[0], store)
	if err != nil {
		trace.Diagnostic(os.Stderr, err)
		os.Exit(1)
	}

	interp := vm.New(mod, opts)
	if _, err := interp.Run(); err != nil {
		if stackTrace, _ := cmd.Flags().GetBool("stack-trace"); stackTrace {
			fmt.Fprint(os.Stderr, interp.CallStack().String())
		}
		trace.Diagnostic(os.Stderr, err)
		os.Exit(1)
	}

	return nil
}

// loadConfig reads frog.toml from --config, falling back to ./frog.toml
// when --config was not given. Either path is optional: a missing file
// yields a zero Config, never an error.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, err
	}
	if path == "" {
		path = "frog.toml"
	}
	return config.LoadOptional(path)
}

// resolveOptions builds vm.Options from cfg, then lets any explicitly
// set CLI flag override the corresponding config value.
func resolveOptions(cmd *cobra.Command, cfg *config.Config) (vm.Options, error) {
	opts := vm.Options{
		Trace:                cfg.Trace,
		JitLog:               cfg.JitLog,
		GCLog:                cfg.GCLog,
		HeapInitialThreshold: cfg.HeapInitialThreshold,
		TierUpThreshold:      cfg.TierUpThreshold,
	}

	flags := cmd.Flags()
	if flags.Changed("trace") {
		opts.Trace, _ = flags.GetBool("trace")
	}
	if flags.Changed("jit-log") {
		opts.JitLog, _ = flags.GetBool("jit-log")
	}
	if flags.Changed("gc-log") {
		opts.GCLog, _ = flags.GetBool("gc-log")
	}
	if flags.Changed("heap-initial-threshold") {
		v, err := flags.GetInt("heap-initial-threshold")
		if err != nil {
			return opts, fmt.Errorf("heap-initial-threshold: %w", err)
		}
		opts.HeapInitialThreshold = v
	}
	if flags.Changed("tier-up-threshold") {
		v, err := flags.GetUint32("tier-up-threshold")
		if err != nil {
			return opts, fmt.Errorf("tier-up-threshold: %w", err)
		}
		opts.TierUpThreshold = v
	}
	if flags.Changed("mod-cache-dir") {
		dir, err := flags.GetString("mod-cache-dir")
		if err != nil {
			return opts, fmt.Errorf("mod-cache-dir: %w", err)
		}
		cfg.ModCacheDir = dir
	}

	return opts, nil
}
