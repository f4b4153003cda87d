// Package cmd provides the CLI commands for wikimg.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/wikimg/internal/errors"
	"github.com/Aman-CERP/wikimg/internal/logging"
	"github.com/Aman-CERP/wikimg/internal/profiling"
	"github.com/Aman-CERP/wikimg/pkg/version"
)

// Profiling flags
var (
	profileCPU   string
	profileMem   string
	profileTrace string
	profiler     *profiling.Session
)

// Logging and storage flags shared by every command
var (
	debugMode      bool
	kvsFlag        string
	dataDirFlag    string
	loggingCleanup func()
)

// NewRootCmd creates the root command for the wikimg CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wikimg",
		Short: "Keyword search over DBpedia images",
		Long: `wikimg builds a two-level inverted index from the DBpedia images and
labels dumps and answers keyword queries with image URLs.

  wikimg build                 index data/images_en.nt and data/labels_en.nt
  wikimg query rock band       print the images of every matching category

The index lives in memory, in SQLite files under --data-dir, or in DynamoDB
tables, selected with --kvs.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("wikimg version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&profileCPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileMem, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&profileTrace, "profile-trace", "", "Write execution trace to file")

	cmd.PersistentFlags().BoolVarP(&debugMode, "debug", "d", false, "Enable debug logging to ~/.wikimg/logs/")
	cmd.PersistentFlags().StringVar(&kvsFlag, "kvs", "", "Store backend: memory (mem), disk or cloud")
	cmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "Directory holding the disk index")

	cmd.PersistentPreRunE = startProfilingAndLogging
	cmd.PersistentPostRunE = stopProfilingAndLogging

	cmd.AddCommand(newBuildCmd())
	cmd.AddCommand(newQueryCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startProfilingAndLogging installs the CLI logger and starts any requested profiles.
func startProfilingAndLogging(cmd *cobra.Command, _ []string) error {
	// A broken config is reported by the command itself; logging falls back to defaults.
	level := ""
	if cfg, err := loadConfig(cmd); err == nil {
		level = cfg.Logging.Level
	}

	cleanup, err := logging.SetupCLI(debugMode, level)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	loggingCleanup = cleanup
	if debugMode {
		slog.Info("debug_logging_enabled",
			slog.String("log_file", logging.DefaultLogPath()),
			slog.String("version", version.Version))
	}

	profiler, err = profiling.Start(profiling.Options{
		CPUPath:   profileCPU,
		HeapPath:  profileMem,
		TracePath: profileTrace,
	})
	if err != nil {
		return err
	}

	return nil
}

// stopProfilingAndLogging stops profiling, writes the heap profile and closes the log file.
func stopProfilingAndLogging(_ *cobra.Command, _ []string) error {
	var err error
	if profiler != nil {
		err = profiler.Stop()
		profiler = nil
	}

	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}

	return err
}

// Execute runs the root command and prints any error to stderr.
func Execute() error {
	err := NewRootCmd().Execute()
	if err != nil {
		// Post-run hooks are skipped when a command fails.
		_ = stopProfilingAndLogging(nil, nil)
		_, _ = fmt.Fprint(os.Stderr, errors.FormatForCLI(err))
	}
	return err
}
