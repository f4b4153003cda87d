package cmd

import (
	"fmt"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/wikimg/internal/logging"
)

func newLogsCmd() *cobra.Command {
	var (
		lines   int
		level   string
		filter  string
		logFile string
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the debug log",
		Long: `Show the last entries of the debug log written by commands run with --debug
(~/.wikimg/logs/wikimg.log).

Examples:
  wikimg logs                     # Show last 50 entries
  wikimg logs -n 200 --level warn # Last 200 warnings and errors
  wikimg logs --filter malformed  # Entries matching a pattern`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := logging.FindLogFile(logFile)
			if err != nil {
				return err
			}

			var pattern *regexp.Regexp
			if filter != "" {
				pattern, err = regexp.Compile(filter)
				if err != nil {
					return fmt.Errorf("invalid filter pattern: %w", err)
				}
			}

			viewer := logging.NewViewer(logging.ViewerConfig{
				Level:   level,
				Pattern: pattern,
			}, cmd.OutOrStdout())

			entries, err := viewer.Tail(path, lines)
			if err != nil {
				return err
			}
			viewer.Print(entries)
			return nil
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of entries to show")
	cmd.Flags().StringVar(&level, "level", "", "Minimum log level (debug|info|warn|error)")
	cmd.Flags().StringVar(&filter, "filter", "", "Only show entries matching this pattern (regex)")
	cmd.Flags().StringVar(&logFile, "file", "", "Path to log file")

	return cmd
}
