// cmd/habitctl/main.go

// Command habitctl runs the habit spreadsheet ETL from a terminal. It prints a
// data-quality check of the tidy records or a KPI summary, and can write the
// records as CSV.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	cfgFile string
	verbose bool
	timeout time.Duration

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "habitctl",
	Short: "Habit spreadsheet ETL and KPI summary",
	Long: `habitctl reads the monthly habit worksheets, reshapes them into tidy
records (one row per date and habit) and reports on them.

The source is either a Google spreadsheet (service-account credentials) or a
directory of CSV exports named <sheet>.csv.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "habitctl.yaml", "Path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Fetch timeout")

	etlCmd.Flags().IntVar(&headRows, "head", 5, "Number of records to preview")
	etlCmd.Flags().StringVar(&csvOut, "csv", "", "Write the tidy records to this CSV file")

	summaryCmd.Flags().StringVar(&filterStart, "start", "", "First date to include (YYYY-MM-DD)")
	summaryCmd.Flags().StringVar(&filterEnd, "end", "", "Last date to include (YYYY-MM-DD)")
	summaryCmd.Flags().StringArrayVar(&filterTypes, "type", nil, "Habit category to include (repeatable)")
	summaryCmd.Flags().StringArrayVar(&filterHabits, "habit", nil, "Habit to include (repeatable)")

	rootCmd.AddCommand(etlCmd)
	rootCmd.AddCommand(summaryCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
