// Command schedimport reconciles shipment-schedule spreadsheets from the
// command line. "check" runs the reconciler offline against a catalog file;
// "load" imports a file into the database the server uses.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/JonMunkholm/shipsched/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "schedimport",
		Short: "Reconcile shipment-schedule spreadsheets against the product catalog",
		Long: `schedimport reads CSV and XLSX shipment schedules, locates the header row,
binds columns through the field synonym table and resolves product names
against the catalog.

Example Usage:
  schedimport check schedule.xlsx --catalog products.csv
  schedimport check legacy.csv --catalog products.csv --json
  schedimport load schedule.xlsx`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), opts.logLevel, opts.logFormat))
		},
	}

	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "log format (text, json)")

	root.AddCommand(newCheckCmd(), newLoadCmd(), newVersionCmd())
	return root
}

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
