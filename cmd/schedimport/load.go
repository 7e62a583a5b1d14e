package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/JonMunkholm/shipsched/internal/config"
	"github.com/JonMunkholm/shipsched/internal/core"
	"github.com/JonMunkholm/shipsched/internal/logging"
	"github.com/JonMunkholm/shipsched/internal/store"
	"github.com/spf13/cobra"
)

type loadOptions struct {
	configFile string
	progress   bool
}

func newLoadCmd() *cobra.Command {
	opts := &loadOptions{}

	cmd := &cobra.Command{
		Use:   "load FILE",
		Short: "Import a schedule file into the database",
		Long: `load imports FILE the same way POST /api/import does. Database and import
settings come from the environment (DATABASE_URL, IMPORT_*, UPLOAD_*), read
from .env when present, layered over the YAML file given with --config or
CONFIG_FILE.

Interrupting the command cancels the import; records already inserted are
kept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.configFile, "config", os.Getenv("CONFIG_FILE"), "YAML configuration file")
	cmd.Flags().BoolVar(&opts.progress, "progress", true, "report progress on stderr")
	return cmd
}

func runLoad(ctx context.Context, out, errOut io.Writer, path string, opts *loadOptions) error {
	cfg, err := config.LoadFile(opts.configFile)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read schedule: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	st := store.New(pool)
	if cfg.Database.AutoMigrate {
		if err := st.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	service, err := core.NewService(core.Deps{Schedules: st, Catalog: st}, cfg)
	if err != nil {
		return err
	}

	uploadID, err := service.StartUpload(ctx, filepath.Base(path), data)
	if err != nil {
		return userError(err)
	}
	log := logging.WithFields(ctx, "upload_id", uploadID)

	reported := make(chan struct{})
	var updates <-chan core.UploadProgress
	if opts.progress {
		updates, _ = service.SubscribeProgress(uploadID)
	}
	if updates != nil {
		go func() {
			defer close(reported)
			reportProgress(errOut, updates)
		}()
	} else {
		close(reported)
	}

	result, err := service.GetUploadResult(ctx, uploadID)
	if err != nil {
		// Interrupted: stop the import and wait for it to settle.
		log.Warn("cancelling upload", "error", err)
		_ = service.CancelUpload(uploadID)
		result, err = service.GetUploadResult(context.Background(), uploadID)
		if err != nil {
			return err
		}
	}

	<-reported
	printResult(out, result)
	if result.Error != "" {
		return errors.New(result.Error)
	}
	return nil
}

// userError replaces errors with a known code by their formatted message and
// passes the rest through unchanged.
func userError(err error) error {
	if core.IsUserFacing(err) {
		return errors.New(core.FormatUserError(err))
	}
	return err
}

func reportProgress(w io.Writer, updates <-chan core.UploadProgress) {
	last := -1
	for p := range updates {
		if pct := p.Percent(); pct != last {
			last = pct
			fmt.Fprintf(w, "\r%-10s %3d%% (%d/%d rows)", p.Phase, pct, p.CurrentRow, p.TotalRows)
		}
	}
	fmt.Fprintln(w)
}

func printResult(out io.Writer, r *core.UploadResult) {
	fmt.Fprintf(out, "Upload:      %s\n", r.UploadID)
	fmt.Fprintf(out, "File:        %s\n", r.FileName)
	fmt.Fprintf(out, "Records:     %d\n", r.Records)
	fmt.Fprintf(out, "Inserted:    %d\n", r.Inserted)
	fmt.Fprintf(out, "Failed:      %d\n", len(r.FailedRows))
	fmt.Fprintf(out, "Diagnostics: %d\n", len(r.Diagnostics))
	fmt.Fprintf(out, "Duration:    %s\n", r.Duration)

	for _, d := range r.Diagnostics {
		fmt.Fprintf(out, "  [%s] %s\n", d.Kind, d)
	}
	for _, f := range r.FailedRows {
		fmt.Fprintf(out, "  [insert_error] row %d: %s\n", f.LineNumber, f.Reason)
	}
}
