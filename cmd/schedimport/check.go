package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/JonMunkholm/shipsched/internal/core"
	"github.com/JonMunkholm/shipsched/internal/importer"
	"github.com/JonMunkholm/shipsched/internal/logging"
	"github.com/JonMunkholm/shipsched/internal/schedule"
	"github.com/JonMunkholm/shipsched/internal/tabular"
	"github.com/spf13/cobra"
)

type checkOptions struct {
	catalog    string
	jsonOut    bool
	sheet      string
	encoding   string
	fieldTable string
	headerRows int
}

func newCheckCmd() *cobra.Command {
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check FILE",
		Short: "Reconcile a schedule file offline and report records and diagnostics",
		Long: `check reads FILE, locates its header row, binds columns and resolves
product names against the catalog file given with --catalog. Nothing is
written to the database.

The command fails when no header row is found. Row-level diagnostics are
reported but do not fail the command.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.catalog, "catalog", "", "product catalog (CSV or XLSX with id, name, code columns)")
	f.BoolVar(&opts.jsonOut, "json", false, "print the result as JSON")
	f.StringVar(&opts.sheet, "sheet", "", "workbook sheet to read (default: first sheet)")
	f.StringVar(&opts.encoding, "encoding", tabular.DefaultLegacyEncoding, "fallback encoding for non-UTF-8 CSV files")
	f.StringVar(&opts.fieldTable, "fields", "", "YAML field table replacing the built-in synonyms")
	f.IntVar(&opts.headerRows, "header-rows", 0, "rows scanned for the header (default from the field table)")
	_ = cmd.MarkFlagRequired("catalog")

	return cmd
}

func runCheck(ctx context.Context, out io.Writer, path string, opts *checkOptions) error {
	products, err := loadCatalog(opts.catalog)
	if err != nil {
		return err
	}

	imOpts := importer.Options{HeaderSearchRows: opts.headerRows}
	if opts.fieldTable != "" {
		ft, err := importer.LoadFieldTable(opts.fieldTable)
		if err != nil {
			return err
		}
		imOpts.Fields = ft
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read schedule: %w", err)
	}
	name := filepath.Base(path)

	table, err := tabular.Read(name, data, tabular.Options{LegacyEncoding: opts.encoding, Sheet: opts.sheet})
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	res := importer.New(imOpts).Import(table, importer.NewNameIndex(products))
	preview := core.NewPreview(name, table.Encoding, res)

	logging.FromContext(ctx).Debug("checked file",
		"file", name,
		"catalog_products", len(products),
		"records", len(preview.Records),
		"diagnostics", len(preview.Diagnostics),
	)

	if opts.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(preview); err != nil {
			return err
		}
	} else {
		printPreview(out, preview)
	}
	return res.Err()
}

func printPreview(out io.Writer, p *core.Preview) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	fmt.Fprintf(w, "File:\t%s\n", p.FileName)
	if p.Encoding != "" {
		fmt.Fprintf(w, "Encoding:\t%s\n", p.Encoding)
	}
	fmt.Fprintf(w, "Header row:\t%d\n", p.HeaderRow)
	fmt.Fprintf(w, "Data rows:\t%d (%d blank)\n", p.DataRows, p.Skipped)
	fmt.Fprintf(w, "Records:\t%d\n", len(p.Records))
	fmt.Fprintf(w, "Diagnostics:\t%d\n", len(p.Diagnostics))
	if p.Error != "" {
		fmt.Fprintf(w, "Error:\t%s\n", p.Error)
	}

	if len(p.Columns) > 0 {
		fmt.Fprintln(w, "\nColumns:")
		for _, f := range slices.Sorted(maps.Keys(p.Columns)) {
			fmt.Fprintf(w, "  %s\t%s\n", f, p.Columns[f])
		}
	}
	if len(p.Unbound) > 0 {
		fmt.Fprintf(w, "Unbound columns:\t%s\n", strings.Join(p.Unbound, ", "))
	}

	if len(p.Records) > 0 {
		fmt.Fprintln(w, "\nROW\tCK CODE\tPRODUCT\tQUANTITY\tETA\tSTATUS")
		for _, s := range p.Records {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
				s.SourceRow, s.CKCode, s.Product.Name,
				strconv.FormatFloat(s.Quantity, 'f', -1, 64),
				formatDate(s), s.Status)
		}
	}
	w.Flush()

	if len(p.Diagnostics) > 0 {
		fmt.Fprintln(out, "\nDiagnostics:")
		for _, d := range p.Diagnostics {
			fmt.Fprintf(out, "  [%s] %s\n", d.Kind, d)
		}
	}
}

func formatDate(s *schedule.Schedule) string {
	if s.ETA == nil {
		return "-"
	}
	return s.ETA.Format("2006-01-02")
}
