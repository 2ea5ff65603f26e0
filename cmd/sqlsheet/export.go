package main

import (
	"context"
	"fmt"
	"os"

	"github.com/koustreak/sqlsheet/internal/database"
	"github.com/koustreak/sqlsheet/internal/errs"
	"github.com/koustreak/sqlsheet/internal/export"
	"github.com/koustreak/sqlsheet/internal/filestore"
	"github.com/koustreak/sqlsheet/internal/filestore/minio"
	"github.com/koustreak/sqlsheet/internal/querysource"
	"github.com/koustreak/sqlsheet/internal/schema"
	"github.com/spf13/cobra"
)

var exportFlags struct {
	query   string
	output  string
	sheet   string
	table   string
	columns []string
	orderBy []string
	limit   int
	workers int
	preview bool
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Run the query and write the first result to a workbook",
	Long: `Runs the configured query (or a whole table with --table) and writes
the first result to the output workbook: column names on the first row,
one worksheet row per result row.

Flags override the matching settings.`,
	RunE: runExport,
}

func init() {
	f := exportCmd.Flags()
	f.StringVarP(&exportFlags.query, "query", "q", "", "query file path or s3://bucket/key")
	f.StringVarP(&exportFlags.output, "output", "o", "", "output .xlsx path or s3://bucket/key")
	f.StringVar(&exportFlags.sheet, "sheet", "", "worksheet name")
	f.StringVar(&exportFlags.table, "table", "", "export a whole table instead of a query file")
	f.StringSliceVar(&exportFlags.columns, "columns", nil, "with --table, export only these columns")
	f.StringSliceVar(&exportFlags.orderBy, "order-by", nil, "with --table, sort by these columns (prefix - for descending)")
	f.IntVar(&exportFlags.limit, "limit", 0, "with --table, export at most this many rows")
	f.IntVar(&exportFlags.workers, "workers", 0, "rows decoded in parallel")
	f.BoolVar(&exportFlags.preview, "preview", false, "also print the grid as a table on stdout")
}

func runExport(cmd *cobra.Command, _ []string) error {
	applyExportFlags(cmd)
	if err := settings.Validate(); err != nil {
		return err
	}
	ctx := cmd.Context()

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	query, err := resolveQuery(ctx, db, store)
	if err != nil {
		return err
	}

	req := export.Request{
		Query:  query,
		Sheet:  settings.Sheet,
		Output: settings.Output,
	}
	if exportFlags.preview {
		req.Preview = cmd.OutOrStdout()
	}

	exp := export.New(db,
		export.WithStore(store),
		export.WithLogger(log),
		export.WithWorkers(settings.Workers),
	)
	res, err := exp.Run(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d rows x %d columns to %s (run %s)\n",
		res.Report.Rows, res.Report.Columns, res.Output, res.RunID)
	if n := len(res.Report.Diagnostics); n > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d cells of unsupported column types were left empty\n", n)
	}
	if res.DownloadURL != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), res.DownloadURL)
	}
	return nil
}

func applyExportFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	if f.Changed("query") {
		settings.Query = exportFlags.query
	}
	if f.Changed("output") {
		settings.Output = exportFlags.output
	}
	if f.Changed("sheet") {
		settings.Sheet = exportFlags.sheet
	}
	if f.Changed("workers") {
		settings.Workers = exportFlags.workers
	}
}

func resolveQuery(ctx context.Context, db database.DB, store filestore.Store) (string, error) {
	if exportFlags.table != "" {
		ok, err := schema.NewReader(db).TableExists(ctx, exportFlags.table)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", errs.Newf(errs.ErrKindNotFound, "table %s not found", exportFlags.table)
		}
		return export.TableQuery(db.Dialect(), export.TableSpec{
			Name:    exportFlags.table,
			Columns: exportFlags.columns,
			OrderBy: exportFlags.orderBy,
			Limit:   exportFlags.limit,
		})
	}
	return querysource.New(store).Load(ctx, settings.Query)
}

func openDB(ctx context.Context) (database.DB, error) {
	cfg, err := settings.DatabaseConfig()
	if err != nil {
		return nil, err
	}
	if dsn := os.Getenv("SQLSHEET_DSN"); dsn != "" {
		cfg.DSN = dsn
	}
	return export.OpenDB(ctx, cfg)
}

// openStore connects to object storage when it is configured. A nil store
// with a nil error means none is configured.
func openStore(ctx context.Context) (filestore.Store, error) {
	cfg := settings.StorageConfig()
	if cfg == nil {
		return nil, nil
	}
	return minio.New(ctx, cfg)
}
