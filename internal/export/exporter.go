// Package export runs the whole pipeline: fetch a query result, transcribe
// it into a workbook and persist the workbook.
package export

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/koustreak/sqlsheet/internal/database"
	"github.com/koustreak/sqlsheet/internal/errs"
	"github.com/koustreak/sqlsheet/internal/filestore"
	"github.com/koustreak/sqlsheet/internal/logger"
	"github.com/koustreak/sqlsheet/internal/sheet"
	"github.com/koustreak/sqlsheet/internal/transcribe"
)

// DownloadURLTTL is how long a presigned link to an uploaded workbook stays valid.
const DownloadURLTTL = 24 * time.Hour

// Request describes one export.
type Request struct {
	Query string // SQL text
	Sheet string // worksheet name, sheet.DefaultSheet when empty

	// Output is a local path or s3://bucket/key. Run requires it.
	Output string

	// Preview, when set, receives the grid rendered as a text table.
	Preview io.Writer
}

// Result describes a finished export.
type Result struct {
	RunID       string
	Report      *transcribe.Report
	Output      string
	DownloadURL string // set for object storage outputs
	Elapsed     time.Duration
}

// Exporter runs exports against one database. It is safe for concurrent
// use; each run gets its own engine and workbook.
type Exporter struct {
	db      database.DB
	store   filestore.Store
	log     *logger.Logger
	workers int
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithStore enables s3:// outputs.
func WithStore(s filestore.Store) Option {
	return func(e *Exporter) { e.store = s }
}

// WithLogger sets the base logger; each run logs with a run_id field.
func WithLogger(l *logger.Logger) Option {
	return func(e *Exporter) {
		if l != nil {
			e.log = l
		}
	}
}

// WithWorkers sets the engine's decode parallelism.
func WithWorkers(n int) Option {
	return func(e *Exporter) { e.workers = n }
}

// New returns an Exporter reading from db.
func New(db database.DB, opts ...Option) *Exporter {
	e := &Exporter{db: db, log: logger.Nop(), workers: 1}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Build runs req.Query and transcribes its first result into a new
// workbook. The caller must Close the workbook. req.Output is ignored.
func (e *Exporter) Build(ctx context.Context, req Request) (*sheet.Workbook, *Result, error) {
	runID := uuid.NewString()
	log := e.log.With().Str("run_id", runID).Logger()
	start := time.Now()

	if req.Query == "" {
		return nil, nil, errs.New(errs.ErrKindInvalidInput, "query is required")
	}

	log.Info("running query")
	results, err := e.db.QueryResults(ctx, req.Query)
	if err != nil {
		log.ErrorWith("query failed", err, nil)
		return nil, nil, err
	}

	wb, err := sheet.NewWorkbook(req.Sheet)
	if err != nil {
		return nil, nil, err
	}

	var sink transcribe.Sink = wb
	var grid *sheet.Grid
	if req.Preview != nil {
		grid = sheet.NewGrid()
		sink = sheet.Tee{wb, grid}
	}

	engine := transcribe.New(transcribe.WithLogger(log), transcribe.WithWorkers(e.workers))
	report, err := engine.Transcribe(results, sink)
	if err != nil {
		_ = wb.Close()
		log.ErrorWith("transcription failed", err, nil)
		return nil, nil, err
	}

	if grid != nil {
		grid.Render(req.Preview)
	}

	res := &Result{RunID: runID, Report: report, Elapsed: time.Since(start)}
	log.InfoWith("workbook built", map[string]interface{}{
		"columns":     report.Columns,
		"rows":        report.Rows,
		"cells":       report.CellsWritten,
		"skipped":     report.Skipped,
		"diagnostics": len(report.Diagnostics),
		"elapsed_ms":  res.Elapsed.Milliseconds(),
	})
	return wb, res, nil
}

// Run builds the workbook for req and persists it to req.Output.
func (e *Exporter) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	if req.Output == "" {
		return nil, errs.New(errs.ErrKindInvalidInput, "output is required")
	}
	persister, err := sheet.PersisterFor(req.Output, e.store)
	if err != nil {
		return nil, err
	}

	wb, res, err := e.Build(ctx, req)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	log := e.log.With().Str("run_id", res.RunID).Logger()
	if err := persister.Persist(ctx, wb, req.Output); err != nil {
		log.ErrorWith("persist failed", err, map[string]interface{}{"output": req.Output})
		return nil, err
	}
	res.Output = req.Output

	if bucket, key, ok := filestore.ParseURL(req.Output); ok {
		url, err := e.store.PresignGetURL(ctx, bucket, key, DownloadURLTTL)
		if err != nil {
			log.WarnWith("presign failed", map[string]interface{}{"output": req.Output, "error": err.Error()})
		} else {
			res.DownloadURL = url
		}
	}

	res.Elapsed = time.Since(start)
	log.InfoWith("export written", map[string]interface{}{"output": req.Output})
	return res, nil
}
