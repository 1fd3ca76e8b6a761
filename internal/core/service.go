package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/smartmart/internal/config"
	"github.com/JonMunkholm/smartmart/internal/logging"
	"github.com/JonMunkholm/smartmart/internal/store"
)

// DefaultHistoryLimit caps ImportHistory when the caller passes no limit.
const DefaultHistoryLimit = 100

// Service provides the business logic behind every HTTP endpoint: JSON
// listing and creation, CSV import and CSV/XLSX export.
type Service struct {
	store   *store.Store
	imports config.ImportConfig
	exports config.ExportConfig
	limiter *ImportLimiter
}

// NewService creates a Service over an open store.
func NewService(st *store.Store, cfg config.Config) *Service {
	return &Service{
		store:   st,
		imports: cfg.Import,
		exports: cfg.Export,
		limiter: NewImportLimiter(cfg.Import.MaxConcurrent, cfg.Import.MaxWaitTime),
	}
}

// Tables returns information about all registered tables.
func (s *Service) Tables() []TableInfo {
	defs := All()
	infos := make([]TableInfo, len(defs))
	for i, def := range defs {
		infos[i] = def.Info
	}
	return infos
}

// Definition looks up a registered table.
func (s *Service) Definition(tableKey string) (TableDefinition, error) {
	def, ok := Get(tableKey)
	if !ok {
		return TableDefinition{}, fmt.Errorf("%w: %s", ErrUnknownTable, tableKey)
	}
	return def, nil
}

// List returns every row of a table ordered by id.
func (s *Service) List(ctx context.Context, tableKey string) (any, error) {
	def, err := s.Definition(tableKey)
	if err != nil {
		return nil, err
	}
	return def.List(ctx, s.store)
}

// Create decodes, validates and stores one row from a JSON body. Validation
// failures are *ValidationError; store rejections match
// store.ErrConstraintViolation.
func (s *Service) Create(ctx context.Context, tableKey string, body io.Reader) (any, error) {
	def, err := s.Definition(tableKey)
	if err != nil {
		return nil, err
	}

	row, err := def.Create(ctx, s.store, body)
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("record created", "table", tableKey)
	return row, nil
}

// ImportCSV imports a CSV stream into a table, all rows or none.
//
// Failures of the import itself are *ImportError. ErrUnknownTable,
// ErrTooManyImports and context errors from waiting for a slot are returned
// as-is. Every attempt that gets past the file name check is written to the
// import history.
func (s *Service) ImportCSV(ctx context.Context, tableKey, fileName string, r io.Reader) (*ImportResult, error) {
	return s.importCSV(ctx, tableKey, fileName, r, false)
}

// PreviewCSV runs every import stage except the insert. It reports the same
// errors ImportCSV would for bad files or rows; constraint violations only
// show up on a real import. Previews are not written to the history.
func (s *Service) PreviewCSV(ctx context.Context, tableKey, fileName string, r io.Reader) (*ImportResult, error) {
	return s.importCSV(ctx, tableKey, fileName, r, true)
}

func (s *Service) importCSV(ctx context.Context, tableKey, fileName string, r io.Reader, dryRun bool) (*ImportResult, error) {
	def, err := s.Definition(tableKey)
	if err != nil {
		return nil, err
	}

	if !strings.HasSuffix(strings.ToLower(fileName), ".csv") {
		return nil, invalidInputKind(fileName)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	importCtx := ctx
	if s.imports.Timeout > 0 {
		var cancel context.CancelFunc
		importCtx, cancel = context.WithTimeout(ctx, s.imports.Timeout)
		defer cancel()
	}

	importID := uuid.New().String()
	logger := logging.WithFields(ctx,
		"import_id", importID,
		"table", tableKey,
		"file", fileName,
		"dry_run", dryRun,
	)
	logger.Info("import started")

	start := time.Now()
	imp := newCSVImport(def, r, s.imports.BatchSize)
	imp.dryRun = dryRun
	imported, runErr := imp.run(importCtx, s.store)

	result := &ImportResult{
		ImportID:  importID,
		TableKey:  tableKey,
		FileName:  fileName,
		Imported:  imported,
		Skipped:   imp.skipped,
		BytesRead: imp.reader.BytesRead,
		DryRun:    dryRun,
		Duration:  time.Since(start),
	}

	if !dryRun {
		s.recordImport(ctx, logger, result, runErr)
	}

	if runErr != nil {
		cause := runErr
		code := ""
		var ie *ImportError
		if errors.As(runErr, &ie) {
			code = ie.Code
			if ie.Err != nil {
				cause = ie.Err
			}
		}
		logger.Warn("import failed",
			"phase", imp.phase,
			"kind", KindOf(runErr),
			"code", code,
			"error", cause,
			"duration", result.Duration,
		)
		return nil, runErr
	}

	logger.Info("import complete",
		"imported", result.Imported,
		"skipped", result.Skipped,
		"bytes", result.BytesRead,
		"duration", result.Duration,
	)
	return result, nil
}

// recordImport writes the outcome to the import history. History survives a
// cancelled or timed-out request.
func (s *Service) recordImport(ctx context.Context, logger *slog.Logger, result *ImportResult, runErr error) {
	rec := &store.ImportRecord{
		ID:         result.ImportID,
		TableKey:   result.TableKey,
		FileName:   result.FileName,
		Status:     store.ImportSucceeded,
		Imported:   result.Imported,
		Skipped:    result.Skipped,
		DurationMs: result.Duration.Milliseconds(),
	}
	if runErr != nil {
		rec.Status = store.ImportFailed
		rec.ErrorKind = string(KindOf(runErr))
		rec.Detail = runErr.Error()
	}

	if err := s.store.RecordImport(context.WithoutCancel(ctx), rec); err != nil {
		logger.Error("record import history", "error", err)
	}
}

// ExportCSV streams a table as CSV to w and returns the number of data rows.
// Errors after the header has been written cannot change the response status;
// callers log them.
func (s *Service) ExportCSV(ctx context.Context, tableKey string, w io.Writer) (int, error) {
	def, err := s.Definition(tableKey)
	if err != nil {
		return 0, err
	}
	return WriteCSV(w, def.Info.Columns, s.rowSource(ctx, def))
}

// ExportXLSX writes a table as a one-sheet workbook.
func (s *Service) ExportXLSX(ctx context.Context, tableKey string, w io.Writer) (int, error) {
	def, err := s.Definition(tableKey)
	if err != nil {
		return 0, err
	}
	return WriteXLSX(w, def.Info.Label, def.Info.Columns, s.rowSource(ctx, def))
}

func (s *Service) rowSource(ctx context.Context, def TableDefinition) RowSource {
	return func(emit func(rows [][]string) error) error {
		return def.Stream(ctx, s.store, s.exports.BatchSize, emit)
	}
}

// ImportHistory returns recent imports, newest first. An empty tableKey
// returns every table.
func (s *Service) ImportHistory(ctx context.Context, tableKey string, limit int) ([]store.ImportRecord, error) {
	if tableKey != "" {
		if _, err := s.Definition(tableKey); err != nil {
			return nil, err
		}
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return s.store.ListImports(ctx, tableKey, limit)
}

// Ping checks the database connection.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// LimiterStatus reports import slot usage.
func (s *Service) LimiterStatus() ImportLimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until running imports finish or ctx is done.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
