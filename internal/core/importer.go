package core

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/JonMunkholm/smartmart/internal/store"
)

// ContextCheckInterval is how often, in rows, the row stage checks for
// cancellation.
var ContextCheckInterval = 100

// csvImport carries one file through the import stages:
//
//	header -> rows (validate + build) -> insert
//
// Every stage either advances phase or ends the import with an *ImportError.
// Nothing is written until the insert stage, which is one transaction.
type csvImport struct {
	def       TableDefinition
	reader    *CountingReader
	csv       *csv.Reader
	batchSize int
	dryRun    bool // stop after the row stage

	phase     ImportPhase
	headerIdx HeaderIndex
	records   []any
	skipped   int
	empty     bool // no header row at all
}

func newCSVImport(def TableDefinition, r io.Reader, batchSize int) *csvImport {
	counting := WrapForImport(r)

	cr := csv.NewReader(counting)
	cr.FieldsPerRecord = -1

	return &csvImport{
		def:       def,
		reader:    counting,
		csv:       cr,
		batchSize: batchSize,
		phase:     PhaseStarting,
	}
}

// run executes every stage and returns the number of records written.
func (imp *csvImport) run(ctx context.Context, st *store.Store) (int, error) {
	if err := imp.readHeader(); err != nil {
		return 0, imp.fail(err)
	}
	if imp.empty {
		imp.phase = PhaseComplete
		return 0, nil
	}

	if err := imp.readRows(ctx); err != nil {
		return 0, imp.fail(err)
	}
	if imp.dryRun {
		imp.phase = PhaseComplete
		return len(imp.records), nil
	}

	if err := imp.insert(ctx, st); err != nil {
		return 0, imp.fail(err)
	}

	imp.phase = PhaseComplete
	return len(imp.records), nil
}

func (imp *csvImport) fail(err error) error {
	imp.phase = PhaseFailed
	return err
}

// readHeader reads the first record and checks it for required columns.
// A stream with no records is not an error.
func (imp *csvImport) readHeader() error {
	imp.phase = PhaseHeader

	header, err := imp.csv.Read()
	if errors.Is(err, io.EOF) {
		imp.empty = true
		return nil
	}
	if err != nil {
		return readFailure(err)
	}

	idx, err := ValidateHeaders(header, imp.def.FieldSpecs)
	if err != nil {
		var mc *MissingColumnsError
		if errors.As(err, &mc) {
			return missingColumns(mc)
		}
		return processingFailure(err)
	}

	imp.headerIdx = idx
	return nil
}

// readRows validates and builds every non-blank row. The first bad row
// aborts the import.
func (imp *csvImport) readRows(ctx context.Context) error {
	imp.phase = PhaseValidating
	rv := NewRowValidator(imp.def.FieldSpecs, imp.headerIdx)

	for n := 0; ; n++ {
		if n%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return processingFailure(err)
			}
		}

		row, err := imp.csv.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return readFailure(err)
		}

		if isEmptyRow(row) {
			imp.skipped++
			continue
		}

		line, _ := imp.csv.FieldPos(0)

		if ve := rv.Validate(row); ve != nil {
			return rowFailure(line, ve)
		}

		rec, err := imp.def.BuildRecord(row, imp.headerIdx)
		if err != nil {
			return rowFailure(line, err)
		}
		imp.records = append(imp.records, rec)
	}
}

func (imp *csvImport) insert(ctx context.Context, st *store.Store) error {
	imp.phase = PhaseInserting
	if len(imp.records) == 0 {
		return nil
	}

	err := imp.def.Insert(ctx, st, imp.records, imp.batchSize)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrConstraintViolation):
		return constraintFailure(err)
	default:
		return processingFailure(err)
	}
}

// readFailure classifies an error returned by the csv reader. Decode errors
// from the UTF-8 validator surface here too.
func readFailure(err error) error {
	var de *DecodeError
	if errors.As(err, &de) {
		return decodeFailure(de)
	}
	return processingFailure(err)
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
