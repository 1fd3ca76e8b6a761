package core

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// RowSource produces the rows of an export, in order, one batch per emit
// call. It returns the first error from emit or from reading the table.
type RowSource func(emit func(rows [][]string) error) error

// flusher is satisfied by http.ResponseWriter implementations that stream.
type flusher interface {
	Flush()
}

// WriteCSV writes header and then every batch from src to w, flushing after
// the header and after each batch so a streaming response never holds more
// than one batch. It returns the number of data rows written.
func WriteCSV(w io.Writer, header []string, src RowSource) (int, error) {
	cw := csv.NewWriter(w)
	f, _ := w.(flusher)

	flush := func() error {
		cw.Flush()
		if err := cw.Error(); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		if f != nil {
			f.Flush()
		}
		return nil
	}

	if err := cw.Write(header); err != nil {
		return 0, fmt.Errorf("write csv header: %w", err)
	}
	if err := flush(); err != nil {
		return 0, err
	}

	written := 0
	err := src(func(rows [][]string) error {
		for _, row := range rows {
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write csv row: %w", err)
			}
		}
		written += len(rows)
		return flush()
	})
	return written, err
}

// WriteXLSX writes the same rows as WriteCSV into a single-sheet workbook.
// Rows go through excelize's StreamWriter, so cell data is spooled rather
// than kept as an in-memory sheet model.
func WriteXLSX(w io.Writer, sheet string, header []string, src RowSource) (int, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return 0, fmt.Errorf("name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return 0, fmt.Errorf("open stream writer: %w", err)
	}

	rowNum := 0
	writeRow := func(cells []string) error {
		rowNum++
		ref, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		values := make([]any, len(cells))
		for i, c := range cells {
			values[i] = c
		}
		return sw.SetRow(ref, values)
	}

	if err := writeRow(header); err != nil {
		return 0, fmt.Errorf("write xlsx header: %w", err)
	}

	err = src(func(rows [][]string) error {
		for _, row := range rows {
			if err := writeRow(row); err != nil {
				return fmt.Errorf("write xlsx row %d: %w", rowNum, err)
			}
		}
		return nil
	})
	if err != nil {
		return rowNum - 1, err
	}

	if err := sw.Flush(); err != nil {
		return 0, fmt.Errorf("flush xlsx: %w", err)
	}
	if err := f.Write(w); err != nil {
		return 0, fmt.Errorf("write xlsx: %w", err)
	}
	return rowNum - 1, nil
}
