package core

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/JonMunkholm/smartmart/internal/store"
)

// FieldType represents the expected data type for a CSV field.
type FieldType int

const (
	FieldText FieldType = iota
	FieldInteger
	FieldDecimal
	FieldDate
)

// FieldSpec defines validation rules for a single CSV column.
type FieldSpec struct {
	Name     string   // Canonical column header (lowercase)
	Aliases  []string // Other accepted headers for the same column
	Type     FieldType
	Required bool // Column must exist in the header and be non-empty in every row
}

// TableInfo contains display information about a table.
type TableInfo struct {
	Key     string   // URL segment and table name: "products"
	Label   string   // Display name: "Products"
	Columns []string // Export header, in order
}

// HeaderIndex maps column names (lowercase) to their position in the CSV row.
type HeaderIndex map[string]int

// BuildRecordFunc converts a validated CSV row into a store row (for
// example store.Product). Failures are returned as *ValidationError.
type BuildRecordFunc func(row []string, headerIdx HeaderIndex) (any, error)

// InsertFunc writes built records in one transaction.
type InsertFunc func(ctx context.Context, st *store.Store, records []any, batchSize int) error

// StreamFunc reads the table in id order, batchSize rows at a time, and
// passes each batch to emit already rendered as CSV cells.
type StreamFunc func(ctx context.Context, st *store.Store, batchSize int, emit func(rows [][]string) error) error

// ListFunc returns every row of the table for the JSON listing.
type ListFunc func(ctx context.Context, st *store.Store) (any, error)

// CreateFunc decodes a JSON payload, validates it and stores one row.
type CreateFunc func(ctx context.Context, st *store.Store, body io.Reader) (any, error)

// TableDefinition contains everything needed to serve one entity.
type TableDefinition struct {
	Info        TableInfo
	FieldSpecs  []FieldSpec
	BuildRecord BuildRecordFunc
	Insert      InsertFunc
	Stream      StreamFunc
	List        ListFunc
	Create      CreateFunc
}

// ImportPhase indicates the stage an import reached.
type ImportPhase string

const (
	PhaseStarting   ImportPhase = "starting"
	PhaseHeader     ImportPhase = "header"
	PhaseValidating ImportPhase = "validating"
	PhaseInserting  ImportPhase = "inserting"
	PhaseComplete   ImportPhase = "complete"
	PhaseFailed     ImportPhase = "failed"
)

// ImportResult contains the outcome of a successful import.
type ImportResult struct {
	ImportID  string        `json:"import_id"`
	TableKey  string        `json:"table"`
	FileName  string        `json:"file_name"`
	Imported  int           `json:"imported"`
	Skipped   int           `json:"skipped"`
	BytesRead int64         `json:"bytes_read"`
	DryRun    bool          `json:"dry_run,omitempty"`
	Duration  time.Duration `json:"-"`
}

// Message is the confirmation returned to API clients. For a dry run,
// Imported counts the rows that would have been written.
func (r *ImportResult) Message() string {
	if r.DryRun {
		return fmt.Sprintf("Validated %d records. Nothing was imported.", r.Imported)
	}
	return fmt.Sprintf("Successfully imported %d records.", r.Imported)
}
