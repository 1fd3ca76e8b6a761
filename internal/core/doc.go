// Package core provides the business logic behind the SmartMart API: JSON
// listing and creation, CSV import and CSV/XLSX export for categories,
// products and sales.
//
// The package is independent of the HTTP layer. Web handlers, the server
// binary and tests all go through [Service].
//
// # Table Registry
//
// Tables are registered at init time using [Register]. Each [TableDefinition]
// contains everything needed to serve one entity:
//
//	core.Register(core.TableDefinition{
//	    Info: core.TableInfo{Key: "categories", Label: "Categories", Columns: []string{"id", "name"}},
//	    FieldSpecs: []core.FieldSpec{
//	        {Name: "id", Type: core.FieldInteger},
//	        {Name: "name", Type: core.FieldText, Required: true},
//	    },
//	    BuildRecord: buildCategory,
//	    Insert:      insertRecords[store.Category],
//	    ...
//	})
//
// The definitions live in package tables, imported for side effects.
//
// # CSV Import
//
// An import reads the stream once and writes nothing until every row has
// passed validation:
//
//  1. The reader is wrapped by [WrapForImport]: BOM skipping, UTF-8
//     validation and a byte counter.
//  2. The header row is checked with [ValidateHeaders]; aliases resolve to
//     canonical column names.
//  3. Each non-blank row is checked by [RowValidator] and turned into a store
//     row by the table's BuildRecord, which validates a typed input struct.
//  4. All rows are inserted in one transaction.
//
// Concurrency is bounded by [ImportLimiter]. Each attempt is recorded in the
// import history. [Service.PreviewCSV] stops after step 3.
//
// # Export
//
// [WriteCSV] and [WriteXLSX] consume a [RowSource] batch by batch, so memory
// stays proportional to the export batch size for CSV.
//
// # Error Handling
//
// A failed import returns an [*ImportError] whose kind matches one of
// [ErrInvalidInputKind], [ErrDecode], [ErrValidation], [ErrConstraintViolation]
// or [ErrProcessing] via errors.Is. [MapError] turns any error into a
// [UserMessage] with a support code; the codes are listed in
// error_messages.go.
package core
