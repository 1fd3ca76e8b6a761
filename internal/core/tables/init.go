// Package tables registers the categories, products and sales definitions
// with the core registry. Import it for side effects:
//
//	import _ "github.com/JonMunkholm/smartmart/internal/core/tables"
//
// Each table file uses init() to register its table. The generic helpers
// below adapt the store's typed operations to core's untyped function
// fields.
package tables

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/smartmart/internal/core"
	"github.com/JonMunkholm/smartmart/internal/store"
)

// insertRecords converts built records back to T and bulk inserts them.
func insertRecords[T store.Record](ctx context.Context, st *store.Store, records []any, batchSize int) error {
	rows := make([]T, len(records))
	for i, r := range records {
		row, ok := r.(T)
		if !ok {
			return fmt.Errorf("record %d: unexpected type %T", i, r)
		}
		rows[i] = row
	}
	return store.Insert(ctx, st, rows, batchSize)
}

// listRecords returns every row of T as the JSON listing.
func listRecords[T store.Record](ctx context.Context, st *store.Store) (any, error) {
	return store.List[T](ctx, st)
}

// streamRecords renders each batch of T with toRow before emitting it.
func streamRecords[T store.Record](toRow func(T) []string) core.StreamFunc {
	return func(ctx context.Context, st *store.Store, batchSize int, emit func([][]string) error) error {
		return store.Stream(ctx, st, batchSize, func(batch []T) error {
			rows := make([][]string, len(batch))
			for i := range batch {
				rows[i] = toRow(batch[i])
			}
			return emit(rows)
		})
	}
}

func formatID(id int64) string {
	return fmt.Sprint(id)
}
