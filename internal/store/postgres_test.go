package store_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/smartmart/internal/config"
	"github.com/JonMunkholm/smartmart/internal/store"
	"github.com/JonMunkholm/smartmart/internal/store/storetest"
)

// These run against the server in $DATABASE_URL and are skipped without it.

func TestPostgres_ExplicitIDsResyncSequence(t *testing.T) {
	st := storetest.NewPostgres(t)
	ctx := context.Background()
	require.Equal(t, config.DriverPostgres, st.Driver())

	rows := []store.Category{
		{ID: 5, Name: "Five"},
		{Name: "Generated"},
		{ID: 10, Name: "Ten"},
	}
	require.NoError(t, store.Insert(ctx, st, rows, 100))
	assert.Equal(t, int64(11), rows[1].ID, "generated id must follow the largest explicit id")

	next := store.Category{Name: "Next"}
	require.NoError(t, store.Create(ctx, st, &next))
	assert.Equal(t, int64(12), next.ID)

	// A second explicit batch below the current maximum leaves the sequence
	// ahead of every id.
	require.NoError(t, store.Insert(ctx, st, []store.Category{{ID: 7, Name: "Seven"}}, 10))
	after := store.Category{Name: "After"}
	require.NoError(t, store.Create(ctx, st, &after))
	assert.Equal(t, int64(13), after.ID)
}

func TestPostgres_Constraints(t *testing.T) {
	st := storetest.NewPostgres(t)
	ctx := context.Background()

	err := store.Insert(ctx, st, []store.Category{{Name: "Same"}, {Name: "Same"}}, 1)
	var ce *store.ConstraintError
	require.True(t, errors.As(err, &ce), "got %v", err)
	assert.Equal(t, store.ConstraintUnique, ce.Kind)

	err = store.Insert(ctx, st, []store.Product{
		{Name: "Orphan", Price: decimal.RequireFromString("1.00"), CategoryID: 99},
	}, 10)
	require.True(t, errors.As(err, &ce), "got %v", err)
	assert.Equal(t, store.ConstraintForeignKey, ce.Kind)

	got, err := store.List[store.Category](ctx, st)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPostgres_StreamReadsOneSnapshot(t *testing.T) {
	st := storetest.NewPostgres(t)
	ctx := context.Background()

	rows := make([]store.Category, 6)
	for i := range rows {
		rows[i] = store.Category{Name: fmt.Sprintf("cat-%d", i)}
	}
	require.NoError(t, store.Insert(ctx, st, rows, 10))

	streamed := 0
	inserted := false
	err := store.Stream(ctx, st, 2, func(batch []store.Category) error {
		if !inserted {
			inserted = true
			// Committed on another connection while the export is running.
			late := store.Category{Name: "late"}
			if err := store.Create(ctx, st, &late); err != nil {
				return err
			}
		}
		streamed += len(batch)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 6, streamed, "rows committed mid-stream must not appear")

	all, err := store.List[store.Category](ctx, st)
	require.NoError(t, err)
	assert.Len(t, all, 7)
}
