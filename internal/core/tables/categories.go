package tables

import (
	"context"
	"io"

	"github.com/JonMunkholm/smartmart/internal/core"
	"github.com/JonMunkholm/smartmart/internal/store"
)

// CategoryInput is a category as received from JSON or a CSV row.
type CategoryInput struct {
	ID   *int64 `json:"id" validate:"omitempty,gt=0"`
	Name string `json:"name" validate:"required,max=255"`
}

func (in CategoryInput) toStore() store.Category {
	c := store.Category{Name: in.Name}
	if in.ID != nil {
		c.ID = *in.ID
	}
	return c
}

func init() {
	core.Register(core.TableDefinition{
		Info: core.TableInfo{
			Key:     "categories",
			Label:   "Categories",
			Columns: []string{"id", "name"},
		},
		FieldSpecs: []core.FieldSpec{
			{Name: "id", Type: core.FieldInteger},
			{Name: "name", Type: core.FieldText, Required: true},
		},
		BuildRecord: buildCategory,
		Insert:      insertRecords[store.Category],
		Stream:      streamRecords(categoryRow),
		List:        listRecords[store.Category],
		Create:      createCategory,
	})
}

func buildCategory(row []string, idx core.HeaderIndex) (any, error) {
	id, err := core.OptionalIntegerCell(row, idx, "id")
	if err != nil {
		return nil, err
	}
	in := CategoryInput{
		ID:   id,
		Name: core.Cell(row, idx, "name"),
	}
	if err := core.ValidateStruct(in); err != nil {
		return nil, err
	}
	return in.toStore(), nil
}

func createCategory(ctx context.Context, st *store.Store, body io.Reader) (any, error) {
	var in CategoryInput
	if err := core.DecodeInput(body, &in); err != nil {
		return nil, err
	}
	c := in.toStore()
	if err := store.Create(ctx, st, &c); err != nil {
		return nil, err
	}
	return c, nil
}

func categoryRow(c store.Category) []string {
	return []string{formatID(c.ID), c.Name}
}
