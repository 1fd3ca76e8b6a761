package tables

import (
	"context"
	"io"

	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/smartmart/internal/core"
	"github.com/JonMunkholm/smartmart/internal/store"
)

// ProductInput is a product as received from JSON or a CSV row.
type ProductInput struct {
	ID          *int64           `json:"id" validate:"omitempty,gt=0"`
	Name        string           `json:"name" validate:"required,max=255"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price" validate:"required,gte=0,money"`
	CategoryID  int64            `json:"category_id" validate:"required"`
	Brand       *string          `json:"brand" validate:"omitempty,max=255"`
}

func (in ProductInput) toStore() store.Product {
	p := store.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       *in.Price,
		CategoryID:  in.CategoryID,
		Brand:       in.Brand,
	}
	if in.ID != nil {
		p.ID = *in.ID
	}
	return p
}

func init() {
	core.Register(core.TableDefinition{
		Info: core.TableInfo{
			Key:     "products",
			Label:   "Products",
			Columns: []string{"id", "name", "description", "price", "category_id", "brand"},
		},
		FieldSpecs: []core.FieldSpec{
			{Name: "id", Type: core.FieldInteger},
			{Name: "name", Type: core.FieldText, Required: true},
			{Name: "description", Type: core.FieldText},
			{Name: "price", Type: core.FieldDecimal, Required: true},
			{Name: "category_id", Type: core.FieldInteger, Required: true},
			{Name: "brand", Type: core.FieldText},
		},
		BuildRecord: buildProduct,
		Insert:      insertRecords[store.Product],
		Stream:      streamRecords(productRow),
		List:        listRecords[store.Product],
		Create:      createProduct,
	})
}

func buildProduct(row []string, idx core.HeaderIndex) (any, error) {
	id, err := core.OptionalIntegerCell(row, idx, "id")
	if err != nil {
		return nil, err
	}
	price, err := core.DecimalCell(row, idx, "price")
	if err != nil {
		return nil, err
	}
	categoryID, err := core.IntegerCell(row, idx, "category_id")
	if err != nil {
		return nil, err
	}

	in := ProductInput{
		ID:          id,
		Name:        core.Cell(row, idx, "name"),
		Description: core.OptionalText(row, idx, "description"),
		Price:       price,
		CategoryID:  categoryID,
		Brand:       core.OptionalText(row, idx, "brand"),
	}
	if err := core.ValidateStruct(in); err != nil {
		return nil, err
	}
	return in.toStore(), nil
}

func createProduct(ctx context.Context, st *store.Store, body io.Reader) (any, error) {
	var in ProductInput
	if err := core.DecodeInput(body, &in); err != nil {
		return nil, err
	}
	p := in.toStore()
	if err := store.Create(ctx, st, &p); err != nil {
		return nil, err
	}
	return p, nil
}

func productRow(p store.Product) []string {
	return []string{
		formatID(p.ID),
		p.Name,
		core.FormatOptional(p.Description),
		core.FormatDecimal(p.Price),
		formatID(p.CategoryID),
		core.FormatOptional(p.Brand),
	}
}
