package tables

import (
	"context"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/smartmart/internal/core"
	"github.com/JonMunkholm/smartmart/internal/store"
)

// SaleInput is a sale as received from JSON or a CSV row. A JSON create may
// omit date; it then defaults to the current UTC time.
type SaleInput struct {
	ID         *int64           `json:"id" validate:"omitempty,gt=0"`
	ProductID  int64            `json:"product_id" validate:"required"`
	Date       *core.Date       `json:"date"`
	Quantity   int64            `json:"quantity" validate:"gt=0"`
	TotalPrice *decimal.Decimal `json:"total_price" validate:"required,gte=0,money"`
}

func (in SaleInput) toStore(now time.Time) store.Sale {
	s := store.Sale{
		ProductID:  in.ProductID,
		Date:       now.UTC(),
		Quantity:   in.Quantity,
		TotalPrice: *in.TotalPrice,
	}
	if in.Date != nil {
		s.Date = in.Date.Time
	}
	if in.ID != nil {
		s.ID = *in.ID
	}
	return s
}

func init() {
	core.Register(core.TableDefinition{
		Info: core.TableInfo{
			Key:     "sales",
			Label:   "Sales",
			Columns: []string{"id", "product_id", "quantity", "total_price", "sale_date"},
		},
		FieldSpecs: []core.FieldSpec{
			{Name: "id", Type: core.FieldInteger},
			{Name: "product_id", Type: core.FieldInteger, Required: true},
			{Name: "date", Aliases: []string{"sale_date"}, Type: core.FieldDate, Required: true},
			{Name: "quantity", Type: core.FieldInteger, Required: true},
			{Name: "total_price", Type: core.FieldDecimal, Required: true},
		},
		BuildRecord: buildSale,
		Insert:      insertRecords[store.Sale],
		Stream:      streamRecords(saleRow),
		List:        listRecords[store.Sale],
		Create:      createSale,
	})
}

func buildSale(row []string, idx core.HeaderIndex) (any, error) {
	id, err := core.OptionalIntegerCell(row, idx, "id")
	if err != nil {
		return nil, err
	}
	productID, err := core.IntegerCell(row, idx, "product_id")
	if err != nil {
		return nil, err
	}
	date, err := core.DateCell(row, idx, "date")
	if err != nil {
		return nil, err
	}
	quantity, err := core.IntegerCell(row, idx, "quantity")
	if err != nil {
		return nil, err
	}
	total, err := core.DecimalCell(row, idx, "total_price")
	if err != nil {
		return nil, err
	}

	in := SaleInput{
		ID:         id,
		ProductID:  productID,
		Date:       date,
		Quantity:   quantity,
		TotalPrice: total,
	}
	if err := core.ValidateStruct(in); err != nil {
		return nil, err
	}
	return in.toStore(time.Now()), nil
}

func createSale(ctx context.Context, st *store.Store, body io.Reader) (any, error) {
	var in SaleInput
	if err := core.DecodeInput(body, &in); err != nil {
		return nil, err
	}
	s := in.toStore(time.Now())
	if err := store.Create(ctx, st, &s); err != nil {
		return nil, err
	}
	return s, nil
}

func saleRow(s store.Sale) []string {
	return []string{
		formatID(s.ID),
		formatID(s.ProductID),
		formatID(s.Quantity),
		core.FormatDecimal(s.TotalPrice),
		core.FormatDate(s.Date),
	}
}
