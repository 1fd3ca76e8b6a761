package store

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices leave the API as JSON numbers (9.99), not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Record is implemented by every table the store manages.
type Record interface {
	TableName() string
	PrimaryKey() int64
}

// Category groups products. Names are unique.
type Category struct {
	ID   int64  `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:255;not null;uniqueIndex" json:"name"`
}

func (Category) TableName() string   { return "categories" }
func (c Category) PrimaryKey() int64 { return c.ID }

// Product is a sellable item belonging to one category.
type Product struct {
	ID          int64           `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"size:255;not null;index" json:"name"`
	Description *string         `json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	CategoryID  int64           `gorm:"not null;index" json:"category_id"`
	Category    *Category       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Brand       *string         `gorm:"size:255" json:"brand"`
}

func (Product) TableName() string   { return "products" }
func (p Product) PrimaryKey() int64 { return p.ID }

// Sale records units of one product sold at a point in time.
type Sale struct {
	ID         int64           `gorm:"primaryKey" json:"id"`
	ProductID  int64           `gorm:"not null;index" json:"product_id"`
	Product    *Product        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Date       time.Time       `gorm:"column:date;not null;index" json:"date"`
	Quantity   int64           `gorm:"not null" json:"quantity"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_price"`
}

func (Sale) TableName() string   { return "sales" }
func (s Sale) PrimaryKey() int64 { return s.ID }

// Import statuses stored in ImportRecord.Status.
const (
	ImportSucceeded = "succeeded"
	ImportFailed    = "failed"
)

// ImportRecord is one row of CSV import history.
type ImportRecord struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	TableKey   string    `gorm:"size:64;not null;index" json:"table"`
	FileName   string    `gorm:"size:255" json:"file_name"`
	Status     string    `gorm:"size:16;not null" json:"status"`
	Imported   int       `gorm:"not null;default:0" json:"imported"`
	Skipped    int       `gorm:"not null;default:0" json:"skipped"`
	ErrorKind  string    `gorm:"size:32" json:"error_kind,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `gorm:"not null;index" json:"created_at"`
}

func (ImportRecord) TableName() string { return "import_records" }
