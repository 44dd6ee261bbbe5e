package domain

import (
	"bytes"
	"time"

	"github.com/shopspring/decimal"
)

const (
	MaxNameLength     = 100
	MaxCategoryLength = 50
	MaxStock          = 1_000_000
	PriceScale        = 2

	DefaultLowStockThreshold = 10
)

var MaxPrice = decimal.NewFromInt(1_000_000)

// Item is one inventory row. ID, CreatedAt and UpdatedAt are assigned by the store.
type Item struct {
	ID        int64
	Name      string
	Category  string
	Price     decimal.Decimal
	Stock     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Value is price × stock.
func (i Item) Value() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Stock)))
}

// NewItem is a validated record that has not been stored yet.
type NewItem struct {
	Name     string
	Category string
	Price    decimal.Decimal
	Stock    int
}

// ItemPatch carries the fields of a partial update. Nil fields are left untouched.
type ItemPatch struct {
	Name     *string
	Category *string
	Price    *decimal.Decimal
	Stock    *int
}

func (p ItemPatch) Empty() bool {
	return p.Name == nil && p.Category == nil && p.Price == nil && p.Stock == nil
}

// Filter narrows List. Empty fields are ignored; set fields combine with AND.
type Filter struct {
	Text     string
	Category string
}

type Stats struct {
	TotalItems    int
	TotalValue    decimal.Decimal
	Categories    []string
	LowStockCount int
	LowStockItems []Item
}

// Number holds the textual form of a numeric field as the client sent it.
// It accepts both JSON numbers and JSON strings so that "12.50" and 12.5
// reach the validator instead of failing at decode time.
type Number string

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) >= 2 && b[0] == '"' && b[len(b)-1] == '"' {
		b = b[1 : len(b)-1]
	}
	*n = Number(bytes.TrimSpace(b))
	return nil
}

// ItemInput is a candidate write as decoded from a request body.
// A nil field was not supplied.
type ItemInput struct {
	Name     *string
	Category *string
	Price    *Number
	Stock    *Number
}
