package domain

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Validate checks a candidate record and returns one message per rejected
// field. Every field is required, for creates and updates alike.
func Validate(in ItemInput) ValidationErrors {
	errs := ValidationErrors{}

	switch {
	case in.Name == nil || strings.TrimSpace(*in.Name) == "":
		errs["name"] = "Name is required"
	case utf8.RuneCountInString(strings.TrimSpace(*in.Name)) > MaxNameLength:
		errs["name"] = "Name cannot exceed 100 characters"
	}

	switch {
	case in.Category == nil || strings.TrimSpace(*in.Category) == "":
		errs["category"] = "Category is required"
	case utf8.RuneCountInString(strings.TrimSpace(*in.Category)) > MaxCategoryLength:
		errs["category"] = "Category cannot exceed 50 characters"
	}

	if in.Price == nil {
		errs["price"] = "Price is required"
	} else if price, ok := parsePrice(*in.Price); !ok {
		errs["price"] = "Price must be a valid non-negative number"
	} else if price.GreaterThan(MaxPrice) {
		errs["price"] = "Price cannot exceed $1,000,000"
	} else if !price.Equal(price.Round(PriceScale)) {
		errs["price"] = "Price cannot have more than 2 decimal places"
	}

	if in.Stock == nil {
		errs["stock"] = "Stock is required"
	} else if stock, ok := parseStock(*in.Stock); !ok {
		errs["stock"] = "Stock must be a valid non-negative integer"
	} else if stock > MaxStock {
		errs["stock"] = "Stock cannot exceed 1,000,000 units"
	}

	return errs
}

// NewItem converts an accepted input into a record ready for insertion.
// Callers must run Validate first.
func (in ItemInput) NewItem() NewItem {
	p := in.Patch()
	item := NewItem{}
	if p.Name != nil {
		item.Name = *p.Name
	}
	if p.Category != nil {
		item.Category = *p.Category
	}
	if p.Price != nil {
		item.Price = *p.Price
	}
	if p.Stock != nil {
		item.Stock = *p.Stock
	}
	return item
}

// Patch converts the supplied fields of an accepted input into an update.
// Fields that are absent or do not parse are left out.
func (in ItemInput) Patch() ItemPatch {
	var p ItemPatch
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		p.Name = &name
	}
	if in.Category != nil {
		category := strings.TrimSpace(*in.Category)
		p.Category = &category
	}
	if in.Price != nil {
		if price, ok := parsePrice(*in.Price); ok {
			p.Price = &price
		}
	}
	if in.Stock != nil {
		if stock, ok := parseStock(*in.Stock); ok {
			p.Stock = &stock
		}
	}
	return p
}

func parsePrice(n Number) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(string(n))
	if err != nil || d.IsNegative() {
		return decimal.Decimal{}, false
	}
	return d, true
}

func parseStock(n Number) (int, bool) {
	d, err := decimal.NewFromString(string(n))
	if err != nil || d.IsNegative() || !d.IsInteger() {
		return 0, false
	}
	// Values this large are rejected by the range check anyway.
	if d.GreaterThan(decimal.NewFromInt(MaxStock + 1)) {
		return MaxStock + 1, true
	}
	return int(d.IntPart()), true
}
