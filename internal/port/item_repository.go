package port

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/rl1809/warehouse-inventory/internal/core/domain"
)

type ItemRepository interface {
	// List returns items matching the filter, most recently updated first
	List(ctx context.Context, filter domain.Filter) ([]domain.Item, error)

	// Get returns nil, nil when the item does not exist
	Get(ctx context.Context, id int64) (*domain.Item, error)

	// Insert stores a new item and returns it with its id and timestamps
	Insert(ctx context.Context, item domain.NewItem) (*domain.Item, error)

	// Update applies the supplied fields, reports whether a row was changed
	Update(ctx context.Context, id int64, patch domain.ItemPatch) (bool, error)

	// Delete reports whether a row was removed
	Delete(ctx context.Context, id int64) (bool, error)

	// Categories returns the distinct categories in use, sorted
	Categories(ctx context.Context) ([]string, error)

	// TotalValue is the sum of price * stock, rounded to 2 places
	TotalValue(ctx context.Context) (decimal.Decimal, error)

	// LowStock returns items whose stock is at or below threshold
	LowStock(ctx context.Context, threshold int) ([]domain.Item, error)

	Count(ctx context.Context) (int, error)
}
