package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/rl1809/warehouse-inventory/internal/core/domain"
	"github.com/rl1809/warehouse-inventory/internal/port"
)

var starterItems = []domain.NewItem{
	{Name: `MacBook Pro 16"`, Category: "Electronics", Price: decimal.RequireFromString("2499.99"), Stock: 8},
	{Name: "Ergonomic Office Chair", Category: "Furniture", Price: decimal.RequireFromString("349.99"), Stock: 15},
	{Name: "Wireless Mouse", Category: "Electronics", Price: decimal.RequireFromString("29.99"), Stock: 42},
	{Name: "Desk Lamp", Category: "Furniture", Price: decimal.RequireFromString("24.99"), Stock: 23},
	{Name: "Sticky Notes", Category: "Stationery", Price: decimal.RequireFromString("5.99"), Stock: 67},
	{Name: "Coffee Mug", Category: "Kitchen", Price: decimal.RequireFromString("12.99"), Stock: 89},
	{Name: "External SSD 1TB", Category: "Electronics", Price: decimal.RequireFromString("129.99"), Stock: 18},
	{Name: "Desk Organizer", Category: "Furniture", Price: decimal.RequireFromString("19.99"), Stock: 31},
	{Name: "Ballpoint Pens (Pack of 12)", Category: "Stationery", Price: decimal.RequireFromString("8.49"), Stock: 54},
	{Name: "Water Bottle", Category: "Kitchen", Price: decimal.RequireFromString("18.99"), Stock: 27},
}

func newSeedCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert starter items when the inventory is empty",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}

			store, err := openStore(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			_, err = seedIfEmpty(cmd.Context(), store, logger)
			return err
		},
	}
}

// seedIfEmpty inserts starterItems only into an empty table and reports how
// many rows it wrote.
func seedIfEmpty(ctx context.Context, repo port.ItemRepository, logger *slog.Logger) (int, error) {
	n, err := repo.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.Info("inventory not empty, skipping seed", "items", n)
		return 0, nil
	}

	for i, item := range starterItems {
		if _, err := repo.Insert(ctx, item); err != nil {
			return i, fmt.Errorf("seed %q: %w", item.Name, err)
		}
	}
	logger.Info("seeded initial items", "items", len(starterItems))
	return len(starterItems), nil
}
