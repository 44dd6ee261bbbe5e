package port

import (
	"context"

	"github.com/rl1809/warehouse-inventory/internal/core/domain"
)

type CacheRepository interface {
	// GetStats returns nil, nil on a miss
	GetStats(ctx context.Context) (*domain.Stats, error)

	SetStats(ctx context.Context, stats domain.Stats) error

	// GetCategories returns nil, nil on a miss
	GetCategories(ctx context.Context) ([]string, error)

	SetCategories(ctx context.Context, categories []string) error

	// Invalidate drops every cached aggregate after a write
	Invalidate(ctx context.Context) error
}
