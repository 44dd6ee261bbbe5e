package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rl1809/warehouse-inventory/internal/core/domain"
	"github.com/rl1809/warehouse-inventory/internal/port"
)

type InventoryService struct {
	repo              port.ItemRepository
	cache             port.CacheRepository
	lowStockThreshold int
	logger            *slog.Logger

	// generation counts writes. A cache fill computed under an older
	// generation is dropped, so it cannot overwrite a later invalidation.
	cacheMu    sync.Mutex
	generation uint64
}

type Option func(*InventoryService)

// WithCache enables caching of statistics and categories.
func WithCache(cache port.CacheRepository) Option {
	return func(s *InventoryService) {
		s.cache = cache
	}
}

func WithLowStockThreshold(threshold int) Option {
	return func(s *InventoryService) {
		s.lowStockThreshold = threshold
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *InventoryService) {
		s.logger = logger
	}
}

func NewInventoryService(repo port.ItemRepository, opts ...Option) *InventoryService {
	s := &InventoryService{
		repo:              repo,
		lowStockThreshold: domain.DefaultLowStockThreshold,
		logger:            slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InventoryService) List(ctx context.Context, filter domain.Filter) ([]domain.Item, error) {
	return s.repo.List(ctx, filter)
}

func (s *InventoryService) Get(ctx context.Context, id int64) (*domain.Item, error) {
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("item %d: %w", id, domain.ErrNotFound)
	}
	return item, nil
}

func (s *InventoryService) Create(ctx context.Context, in domain.ItemInput) (*domain.Item, error) {
	if errs := domain.Validate(in); !errs.Valid() {
		return nil, &domain.ValidationError{Fields: errs}
	}

	item, err := s.repo.Insert(ctx, in.NewItem())
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return item, nil
}

// Update validates the full record, then writes only the fields supplied.
func (s *InventoryService) Update(ctx context.Context, id int64, in domain.ItemInput) (*domain.Item, error) {
	if errs := domain.Validate(in); !errs.Valid() {
		return nil, &domain.ValidationError{Fields: errs}
	}

	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	ok, err := s.repo.Update(ctx, id, in.Patch())
	if err != nil {
		return nil, err
	}
	if !ok {
		// Deleted between the existence check and the write.
		return nil, fmt.Errorf("item %d: %w", id, domain.ErrNotFound)
	}

	s.invalidate(ctx)
	return s.Get(ctx, id)
}

func (s *InventoryService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("item %d: %w", id, domain.ErrNotFound)
	}

	s.invalidate(ctx)
	return nil
}

func (s *InventoryService) Categories(ctx context.Context) ([]string, error) {
	if s.cache != nil {
		cached, err := s.cache.GetCategories(ctx)
		if err != nil {
			s.logger.WarnContext(ctx, "categories cache read failed", "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	gen := s.currentGeneration()
	categories, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, err
	}

	s.fill(ctx, gen, "categories", func() error {
		return s.cache.SetCategories(ctx, categories)
	})
	return categories, nil
}

func (s *InventoryService) Stats(ctx context.Context) (*domain.Stats, error) {
	if s.cache != nil {
		cached, err := s.cache.GetStats(ctx)
		if err != nil {
			s.logger.WarnContext(ctx, "stats cache read failed", "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	gen := s.currentGeneration()
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	value, err := s.repo.TotalValue(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, err
	}
	low, err := s.repo.LowStock(ctx, s.lowStockThreshold)
	if err != nil {
		return nil, err
	}

	stats := domain.Stats{
		TotalItems:    total,
		TotalValue:    value.Round(2),
		Categories:    categories,
		LowStockCount: len(low),
		LowStockItems: low,
	}

	s.fill(ctx, gen, "stats", func() error {
		return s.cache.SetStats(ctx, stats)
	})
	return &stats, nil
}

// invalidate drops cached aggregates. Errors are logged, not returned.
func (s *InventoryService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	s.generation++
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.WarnContext(ctx, "cache invalidation failed", "error", err)
	}
}

func (s *InventoryService) currentGeneration() uint64 {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	return s.generation
}

// fill stores a freshly computed value unless a write happened since gen
// was read.
func (s *InventoryService) fill(ctx context.Context, gen uint64, what string, set func() error) {
	if s.cache == nil {
		return
	}
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	if s.generation != gen {
		s.logger.DebugContext(ctx, "stale cache fill skipped", "key", what)
		return
	}
	if err := set(); err != nil {
		s.logger.WarnContext(ctx, what+" cache write failed", "error", err)
	}
}
