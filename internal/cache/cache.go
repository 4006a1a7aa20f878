package cache

import (
	"context"
	"time"

	"butik/backend/internal/domain"
)

type SuggestionCache interface {
	Get(ctx context.Context, key string) (*domain.PricingSuggestion, bool, error)
	Set(ctx context.Context, key string, value *domain.PricingSuggestion, ttl time.Duration) error
}

type NoopSuggestionCache struct{}

func (NoopSuggestionCache) Get(_ context.Context, _ string) (*domain.PricingSuggestion, bool, error) {
	return nil, false, nil
}

func (NoopSuggestionCache) Set(_ context.Context, _ string, _ *domain.PricingSuggestion, _ time.Duration) error {
	return nil
}
