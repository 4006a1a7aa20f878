// Package events announces completed sales to other systems.
package events

import (
	"context"
	"sync"

	"butik/backend/internal/domain"
)

type Publisher interface {
	PublishSaleRecorded(ctx context.Context, event domain.SaleEvent) error
	Close() error
}

type NoopPublisher struct{}

func (NoopPublisher) PublishSaleRecorded(_ context.Context, _ domain.SaleEvent) error {
	return nil
}

func (NoopPublisher) Close() error {
	return nil
}

// RecordingPublisher keeps published events in memory.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []domain.SaleEvent
	Err    error
}

func (r *RecordingPublisher) PublishSaleRecorded(_ context.Context, event domain.SaleEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, event)
	return nil
}

func (r *RecordingPublisher) Events() []domain.SaleEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.SaleEvent(nil), r.events...)
}

func (r *RecordingPublisher) Close() error {
	return nil
}
