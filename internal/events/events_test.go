package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"butik/backend/internal/domain"
)

func TestRecordingPublisher(t *testing.T) {
	p := &RecordingPublisher{}
	event := domain.SaleEvent{Type: domain.EventSaleRecorded, Sale: domain.Sale{ID: "sale-1"}}

	require.NoError(t, p.PublishSaleRecorded(context.Background(), event))
	assert.Len(t, p.Events(), 1)

	p.Err = errors.New("broker down")
	assert.Error(t, p.PublishSaleRecorded(context.Background(), event))
	assert.Len(t, p.Events(), 1)
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	assert.NoError(t, p.PublishSaleRecorded(context.Background(), domain.SaleEvent{}))
	assert.NoError(t, p.Close())
}

func TestSaleEventWireShape(t *testing.T) {
	event := domain.SaleEvent{
		Type: domain.EventSaleRecorded,
		Sale: domain.Sale{
			ID:            "sale-1",
			ProductID:     "prod-1",
			QuantitySold:  3,
			PaymentMethod: domain.PaymentCash,
			SaleDate:      time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC),
			TotalProfit:   decimal.NewFromInt(4500),
		},
		OccurredAt: time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC),
	}

	body, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "sale.recorded", decoded["type"])
	sale := decoded["sale"].(map[string]any)
	assert.Equal(t, "prod-1", sale["productId"])
	assert.Equal(t, float64(4500), sale["totalProfit"])
	assert.Equal(t, "2024-05-06T10:00:00Z", sale["saleDate"])
}
