package analytics

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deniyaya/teashop/internal/domain/product"
)

func newProduct(id string, tt product.TeaType, price int64, stock, reorder int) product.Product {
	return product.Product{
		ID:              id,
		Name:            "Product " + id,
		Type:            tt,
		Price:           decimal.NewFromInt(price),
		QuantityInStock: stock,
		ReorderLevel:    reorder,
		IsActive:        true,
	}
}

func TestClassifyStock(t *testing.T) {
	tests := []struct {
		stock, reorder int
		want           StockStatus
	}{
		{0, 10, OutOfStock},
		{0, 0, OutOfStock},
		{5, 10, LowStock},
		{10, 10, LowStock},
		{11, 10, InStock},
		{3, 0, InStock},
		{8, 15, LowStock},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyStock(tt.stock, tt.reorder), "stock=%d reorder=%d", tt.stock, tt.reorder)
	}
}

func TestClassifyStock_OutOfStockOnlyAtZero(t *testing.T) {
	for reorder := 0; reorder <= 40; reorder++ {
		for stock := 0; stock <= 80; stock++ {
			got := ClassifyStock(stock, reorder)
			assert.Equal(t, stock == 0, got == OutOfStock, "stock=%d reorder=%d", stock, reorder)
			assert.Contains(t, []StockStatus{OutOfStock, LowStock, InStock}, got)
		}
	}
}

func TestRankUrgency(t *testing.T) {
	tests := []struct {
		stock, reorder int
		want           Urgency
	}{
		{0, 15, UrgencyCritical},
		{0, 0, UrgencyCritical},
		{4, 15, UrgencyHigh},   // 4 <= 4.5
		{5, 15, UrgencyMedium}, // 5 > 4.5, 5 <= 9
		{8, 15, UrgencyMedium}, // 8 > 4.5, 8 <= 9
		{9, 15, UrgencyMedium},
		{10, 15, UrgencyLow},
		{3, 10, UrgencyHigh},
		{6, 10, UrgencyMedium},
		{7, 10, UrgencyLow},
		{4, 0, UrgencyLow},
	}
	for _, tt := range tests {
		got := RankUrgency(tt.stock, tt.reorder)
		assert.Equal(t, tt.want, got, "stock=%d reorder=%d", tt.stock, tt.reorder)
	}
	assert.Equal(t, 4, UrgencyCritical.Priority())
	assert.Equal(t, 1, UrgencyLow.Priority())
	assert.True(t, UrgencyMedium.Valid())
	assert.False(t, Urgency("Urgent").Valid())
}

func TestRankUrgency_MonotonicInStock(t *testing.T) {
	for reorder := 0; reorder <= 40; reorder++ {
		prev := RankUrgency(0, reorder).Priority()
		for stock := 1; stock <= 100; stock++ {
			p := RankUrgency(stock, reorder).Priority()
			require.LessOrEqual(t, p, prev, "stock=%d reorder=%d", stock, reorder)
			prev = p
		}
	}
}

func TestRestockQueue(t *testing.T) {
	products := []product.Product{
		newProduct("a", product.GreenTea, 1550, 8, 15),  // Medium
		newProduct("b", product.BlackTea, 1250, 0, 5),   // Critical
		newProduct("c", product.GreenTea, 1800, 6, 12),  // Medium
		newProduct("d", product.WhiteTea, 3500, 20, 10), // not low
		newProduct("e", product.OolongTea, 2200, 4, 10), // Medium
		newProduct("f", product.HerbalTea, 950, 1, 10),  // High
	}

	queue := RestockQueue(products, QueueFilter{})

	ids := make([]string, len(queue))
	for i, e := range queue {
		ids[i] = e.Product.ID
	}
	// Equal priorities keep their input order.
	assert.Equal(t, []string{"b", "f", "a", "c", "e"}, ids)
	assert.Equal(t, 7, queue[2].Shortage)
	assert.Equal(t, LowStock, queue[2].Status)
	assert.Equal(t, OutOfStock, queue[0].Status)

	green := RestockQueue(products, QueueFilter{Category: product.GreenTea})
	require.Len(t, green, 2)
	assert.Equal(t, "a", green[0].Product.ID)

	high := RestockQueue(products, QueueFilter{Urgency: UrgencyHigh})
	require.Len(t, high, 1)
	assert.Equal(t, "f", high[0].Product.ID)

	assert.Empty(t, RestockQueue(nil, QueueFilter{}))
}

func TestStockLevelPercent(t *testing.T) {
	assert.InDelta(t, 26.666, StockLevelPercent(8, 15), 0.01)
	assert.InDelta(t, 50.0, StockLevelPercent(10, 10), 1e-9)
	assert.InDelta(t, 100.0, StockLevelPercent(40, 10), 1e-9)
	assert.InDelta(t, 0.0, StockLevelPercent(0, 0), 1e-9)
	assert.InDelta(t, 100.0, StockLevelPercent(5, 0), 1e-9)
}
