package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deniyaya/teashop/internal/domain/order"
)

func TestParseWindow(t *testing.T) {
	tests := map[string]int{"7d": 7, "30d": 30, "90d": 90, "1y": 365, "": 30}
	for token, days := range tests {
		w, err := ParseWindow(token)
		require.NoError(t, err, token)
		assert.Equal(t, days, w.Days, token)
	}

	_, err := ParseWindow("2w")
	require.ErrorIs(t, err, ErrUnknownWindow)
}

func TestFilterOrders_InclusiveBoundary(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	w, err := ParseWindow("7d")
	require.NoError(t, err)
	cutoff := w.Cutoff(now)
	require.Equal(t, time.Date(2024, 2, 23, 12, 0, 0, 0, time.UTC), cutoff)

	orders := []order.Order{
		{ID: "at-cutoff", CreatedAt: cutoff},
		{ID: "just-before", CreatedAt: cutoff.Add(-time.Nanosecond)},
		{ID: "inside", CreatedAt: now.Add(-time.Hour)},
	}

	got := FilterOrders(orders, w, now)
	require.Len(t, got, 2)
	assert.Equal(t, "at-cutoff", got[0].ID)
	assert.Equal(t, "inside", got[1].ID)
}

func TestFilterOrders_Deterministic(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	orders := []order.Order{
		{ID: "1", CreatedAt: now.AddDate(0, 0, -10)},
		{ID: "2", CreatedAt: now.AddDate(0, 0, -100)},
	}
	w, _ := ParseWindow("90d")

	assert.Equal(t, FilterOrders(orders, w, now), FilterOrders(orders, w, now))
	assert.Len(t, FilterOrders(orders, w, now), 1)
	assert.Empty(t, FilterOrders(nil, w, now))
}
