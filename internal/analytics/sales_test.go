package analytics

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deniyaya/teashop/internal/domain/customer"
	"github.com/deniyaya/teashop/internal/domain/order"
	"github.com/deniyaya/teashop/internal/domain/product"
)

func TestSummarizeSales(t *testing.T) {
	now := time.Date(2024, 2, 10, 15, 0, 0, 0, time.UTC)
	orders := []order.Order{
		newOrder("1", "a", 3750, now),
		newOrder("2", "a", 2700, now),
		newOrder("3", "b", 1850, now),
		newOrder("4", "b", 1000, now),
	}
	orders[1].Status = order.StatusProcessing
	orders[2].Status = order.StatusPending
	orders[3].Status = order.StatusCancelled

	m := SummarizeSales(orders)

	assert.Equal(t, 4, m.TotalOrders)
	assert.True(t, decimal.NewFromInt(9300).Equal(m.TotalRevenue), "got %s", m.TotalRevenue)
	assert.True(t, decimal.NewFromInt(2325).Equal(m.AverageOrderValue), "got %s", m.AverageOrderValue)
	assert.Equal(t, 1, m.CompletedOrders)
	assert.Equal(t, 1, m.PendingOrders)
	assert.Equal(t, 1, m.CancelledOrders)

	empty := SummarizeSales(nil)
	assert.True(t, empty.AverageOrderValue.IsZero())
}

func TestDailySeries(t *testing.T) {
	now := time.Date(2024, 2, 10, 15, 0, 0, 0, time.UTC)
	orders := []order.Order{
		newOrder("today", "a", 500, time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC)),
		newOrder("first", "a", 200, time.Date(2024, 2, 4, 23, 0, 0, 0, time.UTC)),
		newOrder("too-old", "a", 900, time.Date(2024, 2, 3, 12, 0, 0, 0, time.UTC)),
		newOrder("today2", "b", 100, time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)),
	}

	series := DailySeries(orders, now, time.UTC)

	require.Len(t, series, 7)
	assert.Equal(t, time.Date(2024, 2, 4, 0, 0, 0, 0, time.UTC), series[0].Date)
	assert.Equal(t, time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), series[6].Date)
	assert.Equal(t, 1, series[0].Orders)
	assert.Equal(t, 2, series[6].Orders)
	assert.True(t, decimal.NewFromInt(600).Equal(series[6].Revenue))
	for _, d := range series[1:6] {
		assert.Zero(t, d.Orders)
		assert.True(t, d.Revenue.IsZero())
	}
}

func TestDailySeries_Location(t *testing.T) {
	colombo := time.FixedZone("+0530", 5*3600+1800)
	now := time.Date(2024, 2, 10, 15, 0, 0, 0, time.UTC)
	// 20:00 UTC on the 9th is already the 10th in Colombo.
	orders := []order.Order{newOrder("1", "a", 100, time.Date(2024, 2, 9, 20, 0, 0, 0, time.UTC))}

	series := DailySeries(orders, now, colombo)

	assert.Equal(t, 1, series[6].Orders)
	assert.Equal(t, 10, series[6].Date.Day())
}

func TestTopProducts(t *testing.T) {
	var (
		products []product.Product
		orders   []order.Order
	)
	for i := 1; i <= 12; i++ {
		id := fmt.Sprintf("p%d", i)
		products = append(products, newProduct(id, product.BlackTea, int64(i*100), 10, 5))
		orders = append(orders, order.Order{ID: "o" + id, Items: []order.Item{item(id, 1, int64(i*100))}})
	}
	orders = append(orders,
		order.Order{ID: "dup", Items: []order.Item{item("p1", 1, 100)}},
		order.Order{ID: "gone", Items: []order.Item{item("deleted", 100, 100)}},
	)

	got := TopProducts(orders, products)

	require.Len(t, got, 10)
	assert.Equal(t, "p12", got[0].ProductID)
	assert.Equal(t, "Product p12", got[0].Name)
	for _, p := range got {
		assert.NotEqual(t, "deleted", p.ProductID)
		assert.NotEqual(t, "p1", p.ProductID)
	}

	all := TopProducts(orders[12:13], products)
	require.Len(t, all, 1)
	assert.Equal(t, 1, all[0].Quantity)
	assert.True(t, decimal.NewFromInt(100).Equal(all[0].Revenue))
}

func TestTopCustomers(t *testing.T) {
	now := time.Date(2024, 2, 10, 15, 0, 0, 0, time.UTC)
	customers := []customer.Customer{{ID: "a", Name: "Saman Perera"}}
	orders := []order.Order{
		newOrder("o1", "a", 100, now.AddDate(0, 0, -3)),
		newOrder("o2", "a", 200, now.AddDate(0, 0, -1)),
		newOrder("o3", "", 500, now),
		newOrder("o4", "", 50, now),
		newOrder("o5", "ghost", 10, now),
	}

	got := TopCustomers(orders, customers)

	require.Len(t, got, 4)
	assert.Equal(t, UnknownCustomerName, got[0].Name)
	assert.True(t, decimal.NewFromInt(500).Equal(got[0].Revenue))
	assert.Equal(t, "Saman Perera", got[1].Name)
	assert.Equal(t, 2, got[1].Orders)
	assert.Equal(t, now.AddDate(0, 0, -1), got[1].LastOrder)
	assert.Equal(t, UnknownCustomerName, got[2].Name)
	assert.Equal(t, UnknownCustomerName, got[3].Name)
	assert.Equal(t, "ghost", got[3].CustomerID)
}

func TestSalesReport_Window(t *testing.T) {
	now := time.Date(2024, 2, 10, 15, 0, 0, 0, time.UTC)
	orders := []order.Order{
		newOrder("1", "a", 1000, now.AddDate(0, 0, -2)),
		newOrder("2", "a", 5000, now.AddDate(0, 0, -8)),
	}
	w, err := ParseWindow("7d")
	require.NoError(t, err)

	r := SalesReport(orders, nil, nil, w, now, time.UTC)

	assert.Equal(t, 1, r.Metrics.TotalOrders)
	assert.True(t, decimal.NewFromInt(1000).Equal(r.Metrics.TotalRevenue))
	assert.Equal(t, "7d", r.Window.Token)
	assert.Len(t, r.Daily, 7)
}
