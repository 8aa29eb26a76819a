package analytics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deniyaya/teashop/internal/domain/customer"
	"github.com/deniyaya/teashop/internal/domain/order"
	"github.com/deniyaya/teashop/internal/domain/product"
)

func TestBuildDashboard(t *testing.T) {
	now := time.Date(2024, 2, 10, 15, 0, 0, 0, time.UTC)
	products := []product.Product{
		newProduct("1", product.GreenTea, 1550, 8, 15),
		newProduct("2", product.BlackTea, 1250, 50, 10),
		newProduct("3", product.OolongTea, 1850, 0, 10),
	}
	customers := []customer.Customer{{ID: "a", Name: "Saman Perera"}}
	var orders []order.Order
	for i := range 6 {
		o := newOrder(string(rune('1'+i)), "a", 1000, now.Add(-time.Duration(i)*6*time.Hour))
		orders = append(orders, o)
	}
	orders[0].Status = order.StatusPending
	orders[5].CustomerID = "gone"
	orders[5].CreatedAt = now.Add(-72 * time.Hour)

	d := BuildDashboard(products, orders, customers, now, time.UTC)

	assert.Equal(t, 3, d.Stats.TotalProducts)
	assert.Equal(t, 2, d.Stats.LowStockItems)
	assert.Equal(t, 1, d.Stats.TotalCustomers)
	assert.Equal(t, 1, d.Stats.PendingOrders)
	// 15:00, 09:00 and 03:00 fall on the 10th.
	assert.Equal(t, 3, d.Stats.TodayOrders)
	assert.True(t, decimal.NewFromInt(3000).Equal(d.Stats.TodayRevenue))

	require.Len(t, d.RecentOrders, 5)
	assert.Equal(t, "1", d.RecentOrders[0].Order.ID)
	assert.Equal(t, "Saman Perera", d.RecentOrders[0].CustomerName)
	for _, r := range d.RecentOrders {
		assert.NotEqual(t, "6", r.Order.ID)
	}

	require.Len(t, d.LowStock, 2)
	assert.Equal(t, "3", d.LowStock[0].Product.ID)
}

func TestBuildDashboard_UnknownCustomer(t *testing.T) {
	now := time.Date(2024, 2, 10, 15, 0, 0, 0, time.UTC)
	orders := []order.Order{newOrder("1", "", 100, now)}

	d := BuildDashboard(nil, orders, nil, now, time.UTC)

	require.Len(t, d.RecentOrders, 1)
	assert.Equal(t, UnknownCustomerName, d.RecentOrders[0].CustomerName)
	assert.Empty(t, d.LowStock)
}

func TestBuildOverview(t *testing.T) {
	now := time.Date(2024, 2, 10, 15, 0, 0, 0, time.UTC)
	products := []product.Product{
		newProduct("1", product.GreenTea, 1550, 8, 15),  // 12400
		newProduct("2", product.BlackTea, 1250, 50, 10), // 62500
		newProduct("3", product.OolongTea, 1850, 0, 10), // 0
	}
	customers := []customer.Customer{
		{ID: "a", Name: "Saman Perera"},
		{ID: "b", Name: "Kumari Silva"},
		{ID: "c", Name: "Rajesh Fernando"},
	}
	orders := []order.Order{
		newOrder("1", "a", 3750, now),
		newOrder("2", "b", 2700, now),
		newOrder("3", "b", 1850, now),
	}

	ov := BuildOverview(products, orders, customers)

	assert.Equal(t, 3, ov.TotalOrders)
	assert.True(t, decimal.NewFromInt(8300).Equal(ov.TotalRevenue))
	assert.Equal(t, 3, ov.TotalProducts)
	assert.Equal(t, 3, ov.TotalCustomers)

	require.Len(t, ov.TopCustomers, 3)
	assert.Equal(t, "b", ov.TopCustomers[0].Customer.ID)
	assert.Equal(t, 2, ov.TopCustomers[0].TotalOrders)
	assert.Equal(t, "c", ov.TopCustomers[2].Customer.ID)
	assert.True(t, ov.TopCustomers[2].TotalSpent.IsZero())

	require.Len(t, ov.TopProducts, 3)
	assert.Equal(t, "2", ov.TopProducts[0].Product.ID)
	assert.True(t, decimal.NewFromInt(62500).Equal(ov.TopProducts[0].StockValue))
}
