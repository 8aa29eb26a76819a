package dataset

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/deniyaya/teashop/internal/domain/auth"
	"github.com/deniyaya/teashop/internal/domain/order"
	"github.com/deniyaya/teashop/internal/domain/product"
)

func TestDemo(t *testing.T) {
	ds, err := Demo(bcrypt.MinCost)
	require.NoError(t, err)

	require.Len(t, ds.Products, 6)
	green := ds.Products[1]
	assert.Equal(t, "Green Tea Supreme", green.Name)
	assert.Equal(t, product.GreenTea, green.Type)
	assert.Equal(t, 8, green.QuantityInStock)
	assert.Equal(t, 15, green.ReorderLevel)
	assert.True(t, decimal.NewFromInt(1550).Equal(green.Price))
	assert.Equal(t, "/products/green-supreme.jpg", green.ImageURL)

	require.Len(t, ds.Customers, 4)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(ds.Customers[0].PasswordHash), []byte("customer123")))

	require.Len(t, ds.Users, 2)
	assert.Equal(t, auth.RoleAdmin, ds.Users[0].Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(ds.Users[0].PasswordHash), []byte("admin123")))

	require.Len(t, ds.Orders, 3)
	for _, o := range ds.Orders {
		total := decimal.Zero
		for _, it := range o.Items {
			assert.Equal(t, o.ID, it.OrderID)
			total = total.Add(it.LineTotal())
		}
		assert.True(t, total.Equal(o.TotalAmount), "order %s: items %s total %s", o.OrderNumber, total, o.TotalAmount)
	}
	assert.Equal(t, "DTN-20240203-001", ds.Orders[0].OrderNumber)
	assert.Equal(t, order.StatusCompleted, ds.Orders[0].Status)

	require.Len(t, ds.Feedback, 2)
	assert.Equal(t, "1", ds.Feedback[0].ProductID)
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode([]byte("{"), bcrypt.MinCost)
	require.Error(t, err)
}
