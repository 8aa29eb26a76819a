package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/deniyaya/teashop/internal/analytics"
	"github.com/deniyaya/teashop/internal/domain/customer"
	"github.com/deniyaya/teashop/internal/domain/feedback"
	"github.com/deniyaya/teashop/internal/domain/order"
	"github.com/deniyaya/teashop/internal/domain/product"
)

// amount is a currency value rendered with two fraction digits.
type amount decimal.Decimal

func (a amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + decimal.Decimal(a).StringFixed(2) + `"`), nil
}

func (a *amount) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	*a = amount(d)
	return nil
}

type productResponse struct {
	ID              string                `json:"id"`
	Name            string                `json:"name"`
	Type            product.TeaType       `json:"type"`
	Description     string                `json:"description"`
	Price           amount                `json:"price"`
	QuantityInStock int                   `json:"quantityInStock"`
	ReorderLevel    int                   `json:"reorderLevel"`
	Unit            string                `json:"unit"`
	ImageURL        string                `json:"imageUrl,omitempty"`
	IsActive        bool                  `json:"isActive"`
	StockStatus     analytics.StockStatus `json:"stockStatus"`
	CreatedAt       time.Time             `json:"createdAt"`
	UpdatedAt       time.Time             `json:"updatedAt"`
}

func toProduct(p product.Product) productResponse {
	return productResponse{
		ID:              p.ID,
		Name:            p.Name,
		Type:            p.Type,
		Description:     p.Description,
		Price:           amount(p.Price),
		QuantityInStock: p.QuantityInStock,
		ReorderLevel:    p.ReorderLevel,
		Unit:            p.Unit,
		ImageURL:        p.ImageURL,
		IsActive:        p.IsActive,
		StockStatus:     analytics.ClassifyStock(p.QuantityInStock, p.ReorderLevel),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

type catalogueResponse struct {
	productResponse
	HasReviewed bool `json:"hasReviewed"`
}

type adjustmentResponse struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	Quantity  int       `json:"quantity"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"createdAt"`
}

func toAdjustment(a product.Adjustment) adjustmentResponse {
	return adjustmentResponse{
		ID:        a.ID,
		ProductID: a.ProductID,
		Quantity:  a.Delta,
		Reason:    a.Reason,
		CreatedAt: a.CreatedAt,
	}
}

type orderItemResponse struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Price     amount `json:"price"`
	LineTotal amount `json:"lineTotal"`
}

type orderResponse struct {
	ID          string              `json:"id"`
	OrderNumber string              `json:"orderNumber"`
	CustomerID  string              `json:"customerId,omitempty"`
	UserID      string              `json:"userId,omitempty"`
	Status      order.Status        `json:"status"`
	TotalAmount amount              `json:"totalAmount"`
	Notes       string              `json:"notes,omitempty"`
	Items       []orderItemResponse `json:"items"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

func toOrder(o order.Order) orderResponse {
	resp := orderResponse{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		CustomerID:  o.CustomerID,
		UserID:      o.UserID,
		Status:      o.Status,
		TotalAmount: amount(o.TotalAmount),
		Notes:       o.Notes,
		Items:       make([]orderItemResponse, len(o.Items)),
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
	for i, it := range o.Items {
		resp.Items[i] = orderItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     amount(it.Price),
			LineTotal: amount(it.LineTotal()),
		}
	}
	return resp
}

func toOrders(orders []order.Order) []orderResponse {
	out := make([]orderResponse, len(orders))
	for i, o := range orders {
		out[i] = toOrder(o)
	}
	return out
}

type customerResponse struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone,omitempty"`
	Address       string     `json:"address,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	TotalOrders   int        `json:"totalOrders"`
	TotalSpent    amount     `json:"totalSpent"`
	LastOrderDate *time.Time `json:"lastOrderDate,omitempty"`
}

// toCustomer renders c with its derived order totals; customers without
// orders get zero totals.
func toCustomer(c customer.Customer, totals map[string]analytics.CustomerTotals) customerResponse {
	t := totals[c.ID]
	return customerResponse{
		ID:            c.ID,
		Name:          c.Name,
		Email:         c.Email,
		Phone:         c.Phone,
		Address:       c.Address,
		CreatedAt:     c.CreatedAt,
		TotalOrders:   t.TotalOrders,
		TotalSpent:    amount(t.TotalSpent),
		LastOrderDate: t.LastOrderDate,
	}
}

type feedbackResponse struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customerId"`
	ProductID  string    `json:"productId"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toFeedback(f feedback.Feedback) feedbackResponse {
	return feedbackResponse{
		ID:         f.ID,
		CustomerID: f.CustomerID,
		ProductID:  f.ProductID,
		Rating:     f.Rating,
		Comment:    f.Comment,
		CreatedAt:  f.CreatedAt,
	}
}

type restockResponse struct {
	Product  productResponse       `json:"product"`
	Status   analytics.StockStatus `json:"status"`
	Urgency  analytics.Urgency     `json:"urgency"`
	Shortage int                   `json:"shortage"`
}

func toRestock(entries []analytics.RestockEntry) []restockResponse {
	out := make([]restockResponse, len(entries))
	for i, e := range entries {
		out[i] = restockResponse{
			Product:  toProduct(e.Product),
			Status:   e.Status,
			Urgency:  e.Urgency,
			Shortage: e.Shortage,
		}
	}
	return out
}

type dashboardStats struct {
	TotalProducts  int    `json:"totalProducts"`
	LowStockItems  int    `json:"lowStockItems"`
	TodayOrders    int    `json:"todayOrders"`
	TodayRevenue   amount `json:"todayRevenue"`
	TotalCustomers int    `json:"totalCustomers"`
	PendingOrders  int    `json:"pendingOrders"`
}

type recentOrderResponse struct {
	orderResponse
	CustomerName string `json:"customerName"`
}

type dashboardResponse struct {
	Stats        dashboardStats        `json:"stats"`
	RecentOrders []recentOrderResponse `json:"recentOrders"`
	LowStock     []restockResponse     `json:"lowStock"`
}

func toDashboard(d *analytics.Dashboard) dashboardResponse {
	resp := dashboardResponse{
		Stats: dashboardStats{
			TotalProducts:  d.Stats.TotalProducts,
			LowStockItems:  d.Stats.LowStockItems,
			TodayOrders:    d.Stats.TodayOrders,
			TodayRevenue:   amount(d.Stats.TodayRevenue),
			TotalCustomers: d.Stats.TotalCustomers,
			PendingOrders:  d.Stats.PendingOrders,
		},
		RecentOrders: make([]recentOrderResponse, len(d.RecentOrders)),
		LowStock:     toRestock(d.LowStock),
	}
	for i, r := range d.RecentOrders {
		resp.RecentOrders[i] = recentOrderResponse{orderResponse: toOrder(r.Order), CustomerName: r.CustomerName}
	}
	return resp
}

type customerSpendResponse struct {
	CustomerID    string     `json:"customerId"`
	Name          string     `json:"name"`
	TotalOrders   int        `json:"totalOrders"`
	TotalSpent    amount     `json:"totalSpent"`
	LastOrderDate *time.Time `json:"lastOrderDate,omitempty"`
}

type productValueResponse struct {
	ProductID  string `json:"productId"`
	Name       string `json:"name"`
	Stock      int    `json:"quantityInStock"`
	StockValue amount `json:"stockValue"`
}

type overviewResponse struct {
	TotalRevenue      amount                  `json:"totalRevenue"`
	TotalOrders       int                     `json:"totalOrders"`
	TotalProducts     int                     `json:"totalProducts"`
	TotalCustomers    int                     `json:"totalCustomers"`
	AverageOrderValue amount                  `json:"averageOrderValue"`
	TopCustomers      []customerSpendResponse `json:"topCustomers"`
	TopProducts       []productValueResponse  `json:"topProducts"`
}

func toOverview(o *analytics.Overview) overviewResponse {
	resp := overviewResponse{
		TotalRevenue:      amount(o.TotalRevenue),
		TotalOrders:       o.TotalOrders,
		TotalProducts:     o.TotalProducts,
		TotalCustomers:    o.TotalCustomers,
		AverageOrderValue: amount(o.AverageOrderValue),
		TopCustomers:      make([]customerSpendResponse, len(o.TopCustomers)),
		TopProducts:       make([]productValueResponse, len(o.TopProducts)),
	}
	for i, c := range o.TopCustomers {
		resp.TopCustomers[i] = customerSpendResponse{
			CustomerID:    c.Customer.ID,
			Name:          c.Customer.Name,
			TotalOrders:   c.TotalOrders,
			TotalSpent:    amount(c.TotalSpent),
			LastOrderDate: c.LastOrderDate,
		}
	}
	for i, p := range o.TopProducts {
		resp.TopProducts[i] = productValueResponse{
			ProductID:  p.Product.ID,
			Name:       p.Product.Name,
			Stock:      p.Product.QuantityInStock,
			StockValue: amount(p.StockValue),
		}
	}
	return resp
}

type inventoryMetrics struct {
	TotalProducts     int    `json:"totalProducts"`
	TotalStockValue   amount `json:"totalStockValue"`
	AverageStockValue amount `json:"averageStockValue"`
	LowStockItems     int    `json:"lowStockItems"`
	OutOfStockItems   int    `json:"outOfStockItems"`
	OverstockItems    int    `json:"overstockItems"`
	FastMovingItems   int    `json:"fastMovingItems"`
	SlowMovingItems   int    `json:"slowMovingItems"`
}

type categoryResponse struct {
	Category   product.TeaType `json:"category"`
	Count      int             `json:"count"`
	Value      amount          `json:"value"`
	Quantity   int             `json:"quantity"`
	Percentage float64         `json:"percentage"`
}

type turnoverResponse struct {
	Product      productResponse           `json:"product"`
	UnitsSold    int                       `json:"unitsSold"`
	TurnoverRate float64                   `json:"turnoverRate"`
	Movement     analytics.Movement        `json:"movement"`
	Overstock    bool                      `json:"isOverstock"`
	LowStock     bool                      `json:"isLowStock"`
	StockValue   amount                    `json:"stockValue"`
	Status       analytics.InventoryStatus `json:"status"`
	StockPercent float64                   `json:"stockPercent"`
}

type inventoryResponse struct {
	Metrics    inventoryMetrics   `json:"metrics"`
	Categories []categoryResponse `json:"categories"`
	Items      []turnoverResponse `json:"items"`
}

func toInventory(inv *analytics.Inventory) inventoryResponse {
	m := inv.Metrics
	resp := inventoryResponse{
		Metrics: inventoryMetrics{
			TotalProducts:     m.TotalProducts,
			TotalStockValue:   amount(m.TotalStockValue),
			AverageStockValue: amount(m.AverageStockValue),
			LowStockItems:     m.LowStockItems,
			OutOfStockItems:   m.OutOfStockItems,
			OverstockItems:    m.OverstockItems,
			FastMovingItems:   m.FastMovingItems,
			SlowMovingItems:   m.SlowMovingItems,
		},
		Categories: make([]categoryResponse, len(inv.Categories)),
		Items:      make([]turnoverResponse, len(inv.Items)),
	}
	for i, c := range inv.Categories {
		resp.Categories[i] = categoryResponse{
			Category:   c.Category,
			Count:      c.Count,
			Value:      amount(c.Value),
			Quantity:   c.Quantity,
			Percentage: c.Percentage,
		}
	}
	for i, t := range inv.Items {
		resp.Items[i] = turnoverResponse{
			Product:      toProduct(t.Product),
			UnitsSold:    t.UnitsSold,
			TurnoverRate: t.Rate,
			Movement:     t.Movement,
			Overstock:    t.Overstock,
			LowStock:     t.IsLowStock,
			StockValue:   amount(t.StockValue),
			Status:       t.Status,
			StockPercent: t.StockPercent,
		}
	}
	return resp
}

type salesMetrics struct {
	TotalRevenue      amount `json:"totalRevenue"`
	TotalOrders       int    `json:"totalOrders"`
	AverageOrderValue amount `json:"averageOrderValue"`
	CompletedOrders   int    `json:"completedOrders"`
	PendingOrders     int    `json:"pendingOrders"`
	CancelledOrders   int    `json:"cancelledOrders"`
}

type dailySalesResponse struct {
	Date    string `json:"date"`
	Revenue amount `json:"revenue"`
	Orders  int    `json:"orders"`
}

type productSalesResponse struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Type      product.TeaType `json:"type"`
	Quantity  int             `json:"quantity"`
	Revenue   amount          `json:"revenue"`
	Orders    int             `json:"orders"`
}

type customerSalesResponse struct {
	CustomerID string    `json:"customerId"`
	Name       string    `json:"name"`
	Orders     int       `json:"orders"`
	Revenue    amount    `json:"revenue"`
	LastOrder  time.Time `json:"lastOrder"`
}

type salesResponse struct {
	Window    string                  `json:"window"`
	Metrics   salesMetrics            `json:"metrics"`
	Daily     []dailySalesResponse    `json:"daily"`
	Products  []productSalesResponse  `json:"topProducts"`
	Customers []customerSalesResponse `json:"topCustomers"`
}

func toSales(s *analytics.Sales) salesResponse {
	m := s.Metrics
	resp := salesResponse{
		Window: s.Window.Token,
		Metrics: salesMetrics{
			TotalRevenue:      amount(m.TotalRevenue),
			TotalOrders:       m.TotalOrders,
			AverageOrderValue: amount(m.AverageOrderValue),
			CompletedOrders:   m.CompletedOrders,
			PendingOrders:     m.PendingOrders,
			CancelledOrders:   m.CancelledOrders,
		},
		Daily:     make([]dailySalesResponse, len(s.Daily)),
		Products:  make([]productSalesResponse, len(s.Products)),
		Customers: make([]customerSalesResponse, len(s.Customers)),
	}
	for i, d := range s.Daily {
		resp.Daily[i] = dailySalesResponse{Date: d.Date.Format(time.DateOnly), Revenue: amount(d.Revenue), Orders: d.Orders}
	}
	for i, p := range s.Products {
		resp.Products[i] = productSalesResponse{
			ProductID: p.ProductID,
			Name:      p.Name,
			Type:      p.Type,
			Quantity:  p.Quantity,
			Revenue:   amount(p.Revenue),
			Orders:    p.Orders,
		}
	}
	for i, c := range s.Customers {
		resp.Customers[i] = customerSalesResponse{
			CustomerID: c.CustomerID,
			Name:       c.Name,
			Orders:     c.Orders,
			Revenue:    amount(c.Revenue),
			LastOrder:  c.LastOrder,
		}
	}
	return resp
}

type customerMetrics struct {
	TotalCustomers        int     `json:"totalCustomers"`
	ActiveCustomers       int     `json:"activeCustomers"`
	NewCustomers          int     `json:"newCustomers"`
	ReturningCustomers    int     `json:"returningCustomers"`
	TotalRevenue          amount  `json:"totalRevenue"`
	TotalOrders           int     `json:"totalOrders"`
	AverageOrderValue     amount  `json:"averageOrderValue"`
	CustomerLifetimeValue amount  `json:"customerLifetimeValue"`
	RepeatCustomerRate    float64 `json:"repeatCustomerRate"`
	ChurnRate             float64 `json:"churnRate"`
}

type segmentResponse struct {
	Segment       analytics.Segment `json:"segment"`
	Count         int               `json:"count"`
	Percentage    float64           `json:"percentage"`
	TotalRevenue  amount            `json:"totalRevenue"`
	AvgOrderValue amount            `json:"avgOrderValue"`
}

type customerSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type customerStatsResponse struct {
	Customer           customerSummary   `json:"customer"`
	TotalOrders        int               `json:"totalOrders"`
	TotalSpent         amount            `json:"totalSpent"`
	AvgOrderValue      amount            `json:"avgOrderValue"`
	LastOrderDate      *time.Time        `json:"lastOrderDate,omitempty"`
	DaysSinceLastOrder *int              `json:"daysSinceLastOrder,omitempty"`
	Segment            analytics.Segment `json:"segment"`
	Risk               analytics.Risk    `json:"risk"`
	IsActive           bool              `json:"isActive"`
}

type customersReportResponse struct {
	Window    string                  `json:"window"`
	Metrics   customerMetrics         `json:"metrics"`
	Segments  []segmentResponse       `json:"segments"`
	Customers []customerStatsResponse `json:"customers"`
}

func toCustomersReport(r *analytics.Customers) customersReportResponse {
	m := r.Metrics
	resp := customersReportResponse{
		Window: r.Window.Token,
		Metrics: customerMetrics{
			TotalCustomers:        m.TotalCustomers,
			ActiveCustomers:       m.ActiveCustomers,
			NewCustomers:          m.NewCustomers,
			ReturningCustomers:    m.ReturningCustomers,
			TotalRevenue:          amount(m.TotalRevenue),
			TotalOrders:           m.TotalOrders,
			AverageOrderValue:     amount(m.AverageOrderValue),
			CustomerLifetimeValue: amount(m.CustomerLifetimeValue),
			RepeatCustomerRate:    m.RepeatCustomerRate,
			ChurnRate:             m.ChurnRate,
		},
		Segments:  make([]segmentResponse, len(r.Segments)),
		Customers: make([]customerStatsResponse, len(r.Customers)),
	}
	for i, s := range r.Segments {
		resp.Segments[i] = segmentResponse{
			Segment:       s.Segment,
			Count:         s.Count,
			Percentage:    s.Percentage,
			TotalRevenue:  amount(s.TotalRevenue),
			AvgOrderValue: amount(s.AvgOrderValue),
		}
	}
	for i, s := range r.Customers {
		resp.Customers[i] = customerStatsResponse{
			Customer:           customerSummary{ID: s.Customer.ID, Name: s.Customer.Name, Email: s.Customer.Email, Phone: s.Customer.Phone},
			TotalOrders:        s.TotalOrders,
			TotalSpent:         amount(s.TotalSpent),
			AvgOrderValue:      amount(s.AvgOrderValue),
			LastOrderDate:      s.LastOrderDate,
			DaysSinceLastOrder: s.DaysSinceLastOrder,
			Segment:            s.Segment,
			Risk:               s.Risk,
			IsActive:           s.IsActive,
		}
	}
	return resp
}

type pendingOrderResponse struct {
	orderResponse
	Priority analytics.OrderPriority `json:"priority"`
	AgeDays  int                     `json:"ageDays"`
}

func toPending(queue []analytics.PendingOrder) []pendingOrderResponse {
	out := make([]pendingOrderResponse, len(queue))
	for i, p := range queue {
		out[i] = pendingOrderResponse{orderResponse: toOrder(p.Order), Priority: p.Priority, AgeDays: p.AgeDays}
	}
	return out
}
