// Package report loads shop data, runs the analytics engine over it, and
// caches the results until the next write.
package report

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/deniyaya/teashop/internal/analytics"
	"github.com/deniyaya/teashop/internal/domain/customer"
	"github.com/deniyaya/teashop/internal/domain/order"
	"github.com/deniyaya/teashop/internal/domain/product"
	"github.com/deniyaya/teashop/internal/domain/validation"
)

const (
	instrumentationName = "github.com/deniyaya/teashop/internal/report"
	buildTimeout        = 30 * time.Second
)

// Option configures a Service.
type Option func(*Service)

// WithCache caches rendered reports in c for ttl.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		s.ttl = ttl
	}
}

// WithLocation sets the time zone that defines calendar days.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// WithTracerProvider traces report builds on tp.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracer = tp.Tracer(instrumentationName) }
}

// WithMeterProvider records report build durations on mp.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Service) { s.meter = mp.Meter(instrumentationName) }
}

// Service builds dashboard and report views.
type Service struct {
	products  product.Repository
	orders    order.Repository
	customers customer.Repository

	cache  Cache
	ttl    time.Duration
	loc    *time.Location
	now    func() time.Time
	group  singleflight.Group
	epoch  atomic.Int64
	tracer trace.Tracer
	meter  metric.Meter

	duration metric.Float64Histogram
}

// NewService creates a report Service. Without WithCache nothing is cached.
func NewService(
	products product.Repository,
	orders order.Repository,
	customers customer.Repository,
	opts ...Option,
) (*Service, error) {
	s := &Service{
		products:  products,
		orders:    orders,
		customers: customers,
		cache:     NopCache{},
		loc:       time.Local,
		now:       time.Now,
		tracer:    tracenoop.NewTracerProvider().Tracer(instrumentationName),
		meter:     metricnoop.NewMeterProvider().Meter(instrumentationName),
	}
	for _, o := range opts {
		o(s)
	}

	var err error
	if s.duration, err = s.meter.Float64Histogram("teashop.report.duration",
		metric.WithDescription("Time to produce a report"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, errors.Wrap(err, "report duration histogram")
	}
	return s, nil
}

// Invalidate drops every cached report. Call it after any write that can
// change a report.
func (s *Service) Invalidate(ctx context.Context) error {
	s.epoch.Add(1)
	return s.cache.Invalidate(ctx)
}

type snapshot struct {
	// products is the live catalogue; catalogue adds deleted products so
	// historical order lines keep their names.
	products  []product.Product
	catalogue []product.Product
	orders    []order.Order
	customers []customer.Customer
}

func (s *Service) load(ctx context.Context) (*snapshot, error) {
	var snap snapshot
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		if snap.catalogue, err = s.products.ListAll(ctx); err != nil {
			return errors.Wrap(err, "list products")
		}
		snap.products = make([]product.Product, 0, len(snap.catalogue))
		for _, p := range snap.catalogue {
			if p.DeletedAt == nil {
				snap.products = append(snap.products, p)
			}
		}
		return nil
	})
	g.Go(func() (err error) {
		if snap.orders, err = s.orders.List(ctx, order.Filter{}); err != nil {
			return errors.Wrap(err, "list orders")
		}
		return nil
	})
	g.Go(func() (err error) {
		if snap.customers, err = s.customers.List(ctx); err != nil {
			return errors.Wrap(err, "list customers")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// cached returns the report stored under key, building and storing it on a
// miss. Concurrent misses for the same key share one build. Callers arriving
// after Invalidate never join an earlier build, and an earlier build never
// fills the newer generation. The build is detached from the caller that
// started it.
func cached[T any](ctx context.Context, s *Service, name, key string, build func(*snapshot) T) (*T, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "report."+name, trace.WithAttributes(attribute.String("report.key", key)))
	defer span.End()

	hit := false
	defer func() {
		s.duration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
			attribute.String("report", name),
			attribute.Bool("cache.hit", hit),
		))
	}()

	lg := zctx.From(ctx)
	epoch := s.epoch.Load()
	gen, err := s.cache.Generation(ctx)
	cacheable := err == nil
	if err != nil {
		lg.Warn("Report cache generation read failed", zap.String("key", key), zap.Error(err))
		gen = -1
	}
	if cacheable {
		if raw, ok, err := s.cache.Get(ctx, gen, key); err != nil {
			lg.Warn("Report cache read failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			var out T
			if err := json.Unmarshal(raw, &out); err == nil {
				hit = true
				span.SetAttributes(attribute.Bool("cache.hit", true))
				return &out, nil
			}
			lg.Warn("Discarding unreadable cached report", zap.String("key", key))
		}
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	flight := strconv.FormatInt(epoch, 10) + ":" + strconv.FormatInt(gen, 10) + ":" + key
	ch := s.group.DoChan(flight, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), buildTimeout)
		defer cancel()

		snap, err := s.load(ctx)
		if err != nil {
			return nil, err
		}
		out := build(snap)
		if !cacheable {
			return &out, nil
		}
		if raw, err := json.Marshal(out); err != nil {
			lg.Warn("Report not cacheable", zap.String("key", key), zap.Error(err))
		} else if err := s.cache.Set(ctx, gen, key, raw, s.ttl); err != nil {
			lg.Warn("Report cache write failed", zap.String("key", key), zap.Error(err))
		}
		return &out, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, errors.Wrapf(ctx.Err(), "build %s report", name)
	}
	if res.Err != nil {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Err.Error())
		return nil, errors.Wrapf(res.Err, "build %s report", name)
	}
	span.SetAttributes(attribute.Bool("singleflight.shared", res.Shared))
	return res.Val.(*T), nil
}

func (s *Service) today() string {
	return s.now().In(s.loc).Format("2006-01-02")
}

// Dashboard returns the admin landing page.
func (s *Service) Dashboard(ctx context.Context) (*analytics.Dashboard, error) {
	now := s.now()
	return cached(ctx, s, "dashboard", "dashboard:"+s.today(), func(snap *snapshot) analytics.Dashboard {
		return analytics.BuildDashboard(snap.products, snap.orders, snap.customers, now, s.loc)
	})
}

// Overview returns the reports landing page.
func (s *Service) Overview(ctx context.Context) (*analytics.Overview, error) {
	return cached(ctx, s, "overview", "overview", func(snap *snapshot) analytics.Overview {
		return analytics.BuildOverview(snap.products, snap.orders, snap.customers)
	})
}

// InventoryQuery selects and orders the inventory report. An empty Window
// counts sales over all orders.
type InventoryQuery struct {
	Category string
	Sort     string
	Window   string
}

// Inventory returns the stock turnover report.
func (s *Service) Inventory(ctx context.Context, q InventoryQuery) (*analytics.Inventory, error) {
	var v validation.Error
	category := parseCategory(&v, q.Category)
	by := analytics.InventorySort(q.Sort)
	if !by.Valid() {
		v.Add("sort", "must be one of value, turnover, stock")
	}
	var w *analytics.Window
	if q.Window != "" {
		parsed, err := analytics.ParseWindow(q.Window)
		if err != nil {
			v.Add("window", windowMessage)
		}
		w = &parsed
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	now := s.now()
	key := strings.Join([]string{"inventory", string(category), string(by), q.Window}, ":")
	return cached(ctx, s, "inventory", key, func(snap *snapshot) analytics.Inventory {
		orders := snap.orders
		if w != nil {
			orders = analytics.FilterOrders(orders, *w, now)
		}
		return analytics.InventoryReport(snap.products, orders, analytics.InventoryOptions{Category: category, Sort: by})
	})
}

// LowStockQuery filters the restock queue.
type LowStockQuery struct {
	Category string
	Urgency  string
}

// LowStock returns products at or below their reorder level, most urgent
// first.
func (s *Service) LowStock(ctx context.Context, q LowStockQuery) ([]analytics.RestockEntry, error) {
	var v validation.Error
	category := parseCategory(&v, q.Category)
	urgency := analytics.Urgency(q.Urgency)
	if urgency != "" && !urgency.Valid() {
		v.Add("urgency", "must be one of Critical, High, Medium, Low")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	key := strings.Join([]string{"low-stock", string(category), string(urgency)}, ":")
	out, err := cached(ctx, s, "low_stock", key, func(snap *snapshot) []analytics.RestockEntry {
		return analytics.RestockQueue(snap.products, analytics.QueueFilter{Category: category, Urgency: urgency})
	})
	if err != nil {
		return nil, err
	}
	return *out, nil
}

const windowMessage = "must be one of 7d, 30d, 90d, 1y"

// Sales returns the sales report over the window named by token.
func (s *Service) Sales(ctx context.Context, token string) (*analytics.Sales, error) {
	w, err := analytics.ParseWindow(token)
	if err != nil {
		return nil, &validation.Error{Fields: map[string]string{"window": windowMessage}}
	}
	now := s.now()
	return cached(ctx, s, "sales", "sales:"+w.Token+":"+s.today(), func(snap *snapshot) analytics.Sales {
		return analytics.SalesReport(snap.orders, snap.catalogue, snap.customers, w, now, s.loc)
	})
}

// CustomersQuery selects the customer report window and ordering.
type CustomersQuery struct {
	Window string
	Sort   string
}

// Customers returns the customer segmentation report.
func (s *Service) Customers(ctx context.Context, q CustomersQuery) (*analytics.Customers, error) {
	var v validation.Error
	w, err := analytics.ParseWindow(q.Window)
	if err != nil {
		v.Add("window", windowMessage)
	}
	by := analytics.CustomerSort(q.Sort)
	if !by.Valid() {
		v.Add("sort", "must be one of value, orders, recent")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	now := s.now()
	key := strings.Join([]string{"customers", w.Token, string(by), s.today()}, ":")
	return cached(ctx, s, "customers", key, func(snap *snapshot) analytics.Customers {
		return analytics.CustomerReport(snap.customers, snap.orders, w, by, now)
	})
}

// PendingOrders returns Pending orders ranked by priority. It is not cached
// because ages change continuously.
func (s *Service) PendingOrders(ctx context.Context) ([]analytics.PendingOrder, error) {
	orders, err := s.orders.List(ctx, order.Filter{Status: order.StatusPending})
	if err != nil {
		return nil, errors.Wrap(err, "list pending orders")
	}
	return analytics.PendingQueue(orders, s.now()), nil
}

// CustomerTotals returns lifetime totals keyed by customer id.
func (s *Service) CustomerTotals(ctx context.Context, customerID string) (map[string]analytics.CustomerTotals, error) {
	orders, err := s.orders.List(ctx, order.Filter{CustomerID: customerID})
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return analytics.TotalsByCustomer(orders), nil
}

func parseCategory(v *validation.Error, raw string) product.TeaType {
	if raw == "" {
		return ""
	}
	t, err := product.ParseTeaType(raw)
	if err != nil {
		v.Add("category", "unknown tea type")
		return ""
	}
	return t
}
