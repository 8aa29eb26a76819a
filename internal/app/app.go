package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/deniyaya/teashop/internal/domain/auth"
	"github.com/deniyaya/teashop/internal/domain/customer"
	"github.com/deniyaya/teashop/internal/domain/feedback"
	"github.com/deniyaya/teashop/internal/domain/order"
	"github.com/deniyaya/teashop/internal/domain/product"
	"github.com/deniyaya/teashop/internal/handler"
	"github.com/deniyaya/teashop/internal/report"
	"github.com/deniyaya/teashop/pkg/health"
	"github.com/deniyaya/teashop/pkg/httpmiddleware"
)

const serviceName = "teashop-api"

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("storage", cfg.Storage),
		zap.String("timezone", cfg.Timezone),
	)
	loc := cfg.Location()

	healthSvc := health.New()
	repos, err := openRepositories(ctx, lg, cfg, healthSvc)
	if err != nil {
		return errors.Wrap(err, "open storage")
	}
	defer repos.Close()

	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.AddLivenessCheck("gc_pause", time.Second, health.GCMaxPauseCheck(time.Second))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Domain services.
	orderService, err := order.NewService(repos.products, repos.customers, repos.orders,
		order.WithMeter(m.MeterProvider().Meter(serviceName)),
		order.WithLocation(loc),
	)
	if err != nil {
		return errors.Wrap(err, "create order service")
	}
	reportService, err := report.NewService(repos.products, repos.orders, repos.customers,
		report.WithCache(repos.cache, cfg.Reports.CacheTTL),
		report.WithLocation(loc),
		report.WithTracerProvider(m.TracerProvider()),
		report.WithMeterProvider(m.MeterProvider()),
	)
	if err != nil {
		return errors.Wrap(err, "create report service")
	}

	h := handler.NewHandler(handler.Services{
		Auth: auth.NewService(repos.users, repos.customers, repos.revoked, auth.Config{
			Secret: []byte(cfg.JWT.Secret),
			TTL:    cfg.JWT.TTL,
		}),
		Products:  product.NewService(repos.products),
		Orders:    orderService,
		Customers: customer.NewService(repos.customers),
		Feedback:  feedback.NewService(repos.feedback, repos.products),
		Reports:   reportService,
	})

	// Router: health endpoints + API routes on one server.
	root := chi.NewRouter()
	root.Get("/livez", healthSvc.LiveEndpoint)
	root.Get("/readyz", healthSvc.ReadyEndpoint)
	root.Mount("/api", h.Routes())
	routeFinder := httpmiddleware.MakeRouteFinder(root)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(root,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization", httpmiddleware.RequestIDHeader},
				ExposeHeaders:    []string{"Content-Disposition", httpmiddleware.RequestIDHeader},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument(serviceName, routeFinder, m),
			httpmiddleware.LogRequests(routeFinder),
			httpmiddleware.Labeler(routeFinder),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
