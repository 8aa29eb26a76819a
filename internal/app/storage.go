package app

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/deniyaya/teashop/internal/domain/auth"
	"github.com/deniyaya/teashop/internal/domain/customer"
	"github.com/deniyaya/teashop/internal/domain/feedback"
	"github.com/deniyaya/teashop/internal/domain/order"
	"github.com/deniyaya/teashop/internal/domain/product"
	"github.com/deniyaya/teashop/internal/report"
	"github.com/deniyaya/teashop/internal/storage/dataset"
	"github.com/deniyaya/teashop/internal/storage/memory"
	"github.com/deniyaya/teashop/internal/storage/postgres"
	"github.com/deniyaya/teashop/internal/storage/redis"
	"github.com/deniyaya/teashop/pkg/health"
)

// repositories is the storage layer chosen by Config.Storage.
type repositories struct {
	products  product.Repository
	customers customer.Repository
	orders    order.Repository
	feedback  feedback.Repository
	users     auth.UserRepository
	revoked   auth.RevocationStore
	cache     report.Cache

	closers []func()
}

func (r *repositories) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

// openRepositories connects the configured stores and registers their
// readiness checks on hs.
func openRepositories(ctx context.Context, lg *zap.Logger, cfg *Config, hs *health.Health) (_ *repositories, rerr error) {
	repos := &repositories{}
	defer func() {
		if rerr != nil {
			repos.Close()
		}
	}()

	switch cfg.Storage {
	case StoragePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "create db pool")
		}
		repos.closers = append(repos.closers, pool.Close)
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return nil, errors.Wrap(err, "run migrations")
		}
		hs.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))

		repos.products = postgres.NewProductRepository(pool)
		repos.customers = postgres.NewCustomerRepository(pool)
		repos.orders = postgres.NewOrderRepository(pool)
		repos.feedback = postgres.NewFeedbackRepository(pool)
		repos.users = postgres.NewUserRepository(pool)
	case StorageMemory:
		ds, err := dataset.Demo(bcrypt.DefaultCost)
		if err != nil {
			return nil, errors.Wrap(err, "load demo dataset")
		}
		lg.Warn("Using in-memory storage seeded with demo data; changes are lost on restart")
		s := memory.NewFromDataset(ds)
		repos.products = memory.NewProductRepository(s)
		repos.customers = memory.NewCustomerRepository(s)
		repos.orders = memory.NewOrderRepository(s)
		repos.feedback = memory.NewFeedbackRepository(s)
		repos.users = memory.NewUserRepository(s)
		repos.revoked = memory.NewRevocationList(s)
	}

	if cfg.RedisURL == "" {
		lg.Info("Redis not configured, caching reports in process")
		repos.cache = report.NewMemoryCache()
		if repos.revoked == nil {
			repos.revoked = memory.NewRevocationList(memory.New())
		}
		return repos, nil
	}

	rdb, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	repos.closers = append(repos.closers, func() { _ = rdb.Close() })
	hs.AddReadinessCheck("redis", 2*time.Second, func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	repos.cache = redis.NewReportCache(rdb)
	repos.revoked = redis.NewRevocationList(rdb)
	return repos, nil
}
