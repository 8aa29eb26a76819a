// Command order-import loads historical orders from gzip-compressed JSON
// lines exports into PostgreSQL.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/go-faster/errors"

	"github.com/deniyaya/teashop/internal/orderimport"
	"github.com/deniyaya/teashop/internal/storage/postgres"
	"github.com/deniyaya/teashop/internal/storage/redis"
)

func main() {
	var (
		pattern     string
		databaseURL string
		redisURL    string
		capacity    uint
	)

	flag.StringVar(&pattern, "files", "data/orders-*.jsonl.gz", "glob of gzip JSON lines export files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&redisURL, "redis-url", "", "Redis URL whose report cache is invalidated after the import (or REDIS_URL env)")
	flag.UintVar(&capacity, "expected-orders", 1_000_000, "expected number of order numbers, sizes the duplicate filter")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if redisURL == "" {
		redisURL = os.Getenv("REDIS_URL")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, pattern, databaseURL, redisURL, capacity); err != nil {
		slog.Error("order import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("order import completed successfully")
}

func run(ctx context.Context, pattern, databaseURL, redisURL string, capacity uint) error {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return errors.Wrapf(err, "glob %s", pattern)
	}
	if len(files) == 0 {
		return errors.Errorf("no files match %s", pattern)
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	slog.Info("importing orders", slog.Int("files", len(files)))

	im := &orderimport.Importer{
		Orders:   postgres.NewOrderRepository(pool),
		Logger:   slog.Default(),
		Capacity: capacity,
	}
	stats, err := im.ImportFiles(ctx, files)
	if err != nil {
		return errors.Wrap(err, "import files")
	}

	slog.Info("import finished",
		slog.Int("read", stats.Read),
		slog.Int("imported", stats.Imported),
		slog.Int("duplicates", stats.Duplicates),
		slog.Int("rejected", stats.Rejected),
	)

	if redisURL == "" || stats.Imported == 0 {
		return nil
	}
	rdb, err := redis.NewClient(ctx, redisURL)
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()
	if err := redis.NewReportCache(rdb).Invalidate(ctx); err != nil {
		return errors.Wrap(err, "invalidate report cache")
	}
	slog.Info("report cache invalidated")
	return nil
}
