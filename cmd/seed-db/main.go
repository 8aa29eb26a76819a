// Command seed-db loads the demo catalogue, customers, staff accounts, orders
// and reviews into PostgreSQL.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/deniyaya/teashop/internal/storage/dataset"
	"github.com/deniyaya/teashop/internal/storage/postgres"
)

func main() {
	var (
		databaseURL string
		datasetFile string
		cost        int
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&datasetFile, "dataset", "", "path to a dataset JSON file (defaults to the embedded demo data)")
	flag.IntVar(&cost, "bcrypt-cost", bcrypt.DefaultCost, "bcrypt cost for seeded passwords")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, datasetFile, cost); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func loadDataset(path string, cost int) (*dataset.Dataset, error) {
	if path == "" {
		slog.Info("using embedded demo dataset")
		return dataset.Demo(cost)
	}
	slog.Info("reading dataset file", slog.String("path", path))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read dataset file")
	}
	return dataset.Decode(data, cost)
}

func run(ctx context.Context, databaseURL, datasetFile string, cost int) error {
	ds, err := loadDataset(datasetFile, cost)
	if err != nil {
		return errors.Wrap(err, "load dataset")
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	stats, err := postgres.Seed(ctx, pool, ds)
	if err != nil {
		return errors.Wrap(err, "seed dataset")
	}

	slog.Info("seeded",
		slog.Int("products", stats.Products),
		slog.Int("customers", stats.Customers),
		slog.Int("users", stats.Users),
		slog.Int("orders", stats.Orders),
		slog.Int("feedback", stats.Feedback),
	)
	return nil
}
