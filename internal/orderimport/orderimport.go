// Package orderimport loads historical orders from gzip-compressed JSON lines
// exports into an order repository.
package orderimport

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/deniyaya/teashop/internal/domain/order"
)

const (
	defaultCapacity = 1_000_000
	bloomFPR        = 0.001
	progressEvery   = 10_000
	maxLineBytes    = 1 << 20
)

// Record is one line of an export file.
type Record struct {
	OrderNumber string       `json:"orderNumber"`
	CustomerID  string       `json:"customerId"`
	Status      order.Status `json:"status"`
	Notes       string       `json:"notes"`
	CreatedAt   time.Time    `json:"createdAt"`
	Items       []RecordItem `json:"items"`
}

// RecordItem is an order line of a Record.
type RecordItem struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// Stats counts the outcome of an import.
type Stats struct {
	Read       int
	Imported   int
	Duplicates int
	Rejected   int
}

// Importer writes records into Orders, skipping order numbers that are
// already stored or repeated across the input.
type Importer struct {
	Orders order.Repository
	Logger *slog.Logger
	// Capacity sizes the duplicate filter; defaults to one million numbers.
	Capacity uint
}

type line struct {
	file string
	no   int
	data []byte
}

// ImportFiles streams every file concurrently and imports the decoded orders
// one at a time.
func (im *Importer) ImportFiles(ctx context.Context, files []string) (Stats, error) {
	var stats Stats
	lg := im.Logger
	if lg == nil {
		lg = slog.Default()
	}

	seen, err := im.knownNumbers(ctx)
	if err != nil {
		return stats, err
	}

	lines := make(chan line)
	g, gctx := errgroup.WithContext(ctx)
	readers, rctx := errgroup.WithContext(gctx)
	for _, f := range files {
		readers.Go(func() error {
			return streamFile(rctx, f, lines)
		})
	}
	g.Go(func() error {
		defer close(lines)
		return readers.Wait()
	})
	g.Go(func() error {
		for l := range lines {
			stats.Read++
			if err := im.importLine(gctx, lg, seen, l, &stats); err != nil {
				return err
			}
			if stats.Read%progressEvery == 0 {
				lg.Info("import progress",
					slog.Int("read", stats.Read),
					slog.Int("imported", stats.Imported),
				)
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return stats, err
	}
	return stats, nil
}

// knownNumbers loads every stored order number into a bloom filter.
func (im *Importer) knownNumbers(ctx context.Context) (*bloom.BloomFilter, error) {
	numbers, err := im.Orders.ListNumbers(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list order numbers")
	}
	capacity := im.Capacity
	if capacity == 0 {
		capacity = defaultCapacity
	}
	capacity = max(capacity, uint(len(numbers))*2)
	filter := bloom.NewWithEstimates(capacity, bloomFPR)
	for _, n := range numbers {
		filter.AddString(n)
	}
	return filter, nil
}

func (im *Importer) importLine(ctx context.Context, lg *slog.Logger, seen *bloom.BloomFilter, l line, stats *Stats) error {
	var rec Record
	if err := json.Unmarshal(l.data, &rec); err != nil {
		stats.Rejected++
		lg.Warn("skipping malformed line", slog.String("file", l.file), slog.Int("line", l.no), slog.String("error", err.Error()))
		return nil
	}
	o, err := rec.toOrder()
	if err != nil {
		stats.Rejected++
		lg.Warn("skipping invalid order",
			slog.String("file", l.file),
			slog.Int("line", l.no),
			slog.String("order", rec.OrderNumber),
			slog.String("error", err.Error()),
		)
		return nil
	}

	// A bloom hit may be a false positive, so confirm against the store.
	if seen.TestString(o.OrderNumber) {
		_, err := im.Orders.GetByNumber(ctx, o.OrderNumber)
		switch {
		case err == nil:
			stats.Duplicates++
			return nil
		case !errors.Is(err, order.ErrNotFound):
			return errors.Wrapf(err, "look up order %s", o.OrderNumber)
		}
	}

	if err := im.Orders.Import(ctx, o); err != nil {
		return errors.Wrapf(err, "import order %s", o.OrderNumber)
	}
	seen.AddString(o.OrderNumber)
	stats.Imported++
	return nil
}

func (r Record) toOrder() (*order.Order, error) {
	if _, _, ok := order.ParseNumber(r.OrderNumber); !ok {
		return nil, errors.Errorf("bad order number %q", r.OrderNumber)
	}
	if !r.Status.Valid() {
		return nil, errors.Errorf("unknown status %q", r.Status)
	}
	if r.CreatedAt.IsZero() {
		return nil, errors.New("createdAt is required")
	}
	if len(r.Items) == 0 {
		return nil, order.ErrEmptyItems
	}

	o := &order.Order{
		ID:          uuid.New().String(),
		OrderNumber: r.OrderNumber,
		CustomerID:  r.CustomerID,
		Status:      r.Status,
		TotalAmount: decimal.Zero,
		Notes:       r.Notes,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.CreatedAt,
	}
	for _, it := range r.Items {
		if it.ProductID == "" {
			return nil, errors.New("item productId is required")
		}
		if it.Quantity <= 0 {
			return nil, &order.InvalidQuantityError{ProductID: it.ProductID}
		}
		if it.Price.IsNegative() {
			return nil, errors.Errorf("negative price for %s", it.ProductID)
		}
		item := order.Item{
			ID:        uuid.New().String(),
			OrderID:   o.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
		}
		o.Items = append(o.Items, item)
		o.TotalAmount = o.TotalAmount.Add(item.LineTotal())
	}
	return o, nil
}

// streamFile sends every non-empty line of a gzip-compressed file to out.
func streamFile(ctx context.Context, path string, out chan<- line) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	return scanLines(ctx, path, gz, out)
}

func scanLines(ctx context.Context, name string, r io.Reader, out chan<- line) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	no := 0
	for scanner.Scan() {
		no++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		data := append([]byte(nil), scanner.Bytes()...)
		select {
		case out <- line{file: name, no: no, data: data}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", name)
	}
	return nil
}
