package orderimport

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	pgzip "github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/crypto/bcrypt"

	"github.com/deniyaya/teashop/internal/domain/order"
	"github.com/deniyaya/teashop/internal/storage/dataset"
	"github.com/deniyaya/teashop/internal/storage/memory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeGz(t *testing.T, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := pgzip.NewWriter(f)
	_, err = gz.Write([]byte(strings.Join(lines, "\n") + "\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())
	return path
}

func newImporter(t *testing.T) (*Importer, *memory.OrderRepository) {
	t.Helper()
	ds, err := dataset.Demo(bcrypt.MinCost)
	require.NoError(t, err)
	orders := memory.NewOrderRepository(memory.NewFromDataset(ds))
	return &Importer{
		Orders:   orders,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Capacity: 1000,
	}, orders
}

func TestImportFiles(t *testing.T) {
	im, orders := newImporter(t)

	first := writeGz(t, "orders-1.jsonl.gz",
		`{"orderNumber":"DTN-20240110-001","customerId":"1","status":"Completed","createdAt":"2024-01-10T09:00:00Z","items":[{"productId":"1","quantity":2,"price":"1250"},{"productId":"5","quantity":1,"price":"980"}]}`,
		`{"orderNumber":"DTN-20240203-001","customerId":"1","status":"Completed","createdAt":"2024-02-03T09:00:00Z","items":[{"productId":"1","quantity":3,"price":"1250"}]}`,
		``,
		`{"orderNumber":"DTN-20240111-001","status":"Lost","createdAt":"2024-01-11T09:00:00Z","items":[{"productId":"1","quantity":1,"price":"1250"}]}`,
	)
	second := writeGz(t, "orders-2.jsonl.gz",
		`{"orderNumber":"DTN-20240110-001","customerId":"1","status":"Completed","createdAt":"2024-01-10T09:00:00Z","items":[{"productId":"1","quantity":2,"price":"1250"},{"productId":"5","quantity":1,"price":"980"}]}`,
		`{not json`,
		`{"orderNumber":"DTN-20240112-004","customerId":"2","status":"Cancelled","createdAt":"2024-01-12T15:30:00Z","items":[{"productId":"3","quantity":1,"price":"2200"}]}`,
		`{"orderNumber":"DTN-20240113-001","customerId":"2","status":"Pending","createdAt":"2024-01-13T15:30:00Z","items":[{"productId":"3","quantity":0,"price":"2200"}]}`,
	)

	stats, err := im.ImportFiles(context.Background(), []string{first, second})
	require.NoError(t, err)
	assert.Equal(t, Stats{Read: 7, Imported: 2, Duplicates: 2, Rejected: 3}, stats)

	o, err := orders.GetByNumber(context.Background(), "DTN-20240110-001")
	require.NoError(t, err)
	assert.Equal(t, "3480", o.TotalAmount.String())
	assert.Equal(t, order.StatusCompleted, o.Status)
	require.Len(t, o.Items, 2)
	assert.Equal(t, o.ID, o.Items[0].OrderID)

	all, err := orders.List(context.Background(), order.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestImportFiles_MissingFile(t *testing.T) {
	im, _ := newImporter(t)
	_, err := im.ImportFiles(context.Background(), []string{filepath.Join(t.TempDir(), "missing.gz")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open")
}

func TestImportFiles_NotGzip(t *testing.T) {
	im, _ := newImporter(t)
	path := filepath.Join(t.TempDir(), "plain.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"orderNumber":"DTN-20240110-001"}`), 0o600))
	_, err := im.ImportFiles(context.Background(), []string{path})
	require.Error(t, err)
}

func TestRecord_ToOrder(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantErr string
	}{
		{name: "bad number", json: `{"orderNumber":"X-1","status":"Pending","createdAt":"2024-01-10T09:00:00Z","items":[{"productId":"1","quantity":1,"price":"1"}]}`, wantErr: "bad order number"},
		{name: "no items", json: `{"orderNumber":"DTN-20240110-001","status":"Pending","createdAt":"2024-01-10T09:00:00Z"}`, wantErr: "items required"},
		{name: "no date", json: `{"orderNumber":"DTN-20240110-001","status":"Pending","items":[{"productId":"1","quantity":1,"price":"1"}]}`, wantErr: "createdAt"},
		{name: "negative price", json: `{"orderNumber":"DTN-20240110-001","status":"Pending","createdAt":"2024-01-10T09:00:00Z","items":[{"productId":"1","quantity":1,"price":"-1"}]}`, wantErr: "negative price"},
		{name: "missing product", json: `{"orderNumber":"DTN-20240110-001","status":"Pending","createdAt":"2024-01-10T09:00:00Z","items":[{"quantity":1,"price":"1"}]}`, wantErr: "productId"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec Record
			require.NoError(t, json.Unmarshal([]byte(tt.json), &rec))
			_, err := rec.toOrder()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
