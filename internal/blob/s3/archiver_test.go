package s3blob

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/forkmarkets/relayd/internal/domain"
)

type stubArchiveStore struct {
	orders []domain.Order
}

func (s *stubArchiveStore) ListTerminalBefore(context.Context, time.Time) ([]domain.Order, error) {
	return s.orders, nil
}

type captureWriter struct {
	path string
	body string
	puts int
}

func (w *captureWriter) Put(_ context.Context, path string, data io.Reader, _ string) error {
	b, _ := io.ReadAll(data)
	w.path = path
	w.body = string(b)
	w.puts++
	return nil
}

func TestArchiveOrders(t *testing.T) {
	store := &stubArchiveStore{orders: []domain.Order{
		{ID: "o1", Status: domain.OrderStatusMatched},
		{ID: "o2", Status: domain.OrderStatusUnmatched},
	}}
	writer := &captureWriter{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cutoff := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	count, err := NewArchiver(writer, store, logger).ArchiveOrders(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
	if writer.path != "archive/orders/2025-01.jsonl" {
		t.Fatalf("path = %s", writer.path)
	}
	if lines := strings.Count(strings.TrimRight(writer.body, "\n"), "\n") + 1; lines != 2 {
		t.Fatalf("jsonl lines = %d, body = %q", lines, writer.body)
	}
}

func TestArchiveOrdersEmptySkipsUpload(t *testing.T) {
	writer := &captureWriter{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	count, err := NewArchiver(writer, &stubArchiveStore{}, logger).ArchiveOrders(context.Background(), time.Now())
	if err != nil || count != 0 {
		t.Fatalf("count = %d, err = %v", count, err)
	}
	if writer.puts != 0 {
		t.Fatal("uploaded an empty archive")
	}
}
