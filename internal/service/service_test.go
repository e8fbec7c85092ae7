package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/forkmarkets/relayd/internal/domain"
	"github.com/forkmarkets/relayd/internal/payload"
	"github.com/forkmarkets/relayd/internal/platform/clob"
)

// Shared in-memory fakes for the service tests.

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memOrderStore struct {
	mu     sync.Mutex
	orders map[string]domain.Order

	createErr error
	liveErr   error
	syncErr   map[string]error
}

func newMemOrderStore() *memOrderStore {
	return &memOrderStore{orders: map[string]domain.Order{}}
}

func (m *memOrderStore) Create(_ context.Context, o domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	m.orders[o.ID] = o
	return nil
}

func (m *memOrderStore) GetByID(_ context.Context, id string) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	return o, nil
}

func (m *memOrderStore) ListByUser(_ context.Context, userID string, _ domain.ListOpts) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memOrderStore) ListLive(_ context.Context, limit int) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.liveErr != nil {
		return nil, m.liveErr
	}
	var out []domain.Order
	for _, o := range m.orders {
		if o.Status == domain.OrderStatusLive {
			out = append(out, o)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memOrderStore) ApplySync(_ context.Context, id string, status domain.OrderStatus, sizeMatched float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.syncErr[id]; err != nil {
		return err
	}
	o, ok := m.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	o.Status = status
	o.SizeMatched = sizeMatched
	o.UpdatedAt = time.Now()
	m.orders[id] = o
	return nil
}

func (m *memOrderStore) ListTerminalBefore(_ context.Context, before time.Time) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Order
	for _, o := range m.orders {
		if o.Status.IsTerminal() && o.UpdatedAt.Before(before) {
			out = append(out, o)
		}
	}
	return out, nil
}

type memSettingsStore struct {
	settings domain.Settings
	err      error
	calls    int
}

func (m *memSettingsStore) Get(context.Context) (domain.Settings, error) {
	m.calls++
	if m.err != nil {
		return domain.Settings{}, m.err
	}
	return m.settings, nil
}

type memReferrals struct {
	affiliate string
	err       error
}

func (m *memReferrals) ResolveAffiliate(context.Context, string) (string, error) {
	return m.affiliate, m.err
}

type allowAllLimiter struct{ denied bool }

func (l *allowAllLimiter) Allow(context.Context, string, int, time.Duration) (bool, error) {
	return !l.denied, nil
}

type memBus struct {
	mu       sync.Mutex
	messages [][]byte
}

func (b *memBus) Publish(_ context.Context, _ string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, payload)
	return nil
}

func (b *memBus) Subscribe(context.Context, string) (<-chan []byte, error) {
	ch := make(chan []byte)
	close(ch)
	return ch, nil
}

type fakeRelay struct {
	result clob.SubmitResult
	err    error
	calls  int
	last   payload.Order
}

func (r *fakeRelay) SubmitOrder(_ context.Context, order payload.Order, _ string) (clob.SubmitResult, error) {
	r.calls++
	r.last = order
	if r.err != nil {
		return clob.SubmitResult{}, r.err
	}
	return r.result, nil
}

type fakeFetcher struct {
	remote  []domain.RemoteOrder
	err     error
	fetches int
}

func (f *fakeFetcher) GetOrders(_ context.Context, _ []string) ([]domain.RemoteOrder, error) {
	f.fetches++
	if f.err != nil {
		return nil, f.err
	}
	return f.remote, nil
}

type memAlerter struct {
	mu     sync.Mutex
	alerts []string
}

func (a *memAlerter) NotifyAll(_ context.Context, title, _ string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.alerts = append(a.alerts, title)
	return nil
}
