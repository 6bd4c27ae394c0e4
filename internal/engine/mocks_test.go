package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"polybet/internal/models"
	"polybet/internal/polymarket"
)

var errNotFound = errors.New("not found")

// ============================================================
// In-memory моки хранилищ и клиента площадки
// ============================================================

type mockOrderStore struct {
	mu     sync.Mutex
	orders map[string]*models.Order

	createErr error
}

var _ OrderStore = (*mockOrderStore)(nil)

func newMockOrderStore() *mockOrderStore {
	return &mockOrderStore{orders: make(map[string]*models.Order)}
}

func (m *mockOrderStore) Create(order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	clone := *order
	m.orders[order.ID] = &clone
	return nil
}

func (m *mockOrderStore) GetByID(id string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, errNotFound
	}
	clone := *order
	return &clone, nil
}

func (m *mockOrderStore) GetByIdempotencyKey(key string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, order := range m.orders {
		if order.IdempotencyKey == key {
			clone := *order
			return &clone, nil
		}
	}
	return nil, errNotFound
}

func (m *mockOrderStore) GetByStatus(status string) ([]*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.Order
	for _, order := range m.orders {
		if order.Status == status {
			clone := *order
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (m *mockOrderStore) GetOpen() ([]*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.Order
	for _, order := range m.orders {
		if !models.IsTerminalOrderStatus(order.Status) {
			clone := *order
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (m *mockOrderStore) CountOpen() (int, error) {
	open, _ := m.GetOpen()
	return len(open), nil
}

func (m *mockOrderStore) UpdateStatus(id, status, errorMessage string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return errNotFound
	}
	order.Status = status
	order.ErrorMessage = errorMessage
	return nil
}

func (m *mockOrderStore) UpdateFill(id string, filledSize float64, status string, filledAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return errNotFound
	}
	order.FilledSize = filledSize
	order.Status = status
	order.FilledAt = filledAt
	return nil
}

func (m *mockOrderStore) SetVenueOrderID(id, venueOrderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return errNotFound
	}
	order.VenueOrderID = venueOrderID
	return nil
}

type mockKeyStore struct {
	mu   sync.Mutex
	keys map[string]*models.IdempotencyRecord

	putErr error
}

var _ IdempotencyStore = (*mockKeyStore)(nil)

func newMockKeyStore() *mockKeyStore {
	return &mockKeyStore{keys: make(map[string]*models.IdempotencyRecord)}
}

func (m *mockKeyStore) PutIfAbsent(key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return false, m.putErr
	}
	if _, ok := m.keys[key]; ok {
		return false, nil
	}
	now := time.Now().UTC()
	m.keys[key] = &models.IdempotencyRecord{Key: key, CreatedAt: now, ExpiresAt: now.Add(ttl)}
	return true, nil
}

func (m *mockKeyStore) Get(key string) (*models.IdempotencyRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.keys[key]
	if !ok {
		return nil, errNotFound
	}
	clone := *rec
	return &clone, nil
}

func (m *mockKeyStore) AttachOrder(key, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.keys[key]
	if !ok {
		return errNotFound
	}
	rec.OrderID = orderID
	return nil
}

func (m *mockKeyStore) Release(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.keys[key]; !ok {
		return errNotFound
	}
	delete(m.keys, key)
	return nil
}

func (m *mockKeyStore) DeleteExpired(now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted int64
	for key, rec := range m.keys {
		if rec.ExpiresAt.Before(now) {
			delete(m.keys, key)
			deleted++
		}
	}
	return deleted, nil
}

type mockFillStore struct {
	mu    sync.Mutex
	fills []*models.Fill
}

var _ FillStore = (*mockFillStore)(nil)

func newMockFillStore() *mockFillStore {
	return &mockFillStore{}
}

func (m *mockFillStore) Create(fill *models.Fill) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *fill
	m.fills = append(m.fills, &clone)
	return nil
}

func (m *mockFillStore) SumPnlSince(since time.Time) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum float64
	for _, fill := range m.fills {
		if !fill.Timestamp.Before(since) {
			sum += fill.Pnl
		}
	}
	return sum, nil
}

// mockClient - управляемый клиент площадки
type mockClient struct {
	mu sync.Mutex

	placeResp  *polymarket.PlaceOrderResponse
	placeErr   error
	placeCalls int

	statusResp *polymarket.PlaceOrderResponse
	statusErr  error

	price    float64
	priceErr error
}

var _ polymarket.TradingClient = (*mockClient)(nil)

func (m *mockClient) PlaceOrder(_ context.Context, _ polymarket.PlaceOrderRequest) (*polymarket.PlaceOrderResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.placeCalls++
	if m.placeErr != nil {
		return nil, m.placeErr
	}
	return m.placeResp, nil
}

func (m *mockClient) GetOrderStatus(_ context.Context, _ string) (*polymarket.PlaceOrderResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.statusErr != nil {
		return nil, m.statusErr
	}
	return m.statusResp, nil
}

func (m *mockClient) CancelOrder(_ context.Context, _ string) error { return nil }

func (m *mockClient) GetCurrentPrice(_ context.Context, _, _ string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.priceErr != nil {
		return 0, m.priceErr
	}
	return m.price, nil
}

func (m *mockClient) Close() error { return nil }

func (m *mockClient) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.placeCalls
}
