package service

import (
	"errors"
	"time"

	"polybet/internal/models"
	"polybet/internal/repository"
)

var errNotFound = errors.New("not found")

// mockRiskStateRepo - состояние риска в памяти с честным CAS
type mockRiskStateRepo struct {
	state models.RiskState

	getErr error
	// conflictsLeft заставляет первые N UpdateCAS вернуть конфликт
	conflictsLeft int
}

var _ RiskStateRepositoryInterface = (*mockRiskStateRepo)(nil)

func (m *mockRiskStateRepo) Get() (*models.RiskState, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	clone := m.state
	return &clone, nil
}

func (m *mockRiskStateRepo) UpdateCAS(state *models.RiskState) error {
	if m.conflictsLeft > 0 {
		m.conflictsLeft--
		return repository.ErrVersionConflict
	}
	if state.Version != m.state.Version {
		return repository.ErrVersionConflict
	}
	m.state = *state
	m.state.Version++
	state.Version++
	return nil
}

// mockAuditRepo копит записи журнала
type mockAuditRepo struct {
	entries   []*models.AuditEntry
	createErr error
}

var _ AuditRepositoryInterface = (*mockAuditRepo)(nil)

func (m *mockAuditRepo) Create(entry *models.AuditEntry) error {
	if m.createErr != nil {
		return m.createErr
	}
	entry.ID = len(m.entries) + 1
	entry.CreatedAt = time.Now()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockAuditRepo) GetRecent(limit int) ([]*models.AuditEntry, error) {
	if limit > len(m.entries) {
		limit = len(m.entries)
	}
	result := make([]*models.AuditEntry, 0, limit)
	for i := len(m.entries) - 1; i >= len(m.entries)-limit; i-- {
		result = append(result, m.entries[i])
	}
	return result, nil
}

// mockLimitsHolder хранит лимиты в памяти
type mockLimitsHolder struct {
	limits models.RiskLimits
}

var _ LimitsHolder = (*mockLimitsHolder)(nil)

func (m *mockLimitsHolder) Limits() models.RiskLimits          { return m.limits }
func (m *mockLimitsHolder) SetLimits(limits models.RiskLimits) { m.limits = limits }

// mockToggler хранит переключатели стратегий
type mockToggler struct {
	enabled map[string]bool
}

var _ StrategyToggler = (*mockToggler)(nil)

func newMockToggler(names ...string) *mockToggler {
	t := &mockToggler{enabled: make(map[string]bool)}
	for _, name := range names {
		t.enabled[name] = true
	}
	return t
}

func (m *mockToggler) SetEnabled(name string, enabled bool) error {
	if _, ok := m.enabled[name]; !ok {
		return errNotFound
	}
	m.enabled[name] = enabled
	return nil
}

func (m *mockToggler) Enabled() map[string]bool {
	return m.enabled
}

// mockOrderRepo - ордера в памяти
type mockOrderRepo struct {
	orders []*models.Order
}

var _ OrderRepositoryInterface = (*mockOrderRepo)(nil)

func (m *mockOrderRepo) GetByID(id string) (*models.Order, error) {
	for _, o := range m.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (m *mockOrderRepo) GetRecent(limit int) ([]*models.Order, error) {
	if limit > len(m.orders) {
		limit = len(m.orders)
	}
	return m.orders[:limit], nil
}

func (m *mockOrderRepo) GetByStatus(status string) ([]*models.Order, error) {
	var result []*models.Order
	for _, o := range m.orders {
		if o.Status == status {
			result = append(result, o)
		}
	}
	return result, nil
}

func (m *mockOrderRepo) GetOpen() ([]*models.Order, error) {
	var result []*models.Order
	for _, o := range m.orders {
		if !models.IsTerminalOrderStatus(o.Status) {
			result = append(result, o)
		}
	}
	return result, nil
}

func (m *mockOrderRepo) CountOpen() (int, error) {
	open, _ := m.GetOpen()
	return len(open), nil
}

func (m *mockOrderRepo) Count() (int, error) {
	return len(m.orders), nil
}

// mockFillRepo - исполнения в памяти
type mockFillRepo struct {
	fills []*models.Fill
}

var _ FillRepositoryInterface = (*mockFillRepo)(nil)

func (m *mockFillRepo) GetByOrderID(orderID string) ([]*models.Fill, error) {
	var result []*models.Fill
	for _, f := range m.fills {
		if f.OrderID == orderID {
			result = append(result, f)
		}
	}
	return result, nil
}

func (m *mockFillRepo) SumPnlSince(since time.Time) (float64, error) {
	var sum float64
	for _, f := range m.fills {
		if !f.Timestamp.Before(since) {
			sum += f.Pnl
		}
	}
	return sum, nil
}

type mockKeyRepo struct {
	count int
}

var _ IdempotencyRepositoryInterface = (*mockKeyRepo)(nil)

func (m *mockKeyRepo) Count() (int, error) {
	return m.count, nil
}
