package handlers

import (
	"errors"
	"fmt"
	"time"

	"polybet/internal/models"
	"polybet/internal/repository"
	"polybet/internal/service"
)

// ErrMockDatabase имитирует ошибку хранилища
var ErrMockDatabase = errors.New("mock database error")

// ============ MockAdminService ============

// MockAdminService - in-memory реализация AdminServiceInterface
type MockAdminService struct {
	state      models.RiskState
	limits     models.RiskLimits
	strategies map[string]bool
	audit      []*models.AuditEntry

	// errors[op] подставляет ошибку для операции (get_state, audit)
	errors map[string]error
}

var _ service.AdminServiceInterface = (*MockAdminService)(nil)

func NewMockAdminService() *MockAdminService {
	return &MockAdminService{
		state:      models.DefaultRiskState(),
		limits:     models.DefaultRiskLimits(),
		strategies: map[string]bool{"vegas_value": true, "mean_reversion": true},
		errors:     make(map[string]error),
	}
}

func (m *MockAdminService) SetError(op string, err error) {
	m.errors[op] = err
}

func (m *MockAdminService) record(actorID, command string, params map[string]string) {
	m.audit = append(m.audit, &models.AuditEntry{
		ID:        len(m.audit) + 1,
		ActorID:   actorID,
		Command:   command,
		Params:    params,
		CreatedAt: time.Now(),
	})
}

func (m *MockAdminService) GetRiskState() (*models.RiskState, error) {
	if err := m.errors["get_state"]; err != nil {
		return nil, err
	}
	clone := m.state
	return &clone, nil
}

func (m *MockAdminService) GetLimits() models.RiskLimits {
	return m.limits
}

func (m *MockAdminService) SetTradingEnabled(actorID string, enabled bool) (*models.RiskState, error) {
	if err := m.errors["set_trading"]; err != nil {
		return nil, err
	}
	m.state.TradingEnabled = enabled
	m.record(actorID, models.AuditSetTrading, map[string]string{"enabled": fmt.Sprint(enabled)})
	clone := m.state
	return &clone, nil
}

func (m *MockAdminService) SetPaperMode(actorID string, enabled bool) (*models.RiskState, error) {
	if err := m.errors["set_paper"]; err != nil {
		return nil, err
	}
	m.state.PaperMode = enabled
	m.record(actorID, models.AuditSetPaper, map[string]string{"enabled": fmt.Sprint(enabled)})
	clone := m.state
	return &clone, nil
}

func (m *MockAdminService) SetRiskParam(actorID, param string, value float64) (models.RiskLimits, error) {
	switch param {
	case "max_order_size":
		if value <= 0 {
			return m.limits, service.ErrInvalidParam
		}
		m.limits.MaxOrderSize = value
	case "max_open_positions":
		m.limits.MaxOpenPositions = int(value)
	default:
		return m.limits, service.ErrUnknownRiskParam
	}
	m.record(actorID, models.AuditSetRiskParam, map[string]string{"param": param})
	return m.limits, nil
}

func (m *MockAdminService) SetStrategyCap(actorID, strategy string, cap float64) (models.RiskLimits, error) {
	if cap <= 0 {
		return m.limits, service.ErrInvalidParam
	}
	if m.limits.StrategyCaps == nil {
		m.limits.StrategyCaps = make(map[string]float64)
	}
	m.limits.StrategyCaps[strategy] = cap
	m.record(actorID, models.AuditSetRiskParam, map[string]string{"param": "strategy_cap"})
	return m.limits, nil
}

func (m *MockAdminService) ToggleStrategy(actorID, name string, enabled bool) error {
	if _, ok := m.strategies[name]; !ok {
		return errors.New("unknown strategy")
	}
	m.strategies[name] = enabled
	m.record(actorID, models.AuditToggleStrategy, map[string]string{"strategy": name})
	return nil
}

func (m *MockAdminService) GetStrategies() map[string]bool {
	return m.strategies
}

func (m *MockAdminService) GetAuditLog(limit int) ([]*models.AuditEntry, error) {
	if err := m.errors["audit"]; err != nil {
		return nil, err
	}
	if limit <= 0 || limit > len(m.audit) {
		limit = len(m.audit)
	}
	return m.audit[len(m.audit)-limit:], nil
}

// ============ MockOrderService ============

// MockOrderService - in-memory реализация OrderServiceInterface
type MockOrderService struct {
	orders []*models.Order
	fills  []*models.Fill

	errors map[string]error
}

var _ service.OrderServiceInterface = (*MockOrderService)(nil)

func NewMockOrderService() *MockOrderService {
	return &MockOrderService{
		errors: make(map[string]error),
	}
}

func (m *MockOrderService) SetError(op string, err error) {
	m.errors[op] = err
}

func (m *MockOrderService) AddOrder(id, status string) {
	m.orders = append(m.orders, &models.Order{
		ID:       id,
		MarketID: "mkt-1",
		Status:   status,
	})
}

func (m *MockOrderService) GetOrder(id string) (*models.Order, []*models.Fill, error) {
	if err := m.errors["get"]; err != nil {
		return nil, nil, err
	}
	for _, o := range m.orders {
		if o.ID == id {
			var fills []*models.Fill
			for _, f := range m.fills {
				if f.OrderID == id {
					fills = append(fills, f)
				}
			}
			return o, fills, nil
		}
	}
	return nil, nil, repository.ErrOrderNotFound
}

func (m *MockOrderService) GetRecentOrders(limit int) ([]*models.Order, error) {
	if err := m.errors["recent"]; err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if limit > len(m.orders) {
		limit = len(m.orders)
	}
	return m.orders[:limit], nil
}

func (m *MockOrderService) GetOpenOrders() ([]*models.Order, error) {
	if err := m.errors["open"]; err != nil {
		return nil, err
	}
	open := make([]*models.Order, 0)
	for _, o := range m.orders {
		if !models.IsTerminalOrderStatus(o.Status) {
			open = append(open, o)
		}
	}
	return open, nil
}

func (m *MockOrderService) GetStatus() (*service.Status, error) {
	if err := m.errors["status"]; err != nil {
		return nil, err
	}
	open, _ := m.GetOpenOrders()
	var pnl float64
	for _, f := range m.fills {
		pnl += f.Pnl
	}
	return &service.Status{
		OpenPositions: len(open),
		TotalOrders:   len(m.orders),
		DailyPnl:      pnl,
	}, nil
}
