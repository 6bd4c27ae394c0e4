package service

import (
	"time"

	"polybet/internal/models"
)

// RiskStateRepositoryInterface определяет интерфейс репозитория состояния риска
type RiskStateRepositoryInterface interface {
	Get() (*models.RiskState, error)
	UpdateCAS(state *models.RiskState) error
}

// OrderRepositoryInterface определяет интерфейс репозитория ордеров
type OrderRepositoryInterface interface {
	GetByID(id string) (*models.Order, error)
	GetRecent(limit int) ([]*models.Order, error)
	GetByStatus(status string) ([]*models.Order, error)
	GetOpen() ([]*models.Order, error)
	CountOpen() (int, error)
	Count() (int, error)
}

// FillRepositoryInterface определяет интерфейс репозитория исполнений
type FillRepositoryInterface interface {
	GetByOrderID(orderID string) ([]*models.Fill, error)
	SumPnlSince(since time.Time) (float64, error)
}

// AuditRepositoryInterface определяет интерфейс журнала админ-команд
type AuditRepositoryInterface interface {
	Create(entry *models.AuditEntry) error
	GetRecent(limit int) ([]*models.AuditEntry, error)
}

// IdempotencyRepositoryInterface определяет интерфейс репозитория ключей
type IdempotencyRepositoryInterface interface {
	Count() (int, error)
}

// StrategyToggler управляет переключателями стратегий
type StrategyToggler interface {
	SetEnabled(name string, enabled bool) error
	Enabled() map[string]bool
}

// LimitsHolder даёт доступ к лимитам риск-движка
type LimitsHolder interface {
	Limits() models.RiskLimits
	SetLimits(limits models.RiskLimits)
}

// AdminServiceInterface определяет интерфейс админ-сервиса для API handlers
type AdminServiceInterface interface {
	GetRiskState() (*models.RiskState, error)
	GetLimits() models.RiskLimits
	SetTradingEnabled(actorID string, enabled bool) (*models.RiskState, error)
	SetPaperMode(actorID string, enabled bool) (*models.RiskState, error)
	SetRiskParam(actorID, param string, value float64) (models.RiskLimits, error)
	SetStrategyCap(actorID, strategy string, cap float64) (models.RiskLimits, error)
	ToggleStrategy(actorID, name string, enabled bool) error
	GetStrategies() map[string]bool
	GetAuditLog(limit int) ([]*models.AuditEntry, error)
}

var _ AdminServiceInterface = (*AdminService)(nil)

// OrderServiceInterface определяет интерфейс сервиса ордеров для API handlers
type OrderServiceInterface interface {
	GetOrder(id string) (*models.Order, []*models.Fill, error)
	GetRecentOrders(limit int) ([]*models.Order, error)
	GetOpenOrders() ([]*models.Order, error)
	GetStatus() (*Status, error)
}

var _ OrderServiceInterface = (*OrderService)(nil)
