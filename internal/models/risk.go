package models

import "time"

// Причины решения риск-движка
//
// Порядок проверок фиксирован (см. engine.RiskEngine) - тесты
// проверяют какая именно причина сработала первой.
const (
	ReasonApproved         = "approved"
	ReasonKillSwitch       = "global_kill_switch"
	ReasonStaleData        = "stale_data"
	ReasonMaxDailyLoss     = "max_daily_loss_exceeded"
	ReasonMaxOpenPositions = "max_open_positions"
	ReasonOrderSize        = "order_size_exceeded"
	ReasonPositionSize     = "position_size_exceeded"
	ReasonStrategyCap      = "strategy_cap_exceeded"
	ReasonLowConfidence    = "confidence_below_threshold"
)

// RiskDecision - результат оценки сигнала риск-движком
//
// Отклонение - не ошибка, а ожидаемый структурированный результат.
type RiskDecision struct {
	Approved bool   `json:"approved"`
	Reason   string `json:"reason"`
}

// RiskLimits - лимиты риска, загружаются при старте,
// изменяются только через админ-операцию
type RiskLimits struct {
	MaxOpenPositions int     `json:"max_open_positions" db:"max_open_positions"`
	MaxOrderSize     float64 `json:"max_order_size" db:"max_order_size"`
	MaxPositionSize  float64 `json:"max_position_size" db:"max_position_size"`
	MaxDailyLoss     float64 `json:"max_daily_loss" db:"max_daily_loss"`

	// Лимит размера ордера по стратегиям. Стратегия без записи
	// ограничена MaxOrderSize.
	StrategyCaps map[string]float64 `json:"strategy_caps,omitempty"`
}

// DefaultRiskLimits возвращает консервативные лимиты по умолчанию
func DefaultRiskLimits() RiskLimits {
	return RiskLimits{
		MaxOpenPositions: 10,
		MaxOrderSize:     50.0,
		MaxPositionSize:  100.0,
		MaxDailyLoss:     100.0,
	}
}

// CapForStrategy возвращает лимит размера ордера для стратегии
func (l RiskLimits) CapForStrategy(strategy string) float64 {
	if cap, ok := l.StrategyCaps[strategy]; ok {
		return cap
	}
	return l.MaxOrderSize
}

// RiskState - персистентное состояние риска (singleton, id=1 в БД)
//
// Version используется для compare-and-set при обновлении -
// конкурентные админ-команды не должны терять изменения друг друга.
type RiskState struct {
	TradingEnabled bool      `json:"trading_enabled" db:"trading_enabled"`
	PaperMode      bool      `json:"paper_mode" db:"paper_mode"`
	DailyPnl       float64   `json:"daily_pnl" db:"daily_pnl"`
	OpenPositions  int       `json:"open_positions" db:"open_positions"`
	Version        int64     `json:"version" db:"version"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// DefaultRiskState - fail-safe состояние первого запуска:
// торговля выключена, режим paper
func DefaultRiskState() RiskState {
	return RiskState{
		TradingEnabled: false,
		PaperMode:      true,
	}
}
