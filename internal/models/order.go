package models

import "time"

// Статусы ордера (жизненный цикл)
//
// pending   - ордер создан, idempotency-ключ записан, клиент ещё не вызван
// submitted - принят внешним клиентом
// open      - подтверждён площадкой, ждёт исполнения
// partial   - частично исполнен
// filled    - исполнен полностью (терминальный)
// cancelled - отменён (терминальный)
// failed    - отклонён площадкой или транспорт исчерпал retry (терминальный)
// unknown   - исход неизвестен (таймаут), ждёт reconciliation
const (
	OrderStatusPending   = "pending"
	OrderStatusSubmitted = "submitted"
	OrderStatusOpen      = "open"
	OrderStatusPartial   = "partial"
	OrderStatusFilled    = "filled"
	OrderStatusCancelled = "cancelled"
	OrderStatusFailed    = "failed"
	OrderStatusUnknown   = "unknown"
)

// IsTerminalOrderStatus возвращает true для терминальных статусов.
// Ордер в unknown НЕ терминален - его ключ нельзя освобождать
// до reconciliation.
func IsTerminalOrderStatus(status string) bool {
	return status == OrderStatusFilled ||
		status == OrderStatusCancelled ||
		status == OrderStatusFailed
}

// Order - ордер, которым владеет ExecutionEngine до терминального статуса
type Order struct {
	ID             string     `json:"id" db:"id"`
	MarketID       string     `json:"market_id" db:"market_id"`
	OutcomeID      string     `json:"outcome_id" db:"outcome_id"`
	Side           string     `json:"side" db:"side"` // buy, sell
	Price          float64    `json:"price" db:"price"`
	Size           float64    `json:"size" db:"size"`
	FilledSize     float64    `json:"filled_size" db:"filled_size"`
	Status         string     `json:"status" db:"status"`
	Strategy       string     `json:"strategy" db:"strategy"`
	IdempotencyKey string     `json:"idempotency_key" db:"idempotency_key"`
	VenueOrderID   string     `json:"venue_order_id,omitempty" db:"venue_order_id"`
	ErrorMessage   string     `json:"error_message,omitempty" db:"error_message"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
	FilledAt       *time.Time `json:"filled_at,omitempty" db:"filled_at"`
}

// Fill - исполнение (частичное или полное) ордера
//
// Реализованная позиция и daily_pnl считаются ТОЛЬКО по fills,
// никогда по факту создания ордера.
type Fill struct {
	ID        string    `json:"id" db:"id"`
	OrderID   string    `json:"order_id" db:"order_id"`
	Price     float64   `json:"price" db:"price"`
	Size      float64   `json:"size" db:"size"`
	Pnl       float64   `json:"pnl" db:"pnl"` // реализованный PnL этого fill
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}

// IdempotencyRecord - запись о принятом ключе операции
type IdempotencyRecord struct {
	Key       string    `json:"key" db:"key"`
	OrderID   string    `json:"order_id" db:"order_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
}

// Статусы результата исполнения
const (
	ExecStatusSubmitted = "submitted"
	ExecStatusDuplicate = "duplicate"
	ExecStatusRejected  = "rejected"
	ExecStatusFailed    = "failed"
	ExecStatusUnknown   = "unknown"
)

// Причины отказа/ошибки исполнения (дополняют причины риск-движка)
const (
	ExecReasonSlippage  = "slippage_exceeded"
	ExecReasonTransport = "transport"
	ExecReasonVenue     = "rejected_by_venue"
	ExecReasonDuplicate = "idempotent_key"
)

// ExecutionResult - результат попытки исполнить сигнал
type ExecutionResult struct {
	Status  string `json:"status"`
	Reason  string `json:"reason,omitempty"`
	OrderID string `json:"order_id,omitempty"`
}
