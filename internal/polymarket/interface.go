package polymarket

import (
	"context"

	"polybet/internal/models"
)

// Стороны ордера на площадке
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// Статусы ордера в ответе площадки
const (
	VenueStatusOpen      = "open"
	VenueStatusFilled    = "filled"
	VenueStatusPartial   = "partial"
	VenueStatusCancelled = "cancelled"
	VenueStatusRejected  = "rejected"
)

// PlaceOrderRequest - запрос на размещение лимитного ордера
type PlaceOrderRequest struct {
	MarketID      string  `json:"market_id"`
	OutcomeID     string  `json:"outcome_id"`
	Side          string  `json:"side"` // buy, sell
	Price         float64 `json:"price"`
	Size          float64 `json:"size"`
	ClientOrderID string  `json:"client_order_id"` // идемпотентный ключ операции
}

// PlaceOrderResponse - ответ площадки на размещение/запрос статуса
type PlaceOrderResponse struct {
	VenueOrderID string  `json:"venue_order_id"`
	Status       string  `json:"status"`
	FilledSize   float64 `json:"filled_size"`
	AvgPrice     float64 `json:"avg_price"`
}

// TradingClient определяет операции торгового клиента площадки.
// Реализации: HTTP клиент CLOB API и paper-клиент для безопасного режима.
type TradingClient interface {
	// PlaceOrder размещает ордер. ClientOrderID передаётся площадке -
	// повторная отправка с тем же ID не создаёт второй ордер.
	PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*PlaceOrderResponse, error)

	// GetOrderStatus возвращает текущее состояние ордера на площадке.
	// Используется reconciliation-циклом для ордеров в статусе unknown.
	GetOrderStatus(ctx context.Context, venueOrderID string) (*PlaceOrderResponse, error)

	// CancelOrder отменяет открытый ордер
	CancelOrder(ctx context.Context, venueOrderID string) error

	// GetCurrentPrice возвращает текущую цену исхода для проверки slippage
	GetCurrentPrice(ctx context.Context, marketID, outcomeID string) (float64, error)

	// Close освобождает ресурсы клиента
	Close() error
}

// MarketDataSource поставляет снимки рынков Polymarket
type MarketDataSource interface {
	GetMarkets(ctx context.Context) ([]models.MarketSnapshot, error)
}

// OddsDataSource поставляет линии букмекеров для сопоставления с рынками
type OddsDataSource interface {
	GetOdds(ctx context.Context, marketIDs []string) (map[string]models.OddsSnapshot, error)
}
