package polymarket

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// PaperClient - торговый клиент режима paper: ордера исполняются
// мгновенно по запрошенной цене, без обращения к площадке.
//
// Идемпотентность воспроизводится честно: повторный PlaceOrder
// с тем же ClientOrderID возвращает уже созданный ордер.
type PaperClient struct {
	mu       sync.Mutex
	orders   map[string]*PlaceOrderResponse // по venue_order_id
	byClient map[string]string              // client_order_id -> venue_order_id
	seq      atomic.Int64

	// Цены для GetCurrentPrice; заполняются движком из снапшотов
	prices map[string]float64 // "market|outcome" -> цена
}

var _ TradingClient = (*PaperClient)(nil)

// NewPaperClient создает paper-клиент
func NewPaperClient() *PaperClient {
	return &PaperClient{
		orders:   make(map[string]*PlaceOrderResponse),
		byClient: make(map[string]string),
		prices:   make(map[string]float64),
	}
}

// SetPrice задаёт текущую цену исхода для проверки slippage
func (p *PaperClient) SetPrice(marketID, outcomeID string, price float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prices[marketID+"|"+outcomeID] = price
}

// PlaceOrder мгновенно исполняет ордер по запрошенной цене
func (p *PaperClient) PlaceOrder(_ context.Context, req PlaceOrderRequest) (*PlaceOrderResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if req.ClientOrderID != "" {
		if venueID, ok := p.byClient[req.ClientOrderID]; ok {
			return p.orders[venueID], nil
		}
	}

	venueID := fmt.Sprintf("paper-%d", p.seq.Add(1))
	resp := &PlaceOrderResponse{
		VenueOrderID: venueID,
		Status:       VenueStatusFilled,
		FilledSize:   req.Size,
		AvgPrice:     req.Price,
	}

	p.orders[venueID] = resp
	if req.ClientOrderID != "" {
		p.byClient[req.ClientOrderID] = venueID
	}

	return resp, nil
}

// GetOrderStatus возвращает состояние paper-ордера
func (p *PaperClient) GetOrderStatus(_ context.Context, venueOrderID string) (*PlaceOrderResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	resp, ok := p.orders[venueOrderID]
	if !ok {
		return nil, &VenueRejection{Code: "not_found", Message: "paper order not found"}
	}
	return resp, nil
}

// CancelOrder отменяет paper-ордер (уже исполненные не трогаем)
func (p *PaperClient) CancelOrder(_ context.Context, venueOrderID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	resp, ok := p.orders[venueOrderID]
	if !ok {
		return &VenueRejection{Code: "not_found", Message: "paper order not found"}
	}
	if resp.Status == VenueStatusOpen || resp.Status == VenueStatusPartial {
		resp.Status = VenueStatusCancelled
	}
	return nil
}

// GetCurrentPrice возвращает последнюю известную цену исхода
func (p *PaperClient) GetCurrentPrice(_ context.Context, marketID, outcomeID string) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	price, ok := p.prices[marketID+"|"+outcomeID]
	if !ok {
		return 0, &VenueRejection{Code: "no_price", Message: "no price for outcome"}
	}
	return price, nil
}

// Close для paper-клиента не делает ничего
func (p *PaperClient) Close() error { return nil }
