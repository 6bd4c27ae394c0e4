package polymarket

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"polybet/internal/config"
	"polybet/internal/models"
	"polybet/pkg/ratelimit"
)

// json - быстрый кодек, совместимый со стандартной библиотекой
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client - HTTP клиент CLOB API Polymarket
//
// Все запросы проходят через rate limiter: площадка банит за
// превышение лимитов, поэтому лучше подождать токен, чем получить 429.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *ratelimit.RateLimiter
}

// Проверка соответствия интерфейсам
var (
	_ TradingClient    = (*Client)(nil)
	_ MarketDataSource = (*Client)(nil)
)

// NewClient создает клиент площадки.
// apiKey передаётся уже расшифрованным (см. pkg/crypto).
func NewClient(cfg config.ClientConfig, apiKey string) *Client {
	httpCfg := DefaultHTTPClientConfig()
	if cfg.RequestTimeout > 0 {
		httpCfg.TotalTimeout = cfg.RequestTimeout
	}

	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  apiKey,
		http:    newHTTPClient(httpCfg),
		limiter: ratelimit.NewRateLimiter(cfg.RateLimit, cfg.RateBurst),
	}
}

// doRequest выполняет запрос с rate limiting и разбором ошибок площадки
func (c *Client) doRequest(ctx context.Context, method, path string, body, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: method + " " + path, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &AuthError{Message: string(data)}
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		// 429 и 5xx - временные, retry с backoff имеет смысл
		return &TransportError{
			Op:  method + " " + path,
			Err: fmt.Errorf("status %d: %s", resp.StatusCode, data),
		}
	case resp.StatusCode >= 400:
		return c.parseRejection(resp.StatusCode, data)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// venueError - формат ошибки в теле ответа площадки
type venueError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *Client) parseRejection(status int, data []byte) error {
	var ve venueError
	if err := json.Unmarshal(data, &ve); err != nil || ve.Message == "" {
		return &VenueRejection{
			Code:    fmt.Sprintf("http_%d", status),
			Message: string(data),
		}
	}
	return &VenueRejection{Code: ve.Code, Message: ve.Message}
}

// PlaceOrder размещает лимитный ордер.
// ClientOrderID уходит площадке как идемпотентный ключ: повторный
// запрос с тем же ID возвращает существующий ордер.
func (c *Client) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*PlaceOrderResponse, error) {
	var resp PlaceOrderResponse
	if err := c.doRequest(ctx, http.MethodPost, "/order", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetOrderStatus возвращает текущее состояние ордера на площадке
func (c *Client) GetOrderStatus(ctx context.Context, venueOrderID string) (*PlaceOrderResponse, error) {
	var resp PlaceOrderResponse
	path := "/order/" + venueOrderID
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CancelOrder отменяет открытый ордер
func (c *Client) CancelOrder(ctx context.Context, venueOrderID string) error {
	path := "/order/" + venueOrderID
	return c.doRequest(ctx, http.MethodDelete, path, nil, nil)
}

// priceResponse - ответ эндпоинта цены
type priceResponse struct {
	Price float64 `json:"price"`
}

// GetCurrentPrice возвращает текущую цену исхода
func (c *Client) GetCurrentPrice(ctx context.Context, marketID, outcomeID string) (float64, error) {
	var resp priceResponse
	path := fmt.Sprintf("/price?market=%s&outcome=%s", marketID, outcomeID)
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Price, nil
}

// marketsResponse - ответ эндпоинта списка рынков
type marketsResponse struct {
	Markets []marketPayload `json:"markets"`
}

type marketPayload struct {
	ID        string           `json:"id"`
	Question  string           `json:"question"`
	CloseTime time.Time        `json:"close_time"`
	Outcomes  []outcomePayload `json:"outcomes"`
}

type outcomePayload struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	BestBid  float64 `json:"best_bid"`
	BestAsk  float64 `json:"best_ask"`
	BidDepth float64 `json:"bid_depth"`
	AskDepth float64 `json:"ask_depth"`
}

// GetMarkets возвращает снимки активных рынков.
// PriceHistory снапшотов пустая - историю ведёт движок между циклами.
func (c *Client) GetMarkets(ctx context.Context) ([]models.MarketSnapshot, error) {
	var resp marketsResponse
	if err := c.doRequest(ctx, http.MethodGet, "/markets?active=true", nil, &resp); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	snapshots := make([]models.MarketSnapshot, 0, len(resp.Markets))
	for _, m := range resp.Markets {
		snapshot := models.MarketSnapshot{
			MarketID:  m.ID,
			Question:  m.Question,
			CloseTime: m.CloseTime,
			FetchedAt: now,
		}
		for _, o := range m.Outcomes {
			snapshot.Outcomes = append(snapshot.Outcomes, models.OutcomeSnapshot{
				OutcomeID:    o.ID,
				Name:         o.Name,
				CurrentPrice: o.Price,
				BestBid:      o.BestBid,
				BestAsk:      o.BestAsk,
				BidDepth:     o.BidDepth,
				AskDepth:     o.AskDepth,
			})
		}
		snapshots = append(snapshots, snapshot)
	}

	return snapshots, nil
}

// Close освобождает ресурсы клиента
func (c *Client) Close() error {
	if transport, ok := c.http.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
	return nil
}
