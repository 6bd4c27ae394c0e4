package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"polybet/internal/models"
	"polybet/internal/polymarket"
	"polybet/pkg/retry"
	"polybet/pkg/utils"
)

// OrderStore - операции над ордерами, нужные движку исполнения
type OrderStore interface {
	Create(order *models.Order) error
	GetByID(id string) (*models.Order, error)
	GetByIdempotencyKey(key string) (*models.Order, error)
	GetByStatus(status string) ([]*models.Order, error)
	GetOpen() ([]*models.Order, error)
	CountOpen() (int, error)
	UpdateStatus(id, status, errorMessage string) error
	UpdateFill(id string, filledSize float64, status string, filledAt *time.Time) error
	SetVenueOrderID(id, venueOrderID string) error
}

// IdempotencyStore - операции над идемпотентными ключами
type IdempotencyStore interface {
	PutIfAbsent(key string, ttl time.Duration) (bool, error)
	Get(key string) (*models.IdempotencyRecord, error)
	AttachOrder(key, orderID string) error
	Release(key string) error
	DeleteExpired(now time.Time) (int64, error)
}

// FillStore - операции над исполнениями
type FillStore interface {
	Create(fill *models.Fill) error
	SumPnlSince(since time.Time) (float64, error)
}

// ExecutionConfig - параметры движка исполнения
type ExecutionConfig struct {
	IdempotencyBucket time.Duration // окно дедупликации сигналов
	IdempotencyTTL    time.Duration
	MaxSlippage       float64
	SubmitTimeout     time.Duration
}

// ExecutionEngine - движок исполнения ордеров.
//
// Владеет жизненным циклом ордера от создания до терминального
// статуса. Ключ идемпотентности записывается ДО вызова клиента:
// падение процесса между записью и вызовом восстанавливается как
// "исход неизвестен", а не как повторная отправка.
type ExecutionEngine struct {
	orders OrderStore
	keys   IdempotencyStore
	fills  FillStore
	client polymarket.TradingClient

	cfg     ExecutionConfig
	metrics *Metrics
}

// NewExecutionEngine создает движок исполнения
func NewExecutionEngine(orders OrderStore, keys IdempotencyStore, fills FillStore, client polymarket.TradingClient, cfg ExecutionConfig, metrics *Metrics) *ExecutionEngine {
	return &ExecutionEngine{
		orders:  orders,
		keys:    keys,
		fills:   fills,
		client:  client,
		cfg:     cfg,
		metrics: metrics,
	}
}

// SetClient заменяет торгового клиента (переключение paper/live)
func (e *ExecutionEngine) SetClient(client polymarket.TradingClient) {
	e.client = client
}

// IdempotencyKey строит ключ дедупликации сигнала.
//
// Два сигнала с одинаковыми (market, outcome, action, strategy)
// внутри одного временного окна дают один и тот же ключ - и ровно
// один ордер.
func IdempotencyKey(signal models.Signal, bucket time.Duration, now time.Time) string {
	bucketStart := utils.BucketStart(now, bucket)
	payload := fmt.Sprintf("%s|%s|%s|%s|%d",
		signal.MarketID, signal.OutcomeID, signal.Action, signal.Strategy,
		bucketStart.Unix())
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// SizeOrder вычисляет размер ордера: базовый лимит, масштабированный
// уверенностью сигнала и ограниченный остатком лимита позиции.
func SizeOrder(signal models.Signal, limits models.RiskLimits, positionExposure float64) float64 {
	base := limits.MaxOrderSize
	if cap := limits.CapForStrategy(signal.Strategy); cap < base {
		base = cap
	}

	size := base * signal.Confidence

	if headroom := limits.MaxPositionSize - positionExposure; size > headroom {
		size = headroom
	}
	if size < 0 {
		size = 0
	}

	return size
}

// Submit исполняет одобренный риск-движком сигнал.
//
// Порядок шагов существенен:
//  1. write-ahead запись ключа (PutIfAbsent) - владение операцией
//  2. проверка slippage - при отказе ключ освобождается, клиент не вызывался
//  3. создание ордера pending и привязка к ключу
//  4. вызов клиента с retry; таймаут оставляет ордер в unknown
func (e *ExecutionEngine) Submit(ctx context.Context, signal models.Signal, size float64) (*models.ExecutionResult, error) {
	key := IdempotencyKey(signal, e.cfg.IdempotencyBucket, time.Now().UTC())

	inserted, err := e.keys.PutIfAbsent(key, e.cfg.IdempotencyTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to persist idempotency key: %w", err)
	}
	if !inserted {
		return e.duplicateResult(key), nil
	}

	// Ключ наш. Slippage проверяем до создания ордера -
	// отклонённая операция не оставляет следов кроме лога.
	currentPrice, err := e.client.GetCurrentPrice(ctx, signal.MarketID, signal.OutcomeID)
	if err == nil && !utils.WithinSlippage(signal.TargetPrice, currentPrice, e.cfg.MaxSlippage) {
		if releaseErr := e.keys.Release(key); releaseErr != nil {
			log.Printf("execution: failed to release key after slippage reject: %v", releaseErr)
		}
		e.metrics.IncOrderRejected(models.ExecReasonSlippage)
		return &models.ExecutionResult{
			Status: models.ExecStatusRejected,
			Reason: models.ExecReasonSlippage,
		}, nil
	}

	order := &models.Order{
		ID:             fmt.Sprintf("ord-%s-%d", key[:12], time.Now().UnixNano()),
		MarketID:       signal.MarketID,
		OutcomeID:      signal.OutcomeID,
		Side:           signal.Action,
		Price:          signal.TargetPrice,
		Size:           size,
		Status:         models.OrderStatusPending,
		Strategy:       signal.Strategy,
		IdempotencyKey: key,
	}
	if err := e.orders.Create(order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	if err := e.keys.AttachOrder(key, order.ID); err != nil {
		return nil, fmt.Errorf("failed to attach order to key: %w", err)
	}

	return e.submitToVenue(ctx, order, signal)
}

// duplicateResult строит результат для повторного сигнала
func (e *ExecutionEngine) duplicateResult(key string) *models.ExecutionResult {
	e.metrics.IncDuplicate()

	result := &models.ExecutionResult{
		Status: models.ExecStatusDuplicate,
		Reason: models.ExecReasonDuplicate,
	}
	if rec, err := e.keys.Get(key); err == nil && rec.OrderID != "" {
		result.OrderID = rec.OrderID
	}
	return result
}

// submitToVenue отправляет ордер площадке с retry по временным ошибкам
func (e *ExecutionEngine) submitToVenue(ctx context.Context, order *models.Order, signal models.Signal) (*models.ExecutionResult, error) {
	submitCtx := ctx
	var cancel context.CancelFunc
	if e.cfg.SubmitTimeout > 0 {
		submitCtx, cancel = context.WithTimeout(ctx, e.cfg.SubmitTimeout)
		defer cancel()
	}

	req := polymarket.PlaceOrderRequest{
		MarketID:      order.MarketID,
		OutcomeID:     order.OutcomeID,
		Side:          order.Side,
		Price:         order.Price,
		Size:          order.Size,
		ClientOrderID: order.IdempotencyKey,
	}

	cfg := retry.TransportConfig()
	cfg.RetryIf = retry.IsRetryable
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		log.Printf("execution: retrying order %s (attempt %d after %v): %v",
			order.ID, attempt, delay, err)
	}

	resp, err := retry.DoWithResult(submitCtx, func() (*polymarket.PlaceOrderResponse, error) {
		return e.client.PlaceOrder(submitCtx, req)
	}, cfg)

	if err != nil {
		return e.handleSubmitError(order, err)
	}

	e.transition(order, models.OrderStatusSubmitted, "")
	if resp.VenueOrderID != "" {
		if err := e.orders.SetVenueOrderID(order.ID, resp.VenueOrderID); err != nil {
			log.Printf("execution: failed to store venue order id: %v", err)
		}
		order.VenueOrderID = resp.VenueOrderID
	}

	e.applyVenueStatus(order, resp)

	e.metrics.IncOrderSubmitted(order.Strategy)
	return &models.ExecutionResult{
		Status:  models.ExecStatusSubmitted,
		OrderID: order.ID,
	}, nil
}

// handleSubmitError классифицирует ошибку отправки.
//
// Таймаут - особый случай: ордер МОГ быть принят площадкой, поэтому
// статус unknown, ключ не освобождается, reconciliation разберётся.
func (e *ExecutionEngine) handleSubmitError(order *models.Order, err error) (*models.ExecutionResult, error) {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		e.transition(order, models.OrderStatusUnknown, err.Error())
		e.metrics.IncOrderUnknown()
		return &models.ExecutionResult{
			Status:  models.ExecStatusUnknown,
			Reason:  models.ExecReasonTransport,
			OrderID: order.ID,
		}, nil
	}

	var rejection *polymarket.VenueRejection
	if errors.As(err, &rejection) {
		e.transition(order, models.OrderStatusFailed, rejection.Message)
		e.metrics.IncOrderRejected(models.ExecReasonVenue)
		return &models.ExecutionResult{
			Status:  models.ExecStatusFailed,
			Reason:  models.ExecReasonVenue,
			OrderID: order.ID,
		}, nil
	}

	// Транспорт исчерпал retry
	e.transition(order, models.OrderStatusFailed, err.Error())
	e.metrics.IncOrderRejected(models.ExecReasonTransport)
	return &models.ExecutionResult{
		Status:  models.ExecStatusFailed,
		Reason:  models.ExecReasonTransport,
		OrderID: order.ID,
	}, nil
}

// applyVenueStatus доводит ордер до статуса, который вернула площадка
func (e *ExecutionEngine) applyVenueStatus(order *models.Order, resp *polymarket.PlaceOrderResponse) {
	status := mapVenueStatus(resp.Status)
	if status == order.Status {
		return
	}
	if !CanTransition(order.Status, status) {
		log.Printf("execution: invalid transition %s -> %s for order %s, leaving as is",
			order.Status, status, order.ID)
		return
	}

	if status == models.OrderStatusFilled || status == models.OrderStatusPartial {
		e.ApplyFill(order, resp.FilledSize, resp.AvgPrice, status)
		return
	}

	e.transition(order, status, "")
}

// ApplyFill фиксирует исполнение: запись fill + обновление ордера.
// PnL исполнения для покупки равен нулю (реализуется при выходе);
// для продажи - разница цен продажи и входа.
func (e *ExecutionEngine) ApplyFill(order *models.Order, filledSize, avgPrice float64, status string) {
	delta := filledSize - order.FilledSize
	if delta <= 0 {
		return
	}

	var pnl float64
	if order.Side == models.ActionSell {
		pnl = (avgPrice - order.Price) * delta
	}

	fill := &models.Fill{
		ID:      fmt.Sprintf("fill-%s-%d", order.ID, time.Now().UnixNano()),
		OrderID: order.ID,
		Price:   avgPrice,
		Size:    delta,
		Pnl:     pnl,
	}
	if err := e.fills.Create(fill); err != nil {
		log.Printf("execution: failed to record fill for order %s: %v", order.ID, err)
		return
	}

	now := time.Now().UTC()
	var filledAt *time.Time
	if status == models.OrderStatusFilled {
		filledAt = &now
	}
	if err := e.orders.UpdateFill(order.ID, filledSize, status, filledAt); err != nil {
		log.Printf("execution: failed to update fill progress for order %s: %v", order.ID, err)
		return
	}

	order.FilledSize = filledSize
	order.Status = status
	e.metrics.ObserveOrderStatus(status)
}

// transition переводит ордер в новый статус с записью в БД
func (e *ExecutionEngine) transition(order *models.Order, status, errorMessage string) {
	if !CanTransition(order.Status, status) {
		log.Printf("execution: invalid transition %s -> %s for order %s",
			order.Status, status, order.ID)
		return
	}
	if err := e.orders.UpdateStatus(order.ID, status, errorMessage); err != nil {
		log.Printf("execution: failed to update order %s status: %v", order.ID, err)
		return
	}
	order.Status = status
	order.ErrorMessage = errorMessage
	e.metrics.ObserveOrderStatus(status)
}

// Reconcile сверяет ордера в статусе unknown с площадкой.
// Вызывается периодически фоновым циклом движка.
func (e *ExecutionEngine) Reconcile(ctx context.Context) error {
	orders, err := e.orders.GetByStatus(models.OrderStatusUnknown)
	if err != nil {
		return fmt.Errorf("failed to load unknown orders: %w", err)
	}

	for _, order := range orders {
		if order.VenueOrderID == "" {
			// Площадка не успела вернуть ID - ищем по клиентскому ключу
			// невозможно, считаем ордер не принятым
			e.transition(order, models.OrderStatusFailed, "no venue order id after timeout")
			continue
		}

		resp, err := e.client.GetOrderStatus(ctx, order.VenueOrderID)
		if err != nil {
			log.Printf("reconcile: failed to query order %s: %v", order.ID, err)
			continue
		}
		e.applyVenueStatus(order, resp)
		log.Printf("reconcile: order %s resolved to %s", order.ID, order.Status)
	}

	return nil
}

// SweepExpiredKeys удаляет истёкшие идемпотентные ключи.
// Ключи нетерминальных ордеров хранилище не трогает.
func (e *ExecutionEngine) SweepExpiredKeys(now time.Time) (int64, error) {
	deleted, err := e.keys.DeleteExpired(now)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep idempotency keys: %w", err)
	}
	if deleted > 0 {
		log.Printf("execution: swept %d expired idempotency keys", deleted)
	}
	return deleted, nil
}
