package models

import (
	"errors"
	"fmt"
	"time"
)

// Ошибки валидации сигналов
var (
	ErrEmptyMarketID   = errors.New("signal market_id cannot be empty")
	ErrEmptyOutcomeID  = errors.New("signal outcome_id cannot be empty")
	ErrEmptyStrategy   = errors.New("signal strategy cannot be empty")
	ErrInvalidAction   = errors.New("signal action must be buy or sell")
	ErrPriceOutOfRange = errors.New("signal target_price must be within [0,1]")
)

// Действия сигнала
const (
	ActionBuy  = "buy"
	ActionSell = "sell"
)

// Signal - торговый сигнал от стратегии
//
// Неизменяем после создания. Цена и уверенность - вероятности,
// выход за границы [0,1] - ошибка конструирования, а не данные.
type Signal struct {
	ID          string            `json:"id"`
	MarketID    string            `json:"market_id"`
	OutcomeID   string            `json:"outcome_id"`
	Action      string            `json:"action"`       // buy, sell
	TargetPrice float64           `json:"target_price"` // [0,1] - implied probability
	Size        float64           `json:"size"`         // рекомендуемый размер (hint, не обязателен)
	Confidence  float64           `json:"confidence"`   // [0,1]
	Strategy    string            `json:"strategy"`
	Explanation map[string]string `json:"explanation,omitempty"` // provenance для аудита
	GeneratedAt time.Time         `json:"generated_at"`
}

// NewSignal создает валидированный сигнал
//
// Возвращает ошибку при нарушении границ вероятностей -
// невалидный сигнал не должен существовать как значение.
func NewSignal(strategy, marketID, outcomeID, action string, targetPrice, confidence float64) (Signal, error) {
	s := Signal{
		MarketID:    marketID,
		OutcomeID:   outcomeID,
		Action:      action,
		TargetPrice: targetPrice,
		Confidence:  confidence,
		Strategy:    strategy,
		GeneratedAt: time.Now().UTC(),
	}
	if err := s.Validate(); err != nil {
		return Signal{}, err
	}
	s.ID = fmt.Sprintf("%s:%s:%s:%s:%d", strategy, marketID, outcomeID, action, s.GeneratedAt.UnixNano())
	return s, nil
}

// Validate проверяет инварианты сигнала
func (s Signal) Validate() error {
	if s.MarketID == "" {
		return ErrEmptyMarketID
	}
	if s.OutcomeID == "" {
		return ErrEmptyOutcomeID
	}
	if s.Strategy == "" {
		return ErrEmptyStrategy
	}
	if s.Action != ActionBuy && s.Action != ActionSell {
		return ErrInvalidAction
	}
	if s.TargetPrice < 0 || s.TargetPrice > 1 {
		return ErrPriceOutOfRange
	}
	if s.Confidence < 0 || s.Confidence > 1 {
		return fmt.Errorf("signal confidence %.4f out of [0,1]", s.Confidence)
	}
	return nil
}

// SignalBatch - результат одного цикла агрегации сигналов
type SignalBatch struct {
	Signals   []Signal  `json:"signals"`
	CreatedAt time.Time `json:"created_at"`

	// Стратегии, упавшие в этом цикле (имя → текст ошибки).
	// Падение одной стратегии не отменяет batch.
	Failures map[string]string `json:"failures,omitempty"`
}
