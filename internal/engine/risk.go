package engine

import (
	"time"

	"polybet/internal/models"
)

// RiskEngine - чистый вычислитель решений о допуске сигналов.
//
// Никакого I/O: все входы передаются явно, выход - структурированное
// решение. Отклонение сигнала - ожидаемый результат, не ошибка.
//
// Порядок проверок фиксирован:
//  1. global kill switch
//  2. свежесть данных
//  3. дневной лимит убытка
//  4. лимит открытых позиций
//  5. размер ордера / размер позиции
//  6. лимит стратегии
//  7. порог уверенности
type RiskEngine struct {
	limits              models.RiskLimits
	stalenessThreshold  time.Duration
	confidenceThreshold float64
}

// NewRiskEngine создает риск-движок
func NewRiskEngine(limits models.RiskLimits, stalenessThreshold time.Duration, confidenceThreshold float64) *RiskEngine {
	return &RiskEngine{
		limits:              limits,
		stalenessThreshold:  stalenessThreshold,
		confidenceThreshold: confidenceThreshold,
	}
}

// Limits возвращает текущие лимиты
func (e *RiskEngine) Limits() models.RiskLimits {
	return e.limits
}

// SetLimits заменяет лимиты (админ-операция)
func (e *RiskEngine) SetLimits(limits models.RiskLimits) {
	e.limits = limits
}

// EvalInput - входы одной оценки
type EvalInput struct {
	Signal models.Signal
	State  models.RiskState

	// DataAge - возраст самого старого снапшота рыночных данных
	DataAge time.Duration

	// OrderSize - предлагаемый размер ордера (после sizing)
	OrderSize float64

	// PositionExposure - текущая экспозиция по этому исходу
	PositionExposure float64
}

// Evaluate принимает решение о допуске одного сигнала.
// Возвращает первую сработавшую причину отклонения.
func (e *RiskEngine) Evaluate(in EvalInput) models.RiskDecision {
	if !in.State.TradingEnabled {
		return reject(models.ReasonKillSwitch)
	}

	if in.DataAge > e.stalenessThreshold {
		return reject(models.ReasonStaleData)
	}

	// daily_pnl считается по fills; лимит задаётся положительным числом
	if in.State.DailyPnl <= -e.limits.MaxDailyLoss {
		return reject(models.ReasonMaxDailyLoss)
	}

	if in.State.OpenPositions >= e.limits.MaxOpenPositions {
		return reject(models.ReasonMaxOpenPositions)
	}

	if in.OrderSize > e.limits.MaxOrderSize {
		return reject(models.ReasonOrderSize)
	}

	if in.PositionExposure+in.OrderSize > e.limits.MaxPositionSize {
		return reject(models.ReasonPositionSize)
	}

	if in.OrderSize > e.limits.CapForStrategy(in.Signal.Strategy) {
		return reject(models.ReasonStrategyCap)
	}

	if in.Signal.Confidence < e.confidenceThreshold {
		return reject(models.ReasonLowConfidence)
	}

	return models.RiskDecision{Approved: true, Reason: models.ReasonApproved}
}

// EvaluateBatch оценивает пакет сигналов с последовательным
// потреблением лимита позиций: каждый одобренный сигнал занимает
// слот для последующих в том же пакете. Состояние вызывающего
// не изменяется.
func (e *RiskEngine) EvaluateBatch(signals []models.Signal, state models.RiskState, dataAge time.Duration, sizer func(models.Signal) (orderSize, positionExposure float64)) []models.RiskDecision {
	decisions := make([]models.RiskDecision, len(signals))

	for i, signal := range signals {
		orderSize, exposure := sizer(signal)
		decisions[i] = e.Evaluate(EvalInput{
			Signal:           signal,
			State:            state,
			DataAge:          dataAge,
			OrderSize:        orderSize,
			PositionExposure: exposure,
		})
		if decisions[i].Approved {
			state.OpenPositions++
		}
	}

	return decisions
}

func reject(reason string) models.RiskDecision {
	return models.RiskDecision{Approved: false, Reason: reason}
}
