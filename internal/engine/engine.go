// Package engine содержит решающее ядро: риск-движок, движок
// исполнения, агрегатор сигналов и цикл оценки.
package engine

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"polybet/internal/models"
	"polybet/internal/polymarket"
	"polybet/pkg/utils"
)

// RiskStateStore - персистентное состояние риска
type RiskStateStore interface {
	Get() (*models.RiskState, error)
	UpdateCAS(state *models.RiskState) error
}

// Notifier рассылает события ядра подписчикам (websocket hub).
// nil-реализация допустима.
type Notifier interface {
	NotifySignals(batch models.SignalBatch)
	NotifyOrderResult(signal models.Signal, result *models.ExecutionResult)
	NotifyRiskState(state models.RiskState)
}

// noopNotifier используется, когда подписчиков нет
type noopNotifier struct{}

func (noopNotifier) NotifySignals(models.SignalBatch) {}

func (noopNotifier) NotifyOrderResult(models.Signal, *models.ExecutionResult) {}

func (noopNotifier) NotifyRiskState(models.RiskState) {}

// Config - параметры цикла движка
type Config struct {
	CycleInterval      time.Duration
	SweepInterval      time.Duration
	StalenessThreshold time.Duration
	PriceHistoryDepth  int
}

// Engine - цикл оценки: снимок данных -> сигналы -> риск -> исполнение.
//
// Циклы не перекрываются: тик, пришедший во время работающего цикла,
// пропускается. Ошибка хранилища прерывает цикл целиком - торговать
// по частично известному состоянию нельзя.
type Engine struct {
	aggregator *SignalAggregator
	risk       *RiskEngine
	execution  *ExecutionEngine

	riskState RiskStateStore
	orders    OrderStore
	fills     FillStore

	markets    polymarket.MarketDataSource
	oddsSource polymarket.OddsDataSource

	notifier Notifier
	metrics  *Metrics
	cfg      Config

	busy atomic.Bool

	// История цен между циклами: "market|outcome" -> последние N цен
	priceHistory map[string][]float64
}

// New создает движок
func New(aggregator *SignalAggregator, risk *RiskEngine, execution *ExecutionEngine,
	riskState RiskStateStore, orders OrderStore, fills FillStore,
	markets polymarket.MarketDataSource, oddsSource polymarket.OddsDataSource,
	notifier Notifier, metrics *Metrics, cfg Config) *Engine {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Engine{
		aggregator:   aggregator,
		risk:         risk,
		execution:    execution,
		riskState:    riskState,
		orders:       orders,
		fills:        fills,
		markets:      markets,
		oddsSource:   oddsSource,
		notifier:     notifier,
		metrics:      metrics,
		cfg:          cfg,
		priceHistory: make(map[string][]float64),
	}
}

// Run запускает цикл оценки и фоновую уборку.
// Блокируется до отмены контекста.
func (e *Engine) Run(ctx context.Context) {
	log.Printf("engine: starting, cycle interval %v", e.cfg.CycleInterval)

	go e.runSweeper(ctx)

	ticker := time.NewTicker(e.cfg.CycleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("engine: stopped")
			return
		case <-ticker.C:
			if !e.busy.CompareAndSwap(false, true) {
				e.metrics.IncCycleSkipped()
				log.Println("engine: previous cycle still running, skipping tick")
				continue
			}
			go func() {
				defer e.busy.Store(false)
				if err := e.RunCycle(ctx); err != nil {
					log.Printf("engine: cycle aborted: %v", err)
				}
			}()
		}
	}
}

// runSweeper периодически чистит истёкшие ключи и сверяет
// unknown-ордера с площадкой
func (e *Engine) runSweeper(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := e.execution.SweepExpiredKeys(time.Now().UTC()); err != nil {
				log.Printf("engine: sweep failed: %v", err)
			}
			if err := e.execution.Reconcile(ctx); err != nil {
				log.Printf("engine: reconcile failed: %v", err)
			}
		}
	}
}

// RunCycle выполняет один цикл оценки
func (e *Engine) RunCycle(ctx context.Context) error {
	data, err := e.fetchMarketData(ctx)
	if err != nil {
		return err
	}

	state, err := e.refreshRiskState()
	if err != nil {
		return err
	}

	batch := e.aggregator.Collect(data)
	e.notifier.NotifySignals(batch)

	if err := e.processBatch(ctx, batch, *state, data.OldestAge()); err != nil {
		return err
	}

	e.metrics.IncCycle()
	return nil
}

// fetchMarketData снимает данные рынков и линий, обновляет историю цен
func (e *Engine) fetchMarketData(ctx context.Context) (models.MarketData, error) {
	markets, err := e.markets.GetMarkets(ctx)
	if err != nil {
		return models.MarketData{}, fmt.Errorf("failed to fetch markets: %w", err)
	}

	marketIDs := make([]string, 0, len(markets))
	for _, m := range markets {
		marketIDs = append(marketIDs, m.MarketID)
	}

	odds := map[string]models.OddsSnapshot{}
	if e.oddsSource != nil {
		odds, err = e.oddsSource.GetOdds(ctx, marketIDs)
		if err != nil {
			// Линии не критичны для цикла: стратегии без odds просто молчат
			log.Printf("engine: failed to fetch odds, continuing without: %v", err)
			odds = map[string]models.OddsSnapshot{}
		}
	}

	e.updatePriceHistory(markets)

	return models.MarketData{
		Markets: markets,
		Odds:    odds,
		Now:     time.Now().UTC(),
	}, nil
}

// updatePriceHistory дописывает текущие цены в историю и подставляет
// её в снапшоты для стратегий
func (e *Engine) updatePriceHistory(markets []models.MarketSnapshot) {
	for mi := range markets {
		for oi := range markets[mi].Outcomes {
			outcome := &markets[mi].Outcomes[oi]
			key := markets[mi].MarketID + "|" + outcome.OutcomeID

			history := append(e.priceHistory[key], outcome.CurrentPrice)
			if len(history) > e.cfg.PriceHistoryDepth {
				history = history[len(history)-e.cfg.PriceHistoryDepth:]
			}
			e.priceHistory[key] = history

			outcome.PriceHistory = append([]float64(nil), history...)
		}
	}
}

// refreshRiskState пересчитывает производные поля состояния из БД.
//
// daily_pnl - только из fills, open_positions - только из
// подтверждённых ордеров. Конфликт версии означает конкурентную
// админ-команду - перечитываем и повторяем.
func (e *Engine) refreshRiskState() (*models.RiskState, error) {
	dailyPnl, err := e.fills.SumPnlSince(utils.GetDayStart())
	if err != nil {
		return nil, fmt.Errorf("failed to compute daily pnl: %w", err)
	}

	openPositions, err := e.orders.CountOpen()
	if err != nil {
		return nil, fmt.Errorf("failed to count open positions: %w", err)
	}

	for attempt := 0; attempt < 3; attempt++ {
		state, err := e.riskState.Get()
		if err != nil {
			return nil, fmt.Errorf("failed to load risk state: %w", err)
		}

		state.DailyPnl = dailyPnl
		state.OpenPositions = openPositions

		err = e.riskState.UpdateCAS(state)
		if err == nil {
			e.metrics.SetDailyPnl(dailyPnl)
			e.metrics.SetOpenPositions(openPositions)
			e.notifier.NotifyRiskState(*state)
			return state, nil
		}
		log.Printf("engine: risk state version conflict, retrying (%d)", attempt+1)
	}

	return nil, fmt.Errorf("failed to refresh risk state: version conflicts")
}

// processBatch прогоняет сигналы через риск-движок и исполнение.
//
// Лимит позиций потребляется последовательно: одобренный сигнал
// занимает слот для следующих в том же цикле.
func (e *Engine) processBatch(ctx context.Context, batch models.SignalBatch, state models.RiskState, dataAge time.Duration) error {
	exposure := e.openExposure()

	for _, signal := range batch.Signals {
		key := signal.MarketID + "|" + signal.OutcomeID
		size := SizeOrder(signal, e.risk.Limits(), exposure[key])

		decision := e.risk.Evaluate(EvalInput{
			Signal:           signal,
			State:            state,
			DataAge:          dataAge,
			OrderSize:        size,
			PositionExposure: exposure[key],
		})
		e.metrics.ObserveDecision(decision.Reason)

		if !decision.Approved {
			log.Printf("engine: signal %s rejected: %s", signal.ID, decision.Reason)
			continue
		}
		if size <= 0 {
			continue
		}

		result, err := e.execution.Submit(ctx, signal, size)
		if err != nil {
			// Ошибка хранилища - прерываем цикл, торговать по
			// неизвестному состоянию нельзя
			return fmt.Errorf("failed to submit signal %s: %w", signal.ID, err)
		}
		e.notifier.NotifyOrderResult(signal, result)

		if result.Status == models.ExecStatusSubmitted {
			state.OpenPositions++
			exposure[key] += size
		}
	}

	return nil
}

// openExposure строит экспозицию по исходам из нетерминальных ордеров
func (e *Engine) openExposure() map[string]float64 {
	exposure := make(map[string]float64)

	open, err := e.orders.GetOpen()
	if err != nil {
		log.Printf("engine: failed to load open orders for exposure: %v", err)
		return exposure
	}
	for _, order := range open {
		exposure[order.MarketID+"|"+order.OutcomeID] += order.Size
	}
	return exposure
}
