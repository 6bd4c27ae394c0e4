package engine

import (
	"fmt"
	"log"
	"sync"
	"time"

	"polybet/internal/models"
	"polybet/internal/strategy"
)

// SignalAggregator собирает сигналы со всех включённых стратегий.
//
// Стратегии изолированы друг от друга: паника или ошибка одной
// попадает в Failures batch-а и не отменяет сигналы остальных.
type SignalAggregator struct {
	mu         sync.RWMutex
	strategies map[string]strategy.Strategy
	enabled    map[string]bool

	metrics *Metrics
}

// NewSignalAggregator создает агрегатор сигналов
func NewSignalAggregator(metrics *Metrics) *SignalAggregator {
	return &SignalAggregator{
		strategies: make(map[string]strategy.Strategy),
		enabled:    make(map[string]bool),
		metrics:    metrics,
	}
}

// Register добавляет стратегию (включённую по умолчанию)
func (a *SignalAggregator) Register(s strategy.Strategy) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.strategies[s.Name()] = s
	a.enabled[s.Name()] = true
}

// SetEnabled включает/выключает стратегию (админ-операция)
func (a *SignalAggregator) SetEnabled(name string, enabled bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.strategies[name]; !ok {
		return fmt.Errorf("unknown strategy: %s", name)
	}
	a.enabled[name] = enabled
	return nil
}

// Enabled возвращает снимок состояния переключателей стратегий
func (a *SignalAggregator) Enabled() map[string]bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	snapshot := make(map[string]bool, len(a.enabled))
	for name, on := range a.enabled {
		snapshot[name] = on
	}
	return snapshot
}

// Collect запускает включённые стратегии на снимке данных
// и возвращает batch сигналов с перечнем упавших стратегий
func (a *SignalAggregator) Collect(data models.MarketData) models.SignalBatch {
	a.mu.RLock()
	active := make([]strategy.Strategy, 0, len(a.strategies))
	for name, s := range a.strategies {
		if a.enabled[name] {
			active = append(active, s)
		}
	}
	a.mu.RUnlock()

	batch := models.SignalBatch{
		CreatedAt: time.Now().UTC(),
		Failures:  make(map[string]string),
	}

	for _, s := range active {
		signals, err := a.runStrategy(s, data)
		if err != nil {
			log.Printf("aggregator: strategy %s failed: %v", s.Name(), err)
			batch.Failures[s.Name()] = err.Error()
			continue
		}
		batch.Signals = append(batch.Signals, signals...)
		a.metrics.IncSignals(s.Name(), len(signals))
	}

	return batch
}

// runStrategy вызывает стратегию, превращая панику в ошибку
func (a *SignalAggregator) runStrategy(s strategy.Strategy, data models.MarketData) (signals []models.Signal, err error) {
	defer func() {
		if r := recover(); r != nil {
			signals = nil
			err = fmt.Errorf("strategy panicked: %v", r)
		}
	}()

	return s.Generate(data), nil
}
