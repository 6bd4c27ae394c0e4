// Package strategy содержит торговые стратегии решающего ядра.
//
// Стратегия - чистая функция над снимком рыночных данных: читает
// MarketData, возвращает сигналы, не делает I/O и не хранит
// состояние между циклами.
package strategy

import (
	"fmt"
	"strings"

	"polybet/internal/models"
)

// Strategy определяет интерфейс торговой стратегии
type Strategy interface {
	// Name возвращает имя стратегии (оно же ключ strategy_caps)
	Name() string

	// Generate строит сигналы по снимку рыночных данных.
	// Возвращает пустой срез, если возможностей нет.
	Generate(data models.MarketData) []models.Signal
}

// SupportedStrategies - список поддерживаемых стратегий
var SupportedStrategies = []string{
	"vegas_value",
	"mean_reversion",
	"orderbook_imbalance",
	"late_info_drift",
}

// NewStrategy создает экземпляр стратегии по имени
func NewStrategy(name string) (Strategy, error) {
	name = strings.ToLower(name)

	switch name {
	case "vegas_value":
		return NewVegasValue(), nil
	case "mean_reversion":
		return NewMeanReversion(), nil
	case "orderbook_imbalance":
		return NewOrderbookImbalance(), nil
	case "late_info_drift":
		return NewLateInfoDrift(), nil
	default:
		return nil, fmt.Errorf("unsupported strategy: %s", name)
	}
}

// IsSupported проверяет, поддерживается ли стратегия
func IsSupported(name string) bool {
	name = strings.ToLower(name)
	for _, supported := range SupportedStrategies {
		if name == supported {
			return true
		}
	}
	return false
}
