package strategy

import (
	"fmt"
	"log"

	"polybet/internal/models"
	"polybet/internal/odds"
)

// minVegasEdge - минимальное преимущество над рынком для сигнала
// (3 процентных пункта, меньше съедается спредом и комиссией)
const minVegasEdge = 0.03

// VegasValue - стратегия value betting по линиям букмекеров.
//
// Острые букмекеры (Pinnacle и др.) двигают линии быстрее, чем
// Polymarket. Если справедливая вероятность (после devig) заметно
// выше цены рынка - рынок недооценивает исход, покупаем.
type VegasValue struct{}

var _ Strategy = (*VegasValue)(nil)

// NewVegasValue создает стратегию value betting
func NewVegasValue() *VegasValue {
	return &VegasValue{}
}

// Name возвращает имя стратегии
func (s *VegasValue) Name() string {
	return "vegas_value"
}

// Generate строит сигналы по расхождению линий букмекеров с рынком
func (s *VegasValue) Generate(data models.MarketData) []models.Signal {
	var signals []models.Signal

	for _, market := range data.Markets {
		oddsSnapshot, ok := data.Odds[market.MarketID]
		if !ok {
			continue
		}

		fair, err := odds.BuildFairProbabilities(oddsSnapshot)
		if err != nil {
			continue
		}

		for _, outcome := range market.Outcomes {
			fairProb, ok := fair[outcome.Name]
			if !ok {
				continue
			}

			edge := odds.Edge(fairProb, outcome.CurrentPrice)
			if edge < minVegasEdge {
				continue
			}

			confidence := odds.ConfidenceFromEdge(edge, oddsSnapshot.TimeToEventHours)
			signal, err := models.NewSignal(
				s.Name(), market.MarketID, outcome.OutcomeID,
				models.ActionBuy, outcome.CurrentPrice, confidence,
			)
			if err != nil {
				log.Printf("vegas_value: discarding invalid signal for %s/%s: %v",
					market.MarketID, outcome.OutcomeID, err)
				continue
			}
			signal.Explanation = map[string]string{
				"fair_prob":      fmt.Sprintf("%.4f", fairProb),
				"market_price":   fmt.Sprintf("%.4f", outcome.CurrentPrice),
				"edge":           fmt.Sprintf("%.4f", edge),
				"hours_to_event": fmt.Sprintf("%.1f", oddsSnapshot.TimeToEventHours),
			}

			signals = append(signals, signal)
		}
	}

	return signals
}
