package strategy

import (
	"fmt"
	"log"

	"polybet/internal/models"
	"polybet/internal/odds"
)

const (
	// lateWindowHours - окно "позднего" времени перед событием
	lateWindowHours = 12.0

	// minDriftEdge - минимальное расхождение с линиями букмекеров
	minDriftEdge = 0.02

	// minDriftHistory - минимум точек истории для оценки дрейфа
	minDriftHistory = 3
)

// LateInfoDrift - стратегия позднего информационного дрейфа.
//
// Незадолго до события линии букмекеров впитывают новую информацию
// (составы, погода, травмы) быстрее, чем рынок. Если цена рынка
// уже дрейфует в сторону линии, но ещё не дошла - догоняем движение.
type LateInfoDrift struct{}

var _ Strategy = (*LateInfoDrift)(nil)

// NewLateInfoDrift создает стратегию позднего дрейфа
func NewLateInfoDrift() *LateInfoDrift {
	return &LateInfoDrift{}
}

// Name возвращает имя стратегии
func (s *LateInfoDrift) Name() string {
	return "late_info_drift"
}

// Generate строит сигналы по дрейфу цены к линиям букмекеров
func (s *LateInfoDrift) Generate(data models.MarketData) []models.Signal {
	var signals []models.Signal

	for _, market := range data.Markets {
		oddsSnapshot, ok := data.Odds[market.MarketID]
		if !ok || oddsSnapshot.TimeToEventHours > lateWindowHours {
			continue
		}

		fair, err := odds.BuildFairProbabilities(oddsSnapshot)
		if err != nil {
			continue
		}

		for _, outcome := range market.Outcomes {
			fairProb, ok := fair[outcome.Name]
			if !ok || len(outcome.PriceHistory) < minDriftHistory {
				continue
			}

			edge := odds.Edge(fairProb, outcome.CurrentPrice)
			if edge < minDriftEdge {
				continue
			}

			// Вход только если цена уже движется к линии:
			// дрейф без подтверждения - шум, а не информация
			history := outcome.PriceHistory
			drift := history[len(history)-1] - history[0]
			if drift <= 0 {
				continue
			}

			confidence := odds.ConfidenceFromEdge(edge, oddsSnapshot.TimeToEventHours)
			signal, err := models.NewSignal(
				s.Name(), market.MarketID, outcome.OutcomeID,
				models.ActionBuy, outcome.CurrentPrice, confidence,
			)
			if err != nil {
				log.Printf("late_info_drift: discarding invalid signal for %s/%s: %v",
					market.MarketID, outcome.OutcomeID, err)
				continue
			}
			signal.Explanation = map[string]string{
				"fair_prob":      fmt.Sprintf("%.4f", fairProb),
				"edge":           fmt.Sprintf("%.4f", edge),
				"drift":          fmt.Sprintf("%.4f", drift),
				"hours_to_event": fmt.Sprintf("%.1f", oddsSnapshot.TimeToEventHours),
			}

			signals = append(signals, signal)
		}
	}

	return signals
}
