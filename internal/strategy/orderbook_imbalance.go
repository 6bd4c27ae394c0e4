package strategy

import (
	"fmt"
	"log"

	"polybet/internal/models"
)

const (
	// minBookDepth - минимальный суммарный объём стакана;
	// на тонких рынках дисбаланс не информативен
	minBookDepth = 500.0

	// imbalanceBuyRatio / imbalanceSellRatio - пороги доли bid-объёма
	imbalanceBuyRatio  = 0.70
	imbalanceSellRatio = 0.30
)

// OrderbookImbalance - стратегия дисбаланса стакана.
//
// Устойчивый перевес bid-объёма предсказывает движение цены вверх
// на коротком горизонте, перевес ask-объёма - вниз.
type OrderbookImbalance struct{}

var _ Strategy = (*OrderbookImbalance)(nil)

// NewOrderbookImbalance создает стратегию дисбаланса стакана
func NewOrderbookImbalance() *OrderbookImbalance {
	return &OrderbookImbalance{}
}

// Name возвращает имя стратегии
func (s *OrderbookImbalance) Name() string {
	return "orderbook_imbalance"
}

// Generate строит сигналы по перекосу объёмов стакана
func (s *OrderbookImbalance) Generate(data models.MarketData) []models.Signal {
	var signals []models.Signal

	for _, market := range data.Markets {
		for _, outcome := range market.Outcomes {
			total := outcome.BidDepth + outcome.AskDepth
			if total < minBookDepth {
				continue
			}

			ratio := outcome.BidDepth / total

			var action string
			switch {
			case ratio >= imbalanceBuyRatio:
				action = models.ActionBuy
			case ratio <= imbalanceSellRatio:
				action = models.ActionSell
			default:
				continue
			}

			// Уверенность пропорциональна силе перекоса:
			// ratio 0.70 -> 0.4, ratio 1.0 -> 1.0 (и зеркально для sell)
			skew := ratio
			if action == models.ActionSell {
				skew = 1 - ratio
			}
			confidence := (skew - imbalanceSellRatio) / (1 - imbalanceSellRatio)

			signal, err := models.NewSignal(
				s.Name(), market.MarketID, outcome.OutcomeID,
				action, outcome.CurrentPrice, confidence,
			)
			if err != nil {
				log.Printf("orderbook_imbalance: discarding invalid signal for %s/%s: %v",
					market.MarketID, outcome.OutcomeID, err)
				continue
			}
			signal.Explanation = map[string]string{
				"bid_depth": fmt.Sprintf("%.0f", outcome.BidDepth),
				"ask_depth": fmt.Sprintf("%.0f", outcome.AskDepth),
				"bid_ratio": fmt.Sprintf("%.2f", ratio),
			}

			signals = append(signals, signal)
		}
	}

	return signals
}
