package strategy

import (
	"fmt"
	"log"
	"math"

	"polybet/internal/models"
	"polybet/pkg/utils"
)

const (
	// minHistoryDepth - минимальная глубина истории цен для z-score
	minHistoryDepth = 10

	// reversionThreshold - порог отклонения в стандартных отклонениях
	reversionThreshold = 2.0

	// reversionSaturation - |z|, при котором уверенность максимальна
	reversionSaturation = 4.0
)

// MeanReversion - стратегия возврата к среднему.
//
// Резкий выброс цены без информационного повода обычно откатывается:
// z-score ниже -2 - перепроданность (покупаем), выше +2 -
// перекупленность (продаём).
type MeanReversion struct{}

var _ Strategy = (*MeanReversion)(nil)

// NewMeanReversion создает стратегию возврата к среднему
func NewMeanReversion() *MeanReversion {
	return &MeanReversion{}
}

// Name возвращает имя стратегии
func (s *MeanReversion) Name() string {
	return "mean_reversion"
}

// Generate строит сигналы по выбросам цены относительно истории
func (s *MeanReversion) Generate(data models.MarketData) []models.Signal {
	var signals []models.Signal

	for _, market := range data.Markets {
		for _, outcome := range market.Outcomes {
			if len(outcome.PriceHistory) < minHistoryDepth {
				continue
			}

			z := utils.ZScore(outcome.PriceHistory)
			if math.Abs(z) < reversionThreshold {
				continue
			}

			action := models.ActionBuy
			if z > 0 {
				action = models.ActionSell
			}

			// Уверенность растёт с силой выброса
			confidence := utils.ClampProbability(math.Abs(z) / reversionSaturation)

			signal, err := models.NewSignal(
				s.Name(), market.MarketID, outcome.OutcomeID,
				action, outcome.CurrentPrice, confidence,
			)
			if err != nil {
				log.Printf("mean_reversion: discarding invalid signal for %s/%s: %v",
					market.MarketID, outcome.OutcomeID, err)
				continue
			}
			signal.Explanation = map[string]string{
				"z_score":       fmt.Sprintf("%.2f", z),
				"history_depth": fmt.Sprintf("%d", len(outcome.PriceHistory)),
			}

			signals = append(signals, signal)
		}
	}

	return signals
}
