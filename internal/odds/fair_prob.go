package odds

import (
	"errors"
	"math"

	"polybet/internal/models"
)

// Ошибки расчёта справедливых вероятностей
var (
	ErrNoLines = errors.New("odds snapshot has no lines")
)

const (
	// edgeSaturation - преимущество, при котором уверенность
	// достигает максимума (10 процентных пунктов)
	edgeSaturation = 0.10

	// decayHorizonHours - горизонт затухания уверенности:
	// чем дальше событие, тем менее надёжны текущие линии
	decayHorizonHours = 72.0

	// minDecay - нижняя граница временного затухания
	minDecay = 0.25
)

// Devig убирает маржу букмекера из подразумеваемых вероятностей.
//
// Сумма implied probabilities по исходам рынка больше единицы
// (overround). Нормализация делит каждую вероятность на сумму -
// получается распределение, которое букмекер реально считает честным.
func Devig(implied map[string]float64) (map[string]float64, error) {
	if len(implied) == 0 {
		return nil, ErrNoLines
	}

	var total float64
	for _, p := range implied {
		total += p
	}
	if total <= 0 {
		return nil, ErrNoLines
	}

	fair := make(map[string]float64, len(implied))
	for outcome, p := range implied {
		fair[outcome] = p / total
	}

	return fair, nil
}

// BuildFairProbabilities строит справедливые вероятности исходов
// из снимка линий: сначала усредняет implied probability каждого
// исхода по букмекерам, затем убирает overround через Devig.
func BuildFairProbabilities(snapshot models.OddsSnapshot) (map[string]float64, error) {
	if len(snapshot.Lines) == 0 {
		return nil, ErrNoLines
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, line := range snapshot.Lines {
		sums[line.Outcome] += line.ImpliedProb
		counts[line.Outcome]++
	}

	averaged := make(map[string]float64, len(sums))
	for outcome, sum := range sums {
		averaged[outcome] = sum / float64(counts[outcome])
	}

	return Devig(averaged)
}

// Edge возвращает преимущество: насколько справедливая вероятность
// выше текущей цены рынка. Положительный edge - рынок недооценивает
// исход.
func Edge(fairProb, marketPrice float64) float64 {
	return fairProb - marketPrice
}

// ConfidenceFromEdge переводит преимущество в уверенность [0, 1].
//
// Базовая уверенность растёт линейно с edge и насыщается при
// edgeSaturation. Затем применяется временное затухание: линии на
// события дальше decayHorizonHours заслуживают меньше доверия.
func ConfidenceFromEdge(edge, timeToEventHours float64) float64 {
	if edge <= 0 {
		return 0
	}

	base := math.Min(1, edge/edgeSaturation)

	decay := 1.0
	if timeToEventHours > 0 {
		decay = math.Max(minDecay, 1-timeToEventHours/decayHorizonHours)
	}

	return base * decay
}
