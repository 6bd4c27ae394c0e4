package utils

import "math"

// math.go - математические утилиты для торговли на prediction markets
//
// Все функции чистые (pure functions) без побочных эффектов.
// Цены на Polymarket - implied probabilities в диапазоне [0,1]
// с минимальным шагом (tick) 0.01.

// ClampProbability ограничивает значение диапазоном [0,1]
func ClampProbability(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// RoundToTick округляет цену ВНИЗ до ближайшего кратного tick.
//
// Округление вниз безопаснее для торговли - заявленная цена
// не превысит целевую.
//
// Примеры:
//   - RoundToTick(0.456, 0.01) = 0.45
//   - RoundToTick(0.5, 0.01) = 0.5
func RoundToTick(price, tick float64) float64 {
	if tick <= 0 {
		return price
	}
	return math.Floor(price/tick) * tick
}

// Slippage возвращает относительное отклонение текущей цены от ожидаемой.
//
// Если ожидаемая цена некорректна (<= 0), возвращает +Inf -
// такой ордер всегда отклоняется проверкой slippage.
func Slippage(expectedPrice, actualPrice float64) float64 {
	if expectedPrice <= 0 {
		return math.Inf(1)
	}
	return math.Abs(actualPrice-expectedPrice) / expectedPrice
}

// WithinSlippage проверяет, укладывается ли отклонение цены в допуск
func WithinSlippage(expectedPrice, actualPrice, maxSlippage float64) bool {
	return Slippage(expectedPrice, actualPrice) <= maxSlippage
}

// ZScore возвращает отклонение последнего значения ряда от среднего
// в стандартных отклонениях. Для ряда короче 2 элементов возвращает 0.
func ZScore(series []float64) float64 {
	if len(series) < 2 {
		return 0
	}

	var sum float64
	for _, v := range series {
		sum += v
	}
	mean := sum / float64(len(series))

	var variance float64
	for _, v := range series {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(series))

	std := math.Sqrt(variance)
	if std == 0 {
		return 0
	}

	return (series[len(series)-1] - mean) / std
}
