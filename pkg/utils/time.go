package utils

import "time"

// time.go - утилиты для работы со временем
//
// Использование:
// - Временные корзины (buckets) для идемпотентных ключей
// - Начало торгового дня для расчёта daily PnL
// - Очистка старых записей из БД

// BucketStart возвращает начало временной корзины для указанного времени.
//
// Повторная доставка одного и того же логического решения внутри
// одной корзины даёт одинаковый идемпотентный ключ; разные корзины -
// разные ключи.
func BucketStart(t time.Time, bucket time.Duration) time.Time {
	if bucket <= 0 {
		return t.UTC()
	}
	return t.UTC().Truncate(bucket)
}

// GetDayStart возвращает начало текущего дня (00:00:00) в UTC
func GetDayStart() time.Time {
	return GetDayStartFrom(time.Now().UTC())
}

// GetDayStartFrom возвращает начало дня для указанного времени в UTC.
// Daily PnL считается по fills начиная с этой границы.
func GetDayStartFrom(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
