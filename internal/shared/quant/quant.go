package quant

import "github.com/shopspring/decimal"

// Округление денежных величин до заданной точности.
// Направление выбирается явно: Down — чтобы не вылезти за лимит,
// Up — для консервативной оценки «сколько потребуется средств»,
// HalfUp — для разбиения бюджета по процентам.

type Direction int

const (
	Down Direction = iota
	Up
	HalfUp
)

// Quantize — чистая функция: обрезает v до places знаков в сторону dir.
// Для уже округлённого значения возвращает его же (идемпотентна).
func Quantize(v decimal.Decimal, places int32, dir Direction) decimal.Decimal {
	switch dir {
	case Up:
		return v.RoundCeil(places)
	case HalfUp:
		// decimal.Round — half away from zero; для неотрицательных денег
		// это ровно half up
		return v.Round(places)
	default:
		return v.RoundFloor(places)
	}
}

// Step — один квант количества при точности tick знаков (10^-tick).
func Step(tick int32) decimal.Decimal {
	return decimal.New(1, -tick)
}

// Cents — значение, обрезанное вниз до центов. Так храним балансы и лимиты.
func Cents(v decimal.Decimal) decimal.Decimal {
	return v.RoundFloor(2)
}
