package sizing

import (
	"fmt"

	"dcabot/internal/domain"
	"dcabot/internal/shared/quant"

	"github.com/shopspring/decimal"
)

// Расчёт максимального количества, которое нельзя «перекупить»:
// итоговая стоимость (тело + комиссия) обязана уложиться в лимит cap.
// Модель стоимости консервативная: тело округляем вниз до центов,
// комиссию — ВВЕРХ, чтобы собственное округление биржи не оказалось
// менее выгодным, чем наша оценка.

var one = decimal.NewFromInt(1)

// centStep — один шаг цены (котировка в центах).
var centStep = decimal.New(1, -2)

// Result — помеченный исход расчёта: либо план, либо осознанный пропуск.
// Пропуск — не ошибка; причина всегда заполнена и доходит до отчёта.
type Result struct {
	Plan    *domain.OrderPlan
	Skipped bool
	Reason  string
}

func skip(reason string) Result { return Result{Skipped: true, Reason: reason} }

// Size — базовый режим: цена исполнения = ask * slippage, округлённая вниз
// до центов, ордер с maker-or-cancel. Чуть худшая цена против живой котировки
// делает лимитник почти наверняка исполнимым, оставаясь ограниченным выбором,
// а не рыночным ордером.
func Size(cap, ask, feeRate decimal.Decimal, cfg domain.AssetConfig) (Result, error) {
	execPrice := quant.Quantize(ask.Mul(cfg.SlippageFactor), 2, quant.Down)
	return sizeAt(cap, execPrice, feeRate, cfg, true)
}

// SizeMaker — вариант maker/taker: встаём на шаг ниже лучшего бида
// со ставкой maker и post-only.
func SizeMaker(cap, bid, makerFee decimal.Decimal, cfg domain.AssetConfig) (Result, error) {
	execPrice := quant.Quantize(bid, 2, quant.Down).Sub(centStep)
	return sizeAt(cap, execPrice, makerFee, cfg, true)
}

// SizeTaker — откат после неудачи maker-ветки: шаг выше лучшего аска,
// ставка taker, без post-only. Вызывается строго после maker-отказа,
// не «на всякий случай».
func SizeTaker(cap, ask, takerFee decimal.Decimal, cfg domain.AssetConfig) (Result, error) {
	execPrice := quant.Quantize(ask, 2, quant.Down).Add(centStep)
	return sizeAt(cap, execPrice, takerFee, cfg, false)
}

func sizeAt(cap, execPrice, feeRate decimal.Decimal, cfg domain.AssetConfig, postOnly bool) (Result, error) {
	if cap.Sign() <= 0 {
		return skip("cap is not positive"), nil
	}
	if execPrice.Sign() <= 0 {
		return skip("non-positive execution price"), nil
	}

	step := quant.Step(cfg.TickSize)

	// Нижняя граница: floor_tick(cap / (price * (1 + fee))).
	// При модели «всё вниз» она гарантированно не превышает cap —
	// безопасная точка старта.
	qty := quant.Quantize(cap.Div(execPrice.Mul(one.Add(feeRate))), cfg.TickSize, quant.Down)
	if qty.LessThan(cfg.MinQuantity) {
		return skip("below minimum tradable quantity"), nil
	}

	cost, fee, total := totals(execPrice, qty, feeRate)

	// Добор по одному тику: стоимость монотонна по количеству, а шаг равен
	// кванту биржи, поэтому жадный подъём не перепрыгнет ни одной
	// достижимой точки. Последний тик, выбивший total за cap, откатываем.
	for {
		cand := qty.Add(step)
		cCost, cFee, cTotal := totals(execPrice, cand, feeRate)
		if cTotal.GreaterThan(cap) {
			break
		}
		qty, cost, fee, total = cand, cCost, cFee, cTotal
	}

	// Защитный спуск: сюда попадаем только при рассинхроне режимов
	// округления; спускаемся по тику, пока не уложимся.
	for total.GreaterThan(cap) {
		qty = qty.Sub(step)
		if qty.LessThan(cfg.MinQuantity) {
			return skip("cannot fit under cap above minimum quantity"), nil
		}
		cost, fee, total = totals(execPrice, qty, feeRate)
	}

	// Жёсткий инвариант: нарушение — баг арифметики, не состояние биржи.
	if total.GreaterThan(cap) {
		return Result{}, fmt.Errorf("sizing: итог %s превысил лимит %s (%s)",
			total, cap, cfg.Asset)
	}

	return Result{Plan: &domain.OrderPlan{
		Asset:     cfg.Asset,
		Symbol:    cfg.Symbol,
		Quantity:  qty,
		Price:     execPrice,
		Cost:      cost,
		Fee:       fee,
		TotalCost: total,
		Side:      "buy",
		PostOnly:  postOnly,
	}}, nil
}

// totals — стоимость ордера: тело вниз до центов, комиссия вверх.
func totals(execPrice, qty, feeRate decimal.Decimal) (cost, fee, total decimal.Decimal) {
	cost = quant.Quantize(execPrice.Mul(qty), 2, quant.Down)
	fee = quant.Quantize(cost.Mul(feeRate), 2, quant.Up)
	total = cost.Add(fee)
	return cost, fee, total
}

// requiredFunds — оценка «сколько средств должно быть на счету», вся целиком
// вверх. В расчёт размера не входит: лимит держит инвариант total <= cap,
// а эта оценка может превысить cap на цент и отбраковала бы максимальное
// количество.
func requiredFunds(execPrice, qty, feeRate decimal.Decimal) decimal.Decimal {
	cost := quant.Quantize(execPrice.Mul(qty), 2, quant.Up)
	fee := quant.Quantize(cost.Mul(feeRate), 2, quant.Up)
	return cost.Add(fee)
}
