package allocation

import (
	"context"
	"fmt"

	"dcabot/internal/domain"
	"dcabot/internal/shared/quant"
	"dcabot/internal/usecase/fees"
	"dcabot/internal/usecase/sizing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Разбиение бюджета по активам и последовательное размещение ордеров.
// Принципиально БЕЗ параллелизма: выставленный ордер по активу i держит
// средства, и считать актив i+1 по старому снимку баланса — значит
// переобещать деньги, которые биржа уже не отдаст.

var hundred = decimal.NewFromInt(100)

// Options — режим запуска.
type Options struct {
	QuoteCurrency string // валюта бюджета: GUSD
	MakerTaker    bool   // true — двухфазный maker→taker вместо slippage-цены
}

type Planner struct {
	ex   domain.Exchange
	log  zerolog.Logger
	opts Options
}

func New(ex domain.Exchange, log zerolog.Logger, opts Options) *Planner {
	if opts.QuoteCurrency == "" {
		opts.QuoteCurrency = "GUSD"
	}
	return &Planner{ex: ex, log: log, opts: opts}
}

// SplitBudget делит total по процентам активов: каждая цель округляется
// half-up до центов, последний актив забирает остаток округления —
// сумма целей сходится с total копейка в копейку.
func SplitBudget(total decimal.Decimal, assets []domain.AssetConfig) ([]decimal.Decimal, error) {
	if len(assets) == 0 {
		return nil, fmt.Errorf("allocation: список активов пуст")
	}
	sum := decimal.Zero
	for _, a := range assets {
		if a.Percentage.Sign() <= 0 {
			return nil, fmt.Errorf("allocation: %s: доля должна быть > 0", a.Asset)
		}
		sum = sum.Add(a.Percentage)
	}
	if !sum.Equal(hundred) {
		return nil, fmt.Errorf("allocation: сумма долей %s%% != 100%%", sum)
	}

	targets := make([]decimal.Decimal, len(assets))
	allocated := decimal.Zero
	for i, a := range assets {
		if i == len(assets)-1 {
			targets[i] = total.Sub(allocated)
			break
		}
		targets[i] = quant.Quantize(total.Mul(a.Percentage.Div(hundred)), 2, quant.HalfUp)
		allocated = allocated.Add(targets[i])
	}
	return targets, nil
}

// Run обрабатывает активы строго по порядку. Лимит первого актива — его цель;
// для каждого следующего берём min(цель, живой остаток на счету), потому что
// предыдущий ордер уже удерживает средства. Ошибка по одному активу не
// останавливает остальные — она попадёт в Outcome.
func (p *Planner) Run(ctx context.Context, total decimal.Decimal, assets []domain.AssetConfig, rate fees.Rate) ([]domain.Outcome, error) {
	targets, err := SplitBudget(total, assets)
	if err != nil {
		return nil, err
	}

	outcomes := make([]domain.Outcome, 0, len(assets))
	for i, cfg := range assets {
		cap := targets[i]
		if i > 0 {
			live, err := p.ex.AvailableBalance(ctx, p.opts.QuoteCurrency)
			if err != nil {
				outcomes = append(outcomes, domain.Outcome{
					Asset: cfg.Asset, Status: domain.OutcomeFailed,
					Err: fmt.Errorf("баланс перед %s: %w", cfg.Asset, err),
				})
				continue
			}
			live = quant.Cents(live)
			p.log.Info().Str("asset", cfg.Asset).Str("available", live.String()).
				Msg("живой остаток перед активом")
			cap = decimal.Min(cap, live)
		}

		outcomes = append(outcomes, p.allocate(ctx, cfg, cap, rate))
	}
	return outcomes, nil
}

// allocate — один шаг: свежая котировка, расчёт, размещение.
func (p *Planner) allocate(ctx context.Context, cfg domain.AssetConfig, cap decimal.Decimal, rate fees.Rate) domain.Outcome {
	if cap.Sign() <= 0 {
		return domain.Outcome{
			Asset: cfg.Asset, Status: domain.OutcomeSkipped,
			Reason: "no funds remaining after earlier orders",
		}
	}

	quote, err := p.ex.Ticker(ctx, cfg.Symbol)
	if err != nil {
		return domain.Outcome{Asset: cfg.Asset, Status: domain.OutcomeFailed, Err: err}
	}

	if p.opts.MakerTaker {
		return p.placeMakerTaker(ctx, cfg, cap, quote, rate)
	}

	res, err := sizing.Size(cap, quote.Ask, rate.Maker, cfg)
	if err != nil {
		return domain.Outcome{Asset: cfg.Asset, Status: domain.OutcomeFailed, Err: err}
	}
	if res.Skipped {
		return domain.Outcome{Asset: cfg.Asset, Status: domain.OutcomeSkipped, Reason: res.Reason}
	}
	return p.place(ctx, cfg, res.Plan)
}

// placeMakerTaker — двухфазный автомат: maker (bid − тик, post-only) и,
// строго после его неудачи, taker (ask + тик, без post-only, ставка выше).
func (p *Planner) placeMakerTaker(ctx context.Context, cfg domain.AssetConfig, cap decimal.Decimal, quote domain.Quote, rate fees.Rate) domain.Outcome {
	res, err := sizing.SizeMaker(cap, quote.Bid, rate.Maker, cfg)
	if err != nil {
		return domain.Outcome{Asset: cfg.Asset, Status: domain.OutcomeFailed, Err: err}
	}
	if !res.Skipped {
		out := p.place(ctx, cfg, res.Plan)
		if out.Status == domain.OutcomePlaced && (out.Result == nil || !out.Result.IsCancelled) {
			return out
		}
		p.log.Warn().Str("asset", cfg.Asset).Msg("maker-ветка не прошла, пробуем taker")
	} else {
		p.log.Info().Str("asset", cfg.Asset).Str("reason", res.Reason).
			Msg("maker-ветка пропущена, пробуем taker")
	}

	res, err = sizing.SizeTaker(cap, quote.Ask, rate.Taker, cfg)
	if err != nil {
		return domain.Outcome{Asset: cfg.Asset, Status: domain.OutcomeFailed, Err: err}
	}
	if res.Skipped {
		return domain.Outcome{Asset: cfg.Asset, Status: domain.OutcomeSkipped, Reason: res.Reason}
	}
	return p.place(ctx, cfg, res.Plan)
}

func (p *Planner) place(ctx context.Context, cfg domain.AssetConfig, plan *domain.OrderPlan) domain.Outcome {
	p.log.Info().
		Str("asset", cfg.Asset).
		Str("qty", plan.Quantity.String()).
		Str("price", plan.Price.StringFixed(2)).
		Str("total", plan.TotalCost.StringFixed(2)).
		Bool("post_only", plan.PostOnly).
		Msg("размещаем ордер")

	result, err := p.ex.PlaceOrder(ctx, *plan)
	if err != nil {
		return domain.Outcome{Asset: cfg.Asset, Status: domain.OutcomeFailed, Plan: plan, Err: err}
	}
	return domain.Outcome{Asset: cfg.Asset, Status: domain.OutcomePlaced, Plan: plan, Result: result}
}
