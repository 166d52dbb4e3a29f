package runner

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	geminiadapter "dcabot/internal/adapters/exchange/gemini"
	"dcabot/internal/config"
	"dcabot/internal/domain"
	"dcabot/internal/infra/alerts"
	"dcabot/internal/shared/quant"
	"dcabot/internal/usecase/allocation"
	"dcabot/internal/usecase/fees"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Runner — единая точка входа запуска закупки. Триггер непрозрачен
// (крон, HTTP, ручной вызов); ответ всегда структурный: статус + тело
// с результатом по каждому активу и данными для аудита.
// Запуск не откатывается частично: уже выставленные ордера остаются.

// Report — типизированный итог запуска для презентеров.
type Report struct {
	Rate          fees.Rate
	MaxBuy        decimal.Decimal
	Targets       []decimal.Decimal // по порядку Assets
	BalanceBefore decimal.Decimal
	Outcomes      []domain.Outcome
	Insufficient  bool // средств меньше бюджета, ордера не выставлялись
	Elapsed       time.Duration
}

// Response — ответ внешнему триггеру: {statusCode, body}.
type Response struct {
	StatusCode int            `json:"statusCode"`
	Body       map[string]any `json:"body"`
}

type Runner struct {
	cfg     config.Config
	ex      domain.Exchange
	fees    *fees.Service
	alerts  *alerts.Notifier
	planner *allocation.Planner
	log     zerolog.Logger
}

func New(cfg config.Config, ex domain.Exchange, feeSvc *fees.Service, notifier *alerts.Notifier, log zerolog.Logger) *Runner {
	return &Runner{
		cfg:    cfg,
		ex:     ex,
		fees:   feeSvc,
		alerts: notifier,
		planner: allocation.New(ex, log, allocation.Options{
			QuoteCurrency: cfg.QuoteCurrency,
			MakerTaker:    cfg.MakerTaker,
		}),
		log: log,
	}
}

// Execute выполняет один запуск. Ошибка возвращается только на уровне
// всего запуска (до первого ордера); проблемы отдельных активов лежат
// в Report.Outcomes и run не прерывают.
func (r *Runner) Execute(ctx context.Context) (*Report, error) {
	started := time.Now()
	rate := r.fees.Current(ctx)

	balance, err := r.ex.AvailableBalance(ctx, r.cfg.QuoteCurrency)
	if err != nil {
		r.log.Error().Err(err).Msg("запуск сорвался до ордеров")
		r.alerts.Send(ctx, "Crypto Buy Run Failed", err.Error())
		return nil, err
	}
	balance = quant.Cents(balance)
	r.log.Info().
		Str("available", balance.StringFixed(2)).
		Str("max_buy", r.cfg.MaxBuy.StringFixed(2)).
		Msg("баланс перед закупкой")

	targets, err := allocation.SplitBudget(r.cfg.MaxBuy, r.cfg.Assets)
	if err != nil {
		r.alerts.Send(ctx, "Crypto Buy Run Failed", err.Error())
		return nil, err
	}

	report := &Report{
		Rate:          rate,
		MaxBuy:        r.cfg.MaxBuy,
		Targets:       targets,
		BalanceBefore: balance,
	}

	// Грубая проверка одним числом; точные лимиты по активам дальше
	// считает планировщик по живому остатку.
	if balance.LessThan(r.cfg.MaxBuy) {
		msg := "Insufficient " + r.cfg.QuoteCurrency + ": " +
			balance.StringFixed(2) + " < " + r.cfg.MaxBuy.StringFixed(2) + " required."
		r.log.Error().Msg(msg)
		r.alerts.Send(ctx, "Crypto Buy Failed - Insufficient Funds", msg)
		report.Insufficient = true
		report.Elapsed = time.Since(started)
		return report, nil
	}

	outcomes, err := r.planner.Run(ctx, r.cfg.MaxBuy, r.cfg.Assets, rate)
	if err != nil {
		r.alerts.Send(ctx, "Crypto Buy Run Failed", err.Error())
		return nil, err
	}
	report.Outcomes = outcomes
	report.Elapsed = time.Since(started)

	for _, o := range outcomes {
		if o.Status == domain.OutcomeFailed {
			if summary, mErr := json.MarshalIndent(resultsBody(outcomes), "", "  "); mErr == nil {
				r.alerts.Send(ctx, "Crypto Buy Completed With Errors", string(summary))
			}
			break
		}
	}
	return report, nil
}

// Handle — обёртка над Execute для внешних триггеров: {statusCode, body}.
func (r *Runner) Handle(ctx context.Context, _ any) Response {
	report, err := r.Execute(ctx)
	if err != nil {
		return Response{StatusCode: 500, Body: map[string]any{"error": err.Error()}}
	}
	if report.Insufficient {
		return Response{StatusCode: 400, Body: map[string]any{
			"error":          "insufficient funds",
			"balance_before": report.BalanceBefore.StringFixed(2),
			"max_buy":        report.MaxBuy.StringFixed(2),
		}}
	}

	targetBody := make(map[string]string, len(report.Targets))
	for i, a := range r.cfg.Assets {
		targetBody[a.Asset] = report.Targets[i].StringFixed(2)
	}
	return Response{StatusCode: 200, Body: map[string]any{
		"fee_rate_bps":   report.Rate.MakerBps,
		"fee_rate":       report.Rate.Maker.String(),
		"max_buy":        report.MaxBuy.StringFixed(2),
		"targets":        targetBody,
		"balance_before": report.BalanceBefore.StringFixed(2),
		"results":        resultsBody(report.Outcomes),
		"elapsed_ms":     report.Elapsed.Milliseconds(),
	}}
}

func resultsBody(outcomes []domain.Outcome) map[string]any {
	results := make(map[string]any, len(outcomes))
	for _, o := range outcomes {
		results[o.Asset] = outcomeBody(o)
	}
	return results
}

// outcomeBody — представление результата по активу в теле ответа.
func outcomeBody(o domain.Outcome) map[string]any {
	m := map[string]any{"status": string(o.Status)}
	if o.Reason != "" {
		m["reason"] = o.Reason
	}
	if o.Err != nil {
		m["error"] = o.Err.Error()
		var exErr *geminiadapter.ExchangeError
		if errors.As(o.Err, &exErr) {
			m["http_status"] = exErr.HTTPStatus
			if exErr.Reason != "" {
				m["reason_code"] = exErr.Reason
			}
		}
	}
	if o.Plan != nil {
		m["plan"] = map[string]any{
			"symbol":     o.Plan.Symbol,
			"amount":     o.Plan.Quantity.String(),
			"price":      o.Plan.Price.StringFixed(2),
			"cost":       o.Plan.Cost.StringFixed(2),
			"fee":        o.Plan.Fee.StringFixed(2),
			"total_cost": o.Plan.TotalCost.StringFixed(2),
			"post_only":  o.Plan.PostOnly,
		}
	}
	if o.Result != nil {
		order := map[string]any{
			"order_id":         o.Result.OrderID,
			"client_order_id":  o.Result.ClientOrderID,
			"is_live":          o.Result.IsLive,
			"is_cancelled":     o.Result.IsCancelled,
			"executed_amount":  o.Result.ExecutedAmount.String(),
			"remaining_amount": o.Result.RemainingAmount.String(),
		}
		if o.Result.CancelReason != "" {
			order["cancel_reason"] = o.Result.CancelReason
		}
		m["order"] = order
	}
	return m
}
