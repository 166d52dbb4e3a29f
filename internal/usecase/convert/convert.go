package convert

import (
	"context"

	"dcabot/internal/domain"
	"dcabot/internal/shared/quant"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Конвертация остатка GUSD в USD: продажа всего доступного GUSD
// лимиткой по $1.00 (стейбл к стейблу, цена фиксированная по определению пары).

var oneDollar = decimal.NewFromInt(1)

type Sweeper struct {
	ex  domain.Exchange
	log zerolog.Logger
}

func NewSweeper(ex domain.Exchange, log zerolog.Logger) *Sweeper {
	return &Sweeper{ex: ex, log: log}
}

// SweepGUSD продаёт весь доступный GUSD. При нулевом остатке возвращает
// (nil, nil) — конвертировать нечего, это не ошибка.
func (s *Sweeper) SweepGUSD(ctx context.Context) (*domain.OrderResult, error) {
	balance, err := s.ex.AvailableBalance(ctx, "GUSD")
	if err != nil {
		return nil, err
	}
	amount := quant.Cents(balance)
	if amount.Sign() <= 0 {
		s.log.Info().Msg("GUSD для конвертации нет")
		return nil, nil
	}

	plan := domain.OrderPlan{
		Asset:     "GUSD",
		Symbol:    "gusdusd",
		Quantity:  amount,
		Price:     oneDollar,
		Cost:      amount,
		Fee:       decimal.Zero,
		TotalCost: amount,
		Side:      "sell",
		PostOnly:  true,
	}

	s.log.Info().Str("amount", amount.String()).Msg("конвертируем GUSD → USD")
	return s.ex.PlaceOrder(ctx, plan)
}
