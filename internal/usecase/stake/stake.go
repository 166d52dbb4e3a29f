package stake

import (
	"context"
	"fmt"

	"dcabot/internal/domain"
	"dcabot/internal/shared/quant"

	"github.com/rs/zerolog"
)

// Депозит всего доступного остатка валюты в стейкинг: баланс → поиск
// провайдера в ставках биржи → депозит. Провайдер не задаётся руками,
// берётся из актуальных ставок.

type Staker struct {
	ex       domain.Exchange
	log      zerolog.Logger
	currency string
	places   int32 // знаков после запятой в сумме депозита
}

// NewStaker — стейкер одной валюты; places — точность количества
// (для ETH — 6, как в торговых парах).
func NewStaker(ex domain.Exchange, log zerolog.Logger, currency string, places int32) *Staker {
	return &Staker{ex: ex, log: log, currency: currency, places: places}
}

// Deposit отправляет весь доступный остаток в стейкинг. При нулевом
// остатке возвращает (nil, nil) — стейкать нечего, это не ошибка.
func (s *Staker) Deposit(ctx context.Context) (*domain.StakeResult, error) {
	balance, err := s.ex.AvailableBalance(ctx, s.currency)
	if err != nil {
		return nil, err
	}
	amount := quant.Quantize(balance, s.places, quant.Down)
	if amount.Sign() <= 0 {
		s.log.Info().Str("currency", s.currency).Msg("остатка для стейкинга нет")
		return nil, nil
	}

	rates, err := s.ex.StakingRates(ctx)
	if err != nil {
		return nil, err
	}
	rate, ok := rates[s.currency]
	if !ok || rate.ProviderID == "" {
		return nil, fmt.Errorf("stake: нет провайдера стейкинга для %s", s.currency)
	}

	s.log.Info().
		Str("currency", s.currency).
		Str("amount", amount.String()).
		Str("provider_id", rate.ProviderID).
		Str("apy", rate.APY.String()).
		Msg("отправляем в стейкинг")
	return s.ex.Stake(ctx, s.currency, rate.ProviderID, amount)
}
