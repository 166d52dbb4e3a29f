package fees

import (
	"context"

	"dcabot/internal/domain"
	"dcabot/internal/shared/quant"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Комиссии считаются в валюте котировки (GUSD).
// Ставка тянется с биржи раз в запуск и переиспользуется для всех активов;
// при недоступности эндпоинта — консервативный дефолт 20 bps (0.20%).

const (
	defaultMakerBps = 20
	bpsDenominator  = 10000
)

// Rate — ставки одного запуска.
type Rate struct {
	MakerBps int
	Maker    decimal.Decimal // доля: 0.002 = 0.20%
	Taker    decimal.Decimal // обычно вдвое выше maker
}

// Alerter — канал предупреждений (SNS и т.п.); достаточно одного метода.
type Alerter interface {
	Send(ctx context.Context, subject, message string)
}

type Service struct {
	ex     domain.Exchange
	alerts Alerter
	log    zerolog.Logger
}

func New(ex domain.Exchange, alerts Alerter, log zerolog.Logger) *Service {
	return &Service{ex: ex, alerts: alerts, log: log}
}

// Current — действующая ставка аккаунта по 30-дневному обороту.
// Ошибка запроса не фатальна: предупреждаем и работаем по дефолту.
func (s *Service) Current(ctx context.Context) Rate {
	nv, err := s.ex.NotionalVolume(ctx)
	if err != nil {
		s.log.Warn().Err(err).Int("default_bps", defaultMakerBps).
			Msg("не удалось получить ставку комиссии, берём дефолт")
		if s.alerts != nil {
			s.alerts.Send(ctx, "Fee Rate Fetch Warning",
				"Failed to fetch fee tier: "+err.Error()+". Using default 0.20%.")
		}
		return FromBps(defaultMakerBps, 2*defaultMakerBps)
	}

	takerBps := nv.TakerFeeBps
	if takerBps <= 0 {
		takerBps = 2 * nv.MakerFeeBps
	}
	s.log.Info().Int("maker_bps", nv.MakerFeeBps).Int("taker_bps", takerBps).
		Msg("динамическая ставка комиссии")
	return FromBps(nv.MakerFeeBps, takerBps)
}

// FromBps переводит базисные пункты в долю, обрезая вниз до 8 знаков.
func FromBps(makerBps, takerBps int) Rate {
	denom := decimal.NewFromInt(bpsDenominator)
	return Rate{
		MakerBps: makerBps,
		Maker:    quant.Quantize(decimal.NewFromInt(int64(makerBps)).Div(denom), 8, quant.Down),
		Taker:    quant.Quantize(decimal.NewFromInt(int64(takerBps)).Div(denom), 8, quant.Down),
	}
}
