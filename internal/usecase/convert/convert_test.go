package convert

import (
	"context"
	"errors"
	"testing"

	"dcabot/internal/domain"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type stubExchange struct {
	domain.Exchange
	balance    decimal.Decimal
	balanceErr error
	placed     []domain.OrderPlan
}

func (s *stubExchange) AvailableBalance(_ context.Context, _ string) (decimal.Decimal, error) {
	return s.balance, s.balanceErr
}

func (s *stubExchange) PlaceOrder(_ context.Context, plan domain.OrderPlan) (*domain.OrderResult, error) {
	s.placed = append(s.placed, plan)
	return &domain.OrderResult{OrderID: "7", Symbol: plan.Symbol, IsLive: true}, nil
}

func TestSweepSellsFullBalanceAtParity(t *testing.T) {
	ex := &stubExchange{balance: decimal.RequireFromString("123.456")}
	res, err := NewSweeper(ex, zerolog.Nop()).SweepGUSD(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res)

	require.Len(t, ex.placed, 1)
	plan := ex.placed[0]
	require.Equal(t, "gusdusd", plan.Symbol)
	require.Equal(t, "sell", plan.Side)
	require.True(t, plan.PostOnly)
	// Остаток обрезан вниз до центов
	require.True(t, plan.Quantity.Equal(decimal.RequireFromString("123.45")), "qty=%s", plan.Quantity)
	require.True(t, plan.Price.Equal(decimal.NewFromInt(1)))
}

func TestSweepNothingToConvert(t *testing.T) {
	ex := &stubExchange{balance: decimal.RequireFromString("0.004")}
	res, err := NewSweeper(ex, zerolog.Nop()).SweepGUSD(context.Background())
	require.NoError(t, err)
	require.Nil(t, res)
	require.Empty(t, ex.placed)
}

func TestSweepPropagatesBalanceError(t *testing.T) {
	ex := &stubExchange{balanceErr: errors.New("timeout")}
	_, err := NewSweeper(ex, zerolog.Nop()).SweepGUSD(context.Background())
	require.Error(t, err)
	require.Empty(t, ex.placed)
}
