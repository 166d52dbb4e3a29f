package allocation

import (
	"context"
	"errors"
	"testing"

	"dcabot/internal/domain"
	"dcabot/internal/usecase/fees"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func defaultAssets() []domain.AssetConfig {
	return []domain.AssetConfig{
		{
			Asset: "BTC", Symbol: "btcgusd", TickSize: 8,
			MinQuantity:    d("0.00001"),
			SlippageFactor: d("0.999"),
			Percentage:     d("66"),
		},
		{
			Asset: "ETH", Symbol: "ethgusd", TickSize: 6,
			MinQuantity:    d("0.001"),
			SlippageFactor: d("0.998"),
			Percentage:     d("34"),
		},
	}
}

// ===== фейковая биржа =====

type fakeExchange struct {
	balances   []decimal.Decimal // очередь ответов AvailableBalance
	balanceErr error
	quotes     map[string]domain.Quote
	tickerErr  map[string]error
	placeErr   map[string]error
	cancelled  map[string]bool // символы, по которым post-only ордер отменён

	balanceCalls int
	placed       []domain.OrderPlan
}

func (f *fakeExchange) AvailableBalance(_ context.Context, _ string) (decimal.Decimal, error) {
	f.balanceCalls++
	if f.balanceErr != nil {
		return decimal.Zero, f.balanceErr
	}
	if len(f.balances) == 0 {
		return decimal.Zero, nil
	}
	b := f.balances[0]
	f.balances = f.balances[1:]
	return b, nil
}

func (f *fakeExchange) Ticker(_ context.Context, symbol string) (domain.Quote, error) {
	if err := f.tickerErr[symbol]; err != nil {
		return domain.Quote{}, err
	}
	q, ok := f.quotes[symbol]
	if !ok {
		return domain.Quote{}, errors.New("нет котировки: " + symbol)
	}
	return q, nil
}

func (f *fakeExchange) NotionalVolume(_ context.Context) (domain.NotionalVolume, error) {
	return domain.NotionalVolume{MakerFeeBps: 20, TakerFeeBps: 40}, nil
}

func (f *fakeExchange) PlaceOrder(_ context.Context, plan domain.OrderPlan) (*domain.OrderResult, error) {
	if err := f.placeErr[plan.Symbol]; err != nil {
		return nil, err
	}
	f.placed = append(f.placed, plan)
	res := &domain.OrderResult{
		OrderID: "42", Symbol: plan.Symbol, IsLive: true,
		RemainingAmount: plan.Quantity,
	}
	if plan.PostOnly && f.cancelled[plan.Symbol] {
		res.IsLive = false
		res.IsCancelled = true
		res.CancelReason = "MakerOrCancelWouldTake"
	}
	return res, nil
}

func (f *fakeExchange) OrderStatus(_ context.Context, orderID string) (*domain.OrderResult, error) {
	return &domain.OrderResult{OrderID: orderID}, nil
}

func (f *fakeExchange) CancelOrder(_ context.Context, orderID string) (*domain.OrderResult, error) {
	return &domain.OrderResult{OrderID: orderID, IsCancelled: true}, nil
}

func (f *fakeExchange) StakingRates(_ context.Context) (map[string]domain.StakingRate, error) {
	return nil, errors.New("не используется в закупке")
}

func (f *fakeExchange) Stake(_ context.Context, _, _ string, _ decimal.Decimal) (*domain.StakeResult, error) {
	return nil, errors.New("не используется в закупке")
}

// ===== SplitBudget =====

func TestSplitBudgetReference(t *testing.T) {
	targets, err := SplitBudget(d("85.00"), defaultAssets())
	require.NoError(t, err)
	require.Len(t, targets, 2)
	require.True(t, targets[0].Equal(d("56.10")), "btc=%s", targets[0])
	require.True(t, targets[1].Equal(d("28.90")), "eth=%s", targets[1])
}

func TestSplitBudgetSumsExactly(t *testing.T) {
	assets := []domain.AssetConfig{
		{Asset: "A", Percentage: d("33")},
		{Asset: "B", Percentage: d("33")},
		{Asset: "C", Percentage: d("34")},
	}
	for _, total := range []string{"100.00", "170.00", "0.01", "999.99"} {
		targets, err := SplitBudget(d(total), assets)
		require.NoError(t, err)
		sum := decimal.Zero
		for _, tg := range targets {
			sum = sum.Add(tg)
		}
		require.True(t, sum.Equal(d(total)), "total=%s sum=%s", total, sum)
	}
}

func TestSplitBudgetValidation(t *testing.T) {
	_, err := SplitBudget(d("100"), nil)
	require.Error(t, err)

	_, err = SplitBudget(d("100"), []domain.AssetConfig{
		{Asset: "A", Percentage: d("60")},
		{Asset: "B", Percentage: d("30")},
	})
	require.Error(t, err)

	_, err = SplitBudget(d("100"), []domain.AssetConfig{
		{Asset: "A", Percentage: d("100")},
		{Asset: "B", Percentage: d("0")},
	})
	require.Error(t, err)
}

// ===== Run =====

func newPlanner(ex domain.Exchange) *Planner {
	return New(ex, zerolog.Nop(), Options{})
}

func TestRunPlacesBothAssetsSequentially(t *testing.T) {
	ex := &fakeExchange{
		balances: []decimal.Decimal{d("113.90")}, // остаток после первого ордера
		quotes: map[string]domain.Quote{
			"btcgusd": {Symbol: "btcgusd", Bid: d("49990.00"), Ask: d("50000.00")},
			"ethgusd": {Symbol: "ethgusd", Bid: d("2999.00"), Ask: d("3000.00")},
		},
	}

	outcomes, err := newPlanner(ex).Run(context.Background(), d("85.00"), defaultAssets(),
		fees.FromBps(20, 40))
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	require.Equal(t, domain.OutcomePlaced, outcomes[0].Status)
	require.Equal(t, domain.OutcomePlaced, outcomes[1].Status)

	// Первый актив — без чтения баланса, второй — с живым остатком
	require.Equal(t, 1, ex.balanceCalls)
	require.Len(t, ex.placed, 2)
	require.True(t, ex.placed[0].TotalCost.Equal(d("56.10")))
	require.True(t, ex.placed[1].TotalCost.LessThanOrEqual(d("28.90")))
}

func TestRunCapsByLiveBalance(t *testing.T) {
	// После первого ордера на счету осталось меньше цели второго актива
	ex := &fakeExchange{
		balances: []decimal.Decimal{d("10.00")},
		quotes: map[string]domain.Quote{
			"btcgusd": {Bid: d("49990.00"), Ask: d("50000.00")},
			"ethgusd": {Bid: d("2999.00"), Ask: d("3000.00")},
		},
	}

	outcomes, err := newPlanner(ex).Run(context.Background(), d("85.00"), defaultAssets(),
		fees.FromBps(20, 40))
	require.NoError(t, err)
	require.Equal(t, domain.OutcomePlaced, outcomes[1].Status)
	require.True(t, outcomes[1].Plan.TotalCost.LessThanOrEqual(d("10.00")),
		"второй ордер обязан уложиться в живой остаток: %s", outcomes[1].Plan.TotalCost)
}

func TestRunSkipsWhenFundsExhausted(t *testing.T) {
	ex := &fakeExchange{
		balances: []decimal.Decimal{d("0.00")},
		quotes: map[string]domain.Quote{
			"btcgusd": {Bid: d("49990.00"), Ask: d("50000.00")},
		},
	}

	outcomes, err := newPlanner(ex).Run(context.Background(), d("85.00"), defaultAssets(),
		fees.FromBps(20, 40))
	require.NoError(t, err)
	require.Equal(t, domain.OutcomePlaced, outcomes[0].Status)
	require.Equal(t, domain.OutcomeSkipped, outcomes[1].Status)
	require.Equal(t, "no funds remaining after earlier orders", outcomes[1].Reason)
	require.Len(t, ex.placed, 1)
}

func TestRunIsolatesPerAssetFailures(t *testing.T) {
	ex := &fakeExchange{
		balances:  []decimal.Decimal{d("113.90")},
		tickerErr: map[string]error{"btcgusd": errors.New("502 bad gateway")},
		quotes: map[string]domain.Quote{
			"ethgusd": {Bid: d("2999.00"), Ask: d("3000.00")},
		},
	}

	outcomes, err := newPlanner(ex).Run(context.Background(), d("85.00"), defaultAssets(),
		fees.FromBps(20, 40))
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeFailed, outcomes[0].Status)
	require.Error(t, outcomes[0].Err)
	// Ошибка по BTC не мешает ETH
	require.Equal(t, domain.OutcomePlaced, outcomes[1].Status)
}

func TestRunBalanceErrorFailsOnlyThatAsset(t *testing.T) {
	ex := &fakeExchange{
		balanceErr: errors.New("timeout"),
		quotes: map[string]domain.Quote{
			"btcgusd": {Bid: d("49990.00"), Ask: d("50000.00")},
			"ethgusd": {Bid: d("2999.00"), Ask: d("3000.00")},
		},
	}

	outcomes, err := newPlanner(ex).Run(context.Background(), d("85.00"), defaultAssets(),
		fees.FromBps(20, 40))
	require.NoError(t, err)
	require.Equal(t, domain.OutcomePlaced, outcomes[0].Status)
	require.Equal(t, domain.OutcomeFailed, outcomes[1].Status)
	require.Error(t, outcomes[1].Err)
}

// ===== maker/taker =====

func TestMakerTakerFallsBackOnCancel(t *testing.T) {
	ex := &fakeExchange{
		cancelled: map[string]bool{"btcgusd": true}, // post-only снимается биржей
		quotes: map[string]domain.Quote{
			"btcgusd": {Bid: d("49990.00"), Ask: d("50000.00")},
		},
	}
	p := New(ex, zerolog.Nop(), Options{MakerTaker: true})

	assets := defaultAssets()[:1]
	assets[0].Percentage = d("100")

	outcomes, err := p.Run(context.Background(), d("56.10"), assets, fees.FromBps(20, 40))
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	require.Equal(t, domain.OutcomePlaced, outcomes[0].Status)

	// Два размещения: maker (отменён) и taker
	require.Len(t, ex.placed, 2)
	require.True(t, ex.placed[0].PostOnly)
	require.True(t, ex.placed[0].Price.Equal(d("49989.99")), "maker=%s", ex.placed[0].Price)
	require.False(t, ex.placed[1].PostOnly)
	require.True(t, ex.placed[1].Price.Equal(d("50000.01")), "taker=%s", ex.placed[1].Price)
	require.False(t, outcomes[0].Result.IsCancelled)
}

func TestMakerTakerKeepsMakerWhenLive(t *testing.T) {
	ex := &fakeExchange{
		quotes: map[string]domain.Quote{
			"btcgusd": {Bid: d("49990.00"), Ask: d("50000.00")},
		},
	}
	p := New(ex, zerolog.Nop(), Options{MakerTaker: true})

	assets := defaultAssets()[:1]
	assets[0].Percentage = d("100")

	outcomes, err := p.Run(context.Background(), d("56.10"), assets, fees.FromBps(20, 40))
	require.NoError(t, err)
	require.Equal(t, domain.OutcomePlaced, outcomes[0].Status)
	require.Len(t, ex.placed, 1)
	require.True(t, ex.placed[0].PostOnly)
}
