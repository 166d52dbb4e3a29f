package sizing

import (
	"testing"

	"dcabot/internal/domain"
	"dcabot/internal/shared/quant"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func btcConfig() domain.AssetConfig {
	return domain.AssetConfig{
		Asset:          "BTC",
		Symbol:         "btcgusd",
		TickSize:       8,
		MinQuantity:    d("0.00001"),
		SlippageFactor: d("0.999"),
		Percentage:     d("66"),
	}
}

func ethConfig() domain.AssetConfig {
	return domain.AssetConfig{
		Asset:          "ETH",
		Symbol:         "ethgusd",
		TickSize:       6,
		MinQuantity:    d("0.001"),
		SlippageFactor: d("0.998"),
		Percentage:     d("34"),
	}
}

func TestSizeReferenceCase(t *testing.T) {
	// cap=56.10, ask=50000.00, slippage=0.999 → цена исполнения 49950.00
	res, err := Size(d("56.10"), d("50000.00"), d("0.002"), btcConfig())
	require.NoError(t, err)
	require.False(t, res.Skipped, res.Reason)

	plan := res.Plan
	require.True(t, plan.Price.Equal(d("49950.00")), "price=%s", plan.Price)
	require.True(t, plan.Quantity.Equal(d("0.00112092")), "qty=%s", plan.Quantity)
	require.True(t, plan.Cost.Equal(d("55.98")), "cost=%s", plan.Cost)
	require.True(t, plan.Fee.Equal(d("0.12")), "fee=%s", plan.Fee)
	require.True(t, plan.TotalCost.Equal(d("56.10")), "total=%s", plan.TotalCost)
	require.Equal(t, "buy", plan.Side)
	require.True(t, plan.PostOnly)

	// Максимальность: ещё один тик уже не влезает
	_, _, bumped := totals(plan.Price, plan.Quantity.Add(quant.Step(8)), d("0.002"))
	require.True(t, bumped.GreaterThan(d("56.10")), "bumped=%s", bumped)
}

func TestSizeSkipsBelowMinimum(t *testing.T) {
	cfg := ethConfig() // min 0.001
	res, err := Size(d("0.50"), d("50000"), d("0.002"), cfg)
	require.NoError(t, err)
	require.True(t, res.Skipped)
	require.Equal(t, "below minimum tradable quantity", res.Reason)
}

func TestSizeSkipsNonPositiveCap(t *testing.T) {
	for _, cap := range []string{"0", "-1", "0.00"} {
		res, err := Size(d(cap), d("50000"), d("0.002"), btcConfig())
		require.NoError(t, err)
		require.True(t, res.Skipped, "cap=%s", cap)
		require.Equal(t, "cap is not positive", res.Reason)
	}
}

// Итог никогда не превышает лимит, количество кратно тику, и жадный
// добор действительно максимален — на сетке реалистичных входов.
func TestSizeNeverExceedsCapAndIsMaximal(t *testing.T) {
	caps := []string{"5.00", "28.90", "56.10", "100.00", "1234.56"}
	asks := []string{"1850.00", "3000.55", "49999.99", "103250.10"}
	rates := []string{"0.001", "0.002", "0.0035", "0.004"}

	for _, cfg := range []domain.AssetConfig{btcConfig(), ethConfig()} {
		step := quant.Step(cfg.TickSize)
		for _, c := range caps {
			for _, a := range asks {
				for _, f := range rates {
					res, err := Size(d(c), d(a), d(f), cfg)
					require.NoError(t, err)
					if res.Skipped {
						continue
					}
					plan := res.Plan

					require.True(t, plan.TotalCost.LessThanOrEqual(d(c)),
						"%s cap=%s ask=%s fee=%s: total=%s", cfg.Asset, c, a, f, plan.TotalCost)
					require.True(t, plan.Quantity.GreaterThanOrEqual(cfg.MinQuantity))

					// кратность тику
					require.True(t, plan.Quantity.Mod(step).IsZero(),
						"qty=%s step=%s", plan.Quantity, step)

					// максимальность
					_, _, bumped := totals(plan.Price, plan.Quantity.Add(step), d(f))
					require.True(t, bumped.GreaterThan(d(c)),
						"%s cap=%s ask=%s fee=%s: bumped=%s влезает", cfg.Asset, c, a, f, bumped)

					// согласованность полей
					require.True(t, plan.TotalCost.Equal(plan.Cost.Add(plan.Fee)))
				}
			}
		}
	}
}

func TestSizeMakerPricesBelowBid(t *testing.T) {
	res, err := SizeMaker(d("56.10"), d("49990.00"), d("0.002"), btcConfig())
	require.NoError(t, err)
	require.False(t, res.Skipped)
	require.True(t, res.Plan.Price.Equal(d("49989.99")), "price=%s", res.Plan.Price)
	require.True(t, res.Plan.PostOnly)
}

func TestSizeTakerPricesAboveAskWithoutPostOnly(t *testing.T) {
	res, err := SizeTaker(d("56.10"), d("50000.00"), d("0.004"), btcConfig())
	require.NoError(t, err)
	require.False(t, res.Skipped)
	require.True(t, res.Plan.Price.Equal(d("50000.01")), "price=%s", res.Plan.Price)
	require.False(t, res.Plan.PostOnly)
	require.True(t, res.Plan.TotalCost.LessThanOrEqual(d("56.10")))
}

func TestRequiredFundsIsConservative(t *testing.T) {
	// Оценка «сколько нужно средств» не бывает ниже честного итога плана
	res, err := Size(d("56.10"), d("50000.00"), d("0.002"), btcConfig())
	require.NoError(t, err)
	required := requiredFunds(res.Plan.Price, res.Plan.Quantity, d("0.002"))
	require.True(t, required.GreaterThanOrEqual(res.Plan.TotalCost))
}
