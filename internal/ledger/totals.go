package ledger

import (
	"github.com/shopspring/decimal"

	"fiquest/internal/core"
)

// ComputeTotals derives the entry totals from its accounts. Sums are taken
// in decimal so that e.g. 0.1 + 0.2 totals to 0.3.
func ComputeTotals(a core.Accounts) core.Totals {
	assets, projectedAssets := sum(a.Assets)
	liabilities, projectedLiabilities := sum(a.Liabilities)

	netWorth := assets.Sub(liabilities)
	projectedNetWorth := projectedAssets.Sub(projectedLiabilities)

	return core.Totals{
		TotalAssets:       assets.InexactFloat64(),
		TotalLiabilities:  liabilities.InexactFloat64(),
		NetWorth:          netWorth.InexactFloat64(),
		ProjectedNetWorth: projectedNetWorth.InexactFloat64(),
		NetVariance:       netWorth.Sub(projectedNetWorth).InexactFloat64(),
		AssetVariance:     assets.Sub(projectedAssets).InexactFloat64(),
		LiabilityVariance: liabilities.Sub(projectedLiabilities).InexactFloat64(),
	}
}

func sum(accounts map[string]core.AccountValue) (actual, projected decimal.Decimal) {
	actual, projected = decimal.Zero, decimal.Zero
	for _, v := range accounts {
		actual = actual.Add(decimal.NewFromFloat(v.Actual))
		projected = projected.Add(decimal.NewFromFloat(v.Projected))
	}
	return actual, projected
}
