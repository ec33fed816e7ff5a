package core

import "encoding/json"

type (
	// NetWorthEntry is one point-in-time snapshot in the ledger.
	NetWorthEntry struct {
		ID            string          `json:"id"`
		Date          string          `json:"date"`
		DateCreated   string          `json:"dateCreated"`
		DateModified  string          `json:"dateModified,omitempty"`
		Timezone      string          `json:"timezone,omitempty"`
		Accounts      Accounts        `json:"accounts"`
		Totals        Totals          `json:"totals"`
		Notes         string          `json:"notes"`
		ProjectedData json.RawMessage `json:"projectedData"`
	}

	Accounts struct {
		Assets      map[string]AccountValue `json:"assets"`
		Liabilities map[string]AccountValue `json:"liabilities"`
	}

	AccountValue struct {
		Actual    float64 `json:"actual"`
		Projected float64 `json:"projected"`
	}

	// Totals is derived from Accounts and never edited on its own.
	Totals struct {
		TotalAssets       float64 `json:"totalAssets"`
		TotalLiabilities  float64 `json:"totalLiabilities"`
		NetWorth          float64 `json:"netWorth"`
		ProjectedNetWorth float64 `json:"projectedNetWorth"`
		NetVariance       float64 `json:"netVariance"`
		AssetVariance     float64 `json:"assetVariance"`
		LiabilityVariance float64 `json:"liabilityVariance"`
	}
)

// Variance is actual minus projected.
func (v AccountValue) Variance() float64 {
	return v.Actual - v.Projected
}

// Clone returns a deep copy of a.
func (a Accounts) Clone() Accounts {
	return Accounts{
		Assets:      cloneAccountMap(a.Assets),
		Liabilities: cloneAccountMap(a.Liabilities),
	}
}

// Clone returns a deep copy of e.
func (e NetWorthEntry) Clone() NetWorthEntry {
	c := e
	c.Accounts = e.Accounts.Clone()
	c.ProjectedData = cloneRaw(e.ProjectedData)
	return c
}

func cloneAccountMap(m map[string]AccountValue) map[string]AccountValue {
	if m == nil {
		return nil
	}
	out := make(map[string]AccountValue, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
