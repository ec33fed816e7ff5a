package codec

import (
	"encoding/json"
	"strings"

	"fiquest/internal/core"
	"fiquest/internal/ledger"
)

// completeCSV flattens an envelope into titled sections. Every field is
// wrapped in double quotes; embedded quotes are written as-is.
func completeCSV(env core.ExportEnvelope) string {
	var b strings.Builder

	b.WriteString(`"FIQuest Data Export - Player Information"` + "\n")
	b.WriteString(`"Player Name","Export Date","Last Played","Timezone"` + "\n")
	writeRow(&b, env.PlayerData.PlayerName, env.ExportDate, env.PlayerData.LastPlayedDate, env.ExportTimezone)
	b.WriteString("\n")

	if scenarios := decodeScenarios(env.GameData.Scenarios); len(scenarios) > 0 {
		b.WriteString(`"Financial Independence Scenarios"` + "\n")
		b.WriteString(`"Scenario Name","Target Amount","Annual Spending","Withdrawal Rate","Estimated FI Year"` + "\n")
		for _, s := range scenarios {
			writeRow(&b,
				field(s["name"], "Unnamed"),
				field(s["targetAmount"], "0"),
				field(s["annualSpending"], "0"),
				field(s["withdrawalRate"], "4"),
				field(s["fiYear"], "Not Calculated"),
			)
		}
		b.WriteString("\n")
	}

	b.WriteString(`"Net Worth Tracking History"` + "\n")
	b.WriteString(`"Date","Total Assets","Total Liabilities","Net Worth","Projected Net Worth","Variance","Notes"` + "\n")
	for _, e := range env.PlayerData.GameData.NetWorthTracking {
		writeRow(&b,
			e.Date,
			ledger.FormatNumber(e.Totals.TotalAssets),
			ledger.FormatNumber(e.Totals.TotalLiabilities),
			ledger.FormatNumber(e.Totals.NetWorth),
			ledger.FormatNumber(e.Totals.ProjectedNetWorth),
			ledger.FormatNumber(e.Totals.NetVariance),
			e.Notes,
		)
	}

	return b.String()
}

func writeRow(b *strings.Builder, fields ...string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(f)
		b.WriteByte('"')
	}
	b.WriteByte('\n')
}

// decodeScenarios reads the scenario list as loosely typed objects. Anything
// that is not an array of objects yields no rows.
func decodeScenarios(raw json.RawMessage) []map[string]any {
	if core.IsNull(raw) {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		var obj map[string]any
		if err := json.Unmarshal(item, &obj); err != nil || obj == nil {
			obj = map[string]any{}
		}
		out = append(out, obj)
	}
	return out
}

// field renders a scenario value, substituting def for missing, null,
// false, zero and empty values.
func field(v any, def string) string {
	switch t := v.(type) {
	case nil:
		return def
	case string:
		if t == "" {
			return def
		}
		return t
	case float64:
		if t == 0 {
			return def
		}
		return ledger.FormatNumber(t)
	case bool:
		if !t {
			return def
		}
		return "true"
	default:
		data, err := core.MarshalCompact(t)
		if err != nil {
			return def
		}
		return string(data)
	}
}
