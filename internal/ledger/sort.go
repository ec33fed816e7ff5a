package ledger

import (
	"sort"
	"time"

	"fiquest/internal/core"
)

var dateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	time.RFC3339,
}

// ParseDate parses the entry date formats the ledger understands.
func ParseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SortEntries orders entries newest first. Entries with a date that does not
// parse go after all parseable ones and are ordered by plain string
// comparison among themselves. The sort is stable.
func SortEntries(entries []core.NetWorthEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return newer(entries[i].Date, entries[j].Date)
	})
}

func newer(a, b string) bool {
	ta, okA := ParseDate(a)
	tb, okB := ParseDate(b)
	switch {
	case okA && okB:
		return ta.After(tb)
	case okA != okB:
		return okA
	default:
		return a > b
	}
}
